package afip

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/fiscal-ar/afip-connector/pkg/connector/afip"
	"github.com/fiscal-ar/afip-connector/pkg/tools"
)

// PendingPaymentsTool retrieves pending tax payments.
type PendingPaymentsTool struct {
	connector *afip.Connector
}

// NewPendingPaymentsTool creates a new pending payments tool.
func NewPendingPaymentsTool(connector *afip.Connector) *PendingPaymentsTool {
	return &PendingPaymentsTool{connector: connector}
}

// Name returns the tool name.
func (t *PendingPaymentsTool) Name() string {
	return "afip_pending_payments"
}

// Description returns the tool description.
func (t *PendingPaymentsTool) Description() string {
	return "Retrieve the list of pending tax payment obligations from the AFIP portal. Requires an active session."
}

// Schema returns the tool's JSON schema.
func (t *PendingPaymentsTool) Schema() map[string]interface{} {
	return tools.BaseToolSchema(map[string]interface{}{}, nil)
}

// Execute retrieves the payments.
func (t *PendingPaymentsTool) Execute(ctx context.Context, argsXML []byte) (string, map[string]interface{}, error) {
	payments, err := t.connector.PendingPayments(ctx)
	if err != nil {
		return "", nil, err
	}

	encoded, err := json.MarshalIndent(payments, "", "  ")
	if err != nil {
		return "", nil, fmt.Errorf("encoding payments: %w", err)
	}

	result := fmt.Sprintf("Found %d pending payments:\n\n%s", len(payments), encoded)
	return result, map[string]interface{}{"count": len(payments)}, nil
}
