package afip

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/fiscal-ar/afip-connector/pkg/connector/afip"
	"github.com/fiscal-ar/afip-connector/pkg/tools"
)

// SolverStatusTool reports the health of the captcha solver services.
type SolverStatusTool struct {
	connector *afip.Connector
}

// NewSolverStatusTool creates a new solver status tool.
func NewSolverStatusTool(connector *afip.Connector) *SolverStatusTool {
	return &SolverStatusTool{connector: connector}
}

// Name returns the tool name.
func (t *SolverStatusTool) Name() string {
	return "afip_solver_status"
}

// Description returns the tool description.
func (t *SolverStatusTool) Description() string {
	return "Report circuit breaker state and failure counts for each configured captcha solver service."
}

// Schema returns the tool's JSON schema.
func (t *SolverStatusTool) Schema() map[string]interface{} {
	return tools.BaseToolSchema(map[string]interface{}{}, nil)
}

// Execute reports the solver status.
func (t *SolverStatusTool) Execute(ctx context.Context, argsXML []byte) (string, map[string]interface{}, error) {
	statuses := t.connector.SolverStatus()
	if len(statuses) == 0 {
		return "No captcha solver services are configured.", nil, nil
	}

	encoded, err := json.MarshalIndent(statuses, "", "  ")
	if err != nil {
		return "", nil, fmt.Errorf("encoding solver status: %w", err)
	}

	return fmt.Sprintf("Solver service status:\n\n%s", encoded), map[string]interface{}{
		"count": len(statuses),
	}, nil
}
