package afip

import (
	"context"
	"encoding/xml"
	"fmt"

	"github.com/fiscal-ar/afip-connector/pkg/connector/afip"
	"github.com/fiscal-ar/afip-connector/pkg/tools"
)

// AccountStatementTool runs the "Estado de cuenta" debt calculation.
type AccountStatementTool struct {
	connector *afip.Connector
}

// NewAccountStatementTool creates a new account statement tool.
func NewAccountStatementTool(connector *afip.Connector) *AccountStatementTool {
	return &AccountStatementTool{connector: connector}
}

// Name returns the tool name.
func (t *AccountStatementTool) Name() string {
	return "afip_account_statement"
}

// Description returns the tool description.
func (t *AccountStatementTool) Description() string {
	return "Fetch the account statement (Estado de cuenta) from the AFIP portal: total debt for a period plus a full-page screenshot. Requires an active session."
}

// Schema returns the tool's JSON schema.
func (t *AccountStatementTool) Schema() map[string]interface{} {
	return tools.BaseToolSchema(
		map[string]interface{}{
			"period_from": map[string]interface{}{
				"type":        "string",
				"description": "Start period in MM/YYYY format (defaults to January of the current year)",
			},
			"period_to": map[string]interface{}{
				"type":        "string",
				"description": "End period in MM/YYYY format (defaults to the current month)",
			},
			"calculation_date": map[string]interface{}{
				"type":        "string",
				"description": "Debt calculation date in DD/MM/YYYY format (defaults to today)",
			},
		},
		nil,
	)
}

// StatementInput represents the parameters for the statement query.
type StatementInput struct {
	XMLName         xml.Name `xml:"arguments"`
	PeriodFrom      string   `xml:"period_from"`
	PeriodTo        string   `xml:"period_to"`
	CalculationDate string   `xml:"calculation_date"`
}

// Execute runs the statement query.
func (t *AccountStatementTool) Execute(ctx context.Context, argsXML []byte) (string, map[string]interface{}, error) {
	var input StatementInput
	if err := tools.UnmarshalXMLWithFallback(argsXML, &input); err != nil {
		return "", nil, fmt.Errorf("invalid parameters: %w", err)
	}

	statement, err := t.connector.AccountStatement(ctx, input.PeriodFrom, input.PeriodTo, input.CalculationDate)
	if err != nil {
		return "", nil, err
	}

	result := fmt.Sprintf(`Account statement retrieved

- Period: %s to %s (calculated as of %s)
- Total debt: $%.2f
- Screenshot: %s`,
		statement.PeriodFrom,
		statement.PeriodTo,
		statement.CalculationDate,
		statement.TotalDebt,
		statement.ScreenshotPath,
	)

	metadata := map[string]interface{}{
		"total_debt":      statement.TotalDebt,
		"screenshot_path": statement.ScreenshotPath,
	}
	return result, metadata, nil
}
