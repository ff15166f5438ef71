package afip

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fiscal-ar/afip-connector/pkg/browser"
	connector "github.com/fiscal-ar/afip-connector/pkg/connector/afip"
	"github.com/fiscal-ar/afip-connector/pkg/tools"
)

func newTestConnector(t *testing.T) *connector.Connector {
	t.Helper()
	c, err := connector.NewConnector(browser.NewSessionManager(), nil, nil, connector.Options{})
	require.NoError(t, err)
	return c
}

func TestRegisterTools(t *testing.T) {
	registry := tools.NewRegistry()
	require.NoError(t, RegisterTools(registry, newTestConnector(t)))

	names := []string{}
	for _, tool := range registry.List() {
		names = append(names, tool.Name())
	}
	assert.Equal(t, []string{
		"afip_login",
		"afip_logout",
		"afip_pending_payments",
		"afip_account_statement",
		"afip_solver_status",
	}, names)

	// Registering twice collides on names.
	assert.Error(t, RegisterTools(registry, newTestConnector(t)))
}

func TestLoginTool_ValidatesInput(t *testing.T) {
	tool := NewLoginTool(newTestConnector(t))

	_, _, err := tool.Execute(context.Background(),
		[]byte(`<arguments><password>x</password></arguments>`))
	assert.ErrorContains(t, err, "cuit is required")

	_, _, err = tool.Execute(context.Background(),
		[]byte(`<arguments><cuit>20-12345678-9</cuit></arguments>`))
	assert.ErrorContains(t, err, "password is required")

	_, _, err = tool.Execute(context.Background(), []byte(`not xml <<`))
	assert.ErrorContains(t, err, "invalid parameters")
}

func TestLoginTool_Schema(t *testing.T) {
	schema := NewLoginTool(newTestConnector(t)).Schema()

	assert.Equal(t, "object", schema["type"])
	props := schema["properties"].(map[string]interface{})
	assert.Contains(t, props, "cuit")
	assert.Contains(t, props, "password")
	assert.ElementsMatch(t, []string{"cuit", "password"}, schema["required"])
}

func TestSolverStatusTool_NoSolversConfigured(t *testing.T) {
	tool := NewSolverStatusTool(newTestConnector(t))

	result, _, err := tool.Execute(context.Background(), []byte(`<arguments></arguments>`))
	require.NoError(t, err)
	assert.Contains(t, result, "No captcha solver services")
}

func TestPendingPaymentsTool_RequiresLogin(t *testing.T) {
	tool := NewPendingPaymentsTool(newTestConnector(t))

	_, _, err := tool.Execute(context.Background(), []byte(`<arguments></arguments>`))
	assert.ErrorContains(t, err, "not logged in")
}

func TestAccountStatementTool_RequiresLogin(t *testing.T) {
	tool := NewAccountStatementTool(newTestConnector(t))

	_, _, err := tool.Execute(context.Background(),
		[]byte(`<arguments><period_from>01/2026</period_from></arguments>`))
	assert.ErrorContains(t, err, "not logged in")
}
