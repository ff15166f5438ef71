package afip

import (
	"context"

	"github.com/fiscal-ar/afip-connector/pkg/connector/afip"
	"github.com/fiscal-ar/afip-connector/pkg/tools"
)

// LogoutTool ends the AFIP portal session.
type LogoutTool struct {
	connector *afip.Connector
}

// NewLogoutTool creates a new logout tool.
func NewLogoutTool(connector *afip.Connector) *LogoutTool {
	return &LogoutTool{connector: connector}
}

// Name returns the tool name.
func (t *LogoutTool) Name() string {
	return "afip_logout"
}

// Description returns the tool description.
func (t *LogoutTool) Description() string {
	return "Log out of the AFIP portal and discard the persisted session."
}

// Schema returns the tool's JSON schema.
func (t *LogoutTool) Schema() map[string]interface{} {
	return tools.BaseToolSchema(map[string]interface{}{}, nil)
}

// Execute performs the logout.
func (t *LogoutTool) Execute(ctx context.Context, argsXML []byte) (string, map[string]interface{}, error) {
	if err := t.connector.Logout(ctx); err != nil {
		return "", nil, err
	}
	return "Logged out. The persisted session has been discarded.", nil, nil
}
