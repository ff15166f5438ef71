// Package afip exposes the AFIP connector's operations as tools.
package afip

import (
	"context"
	"encoding/xml"
	"fmt"

	"github.com/fiscal-ar/afip-connector/pkg/connector/afip"
	"github.com/fiscal-ar/afip-connector/pkg/tools"
)

// LoginTool authenticates against the AFIP portal.
type LoginTool struct {
	connector *afip.Connector
}

// NewLoginTool creates a new login tool.
func NewLoginTool(connector *afip.Connector) *LoginTool {
	return &LoginTool{connector: connector}
}

// Name returns the tool name.
func (t *LoginTool) Name() string {
	return "afip_login"
}

// Description returns the tool description.
func (t *LoginTool) Description() string {
	return "Log in to the AFIP portal with CUIT and password. Restores a persisted session when one is still valid; otherwise walks the login form and resolves any captcha through the configured solver services."
}

// Schema returns the tool's JSON schema.
func (t *LoginTool) Schema() map[string]interface{} {
	return tools.BaseToolSchema(
		map[string]interface{}{
			"cuit": map[string]interface{}{
				"type":        "string",
				"description": "Taxpayer CUIT, with or without hyphens (e.g., 20-12345678-9)",
			},
			"password": map[string]interface{}{
				"type":        "string",
				"description": "Clave Fiscal password",
			},
		},
		[]string{"cuit", "password"},
	)
}

// LoginInput represents the parameters for login.
type LoginInput struct {
	XMLName  xml.Name `xml:"arguments"`
	CUIT     string   `xml:"cuit"`
	Password string   `xml:"password"`
}

// Execute performs the login.
func (t *LoginTool) Execute(ctx context.Context, argsXML []byte) (string, map[string]interface{}, error) {
	var input LoginInput
	if err := tools.UnmarshalXMLWithFallback(argsXML, &input); err != nil {
		return "", nil, fmt.Errorf("invalid parameters: %w", err)
	}

	if input.CUIT == "" {
		return "", nil, fmt.Errorf("cuit is required")
	}
	if input.Password == "" {
		return "", nil, fmt.Errorf("password is required")
	}

	status, err := t.connector.Login(ctx, afip.Credentials{
		CUIT:     input.CUIT,
		Password: input.Password,
	})
	if err != nil {
		return "", nil, err
	}

	metadata := map[string]interface{}{"status": string(status)}
	if session := t.connector.Session(); session != nil {
		metadata["session_id"] = session.ID
		metadata["expires_at"] = session.ExpiresAt
	}

	switch status {
	case afip.StatusSuccess:
		return "Login successful. The portal session is active and ready for queries.", metadata, nil
	case afip.StatusCaptchaRequired:
		return "Login blocked by a captcha no solver service could resolve. Manual intervention is required.", metadata, nil
	case afip.StatusCertificateRequired:
		return "This account requires digital certificate authentication; password login is not available.", metadata, nil
	default:
		return "Login failed. Check the CUIT and password.", metadata, nil
	}
}
