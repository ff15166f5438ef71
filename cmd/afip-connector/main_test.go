package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fiscal-ar/afip-connector/pkg/browser"
	"github.com/fiscal-ar/afip-connector/pkg/connector/afip"
)

// Logout must not authenticate first: with no browser and nothing to
// restore it still succeeds and reports the session as cleared, without
// ever reaching the login form or the solver chain.
func TestExecute_LogoutSkipsLogin(t *testing.T) {
	connector, err := afip.NewConnector(browser.NewSessionManager(), nil, nil, afip.Options{})
	require.NoError(t, err)

	result, err := execute(context.Background(), connector, &CLIConfig{
		Operation: "logout",
		CUIT:      "20-12345678-9",
	})
	require.NoError(t, err)

	out, ok := result.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, true, out["logged_out"])
	assert.Equal(t, false, out["session_restored"])
	assert.Nil(t, connector.Session())
}
