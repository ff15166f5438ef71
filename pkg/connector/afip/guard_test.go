package afip

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNavigationGuard_Defaults(t *testing.T) {
	guard, err := NewNavigationGuard()
	require.NoError(t, err)

	allowed := []string{
		"https://auth.afip.gob.ar/contribuyente_/login.xhtml",
		"https://portalcf.cloud.afip.gob.ar/portal/app/",
		"https://servicios2.afip.gob.ar/tramites_con_clave_fiscal/ccam/P02_ctacte.asp",
		"about:blank",
	}
	for _, url := range allowed {
		assert.True(t, guard.Allowed(url), url)
	}

	blocked := []string{
		"https://example.com/",
		"https://afip.gob.ar.evil.com/login",
		"http://portalcf.cloud.afip.gob.ar/portal/app/",
	}
	for _, url := range blocked {
		assert.False(t, guard.Allowed(url), url)
	}
}

func TestNavigationGuard_CustomPatterns(t *testing.T) {
	guard, err := NewNavigationGuard("https://staging.example.com/*")
	require.NoError(t, err)

	assert.True(t, guard.Allowed("https://staging.example.com/login"))
	assert.False(t, guard.Allowed("https://auth.afip.gob.ar/"))
	assert.Equal(t, []string{"https://staging.example.com/*"}, guard.Patterns())
}

func TestNavigationGuard_InvalidPattern(t *testing.T) {
	_, err := NewNavigationGuard("https://[invalid")
	assert.Error(t, err)
}
