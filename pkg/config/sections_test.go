package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSolversSection_Defaults(t *testing.T) {
	s := NewSolversSection()

	assert.Equal(t, []string{"capsolver", "2captcha", "anticaptcha"}, s.ChainOrder())
	assert.NoError(t, s.Validate())

	cfg := s.BreakerConfig()
	assert.Equal(t, 5, cfg.FailureThreshold)
	assert.Equal(t, 3, cfg.MaxConsecutiveFailures)
	assert.Equal(t, 60*time.Second, cfg.RecoveryTimeout)
	assert.Equal(t, 3, cfg.SuccessThreshold)
}

func TestSolversSection_SetDataFromJSON(t *testing.T) {
	s := NewSolversSection()

	// JSON decoding produces float64 for numbers and []interface{} for
	// arrays; SetData has to cope with both.
	err := s.SetData(map[string]interface{}{
		"order":                    []interface{}{"2captcha", "capsolver"},
		"twocaptcha_api_key":       "key-2c",
		"failure_threshold":        float64(10),
		"recovery_timeout_seconds": float64(120),
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"2captcha", "capsolver"}, s.ChainOrder())
	assert.Equal(t, "key-2c", s.APIKey(SolverTwoCaptcha))
	assert.Empty(t, s.APIKey(SolverCapSolver))

	cfg := s.BreakerConfig()
	assert.Equal(t, 10, cfg.FailureThreshold)
	assert.Equal(t, 120*time.Second, cfg.RecoveryTimeout)
	// Untouched fields keep their defaults.
	assert.Equal(t, 3, cfg.MaxConsecutiveFailures)
}

func TestSolversSection_Validate(t *testing.T) {
	s := NewSolversSection()
	s.FailureThreshold = 0
	assert.Error(t, s.Validate())

	s = NewSolversSection()
	s.Order = []string{"deathbycaptcha"}
	assert.Error(t, s.Validate())
}

func TestSolversSection_Reset(t *testing.T) {
	s := NewSolversSection()
	require.NoError(t, s.SetData(map[string]interface{}{
		"capsolver_api_key": "secret",
		"failure_threshold": 99,
	}))

	s.Reset()

	assert.Empty(t, s.APIKey(SolverCapSolver))
	assert.Equal(t, 5, s.BreakerConfig().FailureThreshold)
}

func TestBrowserSection(t *testing.T) {
	s := NewBrowserSection()
	assert.False(t, s.IsHeadless())
	assert.NoError(t, s.Validate())

	require.NoError(t, s.SetData(map[string]interface{}{
		"headless":   true,
		"timeout_ms": float64(60000),
	}))
	assert.True(t, s.IsHeadless())
	assert.Equal(t, 60000, s.TimeoutMs)

	s.TimeoutMs = 0
	assert.Error(t, s.Validate())
}

func TestSessionsSection(t *testing.T) {
	s := NewSessionsSection()
	assert.True(t, s.ShouldPersist())
	assert.NotEmpty(t, s.StorageDir())

	require.NoError(t, s.SetData(map[string]interface{}{
		"persist": false,
		"dir":     "/tmp/sessions",
	}))
	assert.False(t, s.ShouldPersist())
	assert.Equal(t, "/tmp/sessions", s.StorageDir())
}
