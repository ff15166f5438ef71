package config

import (
	"fmt"
	"sync"
	"time"

	"github.com/fiscal-ar/afip-connector/pkg/captcha"
)

const (
	// SectionIDSolvers is the identifier for the captcha solver section
	SectionIDSolvers = "solvers"
)

// Known solver service names, used in the chain order.
const (
	SolverCapSolver   = "capsolver"
	SolverTwoCaptcha  = "2captcha"
	SolverAntiCaptcha = "anticaptcha"
)

// SolversSection manages captcha solver settings: service API keys, the
// order they are tried in, and the circuit breaker tuning applied to each.
type SolversSection struct {
	Order []string

	CapSolverAPIKey   string
	TwoCaptchaAPIKey  string
	AntiCaptchaAPIKey string

	FailureThreshold       int
	MaxConsecutiveFailures int
	RecoveryTimeoutSeconds int
	SuccessThreshold       int

	mu sync.RWMutex
}

// NewSolversSection creates a solver section with default settings.
func NewSolversSection() *SolversSection {
	defaults := captcha.DefaultBreakerConfig()
	return &SolversSection{
		Order:                  []string{SolverCapSolver, SolverTwoCaptcha, SolverAntiCaptcha},
		FailureThreshold:       defaults.FailureThreshold,
		MaxConsecutiveFailures: defaults.MaxConsecutiveFailures,
		RecoveryTimeoutSeconds: int(defaults.RecoveryTimeout / time.Second),
		SuccessThreshold:       defaults.SuccessThreshold,
	}
}

// ID returns the section identifier.
func (s *SolversSection) ID() string {
	return SectionIDSolvers
}

// Title returns the section title.
func (s *SolversSection) Title() string {
	return "Captcha Solvers"
}

// Description returns the section description.
func (s *SolversSection) Description() string {
	return "Configure captcha solving services. Services with an API key set are tried in the configured order; each gets an independent circuit breaker with the tuning below."
}

// Data returns the current configuration data.
func (s *SolversSection) Data() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	order := make([]interface{}, len(s.Order))
	for i, name := range s.Order {
		order[i] = name
	}

	return map[string]interface{}{
		"order":                    order,
		"capsolver_api_key":        s.CapSolverAPIKey,
		"twocaptcha_api_key":       s.TwoCaptchaAPIKey,
		"anticaptcha_api_key":      s.AntiCaptchaAPIKey,
		"failure_threshold":        s.FailureThreshold,
		"max_consecutive_failures": s.MaxConsecutiveFailures,
		"recovery_timeout_seconds": s.RecoveryTimeoutSeconds,
		"success_threshold":        s.SuccessThreshold,
	}
}

// SetData updates the configuration from the provided data.
func (s *SolversSection) SetData(data map[string]interface{}) error {
	if data == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if raw, ok := data["order"].([]interface{}); ok {
		order := make([]string, 0, len(raw))
		for _, entry := range raw {
			if name, ok := entry.(string); ok {
				order = append(order, name)
			}
		}
		if len(order) > 0 {
			s.Order = order
		}
	}

	if key, ok := data["capsolver_api_key"].(string); ok {
		s.CapSolverAPIKey = key
	}
	if key, ok := data["twocaptcha_api_key"].(string); ok {
		s.TwoCaptchaAPIKey = key
	}
	if key, ok := data["anticaptcha_api_key"].(string); ok {
		s.AntiCaptchaAPIKey = key
	}

	if v, ok := intValue(data["failure_threshold"]); ok {
		s.FailureThreshold = v
	}
	if v, ok := intValue(data["max_consecutive_failures"]); ok {
		s.MaxConsecutiveFailures = v
	}
	if v, ok := intValue(data["recovery_timeout_seconds"]); ok {
		s.RecoveryTimeoutSeconds = v
	}
	if v, ok := intValue(data["success_threshold"]); ok {
		s.SuccessThreshold = v
	}

	return nil
}

// Validate validates the current configuration.
func (s *SolversSection) Validate() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.FailureThreshold <= 0 {
		return fmt.Errorf("failure_threshold must be positive")
	}
	if s.MaxConsecutiveFailures <= 0 {
		return fmt.Errorf("max_consecutive_failures must be positive")
	}
	if s.RecoveryTimeoutSeconds <= 0 {
		return fmt.Errorf("recovery_timeout_seconds must be positive")
	}
	if s.SuccessThreshold <= 0 {
		return fmt.Errorf("success_threshold must be positive")
	}

	for _, name := range s.Order {
		switch name {
		case SolverCapSolver, SolverTwoCaptcha, SolverAntiCaptcha:
		default:
			return fmt.Errorf("unknown solver service %q", name)
		}
	}
	return nil
}

// Reset resets the section to default configuration.
func (s *SolversSection) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	fresh := NewSolversSection()
	s.Order = fresh.Order
	s.CapSolverAPIKey = ""
	s.TwoCaptchaAPIKey = ""
	s.AntiCaptchaAPIKey = ""
	s.FailureThreshold = fresh.FailureThreshold
	s.MaxConsecutiveFailures = fresh.MaxConsecutiveFailures
	s.RecoveryTimeoutSeconds = fresh.RecoveryTimeoutSeconds
	s.SuccessThreshold = fresh.SuccessThreshold
}

// BreakerConfig returns the breaker tuning as the captcha package consumes
// it.
func (s *SolversSection) BreakerConfig() captcha.BreakerConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return captcha.BreakerConfig{
		FailureThreshold:       s.FailureThreshold,
		MaxConsecutiveFailures: s.MaxConsecutiveFailures,
		RecoveryTimeout:        time.Duration(s.RecoveryTimeoutSeconds) * time.Second,
		SuccessThreshold:       s.SuccessThreshold,
	}
}

// APIKey returns the configured API key for a service name, empty when the
// service is unknown or unconfigured.
func (s *SolversSection) APIKey(service string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	switch service {
	case SolverCapSolver:
		return s.CapSolverAPIKey
	case SolverTwoCaptcha:
		return s.TwoCaptchaAPIKey
	case SolverAntiCaptcha:
		return s.AntiCaptchaAPIKey
	}
	return ""
}

// ChainOrder returns the configured service order.
func (s *SolversSection) ChainOrder() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.Order...)
}

// intValue normalizes the numeric types a JSON round trip produces.
func intValue(raw interface{}) (int, bool) {
	switch v := raw.(type) {
	case int:
		return v, true
	case float64:
		return int(v), true
	}
	return 0, false
}
