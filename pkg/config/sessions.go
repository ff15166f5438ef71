package config

import (
	"os"
	"path/filepath"
	"sync"
)

const (
	// SectionIDSessions is the identifier for the session storage section
	SectionIDSessions = "sessions"
)

// SessionsSection manages portal session persistence settings.
type SessionsSection struct {
	Persist bool
	Dir     string

	mu sync.RWMutex
}

// NewSessionsSection creates a session section with default settings.
func NewSessionsSection() *SessionsSection {
	return &SessionsSection{Persist: true}
}

// ID returns the section identifier.
func (s *SessionsSection) ID() string {
	return SectionIDSessions
}

// Title returns the section title.
func (s *SessionsSection) Title() string {
	return "Session Storage"
}

// Description returns the section description.
func (s *SessionsSection) Description() string {
	return "Configure portal session persistence. Persisted sessions are encrypted at rest and let subsequent runs skip login and captcha solving."
}

// Data returns the current configuration data.
func (s *SessionsSection) Data() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return map[string]interface{}{
		"persist": s.Persist,
		"dir":     s.Dir,
	}
}

// SetData updates the configuration from the provided data.
func (s *SessionsSection) SetData(data map[string]interface{}) error {
	if data == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if persist, ok := data["persist"].(bool); ok {
		s.Persist = persist
	}
	if dir, ok := data["dir"].(string); ok {
		s.Dir = dir
	}
	return nil
}

// Validate validates the current configuration.
func (s *SessionsSection) Validate() error {
	return nil
}

// Reset resets the section to default configuration.
func (s *SessionsSection) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Persist = true
	s.Dir = ""
}

// StorageDir resolves the session storage directory, falling back to
// ~/.afip-connector/sessions when unset.
func (s *SessionsSection) StorageDir() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.Dir != "" {
		return s.Dir
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".afip-connector", "sessions")
	}
	return filepath.Join(homeDir, ".afip-connector", "sessions")
}

// ShouldPersist returns whether sessions are persisted across runs.
func (s *SessionsSection) ShouldPersist() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Persist
}
