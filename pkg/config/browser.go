package config

import (
	"fmt"
	"sync"
)

const (
	// SectionIDBrowser is the identifier for the browser section
	SectionIDBrowser = "browser"
)

// BrowserSection manages browser automation settings.
type BrowserSection struct {
	Headless       bool
	ViewportWidth  int
	ViewportHeight int
	TimeoutMs      int

	mu sync.RWMutex
}

// NewBrowserSection creates a browser section with default settings. The
// browser runs headed by default; AFIP's login flow rejects obvious
// headless signatures.
func NewBrowserSection() *BrowserSection {
	return &BrowserSection{
		Headless:       false,
		ViewportWidth:  1280,
		ViewportHeight: 720,
		TimeoutMs:      30000,
	}
}

// ID returns the section identifier.
func (s *BrowserSection) ID() string {
	return SectionIDBrowser
}

// Title returns the section title.
func (s *BrowserSection) Title() string {
	return "Browser"
}

// Description returns the section description.
func (s *BrowserSection) Description() string {
	return "Configure browser automation. Headless is off by default because the portal rejects obvious headless browsers."
}

// Data returns the current configuration data.
func (s *BrowserSection) Data() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return map[string]interface{}{
		"headless":        s.Headless,
		"viewport_width":  s.ViewportWidth,
		"viewport_height": s.ViewportHeight,
		"timeout_ms":      s.TimeoutMs,
	}
}

// SetData updates the configuration from the provided data.
func (s *BrowserSection) SetData(data map[string]interface{}) error {
	if data == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if headless, ok := data["headless"].(bool); ok {
		s.Headless = headless
	}
	if v, ok := intValue(data["viewport_width"]); ok {
		s.ViewportWidth = v
	}
	if v, ok := intValue(data["viewport_height"]); ok {
		s.ViewportHeight = v
	}
	if v, ok := intValue(data["timeout_ms"]); ok {
		s.TimeoutMs = v
	}
	return nil
}

// Validate validates the current configuration.
func (s *BrowserSection) Validate() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.ViewportWidth <= 0 || s.ViewportHeight <= 0 {
		return fmt.Errorf("viewport dimensions must be positive")
	}
	if s.TimeoutMs <= 0 {
		return fmt.Errorf("timeout_ms must be positive")
	}
	return nil
}

// Reset resets the section to default configuration.
func (s *BrowserSection) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	fresh := NewBrowserSection()
	s.Headless = fresh.Headless
	s.ViewportWidth = fresh.ViewportWidth
	s.ViewportHeight = fresh.ViewportHeight
	s.TimeoutMs = fresh.TimeoutMs
}

// IsHeadless returns whether the browser runs headless.
func (s *BrowserSection) IsHeadless() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Headless
}
