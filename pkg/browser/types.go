// Package browser wraps Playwright behind a small session-oriented API. A
// SessionManager owns the Playwright driver and a set of named browser
// sessions; a Session exposes the page operations the connector layer needs
// (navigation, form interaction, script evaluation, screenshots, cookies).
package browser

import (
	"time"

	"github.com/playwright-community/playwright-go"
)

// Session represents an active browser session with its associated
// resources.
type Session struct {
	// Name is the unique identifier for this session.
	Name string

	// Browser is the Playwright browser instance.
	Browser playwright.Browser

	// Context is the browser context (isolated cookie jar and storage).
	Context playwright.BrowserContext

	// Page is the current active page.
	Page playwright.Page

	// Headless indicates if the browser runs without a visible window.
	Headless bool

	// CreatedAt is when the session was created.
	CreatedAt time.Time

	// LastUsedAt is the timestamp of the last operation on this session.
	LastUsedAt time.Time

	// CurrentURL is the URL of the current page.
	CurrentURL string
}

// SessionOptions configures a new browser session.
type SessionOptions struct {
	// Headless controls whether the browser runs without a visible
	// window. AFIP fingerprints and blocks headless browsers, so the
	// connector defaults this to false.
	Headless bool

	// Viewport sets the initial viewport size.
	Viewport *Viewport

	// Timeout sets the default timeout for page operations, in
	// milliseconds.
	Timeout float64
}

// Viewport represents the browser viewport dimensions.
type Viewport struct {
	Width  int
	Height int
}

// NavigateOptions configures page navigation behavior.
type NavigateOptions struct {
	// WaitUntil specifies when to consider navigation successful:
	// "load", "domcontentloaded", or "networkidle".
	WaitUntil string

	// Timeout in milliseconds (0 means session default).
	Timeout float64
}

// Cookie is a browser cookie in the shape session persistence stores.
type Cookie struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Domain string `json:"domain"`
	Path   string `json:"path"`
}

// Default values for session configuration.
const (
	DefaultTimeout        = 30000.0 // milliseconds
	DefaultViewportWidth  = 1280
	DefaultViewportHeight = 720
	DefaultMaxSessions    = 5
	DefaultIdleTimeout    = 300 * time.Second
)
