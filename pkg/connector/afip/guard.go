package afip

import (
	"fmt"

	"github.com/gobwas/glob"
)

// defaultAllowedURLs covers the AFIP properties the connector navigates:
// the auth frontend, the portal dashboard, and the legacy servicios hosts
// that account statement pages live on.
var defaultAllowedURLs = []string{
	"https://auth.afip.gob.ar/*",
	"https://portalcf.cloud.afip.gob.ar/*",
	"https://servicios*.afip.gob.ar/*",
	"https://*.afip.gob.ar/*",
	"about:blank",
}

// NavigationGuard restricts which URLs the connector will drive the browser
// to. Every explicit navigation is checked against the allowlist before the
// browser moves, so a scraped or injected link can never send the automation
// off the tax portal.
type NavigationGuard struct {
	patterns []glob.Glob
	sources  []string
}

// NewNavigationGuard compiles an allowlist of URL glob patterns. With no
// patterns, the AFIP defaults are used.
func NewNavigationGuard(patterns ...string) (*NavigationGuard, error) {
	if len(patterns) == 0 {
		patterns = defaultAllowedURLs
	}

	g := &NavigationGuard{}
	for _, p := range patterns {
		compiled, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid URL pattern %q: %w", p, err)
		}
		g.patterns = append(g.patterns, compiled)
		g.sources = append(g.sources, p)
	}
	return g, nil
}

// Allowed reports whether the guard permits navigating to url.
func (g *NavigationGuard) Allowed(url string) bool {
	for _, p := range g.patterns {
		if p.Match(url) {
			return true
		}
	}
	return false
}

// Patterns returns the configured pattern strings.
func (g *NavigationGuard) Patterns() []string {
	return append([]string(nil), g.sources...)
}
