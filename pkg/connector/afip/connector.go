package afip

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fiscal-ar/afip-connector/pkg/browser"
	"github.com/fiscal-ar/afip-connector/pkg/captcha"
	"github.com/fiscal-ar/afip-connector/pkg/connector/afip/session"
)

const (
	loginURL  = "https://auth.afip.gob.ar/contribuyente_/login.xhtml"
	portalURL = "https://portalcf.cloud.afip.gob.ar/portal/app/"

	// The auth flow redirects here on success. Anything else after
	// submitting the password means the login did not go through.
	portalURLFragment = "portalcf.cloud.afip.gob.ar/portal/app"

	defaultSessionName = "afip"
)

// The login form is a JSF app; field names carry the F1 form prefix.
const (
	usernameSelector = `input[name="F1:username"]`
	nextSelector     = `input[id="F1:btnSiguiente"]`
	passwordSelector = `input[name="F1:password"]`
	submitSelector   = `input[id="F1:btnIngresar"]`
)

// logoutSelectors are tried in order; the portal has moved its logout
// control between redesigns.
var logoutSelectors = []string{
	`a[href*="logout"]`,
	`a[onclick*="logout"]`,
	`#btnSalir`,
	`a[title="Salir"]`,
}

// Options configures a Connector.
type Options struct {
	// Headless controls browser visibility. The portal rejects obvious
	// headless signatures, so headed is the safer default.
	Headless bool

	// SessionName names the browser session; defaults to "afip".
	SessionName string

	// AllowedURLs overrides the navigation allowlist. Empty uses the AFIP
	// defaults.
	AllowedURLs []string

	// ScreenshotDir is where account statement screenshots land. Empty
	// disables screenshots.
	ScreenshotDir string

	// Logger receives connector diagnostics. Nil discards them.
	Logger captcha.Logger
}

// Connector drives the AFIP portal: login with captcha resolution, session
// persistence, and data extraction. A Connector handles one taxpayer at a
// time; its methods are not safe for concurrent use.
type Connector struct {
	manager *browser.SessionManager
	chain   *captcha.Chain
	storage session.Storage
	guard   *NavigationGuard
	logger  captcha.Logger

	sessionName   string
	headless      bool
	screenshotDir string

	browserSession *browser.Session
	current        *Session
}

// NewConnector wires a connector over an initialized browser manager, a
// captcha solver chain, and a session store. Any of chain or storage may be
// nil: a nil chain means captchas always require manual intervention, a nil
// storage means sessions are not persisted.
func NewConnector(manager *browser.SessionManager, chain *captcha.Chain, storage session.Storage, opts Options) (*Connector, error) {
	if manager == nil {
		return nil, fmt.Errorf("browser manager is required")
	}

	guard, err := NewNavigationGuard(opts.AllowedURLs...)
	if err != nil {
		return nil, err
	}

	name := opts.SessionName
	if name == "" {
		name = defaultSessionName
	}

	return &Connector{
		manager:       manager,
		chain:         chain,
		storage:       storage,
		guard:         guard,
		logger:        opts.Logger,
		sessionName:   name,
		headless:      opts.Headless,
		screenshotDir: opts.ScreenshotDir,
	}, nil
}

// Session returns the active portal session, or nil when not logged in.
func (c *Connector) Session() *Session {
	return c.current
}

// SolverStatus returns breaker snapshots for the captcha chain, in
// registration order. Nil chain yields nil.
func (c *Connector) SolverStatus() []captcha.BreakerStatus {
	if c.chain == nil {
		return nil
	}
	return c.chain.Status()
}

func (c *Connector) ensureBrowser() error {
	if c.browserSession != nil {
		return nil
	}

	if existing, err := c.manager.GetSession(c.sessionName); err == nil {
		c.browserSession = existing
		return nil
	}

	sess, err := c.manager.StartSession(c.sessionName, browser.SessionOptions{
		Headless: c.headless,
	})
	if err != nil {
		return fmt.Errorf("starting browser session: %w", err)
	}
	c.browserSession = sess
	return nil
}

// navigate drives the browser to url after checking it against the
// allowlist.
func (c *Connector) navigate(url string) error {
	if !c.guard.Allowed(url) {
		return fmt.Errorf("navigation to %q blocked by allowlist", url)
	}
	return c.browserSession.Navigate(url, browser.NavigateOptions{
		WaitUntil: "networkidle",
	})
}

// Login authenticates against the portal. It first tries to restore a
// persisted session; failing that it walks the two-step login form, solving
// any captcha the portal presents through the solver chain.
//
// The returned status distinguishes outcomes the caller can act on: a
// captcha nobody could solve, an account that requires certificate
// authentication, or plain bad credentials. The error is non-nil only for
// infrastructure failures.
func (c *Connector) Login(ctx context.Context, creds Credentials) (LoginStatus, error) {
	cuit := normalizeCUIT(creds.CUIT)
	if cuit == "" || creds.Password == "" {
		return StatusFailed, fmt.Errorf("credentials require CUIT and password")
	}

	if err := c.ensureBrowser(); err != nil {
		return StatusFailed, err
	}

	if restored, err := c.restoreStoredSession(cuit); err != nil {
		c.logf("session restore failed, continuing with fresh login: %v", err)
	} else if restored {
		c.logf("restored persisted session for %s", cuit)
		return StatusSuccess, nil
	}

	if err := c.navigate(loginURL); err != nil {
		return StatusFailed, err
	}

	// Step 1: CUIT, then advance to the password step.
	if err := c.browserSession.Fill(usernameSelector, cuit); err != nil {
		return StatusFailed, fmt.Errorf("filling CUIT: %w", err)
	}
	if err := c.browserSession.Click(nextSelector, 0); err != nil {
		return StatusFailed, fmt.Errorf("advancing login form: %w", err)
	}
	if err := c.browserSession.WaitForSelector(passwordSelector, 10000); err != nil {
		return StatusFailed, fmt.Errorf("password step never appeared: %w", err)
	}

	// The captcha, when present, renders on the password step.
	challenge, err := c.detectCaptcha()
	if err != nil {
		c.logf("captcha detection failed: %v", err)
	}
	if challenge != nil {
		c.logf("captcha detected: kind=%s", challenge.Kind)
		solution := ""
		if c.chain != nil {
			solution = c.chain.Solve(ctx, c.browserSession, challenge)
		}
		if solution == "" {
			return StatusCaptchaRequired, nil
		}
		if err := c.applySolution(challenge, solution); err != nil {
			return StatusFailed, fmt.Errorf("applying captcha solution: %w", err)
		}
	}

	// Step 2: password and submit.
	if err := c.browserSession.Fill(passwordSelector, creds.Password); err != nil {
		return StatusFailed, fmt.Errorf("filling password: %w", err)
	}
	if err := c.browserSession.Click(submitSelector, 0); err != nil {
		return StatusFailed, fmt.Errorf("submitting login: %w", err)
	}

	// Give the auth redirect time to land.
	time.Sleep(2 * time.Second)

	if strings.Contains(c.browserSession.URL(), portalURLFragment) {
		if err := c.persistSession(cuit); err != nil {
			c.logf("persisting session failed: %v", err)
		}
		return StatusSuccess, nil
	}

	if c.certificateRequired() {
		return StatusCertificateRequired, nil
	}
	return StatusFailed, nil
}

// certificateRequired probes the page for the portal's certificate-auth
// message, shown for accounts that cannot use password login.
func (c *Connector) certificateRequired() bool {
	result, err := c.browserSession.Evaluate(
		`() => document.body ? document.body.innerText.toLowerCase().includes('certificado') : false`)
	if err != nil {
		return false
	}
	required, _ := result.(bool)
	return required
}

// Logout ends the portal session and drops the persisted copy.
func (c *Connector) Logout(ctx context.Context) error {
	if c.browserSession == nil {
		return nil
	}

	clicked := false
	for _, selector := range logoutSelectors {
		if err := c.browserSession.Click(selector, 3000); err == nil {
			clicked = true
			break
		}
	}
	if !clicked {
		c.logf("no logout control found, clearing local session only")
	}

	if c.current != nil && c.storage != nil {
		if err := c.storage.Delete(c.current.CUIT); err != nil {
			c.logf("deleting persisted session: %v", err)
		}
	}
	c.current = nil
	return nil
}

// Close tears down the browser session. The persisted portal session, if
// any, survives for the next run.
func (c *Connector) Close() error {
	if c.browserSession == nil {
		return nil
	}
	err := c.manager.CloseSession(c.sessionName)
	c.browserSession = nil
	c.current = nil
	return err
}

func (c *Connector) persistSession(cuit string) error {
	cookies, err := c.browserSession.Cookies()
	if err != nil {
		return err
	}

	jar := make(map[string]string, len(cookies))
	for _, cookie := range cookies {
		jar[cookie.Name] = cookie.Value
	}

	c.current = session.New(cuit, jar)
	if c.storage == nil {
		return nil
	}
	return c.storage.Save(c.current)
}

// RestoreSession attempts to resume a persisted session for cuit without
// going through the login form. Returns true when the portal accepted the
// stored cookies.
func (c *Connector) RestoreSession(cuit string) (bool, error) {
	if err := c.ensureBrowser(); err != nil {
		return false, err
	}
	return c.restoreStoredSession(normalizeCUIT(cuit))
}

// restoreStoredSession loads a persisted session and verifies it is still
// accepted by the portal. Returns true only when the portal dashboard loads
// under the restored cookies.
func (c *Connector) restoreStoredSession(cuit string) (bool, error) {
	if c.storage == nil {
		return false, nil
	}

	stored, err := c.storage.Load(cuit)
	if err != nil {
		return false, err
	}
	if stored == nil {
		return false, nil
	}
	if stored.Expired() {
		c.logf("stored session for %s expired, discarding", cuit)
		if err := c.storage.Delete(cuit); err != nil {
			c.logf("deleting expired session: %v", err)
		}
		return false, nil
	}

	cookies := make([]browser.Cookie, 0, len(stored.Cookies))
	for name, value := range stored.Cookies {
		cookies = append(cookies, browser.Cookie{
			Name:   name,
			Value:  value,
			Domain: ".afip.gob.ar",
			Path:   "/",
		})
	}
	if err := c.browserSession.SetCookies(cookies); err != nil {
		return false, err
	}

	if err := c.navigate(portalURL); err != nil {
		return false, err
	}
	if !strings.Contains(c.browserSession.URL(), portalURLFragment) {
		// Portal bounced us back to login: cookies are stale.
		if err := c.storage.Delete(cuit); err != nil {
			c.logf("deleting stale session: %v", err)
		}
		return false, nil
	}

	c.current = stored
	return true, nil
}

func (c *Connector) logf(format string, args ...interface{}) {
	if c.logger != nil {
		c.logger.Infof(format, args...)
	}
}
