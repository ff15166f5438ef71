// Package captcha implements captcha resolution as a chain of responsibility
// over interchangeable solving backends, each protected by its own circuit
// breaker. Callers describe a detected challenge and ask the chain to solve
// it; the chain walks solvers in registration order and returns the first
// solution, or empty when every backend was skipped or exhausted.
package captcha

import "context"

// Challenge kinds understood by the solver backends. AFIP itself only
// presents image and recaptcha_v2 challenges; the remaining kinds exist
// because the backing services support them and dispatch is purely by kind.
const (
	KindImage       = "image"
	KindText        = "text"
	KindRecaptchaV2 = "recaptcha_v2"
	KindRecaptchaV3 = "recaptcha_v3"
	KindHCaptcha    = "hcaptcha"
	KindFunCaptcha  = "funcaptcha"
)

// Challenge describes a captcha detected on a page. It is constructed by the
// caller per challenge instance and passed through the chain unmodified.
// Which fields are meaningful depends on Kind: image challenges carry the
// element selectors, token challenges carry the site key and page URL.
type Challenge struct {
	// Kind discriminates the challenge type (see the Kind* constants).
	Kind string

	// SiteKey is the widget site key for recaptcha/hcaptcha/funcaptcha.
	SiteKey string

	// PageURL is the URL of the page hosting the challenge. Token-based
	// services require it alongside the site key.
	PageURL string

	// ImageSelector locates the captcha image for image challenges.
	ImageSelector string

	// InputSelector locates the input field where the caller will type
	// the solution. The chain never touches it; it rides along so the
	// caller can apply the solution after resolution.
	InputSelector string
}

// Page is the browser surface a solver may inspect while solving. It is an
// opaque handle from the chain's point of view: the chain passes it through
// to solvers without calling it. *browser.Session satisfies this interface.
type Page interface {
	// Evaluate runs a JavaScript expression in the page and returns its
	// result.
	Evaluate(expression string, args ...interface{}) (interface{}, error)

	// URL returns the current page URL.
	URL() string
}

// Solver is the uniform contract implemented once per solving backend.
type Solver interface {
	// Name identifies the backend for logging and breaker status.
	Name() string

	// CanHandle reports whether this solver supports the given challenge
	// kind. It is a pure predicate used for dispatch and must not perform
	// I/O.
	CanHandle(kind string) bool

	// Solve attempts to resolve the challenge. It returns the solution
	// token or answer text, or "" with a nil error when the backend ran
	// but found no solution. A non-nil error signals an operational
	// failure (network error, malformed response) and counts against the
	// solver's circuit breaker.
	Solve(ctx context.Context, page Page, challenge *Challenge) (string, error)
}

// Logger is the observability sink injected into the chain and breakers.
// *logging.Logger satisfies it; a nil logger disables output.
type Logger interface {
	Debugf(format string, v ...interface{})
	Infof(format string, v ...interface{})
	Warnf(format string, v ...interface{})
	Errorf(format string, v ...interface{})
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...interface{}) {}
func (nopLogger) Infof(string, ...interface{})  {}
func (nopLogger) Warnf(string, ...interface{})  {}
func (nopLogger) Errorf(string, ...interface{}) {}

func orNop(logger Logger) Logger {
	if logger == nil {
		return nopLogger{}
	}
	return logger
}
