package afip

import (
	"fmt"

	"github.com/fiscal-ar/afip-connector/pkg/captcha"
)

const (
	captchaImageSelector = `img[id*="captcha"], img[src*="captcha"]`
	captchaInputSelector = `input[id*="captcha"], input[name*="captcha"]`
)

// recaptchaProbeJS reads the sitekey off a reCAPTCHA widget if one is
// mounted on the page.
const recaptchaProbeJS = `() => {
	const el = document.querySelector('.g-recaptcha');
	if (el && el.getAttribute('data-sitekey')) {
		return el.getAttribute('data-sitekey');
	}
	const frame = document.querySelector('iframe[src*="recaptcha"]');
	if (frame) {
		const match = frame.src.match(/[?&]k=([^&]+)/);
		if (match) return match[1];
	}
	return null;
}`

// imageProbeJS reports whether a traditional image captcha with a text
// input is present.
const imageProbeJS = `() => {
	const img = document.querySelector('img[id*="captcha"], img[src*="captcha"]');
	const input = document.querySelector('input[id*="captcha"], input[name*="captcha"]');
	return !!(img && input);
}`

// detectCaptcha inspects the current page for a captcha challenge. It
// returns nil when the page has none. reCAPTCHA is checked first: the
// portal's reCAPTCHA pages also contain captcha-named elements that would
// otherwise misclassify as an image challenge.
func (c *Connector) detectCaptcha() (*captcha.Challenge, error) {
	result, err := c.browserSession.Evaluate(recaptchaProbeJS)
	if err != nil {
		return nil, fmt.Errorf("probing for recaptcha: %w", err)
	}
	if siteKey, ok := result.(string); ok && siteKey != "" {
		return &captcha.Challenge{
			Kind:    captcha.KindRecaptchaV2,
			SiteKey: siteKey,
			PageURL: c.browserSession.URL(),
		}, nil
	}

	result, err = c.browserSession.Evaluate(imageProbeJS)
	if err != nil {
		return nil, fmt.Errorf("probing for image captcha: %w", err)
	}
	if present, ok := result.(bool); ok && present {
		return &captcha.Challenge{
			Kind:          captcha.KindImage,
			PageURL:       c.browserSession.URL(),
			ImageSelector: captchaImageSelector,
			InputSelector: captchaInputSelector,
		}, nil
	}

	return nil, nil
}

// injectTokenJS places a solved reCAPTCHA token where the site's scripts
// expect it and fires the widget callback if one is registered.
const injectTokenJS = `(token) => {
	const area = document.getElementById('g-recaptcha-response');
	if (area) {
		area.style.display = 'block';
		area.value = token;
	}
	if (typeof ___grecaptcha_cfg !== 'undefined') {
		for (const id of Object.keys(___grecaptcha_cfg.clients)) {
			const client = ___grecaptcha_cfg.clients[id];
			for (const key of Object.keys(client)) {
				const inner = client[key];
				if (inner && typeof inner === 'object') {
					for (const k of Object.keys(inner)) {
						if (inner[k] && typeof inner[k].callback === 'function') {
							inner[k].callback(token);
							return true;
						}
					}
				}
			}
		}
	}
	return false;
}`

// applySolution feeds a solved captcha back into the page: image solutions
// fill the text input, token solutions are injected into the reCAPTCHA
// response field.
func (c *Connector) applySolution(challenge *captcha.Challenge, solution string) error {
	switch challenge.Kind {
	case captcha.KindImage, captcha.KindText:
		return c.browserSession.Fill(challenge.InputSelector, solution)
	default:
		if _, err := c.browserSession.Evaluate(injectTokenJS, solution); err != nil {
			return fmt.Errorf("injecting token: %w", err)
		}
		return nil
	}
}
