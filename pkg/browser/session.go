package browser

import (
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"
)

// UpdateLastUsed updates the LastUsedAt timestamp to the current time.
func (s *Session) UpdateLastUsed() {
	s.LastUsedAt = time.Now()
}

// Navigate navigates the session's page to the specified URL.
func (s *Session) Navigate(url string, opts NavigateOptions) error {
	s.UpdateLastUsed()

	gotoOpts := playwright.PageGotoOptions{}
	if opts.WaitUntil != "" {
		waitUntil := playwright.WaitUntilState(opts.WaitUntil)
		gotoOpts.WaitUntil = &waitUntil
	}
	if opts.Timeout > 0 {
		gotoOpts.Timeout = &opts.Timeout
	}

	if _, err := s.Page.Goto(url, gotoOpts); err != nil {
		return fmt.Errorf("navigation failed: %w", err)
	}

	s.CurrentURL = s.Page.URL()
	return nil
}

// Fill fills an input element with the specified value.
func (s *Session) Fill(selector, value string) error {
	s.UpdateLastUsed()

	if err := s.Page.Fill(selector, value); err != nil {
		return fmt.Errorf("fill failed: %w", err)
	}
	return nil
}

// Click clicks an element matching the selector, waiting up to timeout
// milliseconds for it (0 means session default).
func (s *Session) Click(selector string, timeout float64) error {
	s.UpdateLastUsed()

	opts := playwright.PageClickOptions{}
	if timeout > 0 {
		opts.Timeout = &timeout
	}

	if err := s.Page.Click(selector, opts); err != nil {
		return fmt.Errorf("click failed: %w", err)
	}

	// The click may have triggered navigation.
	s.CurrentURL = s.Page.URL()
	return nil
}

// WaitForSelector waits for an element to appear, up to timeout
// milliseconds (0 means session default).
func (s *Session) WaitForSelector(selector string, timeout float64) error {
	s.UpdateLastUsed()

	opts := playwright.PageWaitForSelectorOptions{}
	if timeout > 0 {
		opts.Timeout = &timeout
	}

	if _, err := s.Page.WaitForSelector(selector, opts); err != nil {
		return fmt.Errorf("wait failed: %w", err)
	}
	return nil
}

// Evaluate runs a JavaScript expression in the page and returns its result.
// This satisfies the captcha package's Page interface.
func (s *Session) Evaluate(expression string, args ...interface{}) (interface{}, error) {
	s.UpdateLastUsed()
	return s.Page.Evaluate(expression, args...)
}

// URL returns the current page URL.
func (s *Session) URL() string {
	return s.Page.URL()
}

// Title returns the current page title.
func (s *Session) Title() (string, error) {
	return s.Page.Title()
}

// Content returns the full HTML content of the current page.
func (s *Session) Content() (string, error) {
	s.UpdateLastUsed()
	return s.Page.Content()
}

// Screenshot captures the page to a PNG file at path.
func (s *Session) Screenshot(path string, fullPage bool) error {
	s.UpdateLastUsed()

	_, err := s.Page.Screenshot(playwright.PageScreenshotOptions{
		Path:     &path,
		FullPage: &fullPage,
	})
	if err != nil {
		return fmt.Errorf("screenshot failed: %w", err)
	}
	return nil
}

// Cookies returns the cookies of the session's browser context.
func (s *Session) Cookies() ([]Cookie, error) {
	raw, err := s.Context.Cookies()
	if err != nil {
		return nil, fmt.Errorf("reading cookies failed: %w", err)
	}

	cookies := make([]Cookie, 0, len(raw))
	for _, c := range raw {
		cookies = append(cookies, Cookie{
			Name:   c.Name,
			Value:  c.Value,
			Domain: c.Domain,
			Path:   c.Path,
		})
	}
	return cookies, nil
}

// SetCookies adds cookies to the session's browser context.
func (s *Session) SetCookies(cookies []Cookie) error {
	optional := make([]playwright.OptionalCookie, 0, len(cookies))
	for _, c := range cookies {
		cookie := playwright.OptionalCookie{
			Name:  c.Name,
			Value: c.Value,
		}
		if c.Domain != "" {
			cookie.Domain = playwright.String(c.Domain)
		}
		if c.Path != "" {
			cookie.Path = playwright.String(c.Path)
		}
		optional = append(optional, cookie)
	}

	if err := s.Context.AddCookies(optional); err != nil {
		return fmt.Errorf("setting cookies failed: %w", err)
	}
	return nil
}

// Pages returns all open pages in the session's browser context. New tabs
// opened by the site (target=_blank links) show up here.
func (s *Session) Pages() []playwright.Page {
	return s.Context.Pages()
}
