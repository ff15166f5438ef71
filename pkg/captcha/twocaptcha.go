package captcha

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// TwoCaptcha solves captchas through the 2Captcha in.php/res.php API.
// 2Captcha routes work to human workers, so it is slower than CapSolver but
// handles the widest range of challenge kinds, including free-text ones.
type TwoCaptcha struct {
	apiKey       string
	baseURL      string
	client       *http.Client
	pollInterval time.Duration
	maxWait      time.Duration
	logger       Logger
}

// NewTwoCaptcha creates a 2Captcha backend with the given API key.
func NewTwoCaptcha(apiKey string, logger Logger) *TwoCaptcha {
	return &TwoCaptcha{
		apiKey:       apiKey,
		baseURL:      "https://2captcha.com",
		client:       &http.Client{Timeout: 30 * time.Second},
		pollInterval: 5 * time.Second,
		maxWait:      3 * time.Minute,
		logger:       orNop(logger),
	}
}

func (s *TwoCaptcha) Name() string { return "2captcha" }

func (s *TwoCaptcha) CanHandle(kind string) bool {
	switch kind {
	case KindRecaptchaV2, KindRecaptchaV3, KindHCaptcha, KindImage, KindText:
		return true
	}
	return false
}

func (s *TwoCaptcha) Solve(ctx context.Context, page Page, challenge *Challenge) (string, error) {
	params, err := s.submitParams(page, challenge)
	if err != nil || params == nil {
		return "", err
	}

	captchaID, err := s.submit(ctx, params)
	if err != nil {
		return "", err
	}

	s.logger.Infof("2captcha task submitted: id=%s kind=%s", captchaID, challenge.Kind)

	return pollSolution(ctx, s.pollInterval, s.maxWait, func() (string, bool, error) {
		return s.result(ctx, captchaID)
	})
}

func (s *TwoCaptcha) submitParams(page Page, challenge *Challenge) (url.Values, error) {
	params := url.Values{}
	params.Set("key", s.apiKey)
	params.Set("json", "1")

	switch challenge.Kind {
	case KindImage:
		image, err := extractImageBase64(page, challenge.ImageSelector)
		if err != nil {
			return nil, err
		}
		if image == "" {
			s.logger.Errorf("2captcha: captcha image not found: %s", challenge.ImageSelector)
			return nil, nil
		}
		params.Set("method", "base64")
		params.Set("body", image)

	case KindRecaptchaV2, KindRecaptchaV3:
		if challenge.SiteKey == "" {
			s.logger.Errorf("2captcha: recaptcha site key missing")
			return nil, nil
		}
		params.Set("method", "userrecaptcha")
		params.Set("googlekey", challenge.SiteKey)
		params.Set("pageurl", challengeURL(page, challenge))
		if challenge.Kind == KindRecaptchaV3 {
			params.Set("version", "v3")
		}

	case KindHCaptcha:
		if challenge.SiteKey == "" {
			return nil, nil
		}
		params.Set("method", "hcaptcha")
		params.Set("sitekey", challenge.SiteKey)
		params.Set("pageurl", challengeURL(page, challenge))

	case KindText:
		params.Set("method", "post")
		params.Set("textcaptcha", challenge.PageURL)

	default:
		return nil, nil
	}

	return params, nil
}

func (s *TwoCaptcha) submit(ctx context.Context, params url.Values) (string, error) {
	body, err := s.postForm(ctx, s.baseURL+"/in.php", params)
	if err != nil {
		return "", fmt.Errorf("2captcha submit: %w", err)
	}
	if gjson.Get(body, "status").Int() != 1 {
		return "", fmt.Errorf("2captcha submit: %s", gjson.Get(body, "request").String())
	}
	return gjson.Get(body, "request").String(), nil
}

func (s *TwoCaptcha) result(ctx context.Context, captchaID string) (string, bool, error) {
	query := url.Values{}
	query.Set("key", s.apiKey)
	query.Set("action", "get")
	query.Set("id", captchaID)
	query.Set("json", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/res.php?"+query.Encode(), nil)
	if err != nil {
		return "", false, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return "", false, fmt.Errorf("2captcha result: %w", err)
	}
	defer resp.Body.Close()

	body, err := readBody(resp)
	if err != nil {
		return "", false, fmt.Errorf("2captcha result: %w", err)
	}

	request := gjson.Get(body, "request").String()
	if gjson.Get(body, "status").Int() == 1 {
		return request, true, nil
	}
	if request == "CAPCHA_NOT_READY" {
		return "", false, nil
	}
	return "", false, fmt.Errorf("2captcha result: %s", request)
}

func (s *TwoCaptcha) postForm(ctx context.Context, endpoint string, params url.Values) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(params.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	return readBody(resp)
}
