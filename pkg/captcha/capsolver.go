package captcha

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// extractImageJS renders the captcha image element into a canvas and returns
// its base64 PNG payload. Drawing through a canvas works for both inline and
// cross-origin-exempt images, which is how AFIP serves its captcha.
const extractImageJS = `(sel) => {
	const img = document.querySelector(sel);
	if (!img) return null;
	const canvas = document.createElement('canvas');
	canvas.width = img.width;
	canvas.height = img.height;
	const ctx = canvas.getContext('2d');
	ctx.drawImage(img, 0, 0);
	return canvas.toDataURL('image/png').split(',')[1];
}`

// extractImageBase64 pulls the challenge image out of the page as base64 PNG
// data. Returns "" when the element is missing.
func extractImageBase64(page Page, selector string) (string, error) {
	result, err := page.Evaluate(extractImageJS, selector)
	if err != nil {
		return "", fmt.Errorf("extracting captcha image: %w", err)
	}
	data, ok := result.(string)
	if !ok {
		return "", nil
	}
	return data, nil
}

// pollSolution calls fetch on the given interval until it reports done, the
// context is cancelled, or maxWait elapses. Solving services queue work and
// expect clients to poll.
func pollSolution(ctx context.Context, interval, maxWait time.Duration, fetch func() (string, bool, error)) (string, error) {
	deadline := time.NewTimer(maxWait)
	defer deadline.Stop()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-deadline.C:
			return "", fmt.Errorf("captcha solve timed out after %s", maxWait)
		case <-ticker.C:
			solution, done, err := fetch()
			if err != nil {
				return "", err
			}
			if done {
				return solution, nil
			}
		}
	}
}

// CapSolver solves captchas through the CapSolver createTask/getTaskResult
// JSON API. It is typically registered first in the chain: fully automated,
// fast, and the cheapest of the supported services.
type CapSolver struct {
	apiKey       string
	baseURL      string
	client       *http.Client
	pollInterval time.Duration
	maxWait      time.Duration
	logger       Logger
}

// NewCapSolver creates a CapSolver backend with the given API key.
func NewCapSolver(apiKey string, logger Logger) *CapSolver {
	return &CapSolver{
		apiKey:       apiKey,
		baseURL:      "https://api.capsolver.com",
		client:       &http.Client{Timeout: 30 * time.Second},
		pollInterval: 3 * time.Second,
		maxWait:      2 * time.Minute,
		logger:       orNop(logger),
	}
}

func (s *CapSolver) Name() string { return "capsolver" }

func (s *CapSolver) CanHandle(kind string) bool {
	switch kind {
	case KindRecaptchaV2, KindRecaptchaV3, KindHCaptcha, KindImage:
		return true
	}
	return false
}

func (s *CapSolver) Solve(ctx context.Context, page Page, challenge *Challenge) (string, error) {
	task, err := s.buildTask(page, challenge)
	if err != nil || task == nil {
		return "", err
	}

	taskID, err := s.createTask(ctx, task)
	if err != nil {
		return "", err
	}

	s.logger.Infof("capsolver task created: id=%s kind=%s", taskID, challenge.Kind)

	return pollSolution(ctx, s.pollInterval, s.maxWait, func() (string, bool, error) {
		return s.taskResult(ctx, taskID)
	})
}

// buildTask maps a challenge onto a CapSolver task payload. A nil task with
// nil error means the challenge carries no solvable content (missing image
// or site key), which the chain treats as "no solution".
func (s *CapSolver) buildTask(page Page, challenge *Challenge) (map[string]interface{}, error) {
	switch challenge.Kind {
	case KindImage:
		image, err := extractImageBase64(page, challenge.ImageSelector)
		if err != nil {
			return nil, err
		}
		if image == "" {
			s.logger.Errorf("capsolver: captcha image not found: %s", challenge.ImageSelector)
			return nil, nil
		}
		return map[string]interface{}{
			"type": "ImageToTextTask",
			"body": image,
		}, nil

	case KindRecaptchaV2, KindRecaptchaV3:
		if challenge.SiteKey == "" {
			s.logger.Errorf("capsolver: recaptcha site key missing")
			return nil, nil
		}
		taskType := "ReCaptchaV2TaskProxyLess"
		if challenge.Kind == KindRecaptchaV3 {
			taskType = "ReCaptchaV3TaskProxyLess"
		}
		return map[string]interface{}{
			"type":       taskType,
			"websiteURL": challengeURL(page, challenge),
			"websiteKey": challenge.SiteKey,
		}, nil

	case KindHCaptcha:
		if challenge.SiteKey == "" {
			return nil, nil
		}
		return map[string]interface{}{
			"type":       "HCaptchaTaskProxyLess",
			"websiteURL": challengeURL(page, challenge),
			"websiteKey": challenge.SiteKey,
		}, nil
	}

	return nil, nil
}

func (s *CapSolver) createTask(ctx context.Context, task map[string]interface{}) (string, error) {
	var resp struct {
		ErrorID          int    `json:"errorId"`
		ErrorDescription string `json:"errorDescription"`
		TaskID           string `json:"taskId"`
	}
	err := postJSON(ctx, s.client, s.baseURL+"/createTask", map[string]interface{}{
		"clientKey": s.apiKey,
		"task":      task,
	}, &resp)
	if err != nil {
		return "", fmt.Errorf("capsolver createTask: %w", err)
	}
	if resp.ErrorID != 0 {
		return "", fmt.Errorf("capsolver createTask: %s", resp.ErrorDescription)
	}
	return resp.TaskID, nil
}

func (s *CapSolver) taskResult(ctx context.Context, taskID string) (string, bool, error) {
	var resp struct {
		ErrorID          int    `json:"errorId"`
		ErrorDescription string `json:"errorDescription"`
		Status           string `json:"status"`
		Solution         struct {
			Text               string `json:"text"`
			GRecaptchaResponse string `json:"gRecaptchaResponse"`
		} `json:"solution"`
	}
	err := postJSON(ctx, s.client, s.baseURL+"/getTaskResult", map[string]interface{}{
		"clientKey": s.apiKey,
		"taskId":    taskID,
	}, &resp)
	if err != nil {
		return "", false, fmt.Errorf("capsolver getTaskResult: %w", err)
	}
	if resp.ErrorID != 0 {
		return "", false, fmt.Errorf("capsolver getTaskResult: %s", resp.ErrorDescription)
	}
	if resp.Status != "ready" {
		return "", false, nil
	}
	if resp.Solution.GRecaptchaResponse != "" {
		return resp.Solution.GRecaptchaResponse, true, nil
	}
	return resp.Solution.Text, true, nil
}

// challengeURL prefers the URL recorded on the challenge, falling back to
// the page's current location.
func challengeURL(page Page, challenge *Challenge) string {
	if challenge.PageURL != "" {
		return challenge.PageURL
	}
	return page.URL()
}

// readBody drains a response body into a string.
func readBody(resp *http.Response) (string, error) {
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %s", resp.Status)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// postJSON posts a JSON body and decodes the JSON response.
func postJSON(ctx context.Context, client *http.Client, url string, body interface{}, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
