package captcha

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// AntiCaptcha solves captchas through the Anti-Captcha API, which shares the
// createTask/getTaskResult protocol with CapSolver but uses numeric task IDs.
// It is the only supported backend for FunCaptcha challenges.
type AntiCaptcha struct {
	apiKey       string
	baseURL      string
	client       *http.Client
	pollInterval time.Duration
	maxWait      time.Duration
	logger       Logger
}

// NewAntiCaptcha creates an Anti-Captcha backend with the given API key.
func NewAntiCaptcha(apiKey string, logger Logger) *AntiCaptcha {
	return &AntiCaptcha{
		apiKey:       apiKey,
		baseURL:      "https://api.anti-captcha.com",
		client:       &http.Client{Timeout: 30 * time.Second},
		pollInterval: 5 * time.Second,
		maxWait:      3 * time.Minute,
		logger:       orNop(logger),
	}
}

func (s *AntiCaptcha) Name() string { return "anticaptcha" }

func (s *AntiCaptcha) CanHandle(kind string) bool {
	switch kind {
	case KindRecaptchaV2, KindRecaptchaV3, KindFunCaptcha, KindImage:
		return true
	}
	return false
}

func (s *AntiCaptcha) Solve(ctx context.Context, page Page, challenge *Challenge) (string, error) {
	task, err := s.buildTask(page, challenge)
	if err != nil || task == nil {
		return "", err
	}

	taskID, err := s.createTask(ctx, task)
	if err != nil {
		return "", err
	}

	s.logger.Infof("anticaptcha task created: id=%d kind=%s", taskID, challenge.Kind)

	return pollSolution(ctx, s.pollInterval, s.maxWait, func() (string, bool, error) {
		return s.taskResult(ctx, taskID)
	})
}

func (s *AntiCaptcha) buildTask(page Page, challenge *Challenge) (map[string]interface{}, error) {
	switch challenge.Kind {
	case KindImage:
		image, err := extractImageBase64(page, challenge.ImageSelector)
		if err != nil {
			return nil, err
		}
		if image == "" {
			s.logger.Errorf("anticaptcha: captcha image not found: %s", challenge.ImageSelector)
			return nil, nil
		}
		return map[string]interface{}{
			"type": "ImageToTextTask",
			"body": image,
		}, nil

	case KindFunCaptcha:
		if challenge.SiteKey == "" {
			s.logger.Errorf("anticaptcha: funcaptcha public key missing")
			return nil, nil
		}
		return map[string]interface{}{
			"type":             "FunCaptchaTaskProxyless",
			"websiteURL":       challengeURL(page, challenge),
			"websitePublicKey": challenge.SiteKey,
		}, nil

	case KindRecaptchaV2, KindRecaptchaV3:
		if challenge.SiteKey == "" {
			return nil, nil
		}
		taskType := "RecaptchaV2TaskProxyless"
		if challenge.Kind == KindRecaptchaV3 {
			taskType = "RecaptchaV3TaskProxyless"
		}
		return map[string]interface{}{
			"type":       taskType,
			"websiteURL": challengeURL(page, challenge),
			"websiteKey": challenge.SiteKey,
		}, nil
	}

	return nil, nil
}

func (s *AntiCaptcha) createTask(ctx context.Context, task map[string]interface{}) (int64, error) {
	var resp struct {
		ErrorID          int    `json:"errorId"`
		ErrorDescription string `json:"errorDescription"`
		TaskID           int64  `json:"taskId"`
	}
	err := postJSON(ctx, s.client, s.baseURL+"/createTask", map[string]interface{}{
		"clientKey": s.apiKey,
		"task":      task,
	}, &resp)
	if err != nil {
		return 0, fmt.Errorf("anticaptcha createTask: %w", err)
	}
	if resp.ErrorID != 0 {
		return 0, fmt.Errorf("anticaptcha createTask: %s", resp.ErrorDescription)
	}
	return resp.TaskID, nil
}

func (s *AntiCaptcha) taskResult(ctx context.Context, taskID int64) (string, bool, error) {
	var resp struct {
		ErrorID          int    `json:"errorId"`
		ErrorDescription string `json:"errorDescription"`
		Status           string `json:"status"`
		Solution         struct {
			Text               string `json:"text"`
			GRecaptchaResponse string `json:"gRecaptchaResponse"`
			Token              string `json:"token"`
		} `json:"solution"`
	}
	err := postJSON(ctx, s.client, s.baseURL+"/getTaskResult", map[string]interface{}{
		"clientKey": s.apiKey,
		"taskId":    taskID,
	}, &resp)
	if err != nil {
		return "", false, fmt.Errorf("anticaptcha getTaskResult: %w", err)
	}
	if resp.ErrorID != 0 {
		return "", false, fmt.Errorf("anticaptcha getTaskResult: %s", resp.ErrorDescription)
	}
	if resp.Status != "ready" {
		return "", false, nil
	}
	switch {
	case resp.Solution.GRecaptchaResponse != "":
		return resp.Solution.GRecaptchaResponse, true, nil
	case resp.Solution.Token != "":
		return resp.Solution.Token, true, nil
	}
	return resp.Solution.Text, true, nil
}
