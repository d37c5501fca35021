// Package openai is a minimal chat-completions client. It issues a single
// request per call and performs no retries; retry policy belongs to callers.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mpetrenko/doc-enrichment/internal/core/domain"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultModel   = "gpt-4o-mini"
	defaultTimeout = 60 * time.Second

	systemInstruction = "You are a document processing assistant. Follow the response format instructions exactly."
)

type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

type Options struct {
	BaseURL string
	Model   string
	Timeout time.Duration
}

func New(apiKey string, options Options) *Client {
	baseURL := strings.TrimRight(options.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	model := options.Model
	if model == "" {
		model = defaultModel
	}
	timeout := options.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Complete sends one chat completion request and returns the raw text of the
// first choice. The configured key is a hard precondition.
func (c *Client) Complete(ctx context.Context, prompt string, temperature float64, maxTokens int) (string, error) {
	if strings.TrimSpace(c.apiKey) == "" {
		return "", domain.WrapError(domain.ErrUnauthorized, "llm complete",
			errors.New("api key is not configured"))
	}

	payload := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemInstruction},
			{Role: "user", Content: prompt},
		},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create completion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", domain.WrapError(domain.ErrTemporary, "llm complete", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return "", statusError(resp)
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", domain.WrapError(domain.ErrUpstream, "llm complete",
			fmt.Errorf("decode completion response: %w", err))
	}
	if len(parsed.Choices) == 0 {
		return "", domain.WrapError(domain.ErrUpstream, "llm complete",
			errors.New("completion response has no choices"))
	}
	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}

func statusError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	statusErr := &StatusError{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Body:       strings.TrimSpace(string(raw)),
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return domain.WrapError(domain.ErrUnauthorized, "llm complete", statusErr)
	case resp.StatusCode == http.StatusTooManyRequests:
		return domain.WrapError(domain.ErrRateLimited, "llm complete", statusErr)
	default:
		return domain.WrapError(domain.ErrUpstream, "llm complete", statusErr)
	}
}

// StatusError carries the upstream status and body for diagnostics.
type StatusError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *StatusError) Error() string {
	if e == nil {
		return "llm status error"
	}
	if e.Body == "" {
		return fmt.Sprintf("llm status: %s", e.Status)
	}
	return fmt.Sprintf("llm status: %s: %s", e.Status, e.Body)
}
