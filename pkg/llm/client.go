// Package llm talks to an OpenAI-compatible chat completion service for
// planning, hypothesis generation, and narration. Every caller fails closed:
// a dead or misbehaving service degrades the run, never aborts it.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"time"

	"github.com/datascope/datascope/pkg/errors"
)

// Client produces a completion for a system/user prompt pair.
type Client interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Options configures the HTTP client.
type Options struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	Timeout     time.Duration
	MaxRetries  int
	RetryDelay  time.Duration
}

// HTTPClient is a chat-completions client with retry and backoff.
type HTTPClient struct {
	httpClient  *http.Client
	baseURL     string
	apiKey      string
	model       string
	temperature float64
	maxRetries  int
	retryDelay  time.Duration
}

// NewHTTPClient builds a client, applying defaults for unset options.
func NewHTTPClient(opts Options) *HTTPClient {
	if opts.BaseURL == "" {
		opts.BaseURL = "https://api.openai.com/v1"
	}
	if opts.Model == "" {
		opts.Model = "gpt-4.1-mini"
	}
	if opts.Temperature == 0 {
		opts.Temperature = 0.2
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 3
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = 500 * time.Millisecond
	}
	return &HTTPClient{
		httpClient:  &http.Client{Timeout: opts.Timeout},
		baseURL:     opts.BaseURL,
		apiKey:      opts.APIKey,
		model:       opts.Model,
		temperature: opts.Temperature,
		maxRetries:  opts.MaxRetries,
		retryDelay:  opts.RetryDelay,
	}
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	Temperature float64   `json:"temperature,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message message `json:"message"`
	} `json:"choices"`
}

// Complete sends one chat completion request, retrying transient failures
// with exponential backoff and jitter.
func (c *HTTPClient) Complete(ctx context.Context, system, user string) (string, error) {
	payload, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []message{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: c.temperature,
	})
	if err != nil {
		return "", errors.Wrap(err, errors.CodeLLMRequest, "marshaling chat request")
	}
	endpoint := c.baseURL + "/chat/completions"

	backoff := c.retryDelay
	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
		if err != nil {
			return "", errors.Wrap(err, errors.CodeLLMRequest, "building chat request")
		}
		req.Header.Set("Content-Type", "application/json")
		if c.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.apiKey)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = errors.Wrap(err, errors.CodeLLMRequest, "chat request failed")
			if isRetryableNetErr(err) && attempt < c.maxRetries {
				sleep(ctx, withJitter(backoff))
				backoff *= 2
				continue
			}
			return "", lastErr
		}

		content, retryable, err := readCompletion(resp)
		if err == nil {
			return content, nil
		}
		lastErr = err
		if retryable && attempt < c.maxRetries {
			sleep(ctx, withJitter(backoff))
			backoff *= 2
			continue
		}
		return "", lastErr
	}
	return "", lastErr
}

func readCompletion(resp *http.Response) (content string, retryable bool, err error) {
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 8<<10))
		retryable = resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		return "", retryable, errors.New(errors.CodeLLMRequest,
			fmt.Sprintf("chat request returned status %d", resp.StatusCode)).
			WithContext("body", string(body))
	}
	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", false, errors.Wrap(err, errors.CodeLLMMalformed, "decoding chat response")
	}
	if len(out.Choices) == 0 {
		return "", false, errors.New(errors.CodeLLMMalformed, "chat response has no choices")
	}
	return out.Choices[0].Message.Content, false, nil
}

func isRetryableNetErr(err error) bool {
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return true
	}
	return errors.Is(err, io.EOF)
}

func withJitter(d time.Duration) time.Duration {
	f := 0.8 + rand.Float64()*0.4
	return time.Duration(float64(d) * f)
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
