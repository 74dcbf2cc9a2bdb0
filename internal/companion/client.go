package companion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// ChatMessage is one message of a chat completion request
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatClient produces a completion for a conversation
type ChatClient interface {
	// Complete returns the generated text. Failures are returned as
	// *RequestFailedError.
	Complete(ctx context.Context, messages []ChatMessage) (string, error)
}

// ClientOptions configures an HTTPClient
type ClientOptions struct {
	URL         string
	Model       string
	APIKey      string
	Temperature float64
	MaxTokens   int
}

// HTTPClient calls an OpenAI-compatible chat completions endpoint. It does
// not enforce a deadline itself; callers bound requests through the context.
type HTTPClient struct {
	opts   ClientOptions
	client *http.Client
}

// NewHTTPClient creates a client for the given endpoint
func NewHTTPClient(opts ClientOptions) *HTTPClient {
	return &HTTPClient{
		opts:   opts,
		client: &http.Client{},
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message ChatMessage `json:"message"`
	} `json:"choices"`
}

// Complete implements ChatClient
func (c *HTTPClient) Complete(ctx context.Context, messages []ChatMessage) (string, error) {
	reqBody, err := json.Marshal(chatRequest{
		Model:       c.opts.Model,
		Messages:    messages,
		Temperature: c.opts.Temperature,
		MaxTokens:   c.opts.MaxTokens,
	})
	if err != nil {
		return "", &RequestFailedError{Failure: FailurePrompt, Err: fmt.Errorf("marshal request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.URL, bytes.NewReader(reqBody))
	if err != nil {
		return "", &RequestFailedError{Failure: FailureTransport, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	if c.opts.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.opts.APIKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		// Network errors, cancellation, etc.
		return "", &RequestFailedError{Failure: FailureTransport, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &RequestFailedError{Failure: FailureStatus, StatusCode: resp.StatusCode}
	}

	// Limit response body to 1MB to avoid pathological responses
	limitedReader := io.LimitReader(resp.Body, 1<<20)

	var chatResp chatResponse
	if err := json.NewDecoder(limitedReader).Decode(&chatResp); err != nil {
		return "", &RequestFailedError{Failure: FailureMalformed, Err: fmt.Errorf("decode response: %w", err)}
	}
	if len(chatResp.Choices) == 0 {
		return "", &RequestFailedError{Failure: FailureMalformed, Err: fmt.Errorf("response has no choices")}
	}
	return chatResp.Choices[0].Message.Content, nil
}

// NullClient answers every request with silence. Used when no model is
// configured, e.g. for headless simulations.
type NullClient struct{}

// Complete implements ChatClient
func (NullClient) Complete(ctx context.Context, messages []ChatMessage) (string, error) {
	return "", nil
}

// CleanReply trims whitespace and the speaker's own "Name:" prefix, which
// models often echo back.
func CleanReply(text, name string) string {
	text = strings.TrimSpace(text)
	text = strings.ReplaceAll(text, name+": ", "")
	text = strings.TrimPrefix(text, name+":")
	return strings.TrimSpace(strings.Trim(text, "\""))
}
