// Package provider defines the model-service boundary and shared HTTP
// plumbing for concrete LLM API adapters.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/docentchat/docent/pkg/chats/chat"
	"github.com/docentchat/docent/pkg/chats/message"
	"github.com/docentchat/docent/pkg/tools/toolbox"
)

// Completer sends a conversation plus the current tool catalog to an LLM
// and returns the assistant's reply. The reply's parts carry any tool-use
// requests the model emitted.
type Completer interface {
	Complete(ctx context.Context, c *chat.Chat, tools []toolbox.Tool) (message.Message, error)
}

// Auth holds authentication settings for an LLM provider API.
type Auth struct {
	Key    string // API key value.
	Header string // Header name (default: "Authorization").
	Scheme string // Scheme prefix (default: "Bearer" when Header is "Authorization").
}

// TokenUsage accumulates token counts across completions.
type TokenUsage struct {
	InputTokens  int
	OutputTokens int
}

// Add accumulates another completion's counts.
func (u *TokenUsage) Add(input, output int) {
	u.InputTokens += input
	u.OutputTokens += output
}

// Provider holds shared state for LLM adapter implementations: model
// settings, auth, and HTTP helpers. Embed it in concrete adapter structs;
// concrete types define their own Complete method to shadow the stub.
type Provider struct {
	Model       string
	MaxTokens   int
	Temperature float64
	Auth        Auth              // Authentication settings.
	BaseURL     string            // API base URL (no trailing slash).
	Client      *http.Client      // HTTP client; falls back to http.DefaultClient.
	Headers     map[string]string // Extra headers applied to every request.
	Usage       TokenUsage        // Accumulated token usage.
}

// Complete is a stub that returns an error. Concrete adapters that embed
// Provider shadow it.
func (p *Provider) Complete(_ context.Context, _ *chat.Chat, _ []toolbox.Tool) (message.Message, error) {
	return message.Message{}, errors.New("provider: Complete not implemented")
}

func (p *Provider) httpClient() *http.Client {
	if p.Client != nil {
		return p.Client
	}

	return http.DefaultClient
}

// NewRequest builds an *http.Request with the base URL, auth, and custom
// headers already applied.
func (p *Provider) NewRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	url := p.BaseURL + path

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}

	if p.Auth.Key != "" {
		header := p.Auth.Header
		if header == "" {
			header = "Authorization"
		}

		value := p.Auth.Key
		if header == "Authorization" {
			scheme := p.Auth.Scheme
			if scheme == "" {
				scheme = "Bearer"
			}

			value = scheme + " " + value
		} else if p.Auth.Scheme != "" {
			value = p.Auth.Scheme + " " + value
		}

		req.Header.Set(header, value)
	}

	for k, v := range p.Headers {
		req.Header.Set(k, v)
	}

	return req, nil
}

// PostJSON marshals payload as JSON, sends a POST to the given path, checks
// for a 2xx status, and unmarshals the response body into dest. If dest is
// nil the response body is discarded after the status check.
func (p *Provider) PostJSON(ctx context.Context, path string, payload any, dest any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := p.NewRequest(ctx, http.MethodPost, path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient().Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	if dest == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}
