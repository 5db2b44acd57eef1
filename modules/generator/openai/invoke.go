package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/parley-dev/parley/internal/generator"
)

// newHTTPRequest creates an authenticated HTTP request for the API.
func (b *Backend) newHTTPRequest(ctx context.Context, path, key string, payload any) (*http.Request, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("openai: marshal request: %w", err)
	}

	url := b.config.BaseURL + path
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("openai: create request: %w", err)
	}

	if key == "" {
		key = os.Getenv("OPENAI_API_KEY")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+key)

	return httpReq, nil
}

// doPost sends a POST request and returns the response body and status
// code. The response body is limited to maxResponseSize bytes.
func (b *Backend) doPost(ctx context.Context, path, key string, payload any) ([]byte, int, error) {
	httpReq, err := b.newHTTPRequest(ctx, path, key, payload)
	if err != nil {
		return nil, 0, err
	}

	resp, err := b.client.Do(httpReq)
	if err != nil {
		return nil, 0, mapConnectionError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("openai: read response: %w", err)
	}

	return body, resp.StatusCode, nil
}

// GenerateWithKey performs one generation attempt using the given API
// key.
func (b *Backend) GenerateWithKey(ctx context.Context, key string, req generator.Request) (*generator.Response, error) {
	body, statusCode, err := b.doPost(ctx, "/chat/completions", key, buildChatRequest(b.config, req))
	if err != nil {
		return nil, err
	}

	if httpErr := mapHTTPError(statusCode, body); httpErr != nil {
		return nil, httpErr
	}

	var resp chatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("openai: unmarshal response: %w", err)
	}

	b.logger.Debug("generation call completed",
		"task", string(req.Task),
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens,
	)
	return extractResult(&resp, req)
}
