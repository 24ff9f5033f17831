// Package ollama provides a client for a local Ollama server, covering
// the two endpoints the application needs: text generation and text
// embedding.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// EmbeddingDim is the dimensionality the embedding model must produce.
// The vector columns in the database are declared with this width, so a
// mismatched model is rejected at the client rather than at insert time.
const EmbeddingDim = 384

// Client talks to an Ollama server over HTTP.
//
// Generation requests carry no client-side timeout: local model
// inference can take minutes and the caller's context governs
// cancellation instead.
type Client struct {
	baseURL       string
	generateModel string
	embedModel    string
	httpClient    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. Used by tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a client for the Ollama server at baseURL.
func NewClient(baseURL, generateModel, embedModel string, opts ...Option) *Client {
	c := &Client{
		baseURL:       strings.TrimRight(baseURL, "/"),
		generateModel: generateModel,
		embedModel:    embedModel,
		httpClient:    &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
}

type embeddingsRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type embeddingsResponse struct {
	Embedding []float32 `json:"embedding"`
}

// Generate sends a single non-streaming completion request and returns
// the model's full response text.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	var result generateResponse
	req := generateRequest{Model: c.generateModel, Prompt: prompt, Stream: false}
	if err := c.post(ctx, "/api/generate", req, &result); err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}
	return result.Response, nil
}

// Embed returns the embedding vector for the given text.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	var result embeddingsResponse
	req := embeddingsRequest{Model: c.embedModel, Prompt: text}
	if err := c.post(ctx, "/api/embeddings", req, &result); err != nil {
		return nil, fmt.Errorf("embed: %w", err)
	}
	if len(result.Embedding) != EmbeddingDim {
		return nil, fmt.Errorf("embed: model %q returned %d dimensions, want %d",
			c.embedModel, len(result.Embedding), EmbeddingDim)
	}
	return result.Embedding, nil
}

func (c *Client) post(ctx context.Context, path string, body, result any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshaling request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("ollama API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	if err := json.Unmarshal(respBody, result); err != nil {
		return fmt.Errorf("unmarshaling response: %w", err)
	}
	return nil
}
