// Package embedding turns chunk texts and queries into vectors.
package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"sjsage522/tokoworker/pkg/errors"
)

const provider = "embedding"

// Embedder produces one vector per text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimension() int
}

// OpenAIEmbedder calls an OpenAI-compatible /embeddings endpoint.
type OpenAIEmbedder struct {
	apiKey    string
	model     string
	baseURL   string
	dimension int
	client    *http.Client
}

type embeddingRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model"`
}

type embeddingResponse struct {
	Data  []embeddingData `json:"data"`
	Error *apiError       `json:"error,omitempty"`
}

type embeddingData struct {
	Embedding []float32 `json:"embedding"`
	Index     int       `json:"index"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// DimensionFor returns the vector size of a known model, or fallback.
func DimensionFor(model string, fallback int) int {
	switch model {
	case "text-embedding-3-small", "text-embedding-ada-002":
		return 1536
	case "text-embedding-3-large":
		return 3072
	case "nomic-embed-text":
		return 768
	case "mxbai-embed-large":
		return 1024
	default:
		return fallback
	}
}

// NewOpenAIEmbedder creates an embedder for baseURL, e.g. https://api.openai.com/v1.
func NewOpenAIEmbedder(apiKey, model, baseURL string, dimension int) *OpenAIEmbedder {
	return &OpenAIEmbedder{
		apiKey:    apiKey,
		model:     model,
		baseURL:   baseURL,
		dimension: DimensionFor(model, dimension),
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// Embed returns the vector of text.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	jsonData, err := json.Marshal(embeddingRequest{Input: []string{text}, Model: e.model})
	if err != nil {
		return nil, errors.NewEmbedding(provider, "failed to marshal request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/embeddings", bytes.NewReader(jsonData))
	if err != nil {
		return nil, errors.NewEmbedding(provider, "failed to create request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.apiKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, errors.NewEmbedding(provider, "request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.NewEmbedding(provider, "failed to read response", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.NewEmbedding(provider, fmt.Sprintf("API returned status %d: %s", resp.StatusCode, preview(body)), nil)
	}

	var embResp embeddingResponse
	if err := json.Unmarshal(body, &embResp); err != nil {
		return nil, errors.NewEmbedding(provider, "failed to parse response (body: "+preview(body)+")", err)
	}
	if embResp.Error != nil {
		return nil, errors.NewEmbedding(provider, "API error: "+embResp.Error.Message, nil)
	}
	for _, data := range embResp.Data {
		if data.Index == 0 && len(data.Embedding) > 0 {
			return data.Embedding, nil
		}
	}
	return nil, errors.NewEmbedding(provider, "response has no embedding", nil)
}

// Dimension returns the vector size.
func (e *OpenAIEmbedder) Dimension() int {
	return e.dimension
}

func preview(body []byte) string {
	if len(body) > 200 {
		return string(body[:200])
	}
	return string(body)
}

// MockEmbedder derives deterministic vectors from the runes of a text.
type MockEmbedder struct {
	dimension int
}

// NewMockEmbedder creates a mock embedder of the given dimension.
func NewMockEmbedder(dimension int) *MockEmbedder {
	return &MockEmbedder{dimension: dimension}
}

// Embed implements Embedder.
func (e *MockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, e.dimension)
	for j, r := range []rune(text) {
		if j >= e.dimension {
			break
		}
		vec[j] = float32(r) / 1000.0
	}
	return vec, nil
}

// Dimension implements Embedder.
func (e *MockEmbedder) Dimension() int {
	return e.dimension
}
