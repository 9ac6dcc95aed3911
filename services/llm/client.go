// Package llm wraps the chat models used to clean listing titles and to
// understand search queries.
package llm

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

// ChatRequest is one system+user exchange.
type ChatRequest struct {
	Model  string
	System string
	User   string
	// JSON asks the model for a json_object response.
	JSON bool
}

// Chatter answers chat requests.
type Chatter interface {
	Chat(ctx context.Context, req ChatRequest) (string, error)
}

// OpenAIClient calls an OpenAI-compatible /chat/completions endpoint.
type OpenAIClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewOpenAIClient creates a chat client for baseURL, e.g. https://api.openai.com/v1.
func NewOpenAIClient(apiKey, baseURL string) *OpenAIClient {
	return &OpenAIClient{
		apiKey:  apiKey,
		baseURL: baseURL,
		client:  &http.Client{Timeout: 60 * time.Second},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatCompletionRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    float64         `json:"temperature"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Chat sends req at temperature 0 and returns the first choice.
func (c *OpenAIClient) Chat(ctx context.Context, req ChatRequest) (string, error) {
	body := chatCompletionRequest{
		Model: req.Model,
		Messages: []chatMessage{
			{Role: "system", Content: req.System},
			{Role: "user", Content: req.User},
		},
	}
	if req.JSON {
		body.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	var resp chatCompletionResponse
	if err := postJSON(ctx, c.client, c.baseURL+"/chat/completions", c.apiKey, body, &resp); err != nil {
		return "", err
	}
	if resp.Error != nil {
		return "", errors.NewLLM("openai", "API error: "+resp.Error.Message, nil)
	}
	if len(resp.Choices) == 0 {
		return "", errors.NewLLM("openai", "response has no choices", nil)
	}
	return resp.Choices[0].Message.Content, nil
}

// OllamaClient calls a local Ollama /api/generate endpoint.
type OllamaClient struct {
	baseURL string
	client  *http.Client
}

// NewOllamaClient creates a client for baseURL, e.g. http://localhost:11434.
func NewOllamaClient(baseURL string) *OllamaClient {
	return &OllamaClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 60 * time.Second},
	}
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	System string `json:"system,omitempty"`
	Format string `json:"format,omitempty"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
	Error    string `json:"error,omitempty"`
}

// Chat implements Chatter with a single non-streaming generation.
func (c *OllamaClient) Chat(ctx context.Context, req ChatRequest) (string, error) {
	body := generateRequest{Model: req.Model, Prompt: req.User, System: req.System}
	if req.JSON {
		body.Format = "json"
	}

	var resp generateResponse
	if err := postJSON(ctx, c.client, c.baseURL+"/api/generate", "", body, &resp); err != nil {
		return "", err
	}
	if resp.Error != "" {
		return "", errors.NewLLM("ollama", resp.Error, nil)
	}
	return resp.Response, nil
}

func postJSON(ctx context.Context, client *http.Client, url, apiKey string, in, out interface{}) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return errors.NewLLM(url, "failed to marshal request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return errors.NewLLM(url, "failed to create request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}

	resp, err := client.Do(req)
	if err != nil {
		return errors.NewLLM(url, "request failed", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.NewLLM(url, "failed to read response", err)
	}
	if resp.StatusCode != http.StatusOK {
		if len(data) > 200 {
			data = data[:200]
		}
		return errors.NewLLM(url, fmt.Sprintf("API returned status %d: %s", resp.StatusCode, data), nil)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return errors.NewLLM(url, "failed to parse response", err)
	}
	return nil
}
