package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const groqModel = "llama-3.1-8b-instant"

// GroqProvider calls the Groq chat completions API (OpenAI-compatible).
type GroqProvider struct {
	apiKey  string
	apiBase string
	client  *http.Client
}

// NewGroqProvider creates a Groq provider. apiBase defaults to the public
// Groq endpoint when empty.
func NewGroqProvider(apiKey, apiBase string) *GroqProvider {
	if apiBase == "" {
		apiBase = "https://api.groq.com/openai/v1"
	}
	apiBase = strings.TrimRight(apiBase, "/")

	return &GroqProvider{
		apiKey:  apiKey,
		apiBase: apiBase,
		client:  &http.Client{Timeout: defaultTimeout},
	}
}

func (p *GroqProvider) Name() string { return "groq" }

type groqResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (p *GroqProvider) Complete(ctx context.Context, prompt string) (string, error) {
	body := map[string]interface{}{
		"model": groqModel,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
		"temperature": 0.3,
		"max_tokens":  500,
	}

	data, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("groq: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.apiBase+"/chat/completions", bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("groq: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("groq: request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("groq: read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", &HTTPError{Status: resp.StatusCode, Body: fmt.Sprintf("groq: %s", string(respBody))}
	}

	var parsed groqResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("groq: decode response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("groq: response has no choices")
	}

	return parsed.Choices[0].Message.Content, nil
}
