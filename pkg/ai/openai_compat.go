package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const defaultOpenAIBaseURL = "https://api.openai.com/v1"

// OpenAICompatClient calls any OpenAI-compatible /v1/chat/completions
// endpoint. Works with OpenAI itself, vLLM, LiteLLM, OpenRouter, and
// self-hosted models.
type OpenAICompatClient struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewOpenAICompatClient builds an OpenAI-compatible ChatGenerator. baseURL
// should include the /v1 prefix and defaults to the OpenAI API. An empty API
// key leaves the client constructible but failing fast.
func NewOpenAICompatClient(baseURL, apiKey, model string) *OpenAICompatClient {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		slog.Warn("openai api key not configured, generation calls will fail")
	}
	return &OpenAICompatClient{
		baseURL:    baseURL,
		apiKey:     apiKey,
		model:      strings.TrimSpace(model),
		httpClient: &http.Client{Timeout: 120 * time.Second},
	}
}

// Complete implements ChatGenerator using the chat completions API.
func (c *OpenAICompatClient) Complete(ctx context.Context, messages []ChatMessage) (string, error) {
	if c.apiKey == "" {
		return "", ErrNotInitialized
	}
	if c.model == "" {
		return "", fmt.Errorf("openai generation model required")
	}
	oaiMessages := make([]oaiMessage, 0, len(messages))
	for _, msg := range messages {
		oaiMessages = append(oaiMessages, oaiMessage{Role: msg.Role, Content: msg.Content})
	}
	reqBody := oaiChatRequest{
		Model:       c.model,
		Messages:    oaiMessages,
		Temperature: 0.7,
		MaxTokens:   2000,
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.Error("openai call failed", "model", c.model, "err", err)
		return "", fmt.Errorf("openai request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp oaiErrorResponse
		_ = json.NewDecoder(resp.Body).Decode(&errResp)
		if errResp.Error.Message != "" {
			slog.Error("openai api error", "model", c.model, "err", errResp.Error.Message)
			return "", fmt.Errorf("openai api error: %s", errResp.Error.Message)
		}
		slog.Error("openai api error", "model", c.model, "status", resp.Status)
		return "", fmt.Errorf("openai api error: %s", resp.Status)
	}

	var chatResp oaiChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", fmt.Errorf("openai decode: %w", err)
	}
	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("empty response from openai")
	}
	text := strings.TrimSpace(chatResp.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("empty response from openai")
	}
	return text, nil
}

// OpenAI-compatible request/response types.

type oaiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type oaiChatRequest struct {
	Model       string       `json:"model"`
	Messages    []oaiMessage `json:"messages"`
	Temperature float64      `json:"temperature,omitempty"`
	MaxTokens   int          `json:"max_tokens,omitempty"`
}

type oaiChatResponse struct {
	Choices []struct {
		Message oaiMessage `json:"message"`
	} `json:"choices"`
}

type oaiErrorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}
