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

const defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// Generation settings shared by all Gemini calls.
const (
	geminiTemperature     = 0.7
	geminiMaxOutputTokens = 2000
)

// GeminiClient calls the Google AI Studio (Gemini) API.
type GeminiClient struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

// NewGeminiClient constructs a client. An empty API key is allowed so the
// service can boot without generation; every call then fails fast with
// ErrNotInitialized.
func NewGeminiClient(apiKey, model string) *GeminiClient {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		slog.Warn("gemini api key not configured, generation calls will fail")
	}
	return &GeminiClient{
		apiKey:     apiKey,
		baseURL:    defaultGeminiBaseURL,
		model:      normalizeModel(model),
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// Complete implements ChatGenerator. System messages become the
// systemInstruction; user/assistant messages map onto Gemini's user/model
// roles.
func (c *GeminiClient) Complete(ctx context.Context, messages []ChatMessage) (string, error) {
	if c.apiKey == "" {
		return "", ErrNotInitialized
	}
	reqBody := geminiGenerateRequest{
		GenerationConfig: &geminiGenerationConfig{
			Temperature:     geminiTemperature,
			MaxOutputTokens: geminiMaxOutputTokens,
		},
	}
	for _, msg := range messages {
		switch msg.Role {
		case RoleSystem:
			reqBody.SystemInstruction = &geminiContent{
				Parts: []geminiPart{{Text: msg.Content}},
			}
		case RoleAssistant:
			reqBody.Contents = append(reqBody.Contents, geminiContent{
				Role:  "model",
				Parts: []geminiPart{{Text: msg.Content}},
			})
		default:
			reqBody.Contents = append(reqBody.Contents, geminiContent{
				Role:  "user",
				Parts: []geminiPart{{Text: msg.Content}},
			})
		}
	}
	return c.generate(ctx, reqBody)
}

// CompleteJSON implements StructuredCompleter using Gemini's JSON response
// mode with a schema hint.
func (c *GeminiClient) CompleteJSON(ctx context.Context, prompt string, schema map[string]any) (string, error) {
	if c.apiKey == "" {
		return "", ErrNotInitialized
	}
	reqBody := geminiGenerateRequest{
		Contents: []geminiContent{
			{
				Role:  "user",
				Parts: []geminiPart{{Text: prompt}},
			},
		},
		GenerationConfig: &geminiGenerationConfig{
			Temperature:      geminiTemperature,
			MaxOutputTokens:  geminiMaxOutputTokens,
			ResponseMimeType: "application/json",
			ResponseSchema:   schema,
		},
	}
	return c.generate(ctx, reqBody)
}

func (c *GeminiClient) generate(ctx context.Context, reqBody geminiGenerateRequest) (string, error) {
	var resp geminiGenerateResponse
	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	if err := c.doJSON(ctx, url, reqBody, &resp); err != nil {
		slog.Error("gemini call failed", "model", c.model, "err", err)
		return "", err
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		slog.Error("gemini returned no content", "model", c.model)
		return "", fmt.Errorf("empty response from gemini")
	}
	text := strings.TrimSpace(resp.Candidates[0].Content.Parts[0].Text)
	if text == "" {
		return "", fmt.Errorf("empty response from gemini")
	}
	return text, nil
}

func normalizeModel(model string) string {
	model = strings.TrimSpace(model)
	model = strings.TrimPrefix(model, "models/")
	return model
}

func (c *GeminiClient) doJSON(ctx context.Context, url string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		var errResp geminiErrorResponse
		_ = json.NewDecoder(resp.Body).Decode(&errResp)
		if errResp.Error.Message != "" {
			return fmt.Errorf("gemini api error: %s", errResp.Error.Message)
		}
		return fmt.Errorf("gemini api error: %s", resp.Status)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return err
	}
	return nil
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	Temperature      float64        `json:"temperature,omitempty"`
	MaxOutputTokens  int            `json:"maxOutputTokens,omitempty"`
	ResponseMimeType string         `json:"responseMimeType,omitempty"`
	ResponseSchema   map[string]any `json:"responseSchema,omitempty"`
}

type geminiGenerateRequest struct {
	Contents          []geminiContent         `json:"contents"`
	SystemInstruction *geminiContent          `json:"systemInstruction,omitempty"`
	GenerationConfig  *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiGenerateResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

type geminiErrorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}
