package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/torchlit/dungeongpt/pkg/chat"
	"github.com/torchlit/dungeongpt/pkg/prompts"
	"github.com/torchlit/dungeongpt/pkg/state"
)

const defaultBaseURL = "https://api.openai.com/v1"

// OpenAINarrator implements Narrator against any OpenAI-compatible
// chat completions endpoint.
type OpenAINarrator struct {
	baseURL    string
	apiKey     string
	modelName  string
	logger     *slog.Logger
	httpClient *http.Client
}

var _ Narrator = (*OpenAINarrator)(nil)

// openAIRequest is the request body for the chat completions API.
type openAIRequest struct {
	Model       string             `json:"model"`
	Messages    []chat.ChatMessage `json:"messages"`
	Temperature float64            `json:"temperature,omitempty"`
	MaxTokens   int                `json:"max_tokens,omitempty"`
	ResponseFmt *responseFormat    `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"` // "json_object"
}

// openAIResponse is the response body for the chat completions API.
type openAIResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Index   int `json:"index"`
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
			Refusal string `json:"refusal,omitempty"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error,omitempty"`
}

// openAIModelsResponse is the response from the models endpoint.
type openAIModelsResponse struct {
	Data []struct {
		ID string `json:"id"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// turnWire is the JSON shape the narrator is instructed to emit.
type turnWire struct {
	Narrative string       `json:"narrative"`
	Delta     *state.Delta `json:"state_delta,omitempty"`
	Options   []string     `json:"options,omitempty"`
}

// NewOpenAINarrator creates a narrator client. An empty baseURL uses
// the OpenAI API; point it elsewhere for compatible local servers.
func NewOpenAINarrator(baseURL, apiKey, modelName string, logger *slog.Logger) *OpenAINarrator {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &OpenAINarrator{
		baseURL:   strings.TrimRight(baseURL, "/"),
		apiKey:    apiKey,
		modelName: modelName,
		logger:    logger,
		httpClient: &http.Client{
			Timeout: 90 * time.Second,
		},
	}
}

// InitModel is a no-op for hosted APIs.
func (o *OpenAINarrator) InitModel(ctx context.Context, modelName string) error {
	return nil
}

// IsModelReady checks the model appears in the models list.
func (o *OpenAINarrator) IsModelReady(ctx context.Context, modelName string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.baseURL+"/models", nil)
	if err != nil {
		return false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var modelsResp openAIModelsResponse
	if err := json.Unmarshal(body, &modelsResp); err != nil {
		return false, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if modelsResp.Error != nil {
		return false, fmt.Errorf("API error: %s", modelsResp.Error.Message)
	}
	for _, m := range modelsResp.Data {
		if m.ID == modelName {
			return true, nil
		}
	}
	return false, nil
}

// GenerateTurn narrates one turn. The response delta is parsed
// leniently: a reply that is not the expected JSON shape becomes plain
// narrative with no proposed changes, never an error.
func (o *OpenAINarrator) GenerateTurn(ctx context.Context, turnReq *chat.TurnRequest) (*chat.TurnResponse, error) {
	messages, err := prompts.BuildMessages(turnReq)
	if err != nil {
		return nil, err
	}

	request := openAIRequest{
		Model:       o.modelName,
		Messages:    messages,
		Temperature: 0.7,
		MaxTokens:   600,
		ResponseFmt: &responseFormat{Type: "json_object"},
	}
	reqBody, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/chat/completions", bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+o.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var apiResp openAIResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if apiResp.Error != nil {
		return nil, fmt.Errorf("API error: %s", apiResp.Error.Message)
	}
	if len(apiResp.Choices) == 0 {
		return nil, fmt.Errorf("no choices returned from API")
	}
	choice := apiResp.Choices[0]
	if choice.Message.Refusal != "" {
		return nil, fmt.Errorf("model refused to respond: %s", choice.Message.Refusal)
	}
	if choice.Message.Content == "" {
		return nil, fmt.Errorf("no text content found in response")
	}

	turnResp := ParseTurnResponse(choice.Message.Content, o.logger)
	turnResp.Generation = turnReq.Generation
	return turnResp, nil
}

// ParseTurnResponse extracts a TurnResponse from raw model output.
// Models wander: the JSON may be wrapped in code fences or prose. The
// extractor finds the outermost object and falls back to treating the
// whole reply as narrative when no valid object exists.
func ParseTurnResponse(raw string, logger *slog.Logger) *chat.TurnResponse {
	text := strings.TrimSpace(raw)
	if candidate, ok := extractJSONObject(text); ok {
		var wire turnWire
		if err := json.Unmarshal([]byte(candidate), &wire); err == nil && wire.Narrative != "" {
			if len(wire.Options) > chat.MaxOptions {
				wire.Options = wire.Options[:chat.MaxOptions]
			}
			return &chat.TurnResponse{
				Narrative: wire.Narrative,
				Delta:     wire.Delta,
				Options:   wire.Options,
			}
		} else if err != nil && logger != nil {
			logger.Warn("Narrator reply JSON did not parse, using raw text", "error", err)
		}
	}
	return &chat.TurnResponse{Narrative: text}
}

// extractJSONObject returns the outermost brace-delimited slice of the
// text. Code fences and leading prose are skipped over.
func extractJSONObject(text string) (string, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return text[start : end+1], true
}
