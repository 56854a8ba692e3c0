package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/finsight-labs/reportqa-core/internal/core/domain"
	"github.com/finsight-labs/reportqa-core/internal/core/ports/driven"
)

// Ensure OpenAILLM implements LLMService
var _ driven.LLMService = (*OpenAILLM)(nil)

// OpenAILLM implements LLMService using OpenAI's chat completions API
type OpenAILLM struct {
	apiKey      string
	model       string
	baseURL     string
	temperature float64
	maxTokens   int
	client      *http.Client
}

// LLMConfig holds tuning parameters for the OpenAI LLM service
type LLMConfig struct {
	APIKey      string
	Model       string
	BaseURL     string
	Temperature float64
	MaxTokens   int
}

// NewOpenAILLM creates a new OpenAI chat completion service
func NewOpenAILLM(cfg LLMConfig) (driven.LLMService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required: %w", domain.ErrInvalidArgument)
	}

	if cfg.Model == "" {
		cfg.Model = "gpt-3.5-turbo"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 500
	}

	return &OpenAILLM{
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		baseURL:     cfg.BaseURL,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		client: &http.Client{
			Timeout: 120 * time.Second,
		},
	}, nil
}

// chatMessage is one message in a chat completion request
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatRequest is the request body for OpenAI chat completions API
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

// chatResponse is the response from OpenAI chat completions API
type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error,omitempty"`
}

// Complete sends a single prompt and returns the model's text output
func (l *OpenAILLM) Complete(ctx context.Context, prompt string) (string, error) {
	reqBody := chatRequest{
		Model: l.model,
		Messages: []chatMessage{
			{Role: "user", Content: prompt},
		},
		Temperature: l.temperature,
		MaxTokens:   l.maxTokens,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", l.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+l.apiKey)

	resp, err := l.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %v: %w", err, domain.ErrLanguageModel)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %v: %w", err, domain.ErrLanguageModel)
	}

	var chatResp chatResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return "", fmt.Errorf("failed to parse response: %v: %w", err, domain.ErrLanguageModel)
	}

	if chatResp.Error != nil {
		return "", fmt.Errorf("OpenAI API error: %s (type: %s, code: %s): %w",
			chatResp.Error.Message, chatResp.Error.Type, chatResp.Error.Code, domain.ErrLanguageModel)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("OpenAI API returned status %d: %w", resp.StatusCode, domain.ErrLanguageModel)
	}

	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("no completion returned: %w", domain.ErrLanguageModel)
	}

	return chatResp.Choices[0].Message.Content, nil
}

// Model returns the model name being used
func (l *OpenAILLM) Model() string {
	return l.model
}

// Ping verifies the LLM service is available
func (l *OpenAILLM) Ping(ctx context.Context) error {
	_, err := l.Complete(ctx, "ping")
	return err
}

// Close releases resources held by the LLM service
func (l *OpenAILLM) Close() error {
	l.client.CloseIdleConnections()
	return nil
}
