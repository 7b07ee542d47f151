package oracle

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-resty/resty/v2"

	"foresight/internal/config"
)

// Completer is the external text-generation capability: it accepts a prompt
// and returns free-form text expected to embed one JSON object.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// OpenAIClient calls an OpenAI-compatible chat-completions endpoint.
type OpenAIClient struct {
	client *resty.Client
	model  string
}

func NewOpenAIClient(cfg config.OracleConfig) *OpenAIClient {
	client := resty.New()
	client.SetBaseURL(cfg.Endpoint)
	client.SetTimeout(cfg.Timeout.Duration)
	client.SetAuthToken(cfg.APIKey)

	return &OpenAIClient{client: client, model: cfg.Model}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (c *OpenAIClient) Complete(ctx context.Context, prompt string) (string, error) {
	req := chatRequest{
		Model:       c.model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: 0.2,
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(req).
		Post("/chat/completions")
	if err != nil {
		return "", fmt.Errorf("calling oracle: %w", err)
	}
	if resp.StatusCode() != 200 {
		return "", fmt.Errorf("oracle API error %d: %s", resp.StatusCode(), resp.String())
	}

	var parsed chatResponse
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		return "", fmt.Errorf("decoding oracle response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("oracle returned no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}

var _ Completer = (*OpenAIClient)(nil)
