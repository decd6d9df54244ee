package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	anthropicBaseURL = "https://api.anthropic.com"
	anthropicVersion = "2023-06-01"
)

// Anthropic adapts the Anthropic messages API.
type Anthropic struct {
	model string
	http  *resty.Client
}

// NewAnthropic creates the adapter. An empty model falls back to the default.
func NewAnthropic(model string) *Anthropic {
	if model == "" {
		model = "claude-3-5-haiku-latest"
	}
	return &Anthropic{
		model: model,
		http: resty.New().
			SetBaseURL(anthropicBaseURL).
			SetTimeout(60 * time.Second),
	}
}

func (a *Anthropic) Name() string                  { return "anthropic" }
func (a *Anthropic) DefaultModel() string          { return a.model }
func (a *Anthropic) CostPerMillionTokens() float64 { return 4.0 }

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature float32            `json:"temperature"`
	System      string             `json:"system,omitempty"`
	Messages    []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (a *Anthropic) Complete(ctx context.Context, req Request, apiKey string) (*Response, error) {
	model := req.Model
	if model == "" {
		model = a.model
	}
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = 2048
	}

	// The messages API takes the system prompt out of band.
	body := anthropicRequest{
		Model:       model,
		MaxTokens:   maxTokens,
		Temperature: req.Temperature,
	}
	for _, m := range req.Messages {
		if m.Role == RoleSystem {
			body.System = m.Content
			continue
		}
		body.Messages = append(body.Messages, anthropicMessage{Role: "user", Content: m.Content})
	}

	var parsed anthropicResponse
	resp, err := a.http.R().
		SetContext(ctx).
		SetHeader("x-api-key", apiKey).
		SetHeader("anthropic-version", anthropicVersion).
		SetHeader("content-type", "application/json").
		SetBody(body).
		SetResult(&parsed).
		SetError(&parsed).
		Post("/v1/messages")
	if err != nil {
		return nil, fmt.Errorf("anthropic completion failed: %v", err)
	}
	if resp.IsError() {
		msg := resp.Status()
		if parsed.Error != nil {
			msg = parsed.Error.Message
		}
		return nil, fmt.Errorf("anthropic completion failed: %s", msg)
	}

	var text strings.Builder
	for _, block := range parsed.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return nil, fmt.Errorf("anthropic returned no text content")
	}

	usage := Usage{
		PromptTokens:     parsed.Usage.InputTokens,
		CompletionTokens: parsed.Usage.OutputTokens,
		TotalTokens:      parsed.Usage.InputTokens + parsed.Usage.OutputTokens,
	}
	return &Response{Content: text.String(), Usage: usage}, nil
}
