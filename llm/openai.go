package llm

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAI adapts the OpenAI chat-completion API.
type OpenAI struct {
	model string
}

// NewOpenAI creates the adapter. An empty model falls back to the default.
func NewOpenAI(model string) *OpenAI {
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAI{model: model}
}

func (o *OpenAI) Name() string                  { return "openai" }
func (o *OpenAI) DefaultModel() string          { return o.model }
func (o *OpenAI) CostPerMillionTokens() float64 { return 2.0 }

func (o *OpenAI) Complete(ctx context.Context, req Request, apiKey string) (*Response, error) {
	client := openai.NewClient(apiKey)

	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		role := openai.ChatMessageRoleUser
		if m.Role == RoleSystem {
			role = openai.ChatMessageRoleSystem
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}

	model := req.Model
	if model == "" {
		model = o.model
	}
	chatReq := openai.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}
	if req.JSONMode {
		chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return nil, fmt.Errorf("openai completion failed: %v", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai returned no choices")
	}

	return &Response{
		Content: resp.Choices[0].Message.Content,
		Usage: Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}, nil
}
