package llm

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// Gemini adapts the Google Gemini API.
type Gemini struct {
	model string
}

// NewGemini creates the adapter. An empty model falls back to the default.
func NewGemini(model string) *Gemini {
	if model == "" {
		model = "gemini-2.5-flash"
	}
	return &Gemini{model: model}
}

func (g *Gemini) Name() string                  { return "gemini" }
func (g *Gemini) DefaultModel() string          { return g.model }
func (g *Gemini) CostPerMillionTokens() float64 { return 0.6 }

func (g *Gemini) Complete(ctx context.Context, req Request, apiKey string) (*Response, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("gemini client init failed: %v", err)
	}

	// Gemini takes a single prompt; fold system and user turns together.
	var prompt strings.Builder
	for i, m := range req.Messages {
		if i > 0 {
			prompt.WriteString("\n\n")
		}
		prompt.WriteString(m.Content)
	}

	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(req.Temperature),
	}
	if req.MaxTokens > 0 {
		config.MaxOutputTokens = int32(req.MaxTokens)
	}
	if req.JSONMode {
		config.ResponseMIMEType = "application/json"
	}

	model := req.Model
	if model == "" {
		model = g.model
	}
	result, err := client.Models.GenerateContent(ctx, model, genai.Text(prompt.String()), config)
	if err != nil {
		return nil, fmt.Errorf("gemini completion failed: %v", err)
	}
	if result == nil || len(result.Candidates) == 0 ||
		result.Candidates[0].Content == nil || len(result.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("gemini returned no candidates")
	}

	var usage Usage
	if result.UsageMetadata != nil {
		usage = Usage{
			PromptTokens:     int(result.UsageMetadata.PromptTokenCount),
			CompletionTokens: int(result.UsageMetadata.CandidatesTokenCount),
			TotalTokens:      int(result.UsageMetadata.TotalTokenCount),
		}
	}
	return &Response{
		Content: result.Candidates[0].Content.Parts[0].Text,
		Usage:   usage,
	}, nil
}
