package estimate

import (
	"context"
	"encoding/json"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

const estimatorSystemPrompt = `You are an auto body damage estimator with 15+ years of real experience.
Multiple photos of the same vehicle are provided.

Analyze ALL photos and produce ONE unified JSON result using this schema:

{
  "severity": "Minor | Moderate | Severe",
  "damage_areas": ["front bumper", "rear door", "fender", "hood"],
  "damage_types": ["dent", "scratch", "crack", "paint chip", "rust", "misalignment"],
  "suggested_repairs": ["PDR", "panel replacement", "paint respray"],
  "min_cost": number,
  "max_cost": number,
  "confidence": number  (0.0 - 1.0)
}

Rules:
- Merge damage from ALL images.
- Include any damage visible in ANY image.
- Always return valid JSON.`

type chatClient interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAIClient asks an OpenAI vision model for a unified damage estimate.
type OpenAIClient struct {
	client chatClient
	model  string
}

// NewOpenAIClient returns an OpenAI-backed estimator client.
func NewOpenAIClient(apiKey, model string) *OpenAIClient {
	if apiKey == "" {
		panic("estimate: openai api key cannot be empty")
	}
	if model == "" {
		model = "gpt-4.1"
	}
	return &OpenAIClient{
		client: openai.NewClient(apiKey),
		model:  model,
	}
}

// EstimateDamage sends every image URL in one request and decodes the JSON
// result. Transport failures map to ErrUnavailable, undecodable answers to
// ErrMalformed.
func (c *OpenAIClient) EstimateDamage(ctx context.Context, imageURLs []string) (*RawEstimate, error) {
	parts := make([]openai.ChatMessagePart, 0, len(imageURLs)+1)
	parts = append(parts, openai.ChatMessagePart{
		Type: openai.ChatMessagePartTypeText,
		Text: "Analyze all uploaded images.",
	})
	for _, url := range imageURLs {
		parts = append(parts, openai.ChatMessagePart{
			Type:     openai.ChatMessagePartTypeImageURL,
			ImageURL: &openai.ChatMessageImageURL{URL: url},
		})
	}

	req := openai.ChatCompletionRequest{
		Model: c.model,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: estimatorSystemPrompt},
			{Role: openai.ChatMessageRoleUser, MultiContent: parts},
		},
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%w: completion failed: %v", ErrUnavailable, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices returned", ErrMalformed)
	}

	var raw RawEstimate
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return &raw, nil
}
