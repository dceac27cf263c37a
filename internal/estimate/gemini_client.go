package estimate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// maxImageBytes caps a single downloaded image well under Gemini's
// inline-data request limit.
const maxImageBytes = 16 << 20

// GeminiClient is an alternate estimator backend used as a fallback when
// the primary vision model is unreachable.
type GeminiClient struct {
	client     *genai.Client
	model      string
	httpClient *http.Client
}

// NewGeminiClient creates a Gemini-backed estimator client.
func NewGeminiClient(ctx context.Context, apiKey, model string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("estimate: gemini api key cannot be empty")
	}
	if model == "" {
		model = "gemini-1.5-flash"
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("estimate: failed to create gemini client: %w", err)
	}
	return &GeminiClient{client: client, model: model, httpClient: http.DefaultClient}, nil
}

// EstimateDamage asks Gemini for the same unified JSON result as the
// primary estimator. Gemini cannot fetch arbitrary URLs itself, so each
// image is downloaded and sent inline as a blob part.
func (c *GeminiClient) EstimateDamage(ctx context.Context, imageURLs []string) (*RawEstimate, error) {
	parts := make([]genai.Part, 0, len(imageURLs)+1)
	parts = append(parts, genai.Text(estimatorSystemPrompt+"\n\nAnalyze all uploaded images."))
	for _, url := range imageURLs {
		part, err := c.fetchImagePart(ctx, url)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		parts = append(parts, part)
	}

	model := c.client.GenerativeModel(c.model)
	model.ResponseMIMEType = "application/json"

	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		return nil, fmt.Errorf("%w: gemini generation failed: %v", ErrUnavailable, err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("%w: gemini returned no candidates", ErrMalformed)
	}

	var builder strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			builder.WriteString(string(text))
		}
	}

	var raw RawEstimate
	if err := json.Unmarshal([]byte(builder.String()), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return &raw, nil
}

// fetchImagePart downloads one image and wraps it as an inline blob part.
func (c *GeminiClient) fetchImagePart(ctx context.Context, url string) (genai.Part, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("estimate: invalid image url: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("estimate: failed to fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("estimate: image fetch returned status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, fmt.Errorf("estimate: failed to read image body: %w", err)
	}
	return genai.Blob{MIMEType: imageMIMEType(resp.Header.Get("Content-Type")), Data: data}, nil
}

// imageMIMEType normalizes a response content type for the blob part.
// Twilio media is jpeg unless the response says otherwise.
func imageMIMEType(contentType string) string {
	mimeType, _, _ := strings.Cut(contentType, ";")
	mimeType = strings.TrimSpace(mimeType)
	if !strings.HasPrefix(mimeType, "image/") {
		return "image/jpeg"
	}
	return mimeType
}

// Close releases the underlying Gemini client.
func (c *GeminiClient) Close() error {
	return c.client.Close()
}
