package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/pageza/souschef/backend/config"
)

// Vision describes images with Gemini
type Vision struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewVision creates a Gemini client. Returns nil when no API key is configured.
func NewVision(ctx context.Context, cfg config.GeminiConfig) (*Vision, error) {
	if cfg.APIKey == "" {
		return nil, nil
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	model := cfg.Model
	if model == "" {
		model = "gemini-1.5-flash"
	}
	return &Vision{client: client, model: client.GenerativeModel(model)}, nil
}

// DescribeImage asks the model about an image. format is the image subtype,
// e.g. "jpeg" or "png".
func (v *Vision) DescribeImage(ctx context.Context, format string, data []byte, prompt string) (string, error) {
	start := time.Now()
	text, err := v.describe(ctx, format, data, prompt)
	observe("gemini", "describe", start, err)
	return text, err
}

func (v *Vision) describe(ctx context.Context, format string, data []byte, prompt string) (string, error) {
	resp, err := v.model.GenerateContent(ctx, genai.ImageData(format, data), genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini request failed: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", ErrEmptyResponse
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	text := strings.TrimSpace(b.String())
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// Close releases the underlying client
func (v *Vision) Close() error {
	return v.client.Close()
}
