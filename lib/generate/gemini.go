package generate

import (
	"context"
	"fmt"

	"cloud.google.com/go/vertexai/genai"
	"google.golang.org/api/option"
)

// GeminiCompleter backs the generator with Vertex AI Gemini.
type GeminiCompleter struct {
	client *genai.Client
}

func NewGeminiCompleter(ctx context.Context, project, apiKey string) (*GeminiCompleter, error) {
	client, err := genai.NewClient(ctx, project, "us-central1", option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiCompleter{client: client}, nil
}

func (c *GeminiCompleter) Complete(ctx context.Context, prompt string, maxTokens int, temperature float32) (string, error) {
	model := c.client.GenerativeModel("gemini-pro")
	model.SetTemperature(temperature)
	model.SetMaxOutputTokens(int32(maxTokens))

	resp, err := model.GenerateContent(ctx, genai.Text(systemPrompt+"\n\n"+prompt))
	if err != nil {
		return "", fmt.Errorf("failed to get Gemini completion: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("Gemini returned no candidates")
	}
	return fmt.Sprintf("%v", resp.Candidates[0].Content.Parts[0]), nil
}
