package generate

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// systemPrompt frames every completion request.
const systemPrompt = "You are a movie and TV show critic. Write engaging, concise reviews."

// OpenAICompleter backs the generator with OpenAI chat completions.
type OpenAICompleter struct {
	client *openai.Client
}

func NewOpenAICompleter(apiKey string) *OpenAICompleter {
	return &OpenAICompleter{client: openai.NewClient(apiKey)}
}

func (c *OpenAICompleter) Complete(ctx context.Context, prompt string, maxTokens int, temperature float32) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: openai.GPT3Dot5Turbo,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   maxTokens,
		Temperature: temperature,
	})
	if err != nil {
		return "", fmt.Errorf("failed to get OpenAI completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("OpenAI returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
