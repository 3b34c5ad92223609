package generate

import (
	"context"
	"os"

	"log/slog"
)

// CompleterFromEnv selects a text-generation capability from the
// environment: OpenAI when OPENAI_API_KEY is set, otherwise Gemini
// when GEMINI_API_KEY is set. Neither being set returns nil, which
// Generate treats as the valid fallback-only configuration.
func CompleterFromEnv(ctx context.Context, logger *slog.Logger) Completer {
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		logger.Info("Review generation backed by OpenAI")
		return NewOpenAICompleter(key)
	}

	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		project := os.Getenv("GEMINI_PROJECT")
		if project == "" {
			project = "moviemate"
		}
		completer, err := NewGeminiCompleter(ctx, project, key)
		if err != nil {
			logger.Warn("Failed to configure Gemini, review generation will use the fallback", slog.Any("error", err))
			return nil
		}
		logger.Info("Review generation backed by Gemini")
		return completer
	}

	logger.Info("No text-generation capability configured, review generation will use the fallback")
	return nil
}
