// ABOUTME: Shared helpers for CLI commands
// ABOUTME: Builds a local generator from backend flags and environment keys
package cli

import (
	"context"
	"log/slog"

	"github.com/oli8788/stek-meeting-minutes/pkg/inference"
)

// localGenerator builds a backend from the environment's API key
func localGenerator(ctx context.Context, backend, model string, logger *slog.Logger) (inference.Generator, error) {
	return inference.New(ctx, inference.Options{
		Backend: backend,
		APIKey:  inference.APIKeyFromEnv(backend),
		Model:   model,
		Logger:  logger,
	})
}
