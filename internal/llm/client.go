package llm

import (
	"context"
)

// Client is a single-turn text generation call. The agent runner treats a
// nil Client as "no credential configured" and takes its deterministic path.
type Client interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
