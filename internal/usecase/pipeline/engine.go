package pipeline

import (
	"context"

	"github.com/echoscribe-team/echoscribe/pkg/ai"
)

// Engine is a batch transcription backend. Engines are tried in order by the
// orchestrator: the first is the primary, the rest are fallbacks.
type Engine interface {
	Name() string
	Transcribe(ctx context.Context, data []byte, mimeType string) (string, error)
}

// AnalysisProvider generates the structured analysis text for a transcript.
type AnalysisProvider interface {
	Generate(ctx context.Context, prompt string, maxTokens int, temperature float64) (*ai.Completion, error)
}

// ObjectStore persists raw audio captures. Get reads a capture back for
// retrying an errored session.
type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	Remove(ctx context.Context, key string) error
}
