package pipeline

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/echoscribe-team/echoscribe/internal/audio"
	"github.com/echoscribe-team/echoscribe/internal/domain/entities"
	"github.com/echoscribe-team/echoscribe/pkg/retry"
)

// Orchestrator transcribes ordered chunk lists against an engine chain.
// Chunks run concurrently in bounded batches; results are reassembled by
// chunk index regardless of completion order. A chunk that fails on every
// engine fails the whole operation: a transcript with a silent gap is worse
// than a clear error.
type Orchestrator struct {
	engines   []Engine
	executor  *retry.Executor
	batchSize int
	logger    *zap.Logger

	// OnFallback is invoked when a chunk falls through to the next engine.
	// Used for logging and status reporting; may be nil.
	OnFallback func(chunkIndex int, from, to string)
}

// NewOrchestrator creates an orchestrator over the engine chain.
func NewOrchestrator(engines []Engine, executor *retry.Executor, batchSize int, logger *zap.Logger) *Orchestrator {
	if batchSize < 1 {
		batchSize = 1
	}
	return &Orchestrator{
		engines:   engines,
		executor:  executor,
		batchSize: batchSize,
		logger:    logger,
	}
}

// Transcribe processes all chunks and returns the index-ordered transcript.
func (o *Orchestrator) Transcribe(ctx context.Context, chunks []audio.Chunk) (string, error) {
	if len(o.engines) == 0 {
		return "", fmt.Errorf("%w: no transcription engines configured", entities.ErrTranscriptionFailed)
	}
	if len(chunks) == 0 {
		return "", entities.ErrMissingAudio
	}

	results := make([]string, len(chunks))
	errs := make([]error, len(chunks))

	for start := 0; start < len(chunks); start += o.batchSize {
		end := start + o.batchSize
		if end > len(chunks) {
			end = len(chunks)
		}

		var wg sync.WaitGroup
		for _, chunk := range chunks[start:end] {
			wg.Add(1)
			go func(chunk audio.Chunk) {
				defer wg.Done()
				text, err := o.transcribeChunk(ctx, chunk)
				results[chunk.Index] = text
				errs[chunk.Index] = err
			}(chunk)
		}
		wg.Wait()

		for i := start; i < end; i++ {
			if errs[i] != nil {
				return "", fmt.Errorf("%w: chunk %d: %v", entities.ErrTranscriptionFailed, i, errs[i])
			}
		}
	}

	var parts []string
	for _, text := range results {
		if text != "" {
			parts = append(parts, text)
		}
	}
	transcript := strings.TrimSpace(strings.Join(parts, " "))
	if transcript == "" {
		return "", entities.ErrEmptyTranscript
	}
	return transcript, nil
}

// transcribeChunk runs one chunk down the engine chain. Each engine gets the
// full retry budget before the chunk falls through to the next one.
func (o *Orchestrator) transcribeChunk(ctx context.Context, chunk audio.Chunk) (string, error) {
	var lastErr error
	for i, engine := range o.engines {
		var text string
		err := o.executor.Run(ctx, engine.Name(), func(ctx context.Context) error {
			var tErr error
			text, tErr = engine.Transcribe(ctx, chunk.Data, chunk.MIMEType)
			return tErr
		})
		if err == nil {
			return text, nil
		}
		lastErr = err

		if i+1 < len(o.engines) {
			next := o.engines[i+1]
			if o.logger != nil {
				o.logger.Warn("⚠️ Engine exhausted, falling back",
					zap.Int("chunk_index", chunk.Index),
					zap.String("from", engine.Name()),
					zap.String("to", next.Name()),
					zap.Error(err),
				)
			}
			if o.OnFallback != nil {
				o.OnFallback(chunk.Index, engine.Name(), next.Name())
			}
		}
	}
	return "", lastErr
}
