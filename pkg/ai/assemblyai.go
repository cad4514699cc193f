package ai

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	aai "github.com/AssemblyAI/assemblyai-go-sdk"

	"github.com/echoscribe-team/echoscribe/pkg/config"
)

// AssemblyAIEngine is the primary batch transcription engine, backed by the
// official AssemblyAI SDK.
type AssemblyAIEngine struct {
	client *aai.Client
}

// NewAssemblyAIEngine creates the engine from config.
func NewAssemblyAIEngine(cfg *config.AssemblyAIConfig) *AssemblyAIEngine {
	return &AssemblyAIEngine{
		client: aai.NewClient(cfg.APIKey),
	}
}

// Name identifies the engine in logs and fallback reporting.
func (e *AssemblyAIEngine) Name() string {
	return "assemblyai"
}

// Transcribe uploads one audio chunk and blocks until the transcript is
// ready. The SDK handles upload, submission and polling.
func (e *AssemblyAIEngine) Transcribe(ctx context.Context, data []byte, mimeType string) (string, error) {
	params := &aai.TranscriptOptionalParams{
		LanguageDetection: aai.Bool(true),
		Punctuate:         aai.Bool(true),
		FormatText:        aai.Bool(true),
	}

	transcript, err := e.client.Transcripts.TranscribeFromReader(ctx, bytes.NewReader(data), params)
	if err != nil {
		return "", fmt.Errorf("assemblyai transcription: %w", err)
	}

	if transcript.Status == aai.TranscriptStatusError {
		msg := "unknown error"
		if transcript.Error != nil {
			msg = *transcript.Error
		}
		return "", fmt.Errorf("assemblyai transcription failed: %s", msg)
	}

	if transcript.Text == nil {
		return "", nil
	}
	return strings.TrimSpace(*transcript.Text), nil
}
