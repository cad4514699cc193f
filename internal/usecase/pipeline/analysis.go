package pipeline

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/echoscribe-team/echoscribe/internal/domain/entities"
	"github.com/echoscribe-team/echoscribe/pkg/retry"
)

// finishReasonLength is the provider's stop reason when output hit the
// max_tokens ceiling. Truncated output is still useful partial output.
const finishReasonLength = "length"

// AnalysisStage turns a raw transcript into a structured MeetingAnalysis.
// A permanent provider failure degrades rather than destroys: the raw
// transcript is returned as the summary alongside the error.
type AnalysisStage struct {
	provider    AnalysisProvider
	executor    *retry.Executor
	parser      *Parser
	maxTokens   int
	temperature float64
	logger      *zap.Logger
}

// NewAnalysisStage creates the analysis stage.
func NewAnalysisStage(provider AnalysisProvider, executor *retry.Executor, maxTokens int, temperature float64, logger *zap.Logger) *AnalysisStage {
	return &AnalysisStage{
		provider:    provider,
		executor:    executor,
		parser:      NewParser(),
		maxTokens:   maxTokens,
		temperature: temperature,
		logger:      logger,
	}
}

// Analyze generates and parses the structured analysis. On permanent failure
// it returns a degraded analysis built from the transcript AND the error:
// the caller persists the degraded result while marking the session errored.
func (s *AnalysisStage) Analyze(ctx context.Context, transcript string) (*entities.MeetingAnalysis, error) {
	if strings.TrimSpace(transcript) == "" {
		return nil, entities.ErrEmptyTranscript
	}

	prompt := buildAnalysisPrompt(transcript)

	var completion analysisCompletion
	err := s.executor.Run(ctx, "analysis", func(ctx context.Context) error {
		result, gErr := s.provider.Generate(ctx, prompt, s.maxTokens, s.temperature)
		if gErr != nil {
			return gErr
		}
		completion = analysisCompletion{text: result.Text, finishReason: result.FinishReason}
		return nil
	})
	if err != nil {
		if s.logger != nil {
			s.logger.Error("❌ Analysis failed permanently, degrading to raw transcript", zap.Error(err))
		}
		return entities.NewDegradedAnalysis(transcript), fmt.Errorf("%w: %v", entities.ErrAnalysisFailed, err)
	}

	parsed := s.parser.Parse(completion.text)

	analysis := &entities.MeetingAnalysis{
		Transcript:        transcript,
		Summary:           parsed.Summary,
		ActionPoints:      parsed.ActionPoints,
		OpenQuestions:     parsed.OpenQuestions,
		DetectedLanguages: parsed.DetectedLanguages,
		MeetingType:       parsed.MeetingType,
		IsTruncated:       completion.finishReason == finishReasonLength,
	}
	if parsed.Transcript != "" {
		// The model returned a cleaned-up transcript; prefer it.
		analysis.Transcript = parsed.Transcript
	}
	if analysis.Summary == "" {
		analysis.Summary = parsed.Overview
	}
	if analysis.ActionPoints == nil {
		analysis.ActionPoints = []string{}
	}

	if s.logger != nil {
		s.logger.Info("✅ Analysis generated",
			zap.Int("summary_length", len(analysis.Summary)),
			zap.Int("action_points", len(analysis.ActionPoints)),
			zap.Bool("truncated", analysis.IsTruncated),
		)
	}
	return analysis, nil
}

type analysisCompletion struct {
	text         string
	finishReason string
}

func buildAnalysisPrompt(transcript string) string {
	var sb strings.Builder
	sb.WriteString("You are an assistant that analyzes meeting and dictation transcripts.\n")
	sb.WriteString("Respond in plain text using exactly these section headers, each on its own line:\n\n")
	sb.WriteString("SUMMARY\nACTION POINTS\nOPEN QUESTIONS\nDETECTED LANGUAGES\nMEETING TYPE\n\n")
	sb.WriteString("Under SUMMARY write a structured narrative of the discussion.\n")
	sb.WriteString("Under ACTION POINTS list concrete follow-ups, one per line prefixed with \"- \". Write \"none\" if there are no action points.\n")
	sb.WriteString("Under OPEN QUESTIONS list unresolved questions, one per line prefixed with \"- \". Write \"none\" if there are none.\n")
	sb.WriteString("Under DETECTED LANGUAGES list the spoken languages, comma separated.\n")
	sb.WriteString("Under MEETING TYPE write one short label such as standup, planning, interview, dictation.\n\n")
	sb.WriteString("Transcript:\n")
	sb.WriteString(transcript)
	return sb.String()
}
