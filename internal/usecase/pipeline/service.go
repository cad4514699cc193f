package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/echoscribe-team/echoscribe/internal/audio"
	"github.com/echoscribe-team/echoscribe/internal/domain/entities"
	"github.com/echoscribe-team/echoscribe/internal/domain/repositories"
)

// processingTimeout bounds one background pipeline run end to end.
const processingTimeout = 30 * time.Minute

// ProcessInput carries one recording into the pipeline.
type ProcessInput struct {
	OwnerID         string
	Title           string
	Source          entities.SessionSource
	Audio           []byte
	MIMEType        string
	DurationSeconds int
	Metadata        datatypes.JSON
}

// Service drives a recording through transcription, analysis and
// finalization. Every state change is checkpointed through the session
// repository before the next stage starts, so a crash never leaves a
// session claiming an in-flight state it isn't in.
type Service struct {
	sessions     repositories.SessionRepository
	actionItems  repositories.ActionItemRepository
	chunker      *audio.Chunker
	orchestrator *Orchestrator
	analysis     *AnalysisStage
	storage      ObjectStore
	maxChunk     time.Duration
	sem          chan struct{}
	logger       *zap.Logger
}

// NewService creates the session pipeline service. maxConcurrent bounds how
// many recordings are processed at once; storage may be nil to skip raw
// audio retention.
func NewService(
	sessions repositories.SessionRepository,
	actionItems repositories.ActionItemRepository,
	chunker *audio.Chunker,
	orchestrator *Orchestrator,
	analysis *AnalysisStage,
	storage ObjectStore,
	maxChunkDuration time.Duration,
	maxConcurrent int,
	logger *zap.Logger,
) *Service {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Service{
		sessions:     sessions,
		actionItems:  actionItems,
		chunker:      chunker,
		orchestrator: orchestrator,
		analysis:     analysis,
		storage:      storage,
		maxChunk:     maxChunkDuration,
		sem:          make(chan struct{}, maxConcurrent),
		logger:       logger,
	}
}

// Start validates the input, persists the initial processing checkpoint and
// kicks off background processing. The returned session is the created row;
// callers poll Get for progress.
func (s *Service) Start(ctx context.Context, input ProcessInput) (*entities.RecordingSession, error) {
	if len(input.Audio) == 0 {
		return nil, entities.ErrMissingAudio
	}
	if !entities.ValidSource(input.Source) {
		return nil, fmt.Errorf("unknown recording source %q", input.Source)
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		title = "Recording " + time.Now().Format("2006-01-02 15:04")
	}

	session := entities.NewRecordingSession(input.OwnerID, title, input.Source, input.DurationSeconds)
	session.AudioMIMEType = input.MIMEType
	session.Metadata = input.Metadata

	if s.storage != nil {
		key := fmt.Sprintf("captures/%s/%s%s", input.OwnerID, session.ID, extensionFor(input.MIMEType))
		if err := s.storage.Put(ctx, key, input.Audio, input.MIMEType); err != nil {
			// Retention is best effort; the pipeline runs from memory.
			if s.logger != nil {
				s.logger.Warn("⚠️ Failed to store raw capture", zap.String("key", key), zap.Error(err))
			}
		} else {
			session.AudioObjectKey = key
		}
	}

	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, err
	}

	if s.logger != nil {
		s.logger.Info("🎙️ Recording session started",
			zap.String("session_id", session.ID.String()),
			zap.String("source", string(session.Source)),
			zap.Int("audio_bytes", len(input.Audio)),
		)
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), processingTimeout)
		defer cancel()
		s.runPipeline(ctx, session, input.Audio, input.MIMEType)
	}()

	return session, nil
}

// ProcessTranscript finalizes an already-obtained transcript: live dictation
// and manual entry skip transcription and enter the pipeline at the analysis
// stage. Runs synchronously; once started it completes or fails, it is never
// abandoned half-way.
func (s *Service) ProcessTranscript(ctx context.Context, ownerID, title string, source entities.SessionSource, transcript string, durationSeconds int) (*entities.RecordingSession, error) {
	if strings.TrimSpace(transcript) == "" {
		return nil, entities.ErrEmptyTranscript
	}
	if !entities.ValidSource(source) {
		return nil, fmt.Errorf("unknown recording source %q", source)
	}
	if strings.TrimSpace(title) == "" {
		prefix := "Recording "
		if source == entities.SourceDictation {
			prefix = "Dictation "
		}
		title = prefix + time.Now().Format("2006-01-02 15:04")
	}

	s.sem <- struct{}{}
	defer func() { <-s.sem }()

	session := entities.NewRecordingSession(ownerID, title, source, durationSeconds)
	session.AttachTranscript(transcript)
	if err := session.AdvanceStep(entities.StepAnalyzing); err != nil {
		return nil, err
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, err
	}

	analysis, err := s.analysis.Analyze(ctx, transcript)
	if err != nil {
		s.failSession(ctx, session, err, analysis)
		return session, nil
	}

	if err := session.AdvanceStep(entities.StepFinalizing); err != nil {
		s.failSession(ctx, session, err, analysis)
		return session, nil
	}
	s.checkpoint(ctx, session)

	if err := session.Complete(analysis); err != nil {
		s.failSession(ctx, session, err, analysis)
		return session, nil
	}
	s.checkpoint(ctx, session)
	return session, nil
}

// runPipeline executes transcribe -> analyze -> finalize for one session,
// checkpointing each step. Called from a background goroutine.
func (s *Service) runPipeline(ctx context.Context, session *entities.RecordingSession, audioData []byte, mimeType string) {
	s.sem <- struct{}{}
	defer func() { <-s.sem }()

	// Transcribing.
	chunks := s.chunker.Split(ctx, audioData, mimeType, s.maxChunk)
	transcript, err := s.orchestrator.Transcribe(ctx, chunks)
	if err != nil {
		s.failSession(ctx, session, err, nil)
		return
	}

	session.AttachTranscript(transcript)
	if err := session.AdvanceStep(entities.StepAnalyzing); err != nil {
		s.failSession(ctx, session, err, nil)
		return
	}
	s.checkpoint(ctx, session)

	// Analyzing. A permanent failure still yields a degraded analysis that
	// carries the transcript; the session ends in error but keeps the text.
	analysis, err := s.analysis.Analyze(ctx, transcript)
	if err != nil {
		s.failSession(ctx, session, err, analysis)
		return
	}

	if err := session.AdvanceStep(entities.StepFinalizing); err != nil {
		s.failSession(ctx, session, err, analysis)
		return
	}
	s.checkpoint(ctx, session)

	// Finalizing.
	if err := session.Complete(analysis); err != nil {
		s.failSession(ctx, session, err, analysis)
		return
	}
	s.checkpoint(ctx, session)

	if s.logger != nil {
		s.logger.Info("✅ Recording session completed",
			zap.String("session_id", session.ID.String()),
			zap.Int("transcript_length", len(transcript)),
			zap.Int("action_points", len(analysis.ActionPoints)),
		)
	}
}

func (s *Service) failSession(ctx context.Context, session *entities.RecordingSession, cause error, degraded *entities.MeetingAnalysis) {
	if s.logger != nil {
		s.logger.Error("❌ Recording session failed",
			zap.String("session_id", session.ID.String()),
			zap.Error(cause),
		)
	}
	if err := session.Fail(cause.Error(), degraded); err != nil {
		if s.logger != nil {
			s.logger.Error("failed to mark session errored", zap.Error(err))
		}
		return
	}
	s.checkpoint(ctx, session)
}

func (s *Service) checkpoint(ctx context.Context, session *entities.RecordingSession) {
	if err := s.sessions.Save(ctx, session); err != nil {
		if s.logger != nil {
			s.logger.Error("❌ Failed to checkpoint session",
				zap.String("session_id", session.ID.String()),
				zap.Error(err),
			)
		}
	}
}

// Retry reruns an errored session from its stored capture. The capture is
// read back from object storage; sessions without a retained capture (or
// without storage configured) cannot be retried.
func (s *Service) Retry(ctx context.Context, ownerID string, id uuid.UUID) (*entities.RecordingSession, error) {
	session, err := s.sessions.FindByID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if s.storage == nil || session.AudioObjectKey == "" {
		return nil, entities.ErrMissingAudio
	}

	audioData, err := s.storage.Get(ctx, session.AudioObjectKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read stored capture: %w", err)
	}
	if len(audioData) == 0 {
		return nil, entities.ErrMissingAudio
	}

	if err := session.Restart(); err != nil {
		return nil, err
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, err
	}

	if s.logger != nil {
		s.logger.Info("🔄 Retrying errored session",
			zap.String("session_id", session.ID.String()),
			zap.Int("audio_bytes", len(audioData)),
		)
	}

	mimeType := session.AudioMIMEType
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), processingTimeout)
		defer cancel()
		s.runPipeline(ctx, session, audioData, mimeType)
	}()

	return session, nil
}

// Get retrieves one session scoped to its owner.
func (s *Service) Get(ctx context.Context, ownerID string, id uuid.UUID) (*entities.RecordingSession, error) {
	return s.sessions.FindByID(ctx, ownerID, id)
}

// List retrieves an owner's sessions.
func (s *Service) List(ctx context.Context, ownerID string, filters repositories.SessionFilters) ([]*entities.RecordingSession, int64, error) {
	return s.sessions.List(ctx, ownerID, filters)
}

// Rename updates a session title.
func (s *Service) Rename(ctx context.Context, ownerID string, id uuid.UUID, title string) (*entities.RecordingSession, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("title must not be empty")
	}
	session, err := s.sessions.FindByID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	session.Rename(title)
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// Delete removes a session, its action item states and its stored capture.
func (s *Service) Delete(ctx context.Context, ownerID string, id uuid.UUID) error {
	session, err := s.sessions.FindByID(ctx, ownerID, id)
	if err != nil {
		return err
	}
	if err := s.sessions.Delete(ctx, ownerID, id); err != nil {
		return err
	}
	if s.storage != nil && session.AudioObjectKey != "" {
		if err := s.storage.Remove(ctx, session.AudioObjectKey); err != nil {
			if s.logger != nil {
				s.logger.Warn("⚠️ Failed to remove stored capture",
					zap.String("key", session.AudioObjectKey),
					zap.Error(err),
				)
			}
		}
	}
	return nil
}

// SetActionItemDone records per-user completion of one action point.
func (s *Service) SetActionItemDone(ctx context.Context, ownerID string, sessionID uuid.UUID, itemIndex int, done bool) error {
	session, err := s.sessions.FindByID(ctx, ownerID, sessionID)
	if err != nil {
		return err
	}
	if session.Analysis == nil || itemIndex < 0 || itemIndex >= len(session.Analysis.ActionPoints) {
		return entities.ErrActionItemOutOfRange
	}
	state := entities.NewActionItemState(sessionID, ownerID, itemIndex, done)
	return s.actionItems.SetDone(ctx, state)
}

// ActionItems retrieves a session's completion states.
func (s *Service) ActionItems(ctx context.Context, ownerID string, sessionID uuid.UUID) ([]*entities.ActionItemState, error) {
	if _, err := s.sessions.FindByID(ctx, ownerID, sessionID); err != nil {
		return nil, err
	}
	return s.actionItems.FindBySession(ctx, ownerID, sessionID)
}

func extensionFor(mimeType string) string {
	switch {
	case strings.Contains(mimeType, "wav"):
		return ".wav"
	case strings.Contains(mimeType, "webm"):
		return ".webm"
	case strings.Contains(mimeType, "ogg"):
		return ".ogg"
	case strings.Contains(mimeType, "mp4"), strings.Contains(mimeType, "m4a"):
		return ".m4a"
	case strings.Contains(mimeType, "mpeg"), strings.Contains(mimeType, "mp3"):
		return ".mp3"
	default:
		return ".bin"
	}
}
