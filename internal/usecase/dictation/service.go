package dictation

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/echoscribe-team/echoscribe/internal/audio"
	"github.com/echoscribe-team/echoscribe/internal/domain/entities"
	"github.com/echoscribe-team/echoscribe/internal/usecase/pipeline"
	"github.com/echoscribe-team/echoscribe/pkg/ai"
)

// State is the lifecycle state of a live dictation session.
type State string

const (
	StateConnecting State = "connecting"
	StateListening  State = "listening"
	StateStopping   State = "stopping"
	StateComplete   State = "complete"
	StateCancelled  State = "cancelled"
	StateError      State = "error"
)

// StreamFactory opens a duplex streaming transcription session.
type StreamFactory func(ctx context.Context) (ai.StreamSession, error)

// TranscriptMirror publishes the live transcript for display readers.
type TranscriptMirror interface {
	Set(ctx context.Context, sessionID string, text string) error
	Get(ctx context.Context, sessionID string) (string, error)
	Delete(ctx context.Context, sessionID string) error
}

// Session is one live dictation in flight. The state field is the
// re-entrancy guard: stop and cancel first claim a transition under the
// lock, so a second signal during teardown is a no-op.
type Session struct {
	ID        uuid.UUID
	OwnerID   string
	StartedAt time.Time

	mu        sync.Mutex
	state     State
	stream    ai.StreamSession
	fallback  *audio.FrameBuffer
	committed []string
	partial   string
	readerWg  sync.WaitGroup
}

// Snapshot is a read-only view of a live session.
type Snapshot struct {
	ID         uuid.UUID `json:"id"`
	State      State     `json:"state"`
	Transcript string    `json:"transcript"`
	StartedAt  time.Time `json:"started_at"`
}

// transcriptLocked joins committed segments plus the in-flight partial.
// Callers hold s.mu.
func (s *Session) transcriptLocked() string {
	parts := s.committed
	if s.partial != "" {
		parts = append(append([]string{}, s.committed...), s.partial)
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}

func (s *Session) snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		ID:         s.ID,
		State:      s.state,
		Transcript: s.transcriptLocked(),
		StartedAt:  s.StartedAt,
	}
}

// Service manages live dictation sessions: duplex streaming with a parallel
// fallback recording, finalized through the batch pipeline's analysis stage.
type Service struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*Session

	newStream  StreamFactory
	pipeline   *pipeline.Service
	mirror     TranscriptMirror
	sampleRate int
	logger     *zap.Logger
}

// NewService creates the dictation service. The mirror may be nil to disable
// live transcript publishing.
func NewService(newStream StreamFactory, pipelineSvc *pipeline.Service, mirror TranscriptMirror, sampleRate int, logger *zap.Logger) *Service {
	return &Service{
		sessions:   map[uuid.UUID]*Session{},
		newStream:  newStream,
		pipeline:   pipelineSvc,
		mirror:     mirror,
		sampleRate: sampleRate,
		logger:     logger,
	}
}

// Start opens a new live dictation session. On provider connection failure
// the session is kept in the error state so the caller can retry it.
func (s *Service) Start(ctx context.Context, ownerID string) (Snapshot, error) {
	session := &Session{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		StartedAt: time.Now(),
		state:     StateConnecting,
		fallback:  audio.NewFrameBuffer(s.sampleRate),
	}

	s.mu.Lock()
	s.sessions[session.ID] = session
	s.mu.Unlock()

	if err := s.connect(ctx, session); err != nil {
		if s.logger != nil {
			s.logger.Error("❌ Dictation stream connect failed",
				zap.String("dictation_id", session.ID.String()),
				zap.Error(err),
			)
		}
		return session.snapshot(), err
	}

	if s.logger != nil {
		s.logger.Info("🎤 Dictation session started",
			zap.String("dictation_id", session.ID.String()),
			zap.String("owner_id", ownerID),
		)
	}
	return session.snapshot(), nil
}

// Retry reconnects a session that failed to connect (error -> connecting).
func (s *Service) Retry(ctx context.Context, ownerID string, id uuid.UUID) (Snapshot, error) {
	session, err := s.find(ownerID, id)
	if err != nil {
		return Snapshot{}, err
	}

	session.mu.Lock()
	if session.state != StateError {
		session.mu.Unlock()
		return session.snapshot(), entities.ErrDictationInvalidState
	}
	session.state = StateConnecting
	session.mu.Unlock()

	if err := s.connect(ctx, session); err != nil {
		return session.snapshot(), err
	}
	return session.snapshot(), nil
}

func (s *Service) connect(ctx context.Context, session *Session) error {
	stream, err := s.newStream(ctx)
	if err != nil {
		session.mu.Lock()
		session.state = StateError
		session.mu.Unlock()
		return err
	}

	session.mu.Lock()
	session.stream = stream
	session.state = StateListening
	session.mu.Unlock()

	session.readerWg.Add(1)
	go s.readMessages(session, stream)
	return nil
}

// readMessages drains provider transcript updates into the accumulator and
// the live mirror until the stream closes.
func (s *Service) readMessages(session *Session, stream ai.StreamSession) {
	defer session.readerWg.Done()
	for msg := range stream.Messages() {
		session.mu.Lock()
		if msg.IsFinal {
			if msg.Text != "" {
				session.committed = append(session.committed, msg.Text)
			}
			session.partial = ""
		} else {
			session.partial = msg.Text
		}
		live := session.transcriptLocked()
		session.mu.Unlock()

		if s.mirror != nil {
			if err := s.mirror.Set(context.Background(), session.ID.String(), live); err != nil {
				if s.logger != nil {
					s.logger.Warn("⚠️ Live transcript mirror write failed", zap.Error(err))
				}
			}
		}
	}
}

// PushFrame conditions one interleaved s16le PCM frame and forwards it.
// Sends are fire-and-forget: a failed frame is dropped and logged, never
// retried, since newer audio supersedes it. The frame is always added to the
// fallback recording first.
func (s *Service) PushFrame(ctx context.Context, ownerID string, id uuid.UUID, frame []byte, srcRate, channels int) error {
	session, err := s.find(ownerID, id)
	if err != nil {
		return err
	}

	session.mu.Lock()
	if session.state != StateListening {
		session.mu.Unlock()
		return entities.ErrDictationInvalidState
	}
	stream := session.stream
	session.mu.Unlock()

	conditioned := audio.ConditionFrame(frame, srcRate, channels, s.sampleRate)
	if len(conditioned) == 0 {
		return nil
	}
	session.fallback.Append(conditioned)

	if err := stream.Send(ctx, conditioned); err != nil {
		if s.logger != nil {
			s.logger.Warn("⚠️ Dropped audio frame",
				zap.String("dictation_id", id.String()),
				zap.Error(err),
			)
		}
	}
	return nil
}

// Get returns the live view of a session.
func (s *Service) Get(ownerID string, id uuid.UUID) (Snapshot, error) {
	session, err := s.find(ownerID, id)
	if err != nil {
		return Snapshot{}, err
	}
	return session.snapshot(), nil
}

// Stop finalizes the session: flush and close the stream, then hand the
// accumulated transcript to the analysis stage. If streaming produced no
// text, the fallback recording is submitted to the batch path instead.
// Once stopping has begun, further stop/cancel signals are rejected and the
// finalize sequence runs to completion.
func (s *Service) Stop(ctx context.Context, ownerID string, id uuid.UUID, title string) (*entities.RecordingSession, error) {
	session, err := s.find(ownerID, id)
	if err != nil {
		return nil, err
	}

	session.mu.Lock()
	if session.state != StateListening && session.state != StateError {
		session.mu.Unlock()
		return nil, entities.ErrDictationInvalidState
	}
	session.state = StateStopping
	stream := session.stream
	session.mu.Unlock()

	// Closing waits for the provider flush, so trailing buffered partials
	// still arrive through the reader before we assemble the transcript.
	if stream != nil {
		if err := stream.Close(ctx); err != nil {
			if s.logger != nil {
				s.logger.Warn("⚠️ Stream close failed", zap.Error(err))
			}
		}
		session.readerWg.Wait()
	}

	session.mu.Lock()
	transcript := strings.TrimSpace(strings.Join(session.committed, " "))
	duration := int(session.fallback.Duration().Seconds())
	session.mu.Unlock()

	defer s.teardown(session, StateComplete)

	if transcript == "" && session.fallback.Len() > 0 {
		if s.logger != nil {
			s.logger.Warn("⚠️ Streaming produced no text, submitting fallback recording to batch path",
				zap.String("dictation_id", id.String()),
				zap.Duration("recorded", session.fallback.Duration()),
			)
		}
		return s.pipeline.Start(ctx, pipeline.ProcessInput{
			OwnerID:         ownerID,
			Title:           title,
			Source:          entities.SourceDictation,
			Audio:           session.fallback.WAV(),
			MIMEType:        "audio/wav",
			DurationSeconds: duration,
		})
	}

	if transcript == "" {
		return nil, entities.ErrEmptyTranscript
	}

	result, err := s.pipeline.ProcessTranscript(ctx, ownerID, title, entities.SourceDictation, transcript, duration)
	if err != nil {
		return nil, err
	}
	if s.logger != nil {
		s.logger.Info("✅ Dictation finalized",
			zap.String("dictation_id", id.String()),
			zap.String("session_id", result.ID.String()),
			zap.Int("transcript_length", len(transcript)),
		)
	}
	return result, nil
}

// Cancel discards the session: all resources are released and nothing is
// analyzed or persisted. Not honored once stopping has begun.
func (s *Service) Cancel(ctx context.Context, ownerID string, id uuid.UUID) error {
	session, err := s.find(ownerID, id)
	if err != nil {
		return err
	}

	session.mu.Lock()
	if session.state == StateStopping || session.state == StateComplete || session.state == StateCancelled {
		session.mu.Unlock()
		return entities.ErrDictationInvalidState
	}
	stream := session.stream
	session.state = StateCancelled
	session.mu.Unlock()

	if stream != nil {
		if err := stream.Close(ctx); err != nil {
			if s.logger != nil {
				s.logger.Warn("⚠️ Stream close failed on cancel", zap.Error(err))
			}
		}
		session.readerWg.Wait()
	}

	s.teardown(session, StateCancelled)
	if s.logger != nil {
		s.logger.Info("🗑️ Dictation cancelled", zap.String("dictation_id", id.String()))
	}
	return nil
}

func (s *Service) teardown(session *Session, final State) {
	session.mu.Lock()
	session.state = final
	session.mu.Unlock()

	if s.mirror != nil {
		if err := s.mirror.Delete(context.Background(), session.ID.String()); err != nil {
			if s.logger != nil {
				s.logger.Warn("⚠️ Failed to clear live transcript mirror", zap.Error(err))
			}
		}
	}

	s.mu.Lock()
	delete(s.sessions, session.ID)
	s.mu.Unlock()
}

func (s *Service) find(ownerID string, id uuid.UUID) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok || session.OwnerID != ownerID {
		return nil, entities.ErrDictationNotFound
	}
	return session, nil
}
