package ai

import (
	"context"
	"sync"

	aai "github.com/AssemblyAI/assemblyai-go-sdk"
	"go.uber.org/zap"

	"github.com/echoscribe-team/echoscribe/pkg/config"
)

// RealTimeSession adapts the AssemblyAI real-time websocket client to the
// StreamSession interface. SDK callbacks are translated into StreamMessage
// values on a buffered channel.
type RealTimeSession struct {
	client   *aai.RealTimeClient
	messages chan StreamMessage
	done     chan struct{}
	closeErr error
	once     sync.Once
	logger   *zap.Logger
}

// StartRealTimeSession connects a streaming transcription session expecting
// mono s16le PCM at the given sample rate.
func StartRealTimeSession(ctx context.Context, cfg *config.AssemblyAIConfig, sampleRate int, logger *zap.Logger) (*RealTimeSession, error) {
	s := &RealTimeSession{
		messages: make(chan StreamMessage, 256),
		done:     make(chan struct{}),
		logger:   logger,
	}

	transcriber := &aai.RealTimeTranscriber{
		OnPartialTranscript: func(event aai.PartialTranscript) {
			s.publish(StreamMessage{Text: event.Text, IsFinal: false})
		},
		OnFinalTranscript: func(event aai.FinalTranscript) {
			s.publish(StreamMessage{Text: event.Text, IsFinal: true})
		},
		OnError: func(err error) {
			if s.logger != nil {
				s.logger.Error("❌ Real-time transcription error", zap.Error(err))
			}
		},
		OnSessionTerminated: func(event aai.SessionTerminated) {
			if s.logger != nil {
				s.logger.Info("🛑 Real-time session terminated")
			}
		},
	}

	s.client = aai.NewRealTimeClientWithOptions(
		aai.WithRealTimeAPIKey(cfg.APIKey),
		aai.WithRealTimeSampleRate(sampleRate),
		aai.WithRealTimeTranscriber(transcriber),
	)

	if err := s.client.Connect(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Send submits one PCM frame to the provider.
func (s *RealTimeSession) Send(ctx context.Context, frame []byte) error {
	return s.client.Send(ctx, frame)
}

// Messages returns the transcript update stream. Closed after Close.
func (s *RealTimeSession) Messages() <-chan StreamMessage {
	return s.messages
}

// Close disconnects, waiting for the provider to flush the session. Safe to
// call more than once.
func (s *RealTimeSession) Close(ctx context.Context) error {
	s.once.Do(func() {
		close(s.done)
		s.closeErr = s.client.Disconnect(ctx, true)
		// Disconnect waits for session termination, so no callback can still
		// be publishing here.
		close(s.messages)
	})
	return s.closeErr
}

func (s *RealTimeSession) publish(msg StreamMessage) {
	select {
	case <-s.done:
		return
	default:
	}
	select {
	case s.messages <- msg:
	case <-s.done:
	}
}
