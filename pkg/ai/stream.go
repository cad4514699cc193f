package ai

import "context"

// StreamMessage is one transcript update from a streaming transcription
// session. Partial messages revise the in-progress utterance; a final
// message commits it.
type StreamMessage struct {
	Text    string
	IsFinal bool
}

// StreamSession is a duplex streaming transcription session: audio frames go
// in via Send, transcript updates come out via Messages. Messages is closed
// when the provider terminates the session.
type StreamSession interface {
	Send(ctx context.Context, frame []byte) error
	Messages() <-chan StreamMessage
	Close(ctx context.Context) error
}
