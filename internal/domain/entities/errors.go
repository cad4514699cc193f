package entities

import "errors"

// Domain errors
var (
	ErrSessionNotFound        = errors.New("recording session not found")
	ErrInvalidStateTransition = errors.New("invalid session state transition")
	ErrTranscriptionFailed    = errors.New("transcription failed")
	ErrAnalysisFailed         = errors.New("analysis failed")
	ErrEmptyTranscript        = errors.New("transcription produced no text")
	ErrMissingAudio           = errors.New("no audio payload provided")
	ErrActionItemOutOfRange   = errors.New("action item index out of range")
	ErrDictationNotFound      = errors.New("dictation session not found")
	ErrDictationInvalidState  = errors.New("dictation session not in a state that allows this operation")
)
