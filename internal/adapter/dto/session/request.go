package session

// CreateSessionRequest carries the form fields of a capture upload; the
// audio itself arrives as the multipart "audio" file.
type CreateSessionRequest struct {
	Title           string `form:"title" validate:"omitempty,max=255"`
	Source          string `form:"source" validate:"required,recording_source"`
	DurationSeconds int    `form:"duration_seconds" validate:"omitempty,min=0"`
	Metadata        string `form:"metadata"`
}

// ManualSessionRequest carries a hand-entered transcript straight to the
// analysis stage, skipping transcription.
type ManualSessionRequest struct {
	Title           string `json:"title" validate:"omitempty,max=255"`
	Source          string `json:"source" validate:"required,recording_source"`
	Transcript      string `json:"transcript" validate:"required"`
	DurationSeconds int    `json:"duration_seconds" validate:"omitempty,min=0"`
}

// RenameRequest renames a recording session
type RenameRequest struct {
	Title string `json:"title" validate:"required,min=1,max=255"`
}

// ActionItemRequest sets completion state for one action point
type ActionItemRequest struct {
	Done *bool `json:"done" validate:"required"`
}

// PushFrameRequest carries one base64-encoded interleaved s16le PCM frame
type PushFrameRequest struct {
	Frame      string `json:"frame" validate:"required"`
	SampleRate int    `json:"sample_rate" validate:"required,min=8000,max=96000"`
	Channels   int    `json:"channels" validate:"required,min=1,max=8"`
}

// StopDictationRequest finalizes a live dictation session
type StopDictationRequest struct {
	Title string `json:"title"`
}
