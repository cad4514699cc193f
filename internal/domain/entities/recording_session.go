package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// SessionStatus represents the lifecycle state of a recording session
type SessionStatus string

const (
	SessionStatusProcessing SessionStatus = "processing"
	SessionStatusCompleted  SessionStatus = "completed"
	SessionStatusError      SessionStatus = "error"
)

// ProcessingStep represents the sub-state of a processing session
type ProcessingStep string

const (
	StepTranscribing ProcessingStep = "transcribing"
	StepAnalyzing    ProcessingStep = "analyzing"
	StepFinalizing   ProcessingStep = "finalizing"
)

// stepOrder defines the forward-only progression of processing steps.
var stepOrder = map[ProcessingStep]int{
	StepTranscribing: 0,
	StepAnalyzing:    1,
	StepFinalizing:   2,
}

// SessionSource represents where the recording came from
type SessionSource string

const (
	SourceInPerson       SessionSource = "in_person"
	SourceVirtualMeeting SessionSource = "virtual_meeting"
	SourcePhoneCall      SessionSource = "phone_call"
	SourceDictation      SessionSource = "dictation"
)

// ValidSource reports whether s is a known recording source.
func ValidSource(s SessionSource) bool {
	switch s {
	case SourceInPerson, SourceVirtualMeeting, SourcePhoneCall, SourceDictation:
		return true
	}
	return false
}

// RecordingSession represents one recording and its processing outcome. The
// row is the durable checkpoint: every status/step change is persisted so a
// restart never leaves a session claiming an in-flight state it isn't in.
type RecordingSession struct {
	ID              uuid.UUID        `json:"id" gorm:"type:uuid;primary_key"`
	OwnerID         string           `json:"owner_id" gorm:"type:varchar(255);not null;index"`
	Title           string           `json:"title" gorm:"type:varchar(255);not null"`
	Date            time.Time        `json:"date" gorm:"not null;index"`
	DurationSeconds int              `json:"duration_seconds" gorm:"default:0"`
	Status          SessionStatus    `json:"status" gorm:"type:varchar(20);not null;index"`
	Step            *ProcessingStep  `json:"step,omitempty" gorm:"type:varchar(20)"`
	Source          SessionSource    `json:"source" gorm:"type:varchar(30);not null"`
	Analysis        *MeetingAnalysis `json:"analysis,omitempty" gorm:"type:jsonb;serializer:json"`
	Metadata        datatypes.JSON   `json:"metadata,omitempty" gorm:"type:jsonb;default:'{}'"`
	AudioObjectKey  string           `json:"audio_object_key,omitempty" gorm:"type:varchar(512)"`
	AudioMIMEType   string           `json:"audio_mime_type,omitempty" gorm:"type:varchar(100)"`
	ErrorMessage    *string          `json:"error_message,omitempty" gorm:"type:text"`
	CreatedAt       time.Time        `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt       time.Time        `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for RecordingSession
func (RecordingSession) TableName() string {
	return "recording_sessions"
}

// NewRecordingSession creates a session in the processing/transcribing state.
func NewRecordingSession(ownerID, title string, source SessionSource, durationSeconds int) *RecordingSession {
	step := StepTranscribing
	return &RecordingSession{
		ID:              uuid.New(),
		OwnerID:         ownerID,
		Title:           title,
		Date:            time.Now(),
		DurationSeconds: durationSeconds,
		Status:          SessionStatusProcessing,
		Step:            &step,
		Source:          source,
		CreatedAt:       time.Now(),
		UpdatedAt:       time.Now(),
	}
}

// IsProcessing reports whether the session is still in flight.
func (s *RecordingSession) IsProcessing() bool {
	return s.Status == SessionStatusProcessing
}

// IsTerminal reports whether the session reached a final state.
func (s *RecordingSession) IsTerminal() bool {
	return s.Status == SessionStatusCompleted || s.Status == SessionStatusError
}

// AdvanceStep moves the session to the next processing step. Steps only move
// forward; any other transition is rejected.
func (s *RecordingSession) AdvanceStep(step ProcessingStep) error {
	if !s.IsProcessing() {
		return ErrInvalidStateTransition
	}
	next, ok := stepOrder[step]
	if !ok {
		return ErrInvalidStateTransition
	}
	if s.Step != nil {
		if current, ok := stepOrder[*s.Step]; ok && next < current {
			return ErrInvalidStateTransition
		}
	}
	s.Step = &step
	s.UpdatedAt = time.Now()
	return nil
}

// AttachTranscript stores the reassembled transcript before analysis runs,
// so the text survives an analysis failure.
func (s *RecordingSession) AttachTranscript(transcript string) {
	if s.Analysis == nil {
		s.Analysis = &MeetingAnalysis{ActionPoints: []string{}}
	}
	s.Analysis.Transcript = transcript
	s.UpdatedAt = time.Now()
}

// Complete marks the session completed with its final analysis.
func (s *RecordingSession) Complete(analysis *MeetingAnalysis) error {
	if !s.IsProcessing() {
		return ErrInvalidStateTransition
	}
	s.Status = SessionStatusCompleted
	s.Step = nil
	s.Analysis = analysis
	s.ErrorMessage = nil
	s.UpdatedAt = time.Now()
	return nil
}

// Fail marks the session errored. A degraded analysis may be attached so an
// already-obtained transcript is never lost.
func (s *RecordingSession) Fail(message string, analysis *MeetingAnalysis) error {
	if !s.IsProcessing() {
		return ErrInvalidStateTransition
	}
	s.Status = SessionStatusError
	s.Step = nil
	s.ErrorMessage = &message
	if analysis.HasContent() {
		s.Analysis = analysis
	}
	s.UpdatedAt = time.Now()
	return nil
}

// Restart puts an errored session back at the start of processing so its
// capture can run through the pipeline again. Only errored sessions restart.
func (s *RecordingSession) Restart() error {
	if s.Status != SessionStatusError {
		return ErrInvalidStateTransition
	}
	step := StepTranscribing
	s.Status = SessionStatusProcessing
	s.Step = &step
	s.ErrorMessage = nil
	s.UpdatedAt = time.Now()
	return nil
}

// Rename updates the session title.
func (s *RecordingSession) Rename(title string) {
	s.Title = title
	s.UpdatedAt = time.Now()
}
