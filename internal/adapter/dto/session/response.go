package session

import (
	"time"

	"gorm.io/datatypes"

	"github.com/echoscribe-team/echoscribe/internal/domain/entities"
	"github.com/echoscribe-team/echoscribe/internal/usecase/dictation"
)

// SessionResponse is the wire shape of a recording session
type SessionResponse struct {
	ID              string                    `json:"id"`
	Title           string                    `json:"title"`
	Date            time.Time                 `json:"date"`
	DurationSeconds int                       `json:"duration_seconds"`
	Status          string                    `json:"status"`
	Step            string                    `json:"step,omitempty"`
	Source          string                    `json:"source"`
	Analysis        *entities.MeetingAnalysis `json:"analysis"`
	Metadata        datatypes.JSON            `json:"metadata,omitempty"`
	ErrorMessage    string                    `json:"error_message,omitempty"`
	CreatedAt       time.Time                 `json:"created_at"`
	UpdatedAt       time.Time                 `json:"updated_at"`
}

// FromEntity maps a session entity to its response shape
func FromEntity(s *entities.RecordingSession) SessionResponse {
	resp := SessionResponse{
		ID:              s.ID.String(),
		Title:           s.Title,
		Date:            s.Date,
		DurationSeconds: s.DurationSeconds,
		Status:          string(s.Status),
		Source:          string(s.Source),
		Analysis:        s.Analysis,
		Metadata:        s.Metadata,
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       s.UpdatedAt,
	}
	if s.Step != nil {
		resp.Step = string(*s.Step)
	}
	if s.ErrorMessage != nil {
		resp.ErrorMessage = *s.ErrorMessage
	}
	return resp
}

// ListResponse is a page of sessions
type ListResponse struct {
	Sessions []SessionResponse `json:"sessions"`
	Total    int64             `json:"total"`
}

// ActionItemStateResponse is one action point's completion state
type ActionItemStateResponse struct {
	ItemIndex int  `json:"item_index"`
	Done      bool `json:"done"`
}

// DictationResponse is the wire shape of a live dictation session
type DictationResponse struct {
	ID         string    `json:"id"`
	State      string    `json:"state"`
	Transcript string    `json:"transcript"`
	StartedAt  time.Time `json:"started_at"`
}

// FromSnapshot maps a dictation snapshot to its response shape
func FromSnapshot(s dictation.Snapshot) DictationResponse {
	return DictationResponse{
		ID:         s.ID.String(),
		State:      string(s.State),
		Transcript: s.Transcript,
		StartedAt:  s.StartedAt,
	}
}
