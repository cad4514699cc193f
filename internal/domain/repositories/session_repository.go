package repositories

import (
	"context"

	"github.com/google/uuid"

	"github.com/echoscribe-team/echoscribe/internal/domain/entities"
)

// SessionRepository defines the interface for recording session data access.
// Save is an upsert: the pipeline checkpoints the same row many times.
type SessionRepository interface {
	// Save inserts the session or updates it in place
	Save(ctx context.Context, session *entities.RecordingSession) error

	// FindByID retrieves a session scoped to its owner
	FindByID(ctx context.Context, ownerID string, id uuid.UUID) (*entities.RecordingSession, error)

	// List retrieves an owner's sessions with filters and pagination
	List(ctx context.Context, ownerID string, filters SessionFilters) ([]*entities.RecordingSession, int64, error)

	// Delete removes a session and its action item states
	Delete(ctx context.Context, ownerID string, id uuid.UUID) error
}

// SessionFilters represents filter options for listing sessions
type SessionFilters struct {
	Status *entities.SessionStatus
	Source *entities.SessionSource
	Limit  int
	Offset int
}

// ActionItemRepository defines the interface for per-user action item
// completion state, keyed by (session, owner, item index).
type ActionItemRepository interface {
	// SetDone upserts the completion state for one action point
	SetDone(ctx context.Context, state *entities.ActionItemState) error

	// FindBySession retrieves all completion states for a session
	FindBySession(ctx context.Context, ownerID string, sessionID uuid.UUID) ([]*entities.ActionItemState, error)

	// DeleteBySession removes all completion states for a session
	DeleteBySession(ctx context.Context, sessionID uuid.UUID) error
}
