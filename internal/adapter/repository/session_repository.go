package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/echoscribe-team/echoscribe/internal/domain/entities"
	"github.com/echoscribe-team/echoscribe/internal/domain/repositories"
)

// sessionRepository implements the SessionRepository interface
type sessionRepository struct {
	db *gorm.DB
}

// NewSessionRepository creates a new recording session repository
func NewSessionRepository(db *gorm.DB) repositories.SessionRepository {
	return &sessionRepository{db: db}
}

// Save inserts the session or updates it in place. The pipeline calls this
// on every checkpoint, so it must be an upsert rather than a bare insert.
func (r *sessionRepository) Save(ctx context.Context, session *entities.RecordingSession) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"title", "date", "duration_seconds", "status", "step",
				"analysis", "metadata", "audio_object_key", "audio_mime_type",
				"error_message", "updated_at",
			}),
		}).
		Create(session).Error
}

// FindByID retrieves a session scoped to its owner
func (r *sessionRepository) FindByID(ctx context.Context, ownerID string, id uuid.UUID) (*entities.RecordingSession, error) {
	var session entities.RecordingSession
	err := r.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		First(&session).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, entities.ErrSessionNotFound
		}
		return nil, err
	}
	return &session, nil
}

// List retrieves an owner's sessions with filters and pagination
func (r *sessionRepository) List(ctx context.Context, ownerID string, filters repositories.SessionFilters) ([]*entities.RecordingSession, int64, error) {
	var sessions []*entities.RecordingSession
	var total int64

	query := r.db.WithContext(ctx).
		Model(&entities.RecordingSession{}).
		Where("owner_id = ?", ownerID)

	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.Source != nil {
		query = query.Where("source = ?", *filters.Source)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	err := query.Order("date DESC").Find(&sessions).Error
	if err != nil {
		return nil, 0, err
	}
	return sessions, total, nil
}

// Delete removes a session and its action item states
func (r *sessionRepository) Delete(ctx context.Context, ownerID string, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("id = ? AND owner_id = ?", id, ownerID).
			Delete(&entities.RecordingSession{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return entities.ErrSessionNotFound
		}
		return tx.Where("session_id = ?", id).
			Delete(&entities.ActionItemState{}).Error
	})
}
