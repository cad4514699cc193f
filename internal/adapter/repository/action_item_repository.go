package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/echoscribe-team/echoscribe/internal/domain/entities"
	"github.com/echoscribe-team/echoscribe/internal/domain/repositories"
)

// actionItemRepository implements the ActionItemRepository interface
type actionItemRepository struct {
	db *gorm.DB
}

// NewActionItemRepository creates a new action item state repository
func NewActionItemRepository(db *gorm.DB) repositories.ActionItemRepository {
	return &actionItemRepository{db: db}
}

// SetDone upserts the completion state for one action point
func (r *actionItemRepository) SetDone(ctx context.Context, state *entities.ActionItemState) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "session_id"}, {Name: "owner_id"}, {Name: "item_index"}},
			DoUpdates: clause.AssignmentColumns([]string{"done", "updated_at"}),
		}).
		Create(state).Error
}

// FindBySession retrieves all completion states for a session
func (r *actionItemRepository) FindBySession(ctx context.Context, ownerID string, sessionID uuid.UUID) ([]*entities.ActionItemState, error) {
	var states []*entities.ActionItemState
	err := r.db.WithContext(ctx).
		Where("session_id = ? AND owner_id = ?", sessionID, ownerID).
		Order("item_index ASC").
		Find(&states).Error

	if err != nil {
		return nil, err
	}
	return states, nil
}

// DeleteBySession removes all completion states for a session
func (r *actionItemRepository) DeleteBySession(ctx context.Context, sessionID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Delete(&entities.ActionItemState{}).Error
}
