package entities

import (
	"time"

	"github.com/google/uuid"
)

// ActionItemState tracks per-user completion of one action point. Items are
// addressed by their index inside the session's analysis, keyed by
// (session, owner, index) so completion state is never a global namespace.
type ActionItemState struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	SessionID uuid.UUID `json:"session_id" gorm:"type:uuid;not null;uniqueIndex:idx_action_item_identity"`
	OwnerID   string    `json:"owner_id" gorm:"type:varchar(255);not null;uniqueIndex:idx_action_item_identity"`
	ItemIndex int       `json:"item_index" gorm:"not null;uniqueIndex:idx_action_item_identity"`
	Done      bool      `json:"done" gorm:"default:false"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for ActionItemState
func (ActionItemState) TableName() string {
	return "action_item_states"
}

// NewActionItemState creates a completion record for one action point.
func NewActionItemState(sessionID uuid.UUID, ownerID string, itemIndex int, done bool) *ActionItemState {
	return &ActionItemState{
		ID:        uuid.New(),
		SessionID: sessionID,
		OwnerID:   ownerID,
		ItemIndex: itemIndex,
		Done:      done,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}
