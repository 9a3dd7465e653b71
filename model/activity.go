package model

import (
	"time"

	"gorm.io/datatypes"
)

// ActivityLog is one human-readable feed entry (quest completed, duel won,
// raid victory, ...). Written asynchronously; not required for correctness.
type ActivityLog struct {
	ID        int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    *int64         `gorm:"index:idx_activity_user" json:"user_id"`
	Type      string         `gorm:"size:32;not null" json:"type"`
	Message   string         `gorm:"size:256;not null" json:"message"`
	Meta      datatypes.JSON `json:"meta"`
	CreatedAt time.Time      `gorm:"index:idx_activity_created;autoCreateTime:milli" json:"created_at"`
}
