package model

import "time"

// AchievementUnlock records a one-time achievement unlock. The row's
// existence is the unlocked signal; there is no separate boolean.
type AchievementUnlock struct {
	ID            int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID        int64     `gorm:"uniqueIndex:idx_achievement_user,priority:1;not null" json:"user_id"`
	AchievementID string    `gorm:"uniqueIndex:idx_achievement_user,priority:2;size:48;not null" json:"achievement_id"`
	XPAwarded     int       `gorm:"not null" json:"xp_awarded"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
}
