package model

import "time"

// Workout is one logged workout event, the single input signal fanned out
// to the quest/achievement/duel/raid engines.
type Workout struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    int64     `gorm:"index:idx_workout_user;not null" json:"user_id"`
	Exercise  string    `gorm:"size:32;not null" json:"exercise"`
	Reps      int       `gorm:"not null" json:"reps"`
	XPAwarded int       `gorm:"default:0" json:"xp_awarded"`
	CreatedAt time.Time `gorm:"index:idx_workout_created;autoCreateTime" json:"created_at"`
}
