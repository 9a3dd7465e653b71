package model

import "time"

// Quest types.
const (
	QuestTypeDaily     = "daily"
	QuestTypeWeekly    = "weekly"
	QuestTypeMilestone = "milestone"
	QuestTypeSpecial   = "special"
)

// Quest metrics (what a workout event counts against).
const (
	QuestMetricWorkoutCount = "workout_count"
	QuestMetricTotalReps    = "total_reps"
	QuestMetricExerciseReps = "exercise_reps"
)

// QuestInstance is one user's time-scoped realization of a quest template.
// Progress is monotonically non-decreasing; Claimed flips at most once and
// only after Completed.
type QuestInstance struct {
	ID         int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID     int64  `gorm:"index:idx_quest_user;not null" json:"user_id"`
	TemplateID string `gorm:"size:32;not null" json:"template_id"`
	Type       string `gorm:"size:16;not null" json:"type"`
	Name       string `gorm:"size:128;not null" json:"name"`
	Metric     string `gorm:"size:16;not null" json:"metric"`
	Exercise   string `gorm:"size:32" json:"exercise"` // only for exercise_reps

	Target    int  `gorm:"not null" json:"target"`
	Progress  int  `gorm:"default:0" json:"progress"`
	Completed bool `gorm:"default:false" json:"completed"`
	Claimed   bool `gorm:"default:false" json:"claimed"`

	XPReward int    `gorm:"not null" json:"xp_reward"`
	ItemTier string `gorm:"size:16" json:"item_tier"` // empty = XP only

	ExpiresAt   *time.Time `json:"expires_at"` // nil for milestone/special
	CompletedAt *time.Time `json:"completed_at"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// Expired reports whether the instance's window has closed at t.
func (q *QuestInstance) Expired(t time.Time) bool {
	return q.ExpiresAt != nil && !t.Before(*q.ExpiresAt)
}
