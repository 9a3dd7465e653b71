package model

import "time"

// UserStatus values for User.Status.
const (
	UserStatusBanned = 0
	UserStatusActive = 1
)

// User is an account plus its progression profile. Lifetime counters are
// denormalized here so achievement checks read one row.
type User struct {
	ID           int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string `gorm:"uniqueIndex;size:32;not null" json:"username"`
	PasswordHash string `gorm:"size:72;not null" json:"-"`
	Status       int    `gorm:"default:1" json:"status"`

	Level int   `gorm:"default:1" json:"level"`
	XP    int64 `gorm:"default:0" json:"xp"`

	TotalWorkouts  int        `gorm:"default:0" json:"total_workouts"`
	TotalReps      int64      `gorm:"default:0" json:"total_reps"`
	StreakDays     int        `gorm:"default:0" json:"streak_days"`
	BestStreak     int        `gorm:"default:0" json:"best_streak"`
	LastWorkoutDay *time.Time `json:"last_workout_day"`

	DuelWins        int   `gorm:"default:0" json:"duel_wins"`
	DuelLosses      int   `gorm:"default:0" json:"duel_losses"`
	RaidDamage      int64 `gorm:"default:0" json:"raid_damage"`
	RaidsWon        int   `gorm:"default:0" json:"raids_won"`
	QuestsCompleted int   `gorm:"default:0" json:"quests_completed"`
	ItemsCollected  int   `gorm:"default:0" json:"items_collected"`

	LastLoginAt *time.Time `json:"last_login_at"`
	LastLoginIP string     `gorm:"size:45" json:"-"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}
