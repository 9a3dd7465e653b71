package model

// StatsSnapshot is a point-in-time view of a user's cumulative stats, the
// input to achievement trigger evaluation.
type StatsSnapshot struct {
	UserID          int64 `json:"user_id"`
	Level           int   `json:"level"`
	XP              int64 `json:"xp"`
	TotalWorkouts   int   `json:"total_workouts"`
	TotalReps       int64 `json:"total_reps"`
	StreakDays      int   `json:"streak_days"`
	BestStreak      int   `json:"best_streak"`
	DuelWins        int   `json:"duel_wins"`
	RaidDamage      int64 `json:"raid_damage"`
	RaidsWon        int   `json:"raids_won"`
	QuestsCompleted int   `json:"quests_completed"`
	ItemsCollected  int   `json:"items_collected"`
}

// Snapshot copies the user's cumulative counters.
func (u *User) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		UserID:          u.ID,
		Level:           u.Level,
		XP:              u.XP,
		TotalWorkouts:   u.TotalWorkouts,
		TotalReps:       u.TotalReps,
		StreakDays:      u.StreakDays,
		BestStreak:      u.BestStreak,
		DuelWins:        u.DuelWins,
		RaidDamage:      u.RaidDamage,
		RaidsWon:        u.RaidsWon,
		QuestsCompleted: u.QuestsCompleted,
		ItemsCollected:  u.ItemsCollected,
	}
}
