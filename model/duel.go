package model

import "time"

// Duel statuses.
const (
	DuelStatusPending   = "pending"
	DuelStatusActive    = "active"
	DuelStatusDeclined  = "declined"
	DuelStatusCompleted = "completed"
)

// Duel winners.
const (
	DuelWinnerChallenger = "challenger"
	DuelWinnerOpponent   = "opponent"
	DuelWinnerTie        = "tie"
)

// Duel metrics.
const (
	DuelMetricTotalReps    = "total_reps"
	DuelMetricWorkoutCount = "workout_count"
)

// Duel is a time-boxed 1v1 contest. Score columns are mutated only while
// Status is active and before ExpiresAt; both conditions are enforced in the
// UPDATE predicate, not by a prior read.
type Duel struct {
	ID          int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	ChallengerID int64 `gorm:"index:idx_duel_challenger;not null" json:"challenger_id"`
	OpponentID  int64  `gorm:"index:idx_duel_opponent;not null" json:"opponent_id"`

	ChallengeID string `gorm:"size:32;not null" json:"challenge_id"`
	Name        string `gorm:"size:128;not null" json:"name"`
	Exercise    string `gorm:"size:32;not null" json:"exercise"` // "any" = wildcard
	Metric      string `gorm:"size:16;not null" json:"metric"`

	Status          string `gorm:"size:16;default:pending;index:idx_duel_status" json:"status"`
	ChallengerScore int64  `gorm:"default:0" json:"challenger_score"`
	OpponentScore   int64  `gorm:"default:0" json:"opponent_score"`
	Winner          string `gorm:"size:16" json:"winner"` // challenger | opponent | tie

	ExpiresAt   *time.Time `json:"expires_at"` // set on accept
	CompletedAt *time.Time `json:"completed_at"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// ExpiredAt reports whether an active duel's window has closed at t.
func (d *Duel) ExpiredAt(t time.Time) bool {
	return d.ExpiresAt != nil && !t.Before(*d.ExpiresAt)
}

// Participant reports whether userID is one of the duel's two sides.
func (d *Duel) Participant(userID int64) bool {
	return d.ChallengerID == userID || d.OpponentID == userID
}
