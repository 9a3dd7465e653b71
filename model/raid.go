package model

import (
	"time"

	"gorm.io/datatypes"
)

// Raid statuses.
const (
	RaidStatusActive    = "active"
	RaidStatusCompleted = "completed"
	RaidStatusAbandoned = "abandoned"
)

// DamageLogSize caps the recent-damage ring log stored on the raid row.
const DamageLogSize = 20

// Raid is one boss instance tied to a party. HPRemaining is decremented
// atomically; hp_total - Σ contributions.total_damage = hp_remaining holds
// under concurrent damage submissions.
type Raid struct {
	ID       int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	PartyID  int64  `gorm:"index:idx_raid_party;not null" json:"party_id"`
	BossID   string `gorm:"size:32;not null" json:"boss_id"`
	BossName string `gorm:"size:64;not null" json:"boss_name"`

	Status      string `gorm:"size:16;default:active;index:idx_raid_status" json:"status"`
	HPTotal     int64  `gorm:"not null" json:"hp_total"`
	HPRemaining int64  `gorm:"not null" json:"hp_remaining"`
	Victory     bool   `gorm:"default:false" json:"victory"`

	StartedBy  int64          `gorm:"not null" json:"started_by"`
	RewardTier string         `gorm:"size:16" json:"reward_tier"`
	DamageLog  datatypes.JSON `json:"damage_log"` // last DamageLogSize DamageEvent entries

	CompletedAt *time.Time `json:"completed_at"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// DamageEvent is one entry in the raid's recent-damage log.
type DamageEvent struct {
	UserID int64     `json:"user_id"`
	Damage int64     `json:"damage"`
	Source string    `json:"source"`
	At     time.Time `json:"at"`
}

// RaidContribution accumulates one participant's damage within one raid.
// Rows are zero-initialized at raid start so LogDamage can use pure
// atomic-increment updates.
type RaidContribution struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	RaidID      int64     `gorm:"uniqueIndex:idx_raid_contrib,priority:1;not null" json:"raid_id"`
	UserID      int64     `gorm:"uniqueIndex:idx_raid_contrib,priority:2;not null" json:"user_id"`
	TotalDamage int64     `gorm:"default:0" json:"total_damage"`
	TotalHits   int       `gorm:"default:0" json:"total_hits"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
