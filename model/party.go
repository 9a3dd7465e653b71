package model

import "time"

// Party is a persistent group of users; raids are run against a party.
type Party struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"size:64;not null" json:"name"`
	OwnerID   int64     `gorm:"not null" json:"owner_id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// PartyMember links a user to a party. The unique index on user_id keeps a
// user in at most one party.
type PartyMember struct {
	ID       int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	PartyID  int64     `gorm:"index:idx_party_members;not null" json:"party_id"`
	UserID   int64     `gorm:"uniqueIndex:idx_party_user;not null" json:"user_id"`
	JoinedAt time.Time `gorm:"autoCreateTime" json:"joined_at"`
}
