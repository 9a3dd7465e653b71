package model

import (
	"time"

	"gorm.io/datatypes"
)

// Item is a generated reward. Stats are computed once at generation time
// and never recomputed; only Equipped/Salvaged may change afterwards.
type Item struct {
	ID         string         `gorm:"primaryKey;size:36" json:"id"`
	OwnerID    int64          `gorm:"index:idx_item_owner;not null" json:"owner_id"`
	TemplateID string         `gorm:"size:32;not null" json:"template_id"`
	Name       string         `gorm:"size:128;not null" json:"name"`
	Slot       string         `gorm:"size:16;not null" json:"slot"`
	Rarity     string         `gorm:"size:16;not null" json:"rarity"`
	Stats      datatypes.JSON `json:"stats"`  // {"strength": 12, "endurance": 4, "agility": 0}
	Traits     datatypes.JSON `json:"traits"` // ["vampiric", "swift"]
	Variant    string         `gorm:"size:32" json:"variant"`
	Material   string         `gorm:"size:32" json:"material"`
	Source     string         `gorm:"size:16;not null" json:"source"`
	Equipped   bool           `gorm:"default:false" json:"equipped"`
	Salvaged   bool           `gorm:"default:false" json:"salvaged"`
	CreatedAt  time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}
