package catalog

import "time"

// Rarity tier names, in ascending rank order.
const (
	RarityCommon    = "common"
	RarityUncommon  = "uncommon"
	RarityRare      = "rare"
	RarityEpic      = "epic"
	RarityLegendary = "legendary"
	RarityMythic    = "mythic"
)

// Equipment slots.
const (
	SlotWeapon    = "weapon"
	SlotHead      = "head"
	SlotChest     = "chest"
	SlotLegs      = "legs"
	SlotHands     = "hands"
	SlotFeet      = "feet"
	SlotAccessory = "accessory"
)

// RarityDef defines one rarity tier: its selection weight, its stat
// multiplier and its rank (index in ascending order).
type RarityDef struct {
	Name       string  `json:"name"`
	Weight     int     `json:"weight"`
	Multiplier float64 `json:"multiplier"`
	Rank       int     `json:"rank"`
}

// ItemTemplate is a static item definition. Generated item stats start from
// BaseStats and are scaled at generation time only.
type ItemTemplate struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Slot      string         `json:"slot"`
	BaseStats map[string]int `json:"base_stats"` // strength / endurance / agility
}

// TraitDef is an optional item modifier. StatBonus values are proportional
// (0.10 = +10%) and are applied on top of the rarity-scaled stats.
type TraitDef struct {
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	Weight    int                `json:"weight"`
	StatBonus map[string]float64 `json:"stat_bonus"`
	XPBonus   int                `json:"xp_bonus"`
	Prefix    string             `json:"prefix"`
	Suffix    string             `json:"suffix"`
}

// BossDef is a static raid boss definition. Scaled HP for a party of n is
// BaseHP + HPPerMember*n.
type BossDef struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	BaseHP      int64  `json:"base_hp"`
	HPPerMember int64  `json:"hp_per_member"`
	MinMembers  int    `json:"min_members"`
	MaxMembers  int    `json:"max_members"`
	RewardTier  string `json:"reward_tier"`
	XPReward    int    `json:"xp_reward"`
}

// ExerciseAny is the wildcard exercise: any workout counts.
const ExerciseAny = "any"

// ChallengeDef is a named duel contest definition.
type ChallengeDef struct {
	ID       string        `json:"id"`
	Name     string        `json:"name"`
	Exercise string        `json:"exercise"` // "any" = wildcard
	Metric   string        `json:"metric"`   // total_reps | workout_count
	Duration time.Duration `json:"duration"`
}

// QuestTemplate is a static quest definition. Targets holds one value per
// level band; the instance resolves the band matching the user's level.
type QuestTemplate struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Type     string `json:"type"`   // daily | weekly | milestone | special
	Metric   string `json:"metric"` // workout_count | total_reps | exercise_reps
	Exercise string `json:"exercise,omitempty"`
	Targets  []int  `json:"targets"` // indexed by level band
	XPReward int    `json:"xp_reward"`
	ItemTier string `json:"item_tier,omitempty"` // empty = XP only
}

// LevelBand maps a user level to an index into QuestTemplate.Targets.
func LevelBand(level int) int {
	switch {
	case level <= 10:
		return 0
	case level <= 20:
		return 1
	case level <= 35:
		return 2
	default:
		return 3
	}
}
