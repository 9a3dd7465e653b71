package catalog

import "time"

// Compiled-in catalogs. A JSON file in the data dir with the matching name
// replaces the corresponding slice wholesale.

func defaultRarities() []RarityDef {
	return []RarityDef{
		{Name: RarityCommon, Weight: 55, Multiplier: 1.0, Rank: 0},
		{Name: RarityUncommon, Weight: 25, Multiplier: 1.25, Rank: 1},
		{Name: RarityRare, Weight: 12, Multiplier: 1.6, Rank: 2},
		{Name: RarityEpic, Weight: 5, Multiplier: 2.1, Rank: 3},
		{Name: RarityLegendary, Weight: 2, Multiplier: 2.8, Rank: 4},
		{Name: RarityMythic, Weight: 1, Multiplier: 3.75, Rank: 5},
	}
}

func defaultTemplates() []*ItemTemplate {
	return []*ItemTemplate{
		{ID: "sword", Name: "Sword", Slot: SlotWeapon, BaseStats: map[string]int{"strength": 10, "endurance": 2, "agility": 4}},
		{ID: "warhammer", Name: "Warhammer", Slot: SlotWeapon, BaseStats: map[string]int{"strength": 14, "endurance": 4}},
		{ID: "battle_rope", Name: "Battle Rope", Slot: SlotWeapon, BaseStats: map[string]int{"strength": 6, "endurance": 8, "agility": 2}},
		{ID: "helm", Name: "Helm", Slot: SlotHead, BaseStats: map[string]int{"endurance": 6, "strength": 2}},
		{ID: "headband", Name: "Headband", Slot: SlotHead, BaseStats: map[string]int{"agility": 6, "endurance": 2}},
		{ID: "breastplate", Name: "Breastplate", Slot: SlotChest, BaseStats: map[string]int{"endurance": 10, "strength": 4}},
		{ID: "training_vest", Name: "Training Vest", Slot: SlotChest, BaseStats: map[string]int{"endurance": 6, "agility": 6}},
		{ID: "greaves", Name: "Greaves", Slot: SlotLegs, BaseStats: map[string]int{"strength": 6, "endurance": 6}},
		{ID: "runner_shorts", Name: "Runner's Shorts", Slot: SlotLegs, BaseStats: map[string]int{"agility": 10}},
		{ID: "gauntlets", Name: "Gauntlets", Slot: SlotHands, BaseStats: map[string]int{"strength": 8}},
		{ID: "grip_wraps", Name: "Grip Wraps", Slot: SlotHands, BaseStats: map[string]int{"strength": 4, "agility": 4}},
		{ID: "sabatons", Name: "Sabatons", Slot: SlotFeet, BaseStats: map[string]int{"endurance": 8, "strength": 2}},
		{ID: "sprint_shoes", Name: "Sprint Shoes", Slot: SlotFeet, BaseStats: map[string]int{"agility": 8, "endurance": 2}},
		{ID: "amulet", Name: "Amulet", Slot: SlotAccessory, BaseStats: map[string]int{"strength": 3, "endurance": 3, "agility": 3}},
		{ID: "lifting_belt", Name: "Lifting Belt", Slot: SlotAccessory, BaseStats: map[string]int{"strength": 6, "endurance": 3}},
	}
}

func defaultTraits() []*TraitDef {
	return []*TraitDef{
		{ID: "mighty", Name: "Mighty", Weight: 20, StatBonus: map[string]float64{"strength": 0.15}, Prefix: "Mighty"},
		{ID: "tireless", Name: "Tireless", Weight: 20, StatBonus: map[string]float64{"endurance": 0.15}, Prefix: "Tireless"},
		{ID: "swift", Name: "Swift", Weight: 20, StatBonus: map[string]float64{"agility": 0.15}, Prefix: "Swift"},
		{ID: "balanced", Name: "Balanced", Weight: 12, StatBonus: map[string]float64{"strength": 0.07, "endurance": 0.07, "agility": 0.07}, Suffix: "of Balance"},
		{ID: "vampiric", Name: "Vampiric", Weight: 8, StatBonus: map[string]float64{"strength": 0.10, "endurance": 0.05}, Suffix: "of the Leech"},
		{ID: "scholarly", Name: "Scholarly", Weight: 10, XPBonus: 10, Suffix: "of Insight"},
		{ID: "titanic", Name: "Titanic", Weight: 5, StatBonus: map[string]float64{"strength": 0.25}, Prefix: "Titanic"},
		{ID: "everlasting", Name: "Everlasting", Weight: 5, StatBonus: map[string]float64{"endurance": 0.25}, Suffix: "of Ages"},
	}
}

func defaultVariants() []string {
	return []string{
		"worn", "plain", "sturdy", "polished", "engraved",
		"gilded", "runed", "radiant", "stormforged", "celestial",
	}
}

func defaultMaterials() []string {
	return []string{
		"iron", "bronze", "steel", "silver", "obsidian",
		"mithril", "dragonbone", "starmetal", "voidglass",
	}
}

func defaultBosses() []*BossDef {
	return []*BossDef{
		{ID: "slouch_fiend", Name: "The Slouch Fiend", Description: "A hunched horror that feeds on skipped sessions.",
			BaseHP: 500, HPPerMember: 250, MinMembers: 1, MaxMembers: 3, RewardTier: RarityRare, XPReward: 150},
		{ID: "iron_colossus", Name: "Iron Colossus", Description: "A walking wall of plates and chains.",
			BaseHP: 1500, HPPerMember: 500, MinMembers: 2, MaxMembers: 5, RewardTier: RarityEpic, XPReward: 400},
		{ID: "cardio_wyrm", Name: "Cardio Wyrm", Description: "It only tires when you do.",
			BaseHP: 3000, HPPerMember: 800, MinMembers: 3, MaxMembers: 5, RewardTier: RarityLegendary, XPReward: 900},
	}
}

func defaultChallenges() []*ChallengeDef {
	return []*ChallengeDef{
		{ID: "pushup_sprint", Name: "Push-up Sprint", Exercise: "pushup", Metric: "total_reps", Duration: 24 * time.Hour},
		{ID: "squat_showdown", Name: "Squat Showdown", Exercise: "squat", Metric: "total_reps", Duration: 24 * time.Hour},
		{ID: "iron_week", Name: "Iron Week", Exercise: "any", Metric: "total_reps", Duration: 7 * 24 * time.Hour},
		{ID: "consistency_clash", Name: "Consistency Clash", Exercise: "any", Metric: "workout_count", Duration: 7 * 24 * time.Hour},
	}
}

func defaultQuestTemplates() []*QuestTemplate {
	return []*QuestTemplate{
		// Daily
		{ID: "daily_show_up", Name: "Show Up", Type: "daily", Metric: "workout_count", Targets: []int{1, 1, 2, 2}, XPReward: 50},
		{ID: "daily_volume", Name: "Volume Work", Type: "daily", Metric: "total_reps", Targets: []int{50, 100, 150, 250}, XPReward: 80},
		{ID: "daily_pushups", Name: "Push-up Patrol", Type: "daily", Metric: "exercise_reps", Exercise: "pushup", Targets: []int{20, 40, 60, 100}, XPReward: 70},
		{ID: "daily_squats", Name: "Leg Day Levy", Type: "daily", Metric: "exercise_reps", Exercise: "squat", Targets: []int{20, 40, 60, 100}, XPReward: 70},
		{ID: "daily_situps", Name: "Core Duty", Type: "daily", Metric: "exercise_reps", Exercise: "situp", Targets: []int{20, 40, 60, 100}, XPReward: 70},
		// Weekly
		{ID: "weekly_grind", Name: "The Grind", Type: "weekly", Metric: "workout_count", Targets: []int{4, 5, 6, 7}, XPReward: 250, ItemTier: RarityUncommon},
		{ID: "weekly_mountain", Name: "Rep Mountain", Type: "weekly", Metric: "total_reps", Targets: []int{400, 700, 1000, 1500}, XPReward: 350, ItemTier: RarityRare},
		{ID: "weekly_pullups", Name: "Pull Your Weight", Type: "weekly", Metric: "exercise_reps", Exercise: "pullup", Targets: []int{30, 60, 100, 160}, XPReward: 300, ItemTier: RarityRare},
		// Milestone
		{ID: "milestone_1k", Name: "Thousand Club", Type: "milestone", Metric: "total_reps", Targets: []int{1000, 1000, 1000, 1000}, XPReward: 500, ItemTier: RarityEpic},
	}
}

func defaultExerciseDamage() map[string]int {
	return map[string]int{
		"pushup":   2,
		"situp":    2,
		"squat":    3,
		"pullup":   5,
		"burpee":   6,
		"deadlift": 8,
	}
}

// DefaultExerciseBaseDamage is used for exercises absent from the table.
const DefaultExerciseBaseDamage = 1
