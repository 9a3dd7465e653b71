package achievement

import (
	"fmt"

	"github.com/fitforge/server/model"
)

// Def is a static achievement definition. Check evaluates a stats snapshot;
// Current reports how far along the user is toward Target.
type Def struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
	XPReward    int    `json:"xp_reward"`
	Target      int64  `json:"target"`

	Check   func(model.StatsSnapshot) bool  `json:"-"`
	Current func(model.StatsSnapshot) int64 `json:"-"`
}

// thresholdDefs builds a ladder of achievements over one counter.
func thresholdDefs(category, idPrefix, nameFmt, descFmt string, xpBase int, current func(model.StatsSnapshot) int64, thresholds ...int64) []*Def {
	defs := make([]*Def, 0, len(thresholds))
	for i, th := range thresholds {
		th := th
		defs = append(defs, &Def{
			ID:          fmt.Sprintf("%s_%d", idPrefix, th),
			Name:        fmt.Sprintf(nameFmt, th),
			Description: fmt.Sprintf(descFmt, th),
			Category:    category,
			XPReward:    xpBase * (i + 1),
			Target:      th,
			Check:       func(s model.StatsSnapshot) bool { return current(s) >= th },
			Current:     current,
		})
	}
	return defs
}

// Registry returns the full achievement catalog.
func Registry() []*Def {
	var defs []*Def

	defs = append(defs, thresholdDefs("workouts", "workouts", "Workouts x%d", "Log %d workouts", 25,
		func(s model.StatsSnapshot) int64 { return int64(s.TotalWorkouts) },
		1, 10, 50, 100, 500)...)

	defs = append(defs, thresholdDefs("reps", "reps", "%d Total Reps", "Accumulate %d lifetime reps", 30,
		func(s model.StatsSnapshot) int64 { return s.TotalReps },
		100, 1000, 10000, 100000)...)

	defs = append(defs, thresholdDefs("streak", "streak", "%d-Day Streak", "Work out %d days in a row", 50,
		func(s model.StatsSnapshot) int64 { return int64(s.BestStreak) },
		3, 7, 30, 100)...)

	defs = append(defs, thresholdDefs("level", "level", "Level %d", "Reach level %d", 40,
		func(s model.StatsSnapshot) int64 { return int64(s.Level) },
		5, 10, 25, 50)...)

	defs = append(defs, thresholdDefs("duels", "duel_wins", "Duelist x%d", "Win %d duels", 60,
		func(s model.StatsSnapshot) int64 { return int64(s.DuelWins) },
		1, 10, 50)...)

	defs = append(defs, thresholdDefs("raids", "raid_damage", "%d Raid Damage", "Deal %d total raid damage", 40,
		func(s model.StatsSnapshot) int64 { return s.RaidDamage },
		1000, 10000, 100000)...)

	defs = append(defs, thresholdDefs("raids", "raids_won", "Boss Slayer x%d", "Win %d raids", 75,
		func(s model.StatsSnapshot) int64 { return int64(s.RaidsWon) },
		1, 5, 25)...)

	defs = append(defs, thresholdDefs("quests", "quests", "Quests x%d", "Complete %d quests", 30,
		func(s model.StatsSnapshot) int64 { return int64(s.QuestsCompleted) },
		10, 50, 100)...)

	defs = append(defs, thresholdDefs("items", "items", "Collector x%d", "Collect %d items", 30,
		func(s model.StatsSnapshot) int64 { return int64(s.ItemsCollected) },
		10, 50, 200)...)

	return defs
}
