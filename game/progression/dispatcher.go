package progression

import (
	"context"

	"github.com/fitforge/server/game/achievement"
	"github.com/fitforge/server/game/duel"
	"github.com/fitforge/server/game/quest"
	"github.com/fitforge/server/game/raid"
	"github.com/fitforge/server/model"
	"go.uber.org/zap"
)

// WorkoutResult aggregates everything one workout event triggered across the
// contest engines.
type WorkoutResult struct {
	Workout      *model.Workout        `json:"workout"`
	Level        int                   `json:"level"`
	LeveledUp    bool                  `json:"leveled_up"`
	Quests       []model.QuestInstance `json:"quests,omitempty"`
	Achievements []*achievement.Def    `json:"achievements,omitempty"`
	Duels        []model.Duel          `json:"duels,omitempty"`
	RaidDamage   int64                 `json:"raid_damage,omitempty"`
	Raid         *model.Raid           `json:"raid,omitempty"`
}

// Dispatcher fans a recorded workout out to every engine. Each engine
// decides independently whether the event is relevant; one engine failing
// does not stop the others.
type Dispatcher struct {
	prog         *Service
	quests       *quest.Engine
	achievements *achievement.Engine
	duels        *duel.Engine
	raids        *raid.Engine
	logger       *zap.Logger
}

// NewDispatcher wires the engines together.
func NewDispatcher(prog *Service, quests *quest.Engine, achievements *achievement.Engine, duels *duel.Engine, raids *raid.Engine, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		prog:         prog,
		quests:       quests,
		achievements: achievements,
		duels:        duels,
		raids:        raids,
		logger:       logger,
	}
}

// SubmitWorkout records the workout and feeds it to quests, duels, raids and
// achievements in that order. Achievements run last so they see the
// counters the other engines just bumped.
func (d *Dispatcher) SubmitWorkout(ctx context.Context, userID int64, exercise string, reps int) (*WorkoutResult, error) {
	before, err := d.prog.User(ctx, userID)
	if err != nil {
		return nil, err
	}

	w, err := d.prog.RecordWorkout(ctx, userID, exercise, reps)
	if err != nil {
		return nil, err
	}
	res := &WorkoutResult{Workout: w}

	if touched, err := d.quests.ProcessWorkout(ctx, w); err != nil {
		d.logger.Error("quest fan-out failed", zap.Int64("user_id", userID), zap.Error(err))
	} else {
		res.Quests = touched
	}

	if touched, err := d.duels.ProcessWorkout(ctx, w); err != nil {
		d.logger.Error("duel fan-out failed", zap.Int64("user_id", userID), zap.Error(err))
	} else {
		res.Duels = touched
	}

	snap, err := d.prog.Snapshot(ctx, userID)
	if err != nil {
		return res, err
	}
	res.Level = snap.Level

	if dmg, r, err := d.raids.ProcessWorkout(ctx, w, snap.Level); err != nil {
		d.logger.Error("raid fan-out failed", zap.Int64("user_id", userID), zap.Error(err))
	} else {
		res.RaidDamage = dmg
		res.Raid = r
	}

	// Re-snapshot: quest claims, duel settlements and raid victories above
	// may have moved counters achievements care about.
	snap, err = d.prog.Snapshot(ctx, userID)
	if err != nil {
		return res, err
	}
	res.Level = snap.Level
	res.LeveledUp = snap.Level > before.Level

	if unlocked, err := d.achievements.CheckAndUnlock(ctx, snap); err != nil {
		d.logger.Error("achievement fan-out failed", zap.Int64("user_id", userID), zap.Error(err))
	} else {
		res.Achievements = unlocked
	}
	return res, nil
}
