package achievement

import (
	"context"
	"fmt"

	"github.com/fitforge/server/activity"
	"github.com/fitforge/server/apperr"
	"github.com/fitforge/server/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// XPGranter grants XP to a user. Implemented by progression.Service.
type XPGranter interface {
	GrantXP(ctx context.Context, userID int64, amount int, reason string) (int, bool, error)
}

// Engine evaluates the achievement registry against stats snapshots and
// records one-time unlocks.
type Engine struct {
	db     *gorm.DB
	defs   []*Def
	byID   map[string]*Def
	xp     XPGranter
	feed   *activity.Sink
	logger *zap.Logger
}

// NewEngine creates an Engine over the built-in registry.
func NewEngine(db *gorm.DB, xp XPGranter, feed *activity.Sink, logger *zap.Logger) *Engine {
	defs := Registry()
	byID := make(map[string]*Def, len(defs))
	for _, d := range defs {
		byID[d.ID] = d
	}
	return &Engine{db: db, defs: defs, byID: byID, xp: xp, feed: feed, logger: logger}
}

// Defs returns the registry.
func (e *Engine) Defs() []*Def { return e.defs }

// CheckAndUnlock evaluates every definition against the snapshot and unlocks
// whatever newly qualifies. Re-running with the same snapshot is a no-op; the
// unique index on (user_id, achievement_id) absorbs races.
func (e *Engine) CheckAndUnlock(ctx context.Context, snap model.StatsSnapshot) ([]*Def, error) {
	existing, err := e.unlockedIDs(ctx, snap.UserID)
	if err != nil {
		return nil, err
	}

	var unlocked []*Def
	for _, d := range e.defs {
		if existing[d.ID] || !d.Check(snap) {
			continue
		}
		res := e.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).
			Create(&model.AchievementUnlock{
				UserID:        snap.UserID,
				AchievementID: d.ID,
				XPAwarded:     d.XPReward,
			})
		if res.Error != nil {
			return unlocked, res.Error
		}
		if res.RowsAffected == 0 {
			continue // lost the race, someone else unlocked it
		}

		if _, _, err := e.xp.GrantXP(ctx, snap.UserID, d.XPReward, "achievement:"+d.ID); err != nil {
			return unlocked, err
		}
		if e.feed != nil {
			uid := snap.UserID
			e.feed.Record(activity.Entry{
				UserID:  &uid,
				Type:    activity.TypeAchievement,
				Message: fmt.Sprintf("unlocked %q", d.Name),
				Meta:    map[string]string{"achievement_id": d.ID},
			})
		}
		e.logger.Info("achievement unlocked",
			zap.Int64("user_id", snap.UserID),
			zap.String("achievement_id", d.ID))
		unlocked = append(unlocked, d)
	}
	return unlocked, nil
}

func (e *Engine) unlockedIDs(ctx context.Context, userID int64) (map[string]bool, error) {
	var rows []model.AchievementUnlock
	if err := e.db.WithContext(ctx).Where("user_id = ?", userID).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string]bool, len(rows))
	for _, r := range rows {
		out[r.AchievementID] = true
	}
	return out, nil
}

// Status is one achievement's state for a user.
type Status struct {
	Def      *Def  `json:"def"`
	Unlocked bool  `json:"unlocked"`
	Current  int64 `json:"current"`
	Percent  int   `json:"percent"`
}

// Progress returns every achievement with the user's completion percentage.
func (e *Engine) Progress(ctx context.Context, snap model.StatsSnapshot) ([]Status, error) {
	existing, err := e.unlockedIDs(ctx, snap.UserID)
	if err != nil {
		return nil, err
	}
	out := make([]Status, 0, len(e.defs))
	for _, d := range e.defs {
		cur := d.Current(snap)
		pct := 100
		if !existing[d.ID] {
			if cur > d.Target {
				cur = d.Target
			}
			pct = int(cur * 100 / d.Target)
		}
		out = append(out, Status{Def: d, Unlocked: existing[d.ID], Current: cur, Percent: pct})
	}
	return out, nil
}

// Get returns one definition by ID.
func (e *Engine) Get(id string) (*Def, error) {
	d, ok := e.byID[id]
	if !ok {
		return nil, apperr.NotFound("achievement %s not found", id)
	}
	return d, nil
}
