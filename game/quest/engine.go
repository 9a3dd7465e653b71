package quest

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/fitforge/server/apperr"
	"github.com/fitforge/server/catalog"
	"github.com/fitforge/server/config"
	"github.com/fitforge/server/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// XPGranter grants XP to a user. Implemented by progression.Service.
type XPGranter interface {
	GrantXP(ctx context.Context, userID int64, amount int, reason string) (int, bool, error)
}

// ItemAwarder mints quest reward items. Implemented by item.Service.
type ItemAwarder interface {
	AwardQuestItems(ctx context.Context, userID int64, tier string) ([]*model.Item, error)
}

// Engine assigns daily/weekly quest instances, tracks progress from workout
// events and pays out claims.
type Engine struct {
	db     *gorm.DB
	cat    *catalog.Loader
	xp     XPGranter
	items  ItemAwarder
	cfg    config.ProgressionConfig
	logger *zap.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// NewEngine creates a quest Engine with its own RNG.
func NewEngine(db *gorm.DB, cat *catalog.Loader, xp XPGranter, items ItemAwarder, cfg config.ProgressionConfig, logger *zap.Logger) *Engine {
	return &Engine{
		db: db, cat: cat, xp: xp, items: items, cfg: cfg, logger: logger,
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// SetRand replaces the engine RNG. Test hook.
func (e *Engine) SetRand(r *rand.Rand) {
	e.mu.Lock()
	e.rng = r
	e.mu.Unlock()
}

// endOfDay returns the next UTC midnight after t.
func endOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC).Add(24 * time.Hour)
}

// endOfWeek returns the next UTC Monday midnight after t.
func endOfWeek(t time.Time) time.Time {
	d := endOfDay(t)
	for d.Weekday() != time.Monday {
		d = d.Add(24 * time.Hour)
	}
	return d
}

// pickTemplates draws a fixed-size random subset without replacement.
func (e *Engine) pickTemplates(pool []*catalog.QuestTemplate, n int) []*catalog.QuestTemplate {
	e.mu.Lock()
	defer e.mu.Unlock()
	if n >= len(pool) {
		out := make([]*catalog.QuestTemplate, len(pool))
		copy(out, pool)
		return out
	}
	idx := e.rng.Perm(len(pool))[:n]
	out := make([]*catalog.QuestTemplate, 0, n)
	for _, i := range idx {
		out = append(out, pool[i])
	}
	return out
}

func (e *Engine) instantiate(tpl *catalog.QuestTemplate, userID int64, level int, expiresAt *time.Time) *model.QuestInstance {
	band := catalog.LevelBand(level)
	if band >= len(tpl.Targets) {
		band = len(tpl.Targets) - 1
	}
	return &model.QuestInstance{
		UserID:     userID,
		TemplateID: tpl.ID,
		Type:       tpl.Type,
		Name:       tpl.Name,
		Metric:     tpl.Metric,
		Exercise:   tpl.Exercise,
		Target:     tpl.Targets[band],
		XPReward:   tpl.XPReward,
		ItemTier:   tpl.ItemTier,
		ExpiresAt:  expiresAt,
	}
}

// Refresh assigns fresh daily and weekly quests for any window the user has
// no live instances in. Live means unexpired and unclaimed. Idempotent within
// a window.
func (e *Engine) Refresh(ctx context.Context, userID int64, level int) ([]model.QuestInstance, error) {
	now := time.Now().UTC()
	var created []model.QuestInstance

	for _, w := range []struct {
		questType string
		count     int
		expiresAt time.Time
	}{
		{model.QuestTypeDaily, e.cfg.DailyQuestCount, endOfDay(now)},
		{model.QuestTypeWeekly, e.cfg.WeeklyQuestCount, endOfWeek(now)},
	} {
		var live int64
		err := e.db.WithContext(ctx).Model(&model.QuestInstance{}).
			Where("user_id = ? AND type = ? AND expires_at > ?", userID, w.questType, now).
			Count(&live).Error
		if err != nil {
			return nil, err
		}
		if live > 0 {
			continue
		}

		pool := e.cat.QuestTemplatesByType(w.questType)
		if len(pool) == 0 {
			continue
		}
		exp := w.expiresAt
		for _, tpl := range e.pickTemplates(pool, w.count) {
			q := e.instantiate(tpl, userID, level, &exp)
			if err := e.db.WithContext(ctx).Create(q).Error; err != nil {
				return nil, err
			}
			created = append(created, *q)
		}
		e.logger.Info("quests assigned",
			zap.Int64("user_id", userID),
			zap.String("type", w.questType),
			zap.Time("expires_at", exp))
	}

	// Milestone quests are assigned once per user, never expire, and are not
	// re-issued after being claimed.
	for _, tpl := range e.cat.QuestTemplatesByType(model.QuestTypeMilestone) {
		var seen int64
		err := e.db.WithContext(ctx).Model(&model.QuestInstance{}).
			Where("user_id = ? AND template_id = ?", userID, tpl.ID).
			Count(&seen).Error
		if err != nil {
			return nil, err
		}
		if seen > 0 {
			continue
		}
		q := e.instantiate(tpl, userID, level, nil)
		if err := e.db.WithContext(ctx).Create(q).Error; err != nil {
			return nil, err
		}
		created = append(created, *q)
		e.logger.Info("milestone quest assigned",
			zap.Int64("user_id", userID),
			zap.String("template_id", tpl.ID))
	}
	return created, nil
}

// List returns the user's live quest instances, refreshing windows first.
func (e *Engine) List(ctx context.Context, userID int64, level int) ([]model.QuestInstance, error) {
	if _, err := e.Refresh(ctx, userID, level); err != nil {
		return nil, err
	}
	var quests []model.QuestInstance
	err := e.db.WithContext(ctx).
		Where("user_id = ? AND claimed = ? AND (expires_at IS NULL OR expires_at > ?)",
			userID, false, time.Now().UTC()).
		Order("type, id").
		Find(&quests).Error
	return quests, err
}

// ProcessWorkout credits a workout against every live matching quest.
// Progress only ever grows; completion flips once.
func (e *Engine) ProcessWorkout(ctx context.Context, w *model.Workout) ([]model.QuestInstance, error) {
	now := time.Now().UTC()
	var touched []model.QuestInstance

	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var quests []model.QuestInstance
		err := tx.Where("user_id = ? AND completed = ? AND (expires_at IS NULL OR expires_at > ?)",
			w.UserID, false, now).
			Find(&quests).Error
		if err != nil {
			return err
		}

		for i := range quests {
			q := &quests[i]
			delta := questDelta(q, w)
			if delta <= 0 {
				continue
			}
			q.Progress += delta
			if q.Progress >= q.Target {
				q.Progress = q.Target
				q.Completed = true
				t := now
				q.CompletedAt = &t
			}
			if err := tx.Model(q).Updates(map[string]interface{}{
				"progress":     q.Progress,
				"completed":    q.Completed,
				"completed_at": q.CompletedAt,
			}).Error; err != nil {
				return err
			}
			touched = append(touched, *q)
		}
		return nil
	})
	return touched, err
}

// questDelta returns how much a workout advances a quest.
func questDelta(q *model.QuestInstance, w *model.Workout) int {
	switch q.Metric {
	case model.QuestMetricWorkoutCount:
		return 1
	case model.QuestMetricTotalReps:
		return w.Reps
	case model.QuestMetricExerciseReps:
		if q.Exercise == w.Exercise {
			return w.Reps
		}
	}
	return 0
}

// Claim pays out a completed quest exactly once. The claimed flag is flipped
// with a guarded update so concurrent claims cannot double-pay.
func (e *Engine) Claim(ctx context.Context, userID, questID int64) (*model.QuestInstance, []*model.Item, error) {
	var q model.QuestInstance
	err := e.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", questID, userID).
		First(&q).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, apperr.NotFound("quest %d not found", questID)
	}
	if err != nil {
		return nil, nil, err
	}
	if q.Claimed {
		return nil, nil, apperr.State("quest reward already claimed")
	}
	if !q.Completed {
		return nil, nil, apperr.State("quest is not completed")
	}

	res := e.db.WithContext(ctx).Model(&model.QuestInstance{}).
		Where("id = ? AND completed = ? AND claimed = ?", questID, true, false).
		Update("claimed", true)
	if res.Error != nil {
		return nil, nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil, apperr.State("quest reward already claimed")
	}
	q.Claimed = true

	if err := e.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", userID).
		Update("quests_completed", gorm.Expr("quests_completed + 1")).Error; err != nil {
		return nil, nil, err
	}

	if _, _, err := e.xp.GrantXP(ctx, userID, q.XPReward, "quest:"+q.TemplateID); err != nil {
		return nil, nil, err
	}
	var rewards []*model.Item
	if q.ItemTier != "" && e.items != nil {
		rewards, err = e.items.AwardQuestItems(ctx, userID, q.ItemTier)
		if err != nil {
			return nil, nil, err
		}
	}
	return &q, rewards, nil
}

// SweepExpired deletes expired unclaimed instances. Run from the scheduler.
func (e *Engine) SweepExpired(ctx context.Context) (int64, error) {
	res := e.db.WithContext(ctx).
		Where("expires_at IS NOT NULL AND expires_at <= ? AND claimed = ?", time.Now().UTC(), false).
		Delete(&model.QuestInstance{})
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected > 0 {
		e.logger.Info("expired quests swept", zap.Int64("count", res.RowsAffected))
	}
	return res.RowsAffected, nil
}
