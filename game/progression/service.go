package progression

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/fitforge/server/activity"
	"github.com/fitforge/server/apperr"
	"github.com/fitforge/server/cache"
	"github.com/fitforge/server/config"
	"github.com/fitforge/server/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// RankingKey is the cache ZSet holding the XP leaderboard.
const RankingKey = "ranking:xp"

const maxRepsPerWorkout = 10000

// Service owns XP, levels, lifetime counters and streaks.
type Service struct {
	db     *gorm.DB
	cache  cache.Cache
	feed   *activity.Sink
	cfg    config.ProgressionConfig
	logger *zap.Logger
}

// NewService creates a progression Service.
func NewService(db *gorm.DB, c cache.Cache, feed *activity.Sink, cfg config.ProgressionConfig, logger *zap.Logger) *Service {
	return &Service{db: db, cache: c, feed: feed, cfg: cfg, logger: logger}
}

// User loads a user row.
func (svc *Service) User(ctx context.Context, userID int64) (*model.User, error) {
	var u model.User
	err := svc.db.WithContext(ctx).First(&u, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("user %d not found", userID)
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Snapshot returns the user's cumulative stats for achievement evaluation.
func (svc *Service) Snapshot(ctx context.Context, userID int64) (model.StatsSnapshot, error) {
	u, err := svc.User(ctx, userID)
	if err != nil {
		return model.StatsSnapshot{}, err
	}
	return u.Snapshot(), nil
}

// GrantXP atomically adds XP and recomputes the level. Returns the new level
// and whether it increased.
func (svc *Service) GrantXP(ctx context.Context, userID int64, amount int, reason string) (int, bool, error) {
	if amount <= 0 {
		return 0, false, apperr.Validation("xp amount must be positive")
	}

	var newLevel int
	var leveled bool
	err := svc.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.User{}).Where("id = ?", userID).
			Update("xp", gorm.Expr("xp + ?", amount))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.NotFound("user %d not found", userID)
		}

		var u model.User
		if err := tx.First(&u, userID).Error; err != nil {
			return err
		}
		newLevel = LevelForXP(u.XP)
		leveled = newLevel > u.Level
		if leveled {
			if err := tx.Model(&u).Update("level", newLevel).Error; err != nil {
				return err
			}
		}

		// Refresh the leaderboard entry; best effort.
		_ = svc.cache.ZAdd(ctx, RankingKey, float64(u.XP), strconv.FormatInt(userID, 10))
		return nil
	})
	if err != nil {
		return 0, false, err
	}

	svc.logger.Info("xp granted",
		zap.Int64("user_id", userID),
		zap.Int("amount", amount),
		zap.String("reason", reason))
	if leveled && svc.feed != nil {
		svc.feed.Record(activity.Entry{
			UserID:  &userID,
			Type:    activity.TypeLevelUp,
			Message: fmt.Sprintf("reached level %d", newLevel),
			Meta:    map[string]int{"level": newLevel},
		})
	}
	return newLevel, leveled, nil
}

// RecordWorkout validates and persists a workout event, updates lifetime
// counters and the daily streak, and grants workout XP.
func (svc *Service) RecordWorkout(ctx context.Context, userID int64, exercise string, reps int) (*model.Workout, error) {
	if exercise == "" {
		return nil, apperr.Validation("exercise is required")
	}
	if reps <= 0 {
		return nil, apperr.Validation("reps must be positive")
	}
	if reps > maxRepsPerWorkout {
		return nil, apperr.Validation("reps exceed per-workout limit")
	}

	xp := reps * svc.cfg.WorkoutXPPerRep
	w := &model.Workout{UserID: userID, Exercise: exercise, Reps: reps, XPAwarded: xp}

	err := svc.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var u model.User
		if err := tx.First(&u, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("user %d not found", userID)
			}
			return err
		}
		if err := tx.Create(w).Error; err != nil {
			return err
		}

		updates := map[string]interface{}{
			"total_workouts": gorm.Expr("total_workouts + 1"),
			"total_reps":     gorm.Expr("total_reps + ?", reps),
		}
		streak, today := nextStreak(&u, time.Now().UTC())
		if streak > 0 {
			updates["streak_days"] = streak
			updates["last_workout_day"] = today
			if streak > u.BestStreak {
				updates["best_streak"] = streak
			}
		}
		return tx.Model(&u).Updates(updates).Error
	})
	if err != nil {
		return nil, err
	}

	if _, _, err := svc.GrantXP(ctx, userID, xp, "workout"); err != nil {
		return nil, err
	}
	if svc.feed != nil {
		svc.feed.Record(activity.Entry{
			UserID:  &userID,
			Type:    activity.TypeWorkout,
			Message: fmt.Sprintf("logged %d %s reps", reps, exercise),
			Meta:    map[string]interface{}{"exercise": exercise, "reps": reps},
		})
	}
	return w, nil
}

// nextStreak returns the streak value after a workout at now, and the day to
// record. A zero streak means the counters should not change (same day).
func nextStreak(u *model.User, now time.Time) (int, time.Time) {
	today := now.Truncate(24 * time.Hour)
	if u.LastWorkoutDay == nil {
		return 1, today
	}
	last := u.LastWorkoutDay.UTC().Truncate(24 * time.Hour)
	switch {
	case last.Equal(today):
		return 0, today
	case today.Sub(last) == 24*time.Hour:
		return u.StreakDays + 1, today
	default:
		return 1, today
	}
}

// TopXP returns the leaderboard: cache first, DB fallback (refreshing the
// cache as it goes).
func (svc *Service) TopXP(ctx context.Context, limit int) ([]model.User, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	members, err := svc.cache.ZRevRange(ctx, RankingKey, 0, int64(limit-1))
	if err == nil && len(members) > 0 {
		ids := make([]int64, 0, len(members))
		for _, m := range members {
			id, perr := strconv.ParseInt(m, 10, 64)
			if perr == nil {
				ids = append(ids, id)
			}
		}
		var users []model.User
		if err := svc.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err == nil && len(users) > 0 {
			byID := make(map[int64]model.User, len(users))
			for _, u := range users {
				byID[u.ID] = u
			}
			ordered := make([]model.User, 0, len(ids))
			for _, id := range ids {
				if u, ok := byID[id]; ok {
					ordered = append(ordered, u)
				}
			}
			return ordered, nil
		}
	}

	var users []model.User
	if err := svc.db.WithContext(ctx).Order("xp DESC").Limit(limit).Find(&users).Error; err != nil {
		return nil, err
	}
	for _, u := range users {
		_ = svc.cache.ZAdd(ctx, RankingKey, float64(u.XP), strconv.FormatInt(u.ID, 10))
	}
	return users, nil
}
