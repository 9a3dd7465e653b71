package duel

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fitforge/server/activity"
	"github.com/fitforge/server/apperr"
	"github.com/fitforge/server/catalog"
	"github.com/fitforge/server/config"
	fdb "github.com/fitforge/server/db"
	"github.com/fitforge/server/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// XPGranter grants XP to a user. Implemented by progression.Service.
type XPGranter interface {
	GrantXP(ctx context.Context, userID int64, amount int, reason string) (int, bool, error)
}

// winnerXP / loserXP are the duel payout amounts; a tie pays loserXP to both.
const (
	winnerXP = 150
	loserXP  = 40
)

// Engine runs 1v1 challenge duels: pending until accepted, then scored from
// workout events until the window closes.
type Engine struct {
	db     *gorm.DB
	cat    *catalog.Loader
	xp     XPGranter
	feed   *activity.Sink
	cfg    config.ProgressionConfig
	logger *zap.Logger
}

// NewEngine creates a duel Engine.
func NewEngine(db *gorm.DB, cat *catalog.Loader, xp XPGranter, feed *activity.Sink, cfg config.ProgressionConfig, logger *zap.Logger) *Engine {
	return &Engine{db: db, cat: cat, xp: xp, feed: feed, cfg: cfg, logger: logger}
}

// Challenges returns the duel challenge catalog.
func (e *Engine) Challenges() []*catalog.ChallengeDef {
	return e.cat.Challenges
}

// Create issues a challenge to another user by username. The duel sits in
// pending until the opponent accepts or declines.
func (e *Engine) Create(ctx context.Context, challengerID int64, opponentName, challengeID string) (*model.Duel, error) {
	ch, ok := e.cat.Challenge(challengeID)
	if !ok {
		return nil, apperr.Validation("unknown challenge %q", challengeID)
	}

	var opponent model.User
	err := e.db.WithContext(ctx).Where("username = ?", opponentName).First(&opponent).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("user %q not found", opponentName)
	}
	if err != nil {
		return nil, err
	}
	if opponent.ID == challengerID {
		return nil, apperr.Validation("cannot duel yourself")
	}

	d := &model.Duel{
		ChallengerID: challengerID,
		OpponentID:   opponent.ID,
		ChallengeID:  ch.ID,
		Name:         ch.Name,
		Exercise:     ch.Exercise,
		Metric:       ch.Metric,
		Status:       model.DuelStatusPending,
	}
	if err := e.db.WithContext(ctx).Create(d).Error; err != nil {
		return nil, err
	}
	e.logger.Info("duel created",
		zap.Int64("duel_id", d.ID),
		zap.Int64("challenger_id", challengerID),
		zap.Int64("opponent_id", opponent.ID),
		zap.String("challenge_id", ch.ID))
	return d, nil
}

// Get loads a duel the user participates in.
func (e *Engine) Get(ctx context.Context, userID, duelID int64) (*model.Duel, error) {
	var d model.Duel
	err := e.db.WithContext(ctx).First(&d, duelID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("duel %d not found", duelID)
	}
	if err != nil {
		return nil, err
	}
	if !d.Participant(userID) {
		return nil, apperr.Permission("not a duel participant")
	}
	if d.Status == model.DuelStatusActive && d.ExpiredAt(time.Now().UTC()) {
		if err := e.settle(ctx, &d); err != nil {
			return nil, err
		}
	}
	return &d, nil
}

// List returns the user's duels, newest first, settling any that expired.
func (e *Engine) List(ctx context.Context, userID int64) ([]model.Duel, error) {
	var duels []model.Duel
	err := e.db.WithContext(ctx).
		Where("challenger_id = ? OR opponent_id = ?", userID, userID).
		Order("id DESC").
		Find(&duels).Error
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	for i := range duels {
		if duels[i].Status == model.DuelStatusActive && duels[i].ExpiredAt(now) {
			if err := e.settle(ctx, &duels[i]); err != nil {
				return nil, err
			}
		}
	}
	return duels, nil
}

// Accept moves a pending duel to active and opens the scoring window. Only
// the challenged opponent may accept.
func (e *Engine) Accept(ctx context.Context, userID, duelID int64) (*model.Duel, error) {
	return e.answer(ctx, userID, duelID, true)
}

// Decline rejects a pending duel. Only the challenged opponent may decline.
func (e *Engine) Decline(ctx context.Context, userID, duelID int64) (*model.Duel, error) {
	return e.answer(ctx, userID, duelID, false)
}

func (e *Engine) answer(ctx context.Context, userID, duelID int64, accept bool) (*model.Duel, error) {
	var d model.Duel
	err := e.db.WithContext(ctx).First(&d, duelID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("duel %d not found", duelID)
	}
	if err != nil {
		return nil, err
	}
	if d.OpponentID != userID {
		return nil, apperr.Permission("only the challenged user can answer")
	}
	if d.Status != model.DuelStatusPending {
		return nil, apperr.State("duel is not pending")
	}

	updates := map[string]interface{}{}
	if accept {
		ch, ok := e.cat.Challenge(d.ChallengeID)
		if !ok {
			return nil, apperr.State("challenge %q no longer exists", d.ChallengeID)
		}
		exp := time.Now().UTC().Add(ch.Duration)
		updates["status"] = model.DuelStatusActive
		updates["expires_at"] = exp
		d.Status = model.DuelStatusActive
		d.ExpiresAt = &exp
	} else {
		updates["status"] = model.DuelStatusDeclined
		d.Status = model.DuelStatusDeclined
	}

	res := e.db.WithContext(ctx).Model(&model.Duel{}).
		Where("id = ? AND status = ?", duelID, model.DuelStatusPending).
		Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, apperr.State("duel is not pending")
	}
	return &d, nil
}

// UpdateScore credits delta to userID's side of an active duel. A duel whose
// window has already closed is settled on the spot and the credit is rejected
// with a state error, so a score can never land after the deadline.
func (e *Engine) UpdateScore(ctx context.Context, userID, duelID, delta int64) (*model.Duel, error) {
	if delta <= 0 {
		return nil, apperr.Validation("delta must be positive")
	}

	var d model.Duel
	err := e.db.WithContext(ctx).First(&d, duelID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("duel %d not found", duelID)
	}
	if err != nil {
		return nil, err
	}
	if !d.Participant(userID) {
		return nil, apperr.Permission("not a duel participant")
	}
	if d.Status != model.DuelStatusActive {
		return nil, apperr.State("duel is not active")
	}

	now := time.Now().UTC()
	if d.ExpiredAt(now) {
		if err := e.settle(ctx, &d); err != nil {
			return nil, err
		}
		return nil, apperr.State("duel expired")
	}

	col := "challenger_score"
	if d.OpponentID == userID {
		col = "opponent_score"
	}
	// Guarded increment: the row must still be active and inside the
	// window at write time.
	err = fdb.InTx(ctx, e.db, e.cfg.RetryAttempts, func(tx *gorm.DB) error {
		res := tx.Model(&model.Duel{}).
			Where("id = ? AND status = ? AND expires_at > ?", d.ID, model.DuelStatusActive, now).
			Update(col, gorm.Expr(col+" + ?", delta))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.State("duel expired")
		}
		return nil
	})
	if apperr.IsState(err) {
		// The window closed between the read and the write.
		if serr := e.settle(ctx, &d); serr != nil {
			return nil, serr
		}
		return nil, err
	}
	if err != nil {
		return nil, err
	}

	if d.ChallengerID == userID {
		d.ChallengerScore += delta
	} else {
		d.OpponentScore += delta
	}
	return &d, nil
}

// ProcessWorkout credits a workout to every active duel the user is in whose
// exercise matches. Expired duels encountered here are settled instead.
func (e *Engine) ProcessWorkout(ctx context.Context, w *model.Workout) ([]model.Duel, error) {
	var duels []model.Duel
	err := e.db.WithContext(ctx).
		Where("status = ? AND (challenger_id = ? OR opponent_id = ?)",
			model.DuelStatusActive, w.UserID, w.UserID).
		Find(&duels).Error
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	var touched []model.Duel
	for i := range duels {
		d := &duels[i]
		if d.ExpiredAt(now) {
			if err := e.settle(ctx, d); err != nil {
				return nil, err
			}
			continue
		}
		if d.Exercise != catalog.ExerciseAny && d.Exercise != w.Exercise {
			continue
		}

		var delta int64
		switch d.Metric {
		case model.DuelMetricWorkoutCount:
			delta = 1
		default:
			delta = int64(w.Reps)
		}

		updated, err := e.UpdateScore(ctx, w.UserID, d.ID, delta)
		if apperr.IsState(err) {
			continue
		}
		if err != nil {
			return nil, err
		}
		touched = append(touched, *updated)
	}
	return touched, nil
}

// settle completes an expired duel: decides the winner, pays XP, bumps the
// win/loss counters. The guarded status flip makes settlement run once even
// when several readers race past the expiry at the same time.
func (e *Engine) settle(ctx context.Context, d *model.Duel) error {
	winner := model.DuelWinnerTie
	switch {
	case d.ChallengerScore > d.OpponentScore:
		winner = model.DuelWinnerChallenger
	case d.OpponentScore > d.ChallengerScore:
		winner = model.DuelWinnerOpponent
	}

	now := time.Now().UTC()
	res := e.db.WithContext(ctx).Model(&model.Duel{}).
		Where("id = ? AND status = ?", d.ID, model.DuelStatusActive).
		Updates(map[string]interface{}{
			"status":       model.DuelStatusCompleted,
			"winner":       winner,
			"completed_at": now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		// Already settled elsewhere; refresh our copy.
		return e.db.WithContext(ctx).First(d, d.ID).Error
	}
	d.Status = model.DuelStatusCompleted
	d.Winner = winner
	d.CompletedAt = &now

	winnerID, loserID := d.ChallengerID, d.OpponentID
	if winner == model.DuelWinnerOpponent {
		winnerID, loserID = d.OpponentID, d.ChallengerID
	}

	if winner == model.DuelWinnerTie {
		for _, id := range []int64{d.ChallengerID, d.OpponentID} {
			if _, _, err := e.xp.GrantXP(ctx, id, loserXP, "duel:tie"); err != nil {
				return err
			}
		}
	} else {
		if err := e.db.WithContext(ctx).Model(&model.User{}).
			Where("id = ?", winnerID).
			Update("duel_wins", gorm.Expr("duel_wins + 1")).Error; err != nil {
			return err
		}
		if err := e.db.WithContext(ctx).Model(&model.User{}).
			Where("id = ?", loserID).
			Update("duel_losses", gorm.Expr("duel_losses + 1")).Error; err != nil {
			return err
		}
		if _, _, err := e.xp.GrantXP(ctx, winnerID, winnerXP, "duel:win"); err != nil {
			return err
		}
		if _, _, err := e.xp.GrantXP(ctx, loserID, loserXP, "duel:loss"); err != nil {
			return err
		}
	}

	if e.feed != nil {
		e.feed.Record(activity.Entry{
			Type:    activity.TypeDuel,
			Message: fmt.Sprintf("duel %q finished: %s", d.Name, winner),
			Meta:    map[string]interface{}{"duel_id": d.ID, "winner": winner},
		})
	}
	e.logger.Info("duel settled",
		zap.Int64("duel_id", d.ID),
		zap.String("winner", winner))
	return nil
}

// SweepExpired settles every active duel past its window. Run from the
// scheduler so results land without waiting for a participant to look.
func (e *Engine) SweepExpired(ctx context.Context) (int, error) {
	var duels []model.Duel
	err := e.db.WithContext(ctx).
		Where("status = ? AND expires_at <= ?", model.DuelStatusActive, time.Now().UTC()).
		Find(&duels).Error
	if err != nil {
		return 0, err
	}
	for i := range duels {
		if err := e.settle(ctx, &duels[i]); err != nil {
			return i, err
		}
	}
	return len(duels), nil
}
