package raid

import (
	"context"
	"encoding/json"
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
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// XPGranter grants XP to a user. Implemented by progression.Service.
type XPGranter interface {
	GrantXP(ctx context.Context, userID int64, amount int, reason string) (int, bool, error)
}

// ItemAwarder mints raid reward items. Implemented by item.Service.
type ItemAwarder interface {
	AwardRaidItems(ctx context.Context, userID int64, tier string) ([]*model.Item, error)
}

// PartyProvider resolves party membership. Implemented by party.Service.
type PartyProvider interface {
	Get(ctx context.Context, partyID int64) (*model.Party, error)
	ForUser(ctx context.Context, userID int64) (*model.Party, error)
	MemberIDs(ctx context.Context, partyID int64) ([]int64, error)
}

// Engine runs party boss raids. Damage lands through clamped atomic
// decrements so hp_total - Σ contributions always equals hp_remaining.
type Engine struct {
	db      *gorm.DB
	cat     *catalog.Loader
	parties PartyProvider
	xp      XPGranter
	items   ItemAwarder
	feed    *activity.Sink
	cfg     config.ProgressionConfig
	logger  *zap.Logger
}

// NewEngine creates a raid Engine.
func NewEngine(db *gorm.DB, cat *catalog.Loader, parties PartyProvider, xp XPGranter, items ItemAwarder, feed *activity.Sink, cfg config.ProgressionConfig, logger *zap.Logger) *Engine {
	return &Engine{db: db, cat: cat, parties: parties, xp: xp, items: items, feed: feed, cfg: cfg, logger: logger}
}

// WorkoutDamage converts a workout into boss damage. Heavier lifts hit
// harder and each level adds 10%.
func WorkoutDamage(cat *catalog.Loader, exercise string, reps, level int) int64 {
	base := cat.BaseDamage(exercise)
	return int64(float64(base*reps) * (1 + 0.1*float64(level)))
}

// AvailableBosses lists the bosses the user's current party is eligible to
// challenge. Users without a party see the solo roster.
func (e *Engine) AvailableBosses(ctx context.Context, userID int64) ([]*catalog.BossDef, error) {
	members := 1
	p, err := e.parties.ForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if p != nil {
		ids, err := e.parties.MemberIDs(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		members = len(ids)
	}
	return e.cat.BossesForParty(members), nil
}

// Start opens a raid against the named boss. Only the party owner may start
// one, the party size must fit the boss, and a party runs at most one raid
// at a time. Contribution rows are zero-initialized for every member up
// front so damage writes are pure increments.
func (e *Engine) Start(ctx context.Context, userID int64, bossID string) (*model.Raid, error) {
	boss, ok := e.cat.Boss(bossID)
	if !ok {
		return nil, apperr.Validation("unknown boss %q", bossID)
	}

	p, err := e.parties.ForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, apperr.State("not in a party")
	}
	if p.OwnerID != userID {
		return nil, apperr.Permission("only the party owner can start a raid")
	}

	members, err := e.parties.MemberIDs(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	if len(members) < boss.MinMembers || len(members) > boss.MaxMembers {
		return nil, apperr.Validation("boss %q needs %d-%d members, party has %d",
			boss.ID, boss.MinMembers, boss.MaxMembers, len(members))
	}

	hp := boss.BaseHP + boss.HPPerMember*int64(len(members))
	r := &model.Raid{
		PartyID:     p.ID,
		BossID:      boss.ID,
		BossName:    boss.Name,
		Status:      model.RaidStatusActive,
		HPTotal:     hp,
		HPRemaining: hp,
		StartedBy:   userID,
		RewardTier:  boss.RewardTier,
		DamageLog:   datatypes.JSON("[]"),
	}

	err = e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var active int64
		err := tx.Model(&model.Raid{}).
			Where("party_id = ? AND status = ?", p.ID, model.RaidStatusActive).
			Count(&active).Error
		if err != nil {
			return err
		}
		if active > 0 {
			return apperr.State("party already has an active raid")
		}
		if err := tx.Create(r).Error; err != nil {
			return err
		}
		for _, uid := range members {
			if err := tx.Create(&model.RaidContribution{RaidID: r.ID, UserID: uid}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("raid started",
		zap.Int64("raid_id", r.ID),
		zap.Int64("party_id", p.ID),
		zap.String("boss_id", boss.ID),
		zap.Int64("hp_total", hp))
	if e.feed != nil {
		e.feed.Record(activity.Entry{
			Type:    activity.TypeRaid,
			Message: fmt.Sprintf("raid against %s started", boss.Name),
			Meta:    map[string]interface{}{"raid_id": r.ID, "boss_id": boss.ID},
		})
	}
	return r, nil
}

// Get loads a raid.
func (e *Engine) Get(ctx context.Context, raidID int64) (*model.Raid, error) {
	var r model.Raid
	err := e.db.WithContext(ctx).First(&r, raidID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("raid %d not found", raidID)
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// ActiveForParty returns the party's active raid, or nil.
func (e *Engine) ActiveForParty(ctx context.Context, partyID int64) (*model.Raid, error) {
	var r model.Raid
	err := e.db.WithContext(ctx).
		Where("party_id = ? AND status = ?", partyID, model.RaidStatusActive).
		First(&r).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// LogDamage applies damage from one participant. The amount is clamped to
// the boss's remaining HP; the clamped value is what lands in the
// contribution row and the user's lifetime counter. The killing blow flips
// the raid to completed inside the same transaction.
func (e *Engine) LogDamage(ctx context.Context, raidID, userID, damage int64, source string) (int64, *model.Raid, error) {
	if damage <= 0 {
		return 0, nil, apperr.Validation("damage must be positive")
	}

	var applied int64
	var after model.Raid
	err := fdb.InTx(ctx, e.db, e.cfg.RetryAttempts, func(tx *gorm.DB) error {
		var r model.Raid
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&r, raidID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("raid %d not found", raidID)
		}
		if err != nil {
			return err
		}
		if r.Status != model.RaidStatusActive {
			return apperr.State("raid is not active")
		}

		applied = damage
		if applied > r.HPRemaining {
			applied = r.HPRemaining
		}
		newHP := r.HPRemaining - applied

		updates := map[string]interface{}{
			"hp_remaining": newHP,
			"damage_log":   appendDamageLog(r.DamageLog, model.DamageEvent{UserID: userID, Damage: applied, Source: source, At: time.Now().UTC()}),
		}
		if newHP == 0 {
			updates["status"] = model.RaidStatusCompleted
			updates["victory"] = true
			updates["completed_at"] = time.Now().UTC()
		}

		res := tx.Model(&model.Raid{}).
			Where("id = ? AND status = ? AND hp_remaining = ?", raidID, model.RaidStatusActive, r.HPRemaining).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.Conflict("concurrent damage submission")
		}

		res = tx.Model(&model.RaidContribution{}).
			Where("raid_id = ? AND user_id = ?", raidID, userID).
			Updates(map[string]interface{}{
				"total_damage": gorm.Expr("total_damage + ?", applied),
				"total_hits":   gorm.Expr("total_hits + 1"),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.Permission("not a raid participant")
		}

		if err := tx.Model(&model.User{}).Where("id = ?", userID).
			Update("raid_damage", gorm.Expr("raid_damage + ?", applied)).Error; err != nil {
			return err
		}
		return tx.First(&after, raidID).Error
	})
	if err != nil {
		return 0, nil, err
	}

	if after.Status == model.RaidStatusCompleted && after.Victory {
		if err := e.payRewards(ctx, &after); err != nil {
			return applied, &after, err
		}
	}
	return applied, &after, nil
}

// appendDamageLog appends an event to the ring log, keeping the newest
// DamageLogSize entries.
func appendDamageLog(raw datatypes.JSON, ev model.DamageEvent) datatypes.JSON {
	var log []model.DamageEvent
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &log)
	}
	log = append(log, ev)
	if len(log) > model.DamageLogSize {
		log = log[len(log)-model.DamageLogSize:]
	}
	out, _ := json.Marshal(log)
	return datatypes.JSON(out)
}

// payRewards grants boss XP, bumps raids_won and mints reward items for
// every party member after a victory.
func (e *Engine) payRewards(ctx context.Context, r *model.Raid) error {
	boss, ok := e.cat.Boss(r.BossID)
	if !ok {
		return apperr.State("boss %q no longer exists", r.BossID)
	}
	members, err := e.parties.MemberIDs(ctx, r.PartyID)
	if err != nil {
		return err
	}

	for _, uid := range members {
		if err := e.db.WithContext(ctx).Model(&model.User{}).
			Where("id = ?", uid).
			Update("raids_won", gorm.Expr("raids_won + 1")).Error; err != nil {
			return err
		}
		if _, _, err := e.xp.GrantXP(ctx, uid, boss.XPReward, "raid:"+r.BossID); err != nil {
			return err
		}
		if e.items != nil && r.RewardTier != "" {
			if _, err := e.items.AwardRaidItems(ctx, uid, r.RewardTier); err != nil {
				return err
			}
		}
	}

	if e.feed != nil {
		e.feed.Record(activity.Entry{
			Type:    activity.TypeRaid,
			Message: fmt.Sprintf("%s defeated", r.BossName),
			Meta:    map[string]interface{}{"raid_id": r.ID, "boss_id": r.BossID},
		})
	}
	e.logger.Info("raid won",
		zap.Int64("raid_id", r.ID),
		zap.String("boss_id", r.BossID),
		zap.Int("members", len(members)))
	return nil
}

// ProcessWorkout converts a workout into raid damage when the user's party
// has an active raid. Returns the damage applied, or zero when no raid is
// running.
func (e *Engine) ProcessWorkout(ctx context.Context, w *model.Workout, level int) (int64, *model.Raid, error) {
	p, err := e.parties.ForUser(ctx, w.UserID)
	if err != nil || p == nil {
		return 0, nil, err
	}
	r, err := e.ActiveForParty(ctx, p.ID)
	if err != nil || r == nil {
		return 0, nil, err
	}

	dmg := WorkoutDamage(e.cat, w.Exercise, w.Reps, level)
	applied, after, err := e.LogDamage(ctx, r.ID, w.UserID, dmg, w.Exercise)
	if apperr.IsState(err) {
		// Raid finished between lookup and write.
		return 0, nil, nil
	}
	return applied, after, err
}

// LeaderboardEntry is one participant's share of a raid's damage.
type LeaderboardEntry struct {
	Rank             int     `json:"rank"`
	UserID           int64   `json:"user_id"`
	Username         string  `json:"username"`
	TotalDamage      int64   `json:"total_damage"`
	TotalHits        int     `json:"total_hits"`
	DamagePercentage float64 `json:"damage_percentage"`
}

// Leaderboard ranks contributions by damage dealt. Percentages are of the
// boss's full HP.
func (e *Engine) Leaderboard(ctx context.Context, raidID int64) ([]LeaderboardEntry, error) {
	r, err := e.Get(ctx, raidID)
	if err != nil {
		return nil, err
	}

	var contribs []model.RaidContribution
	err = e.db.WithContext(ctx).
		Where("raid_id = ?", raidID).
		Order("total_damage DESC, user_id").
		Find(&contribs).Error
	if err != nil {
		return nil, err
	}

	ids := make([]int64, len(contribs))
	for i, c := range contribs {
		ids[i] = c.UserID
	}
	var users []model.User
	if err := e.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	names := make(map[int64]string, len(users))
	for _, u := range users {
		names[u.ID] = u.Username
	}

	out := make([]LeaderboardEntry, len(contribs))
	for i, c := range contribs {
		pct := 0.0
		if r.HPTotal > 0 {
			pct = float64(c.TotalDamage) * 100 / float64(r.HPTotal)
		}
		out[i] = LeaderboardEntry{
			Rank:             i + 1,
			UserID:           c.UserID,
			Username:         names[c.UserID],
			TotalDamage:      c.TotalDamage,
			TotalHits:        c.TotalHits,
			DamagePercentage: pct,
		}
	}
	return out, nil
}

// Abandon cancels an active raid. Party owner only; no rewards are paid.
func (e *Engine) Abandon(ctx context.Context, userID, raidID int64) (*model.Raid, error) {
	r, err := e.Get(ctx, raidID)
	if err != nil {
		return nil, err
	}
	p, err := e.parties.Get(ctx, r.PartyID)
	if err != nil {
		return nil, err
	}
	if p.OwnerID != userID {
		return nil, apperr.Permission("only the party owner can abandon a raid")
	}

	now := time.Now().UTC()
	res := e.db.WithContext(ctx).Model(&model.Raid{}).
		Where("id = ? AND status = ?", raidID, model.RaidStatusActive).
		Updates(map[string]interface{}{
			"status":       model.RaidStatusAbandoned,
			"completed_at": now,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, apperr.State("raid is not active")
	}
	r.Status = model.RaidStatusAbandoned
	r.CompletedAt = &now
	e.logger.Info("raid abandoned", zap.Int64("raid_id", raidID))
	return r, nil
}
