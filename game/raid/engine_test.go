package raid

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/fitforge/server/apperr"
	"github.com/fitforge/server/catalog"
	"github.com/fitforge/server/config"
	"github.com/fitforge/server/game/party"
	"github.com/fitforge/server/model"
	"github.com/fitforge/server/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type stubXP struct {
	granted map[int64]int
}

func (s *stubXP) GrantXP(_ context.Context, userID int64, amount int, _ string) (int, bool, error) {
	if s.granted == nil {
		s.granted = map[int64]int{}
	}
	s.granted[userID] += amount
	return 1, false, nil
}

type stubItems struct {
	awarded map[int64]string
}

func (s *stubItems) AwardRaidItems(_ context.Context, userID int64, tier string) ([]*model.Item, error) {
	if s.awarded == nil {
		s.awarded = map[int64]string{}
	}
	s.awarded[userID] = tier
	return []*model.Item{{ID: "stub"}}, nil
}

type fixture struct {
	engine  *Engine
	db      *gorm.DB
	party   *model.Party
	owner   *model.User
	member  *model.User
	xp      *stubXP
	items   *stubItems
	parties *party.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.SetupTestDB(t)
	cfg := config.ProgressionConfig{MaxPartySize: 5, RetryAttempts: 3}
	parties := party.NewService(db, cfg, zap.NewNop())
	xp := &stubXP{}
	items := &stubItems{}
	e := NewEngine(db, catalog.NewLoader(""), parties, xp, items, nil, cfg, zap.NewNop())

	owner := testutil.CreateUser(t, db, "owner", 5)
	member := testutil.CreateUser(t, db, "member", 5)
	ctx := context.Background()
	p, err := parties.Create(ctx, owner.ID, "Raiders")
	require.NoError(t, err)
	require.NoError(t, parties.Join(ctx, member.ID, p.ID))

	return &fixture{engine: e, db: db, party: p, owner: owner, member: member, xp: xp, items: items, parties: parties}
}

func TestStartRaid(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// slouch_fiend: 500 base + 250 per member, 2 members.
	r, err := f.engine.Start(ctx, f.owner.ID, "slouch_fiend")
	require.NoError(t, err)
	assert.Equal(t, int64(1000), r.HPTotal)
	assert.Equal(t, int64(1000), r.HPRemaining)
	assert.Equal(t, model.RaidStatusActive, r.Status)

	var contribs int64
	require.NoError(t, f.db.Model(&model.RaidContribution{}).Where("raid_id = ?", r.ID).Count(&contribs).Error)
	assert.Equal(t, int64(2), contribs)
}

func TestAvailableBosses(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Two members admit the small and mid bosses, not the 3+ wyrm.
	bosses, err := f.engine.AvailableBosses(ctx, f.owner.ID)
	require.NoError(t, err)
	ids := make([]string, len(bosses))
	for i, b := range bosses {
		ids[i] = b.ID
	}
	assert.ElementsMatch(t, []string{"slouch_fiend", "iron_colossus"}, ids)

	// A user without a party sees the solo roster.
	loner := testutil.CreateUser(t, f.db, "loner", 5)
	bosses, err = f.engine.AvailableBosses(ctx, loner.ID)
	require.NoError(t, err)
	require.Len(t, bosses, 1)
	assert.Equal(t, "slouch_fiend", bosses[0].ID)
}

func TestStartRaidGuards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.engine.Start(ctx, f.owner.ID, "nope")
	assert.True(t, apperr.IsValidation(err))

	// Not the owner.
	_, err = f.engine.Start(ctx, f.member.ID, "slouch_fiend")
	assert.True(t, apperr.IsPermission(err))

	// cardio_wyrm needs 3+ members.
	_, err = f.engine.Start(ctx, f.owner.ID, "cardio_wyrm")
	assert.True(t, apperr.IsValidation(err))

	// Not in a party at all.
	loner := testutil.CreateUser(t, f.db, "loner", 5)
	_, err = f.engine.Start(ctx, loner.ID, "slouch_fiend")
	assert.True(t, apperr.IsState(err))

	// One active raid per party.
	_, err = f.engine.Start(ctx, f.owner.ID, "slouch_fiend")
	require.NoError(t, err)
	_, err = f.engine.Start(ctx, f.owner.ID, "slouch_fiend")
	assert.True(t, apperr.IsState(err))
}

func TestLogDamageAccounting(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r, err := f.engine.Start(ctx, f.owner.ID, "slouch_fiend")
	require.NoError(t, err)

	applied, after, err := f.engine.LogDamage(ctx, r.ID, f.owner.ID, 300, "pushup")
	require.NoError(t, err)
	assert.Equal(t, int64(300), applied)
	assert.Equal(t, int64(700), after.HPRemaining)

	_, after, err = f.engine.LogDamage(ctx, r.ID, f.member.ID, 200, "squat")
	require.NoError(t, err)
	assert.Equal(t, int64(500), after.HPRemaining)

	var c model.RaidContribution
	require.NoError(t, f.db.Where("raid_id = ? AND user_id = ?", r.ID, f.owner.ID).First(&c).Error)
	assert.Equal(t, int64(300), c.TotalDamage)
	assert.Equal(t, 1, c.TotalHits)

	var u model.User
	require.NoError(t, f.db.First(&u, f.owner.ID).Error)
	assert.Equal(t, int64(300), u.RaidDamage)
}

func TestLogDamageClampAndVictory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r, err := f.engine.Start(ctx, f.owner.ID, "slouch_fiend")
	require.NoError(t, err)

	_, _, err = f.engine.LogDamage(ctx, r.ID, f.owner.ID, 900, "pushup")
	require.NoError(t, err)

	// Overkill is clamped to the remaining 100.
	applied, after, err := f.engine.LogDamage(ctx, r.ID, f.member.ID, 5000, "squat")
	require.NoError(t, err)
	assert.Equal(t, int64(100), applied)
	assert.Equal(t, int64(0), after.HPRemaining)
	assert.Equal(t, model.RaidStatusCompleted, after.Status)
	assert.True(t, after.Victory)

	// Contributions sum exactly to the HP pool.
	var sum int64
	require.NoError(t, f.db.Model(&model.RaidContribution{}).
		Where("raid_id = ?", r.ID).
		Select("COALESCE(SUM(total_damage), 0)").Scan(&sum).Error)
	assert.Equal(t, r.HPTotal, sum)

	// Victory pays every member.
	assert.Positive(t, f.xp.granted[f.owner.ID])
	assert.Positive(t, f.xp.granted[f.member.ID])
	assert.Equal(t, "rare", f.items.awarded[f.owner.ID])
	assert.Equal(t, "rare", f.items.awarded[f.member.ID])

	var u model.User
	require.NoError(t, f.db.First(&u, f.owner.ID).Error)
	assert.Equal(t, 1, u.RaidsWon)

	// Dead boss takes no more damage.
	_, _, err = f.engine.LogDamage(ctx, r.ID, f.owner.ID, 10, "pushup")
	assert.True(t, apperr.IsState(err))
}

func TestLogDamageNonParticipant(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r, err := f.engine.Start(ctx, f.owner.ID, "slouch_fiend")
	require.NoError(t, err)

	outsider := testutil.CreateUser(t, f.db, "outsider", 5)
	_, _, err = f.engine.LogDamage(ctx, r.ID, outsider.ID, 50, "pushup")
	assert.True(t, apperr.IsPermission(err))

	// The failed write must not have touched the boss.
	fresh, err := f.engine.Get(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, fresh.HPTotal, fresh.HPRemaining)
}

func TestDamageLogRing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r, err := f.engine.Start(ctx, f.owner.ID, "iron_colossus")
	require.NoError(t, err)

	for i := 0; i < model.DamageLogSize+5; i++ {
		_, _, err := f.engine.LogDamage(ctx, r.ID, f.owner.ID, 10, "pushup")
		require.NoError(t, err)
	}

	fresh, err := f.engine.Get(ctx, r.ID)
	require.NoError(t, err)
	var log []model.DamageEvent
	require.NoError(t, json.Unmarshal(fresh.DamageLog, &log))
	assert.Len(t, log, model.DamageLogSize)
}

func TestWorkoutDamage(t *testing.T) {
	cat := catalog.NewLoader("")
	// pushup base 2: 2*30*(1+0.5) = 90 at level 5.
	assert.Equal(t, int64(90), WorkoutDamage(cat, "pushup", 30, 5))
	// Unknown exercises fall back to base 1.
	assert.Equal(t, int64(15), WorkoutDamage(cat, "interpretive_dance", 10, 5))
}

func TestProcessWorkout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r, err := f.engine.Start(ctx, f.owner.ID, "slouch_fiend")
	require.NoError(t, err)

	applied, after, err := f.engine.ProcessWorkout(ctx, &model.Workout{UserID: f.owner.ID, Exercise: "pushup", Reps: 30}, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(90), applied)
	assert.Equal(t, r.HPTotal-90, after.HPRemaining)

	// No party, no damage.
	loner := testutil.CreateUser(t, f.db, "solo", 5)
	applied, _, err = f.engine.ProcessWorkout(ctx, &model.Workout{UserID: loner.ID, Exercise: "pushup", Reps: 30}, 5)
	require.NoError(t, err)
	assert.Zero(t, applied)
}

func TestLogDamageConcurrentExactKill(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r, err := f.engine.Start(ctx, f.owner.ID, "slouch_fiend")
	require.NoError(t, err)
	require.Equal(t, int64(1000), r.HPTotal)

	// 20 concurrent 50-damage hits from both members sum to exactly the
	// HP pool. The row lock + hp compare-and-set must serialize them.
	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		uid := f.owner.ID
		if i%2 == 1 {
			uid = f.member.ID
		}
		wg.Add(1)
		go func(uid int64) {
			defer wg.Done()
			_, _, err := f.engine.LogDamage(ctx, r.ID, uid, 50, "workout")
			errs <- err
		}(uid)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	final, err := f.engine.Get(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), final.HPRemaining)
	assert.Equal(t, model.RaidStatusCompleted, final.Status)
	assert.True(t, final.Victory)

	var sum int64
	require.NoError(t, f.db.Model(&model.RaidContribution{}).
		Where("raid_id = ?", r.ID).
		Select("COALESCE(SUM(total_damage), 0)").Scan(&sum).Error)
	assert.Equal(t, r.HPTotal, sum)

	// Each member landed 10 hits of 50.
	for _, uid := range []int64{f.owner.ID, f.member.ID} {
		var c model.RaidContribution
		require.NoError(t, f.db.Where("raid_id = ? AND user_id = ?", r.ID, uid).First(&c).Error)
		assert.Equal(t, int64(500), c.TotalDamage)
		assert.Equal(t, 10, c.TotalHits)
	}
}

func TestLeaderboard(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r, err := f.engine.Start(ctx, f.owner.ID, "slouch_fiend")
	require.NoError(t, err)

	// Percentages are of the boss's 1000 HP, not of damage dealt so far:
	// a sole attacker who has chipped 100 HP holds 10%, not 100%.
	_, _, err = f.engine.LogDamage(ctx, r.ID, f.owner.ID, 100, "pushup")
	require.NoError(t, err)

	board, err := f.engine.Leaderboard(ctx, r.ID)
	require.NoError(t, err)
	require.Len(t, board, 2)
	assert.Equal(t, f.owner.ID, board[0].UserID)
	assert.InDelta(t, 10.0, board[0].DamagePercentage, 0.01)

	_, _, err = f.engine.LogDamage(ctx, r.ID, f.member.ID, 300, "squat")
	require.NoError(t, err)

	board, err = f.engine.Leaderboard(ctx, r.ID)
	require.NoError(t, err)
	require.Len(t, board, 2)

	assert.Equal(t, 1, board[0].Rank)
	assert.Equal(t, f.member.ID, board[0].UserID)
	assert.Equal(t, "member", board[0].Username)
	assert.InDelta(t, 30.0, board[0].DamagePercentage, 0.01)
	assert.Equal(t, 2, board[1].Rank)
	assert.InDelta(t, 10.0, board[1].DamagePercentage, 0.01)
}

func TestAbandon(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r, err := f.engine.Start(ctx, f.owner.ID, "slouch_fiend")
	require.NoError(t, err)

	_, err = f.engine.Abandon(ctx, f.member.ID, r.ID)
	assert.True(t, apperr.IsPermission(err))

	abandoned, err := f.engine.Abandon(ctx, f.owner.ID, r.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RaidStatusAbandoned, abandoned.Status)

	// No rewards on abandon; a new raid may start.
	assert.Empty(t, f.xp.granted)
	_, err = f.engine.Start(ctx, f.owner.ID, "slouch_fiend")
	require.NoError(t, err)

	_, err = f.engine.Abandon(ctx, f.owner.ID, r.ID)
	assert.True(t, apperr.IsState(err))
}
