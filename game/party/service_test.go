package party

import (
	"context"
	"testing"

	"github.com/fitforge/server/apperr"
	"github.com/fitforge/server/config"
	"github.com/fitforge/server/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	return NewService(db, config.ProgressionConfig{MaxPartySize: 3}, zap.NewNop()), db
}

func TestCreateAndJoin(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	a := testutil.CreateUser(t, db, "alice", 1)
	b := testutil.CreateUser(t, db, "bob", 1)

	p, err := svc.Create(ctx, a.ID, "Iron Circle")
	require.NoError(t, err)
	assert.Equal(t, a.ID, p.OwnerID)

	require.NoError(t, svc.Join(ctx, b.ID, p.ID))

	ids, err := svc.MemberIDs(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{a.ID, b.ID}, ids)

	// Creator cannot start a second party while in one.
	_, err = svc.Create(ctx, a.ID, "Second")
	assert.True(t, apperr.IsState(err))
	// Nor can a member join twice.
	err = svc.Join(ctx, b.ID, p.ID)
	assert.True(t, apperr.IsState(err))
}

func TestJoinFullParty(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	owner := testutil.CreateUser(t, db, "owner", 1)
	p, err := svc.Create(ctx, owner.ID, "Full House")
	require.NoError(t, err)

	u2 := testutil.CreateUser(t, db, "m2", 1)
	u3 := testutil.CreateUser(t, db, "m3", 1)
	require.NoError(t, svc.Join(ctx, u2.ID, p.ID))
	require.NoError(t, svc.Join(ctx, u3.ID, p.ID))

	late := testutil.CreateUser(t, db, "late", 1)
	err = svc.Join(ctx, late.ID, p.ID)
	assert.True(t, apperr.IsState(err))
}

func TestLeaveTransfersOwnership(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	a := testutil.CreateUser(t, db, "alice", 1)
	b := testutil.CreateUser(t, db, "bob", 1)

	p, err := svc.Create(ctx, a.ID, "Handover")
	require.NoError(t, err)
	require.NoError(t, svc.Join(ctx, b.ID, p.ID))

	require.NoError(t, svc.Leave(ctx, a.ID))

	fresh, err := svc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, b.ID, fresh.OwnerID)

	// Last member leaving dissolves the party.
	require.NoError(t, svc.Leave(ctx, b.ID))
	_, err = svc.Get(ctx, p.ID)
	assert.True(t, apperr.IsNotFound(err))
}

func TestLeaveNotInParty(t *testing.T) {
	svc, db := newTestService(t)
	u := testutil.CreateUser(t, db, "loner", 1)
	err := svc.Leave(context.Background(), u.ID)
	assert.True(t, apperr.IsState(err))
}

func TestForUser(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	a := testutil.CreateUser(t, db, "alice", 1)

	p, err := svc.ForUser(ctx, a.ID)
	require.NoError(t, err)
	assert.Nil(t, p)

	created, err := svc.Create(ctx, a.ID, "Mine")
	require.NoError(t, err)

	p, err = svc.ForUser(ctx, a.ID)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, created.ID, p.ID)
}
