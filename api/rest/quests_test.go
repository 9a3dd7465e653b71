package rest_test

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/fitforge/server/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuestListMaterializes(t *testing.T) {
	e := newEnv(t)
	token := e.login(t, "quester")

	w := e.get("/api/quests", token)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	assert.Equal(t, float64(6), resp["count"], "3 daily + 2 weekly + 1 milestone")

	// Listing again does not duplicate.
	w = e.get("/api/quests", token)
	assert.Equal(t, float64(6), decode(t, w)["count"])
}

func TestQuestClaimFlow(t *testing.T) {
	e := newEnv(t)
	token := e.login(t, "claimant")

	// Plant a completed quest directly.
	exp := time.Now().UTC().Add(time.Hour)
	done := time.Now().UTC()
	var user model.User
	require.NoError(t, e.db.Where("username = ?", "claimant").First(&user).Error)
	q := &model.QuestInstance{
		UserID: user.ID, TemplateID: "t", Type: model.QuestTypeDaily, Name: "planted",
		Metric: model.QuestMetricTotalReps, Target: 10, Progress: 10,
		Completed: true, CompletedAt: &done, XPReward: 80, ItemTier: "rare", ExpiresAt: &exp,
	}
	require.NoError(t, e.db.Create(q).Error)

	w := e.post(fmt.Sprintf("/api/quests/%d/claim", q.ID), token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode(t, w)
	assert.Equal(t, float64(80), resp["xp_reward"])
	assert.NotEmpty(t, resp["items"], "rare tier quest pays an item")

	// Double claim is a conflict.
	w = e.post(fmt.Sprintf("/api/quests/%d/claim", q.ID), token, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	// The reward item shows up in the inventory.
	w = e.get("/api/items", token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decode(t, w)["count"])
}

func TestQuestClaimIncomplete(t *testing.T) {
	e := newEnv(t)
	token := e.login(t, "eager")

	var user model.User
	require.NoError(t, e.db.Where("username = ?", "eager").First(&user).Error)
	exp := time.Now().UTC().Add(time.Hour)
	q := &model.QuestInstance{
		UserID: user.ID, TemplateID: "t", Type: model.QuestTypeDaily, Name: "n",
		Metric: model.QuestMetricTotalReps, Target: 100, Progress: 5, XPReward: 80, ExpiresAt: &exp,
	}
	require.NoError(t, e.db.Create(q).Error)

	w := e.post(fmt.Sprintf("/api/quests/%d/claim", q.ID), token, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = e.post("/api/quests/99999/claim", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestWorkoutAdvancesQuests(t *testing.T) {
	e := newEnv(t)
	token := e.login(t, "grinder")

	// Materialize quests, then work out.
	e.get("/api/quests", token)
	w := e.post("/api/workouts", token, map[string]interface{}{"exercise": "pushup", "reps": 25})
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	assert.NotEmpty(t, resp["quests"], "workout touches daily quests")
}
