package integration

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fitforge/server/model"
)

func adminPost(t *testing.T, ts *TestServer, path string) {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, ts.URL+path, nil)
	require.NoError(t, err)
	req.Header.Set("X-Admin-Key", AdminKey)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestDuelEndToEnd(t *testing.T) {
	ts := NewTestServer(t)

	nameA, nameB := UniqueID("duelA"), UniqueID("duelB")
	tokenA, _ := ts.Login(t, nameA, "pass1234")
	tokenB, _ := ts.Login(t, nameB, "pass1234")

	status, body := ts.PostJSON(t, tokenA, "/api/duels", map[string]string{
		"opponent":     nameB,
		"challenge_id": "pushup_sprint",
	})
	require.Equal(t, http.StatusCreated, status, "create duel: %v", body)
	duelID := int64(body["id"].(float64))
	require.Equal(t, "pending", body["status"])

	status, body = ts.PostJSON(t, tokenB, fmt.Sprintf("/api/duels/%d/accept", duelID), nil)
	require.Equal(t, http.StatusOK, status, "accept: %v", body)
	require.Equal(t, "active", body["status"])

	// Only push-ups count toward a push-up sprint.
	ts.SubmitWorkout(t, tokenA, "pushup", 40)
	ts.SubmitWorkout(t, tokenA, "squat", 90)
	ts.SubmitWorkout(t, tokenB, "pushup", 25)

	status, body = ts.GetJSON(t, tokenA, fmt.Sprintf("/api/duels/%d", duelID))
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(40), body["challenger_score"])
	assert.Equal(t, float64(25), body["opponent_score"])
	assert.Equal(t, "active", body["status"])

	// Force the duel window shut and let the sweep settle it.
	past := time.Now().UTC().Add(-time.Minute)
	require.NoError(t, ts.DB.Model(&model.Duel{}).
		Where("id = ?", duelID).
		Update("expires_at", past).Error)
	adminPost(t, ts, "/api/admin/sweep")

	status, body = ts.GetJSON(t, tokenB, fmt.Sprintf("/api/duels/%d", duelID))
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "completed", body["status"])
	assert.Equal(t, "challenger", body["winner"])

	_, me := ts.GetJSON(t, tokenA, "/api/me")
	assert.Equal(t, float64(1), me["user"].(map[string]interface{})["duel_wins"])
	_, me = ts.GetJSON(t, tokenB, "/api/me")
	assert.Equal(t, float64(1), me["user"].(map[string]interface{})["duel_losses"])
}

func TestPartyRaidEndToEnd(t *testing.T) {
	ts := NewTestServer(t)

	tokenA, userA := ts.Login(t, UniqueID("raidA"), "pass1234")
	tokenB, _ := ts.Login(t, UniqueID("raidB"), "pass1234")

	status, body := ts.PostJSON(t, tokenA, "/api/party", map[string]string{"name": "Iron Pact"})
	require.Equal(t, http.StatusCreated, status, "create party: %v", body)
	partyID := int64(body["id"].(float64))

	status, _ = ts.PostJSON(t, tokenB, fmt.Sprintf("/api/party/%d/join", partyID), nil)
	require.Equal(t, http.StatusOK, status)

	status, body = ts.PostJSON(t, tokenA, "/api/raids", map[string]string{"boss_id": "slouch_fiend"})
	require.Equal(t, http.StatusCreated, status, "start raid: %v", body)
	raidID := int64(body["id"].(float64))
	assert.Equal(t, float64(1000), body["hp_total"]) // 500 base + 250 per member

	// Workouts from both members chip away at the boss.
	resA := ts.SubmitWorkout(t, tokenA, "pushup", 50)
	require.Greater(t, resA["raid_damage"].(float64), float64(0))
	ts.SubmitWorkout(t, tokenB, "squat", 40)

	status, body = ts.GetJSON(t, tokenB, "/api/raids/active")
	require.Equal(t, http.StatusOK, status)
	raidBody := body["raid"].(map[string]interface{})
	assert.Less(t, raidBody["hp_remaining"].(float64), float64(1000))
	assert.Equal(t, "active", raidBody["status"])

	// Finish the boss off.
	_, _, err := ts.Raids.LogDamage(context.Background(), raidID, userA, 10000, "workout")
	require.NoError(t, err)

	status, body = ts.GetJSON(t, tokenA, fmt.Sprintf("/api/raids/%d", raidID))
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "victory", body["status"])
	assert.Equal(t, true, body["victory"])
	assert.Equal(t, float64(0), body["hp_remaining"])

	status, body = ts.GetJSON(t, tokenB, fmt.Sprintf("/api/raids/%d/leaderboard", raidID))
	require.Equal(t, http.StatusOK, status)
	board := body["leaderboard"].([]interface{})
	require.Len(t, board, 2)
	top := board[0].(map[string]interface{})
	assert.Equal(t, float64(1), top["rank"])

	// Every member is paid on victory.
	_, me := ts.GetJSON(t, tokenB, "/api/me")
	assert.Equal(t, float64(1), me["user"].(map[string]interface{})["raids_won"])
	status, body = ts.GetJSON(t, tokenB, "/api/items")
	require.Equal(t, http.StatusOK, status)
	assert.Greater(t, body["count"].(float64), float64(0))
}

func TestPartyLeaveDissolves(t *testing.T) {
	ts := NewTestServer(t)

	tokenA, _ := ts.Login(t, UniqueID("soloA"), "pass1234")

	status, _ := ts.PostJSON(t, tokenA, "/api/party", map[string]string{"name": "Short Lived"})
	require.Equal(t, http.StatusCreated, status)

	status, _ = ts.PostJSON(t, tokenA, "/api/party/leave", nil)
	require.Equal(t, http.StatusOK, status)

	status, body := ts.GetJSON(t, tokenA, "/api/party")
	require.Equal(t, http.StatusOK, status)
	assert.Nil(t, body["party"])
}
