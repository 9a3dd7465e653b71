package rest

import (
	"net/http"
	"strconv"

	"github.com/fitforge/server/activity"
	"github.com/fitforge/server/game/progression"
	mw "github.com/fitforge/server/middleware"
	"github.com/gin-gonic/gin"
)

// RankingHandler serves the leaderboard and activity feed endpoints.
type RankingHandler struct {
	prog *progression.Service
	feed *activity.Sink
}

// NewRankingHandler creates a RankingHandler.
func NewRankingHandler(prog *progression.Service, feed *activity.Sink) *RankingHandler {
	return &RankingHandler{prog: prog, feed: feed}
}

// RankEntry is one row in the XP leaderboard.
type RankEntry struct {
	Rank     int    `json:"rank"`
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Level    int    `json:"level"`
	XP       int64  `json:"xp"`
}

// TopXP returns the top users sorted by experience.
// GET /api/ranking/xp?limit=20
func (h *RankingHandler) TopXP(c *gin.Context) {
	limit := 20
	if l, err := strconv.Atoi(c.Query("limit")); err == nil && l > 0 && l <= 100 {
		limit = l
	}

	users, err := h.prog.TopXP(c.Request.Context(), limit)
	if err != nil {
		writeErr(c, err)
		return
	}
	entries := make([]RankEntry, len(users))
	for i, u := range users {
		entries[i] = RankEntry{
			Rank:     i + 1,
			UserID:   u.ID,
			Username: u.Username,
			Level:    u.Level,
			XP:       u.XP,
		}
	}
	c.JSON(http.StatusOK, gin.H{"ranking": entries})
}

// Feed returns recent activity, optionally scoped to the caller.
// GET /api/activity?mine=1&limit=50
func (h *RankingHandler) Feed(c *gin.Context) {
	limit := 50
	if l, err := strconv.Atoi(c.Query("limit")); err == nil && l > 0 && l <= 100 {
		limit = l
	}

	var userID *int64
	if c.Query("mine") == "1" {
		id := mw.GetUserID(c)
		userID = &id
	}

	entries, err := h.feed.Recent(c.Request.Context(), userID, limit)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"activity": entries, "count": len(entries)})
}
