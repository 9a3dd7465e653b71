package rest

import (
	"net/http"

	"github.com/fitforge/server/game/achievement"
	"github.com/fitforge/server/game/progression"
	mw "github.com/fitforge/server/middleware"
	"github.com/gin-gonic/gin"
)

// AchievementHandler serves the achievement endpoints.
type AchievementHandler struct {
	achievements *achievement.Engine
	prog         *progression.Service
}

// NewAchievementHandler creates an AchievementHandler.
func NewAchievementHandler(achievements *achievement.Engine, prog *progression.Service) *AchievementHandler {
	return &AchievementHandler{achievements: achievements, prog: prog}
}

// List returns every achievement with the user's unlock state and progress.
// GET /api/achievements
func (h *AchievementHandler) List(c *gin.Context) {
	userID := mw.GetUserID(c)
	snap, err := h.prog.Snapshot(c.Request.Context(), userID)
	if err != nil {
		writeErr(c, err)
		return
	}
	statuses, err := h.achievements.Progress(c.Request.Context(), snap)
	if err != nil {
		writeErr(c, err)
		return
	}
	unlocked := 0
	for _, s := range statuses {
		if s.Unlocked {
			unlocked++
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"achievements": statuses,
		"unlocked":     unlocked,
		"total":        len(statuses),
	})
}
