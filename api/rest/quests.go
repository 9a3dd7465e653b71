package rest

import (
	"net/http"
	"strconv"

	"github.com/fitforge/server/game/progression"
	"github.com/fitforge/server/game/quest"
	mw "github.com/fitforge/server/middleware"
	"github.com/gin-gonic/gin"
)

// QuestHandler serves the quest endpoints.
type QuestHandler struct {
	quests *quest.Engine
	prog   *progression.Service
}

// NewQuestHandler creates a QuestHandler.
func NewQuestHandler(quests *quest.Engine, prog *progression.Service) *QuestHandler {
	return &QuestHandler{quests: quests, prog: prog}
}

// List returns the user's live quests, materializing any open window first.
// GET /api/quests
func (h *QuestHandler) List(c *gin.Context) {
	userID := mw.GetUserID(c)
	u, err := h.prog.User(c.Request.Context(), userID)
	if err != nil {
		writeErr(c, err)
		return
	}
	quests, err := h.quests.List(c.Request.Context(), userID, u.Level)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"quests": quests, "count": len(quests)})
}

// Claim pays out a completed quest.
// POST /api/quests/:id/claim
func (h *QuestHandler) Claim(c *gin.Context) {
	questID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	userID := mw.GetUserID(c)
	q, rewards, err := h.quests.Claim(c.Request.Context(), userID, questID)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"quest":     q,
		"xp_reward": q.XPReward,
		"items":     rewards,
	})
}
