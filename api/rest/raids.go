package rest

import (
	"net/http"
	"strconv"

	"github.com/fitforge/server/game/party"
	"github.com/fitforge/server/game/raid"
	mw "github.com/fitforge/server/middleware"
	"github.com/gin-gonic/gin"
)

// RaidHandler serves the raid endpoints.
type RaidHandler struct {
	raids   *raid.Engine
	parties *party.Service
}

// NewRaidHandler creates a RaidHandler.
func NewRaidHandler(raids *raid.Engine, parties *party.Service) *RaidHandler {
	return &RaidHandler{raids: raids, parties: parties}
}

type startRaidRequest struct {
	BossID string `json:"boss_id" binding:"required"`
}

// Start opens a raid for the caller's party.
// POST /api/raids
func (h *RaidHandler) Start(c *gin.Context) {
	var req startRaidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := mw.GetUserID(c)
	r, err := h.raids.Start(c.Request.Context(), userID, req.BossID)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, r)
}

// Bosses lists the bosses the caller's party size qualifies for.
// GET /api/raids/bosses
func (h *RaidHandler) Bosses(c *gin.Context) {
	userID := mw.GetUserID(c)
	bosses, err := h.raids.AvailableBosses(c.Request.Context(), userID)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bosses": bosses, "count": len(bosses)})
}

// Active returns the caller's party's active raid, if any.
// GET /api/raids/active
func (h *RaidHandler) Active(c *gin.Context) {
	userID := mw.GetUserID(c)
	p, err := h.parties.ForUser(c.Request.Context(), userID)
	if err != nil {
		writeErr(c, err)
		return
	}
	if p == nil {
		c.JSON(http.StatusOK, gin.H{"raid": nil})
		return
	}
	r, err := h.raids.ActiveForParty(c.Request.Context(), p.ID)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"raid": r})
}

// Get returns one raid.
// GET /api/raids/:id
func (h *RaidHandler) Get(c *gin.Context) {
	raidID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	r, err := h.raids.Get(c.Request.Context(), raidID)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

// Leaderboard returns damage contributions ranked by total damage.
// GET /api/raids/:id/leaderboard
func (h *RaidHandler) Leaderboard(c *gin.Context) {
	raidID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	board, err := h.raids.Leaderboard(c.Request.Context(), raidID)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"leaderboard": board})
}

// Abandon cancels an active raid.
// POST /api/raids/:id/abandon
func (h *RaidHandler) Abandon(c *gin.Context) {
	raidID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	userID := mw.GetUserID(c)
	r, err := h.raids.Abandon(c.Request.Context(), userID, raidID)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}
