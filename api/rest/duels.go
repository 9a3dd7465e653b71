package rest

import (
	"net/http"
	"strconv"

	"github.com/fitforge/server/game/duel"
	mw "github.com/fitforge/server/middleware"
	"github.com/gin-gonic/gin"
)

// DuelHandler serves the duel endpoints.
type DuelHandler struct {
	duels *duel.Engine
}

// NewDuelHandler creates a DuelHandler.
func NewDuelHandler(duels *duel.Engine) *DuelHandler {
	return &DuelHandler{duels: duels}
}

type createDuelRequest struct {
	Opponent    string `json:"opponent" binding:"required,min=2,max=32"`
	ChallengeID string `json:"challenge_id" binding:"required"`
}

// Create issues a challenge.
// POST /api/duels
func (h *DuelHandler) Create(c *gin.Context) {
	var req createDuelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := mw.GetUserID(c)
	d, err := h.duels.Create(c.Request.Context(), userID, req.Opponent, req.ChallengeID)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, d)
}

// Challenges lists the duel challenge catalog.
// GET /api/duels/challenges
func (h *DuelHandler) Challenges(c *gin.Context) {
	challenges := h.duels.Challenges()
	c.JSON(http.StatusOK, gin.H{"challenges": challenges, "count": len(challenges)})
}

// List returns the user's duels.
// GET /api/duels
func (h *DuelHandler) List(c *gin.Context) {
	userID := mw.GetUserID(c)
	duels, err := h.duels.List(c.Request.Context(), userID)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"duels": duels, "count": len(duels)})
}

// Get returns one duel the user participates in.
// GET /api/duels/:id
func (h *DuelHandler) Get(c *gin.Context) {
	duelID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	userID := mw.GetUserID(c)
	d, err := h.duels.Get(c.Request.Context(), userID, duelID)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

// Accept opens the scoring window.
// POST /api/duels/:id/accept
func (h *DuelHandler) Accept(c *gin.Context) {
	h.answer(c, true)
}

// Decline rejects a pending duel.
// POST /api/duels/:id/decline
func (h *DuelHandler) Decline(c *gin.Context) {
	h.answer(c, false)
}

func (h *DuelHandler) answer(c *gin.Context, accept bool) {
	duelID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	userID := mw.GetUserID(c)

	var d interface{}
	if accept {
		d, err = h.duels.Accept(c.Request.Context(), userID, duelID)
	} else {
		d, err = h.duels.Decline(c.Request.Context(), userID, duelID)
	}
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}
