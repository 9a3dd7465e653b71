package rest

import (
	"net/http"
	"strconv"

	"github.com/fitforge/server/game/party"
	mw "github.com/fitforge/server/middleware"
	"github.com/gin-gonic/gin"
)

// PartyHandler serves the party endpoints.
type PartyHandler struct {
	parties *party.Service
}

// NewPartyHandler creates a PartyHandler.
func NewPartyHandler(parties *party.Service) *PartyHandler {
	return &PartyHandler{parties: parties}
}

type createPartyRequest struct {
	Name string `json:"name" binding:"required,min=2,max=64"`
}

// Create makes a new party owned by the caller.
// POST /api/party
func (h *PartyHandler) Create(c *gin.Context) {
	var req createPartyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := mw.GetUserID(c)
	p, err := h.parties.Create(c.Request.Context(), userID, req.Name)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

// Mine returns the caller's party and its members.
// GET /api/party
func (h *PartyHandler) Mine(c *gin.Context) {
	userID := mw.GetUserID(c)
	p, err := h.parties.ForUser(c.Request.Context(), userID)
	if err != nil {
		writeErr(c, err)
		return
	}
	if p == nil {
		c.JSON(http.StatusOK, gin.H{"party": nil})
		return
	}
	members, err := h.parties.Members(c.Request.Context(), p.ID)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"party": p, "members": members})
}

// Join adds the caller to an existing party.
// POST /api/party/:id/join
func (h *PartyHandler) Join(c *gin.Context) {
	partyID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	userID := mw.GetUserID(c)
	if err := h.parties.Join(c.Request.Context(), userID, partyID); err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// Leave removes the caller from their party.
// POST /api/party/leave
func (h *PartyHandler) Leave(c *gin.Context) {
	userID := mw.GetUserID(c)
	if err := h.parties.Leave(c.Request.Context(), userID); err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
