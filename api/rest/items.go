package rest

import (
	"net/http"

	"github.com/fitforge/server/game/item"
	mw "github.com/fitforge/server/middleware"
	"github.com/gin-gonic/gin"
)

// ItemHandler serves the inventory and equipment endpoints.
type ItemHandler struct {
	items *item.Service
}

// NewItemHandler creates an ItemHandler.
func NewItemHandler(items *item.Service) *ItemHandler {
	return &ItemHandler{items: items}
}

// List returns the user's inventory (salvaged items excluded).
// GET /api/items
func (h *ItemHandler) List(c *gin.Context) {
	userID := mw.GetUserID(c)
	items, err := h.items.List(c.Request.Context(), userID)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "count": len(items)})
}

// Get returns one owned item.
// GET /api/items/:id
func (h *ItemHandler) Get(c *gin.Context) {
	userID := mw.GetUserID(c)
	it, err := h.items.Get(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, it)
}

// Equip equips an item, displacing whatever held its slot.
// POST /api/items/:id/equip
func (h *ItemHandler) Equip(c *gin.Context) {
	userID := mw.GetUserID(c)
	if err := h.items.Equip(c.Request.Context(), userID, c.Param("id")); err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// Unequip removes an item from its slot.
// POST /api/items/:id/unequip
func (h *ItemHandler) Unequip(c *gin.Context) {
	userID := mw.GetUserID(c)
	if err := h.items.Unequip(c.Request.Context(), userID, c.Param("id")); err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// Salvage breaks an item down. The record survives for history but leaves
// the inventory.
// POST /api/items/:id/salvage
func (h *ItemHandler) Salvage(c *gin.Context) {
	userID := mw.GetUserID(c)
	if err := h.items.Salvage(c.Request.Context(), userID, c.Param("id")); err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// Loadout returns the currently equipped item per slot.
// GET /api/items/loadout
func (h *ItemHandler) Loadout(c *gin.Context) {
	userID := mw.GetUserID(c)
	loadout, err := h.items.Loadout(c.Request.Context(), userID)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"loadout": loadout})
}
