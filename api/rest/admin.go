package rest

import (
	"net/http"
	"strconv"

	"github.com/fitforge/server/game/duel"
	"github.com/fitforge/server/game/item"
	"github.com/fitforge/server/game/progression"
	"github.com/fitforge/server/game/quest"
	"github.com/fitforge/server/model"
	"github.com/fitforge/server/scheduler"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AdminHandler handles admin-only REST endpoints.
// Routes should be protected by the admin key and IP whitelist middleware.
type AdminHandler struct {
	db     *gorm.DB
	prog   *progression.Service
	items  *item.Service
	quests *quest.Engine
	duels  *duel.Engine
	sched  *scheduler.Scheduler
	logger *zap.Logger
}

// NewAdminHandler creates an AdminHandler.
func NewAdminHandler(db *gorm.DB, prog *progression.Service, items *item.Service, quests *quest.Engine, duels *duel.Engine, sched *scheduler.Scheduler, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{db: db, prog: prog, items: items, quests: quests, duels: duels, sched: sched, logger: logger}
}

// Metrics returns server health metrics.
// GET /api/admin/metrics
func (h *AdminHandler) Metrics(c *gin.Context) {
	var users, activeDuels, activeRaids, liveQuests int64
	h.db.Model(&model.User{}).Count(&users)
	h.db.Model(&model.Duel{}).Where("status = ?", model.DuelStatusActive).Count(&activeDuels)
	h.db.Model(&model.Raid{}).Where("status = ?", model.RaidStatusActive).Count(&activeRaids)
	h.db.Model(&model.QuestInstance{}).Where("claimed = ?", false).Count(&liveQuests)

	c.JSON(http.StatusOK, gin.H{
		"users":           users,
		"active_duels":    activeDuels,
		"active_raids":    activeRaids,
		"live_quests":     liveQuests,
		"scheduler_tasks": h.sched.ListTickers(),
	})
}

// BanUser bans or unbans a user.
// POST /api/admin/users/:id/ban
func (h *AdminHandler) BanUser(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var req struct {
		Ban bool `json:"ban"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	status := model.UserStatusActive
	if req.Ban {
		status = model.UserStatusBanned
	}
	res := h.db.Model(&model.User{}).Where("id = ?", userID).Update("status", status)
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	h.logger.Info("admin ban update", zap.Int64("user_id", userID), zap.Bool("ban", req.Ban))
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// GrantXP credits a user with XP, e.g. for support compensation.
// POST /api/admin/users/:id/grant-xp
func (h *AdminHandler) GrantXP(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var req struct {
		Amount int    `json:"amount" binding:"required,min=1"`
		Reason string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	reason := req.Reason
	if reason == "" {
		reason = "admin"
	}

	level, leveledUp, err := h.prog.GrantXP(c.Request.Context(), userID, req.Amount, reason)
	if err != nil {
		writeErr(c, err)
		return
	}
	h.logger.Info("admin xp grant",
		zap.Int64("user_id", userID), zap.Int("amount", req.Amount), zap.String("reason", reason))
	c.JSON(http.StatusOK, gin.H{"level": level, "leveled_up": leveledUp})
}

// GrantItem mints an item into a user's inventory.
// POST /api/admin/users/:id/grant-item
func (h *AdminHandler) GrantItem(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var req struct {
		Tier string `json:"tier" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var exists int64
	h.db.Model(&model.User{}).Where("id = ?", userID).Count(&exists)
	if exists == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	granted, err := h.items.AwardEventItems(c.Request.Context(), userID, req.Tier)
	if err != nil {
		writeErr(c, err)
		return
	}
	h.logger.Info("admin item grant",
		zap.Int64("user_id", userID), zap.String("tier", req.Tier))
	c.JSON(http.StatusOK, gin.H{"items": granted})
}

// Sweep runs the expiry sweeps immediately instead of waiting for the
// scheduler tick.
// POST /api/admin/sweep
func (h *AdminHandler) Sweep(c *gin.Context) {
	ctx := c.Request.Context()
	quests, qerr := h.quests.SweepExpired(ctx)
	duels, derr := h.duels.SweepExpired(ctx)
	if qerr != nil || derr != nil {
		h.logger.Error("admin sweep failed", zap.NamedError("quests", qerr), zap.NamedError("duels", derr))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "sweep failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"quests_swept":  quests,
		"duels_settled": duels,
	})
}
