package rest

import (
	"net/http"
	"strconv"
	"time"

	"github.com/fitforge/server/game/progression"
	mw "github.com/fitforge/server/middleware"
	"github.com/fitforge/server/model"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ProfileHandler serves the user profile and workout endpoints.
type ProfileHandler struct {
	db         *gorm.DB
	prog       *progression.Service
	dispatcher *progression.Dispatcher
}

// NewProfileHandler creates a ProfileHandler.
func NewProfileHandler(db *gorm.DB, prog *progression.Service, dispatcher *progression.Dispatcher) *ProfileHandler {
	return &ProfileHandler{db: db, prog: prog, dispatcher: dispatcher}
}

// Me returns the authenticated user's profile with level progress.
// GET /api/me
func (h *ProfileHandler) Me(c *gin.Context) {
	userID := mw.GetUserID(c)
	u, err := h.prog.User(c.Request.Context(), userID)
	if err != nil {
		writeErr(c, err)
		return
	}

	next := progression.XPForLevel(u.Level + 1)
	c.JSON(http.StatusOK, gin.H{
		"user":          u,
		"xp_next_level": next,
		"xp_to_go":      next - u.XP,
	})
}

type workoutRequest struct {
	Exercise string `json:"exercise" binding:"required,min=1,max=32"`
	Reps     int    `json:"reps" binding:"required,min=1"`
}

// SubmitWorkout records a workout and fans it out to every contest engine.
// POST /api/workouts
func (h *ProfileHandler) SubmitWorkout(c *gin.Context) {
	var req workoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := mw.GetUserID(c)
	res, err := h.dispatcher.SubmitWorkout(c.Request.Context(), userID, req.Exercise, req.Reps)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Workouts returns the user's workout history, newest first.
// GET /api/workouts?limit=50&since=2026-08-01T00:00:00Z
func (h *ProfileHandler) Workouts(c *gin.Context) {
	userID := mw.GetUserID(c)

	limit := 50
	if l, err := strconv.Atoi(c.Query("limit")); err == nil && l > 0 && l <= 200 {
		limit = l
	}

	q := h.db.WithContext(c.Request.Context()).
		Where("user_id = ?", userID).
		Order("id DESC").
		Limit(limit)
	if since, err := time.Parse(time.RFC3339, c.Query("since")); err == nil {
		q = q.Where("created_at >= ?", since)
	}

	var workouts []model.Workout
	if err := q.Find(&workouts).Error; err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"workouts": workouts, "count": len(workouts)})
}
