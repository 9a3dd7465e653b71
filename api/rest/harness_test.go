package rest_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fitforge/server/activity"
	"github.com/fitforge/server/api/rest"
	"github.com/fitforge/server/cache"
	"github.com/fitforge/server/catalog"
	"github.com/fitforge/server/config"
	"github.com/fitforge/server/game/achievement"
	"github.com/fitforge/server/game/duel"
	"github.com/fitforge/server/game/item"
	"github.com/fitforge/server/game/party"
	"github.com/fitforge/server/game/progression"
	"github.com/fitforge/server/game/quest"
	"github.com/fitforge/server/game/raid"
	mw "github.com/fitforge/server/middleware"
	"github.com/fitforge/server/scheduler"
	"github.com/fitforge/server/testutil"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// env is a fully wired server for handler tests.
type env struct {
	router *gin.Engine
	db     *gorm.DB
	cache  cache.Cache
	sec    config.SecurityConfig
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := testutil.SetupTestDB(t)
	c := testutil.SetupTestCache(t)
	logger := zap.NewNop()
	sec := config.SecurityConfig{JWTSecret: "test-secret", JWTTTLH: 72 * time.Hour}
	pcfg := config.ProgressionConfig{
		DailyQuestCount:  3,
		WeeklyQuestCount: 2,
		MaxPartySize:     5,
		WorkoutXPPerRep:  2,
		RetryAttempts:    3,
	}
	cat := catalog.NewLoader("")
	feed := activity.New(db, c, logger)
	t.Cleanup(func() { feed.Stop(nil) })

	prog := progression.NewService(db, c, feed, pcfg, logger)
	items := item.NewService(db, item.NewGenerator(cat, nil, logger), logger)
	quests := quest.NewEngine(db, cat, prog, items, pcfg, logger)
	achievements := achievement.NewEngine(db, prog, feed, logger)
	duels := duel.NewEngine(db, cat, prog, feed, pcfg, logger)
	parties := party.NewService(db, pcfg, logger)
	raids := raid.NewEngine(db, cat, parties, prog, items, feed, pcfg, logger)
	dispatcher := progression.NewDispatcher(prog, quests, achievements, duels, raids, logger)
	sched := scheduler.New(logger)
	t.Cleanup(sched.Stop)

	authH := rest.NewAuthHandler(db, c, sec)
	profileH := rest.NewProfileHandler(db, prog, dispatcher)
	itemH := rest.NewItemHandler(items)
	questH := rest.NewQuestHandler(quests, prog)
	achH := rest.NewAchievementHandler(achievements, prog)
	duelH := rest.NewDuelHandler(duels)
	raidH := rest.NewRaidHandler(raids, parties)
	partyH := rest.NewPartyHandler(parties)
	rankH := rest.NewRankingHandler(prog, feed)
	adminH := rest.NewAdminHandler(db, prog, items, quests, duels, sched, logger)

	r := gin.New()
	api := r.Group("/api")
	api.POST("/auth/login", authH.Login)
	api.POST("/auth/logout", mw.Auth(sec, c), authH.Logout)
	api.POST("/auth/refresh", mw.Auth(sec, c), authH.Refresh)

	authed := api.Group("")
	authed.Use(mw.Auth(sec, c))
	authed.GET("/me", profileH.Me)
	authed.POST("/workouts", profileH.SubmitWorkout)
	authed.GET("/workouts", profileH.Workouts)
	authed.GET("/items", itemH.List)
	authed.GET("/items/loadout", itemH.Loadout)
	authed.GET("/items/:id", itemH.Get)
	authed.POST("/items/:id/equip", itemH.Equip)
	authed.POST("/items/:id/unequip", itemH.Unequip)
	authed.POST("/items/:id/salvage", itemH.Salvage)
	authed.GET("/quests", questH.List)
	authed.POST("/quests/:id/claim", questH.Claim)
	authed.GET("/achievements", achH.List)
	authed.POST("/duels", duelH.Create)
	authed.GET("/duels", duelH.List)
	authed.GET("/duels/challenges", duelH.Challenges)
	authed.GET("/duels/:id", duelH.Get)
	authed.POST("/duels/:id/accept", duelH.Accept)
	authed.POST("/duels/:id/decline", duelH.Decline)
	authed.POST("/party", partyH.Create)
	authed.GET("/party", partyH.Mine)
	authed.POST("/party/:id/join", partyH.Join)
	authed.POST("/party/leave", partyH.Leave)
	authed.POST("/raids", raidH.Start)
	authed.GET("/raids/bosses", raidH.Bosses)
	authed.GET("/raids/active", raidH.Active)
	authed.GET("/raids/:id", raidH.Get)
	authed.GET("/raids/:id/leaderboard", raidH.Leaderboard)
	authed.POST("/raids/:id/abandon", raidH.Abandon)
	authed.GET("/activity", rankH.Feed)

	api.GET("/ranking/xp", rankH.TopXP)

	admin := api.Group("/admin")
	admin.Use(rest.AdminAuth("test-admin-key"))
	admin.GET("/metrics", adminH.Metrics)
	admin.POST("/users/:id/ban", adminH.BanUser)
	admin.POST("/users/:id/grant-xp", adminH.GrantXP)
	admin.POST("/users/:id/grant-item", adminH.GrantItem)
	admin.POST("/sweep", adminH.Sweep)

	return &env{router: r, db: db, cache: c, sec: sec}
}

// login registers (or logs into) a user and returns a bearer token.
func (e *env) login(t *testing.T, username string) string {
	t.Helper()
	w := e.postJSON("/api/auth/login", map[string]string{
		"username": username,
		"password": "pass1234",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func (e *env) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *env) postJSON(path string, body interface{}) *httptest.ResponseRecorder {
	return e.do(http.MethodPost, path, "", body)
}

func (e *env) get(path, token string) *httptest.ResponseRecorder {
	return e.do(http.MethodGet, path, token, nil)
}

func (e *env) post(path, token string, body interface{}) *httptest.ResponseRecorder {
	return e.do(http.MethodPost, path, token, body)
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}
