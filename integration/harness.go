package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"github.com/fitforge/server/activity"
	apirest "github.com/fitforge/server/api/rest"
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
)

// AdminKey is the admin API key every test server is started with.
const AdminKey = "integration-admin-key"

// TestServer wraps a real HTTP server with every game subsystem wired together.
type TestServer struct {
	DB         *gorm.DB
	Cache      cache.Cache
	Catalog    *catalog.Loader
	Prog       *progression.Service
	Quests     *quest.Engine
	Duels      *duel.Engine
	Raids      *raid.Engine
	Parties    *party.Service
	Dispatcher *progression.Dispatcher
	Server     *httptest.Server
	URL        string // http://127.0.0.1:<port>
	Sec        config.SecurityConfig
}

// NewTestServer creates a fully wired server for integration testing.
// It mirrors the dependency wiring in main.go.
func NewTestServer(t *testing.T) *TestServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	// ---- Infrastructure ----
	db := testutil.SetupTestDB(t)
	c := testutil.SetupTestCache(t)
	logger := zap.NewNop()

	sec := config.SecurityConfig{
		JWTSecret:      "integration-test-secret",
		JWTTTLH:        72 * time.Hour,
		RateLimitRPS:   1000,
		RateLimitBurst: 2000,
	}
	pcfg := config.ProgressionConfig{
		DailyQuestCount:  3,
		WeeklyQuestCount: 2,
		MaxPartySize:     5,
		WorkoutXPPerRep:  2,
		RetryAttempts:    3,
	}

	// ---- Game systems ----
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

	// ---- Handlers ----
	authH := apirest.NewAuthHandler(db, c, sec)
	profileH := apirest.NewProfileHandler(db, prog, dispatcher)
	itemH := apirest.NewItemHandler(items)
	questH := apirest.NewQuestHandler(quests, prog)
	achH := apirest.NewAchievementHandler(achievements, prog)
	duelH := apirest.NewDuelHandler(duels)
	raidH := apirest.NewRaidHandler(raids, parties)
	partyH := apirest.NewPartyHandler(parties)
	rankH := apirest.NewRankingHandler(prog, feed)
	adminH := apirest.NewAdminHandler(db, prog, items, quests, duels, sched, logger)

	// ---- Gin HTTP server (mirrors main.go) ----
	r := gin.New()
	r.Use(mw.TraceID(), mw.Recovery(logger))
	r.Use(mw.RateLimit(rate.Limit(sec.RateLimitRPS), sec.RateLimitBurst))

	r.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(200, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	{
		authG := api.Group("/auth")
		authG.POST("/login", authH.Login)
		authG.POST("/logout", mw.Auth(sec, c), authH.Logout)
		authG.POST("/refresh", mw.Auth(sec, c), authH.Refresh)

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
		admin.Use(apirest.AdminAuth(AdminKey))
		admin.GET("/metrics", adminH.Metrics)
		admin.POST("/users/:id/ban", adminH.BanUser)
		admin.POST("/users/:id/grant-xp", adminH.GrantXP)
		admin.POST("/users/:id/grant-item", adminH.GrantItem)
		admin.POST("/sweep", adminH.Sweep)
	}

	server := httptest.NewServer(r)
	t.Cleanup(server.Close)

	return &TestServer{
		DB:         db,
		Cache:      c,
		Catalog:    cat,
		Prog:       prog,
		Quests:     quests,
		Duels:      duels,
		Raids:      raids,
		Parties:    parties,
		Dispatcher: dispatcher,
		Server:     server,
		URL:        server.URL,
		Sec:        sec,
	}
}

// Close shuts down the HTTP server. t.Cleanup also handles this, so calling
// Close is optional.
func (ts *TestServer) Close() {
	ts.Server.Close()
}

// Login registers (or logs into) the given user over HTTP and returns a
// bearer token plus the user ID.
func (ts *TestServer) Login(t *testing.T, username, password string) (string, int64) {
	t.Helper()
	status, body := ts.PostJSON(t, "", "/api/auth/login", map[string]string{
		"username": username,
		"password": password,
	})
	require.Equal(t, http.StatusOK, status, "login %s: %v", username, body)
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)
	uid, _ := body["user_id"].(float64)
	return token, int64(uid)
}

// SubmitWorkout posts a workout for the given token and returns the decoded
// response body.
func (ts *TestServer) SubmitWorkout(t *testing.T, token, exercise string, reps int) map[string]interface{} {
	t.Helper()
	status, body := ts.PostJSON(t, token, "/api/workouts", map[string]interface{}{
		"exercise": exercise,
		"reps":     reps,
	})
	require.Equal(t, http.StatusOK, status, "submit workout: %v", body)
	return body
}

// PostJSON performs an authenticated POST and decodes the JSON response.
func (ts *TestServer) PostJSON(t *testing.T, token, path string, payload interface{}) (int, map[string]interface{}) {
	t.Helper()
	return ts.doJSON(t, http.MethodPost, token, path, payload)
}

// GetJSON performs an authenticated GET and decodes the JSON response.
func (ts *TestServer) GetJSON(t *testing.T, token, path string) (int, map[string]interface{}) {
	t.Helper()
	return ts.doJSON(t, http.MethodGet, token, path, nil)
}

func (ts *TestServer) doJSON(t *testing.T, method, token, path string, payload interface{}) (int, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, ts.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var body map[string]interface{}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &body), "response was not JSON: %s", raw)
	}
	return resp.StatusCode, body
}

// UniqueID returns a short unique string suitable for usernames.
var testCounter uint64

func UniqueID(prefix string) string {
	n := atomic.AddUint64(&testCounter, 1)
	return fmt.Sprintf("%s_%d_%d", prefix, time.Now().UnixNano()%100000, n)
}
