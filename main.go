package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/fitforge/server/activity"
	apirest "github.com/fitforge/server/api/rest"
	"github.com/fitforge/server/cache"
	"github.com/fitforge/server/catalog"
	"github.com/fitforge/server/config"
	dbadapter "github.com/fitforge/server/db"
	"github.com/fitforge/server/game/achievement"
	"github.com/fitforge/server/game/duel"
	"github.com/fitforge/server/game/item"
	"github.com/fitforge/server/game/party"
	"github.com/fitforge/server/game/progression"
	"github.com/fitforge/server/game/quest"
	"github.com/fitforge/server/game/raid"
	mw "github.com/fitforge/server/middleware"
	"github.com/fitforge/server/model"
	"github.com/fitforge/server/scheduler"
)

func main() {
	cfgPath := "config/config.yaml"
	if len(os.Args) > 1 {
		cfgPath = os.Args[1]
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// ---- Logger ----
	var logger *zap.Logger
	var logErr error
	if cfg.Server.Debug {
		logger, logErr = zap.NewDevelopment()
	} else {
		logger, logErr = zap.NewProduction()
	}
	if logErr != nil {
		log.Fatalf("logger: %v", logErr)
	}
	defer logger.Sync()

	// Warn loudly if admin endpoints will be disabled.
	if cfg.Server.AdminKey == "" {
		logger.Warn("server.admin_key is not set; admin endpoints are disabled")
	}

	// ---- Database ----
	db, err := dbadapter.Open(cfg.Database)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	if err := model.AutoMigrate(db); err != nil {
		log.Fatalf("db migrate: %v", err)
	}
	logger.Info("DB initialized")

	// ---- Cache ----
	c, err := cache.NewCache(cache.CacheConfig{
		RedisAddr:       cfg.Cache.RedisAddr,
		RedisPassword:   cfg.Cache.RedisPassword,
		RedisDB:         cfg.Cache.RedisDB,
		LocalGCInterval: cfg.Cache.LocalGCInterval,
	})
	if err != nil {
		log.Fatalf("cache: %v", err)
	}
	logger.Info("Cache initialized")

	// ---- Catalogs ----
	cat := catalog.NewLoader(cfg.Catalog.DataDir)
	if err := cat.Load(); err != nil {
		log.Fatalf("catalog: %v", err)
	}
	logger.Info("Catalogs loaded",
		zap.Int("item_templates", len(cat.Templates)),
		zap.Int("bosses", len(cat.Bosses)),
		zap.Int("quest_templates", len(cat.QuestTemplates)))

	// ---- Activity feed ----
	feed := activity.New(db, c, logger)
	defer feed.Stop(nil)

	// ---- Scheduler ----
	sched := scheduler.New(logger)
	defer sched.Stop()

	// ---- Game Systems ----
	prog := progression.NewService(db, c, feed, cfg.Progression, logger)
	items := item.NewService(db, item.NewGenerator(cat, nil, logger), logger)
	quests := quest.NewEngine(db, cat, prog, items, cfg.Progression, logger)
	achievements := achievement.NewEngine(db, prog, feed, logger)
	duels := duel.NewEngine(db, cat, prog, feed, cfg.Progression, logger)
	parties := party.NewService(db, cfg.Progression, logger)
	raids := raid.NewEngine(db, cat, parties, prog, items, feed, cfg.Progression, logger)
	dispatcher := progression.NewDispatcher(prog, quests, achievements, duels, raids, logger)

	// ---- Periodic Scheduler Tasks ----
	sched.AddTicker("expiry_sweep", cfg.Progression.SweepInterval, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if _, err := quests.SweepExpired(ctx); err != nil {
			logger.Error("quest sweep failed", zap.Error(err))
		}
		if _, err := duels.SweepExpired(ctx); err != nil {
			logger.Error("duel sweep failed", zap.Error(err))
		}
		if _, err := feed.Prune(ctx, 30*24*time.Hour); err != nil {
			logger.Error("feed prune failed", zap.Error(err))
		}
	})

	// ---- Gin HTTP Server ----
	if !cfg.Server.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(mw.TraceID(), mw.Logger(logger), mw.Recovery(logger))
	r.Use(mw.RateLimit(rate.Limit(cfg.Security.RateLimitRPS), cfg.Security.RateLimitBurst))

	// Health check
	r.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(200, gin.H{"status": "ok"})
	})

	// ---- REST API routes ----
	authH := apirest.NewAuthHandler(db, c, cfg.Security)
	profileH := apirest.NewProfileHandler(db, prog, dispatcher)
	itemH := apirest.NewItemHandler(items)
	questH := apirest.NewQuestHandler(quests, prog)
	achH := apirest.NewAchievementHandler(achievements, prog)
	duelH := apirest.NewDuelHandler(duels)
	raidH := apirest.NewRaidHandler(raids, parties)
	partyH := apirest.NewPartyHandler(parties)
	rankH := apirest.NewRankingHandler(prog, feed)
	adminH := apirest.NewAdminHandler(db, prog, items, quests, duels, sched, logger)

	api := r.Group("/api")
	{
		authG := api.Group("/auth")
		authG.POST("/login", authH.Login)
		authG.POST("/logout", mw.Auth(cfg.Security, c), authH.Logout)
		authG.POST("/refresh", mw.Auth(cfg.Security, c), authH.Refresh)

		authed := api.Group("")
		authed.Use(mw.Auth(cfg.Security, c))

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

		rankG := api.Group("/ranking")
		rankG.GET("/xp", rankH.TopXP)

		adminG := api.Group("/admin")
		adminG.Use(mw.IPWhitelist(cfg.Security.AdminAllowedIPs))
		adminG.Use(apirest.AdminAuth(cfg.Server.AdminKey))
		adminG.GET("/metrics", adminH.Metrics)
		adminG.POST("/users/:id/ban", adminH.BanUser)
		adminG.POST("/users/:id/grant-xp", adminH.GrantXP)
		adminG.POST("/users/:id/grant-item", adminH.GrantItem)
		adminG.POST("/sweep", adminH.Sweep)
	}

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	logger.Info("Server listening", zap.String("addr", addr))
	if err := r.Run(addr); err != nil {
		log.Fatalf("server: %v", err)
	}
}
