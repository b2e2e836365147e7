package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Mikelesnr/tsviyo-frontend/internal/api"
	"github.com/Mikelesnr/tsviyo-frontend/internal/app"
	"github.com/Mikelesnr/tsviyo-frontend/internal/config"
	"github.com/Mikelesnr/tsviyo-frontend/internal/logger"
	"github.com/Mikelesnr/tsviyo-frontend/internal/maps"
	"github.com/Mikelesnr/tsviyo-frontend/internal/middleware"
	"github.com/Mikelesnr/tsviyo-frontend/internal/poller"
	"github.com/Mikelesnr/tsviyo-frontend/internal/realtime"
	"github.com/Mikelesnr/tsviyo-frontend/internal/ride"
	"github.com/Mikelesnr/tsviyo-frontend/internal/routes"
	"github.com/Mikelesnr/tsviyo-frontend/internal/session"
	"github.com/Mikelesnr/tsviyo-frontend/internal/store"
)

// openStore connects the key-value store, degrading to the in-memory store
// when Redis is unreachable. The client keeps working; only restart
// persistence is lost.
func openStore(ctx context.Context, cfg *config.Config) store.Store {
	log := logger.Get()
	kv, err := store.NewRedis(ctx, store.RedisOptions{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		TTL:      cfg.Redis.CacheTTL,
	})
	if err != nil {
		log.Warn().Err(err).Msg("Redis unavailable, state will not survive a restart")
		return store.NewMemory()
	}
	log.Info().Str("addr", cfg.Redis.Addr()).Msg("connected to Redis")
	return kv
}

func main() {
	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// A missing .env file is fine; environment variables alone work.
	godotenv.Load()

	ctx := context.Background()
	cfg, err := config.Load(ctx)
	if err != nil {
		boot := logger.Get()
		boot.Fatal().Err(err).Msg("failed to load configuration")
	}

	log := logger.Init(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})

	kv := openStore(ctx, cfg)
	defer kv.Close()

	sessions := session.NewStore(kv, log)
	rides := ride.NewCache(kv, log)
	mapsClient := maps.NewClient(cfg.MapboxToken, cfg.MapboxDailyLimit, kv, log)
	defer mapsClient.Close()

	backend := api.NewClient(cfg.APIBaseURL, cfg.HTTPTimeout, sessions.Token, log)
	a := app.New(cfg, backend, mapsClient, sessions, rides, log)

	bridge := realtime.NewBridge(cfg.RealtimeURL, a.HandleRealtimeEvent, log)
	a.SetBridge(bridge)
	defer bridge.Teardown()

	// Rehydrate a persisted session before serving.
	a.Restore(ctx)

	fallback := poller.New(cfg.PollInterval, a.PollTick, log)
	fallback.Start()
	defer fallback.Stop()

	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(middleware.PrometheusMiddleware())
	r.SetTrustedProxies([]string{"127.0.0.1"})

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	apiGroup := r.Group("/api")
	routes.SetupRoutes(apiGroup, a)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("client gateway listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutdown signal received, closing connections")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("graceful shutdown failed")
	}

	log.Info().Msg("server stopped cleanly")
}
