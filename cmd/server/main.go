package main // Entry point package

import (
	"context"   // shutdown deadline and consumer lifetime
	"errors"    // errors.Is on server shutdown
	"log"       // Logging library
	"log/slog"  // structured logger handed to services
	"net/http"  // http.ErrServerClosed
	"os"        // stdout for the slog handler
	"os/signal" // graceful shutdown on SIGINT/SIGTERM
	"syscall"   // SIGTERM
	"time"      // shutdown timeout

	"github.com/labstack/echo/v4"                   // Echo web framework
	echomw "github.com/labstack/echo/v4/middleware" // Recover and RequestID

	"github.com/iliyamo/branch-scheduler/internal/config"     // Internal config loader
	"github.com/iliyamo/branch-scheduler/internal/database"   // MySQL connection and schema
	"github.com/iliyamo/branch-scheduler/internal/handler"    // HTTP handlers
	"github.com/iliyamo/branch-scheduler/internal/lock"       // keyed locks
	"github.com/iliyamo/branch-scheduler/internal/middleware" // rate limit and cache
	"github.com/iliyamo/branch-scheduler/internal/queue"      // lifecycle events
	"github.com/iliyamo/branch-scheduler/internal/realtime"   // websocket chat
	"github.com/iliyamo/branch-scheduler/internal/repository" // MySQL repositories
	"github.com/iliyamo/branch-scheduler/internal/router"     // Internal router setup
	"github.com/iliyamo/branch-scheduler/internal/service"    // scheduling and booking rules
)

func main() {
	cfg := config.Load() // Load environment config
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(database.Options{User: cfg.DBUser, Pass: cfg.DBPass, Host: cfg.DBHost, Port: cfg.DBPort, Name: cfg.DBName})
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()
	if cfg.Migrate {
		if err := database.Migrate(ctx, db); err != nil {
			log.Fatalf("migrate: %v", err)
		}
	}

	// Redis backs the distributed locker, rate limiter and response cache.
	// Without it the process still runs, with in-process locks only.
	rdb := config.NewRedisClient()
	if rdb != nil {
		defer rdb.Close()
	}
	var locker lock.Locker
	if cfg.LockBackend == config.LockBackendRedis && rdb != nil {
		locker = lock.NewRedis(rdb, cfg.LockTTL, logger)
	} else {
		if cfg.LockBackend == config.LockBackendRedis {
			log.Printf("redis unavailable; falling back to in-process locks (single instance only)")
		}
		locker = lock.NewLocal()
	}

	broker := config.LoadBrokerConfig()
	var events service.EventPublisher = queue.NopPublisher{}
	if broker.Enabled {
		pub := queue.NewPublisher(broker.URL)
		defer pub.Close()
		events = pub
		if broker.Consumer {
			go func() {
				if err := queue.StartEventConsumer(ctx, broker.URL, broker.LogPath); err != nil && !errors.Is(err, context.Canceled) {
					log.Printf("event consumer stopped: %v", err)
				}
			}()
		}
	}

	users := repository.NewUserRepo(db)
	schedules := repository.NewScheduleRepo(db)
	bookings := repository.NewBookingRepo(db)
	chats := repository.NewChatRepo(db)
	refs := repository.NewReferenceRepo(db)

	scheduleSvc := service.NewScheduleService(schedules, refs, users, locker, events, logger)
	bookingSvc := service.NewBookingService(bookings, schedules, users, locker, events, logger)

	registry := realtime.NewRegistry(logger)
	ws := realtime.NewHandler(
		realtime.NewAuthenticator(cfg.JWTSecret, users),
		registry,
		realtime.NewRouter(registry, users, chats, logger),
		nil,
		logger,
	)

	e := echo.New() // Create Echo instance
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())

	cacheCfg := config.LoadCacheConfig()
	router.RegisterRoutes(e, router.Deps{
		JWTSecret:  cfg.JWTSecret,
		Auth:       handler.NewAuthHandler(cfg, users),
		Schedules:  handler.NewScheduleHandler(scheduleSvc),
		Bookings:   handler.NewBookingHandler(bookingSvc),
		Chat:       handler.NewChatHandler(chats),
		Health:     handler.NewHealthHandler(db, registry),
		Websocket:  ws.Serve,
		RateLimit:  middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb),
		Cache:      middleware.NewRedisCache(cacheCfg, rdb),
		Invalidate: middleware.InvalidateCache(cacheCfg, rdb),
	})

	addr := ":" + cfg.Port                                // Address string with port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info
	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) { // Start HTTP server
			log.Fatal(err) // Log and exit if server fails
		}
	}()

	<-ctx.Done()
	log.Printf("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
