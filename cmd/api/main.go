package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.temporal.io/sdk/client"
	tlog "go.temporal.io/sdk/log"

	"github.com/dishdash/dishdash/internal/adapters/assistant"
	"github.com/dishdash/dishdash/internal/adapters/http"
	"github.com/dishdash/dishdash/internal/adapters/memory"
	natsadapter "github.com/dishdash/dishdash/internal/adapters/nats"
	"github.com/dishdash/dishdash/internal/adapters/postgres"
	"github.com/dishdash/dishdash/internal/adapters/valkey"
	"github.com/dishdash/dishdash/internal/core/ports"
	"github.com/dishdash/dishdash/internal/core/usecases"
	"github.com/dishdash/dishdash/internal/pkg/config"
	"github.com/dishdash/dishdash/internal/pkg/logging"
	"github.com/dishdash/dishdash/internal/pkg/metrics"
	"github.com/dishdash/dishdash/internal/pkg/report"
	"github.com/dishdash/dishdash/internal/pkg/telemetry"
	"github.com/dishdash/dishdash/internal/workflows"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cfg, err := config.Load("dishdash-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logging.Setup(cfg.Log.Level, cfg.Log.Format, cfg.Telemetry.ServiceName)

	if err := report.Setup(cfg.Sentry.DSN, cfg.Sentry.Environment, version, cfg.Sentry.TracesSampleRate); err != nil {
		slog.Warn("sentry init failed", "error", err)
	}
	defer report.Flush()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.OTLPEndpoint)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	checks := make(map[string]http.ReadinessCheck)

	// Storage
	var (
		placeRepo    ports.PlaceRepository
		postRepo     ports.PostRepository
		wishlistRepo ports.WishlistRepository
	)
	switch cfg.Storage.Driver {
	case config.DriverMemory:
		store := memory.NewStore()
		if cfg.Storage.SeedFile != "" {
			if err := store.LoadFile(ctx, cfg.Storage.SeedFile); err != nil {
				log.Fatalf("seed: %v", err)
			}
		}
		places, posts := store.Size()
		slog.Info("using in-memory storage", "places", places, "posts", posts)
		placeRepo, postRepo, wishlistRepo = store.Places(), store.Posts(), store.Wishlist()
	default:
		db, err := postgres.New(ctx, cfg.Database.DSN(), cfg.Database.MaxConns)
		if err != nil {
			log.Fatalf("database: %v", err)
		}
		defer db.Close()
		checks["database"] = db.Ping
		go reportPoolStats(ctx, db)
		placeRepo, postRepo, wishlistRepo = postgres.NewPlaceRepo(db), postgres.NewPostRepo(db), postgres.NewWishlistRepo(db)
	}

	// Cache
	var cache ports.CacheService
	if cfg.Valkey.Enabled {
		vc, err := valkey.New(cfg.Valkey.Addr, cfg.Valkey.Password, cfg.Valkey.DB)
		if err != nil {
			slog.Warn("valkey unavailable, caching disabled", "error", err)
		} else {
			defer vc.Close()
			cache = vc
			checks["cache"] = vc.Ping
		}
	}

	// NATS: publish new posts, relay them to WebSocket clients
	live := http.NewLiveHub(cfg.Map.ViewportWidthPx)
	var publisher ports.EventPublisher
	if cfg.NATS.Enabled {
		pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
		if err != nil {
			slog.Warn("nats unavailable, live updates disabled", "error", err)
		} else {
			defer pub.Close()
			publisher = pub
			checks["nats"] = func(ctx context.Context) error {
				if !pub.Healthy() {
					return errors.New("disconnected")
				}
				return nil
			}

			sub, err := natsadapter.NewSubscriber(cfg.NATS.URL)
			if err != nil {
				slog.Warn("nats relay unavailable", "error", err)
			} else {
				defer sub.Close()
				if err := sub.SubscribePostsCreated(live.Broadcast); err != nil {
					slog.Warn("nats relay subscribe failed", "error", err)
				}
			}
		}
	}

	// Use cases
	maps := usecases.NewMapService(postRepo, cache, usecases.MapOptions{
		GroupThresholdMeters: cfg.Map.GroupThresholdMeters,
		ViewportWidthPx:      cfg.Map.ViewportWidthPx,
		MaxPosts:             cfg.Map.MaxPosts,
		CacheTTLSeconds:      cfg.Map.CacheTTL,
	})
	placeSvc := usecases.NewPlaceService(placeRepo, cache, usecases.SearchRadii{
		Walking: cfg.Search.WalkingRadius,
		Driving: cfg.Search.DrivingRadius,
	})

	deps := &http.Dependencies{
		Maps:           maps,
		Places:         placeSvc,
		Posts:          usecases.NewPostService(postRepo, placeRepo, publisher, maps),
		Wishlist:       usecases.NewWishlistService(wishlistRepo, placeRepo),
		Live:           live,
		Checks:         checks,
		Version:        version,
		RateLimit:      cfg.Server.RateLimit,
		RequestTimeout: time.Duration(cfg.Server.RequestTimeout) * time.Second,
	}

	if cfg.Assistant.URL != "" {
		ac := assistant.New(cfg.Assistant.URL, cfg.Assistant.APIKey, cfg.Assistant.TimeoutDuration())
		deps.Chat = usecases.NewChatService(ac, placeSvc)
	}

	// Temporal: publish posts through the saga when a worker is available.
	// The worker has its own repositories, so in-memory storage cannot use it.
	if cfg.Temporal.Enabled {
		if cfg.Storage.Driver == config.DriverMemory {
			slog.Warn("temporal ignored with in-memory storage, posts are created inline")
		} else {
			tc, err := client.Dial(client.Options{
				HostPort:  cfg.Temporal.HostPort,
				Namespace: cfg.Temporal.Namespace,
				Logger:    tlog.NewStructuredLogger(slog.Default()),
			})
			if err != nil {
				slog.Warn("temporal unavailable, posts are created inline", "error", err)
			} else {
				defer tc.Close()
				deps.Workflows = workflows.NewStarter(tc, cfg.Temporal.TaskQueue)
				checks["temporal"] = func(ctx context.Context) error {
					_, err := tc.CheckHealth(ctx, &client.CheckHealthRequest{})
					return err
				}
			}
		}
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    1024 * 1024, // 1 MB max request body
		AppName:      "DishDash API",
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(cfg.Server.CORSOrigins, ","),
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, " + http.HeaderUserID,
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr, "storage", cfg.Storage.Driver, "version", version)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	// Give in-flight requests up to 10s to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}

// reportPoolStats refreshes the connection pool gauges until ctx is done.
func reportPoolStats(ctx context.Context, db *postgres.DB) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			metrics.UpdateDBPoolMetrics(db.Stat())
		}
	}
}
