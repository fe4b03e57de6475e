package main

import (
	"context"
	"log"
	"log/slog"

	"go.temporal.io/sdk/client"
	tlog "go.temporal.io/sdk/log"
	"go.temporal.io/sdk/worker"

	natsadapter "github.com/dishdash/dishdash/internal/adapters/nats"
	"github.com/dishdash/dishdash/internal/adapters/postgres"
	"github.com/dishdash/dishdash/internal/adapters/valkey"
	"github.com/dishdash/dishdash/internal/core/ports"
	"github.com/dishdash/dishdash/internal/core/usecases"
	"github.com/dishdash/dishdash/internal/pkg/config"
	"github.com/dishdash/dishdash/internal/pkg/logging"
	"github.com/dishdash/dishdash/internal/pkg/report"
	"github.com/dishdash/dishdash/internal/workflows"
)

var version = "dev"

func main() {
	cfg, err := config.Load("dishdash-worker")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.Storage.Driver != config.DriverPostgres {
		log.Fatalf("worker requires storage.driver=%s, got %q", config.DriverPostgres, cfg.Storage.Driver)
	}

	logging.Setup(cfg.Log.Level, cfg.Log.Format, cfg.Telemetry.ServiceName)
	if err := report.Setup(cfg.Sentry.DSN, cfg.Sentry.Environment, version, cfg.Sentry.TracesSampleRate); err != nil {
		slog.Warn("sentry init failed", "error", err)
	}
	defer report.Flush()

	ctx := context.Background()

	db, err := postgres.New(ctx, cfg.Database.DSN(), cfg.Database.MaxConns)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	var cache ports.CacheService
	if cfg.Valkey.Enabled {
		vc, err := valkey.New(cfg.Valkey.Addr, cfg.Valkey.Password, cfg.Valkey.DB)
		if err != nil {
			slog.Warn("valkey unavailable, marker invalidation disabled", "error", err)
		} else {
			defer vc.Close()
			cache = vc
		}
	}

	var publisher ports.EventPublisher
	if cfg.NATS.Enabled {
		pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
		if err != nil {
			// Without a publisher AnnouncePost would be a no-op.
			log.Fatalf("nats: %v", err)
		}
		defer pub.Close()
		publisher = pub
	}

	postRepo := postgres.NewPostRepo(db)
	maps := usecases.NewMapService(postRepo, cache, usecases.MapOptions{
		GroupThresholdMeters: cfg.Map.GroupThresholdMeters,
		ViewportWidthPx:      cfg.Map.ViewportWidthPx,
		MaxPosts:             cfg.Map.MaxPosts,
		CacheTTLSeconds:      cfg.Map.CacheTTL,
	})
	posts := usecases.NewPostService(postRepo, postgres.NewPlaceRepo(db), publisher, maps)

	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
		Logger:    tlog.NewStructuredLogger(slog.Default()),
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})

	// Register workflow & activities
	w.RegisterWorkflow(workflows.PublishPostWorkflow)
	w.RegisterActivity(&workflows.PostActivities{Posts: posts})

	slog.Info("publish worker started", "task_queue", cfg.Temporal.TaskQueue)
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker: %v", err)
	}
}
