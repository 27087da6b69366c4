package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"go.uber.org/zap"

	"github.com/sambafall/comptoir/internal/auth"
	"github.com/sambafall/comptoir/internal/config"
	"github.com/sambafall/comptoir/internal/localstore"
	"github.com/sambafall/comptoir/internal/remote/mongodb"
	"github.com/sambafall/comptoir/internal/repository/sheets"
	"github.com/sambafall/comptoir/internal/scheduler"
	"github.com/sambafall/comptoir/internal/server/handlers"
	"github.com/sambafall/comptoir/internal/server/router"
	ordersvc "github.com/sambafall/comptoir/internal/service/orders"
	reportingsvc "github.com/sambafall/comptoir/internal/service/reporting"
	"github.com/sambafall/comptoir/internal/store"
	"github.com/sambafall/comptoir/internal/syncer"
	"github.com/sambafall/comptoir/pkg/clients/alerts"
	"github.com/sambafall/comptoir/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New())
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	remoteStore, err := mongodb.New(context.Background(), cfg.MongoDB.URI, cfg.MongoDB.DBName, logger.Named(baseLogger, "remote.mongodb"))
	if err != nil {
		baseLogger.Fatal("failed to init remote store", zap.Error(err))
	}
	defer func() {
		if err := remoteStore.Close(context.Background()); err != nil {
			baseLogger.Error("failed to close remote connection", zap.Error(err))
		}
	}()

	local, err := localstore.Open(cfg.Cache.SnapshotPath, logger.Named(baseLogger, "localstore"))
	if err != nil {
		baseLogger.Fatal("failed to open snapshot db", zap.Error(err))
	}
	defer func() {
		if err := local.Close(); err != nil {
			baseLogger.Error("failed to close snapshot db", zap.Error(err))
		}
	}()

	// The last persisted snapshot makes the app usable before the first sync.
	snapshot, err := local.Load()
	if err != nil {
		baseLogger.Warn("failed to load persisted snapshot, starting empty", zap.Error(err))
	}

	cache := store.New(snapshot)
	bus := store.NewBus()
	engine := syncer.New(remoteStore, cache, local, bus, logger.Named(baseLogger, "syncer"))
	defer engine.Stop()

	reportingSvc := reportingsvc.NewService(cache, logger.Named(baseLogger, "svc.reporting"))
	coordinator := ordersvc.NewCoordinator(remoteStore, cache, logger.Named(baseLogger, "svc.orders"))

	// The session lifecycle drives sync: login subscribes, logout unwinds.
	sessions := auth.NewManager(cfg.Session.Token)
	sessions.OnChange(func(active bool) {
		if active {
			engine.Start(context.Background())
		} else {
			engine.Stop()
		}
	})

	var exporter sheets.Exporter
	if cfg.Sheets.Enabled() {
		exporter, err = sheets.NewGoogleSheetRepository(context.Background(), cfg.Sheets, logger.Named(baseLogger, "repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets exporter", zap.Error(err))
		}
	} else {
		baseLogger.Info("sheets credentials missing, daily export disabled")
	}

	var alerter alerts.Client
	if cfg.Alerts.WebhookURL != "" {
		alerter = alerts.NewWebhookClient(cfg.Alerts.WebhookURL)
	} else {
		baseLogger.Info("alert webhook missing, low stock alerts disabled")
	}

	sched, err := scheduler.NewScheduler(cfg.Reporting, cache, reportingSvc, coordinator, exporter, alerter, logger.Named(baseLogger, "scheduler"))
	if err != nil {
		baseLogger.Fatal("failed to init scheduler", zap.Error(err))
	}
	sched.Start()
	defer sched.Stop()

	apiHandler := handlers.NewAPIHandler(cache, reportingSvc, coordinator, engine, sessions, logger.Named(baseLogger, "handlers.api"))
	ginEngine := router.New(apiHandler, logger.Named(baseLogger, "router"))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      ginEngine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}
