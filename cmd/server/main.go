package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"go.uber.org/zap"

	"github.com/calfai/herd/internal/config"
	"github.com/calfai/herd/internal/repository/localcache"
	"github.com/calfai/herd/internal/repository/mongodb"
	"github.com/calfai/herd/internal/repository/sheets"
	"github.com/calfai/herd/internal/scheduler"
	"github.com/calfai/herd/internal/server/handlers"
	"github.com/calfai/herd/internal/server/router"
	chatsvc "github.com/calfai/herd/internal/service/chat"
	enrollmentsvc "github.com/calfai/herd/internal/service/enrollment"
	predictionsvc "github.com/calfai/herd/internal/service/prediction"
	reportingsvc "github.com/calfai/herd/internal/service/reporting"
	identityclient "github.com/calfai/herd/pkg/clients/identity"
	predictionclient "github.com/calfai/herd/pkg/clients/prediction"
	"github.com/calfai/herd/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New())
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	mongoRepo, err := mongodb.NewMongoDBRepository(context.Background(), cfg.MongoDB.URI, cfg.MongoDB.DBName, baseLogger.Named("repo.mongodb"))
	if err != nil {
		baseLogger.Fatal("failed to init mongodb repository", zap.Error(err))
	}
	defer func() {
		if err := mongoRepo.Close(context.Background()); err != nil {
			baseLogger.Error("failed to close mongodb connection", zap.Error(err))
		}
	}()

	outcomeCache, err := localcache.Open(cfg.Cache.Path, baseLogger.Named("repo.localcache"))
	if err != nil {
		baseLogger.Fatal("failed to open outcome cache", zap.Error(err))
	}
	defer func() {
		if err := outcomeCache.Close(); err != nil {
			baseLogger.Error("failed to close outcome cache", zap.Error(err))
		}
	}()

	predClient := predictionclient.NewClient(cfg.Prediction.BaseURL)
	idClient := identityclient.NewClient(cfg.Identity.BaseURL, cfg.Identity.APIKey)

	// The export integration is optional; the handler reports 503 when off.
	var exporter handlers.HistoryExporter
	if cfg.SheetsEnabled() {
		sheetExporter, err := sheets.NewExporter(context.Background(), cfg.Sheets, baseLogger.Named("repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets exporter", zap.Error(err))
		}
		exporter = sheetExporter
		baseLogger.Info("sheet export enabled", zap.String("spreadsheet_id", cfg.Sheets.SpreadsheetID))
	} else {
		baseLogger.Warn("sheet export disabled, credentials not configured")
	}

	orchestrator := predictionsvc.NewOrchestrator(predClient, mongoRepo, outcomeCache, baseLogger.Named("svc.prediction"))
	protocol := enrollmentsvc.NewProtocol(predClient, idClient, mongoRepo, baseLogger.Named("svc.enrollment"))
	relay := chatsvc.NewRelay(predClient, baseLogger.Named("svc.chat"))
	reportingSvc := reportingsvc.NewService(mongoRepo, baseLogger.Named("svc.reporting"))

	engine := router.New(router.Handlers{
		Auth:       handlers.NewAuthHandler(protocol, mongoRepo, baseLogger.Named("handlers.auth")),
		Prediction: handlers.NewPredictionHandler(orchestrator, baseLogger.Named("handlers.prediction")),
		Records:    handlers.NewRecordsHandler(mongoRepo, outcomeCache, exporter, baseLogger.Named("handlers.records")),
		Chat:       handlers.NewChatHandler(relay, baseLogger.Named("handlers.chat")),
	}, idClient, baseLogger.Named("router"))

	sched, err := scheduler.NewScheduler(cfg.Reporting, reportingSvc, baseLogger.Named("scheduler"))
	if err != nil {
		baseLogger.Fatal("failed to init scheduler", zap.Error(err))
	}
	sched.Start()
	defer sched.Stop()

	// WriteTimeout stays unset so the snapshot stream can hold its
	// connection open.
	srv := &http.Server{
		Addr:        ":" + cfg.Server.Port,
		Handler:     engine,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
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
