package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	bureauadapter "github.com/creditwatch/creditwatch/internal/adapter/driven/bureau"
	"github.com/creditwatch/creditwatch/internal/adapter/driven/notify"
	sqliteadapter "github.com/creditwatch/creditwatch/internal/adapter/driven/sqlite"
	httphandler "github.com/creditwatch/creditwatch/internal/adapter/driving/http"
	"github.com/creditwatch/creditwatch/internal/application"
	"github.com/creditwatch/creditwatch/internal/config"
	"github.com/creditwatch/creditwatch/internal/domain/model"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration (fail fast on malformed env vars).
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.Info("config loaded",
		"listen_addr", cfg.ListenAddr,
		"db_path", cfg.DBPath,
		"pull_timeout", cfg.PullTimeout,
	)

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Open database (dual reader/writer with WAL mode).
	db, err := sqliteadapter.NewDB(cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()
	slog.Info("database opened", "path", cfg.DBPath)

	// 4. Run migrations on writer connection.
	if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
		return err
	}
	slog.Info("migrations complete")

	// 5. Wire driven adapters. The change detector runs inside the snapshot
	// save transaction with the configured thresholds.
	detect := func(previous *model.Report, current model.Report) []model.Change {
		return application.DetectChanges(previous, current, cfg.Thresholds)
	}
	subjectStore := sqliteadapter.NewSubjectRepo(db)
	snapshotStore := sqliteadapter.NewSnapshotRepo(db, detect)
	pullStore := sqliteadapter.NewPullRepo(db)
	itemTracker := sqliteadapter.NewItemRepo(db)
	auditSink := sqliteadapter.NewAuditRepo(db)
	notifier := notify.NewLogNotifier(slog.Default())

	// 6. Bureau clients: live where credentials are configured, sandbox
	// otherwise.
	bureaus := bureauadapter.NewFactory(cfg)

	// 7. Application services.
	analysisSvc := application.NewAnalysisService(snapshotStore)
	pullSvc := application.NewPullService(
		bureaus,
		subjectStore,
		snapshotStore,
		pullStore,
		itemTracker,
		notifier,
		auditSink,
		analysisSvc,
		cfg.PullTimeout,
	)

	// 8. HTTP handler and routes.
	apiHandler := httphandler.NewHandler(subjectStore, snapshotStore, pullStore, pullSvc, analysisSvc, slog.Default())
	handler := httphandler.NewServeMux(apiHandler, slog.Default())

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.Info("http server starting", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server error", "error", err)
		}
	}()

	slog.Info("creditwatch started", "listen_addr", cfg.ListenAddr)

	// 9. Wait for shutdown signal.
	<-ctx.Done()
	slog.Info("shutting down")

	// 10. Graceful shutdown with 10s timeout to drain in-flight pulls.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}
