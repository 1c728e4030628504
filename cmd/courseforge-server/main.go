// Package main provides the Courseforge API server.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/raphaelgruber/courseforge/internal/config"
	"github.com/raphaelgruber/courseforge/internal/db"
	"github.com/raphaelgruber/courseforge/internal/generator"
	"github.com/raphaelgruber/courseforge/internal/llm"
	"github.com/raphaelgruber/courseforge/internal/metrics"
	"github.com/raphaelgruber/courseforge/internal/models"
	"github.com/raphaelgruber/courseforge/internal/moderation"
	"github.com/raphaelgruber/courseforge/internal/server"
	"github.com/raphaelgruber/courseforge/internal/service"
)

func main() {
	wipeDB := flag.Bool("wipe", false, "wipe all data from database on startup (testing only)")
	flag.Parse()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger, closeLog := config.SetupLogger(cfg.LogFile, cfg.LogLevel)
	defer closeLog()
	slog.SetDefault(logger)

	logger.Info("starting courseforge-server", "addr", cfg.ListenAddr, "provider", cfg.LLMProvider)

	collector := metrics.NewCollector()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	dbClient, err := db.NewClient(ctx, db.Config{
		URL:       cfg.SurrealDBURL,
		Namespace: cfg.SurrealDBNamespace,
		Database:  cfg.SurrealDBDatabase,
		Username:  cfg.SurrealDBUser,
		Password:  cfg.SurrealDBPass,
		AuthLevel: cfg.SurrealDBAuthLevel,
	}, collector, logger)
	if err != nil {
		cancel()
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	if err := dbClient.InitSchema(ctx); err != nil {
		cancel()
		logger.Error("failed to initialize schema", "error", err)
		os.Exit(1)
	}

	if *wipeDB || os.Getenv("COURSEFORGE_WIPE_DB") == "true" {
		if err := dbClient.WipeData(ctx); err != nil {
			cancel()
			logger.Error("failed to wipe database", "error", err)
			os.Exit(1)
		}
		logger.Warn("database wiped")
	}

	// Jobs stuck in a non-terminal state from a previous process are
	// logged at startup; they stay visible in job listings until retried.
	logStaleJobs(ctx, dbClient, logger)
	cancel()

	defer func() {
		if err := dbClient.Close(context.Background()); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	}()

	model, err := llm.NewModel(cfg, collector)
	if err != nil {
		logger.Error("failed to create LLM model", "error", err)
		os.Exit(1)
	}

	gate := moderation.NewGate(
		moderation.NewClient(cfg.ModerationEndpoint, cfg.ModerationAPIKey, collector),
		logger,
	)

	syllabusGen := generator.NewSyllabusGenerator(dbClient, model, logger)
	topicGen := generator.NewTopicContentGenerator(dbClient, model, logger)

	courses := service.NewCourseService(dbClient, gate, syllabusGen, topicGen, logger)
	progress := service.NewProgressService(dbClient, logger)

	srv := server.New(courses, progress, collector, logger)

	runCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(runCtx, cfg.ListenAddr); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

func logStaleJobs(ctx context.Context, dbClient *db.Client, logger *slog.Logger) {
	jobs, err := dbClient.ListActiveJobs(ctx)
	if err != nil {
		logger.Warn("could not check for stale jobs", "error", err)
		return
	}
	for i := range jobs {
		job := &jobs[i]
		logger.Warn("found stale job from previous run",
			"job_id", models.MustRecordIDString(job.ID),
			"target", job.Target,
			"status", job.Status)
	}
}
