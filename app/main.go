package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lysyi3m/lostfilm-notifier/app/api"
	"github.com/lysyi3m/lostfilm-notifier/app/cfg"
	"github.com/lysyi3m/lostfilm-notifier/app/channel"
	"github.com/lysyi3m/lostfilm-notifier/app/database"
	"github.com/lysyi3m/lostfilm-notifier/app/detail"
	"github.com/lysyi3m/lostfilm-notifier/app/feed"
	"github.com/lysyi3m/lostfilm-notifier/app/schedule"
	"github.com/lysyi3m/lostfilm-notifier/app/tasks"
)

func main() {
	appCfg, err := cfg.Load()
	if errors.Is(err, cfg.ErrConfigMissing) {
		slog.Warn("Notifier is not configured", "error", err)
		os.Exit(1)
	}
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if appCfg == nil {
		return
	}

	setupLogger(appCfg.Debug)

	if err := run(appCfg); err != nil {
		slog.Error("Notifier failed", "error", err)
		os.Exit(1)
	}
}

func setupLogger(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func run(appCfg *cfg.Cfg) error {
	location, err := appCfg.Location()
	if err != nil {
		return err
	}

	slog.Info("Starting LostFilm notifier", "version", appCfg.Version, "db", appCfg.DBPath, "serve", appCfg.Serve)

	db, err := database.NewConnection(appCfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("Database ready", "schema_version", version, "dirty", dirty)

	releaseRepo := database.NewReleaseRepository(db)
	digestRepo := database.NewDigestRepository(db)

	httpClient := &http.Client{Timeout: appCfg.Timeout}
	sources := tasks.Sources{
		Feed:     feed.NewParser(httpClient, appCfg.UserAgent),
		Details:  detail.NewExtractor(httpClient, appCfg.UserAgent),
		Schedule: schedule.NewParser(httpClient, appCfg.UserAgent),
		Collage:  schedule.NewCollager(httpClient, appCfg.UserAgent),
	}
	notifier := channel.NewTelegram(appCfg.BotToken, appCfg.ChatID, appCfg.TelegramEndpoint, httpClient)

	runner := tasks.NewRunner(sources, releaseRepo, digestRepo, notifier, tasks.Options{
		FeedURL:         appCfg.FeedURL,
		ScheduleURL:     appCfg.ScheduleURL,
		LockPath:        appCfg.DBPath + ".lock",
		RetentionDays:   appCfg.RetentionDays,
		ScheduleEnabled: appCfg.ScheduleEnabled,
		Location:        location,
	})

	if !appCfg.Serve {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runner.Run(ctx)
	}

	return serve(appCfg, runner, releaseRepo, digestRepo)
}

func serve(appCfg *cfg.Cfg, runner *tasks.Runner, releaseRepo *database.ReleaseRepository, digestRepo *database.DigestRepository) error {
	interval := time.Duration(appCfg.SchedulerInterval) * time.Second

	slog.Info("Starting scheduler", "interval", interval)
	scheduler := tasks.NewScheduler(runner, interval)
	scheduler.Start()
	defer scheduler.Stop()

	handler := api.NewHandler(releaseRepo, digestRepo, runner, appCfg.Version)
	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      api.NewServer(handler, appCfg.APIAccessKey),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("Starting HTTP server", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	var serveErr error
	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig)
	case serveErr = <-serverErrChan:
	}

	slog.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	return serveErr
}
