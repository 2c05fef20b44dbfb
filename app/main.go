package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lysyi3m/rss-relay/app/api"
	"github.com/lysyi3m/rss-relay/app/auth"
	"github.com/lysyi3m/rss-relay/app/cfg"
	"github.com/lysyi3m/rss-relay/app/database"
	"github.com/lysyi3m/rss-relay/app/feed"
	"github.com/lysyi3m/rss-relay/app/logging"
	"github.com/lysyi3m/rss-relay/app/ning"
	"github.com/lysyi3m/rss-relay/app/owners"
	"github.com/lysyi3m/rss-relay/app/queue"
	"github.com/lysyi3m/rss-relay/app/tasks"
)

func main() {
	config, err := cfg.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if config == nil {
		// Help was shown
		return
	}

	logCloser := logging.Setup(config.LogFile, config.Debug)
	defer logCloser.Close()

	if err := run(config); err != nil {
		slog.Error("Server stopped with error", "error", err)
		logCloser.Close()
		os.Exit(1)
	}
}

func run(config *cfg.Cfg) error {
	slog.Info("Starting RSS Relay", "version", config.Version, "db_driver", config.DBDriver, "queue_backend", config.QueueBackend)

	db, err := database.NewConnection(config.DBDriver, config.DBDSN)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Info("Database ready", "schema_version", version, "dirty", dirty)

	configCache := owners.NewConfigCache(config.OwnersDir)
	if err := configCache.Run(); err != nil {
		return fmt.Errorf("failed to load owner configurations: %w", err)
	}
	slog.Info("Owner configurations loaded", "dir", config.OwnersDir, "count", configCache.GetConfigCount())

	feedRepo := database.NewFeedRepository(db)
	draftRepo := database.NewDraftRepository(db)
	credentialRepo := database.NewCredentialRepository(db)

	httpClient := &http.Client{}
	fetcher := feed.NewFetcher(httpClient, config.UserAgent, config.FetchTimeout)
	parser := feed.NewParser()
	guard := auth.NewGuard(credentialRepo, config.CredentialCacheTTL)
	publisher := ning.NewClient(httpClient, config.NingAPIURL, config.NingSubdomain,
		config.NingConsumerKey, config.NingConsumerSecret, config.PublishTimeout)

	taskQueue, err := queue.New(config)
	if err != nil {
		return fmt.Errorf("failed to create task queue: %w", err)
	}

	dispatcher := tasks.NewDispatcher(feedRepo, draftRepo, fetcher, parser, guard, publisher)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	taskQueue.Start(ctx, dispatcher)
	slog.Info("Task consumers started", "backend", taskQueue.Backend(), "workers", config.WorkerCount)

	feedSweep := tasks.NewFeedSweep(feedRepo, taskQueue, config.RefreshInterval)
	publishSweep := tasks.NewPublishSweep(draftRepo, taskQueue, config.MaxRetries)

	scheduler := tasks.NewScheduler(configCache, feedRepo, credentialRepo, guard, feedSweep, publishSweep,
		config.FeedSweepInterval, config.PublishSweepInterval)
	scheduler.Start()

	handler := api.NewHandler(feedRepo, draftRepo, configCache, dispatcher, feedSweep, publishSweep, taskQueue.Backend(), config.Version)
	server := api.NewServer(handler, guard, config.APIAccessKey, config.Debug)

	httpServer := &http.Server{
		Addr:         ":" + config.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 6 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", config.Port, "api_enabled", config.APIAccessKey != "")

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	var runErr error
	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case runErr = <-serverErrChan:
	}

	slog.Info("Shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	scheduler.Stop()
	cancel()
	taskQueue.Stop()

	slog.Info("Shutdown complete")

	return runErr
}
