package tasks

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/lysyi3m/rss-relay/app/database"
	"github.com/lysyi3m/rss-relay/app/owners"
)

// Scheduler drives both sweeps on their own tickers. Owner files are
// synced once before the first sweep.
type Scheduler struct {
	configCache     *owners.ConfigCache
	feedRepo        database.FeedRepository
	credentialRepo  database.CredentialRepository
	guard           CredentialGuard
	feedSweep       *FeedSweep
	publishSweep    *PublishSweep
	feedInterval    time.Duration
	publishInterval time.Duration
	ctx             context.Context
	cancel          context.CancelFunc
	wg              sync.WaitGroup
}

func NewScheduler(configCache *owners.ConfigCache, feedRepo database.FeedRepository, credentialRepo database.CredentialRepository,
	guard CredentialGuard, feedSweep *FeedSweep, publishSweep *PublishSweep, feedInterval, publishInterval time.Duration) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		configCache:     configCache,
		feedRepo:        feedRepo,
		credentialRepo:  credentialRepo,
		guard:           guard,
		feedSweep:       feedSweep,
		publishSweep:    publishSweep,
		feedInterval:    feedInterval,
		publishInterval: publishInterval,
		ctx:             ctx,
		cancel:          cancel,
	}
}

func (s *Scheduler) Start() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		s.syncOwnerConfigs()
		s.runFeedSweep()
		s.runPublishSweep()

		feedTicker := time.NewTicker(s.feedInterval)
		defer feedTicker.Stop()
		publishTicker := time.NewTicker(s.publishInterval)
		defer publishTicker.Stop()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-feedTicker.C:
				s.runFeedSweep()
			case <-publishTicker.C:
				s.runPublishSweep()
			}
		}
	}()
}

func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
}

func (s *Scheduler) syncOwnerConfigs() {
	configs := s.configCache.GetConfigs()
	if len(configs) == 0 {
		slog.Debug("No owner configurations found")
		return
	}

	slog.Debug("Syncing owner configurations", "count", len(configs))

	for _, config := range configs {
		task := NewSyncOwnerConfigTask(config, s.feedRepo, s.credentialRepo, s.guard)
		task.Start()
		if err := task.Execute(s.ctx); err != nil {
			slog.Error("Task execution failed", "type", string(task.GetType()), "owner", config.Owner, "error", err)
		}
	}
}

func (s *Scheduler) runFeedSweep() {
	enqueued, err := s.feedSweep.Run(s.ctx)
	if err != nil {
		slog.Error("Feed sweep failed", "enqueued", enqueued, "error", err)
		return
	}
	slog.Debug("Feed sweep finished", "enqueued", enqueued)
}

func (s *Scheduler) runPublishSweep() {
	result, err := s.publishSweep.Run(s.ctx)
	if err != nil {
		slog.Error("Publish sweep failed", "enqueued", result.Enqueued, "skipped", result.Skipped, "discarded", result.Discarded, "error", err)
		return
	}
	slog.Debug("Publish sweep finished", "enqueued", result.Enqueued, "skipped", result.Skipped, "discarded", result.Discarded)
}
