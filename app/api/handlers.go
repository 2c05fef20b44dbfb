package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lysyi3m/rss-relay/app/database"
	"github.com/lysyi3m/rss-relay/app/owners"
	"github.com/lysyi3m/rss-relay/app/queue"
	"github.com/lysyi3m/rss-relay/app/tasks"
)

func NewHandler(feedRepo database.FeedRepository, draftRepo database.DraftRepository,
	configCache *owners.ConfigCache, dispatcher queue.Dispatcher,
	feedSweep FeedSweeper, publishSweep PublishSweeper, queueBackend, version string) *Handler {
	return &Handler{
		feedRepo:     feedRepo,
		draftRepo:    draftRepo,
		configCache:  configCache,
		dispatcher:   dispatcher,
		feedSweep:    feedSweep,
		publishSweep: publishSweep,
		queueBackend: queueBackend,
		version:      version,
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	if _, err := h.feedRepo.GetFeedCount(c.Request.Context()); err != nil {
		slog.Error("Database error", "operation", "health", "error", err)
		health["status"] = "degraded"
		c.JSON(http.StatusServiceUnavailable, health)
		return
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	stats := map[string]interface{}{
		"version":               h.version,
		"queue_backend":         h.queueBackend,
		"loaded_configurations": h.configCache.GetConfigCount(),
	}

	if feedCount, err := h.feedRepo.GetFeedCount(c.Request.Context()); err == nil {
		stats["feeds"] = feedCount
	}
	if draftCount, err := h.draftRepo.GetDraftCount(c.Request.Context()); err == nil {
		stats["pending_drafts"] = draftCount
	}

	c.JSON(http.StatusOK, stats)
}

// DeliverTask is the push entry point for task transports that deliver over
// HTTP. Every dispatched task is acknowledged with 204.
func (h *Handler) DeliverTask(c *gin.Context) {
	if err := c.Request.ParseForm(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid form body"})
		return
	}

	params := make(map[string]string, len(c.Request.PostForm))
	for key, values := range c.Request.PostForm {
		if len(values) > 0 {
			params[key] = values[0]
		}
	}

	task := queue.NewTask(c.Param("endpoint"), params)
	if id := c.GetHeader("X-Task-ID"); id != "" {
		task.ID = id
	}

	err := h.dispatcher.Dispatch(c.Request.Context(), task)
	if errors.Is(err, queue.ErrUnknownEndpoint) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown task endpoint"})
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) APIListFeeds(c *gin.Context) {
	h.listFeeds(c, "")
}

func (h *Handler) APIListOwnerFeeds(c *gin.Context) {
	h.listFeeds(c, c.Param("owner"))
}

func (h *Handler) listFeeds(c *gin.Context, owner string) {
	feeds, err := h.feedRepo.ListFeeds(c.Request.Context(), owner)
	if err != nil {
		slog.Error("Database error", "operation", "list_feeds", "owner", owner, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	result := make([]map[string]interface{}, 0, len(feeds))
	for _, f := range feeds {
		result = append(result, feedInfo(f))
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"feeds": result,
		"total": len(result),
	})
}

func (h *Handler) APIAddFeed(c *gin.Context) {
	owner := c.Param("owner")

	var req AddFeedRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing feed URL"})
		return
	}

	if err := owners.ValidateFeedURL(req.URL); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	f, created, err := h.feedRepo.EnsureFeed(c.Request.Context(), owner, req.URL)
	if err != nil {
		slog.Error("Database error", "operation", "add_feed", "owner", owner, "feed", req.URL, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	if !created {
		c.JSON(http.StatusOK, feedInfo(*f))
		return
	}

	slog.Info("Feed registered", "owner", owner, "feed", f.URL, "last_update", f.LastUpdate)
	c.JSON(http.StatusCreated, feedInfo(*f))
}

func (h *Handler) APIListOwnerDrafts(c *gin.Context) {
	owner := c.Param("owner")

	drafts, err := h.draftRepo.ListDrafts(c.Request.Context(), owner)
	if err != nil {
		slog.Error("Database error", "operation", "list_drafts", "owner", owner, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	result := make([]map[string]interface{}, 0, len(drafts))
	for _, d := range drafts {
		result = append(result, map[string]interface{}{
			"id":               d.ID,
			"title":            d.Title,
			"entry_updated_at": d.EntryUpdatedAt,
			"publish_at":       d.PublishAt,
			"retry_count":      d.RetryCount,
			"next_attempt_at":  d.PublishAt.Add(tasks.Backoff(d.RetryCount)),
		})
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"owner":  owner,
		"drafts": result,
		"total":  len(result),
	})
}

func (h *Handler) APISweepFeeds(c *gin.Context) {
	enqueued, err := h.feedSweep.Run(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error(), "enqueued": enqueued})
		return
	}

	c.JSON(http.StatusOK, gin.H{"enqueued": enqueued})
}

func (h *Handler) APISweepDrafts(c *gin.Context) {
	result, err := h.publishSweep.Run(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":     err.Error(),
			"enqueued":  result.Enqueued,
			"skipped":   result.Skipped,
			"discarded": result.Discarded,
		})
		return
	}

	c.JSON(http.StatusOK, result)
}

func feedInfo(f database.Feed) map[string]interface{} {
	return map[string]interface{}{
		"id":          f.ID,
		"owner":       f.Owner,
		"url":         f.URL,
		"last_update": f.LastUpdate,
		"created_at":  f.CreatedAt,
	}
}
