package tasks

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

type TaskType string

const (
	TaskTypeFetchFeed       TaskType = "fetch_feed"
	TaskTypePublishDraft    TaskType = "publish_draft"
	TaskTypeSyncOwnerConfig TaskType = "sync_owner_config"
)

const (
	ParamFeedID  = "feed_id"
	ParamDraftID = "draft_id"
)

var ErrMissingParam = errors.New("missing task parameter")

type TaskInterface interface {
	Execute(ctx context.Context) error
	GetID() string
	GetType() TaskType
	Start()
	GetDuration() time.Duration
}

type Task struct {
	ID        string
	Type      TaskType
	StartedAt *time.Time
}

func (t *Task) GetID() string {
	return t.ID
}

func (t *Task) GetType() TaskType {
	return t.Type
}

func (t *Task) Start() {
	now := time.Now()
	t.StartedAt = &now
}

func (t *Task) GetDuration() time.Duration {
	if t.StartedAt == nil {
		return 0
	}
	return time.Since(*t.StartedAt)
}

// NewTask reuses the transport id when there is one so log lines can be
// matched to queue messages.
func NewTask(taskType TaskType, id string) Task {
	if id == "" {
		id = uuid.NewString()
	}

	return Task{
		ID:   id,
		Type: taskType,
	}
}
