package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Task is a unit of work addressed to a named endpoint. Params are the only
// payload; handlers reload everything else from persisted state.
type Task struct {
	ID         string            `json:"id"`
	Endpoint   string            `json:"endpoint"`
	Params     map[string]string `json:"params"`
	EnqueuedAt time.Time         `json:"enqueued_at"`
}

func NewTask(endpoint string, params map[string]string) Task {
	return Task{
		ID:         uuid.NewString(),
		Endpoint:   endpoint,
		Params:     params,
		EnqueuedAt: time.Now().UTC(),
	}
}

func (t Task) Param(name string) string {
	return t.Params[name]
}

func encodeTask(task Task) ([]byte, error) {
	data, err := json.Marshal(task)
	if err != nil {
		return nil, fmt.Errorf("failed to encode task: %w", err)
	}
	return data, nil
}

func decodeTask(data []byte) (Task, error) {
	var task Task
	if err := json.Unmarshal(data, &task); err != nil {
		return Task{}, fmt.Errorf("failed to decode task: %w", err)
	}
	if task.Endpoint == "" {
		return Task{}, fmt.Errorf("failed to decode task: missing endpoint")
	}
	return task, nil
}
