package tasks

import (
	"fmt"
	"math/rand"
	"time"
)

type TaskType string

const (
	TaskTypeFetchFeed TaskType = "fetch_feed"
)

type Task struct {
	ID        string
	Type      TaskType
	FeedURL   string
	StartedAt *time.Time
}

func (t *Task) GetID() string {
	return t.ID
}

func (t *Task) GetType() TaskType {
	return t.Type
}

func (t *Task) GetFeedURL() string {
	return t.FeedURL
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

func NewTask(taskType TaskType, feedURL string) Task {
	uniqueID := fmt.Sprintf("%d-%d", time.Now().UnixNano(), rand.Intn(10000))

	return Task{
		ID:      uniqueID,
		Type:    taskType,
		FeedURL: feedURL,
	}
}
