// Package jobs runs background maintenance over asynq: most importantly the
// periodic refresh of the feature access configuration.
package jobs

import (
	"context"
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskConfigRefresh re-fetches and persists the feature access
	// configuration document.
	TaskConfigRefresh = "config:refresh"
)

// ConfigRefreshPayload parameterises a refresh run.
type ConfigRefreshPayload struct {
	// Reason is recorded in logs: "cron" for scheduled runs, "startup"
	// when the service enqueues its boot-time refresh.
	Reason string `json:"reason"`
}

// NewConfigRefreshTask constructs an asynq task for a configuration refresh.
func NewConfigRefreshTask(reason string) (*asynq.Task, error) {
	data, err := json.Marshal(ConfigRefreshPayload{Reason: reason})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskConfigRefresh, data), nil
}

// Client submits jobs to the queue.
type Client struct {
	client *asynq.Client
}

// NewClient constructs an asynq client.
func NewClient(redisOpts asynq.RedisClientOpt) *Client {
	return &Client{client: asynq.NewClient(redisOpts)}
}

// EnqueueConfigRefresh enqueues a configuration refresh.
func (c *Client) EnqueueConfigRefresh(ctx context.Context, reason string) (*asynq.TaskInfo, error) {
	task, err := NewConfigRefreshTask(reason)
	if err != nil {
		return nil, err
	}
	return c.client.EnqueueContext(ctx, task, asynq.Queue(QueueDefault))
}

// Close releases client resources.
func (c *Client) Close() error {
	return c.client.Close()
}
