package queue

import (
	"context"
	"fmt"

	"github.com/coder/quartz"
	"github.com/redis/go-redis/v9"

	"attendance/internal/ids"
)

type Publisher struct {
	client *redis.Client
	stream string
	clock  quartz.Clock
}

func NewPublisher(client *redis.Client, stream string, clock quartz.Clock) *Publisher {
	return &Publisher{client: client, stream: stream, clock: clock}
}

// Enqueue appends the task to the stream and returns the stream entry id.
// Missing task ids and timestamps are filled in.
func (p *Publisher) Enqueue(ctx context.Context, task Task) (string, error) {
	if task.ID == "" {
		task.ID = ids.New()
	}
	if task.EnqueuedAt.IsZero() {
		task.EnqueuedAt = p.clock.Now()
	}

	id, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: task.values(),
	}).Result()
	if err != nil {
		return "", fmt.Errorf("xadd %s: %w", task.Type, err)
	}
	return id, nil
}
