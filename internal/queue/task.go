package queue

import (
	"fmt"
	"time"
)

type TaskType string

const (
	TaskReportReminder TaskType = "report_reminder"
	TaskReconcile      TaskType = "reconcile"
	TaskBackup         TaskType = "backup"
)

// Task is one unit of background work carried on the stream.
type Task struct {
	ID         string
	Type       TaskType
	Date       string
	EnqueuedAt time.Time
}

func (t Task) values() map[string]any {
	return map[string]any{
		"id":          t.ID,
		"type":        string(t.Type),
		"date":        t.Date,
		"enqueued_at": t.EnqueuedAt.UTC().Format(time.RFC3339Nano),
	}
}

func taskFromValues(values map[string]any) (Task, error) {
	field := func(name string) string {
		v, _ := values[name].(string)
		return v
	}

	task := Task{
		ID:   field("id"),
		Type: TaskType(field("type")),
		Date: field("date"),
	}
	if task.Type == "" {
		return Task{}, fmt.Errorf("task without type")
	}
	if raw := field("enqueued_at"); raw != "" {
		at, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return Task{}, fmt.Errorf("parse enqueued_at: %w", err)
		}
		task.EnqueuedAt = at
	}
	return task, nil
}
