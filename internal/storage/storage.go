package storage

import (
	"context"
	"fmt"

	"github.com/rcliao/madlab/internal/domain"
)

// Repository is the interface for task and Gantt configuration persistence.
// Tasks are returned in the order they were stored.
type Repository interface {
	CreateTask(ctx context.Context, t domain.Task) error
	GetTask(ctx context.Context, id string) (*domain.Task, error)
	ListTasks(ctx context.Context, filter domain.TaskFilter) ([]domain.Task, error)
	UpdateTask(ctx context.Context, t domain.Task) error
	DeleteTask(ctx context.Context, id string) error
	// ReplaceTasks swaps the whole task set, keeping the given order.
	ReplaceTasks(ctx context.Context, tasks []domain.Task) error
	// GetGanttConfig returns the saved configuration, or domain.ErrNotFound
	// when none has been saved yet.
	GetGanttConfig(ctx context.Context) (domain.GanttConfig, error)
	SaveGanttConfig(ctx context.Context, cfg domain.GanttConfig) error
}

// SnapshotRepository keeps computed schedules.
type SnapshotRepository interface {
	SaveSnapshot(ctx context.Context, s domain.ScheduleSnapshot) error
	// ListSnapshots returns the newest snapshots first. limit <= 0 means all.
	ListSnapshots(ctx context.Context, limit int) ([]domain.ScheduleSnapshot, error)
}

// ValidateTaskSet checks every task and rejects repeated ids.
func ValidateTaskSet(tasks []domain.Task) error {
	seen := make(map[string]bool, len(tasks))
	for i := range tasks {
		if err := tasks[i].Validate(); err != nil {
			return err
		}
		if seen[tasks[i].ID] {
			return fmt.Errorf("task %s appears more than once: %w", tasks[i].ID, domain.ErrAlreadyExists)
		}
		seen[tasks[i].ID] = true
	}
	return nil
}
