package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rcliao/madlab/internal/domain"
)

// SaveSnapshot stores a computed schedule. The snapshot id must be set by
// the caller.
func (r *Repository) SaveSnapshot(ctx context.Context, s domain.ScheduleSnapshot) error {
	if s.ID == "" {
		return fmt.Errorf("snapshot id is required: %w", domain.ErrNotValid)
	}

	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("could not encode snapshot: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO schedule_snapshots (id, created_at, payload) VALUES (?, ?, ?)`,
		s.ID,
		s.CreatedAt.Unix(),
		string(payload),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: schedule_snapshots.") {
			return fmt.Errorf("snapshot %s: %w", s.ID, domain.ErrAlreadyExists)
		}
		return fmt.Errorf("could not insert snapshot: %w", err)
	}

	r.logger.Debugf("Saved schedule snapshot %s with %d tasks", s.ID, len(s.Tasks))
	return nil
}

func (r *Repository) ListSnapshots(ctx context.Context, limit int) ([]domain.ScheduleSnapshot, error) {
	query := `SELECT payload FROM schedule_snapshots ORDER BY created_at DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("could not query snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []domain.ScheduleSnapshot
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("could not scan row: %w", err)
		}
		var s domain.ScheduleSnapshot
		if err := json.Unmarshal([]byte(payload), &s); err != nil {
			return nil, fmt.Errorf("could not decode snapshot: %w", err)
		}
		snapshots = append(snapshots, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return snapshots, nil
}
