package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/rcliao/madlab/internal/domain"
	"github.com/rcliao/madlab/internal/log"
	"github.com/rcliao/madlab/internal/storage"
	"github.com/rcliao/madlab/internal/storage/sqlite/migrations"
)

// RepositoryConfig is the configuration for the SQLite repository.
type RepositoryConfig struct {
	DBPath string
	Logger log.Logger
}

func (c *RepositoryConfig) defaults() error {
	if c.DBPath == "" {
		return fmt.Errorf("db path is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "storage.SQLite"})
	return nil
}

// Repository is a SQLite implementation of storage.Repository and
// storage.SnapshotRepository.
type Repository struct {
	db     *sql.DB
	logger log.Logger
}

var (
	_ storage.Repository         = (*Repository)(nil)
	_ storage.SnapshotRepository = (*Repository)(nil)
)

// NewRepository opens the database at cfg.DBPath and applies pending migrations.
func NewRepository(ctx context.Context, cfg RepositoryConfig) (*Repository, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
		return nil, fmt.Errorf("could not create db directory: %w", err)
	}

	dsn := fmt.Sprintf("%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)", cfg.DBPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("could not open database: %w", err)
	}

	migrator, err := migrations.NewMigrator(db, cfg.Logger)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("could not create migrator: %w", err)
	}
	if err := migrator.Up(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not run migrations: %w", err)
	}

	cfg.Logger.Debugf("SQLite repository initialized at %s", cfg.DBPath)
	return &Repository{db: db, logger: cfg.Logger}, nil
}

// Close closes the database connection.
func (r *Repository) Close() error { return r.db.Close() }

const taskColumns = `
	id, name_es, name_en, assignee, hours, difficulty,
	phase, section, status, created_at, updated_at
`

func (r *Repository) CreateTask(ctx context.Context, t domain.Task) error {
	if err := t.Validate(); err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var position int
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(position), -1) + 1 FROM tasks`).Scan(&position); err != nil {
		return fmt.Errorf("could not get next position: %w", err)
	}

	if err := insertTask(ctx, tx, t, position); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("could not commit transaction: %w", err)
	}

	r.logger.Debugf("Created task in repository: %s", t.ID)
	return nil
}

func insertTask(ctx context.Context, tx *sql.Tx, t domain.Task, position int) error {
	query := `
		INSERT INTO tasks (
			id, position, name_es, name_en, assignee, hours, difficulty,
			phase, section, status, created_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := tx.ExecContext(ctx, query,
		t.ID,
		position,
		t.Name.ES,
		t.Name.EN,
		t.Assignee,
		t.Hours,
		t.Difficulty,
		t.Phase,
		t.Section,
		string(t.Status),
		t.CreatedAt.Unix(),
		t.UpdatedAt.Unix(),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: tasks.") {
			return fmt.Errorf("task %s: %w", t.ID, domain.ErrAlreadyExists)
		}
		return fmt.Errorf("could not insert task: %w", err)
	}

	return insertDependencies(ctx, tx, t)
}

func insertDependencies(ctx context.Context, tx *sql.Tx, t domain.Task) error {
	if len(t.Dependencies) == 0 {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO task_dependencies (task_id, sequence, depends_on) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("could not prepare statement: %w", err)
	}
	defer stmt.Close()

	for i, dep := range t.Dependencies {
		if _, err := stmt.ExecContext(ctx, t.ID, i, dep); err != nil {
			return fmt.Errorf("could not insert dependency: %w", err)
		}
	}
	return nil
}

func (r *Repository) GetTask(ctx context.Context, id string) (*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = ?`

	t, err := scanTask(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("task %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("could not query task: %w", err)
	}

	deps, err := r.dependencies(ctx, `WHERE task_id = ?`, id)
	if err != nil {
		return nil, err
	}
	t.Dependencies = deps[id]

	return &t, nil
}

func (r *Repository) ListTasks(ctx context.Context, filter domain.TaskFilter) ([]domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks ORDER BY position ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("could not query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []domain.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("could not scan row: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	deps, err := r.dependencies(ctx, "")
	if err != nil {
		return nil, err
	}

	result := make([]domain.Task, 0, len(tasks))
	for _, t := range tasks {
		t.Dependencies = deps[t.ID]
		if filter.Matches(&t, t.Status) {
			result = append(result, t)
		}
	}
	return result, nil
}

// dependencies returns ordered dependency lists keyed by task id.
func (r *Repository) dependencies(ctx context.Context, where string, args ...any) (map[string][]string, error) {
	query := `SELECT task_id, depends_on FROM task_dependencies ` + where + ` ORDER BY task_id, sequence`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("could not query dependencies: %w", err)
	}
	defer rows.Close()

	deps := make(map[string][]string)
	for rows.Next() {
		var taskID, dep string
		if err := rows.Scan(&taskID, &dep); err != nil {
			return nil, fmt.Errorf("could not scan dependency: %w", err)
		}
		deps[taskID] = append(deps[taskID], dep)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating dependencies: %w", err)
	}
	return deps, nil
}

func (r *Repository) UpdateTask(ctx context.Context, t domain.Task) error {
	if err := t.Validate(); err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `
		UPDATE tasks
		SET
			name_es = ?,
			name_en = ?,
			assignee = ?,
			hours = ?,
			difficulty = ?,
			phase = ?,
			section = ?,
			status = ?,
			created_at = ?,
			updated_at = ?
		WHERE id = ?
	`
	result, err := tx.ExecContext(ctx, query,
		t.Name.ES,
		t.Name.EN,
		t.Assignee,
		t.Hours,
		t.Difficulty,
		t.Phase,
		t.Section,
		string(t.Status),
		t.CreatedAt.Unix(),
		t.UpdatedAt.Unix(),
		t.ID,
	)
	if err != nil {
		return fmt.Errorf("could not update task: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("task %s: %w", t.ID, domain.ErrNotFound)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM task_dependencies WHERE task_id = ?`, t.ID); err != nil {
		return fmt.Errorf("could not clear dependencies: %w", err)
	}
	if err := insertDependencies(ctx, tx, t); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("could not commit transaction: %w", err)
	}

	r.logger.Debugf("Updated task in repository: %s", t.ID)
	return nil
}

func (r *Repository) DeleteTask(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM task_dependencies WHERE task_id = ?`, id); err != nil {
		return fmt.Errorf("could not delete dependencies: %w", err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("could not delete task: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("task %s: %w", id, domain.ErrNotFound)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("could not commit transaction: %w", err)
	}

	r.logger.Debugf("Deleted task from repository: %s", id)
	return nil
}

func (r *Repository) ReplaceTasks(ctx context.Context, tasks []domain.Task) error {
	if err := storage.ValidateTaskSet(tasks); err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM task_dependencies`); err != nil {
		return fmt.Errorf("could not clear dependencies: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM tasks`); err != nil {
		return fmt.Errorf("could not clear tasks: %w", err)
	}
	for i, t := range tasks {
		if err := insertTask(ctx, tx, t, i); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("could not commit transaction: %w", err)
	}

	r.logger.Debugf("Replaced task set with %d tasks", len(tasks))
	return nil
}

func (r *Repository) GetGanttConfig(ctx context.Context) (domain.GanttConfig, error) {
	query := `
		SELECT time_scale, visible_start, visible_end, zoom, group_by, auto_schedule, show_critical_path
		FROM gantt_config
		WHERE id = 1
	`

	var (
		cfg                      domain.GanttConfig
		visibleStart, visibleEnd sql.NullInt64
	)
	err := r.db.QueryRowContext(ctx, query).Scan(
		&cfg.TimeScale,
		&visibleStart,
		&visibleEnd,
		&cfg.Zoom,
		&cfg.GroupBy,
		&cfg.AutoSchedule,
		&cfg.ShowCriticalPath,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.GanttConfig{}, fmt.Errorf("gantt config: %w", domain.ErrNotFound)
		}
		return domain.GanttConfig{}, fmt.Errorf("could not query gantt config: %w", err)
	}

	cfg.VisibleStart = timePtrFromNull(visibleStart)
	cfg.VisibleEnd = timePtrFromNull(visibleEnd)
	return cfg, nil
}

func (r *Repository) SaveGanttConfig(ctx context.Context, cfg domain.GanttConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	query := `
		INSERT INTO gantt_config (id, time_scale, visible_start, visible_end, zoom, group_by, auto_schedule, show_critical_path)
		VALUES (1, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			time_scale = excluded.time_scale,
			visible_start = excluded.visible_start,
			visible_end = excluded.visible_end,
			zoom = excluded.zoom,
			group_by = excluded.group_by,
			auto_schedule = excluded.auto_schedule,
			show_critical_path = excluded.show_critical_path
	`
	_, err := r.db.ExecContext(ctx, query,
		string(cfg.TimeScale),
		nullFromTimePtr(cfg.VisibleStart),
		nullFromTimePtr(cfg.VisibleEnd),
		cfg.Zoom,
		string(cfg.GroupBy),
		cfg.AutoSchedule,
		cfg.ShowCriticalPath,
	)
	if err != nil {
		return fmt.Errorf("could not save gantt config: %w", err)
	}

	r.logger.Debugf("Saved gantt config")
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(s scanner) (domain.Task, error) {
	var (
		t                    domain.Task
		status               string
		createdAt, updatedAt int64
	)
	err := s.Scan(
		&t.ID,
		&t.Name.ES,
		&t.Name.EN,
		&t.Assignee,
		&t.Hours,
		&t.Difficulty,
		&t.Phase,
		&t.Section,
		&status,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return domain.Task{}, err
	}

	t.Status = domain.TaskStatus(status)
	t.CreatedAt = timeFromUnix(createdAt)
	t.UpdatedAt = timeFromUnix(updatedAt)
	return t, nil
}

func timeFromUnix(unix int64) time.Time { return time.Unix(unix, 0).UTC() }

func timePtrFromNull(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := timeFromUnix(v.Int64)
	return &t
}

func nullFromTimePtr(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.Unix(), Valid: true}
}
