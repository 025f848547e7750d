package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/crewforge/crewd/internal/log"
	"github.com/crewforge/crewd/internal/model"
	"github.com/crewforge/crewd/internal/storage/sqlite/migrations"
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

// Repository is a SQLite implementation of storage.StateRepository.
//
// Unlike the JSON file backend it saves the whole document inside one
// transaction, so two concurrent read-modify-write cycles can't interleave a
// half-written document. Last writer still wins on the full state.
type Repository struct {
	db     *sql.DB
	logger log.Logger
}

// NewRepository creates a new SQLite repository.
func NewRepository(ctx context.Context, cfg RepositoryConfig) (*Repository, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	dir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
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

// Load reads the whole workflow state from the database.
func (r *Repository) Load(ctx context.Context) (*model.WorkflowState, error) {
	state := model.NewWorkflowState()

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, description, priority, status, created_at, completed_at
		FROM work_items ORDER BY position ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("could not query work items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var w model.WorkItem
		var createdAt int64
		var completedAt *int64
		if err := rows.Scan(&w.ID, &w.Description, &w.Priority, &w.Status, &createdAt, &completedAt); err != nil {
			return nil, fmt.Errorf("could not scan work item: %w", err)
		}
		w.CreatedAt = time.Unix(0, createdAt).UTC()
		if completedAt != nil {
			t := time.Unix(0, *completedAt).UTC()
			w.CompletedAt = &t
		}
		if w.Status == model.WorkItemStatusDone {
			state.Done = append(state.Done, w)
		} else {
			state.Todo = append(state.Todo, w)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("could not iterate work items: %w", err)
	}

	stageRows, err := r.db.QueryContext(ctx, `
		SELECT id, status, percent, output_file, notes, updated_at FROM stages
	`)
	if err != nil {
		return nil, fmt.Errorf("could not query stages: %w", err)
	}
	defer stageRows.Close()

	for stageRows.Next() {
		var s model.Stage
		var updatedAt int64
		if err := stageRows.Scan(&s.ID, &s.Status, &s.Percent, &s.OutputFile, &s.Notes, &updatedAt); err != nil {
			return nil, fmt.Errorf("could not scan stage: %w", err)
		}
		s.UpdatedAt = time.Unix(0, updatedAt).UTC()
		state.Stages[s.ID] = s
	}
	if err := stageRows.Err(); err != nil {
		return nil, fmt.Errorf("could not iterate stages: %w", err)
	}

	artifactRows, err := r.db.QueryContext(ctx, `
		SELECT file_name, created_by, status, created_at FROM artifacts
	`)
	if err != nil {
		return nil, fmt.Errorf("could not query artifacts: %w", err)
	}
	defer artifactRows.Close()

	for artifactRows.Next() {
		var a model.ArtifactRecord
		var createdAt int64
		if err := artifactRows.Scan(&a.FileName, &a.CreatedBy, &a.Status, &createdAt); err != nil {
			return nil, fmt.Errorf("could not scan artifact: %w", err)
		}
		a.CreatedAt = time.Unix(0, createdAt).UTC()
		state.Artifacts[a.FileName] = a
	}
	if err := artifactRows.Err(); err != nil {
		return nil, fmt.Errorf("could not iterate artifacts: %w", err)
	}

	noteRows, err := r.db.QueryContext(ctx, `SELECT note FROM notes ORDER BY position ASC`)
	if err != nil {
		return nil, fmt.Errorf("could not query notes: %w", err)
	}
	defer noteRows.Close()

	for noteRows.Next() {
		var note string
		if err := noteRows.Scan(&note); err != nil {
			return nil, fmt.Errorf("could not scan note: %w", err)
		}
		state.Notes = append(state.Notes, note)
	}
	if err := noteRows.Err(); err != nil {
		return nil, fmt.Errorf("could not iterate notes: %w", err)
	}

	var lastUpdated int64
	err = r.db.QueryRowContext(ctx, `SELECT last_updated FROM workflow_meta WHERE id = 1`).Scan(&lastUpdated)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		// Fresh database, empty state.
	case err != nil:
		return nil, fmt.Errorf("could not query workflow meta: %w", err)
	default:
		state.LastUpdated = time.Unix(0, lastUpdated).UTC()
	}

	return state, nil
}

// Save replaces the whole workflow state in one transaction and stamps
// LastUpdated.
func (r *Repository) Save(ctx context.Context, state *model.WorkflowState) error {
	state.LastUpdated = time.Now().UTC()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }() // Rollback is safe to call after Commit.

	for _, table := range []string{"work_items", "stages", "artifacts", "notes"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("could not clear %s: %w", table, err)
		}
	}

	itemQuery := `
		INSERT INTO work_items (id, description, priority, status, position, created_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	position := 0
	for _, list := range [][]model.WorkItem{state.Todo, state.Done} {
		for _, w := range list {
			var completedAt *int64
			if w.CompletedAt != nil {
				n := w.CompletedAt.UnixNano()
				completedAt = &n
			}
			_, err := tx.ExecContext(ctx, itemQuery, w.ID, w.Description, w.Priority, w.Status, position, w.CreatedAt.UnixNano(), completedAt)
			if err != nil {
				return fmt.Errorf("could not insert work item %d: %w", w.ID, err)
			}
			position++
		}
	}

	stageQuery := `
		INSERT INTO stages (id, status, percent, output_file, notes, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	for id, s := range state.Stages {
		_, err := tx.ExecContext(ctx, stageQuery, id, s.Status, s.Percent, s.OutputFile, s.Notes, s.UpdatedAt.UnixNano())
		if err != nil {
			return fmt.Errorf("could not insert stage %s: %w", id, err)
		}
	}

	artifactQuery := `
		INSERT INTO artifacts (file_name, created_by, status, created_at)
		VALUES (?, ?, ?, ?)
	`
	for name, a := range state.Artifacts {
		_, err := tx.ExecContext(ctx, artifactQuery, name, a.CreatedBy, a.Status, a.CreatedAt.UnixNano())
		if err != nil {
			return fmt.Errorf("could not insert artifact %s: %w", name, err)
		}
	}

	for i, note := range state.Notes {
		if _, err := tx.ExecContext(ctx, `INSERT INTO notes (position, note) VALUES (?, ?)`, i, note); err != nil {
			return fmt.Errorf("could not insert note: %w", err)
		}
	}

	metaQuery := `
		INSERT INTO workflow_meta (id, last_updated) VALUES (1, ?)
		ON CONFLICT (id) DO UPDATE SET last_updated = excluded.last_updated
	`
	if _, err := tx.ExecContext(ctx, metaQuery, state.LastUpdated.UnixNano()); err != nil {
		return fmt.Errorf("could not update workflow meta: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("could not commit transaction: %w", err)
	}

	r.logger.Debugf("Saved workflow state to database")

	return nil
}
