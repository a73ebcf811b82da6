package jobs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"motorhub/pkg/database"
	"motorhub/pkg/models"
)

const (
	StatusRunning = "running"
	StatusOK      = "ok"
	StatusFailed  = "failed"
)

var ErrRunNotFound = errors.New("sync run not found")

// RunRepo stores the sync_runs history.
type RunRepo struct {
	DB *database.DB
}

func NewRunRepo(db *database.DB) *RunRepo {
	return &RunRepo{DB: db}
}

func (r *RunRepo) Create(ctx context.Context, run models.SyncRun) error {
	_, err := r.DB.ExecContext(ctx, r.DB.Rebind(`
		INSERT INTO sync_runs (id, source, status, started_at)
		VALUES (?, ?, ?, ?)
	`), run.ID, run.Source, run.Status, run.StartedAt)
	if err != nil {
		return fmt.Errorf("insert sync run %s: %w", run.ID, err)
	}
	return nil
}

// Finish stores the final counters and status of a run.
func (r *RunRepo) Finish(ctx context.Context, run models.SyncRun) error {
	finished := time.Now().UTC()
	if run.FinishedAt != nil {
		finished = *run.FinishedAt
	}
	res, err := r.DB.ExecContext(ctx, r.DB.Rebind(`
		UPDATE sync_runs
		SET status = ?, fetched = ?, upserted = ?, dropped = ?, error = ?, finished_at = ?
		WHERE id = ?
	`), run.Status, run.Fetched, run.Upserted, run.Dropped, run.Error, finished, run.ID)
	if err != nil {
		return fmt.Errorf("update sync run %s: %w", run.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrRunNotFound
	}
	return nil
}

func (r *RunRepo) Get(ctx context.Context, id string) (*models.SyncRun, error) {
	row := r.DB.QueryRowContext(ctx, r.DB.Rebind(`
		SELECT id, source, status, fetched, upserted, dropped, error, started_at, finished_at
		FROM sync_runs WHERE id = ?
	`), id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, err
	}
	return run, nil
}

// ListRecent returns the newest runs first.
func (r *RunRepo) ListRecent(ctx context.Context, limit int) ([]models.SyncRun, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	rows, err := r.DB.QueryContext(ctx, r.DB.Rebind(`
		SELECT id, source, status, fetched, upserted, dropped, error, started_at, finished_at
		FROM sync_runs
		ORDER BY started_at DESC
		LIMIT ?
	`), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.SyncRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *run)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*models.SyncRun, error) {
	var (
		run      models.SyncRun
		finished sql.NullTime
	)
	if err := s.Scan(&run.ID, &run.Source, &run.Status, &run.Fetched, &run.Upserted,
		&run.Dropped, &run.Error, &run.StartedAt, &finished); err != nil {
		return nil, err
	}
	if finished.Valid {
		t := finished.Time
		run.FinishedAt = &t
	}
	return &run, nil
}
