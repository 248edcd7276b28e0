package database

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/phrazzld/taskboard-api/internal/job"
	"github.com/phrazzld/taskboard-api/internal/store"
)

const jobColumns = `id, type, payload, status, attempts, last_error, created_at, updated_at`

// JobStore persists background jobs for job.Runner.
type JobStore struct {
	db     store.DBTX
	logger *slog.Logger
	now    func() time.Time
}

// NewJobStore creates a JobStore. If logger is nil, a default logger is used.
func NewJobStore(db store.DBTX, logger *slog.Logger) *JobStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &JobStore{
		db:     db,
		logger: logger.With(slog.String("component", "job_store")),
		now:    time.Now,
	}
}

var _ job.Store = (*JobStore)(nil)

// Save implements job.Store.
func (s *JobStore) Save(ctx context.Context, rec job.Record) error {
	query := s.db.Rebind(`
		INSERT INTO jobs (id, type, payload, status, attempts, last_error, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)

	_, err := s.db.ExecContext(ctx, query,
		rec.ID,
		rec.Type,
		rec.Payload,
		rec.Status,
		rec.Attempts,
		rec.LastError,
		rec.CreatedAt.UTC(),
		rec.UpdatedAt.UTC(),
	)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to save job",
			slog.String("job_id", rec.ID.String()),
			slog.String("job_type", rec.Type),
			slog.String("error", err.Error()))
		return store.NewStoreError("job", "save", "insert failed", MapError(err))
	}
	return nil
}

// UpdateStatus implements job.Store. An empty errMsg clears last_error.
func (s *JobStore) UpdateStatus(
	ctx context.Context,
	id uuid.UUID,
	status job.Status,
	attempts int,
	errMsg string,
) error {
	var lastError *string
	if errMsg != "" {
		lastError = &errMsg
	}

	query := s.db.Rebind(`UPDATE jobs SET status = ?, attempts = ?, last_error = ?, updated_at = ? WHERE id = ?`)
	result, err := s.db.ExecContext(ctx, query, status, attempts, lastError, s.now().UTC(), id)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to update job status",
			slog.String("job_id", id.String()),
			slog.String("status", string(status)),
			slog.String("error", err.Error()))
		return store.NewStoreError("job", "update_status", "update failed", MapError(err))
	}
	return CheckRowsAffected(result, store.ErrJobNotFound)
}

// Transition implements job.Store with a conditional UPDATE, so a stale
// view of a job can never move it out of a later status.
func (s *JobStore) Transition(
	ctx context.Context,
	id uuid.UUID,
	from, to job.Status,
	attempts int,
	errMsg string,
) (bool, error) {
	var lastError *string
	if errMsg != "" {
		lastError = &errMsg
	}

	query := s.db.Rebind(`UPDATE jobs SET status = ?, attempts = ?, last_error = ?, updated_at = ? WHERE id = ? AND status = ?`)
	result, err := s.db.ExecContext(ctx, query, to, attempts, lastError, s.now().UTC(), id, from)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to transition job status",
			slog.String("job_id", id.String()),
			slog.String("from", string(from)),
			slog.String("to", string(to)),
			slog.String("error", err.Error()))
		return false, store.NewStoreError("job", "transition", "update failed", MapError(err))
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, store.NewStoreError("job", "transition", "rows affected unavailable", err)
	}
	return rows > 0, nil
}

// ListByStatus implements job.Store. With olderThan > 0 only jobs whose
// last update is older than that are returned.
func (s *JobStore) ListByStatus(ctx context.Context, status job.Status, olderThan time.Duration) ([]job.Record, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE status = ?`
	args := []any{status}
	if olderThan > 0 {
		query += ` AND updated_at < ?`
		args = append(args, s.now().UTC().Add(-olderThan))
	}
	query += ` ORDER BY created_at ASC`

	records := []job.Record{}
	if err := sqlx.SelectContext(ctx, s.db, &records, s.db.Rebind(query), args...); err != nil {
		s.logger.ErrorContext(ctx, "failed to list jobs by status",
			slog.String("status", string(status)),
			slog.String("error", err.Error()))
		return nil, store.NewStoreError("job", "list", "select failed", MapError(err))
	}
	return records, nil
}

// Get returns one job record.
func (s *JobStore) Get(ctx context.Context, id uuid.UUID) (*job.Record, error) {
	var rec job.Record
	query := s.db.Rebind(`SELECT ` + jobColumns + ` FROM jobs WHERE id = ?`)
	if err := sqlx.GetContext(ctx, s.db, &rec, query, id); err != nil {
		return nil, mapNotFound(err, store.ErrJobNotFound)
	}
	return &rec, nil
}
