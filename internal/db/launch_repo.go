package db

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"time"

	"chatdock/internal/errors"

	"github.com/google/uuid"
)

// LaunchRepository records launch attempts
type LaunchRepository struct {
	db *DB
}

// NewLaunchRepository creates a new launch repository
func NewLaunchRepository(db *DB) *LaunchRepository {
	return &LaunchRepository{db: db}
}

// Create inserts a running launch, assigning its ID and start time when unset
func (r *LaunchRepository) Create(ctx context.Context, launch *Launch) error {
	if launch.ID == "" {
		launch.ID = uuid.New().String()
	}
	if launch.StartedAt.IsZero() {
		launch.StartedAt = time.Now().UTC()
	}
	if launch.Status == "" {
		launch.Status = LaunchStatusRunning
	}

	query := `
		INSERT INTO launches (id, mode, port, fingerprint, status, url, error_code, error_output, started_at, finished_at)
		VALUES (:id, :mode, :port, :fingerprint, :status, :url, :error_code, :error_output, :started_at, :finished_at)
	`

	if _, err := r.db.NamedExecContext(ctx, query, launch); err != nil {
		return errors.Wrap(errors.ErrDatabaseQuery, "failed to create launch", err)
	}
	return nil
}

// Finish stores the outcome of a launch. The final port is recorded too,
// since it can change when a port is re-allocated.
func (r *LaunchRepository) Finish(ctx context.Context, launch *Launch) error {
	now := time.Now().UTC()
	launch.FinishedAt = &now

	query := `
		UPDATE launches
		SET status = :status, port = :port, url = :url, error_code = :error_code,
			error_output = :error_output, finished_at = :finished_at
		WHERE id = :id
	`

	result, err := r.db.NamedExecContext(ctx, query, launch)
	if err != nil {
		return errors.Wrap(errors.ErrDatabaseQuery, "failed to finish launch", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(errors.ErrDatabaseQuery, "failed to get affected rows", err)
	}
	if rows == 0 {
		return errors.New(errors.ErrDatabaseQuery, fmt.Sprintf("launch not found: %s", launch.ID))
	}
	return nil
}

// Get returns a launch by ID
func (r *LaunchRepository) Get(ctx context.Context, id string) (*Launch, error) {
	query := `
		SELECT id, mode, port, fingerprint, status, url, error_code, error_output, started_at, finished_at
		FROM launches
		WHERE id = ?
	`

	launch := &Launch{}
	if err := r.db.GetContext(ctx, launch, query, id); err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.New(errors.ErrDatabaseQuery, fmt.Sprintf("launch not found: %s", id))
		}
		return nil, errors.Wrap(errors.ErrDatabaseQuery, "failed to get launch", err)
	}
	return launch, nil
}

// List returns a page of launches and the total count
func (r *LaunchRepository) List(ctx context.Context, opts PaginationOptions) ([]*Launch, int, error) {
	if err := opts.Validate(); err != nil {
		return nil, 0, errors.Wrap(errors.ErrValidationFailed, "invalid pagination", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM launches`); err != nil {
		return nil, 0, errors.Wrap(errors.ErrDatabaseQuery, "failed to count launches", err)
	}

	query := fmt.Sprintf(`
		SELECT id, mode, port, fingerprint, status, url, error_code, error_output, started_at, finished_at
		FROM launches
		%s
		%s
	`, opts.BuildOrderClause(), opts.BuildLimitClause())

	var launches []*Launch
	if err := r.db.SelectContext(ctx, &launches, query); err != nil {
		return nil, 0, errors.Wrap(errors.ErrDatabaseQuery, "failed to list launches", err)
	}
	return launches, total, nil
}
