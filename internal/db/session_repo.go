package db

import (
	"context"
	"database/sql"
	stderrors "errors"
	"time"

	"chatdock/internal/errors"
)

// SessionRepository persists the launcher session row
type SessionRepository struct {
	db *DB
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(db *DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Load returns the stored session, or a zero session when none was saved
func (r *SessionRepository) Load(ctx context.Context) (*Session, error) {
	query := `
		SELECT port, container_port, fingerprint, built, upstream_revision, updated_at
		FROM sessions
		WHERE id = 1
	`

	session := &Session{}
	if err := r.db.GetContext(ctx, session, query); err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return &Session{}, nil
		}
		return nil, errors.Wrap(errors.ErrDatabaseQuery, "failed to load session", err)
	}
	return session, nil
}

// Save replaces the stored session
func (r *SessionRepository) Save(ctx context.Context, session *Session) error {
	session.UpdatedAt = time.Now().UTC()

	query := `
		INSERT INTO sessions (id, port, container_port, fingerprint, built, upstream_revision, updated_at)
		VALUES (1, :port, :container_port, :fingerprint, :built, :upstream_revision, :updated_at)
		ON CONFLICT(id) DO UPDATE SET
			port = excluded.port,
			container_port = excluded.container_port,
			fingerprint = excluded.fingerprint,
			built = excluded.built,
			upstream_revision = excluded.upstream_revision,
			updated_at = excluded.updated_at
	`

	if _, err := r.db.NamedExecContext(ctx, query, session); err != nil {
		return errors.Wrap(errors.ErrDatabaseQuery, "failed to save session", err)
	}
	return nil
}
