package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionRepository_LoadEmpty(t *testing.T) {
	repo := NewSessionRepository(newTestDB(t))

	session, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, session.Port)
	assert.False(t, session.Built)
}

func TestSessionRepository_SaveAndLoad(t *testing.T) {
	ctx := context.Background()
	repo := NewSessionRepository(newTestDB(t))

	require.NoError(t, repo.Save(ctx, &Session{
		Port:             30000,
		Fingerprint:      "abc",
		Built:            true,
		UpstreamRevision: "3f2a9c",
	}))

	// saving again overwrites the single row
	require.NoError(t, repo.Save(ctx, &Session{
		Port:          30001,
		ContainerPort: 30000,
		Fingerprint:   "def",
		Built:         true,
	}))

	session, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 30001, session.Port)
	assert.Equal(t, 30000, session.ContainerPort)
	assert.Equal(t, "def", session.Fingerprint)
	assert.True(t, session.Built)
	assert.Equal(t, "", session.UpstreamRevision)
	assert.False(t, session.UpdatedAt.IsZero())

	var rows int
	require.NoError(t, repo.db.GetContext(ctx, &rows, "SELECT COUNT(*) FROM sessions"))
	assert.Equal(t, 1, rows)
}
