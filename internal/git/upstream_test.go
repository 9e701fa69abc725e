package git

import (
	"context"
	"testing"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	mainHash  = "1111111111111111111111111111111111111111"
	otherHash = "2222222222222222222222222222222222222222"
)

func TestResolveHead(t *testing.T) {
	t.Run("symbolic HEAD", func(t *testing.T) {
		refs := []*plumbing.Reference{
			plumbing.NewHashReference("refs/heads/dev", plumbing.NewHash(otherHash)),
			plumbing.NewSymbolicReference(plumbing.HEAD, "refs/heads/master"),
			plumbing.NewHashReference(plumbing.Master, plumbing.NewHash(mainHash)),
		}
		head, err := resolveHead(refs)
		require.NoError(t, err)
		assert.Equal(t, mainHash, head)
	})

	t.Run("hash HEAD", func(t *testing.T) {
		refs := []*plumbing.Reference{
			plumbing.NewHashReference(plumbing.HEAD, plumbing.NewHash(otherHash)),
		}
		head, err := resolveHead(refs)
		require.NoError(t, err)
		assert.Equal(t, otherHash, head)
	})

	t.Run("no HEAD falls back to main", func(t *testing.T) {
		refs := []*plumbing.Reference{
			plumbing.NewHashReference(plumbing.NewBranchReferenceName("main"), plumbing.NewHash(mainHash)),
		}
		head, err := resolveHead(refs)
		require.NoError(t, err)
		assert.Equal(t, mainHash, head)
	})

	t.Run("nothing usable", func(t *testing.T) {
		refs := []*plumbing.Reference{
			plumbing.NewHashReference("refs/tags/v1", plumbing.NewHash(mainHash)),
		}
		_, err := resolveHead(refs)
		assert.Error(t, err)
	})
}

func TestRemoteHead_EmptyURL(t *testing.T) {
	_, err := NewTracker().RemoteHead(context.Background(), " ")
	assert.Error(t, err)
}

func TestRemoteHead_Unreachable(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewTracker().RemoteHead(ctx, "https://127.0.0.1:1/none.git")
	assert.Error(t, err)
}

func TestRemoteHead_Cached(t *testing.T) {
	calls := 0
	tracker := NewTracker()
	tracker.list = func(ctx context.Context, url string) ([]*plumbing.Reference, error) {
		calls++
		return []*plumbing.Reference{
			plumbing.NewHashReference(plumbing.HEAD, plumbing.NewHash(mainHash)),
		}, nil
	}

	url := "https://example.com/app.git"
	for i := 0; i < 3; i++ {
		head, err := tracker.RemoteHead(context.Background(), url)
		require.NoError(t, err)
		assert.Equal(t, mainHash, head)
	}
	assert.Equal(t, 1, calls)

	tracker.Forget(url)
	_, err := tracker.RemoteHead(context.Background(), url)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestRemoteHead_ErrorsNotCached(t *testing.T) {
	calls := 0
	tracker := NewTracker()
	tracker.list = func(ctx context.Context, url string) ([]*plumbing.Reference, error) {
		calls++
		return nil, nil
	}

	_, err := tracker.RemoteHead(context.Background(), "https://example.com/app.git")
	assert.Error(t, err)
	_, err = tracker.RemoteHead(context.Background(), "https://example.com/app.git")
	assert.Error(t, err)
	assert.Equal(t, 2, calls)
}

func TestAuthFor(t *testing.T) {
	t.Setenv("GIT_USERNAME", "")
	t.Setenv("GITHUB_TOKEN", "ghp_test")

	auth, ok := authFor("https://github.com/binary-husky/chatgpt_academic.git").(*http.BasicAuth)
	require.True(t, ok)
	assert.Equal(t, "token", auth.Username)
	assert.Equal(t, "ghp_test", auth.Password)
}

func TestShort(t *testing.T) {
	assert.Equal(t, "1111111", Short(mainHash))
	assert.Equal(t, "abc", Short("abc"))
}
