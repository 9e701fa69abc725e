// Package git looks up the upstream repository the service image is built
// from, so a launcher can tell when a rebuild would pick up new code.
package git

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/plumbing/transport/ssh"
	"github.com/go-git/go-git/v5/storage/memory"

	"chatdock/internal/cache"
	"chatdock/internal/constants"
	"chatdock/internal/logger"
)

// listFunc lists the references a remote advertises
type listFunc func(ctx context.Context, url string) ([]*plumbing.Reference, error)

// Tracker reads remote refs without cloning. Resolved heads are cached
// briefly so status polling does not hit the remote on every request.
type Tracker struct {
	list  listFunc
	heads *cache.Cache[string, string]
}

// NewTracker creates a new upstream tracker
func NewTracker() *Tracker {
	return &Tracker{
		list:  listRemote,
		heads: cache.NewCache[string, string](constants.DefaultUpstreamCacheTTL, 8),
	}
}

// RemoteHead returns the commit the remote HEAD points at
func (t *Tracker) RemoteHead(ctx context.Context, url string) (string, error) {
	if strings.TrimSpace(url) == "" {
		return "", fmt.Errorf("upstream url is empty")
	}

	return t.heads.GetOrLoad(url, func() (string, error) {
		refs, err := t.list(ctx, url)
		if err != nil {
			return "", fmt.Errorf("failed to list remote %s: %w", url, err)
		}

		head, err := resolveHead(refs)
		if err != nil {
			return "", fmt.Errorf("%s: %w", url, err)
		}

		logger.WithFields(logger.Fields{
			"upstream": url,
			"head":     head,
		}).Debug("Resolved upstream HEAD")
		return head, nil
	})
}

// Forget drops the cached head for url
func (t *Tracker) Forget(url string) {
	t.heads.Delete(url)
}

func listRemote(ctx context.Context, url string) ([]*plumbing.Reference, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DefaultUpstreamLookupTimeout)
	defer cancel()

	remote := git.NewRemote(memory.NewStorage(), &config.RemoteConfig{
		Name: "origin",
		URLs: []string{url},
	})

	return remote.ListContext(ctx, &git.ListOptions{
		Auth: authFor(url),
	})
}

// resolveHead finds the hash HEAD points at, following a symbolic HEAD to
// its branch
func resolveHead(refs []*plumbing.Reference) (string, error) {
	byName := make(map[plumbing.ReferenceName]*plumbing.Reference, len(refs))
	for _, ref := range refs {
		byName[ref.Name()] = ref
	}

	ref, ok := byName[plumbing.HEAD]
	for hops := 0; ok && hops < 5; hops++ {
		if ref.Type() == plumbing.HashReference {
			return ref.Hash().String(), nil
		}
		ref, ok = byName[ref.Target()]
	}

	// servers that do not advertise HEAD
	for _, name := range []plumbing.ReferenceName{plumbing.NewBranchReferenceName("main"), plumbing.Master} {
		if ref, ok := byName[name]; ok && ref.Type() == plumbing.HashReference {
			return ref.Hash().String(), nil
		}
	}

	return "", fmt.Errorf("remote HEAD not advertised")
}

func authFor(url string) transport.AuthMethod {
	if strings.HasPrefix(url, "git@") || strings.HasPrefix(url, "ssh://") {
		if sshKey := os.Getenv("SSH_KEY_PATH"); sshKey != "" {
			if auth, err := ssh.NewPublicKeysFromFile("git", sshKey, ""); err == nil {
				return auth
			}
		}
		if auth, err := ssh.NewSSHAgentAuth("git"); err == nil {
			return auth
		}
		return nil
	}

	if username := os.Getenv("GIT_USERNAME"); username != "" {
		if password := os.Getenv("GIT_PASSWORD"); password != "" {
			return &http.BasicAuth{
				Username: username,
				Password: password,
			}
		}
	}

	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		return &http.BasicAuth{
			Username: "token",
			Password: token,
		}
	}

	return nil
}

// Short abbreviates a commit hash for display
func Short(hash string) string {
	if len(hash) > 7 {
		return hash[:7]
	}
	return hash
}
