// Package source acquires the document source tree. Local directories are
// used as-is; a configured git repository is cloned into a workspace first.
package source

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"git.home.luguber.info/inful/mystbuilder/internal/config"
	"git.home.luguber.info/inful/mystbuilder/internal/retry"
)

// Resolve returns the directory holding the document sources. When the
// config names a git repository, it is cloned (shallow) into workspaceDir
// and the configured source directory is resolved inside the checkout.
func Resolve(ctx context.Context, cfg *config.SourceConfig, workspaceDir string) (string, error) {
	if cfg.Repository == "" {
		return cfg.Directory, nil
	}

	repoPath := filepath.Join(workspaceDir, "source")
	slog.Debug("Cloning source repository",
		"url", cfg.Repository, "branch", cfg.Branch, "path", repoPath)

	cloneOptions := &git.CloneOptions{URL: cfg.Repository, Depth: 1}
	if cfg.Branch != "" {
		cloneOptions.ReferenceName = plumbing.ReferenceName("refs/heads/" + cfg.Branch)
		cloneOptions.SingleBranch = true
	}

	// Clones go over the network; retry transient failures with backoff.
	err := retry.DefaultPolicy().Do(ctx, func() error {
		_ = os.RemoveAll(repoPath)
		_, err := git.PlainCloneContext(ctx, repoPath, false, cloneOptions)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("failed to clone source repository: %w", err)
	}

	return filepath.Join(repoPath, cfg.Directory), nil
}
