// Package vcs downloads and updates remote repositories declared in
// configuration files into the local cache folder.
package vcs

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/modm-io/lbuild/internal/config"
	"github.com/modm-io/lbuild/internal/errors"
	"github.com/modm-io/lbuild/internal/output"
)

// Update clones every declared remote repository into cachedir, or
// pulls it when a previous clone exists. A pinned commit is checked
// out after cloning and never pulled over.
func Update(ctx context.Context, cachedir string, declarations []config.Git) error {
	if len(declarations) == 0 {
		return nil
	}
	if err := os.MkdirAll(cachedir, 0o755); err != nil {
		return errors.Wrap(errors.ErrConfiguration,
			"creating cache folder %q: %v", cachedir, err)
	}
	for _, declaration := range declarations {
		if err := updateOne(ctx, cachedir, declaration); err != nil {
			return err
		}
	}
	return nil
}

func updateOne(ctx context.Context, cachedir string, declaration config.Git) error {
	name := declaration.Name
	if name == "" {
		name = nameFromURL(declaration.URL)
	}
	if name == "" {
		return errors.Wrap(errors.ErrConfiguration,
			"git declaration without name or usable url %q", declaration.URL)
	}
	dest := filepath.Join(cachedir, name)

	repo, err := git.PlainOpen(dest)
	switch {
	case err == git.ErrRepositoryNotExists:
		output.Info("cloning repository", "name", name, "url", declaration.URL)
		repo, err = clone(ctx, dest, declaration)
		if err != nil {
			return errors.Wrap(errors.ErrConfiguration,
				"cloning %q from %q: %v", name, declaration.URL, err)
		}
	case err != nil:
		return errors.Wrap(errors.ErrConfiguration,
			"opening cached repository %q: %v", dest, err)
	case declaration.Commit == "":
		output.Info("updating repository", "name", name)
		if err := pull(ctx, repo); err != nil {
			return errors.Wrap(errors.ErrConfiguration,
				"updating %q: %v", name, err)
		}
	}

	if declaration.Commit != "" {
		if err := checkout(repo, declaration.Commit); err != nil {
			return errors.Wrap(errors.ErrConfiguration,
				"%q: checking out %s: %v", name, declaration.Commit, err)
		}
	}
	return nil
}

func clone(ctx context.Context, dest string, declaration config.Git) (*git.Repository, error) {
	options := &git.CloneOptions{
		URL: declaration.URL,
	}
	if declaration.Branch != "" {
		options.ReferenceName = plumbing.NewBranchReferenceName(declaration.Branch)
		options.SingleBranch = true
	}
	repo, err := git.PlainCloneContext(ctx, dest, false, options)
	if err != nil {
		// Leave no half-finished clone behind.
		_ = os.RemoveAll(dest)
		return nil, err
	}
	return repo, nil
}

func pull(ctx context.Context, repo *git.Repository) error {
	worktree, err := repo.Worktree()
	if err != nil {
		return err
	}
	err = worktree.PullContext(ctx, &git.PullOptions{})
	if err == git.NoErrAlreadyUpToDate {
		return nil
	}
	return err
}

func checkout(repo *git.Repository, commit string) error {
	worktree, err := repo.Worktree()
	if err != nil {
		return err
	}
	return worktree.Checkout(&git.CheckoutOptions{
		Hash: plumbing.NewHash(commit),
	})
}

func nameFromURL(url string) string {
	url = strings.TrimSuffix(strings.TrimRight(url, "/"), ".git")
	if i := strings.LastIndexAny(url, "/:"); i >= 0 {
		url = url[i+1:]
	}
	return url
}
