package vcs

import (
	"context"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/release-engineering/distrobaker/internal/errs"
)

// PullStrategyB implements §4.3 Strategy B: `pull --ff-only --tags
// source <buildRef>`. A non-fast-forward pull fails with
// MergeConflictError; per §4.3 this is a per-component failure, never
// fatal to the dispatcher.
func (m *Mirror) PullStrategyB(ctx context.Context, destRef, buildRef string) (plumbing.Hash, error) {
	wt, err := m.repo.Worktree()
	if err != nil {
		return plumbing.ZeroHash, errs.MergeConflict("open worktree", err)
	}

	destRefName := plumbing.NewBranchReferenceName(destRef)
	if err := wt.Checkout(&git.CheckoutOptions{Branch: destRefName, Force: true}); err != nil {
		return plumbing.ZeroHash, errs.MergeConflict("checkout destination ref", err)
	}

	err = wt.PullContext(ctx, &git.PullOptions{
		RemoteName:    sourceRemoteName,
		ReferenceName: plumbing.NewBranchReferenceName(buildRef),
		SingleBranch:  true,
		Force:         false,
	})
	if err != nil && err != git.NoErrAlreadyUpToDate {
		return plumbing.ZeroHash, errs.MergeConflict("fast-forward pull", err)
	}

	head, err := m.repo.Head()
	if err != nil {
		return plumbing.ZeroHash, errs.MergeConflict("resolve post-pull HEAD", err)
	}
	return head.Hash(), nil
}
