package vcs

import (
	"context"
	"fmt"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/release-engineering/distrobaker/internal/errs"
)

// MergeStrategyA implements §4.3 Strategy A: an unrelated-histories
// merge of destRef's prior content with the full tree of the source
// build ref, landing as one squashed commit on destRef.
//
// go-git v5 has no `git merge` porcelain, so the "-s ours
// --allow-unrelated-histories --no-commit" and "--squash --no-commit"
// steps are built directly from commit/tree primitives: a merge commit
// is a plain object.Commit with two parent hashes and the tree of
// whichever side "wins" the strategy, encoded and stored without ever
// running a tree-level three-way merge.
func (m *Mirror) MergeStrategyA(ctx context.Context, ref, destRef string, retries int, sourceLink, gitMessage string) (plumbing.Hash, error) {
	buildRef, buildHash, err := m.resolveBuildRef(ref)
	if err != nil {
		return plumbing.ZeroHash, err
	}

	ephemeral, err := m.newEphemeralBranch(ctx, retries)
	if err != nil {
		return plumbing.ZeroHash, err
	}

	buildCommit, err := m.repo.CommitObject(buildHash)
	if err != nil {
		return plumbing.ZeroHash, errs.MergeConflict("resolve build ref commit", err)
	}

	destRefName := plumbing.NewBranchReferenceName(destRef)
	destHeadRef, err := m.repo.Reference(destRefName, true)
	if err != nil {
		return plumbing.ZeroHash, errs.MergeConflict("resolve destination ref", err)
	}
	destHash := destHeadRef.Hash()

	// Checkout the ephemeral branch at the build ref's commit.
	if err := m.repo.Storer.SetReference(plumbing.NewHashReference(ephemeral, buildHash)); err != nil {
		return plumbing.ZeroHash, errs.MergeConflict("create ephemeral branch", err)
	}
	wt, err := m.repo.Worktree()
	if err != nil {
		return plumbing.ZeroHash, errs.MergeConflict("open worktree", err)
	}
	if err := wt.Checkout(&git.CheckoutOptions{Branch: ephemeral, Force: true}); err != nil {
		return plumbing.ZeroHash, errs.MergeConflict("checkout ephemeral branch", err)
	}

	// Strategy "ours": the merge commit's tree is the ephemeral (build
	// ref) tree, with both sides recorded as parents.
	mergeHash, err := m.newCommit(
		buildCommit.TreeHash,
		[]plumbing.Hash{buildHash, destHash},
		"Temporary working tree merge",
	)
	if err != nil {
		return plumbing.ZeroHash, errs.MergeConflict("commit unrelated-histories merge", err)
	}
	if err := m.repo.Storer.SetReference(plumbing.NewHashReference(ephemeral, mergeHash)); err != nil {
		return plumbing.ZeroHash, errs.MergeConflict("advance ephemeral branch", err)
	}

	// Checkout destRef and squash the ephemeral branch onto it as one
	// commit whose tree equals the merge commit's (and therefore the
	// build ref's) tree.
	if err := wt.Checkout(&git.CheckoutOptions{Branch: destRefName, Force: true}); err != nil {
		return plumbing.ZeroHash, errs.MergeConflict("checkout destination ref", err)
	}
	message := fmt.Sprintf("%s\nSource: %s#%s", gitMessage, sourceLink, buildRef)
	squashHash, err := m.newCommit(buildCommit.TreeHash, []plumbing.Hash{destHash}, message)
	if err != nil {
		return plumbing.ZeroHash, errs.MergeConflict("commit squash merge", err)
	}
	if err := m.repo.Storer.SetReference(plumbing.NewHashReference(destRefName, squashHash)); err != nil {
		return plumbing.ZeroHash, errs.MergeConflict("advance destination ref", err)
	}
	if err := wt.Checkout(&git.CheckoutOptions{Branch: destRefName, Force: true}); err != nil {
		return plumbing.ZeroHash, errs.MergeConflict("checkout squashed destination ref", err)
	}

	return squashHash, nil
}

// resolveBuildRef prefers the fetched "source/<ref>" remote-tracking
// branch over the bare destination-local "<ref>"; a ref that resolves to
// neither is treated as a raw commit hash (§4.3).
func (m *Mirror) resolveBuildRef(ref string) (string, plumbing.Hash, error) {
	if r, err := m.repo.Reference(plumbing.NewRemoteReferenceName(sourceRemoteName, ref), true); err == nil {
		return ref, r.Hash(), nil
	}
	if r, err := m.repo.Reference(plumbing.NewBranchReferenceName(ref), true); err == nil {
		return ref, r.Hash(), nil
	}
	if h := plumbing.NewHash(ref); !h.IsZero() {
		return ref, h, nil
	}
	return "", plumbing.ZeroHash, errs.MergeConflict("resolve build ref", fmt.Errorf("ref %q not found", ref))
}

func (m *Mirror) newCommit(tree plumbing.Hash, parents []plumbing.Hash, message string) (plumbing.Hash, error) {
	sig := m.identity.signature()
	commit := &object.Commit{
		Author:       *sig,
		Committer:    *sig,
		Message:      message,
		TreeHash:     tree,
		ParentHashes: parents,
	}
	obj := m.repo.Storer.NewEncodedObject()
	if err := commit.Encode(obj); err != nil {
		return plumbing.ZeroHash, err
	}
	return m.repo.Storer.SetEncodedObject(obj)
}
