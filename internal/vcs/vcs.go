// Package vcs implements the VCS Mirror (C3, §4.3): clone the
// destination, fetch the source, apply one of two merge strategies, and
// push — all against github.com/go-git/go-git/v5, the one real Git
// implementation in the example pack's dependency surface (declared but
// never exercised in rashadism-openchoreo's go.mod; exercised here).
package vcs

import (
	"context"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/release-engineering/distrobaker/internal/errs"
	"github.com/release-engineering/distrobaker/internal/resilience"
)

const sourceRemoteName = "source"

// Identity is the commit author/committer used for every synced commit
// (git.author/git.email, §3).
type Identity struct {
	Name  string
	Email string
}

func (id Identity) signature() *object.Signature {
	return &object.Signature{Name: id.Name, Email: id.Email, When: time.Now()}
}

// Mirror drives one component's working tree through clone → fetch →
// configure → strategy → push (§4.3).
type Mirror struct {
	dir      string
	repo     *git.Repository
	identity Identity
	retry    *resilience.RetryPolicy
	dryRun   bool
}

// Clone clones destURL at destRef into dir (step 1). Retried up to
// retries times.
func Clone(ctx context.Context, dir, destURL, destRef string, identity Identity, retries int, dryRun bool) (*Mirror, error) {
	policy := resilience.FixedRetryPolicy(retries, "vcs_clone")
	var repo *git.Repository
	err := resilience.WithRetry(ctx, policy, func() error {
		r, cloneErr := git.PlainCloneContext(ctx, dir, false, &git.CloneOptions{
			URL:           destURL,
			ReferenceName: plumbing.NewBranchReferenceName(destRef),
			SingleBranch:  true,
			Tags:          git.AllTags,
		})
		if cloneErr != nil {
			return cloneErr
		}
		repo = r
		return nil
	})
	if err != nil {
		return nil, errs.RemoteFetch("clone destination", err)
	}

	return &Mirror{
		dir:      dir,
		repo:     repo,
		identity: identity,
		retry:    policy,
		dryRun:   dryRun,
	}, nil
}

// Fetch adds the source repository as the "source" remote and fetches
// buildRef (or every ref, when buildRef is empty) plus tags (step 2).
func (m *Mirror) Fetch(ctx context.Context, sourceURL, buildRef string) error {
	remote, err := m.repo.CreateRemote(&config.RemoteConfig{
		Name: sourceRemoteName,
		URLs: []string{sourceURL},
	})
	if err != nil {
		return errs.RemoteFetch("register source remote", err)
	}

	var refSpecs []config.RefSpec
	if buildRef != "" {
		refSpecs = []config.RefSpec{
			config.RefSpec("+refs/heads/" + buildRef + ":refs/remotes/source/" + buildRef),
			config.RefSpec("+refs/tags/*:refs/tags/*"),
		}
	} else {
		refSpecs = []config.RefSpec{
			config.RefSpec("+refs/heads/*:refs/remotes/source/*"),
			config.RefSpec("+refs/tags/*:refs/tags/*"),
		}
	}

	return resilience.WithRetry(ctx, m.retry, func() error {
		err := remote.Fetch(&git.FetchOptions{
			RemoteName: sourceRemoteName,
			RefSpecs:   refSpecs,
			Tags:       git.AllTags,
		})
		if err != nil && err != git.NoErrAlreadyUpToDate {
			return errs.RemoteFetch("fetch source", err)
		}
		return nil
	})
}

// Configure sets the local commit identity (step 3). go-git takes the
// author/committer per-commit rather than via repo-local config, so this
// is a no-op beyond recording identity on the Mirror; kept as an explicit
// step to mirror §4.3's numbered pipeline.
func (m *Mirror) Configure(identity Identity) {
	m.identity = identity
}

// Dir returns the scratch working directory backing this Mirror.
func (m *Mirror) Dir() string {
	return m.dir
}

// HeadHash returns the current HEAD commit hash, used by the pipeline to
// build the "<link>#<sha>" result reference after a push.
func (m *Mirror) HeadHash() (plumbing.Hash, error) {
	ref, err := m.repo.Head()
	if err != nil {
		return plumbing.ZeroHash, errs.RemoteFetch("resolve HEAD", err)
	}
	return ref.Hash(), nil
}
