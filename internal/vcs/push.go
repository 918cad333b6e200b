package vcs

import (
	"context"
	"fmt"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"

	"github.com/release-engineering/distrobaker/internal/errs"
	"github.com/release-engineering/distrobaker/internal/resilience"
)

// Push pushes destRef plus tags to origin with upstream tracking set
// (§4.3 step 5). In dry-run it uses go-git's DryRun push option so no
// network write actually occurs. Retried up to retries times.
func (m *Mirror) Push(ctx context.Context, destRef string) error {
	refSpec := config.RefSpec(fmt.Sprintf("refs/heads/%s:refs/heads/%s", destRef, destRef))
	tagsSpec := config.RefSpec("refs/tags/*:refs/tags/*")

	return resilience.WithRetry(ctx, m.retry, func() error {
		err := m.repo.PushContext(ctx, &git.PushOptions{
			RemoteName: "origin",
			RefSpecs:   []config.RefSpec{refSpec, tagsSpec},
			DryRun:     m.dryRun,
		})
		if err != nil && err != git.NoErrAlreadyUpToDate {
			return errs.RemoteFetch("push destination", err)
		}
		return nil
	})
}
