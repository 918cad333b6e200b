package vcs

import (
	"context"
	"math/rand/v2"

	"github.com/go-git/go-git/v5/plumbing"

	"github.com/release-engineering/distrobaker/internal/errs"
)

const ephemeralBranchLength = 16

var letters = []rune("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ")

func randomBranchName() string {
	b := make([]rune, ephemeralBranchLength)
	for i := range b {
		b[i] = letters[rand.IntN(len(letters))]
	}
	return string(b)
}

// newEphemeralBranch draws a fresh, unused branch name (16 uniform
// letters per §4.3), retrying up to retries times on collision;
// exhaustion is fatal.
func (m *Mirror) newEphemeralBranch(ctx context.Context, retries int) (plumbing.ReferenceName, error) {
	for attempt := 0; attempt <= retries; attempt++ {
		name := plumbing.NewBranchReferenceName(randomBranchName())
		if _, err := m.repo.Reference(name, false); err != nil {
			return name, nil
		}
	}
	return "", errs.MergeConflict("generate ephemeral branch", errNoUnusedBranchName)
}

var errNoUnusedBranchName = errBranchNameExhausted{}

type errBranchNameExhausted struct{}

func (errBranchNameExhausted) Error() string {
	return "exhausted retries drawing an unused ephemeral branch name"
}
