package config

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"gopkg.in/yaml.v3"

	"github.com/release-engineering/distrobaker/internal/errs"
	"github.com/release-engineering/distrobaker/internal/resilience"
	"github.com/release-engineering/distrobaker/internal/scmref"
)

const configFileName = "distrobaker.yaml"

// Load clones configRepoURL ("link#ref", ref defaulting to master),
// retried up to retries times, reads distrobaker.yaml from its root,
// and validates it (§4.1). Missing repository, missing file, or any
// failing validation rule yields a *errs.Error of kind KindConfig.
//
// Load never mutates process-wide state; callers swap the returned
// *Config into the engine themselves, preserving §4.1's "the reload is
// atomic: a failed reload leaves the previously loaded config in effect".
func Load(ctx context.Context, configRepoURL string, retries int) (*Config, error) {
	ref := scmref.Parse(configRepoURL)

	dir, err := os.MkdirTemp("", "distrobaker-config-*")
	if err != nil {
		return nil, errs.Config("mkdir scratch dir", err)
	}
	defer os.RemoveAll(dir)

	policy := resilience.FixedRetryPolicy(retries, "config_clone")
	err = resilience.WithRetry(ctx, policy, func() error {
		_, cloneErr := git.PlainCloneContext(ctx, dir, false, &git.CloneOptions{
			URL:           ref.Link,
			ReferenceName: branchReference(ref.Ref),
			Depth:         1,
			SingleBranch:  true,
		})
		return cloneErr
	})
	if err != nil {
		return nil, errs.Config("clone config repository", err).WithComponent("", "", "")
	}

	raw, err := os.ReadFile(filepath.Join(dir, configFileName))
	if err != nil {
		return nil, errs.Config("read "+configFileName, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, errs.Config("parse "+configFileName, err)
	}
	if cfg.Configuration.Source.MBS != nil {
		slog.Warn("configuration.source.mbs is ignored: MBS applies only to the destination")
		cfg.Configuration.Source.MBS = nil
	}

	if err := Validate(&cfg); err != nil {
		return nil, errs.Config("validate "+configFileName, err)
	}

	return &cfg, nil
}

func branchReference(ref string) plumbing.ReferenceName {
	return plumbing.NewBranchReferenceName(ref)
}

