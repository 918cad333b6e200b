// Package module implements the Module Expander (C6, §4.6): for a
// modular build, parse its metadata document, recursively synchronize
// each RPM constituent via the Component Pipeline (deferring their
// pushes), then push every constituent's repository once all of them
// have synced successfully.
package module

import (
	"context"
	"fmt"
	"os"

	"github.com/release-engineering/distrobaker/internal/buildsystem"
	"github.com/release-engineering/distrobaker/internal/errs"
	"github.com/release-engineering/distrobaker/internal/modulemd"
	"github.com/release-engineering/distrobaker/internal/pipeline"
	"github.com/release-engineering/distrobaker/internal/scmref"
)

// Syncer is the subset of *pipeline.Pipeline the Module Expander drives:
// one C5 invocation per RPM constituent.
type Syncer interface {
	SyncRepo(ctx context.Context, req pipeline.Request) (pipeline.Result, error)
}

// Expander implements pipeline.ModuleExpander, closing the recursion
// between C5 and C6 without an import cycle: engine wires an *Expander
// whose Syncer is the very *pipeline.Pipeline that calls it.
type Expander struct {
	Syncer       Syncer
	SourceSystem buildsystem.System
	Logger       logger
}

type logger interface {
	Info(msg string, args ...any)
	Error(msg string, args ...any)
}

// Expand parses coord's metadata document (fetching it from the source
// build system when doc is empty), recursively syncs every RPM
// constituent, and pushes all of their repositories atomically once
// every constituent has synced without error.
func (e *Expander) Expand(ctx context.Context, coord scmref.ModuleCoord, nvr, doc string) error {
	if doc == "" {
		bi, err := e.SourceSystem.GetBuild(ctx, nvr)
		if err != nil {
			return err
		}
		doc = bi.Modulemd
	}

	md, err := modulemd.Parse(doc)
	if err != nil {
		return err
	}

	// Module-of-modules expansion is not implemented (§4.6, §9 open
	// question 2): a correct reimplementation fails rather than silently
	// no-op'ing, unlike the source this was distilled from.
	if moduleNames := md.ModuleNames(); len(moduleNames) > 0 {
		e.logError("module-of-modules expansion is unsupported", "module", coord.String(), "nested_modules", moduleNames)
		return errs.Unsupported("expand module", fmt.Errorf("module %s declares nested module components %v, which is not supported", coord, moduleNames))
	}

	type deferred struct {
		result pipeline.Result
		dir    string
	}
	var pending []deferred

	for _, name := range md.RPMNames() {
		rpm := md.Data.Components.RPMs[name]
		dir, err := os.MkdirTemp("", "distrobaker-module-*")
		if err != nil {
			return errs.RemoteFetch("create module constituent scratch dir", err)
		}

		result, err := e.Syncer.SyncRepo(ctx, pipeline.Request{
			Namespace:        "rpms",
			Component:        name,
			NVR:              nvr,
			GitDir:           dir,
			ContainingModule: &coord,
			SCMURL:           rpm.SCMURL(),
			SourceCacheName:  rpm.Cache,
		})
		if err != nil {
			for _, p := range pending {
				os.RemoveAll(p.dir)
			}
			os.RemoveAll(dir)
			return err
		}
		if result.Mirror == nil {
			os.RemoveAll(dir)
			continue
		}
		pending = append(pending, deferred{result: result, dir: dir})
	}

	for _, p := range pending {
		defer os.RemoveAll(p.dir)
		if err := p.result.Mirror.Push(ctx, p.result.DestBranch); err != nil {
			e.logError("module constituent push failed, stopping atomic push", "module", coord.String(), "error", err)
			return err
		}
	}

	e.logInfo("module constituents pushed", "module", coord.String(), "count", len(pending))
	return nil
}

func (e *Expander) logInfo(msg string, args ...any) {
	if e.Logger != nil {
		e.Logger.Info(msg, args...)
	}
}

func (e *Expander) logError(msg string, args ...any) {
	if e.Logger != nil {
		e.Logger.Error(msg, args...)
	}
}
