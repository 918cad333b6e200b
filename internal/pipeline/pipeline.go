// Package pipeline implements the Component Pipeline (C5, §4.5):
// syncRepo, the nine-step per-component algorithm that orchestrates the
// VCS Mirror and Lookaside Reconciler, deferring to an injected
// ModuleExpander for module recursion (step 8) to avoid an import cycle
// with internal/module, which itself calls back into this package for
// each RPM constituent.
package pipeline

import (
	"context"
	"os"
	"path/filepath"

	"github.com/release-engineering/distrobaker/internal/buildsystem"
	"github.com/release-engineering/distrobaker/internal/config"
	"github.com/release-engineering/distrobaker/internal/errs"
	"github.com/release-engineering/distrobaker/internal/lookaside"
	"github.com/release-engineering/distrobaker/internal/manifest"
	"github.com/release-engineering/distrobaker/internal/scmref"
	"github.com/release-engineering/distrobaker/internal/vcs"
)

// ModuleExpander is step 8's recursion hook (C6). Implemented by
// internal/module and injected by internal/engine, so this package never
// imports internal/module directly.
type ModuleExpander interface {
	Expand(ctx context.Context, coord scmref.ModuleCoord, nvr, modulemdDoc string) error
}

// Request is syncRepo's input (§4.5): the component to sync plus the
// optional overrides the Module Expander and Dispatcher supply.
type Request struct {
	Namespace string // "rpms" or "modules"
	Component string
	NVR       string // optional; resolved via build-system query when empty

	// GitDir, when non-empty, is a caller-supplied working directory
	// (the module-expansion path): the pipeline reuses it and defers the
	// push to the caller instead of pushing itself.
	GitDir string

	// ContainingModule is set when Component is an RPM constituent of a
	// module, providing %(name)s/%(stream)s placeholders.
	ContainingModule *scmref.ModuleCoord

	// SCMURL, when set, is used verbatim instead of querying the
	// build system (the Module Expander's constituent-package path).
	SCMURL string
	// SourceCacheName, when set, overrides the resolved source cache
	// name (§4.4's "custom source-cache URL" compatibility placeholder).
	SourceCacheName string
}

// Result is syncRepo's output: the resulting destination reference, and,
// when the push was deferred to the caller, the open Mirror and branch
// name it still needs to push.
type Result struct {
	Ref        string
	Skipped    bool
	Mirror     *vcs.Mirror
	DestBranch string
}

// Pipeline holds the dependencies every syncRepo invocation needs.
type Pipeline struct {
	Config       *config.Config
	SourceSystem buildsystem.System
	DestSystem   buildsystem.System
	Lookaside    *lookaside.Reconciler
	Identity     vcs.Identity
	Retries      int
	DryRun       bool
	Expander     ModuleExpander
	Logger       logger
}

type logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

// SyncRepo runs the nine-step algorithm of §4.5 for one component.
func (p *Pipeline) SyncRepo(ctx context.Context, req Request) (Result, error) {
	// Step 1: guards.
	if p.Config == nil {
		return Result{}, errs.Config("syncRepo", errNoConfig)
	}
	if p.Config.Configuration.Control.Exclude.Contains(req.Namespace, baseComponentName(req.Component)) {
		return Result{Skipped: true}, nil
	}

	// Step 2: resolve build coordinate.
	bscmurl, bmmd, nvr, err := p.resolveBuildCoordinate(ctx, req)
	if err != nil {
		return Result{}, err
	}
	bscm := scmref.Parse(bscmurl)
	if bscm.Ref == "" {
		bscm.Ref = scmref.DefaultRef
	}

	// Step 3: compute URLs.
	resolved, err := p.resolveURLs(req, bscm)
	if err != nil {
		return Result{}, err
	}
	if resolved.DestSCM.Ref == "" {
		resolved.DestSCM.Ref = scmref.DefaultRef
	}
	sourceCacheName := resolved.SourceCacheName
	if req.SourceCacheName != "" {
		if req.SourceCacheName != sourceCacheName {
			p.logWarn("custom source cache URL differs from configured source cache",
				"component", req.Component, "configured", sourceCacheName, "custom", req.SourceCacheName)
		}
		sourceCacheName = req.SourceCacheName
	}

	// Step 4: prepare working directory.
	dir := req.GitDir
	pushRepo := dir == ""
	if pushRepo {
		dir, err = os.MkdirTemp("", "distrobaker-sync-*")
		if err != nil {
			return Result{}, errs.RemoteFetch("create scratch dir", err)
		}
		defer os.RemoveAll(dir)
	}

	// Step 5: clone, fetch, configure; read pre-sync manifest.
	mirror, err := vcs.Clone(ctx, dir, resolved.DestSCM.Link, resolved.DestSCM.Ref, p.Identity, p.Retries, p.DryRun)
	if err != nil {
		return Result{}, err
	}
	if err := mirror.Fetch(ctx, resolved.SourceSCM.Link, bscm.Ref); err != nil {
		return Result{}, err
	}
	mirror.Configure(p.Identity)

	dsrc, err := manifest.ParseFile(filepath.Join(dir, "sources"))
	if err != nil {
		return Result{}, errs.ManifestParse("read pre-sync manifest", err).WithComponent(req.Namespace, req.Component, nvr)
	}

	// Step 6: apply the configured strategy.
	if p.Config.Configuration.Control.Merge {
		if _, err := mirror.MergeStrategyA(ctx, bscm.Ref, resolved.DestSCM.Ref, p.Retries, resolved.SourceSCM.Link, p.Config.Configuration.Git.Message); err != nil {
			return Result{}, err
		}
	} else {
		if _, err := mirror.PullStrategyB(ctx, resolved.DestSCM.Ref, bscm.Ref); err != nil {
			return Result{}, err
		}
	}

	// Step 7: read post-sync manifest, reconcile lookaside.
	ssrc, err := manifest.ParseFile(filepath.Join(dir, "sources"))
	if err != nil {
		return Result{}, errs.ManifestParse("read post-sync manifest", err).WithComponent(req.Namespace, req.Component, nvr)
	}
	missing := manifest.Diff(ssrc, dsrc)
	if len(missing) > 0 {
		srcEP := lookaside.Endpoint{
			URL:  p.Config.Configuration.Source.Cache.URL,
			CGI:  p.Config.Configuration.Source.Cache.CGI,
			Path: p.Config.Configuration.Source.Cache.Path,
		}
		dstEP := lookaside.Endpoint{
			URL:  p.Config.Configuration.Destination.Cache.URL,
			CGI:  p.Config.Configuration.Destination.Cache.CGI,
			Path: p.Config.Configuration.Destination.Cache.Path,
		}
		if err := p.Lookaside.Reconcile(ctx, srcEP, dstEP, req.Namespace, sourceCacheName, resolved.DestCacheName, missing); err != nil {
			return Result{}, err
		}
	}

	// Step 8: module recursion.
	if req.Namespace == "modules" {
		if p.Expander == nil {
			return Result{}, errs.Unsupported("module expansion", errNoExpander)
		}
		coord := scmref.ParseModuleCoord(req.Component)
		if err := p.Expander.Expand(ctx, coord, nvr, bmmd); err != nil {
			return Result{}, err
		}
	}

	// Step 9: push, or defer to caller.
	if !pushRepo {
		return Result{
			Ref:        resolved.DestSCM.Link + "#" + resolved.DestSCM.Ref,
			Mirror:     mirror,
			DestBranch: resolved.DestSCM.Ref,
		}, nil
	}

	if err := mirror.Push(ctx, resolved.DestSCM.Ref); err != nil {
		return Result{}, err
	}
	head, err := mirror.HeadHash()
	if err != nil {
		return Result{}, err
	}
	return Result{Ref: resolved.DestSCM.Link + "#" + head.String()}, nil
}

func (p *Pipeline) resolveBuildCoordinate(ctx context.Context, req Request) (scmurl, modulemdDoc, nvr string, err error) {
	if req.SCMURL != "" {
		return req.SCMURL, "", req.NVR, nil
	}

	nvr = req.NVR
	var bi buildsystem.BuildInfo
	if nvr == "" {
		tag := p.Config.Configuration.Trigger.RPMs
		if req.Namespace == "modules" {
			tag = p.Config.Configuration.Trigger.Modules
		}
		bi, err = p.SourceSystem.LatestBuildByTag(ctx, tag, req.Component)
	} else {
		bi, err = p.SourceSystem.GetBuild(ctx, nvr)
	}
	if err != nil {
		return "", "", "", err
	}
	return bi.SCMURL, bi.Modulemd, bi.NVR, nil
}

func (p *Pipeline) resolveURLs(req Request, bscm scmref.Ref) (config.Resolved, error) {
	ph := config.Placeholders{Ref: bscm.Ref}
	if req.ContainingModule != nil {
		ph.Name = req.ContainingModule.Name
		ph.Stream = req.ContainingModule.Stream
		return config.ResolveModuleSubcomponent(p.Config, req.ContainingModule.Name, req.Component, ph)
	}
	return config.Resolve(p.Config, req.Namespace, req.Component, ph)
}

func (p *Pipeline) logWarn(msg string, args ...any) {
	if p.Logger != nil {
		p.Logger.Warn(msg, args...)
	}
}

// baseComponentName strips a module's ":stream" suffix so exclude-list
// lookups match on the bare component/module name regardless of
// namespace, matching §3's "component names as unique keys within each
// namespace".
func baseComponentName(component string) string {
	coord := scmref.ParseModuleCoord(component)
	if coord.Stream == scmref.DefaultStream && coord.Name == component {
		return component
	}
	return coord.Name
}

var errNoConfig = pipelineError("no configuration loaded")
var errNoExpander = pipelineError("namespace is modules but no ModuleExpander was configured")

type pipelineError string

func (e pipelineError) Error() string { return string(e) }
