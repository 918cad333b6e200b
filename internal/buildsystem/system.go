// Package buildsystem implements the Build-System Client Pool (C2, §4.2):
// cached sessions to the source and destination build systems, NVR/tag
// queries, and flat/modular build submission behind one capability
// interface, per §9's "polymorphic build system" design note.
package buildsystem

import "context"

// BuildInfo is a build-system build record (§4.2). For flat builds Name,
// Stream, and Modulemd are empty. For modular builds they are populated
// from extra.typeinfo.module.{name,stream,modulemd_str}.
type BuildInfo struct {
	NVR      string
	SCMURL   string
	Name     string
	Stream   string
	Modulemd string
}

// SubmitOptions parameterizes a build submission.
type SubmitOptions struct {
	Scratch bool
	// BuildrequireOverrides maps a platform module name to the stream
	// list MBS should substitute for it (modular submissions only).
	BuildrequireOverrides map[string][]string
}

// System is the capability every build-system role (source, destination)
// exposes. Source sessions are query-only in practice (§4.2's "source
// sessions are anonymous"); submission is only ever invoked against the
// destination, but the interface does not special-case that — avoiding
// conditional branching on role at call sites, per §9.
type System interface {
	// LatestBuildByTag returns the most recently tagged build of component
	// under tag, or an *errs.Error of kind KindBuildSystem if none exists.
	LatestBuildByTag(ctx context.Context, tag, component string) (BuildInfo, error)
	// ListTagged returns every build tagged with tag. When latest is true,
	// only the most recent build per package name is returned.
	ListTagged(ctx context.Context, tag string, latest bool) ([]BuildInfo, error)
	// GetBuild looks up a build record by NVR.
	GetBuild(ctx context.Context, nvr string) (BuildInfo, error)
	// SubmitFlat submits a flat (RPM) rebuild against scmURL targeting
	// target, returning the assigned task ID (0 in dry-run).
	SubmitFlat(ctx context.Context, scmURL, target string, opts SubmitOptions) (int64, error)
	// SubmitModular submits a modular rebuild via the MBS HTTP API,
	// returning the assigned module build ID (0 in dry-run).
	SubmitModular(ctx context.Context, scmURL, stream, platform string, opts SubmitOptions) (int64, error)
}
