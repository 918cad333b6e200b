package module

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/release-engineering/distrobaker/internal/buildsystem"
	"github.com/release-engineering/distrobaker/internal/pipeline"
	"github.com/release-engineering/distrobaker/internal/scmref"
)

const modulemdDoc = `
document: modulemd
version: 2
data:
  components:
    rpms:
      bash:
        repository: https://src.example.com/rpms/bash
        cache: bash
        ref: f36
      glibc:
        repository: https://src.example.com/rpms/glibc
        cache: glibc
        ref: f36
    modules: {}
`

const moduleOfModulesDoc = `
document: modulemd
version: 2
data:
  components:
    rpms: {}
    modules:
      nested:
        repository: https://src.example.com/modules/nested
        ref: main
`

type fakeSyncer struct {
	calls   []pipeline.Request
	fail    string
	results map[string]pipeline.Result
}

func (f *fakeSyncer) SyncRepo(ctx context.Context, req pipeline.Request) (pipeline.Result, error) {
	f.calls = append(f.calls, req)
	if f.fail != "" && req.Component == f.fail {
		return pipeline.Result{}, assertError("forced failure")
	}
	if r, ok := f.results[req.Component]; ok {
		return r, nil
	}
	return pipeline.Result{Ref: "https://dst/rpms/" + req.Component + "#main"}, nil
}

type assertError string

func (e assertError) Error() string { return string(e) }

type noopSource struct{}

func (noopSource) LatestBuildByTag(ctx context.Context, tag, component string) (buildsystem.BuildInfo, error) {
	return buildsystem.BuildInfo{}, nil
}
func (noopSource) ListTagged(ctx context.Context, tag string, latest bool) ([]buildsystem.BuildInfo, error) {
	return nil, nil
}
func (noopSource) GetBuild(ctx context.Context, nvr string) (buildsystem.BuildInfo, error) {
	return buildsystem.BuildInfo{Modulemd: modulemdDoc}, nil
}
func (noopSource) SubmitFlat(ctx context.Context, scmURL, target string, opts buildsystem.SubmitOptions) (int64, error) {
	return 0, nil
}
func (noopSource) SubmitModular(ctx context.Context, scmURL, stream, platform string, opts buildsystem.SubmitOptions) (int64, error) {
	return 0, nil
}

func TestExpand_SyncsEachRPMConstituent(t *testing.T) {
	syncer := &fakeSyncer{}
	e := &Expander{Syncer: syncer, SourceSystem: noopSource{}}

	err := e.Expand(t.Context(), scmref.ModuleCoord{Name: "mymod", Stream: "1"}, "mymod-1-1", modulemdDoc)
	require.NoError(t, err)
	assert.Len(t, syncer.calls, 2)
}

func TestExpand_FetchesModulemdWhenMissing(t *testing.T) {
	syncer := &fakeSyncer{}
	e := &Expander{Syncer: syncer, SourceSystem: noopSource{}}

	err := e.Expand(t.Context(), scmref.ModuleCoord{Name: "mymod", Stream: "1"}, "mymod-1-1", "")
	require.NoError(t, err)
	assert.Len(t, syncer.calls, 2)
}

func TestExpand_ModuleOfModulesFails(t *testing.T) {
	syncer := &fakeSyncer{}
	e := &Expander{Syncer: syncer, SourceSystem: noopSource{}}

	err := e.Expand(t.Context(), scmref.ModuleCoord{Name: "mymod", Stream: "1"}, "mymod-1-1", moduleOfModulesDoc)
	assert.Error(t, err)
}

func TestExpand_ConstituentFailureAbortsModule(t *testing.T) {
	syncer := &fakeSyncer{fail: "glibc"}
	e := &Expander{Syncer: syncer, SourceSystem: noopSource{}}

	err := e.Expand(t.Context(), scmref.ModuleCoord{Name: "mymod", Stream: "1"}, "mymod-1-1", modulemdDoc)
	assert.Error(t, err)
}
