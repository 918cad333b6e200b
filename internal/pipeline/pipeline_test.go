package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/release-engineering/distrobaker/internal/buildsystem"
	"github.com/release-engineering/distrobaker/internal/config"
	"github.com/release-engineering/distrobaker/internal/scmref"
)

func testConfig() *config.Config {
	return &config.Config{
		Configuration: config.Configuration{
			Source: config.Endpoint{
				SCM:   "https://src.example.com",
				Cache: config.CacheConfig{URL: "https://cache.src", CGI: "/upload.cgi", Path: "/repo"},
			},
			Destination: config.Endpoint{
				SCM:   "https://dst.example.com",
				Cache: config.CacheConfig{URL: "https://cache.dst", CGI: "/upload.cgi", Path: "/repo"},
			},
			Trigger: config.Trigger{RPMs: "rpms-trigger", Modules: "modules-trigger"},
			Git:     config.Git{Author: "DistroBaker", Email: "d@example.com", Message: "Sync"},
			Control: config.Control{},
			Defaults: config.Defaults{
				Cache: config.DefaultPair{Source: "%(component)s", Destination: "%(component)s"},
				RPMs:  config.DefaultPair{Source: "rpms/%(component)s#%(ref)s", Destination: "rpms/%(component)s#%(ref)s"},
				Modules: config.ModuleDefaults{
					Source:      "modules/%(name)s#%(stream)s",
					Destination: "modules/%(name)s#%(stream)s",
					RPMs:        config.DefaultPair{Source: "rpms/%(component)s#%(ref)s", Destination: "rpms/%(component)s#%(ref)s"},
				},
			},
		},
	}
}

func TestBaseComponentName(t *testing.T) {
	assert.Equal(t, "foo", baseComponentName("foo"))
	assert.Equal(t, "mymod", baseComponentName("mymod:stream1"))
}

func TestResolveBuildCoordinate_ExplicitSCMURL(t *testing.T) {
	p := &Pipeline{Config: testConfig()}
	scmurl, mmd, nvr, err := p.resolveBuildCoordinate(context.Background(), Request{
		SCMURL: "https://src.example.com/rpms/foo#main",
		NVR:    "foo-1-2",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://src.example.com/rpms/foo#main", scmurl)
	assert.Empty(t, mmd)
	assert.Equal(t, "foo-1-2", nvr)
}

type fakeSource struct {
	bi  buildsystem.BuildInfo
	err error
}

func (f fakeSource) LatestBuildByTag(ctx context.Context, tag, component string) (buildsystem.BuildInfo, error) {
	return f.bi, f.err
}
func (f fakeSource) ListTagged(ctx context.Context, tag string, latest bool) ([]buildsystem.BuildInfo, error) {
	return nil, nil
}
func (f fakeSource) GetBuild(ctx context.Context, nvr string) (buildsystem.BuildInfo, error) {
	return f.bi, f.err
}
func (f fakeSource) SubmitFlat(ctx context.Context, scmURL, target string, opts buildsystem.SubmitOptions) (int64, error) {
	return 0, nil
}
func (f fakeSource) SubmitModular(ctx context.Context, scmURL, stream, platform string, opts buildsystem.SubmitOptions) (int64, error) {
	return 0, nil
}

func TestResolveBuildCoordinate_QueriesSourceWhenNVRMissing(t *testing.T) {
	src := fakeSource{bi: buildsystem.BuildInfo{NVR: "foo-1-2", SCMURL: "https://src/rpms/foo#main"}}
	p := &Pipeline{Config: testConfig(), SourceSystem: src}

	scmurl, _, nvr, err := p.resolveBuildCoordinate(context.Background(), Request{Namespace: "rpms", Component: "foo"})
	require.NoError(t, err)
	assert.Equal(t, "https://src/rpms/foo#main", scmurl)
	assert.Equal(t, "foo-1-2", nvr)
}

func TestResolveURLs_RPMDefaults(t *testing.T) {
	p := &Pipeline{Config: testConfig()}
	resolved, err := p.resolveURLs(Request{Namespace: "rpms", Component: "foo"}, scmref.Ref{Ref: "main"})
	require.NoError(t, err)
	assert.Equal(t, "https://src.example.com/rpms/foo", resolved.SourceSCM.Link)
	assert.Equal(t, "main", resolved.SourceSCM.Ref)
}

func TestResolveURLs_ModuleSubcomponent(t *testing.T) {
	p := &Pipeline{Config: testConfig()}
	coord := &scmref.ModuleCoord{Name: "mymod", Stream: "1"}
	resolved, err := p.resolveURLs(Request{Namespace: "rpms", Component: "bash", ContainingModule: coord}, scmref.Ref{Ref: "f36"})
	require.NoError(t, err)
	assert.Equal(t, "f36", resolved.SourceSCM.Ref)
}

func TestSyncRepo_ExcludedComponentIsSkipped(t *testing.T) {
	cfg := testConfig()
	cfg.Configuration.Control.Exclude.RPMs = []string{"excluded-pkg"}
	p := &Pipeline{Config: cfg}

	result, err := p.SyncRepo(context.Background(), Request{Namespace: "rpms", Component: "excluded-pkg"})
	require.NoError(t, err)
	assert.True(t, result.Skipped)
}
