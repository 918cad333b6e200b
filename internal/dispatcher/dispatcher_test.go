package dispatcher

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/release-engineering/distrobaker/internal/buildsystem"
	"github.com/release-engineering/distrobaker/internal/config"
	"github.com/release-engineering/distrobaker/internal/history"
	"github.com/release-engineering/distrobaker/internal/pipeline"
)

type fakeHistory struct {
	records []history.Record
}

func (f *fakeHistory) RecordSync(ctx context.Context, r history.Record) error {
	f.records = append(f.records, r)
	return nil
}

type fakeSystem struct {
	listTagged      []buildsystem.BuildInfo
	listTaggedByTag map[string][]buildsystem.BuildInfo
	getBuild        buildsystem.BuildInfo
	submitted       []string
	submittedID     int64
}

func (f *fakeSystem) LatestBuildByTag(ctx context.Context, tag, component string) (buildsystem.BuildInfo, error) {
	return buildsystem.BuildInfo{}, nil
}
func (f *fakeSystem) ListTagged(ctx context.Context, tag string, latest bool) ([]buildsystem.BuildInfo, error) {
	if l, ok := f.listTaggedByTag[tag]; ok {
		return l, nil
	}
	return f.listTagged, nil
}
func (f *fakeSystem) GetBuild(ctx context.Context, nvr string) (buildsystem.BuildInfo, error) {
	return f.getBuild, nil
}
func (f *fakeSystem) SubmitFlat(ctx context.Context, scmURL, target string, opts buildsystem.SubmitOptions) (int64, error) {
	f.submitted = append(f.submitted, scmURL)
	return f.submittedID, nil
}
func (f *fakeSystem) SubmitModular(ctx context.Context, scmURL, stream, platform string, opts buildsystem.SubmitOptions) (int64, error) {
	f.submitted = append(f.submitted, scmURL)
	return f.submittedID, nil
}

type fakeSyncer struct {
	calls  []pipeline.Request
	result pipeline.Result
}

func (f *fakeSyncer) SyncRepo(ctx context.Context, req pipeline.Request) (pipeline.Result, error) {
	f.calls = append(f.calls, req)
	return f.result, nil
}

func baseConfig() *config.Config {
	return &config.Config{
		Configuration: config.Configuration{
			Trigger: config.Trigger{RPMs: "rpms-trigger", Modules: "modules-trigger"},
			Build:   config.Build{Target: "candidate", Platform: "platform:f36"},
			Control: config.Control{Build: true},
		},
	}
}

func TestHandleEvent_IgnoresNonTagTopic(t *testing.T) {
	syncer := &fakeSyncer{}
	d := &Dispatcher{Config: baseConfig(), Syncer: syncer}
	err := d.HandleEvent(t.Context(), Event{Topic: "buildsys.something-else", Tag: "rpms-trigger"})
	require.NoError(t, err)
	assert.Empty(t, syncer.calls)
}

func TestHandleEvent_FlatTrigger(t *testing.T) {
	syncer := &fakeSyncer{result: pipeline.Result{Ref: "https://dst/rpms/foo#abc"}}
	dest := &fakeSystem{}
	hist := &fakeHistory{}
	d := &Dispatcher{Config: baseConfig(), Syncer: syncer, DestSystem: dest, History: hist}

	err := d.HandleEvent(t.Context(), Event{Topic: "org.fedoraproject.prod.buildsys.tag", Name: "foo", Version: "1", Release: "2", Tag: "rpms-trigger"})
	require.NoError(t, err)
	require.Len(t, syncer.calls, 1)
	assert.Equal(t, "foo-1-2", syncer.calls[0].NVR)
	assert.Len(t, dest.submitted, 1)
	require.Len(t, hist.records, 1)
	assert.Equal(t, history.StatusSuccess, hist.records[0].Status)
	assert.Equal(t, "foo-1-2", hist.records[0].NVR)
}

func TestHandleEvent_ModularTriggerSkipsSideModule(t *testing.T) {
	source := &fakeSystem{getBuild: buildsystem.BuildInfo{Name: "m", Stream: "1", SCMURL: "https://src/modules/m-devel.git"}}
	syncer := &fakeSyncer{}
	d := &Dispatcher{Config: baseConfig(), Syncer: syncer, SourceSystem: source}

	err := d.HandleEvent(t.Context(), Event{Topic: "buildsys.tag", Name: "m-devel", Version: "1", Release: "2", Tag: "modules-trigger"})
	require.NoError(t, err)
	assert.Empty(t, syncer.calls)
}

func TestHandleEvent_ModularTriggerProcessesMatchingName(t *testing.T) {
	source := &fakeSystem{getBuild: buildsystem.BuildInfo{Name: "m", Stream: "1", SCMURL: "https://src/modules/m.git"}}
	syncer := &fakeSyncer{result: pipeline.Result{Ref: "https://dst/modules/m#abc"}}
	dest := &fakeSystem{}
	d := &Dispatcher{Config: baseConfig(), Syncer: syncer, SourceSystem: source, DestSystem: dest}

	err := d.HandleEvent(t.Context(), Event{Topic: "buildsys.tag", Name: "m", Version: "1", Release: "2", Tag: "modules-trigger"})
	require.NoError(t, err)
	require.Len(t, syncer.calls, 1)
	assert.Equal(t, "modules", syncer.calls[0].Namespace)
	assert.Equal(t, "m:1", syncer.calls[0].Component)
}

func TestHandleEvent_ExcludedComponentSkipped(t *testing.T) {
	cfg := baseConfig()
	cfg.Configuration.Control.Exclude.RPMs = []string{"foo"}
	syncer := &fakeSyncer{}
	d := &Dispatcher{Config: cfg, Syncer: syncer}

	err := d.HandleEvent(t.Context(), Event{Topic: "buildsys.tag", Name: "foo", Version: "1", Release: "2", Tag: "rpms-trigger"})
	require.NoError(t, err)
	assert.Empty(t, syncer.calls)
}

func TestHandleEvent_StrictModeRequiresExplicitComponent(t *testing.T) {
	cfg := baseConfig()
	cfg.Configuration.Control.Strict = true
	cfg.Components = map[string]config.NamespaceMap{"rpms": {"bar": config.ComponentOverride{}}}
	syncer := &fakeSyncer{}
	d := &Dispatcher{Config: cfg, Syncer: syncer}

	err := d.HandleEvent(t.Context(), Event{Topic: "buildsys.tag", Name: "foo", Version: "1", Release: "2", Tag: "rpms-trigger"})
	require.NoError(t, err)
	assert.Empty(t, syncer.calls)
}

func TestSweep_DiscoversLatestPerModuleStream(t *testing.T) {
	source := &fakeSystem{
		listTaggedByTag: map[string][]buildsystem.BuildInfo{
			"modules-trigger": {
				{NVR: "a-1-1", Name: "A", Stream: "1"},
				{NVR: "a-1-2", Name: "A", Stream: "1"},
			},
		},
	}
	syncer := &fakeSyncer{}
	d := &Dispatcher{Config: baseConfig(), Syncer: syncer, SourceSystem: source}

	err := d.Sweep(t.Context(), nil)
	require.NoError(t, err)
	require.Len(t, syncer.calls, 1)
	assert.Equal(t, "a-1-2", syncer.calls[0].NVR)
}

func TestSweep_ContinuesPastPerComponentFailure(t *testing.T) {
	d := &Dispatcher{Config: baseConfig(), Syncer: &failingSyncer{}, SourceSystem: &fakeSystem{}}
	err := d.Sweep(t.Context(), []string{"rpms/foo", "rpms/bar"})
	assert.NoError(t, err)
}

type failingSyncer struct{}

func (failingSyncer) SyncRepo(ctx context.Context, req pipeline.Request) (pipeline.Result, error) {
	return pipeline.Result{}, assertErr("boom")
}

type assertErr string

func (e assertErr) Error() string { return string(e) }
