package buildsystem

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSystem struct {
	closed bool
}

func (f *fakeSystem) LatestBuildByTag(ctx context.Context, tag, component string) (BuildInfo, error) {
	return BuildInfo{}, nil
}
func (f *fakeSystem) ListTagged(ctx context.Context, tag string, latest bool) ([]BuildInfo, error) {
	return nil, nil
}
func (f *fakeSystem) GetBuild(ctx context.Context, nvr string) (BuildInfo, error) { return BuildInfo{}, nil }
func (f *fakeSystem) SubmitFlat(ctx context.Context, scmURL, target string, opts SubmitOptions) (int64, error) {
	return 1, nil
}
func (f *fakeSystem) SubmitModular(ctx context.Context, scmURL, stream, platform string, opts SubmitOptions) (int64, error) {
	return 1, nil
}
func (f *fakeSystem) Close() { f.closed = true }

func TestSessionCache_LazyCreateAndReuse(t *testing.T) {
	var calls int
	first := &fakeSystem{}
	factory := func(ctx context.Context) (System, error) {
		calls++
		return first, nil
	}
	c := NewSessionCache(factory, nil)

	s1, err := c.Get(t.Context(), RoleSource)
	require.NoError(t, err)
	s2, err := c.Get(t.Context(), RoleSource)
	require.NoError(t, err)

	assert.Same(t, first, s1)
	assert.Same(t, first, s2)
	assert.Equal(t, 1, calls)
}

func TestSessionCache_RefreshesStaleAndCloses(t *testing.T) {
	old := &fakeSystem{}
	fresh := &fakeSystem{}
	calls := 0
	factory := func(ctx context.Context) (System, error) {
		calls++
		if calls == 1 {
			return old, nil
		}
		return fresh, nil
	}
	c := NewSessionCache(nil, factory)

	s1, err := c.Get(t.Context(), RoleDestination)
	require.NoError(t, err)
	assert.Same(t, old, s1)

	c.sessions[RoleDestination] = session{system: old, createdAt: time.Now().Add(-maxSessionAge * 2)}

	s2, err := c.Get(t.Context(), RoleDestination)
	require.NoError(t, err)
	assert.Same(t, fresh, s2)
	assert.True(t, old.closed)
}

func TestSessionCache_UnconfiguredRoleReturnsNil(t *testing.T) {
	c := NewSessionCache(nil, nil)
	s, err := c.Get(t.Context(), RoleSource)
	require.NoError(t, err)
	assert.Nil(t, s)
}
