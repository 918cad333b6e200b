package buildsystem

import (
	"context"
	"sync"
	"time"
)

// Role identifies which side of the sync a session belongs to.
type Role string

const (
	RoleSource      Role = "source"
	RoleDestination Role = "destination"
)

// maxSessionAge is the 3550-second freshness window from §3: "a session
// older than 3550 seconds (or with day component > 0) is refreshed".
const maxSessionAge = 3550 * time.Second

// Factory builds a fresh System for role. Called at most once per
// (re)creation; the destination factory is expected to perform
// authentication, the source factory to open an anonymous session.
type Factory func(ctx context.Context) (System, error)

type session struct {
	system    System
	createdAt time.Time
}

func (s session) stale(now time.Time) bool {
	age := now.Sub(s.createdAt)
	return age >= maxSessionAge || age.Hours() >= 24
}

// SessionCache guards the process-wide, at-most-two-entry session cache
// described in §3. It is adapted from the teacher's
// internal/infrastructure/k8s client cache: a mutex-guarded map keyed by
// a small fixed set of roles, lazily (re)populated on demand, with an
// age-based staleness check replacing that file's lease-expiry check.
type SessionCache struct {
	mu        sync.Mutex
	sessions  map[Role]session
	factories map[Role]Factory
}

// NewSessionCache wires the two role factories; sessions are created
// lazily on first Get, matching §3's "sessions lazily (re)created on
// demand".
func NewSessionCache(sourceFactory, destFactory Factory) *SessionCache {
	return &SessionCache{
		sessions: make(map[Role]session, 2),
		factories: map[Role]Factory{
			RoleSource:      sourceFactory,
			RoleDestination: destFactory,
		},
	}
}

// Get returns the cached session for role, creating or refreshing it as
// needed. Initialization and refresh are serialized per the whole cache
// (not per role) since at most two roles ever exist and contention is
// negligible, satisfying §5's "the two process-wide session caches MUST
// be guarded so that initialization and session refresh are mutually
// exclusive per role".
func (c *SessionCache) Get(ctx context.Context, role Role) (System, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if s, ok := c.sessions[role]; ok && !s.stale(time.Now()) {
		return s.system, nil
	}

	factory, ok := c.factories[role]
	if !ok || factory == nil {
		return nil, nil
	}

	if closer, ok := c.sessions[role]; ok {
		closeSession(closer.system)
	}

	sys, err := factory(ctx)
	if err != nil {
		return nil, err
	}
	c.sessions[role] = session{system: sys, createdAt: time.Now()}
	return sys, nil
}

// closeSession logs out a stale destination session before the refresh
// replaces it, per §4.2's "a session refresh logs out the stale
// destination session before re-authenticating". Sessions that don't
// hold a closeable credential (anonymous source sessions, OIDC bearer
// tokens) simply have nothing to do here.
func closeSession(sys System) {
	type closer interface{ Close() }
	if c, ok := sys.(closer); ok {
		c.Close()
	}
}
