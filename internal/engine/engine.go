// Package engine is the process-wide state container §9 calls for in
// place of module-level globals: the atomically swappable Config, the
// two-role build-system SessionCache, the dry-run/retry toggles, and the
// mutex serializing destination build submissions within one tagging
// event (§5). It wires internal/pipeline, internal/module, and
// internal/dispatcher into one runnable unit.
package engine

import (
	"context"
	"log/slog"
	"sync"

	"github.com/release-engineering/distrobaker/internal/buildsystem"
	"github.com/release-engineering/distrobaker/internal/config"
	"github.com/release-engineering/distrobaker/internal/dispatcher"
	"github.com/release-engineering/distrobaker/internal/history"
	"github.com/release-engineering/distrobaker/internal/lookaside"
	"github.com/release-engineering/distrobaker/internal/module"
	"github.com/release-engineering/distrobaker/internal/pipeline"
	"github.com/release-engineering/distrobaker/internal/telemetry"
	"github.com/release-engineering/distrobaker/internal/vcs"
)

// Engine owns every piece of process-wide state and exposes the
// dispatcher entry points the CLI calls.
type Engine struct {
	Store    *config.Store
	Sessions *buildsystem.SessionCache
	Logger   *slog.Logger
	Metrics  *telemetry.Metrics
	History  *history.Store

	// submitMu serializes build submissions against the destination
	// build system within a single tagging event (§5's "submissions ...
	// MUST be serialized to preserve at-most-one build per tagging
	// event").
	submitMu sync.Mutex

	dryRun bool
	retry  int
}

// Options configures a new Engine.
type Options struct {
	ConfigRepoURL string
	Retries       int
	DryRun        bool
	Logger        *slog.Logger

	// HistoryDBPath is the sqlite file backing the sync-run audit log;
	// ":memory:" (the default) discards history across restarts.
	HistoryDBPath string

	// SourceFactory/DestFactory build the two SessionCache roles. They
	// are supplied by the caller (cmd/distrobaker) since they depend on
	// credential material that is out of scope for this package (§1).
	SourceFactory buildsystem.Factory
	DestFactory   buildsystem.Factory
}

// New loads the initial configuration and wires the session cache,
// metrics, and logger into an Engine. A failed initial load is fatal —
// unlike Reload, there is no "previous config" to fall back to.
func New(ctx context.Context, opts Options) (*Engine, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	cfg, err := config.Load(ctx, opts.ConfigRepoURL, opts.Retries)
	if err != nil {
		return nil, err
	}

	dbPath := opts.HistoryDBPath
	if dbPath == "" {
		dbPath = ":memory:"
	}
	hist, err := history.Open(ctx, dbPath, logger)
	if err != nil {
		return nil, err
	}

	return &Engine{
		Store:    config.NewStore(cfg, logger),
		Sessions: buildsystem.NewSessionCache(opts.SourceFactory, opts.DestFactory),
		Logger:   logger,
		Metrics:  telemetry.NewMetrics(),
		History:  hist,
		dryRun:   opts.DryRun,
		retry:    opts.Retries,
	}, nil
}

// Reload re-fetches the configuration document (§4.1's load operation).
// A failing reload leaves the Store's previous Config untouched.
func (e *Engine) Reload(ctx context.Context, configRepoURL string) error {
	return e.Store.Reload(ctx, configRepoURL, e.retry)
}

// SetDryRun and SetRetry implement §6's "Process controls: ... settable
// at runtime from the embedder".
func (e *Engine) SetDryRun(dryRun bool) { e.dryRun = dryRun }
func (e *Engine) SetRetry(retry int)    { e.retry = retry }

// newPipeline builds one pipeline.Pipeline snapshotted against the
// currently effective Config and the currently cached build-system
// sessions, serialized destination submission, and a freshly wired
// Module Expander closing the C5/C6 recursion.
func (e *Engine) newPipeline(ctx context.Context) (*pipeline.Pipeline, error) {
	cfg := e.Store.Get()
	src, err := e.Sessions.Get(ctx, buildsystem.RoleSource)
	if err != nil {
		return nil, err
	}
	dst, err := e.Sessions.Get(ctx, buildsystem.RoleDestination)
	if err != nil {
		return nil, err
	}

	p := &pipeline.Pipeline{
		Config:       cfg,
		SourceSystem: src,
		DestSystem:   dst,
		Lookaside:    lookaside.NewReconciler(e.retry, e.dryRun),
		Identity:     vcs.Identity{Name: cfg.Configuration.Git.Author, Email: cfg.Configuration.Git.Email},
		Retries:      e.retry,
		DryRun:       e.dryRun,
		Logger:       e.Logger,
	}
	p.Expander = &module.Expander{Syncer: p, SourceSystem: src, Logger: e.Logger}
	return p, nil
}

// Dispatcher builds a dispatcher.Dispatcher wired against a fresh
// pipeline snapshot and this Engine's submission serialization and
// telemetry counters.
func (e *Engine) Dispatcher(ctx context.Context) (*dispatcher.Dispatcher, error) {
	p, err := e.newPipeline(ctx)
	if err != nil {
		return nil, err
	}
	return &dispatcher.Dispatcher{
		Config:                 p.Config,
		SourceSystem:           p.SourceSystem,
		DestSystem:             &serializedSystem{mu: &e.submitMu, System: p.DestSystem},
		Syncer:                 p,
		Logger:                 e.Logger,
		History:                e.History,
		SweepNoBuildTotal:      e.Metrics.SweepNoBuildTotal.Inc,
		SweepLookupFailedTotal: e.Metrics.SweepLookupFailedTotal.Inc,
	}, nil
}

// Close releases the engine's owned resources (currently, the history
// database connection).
func (e *Engine) Close() error {
	if e.History != nil {
		return e.History.Close()
	}
	return nil
}

// serializedSystem wraps a buildsystem.System so that SubmitFlat and
// SubmitModular are mutually exclusive across the whole engine,
// satisfying §5's at-most-one-build-per-tagging-event requirement even
// if a future caller processes components concurrently.
type serializedSystem struct {
	mu *sync.Mutex
	buildsystem.System
}

func (s *serializedSystem) SubmitFlat(ctx context.Context, scmURL, target string, opts buildsystem.SubmitOptions) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.System.SubmitFlat(ctx, scmURL, target, opts)
}

func (s *serializedSystem) SubmitModular(ctx context.Context, scmURL, stream, platform string, opts buildsystem.SubmitOptions) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.System.SubmitModular(ctx, scmURL, stream, platform, opts)
}
