// Package dispatcher implements the Dispatcher (C7, §4.7): turning a
// single tagging event, or a bulk sweep over all latest tagged builds,
// into Component Pipeline invocations, with namespace routing and
// strict/exclude filtering, and triggering build submission on success.
package dispatcher

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/release-engineering/distrobaker/internal/buildsystem"
	"github.com/release-engineering/distrobaker/internal/config"
	"github.com/release-engineering/distrobaker/internal/errs"
	"github.com/release-engineering/distrobaker/internal/history"
	"github.com/release-engineering/distrobaker/internal/pipeline"
)

// History is the audit-log sink syncAndBuild appends a record to after
// each attempt, successful or not. Implemented by *history.Store.
type History interface {
	RecordSync(ctx context.Context, r history.Record) error
}

// Event is the tagging-event envelope (§6): {topic, body: {name,
// version, release, tag}}. Only topics ending in "buildsys.tag" are
// handled.
type Event struct {
	Topic   string
	Name    string
	Version string
	Release string
	Tag     string
}

// Syncer is the subset of *pipeline.Pipeline the dispatcher drives.
type Syncer interface {
	SyncRepo(ctx context.Context, req pipeline.Request) (pipeline.Result, error)
}

// EventSource is the boundary for a future message-bus listener
// (fedora-messaging, AMQP, or similar) feeding HandleEvent. Credential
// loading and transport are explicitly out of scope; nothing in this
// repo implements EventSource today, and cmd/distrobaker's sync-event
// subcommand reads a single event from stdin instead.
type EventSource interface {
	Events(ctx context.Context) (<-chan Event, error)
}

type logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Dispatcher holds the dependencies the event and sweep paths share.
type Dispatcher struct {
	Config       *config.Config
	SourceSystem buildsystem.System
	DestSystem   buildsystem.System
	Syncer       Syncer
	Logger       logger
	History      History

	// SweepNoBuildTotal and SweepLookupFailedTotal distinguish, in a
	// sweep's summary, "no builds tagged" from "NVR resolution failed" —
	// §9 open question 3, resolved by keeping two separate counters
	// instead of collapsing both into a dropped entry.
	SweepNoBuildTotal      func()
	SweepLookupFailedTotal func()
}

// HandleEvent is the event path of §4.7.
func (d *Dispatcher) HandleEvent(ctx context.Context, ev Event) error {
	if !strings.HasSuffix(ev.Topic, "buildsys.tag") {
		return nil
	}
	nvr := fmt.Sprintf("%s-%s-%s", ev.Name, ev.Version, ev.Release)

	var namespace, component string
	switch {
	case ev.Tag == d.Config.Configuration.Trigger.RPMs:
		namespace, component = "rpms", ev.Name

	case ev.Tag == d.Config.Configuration.Trigger.Modules:
		bi, err := d.SourceSystem.GetBuild(ctx, nvr)
		if err != nil {
			return err
		}
		if bi.Name == "" || bi.Stream == "" {
			return errs.ModuleMetadata("handle tagging event", fmt.Errorf("build %s is missing module name/stream extras", nvr))
		}
		if scmComponentName(bi.SCMURL) != bi.Name {
			d.logInfo("skipping synthesized side-module", "nvr", nvr, "module_name", bi.Name, "scm", bi.SCMURL)
			return nil
		}
		namespace, component = "modules", bi.Name+":"+bi.Stream

	default:
		return nil
	}

	if !d.passesFilters(namespace, component) {
		return nil
	}

	return d.syncAndBuild(ctx, namespace, component, nvr)
}

// scmComponentName extracts the last path segment of an scmurl, with
// ".git" and any "?..." suffix stripped, matching §4.7's synthesized
// "-devel" side-module filter.
func scmComponentName(scmurl string) string {
	link, _, _ := strings.Cut(scmurl, "#")
	link, _, _ = strings.Cut(link, "?")
	link = strings.TrimSuffix(link, ".git")
	idx := strings.LastIndex(link, "/")
	if idx < 0 {
		return link
	}
	return link[idx+1:]
}

// Sweep is the bulk sweep path of §4.7. An empty components set is
// populated from both triggers; otherwise the caller-supplied
// "namespace/component" set is used verbatim.
func (d *Dispatcher) Sweep(ctx context.Context, components []string) error {
	var targets []sweepTarget
	var err error
	if len(components) == 0 {
		targets, err = d.discoverSweepTargets(ctx)
		if err != nil {
			return err
		}
	} else {
		for _, c := range components {
			namespace, component, ok := strings.Cut(c, "/")
			if !ok {
				continue
			}
			targets = append(targets, sweepTarget{namespace: namespace, component: component})
		}
	}

	sort.Slice(targets, func(i, j int) bool {
		return strings.ToLower(targets[i].component) < strings.ToLower(targets[j].component)
	})

	for _, t := range targets {
		if !d.passesFilters(t.namespace, t.component) {
			continue
		}
		if err := d.syncAndBuild(ctx, t.namespace, t.component, t.nvr); err != nil {
			d.logError("sweep: component sync failed", "namespace", t.namespace, "component", t.component, "error", err)
		}
	}
	return nil
}

type sweepTarget struct {
	namespace string
	component string
	nvr       string
}

func (d *Dispatcher) discoverSweepTargets(ctx context.Context) ([]sweepTarget, error) {
	var targets []sweepTarget

	flat, err := d.SourceSystem.ListTagged(ctx, d.Config.Configuration.Trigger.RPMs, true)
	if err != nil {
		return nil, err
	}
	for _, bi := range flat {
		targets = append(targets, sweepTarget{namespace: "rpms", component: scmComponentName(bi.SCMURL), nvr: bi.NVR})
	}

	tagged, err := d.SourceSystem.ListTagged(ctx, d.Config.Configuration.Trigger.Modules, false)
	if err != nil {
		return nil, err
	}
	latest := make(map[string]string, len(tagged))
	var lookupFailed int
	for _, bi := range tagged {
		if bi.Name == "" || bi.Stream == "" {
			lookupFailed++
			continue
		}
		latest[bi.Name+":"+bi.Stream] = bi.NVR
	}
	if lookupFailed > 0 {
		d.logError("sweep: module builds missing name/stream extras", "tag", d.Config.Configuration.Trigger.Modules, "count", lookupFailed)
		if d.SweepLookupFailedTotal != nil {
			for i := 0; i < lookupFailed; i++ {
				d.SweepLookupFailedTotal()
			}
		}
	}
	if len(tagged) == 0 {
		d.logInfo("sweep: no module builds tagged", "tag", d.Config.Configuration.Trigger.Modules)
		if d.SweepNoBuildTotal != nil {
			d.SweepNoBuildTotal()
		}
	}
	for nameStream, nvr := range latest {
		targets = append(targets, sweepTarget{namespace: "modules", component: nameStream, nvr: nvr})
	}

	return targets, nil
}

func (d *Dispatcher) passesFilters(namespace, component string) bool {
	base := component
	if namespace == "modules" {
		if name, _, ok := strings.Cut(component, ":"); ok {
			base = name
		}
	}
	if d.Config.Configuration.Control.Exclude.Contains(namespace, base) {
		return false
	}
	if d.Config.Configuration.Control.Strict {
		if _, ok := d.Config.Components[namespace][component]; !ok {
			return false
		}
	}
	return true
}

func (d *Dispatcher) syncAndBuild(ctx context.Context, namespace, component, nvr string) error {
	started := time.Now()
	result, err := d.Syncer.SyncRepo(ctx, pipeline.Request{Namespace: namespace, Component: component, NVR: nvr})
	if err != nil {
		d.logError("component sync failed", "namespace", namespace, "component", component, "nvr", nvr, "error", err)
		d.recordSync(ctx, namespace, component, nvr, history.StatusFailure, "", 0, err.Error(), started)
		return err
	}
	if result.Skipped {
		d.recordSync(ctx, namespace, component, nvr, history.StatusSkipped, result.Ref, 0, "", started)
		return nil
	}

	if !d.Config.Configuration.Control.Build {
		d.logInfo("Builds are disabled", "namespace", namespace, "component", component, "nvr", nvr)
		d.recordSync(ctx, namespace, component, nvr, history.StatusSuccess, result.Ref, 0, "", started)
		return nil
	}

	opts := buildsystem.SubmitOptions{Scratch: d.Config.Configuration.Build.Scratch}

	var id int64
	if namespace == "modules" {
		_, stream, _ := strings.Cut(component, ":")
		id, err = d.DestSystem.SubmitModular(ctx, result.Ref, stream, d.Config.Configuration.Build.Platform, opts)
	} else {
		id, err = d.DestSystem.SubmitFlat(ctx, result.Ref, d.Config.Configuration.Build.Target, opts)
	}
	if err != nil {
		d.logError("build submission failed", "namespace", namespace, "component", component, "error", err)
		d.recordSync(ctx, namespace, component, nvr, history.StatusFailure, result.Ref, 0, err.Error(), started)
		return err
	}
	d.logInfo("build submitted", "namespace", namespace, "component", component, "task_id", id)
	d.recordSync(ctx, namespace, component, nvr, history.StatusSuccess, result.Ref, id, "", started)
	return nil
}

func (d *Dispatcher) recordSync(ctx context.Context, namespace, component, nvr string, status history.Status, destRef string, buildTask int64, errMsg string, started time.Time) {
	if d.History == nil {
		return
	}
	now := time.Now()
	rec := history.Record{
		Namespace: namespace, Component: component, NVR: nvr,
		Status: status, DestRef: destRef, BuildTask: buildTask, Error: errMsg,
		StartedAt: started, FinishedAt: now,
	}
	if err := d.History.RecordSync(ctx, rec); err != nil {
		d.logError("failed to record sync run in audit log", "namespace", namespace, "component", component, "error", err)
	}
}

func (d *Dispatcher) logInfo(msg string, args ...any) {
	if d.Logger != nil {
		d.Logger.Info(msg, args...)
	}
}

func (d *Dispatcher) logError(msg string, args ...any) {
	if d.Logger != nil {
		d.Logger.Error(msg, args...)
	}
}
