package history

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// Filter narrows a ListRuns call. Zero values are unconstrained. Adapted
// from pkg/history/query.Builder's incremental WHERE-clause assembly,
// narrowed from alert predicates to sync-run predicates and switched from
// Postgres's "$N" placeholders to sqlite's "?".
type Filter struct {
	Namespace string
	Component string
	Status    Status
	Since     time.Time
	Until     time.Time
	Limit     int
}

// builder incrementally assembles one parameterized SQL query.
type builder struct {
	where []string
	args  []any
}

func (b *builder) add(clause string, arg any) {
	b.where = append(b.where, clause)
	b.args = append(b.args, arg)
}

func (f Filter) build() (string, []any) {
	b := &builder{}
	if f.Namespace != "" {
		b.add("namespace = ?", f.Namespace)
	}
	if f.Component != "" {
		b.add("component = ?", f.Component)
	}
	if f.Status != "" {
		b.add("status = ?", string(f.Status))
	}
	if !f.Since.IsZero() {
		b.add("started_at >= ?", f.Since)
	}
	if !f.Until.IsZero() {
		b.add("started_at <= ?", f.Until)
	}

	query := "SELECT id, namespace, component, nvr, status, dest_ref, build_task, error, started_at, finished_at FROM sync_runs"
	if len(b.where) > 0 {
		query += " WHERE " + strings.Join(b.where, " AND ")
	}
	query += " ORDER BY started_at DESC"
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", f.Limit)
	}
	return query, b.args
}

// ListRuns returns sync runs matching filter, most recent first.
func (s *Store) ListRuns(ctx context.Context, filter Filter) ([]Record, error) {
	query, args := filter.build()
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sync runs: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		var destRef, errMsg sql.NullString
		var buildTask sql.NullInt64
		if err := rows.Scan(&r.ID, &r.Namespace, &r.Component, &r.NVR, &r.Status,
			&destRef, &buildTask, &errMsg, &r.StartedAt, &r.FinishedAt); err != nil {
			return nil, fmt.Errorf("scan sync run: %w", err)
		}
		r.DestRef = destRef.String
		r.BuildTask = buildTask.Int64
		r.Error = errMsg.String
		records = append(records, r)
	}
	return records, rows.Err()
}
