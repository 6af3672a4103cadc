// Package eventlog exposes the append-only accident history. Appends happen
// inside the ingestion transaction; this package owns the read side.
package eventlog

import (
	"context"

	"accident-monitor/internal/domain"
)

// EventStore is the persistence surface the log needs. Implemented by
// store.PostgresStore.
type EventStore interface {
	EventsByRefs(ctx context.Context, refs []string, limit int) ([]domain.AccidentEvent, error)
}

type Log struct {
	store   EventStore
	pageCap int
}

func New(store EventStore, pageCap int) *Log {
	if pageCap <= 0 {
		pageCap = 100
	}
	return &Log{store: store, pageCap: pageCap}
}

// Recent returns events stored under any of the candidate references, most
// recent first by insert sequence. The candidate set is deduped and the limit
// clamped to the page cap.
func (l *Log) Recent(ctx context.Context, candidates []string, limit int) ([]domain.AccidentEvent, error) {
	refs := dedupe(candidates)
	if len(refs) == 0 {
		return nil, nil
	}
	if limit <= 0 || limit > l.pageCap {
		limit = l.pageCap
	}
	return l.store.EventsByRefs(ctx, refs, limit)
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
