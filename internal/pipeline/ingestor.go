// Package pipeline validates inbound accident events, records them
// durably, and fans them out to live subscribers.
package pipeline

import (
	"context"
	"encoding/json"
	"time"

	"github.com/sirupsen/logrus"

	"accident-monitor/internal/domain"
	"accident-monitor/internal/hub"
	"accident-monitor/internal/metrics"
)

// EventStore records an event and refreshes the vehicle summary in one
// transaction. Implemented by store.PostgresStore.
type EventStore interface {
	RecordEvent(ctx context.Context, evt *domain.AccidentEvent, summary string) (created bool, err error)
}

// Resolver canonicalizes an inbound vehicle reference. Implemented by
// registry.Registry.
type Resolver interface {
	Canonicalize(ctx context.Context, ident string) (string, *domain.Vehicle, error)
}

// StateCache mirrors the latest accident per vehicle for dashboard reads.
// Implemented by store.RedisStore; may be nil.
type StateCache interface {
	CacheAccidentState(ctx context.Context, evt *domain.AccidentEvent, summary string) error
}

type Result struct {
	CreatedVehicle bool
	EventID        int64
}

type Ingestor struct {
	store    EventStore
	resolver Resolver
	hub      *hub.Hub
	cache    StateCache
	log      logrus.FieldLogger
}

func NewIngestor(store EventStore, resolver Resolver, h *hub.Hub, cache StateCache, log logrus.FieldLogger) *Ingestor {
	return &Ingestor{
		store:    store,
		resolver: resolver,
		hub:      h,
		cache:    cache,
		log:      log,
	}
}

// Ingest validates the raw payload, canonicalizes its vehicle reference,
// records the event and summary refresh in one transaction, then publishes
// to live subscribers. Fan-out and cache writes are best-effort: their
// failures never fail the call once the transaction has committed.
func (i *Ingestor) Ingest(ctx context.Context, rawBody []byte) (Result, error) {
	var req domain.IngestRequest
	if err := json.Unmarshal(rawBody, &req); err != nil {
		return Result{}, &domain.ValidationError{Field: "body", Reason: "must be valid JSON"}
	}

	ref := req.Ref()
	if ref == "" {
		return Result{}, &domain.ValidationError{Field: "vehicleID", Reason: "is required"}
	}
	metrics.EventsReceived.Add(1)

	canonical, _, err := i.resolver.Canonicalize(ctx, ref)
	if err != nil {
		metrics.StorageFailures.Add(1)
		return Result{}, &domain.StorageError{Op: "resolve", Err: err}
	}

	ts := req.Timestamp
	if ts == "" {
		ts = time.Now().UTC().Format(time.RFC3339)
	}

	evt := &domain.AccidentEvent{
		VehicleRef: canonical,
		Intensity:  req.Intensity,
		Lat:        req.Lat,
		Lng:        req.Lng,
		Timestamp:  ts,
		Notes:      req.NoteText(),
		RawPayload: rawBody,
	}

	created, err := i.store.RecordEvent(ctx, evt, evt.Notes)
	if err != nil {
		metrics.StorageFailures.Add(1)
		return Result{}, &domain.StorageError{Op: "record event", Err: err}
	}
	metrics.EventsStored.Add(1)

	i.hub.Publish(canonical, evt)

	if i.cache != nil {
		if err := i.cache.CacheAccidentState(ctx, evt, evt.Notes); err != nil {
			metrics.CacheFailures.Add(1)
			i.log.WithError(err).WithField("vehicle", canonical).Warn("state cache write failed")
		}
	}

	return Result{CreatedVehicle: created, EventID: evt.ID}, nil
}
