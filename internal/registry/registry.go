// Package registry holds the canonical vehicle table and the identifier
// resolver that maps caller-supplied references onto it.
package registry

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"accident-monitor/internal/domain"
)

// VehicleStore is the persistence surface the registry needs. Implemented by
// store.PostgresStore.
type VehicleStore interface {
	VehicleByAlias(ctx context.Context, alias string) (*domain.Vehicle, error)
	VehicleByKey(ctx context.Context, key int64) (*domain.Vehicle, error)
	UpsertVehicle(ctx context.Context, alias string, f domain.VehicleFields) (*domain.Vehicle, error)
	Vehicles(ctx context.Context, order domain.ListOrder, limit int) ([]domain.Vehicle, error)
}

type Registry struct {
	store VehicleStore
}

func New(store VehicleStore) *Registry {
	return &Registry{store: store}
}

// Resolve maps an arbitrary identifier to a vehicle record. Exact alias match
// wins; a numeric input falls back to the surrogate key. Read-only.
func (r *Registry) Resolve(ctx context.Context, ident string) (*domain.Vehicle, error) {
	ident = strings.TrimSpace(ident)
	if ident == "" {
		return nil, domain.ErrNotFound
	}

	v, err := r.store.VehicleByAlias(ctx, ident)
	if err == nil {
		return v, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	key, perr := strconv.ParseInt(ident, 10, 64)
	if perr != nil {
		return nil, domain.ErrNotFound
	}
	return r.store.VehicleByKey(ctx, key)
}

// Canonicalize returns the single reference form used for storage, publish,
// and subscribe keying: the vehicle's alias when the identifier resolves,
// otherwise the trimmed raw token (which becomes the alias on implicit
// creation). The resolved vehicle is returned when there is one.
func (r *Registry) Canonicalize(ctx context.Context, ident string) (string, *domain.Vehicle, error) {
	trimmed := strings.TrimSpace(ident)
	v, err := r.Resolve(ctx, trimmed)
	if errors.Is(err, domain.ErrNotFound) {
		return trimmed, nil, nil
	}
	if err != nil {
		return "", nil, err
	}
	return v.VehicleID, v, nil
}

// RefCandidates returns every textual form historical events may have been
// stored under for the identifier: the alias plus the surrogate key, or just
// the raw token when nothing resolves.
func (r *Registry) RefCandidates(ctx context.Context, ident string) ([]string, error) {
	trimmed := strings.TrimSpace(ident)
	v, err := r.Resolve(ctx, trimmed)
	if errors.Is(err, domain.ErrNotFound) {
		if trimmed == "" {
			return nil, nil
		}
		return []string{trimmed}, nil
	}
	if err != nil {
		return nil, err
	}

	candidates := []string{v.VehicleID}
	if key := strconv.FormatInt(v.ID, 10); key != v.VehicleID {
		candidates = append(candidates, key)
	}
	return candidates, nil
}

// Upsert creates or overwrites the registry row for alias. The alias must be
// non-empty after trimming.
func (r *Registry) Upsert(ctx context.Context, alias string, f domain.VehicleFields) (*domain.Vehicle, error) {
	alias = strings.TrimSpace(alias)
	if alias == "" {
		return nil, &domain.ValidationError{Field: "vehicle_id", Reason: "is required"}
	}
	return r.store.UpsertVehicle(ctx, alias, f)
}

// Get delegates to Resolve.
func (r *Registry) Get(ctx context.Context, ident string) (*domain.Vehicle, error) {
	return r.Resolve(ctx, ident)
}

// List returns registry rows in the requested order, newest first.
func (r *Registry) List(ctx context.Context, order domain.ListOrder, limit int) ([]domain.Vehicle, error) {
	if order != domain.ListByCreated {
		order = domain.ListByUpdated
	}
	return r.store.Vehicles(ctx, order, limit)
}
