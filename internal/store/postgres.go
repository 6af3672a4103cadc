package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"accident-monitor/internal/config"
	"accident-monitor/internal/domain"
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, cfg *config.Config) (*PostgresStore, error) {
	connStr := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?pool_max_conns=%d",
		cfg.DBUser,
		cfg.DBPassword,
		cfg.DBHost,
		cfg.DBPort,
		cfg.DBName,
		cfg.DBMaxConns,
	)

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to create db pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping db: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

const vehicleColumns = `id, vehicle_id,
	COALESCE(model, ''), COALESCE(owner, ''), COALESCE(registration, ''),
	COALESCE(accident_details, ''), created_at, updated_at`

func scanVehicle(row pgx.Row) (*domain.Vehicle, error) {
	var v domain.Vehicle
	err := row.Scan(
		&v.ID,
		&v.VehicleID,
		&v.Model,
		&v.Owner,
		&v.Registration,
		&v.AccidentDetails,
		&v.CreatedAt,
		&v.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan vehicle: %w", err)
	}
	return &v, nil
}

func (s *PostgresStore) VehicleByAlias(ctx context.Context, alias string) (*domain.Vehicle, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+vehicleColumns+` FROM vehicles WHERE vehicle_id = $1`, alias)
	return scanVehicle(row)
}

func (s *PostgresStore) VehicleByKey(ctx context.Context, key int64) (*domain.Vehicle, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+vehicleColumns+` FROM vehicles WHERE id = $1`, key)
	return scanVehicle(row)
}

// UpsertVehicle creates or overwrites the registry row for alias in one
// statement. The surrogate key and created_at survive updates.
func (s *PostgresStore) UpsertVehicle(ctx context.Context, alias string, f domain.VehicleFields) (*domain.Vehicle, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO vehicles (vehicle_id, model, owner, registration, accident_details)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (vehicle_id) DO UPDATE SET
			model            = excluded.model,
			owner            = excluded.owner,
			registration     = excluded.registration,
			accident_details = excluded.accident_details,
			updated_at       = NOW()
		RETURNING `+vehicleColumns,
		alias, f.Model, f.Owner, f.Registration, f.AccidentDetails)

	v, err := scanVehicle(row)
	if err != nil {
		return nil, fmt.Errorf("upsert vehicle %q: %w", alias, err)
	}
	return v, nil
}

func (s *PostgresStore) Vehicles(ctx context.Context, order domain.ListOrder, limit int) ([]domain.Vehicle, error) {
	orderClause := "updated_at DESC"
	if order == domain.ListByCreated {
		orderClause = "created_at DESC"
	}

	rows, err := s.pool.Query(ctx,
		`SELECT `+vehicleColumns+` FROM vehicles ORDER BY `+orderClause+` LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list vehicles: %w", err)
	}
	defer rows.Close()

	var out []domain.Vehicle
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list vehicles: %w", err)
	}
	return out, nil
}

// RecordEvent appends the event and refreshes the vehicle summary in one
// transaction. The event is never written without the summary refresh.
// Returns whether the vehicle row was created by this call.
func (s *PostgresStore) RecordEvent(ctx context.Context, evt *domain.AccidentEvent, summary string) (bool, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		INSERT INTO accident_events (vehicle_id, intensity, lat, lng, "timestamp", notes, raw_payload)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`,
		evt.VehicleRef, evt.Intensity, evt.Lat, evt.Lng, evt.Timestamp, evt.Notes, string(evt.RawPayload),
	).Scan(&evt.ID, &evt.CreatedAt)
	if err != nil {
		return false, fmt.Errorf("insert event: %w", err)
	}

	tag, err := tx.Exec(ctx, `
		UPDATE vehicles SET accident_details = $1, updated_at = NOW()
		WHERE vehicle_id = $2`,
		summary, evt.VehicleRef)
	if err != nil {
		return false, fmt.Errorf("update summary: %w", err)
	}

	created := false
	if tag.RowsAffected() == 0 {
		_, err = tx.Exec(ctx, `
			INSERT INTO vehicles (vehicle_id, accident_details)
			VALUES ($1, $2)
			ON CONFLICT (vehicle_id) DO UPDATE SET
				accident_details = excluded.accident_details,
				updated_at       = NOW()`,
			evt.VehicleRef, summary)
		if err != nil {
			return false, fmt.Errorf("insert vehicle: %w", err)
		}
		created = true
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit: %w", err)
	}
	return created, nil
}

// EventsByRefs returns events stored under any of the candidate references,
// most recent first by insert sequence.
func (s *PostgresStore) EventsByRefs(ctx context.Context, refs []string, limit int) ([]domain.AccidentEvent, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, vehicle_id, intensity, lat, lng,
			COALESCE("timestamp", ''), COALESCE(notes, ''), created_at
		FROM accident_events
		WHERE vehicle_id = ANY($1)
		ORDER BY id DESC
		LIMIT $2`,
		refs, limit)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var out []domain.AccidentEvent
	for rows.Next() {
		var e domain.AccidentEvent
		err := rows.Scan(&e.ID, &e.VehicleRef, &e.Intensity, &e.Lat, &e.Lng, &e.Timestamp, &e.Notes, &e.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	return out, nil
}
