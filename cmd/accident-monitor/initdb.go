package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5"
	"github.com/spf13/cobra"

	"accident-monitor/internal/config"
)

func initDBCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init-db",
		Short: "Create the vehicles and accident_events tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInitDB()
		},
	}
}

func runInitDB() error {
	cfg := config.Load()
	connStr := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName,
	)

	ctx := context.Background()

	fmt.Println("Connecting to Postgres...")
	conn, err := pgx.Connect(ctx, connStr)
	if err != nil {
		return fmt.Errorf("connection failed: %w", err)
	}
	defer conn.Close(ctx)
	fmt.Println("✓ Connected")

	stepVehiclesTable(ctx, conn)
	stepEventsTable(ctx, conn)
	stepIndexes(ctx, conn)
	stepSeed(ctx, conn)

	fmt.Println("\n✅ Database initialised successfully")
	return nil
}

func stepVehiclesTable(ctx context.Context, conn *pgx.Conn) {
	fmt.Println("\n── Step 1: vehicles table ──────────────────────")

	// One row per canonical alias. id is the surrogate key: assigned once,
	// never reused. accident_details always mirrors the most recent event.
	execOrFatal(ctx, conn, `
		CREATE TABLE IF NOT EXISTS vehicles (
			id               BIGSERIAL    PRIMARY KEY,
			vehicle_id       TEXT         UNIQUE NOT NULL,
			model            TEXT,
			owner            TEXT,
			registration     TEXT,
			accident_details TEXT,
			created_at       TIMESTAMPTZ  NOT NULL DEFAULT NOW(),
			updated_at       TIMESTAMPTZ  NOT NULL DEFAULT NOW()
		);
	`, "vehicles table created")
}

func stepEventsTable(ctx context.Context, conn *pgx.Conn) {
	fmt.Println("\n── Step 2: accident_events table ───────────────")

	// Append-only. "timestamp" is the caller's clock and untrusted; id is
	// the only ordering consumers may rely on. raw_payload keeps the full
	// inbound body for audit.
	execOrFatal(ctx, conn, `
		CREATE TABLE IF NOT EXISTS accident_events (
			id          BIGSERIAL         PRIMARY KEY,
			vehicle_id  TEXT              NOT NULL,
			intensity   DOUBLE PRECISION,
			lat         DOUBLE PRECISION,
			lng         DOUBLE PRECISION,
			"timestamp" TEXT,
			notes       TEXT,
			raw_payload JSONB,
			created_at  TIMESTAMPTZ       NOT NULL DEFAULT NOW()
		);
	`, "accident_events table created")
}

func stepIndexes(ctx context.Context, conn *pgx.Conn) {
	fmt.Println("\n── Step 3: Indexes ─────────────────────────────")

	indexes := []struct {
		name string
		sql  string
		why  string
	}{
		{
			name: "idx_events_vehicle_seq",
			sql: `CREATE INDEX IF NOT EXISTS idx_events_vehicle_seq
				  ON accident_events (vehicle_id, id DESC);`,
			why: "query: event history for one vehicle, insertion order",
		},
		{
			name: "idx_vehicles_updated",
			sql: `CREATE INDEX IF NOT EXISTS idx_vehicles_updated
				  ON vehicles (updated_at DESC);`,
			why: "query: vehicle listing, latest activity first",
		},
		{
			name: "idx_vehicles_created",
			sql: `CREATE INDEX IF NOT EXISTS idx_vehicles_created
				  ON vehicles (created_at DESC);`,
			why: "query: vehicle listing, newest first",
		},
	}

	for _, idx := range indexes {
		execOrFatal(ctx, conn, idx.sql,
			fmt.Sprintf("%-40s ← %s", idx.name, idx.why),
		)
	}
}

func stepSeed(ctx context.Context, conn *pgx.Conn) {
	fmt.Println("\n── Step 4: Demo data ───────────────────────────")

	execOrFatal(ctx, conn, `
		INSERT INTO vehicles (vehicle_id, model, owner, registration, accident_details)
		VALUES ('VHL2023', 'Audi A3', 'Aravindhan', 'TN-09-AB-0009', 'No recent accidents reported.')
		ON CONFLICT (vehicle_id) DO NOTHING;
	`, "demo vehicle VHL2023")
}

func execOrFatal(ctx context.Context, conn *pgx.Conn, sql, label string) {
	if _, err := conn.Exec(ctx, sql); err != nil {
		fmt.Fprintf(os.Stderr, "FAILED — %s\nError: %v\nSQL: %s\n", label, err, sql)
		os.Exit(1)
	}
	fmt.Printf("  ✓ %s\n", label)
}
