package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"accident-monitor/internal/config"
	"accident-monitor/internal/store"
)

func seedKeysCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed-keys",
		Short: "Provision hardware API keys in Redis",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeedKeys()
		},
	}
}

func runSeedKeys() error {
	cfg := config.Load()
	ctx := context.Background()

	fmt.Println("Connecting to Redis...")
	rds, err := store.NewRedisStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer rds.Close()
	fmt.Println("✓ Connected")

	// Key pattern: hardware:auth:{api_key} → unit label.
	// This is what the authenticator looks up at Level 2.
	apiKeys := map[string]string{
		"crash_unit_demo_key": "demo_unit",
		"crash_unit_test_key": "test_unit",
	}

	for key, label := range apiKeys {
		if err := rds.SetAPIKey(ctx, key, label); err != nil {
			return fmt.Errorf("failed to set key %s: %w", key, err)
		}
		fmt.Printf("  ✓ %-30s → %s\n", key, label)
	}

	fmt.Println("\n✅ Redis seeded successfully")
	return nil
}
