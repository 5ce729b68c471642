// Command waypointctl is the operator CLI: schema migration, facility
// management, token issuance and offline scenario replay.
package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/matthewbaird/waypoint/internal/activity"
	"github.com/matthewbaird/waypoint/internal/config"
	"github.com/matthewbaird/waypoint/internal/store"
)

var databaseURL string

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "waypointctl",
		Short:         "Operate a waypoint status service",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		dsn = config.DefaultDatabaseURL
	}
	root.PersistentFlags().StringVar(&databaseURL, "database-url", dsn, "database DSN (sqlite file or postgres:// URL)")

	root.AddCommand(newMigrateCmd(), newFacilitiesCmd(), newTokenCmd(), newReplayCmd())
	return root
}

// openStore opens and migrates the configured database.
func openStore(ctx context.Context) (*store.SQLStore, error) {
	st, err := store.Open(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, err
	}
	if err := activity.NewSQLStore(st.Driver()).Migrate(ctx); err != nil {
		st.Close()
		return nil, err
	}
	return st, nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		// Error already printed by cobra
		os.Exit(1)
	}
}
