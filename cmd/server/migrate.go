package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"swapmeet.ie/marketplace/internal/config"
	"swapmeet.ie/marketplace/internal/store"
)

func migrateCmd() *cobra.Command {
	var dsn string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending SQLite schema migrations and exit",
		Long: `Apply the embedded schema migrations to the SQLite database.

The firestore backend is schemaless and needs no migration.

Examples:
  marketplace migrate
  marketplace migrate --database ./data/marketplace.db`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if dsn != "" {
				cfg.DatabaseURL = dsn
			}
			if cfg.StoreBackend == config.BackendFirestore {
				fmt.Println("firestore backend: nothing to migrate")
				return nil
			}

			s, err := store.NewSQLiteStore(cmd.Context(), cfg.DatabaseURL)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			defer s.Close()

			fmt.Printf("database %s is up to date\n", cfg.DatabaseURL)
			return nil
		},
	}

	cmd.Flags().StringVar(&dsn, "database", "", "SQLite database path (overrides DATABASE_URL)")
	return cmd
}
