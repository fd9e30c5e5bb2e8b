package cmd

import (
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	"github.com/spf13/cobra"

	"github.com/kapilthakare-cyberpunk/telegram-voice-assistant/internal/config"
	"github.com/kapilthakare-cyberpunk/telegram-voice-assistant/internal/history"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "History database migration management",
	}

	cmd.AddCommand(migrateUpCmd())
	cmd.AddCommand(migrateDownCmd())
	cmd.AddCommand(migrateVersionCmd())

	return cmd
}

func historyMigrator() (*migrate.Migrate, func(), error) {
	cfg, err := config.Load(resolveConfigPath())
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	m, db, err := history.NewMigrator(cfg.HistoryPath())
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		m.Close()
		db.Close()
	}
	return m, cleanup, nil
}

func migrateUpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, cleanup, err := historyMigrator()
			if err != nil {
				return err
			}
			defer cleanup()

			if err := m.Up(); err != nil && err != migrate.ErrNoChange {
				return fmt.Errorf("migrate up: %w", err)
			}

			v, dirty, _ := m.Version()
			slog.Info("migration complete", "version", v, "dirty", dirty)
			return nil
		},
	}
}

func migrateDownCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, cleanup, err := historyMigrator()
			if err != nil {
				return err
			}
			defer cleanup()

			if err := m.Steps(-1); err != nil && err != migrate.ErrNoChange {
				return fmt.Errorf("migrate down: %w", err)
			}

			v, dirty, _ := m.Version()
			slog.Info("rollback complete", "version", v, "dirty", dirty)
			return nil
		},
	}
}

func migrateVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show current migration version",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, cleanup, err := historyMigrator()
			if err != nil {
				return err
			}
			defer cleanup()

			v, dirty, err := m.Version()
			if err == migrate.ErrNilVersion {
				fmt.Println("No migrations applied yet")
				return nil
			}
			if err != nil {
				return fmt.Errorf("migration version: %w", err)
			}
			fmt.Printf("Version: %d (dirty: %v)\n", v, dirty)
			return nil
		},
	}
}
