package main

import (
	"context"
	"fmt"
	"os"

	"ayurveda-clinic-backend/cmd/bootstrap"
	"ayurveda-clinic-backend/config"
	"ayurveda-clinic-backend/internal/infrastructure/database"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "ayurveda-clinic",
		Short: "Ayurveda clinic appointment backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(true)
		},
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(sweepCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server, the notification worker and the reminder schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			migrateFirst, _ := cmd.Flags().GetBool("migrate")
			return runServer(migrateFirst)
		},
	}
	cmd.Flags().Bool("migrate", true, "apply pending migrations before starting")
	return cmd
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(func(m *database.Migrator) error {
				return m.Up()
			})
		},
	}

	downCmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			steps, _ := cmd.Flags().GetInt("steps")
			return withMigrator(func(m *database.Migrator) error {
				return m.Down(steps)
			})
		},
	}
	downCmd.Flags().Int("steps", 1, "number of migrations to roll back")

	cmd.AddCommand(upCmd, downCmd)
	return cmd
}

func sweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Run one reminder sweep and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := load()
			if err != nil {
				return err
			}

			app, err := bootstrap.New(cfg, log)
			if err != nil {
				return err
			}
			defer app.Close()

			return app.RunSweep(context.Background())
		},
	}
}

func runServer(migrateFirst bool) error {
	cfg, log, err := load()
	if err != nil {
		return err
	}

	if migrateFirst {
		if err := withMigratorConfig(cfg, log, func(m *database.Migrator) error { return m.Up() }); err != nil {
			return err
		}
	}

	// Initialize application with all dependencies
	app, err := bootstrap.New(cfg, log)
	if err != nil {
		log.Errorf("Failed to initialize application: %v", err)
		return err
	}

	// Run the application
	return app.Run()
}

func load() (*config.Config, *logrus.Logger, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, bootstrap.NewLogger(cfg.App), nil
}

func withMigrator(fn func(m *database.Migrator) error) error {
	cfg, log, err := load()
	if err != nil {
		return err
	}
	return withMigratorConfig(cfg, log, fn)
}

func withMigratorConfig(cfg *config.Config, log *logrus.Logger, fn func(m *database.Migrator) error) error {
	m, err := database.NewMigrator(cfg.DB, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := m.Close(); err != nil {
			log.Warnf("Failed to close migrator: %v", err)
		}
	}()

	if err := fn(m); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	return nil
}
