package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"taskd/internal/config"
	"taskd/internal/db"
	"taskd/internal/logging"
	"taskd/internal/server"
	"taskd/internal/tasks"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "taskd",
	Short: "Task tracking API server",
	Long: `taskd serves CRUD operations over tasks stored in PostgreSQL or SQLite.

Connection settings come from environment variables (DB_HOST, DB_PORT,
DB_USER, DB_PASSWORD, DB_NAME, ...) or a YAML file passed with --config.

Examples:
  # Start the API on localhost:8000
  DB_PASSWORD=secret taskd serve

  # Local run against a SQLite file
  DB_DRIVER=sqlite DB_PATH=./tasks.db taskd serve`,
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Ensure the schema exists and start the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		cfg, log, err := setup()
		if err != nil {
			return err
		}

		store, closeDB, err := openStore(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer closeDB()

		if err := store.CreateTable(ctx); err != nil {
			return err
		}

		router := tasks.NewRouter(store, log)
		return server.New(cfg.HTTPAddr, router, store, cfg.CORSOrigins, log).Run(ctx)
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the tasks table if it does not exist",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}

		store, closeDB, err := openStore(cmd.Context(), cfg, log)
		if err != nil {
			return err
		}
		defer closeDB()

		return store.CreateTable(cmd.Context())
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration as YAML (password masked)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		return cfg.WriteYAML(cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file")
	rootCmd.AddCommand(serveCmd, migrateCmd, configCmd)
}

func setup() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	log := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	return cfg, log, nil
}

func openStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*tasks.Store, func(), error) {
	database, err := db.Connect(ctx, cfg.Dialect(), cfg.DSN())
	if err != nil {
		return nil, nil, fmt.Errorf("connect database: %w", err)
	}
	log.Info().Str("driver", cfg.DBDriver).Msg("connected to database")

	store := tasks.NewStore(db.NewPerCallProvider(database), cfg.Dialect(), log)
	return store, func() { database.Close() }, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
