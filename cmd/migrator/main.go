package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MateoVillarinos/xrprich/migrator"
	"github.com/MateoVillarinos/xrprich/migrator/config"
	"github.com/MateoVillarinos/xrprich/pkg/logger"
	"github.com/MateoVillarinos/xrprich/pkg/pgxdb"
	"github.com/MateoVillarinos/xrprich/scraper/store/csvstore"
	"github.com/MateoVillarinos/xrprich/scraper/store/pgxstore"
)

// These values are overridden at build time using -ldflags
var (
	version = "dev"
	date    = "unknown"
)

func main() {
	cfg := config.New()

	log := logger.NewFromConfig(logger.Config{
		LogLevel:         cfg.LogLevel,
		LogHumanFriendly: cfg.LogHumanFriendly,
	})
	slog.SetDefault(log)

	log.Info("Starting database migrator",
		slog.String("migrationsDir", cfg.MigrationsDir),
		slog.String("importDir", cfg.ImportDir),
		slog.String("version", version),
		slog.String("date", date),
	)

	// Cancel on SIGINT/SIGTERM or when the timeout elapses
	baseCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ctx, cancel := context.WithTimeout(baseCtx, cfg.OperationTimeout)
	defer cancel()

	db, err := pgxdb.NewConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("Failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	log.Info("Applying database migrations")
	if err := migrator.ApplyMigrations(db, cfg.MigrationsDir); err != nil {
		log.Error("Failed to apply migrations", slog.Any("error", err))
		os.Exit(1)
	}
	log.Info("Database migrations applied successfully")

	if cfg.ImportDir != "" {
		if err := importSnapshots(ctx, log, db, cfg.ImportDir); err != nil {
			log.Error("Failed to import snapshots", slog.Any("error", err))
			os.Exit(1)
		}
	}

	log.Info("Database migrator completed successfully")
}

// importSnapshots loads an existing CSV archive into the database
func importSnapshots(ctx context.Context, log *slog.Logger, db *pgxpool.Pool, dir string) error {
	src, err := csvstore.New(dir)
	if err != nil {
		return err
	}
	dst, _ := pgxstore.New(db)

	log.Info("Importing CSV snapshots", slog.String("dir", dir))
	n, err := migrator.DefaultImporter.Import(ctx, src, dst)
	if err != nil {
		return err
	}
	log.Info("CSV snapshots imported", slog.Int("snapshots", n))
	return nil
}
