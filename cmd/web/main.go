package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/MateoVillarinos/xrprich/pkg/logger"
	"github.com/MateoVillarinos/xrprich/pkg/pgxdb"
	"github.com/MateoVillarinos/xrprich/web/config"
	"github.com/MateoVillarinos/xrprich/web/handler"
	"github.com/MateoVillarinos/xrprich/web/store/pgxstore"
)

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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.InfoContext(ctx, "XRP rich list API starting",
		slog.String("version", version),
		slog.String("date", date),
	)

	db, err := pgxdb.NewConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		log.ErrorContext(ctx, "Failed to connect to database", logger.Err(err))
		os.Exit(1)
	}

	finder, finderCloser := pgxstore.New(db)
	defer finderCloser()

	mux := http.NewServeMux()
	handler.NewXRPGetMetrics(finder).AddRoutes(mux)
	handler.NewXRPGetDeltas(finder).AddRoutes(mux)
	handler.AddNotFound(mux)

	addr := net.JoinHostPort(cfg.HTTPHost, cfg.HTTPPort)
	server := &http.Server{
		Addr:              addr,
		Handler:           logger.NewMiddleware(log)(mux),
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}

	go func() {
		log.InfoContext(ctx, "Server started", slog.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.ErrorContext(ctx, "Server failed to start", logger.Err(err))
			os.Exit(1)
		}
	}()

	<-ctx.Done()

	log.InfoContext(ctx, "Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.ErrorContext(ctx, "Server forced to shutdown", logger.Err(err))
		os.Exit(1)
	}

	log.InfoContext(ctx, "Server exited gracefully")
}
