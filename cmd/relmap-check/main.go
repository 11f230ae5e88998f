// Command relmap-check verifies that a relmap configuration can reach its
// database. It loads the config, opens an instrumented connection, and
// issues a ping, exiting non-zero on failure.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"relmap/config"
	"relmap/dbexec"
	"relmap/logging"
)

var (
	// Version is set at build time via -ldflags "-X main.Version=...".
	Version = "dev"
	Commit  = "none"
)

func main() {
	if err := run(); err != nil {
		slog.Error("check failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	configPath := pflag.String("config", "", "Path to config file")
	showVersion := pflag.Bool("version", false, "Print version and exit")
	pflag.Parse()

	if *showVersion {
		fmt.Printf("relmap-check %s (%s)\n", Version, Commit)
		return nil
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := logging.New(cfg.Log)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dsn, err := cfg.Database.FormatDSN()
	if err != nil {
		return err
	}

	db, err := dbexec.Open(ctx, cfg.Database.Driver, dsn, dbexec.PoolConfig{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer db.Close()

	logger.InfoContext(ctx, "database reachable",
		slog.String("driver", cfg.Database.Driver),
		slog.String("host", cfg.Database.Host),
	)
	return nil
}
