package main

import (
	"context"
	"fmt"
	"os"

	"hrdash/internal/cache"
	"hrdash/internal/cli"
	apphttp "hrdash/internal/http"
	"hrdash/internal/log"
	"hrdash/internal/metrics"
	"hrdash/internal/session"
)

func main() {
	cli.LoadEnvFile()

	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger := cli.SetupLogger(cfg)

	derive, err := cfg.DeriveOptions()
	if err != nil {
		cli.Exit(logger, "Invalid derivation settings", err)
	}

	store := session.NewMemoryStore(
		session.Config{Capacity: cfg.SessionCapacity, TTL: cfg.SessionTTL},
		session.WithLogger(logger.Logger.With(log.FieldComponent, log.ComponentSession)),
		session.WithEvictHook(func(reason cache.EvictReason) {
			metrics.SessionsEvicted.WithLabelValues(string(reason)).Inc()
		}),
	)
	defer func() { _ = store.Close() }()

	srv, err := apphttp.NewServer(apphttp.Options{
		Addr:                ":" + cfg.Port,
		Store:               store,
		Derive:              derive,
		StrictColumns:       cfg.StrictColumns,
		MaxUploadBytes:      cfg.MaxUploadBytes(),
		UploadRatePerMinute: cfg.UploadRatePerMinute,
		MetricsEnabled:      cfg.MetricsEnabled,
		Logger:              logger,
	})
	if err != nil {
		cli.Exit(logger, "Failed to initialize server", err)
	}

	logger.Info("Starting hrdash server",
		log.FieldOperation, log.OpStartup,
		"port", cfg.Port,
		"duplicates", string(derive.Duplicates),
		"strict_columns", cfg.StrictColumns,
		"session_ttl", cfg.SessionTTL.String())

	if err := cli.Run(context.Background(), srv, cfg.ShutdownTimeout, logger); err != nil {
		cli.Exit(logger, "Server error", err)
	}
	logger.Info("Server stopped gracefully")
}
