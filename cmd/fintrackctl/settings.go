package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"fintrack/internal/backend"
	"fintrack/internal/config"
	"fintrack/internal/services"
	"fintrack/internal/snapshot"
)

// FINTRACK_STORAGE_BACKEND maps to storage.backend.
var envKeyReplacer = strings.NewReplacer(".", "_")

// applyOverrides layers non-empty viper settings over the server config.
func applyOverrides(cfg *config.Config, v *viper.Viper) {
	set := func(dst *string, key string) {
		if s := strings.TrimSpace(v.GetString(key)); s != "" {
			*dst = s
		}
	}
	set(&cfg.StorageBackend, "storage.backend")
	set(&cfg.SQLiteDBPath, "storage.sqlite_path")
	set(&cfg.RedisAddr, "storage.redis_addr")
	set(&cfg.RedisPrefix, "storage.redis_prefix")
	set(&cfg.AMQPURL, "amqp.url")
	set(&cfg.LogLevel, "logging.level")
}

// openLedger loads the ledger from the configured backend. The returned
// func releases the store and the publisher.
func openLedger(ctx context.Context) (*services.LedgerService, func(), error) {
	bcfg, err := backend.FromAppConfig(appConfig)
	if err != nil {
		return nil, nil, err
	}
	res, err := backend.NewFactory(logger).CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open storage: %w", err)
	}
	closeAll := func() {
		if err := res.Cleanup(); err != nil {
			logger.Warn("Backend cleanup failed", "error", err)
		}
	}

	opts := []services.Option{services.WithLogger(logger)}
	if res.Publisher != nil {
		opts = append(opts, services.WithPublisher(res.Publisher))
	}
	ledger, err := services.NewLedgerService(ctx, snapshot.New(res.Store, logger), opts...)
	if err != nil {
		closeAll()
		return nil, nil, fmt.Errorf("failed to load ledger: %w", err)
	}
	return ledger, closeAll, nil
}
