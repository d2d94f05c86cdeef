package main

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tbourn/go-country-cache/internal/config"
	"github.com/tbourn/go-country-cache/internal/external"
	"github.com/tbourn/go-country-cache/internal/lock"
	"github.com/tbourn/go-country-cache/internal/repo"
	"github.com/tbourn/go-country-cache/internal/services"
	"github.com/tbourn/go-country-cache/internal/snapshot"
)

// app holds the long-lived dependencies shared by every subcommand.
type app struct {
	DB      *gorm.DB
	Refresh *services.RefreshService
	Summary *snapshot.Generator
}

// openDB connects to the configured store and applies migrations.
func openDB(cfg config.Config) (*gorm.DB, error) {
	db, err := repo.Open(repo.Options{
		Driver:  cfg.DB.Driver,
		Path:    cfg.DB.Path,
		DSN:     cfg.DB.DSN,
		Tracing: cfg.OTEL.Enabled,
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// newSummaryStore selects the summary image backend.
func newSummaryStore(cfg config.SummaryConfig, timeout time.Duration) (snapshot.Store, error) {
	switch cfg.Backend {
	case "minio":
		client, err := snapshot.NewMinioClient(snapshot.MinioConfig{
			Endpoint:  cfg.Minio.Endpoint,
			AccessKey: cfg.Minio.AccessKey,
			SecretKey: cfg.Minio.SecretKey,
			Bucket:    cfg.Minio.Bucket,
			Region:    cfg.Minio.Region,
			UseSSL:    cfg.Minio.UseSSL,
			Timeout:   timeout,
		})
		if err != nil {
			return nil, err
		}
		return &snapshot.MinioStore{
			Client: client,
			Bucket: cfg.Minio.Bucket,
			Object: cfg.Minio.Object,
			Region: cfg.Minio.Region,
		}, nil
	case "", "file":
		return &snapshot.FileStore{Path: cfg.Path}, nil
	default:
		return nil, fmt.Errorf("unsupported summary backend %q", cfg.Backend)
	}
}

// newLocker selects the refresh single-flight backend.
func newLocker(cfg config.LockConfig) (lock.Locker, error) {
	switch cfg.Backend {
	case "redis":
		return lock.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.TTL), nil
	case "", "local":
		return lock.NewLocal(), nil
	default:
		return nil, fmt.Errorf("unsupported refresh lock %q", cfg.Backend)
	}
}

// buildApp wires storage, upstream gateway, summary generator and refresh
// service from cfg.
func buildApp(cfg config.Config) (*app, error) {
	db, err := openDB(cfg)
	if err != nil {
		return nil, err
	}

	store, err := newSummaryStore(cfg.Summary, cfg.External.Timeout)
	if err != nil {
		return nil, err
	}
	locker, err := newLocker(cfg.Lock)
	if err != nil {
		return nil, err
	}

	gw := external.NewGateway(cfg.External.CountriesURL, cfg.External.RatesURL, cfg.External.Timeout)
	gen := snapshot.NewGenerator(store)

	refresh := services.NewRefreshService(db, gw, gen)
	refresh.Lock = locker

	log.Info().
		Str("db_driver", cfg.DB.Driver).
		Str("summary_backend", cfg.Summary.Backend).
		Str("refresh_lock", cfg.Lock.Backend).
		Msg("application wired")

	return &app{DB: db, Refresh: refresh, Summary: gen}, nil
}

// close releases the database pool.
func (a *app) close() {
	if a == nil || a.DB == nil {
		return
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
