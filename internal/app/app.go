// Package app assembles the infrastructure and services shared by the api
// and admin binaries.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/gorm"

	"jobportal-crm/internal/core/auth"
	"jobportal-crm/internal/core/cache"
	"jobportal-crm/internal/core/config"
	"jobportal-crm/internal/core/database"
	"jobportal-crm/internal/core/logger"
	"jobportal-crm/internal/core/storage"
	"jobportal-crm/internal/repo"
	"jobportal-crm/internal/service"
	"jobportal-crm/internal/transport/http/handler"
)

type App struct {
	Cfg *config.Config
	Log *zap.Logger
	DB  *gorm.DB
	JWT *auth.JWTer

	// Cache and Archive are nil when redis.addr or storage.endpoint is unset.
	Cache   *cache.Cache
	Archive handler.Archiver

	// Accounts backs the per-request banned-account check.
	Accounts *repo.UserRepo

	Leads   *service.LeadService
	Users   *service.UserService
	Reports *service.ReportService

	closers []func()
}

// Build connects to the database (and Redis/MinIO when configured), runs
// migrations if enabled and wires the services.
func Build(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	a := &App{Cfg: cfg, Log: log}

	err := withRetry(ctx, log, "database connection", 5, time.Second, func() error {
		db, err := database.NewGorm(database.Opts{
			Driver:             cfg.DB.Driver,
			DSN:                cfg.DB.DSN,
			Username:           cfg.DB.Username,
			Password:           cfg.DB.Password,
			MaxOpenConns:       cfg.DB.MaxOpenConns,
			MaxIdleConns:       cfg.DB.MaxIdleConns,
			ConnMaxLifetimeMin: cfg.DB.ConnMaxLifetimeMin,
			LogLevel:           cfg.DB.LogLevel,
			LogWriter:          logger.ToWriter(log.Named("gorm"), zapcore.InfoLevel),
		})
		if err != nil {
			if errors.Is(err, database.ErrUnsupportedDriver) {
				return permanent{err}
			}
			return err
		}
		a.DB = db
		return nil
	})
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func() {
		if sqlDB, err := a.DB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	log.Info("database connected",
		zap.String("driver", cfg.DB.Driver),
		zap.String("dsn", database.MaskDSN(cfg.DB.DSN)),
	)

	if cfg.DB.AutoMigrate {
		if err := database.Migrate(a.DB); err != nil {
			a.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		log.Info("automigrate done")
	}

	if cfg.Redis.Addr != "" {
		c := cache.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err := c.Ping(ctx); err != nil {
			// reports still work uncached
			log.Warn("redis unreachable, report cache degraded", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		}
		a.Cache = c
		a.closers = append(a.closers, func() { _ = c.Close() })
	}

	if cfg.Storage.Endpoint != "" {
		arc, err := storage.NewMinIO(cfg.Storage)
		if err != nil {
			a.Close()
			return nil, err
		}
		if err := withRetry(ctx, log, "ensure upload bucket", 3, time.Second, func() error {
			return arc.EnsureBucket(ctx)
		}); err != nil {
			log.Warn("lead sheet archive disabled", zap.Error(err))
		} else {
			a.Archive = arc
		}
	}

	a.JWT = &auth.JWTer{
		Secret: []byte(cfg.JWT.Secret),
		Issuer: cfg.JWT.Issuer,
		TTL:    time.Duration(cfg.JWT.AccessTokenTTLMin) * time.Minute,
	}

	leads, calls, users := repo.NewLeadRepo(a.DB), repo.NewCallLogRepo(a.DB), repo.NewUserRepo(a.DB)
	a.Accounts = users
	a.Leads = service.NewLeadService(leads, calls, users, service.LeadConfig{
		DefaultPageSize: cfg.CRM.DefaultPageSize,
		MaxPageSize:     cfg.CRM.MaxPageSize,
		MaxImportRows:   cfg.CRM.MaxImportRows,
	}, log.Named("leads"))
	a.Users = service.NewUserService(users, a.JWT, log.Named("users"))
	a.Reports = service.NewReportService(leads, calls, users, a.Cache,
		time.Duration(cfg.Redis.ReportTTLSec)*time.Second, log.Named("reports"))
	return a, nil
}

// Close releases connections in reverse order of acquisition.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

type permanent struct{ error }

func (p permanent) Unwrap() error { return p.error }

// withRetry runs fn up to attempts times with quadratic backoff. Errors
// wrapped in permanent stop immediately.
func withRetry(ctx context.Context, log *zap.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		err := fn()
		if err == nil {
			return nil
		}
		var p permanent
		if errors.As(err, &p) {
			return fmt.Errorf("%s: %w", name, p.error)
		}
		lastErr = err
		log.Warn("retryable operation failed",
			zap.String("operation", name),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		if attempt < attempts {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt*attempt) * baseDelay):
			}
		}
	}
	return fmt.Errorf("%s: %w", name, lastErr)
}
