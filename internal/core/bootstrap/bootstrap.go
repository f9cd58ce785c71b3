// Package bootstrap wires configuration into the runtime dependencies shared by the
// binaries: logger, database, cache, event publisher and services.
package bootstrap

import (
	"context"
	"time"

	"github.com/IBM/sarama"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/gorm"

	"library-lending/internal/core/auth"
	"library-lending/internal/core/cache"
	"library-lending/internal/core/config"
	"library-lending/internal/core/database"
	"library-lending/internal/core/events"
	"library-lending/internal/core/logger"
	"library-lending/internal/core/tracing"
	"library-lending/internal/domain"
	"library-lending/internal/repo"
	"library-lending/internal/service"
)

type App struct {
	Cfg    *config.Config
	Log    *zap.Logger
	DB     *gorm.DB
	Store  *repo.Store
	JWT    *auth.JWTer
	Cache  *cache.Cache
	Events events.Publisher
	Tracer *sdktrace.TracerProvider
	Svc    *service.Services

	closers []func()
}

// Logger builds the process logger from cfg and routes the standard library log into it.
func Logger(cfg *config.Config) (*zap.Logger, func()) {
	var (
		l       *zap.Logger
		cleanup func()
	)
	if cfg.Log.File.Enable {
		l, cleanup = logger.NewWithRotate(cfg.Log.Level, cfg.Log.JSON, logger.FileRotate{
			Filename:   cfg.Log.File.Filename,
			MaxSizeMB:  cfg.Log.File.MaxSizeMB,
			MaxBackups: cfg.Log.File.MaxBackups,
			MaxAgeDays: cfg.Log.File.MaxAgeDays,
			Compress:   cfg.Log.File.Compress,
		})
	} else {
		l, cleanup = logger.New(cfg.Log.Level, cfg.Log.JSON)
	}
	restore := logger.RedirectStdLog(l, zapcore.InfoLevel)
	return l, func() { restore(); cleanup() }
}

// OpenDB connects and migrates when db.autoMigrate is set.
func OpenDB(cfg *config.Config, l *zap.Logger) (*gorm.DB, error) {
	db, err := database.NewGorm(database.Opts{
		Driver:             cfg.DB.Driver,
		DSN:                cfg.DB.DSN,
		Username:           cfg.DB.Username,
		Password:           cfg.DB.Password,
		MaxOpenConns:       cfg.DB.MaxOpenConns,
		MaxIdleConns:       cfg.DB.MaxIdleConns,
		ConnMaxLifetimeMin: cfg.DB.ConnMaxLifetimeMin,
		LogLevel:           cfg.DB.LogLevel,
	})
	if err != nil {
		return nil, err
	}
	l.Info("database connected", zap.String("driver", cfg.DB.Driver))
	if cfg.DB.AutoMigrate {
		if err := database.Migrate(db, domain.Models()...); err != nil {
			return nil, err
		}
		l.Info("automigrate done")
	}
	return db, nil
}

func New(cfg *config.Config, l *zap.Logger) (*App, error) {
	a := &App{Cfg: cfg, Log: l}

	tp, err := tracing.New(context.Background(), tracing.Options{
		ServiceName: cfg.App.Name,
		Env:         cfg.App.Env,
		Enabled:     cfg.Tracing.Enabled,
		Endpoint:    cfg.Tracing.Endpoint,
		Insecure:    cfg.Tracing.Insecure,
		SampleRatio: cfg.Tracing.SampleRatio,
	})
	if err != nil {
		return nil, err
	}
	tracing.Install(tp)
	a.Tracer = tp
	a.closers = append(a.closers, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			l.Warn("tracer shutdown failed", zap.Error(err))
		}
	})
	if cfg.Tracing.Enabled {
		l.Info("trace export enabled", zap.String("endpoint", cfg.Tracing.Endpoint))
	}

	db, err := OpenDB(cfg, l)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.DB = db
	a.closers = append(a.closers, func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	a.Store = repo.NewStore(db)

	a.JWT = &auth.JWTer{
		Secret:     []byte(cfg.JWT.Secret),
		Issuer:     cfg.JWT.Issuer,
		TTL:        cfg.JWT.AccessTTL(),
		RefreshTTL: cfg.JWT.RefreshTTL(),
	}

	if cfg.Redis.Addr != "" {
		a.Cache = cache.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, time.Duration(cfg.Redis.TTLSec)*time.Second)
		a.closers = append(a.closers, func() { _ = a.Cache.Close() })
		l.Info("book cache enabled", zap.String("addr", cfg.Redis.Addr))
	}

	a.Events = events.Nop{}
	if len(cfg.Kafka.Brokers) > 0 {
		if std, err := logger.ToStdLogger(l.Named("sarama"), zapcore.DebugLevel); err == nil {
			sarama.Logger = std
		}
		p, err := events.NewProducer(events.KafkaConfig{Addrs: cfg.Kafka.Brokers, Topic: cfg.Kafka.Topic})
		if err != nil {
			a.Close()
			return nil, err
		}
		a.Events = events.NewKafka(p, cfg.Kafka.Topic)
		a.closers = append(a.closers, func() { _ = a.Events.Close() })
		l.Info("event publishing enabled", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))
	}

	a.Svc = service.New(service.Deps{
		Store:  a.Store,
		Log:    l.Named("service"),
		Events: a.Events,
		Cache:  a.Cache,
		JWT:    a.JWT,
		Tracer: tp,
	})
	return a, nil
}

// Health pings the database.
func (a *App) Health(ctx context.Context) error {
	sqlDB, err := a.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
