package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "go.uber.org/automaxprocs"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"library-lending/internal/core/bootstrap"
	"library-lending/internal/core/config"
	"library-lending/internal/core/logger"
	"library-lending/internal/core/server"
	"library-lending/internal/transport/http/handler"
	"library-lending/internal/transport/http/router"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load(os.Getenv("CONFIG_PATH"))
	log, cleanup := bootstrap.Logger(cfg)
	defer cleanup()
	gin.DefaultWriter = logger.ToWriter(log.Named("gin"), zapcore.DebugLevel)

	app, err := bootstrap.New(cfg, log)
	if err != nil {
		log.Fatal("bootstrap failed", zap.Error(err))
	}
	defer app.Close()

	reg := router.Lending(handler.Deps{
		Svc:           app.Svc,
		JWT:           app.JWT,
		Log:           log.Named("http"),
		Limits:        cfg.Limits,
		RetryAttempts: cfg.Lending.RetryAttempts,
	})
	r := router.NewAPIEngine(log, router.EngineOptions{
		Server: server.Options{Name: "api", Mode: ginMode(cfg.App.Env), CORSOrigins: cfg.App.CORSOrigins},
		Limits: cfg.Limits,
		Health: app.Health,
	}, reg)

	addr := server.Addr(cfg.App.HTTP.Host, cfg.App.HTTP.Port)
	srv := server.BuildServer(
		addr, r,
		time.Duration(cfg.App.HTTP.ReadTimeoutSec)*time.Second,
		time.Duration(cfg.App.HTTP.WriteTimeoutSec)*time.Second,
		time.Duration(cfg.App.HTTP.IdleTimeoutSec)*time.Second,
	)

	host4human := cfg.App.HTTP.Host
	if host4human == "" || host4human == "0.0.0.0" {
		host4human = "127.0.0.1"
	}
	baseURL := "http://" + host4human + ":" + fmt.Sprint(cfg.App.HTTP.Port)
	log.Info("lending api starting",
		zap.String("addr", addr),
		zap.String("health", baseURL+"/healthz"),
		zap.String("api_v1", baseURL+"/api/v1"),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := server.Run(ctx, srv, log, 10*time.Second); err != nil {
		log.Error("lending api stopped with error", zap.Error(err))
		return
	}
	log.Info("lending api stopped gracefully")
}

func ginMode(env string) string {
	if env == "prod" || env == "production" {
		return gin.ReleaseMode
	}
	return gin.DebugMode
}
