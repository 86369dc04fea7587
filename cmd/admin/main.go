package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "go.uber.org/automaxprocs"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"jobportal-crm/internal/app"
	"jobportal-crm/internal/core/config"
	"jobportal-crm/internal/core/logger"
	"jobportal-crm/internal/core/server"
	"jobportal-crm/internal/transport/http/handler"
	"jobportal-crm/internal/transport/http/router"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load(os.Getenv("CONFIG_PATH"))
	log, cleanup := logger.FromConfig(cfg.Log)
	defer cleanup()
	defer logger.RedirectStdLog(log, zapcore.InfoLevel)()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, cfg, log)
	if err != nil {
		log.Fatal("startup failed", zap.Error(err))
	}
	defer a.Close()

	if b := cfg.Bootstrap; b.AdminEmail != "" {
		u, err := a.Users.EnsureAdmin(ctx, b.AdminName, b.AdminEmail, b.AdminPassword)
		if err != nil {
			log.Fatal("bootstrap admin", zap.Error(err))
		}
		log.Info("bootstrap admin ready", zap.String("user_id", u.ID))
	}

	reg := router.NewRegistry(
		handler.NewReportHandler(a.Reports, log),
		handler.NewAdminUsersHandler(a.Users, log),
	)
	r := router.NewAdminEngine(log, a.JWT, a.Accounts, reg)

	addr := server.Addr(cfg.App.Admin.Host, cfg.App.Admin.Port)
	srv := server.BuildServer(addr, r, 10*time.Second, 30*time.Second, 60*time.Second)
	log.Info("crm admin starting",
		zap.String("admin_v1", "/admin/v1"),
		zap.String("metrics", "/metrics"),
	)

	go func() {
		if err := server.StartHTTP(srv, log); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("crm admin stopped", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	log.Info("crm admin stopped gracefully")
}
