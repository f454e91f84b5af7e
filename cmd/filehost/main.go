package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"filehost/internal/config"
	"filehost/internal/credentials"
	"filehost/internal/mailer"
	"filehost/internal/observability/logging"
	"filehost/internal/observability/metrics"
	"filehost/internal/service"
	"filehost/internal/session"
	"filehost/internal/store"
	httpx "filehost/internal/transport/http"
)

const serviceName = "filehost"

func main() {
	logger := logging.NewLogger(logging.Config{
		ServiceName: serviceName,
		Environment: os.Getenv("ENVIRONMENT"),
		Level:       os.Getenv("LOG_LEVEL"),
	})
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("configuration error", "error", err)
		os.Exit(1)
	}

	metrics.MustRegister(serviceName)

	gormLog := gormlogger.Default.LogMode(gormlogger.Silent)
	if cfg.Debug {
		gormLog = gormlogger.Default.LogMode(gormlogger.Info)
	}
	gdb, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{Logger: gormLog})
	if err != nil {
		logger.Error("database open failed", "error", err)
		os.Exit(1)
	}

	st := store.New(gdb)
	if err := st.Migrate(); err != nil {
		logger.Error("database migrate failed", "error", err)
		os.Exit(1)
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		logger.Error("redis unreachable", "addr", cfg.RedisAddr, "error", err)
		os.Exit(1)
	}

	sessions := session.NewManager(
		session.NewStore(rdb, cfg.SessionTTL),
		session.NewCodec([]byte(cfg.SecretKey), cfg.HTTPS, cfg.SessionTTL),
	)

	creds := credentials.NewStore(cfg.Domain)
	mail := mailer.New(cfg.Email, cfg.Domain, logger)
	auth := service.NewAuthService(st.Users(), creds, mail, logger)
	files := service.NewFileService(st.Files(), st.Users())

	render, err := httpx.NewRenderer()
	if err != nil {
		logger.Error("template parse failed", "error", err)
		os.Exit(1)
	}

	server := httpx.NewServer(logger, sessions, st.Users(), auth, files, render)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("listening", "addr", srv.Addr, "domain", cfg.Domain)
	if err := srv.ListenAndServe(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}
