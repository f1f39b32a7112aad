// Package main runs the background volunteer-hours worker: the retry queue consumer and the ledger reconciler.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/jayGatsby988/Hive-Website-final-sub000/config"
	"github.com/jayGatsby988/Hive-Website-final-sub000/internal/hours"
	"github.com/jayGatsby988/Hive-Website-final-sub000/internal/obs"
	"github.com/jayGatsby988/Hive-Website-final-sub000/internal/worker"
	"github.com/jayGatsby988/Hive-Website-final-sub000/pkg/database"
	"github.com/jayGatsby988/Hive-Website-final-sub000/pkg/queue"
	"github.com/jayGatsby988/Hive-Website-final-sub000/pkg/redis"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}
	if cfg.Database.Driver != config.DriverPostgres {
		logger.Fatal("worker requires DB_DRIVER=postgres", zap.String("db_driver", cfg.Database.Driver))
	}
	obs.Init()

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), cfg.Database.MaxConns, logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	hoursRepo := hours.NewRepository(pool)
	ledger := hours.NewLedger(hoursRepo, logger)
	reconciler := hours.NewReconciler(ledger, hoursRepo, cfg.Worker.BatchSize, logger).
		WithGrace(cfg.Worker.ReconcileGrace)

	workerCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go worker.RunReconciler(workerCtx, reconciler, cfg.Worker.SweepInterval, logger)

	if cfg.Redis.Enabled {
		rdb, err := redis.NewClient(ctx, redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		}, logger)
		if err != nil {
			logger.Fatal("redis", zap.Error(err))
		}
		defer rdb.Close()
		processor := worker.NewHoursProcessor(ledger, queue.NewQueue(rdb.Client, logger), logger)
		go processor.Run(workerCtx)
	} else {
		logger.Info("redis disabled; relying on the reconciler only")
	}

	// Metrics only; the worker serves no API.
	metricsSrv := &http.Server{Addr: ":" + cfg.Server.Port, Handler: obs.Handler()}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server", zap.Error(err))
		}
	}()
	logger.Info("worker started", zap.Duration("sweep_interval", cfg.Worker.SweepInterval))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	cancel()
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	_ = metricsSrv.Shutdown(shutdownCtx)
	logger.Info("worker stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
