package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/citylink/citylink/internal/app"
	"github.com/citylink/citylink/internal/auth"
	"github.com/citylink/citylink/internal/events"
	jobmetrics "github.com/citylink/citylink/internal/jobs"
	"github.com/citylink/citylink/internal/platform/cache"
	"github.com/citylink/citylink/internal/platform/db"
	"github.com/citylink/citylink/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	mailer := jobs.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom, cfg.SMTPUsername, cfg.SMTPPassword)
	recipients := events.NewRepository(pool)
	denylist := auth.NewDenylist(redisClient)
	metrics := jobmetrics.NewMetrics(nil)

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskTypeSendEmail, Handler: jobs.Instrument(metrics, jobs.TaskTypeSendEmail, jobs.NewSendEmailHandler(logger, mailer))},
			{Type: jobs.TaskTypeEventNotify, Handler: jobs.Instrument(metrics, jobs.TaskTypeEventNotify, jobs.NewEventNotifyHandler(logger, mailer, recipients))},
			{Type: jobs.TaskTypePurgeRevoked, Handler: jobs.Instrument(metrics, jobs.TaskTypePurgeRevoked, jobs.NewPurgeRevokedHandler(logger, denylist))},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "45 3 * * *", Task: jobs.NewPurgeRevokedTask(), Options: []asynq.Option{asynq.MaxRetry(2)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
