package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/citylink/citylink/internal/announcements"
	"github.com/citylink/citylink/internal/app"
	"github.com/citylink/citylink/internal/auth"
	"github.com/citylink/citylink/internal/businesses"
	"github.com/citylink/citylink/internal/emergencies"
	"github.com/citylink/citylink/internal/events"
	"github.com/citylink/citylink/internal/forums"
	"github.com/citylink/citylink/internal/information"
	"github.com/citylink/citylink/internal/observability"
	"github.com/citylink/citylink/internal/platform/cache"
	"github.com/citylink/citylink/internal/platform/db"
	"github.com/citylink/citylink/internal/shared"
	"github.com/citylink/citylink/internal/surveys"
	"github.com/citylink/citylink/internal/tags"
	"github.com/citylink/citylink/internal/users"
	"github.com/citylink/citylink/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
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

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL)
	denylist := auth.NewDenylist(redisClient)
	authService := auth.NewService(auth.NewRepository(pool), tokens, denylist)
	authHandler := auth.NewHandler(logger, authService)
	mw := auth.Middleware{Service: authService, Logger: logger}

	auditLogger := shared.NewAuditLogger(pool)

	jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	usersService := users.NewService(users.NewRepository(pool), tokens, auditLogger)
	usersHandler := users.NewHandler(logger, usersService, mw)

	announcementsService := announcements.NewService(announcements.NewRepository(pool))
	announcementsHandler := announcements.NewHandler(logger, announcementsService, mw)

	businessesService := businesses.NewService(businesses.NewRepository(pool))
	businessesHandler := businesses.NewHandler(logger, businessesService, mw)

	eventsService := events.NewService(events.NewRepository(pool), jobClient, logger)
	eventsHandler := events.NewHandler(logger, eventsService, mw)

	emergenciesService := emergencies.NewService(emergencies.NewRepository(pool))
	emergenciesHandler := emergencies.NewHandler(logger, emergenciesService, mw)

	tagsService := tags.NewService(tags.NewRepository(pool), auditLogger)
	tagsHandler := tags.NewHandler(logger, tagsService, mw)

	informationService := information.NewService(information.NewRepository(pool), auditLogger)
	informationHandler := information.NewHandler(logger, informationService, mw)

	forumsService := forums.NewService(forums.NewRepository(pool))
	forumsHandler := forums.NewHandler(logger, forumsService, mw)

	surveysService := surveys.NewService(surveys.NewRepository(pool), redisClient, logger)
	surveysHandler := surveys.NewHandler(logger, surveysService, mw)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	metrics := observability.NewMetrics()

	router := app.NewRouter(app.RouterParams{
		Logger:               logger,
		Config:               cfg,
		AuthHandler:          authHandler,
		UsersHandler:         usersHandler,
		AnnouncementsHandler: announcementsHandler,
		BusinessesHandler:    businessesHandler,
		EventsHandler:        eventsHandler,
		EmergenciesHandler:   emergenciesHandler,
		InformationHandler:   informationHandler,
		TagsHandler:          tagsHandler,
		ForumsHandler:        forumsHandler,
		SurveysHandler:       surveysHandler,
		JobHandler:           jobHandler,
		Metrics:              metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
