package app

import (
	"context"
	"errors"

	"github.com/NasaVasa/mira/internal/config"
	"github.com/NasaVasa/mira/internal/delivery/scheduler"
	"github.com/NasaVasa/mira/internal/delivery/telegram"
	"github.com/NasaVasa/mira/internal/delivery/webhook"
	"github.com/NasaVasa/mira/internal/domain"
	"github.com/NasaVasa/mira/internal/infra/cache"
	"github.com/NasaVasa/mira/internal/infra/db"
	"github.com/NasaVasa/mira/internal/infra/gemini"
	"github.com/NasaVasa/mira/internal/infra/log"
	"github.com/NasaVasa/mira/internal/infra/unleash"
	"github.com/NasaVasa/mira/internal/usecase"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const (
	batchLockKey          = "mira:alerts:batch-lock"
	classifierTemperature = 0
	summaryTemperature    = 0.7
	maxConcurrentUpdates  = 16
)

type App struct {
	bot       *telegram.Bot
	trigger   *webhook.Server
	scheduler *scheduler.Scheduler
	logger    *zap.Logger
	cleanup   []func() error
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	logger, err := log.NewLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	a := &App{logger: logger}

	dbConn, err := db.Open(cfg, logger)
	if err != nil {
		return nil, err
	}
	a.cleanup = append(a.cleanup, func() error {
		sqlDB, err := dbConn.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	})

	userRepo := db.NewUserRepository(dbConn)
	alertRepo := db.NewAlertRepository(dbConn)

	var limiter *rate.Limiter
	if cfg.UnleashRateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.UnleashRateLimit), max(cfg.UnleashRateBurst, 1))
	}
	analytics := unleash.NewClient(cfg.UnleashBaseURL, cfg.UnleashAPIKey, cfg.UnleashTimeout, limiter, logger)

	genaiClient, err := gemini.NewClient(ctx, cfg.GeminiAPIKey)
	if err != nil {
		a.Shutdown()
		return nil, err
	}
	classifierModel := gemini.NewModel(genaiClient, cfg.GeminiClassifierModel, classifierTemperature, cfg.GeminiTimeout, logger)
	summaryModel := gemini.NewModel(genaiClient, cfg.GeminiSummaryModel, summaryTemperature, cfg.GeminiTimeout, logger)

	var collectionCache domain.CollectionCache
	var batchLock usecase.BatchLocker = &usecase.LocalBatchLock{}
	if cfg.RedisURL != "" {
		redisClient, err := cache.NewRedis(ctx, cfg.RedisURL)
		if err != nil {
			a.Shutdown()
			return nil, err
		}
		a.cleanup = append(a.cleanup, redisClient.Close)
		collectionCache = cache.NewCollectionCache(redisClient)
		batchLock = cache.NewBatchLock(redisClient, batchLockKey, cfg.AlertBatchLockTTL, logger)
		logger.Info("redis enabled for collection cache and batch lock")
	}

	resolver := usecase.NewEntityResolver(analytics, collectionCache, usecase.ResolverConfig{
		MaxPages: cfg.ResolverMaxPages,
		PageSize: cfg.ResolverPageSize,
		CacheTTL: cfg.ResolverCacheTTL,
	}, logger)
	classifier := usecase.NewIntentClassifier(classifierModel, logger)
	summarizer := usecase.NewSummaryGenerator(summaryModel)

	userUC := usecase.NewUserUsecase(userRepo)
	alertUC := usecase.NewAlertUsecase(userUC, alertRepo)
	router := usecase.NewRouter(classifier, resolver, analytics, summarizer, alertUC, cfg.MinConfidence, logger)

	api, err := telegram.NewAPI(cfg.TelegramBotToken)
	if err != nil {
		a.Shutdown()
		return nil, err
	}
	notifier := telegram.NewNotifier(api, logger)
	evaluator := usecase.NewAlertEvaluator(alertRepo, analytics, notifier, batchLock, cfg.AlertEvalParallelism, logger)

	handlers := telegram.NewHandlers(userUC, alertUC, router, logger)
	a.bot = telegram.NewBot(api, handlers, cfg.TelegramPollTimeout, maxConcurrentUpdates)

	if cfg.TriggerListenAddr != "" {
		a.trigger = webhook.NewServer(cfg.TriggerListenAddr, cfg.TriggerSecret, evaluator, logger)
	}
	if cfg.AlertCheckSchedule != "" {
		a.scheduler, err = scheduler.New(cfg.AlertCheckSchedule, evaluator, logger)
		if err != nil {
			a.Shutdown()
			return nil, err
		}
	}

	return a, nil
}

// Run blocks until ctx is done or one of the entrypoints fails.
func (a *App) Run(ctx context.Context) error {
	a.logger.Info("mira service starting")

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.bot.Start(ctx)
	})
	if a.trigger != nil {
		g.Go(func() error {
			return a.trigger.Start(ctx)
		})
	}
	if a.scheduler != nil {
		g.Go(func() error {
			return a.scheduler.Start(ctx)
		})
	}

	a.logger.Info("mira service started",
		zap.Bool("trigger_endpoint", a.trigger != nil),
		zap.Bool("scheduler", a.scheduler != nil),
	)
	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (a *App) Shutdown() {
	a.logger.Info("mira service shutting down")
	for i := len(a.cleanup) - 1; i >= 0; i-- {
		if err := a.cleanup[i](); err != nil {
			a.logger.Warn("cleanup failed", zap.Error(err))
		}
	}
	a.cleanup = nil
	_ = a.logger.Sync()
}
