package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"smartsacco/config"
	httpLayer "smartsacco/http"
	"smartsacco/logger"
	"smartsacco/model"
	"smartsacco/repository"
	"smartsacco/service"
)

func main() {
	log, err := logger.New(os.Getenv(config.EnvPrefix + "_APP_ENV"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(log); err != nil {
		log.Fatal("smartsacco exited", zap.Error(err))
	}
}

func run(log *zap.Logger) error {
	cfg, err := config.Load(log, "./configs")
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	riskModel, err := model.Load(cfg.ModelPath, model.SaccoFeaturesV1)
	if err != nil {
		return fmt.Errorf("load model: %w", err)
	}
	log.Info("model loaded",
		zap.String("name", riskModel.Name),
		zap.Int("version", riskModel.Version),
		zap.String("kind", string(riskModel.Kind)),
		zap.String("schema", riskModel.Schema.ID()),
	)

	checks := map[string]httpLayer.HealthCheck{}

	var members repository.MemberRepository
	switch cfg.MemberSource {
	case "postgres":
		if cfg.RunMigrations {
			if err := repository.RunMigrations(log, cfg.DatabaseDSN); err != nil {
				return fmt.Errorf("run migrations: %w", err)
			}
		}
		pool, err := repository.NewPostgresPool(ctx, repository.PostgresConfig{
			DSN:      cfg.DatabaseDSN,
			MaxConns: cfg.DBMaxConns,
			MinConns: cfg.DBMinConns,
		})
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer pool.Close()
		checks["postgres"] = pool.Ping
		members = repository.NewPostgresMemberRepository(pool)
	default:
		csvRepo, err := repository.NewCSVMemberRepository(cfg.MemberCSVPath)
		if err != nil {
			return fmt.Errorf("load members: %w", err)
		}
		log.Info("members loaded", zap.String("path", cfg.MemberCSVPath), zap.Int("count", csvRepo.Len()))
		members = csvRepo
	}

	var cache repository.CacheRepository
	if cfg.UseRedis() {
		rdb, closeRedis, err := repository.NewRedisClient(ctx, repository.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			UseTLS:   cfg.RedisUseTLS,
		})
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer closeRedis()
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
		cache = repository.NewRedisCache(rdb, "smartsacco:")
	} else {
		cache = repository.NewMemoryCache()
	}
	if cfg.CacheTTL > 0 {
		members = repository.NewCachedMemberRepository(members, cache, cfg.CacheTTL, log)
	}

	composer := service.NewDraftComposer(cfg.CooperativeName, cfg.Currency)
	advisor := service.NewAdvisorService(service.AdvisorConfig{
		APIKey:  cfg.OpenAIAPIKey,
		Model:   cfg.AdvisorModel,
		Timeout: cfg.AdvisorTimeout,
	}, composer, log)
	if !advisor.Enabled() {
		log.Info("advisor notes use the built-in summary; set SACCO_OPENAI_API_KEY to enable the language model")
	}

	assessmentService := service.NewAssessmentService(service.AssessmentServiceConfig{
		Members:       members,
		Assessments:   repository.NewAssessmentRepositoryMemory(cfg.AssessmentHistory),
		Classifier:    service.NewRiskClassifier(riskModel, riskModel.Schema),
		Explainer:     service.NewExplanationEngine(),
		Composer:      composer,
		Advisor:       advisor,
		Logger:        log,
		MinLoanAmount: cfg.MinLoanAmount,
	})
	counterOfferService := service.NewCounterOfferService(assessmentService, cfg.CounterOfferStep, log)

	rateLimiter := httpLayer.NewRateLimiter(cfg.RateLimitPerMinute, time.Minute)
	defer rateLimiter.Stop()

	handler := httpLayer.NewRouter(httpLayer.RouterConfig{
		Assessments:   httpLayer.NewAssessmentHandler(assessmentService, log),
		Members:       httpLayer.NewMemberHandler(assessmentService, log),
		CounterOffers: httpLayer.NewCounterOfferHandler(counterOfferService, log),
		Health:        httpLayer.NewHealthHandler(fmt.Sprintf("%s@v%d", riskModel.Name, riskModel.Version), checks, log),
		RateLimiter:   rateLimiter,
		MetricsPath:   cfg.MetricsPath,
		Logger:        log,
	})

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second + cfg.AdvisorTimeout,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("start server: %w", err)
	case <-ctx.Done():
		log.Info("shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("error during server shutdown", zap.Error(err))
	}

	log.Info("server exited")
	return nil
}
