package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/vectorsoft/leadgate/internal/api/router"
	appconfig "github.com/vectorsoft/leadgate/internal/config"
	"github.com/vectorsoft/leadgate/internal/conversation"
	"github.com/vectorsoft/leadgate/internal/digest"
	"github.com/vectorsoft/leadgate/internal/leads"
	"github.com/vectorsoft/leadgate/internal/notify"
	"github.com/vectorsoft/leadgate/internal/observability/metrics"
	"github.com/vectorsoft/leadgate/internal/scoring"
	"github.com/vectorsoft/leadgate/internal/settings"
	"github.com/vectorsoft/leadgate/internal/widgetauth"
	"github.com/vectorsoft/leadgate/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting leadgate API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()

	if cfg.DatabaseURL == "" {
		logger.Error("DATABASE_URL is required")
		os.Exit(1)
	}
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to create database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// LLM providers
	llm, err := buildLLMClient(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize LLM client", "error", err)
		os.Exit(1)
	}

	// Stores and repositories
	leadsRepo := leads.NewPostgresRepository(pool)
	turnStore := conversation.NewStore(pool)
	settingsStore := settings.NewStore(pool)
	digestStore := digest.NewStore(pool)
	websiteStore := widgetauth.NewStore(pool)

	// Metrics
	chatMetrics := metrics.NewChatMetrics(prometheus.DefaultRegisterer)
	schedulerMetrics := metrics.NewSchedulerMetrics(prometheus.DefaultRegisterer)

	// Conversation pipeline
	extractor := conversation.NewContactExtractor(llm, logger)
	engine := conversation.NewEngine(conversation.EngineConfig{
		LLM:        llm,
		Extractor:  extractor,
		LeadsRepo:  leadsRepo,
		Turns:      turnStore,
		Settings:   settingsStore,
		Logger:     logger,
		Metrics:    chatMetrics,
		LLMTimeout: cfg.LLMTimeout,
	})

	// Scoring
	scoringEngine := scoring.NewEngine(llm, logger, cfg.LLMTimeout)

	// Email delivery and digests
	sender := buildEmailSender(ctx, cfg, logger)
	generator := digest.NewContentGenerator(llm, logger, cfg.LLMTimeout)
	digestService := digest.NewService(generator, sender, digestStore, logger)

	// Widget auth
	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unreachable, widget sessions disabled", "error", err)
			redisClient = nil
		}
	}
	sessions := widgetauth.NewSessionStore(redisClient, cfg.WidgetSessionTTL)
	issuer := widgetauth.NewTokenIssuer(cfg.WidgetJWTSecret, cfg.WidgetSessionTTL)
	authHandler := widgetauth.NewHandler(websiteStore, issuer, sessions, cfg.IsDevelopment(), logger)

	// Scheduler
	schedulerCtx, stopScheduler := context.WithCancel(ctx)
	defer stopScheduler()
	if cfg.SchedulerEnabled {
		scheduler := digest.NewScheduler(digest.SchedulerConfig{
			Schedules: digestStore,
			History:   digestStore,
			Leads:     leadsRepo,
			Turns:     turnStore,
			Service:   digestService,
			Logger:    logger,
			Metrics:   schedulerMetrics,
			Interval:  cfg.SchedulerInterval,
			Window:    cfg.SchedulerWindow,
			SendDelay: cfg.SchedulerSendDelay,
		})
		go scheduler.Run(schedulerCtx)
	}

	// Router
	r := router.New(&router.Config{
		Logger:             logger,
		ChatHandler:        conversation.NewHandler(engine, logger),
		LeadsHandler:       scoring.NewHandler(leadsRepo, turnStore, scoringEngine, logger),
		EmailHandler:       digest.NewHandler(digestStore, digestStore, leadsRepo, turnStore, digestService, logger),
		SettingsHandler:    settings.NewHandler(settingsStore, logger),
		WidgetAuthHandler:  authHandler,
		WidgetSessions:     sessions,
		EnforceWidgetAuth:  sessions != nil,
		MetricsHandler:     promhttp.Handler(),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")
	stopScheduler()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}

// buildLLMClient selects the configured provider and optionally wraps
// it with a fallback provider.
func buildLLMClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (conversation.LLMClient, error) {
	primary, err := newProviderClient(ctx, cfg, cfg.LLMProvider)
	if err != nil {
		return nil, err
	}

	if cfg.FallbackProvider == "" || cfg.FallbackProvider == cfg.LLMProvider {
		return primary, nil
	}
	fallback, err := newProviderClient(ctx, cfg, cfg.FallbackProvider)
	if err != nil {
		logger.Warn("fallback LLM unavailable, continuing with primary only",
			"provider", cfg.FallbackProvider, "error", err)
		return primary, nil
	}
	logger.Info("LLM fallback enabled", "primary", cfg.LLMProvider, "fallback", cfg.FallbackProvider)
	return conversation.NewFallbackLLMClient(primary, fallback, logger), nil
}

func newProviderClient(ctx context.Context, cfg *appconfig.Config, provider string) (conversation.LLMClient, error) {
	switch provider {
	case "openai":
		return conversation.NewOpenAILLMClient(cfg.OpenAIAPIKey, cfg.OpenAIChatModel)
	case "gemini":
		return conversation.NewGeminiLLMClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	case "bedrock":
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		return conversation.NewBedrockLLMClient(bedrockruntime.NewFromConfig(awsCfg), cfg.BedrockModelID)
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", provider)
	}
}

// buildEmailSender selects the configured delivery provider, falling
// back to the logging stub.
func buildEmailSender(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) notify.EmailSender {
	switch cfg.EmailProvider {
	case "sendgrid":
		sender := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.SendGridFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger)
		if sender != nil {
			return sender
		}
		logger.Warn("sendgrid not configured, using stub email sender")
	case "ses":
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
		if err != nil {
			logger.Warn("aws config unavailable, using stub email sender", "error", err)
			break
		}
		sender := notify.NewSESSender(sesv2.NewFromConfig(awsCfg), notify.SESConfig{
			FromEmail: cfg.SESFromEmail,
			FromName:  cfg.SESFromName,
		}, logger)
		if sender != nil {
			return sender
		}
	}
	return notify.NewStubEmailSender(logger)
}
