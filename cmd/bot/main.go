package main

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/redis/go-redis/v9"

	intakebot "github.com/crmline/intakebot"
	"github.com/crmline/intakebot/internal/config"
	"github.com/crmline/intakebot/internal/handler"
	"github.com/crmline/intakebot/internal/middleware"
	"github.com/crmline/intakebot/internal/repository"
	"github.com/crmline/intakebot/internal/service"
	"github.com/crmline/intakebot/internal/session"
	"github.com/crmline/intakebot/internal/storage"
	"github.com/crmline/intakebot/internal/workflow"
)

func main() {
	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Setup context with graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to database
	pool, err := repository.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// Run migrations
	migrationsFS, err := fs.Sub(intakebot.MigrationsFS, "migrations")
	if err != nil {
		slog.Error("failed to load embedded migrations", "error", err)
		os.Exit(1)
	}
	if err := repository.RunMigrations(cfg.DatabaseURL, migrationsFS); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Connect to Redis for conversational state
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		slog.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	sessions := session.NewRedis(redisClient, config.SessionKeyPrefix, cfg.SessionTTL)

	// Initialize repository and services
	queries := repository.New(pool, cfg.QueryTimeout)
	referenceService := service.NewReferenceService(queries)
	accessService := service.NewAccessService(queries)
	intakeService := service.NewIntakeService(queries)
	queryService := service.NewQueryService(queries)

	fileStore := storage.New(cfg.FilesDir)
	engine := workflow.New(referenceService, intakeService)

	// Handler pointer for use in default handler closure
	var h *handler.Handler

	// Create bot
	opts := []bot.Option{
		bot.WithMiddlewares(
			middleware.Recover(),
			middleware.Logging(),
			middleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst, config.RateLimitIdleTTL),
			middleware.ProfileLoader(accessService),
		),
		bot.WithDefaultHandler(func(ctx context.Context, b *bot.Bot, update *models.Update) {
			if h == nil {
				return
			}
			h.Default(ctx, b, update)
		}),
	}

	b, err := bot.New(cfg.BotToken, opts...)
	if err != nil {
		slog.Error("failed to create bot", "error", err)
		os.Exit(1)
	}

	// Get bot info
	me, err := b.GetMe(ctx)
	if err != nil {
		slog.Error("failed to get bot info", "error", err)
		os.Exit(1)
	}

	// Initialize handler
	h = handler.New(handler.Deps{
		Bot:          b,
		Cfg:          cfg,
		Engine:       engine,
		Sessions:     sessions,
		QueryService: queryService,
		Queries:      queries,
		FileStore:    fileStore,
	})

	// Register all handlers
	h.Register()

	// Start bot
	slog.Info("starting bot", "username", me.Username, "id", me.ID)
	b.Start(ctx)

	// Graceful shutdown
	slog.Info("bot stopped gracefully")
}
