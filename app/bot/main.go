package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/espejelomar/starknet-advisor-bot/config"
	"github.com/espejelomar/starknet-advisor-bot/internal/cache"
	applog "github.com/espejelomar/starknet-advisor-bot/internal/logger"
	"github.com/espejelomar/starknet-advisor-bot/internal/providers/llm"
	"github.com/espejelomar/starknet-advisor-bot/internal/ratelimit"
	pgrepo "github.com/espejelomar/starknet-advisor-bot/internal/repositories/postgres"
	"github.com/espejelomar/starknet-advisor-bot/internal/services"
	"github.com/espejelomar/starknet-advisor-bot/internal/tokens"
	"github.com/espejelomar/starknet-advisor-bot/internal/transport/telegram"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logg := applog.New()

	db, err := config.InitPostgres(cfg.DatabaseURL)
	if err != nil {
		logg.WithError(err).Fatal("postgres init failed")
	}
	logg.Info("postgres connected")

	rdb, err := config.InitRedis(cfg.RedisAddr)
	if err != nil {
		// cache is an optimization; run without it
		logg.WithError(err).Warn("redis unavailable, history cache disabled")
		rdb = nil
	}
	var history cache.HistoryCache
	if rdb != nil {
		history = cache.NewRedisHistory(rdb, 5*time.Minute)
		logg.Info("redis connected")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var provider llm.Provider
	switch cfg.LLMProvider {
	case "vertex":
		provider, err = llm.NewVertexGemini(ctx, cfg.VertexProject, cfg.VertexLocation, cfg.VertexModel)
		if err != nil {
			logg.WithError(err).Fatal("vertex init failed")
		}
	default:
		provider = llm.NewOpenRouter(cfg.OpenRouterAPIKey, cfg.OpenRouterBase)
	}
	defer provider.Close()

	turns := pgrepo.NewTurnRepo(db)
	sessions := services.NewSessionService(pgrepo.NewSessionRepo(db))
	analytics := services.NewAnalyticsService(pgrepo.NewAnalyticsRepo(db), logg)
	contexts := services.NewContextBuilder(turns, history, tokens.Default(), cfg.MaxHistoryMessages, cfg.MaxContextTokens, logg)
	limiter := ratelimit.New(cfg.RateLimitMessages, cfg.RateLimitWindow)

	orch := services.NewOrchestrator(limiter, sessions, contexts, provider, turns, analytics, logg,
		services.OrchestratorConfig{CompletionTimeout: cfg.LLMTimeout})

	client := telegram.NewClient(cfg.TelegramBotToken, cfg.TelegramAPIBase, logg)

	g, ctx := errgroup.WithContext(ctx)
	if cfg.WebhookURL != "" {
		srv := telegram.NewWebhookServer(client, orch, cfg.WebhookSecret, logg)
		applog.Component(logg, "webhook").WithField("port", cfg.Port).Info("starting bot")
		g.Go(func() error { return srv.Run(ctx, ":"+cfg.Port, cfg.WebhookURL) })
	} else {
		poller := telegram.NewPoller(client, orch, logg)
		applog.Component(logg, "poller").Info("starting bot")
		g.Go(func() error { return poller.Run(ctx) })
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logg.WithError(err).Fatal("bot stopped")
	}
	logg.Info("bot stopped")
}
