package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/redis/go-redis/v9"

	"ideaforge/internal/app"
	"ideaforge/internal/config"
	"ideaforge/internal/ratelimit"
	"ideaforge/internal/seed"
	"ideaforge/internal/server"
	"ideaforge/internal/util"
	"ideaforge/pkg/ai"
	"ideaforge/pkg/auth"
	"ideaforge/pkg/store"
)

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: failed to load config: %v\n", err)
		os.Exit(1)
	}

	util.InitLogger(cfg.LogLevel)

	st, err := store.NewGormStore(cfg.DatabaseURL)
	if err != nil {
		util.Fatal("failed to init store", "err", err)
	}
	if err := seed.Assistants(st); err != nil {
		util.Fatal("failed to seed assistants", "err", err)
	}

	var (
		gen      ai.ChatGenerator
		inferrer ai.StructuredCompleter
	)
	switch cfg.Provider {
	case "openai":
		gen = ai.NewOpenAICompatClient(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.GenerationModel)
	default:
		gemini := ai.NewGeminiClient(cfg.GeminiAPIKey, cfg.GenerationModel)
		gen = gemini
		inferrer = gemini
	}

	var cache *redis.Client
	if cfg.RedisAddr != "" {
		cache = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	}

	tokenTTL := time.Duration(cfg.TokenTTLHours) * time.Hour
	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience, tokenTTL)

	appCore := app.New(st, gen, app.Options{
		Inferrer:     inferrer,
		Cache:        cache,
		ShareBaseURL: cfg.ShareBaseURL,
		TrendingTTL:  time.Duration(cfg.TrendingTTLMinutes) * time.Minute,
		Tokens:       tokens,
	})

	var limiter *ratelimit.FixedWindowLimiter
	if cfg.GenerateRateLimit > 0 && cfg.RedisAddr != "" {
		window := time.Duration(cfg.GenerateRateWindow) * time.Second
		if window <= 0 {
			window = time.Minute
		}
		limiter, err = ratelimit.NewRedisFixedWindowLimiter(cfg.RedisAddr, "", "", cfg.GenerateRateLimit, window)
		if err != nil {
			util.Fatal("failed to init rate limiter", "err", err)
		}
	}

	trustedProxies, err := util.NewTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		util.Fatal("failed to parse trusted proxies", "err", err)
	}

	httpServer := server.New(server.Config{
		App:             appCore,
		GenerateLimiter: limiter,
		TrustedProxies:  trustedProxies,
	})

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      httpServer.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	slog.Info("server listening", "addr", addr, "provider", cfg.Provider)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		util.Fatal("server error", "err", err)
	}
}
