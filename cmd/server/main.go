package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/mux"

	"github.com/mcoot/pointsbot/internal/api"
	"github.com/mcoot/pointsbot/internal/chat/discord"
	"github.com/mcoot/pointsbot/internal/config"
	"github.com/mcoot/pointsbot/internal/factory"
	"github.com/mcoot/pointsbot/internal/model"
	"github.com/mcoot/pointsbot/internal/services/auth"
	"github.com/mcoot/pointsbot/internal/services/commands"
	"github.com/mcoot/pointsbot/internal/services/query"
	redisstorage "github.com/mcoot/pointsbot/internal/storage/redis"
	"github.com/mcoot/pointsbot/internal/web"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Set up logging with JSON output
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Create application factory
	app, err := factory.New(ctx, factoryConfig(cfg, logger))
	if err != nil {
		logger.Error("failed to create application", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() { _ = app.Close() }()
	app.Start(ctx)

	// API first so /api routes win over the dashboard
	r := mux.NewRouter()
	api.Mount(r, api.RouterConfig{
		Logger:        logger,
		AuthService:   app.AuthService,
		LedgerService: app.Ledger,
		QueryService:  app.Query,
		HubManager:    app.HubManager,
		StorageType:   app.StorageType,
	})
	web.Mount(r, web.RouterConfig{
		Logger:        logger,
		LedgerService: app.Ledger,
		QueryService:  app.Query,
		Clock:         app.Clock,
		Locale:        app.Locale,
		StaticDir:     cfg.StaticDir,
	})

	// Create server
	serverConfig := api.DefaultServerConfig()
	serverConfig.Host = cfg.HTTPHost
	serverConfig.Port = cfg.HTTPPort
	server := api.NewServer(r, serverConfig, logger)

	bot := startChat(ctx, cfg, app, logger)
	if bot != nil {
		defer func() { _ = bot.Close() }()
	}

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	// Wait for shutdown or error
	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		if err := server.Shutdown(context.Background()); err != nil {
			logger.Error("shutdown error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	logger.Info("server stopped")
}

func factoryConfig(cfg config.Config, logger *slog.Logger) factory.Config {
	fc := factory.Config{
		Logger:             logger,
		StorageType:        cfg.Storage,
		SQLitePath:         cfg.SQLitePath,
		PostgresURL:        cfg.DatabaseURL,
		AuthConfig:         auth.Config{TokenHash: cfg.APITokenHash},
		SerializeMutations: cfg.SerializeMutations,
		Commands: commands.Config{
			Defaults:        model.Settings{Prefix: cfg.Prefix, DMRole: cfg.DMRole},
			Locale:          query.ParseLocale(cfg.Locale),
			PendingResetTTL: cfg.PendingResetTTL,
			ResetAllTimeout: cfg.ResetAllTimeout,
		},
	}
	if cfg.Storage == config.StorageRedis {
		redisCfg := redisstorage.ConfigFromURL(cfg.RedisURL)
		redisCfg.KeyPrefix = cfg.RedisPrefix
		fc.RedisConfig = &redisCfg
	}
	return fc
}

// startChat connects the Discord bot. Failure leaves the HTTP side running.
func startChat(ctx context.Context, cfg config.Config, app *factory.App, logger *slog.Logger) *discord.Bot {
	if !cfg.ChatEnabled() {
		logger.Warn("DISCORD_BOT_TOKEN not set, chat integration disabled")
		return nil
	}

	bot, err := discord.New(cfg.DiscordToken, app.CommandRouter, logger)
	if err != nil {
		logger.Warn("chat integration disabled", slog.String("error", err.Error()))
		return nil
	}
	if err := bot.Start(ctx); err != nil {
		logger.Warn("chat integration disabled", slog.String("error", err.Error()))
		return nil
	}
	return bot
}
