package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"stylebot/internal/adapter/repo"
	"stylebot/internal/bot"
	"stylebot/internal/db"
	"stylebot/internal/http/handlers"
	httpapi "stylebot/internal/http/httpapi"
	"stylebot/internal/i18n"
	"stylebot/internal/infra"
	"stylebot/internal/storage"
	"stylebot/internal/telegram"
	"stylebot/internal/trainer"
)

func main() {
	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()
	dbpool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer dbpool.Close()

	if err := db.Migrate(ctx, dbpool); err != nil {
		logger.Fatal().Err(err).Msg("failed to migrate database")
	}

	loc, err := i18n.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load message catalog")
	}

	store, err := storage.NewFileStore(cfg.StoragePath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open blob storage")
	}

	tg, err := telegram.NewClient(telegram.Options{
		Token:   cfg.TelegramToken,
		BaseURL: cfg.TelegramBaseURL,
		Logger:  &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build telegram client")
	}

	tr, err := trainer.NewClient(trainer.Options{
		BaseURL:        cfg.TrainerBaseURL,
		APIKey:         cfg.TrainerAPIKey,
		Project:        cfg.TrainerProject,
		RequestTimeout: cfg.TrainerTimeout,
		Logger:         &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build trainer client")
	}

	atomic := repo.NewAtomic(dbpool)
	settings := bot.NewSettingsEditor(tg, loc)
	launcher := bot.NewLauncher(tr, tg, store, cfg.CallbackURL(), logger)
	processor := bot.NewProcessor(cfg.SupportChatID, cfg.BotUsername, atomic, tg, settings, launcher, loc, logger)
	reconciler := bot.NewReconciler(atomic, tg, tr, store, loc, logger)

	app := &handlers.App{
		HookToken:     cfg.HookToken,
		CallbackToken: cfg.CallbackToken,
		WebhookURL:    cfg.WebhookURL(),
		Processor:     processor,
		Reconciler:    reconciler,
		Telegram:      tg,
		Logger:        logger,
	}
	router := httpapi.NewRouter(app)
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("bot listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
