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

	"daily-joke/internal/app"
	"daily-joke/internal/bot"
	"daily-joke/internal/config"
	"daily-joke/internal/database"
	"daily-joke/internal/queue"
	"daily-joke/pkg/logger"
)

const eventOrigin = "bot"

func main() {
	cfg, err := config.Load()
	if err == nil {
		err = cfg.Bot.Validate()
	}
	if err != nil {
		if errors.Is(err, config.ErrEmptyBotToken) {
			fmt.Fprintln(os.Stderr, "Error: BOT_TOKEN environment variable is required")
		} else if errors.Is(err, config.ErrEmptyOwnerChat) {
			fmt.Fprintln(os.Stderr, "Error: BOT_OWNER_CHAT_ID environment variable is required")
		} else if errors.Is(err, config.ErrEmptyDBPassword) {
			fmt.Fprintln(os.Stderr, "Error: DB_PASSWORD environment variable is required")
		} else {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		}
		os.Exit(1)
	}

	logger.Init(logger.Options{Level: cfg.App.LogLevel, Format: cfg.App.LogFormat})
	logger.Info("Starting daily-joke bot",
		logger.String("app", cfg.App.Name),
		logger.String("environment", cfg.App.Environment),
		logger.String("favorites_backend", cfg.Favorites.Backend),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := app.New(ctx, cfg, app.WithOrigin(eventOrigin))
	if err != nil {
		var dbErr *database.ConnectionError
		if errors.As(err, &dbErr) {
			logger.Error("Failed to connect to database",
				logger.Err(dbErr),
				logger.String("host", cfg.Database.Host),
				logger.Int("port", cfg.Database.Port),
			)
		} else {
			logger.Error("Failed to initialize", logger.Err(err))
		}
		os.Exit(1)
	}
	defer a.Close()

	ctrl := a.NewController(ctx)
	defer ctrl.Close()

	telegramBot, err := bot.New(cfg.Bot, ctrl)
	if err != nil {
		logger.Error("Failed to create bot", logger.Err(err))
		os.Exit(1)
	}

	tbot, err := telegramBot.Start()
	if err != nil {
		logger.Error("Failed to start bot", logger.Err(err))
		os.Exit(1)
	}
	logger.Info("Telegram bot started", logger.Int64("owner_chat_id", cfg.Bot.OwnerChatID))

	if a.Events != nil {
		go func() {
			logger.Info("Starting favorite event consumer...")
			err := a.Events.ConsumeFavoriteEvents(ctx, "dailyjoke-bot", func(ev *queue.FavoriteEvent) error {
				return notifyOwner(telegramBot, ev)
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Favorite event consumer error", logger.Err(err))
			}
		}()
	}

	healthServer := &http.Server{
		Addr: fmt.Sprintf(":%d", cfg.Health.Port),
		Handler: newHealthRouter(cfg.Health.Endpoint, func(ctx context.Context) error {
			_, err := a.Store.Get(ctx)
			return err
		}),
	}

	go func() {
		logger.Info("Health server starting",
			logger.Int("port", cfg.Health.Port),
		)
		if err := healthServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Health server error", logger.Err(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	tbot.Stop()

	if err := healthServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error shutting down health server", logger.Err(err))
	}

	logger.Info("Bot stopped gracefully")
}

type notifier interface {
	SyncFavorites()
	Notify(ev *queue.FavoriteEvent) error
}

// notifyOwner refreshes the bot's favorites and forwards changes made by
// other front ends. The bot already answers its own commands directly.
func notifyOwner(n notifier, ev *queue.FavoriteEvent) error {
	if ev.Origin == eventOrigin {
		return nil
	}
	n.SyncFavorites()
	return n.Notify(ev)
}
