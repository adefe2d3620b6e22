// Package bot exposes the joke controller as a single-owner Telegram bot.
package bot

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"daily-joke/internal/config"
	"daily-joke/internal/models"
	"daily-joke/internal/queue"
	"daily-joke/internal/viewmodel"
	"daily-joke/pkg/logger"

	"gopkg.in/telebot.v4"
)

var ErrRateLimited = errors.New("telegram rate limited")

type Controller interface {
	Handle(ev viewmodel.Event)
	State() viewmodel.UiState
	ReloadFavorites()
	Wait()
}

type Bot struct {
	settings telebot.Settings
	ctrl     Controller
	tbot     *telebot.Bot
	cfg      config.BotConfig

	// mu keeps one command's Handle/Wait/State sequence from interleaving
	// with another's.
	mu sync.Mutex
}

func New(cfg config.BotConfig, ctrl Controller) (*Bot, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &Bot{
		cfg:  cfg,
		ctrl: ctrl,
		settings: telebot.Settings{
			Token:  cfg.Token,
			Poller: &telebot.LongPoller{Timeout: cfg.PollTimeout},
		},
	}, nil
}

func (b *Bot) Start() (*telebot.Bot, error) {
	tbot, err := telebot.NewBot(b.settings)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	b.tbot = tbot
	b.setupHandlers(tbot)

	go tbot.Start()

	return tbot, nil
}

func (b *Bot) setupHandlers(bot *telebot.Bot) {
	bot.Use(b.ownerOnly)

	bot.Handle(telebot.OnText, func(c telebot.Context) error {
		logger.Info("Incoming text message",
			logger.Int64("chat_id", c.Chat().ID),
			logger.String("text", c.Text()),
		)
		return b.reply(c, "Use /joke to get a joke!")
	})

	for _, cmd := range []string{"/start", "/help", "/joke", "/refresh", "/save", "/favorites", "/remove"} {
		bot.Handle(cmd, func(c telebot.Context) error {
			logger.Info("Incoming command",
				logger.Int64("chat_id", c.Chat().ID),
				logger.String("command", cmd),
			)
			return b.reply(c, b.respond(cmd, c.Args()))
		})
	}
}

// ownerOnly drops updates from every chat except the configured owner.
func (b *Bot) ownerOnly(next telebot.HandlerFunc) telebot.HandlerFunc {
	return func(c telebot.Context) error {
		chat := c.Chat()
		if chat == nil || !b.allowed(chat.ID) {
			var id int64
			if chat != nil {
				id = chat.ID
			}
			logger.Warn("Ignoring update from foreign chat", logger.Int64("chat_id", id))
			return nil
		}
		return next(c)
	}
}

func (b *Bot) allowed(chatID int64) bool {
	return chatID == b.cfg.OwnerChatID
}

// respond runs one command against the controller and returns the reply text.
func (b *Bot) respond(cmd string, args []string) string {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch cmd {
	case "/start", "/help":
		return helpText
	case "/joke":
		if len(args) == 0 {
			return b.load(viewmodel.LoadJoke{})
		}
		category, ok := models.CanonicalCategory(strings.Join(args, " "))
		if !ok {
			return "Unknown category. Use one of: " + categoryList()
		}
		if category == models.CategoryAny {
			return b.load(viewmodel.LoadJoke{})
		}
		return b.load(viewmodel.LoadJokeByCategory{Category: category})
	case "/refresh":
		return b.load(viewmodel.RefreshJoke{})
	case "/save":
		return b.save()
	case "/favorites":
		return formatFavorites(b.favorites())
	case "/remove":
		return b.remove(args)
	default:
		return "Use /joke to get a joke!"
	}
}

func (b *Bot) load(ev viewmodel.Event) string {
	b.ctrl.Handle(viewmodel.ClearError{})
	b.ctrl.Handle(ev)
	b.ctrl.Wait()
	return formatState(b.ctrl.State())
}

func (b *Bot) save() string {
	b.ctrl.Wait()
	joke := b.ctrl.State().Joke
	if joke == nil {
		return "Nothing to save yet. Use /joke first."
	}
	b.ctrl.Handle(viewmodel.SaveFavoriteJoke{})
	b.ctrl.Wait()
	if !models.ContainsID(b.ctrl.State().FavoriteJokes, joke.ID) {
		return "Could not save the joke. Please try again later."
	}
	return fmt.Sprintf("Saved joke #%d to favorites.", joke.ID)
}

func (b *Bot) remove(args []string) string {
	if len(args) != 1 {
		return "Usage: /remove <id>"
	}
	id, err := strconv.Atoi(strings.TrimPrefix(args[0], "#"))
	if err != nil {
		return "Joke id must be a number. Usage: /remove <id>"
	}

	for _, j := range b.favorites() {
		if j.ID != id {
			continue
		}
		b.ctrl.Handle(viewmodel.RemoveFromFavorites{Joke: j})
		b.ctrl.Wait()
		if models.ContainsID(b.ctrl.State().FavoriteJokes, id) {
			return "Could not remove the joke. Please try again later."
		}
		return fmt.Sprintf("Removed joke #%d from favorites.", id)
	}
	return fmt.Sprintf("Joke #%d is not in your favorites.", id)
}

// favorites returns the list as currently stored. Other front ends share the
// store, so the controller's copy may be out of date.
func (b *Bot) favorites() []models.Joke {
	b.ctrl.Wait()
	b.ctrl.ReloadFavorites()
	b.ctrl.Wait()
	return b.ctrl.State().FavoriteJokes
}

// SyncFavorites reloads favorites after a change made by another front end.
func (b *Bot) SyncFavorites() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.favorites()
}

func (b *Bot) sendOptions() *telebot.SendOptions {
	return &telebot.SendOptions{ParseMode: telebot.ParseMode(b.cfg.ParseMode)}
}

func (b *Bot) reply(c telebot.Context, text string) error {
	return c.Send(text, b.sendOptions())
}

// Notify tells the owner chat about a favorites change made elsewhere.
func (b *Bot) Notify(ev *queue.FavoriteEvent) error {
	if b.tbot == nil {
		return errors.New("bot is not started")
	}
	return b.sendMessageWithRetry(b.cfg.OwnerChatID, formatEvent(ev))
}

func (b *Bot) sendMessageWithRetry(chatID int64, text string) error {
	maxRetries := 3
	retryDelay := time.Second

	for i := 0; i < maxRetries; i++ {
		_, err := b.tbot.Send(&telebot.Chat{ID: chatID}, text, b.sendOptions())

		if err != nil {
			errStr := err.Error()
			if strings.Contains(errStr, "Too Many Requests") || strings.Contains(errStr, "rate") {
				logger.Warn("Rate limited, retrying...",
					logger.Int("retry", i+1),
					logger.Int("max_retries", maxRetries),
				)
				time.Sleep(retryDelay)
				retryDelay *= 2
				continue
			}
			return fmt.Errorf("failed to send message: %w", err)
		}
		return nil
	}

	return ErrRateLimited
}
