// Package viewmodel owns the UI state and folds user events and repository
// results into it.
package viewmodel

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/sourcegraph/conc"

	"daily-joke/internal/models"
	"daily-joke/pkg/logger"
)

type Repository interface {
	RandomJoke(ctx context.Context) <-chan models.Result[models.Joke]
	JokeByCategory(ctx context.Context, category string) <-chan models.Result[models.Joke]
	SaveFavorite(ctx context.Context, joke models.Joke) error
	RemoveFavorite(ctx context.Context, id int) error
	Favorites(ctx context.Context) ([]models.Joke, error)
}

// Controller is the single owner of UiState. Handle never blocks on I/O;
// observers read State or Subscribe to snapshots.
type Controller struct {
	repo Repository
	log  *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     conc.WaitGroup

	// lifecycle is held shared while Handle schedules work and exclusively
	// by Close, so no work is scheduled once Close starts waiting.
	lifecycle sync.RWMutex
	closed    bool

	mu      sync.Mutex
	state   UiState
	subs    map[int]chan UiState
	nextSub int
}

type Option func(*Controller)

func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		c.log = l
	}
}

// New builds a controller and starts the initial joke and favorites loads.
func New(ctx context.Context, repo Repository, opts ...Option) *Controller {
	c := newController(ctx, repo, opts...)
	c.Handle(LoadJoke{})
	c.wg.Go(c.reloadFavorites)
	return c
}

func newController(ctx context.Context, repo Repository, opts ...Option) *Controller {
	ctx, cancel := context.WithCancel(ctx)
	c := &Controller{
		repo:   repo,
		log:    logger.Log,
		ctx:    ctx,
		cancel: cancel,
		subs:   make(map[int]chan UiState),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller) Handle(ev Event) {
	c.lifecycle.RLock()
	defer c.lifecycle.RUnlock()
	if c.closed {
		return
	}

	switch ev := ev.(type) {
	case LoadJoke:
		c.update(func(s UiState) UiState {
			s.IsLoading = true
			return s
		})
		c.load(func(ctx context.Context) <-chan models.Result[models.Joke] {
			return c.repo.RandomJoke(ctx)
		})
	case RefreshJoke:
		c.update(func(s UiState) UiState {
			s.IsLoading = true
			s.IsRefreshing = true
			return s
		})
		c.load(func(ctx context.Context) <-chan models.Result[models.Joke] {
			return c.repo.RandomJoke(ctx)
		})
	case LoadJokeByCategory:
		c.load(func(ctx context.Context) <-chan models.Result[models.Joke] {
			return c.repo.JokeByCategory(ctx, ev.Category)
		})
	case ClearError:
		c.update(func(s UiState) UiState {
			s.ErrorMessage = ""
			return s
		})
	case SaveFavoriteJoke:
		joke := c.State().Joke
		if joke == nil {
			return
		}
		c.wg.Go(func() {
			if err := c.repo.SaveFavorite(c.ctx, *joke); err != nil {
				c.log.Error("Failed to save favorite", logger.Err(err), logger.JokeID(joke.ID))
				return
			}
			c.reloadFavorites()
		})
	case RemoveFromFavorites:
		id := ev.Joke.ID
		c.wg.Go(func() {
			if err := c.repo.RemoveFavorite(c.ctx, id); err != nil {
				c.log.Error("Failed to remove favorite", logger.Err(err), logger.JokeID(id))
				return
			}
			c.reloadFavorites()
		})
	default:
		c.log.Warn("Unhandled event", logger.String("event", fmt.Sprintf("%T", ev)))
	}
}

// load folds every emission of one fetch into the state.
func (c *Controller) load(start func(ctx context.Context) <-chan models.Result[models.Joke]) {
	ch := start(c.ctx)
	c.wg.Go(func() {
		for res := range ch {
			c.update(func(s UiState) UiState {
				return fold(s, res)
			})
		}
	})
}

// ReloadFavorites re-reads the favorites list from the store. Use it when
// another process may have changed the store; Wait blocks until it is done.
func (c *Controller) ReloadFavorites() {
	c.lifecycle.RLock()
	defer c.lifecycle.RUnlock()
	if c.closed {
		return
	}
	c.wg.Go(c.reloadFavorites)
}

func (c *Controller) reloadFavorites() {
	list, err := c.repo.Favorites(c.ctx)
	if err != nil {
		c.log.Error("Failed to load favorites", logger.Err(err))
		return
	}
	c.update(func(s UiState) UiState {
		s.FavoriteJokes = list
		return s
	})
}

// update replaces the state with fn applied to a private copy and notifies
// subscribers.
func (c *Controller) update(fn func(UiState) UiState) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state = fn(c.state.clone())
	for _, ch := range c.subs {
		offer(ch, c.state.clone())
	}
}

// offer replaces whatever snapshot is pending on ch with s.
func offer(ch chan UiState, s UiState) {
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- s:
	default:
	}
}

// State returns a copy of the current state.
func (c *Controller) State() UiState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

// Subscribe returns a channel that always holds the most recent snapshot not
// yet received, starting with the current one. Intermediate snapshots may be
// skipped. The returned func unsubscribes and closes the channel.
func (c *Controller) Subscribe() (<-chan UiState, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch := make(chan UiState, 1)
	ch <- c.state.clone()
	if c.subs == nil {
		close(ch)
		return ch, func() {}
	}

	id := c.nextSub
	c.nextSub++
	c.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			if _, ok := c.subs[id]; ok {
				delete(c.subs, id)
				close(ch)
			}
		})
	}
}

// Wait blocks until all in-flight loads and favorites operations have finished.
func (c *Controller) Wait() {
	c.wg.Wait()
}

// Close cancels in-flight work, waits for it and closes all subscriptions.
// Events handled after Close are ignored.
func (c *Controller) Close() {
	c.lifecycle.Lock()
	if c.closed {
		c.lifecycle.Unlock()
		return
	}
	c.closed = true
	c.lifecycle.Unlock()

	c.cancel()
	c.wg.Wait()

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, ch := range c.subs {
		close(ch)
	}
	c.subs = nil
}
