// Package repository turns joke API calls into Loading/Success/Error result
// streams and fronts the favorites store.
package repository

import (
	"context"
	"log/slog"

	"daily-joke/internal/jokeapi"
	"daily-joke/internal/models"
	"daily-joke/internal/queue"
	"daily-joke/pkg/logger"
)

type Source interface {
	Fetch(ctx context.Context, q jokeapi.Query) (*jokeapi.Response, error)
}

type FavoritesStore interface {
	Get(ctx context.Context) ([]models.Joke, error)
	Save(ctx context.Context, joke models.Joke) (bool, error)
	Remove(ctx context.Context, id int) (bool, error)
	Contains(ctx context.Context, id int) (bool, error)
}

type EventPublisher interface {
	PublishFavoriteEvent(ctx context.Context, ev *queue.FavoriteEvent) error
}

type Repository struct {
	source    Source
	favorites FavoritesStore
	events    EventPublisher
	origin    string
	log       *slog.Logger
}

type Option func(*Repository)

// WithEventPublisher announces favorite changes. Publish failures are logged only.
func WithEventPublisher(p EventPublisher) Option {
	return func(r *Repository) {
		r.events = p
	}
}

// WithEventOrigin tags published events with the name of the front end.
func WithEventOrigin(origin string) Option {
	return func(r *Repository) {
		r.origin = origin
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(r *Repository) {
		r.log = l
	}
}

func New(source Source, favorites FavoritesStore, opts ...Option) *Repository {
	r := &Repository{
		source:    source,
		favorites: favorites,
		log:       logger.Log,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Repository) RandomJoke(ctx context.Context) <-chan models.Result[models.Joke] {
	return r.fetch(ctx, jokeapi.Random())
}

func (r *Repository) JokeByCategory(ctx context.Context, category string) <-chan models.Result[models.Joke] {
	return r.fetch(ctx, jokeapi.ByCategory(category))
}

func (r *Repository) JokeByID(ctx context.Context, id int) <-chan models.Result[models.Joke] {
	return r.fetch(ctx, jokeapi.ByID(id))
}

// fetch returns a channel that already holds Loading, receives exactly one
// terminal result and is then closed. It never blocks the producer.
func (r *Repository) fetch(ctx context.Context, q jokeapi.Query) <-chan models.Result[models.Joke] {
	out := make(chan models.Result[models.Joke], 2)
	out <- models.Loading[models.Joke]()

	go func() {
		defer close(out)
		res := toResult(r.source.Fetch(ctx, q))
		if res.Status == models.StatusError {
			r.log.Warn("Joke fetch failed",
				logger.String("query", q.String()),
				logger.Err(res.Err),
			)
		} else {
			r.log.Debug("Joke fetched",
				logger.String("query", q.String()),
				logger.JokeID(res.Data.ID),
			)
		}
		out <- res
	}()

	return out
}

// Await drains a result stream and returns its terminal result.
func Await(ch <-chan models.Result[models.Joke]) models.Result[models.Joke] {
	last := models.Loading[models.Joke]()
	for res := range ch {
		last = res
	}
	return last
}

func (r *Repository) SaveFavorite(ctx context.Context, joke models.Joke) error {
	changed, err := r.favorites.Save(ctx, joke)
	if err != nil {
		return err
	}
	if changed {
		j := joke
		r.publish(ctx, queue.NewFavoriteEvent(queue.ActionSaved, joke.ID, &j))
	}
	return nil
}

func (r *Repository) RemoveFavorite(ctx context.Context, id int) error {
	changed, err := r.favorites.Remove(ctx, id)
	if err != nil {
		return err
	}
	if changed {
		r.publish(ctx, queue.NewFavoriteEvent(queue.ActionRemoved, id, nil))
	}
	return nil
}

func (r *Repository) Favorites(ctx context.Context) ([]models.Joke, error) {
	return r.favorites.Get(ctx)
}

func (r *Repository) IsFavorite(ctx context.Context, id int) (bool, error) {
	return r.favorites.Contains(ctx, id)
}

func (r *Repository) publish(ctx context.Context, ev *queue.FavoriteEvent) {
	if r.events == nil {
		return
	}
	ev.Origin = r.origin
	if err := r.events.PublishFavoriteEvent(ctx, ev); err != nil {
		r.log.Error("Failed to publish favorite event",
			logger.Err(err),
			logger.String("action", string(ev.Action)),
			logger.JokeID(ev.JokeID),
		)
	}
}
