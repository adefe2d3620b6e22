// Package favorites persists the user's favorite jokes as a single JSON array
// under one key of a key-value backend.
package favorites

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"daily-joke/internal/models"
	"daily-joke/pkg/logger"
)

// ErrNotFound is returned by a Backend when the key holds no value.
var ErrNotFound = errors.New("favorites key not found")

// Backend stores one opaque value per key. Put must replace the value atomically.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
}

const DefaultKey = "favorite_jokes"

type Store struct {
	mu      sync.Mutex
	backend Backend
	key     string
	log     *slog.Logger
}

type Option func(*Store)

func WithKey(key string) Option {
	return func(s *Store) {
		if key != "" {
			s.key = key
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		s.log = l
	}
}

func NewStore(backend Backend, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		key:     DefaultKey,
		log:     logger.Log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the stored list. An absent or unparsable payload yields an
// empty list; only backend failures are returned as errors.
func (s *Store) Get(ctx context.Context) ([]models.Joke, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read(ctx)
}

// Put overwrites the stored list.
func (s *Store) Put(ctx context.Context, list []models.Joke) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(ctx, list)
}

// Save appends joke unless a joke with the same ID is stored. It reports
// whether the stored list changed.
func (s *Store) Save(ctx context.Context, joke models.Joke) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.read(ctx)
	if err != nil {
		return false, err
	}
	if models.ContainsID(list, joke.ID) {
		return false, nil
	}
	if err := s.write(ctx, append(list, joke)); err != nil {
		return false, err
	}
	return true, nil
}

// Remove drops every joke with the given ID. Removing an absent ID is a no-op.
func (s *Store) Remove(ctx context.Context, id int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.read(ctx)
	if err != nil {
		return false, err
	}
	kept := list[:0]
	for _, j := range list {
		if j.ID != id {
			kept = append(kept, j)
		}
	}
	if len(kept) == len(list) {
		return false, nil
	}
	if err := s.write(ctx, kept); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) Contains(ctx context.Context, id int) (bool, error) {
	list, err := s.Get(ctx)
	if err != nil {
		return false, err
	}
	return models.ContainsID(list, id), nil
}

func (s *Store) read(ctx context.Context) ([]models.Joke, error) {
	data, err := s.backend.Get(ctx, s.key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return []models.Joke{}, nil
		}
		return nil, fmt.Errorf("failed to read favorites: %w", err)
	}

	list, err := decode(data)
	if err != nil {
		s.log.Warn("Discarding unreadable favorites payload",
			logger.String("key", s.key),
			logger.Err(err),
		)
		return []models.Joke{}, nil
	}
	return list, nil
}

func (s *Store) write(ctx context.Context, list []models.Joke) error {
	data, err := encode(list)
	if err != nil {
		return fmt.Errorf("failed to encode favorites: %w", err)
	}
	if err := s.backend.Put(ctx, s.key, data); err != nil {
		return fmt.Errorf("failed to write favorites: %w", err)
	}
	return nil
}
