package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"daily-joke/internal/config"
	"daily-joke/internal/models"
	"daily-joke/pkg/logger"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

const (
	SubjectPrefix   = "favorites."
	SavedSubject    = "favorites.saved"
	RemovedSubject  = "favorites.removed"
	AllSubjects     = "favorites.>"
	DefaultConsumer = "daily-joke"
)

type Action string

const (
	ActionSaved   Action = "saved"
	ActionRemoved Action = "removed"
)

func (a Action) Subject() string {
	return SubjectPrefix + string(a)
}

// FavoriteEvent records a change to the favorites list. Joke is only set
// for saves; removals carry JokeID alone. Origin names the front end that
// made the change.
type FavoriteEvent struct {
	ID         string       `json:"id"`
	Action     Action       `json:"action"`
	JokeID     int          `json:"joke_id"`
	Joke       *models.Joke `json:"joke,omitempty"`
	Origin     string       `json:"origin,omitempty"`
	OccurredAt time.Time    `json:"occurred_at"`
}

func NewFavoriteEvent(action Action, jokeID int, joke *models.Joke) *FavoriteEvent {
	return &FavoriteEvent{
		ID:         uuid.NewString(),
		Action:     action,
		JokeID:     jokeID,
		Joke:       joke,
		OccurredAt: time.Now().UTC(),
	}
}

type NATS struct {
	conn      *nats.Conn
	jetstream nats.JetStreamContext
	cfg       config.NATSConfig
}

func New(cfg config.NATSConfig) (*NATS, error) {
	conn, err := nats.Connect(cfg.URL, nats.Name("daily-joke"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to get JetStream: %w", err)
	}

	n := &NATS{
		conn:      conn,
		jetstream: js,
		cfg:       cfg,
	}

	if err := n.ensureStream(); err != nil {
		conn.Close()
		return nil, err
	}

	return n, nil
}

func (n *NATS) ensureStream() error {
	_, err := n.jetstream.StreamInfo(n.cfg.StreamName)
	if err == nil {
		return nil
	}
	if !errors.Is(err, nats.ErrStreamNotFound) {
		return fmt.Errorf("failed to look up stream %s: %w", n.cfg.StreamName, err)
	}

	_, err = n.jetstream.AddStream(&nats.StreamConfig{
		Name:     n.cfg.StreamName,
		Subjects: []string{AllSubjects},
		MaxAge:   7 * 24 * time.Hour,
	})
	if err != nil {
		return fmt.Errorf("failed to create stream %s: %w", n.cfg.StreamName, err)
	}
	logger.Info("Created JetStream stream", logger.String("stream", n.cfg.StreamName))
	return nil
}

func (n *NATS) Close() {
	if n.conn != nil {
		n.conn.Close()
	}
}

func (n *NATS) PublishFavoriteEvent(ctx context.Context, ev *FavoriteEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal favorite event: %w", err)
	}

	// The event id doubles as the JetStream dedup id.
	_, err = n.jetstream.Publish(ev.Action.Subject(), data, nats.Context(ctx), nats.MsgId(ev.ID))
	if err != nil {
		return fmt.Errorf("failed to publish favorite event: %w", err)
	}

	logger.Debug("Favorite event published",
		logger.String("action", string(ev.Action)),
		logger.JokeID(ev.JokeID),
	)

	return nil
}

// ConsumeFavoriteEvents pulls events with the given durable name until ctx is
// done. A handler error naks the message for redelivery.
func (n *NATS) ConsumeFavoriteEvents(ctx context.Context, durable string, handler func(*FavoriteEvent) error) error {
	if durable == "" {
		durable = DefaultConsumer
	}
	sub, err := n.jetstream.PullSubscribe(
		AllSubjects,
		durable,
		nats.BindStream(n.cfg.StreamName),
	)
	if err != nil {
		return fmt.Errorf("failed to subscribe to favorite events: %w", err)
	}
	defer sub.Unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			msgs, err := sub.Fetch(10, nats.MaxWait(500*time.Millisecond))
			if err != nil {
				if errors.Is(err, nats.ErrTimeout) {
					continue
				}
				return fmt.Errorf("failed to fetch messages: %w", err)
			}

			for _, msg := range msgs {
				ev, err := DecodeFavoriteEvent(msg.Data)
				if err != nil {
					logger.Error("Failed to unmarshal favorite event",
						logger.Err(err),
					)
					// Redelivery will not fix a bad payload.
					msg.Term()
					continue
				}

				if err := handler(ev); err != nil {
					logger.Error("Failed to process favorite event",
						logger.Err(err),
						logger.String("event_id", ev.ID),
					)
					msg.Nak()
					continue
				}

				msg.Ack()
			}
		}
	}
}

func DecodeFavoriteEvent(data []byte) (*FavoriteEvent, error) {
	var ev FavoriteEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	if ev.Action != ActionSaved && ev.Action != ActionRemoved {
		return nil, fmt.Errorf("unknown favorite action %q", ev.Action)
	}
	return &ev, nil
}
