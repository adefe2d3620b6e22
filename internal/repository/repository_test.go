package repository

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"daily-joke/internal/config"
	"daily-joke/internal/favorites"
	"daily-joke/internal/jokeapi"
	"daily-joke/internal/models"
	"daily-joke/internal/queue"
	"daily-joke/pkg/logger"
)

const twoPartBody = `{"error":false,"type":"twopart","setup":"S","delivery":"D","category":"Programming","id":1,"safe":true,"lang":"en"}`

func newTestRepo(t *testing.T, handler http.HandlerFunc, opts ...Option) (*Repository, *favorites.Store) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := jokeapi.New(config.APIConfig{Type: "twopart", SafeMode: true, Lang: "en", Timeout: 5 * time.Second},
		jokeapi.WithBaseURL(srv.URL))
	store := favorites.NewStore(favorites.NewMemoryBackend(), favorites.WithLogger(logger.Discard()))
	opts = append([]Option{WithLogger(logger.Discard())}, opts...)
	return New(client, store, opts...), store
}

func collect(t *testing.T, ch <-chan models.Result[models.Joke]) []models.Result[models.Joke] {
	t.Helper()
	var out []models.Result[models.Joke]
	timeout := time.After(5 * time.Second)
	for {
		select {
		case res, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, res)
		case <-timeout:
			t.Fatal("result stream did not complete")
			return nil
		}
	}
}

func TestRandomJokeSuccessSequence(t *testing.T) {
	var gotPath, gotQuery string
	repo, _ := newTestRepo(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Write([]byte(twoPartBody))
	})

	results := collect(t, repo.RandomJoke(context.Background()))

	require.Len(t, results, 2)
	assert.Equal(t, models.StatusLoading, results[0].Status)
	assert.Equal(t, models.StatusSuccess, results[1].Status)
	assert.Equal(t, models.Joke{
		ID:        1,
		Category:  "Programming",
		Setup:     "S",
		Punchline: "D",
		Type:      models.JokeTypeTwoPart,
		Safe:      true,
		Lang:      "en",
	}, results[1].Data)

	assert.Equal(t, "/joke/Any", gotPath)
	assert.Equal(t, "lang=en&safe-mode=true&type=twopart", gotQuery)
}

func TestLoadingIsAvailableImmediately(t *testing.T) {
	release := make(chan struct{})
	repo, _ := newTestRepo(t, func(w http.ResponseWriter, r *http.Request) {
		<-release
		w.Write([]byte(twoPartBody))
	})

	ch := repo.RandomJoke(context.Background())
	select {
	case res := <-ch:
		assert.Equal(t, models.StatusLoading, res.Status)
	default:
		t.Fatal("Loading should be buffered before the call returns")
	}
	close(release)
	assert.Equal(t, models.StatusSuccess, Await(ch).Status)
}

func TestEachCallIsAFreshStream(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	repo, _ := newTestRepo(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		mu.Unlock()
		w.Write([]byte(twoPartBody))
	})

	a := collect(t, repo.RandomJoke(context.Background()))
	b := collect(t, repo.RandomJoke(context.Background()))
	assert.Len(t, a, 2)
	assert.Len(t, b, 2)
	assert.Equal(t, 2, calls)
}

func TestJokeByCategoryAndID(t *testing.T) {
	var paths []string
	var mu sync.Mutex
	repo, _ := newTestRepo(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.URL.Path+"?"+r.URL.RawQuery)
		mu.Unlock()
		w.Write([]byte(`{"error":false,"type":"single","joke":"J","category":"Pun","id":33,"safe":true,"lang":"en"}`))
	})

	byCat := Await(repo.JokeByCategory(context.Background(), "Pun"))
	require.Equal(t, models.StatusSuccess, byCat.Status)
	assert.Equal(t, models.JokeTypeSingle, byCat.Data.Type)
	assert.Equal(t, "", byCat.Data.Punchline)

	byID := Await(repo.JokeByID(context.Background(), 33))
	require.Equal(t, models.StatusSuccess, byID.Status)
	assert.Equal(t, 33, byID.Data.ID)

	assert.Equal(t, []string{
		"/joke/Pun?lang=en&safe-mode=true&type=twopart",
		"/joke/Any?idRange=33",
	}, paths)
}

func TestConnectivityFault(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	deadURL := srv.URL
	srv.Close()

	client := jokeapi.New(config.APIConfig{Timeout: time.Second}, jokeapi.WithBaseURL(deadURL))
	store := favorites.NewStore(favorites.NewMemoryBackend())
	repo := New(client, store, WithLogger(logger.Discard()))

	results := collect(t, repo.RandomJoke(context.Background()))
	require.Len(t, results, 2)
	assert.Equal(t, models.StatusLoading, results[0].Status)
	require.Equal(t, models.StatusError, results[1].Status)

	var netErr *NetworkError
	require.ErrorAs(t, results[1].Err, &netErr)
	assert.Equal(t, "Network error. Please check your connection.", results[1].Err.Error())
}

func TestHTTP500(t *testing.T) {
	repo, _ := newTestRepo(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	res := Await(repo.RandomJoke(context.Background()))
	var netErr *NetworkError
	require.ErrorAs(t, res.Err, &netErr)
	assert.Equal(t, 500, netErr.StatusCode)
}

func TestAPIErrorFlag(t *testing.T) {
	repo, _ := newTestRepo(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":true,"message":"No matching joke found","causedBy":["a","b"]}`))
	})

	res := Await(repo.RandomJoke(context.Background()))
	var apiErr *APIError
	require.ErrorAs(t, res.Err, &apiErr)
	assert.Equal(t, "No matching joke found", apiErr.Message)
	assert.Equal(t, []string{"a", "b"}, apiErr.Details)
	assert.Equal(t, "a; b", apiErr.Detail())
}

func TestUnknownJokeType(t *testing.T) {
	repo, _ := newTestRepo(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":false,"type":"riddle","setup":"S","delivery":"D","id":4}`))
	})

	res := Await(repo.RandomJoke(context.Background()))
	assert.Equal(t, models.StatusError, res.Status)
	var typeErr *UnrecognizedTypeError
	require.ErrorAs(t, res.Err, &typeErr)
	assert.Equal(t, "riddle", typeErr.Type)
}

func TestCancelledContextStillTerminates(t *testing.T) {
	repo, _ := newTestRepo(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	ctx, cancel := context.WithCancel(context.Background())
	ch := repo.RandomJoke(ctx)
	cancel()

	results := collect(t, ch)
	require.Len(t, results, 2)
	assert.Equal(t, models.StatusError, results[1].Status)
	assert.ErrorIs(t, results[1].Err, context.Canceled)
}

func TestSaveFavoriteTwice(t *testing.T) {
	repo, _ := newTestRepo(t, func(w http.ResponseWriter, r *http.Request) {})
	ctx := context.Background()
	j := models.Joke{ID: 1, Category: "Pun", Setup: "S", Type: models.JokeTypeSingle, Safe: true, Lang: "en"}

	require.NoError(t, repo.SaveFavorite(ctx, j))
	require.NoError(t, repo.SaveFavorite(ctx, j))

	list, err := repo.Favorites(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.Joke{j}, list)

	ok, err := repo.IsFavorite(ctx, 1)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRemoveMissingFavorite(t *testing.T) {
	repo, _ := newTestRepo(t, func(w http.ResponseWriter, r *http.Request) {})
	ctx := context.Background()
	j := models.Joke{ID: 1, Category: "Pun", Setup: "S", Type: models.JokeTypeSingle, Safe: true, Lang: "en"}
	require.NoError(t, repo.SaveFavorite(ctx, j))

	require.NoError(t, repo.RemoveFavorite(ctx, 42))

	list, err := repo.Favorites(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.Joke{j}, list)

	require.NoError(t, repo.RemoveFavorite(ctx, 1))
	ok, err := repo.IsFavorite(ctx, 1)
	require.NoError(t, err)
	assert.False(t, ok)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []*queue.FavoriteEvent
	err    error
}

func (p *recordingPublisher) PublishFavoriteEvent(_ context.Context, ev *queue.FavoriteEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func TestFavoriteEventsOnlyOnChange(t *testing.T) {
	pub := &recordingPublisher{}
	repo, _ := newTestRepo(t, func(w http.ResponseWriter, r *http.Request) {}, WithEventPublisher(pub), WithEventOrigin("tui"))
	ctx := context.Background()
	j := models.Joke{ID: 8, Setup: "S", Type: models.JokeTypeSingle}

	require.NoError(t, repo.SaveFavorite(ctx, j))
	require.NoError(t, repo.SaveFavorite(ctx, j))
	require.NoError(t, repo.RemoveFavorite(ctx, 8))
	require.NoError(t, repo.RemoveFavorite(ctx, 8))

	require.Len(t, pub.events, 2)
	assert.Equal(t, queue.ActionSaved, pub.events[0].Action)
	require.NotNil(t, pub.events[0].Joke)
	assert.Equal(t, j, *pub.events[0].Joke)
	assert.Equal(t, queue.ActionRemoved, pub.events[1].Action)
	assert.Equal(t, 8, pub.events[1].JokeID)
	assert.Equal(t, "tui", pub.events[0].Origin)
	assert.NotEqual(t, pub.events[0].ID, pub.events[1].ID)
}

func TestPublishFailureDoesNotFailSave(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("nats down")}
	repo, _ := newTestRepo(t, func(w http.ResponseWriter, r *http.Request) {}, WithEventPublisher(pub))

	assert.NoError(t, repo.SaveFavorite(context.Background(), models.Joke{ID: 1, Type: models.JokeTypeSingle}))
	ok, err := repo.IsFavorite(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, ok)
}
