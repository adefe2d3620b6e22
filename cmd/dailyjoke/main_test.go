package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"daily-joke/internal/models"
	"daily-joke/internal/queue"
)

type cliEnv struct {
	dir string

	mu       sync.Mutex
	requests []string
}

func (e *cliEnv) seen() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.requests...)
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	env := &cliEnv{dir: t.TempDir()}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		env.mu.Lock()
		env.requests = append(env.requests, r.URL.Path+"?"+r.URL.RawQuery)
		env.mu.Unlock()
		if r.URL.Query().Get("idRange") == "404" {
			w.Write([]byte(`{"error":true,"message":"No matching joke found","causedBy":["No jokes were found that match your provided filter(s)."]}`))
			return
		}
		w.Write([]byte(`{"error":false,"type":"twopart","setup":"Setup text","delivery":"Punch text","category":"Programming","id":5,"safe":true,"lang":"en"}`))
	}))
	t.Cleanup(srv.Close)

	t.Setenv("API_BASE_URL", srv.URL)
	t.Setenv("FAVORITES_BACKEND", "file")
	t.Setenv("FAVORITES_PATH", filepath.Join(env.dir, "favorites.json"))
	t.Setenv("NATS_ENABLED", "false")
	t.Setenv("APP_LOG_LEVEL", "error")
	return env
}

func (e *cliEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	configPath, logLevel = "", ""
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--config", filepath.Join(e.dir, "missing.yaml")}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestJokeCommandJSON(t *testing.T) {
	env := newCLIEnv(t)
	out, err := env.run(t, "joke", "--json")
	require.NoError(t, err)

	var j models.Joke
	require.NoError(t, json.Unmarshal([]byte(out), &j))
	assert.Equal(t, models.Joke{
		ID:        5,
		Category:  "Programming",
		Setup:     "Setup text",
		Punchline: "Punch text",
		Type:      models.JokeTypeTwoPart,
		Safe:      true,
		Lang:      "en",
	}, j)
	assert.Equal(t, []string{"/joke/Any?lang=en&safe-mode=true&type=twopart"}, env.seen())
}

func TestJokeCommandText(t *testing.T) {
	env := newCLIEnv(t)
	out, err := env.run(t, "joke", "--category", "programming")
	require.NoError(t, err)
	assert.Equal(t, "#5 [Programming]\n\nSetup text\n\nPunch text\n", out)
	assert.True(t, strings.HasPrefix(env.seen()[0], "/joke/Programming?"))
}

func TestJokeCommandByID(t *testing.T) {
	env := newCLIEnv(t)
	_, err := env.run(t, "joke", "--id", "0")
	require.NoError(t, err)
	assert.Equal(t, []string{"/joke/Any?idRange=0"}, env.seen())
}

func TestJokeCommandErrors(t *testing.T) {
	env := newCLIEnv(t)

	_, err := env.run(t, "joke", "--id", "1", "--category", "Pun")
	assert.ErrorContains(t, err, "mutually exclusive")

	_, err = env.run(t, "joke", "--category", "knock-knock")
	assert.ErrorContains(t, err, "unknown category")

	_, err = env.run(t, "joke", "--id", "404")
	assert.ErrorContains(t, err, "No matching joke found")
}

func TestFavoritesCommands(t *testing.T) {
	env := newCLIEnv(t)

	out, err := env.run(t, "favorites")
	require.NoError(t, err)
	assert.Equal(t, "No favorites yet.\n", out)

	out, err = env.run(t, "favorites", "list", "--json")
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, out)

	out, err = env.run(t, "favorites", "save", "5")
	require.NoError(t, err)
	assert.Contains(t, out, "Saved #5 [Programming]")

	_, err = env.run(t, "favorites", "save", "5")
	require.NoError(t, err)

	out, err = env.run(t, "favorites", "list", "--json")
	require.NoError(t, err)
	var list []models.Joke
	require.NoError(t, json.Unmarshal([]byte(out), &list))
	require.Len(t, list, 1)
	assert.Equal(t, 5, list[0].ID)

	out, err = env.run(t, "favorites", "remove", "7")
	require.NoError(t, err)
	assert.Equal(t, "Joke #7 is not in favorites.\n", out)

	out, err = env.run(t, "favorites", "remove", "5")
	require.NoError(t, err)
	assert.Equal(t, "Removed joke #5.\n", out)

	_, err = env.run(t, "favorites", "remove", "abc")
	assert.ErrorContains(t, err, "invalid joke id")
}

func TestWatchRequiresNATS(t *testing.T) {
	env := newCLIEnv(t)
	_, err := env.run(t, "watch")
	assert.ErrorContains(t, err, "NATS is not enabled")
}

func TestDescribeEvent(t *testing.T) {
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.Local)
	saved := &queue.FavoriteEvent{
		Action:     queue.ActionSaved,
		JokeID:     5,
		Joke:       &models.Joke{ID: 5, Category: "Pun", Setup: "s", Type: models.JokeTypeSingle},
		OccurredAt: at,
	}
	removed := &queue.FavoriteEvent{Action: queue.ActionRemoved, JokeID: 5, OccurredAt: at}

	assert.Equal(t, "2024-03-01 12:00:00 saved #5 [Pun] s", describeEvent(saved))
	assert.Equal(t, "2024-03-01 12:00:00 removed #5", describeEvent(removed))
}

func TestDefaultDurable(t *testing.T) {
	name := defaultDurable()
	assert.True(t, strings.HasPrefix(name, "dailyjoke-watch"))
	assert.NotContains(t, name, ".")
}
