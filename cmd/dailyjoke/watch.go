package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"daily-joke/internal/app"
	"daily-joke/internal/queue"
)

func newWatchCmd() *cobra.Command {
	var durable string
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print favorite change events as they arrive (requires NATS)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(a *app.App) error {
				if a.Events == nil {
					return errors.New("NATS is not enabled; set NATS_ENABLED=true")
				}
				out := cmd.OutOrStdout()
				err := a.Events.ConsumeFavoriteEvents(cmd.Context(), durable, func(ev *queue.FavoriteEvent) error {
					_, err := fmt.Fprintln(out, describeEvent(ev))
					return err
				})
				if err != nil && cmd.Context().Err() != nil {
					return nil
				}
				return err
			})
		},
	}
	cmd.Flags().StringVar(&durable, "durable", defaultDurable(), "durable consumer name")
	return cmd
}

// defaultDurable names the consumer after the host so each machine sees every event.
func defaultDurable() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		return "dailyjoke-watch"
	}
	return "dailyjoke-watch-" + durableReplacer.Replace(host)
}

// Durable names may not contain these.
var durableReplacer = strings.NewReplacer(".", "-", "*", "-", ">", "-", " ", "-")

func describeEvent(ev *queue.FavoriteEvent) string {
	ts := ev.OccurredAt.Local().Format("2006-01-02 15:04:05")
	if ev.Action == queue.ActionSaved && ev.Joke != nil {
		return fmt.Sprintf("%s %s %s", ts, ev.Action, ev.Joke)
	}
	return fmt.Sprintf("%s %s #%d", ts, ev.Action, ev.JokeID)
}
