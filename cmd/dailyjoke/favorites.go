package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"daily-joke/internal/app"
	"daily-joke/internal/models"
	"daily-joke/pkg/logger"
)

func newFavoritesCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "favorites",
		Short: "List or edit saved jokes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runFavoritesList(cmd, asJSON)
		},
	}
	cmd.PersistentFlags().BoolVar(&asJSON, "json", false, "print JSON")

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List saved jokes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runFavoritesList(cmd, asJSON)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "save ID",
		Short: "Fetch the joke with ID and save it",
		Args:  cobra.ExactArgs(1),
		RunE:  runFavoritesSave,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "remove ID",
		Short: "Remove the joke with ID from favorites",
		Args:  cobra.ExactArgs(1),
		RunE:  runFavoritesRemove,
	})

	return cmd
}

func withApp(cmd *cobra.Command, fn func(a *app.App) error) error {
	a, err := setup(cmd.Context(), os.Stderr, "cli")
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.Close(); cerr != nil {
			logger.Error("Failed to release resources", logger.Err(cerr))
		}
	}()
	return fn(a)
}

func parseID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id < 0 {
		return 0, fmt.Errorf("invalid joke id %q", s)
	}
	return id, nil
}

func runFavoritesList(cmd *cobra.Command, asJSON bool) error {
	return withApp(cmd, func(a *app.App) error {
		list, err := a.Repository.Favorites(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to read favorites: %w", err)
		}
		out := cmd.OutOrStdout()
		if asJSON {
			if list == nil {
				list = []models.Joke{}
			}
			return printJSON(out, list)
		}
		if len(list) == 0 {
			fmt.Fprintln(out, "No favorites yet.")
			return nil
		}
		for _, j := range list {
			fmt.Fprintln(out, j.String())
		}
		return nil
	})
}

func runFavoritesSave(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	return withApp(cmd, func(a *app.App) error {
		joke, err := fetchJoke(cmd, a.Repository, jokeOptions{id: id, byID: true})
		if err != nil {
			return err
		}
		if err := a.Repository.SaveFavorite(cmd.Context(), joke); err != nil {
			return fmt.Errorf("failed to save favorite: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Saved %s\n", joke)
		return nil
	})
}

func runFavoritesRemove(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	return withApp(cmd, func(a *app.App) error {
		ok, err := a.Repository.IsFavorite(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("failed to read favorites: %w", err)
		}
		if !ok {
			fmt.Fprintf(cmd.OutOrStdout(), "Joke #%d is not in favorites.\n", id)
			return nil
		}
		if err := a.Repository.RemoveFavorite(cmd.Context(), id); err != nil {
			return fmt.Errorf("failed to remove favorite: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed joke #%d.\n", id)
		return nil
	})
}
