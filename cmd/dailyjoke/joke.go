package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"daily-joke/internal/models"
	"daily-joke/internal/repository"
	"daily-joke/pkg/logger"
)

type jokeOptions struct {
	category string
	id       int
	byID     bool
	json     bool
}

func newJokeCmd() *cobra.Command {
	var opts jokeOptions
	cmd := &cobra.Command{
		Use:   "joke",
		Short: "Print one joke and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts.byID = cmd.Flags().Changed("id")
			if opts.byID && opts.category != "" {
				return fmt.Errorf("--category and --id are mutually exclusive")
			}
			return runJoke(cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.category, "category", "", "joke category ("+categoryHelp()+")")
	cmd.Flags().IntVar(&opts.id, "id", 0, "fetch the joke with this id")
	cmd.Flags().BoolVar(&opts.json, "json", false, "print the joke as JSON")
	return cmd
}

func categoryHelp() string {
	out := models.CategoryAny
	for _, c := range models.Categories {
		out += ", " + c
	}
	return out
}

func runJoke(cmd *cobra.Command, opts jokeOptions) error {
	ctx := cmd.Context()
	a, err := setup(ctx, os.Stderr, "cli")
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.Close(); cerr != nil {
			logger.Error("Failed to release resources", logger.Err(cerr))
		}
	}()

	res, err := fetchJoke(cmd, a.Repository, opts)
	if err != nil {
		return err
	}

	if opts.json {
		return printJSON(cmd.OutOrStdout(), res)
	}
	printJoke(cmd.OutOrStdout(), res)
	return nil
}

func fetchJoke(cmd *cobra.Command, repo *repository.Repository, opts jokeOptions) (models.Joke, error) {
	ctx := cmd.Context()
	var ch <-chan models.Result[models.Joke]
	switch {
	case opts.byID:
		ch = repo.JokeByID(ctx, opts.id)
	case opts.category != "":
		category, ok := models.CanonicalCategory(opts.category)
		if !ok {
			return models.Joke{}, fmt.Errorf("unknown category %q (use one of: %s)", opts.category, categoryHelp())
		}
		ch = repo.JokeByCategory(ctx, category)
	default:
		ch = repo.RandomJoke(ctx)
	}

	res := repository.Await(ch)
	if res.Status != models.StatusSuccess {
		return models.Joke{}, res.Err
	}
	return res.Data, nil
}
