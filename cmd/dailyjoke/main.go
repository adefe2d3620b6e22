// Package main provides the CLI entrypoint for daily-joke.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"daily-joke/internal/app"
	"daily-joke/internal/config"
	"daily-joke/internal/models"
	"daily-joke/internal/tui"
	"daily-joke/pkg/logger"
)

var (
	configPath string
	logLevel   string
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := newRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "dailyjoke",
		Short:         "Fetch, read and collect jokes",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runTUICmd,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: $CONFIG_PATH or XDG config dir)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log level (debug, info, warn, error)")

	rootCmd.AddCommand(newJokeCmd())
	rootCmd.AddCommand(newFavoritesCmd())
	rootCmd.AddCommand(newWatchCmd())

	return rootCmd
}

func loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if logLevel != "" {
		cfg.App.LogLevel = logLevel
	}
	return cfg, nil
}

// setup loads config, initializes logging to w and builds the app. origin
// tags the favorite events this process publishes.
func setup(ctx context.Context, w io.Writer, origin string) (*app.App, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger.Init(logger.Options{Level: cfg.App.LogLevel, Format: cfg.App.LogFormat, Writer: w})

	a, err := app.New(ctx, cfg, app.WithOrigin(origin))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize: %w", err)
	}
	return a, nil
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

func runTUICmd(cmd *cobra.Command, _ []string) error {
	if !isTerminal(os.Stdin) || !isTerminal(os.Stdout) {
		return runJoke(cmd, jokeOptions{})
	}

	logFile, err := openLogFile()
	if err != nil {
		return err
	}
	defer logFile.Close()

	a, err := setup(cmd.Context(), logFile, "tui")
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.Close(); cerr != nil {
			logger.Error("Failed to release resources", logger.Err(cerr))
		}
	}()

	ctrl := a.NewController(cmd.Context())
	defer ctrl.Close()

	model := tui.NewModel(ctrl)
	defer model.Close()

	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

// openLogFile keeps log output away from the terminal the TUI draws on.
func openLogFile() (*os.File, error) {
	path := config.DefaultLogPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return f, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printJoke(w io.Writer, j models.Joke) {
	fmt.Fprintf(w, "#%d [%s]\n\n%s\n", j.ID, j.Category, j.Text())
}
