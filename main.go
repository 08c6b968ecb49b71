package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	app "github.com/rocketscienceinc/toguzkorgool-backend/internal"
	"github.com/rocketscienceinc/toguzkorgool-backend/internal/config"
)

// main - is the entry point of the application. It initializes the configuration, logger, and runs the application.
func main() {
	defer func() {
		if err := recover(); err != nil {
			fmt.Fprintf(os.Stderr, "recovered from panic: %v\n", err)
			os.Exit(1)
		}
	}()

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:          "toguz",
		Short:        "Toguz Korgool game server",
		SilenceUsage: true,
		RunE: func(_ *cobra.Command, _ []string) error {
			conf := config.MustLoad(configPath)
			logger := initLogger(conf)

			if err := app.RunApp(logger, conf); err != nil {
				return fmt.Errorf("app run failed: %w", err)
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "./config.yml", "path to the config file")

	return cmd
}

// initialize logger.
func initLogger(conf *config.Config) *slog.Logger {
	var level slog.Level

	switch conf.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}
