package main

import (
	"os"

	"github.com/dkeye/Consult/internal/config"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var configFlag string

	rootCmd := &cobra.Command{
		Use:           "consult",
		Short:         "Two-party consultation session coordinator",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path (default config/config.$CONFIG_ENV.yaml)")

	loadConfig := func() (*config.Config, error) {
		cfg, err := config.Load(configFlag)
		if err != nil {
			return nil, err
		}
		setupLogger(cfg)
		return cfg, nil
	}

	serve := newServeCommand(loadConfig)
	rootCmd.AddCommand(serve)
	rootCmd.AddCommand(newTokenCommand(loadConfig))
	rootCmd.RunE = serve.RunE

	return rootCmd
}

// setupLogger configures the global zerolog logger. Output is human readable
// in debug mode or on a terminal, JSON otherwise.
func setupLogger(cfg *config.Config) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if cfg.Mode == "debug" || isatty.IsTerminal(os.Stderr.Fd()) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
}
