package main

import (
	"os"

	"churn-profit/internal/common"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var version = "dev"

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profitcurve",
		Short: "Pick the most profitable churn classifier and decision threshold",
		Long: `profitcurve fits candidate churn classifiers, sweeps every distinguishing
probability threshold on a held-out set and prices each confusion matrix with
a cost-benefit matrix. The model and threshold with the highest expected
profit per customer win.

Configuration comes from CONFIG_FILE (YAML) or the environment; a .env file
in the working directory is loaded first when present.`,
		Version:      version,
		SilenceUsage: true,
	}

	logLevel := cmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error (default from LOG_LEVEL)")
	cmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		setupLogging(*logLevel)
	}

	cmd.AddCommand(newEvaluateCommand())
	cmd.AddCommand(newRunsCommand())
	cmd.AddCommand(newServeCommand())

	return cmd
}

func setupLogging(level string) {
	if level == "" {
		level = os.Getenv(common.EnvLogLevel)
	}
	parsed, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		parsed = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(parsed)
	noColor := !isatty.IsTerminal(os.Stderr.Fd()) && !isatty.IsCygwinTerminal(os.Stderr.Fd())
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, NoColor: noColor})
}

func execute() error {
	return newRootCommand().Execute()
}
