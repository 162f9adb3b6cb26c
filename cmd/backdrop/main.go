package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/lakowske/backdrop/internal/config"
)

func main() {
	root := buildRoot()
	if err := root.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "✗", err)
		os.Exit(1)
	}
}

// buildRoot creates the root command and wires all subcommands.
func buildRoot() *cobra.Command {
	globalFlags := &GlobalFlags{}
	startFlags := &StartFlags{}
	stopFlags := &StopFlags{}
	restartFlags := &RestartFlags{}
	statusFlags := &StatusFlags{}
	logsFlags := &LogsFlags{}
	metricsFlags := &MetricsFlags{}

	root := createRootCommand(globalFlags)

	root.AddCommand(
		createStartCommand(globalFlags, startFlags),
		createStopCommand(globalFlags, stopFlags),
		createStopAllCommand(globalFlags, stopFlags),
		createRestartCommand(globalFlags, restartFlags),
		createStatusCommand(globalFlags, statusFlags),
		createLogsCommand(globalFlags, logsFlags),
		createMetricsCommand(globalFlags, metricsFlags),
	)

	return root
}

func createRootCommand(flags *GlobalFlags) *cobra.Command {
	root := &cobra.Command{
		Use:   "backdrop",
		Short: "Run servers in the background and manage them by name",
		Long: `Backdrop starts long-running commands detached from the terminal,
captures their output to log files, and lets you stop, restart,
inspect and tail them by name across invocations.

Examples:
  backdrop start "python -m http.server 8000" --name web
  backdrop status
  backdrop logs web --follow
  backdrop stop web`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&flags.ConfigPath, "config", "", "path to TOML config file (optional)")

	return root
}

// loadConfig resolves the config path and builds the runtime configuration,
// installing the configured slog handler as the process default.
func loadConfig(flags *GlobalFlags) (config.Config, error) {
	path := flags.ConfigPath
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}
	setDefaultLogger(cfg)
	return cfg, nil
}

func setDefaultLogger(cfg config.Config) {
	slog.SetDefault(cfg.Log.NewSlogger())
}
