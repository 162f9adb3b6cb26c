package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/lakowske/backdrop/internal/config"
	"github.com/lakowske/backdrop/internal/history"
	"github.com/lakowske/backdrop/internal/history/factory"
	"github.com/lakowske/backdrop/internal/manager"
	"github.com/lakowske/backdrop/internal/metrics"
	"github.com/lakowske/backdrop/internal/probe"
	"github.com/lakowske/backdrop/internal/tail"
)

// command binds one CLI invocation to a manager built from config.
type command struct {
	cfg  config.Config
	mgr  *manager.Manager
	sink history.Sink
}

func newCommand(cfg config.Config) *command {
	var sink history.Sink
	if cfg.HistoryDSN != "" {
		s, err := factory.NewSinkFromDSN(cfg.HistoryDSN)
		if err != nil {
			slog.Warn("history sink disabled", "dsn", cfg.HistoryDSN, "error", err)
		} else {
			sink = s
		}
	}
	return &command{cfg: cfg, mgr: manager.New(cfg, sink), sink: sink}
}

func (c *command) close() {
	if c.sink != nil {
		if err := c.sink.Close(); err != nil {
			slog.Warn("history sink close failed", "error", err)
		}
	}
}

// runWith builds the command context for a subcommand handler.
func runWith(globalFlags *GlobalFlags, fn func(c *command) error) func(*cobra.Command, []string) error {
	return func(_ *cobra.Command, _ []string) error {
		cfg, err := loadConfig(globalFlags)
		if err != nil {
			return err
		}
		c := newCommand(cfg)
		defer c.close()
		return fn(c)
	}
}

func createStartCommand(globalFlags *GlobalFlags, startFlags *StartFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start [command...]",
		Short: "Start a server in the background",
		Long: `Start a command detached from the terminal. Output is captured to
<name>.log and <name>_error.log under the log directory.

Examples:
  backdrop start "python -m http.server 8000" --name web
  backdrop start node server.js
  backdrop start ./worker --cwd /srv/app --env QUEUE=jobs`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			cfg, err := loadConfig(globalFlags)
			if err != nil {
				return err
			}
			c := newCommand(cfg)
			defer c.close()
			return c.Start(strings.Join(args, " "), *startFlags)
		},
	}

	cmd.Flags().StringVar(&startFlags.Name, "name", "", "server name (derived from the command when omitted)")
	cmd.Flags().StringVar(&startFlags.WorkDir, "cwd", "", "working directory for the server")
	cmd.Flags().StringArrayVar(&startFlags.Env, "env", nil, "extra KEY=VALUE environment entries (repeatable)")

	return cmd
}

func createStopCommand(globalFlags *GlobalFlags, stopFlags *StopFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stop <name>",
		Short: "Stop a running server",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			cfg, err := loadConfig(globalFlags)
			if err != nil {
				return err
			}
			c := newCommand(cfg)
			defer c.close()
			return c.Stop(args[0], stopFlags.Force)
		},
	}

	cmd.Flags().BoolVar(&stopFlags.Force, "force", false, "skip the graceful window and kill immediately")

	return cmd
}

func createStopAllCommand(globalFlags *GlobalFlags, stopFlags *StopFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stop-all",
		Short: "Stop every registered server",
		Args:  cobra.NoArgs,
		RunE:  runWith(globalFlags, func(c *command) error { return c.StopAll(stopFlags.Force) }),
	}

	cmd.Flags().BoolVar(&stopFlags.Force, "force", false, "skip the graceful window and kill immediately")

	return cmd
}

func createRestartCommand(globalFlags *GlobalFlags, restartFlags *RestartFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "restart <name>",
		Short: "Restart a server with its recorded command",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			cfg, err := loadConfig(globalFlags)
			if err != nil {
				return err
			}
			c := newCommand(cfg)
			defer c.close()
			return c.Restart(args[0], restartFlags.Force)
		},
	}

	cmd.Flags().BoolVar(&restartFlags.Force, "force", false, "skip the graceful window and kill immediately")

	return cmd
}

func createStatusCommand(globalFlags *GlobalFlags, statusFlags *StatusFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show registered servers and their state",
		Args:  cobra.NoArgs,
		RunE:  runWith(globalFlags, func(c *command) error { return c.Status(*statusFlags) }),
	}

	cmd.Flags().BoolVar(&statusFlags.JSON, "json", false, "print machine-readable JSON")
	cmd.Flags().BoolVarP(&statusFlags.Verbose, "verbose", "v", false, "include CPU, memory and thread samples")

	return cmd
}

func createLogsCommand(globalFlags *GlobalFlags, logsFlags *LogsFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logs <name>",
		Short: "Show a server's captured output",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			cfg, err := loadConfig(globalFlags)
			if err != nil {
				return err
			}
			c := newCommand(cfg)
			defer c.close()
			return c.Logs(args[0], *logsFlags)
		},
	}

	cmd.Flags().IntVarP(&logsFlags.Lines, "lines", "n", 50, "number of trailing lines to show")
	cmd.Flags().BoolVarP(&logsFlags.Follow, "follow", "f", false, "keep streaming new output until interrupted")
	cmd.Flags().BoolVarP(&logsFlags.Stderr, "error", "e", false, "show the stderr log instead of stdout")

	return cmd
}

func createMetricsCommand(globalFlags *GlobalFlags, metricsFlags *MetricsFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "metrics",
		Short: "Export server gauges in Prometheus text format",
		Long: `Render a one-shot Prometheus snapshot of every registered server.
With --output the snapshot is written atomically, suitable for a
node_exporter textfile collector.`,
		Args: cobra.NoArgs,
		RunE: runWith(globalFlags, func(c *command) error { return c.Metrics(metricsFlags.Output) }),
	}

	cmd.Flags().StringVarP(&metricsFlags.Output, "output", "o", "", "write the snapshot to this file instead of stdout")

	return cmd
}

func (c *command) Start(cmdStr string, f StartFlags) error {
	res, err := c.mgr.Start(manager.StartSpec{
		Command: cmdStr,
		Name:    f.Name,
		WorkDir: f.WorkDir,
		Env:     f.Env,
	})
	if err != nil {
		return err
	}
	fmt.Printf("✓ Started '%s' (PID %d)\n", res.Name, res.PID)
	fmt.Printf("  Logs: %s\n", res.StdoutLog)
	return nil
}

func (c *command) Stop(name string, force bool) error {
	err := c.mgr.Stop(name, force)
	var nr *manager.NotRunningError
	if errors.As(err, &nr) {
		fmt.Printf("✓ '%s' was not running, removed stale entry\n", nr.Name)
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Printf("✓ Stopped '%s'\n", name)
	return nil
}

func (c *command) StopAll(force bool) error {
	results, err := c.mgr.StopAll(force)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		fmt.Println("No servers registered")
		return nil
	}
	var failed int
	for _, r := range results {
		switch {
		case r.Err != nil:
			failed++
			fmt.Printf("✗ Failed to stop '%s': %v\n", r.Name, r.Err)
		case r.Cleanup:
			fmt.Printf("✓ '%s' was not running, removed stale entry\n", r.Name)
		default:
			fmt.Printf("✓ Stopped '%s'\n", r.Name)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d servers failed to stop", failed, len(results))
	}
	return nil
}

func (c *command) Restart(name string, force bool) error {
	res, err := c.mgr.Restart(name, force)
	if err != nil {
		return err
	}
	fmt.Printf("✓ Restarted '%s' (PID %d)\n", res.Name, res.PID)
	return nil
}

func (c *command) Status(f StatusFlags) error {
	statuses, err := c.mgr.Status(f.Verbose)
	if err != nil {
		return err
	}
	if f.JSON {
		printJSON(statuses)
		return nil
	}
	if len(statuses) == 0 {
		fmt.Println("No servers running")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	if f.Verbose {
		fmt.Fprintln(w, "NAME\tSTATUS\tPID\tUPTIME\tCPU%\tMEM\tTHREADS\tCOMMAND")
		for _, st := range statuses {
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%.1f\t%s\t%d\t%s\n",
				st.Name, statusWord(st.Running), st.PID, st.Uptime, st.CPUPercent,
				probe.FormatMemory(st.MemoryBytes), st.Threads, st.Command)
		}
	} else {
		fmt.Fprintln(w, "NAME\tSTATUS\tPID\tUPTIME\tCOMMAND")
		for _, st := range statuses {
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
				st.Name, statusWord(st.Running), st.PID, st.Uptime, st.Command)
		}
	}
	return w.Flush()
}

func (c *command) Logs(name string, f LogsFlags) error {
	stdout, stderr, err := c.mgr.LogPaths(name)
	if err != nil {
		return err
	}
	path := stdout
	if f.Stderr {
		path = stderr
	}

	lines, err := tail.Lines(path, f.Lines)
	if err != nil {
		return err
	}
	for _, line := range lines {
		fmt.Println(line)
	}

	if !f.Follow {
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := tail.Follow(ctx, path, os.Stdout, c.cfg.LogPollInterval); !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func (c *command) Metrics(output string) error {
	statuses, err := c.mgr.Status(true)
	if err != nil {
		return err
	}

	e := metrics.NewExporter()
	for _, st := range statuses {
		e.Observe(metrics.Sample{
			Name:          st.Name,
			PID:           st.PID,
			Running:       st.Running,
			CPUPercent:    st.CPUPercent,
			MemoryBytes:   st.MemoryBytes,
			Threads:       st.Threads,
			UptimeSeconds: time.Since(st.StartedAt).Seconds(),
		})
	}

	if output == "" {
		output = c.cfg.MetricsTextfile
	}
	if output != "" {
		return e.WriteFile(output)
	}
	return e.WriteTo(os.Stdout)
}

func statusWord(running bool) string {
	if running {
		return "running"
	}
	return "stale"
}

func printJSON(v any) {
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
}
