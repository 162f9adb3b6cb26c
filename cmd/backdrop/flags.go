package main

// GlobalFlags holds persistent flags shared by all subcommands.
type GlobalFlags struct {
	ConfigPath string
}

// StartFlags holds flags for the start command.
type StartFlags struct {
	Name    string
	WorkDir string
	Env     []string
}

// StopFlags holds flags for stop and stop-all.
type StopFlags struct {
	Force bool
}

// RestartFlags holds flags for the restart command.
type RestartFlags struct {
	Force bool
}

// StatusFlags holds flags for the status command.
type StatusFlags struct {
	JSON    bool
	Verbose bool
}

// LogsFlags holds flags for the logs command.
type LogsFlags struct {
	Lines  int
	Follow bool
	Stderr bool
}

// MetricsFlags holds flags for the metrics command.
type MetricsFlags struct {
	Output string
}
