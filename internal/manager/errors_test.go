package manager

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrorMessages(t *testing.T) {
	require.EqualError(t, &NotFoundError{Name: "web"}, `no server named "web"`)
	require.EqualError(t, &AlreadyRunningError{Name: "web", PID: 42},
		`server "web" is already running (PID 42)`)
	require.EqualError(t, &NotRunningError{Name: "web"},
		`server "web" was not running, removed stale entry`)
	require.EqualError(t, &StartupFailedError{Name: "web", StderrLog: "/logs/web_error.log"},
		`server "web" failed to start, check /logs/web_error.log`)
}

func TestErrorsAsThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("stop: %w", &NotFoundError{Name: "api"})

	var nf *NotFoundError
	require.True(t, errors.As(wrapped, &nf))
	require.Equal(t, "api", nf.Name)
}

func TestTerminationFailedUnwrap(t *testing.T) {
	cause := errors.New("process 7 survived forced kill")
	err := &TerminationFailedError{Name: "db", PID: 7, Err: cause}

	require.ErrorIs(t, err, cause)
	require.Contains(t, err.Error(), `"db"`)
	require.Contains(t, err.Error(), "PID 7")
}
