package launcher

import (
	"errors"
	"os/exec"
	"strings"
)

// BuildCommand constructs an *exec.Cmd for a shell command string. A shell
// is only involved when the command needs one: explicit "sh -c" prefixes are
// honored without double-wrapping, metacharacters fall back to /bin/sh -c,
// and plain commands become a direct argv.
func BuildCommand(command string) (*exec.Cmd, error) {
	cmdStr := strings.TrimSpace(command)
	if cmdStr == "" {
		return nil, errors.New("empty command")
	}
	if afterC, ok := parseExplicitShell(cmdStr); ok {
		// Absolute shell path avoids PATH dependency under a custom env.
		// #nosec G204
		return exec.Command("/bin/sh", "-c", afterC), nil
	}
	if strings.ContainsAny(cmdStr, "|&;<>*?`$\"'(){}[]~") {
		// #nosec G204
		return exec.Command("/bin/sh", "-c", cmdStr), nil
	}
	parts := strings.Fields(cmdStr)
	var args []string
	if len(parts) > 1 {
		args = parts[1:]
	}
	// #nosec G204
	return exec.Command(parts[0], args...), nil
}

// parseExplicitShell detects "sh -c <ARG>" or "/bin/sh -c <ARG>" at the start
// of a command and returns the argument after -c, with one surrounding quote
// pair stripped so redirections inside the script still parse.
func parseExplicitShell(cmdStr string) (string, bool) {
	trim := strings.TrimLeft(cmdStr, " \t")
	for _, p := range []string{"sh -c ", "/bin/sh -c ", "/usr/bin/sh -c "} {
		if strings.HasPrefix(trim, p) {
			after := trim[len(p):]
			if n := len(after); n >= 2 {
				if (after[0] == '\'' && after[n-1] == '\'') || (after[0] == '"' && after[n-1] == '"') {
					after = after[1 : n-1]
				}
			}
			return after, true
		}
	}
	return "", false
}
