// Package name derives stable, filesystem-safe identifiers for managed
// processes. Derivation is pure: the same command always yields the same
// name, so lookup keys can be recomputed at stop/restart/log time.
package name

import (
	"path"
	"strings"
)

// script extensions stripped from derived names, e.g. "server.py" -> "server".
var scriptExts = []string{".py", ".js", ".rb", ".sh"}

// interpreters are skipped during extraction when a script argument follows,
// so "node server.js" names the server, not the runtime.
var interpreters = map[string]bool{
	"python": true, "python2": true, "python3": true,
	"node": true, "nodejs": true,
	"ruby": true, "perl": true,
	"sh": true, "bash": true, "zsh": true,
}

// Derive resolves the registry key for a process. An explicit name wins and
// is only sanitized; otherwise the name is extracted from the command line.
func Derive(command, explicit string) string {
	if explicit != "" {
		return Sanitize(explicit)
	}
	return FromCommand(command)
}

// FromCommand extracts a process name from a shell command line.
// Environment assignments (KEY=value), flags (-x, --xyz) and well-known
// interpreter names are skipped; if no token qualifies the first token is
// used. Path components and known script extensions are stripped before
// sanitization, so "PORT=8080 node ./srv/server.js" yields "server".
func FromCommand(command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return ""
	}
	candidates := fields[:0:0]
	for _, f := range fields {
		if strings.Contains(f, "=") || strings.HasPrefix(f, "-") {
			continue
		}
		candidates = append(candidates, f)
	}
	tok := fields[0]
	if len(candidates) > 0 {
		tok = candidates[0]
		if interpreters[path.Base(tok)] && len(candidates) > 1 {
			tok = candidates[1]
		}
	}
	tok = path.Base(tok)
	for _, ext := range scriptExts {
		if strings.HasSuffix(tok, ext) {
			tok = strings.TrimSuffix(tok, ext)
			break
		}
	}
	return Sanitize(tok)
}

// Sanitize replaces every character outside [A-Za-z0-9_-] with '_'.
func Sanitize(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
