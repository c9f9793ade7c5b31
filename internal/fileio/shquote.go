package fileio

import "strings"

// shQuote single-quotes s for safe interpolation into a shell command
// built by this package. This is unrelated to the Exec Engine's
// contract (which never escapes caller-supplied commands) — File I/O
// builds its own internal commands and is responsible for quoting the
// paths it interpolates into them.
func shQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
