// Package env resolves the directory basalt keeps its default graph and
// cache files in, when the caller doesn't pass explicit -graph/-cache
// flags. Inspect it with `basalt env`.
package env

import "os"

// BasaltRoot is the default directory for a project's graph description
// and fingerprint cache, overridable via $BASALTROOT.
var BasaltRoot = findBasaltRoot()

func findBasaltRoot() string {
	if env := os.Getenv("BASALTROOT"); env != "" {
		return env
	}
	return "." // default: the current working directory
}
