// Package fsutil implements the filesystem adapter collaborator of spec
// §6: timestamp lookup, touch, create-parents, and remove. It is
// intentionally thin stdlib usage — see DESIGN.md for why no third-party
// library replaces it.
package fsutil

import (
	"os"
	"path/filepath"
	"time"
)

// Timestamp implements file_timestamp: the file's mtime, or the zero Time
// if the file does not exist.
func Timestamp(path string) time.Time {
	fi, err := os.Stat(path)
	if err != nil {
		return time.Time{}
	}
	return fi.ModTime()
}

// Touch implements file_touch: it updates path's mtime to now, used
// defensively after a successful command in case the tool itself
// preserved the output's original timestamp (spec §4.5 step 9).
func Touch(path string) error {
	now := time.Now()
	if err := os.Chtimes(path, now, now); err != nil {
		if os.IsNotExist(err) {
			f, ferr := os.Create(path)
			if ferr != nil {
				return ferr
			}
			return f.Close()
		}
		return err
	}
	return nil
}

// CreatePath implements file_createpath: ensures path's parent directory
// exists.
func CreatePath(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o755)
}

// Remove implements remove: deleting path. A missing file is not an
// error, per spec §4.3 ("Missing files are not errors").
func Remove(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
