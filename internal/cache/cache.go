// Package cache implements the fingerprint cache the engine consumes
// through cache_find_byhash (spec §6): a persisted map from a node's
// hashid to the cmdhash that last built it successfully. The on-disk
// format is explicitly out of scope for the core per spec §1, so this is
// a minimal, concrete collaborator rather than a specified component.
package cache

import (
	"encoding/json"
	"os"
	"sync"

	"github.com/google/renameio"
	"golang.org/x/xerrors"
)

// Cache is a hashid -> cmdhash map. Find, Record and Flush all take mu, so
// they are safe to call concurrently.
type Cache struct {
	mu      sync.Mutex
	path    string
	entries map[string]string
	dirty   bool
}

// Load reads path if it exists, or returns an empty Cache if it doesn't —
// the first build of a graph has no prior fingerprints.
func Load(path string) (*Cache, error) {
	c := &Cache{path: path, entries: make(map[string]string)}
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return c, nil
		}
		return nil, xerrors.Errorf("reading cache: %w", err)
	}
	if err := json.Unmarshal(b, &c.entries); err != nil {
		return nil, xerrors.Errorf("parsing cache %s: %w", path, err)
	}
	return c, nil
}

// Find implements cache_find_byhash: it returns the cmdhash last recorded
// for hashid, or ok=false if there is no entry.
func (c *Cache) Find(hashid string) (cmdhash string, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cmdhash, ok = c.entries[hashid]
	return cmdhash, ok
}

// Record stores the cmdhash a job succeeded with, to be written out by
// Flush. Called once per successful real job (spec §4.5 step 11).
func (c *Cache) Record(hashid, cmdhash string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[hashid] = cmdhash
	c.dirty = true
}

// Flush persists the cache atomically via renameio, the same idiom
// distr1-distri/internal/build/build.go uses for writing build metadata:
// a renameio.TempFile followed by CloseAtomicallyReplace so a crash never
// leaves a half-written cache behind. It is a no-op if nothing changed.
func (c *Cache) Flush() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.dirty {
		return nil
	}
	b, err := json.MarshalIndent(c.entries, "", "  ")
	if err != nil {
		return xerrors.Errorf("marshaling cache: %w", err)
	}
	f, err := renameio.TempFile("", c.path)
	if err != nil {
		return xerrors.Errorf("creating cache tempfile: %w", err)
	}
	defer f.Cleanup()
	if _, err := f.Write(b); err != nil {
		return xerrors.Errorf("writing cache: %w", err)
	}
	if err := f.CloseAtomicallyReplace(); err != nil {
		return xerrors.Errorf("replacing cache: %w", err)
	}
	c.dirty = false
	return nil
}
