package cache

import (
	"os"
	"sync"
	"time"

	"github.com/jpsoriano/permit-extractor/internal/record"
)

// FileSignature is a cheap change detector: byte size plus modification time
// truncated to whole seconds. Two files are the same version iff their
// signatures are equal.
type FileSignature struct {
	Size  int64
	MTime int64
}

// Signature computes the current signature of path.
func Signature(path string) (FileSignature, error) {
	st, err := os.Stat(path)
	if err != nil {
		return FileSignature{}, err
	}
	return FileSignature{Size: st.Size(), MTime: st.ModTime().Unix()}, nil
}

// Entry is the cached outcome for one document. Result == nil means a
// processing attempt failed; absence of the key means not yet attempted.
type Entry struct {
	Sig         FileSignature
	Result      *record.PermitRecord
	ProcessedAt time.Time
}

// PendingDoc is a document selected for processing together with the
// signature observed at selection time.
type PendingDoc struct {
	Path string
	Sig  FileSignature
}

// Cache is the signature-keyed processing cache. It is owned by the
// orchestrator and safe for concurrent insertion by its worker pool;
// writes are last-writer-wins per key.
type Cache struct {
	mu      sync.Mutex
	entries map[string]Entry
}

func New() *Cache {
	return &Cache{entries: make(map[string]Entry)}
}

// Get returns the entry for path, if any.
func (c *Cache) Get(path string) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[path]
	return e, ok
}

// Put inserts or replaces the entry for path.
func (c *Cache) Put(path string, e Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[path] = e
}

// Remove drops the entry for path.
func (c *Cache) Remove(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, path)
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Snapshot returns a copy of the table for read-only use (export, status).
func (c *Cache) Snapshot() map[string]Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]Entry, len(c.entries))
	for k, v := range c.entries {
		out[k] = v
	}
	return out
}

// Pending selects the documents that need (re)processing: no entry yet, a
// changed signature, or a nil cached result (failed attempts are retried on
// every pass). Paths that can no longer be stat'd are dropped from the cache
// and skipped.
func (c *Cache) Pending(paths []string) []PendingDoc {
	var pending []PendingDoc
	for _, p := range paths {
		sig, err := Signature(p)
		if err != nil {
			c.Remove(p)
			continue
		}
		entry, ok := c.Get(p)
		if !ok || entry.Sig != sig || entry.Result == nil {
			pending = append(pending, PendingDoc{Path: p, Sig: sig})
		}
	}
	return pending
}

// Prune removes entries whose document disappeared from the source set.
func (c *Cache) Prune(current []string) {
	present := make(map[string]struct{}, len(current))
	for _, p := range current {
		present[p] = struct{}{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for p := range c.entries {
		if _, ok := present[p]; !ok {
			delete(c.entries, p)
		}
	}
}
