// Package openstate tracks which directories of the tree are expanded.
//
// The store is a flat map from normalized path to a boolean flag. Absence of
// a key means collapsed. The root path is conceptually always expanded: its
// children are always being listed, so every successful fetch forces it open.
package openstate

import (
	"sort"
	"sync"
	"time"

	"github.com/foldview/foldview/pkg/model"
)

// Store maps normalized paths to their expanded flag.
type Store struct {
	mu   sync.RWMutex
	open map[string]bool
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{open: make(map[string]bool)}
}

// IsOpen returns the stored flag for the path, defaulting to false.
func (s *Store) IsOpen(path string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.open[model.Normalize(path)]
}

// Set records an explicit expanded flag for the path.
func (s *Store) Set(path string, open bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.open[model.Normalize(path)] = open
}

// Toggle flips the flag for the path. Toggling does not refetch anything;
// the caller re-derives the row list afterward.
func (s *Store) Toggle(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := model.Normalize(path)
	s.open[p] = !s.open[p]
}

// OpenPaths returns every path currently flagged expanded, sorted for
// deterministic wire requests.
func (s *Store) OpenPaths() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	paths := make([]string, 0, len(s.open))
	for p, open := range s.open {
		if open {
			paths = append(paths, p)
		}
	}
	sort.Strings(paths)
	return paths
}

// Len returns the number of paths with an explicit flag, open or collapsed.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.open)
}

// Reconcile aligns the store with the result of a completed fetch: the root
// is forced open, and every directory in entries gets its flag set to its
// membership in the expanded-path set. Directories that were listed but are
// not expanded are explicitly marked collapsed, so stale flags from deleted
// or never-visited folders do not leak forward. The returned duration is
// diagnostic only.
func (s *Store) Reconcile(entries []model.TreeEntry, expanded map[string]struct{}, rootPath string) time.Duration {
	start := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	s.open[model.Normalize(rootPath)] = true
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		_, ok := expanded[e.Path]
		s.open[e.Path] = ok
	}
	return time.Since(start)
}

// Snapshot returns a point-in-time read view of the store. A traversal that
// spans suspension points reads from its snapshot so a toggle landing midway
// cannot change what the traversal observes.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	open := make(map[string]bool, len(s.open))
	for p, v := range s.open {
		open[p] = v
	}
	return Snapshot{open: open}
}

// Snapshot is an immutable copy of the store's flags.
type Snapshot struct {
	open map[string]bool
}

// IsOpen returns the snapshotted flag for the path, defaulting to false.
func (v Snapshot) IsOpen(path string) bool {
	return v.open[model.Normalize(path)]
}

// OpenPaths returns every snapshotted path flagged expanded, sorted.
func (v Snapshot) OpenPaths() []string {
	paths := make([]string, 0, len(v.open))
	for p, open := range v.open {
		if open {
			paths = append(paths, p)
		}
	}
	sort.Strings(paths)
	return paths
}
