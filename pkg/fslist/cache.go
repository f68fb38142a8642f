package fslist

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/foldview/foldview/pkg/model"
)

// CachedLister wraps a Lister with a per-path result cache so one recursive
// fallback pass never lists the same directory twice. The cache is cleared
// wholesale on Invalidate and whenever the watched filesystem reports any
// change; there is no per-entry eviction.
type CachedLister struct {
	inner Lister
	log   zerolog.Logger

	mu    sync.Mutex
	cache map[string][]model.TreeEntry

	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewCachedLister wraps inner with a cache.
func NewCachedLister(inner Lister, log zerolog.Logger) *CachedLister {
	return &CachedLister{
		inner: inner,
		log:   log,
		cache: make(map[string][]model.TreeEntry),
	}
}

// List returns the cached children for path, listing through the inner
// Lister on a miss. Returned slices are shared and must be treated
// read-only by callers.
func (c *CachedLister) List(path string) ([]model.TreeEntry, error) {
	path = model.Normalize(path)

	c.mu.Lock()
	if entries, ok := c.cache[path]; ok {
		c.mu.Unlock()
		return entries, nil
	}
	c.mu.Unlock()

	entries, err := c.inner.List(path)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.cache[path] = entries
	c.mu.Unlock()
	return entries, nil
}

// Invalidate clears the whole cache. The next List repopulates lazily.
func (c *CachedLister) Invalidate() {
	c.mu.Lock()
	c.cache = make(map[string][]model.TreeEntry)
	c.mu.Unlock()
}

// Size returns the number of cached directory listings.
func (c *CachedLister) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.cache)
}

// Watch starts an fsnotify watcher on the given OS directories and
// invalidates the cache wholesale on any reported change. Watch may only be
// called once; Close stops the watcher.
func (c *CachedLister) Watch(osDirs ...string) error {
	if c.watcher != nil {
		return fmt.Errorf("cache watcher already started")
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	for _, dir := range osDirs {
		if err := w.Add(filepath.Clean(dir)); err != nil {
			w.Close()
			return fmt.Errorf("watch %s: %w", dir, err)
		}
	}

	c.watcher = w
	c.done = make(chan struct{})
	go c.watchLoop()
	return nil
}

func (c *CachedLister) watchLoop() {
	for {
		select {
		case ev, ok := <-c.watcher.Events:
			if !ok {
				return
			}
			c.log.Debug().Str("op", ev.Op.String()).Str("name", ev.Name).
				Msg("filesystem change, invalidating directory cache")
			c.Invalidate()
		case err, ok := <-c.watcher.Errors:
			if !ok {
				return
			}
			c.log.Warn().Err(err).Msg("directory cache watcher error")
		case <-c.done:
			return
		}
	}
}

// Close stops the filesystem watcher, if one was started.
func (c *CachedLister) Close() error {
	if c.watcher == nil {
		return nil
	}
	close(c.done)
	return c.watcher.Close()
}
