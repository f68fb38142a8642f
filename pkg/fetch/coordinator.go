// Package fetch derives the flattened, in-order list of visible tree rows
// for a root path, reconciling the open-state store against the result.
//
// Two strategies produce the row list. The primary one asks the listing
// service for the whole flattened tree in one round trip. If that fails with
// a transport or protocol error, a recursive client-side fallback lists one
// directory at a time through the (cached) directory-listing collaborator.
// Both strategies produce the same ordering and leave the store in the same
// final state for equivalent inputs; the fallback exists purely as a
// degraded-availability path.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"

	"github.com/foldview/foldview/pkg/fslist"
	"github.com/foldview/foldview/pkg/model"
	"github.com/foldview/foldview/pkg/openstate"
)

// Source identifies which strategy produced a result.
type Source string

const (
	SourceServer   Source = "server"
	SourceFallback Source = "fallback"
)

// ErrStaleResponse marks a completed fetch that was superseded by a newer
// request while in flight. Stale results carry their items but have not been
// reconciled into the open-state store.
var ErrStaleResponse = errors.New("stale tree response superseded by a newer request")

// errNoServer marks a fetch issued with no listing service configured. The
// client-side strategy is the only one available, not a degraded path, so
// the coordinator skips the failure warning for it.
var errNoServer = errors.New("no listing service configured")

// Result is one completed fetch.
type Result struct {
	Items     []model.TreeEntry
	Source    Source
	RequestID int64
	Stale     bool
}

// Config configures a Coordinator.
type Config struct {
	// BaseURL of the listing service, without the trailing /tree.
	BaseURL string
	Store   *openstate.Store
	// Lister is the directory-listing collaborator used by the fallback
	// strategy; typically a fslist.CachedLister.
	Lister fslist.Lister
	Logger zerolog.Logger
	// Sink receives per-request timing events. Nil means discard.
	Sink Sink
	// HTTPClient overrides the default retrying client; mostly for tests.
	HTTPClient *http.Client
	// RetryMax bounds transport retries for the server strategy. Zero
	// means the default of 2.
	RetryMax int
}

// Coordinator is the tree-fetch coordinator.
type Coordinator struct {
	baseURL string
	store   *openstate.Store
	lister  fslist.Lister
	http    *http.Client
	log     zerolog.Logger
	sink    Sink

	// ids is the monotonically increasing request id. A response whose id
	// no longer matches the newest issued id is discarded as stale.
	ids atomic.Int64
}

// New creates a Coordinator.
func New(cfg Config) *Coordinator {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		rc := retryablehttp.NewClient()
		rc.RetryMax = cfg.RetryMax
		if rc.RetryMax == 0 {
			rc.RetryMax = 2
		}
		rc.RetryWaitMin = 250 * time.Millisecond
		rc.RetryWaitMax = 2 * time.Second
		rc.Logger = &retryLogger{log: cfg.Logger}
		httpClient = rc.StandardClient()
	}
	sink := cfg.Sink
	if sink == nil {
		sink = NopSink()
	}
	return &Coordinator{
		baseURL: cfg.BaseURL,
		store:   cfg.Store,
		lister:  cfg.Lister,
		http:    httpClient,
		log:     cfg.Logger,
		sink:    sink,
	}
}

// Fetch produces the full flattened, in-order list of visible rows under
// rootPath. pathToReveal, when non-empty, forces every prefix of that path
// into the expanded set so a deep item becomes visible in one round trip.
//
// A server failure alone is swallowed and logged; the error return is
// non-nil only when both strategies fail, or when the result arrived stale
// (ErrStaleResponse, with the stale items still attached).
func (c *Coordinator) Fetch(ctx context.Context, rootPath, pathToReveal string) (Result, error) {
	root := model.Normalize(rootPath)
	reveal := model.Normalize(pathToReveal)
	id := c.ids.Add(1)

	// One snapshot feeds both the expanded-path set and the fallback
	// traversal, so a toggle landing mid-fetch cannot split their views.
	snap := c.store.Snapshot()
	expanded := model.ExpandedPathSet(root, snap.OpenPaths(), reveal)

	start := time.Now()
	items, err := c.fetchServer(ctx, id, root, expanded, reveal)
	source := SourceServer
	if err != nil {
		serverSkipped := errors.Is(err, errNoServer)
		if serverSkipped {
			c.log.Debug().Int64("request_id", id).
				Msg("no listing service configured, using client listing")
		} else {
			c.log.Warn().Err(err).Int64("request_id", id).
				Msg("server tree fetch failed, retrying via client fallback")
		}
		items, err = c.fetchFallback(root, reveal, snap)
		if err != nil {
			return Result{RequestID: id}, fmt.Errorf("tree fetch: both strategies failed: %w", err)
		}
		source = SourceFallback
		if !serverSkipped {
			c.log.Info().Int64("request_id", id).Int("items", len(items)).
				Msg("client fallback produced the listing")
		}
		c.sink.Emit(Timing{
			RequestID: id,
			Source:    SourceFallback,
			TotalMs:   msSince(start),
		})
	}

	res := Result{Items: items, Source: source, RequestID: id}
	if id != c.ids.Load() {
		res.Stale = true
		return res, ErrStaleResponse
	}

	elapsed := c.store.Reconcile(items, expanded, root)
	c.log.Debug().Int64("request_id", id).Str("source", string(source)).
		Int("items", len(items)).Dur("reconcile", elapsed).Msg("tree fetch complete")
	return res, nil
}

// LastRequestID returns the newest issued request id.
func (c *Coordinator) LastRequestID() int64 {
	return c.ids.Load()
}

func msSince(t time.Time) float64 {
	return float64(time.Since(t)) / float64(time.Millisecond)
}

// retryLogger adapts zerolog to the retryablehttp.LeveledLogger interface.
type retryLogger struct {
	log zerolog.Logger
}

func (l *retryLogger) Error(msg string, keysAndValues ...interface{}) {
	l.log.Error().Fields(keysAndValues).Msg(msg)
}

func (l *retryLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.log.Warn().Fields(keysAndValues).Msg(msg)
}

func (l *retryLogger) Info(msg string, keysAndValues ...interface{}) {}

func (l *retryLogger) Debug(msg string, keysAndValues ...interface{}) {}
