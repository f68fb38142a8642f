// Package server implements the HTTP tree service. A single POST /tree
// endpoint expands a directory tree in one round trip: the request carries
// the client's open paths plus an optional path to reveal, the response is
// the fully interleaved depth-first listing.
package server

import (
	"compress/gzip"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/foldview/foldview/pkg/fslist"
	"github.com/foldview/foldview/pkg/metrics"
	"github.com/foldview/foldview/pkg/model"
)

// Server handles tree expansion requests against a Lister.
type Server struct {
	lister fslist.Lister
	log    zerolog.Logger
}

// New creates a Server reading listings from lister.
func New(lister fslist.Lister, log zerolog.Logger) *Server {
	return &Server{lister: lister, log: log}
}

// Routes returns the service's HTTP handler.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/tree", s.handleTree)
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.Handle("/metrics", metrics.Handler())
	return mux
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintln(w, "ok")
}

func (s *Server) handleTree(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		metrics.TreeRequests.WithLabelValues("method_not_allowed").Inc()
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "read body: "+err.Error(), http.StatusBadRequest)
		metrics.TreeRequests.WithLabelValues("bad_request").Inc()
		return
	}
	var req model.TreeRequest
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, "decode request: "+err.Error(), http.StatusBadRequest)
		metrics.TreeRequests.WithLabelValues("bad_request").Inc()
		return
	}

	root := model.Normalize(req.Path)
	expanded := model.ExpandedPathSet(root, req.OpenPaths, req.UpdatePath)

	treeStart := time.Now()
	items, dirsListed, err := s.collect(root, expanded)
	treeMs := msSince(treeStart)
	if err != nil {
		s.log.Error().Err(err).Str("path", root).Msg("tree traversal failed")
		http.Error(w, "list tree: "+err.Error(), http.StatusInternalServerError)
		metrics.TreeRequests.WithLabelValues("error").Inc()
		return
	}

	encodeStart := time.Now()
	payload, err := json.Marshal(model.TreeResponse{Items: items})
	encodeMs := msSince(encodeStart)
	if err != nil {
		s.log.Error().Err(err).Str("path", root).Msg("encode response failed")
		http.Error(w, "encode response: "+err.Error(), http.StatusInternalServerError)
		metrics.TreeRequests.WithLabelValues("error").Inc()
		return
	}

	totalMs := msSince(start)
	h := w.Header()
	h.Set("Content-Type", "application/json")
	h.Set("X-Foldview-Tree-Ms", formatMs(treeMs))
	h.Set("X-Foldview-Encode-Ms", formatMs(encodeMs))
	h.Set("X-Foldview-Total-Ms", formatMs(totalMs))
	h.Set("X-Foldview-Items", strconv.Itoa(len(items)))
	h.Set("X-Foldview-Dirs-Listed", strconv.Itoa(dirsListed))

	if strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
		h.Set("Content-Encoding", "gzip")
		gz := gzip.NewWriter(w)
		if _, err := gz.Write(payload); err == nil {
			err = gz.Close()
		}
		if err != nil {
			s.log.Error().Err(err).Msg("write gzip response failed")
		}
	} else if _, err := w.Write(payload); err != nil {
		s.log.Error().Err(err).Msg("write response failed")
	}

	metrics.TreeRequests.WithLabelValues("ok").Inc()
	metrics.TreeDuration.Observe(time.Since(start).Seconds())
	metrics.TreeItems.Observe(float64(len(items)))
	metrics.DirsListed.Observe(float64(dirsListed))

	s.log.Debug().
		Str("path", root).
		Str("reveal", req.UpdatePath).
		Int("items", len(items)).
		Int("dirs_listed", dirsListed).
		Float64("tree_ms", treeMs).
		Float64("encode_ms", encodeMs).
		Float64("total_ms", totalMs).
		Int64("client_request_id", req.ClientRequestID).
		Msg("tree request served")
}

// collect walks the tree depth-first from root, listing each expanded
// directory and splicing its children directly after it, so the response
// arrives in the exact order rows are displayed.
func (s *Server) collect(root string, expanded map[string]struct{}) ([]model.TreeEntry, int, error) {
	items := make([]model.TreeEntry, 0, 64)
	dirsListed := 0

	var walk func(path string) error
	walk = func(path string) error {
		entries, err := s.lister.List(path)
		if err != nil {
			return fmt.Errorf("list %q: %w", path, err)
		}
		dirsListed++
		for _, e := range entries {
			items = append(items, e)
			if !e.IsDir() {
				continue
			}
			if _, ok := expanded[e.Path]; ok {
				if err := walk(e.Path); err != nil {
					return err
				}
			}
		}
		return nil
	}

	if err := walk(root); err != nil {
		return nil, dirsListed, err
	}
	return items, dirsListed, nil
}

func msSince(t time.Time) float64 {
	return float64(time.Since(t).Microseconds()) / 1000
}

func formatMs(ms float64) string {
	return strconv.FormatFloat(ms, 'f', 3, 64)
}
