package server

import (
	"bytes"
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/foldview/foldview/pkg/model"
)

// memLister serves listings from a fixed map, keyed by normalized path.
type memLister struct {
	dirs map[string][]model.TreeEntry
}

func (m *memLister) List(path string) ([]model.TreeEntry, error) {
	return m.dirs[model.Normalize(path)], nil
}

func dir(path string) model.TreeEntry {
	return model.TreeEntry{Path: path, Name: base(path), Type: model.EntryDirectory, Writable: true}
}

func file(path string) model.TreeEntry {
	return model.TreeEntry{Path: path, Name: base(path), Type: model.EntryFile, Writable: true}
}

func base(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return path[i+1:]
		}
	}
	return path
}

func fixtureLister() *memLister {
	return &memLister{dirs: map[string][]model.TreeEntry{
		"":          {dir("dir1"), file("file1.txt")},
		"dir1":      {dir("dir1/dir2"), file("dir1/filea.txt")},
		"dir1/dir2": {file("dir1/dir2/deep.txt")},
	}}
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(New(fixtureLister(), zerolog.Nop()).Routes())
	t.Cleanup(srv.Close)
	return srv
}

func postTree(t *testing.T, url string, req model.TreeRequest) (*http.Response, model.TreeResponse) {
	t.Helper()
	body, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("encode request: %v", err)
	}
	resp, err := http.Post(url+"/tree", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST /tree: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response: %v", err)
	}
	var tr model.TreeResponse
	if resp.StatusCode == http.StatusOK {
		if err := json.Unmarshal(raw, &tr); err != nil {
			t.Fatalf("decode response: %v (body %q)", err, raw)
		}
	}
	return resp, tr
}

func paths(items []model.TreeEntry) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Path
	}
	return out
}

func assertPaths(t *testing.T, got []model.TreeEntry, want []string) {
	t.Helper()
	gp := paths(got)
	if len(gp) != len(want) {
		t.Fatalf("paths = %v, want %v", gp, want)
	}
	for i := range want {
		if gp[i] != want[i] {
			t.Fatalf("paths = %v, want %v", gp, want)
		}
	}
}

func TestTreeRootOnly(t *testing.T) {
	srv := newTestServer(t)
	resp, tr := postTree(t, srv.URL, model.TreeRequest{Path: ""})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	assertPaths(t, tr.Items, []string{"dir1", "file1.txt"})
}

func TestTreeOpenPathsInterleavedDepthFirst(t *testing.T) {
	srv := newTestServer(t)
	_, tr := postTree(t, srv.URL, model.TreeRequest{
		Path:      "",
		OpenPaths: []string{"dir1", "dir1/dir2"},
	})
	assertPaths(t, tr.Items, []string{
		"dir1",
		"dir1/dir2",
		"dir1/dir2/deep.txt",
		"dir1/filea.txt",
		"file1.txt",
	})
}

func TestTreeUpdatePathExpandsAncestors(t *testing.T) {
	// Revealing a deep path must expand every ancestor even when none of
	// them is in open_paths.
	srv := newTestServer(t)
	_, tr := postTree(t, srv.URL, model.TreeRequest{
		Path:       "",
		UpdatePath: "dir1/dir2/deep.txt",
	})
	assertPaths(t, tr.Items, []string{
		"dir1",
		"dir1/dir2",
		"dir1/dir2/deep.txt",
		"dir1/filea.txt",
		"file1.txt",
	})
}

func TestTreeDiagnosticHeaders(t *testing.T) {
	srv := newTestServer(t)
	resp, tr := postTree(t, srv.URL, model.TreeRequest{OpenPaths: []string{"dir1"}})

	items, err := strconv.Atoi(resp.Header.Get("X-Foldview-Items"))
	if err != nil || items != len(tr.Items) {
		t.Fatalf("X-Foldview-Items = %q, want %d", resp.Header.Get("X-Foldview-Items"), len(tr.Items))
	}
	// Root plus dir1 were listed.
	if got := resp.Header.Get("X-Foldview-Dirs-Listed"); got != "2" {
		t.Fatalf("X-Foldview-Dirs-Listed = %q, want 2", got)
	}
	for _, h := range []string{"X-Foldview-Tree-Ms", "X-Foldview-Encode-Ms", "X-Foldview-Total-Ms"} {
		if _, err := strconv.ParseFloat(resp.Header.Get(h), 64); err != nil {
			t.Fatalf("%s = %q, want a millisecond value", h, resp.Header.Get(h))
		}
	}
}

func TestTreeGzipResponse(t *testing.T) {
	srv := newTestServer(t)
	body, _ := json.Marshal(model.TreeRequest{OpenPaths: []string{"dir1"}})
	req, err := http.NewRequest(http.MethodPost, srv.URL+"/tree", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Accept-Encoding", "gzip")

	// Plain transport so the client does not transparently decompress.
	resp, err := (&http.Client{Transport: &http.Transport{DisableCompression: true}}).Do(req)
	if err != nil {
		t.Fatalf("POST /tree: %v", err)
	}
	defer resp.Body.Close()

	if got := resp.Header.Get("Content-Encoding"); got != "gzip" {
		t.Fatalf("Content-Encoding = %q, want gzip", got)
	}
	gz, err := gzip.NewReader(resp.Body)
	if err != nil {
		t.Fatalf("gzip reader: %v", err)
	}
	raw, err := io.ReadAll(gz)
	if err != nil {
		t.Fatalf("decompress: %v", err)
	}
	var tr model.TreeResponse
	if err := json.Unmarshal(raw, &tr); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(tr.Items) != 4 {
		t.Fatalf("items = %d, want 4", len(tr.Items))
	}
}

func TestTreeRejectsWrongMethod(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/tree")
	if err != nil {
		t.Fatalf("GET /tree: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", resp.StatusCode)
	}
}

func TestTreeRejectsMalformedBody(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Post(srv.URL+"/tree", "application/json", bytes.NewReader([]byte("{not json")))
	if err != nil {
		t.Fatalf("POST /tree: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
}
