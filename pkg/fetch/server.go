package fetch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	json "github.com/goccy/go-json"

	"github.com/foldview/foldview/pkg/model"
)

// fetchServer asks the listing service for the flattened tree in one round
// trip. Any transport or protocol error is returned for the caller to fall
// back on; this function never touches the open-state store.
func (c *Coordinator) fetchServer(ctx context.Context, id int64, root string, expanded map[string]struct{}, reveal string) ([]model.TreeEntry, error) {
	if c.baseURL == "" {
		return nil, errNoServer
	}

	openPaths := make([]string, 0, len(expanded))
	for p := range expanded {
		openPaths = append(openPaths, p)
	}
	sort.Strings(openPaths)

	body, err := json.Marshal(model.TreeRequest{
		Path:            root,
		OpenPaths:       openPaths,
		UpdatePath:      reveal,
		ClientRequestID: id,
	})
	if err != nil {
		return nil, fmt.Errorf("tree request: encode: %w", err)
	}

	total := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/tree", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("tree request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	reqStart := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tree request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("tree request: server returned %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("tree response: read: %w", err)
	}
	requestMs := msSince(reqStart)

	parseStart := time.Now()
	var tr model.TreeResponse
	if err := json.Unmarshal(raw, &tr); err != nil {
		return nil, fmt.Errorf("tree response: decode: %w", err)
	}

	c.sink.Emit(Timing{
		RequestID: id,
		Source:    SourceServer,
		RequestMs: requestMs,
		ParseMs:   msSince(parseStart),
		TotalMs:   msSince(total),
	})
	return tr.Items, nil
}
