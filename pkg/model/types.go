package model

import (
	"fmt"
	"sort"
)

// EntryType categorizes a tree entry.
type EntryType string

const (
	EntryFile      EntryType = "file"
	EntryDirectory EntryType = "directory"
)

// IsValid returns true if the entry type is a recognized value.
func (t EntryType) IsValid() bool {
	return t == EntryFile || t == EntryDirectory
}

// TreeEntry is one row of a flattened tree listing. Path is slash-separated,
// root-relative and unique per entry; it never starts or ends with a slash.
type TreeEntry struct {
	Path     string    `json:"path"`
	Name     string    `json:"name"`
	Type     EntryType `json:"type"`
	Writable bool      `json:"writable,omitempty"`
}

// IsDir returns true if the entry is a directory.
func (e TreeEntry) IsDir() bool {
	return e.Type == EntryDirectory
}

// Validate checks if the entry data is logically valid.
func (e *TreeEntry) Validate() error {
	if e.Name == "" {
		return fmt.Errorf("entry name cannot be empty")
	}
	if !e.Type.IsValid() {
		return fmt.Errorf("invalid entry type: %s", e.Type)
	}
	if e.Path != Normalize(e.Path) {
		return fmt.Errorf("entry path %q is not normalized", e.Path)
	}
	return nil
}

// TreeRequest is the body of a POST /tree call to the listing service.
type TreeRequest struct {
	Path            string   `json:"path"`
	OpenPaths       []string `json:"open_paths"`
	UpdatePath      string   `json:"update_path"`
	ClientRequestID int64    `json:"client_request_id"`
}

// TreeResponse is the listing service's reply: a flattened, depth-first,
// pre-order list covering every expanded path and its immediate children.
type TreeResponse struct {
	Items []TreeEntry `json:"items"`
}

// SortEntries orders entries canonically: directories before files, then
// case-sensitive lexicographic by name. The sort is stable so equal names
// keep their incoming order.
func SortEntries(entries []TreeEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		di, dj := entries[i].IsDir(), entries[j].IsDir()
		if di != dj {
			return di
		}
		return entries[i].Name < entries[j].Name
	})
}
