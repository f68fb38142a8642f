// Package fslist provides single-level directory listings over a local root,
// plus a caching layer used by the client-fallback fetch strategy.
package fslist

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/foldview/foldview/pkg/model"
)

// Lister is the classic "list this directory" collaborator. Implementations
// return the immediate children of a root-relative path in canonical order:
// directories first, then case-sensitive lexicographic by name.
type Lister interface {
	List(path string) ([]model.TreeEntry, error)
}

// DirLister lists directories beneath a filesystem root.
type DirLister struct {
	root        string
	allowHidden bool
}

// NewDirLister creates a lister serving the given OS directory. Hidden
// entries (dot-prefixed) are filtered out unless allowHidden is set.
func NewDirLister(root string, allowHidden bool) *DirLister {
	return &DirLister{root: root, allowHidden: allowHidden}
}

// List returns the immediate children of path, sorted canonically. A path
// that is not a directory yields an empty listing, matching the listing
// service's behavior for files and vanished directories.
func (l *DirLister) List(path string) ([]model.TreeEntry, error) {
	path = model.Normalize(path)
	osPath := filepath.Join(l.root, filepath.FromSlash(path))

	info, err := os.Stat(osPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if !info.IsDir() {
		return nil, nil
	}

	dirents, err := os.ReadDir(osPath)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", path, err)
	}

	writable := isWritable(info)
	entries := make([]model.TreeEntry, 0, len(dirents))
	for _, d := range dirents {
		name := d.Name()
		if !l.allowHidden && strings.HasPrefix(name, ".") {
			continue
		}

		// Symlinks and special files are neither "file" nor "directory"
		// and are skipped, like the listing service does.
		var typ model.EntryType
		switch {
		case d.Type().IsDir():
			typ = model.EntryDirectory
		case d.Type().IsRegular():
			typ = model.EntryFile
		default:
			continue
		}

		entries = append(entries, model.TreeEntry{
			Path:     model.JoinPath(path, name),
			Name:     name,
			Type:     typ,
			Writable: writable,
		})
	}

	model.SortEntries(entries)
	return entries, nil
}

// isWritable is a best-effort writability check on the parent directory,
// derived from its permission bits.
func isWritable(info os.FileInfo) bool {
	return info.Mode().Perm()&0o200 != 0
}
