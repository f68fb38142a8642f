package fetch

import (
	"fmt"

	"github.com/foldview/foldview/pkg/model"
	"github.com/foldview/foldview/pkg/openstate"
)

// fetchFallback rebuilds the flattened tree client-side: depth-first,
// pre-order, listing one directory at a time through the cached lister.
// It descends into a directory when the snapshot has it open or when it is
// a prefix of the path being revealed, which is exactly the membership rule
// of the expanded-path set, so the ordering and the post-reconcile store
// state match the server strategy for equivalent inputs.
//
// The snapshot is taken by the caller before the server attempt; reading
// from it keeps a toggle that lands between listing calls invisible until
// this traversal's result is committed.
func (c *Coordinator) fetchFallback(root, reveal string, snap openstate.Snapshot) ([]model.TreeEntry, error) {
	if c.lister == nil {
		return nil, fmt.Errorf("fallback: no directory lister configured")
	}
	var out []model.TreeEntry
	if err := c.descend(root, reveal, snap, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Coordinator) descend(path, reveal string, snap openstate.Snapshot, out *[]model.TreeEntry) error {
	children, err := c.lister.List(path)
	if err != nil {
		return fmt.Errorf("fallback: %w", err)
	}
	for _, child := range children {
		*out = append(*out, child)
		if child.IsDir() && c.shouldDescend(child.Path, reveal, snap) {
			// Splice the subtree immediately after its directory row,
			// preserving pre-order.
			if err := c.descend(child.Path, reveal, snap, out); err != nil {
				return err
			}
		}
	}
	return nil
}

func (c *Coordinator) shouldDescend(path, reveal string, snap openstate.Snapshot) bool {
	return snap.IsOpen(path) || model.IsPathPrefix(path, reveal)
}
