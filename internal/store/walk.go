package store

import (
	"context"
	"io/fs"
	"path/filepath"
)

// Walk visits every regular file under the tree root in lexical order.
// Directories, symlinks and other entry types carry no accounting weight
// and are skipped silently.
//
// The walk is a best-effort snapshot, not a transaction: entries routinely
// vanish between the directory listing and the metadata read when a
// reclaimer runs concurrently. Such entries, and unreadable directories,
// are reported to onSkip and the walk continues. A failure on the root
// itself aborts the walk, as does an error returned by visit.
func (t *Tree) Walk(ctx context.Context, visit func(path string, info fs.FileInfo) error, onSkip func(path string, err error)) error {
	return filepath.WalkDir(t.Root, func(path string, d fs.DirEntry, err error) error {
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		if err != nil {
			if path == t.Root {
				// Missing or unreadable store root: the node is
				// misconfigured or the disk is gone.
				return err
			}
			onSkip(path, err)
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			// Raced with a concurrent delete, or the metadata read
			// failed outright. Either way this entry contributes
			// nothing; a single lost entry must not sink the walk.
			onSkip(path, err)
			return nil
		}
		return visit(path, info)
	})
}
