// Package store provides read/delete access to the object store tree on a
// mako node.
//
// The tree is authoritative and externally mutable: uploads land in it and
// other maintenance processes delete from it while we look. Every operation
// here therefore treats "file is gone" as an expected outcome rather than
// an error.
package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Tree is the object store tree rooted at a node's store root. Objects are
// plain files; the path layout below the root attributes them to accounts
// (see Account).
//
// Unlike a storage frontend, the maintenance layer never creates the root:
// a node whose store root is missing is broken, and hiding that behind a
// MkdirAll would turn a loud misconfiguration into a silently empty report.
type Tree struct {
	// Root is the object store root directory.
	Root string
}

// New returns a Tree rooted at the given directory.
func New(root string) *Tree {
	return &Tree{Root: filepath.Clean(root)}
}

// ObjectPath returns the full filesystem path for an object, composed from
// the owner and object identifiers carried by a deletion instruction.
func (t *Tree) ObjectPath(owner, object string) string {
	return filepath.Join(t.Root, owner, object)
}

// Size returns the logical size in bytes of the object file at path.
// Callers distinguish the expected-absence case with
// errors.Is(err, fs.ErrNotExist); any other failure means the size is
// unknown, not zero.
func (t *Tree) Size(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, err
		}
		return 0, fmt.Errorf("stat object %q: %w", path, err)
	}
	return info.Size(), nil
}

// Remove deletes the object file at path. Idempotent: removing a file that
// is already gone is not an error, since a concurrent reclaimer or a retried
// batch may have beaten us to it. Any other failure is returned and is a
// hard fault for the caller.
func (t *Tree) Remove(path string) error {
	err := os.Remove(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing object %q: %w", path, err)
	}
	return nil
}
