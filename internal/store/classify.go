package store

import (
	"fmt"
	"path/filepath"
	"strings"
)

// versionMarker is the directory segment that introduces the versioned
// ("v2") path layout. The store has gone through a layout migration and
// both layouts coexist on one node indefinitely, so the marker is
// re-checked on every classification rather than assumed globally.
const versionMarker = "v2"

// Account determines the owning account for an absolute path under the
// store root. Two layouts are recognized:
//
//	<root>/<account>/...       legacy layout
//	<root>/v2/<account>/...    versioned layout
//
// It fails on structurally invalid input: a path outside the root, the root
// itself, or a v2 path with nothing after the marker. It performs no
// UUID-shape validation; whatever segment sits in the account position is
// the account.
func (t *Tree) Account(path string) (string, error) {
	rel, ok := t.relative(path)
	if !ok {
		return "", fmt.Errorf("path %q is not under store root %q", path, t.Root)
	}
	if rel == "" {
		return "", fmt.Errorf("path %q is the store root, not an object path", path)
	}

	first, rest, _ := strings.Cut(rel, string(filepath.Separator))
	if first != versionMarker {
		return first, nil
	}

	account, _, _ := strings.Cut(rest, string(filepath.Separator))
	if account == "" {
		return "", fmt.Errorf("path %q has no account segment after the %q marker", path, versionMarker)
	}
	return account, nil
}

// relative returns path relative to the root, with ok reporting whether
// path is the root or below it. The comparison is lexical: the walk hands
// us paths it built from the root itself, so no symlink resolution is
// needed.
func (t *Tree) relative(path string) (rel string, ok bool) {
	path = filepath.Clean(path)
	if path == t.Root {
		return "", true
	}
	prefix := t.Root + string(filepath.Separator)
	if !strings.HasPrefix(path, prefix) {
		return "", false
	}
	return path[len(prefix):], true
}
