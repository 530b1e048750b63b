// Package manifest lists every object in one or more store trees, one
// line per file, as consumed by offline audit and accounting jobs.
//
// Each line is tab separated: absolute path, logical size in bytes, time
// of last modification, and physical size in kilobytes. The timestamp
// carries nine fractional digits plus a trailing zero, matching the
// format GNU find prints, so downstream parsers see one stable shape
// regardless of which tool produced the manifest.
package manifest

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"path/filepath"
)

// Summary reports what a manifest run covered.
type Summary struct {
	// Files is the number of manifest lines written.
	Files int
	// Warnings counts entries that could not be read or statted. A
	// manifest produced with warnings is incomplete and callers should
	// treat it as suspect.
	Warnings int
}

// Walker produces manifests over store trees.
type Walker struct {
	log *slog.Logger
}

// New returns a Walker that reports problems through log.
func New(log *slog.Logger) *Walker {
	return &Walker{log: log}
}

// Run walks each root in order and writes one manifest line per regular
// file to out. Unreadable directories and failed metadata reads are
// logged and counted; the walk moves on. A failed write to out aborts
// the run immediately, because a manifest missing even one line
// misrepresents the tree. The walk does not follow symlinks and does not
// cross filesystem boundaries.
func (w *Walker) Run(ctx context.Context, out io.Writer, roots ...string) (*Summary, error) {
	sum := &Summary{}
	buf := bufio.NewWriter(out)
	for _, root := range roots {
		if err := w.walkRoot(ctx, buf, root, sum); err != nil {
			return sum, err
		}
	}
	if err := buf.Flush(); err != nil {
		return sum, fmt.Errorf("flushing manifest: %w", err)
	}
	return sum, nil
}

func (w *Walker) walkRoot(ctx context.Context, out *bufio.Writer, root string, sum *Summary) error {
	warn := func(msg string, attrs ...any) {
		sum.Warnings++
		w.log.Warn(msg, attrs...)
	}

	var rootDev uint64
	var haveRootDev bool

	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		if err != nil {
			if d == nil {
				warn("error traversing root", "root", root, "error", err)
			} else {
				warn("unable to read directory", "path", path, "error", err)
			}
			return nil
		}

		switch {
		case d.IsDir():
			info, ierr := d.Info()
			if ierr != nil {
				warn("stat failed", "path", path, "error", ierr)
				return fs.SkipDir
			}
			dev, ok := device(info)
			if path == root {
				rootDev, haveRootDev = dev, ok
				return nil
			}
			// A different device id means a foreign filesystem is
			// mounted under the tree; its contents are not ours.
			if ok && haveRootDev && dev != rootDev {
				return fs.SkipDir
			}
			return nil

		case d.Type().IsRegular():
			info, ierr := d.Info()
			if ierr != nil {
				warn("stat failed", "path", path, "error", ierr)
				return nil
			}
			mt := info.ModTime()
			_, werr := fmt.Fprintf(out, "%s\t%d\t%d.%09d0\t%d\n",
				path, info.Size(), mt.Unix(), mt.Nanosecond(), physicalKB(info))
			if werr != nil {
				warn("failed to print manifest line", "path", path, "error", werr)
				return fmt.Errorf("writing manifest line for %s: %w", path, werr)
			}
			sum.Files++
			return nil

		default:
			// Symlinks and other non-file entries carry no object data.
			return nil
		}
	})
}

// physicalKB returns the file's physical size in kilobytes, rounded up
// from its 512-byte sector count.
func physicalKB(info fs.FileInfo) int64 {
	b := blocks(info)
	return b/2 + b%2
}
