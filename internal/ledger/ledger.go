// Package ledger appends byte-accounting records to the node's reclamation
// ledger.
//
// The ledger is a flat, append-only text file at a fixed external location,
// shared with whatever earlier tooling wrote to it and never rotated by
// this system. It records events, not state: the running total in each
// record group is seeded from a caller-supplied prior total, and readers
// that want "bytes freed so far" take the last total they can find.
package ledger

import (
	"bytes"
	"fmt"
	"os"
	"time"
)

// Writer appends record groups to the ledger file. One Writer belongs to
// one reclaimer run; concurrent runs on a shared host each open their own
// and rely on O_APPEND for interleaving safety.
type Writer struct {
	f       *os.File
	program string
	pid     int
}

// Open opens the ledger file for appending, creating it if it does not
// exist yet. The program tag is written into every line so ledger
// consumers can attribute entries when several tools share the file.
func Open(path, program string) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening ledger %q: %w", path, err)
	}
	return &Writer{
		f:       f,
		program: program,
		pid:     os.Getpid(),
	}, nil
}

// Record appends the four-line record group for one reclaimed object:
// current logical bytes, cumulative logical bytes, then the two physical
// byte lines that are fixed at zero until physical accounting exists. All
// four lines carry the same timestamp and pid and go down in a single
// write call, so groups from concurrent reclaimer processes cannot
// interleave partially.
//
// Callers append the group before deleting the object; a crash between the
// two may double-log on retry but never loses accounting for a completed
// calculation.
func (w *Writer) Record(currentBytes, totalBytes uint64) error {
	ts := time.Now().Unix()

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%d: %s (%d) current logical bytes processed: %d\n", ts, w.program, w.pid, currentBytes)
	fmt.Fprintf(&buf, "%d: %s (%d) total logical bytes deleted: %d\n", ts, w.program, w.pid, totalBytes)
	fmt.Fprintf(&buf, "%d: %s (%d) current physical bytes processed: 0\n", ts, w.program, w.pid)
	fmt.Fprintf(&buf, "%d: %s (%d) total physical bytes deleted: 0\n", ts, w.program, w.pid)

	if _, err := w.f.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("appending to ledger: %w", err)
	}
	return nil
}

// Close closes the underlying ledger file.
func (w *Writer) Close() error {
	if err := w.f.Close(); err != nil {
		return fmt.Errorf("closing ledger: %w", err)
	}
	return nil
}
