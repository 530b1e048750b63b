package ledger

import (
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"testing"
	"time"
)

var lineRE = regexp.MustCompile(`^(\d+): (\S+) \((\d+)\) ([a-z ]+): (\d+)$`)

type entry struct {
	ts      int64
	program string
	pid     int
	label   string
	value   uint64
}

// readEntries parses the ledger file and fails the test on any line that
// does not match the record format.
func readEntries(t *testing.T, path string) []entry {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	var entries []entry
	for _, line := range strings.Split(strings.TrimSuffix(string(data), "\n"), "\n") {
		m := lineRE.FindStringSubmatch(line)
		if m == nil {
			t.Fatalf("ledger line %q does not match record format", line)
		}
		ts, _ := strconv.ParseInt(m[1], 10, 64)
		pid, _ := strconv.Atoi(m[3])
		value, _ := strconv.ParseUint(m[5], 10, 64)
		entries = append(entries, entry{ts: ts, program: m[2], pid: pid, label: m[4], value: value})
	}
	return entries
}

func TestRecordGroupFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bytes_processed")
	w, err := Open(path, "mako-gc")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	before := time.Now().Unix()
	if err := w.Record(100, 1100); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	after := time.Now().Unix()
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	entries := readEntries(t, path)
	if len(entries) != 4 {
		t.Fatalf("ledger has %d lines, want 4", len(entries))
	}

	wantLabels := []string{
		"current logical bytes processed",
		"total logical bytes deleted",
		"current physical bytes processed",
		"total physical bytes deleted",
	}
	wantValues := []uint64{100, 1100, 0, 0}
	for i, e := range entries {
		if e.label != wantLabels[i] {
			t.Errorf("line %d label = %q, want %q", i, e.label, wantLabels[i])
		}
		if e.value != wantValues[i] {
			t.Errorf("line %d value = %d, want %d", i, e.value, wantValues[i])
		}
		if e.program != "mako-gc" {
			t.Errorf("line %d program = %q, want %q", i, e.program, "mako-gc")
		}
		if e.pid != os.Getpid() {
			t.Errorf("line %d pid = %d, want %d", i, e.pid, os.Getpid())
		}
		// All four lines of a group share one timestamp.
		if e.ts != entries[0].ts {
			t.Errorf("line %d ts = %d, want %d", i, e.ts, entries[0].ts)
		}
	}
	if ts := entries[0].ts; ts < before || ts > after {
		t.Errorf("group timestamp %d outside [%d, %d]", ts, before, after)
	}
}

func TestRecordAppendsGroups(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bytes_processed")
	w, err := Open(path, "mako-gc")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer w.Close()

	if err := w.Record(10, 15); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if err := w.Record(20, 35); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	entries := readEntries(t, path)
	if len(entries) != 8 {
		t.Fatalf("ledger has %d lines, want 8", len(entries))
	}
	if entries[4].value != 20 {
		t.Errorf("second group current bytes = %d, want 20", entries[4].value)
	}
	if entries[5].value != 35 {
		t.Errorf("second group total bytes = %d, want 35", entries[5].value)
	}
}

func TestOpenPreservesExistingContent(t *testing.T) {
	// The ledger is shared with earlier tooling: opening it again must
	// append, never truncate.
	path := filepath.Join(t.TempDir(), "bytes_processed")

	w, err := Open(path, "mako_gc.sh")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := w.Record(512, 512); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	w.Close()

	w, err = Open(path, "mako-gc")
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	if err := w.Record(256, 768); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	w.Close()

	entries := readEntries(t, path)
	if len(entries) != 8 {
		t.Fatalf("ledger has %d lines, want 8", len(entries))
	}
	if entries[0].program != "mako_gc.sh" || entries[4].program != "mako-gc" {
		t.Errorf("program tags = %q, %q; want mako_gc.sh then mako-gc", entries[0].program, entries[4].program)
	}
	if entries[5].value != 768 {
		t.Errorf("cumulative total after reopen = %d, want 768", entries[5].value)
	}
}

func TestOpenCreatesMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bytes_processed")

	w, err := Open(path, "mako-gc")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if info.Size() != 0 {
		t.Errorf("new ledger size = %d, want 0", info.Size())
	}
}
