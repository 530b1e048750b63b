package manifest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"
)

func newTestWalker() *Walker {
	return New(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func seedFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
}

func TestRunManifestLines(t *testing.T) {
	root := t.TempDir()
	pathA := filepath.Join(root, "acct-1", "obj-1")
	pathB := filepath.Join(root, "acct-1", "00", "obj-2")
	seedFile(t, pathA, strings.Repeat("a", 100))
	seedFile(t, pathB, "bb")

	mtime := time.Unix(1700000000, 123456789)
	if err := os.Chtimes(pathA, mtime, mtime); err != nil {
		t.Fatalf("Chtimes failed: %v", err)
	}

	var buf bytes.Buffer
	sum, err := newTestWalker().Run(context.Background(), &buf, root)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if sum.Files != 2 {
		t.Errorf("Files = %d, want 2", sum.Files)
	}
	if sum.Warnings != 0 {
		t.Errorf("Warnings = %d, want 0", sum.Warnings)
	}

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("manifest has %d lines, want 2:\n%s", len(lines), buf.String())
	}

	byPath := make(map[string][]string)
	for _, line := range lines {
		cols := strings.Split(line, "\t")
		if len(cols) != 4 {
			t.Fatalf("line %q has %d columns, want 4", line, len(cols))
		}
		byPath[cols[0]] = cols
	}

	cols, ok := byPath[pathA]
	if !ok {
		t.Fatalf("manifest missing %s", pathA)
	}
	if cols[1] != "100" {
		t.Errorf("size column = %q, want 100", cols[1])
	}

	// The timestamp column carries nine fractional digits plus the
	// trailing zero, built from whatever mtime the filesystem stored.
	info, err := os.Stat(pathA)
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	mt := info.ModTime()
	wantTS := fmt.Sprintf("%d.%09d0", mt.Unix(), mt.Nanosecond())
	if cols[2] != wantTS {
		t.Errorf("mtime column = %q, want %q", cols[2], wantTS)
	}

	wantPhys := strconv.FormatInt(physicalKB(info), 10)
	if cols[3] != wantPhys {
		t.Errorf("physical column = %q, want %q", cols[3], wantPhys)
	}
}

func TestRunMultipleRoots(t *testing.T) {
	root1, root2 := t.TempDir(), t.TempDir()
	seedFile(t, filepath.Join(root1, "acct-1", "obj-1"), "first")
	seedFile(t, filepath.Join(root2, "acct-2", "obj-2"), "second")

	var buf bytes.Buffer
	sum, err := newTestWalker().Run(context.Background(), &buf, root1, root2)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if sum.Files != 2 {
		t.Errorf("Files = %d, want 2", sum.Files)
	}

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("manifest has %d lines, want 2", len(lines))
	}
	// Roots are walked in argument order.
	if !strings.HasPrefix(lines[0], root1) {
		t.Errorf("first line %q not under first root %q", lines[0], root1)
	}
	if !strings.HasPrefix(lines[1], root2) {
		t.Errorf("second line %q not under second root %q", lines[1], root2)
	}
}

func TestRunMissingRootWarns(t *testing.T) {
	good := t.TempDir()
	seedFile(t, filepath.Join(good, "acct-1", "obj-1"), "x")
	absent := filepath.Join(t.TempDir(), "absent")

	var buf bytes.Buffer
	sum, err := newTestWalker().Run(context.Background(), &buf, absent, good)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if sum.Warnings != 1 {
		t.Errorf("Warnings = %d, want 1", sum.Warnings)
	}
	// The remaining roots are still listed.
	if sum.Files != 1 {
		t.Errorf("Files = %d, want 1", sum.Files)
	}
}

func TestRunSkipsNonRegular(t *testing.T) {
	root := t.TempDir()
	target := filepath.Join(root, "acct-1", "obj-1")
	seedFile(t, target, "x")
	link := filepath.Join(root, "acct-1", "obj-link")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks unsupported here: %v", err)
	}

	var buf bytes.Buffer
	sum, err := newTestWalker().Run(context.Background(), &buf, root)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if sum.Files != 1 {
		t.Errorf("Files = %d, want 1", sum.Files)
	}
	if strings.Contains(buf.String(), link) {
		t.Errorf("symlink %s listed in manifest", link)
	}
}
