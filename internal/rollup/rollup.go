// Package rollup computes per-account capacity usage for one mako node.
//
// Every run is a stateless full recomputation: walk the whole object store
// tree, attribute each regular file to its owning account, and render the
// totals as a Prometheus text snapshot. Nothing is carried between runs:
// the filesystem is the only source of truth and the previous report is
// simply superseded.
package rollup

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dustin/go-humanize"

	"github.com/makostore/mako/internal/store"
)

// AccountUsage accumulates one account's running totals during a walk.
type AccountUsage struct {
	Bytes   uint64
	Objects uint64
}

// Report is the outcome of one rollup run.
type Report struct {
	// Accounts maps account identifiers to their usage. Keys are unique;
	// iteration order is meaningless and consumers of the rendered
	// document must not rely on sample ordering.
	Accounts map[string]*AccountUsage
	// Duration is the wall-clock time the walk took.
	Duration time.Duration
	// Completed is when the run finished.
	Completed time.Time
	// Skipped counts entries that vanished or were unreadable mid-walk.
	// They contribute nothing; a concurrent reclaimer is the usual cause.
	Skipped int
	// Unattributed counts regular files whose path could not be
	// classified to an account.
	Unattributed int
}

// Totals returns the byte and object counts summed across all accounts.
func (rep *Report) Totals() (bytes, objects uint64) {
	for _, u := range rep.Accounts {
		bytes += u.Bytes
		objects += u.Objects
	}
	return bytes, objects
}

// Aggregator walks a store tree and rolls its contents up by account.
type Aggregator struct {
	log  *slog.Logger
	tree *store.Tree
}

// New returns an Aggregator over the given tree.
func New(log *slog.Logger, tree *store.Tree) *Aggregator {
	return &Aggregator{log: log, tree: tree}
}

// Run walks the entire tree and returns the per-account usage report. The
// walk is a best-effort snapshot with respect to concurrent mutation:
// entries that vanish or fail their metadata read are counted as skipped
// and the walk continues. Only a missing or unreadable store root, or a
// cancelled context, aborts the run.
func (a *Aggregator) Run(ctx context.Context) (*Report, error) {
	start := time.Now()
	rep := &Report{Accounts: make(map[string]*AccountUsage)}

	err := a.tree.Walk(ctx,
		func(path string, info fs.FileInfo) error {
			account, err := a.tree.Account(path)
			if err != nil {
				rep.Unattributed++
				a.log.Warn("file without an owning account", "path", path, "error", err)
				return nil
			}
			// Label values must be valid UTF-8 for the exposition
			// encoder; merge anything else under the replacement rune.
			account = strings.ToValidUTF8(account, string(utf8.RuneError))

			u := rep.Accounts[account]
			if u == nil {
				u = &AccountUsage{}
				rep.Accounts[account] = u
			}
			u.Bytes += uint64(info.Size())
			u.Objects++
			return nil
		},
		func(path string, err error) {
			rep.Skipped++
			if errors.Is(err, fs.ErrNotExist) {
				a.log.Debug("entry vanished mid-walk", "path", path)
			} else {
				a.log.Warn("unreadable entry skipped", "path", path, "error", err)
			}
		},
	)
	if err != nil {
		return nil, err
	}

	rep.Duration = time.Since(start)
	rep.Completed = time.Now()

	bytes, objects := rep.Totals()
	a.log.Info("rollup complete",
		"accounts", len(rep.Accounts),
		"objects", objects,
		"bytes", humanize.IBytes(bytes),
		"skipped", rep.Skipped,
		"unattributed", rep.Unattributed,
		"duration", rep.Duration,
	)
	return rep, nil
}
