// Package reclaim implements the instruction-driven object reclaimer.
//
// An upstream garbage-collection authority decides which objects are dead
// and materializes its decisions as instruction batch files; this package
// consumes one batch, deletes the qualifying objects from the local store
// tree, and accounts every freed byte to the reclamation ledger. It makes
// no judgement about whether an instruction is authorized: by the time a
// batch reaches a node, that decision has been made.
package reclaim

import (
	"bufio"
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/makostore/mako/internal/cli"
	"github.com/makostore/mako/internal/ledger"
	"github.com/makostore/mako/internal/store"
)

// instructionFields is the minimum field count of a well-formed instruction
// line: an unused leading field, the node id, the owner id and the object
// id. Anything after the fourth field is ignored.
const instructionFields = 4

// Reclaimer processes deletion instruction batches against one node's
// object store tree.
type Reclaimer struct {
	log     *slog.Logger
	tree    *store.Tree
	ledger  string
	program string
}

// New returns a Reclaimer over the given tree that appends its accounting
// to the ledger file at ledgerPath, tagging lines with program.
func New(log *slog.Logger, tree *store.Tree, ledgerPath, program string) *Reclaimer {
	return &Reclaimer{
		log:     log,
		tree:    tree,
		ledger:  ledgerPath,
		program: program,
	}
}

// Summary describes the outcome of one batch run. Per-line recoverable
// conditions are counted here instead of surfacing as errors; the caller
// picks the process exit status from it.
type Summary struct {
	// BatchMissing is set when the batch file did not exist, which is the
	// normal state between upstream deliveries. Nothing else happens in
	// that case: the ledger is not even opened.
	BatchMissing bool
	// Lines is the number of instruction lines read.
	Lines int
	// Malformed counts lines with fewer than four fields. They never
	// abort the batch but they change the exit status so the supervisor
	// preserves the file for inspection.
	Malformed int
	// SkippedNode counts well-formed lines addressed to other nodes.
	SkippedNode int
	// AlreadyAbsent counts target objects that were gone before we got
	// to them: a prior run or a concurrent reclaimer won the race.
	AlreadyAbsent int
	// SizeUnknown counts objects whose size lookup failed for a reason
	// other than absence. Their contribution is recorded as zero, which
	// understates reclaimed capacity.
	SizeUnknown int
	// Deleted is the number of object files removed.
	Deleted int
	// BytesFreed is the logical byte total freed by this run.
	BytesFreed uint64
	// FinalTotal is the cumulative logical byte total after this run,
	// i.e. the caller-supplied starting total plus BytesFreed. The next
	// invocation supplies it back as its starting total.
	FinalTotal uint64
}

// Run processes the batch file at batchPath in file order, applying every
// instruction addressed to nodeID. startingTotal is the cumulative byte
// total carried forward from the previous invocation; this system keeps no
// counter state of its own.
//
// Recoverable per-line conditions are counted in the Summary and processing
// continues. A returned error is a resource fault (unreadable batch,
// unwritable ledger, or a delete failure other than not-found) and means
// the run aborted; deletions already applied are final.
func (r *Reclaimer) Run(ctx context.Context, batchPath, nodeID string, startingTotal uint64) (*Summary, error) {
	sum := &Summary{FinalTotal: startingTotal}

	f, err := os.Open(batchPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// Expected between upstream deliveries.
			r.log.Info("no instruction batch, nothing to reclaim", "batch", batchPath)
			sum.BatchMissing = true
			return sum, nil
		}
		return sum, cli.Exitf(cli.ExitFault, "opening batch file %q: %w", batchPath, err)
	}
	defer f.Close()

	led, err := ledger.Open(r.ledger, r.program)
	if err != nil {
		return sum, err
	}
	defer led.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		sum.Lines++
		if err := r.apply(led, scanner.Text(), nodeID, sum); err != nil {
			return sum, err
		}
	}
	if err := scanner.Err(); err != nil {
		return sum, cli.Exitf(cli.ExitFault, "reading batch file %q: %w", batchPath, err)
	}

	r.log.Info("batch complete",
		"lines", sum.Lines,
		"deleted", sum.Deleted,
		"skipped_other_node", sum.SkippedNode,
		"already_absent", sum.AlreadyAbsent,
		"malformed", sum.Malformed,
		"size_unknown", sum.SizeUnknown,
		"bytes_freed", humanize.IBytes(sum.BytesFreed),
		"total_bytes", sum.FinalTotal,
	)
	return sum, nil
}

// apply executes a single instruction line. Recoverable outcomes are
// recorded in sum and return nil; a non-nil return is a resource fault that
// aborts the batch.
func (r *Reclaimer) apply(led *ledger.Writer, line, nodeID string, sum *Summary) error {
	fields := strings.Fields(line)
	if len(fields) < instructionFields {
		sum.Malformed++
		r.log.Warn("malformed instruction", "line", sum.Lines, "fields", len(fields))
		return nil
	}
	if fields[1] != nodeID {
		// Shared batch files carry instructions for several nodes.
		sum.SkippedNode++
		return nil
	}

	owner, object := fields[2], fields[3]
	path := r.tree.ObjectPath(owner, object)
	r.log.Debug("processing instruction", "line", sum.Lines, "owner", owner, "object", object)

	size, err := r.tree.Size(path)
	switch {
	case err == nil:
	case errors.Is(err, fs.ErrNotExist):
		// A prior run or a concurrent reclaimer got here first.
		sum.AlreadyAbsent++
		r.log.Info("object already absent", "path", path)
		return nil
	default:
		sum.SizeUnknown++
		r.log.Warn("size lookup failed, accounting zero bytes", "path", path, "error", err)
		size = 0
	}

	sum.BytesFreed += uint64(size)
	sum.FinalTotal += uint64(size)

	// Ledger before delete: a crash between the two may double-log on
	// retry, but never loses accounting for a completed calculation.
	if err := led.Record(uint64(size), sum.FinalTotal); err != nil {
		return err
	}
	if err := r.tree.Remove(path); err != nil {
		return err
	}

	sum.Deleted++
	r.log.Debug("reclaimed object", "path", path, "bytes", size)
	return nil
}
