// Package main is the entry point for mako-gc, the object reclaimer for a
// mako storage node.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/makostore/mako/internal/cli"
	"github.com/makostore/mako/internal/config"
	"github.com/makostore/mako/internal/logging"
	"github.com/makostore/mako/internal/reclaim"
	"github.com/makostore/mako/internal/store"
	"github.com/makostore/mako/internal/uid"
)

const usage = "Usage: mako-gc [flags] <batch-file> <node-id> <starting-total>"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("mako-gc", flag.ExitOnError)
	configPath := fs.String("config", config.DefaultPath, "path to configuration file")
	storeRoot := fs.String("store-root", "", "override object store root directory")
	ledgerPath := fs.String("ledger", "", "override usage ledger path")
	logLevel := fs.String("log-level", "", "log level: debug, info, warn, error")
	logFormat := fs.String("log-format", "", "log format: text, json")
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), usage)
		fs.PrintDefaults()
	}
	fs.Parse(args)

	if fs.NArg() != 3 {
		fmt.Fprintln(os.Stderr, usage)
		return cli.ExitFault
	}
	batchPath := fs.Arg(0)
	nodeID := fs.Arg(1)
	startingTotal, err := strconv.ParseUint(fs.Arg(2), 10, 64)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid starting total %q: %v\n", fs.Arg(2), err)
		return cli.ExitFault
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		return cli.ExitFault
	}

	// Command-line flags override config file values.
	if *storeRoot != "" {
		cfg.Store.Root = *storeRoot
	}
	if *ledgerPath != "" {
		cfg.Ledger.Path = *ledgerPath
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	if *logFormat != "" {
		cfg.Logging.Format = *logFormat
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format, os.Stderr)
	log := slog.Default().With("run_id", uid.New(), "node_id", nodeID)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rec := reclaim.New(log, store.New(cfg.Store.Root), cfg.Ledger.Path, cfg.Ledger.Program)
	sum, err := rec.Run(ctx, batchPath, nodeID, startingTotal)
	if err != nil {
		fmt.Fprintf(os.Stderr, "mako-gc: %v\n", err)
		return cli.CodeFor(err)
	}
	if sum.Malformed > 0 {
		// The batch was consumed, but the supervisor should keep it
		// around for inspection rather than rotating it away.
		return cli.ExitMalformed
	}
	return cli.ExitOK
}
