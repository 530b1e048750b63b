// Package main is the entry point for mako-rollup, the per-account usage
// aggregator for a mako storage node.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/makostore/mako/internal/cli"
	"github.com/makostore/mako/internal/config"
	"github.com/makostore/mako/internal/logging"
	"github.com/makostore/mako/internal/rollup"
	"github.com/makostore/mako/internal/store"
	"github.com/makostore/mako/internal/uid"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("mako-rollup", flag.ExitOnError)
	configPath := fs.String("config", config.DefaultPath, "path to configuration file")
	storeRoot := fs.String("store-root", "", "override object store root directory")
	output := fs.String("output", "", "write the metrics document to this file instead of stdout")
	logLevel := fs.String("log-level", "", "log level: debug, info, warn, error")
	logFormat := fs.String("log-format", "", "log format: text, json")
	fs.Parse(args)

	if fs.NArg() != 0 {
		fmt.Fprintf(os.Stderr, "mako-rollup takes no positional arguments, got %d\n", fs.NArg())
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
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	if *logFormat != "" {
		cfg.Logging.Format = *logFormat
	}

	// Logs go to stderr; stdout carries the metrics document.
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format, os.Stderr)
	log := slog.Default().With("run_id", uid.New())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	agg := rollup.New(log, store.New(cfg.Store.Root))
	rep, err := agg.Run(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "mako-rollup: %v\n", err)
		return cli.CodeFor(err)
	}

	if *output != "" {
		if err := rep.WriteFile(*output); err != nil {
			fmt.Fprintf(os.Stderr, "mako-rollup: %v\n", err)
			return cli.ExitFault
		}
		return cli.ExitOK
	}
	if err := rep.Render(os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "mako-rollup: %v\n", err)
		return cli.ExitFault
	}
	return cli.ExitOK
}
