// Package main is the entry point for mako-find, the object manifest
// walker. It exists because find(1) variants that build an in-memory
// picture of the tree fall over on stores with very large object counts;
// this tool streams.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/makostore/mako/internal/logging"
	"github.com/makostore/mako/internal/manifest"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("mako-find", flag.ExitOnError)
	logLevel := fs.String("log-level", "info", "log level: debug, info, warn, error")
	logFormat := fs.String("log-format", "text", "log format: text, json")
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "Usage: mako-find [flags] dir1 dir2 ... dirN")
		fs.PrintDefaults()
	}
	fs.Parse(args)

	if fs.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Usage: mako-find [flags] dir1 dir2 ... dirN")
		return 1
	}

	// Logs go to stderr; stdout carries the manifest.
	logging.Setup(*logLevel, *logFormat, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sum, err := manifest.New(slog.Default()).Run(ctx, os.Stdout, fs.Args()...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "mako-find: %v\n", err)
		return 1
	}
	if sum.Warnings > 0 {
		return 1
	}
	return 0
}
