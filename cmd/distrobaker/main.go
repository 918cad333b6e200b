// Package main is the entry point for distrobaker, the one-way VCS,
// lookaside-cache, and build-submission synchronizer between a source
// and a destination distribution.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/release-engineering/distrobaker/pkg/logger"
)

const (
	serviceName    = "distrobaker"
	serviceVersion = "1.0.0"
)

func main() {
	var (
		configRepoURL = flag.String("config", os.Getenv("DISTROBAKER_CONFIG"), "config repository URL (\"link#ref\")")
		retries       = flag.Int("retries", 3, "retry count for transient VCS/RPC/lookaside failures")
		dryRun        = flag.Bool("dry-run", false, "log the actions this invocation would take without pushing or submitting builds")
		historyDB     = flag.String("history-db", os.Getenv("DISTROBAKER_HISTORY_DB"), "sqlite file backing the sync-run audit log (\":memory:\" to discard on exit)")
		logLevel      = flag.String("log-level", "info", "log level: debug, info, warn, error")
		logFormat     = flag.String("log-format", "json", "log format: json or text")
		showVersion   = flag.Bool("version", false, "show version information")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s version %s\n", serviceName, serviceVersion)
		os.Exit(0)
	}

	log := logger.NewLogger(logger.Config{Level: *logLevel, Format: *logFormat, Output: "stdout"})

	if *configRepoURL == "" {
		log.Error("--config (or DISTROBAKER_CONFIG) is required")
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cli, err := NewCLI(ctx, *configRepoURL, *retries, *dryRun, *historyDB, log)
	if err != nil {
		log.Error("failed to start", "error", err)
		os.Exit(1)
	}
	defer cli.eng.Close()

	root := cli.GetRootCommand()
	root.SetArgs(flag.Args())
	if err := root.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
