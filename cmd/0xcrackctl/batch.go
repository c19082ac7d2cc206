package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/RowanDark/0xcrack/internal/batch"
	"github.com/RowanDark/0xcrack/internal/config"
	"github.com/RowanDark/0xcrack/internal/logging"
)

func runBatch(args []string) int {
	fs := newFlagSet("batch")
	in := fs.String("in", "", "JSONL job file (use - for stdin)")
	out := fs.String("out", "", "write results to file instead of stdout")
	workers := fs.Int("workers", 0, "worker count (default from config)")
	timeout := fs.Duration("timeout", 0, "per-job timeout (default from config)")
	auditPath := fs.String("audit", "", "append batch audit events to this file")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if strings.TrimSpace(*in) == "" {
		fmt.Fprintln(os.Stderr, "batch: --in is required")
		return 2
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		return 1
	}
	if *workers <= 0 {
		*workers = cfg.Batch.Workers
	}
	if *timeout <= 0 {
		*timeout = cfg.Batch.JobTimeout
	}

	var src io.Reader = os.Stdin
	if *in != "-" {
		f, err := os.Open(*in)
		if err != nil {
			fmt.Fprintf(os.Stderr, "batch: %v\n", err)
			return 1
		}
		defer f.Close()
		src = f
	}
	jobs, err := batch.ParseJobs(src, cfg.Batch.MaxLineBytes)
	if err != nil {
		fmt.Fprintf(os.Stderr, "batch: %v\n", err)
		return 1
	}

	var logger *logging.AuditLogger
	if path := strings.TrimSpace(*auditPath); path != "" {
		logger, err = logging.NewAuditLogger("0xcrackctl", logging.WithFile(path), logging.WithoutStdout())
		if err != nil {
			fmt.Fprintf(os.Stderr, "batch: open audit log: %v\n", err)
			return 1
		}
		defer logger.Close()
	}

	var dst io.Writer = os.Stdout
	if path := strings.TrimSpace(*out); path != "" {
		f, err := os.Create(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "batch: %v\n", err)
			return 1
		}
		defer f.Close()
		dst = f
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := batch.NewRunner(batch.Options{Workers: *workers, JobTimeout: *timeout, Logger: logger})
	results, summary := runner.Run(ctx, jobs)
	if err := batch.WriteResults(dst, jobs, results); err != nil {
		fmt.Fprintf(os.Stderr, "batch: %v\n", err)
		return 1
	}

	fmt.Fprintf(os.Stderr, "batch: %d jobs, %d succeeded, %d failed, %d canceled\n",
		summary.Total, summary.Succeeded, summary.Failed, summary.Canceled)
	if summary.Failed > 0 || summary.Canceled > 0 {
		return 1
	}
	return 0
}
