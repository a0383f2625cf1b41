package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/RowanDark/adfgvx/internal/batch"
)

func runBatch(args []string, stdout, stderr io.Writer) int {
	cfg, ok := loadConfig(stderr)
	if !ok {
		return 1
	}

	fs := flag.NewFlagSet("batch", flag.ContinueOnError)
	fs.SetOutput(stderr)
	in := fs.String("in", "-", "JSON Lines job file, or - for stdin")
	out := fs.String("out", "-", "file to write JSON Lines outcomes to, or - for stdout")
	workers := fs.Int("workers", cfg.Workers, "jobs deciphered concurrently")
	capacity := fs.Int("capacity", cfg.Capacity, "maximum plaintext characters per job")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(stderr, "batch takes no positional arguments")
		return 2
	}
	if *workers <= 0 {
		fmt.Fprintln(stderr, "--workers must be positive")
		return 2
	}

	var src io.Reader = stdin
	if *in != "-" {
		f, err := os.Open(*in)
		if err != nil {
			fmt.Fprintf(stderr, "open jobs: %v\n", err)
			return 1
		}
		defer f.Close()
		src = f
	}
	jobs, err := batch.ReadJobs(src)
	if err != nil {
		fmt.Fprintf(stderr, "read jobs: %v\n", err)
		return 1
	}

	audit, err := openAudit(cfg.AuditLog, "batch")
	if err != nil {
		fmt.Fprintf(stderr, "open audit log: %v\n", err)
		return 1
	}
	defer audit.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	runner := batch.NewRunner(
		batch.WithWorkers(*workers),
		batch.WithAuditLogger(audit),
		batch.WithCipherOptions(capacityOptions(*capacity)...),
	)
	outcomes, runErr := runner.Run(ctx, jobs)

	dst := stdout
	if *out != "-" {
		f, err := os.Create(*out)
		if err != nil {
			fmt.Fprintf(stderr, "create outcomes: %v\n", err)
			return 1
		}
		defer f.Close()
		dst = f
	}
	if err := batch.WriteOutcomes(dst, outcomes); err != nil {
		fmt.Fprintf(stderr, "write outcomes: %v\n", err)
		return 1
	}

	failed := 0
	for _, o := range outcomes {
		if o.Err != nil {
			failed++
		}
	}
	if runErr != nil {
		fmt.Fprintf(stderr, "batch interrupted: %v\n", runErr)
		return 1
	}
	if failed > 0 {
		fmt.Fprintf(stderr, "%d of %d jobs failed\n", failed, len(outcomes))
		return 1
	}
	return 0
}
