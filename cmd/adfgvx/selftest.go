package main

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/RowanDark/adfgvx/internal/selftest"
)

func runSelftest(args []string, stdout, stderr io.Writer) int {
	cfg, ok := loadConfig(stderr)
	if !ok {
		return 1
	}

	fs := flag.NewFlagSet("selftest", flag.ContinueOnError)
	fs.SetOutput(stderr)
	files := fs.Bool("files", true, "include the file round-trip check")
	timeLimit := fs.Duration("time-limit", selftest.DefaultTimeLimit, "budget for enciphering a full-capacity message")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(stderr, "selftest takes no positional arguments")
		return 2
	}

	audit, err := openAudit(cfg.AuditLog, "selftest")
	if err != nil {
		fmt.Fprintf(stderr, "open audit log: %v\n", err)
		return 1
	}
	defer audit.Close()

	opts := []selftest.Option{
		selftest.WithTimeLimit(*timeLimit),
		selftest.WithAuditLogger(audit),
	}
	if *files {
		opts = append(opts, selftest.WithFiles(selftest.Files{
			Key:       cfg.Files.Key,
			Message:   cfg.Files.Message,
			Encrypted: cfg.Files.Encrypted,
			Decrypted: cfg.Files.Decrypted,
		}))
	}

	report := selftest.New(opts...).Run(context.Background())
	if err := report.WriteText(stdout); err != nil {
		fmt.Fprintf(stderr, "write report: %v\n", err)
		return 1
	}
	if !report.Passed() {
		return 1
	}
	return 0
}
