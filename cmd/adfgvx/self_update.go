package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/RowanDark/adfgvx/internal/updater"
)

func runSelfUpdate(args []string, stdout, stderr io.Writer) int {
	cfg, ok := loadConfig(stderr)
	if !ok {
		return 1
	}

	fs := flag.NewFlagSet("self-update", flag.ContinueOnError)
	fs.SetOutput(stderr)
	channel := fs.String("channel", "", "release channel to follow (stable or beta)")
	rollback := fs.Bool("rollback", false, "restore the binary replaced by the last update")
	check := fs.Bool("check", false, "only report whether an update is available")
	baseURL := fs.String("url", cfg.Update.BaseURL, "base URL of the update server")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(stderr, "self-update takes no positional arguments")
		return 2
	}
	if *rollback && *check {
		fmt.Fprintln(stderr, "--rollback and --check cannot be combined")
		return 2
	}

	audit, err := openAudit(cfg.AuditLog, "updater")
	if err != nil {
		fmt.Fprintf(stderr, "open audit log: %v\n", err)
		return 1
	}
	defer audit.Close()

	store, err := updater.NewStore("")
	if err != nil {
		fmt.Fprintf(stderr, "open update state: %v\n", err)
		return 1
	}
	client := &updater.Client{
		Store:          store,
		BaseURL:        *baseURL,
		CurrentVersion: version,
		Out:            stdout,
		Logger:         audit,
	}
	if cfg.Update.PublicKey != "" {
		pub, err := updater.ParsePublicKey(cfg.Update.PublicKey)
		if err != nil {
			fmt.Fprintf(stderr, "updater public key: %v\n", err)
			return 1
		}
		client.PublicKey = pub
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if *rollback {
		if err := client.Rollback(ctx, updater.RollbackOptions{ForceStable: *channel == updater.ChannelStable}); err != nil {
			fmt.Fprintf(stderr, "rollback: %v\n", err)
			return 1
		}
		return 0
	}

	if *baseURL == "" {
		fmt.Fprintln(stderr, "no update URL configured; set update.base_url or ADFGVX_UPDATE_URL")
		return 1
	}

	ch := *channel
	if ch == "" {
		ch = cfg.Update.Channel
	}
	ch, err = updater.NormalizeChannel(ch)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}

	if *check {
		manifest, available, err := client.Check(ctx, ch)
		if err != nil {
			fmt.Fprintf(stderr, "check: %v\n", err)
			return 1
		}
		if available {
			fmt.Fprintf(stdout, "update available: %s -> %s (%s)\n", version, manifest.Version, ch)
		} else {
			fmt.Fprintf(stdout, "adfgvx %s is current on %s\n", version, ch)
		}
		return 0
	}

	if err := client.Update(ctx, updater.UpdateOptions{Channel: ch, PersistChannel: *channel != ""}); err != nil {
		fmt.Fprintf(stderr, "self-update: %v\n", err)
		return 1
	}
	return 0
}
