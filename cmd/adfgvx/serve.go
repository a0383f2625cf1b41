package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/RowanDark/adfgvx/internal/rpc"
)

func runServe(args []string, stdout, stderr io.Writer) int {
	cfg, ok := loadConfig(stderr)
	if !ok {
		return 1
	}

	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(stderr)
	addr := fs.String("addr", cfg.Server.Addr, "listen address")
	token := fs.String("token", cfg.Server.AuthToken, "bearer token clients must present (empty disables auth)")
	maxConns := fs.Int("max-conns", cfg.Server.MaxConns, "maximum simultaneous connections (0 for no cap)")
	capacity := fs.Int("capacity", cfg.Capacity, "maximum plaintext characters per call")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(stderr, "serve takes no positional arguments")
		return 2
	}

	audit, err := openAudit(cfg.AuditLog, "rpc")
	if err != nil {
		fmt.Fprintf(stderr, "open audit log: %v\n", err)
		return 1
	}
	defer audit.Close()

	lis, err := net.Listen("tcp", *addr)
	if err != nil {
		fmt.Fprintf(stderr, "listen %s: %v\n", *addr, err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := rpc.NewServer(
		rpc.WithAuthToken(*token),
		rpc.WithMaxConns(*maxConns),
		rpc.WithAuditLogger(audit),
		rpc.WithCipherOptions(capacityOptions(*capacity)...),
	)
	fmt.Fprintf(stdout, "adfgvx cipher service listening on %s\n", lis.Addr())
	if err := srv.Serve(ctx, lis); err != nil {
		fmt.Fprintf(stderr, "serve: %v\n", err)
		return 1
	}
	return 0
}
