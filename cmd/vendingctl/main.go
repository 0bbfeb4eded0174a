// Package main implements vendingctl, an operator CLI for a running vending machine.
//
// Usage:
//
//	vendingctl [--addr host:port] [--timeout 2s] <command> [args]
//
// Commands:
//
//	vendingctl register <code> <description>
//	vendingctl unregister <code>
//	vendingctl restock <code> <quantity>
//	vendingctl buy <code>
//	vendingctl lane <code>
//	vendingctl lanes
//	vendingctl stats
//	vendingctl popular
//	vendingctl catalog
//
// The server address, call timeout and resilience settings come from the
// client and resilience sections of config.yaml, overridable with VENDINGCTL_* variables.
// The --addr and --timeout flags take precedence over both.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/abgdnv/vendingmachine/internal/config"
	grpcImpl "github.com/abgdnv/vendingmachine/internal/transport/grpc"
	"github.com/spf13/pflag"
)

const envPrefix = "vendingctl"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load[*config.ClientConfig](envPrefix)
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	args, err := parseFlags(os.Args[1:], cfg, os.Stderr)
	if errors.Is(err, pflag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	conn, err := grpcImpl.Dial(cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer func() { _ = conn.Close() }()

	if err := execute(ctx, grpcImpl.NewClient(conn), args, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
