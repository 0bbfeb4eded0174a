package main

import (
	"fmt"
	"io"

	"github.com/abgdnv/vendingmachine/internal/config"
	"github.com/spf13/pflag"
)

const commandUsage = `  register <code> <description>   place a product in an empty lane
  unregister <code>                empty a lane
  restock <code> <quantity>        add items to a lane
  buy <code>                       sell one item
  lane <code>                      show one lane
  lanes                            list all lanes
  stats                            show machine counters
  popular                          show the best selling product
  catalog                          list every description ever registered
`

// parseFlags applies command-line overrides on top of cfg and returns the
// subcommand and its arguments. Flags must come before the subcommand.
func parseFlags(args []string, cfg *config.ClientConfig, stderr io.Writer) ([]string, error) {
	fs := pflag.NewFlagSet("vendingctl", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.SetInterspersed(false)

	fs.StringVar(&cfg.Client.Addr, "addr", cfg.Client.Addr,
		"Address of the vending machine gRPC server.")
	fs.DurationVar(&cfg.Client.Timeout, "timeout", cfg.Client.Timeout,
		"Timeout of a single call attempt.")
	fs.Usage = func() {
		_, _ = fmt.Fprintf(stderr, "Usage: vendingctl [flags] <command> [args]\n\nCommands:\n%s\nFlags:\n%s",
			commandUsage, fs.FlagUsages())
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if err := cfg.Client.Validate(); err != nil {
		return nil, fmt.Errorf("invalid client flags: %w", err)
	}
	return fs.Args(), nil
}
