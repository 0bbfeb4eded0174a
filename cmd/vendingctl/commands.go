package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/abgdnv/vendingmachine/internal/service"
)

// LaneClient is the subset of the gRPC client used by the commands.
type LaneClient interface {
	Register(ctx context.Context, lane service.LaneCreateDto) (*service.LaneDto, error)
	Unregister(ctx context.Context, laneCode string) error
	FindByCode(ctx context.Context, laneCode string) (*service.LaneDto, error)
	FindAll(ctx context.Context) ([]service.LaneDto, error)
	Restock(ctx context.Context, laneCode string, quantity int) (*service.LaneDto, error)
	Purchase(ctx context.Context, laneCode string) (*service.LaneDto, error)
	Stats(ctx context.Context) (*service.StatsDto, error)
	MostPopular(ctx context.Context) (*service.ProductDto, error)
	Catalog(ctx context.Context) ([]string, error)
}

var errUsage = errors.New("usage: vendingctl register|unregister|restock|buy|lane|lanes|stats|popular|catalog [args]")

type command struct {
	args int
	run  func(ctx context.Context, c LaneClient, args []string) (any, error)
}

var commands = map[string]command{
	"register": {args: 2, run: func(ctx context.Context, c LaneClient, args []string) (any, error) {
		return c.Register(ctx, service.LaneCreateDto{LaneCode: args[0], Description: args[1]})
	}},
	"unregister": {args: 1, run: func(ctx context.Context, c LaneClient, args []string) (any, error) {
		if err := c.Unregister(ctx, args[0]); err != nil {
			return nil, err
		}
		return map[string]string{"unregistered": strings.ToUpper(args[0])}, nil
	}},
	"restock": {args: 2, run: func(ctx context.Context, c LaneClient, args []string) (any, error) {
		quantity, err := strconv.Atoi(args[1])
		if err != nil {
			return nil, fmt.Errorf("invalid quantity %q: %w", args[1], err)
		}
		return c.Restock(ctx, args[0], quantity)
	}},
	"buy": {args: 1, run: func(ctx context.Context, c LaneClient, args []string) (any, error) {
		return c.Purchase(ctx, args[0])
	}},
	"lane": {args: 1, run: func(ctx context.Context, c LaneClient, args []string) (any, error) {
		return c.FindByCode(ctx, args[0])
	}},
	"lanes": {run: func(ctx context.Context, c LaneClient, _ []string) (any, error) {
		return c.FindAll(ctx)
	}},
	"stats": {run: func(ctx context.Context, c LaneClient, _ []string) (any, error) {
		return c.Stats(ctx)
	}},
	"popular": {run: func(ctx context.Context, c LaneClient, _ []string) (any, error) {
		return c.MostPopular(ctx)
	}},
	"catalog": {run: func(ctx context.Context, c LaneClient, _ []string) (any, error) {
		return c.Catalog(ctx)
	}},
}

// execute runs the subcommand named by args[0] and prints its result as JSON.
func execute(ctx context.Context, client LaneClient, args []string, out io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}
	cmd, ok := commands[args[0]]
	if !ok || len(args)-1 != cmd.args {
		return errUsage
	}
	result, err := cmd.run(ctx, client, args[1:])
	if err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
