// Package app wires the vending machine components together.
package app

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/abgdnv/vendingmachine/internal/config"
	"github.com/abgdnv/vendingmachine/internal/server"
	"github.com/abgdnv/vendingmachine/internal/service"
	grpcImpl "github.com/abgdnv/vendingmachine/internal/transport/grpc"
	"github.com/abgdnv/vendingmachine/internal/transport/rest"
	"github.com/abgdnv/vendingmachine/internal/vending"
	"github.com/abgdnv/vendingmachine/internal/web"
	"github.com/go-chi/chi/v5"
	"google.golang.org/grpc"
)

type Dependencies struct {
	Machine        *vending.Machine
	LaneService    *service.Service
	Logger         *slog.Logger
	MetricsHandler http.Handler
}

// SetupDependencies creates an empty machine and the service on top of it.
// metricsHandler may be nil when metrics are disabled.
func SetupDependencies(logger *slog.Logger, metricsHandler http.Handler) *Dependencies {
	machine := vending.NewMachine()
	return &Dependencies{
		Machine:        machine,
		LaneService:    service.NewService(machine, logger),
		Logger:         logger,
		MetricsHandler: metricsHandler,
	}
}

// SeedMachine registers and stocks the lanes listed in configuration.
func SeedMachine(ctx context.Context, deps *Dependencies, lanes []config.LaneSeed) error {
	seeds := make([]service.LaneSeedDto, len(lanes))
	for i, lane := range lanes {
		seeds[i] = service.LaneSeedDto{LaneCode: lane.Code, Description: lane.Description, Stock: lane.Stock}
	}
	return deps.LaneService.Seed(ctx, seeds)
}

// SetupHttpHandler initializes the router and routes of the vending machine.
// Used by E2E tests to set up the HTTP server with the necessary routes and middleware.
func SetupHttpHandler(deps *Dependencies) http.Handler {
	mux := web.NewRouter(deps.Logger)
	wireRoutes(mux, deps)
	return mux
}

func wireRoutes(mux *chi.Mux, deps *Dependencies) {
	laneHandler := rest.NewHandler(deps.LaneService, deps.Logger)
	laneHandler.RegisterRoutes(mux)
	if deps.MetricsHandler != nil {
		mux.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}
}

// SetupHttpServer creates and configures the HTTP server.
func SetupHttpServer(deps *Dependencies, cfg *config.Config) *http.Server {
	return server.NewHTTPServer(cfg.HTTPServer, SetupHttpHandler(deps))
}

// SetupGrpcServer initializes the gRPC server of the vending machine.
func SetupGrpcServer(deps *Dependencies, reflectionEnabled bool) *grpc.Server {
	vendingRegisterFunc := func(s *grpc.Server) {
		grpcImpl.RegisterVendingMachineServer(s, grpcImpl.NewServer(deps.LaneService, deps.Logger))
	}
	return server.NewGRPCServer(deps.Logger, reflectionEnabled, vendingRegisterFunc)
}
