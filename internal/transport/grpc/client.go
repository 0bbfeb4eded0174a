package grpc

import (
	"context"
	"fmt"

	"github.com/abgdnv/vendingmachine/internal/config"
	perrors "github.com/abgdnv/vendingmachine/internal/errors"
	"github.com/abgdnv/vendingmachine/internal/service"
	"github.com/abgdnv/vendingmachine/internal/transport/grpc/interceptors"
	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/retry"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Dial opens a client connection with the timeout, retry and circuit breaker chain.
func Dial(cfg *config.ClientConfig, opts ...grpc.DialOption) (*grpc.ClientConn, error) {
	dialOpts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithChainUnaryInterceptor(interceptors.ClientChain(cfg.Client.Timeout, cfg.Resilience)...),
		grpc.WithStatsHandler(otelgrpc.NewClientHandler()),
	}, opts...)
	conn, err := grpc.NewClient(cfg.Client.Addr, dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gRPC client connection: %w", err)
	}
	return conn, nil
}

// Client is a typed client for the vending machine service.
// Errors carry the same sentinels as the local service.
type Client struct {
	conn grpc.ClientConnInterface
}

// noRetry is passed on calls that change machine state; they are sent at most once.
var noRetry = retry.Disable()

func NewClient(conn grpc.ClientConnInterface) *Client {
	return &Client{conn: conn}
}

func (c *Client) Register(ctx context.Context, lane service.LaneCreateDto) (*service.LaneDto, error) {
	in, err := structpb.NewStruct(map[string]any{"laneCode": lane.LaneCode, "description": lane.Description})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}
	return c.invokeLane(ctx, RegisterProductMethod, in, noRetry)
}

func (c *Client) Unregister(ctx context.Context, laneCode string) error {
	return fromStatus(c.conn.Invoke(ctx, UnregisterProductMethod, wrapperspb.String(laneCode), new(emptypb.Empty), noRetry))
}

func (c *Client) AddItem(ctx context.Context, laneCode string) (*service.LaneDto, error) {
	return c.invokeLane(ctx, AddItemMethod, wrapperspb.String(laneCode), noRetry)
}

// Restock adds quantity items one call at a time and returns the last snapshot.
// quantity is bounded like service.Restock.
func (c *Client) Restock(ctx context.Context, laneCode string, quantity int) (*service.LaneDto, error) {
	if quantity < 1 || quantity > service.MaxRestockQuantity {
		return nil, fmt.Errorf("%w: quantity must be between 1 and %d, got %d",
			perrors.ErrInvalidArgument, service.MaxRestockQuantity, quantity)
	}
	var lane *service.LaneDto
	for range quantity {
		var err error
		if lane, err = c.AddItem(ctx, laneCode); err != nil {
			return nil, err
		}
	}
	return lane, nil
}

func (c *Client) Purchase(ctx context.Context, laneCode string) (*service.LaneDto, error) {
	return c.invokeLane(ctx, BuyItemMethod, wrapperspb.String(laneCode), noRetry)
}

func (c *Client) FindByCode(ctx context.Context, laneCode string) (*service.LaneDto, error) {
	return c.invokeLane(ctx, GetLaneMethod, wrapperspb.String(laneCode))
}

func (c *Client) FindAll(ctx context.Context) ([]service.LaneDto, error) {
	out := new(structpb.ListValue)
	if err := c.conn.Invoke(ctx, ListLanesMethod, &emptypb.Empty{}, out); err != nil {
		return nil, fromStatus(err)
	}
	lanes := make([]service.LaneDto, 0, len(out.GetValues()))
	for _, v := range out.GetValues() {
		lanes = append(lanes, *structToLane(v.GetStructValue()))
	}
	return lanes, nil
}

func (c *Client) Stats(ctx context.Context) (*service.StatsDto, error) {
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, GetStatsMethod, &emptypb.Empty{}, out); err != nil {
		return nil, fromStatus(err)
	}
	return &service.StatsDto{
		NumberOfProducts:   intField(out, "numberOfProducts"),
		TotalNumberOfItems: intField(out, "totalNumberOfItems"),
	}, nil
}

func (c *Client) MostPopular(ctx context.Context) (*service.ProductDto, error) {
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, GetMostPopularMethod, &emptypb.Empty{}, out); err != nil {
		return nil, fromStatus(err)
	}
	return &service.ProductDto{
		LaneCode:    out.GetFields()["laneCode"].GetStringValue(),
		Description: out.GetFields()["description"].GetStringValue(),
	}, nil
}

func (c *Client) Catalog(ctx context.Context) ([]string, error) {
	out := new(structpb.ListValue)
	if err := c.conn.Invoke(ctx, GetCatalogMethod, &emptypb.Empty{}, out); err != nil {
		return nil, fromStatus(err)
	}
	catalog := make([]string, 0, len(out.GetValues()))
	for _, v := range out.GetValues() {
		catalog = append(catalog, v.GetStringValue())
	}
	return catalog, nil
}

func (c *Client) invokeLane(ctx context.Context, method string, in any, opts ...grpc.CallOption) (*service.LaneDto, error) {
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, fromStatus(err)
	}
	return structToLane(out), nil
}

// fromStatus maps gRPC status codes back onto the domain sentinels.
func fromStatus(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	switch st.Code() {
	case codes.InvalidArgument:
		return &remoteError{msg: st.Message(), sentinel: perrors.ErrInvalidArgument}
	case codes.AlreadyExists:
		return &remoteError{msg: st.Message(), sentinel: perrors.ErrLaneCodeAlreadyInUse}
	case codes.NotFound:
		return &remoteError{msg: st.Message(), sentinel: perrors.ErrLaneCodeNotRegistered}
	case codes.FailedPrecondition:
		return &remoteError{msg: st.Message(), sentinel: perrors.ErrProductUnavailable}
	default:
		return err
	}
}

// remoteError keeps the server's message and unwraps to the matching sentinel.
type remoteError struct {
	msg      string
	sentinel error
}

func (e *remoteError) Error() string { return e.msg }
func (e *remoteError) Unwrap() error { return e.sentinel }

func structToLane(st *structpb.Struct) *service.LaneDto {
	return &service.LaneDto{
		LaneCode:        st.GetFields()["laneCode"].GetStringValue(),
		Description:     st.GetFields()["description"].GetStringValue(),
		NumberAvailable: intField(st, "numberAvailable"),
		NumberOfSales:   intField(st, "numberOfSales"),
	}
}

func intField(st *structpb.Struct, key string) int {
	return int(st.GetFields()[key].GetNumberValue())
}
