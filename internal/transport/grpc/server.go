// Package grpc exposes the vending machine over gRPC and provides a typed client.
package grpc

import (
	"context"
	"errors"
	"log/slog"

	perrors "github.com/abgdnv/vendingmachine/internal/errors"
	"github.com/abgdnv/vendingmachine/internal/service"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// LaneService defines the service methods used by the gRPC server.
type LaneService interface {
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

var _ VendingMachineServer = (*Server)(nil)

type Server struct {
	service LaneService
	logger  *slog.Logger
}

func NewServer(service LaneService, logger *slog.Logger) *Server {
	return &Server{service: service, logger: logger.With("component", "grpc")}
}

func (s *Server) RegisterProduct(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields := req.GetFields()
	dto := service.LaneCreateDto{
		LaneCode:    fields["laneCode"].GetStringValue(),
		Description: fields["description"].GetStringValue(),
	}
	lane, err := s.service.Register(ctx, dto)
	if err != nil {
		return nil, s.toStatus(ctx, "service.Register failed", dto.LaneCode, err)
	}
	return laneToStruct(lane)
}

func (s *Server) UnregisterProduct(ctx context.Context, req *wrapperspb.StringValue) (*emptypb.Empty, error) {
	if err := s.service.Unregister(ctx, req.GetValue()); err != nil {
		return nil, s.toStatus(ctx, "service.Unregister failed", req.GetValue(), err)
	}
	return &emptypb.Empty{}, nil
}

func (s *Server) AddItem(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	lane, err := s.service.Restock(ctx, req.GetValue(), 1)
	if err != nil {
		return nil, s.toStatus(ctx, "service.Restock failed", req.GetValue(), err)
	}
	return laneToStruct(lane)
}

func (s *Server) BuyItem(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	lane, err := s.service.Purchase(ctx, req.GetValue())
	if err != nil {
		return nil, s.toStatus(ctx, "service.Purchase failed", req.GetValue(), err)
	}
	return laneToStruct(lane)
}

func (s *Server) GetLane(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	lane, err := s.service.FindByCode(ctx, req.GetValue())
	if err != nil {
		return nil, s.toStatus(ctx, "service.FindByCode failed", req.GetValue(), err)
	}
	return laneToStruct(lane)
}

func (s *Server) ListLanes(ctx context.Context, _ *emptypb.Empty) (*structpb.ListValue, error) {
	lanes, err := s.service.FindAll(ctx)
	if err != nil {
		return nil, s.toStatus(ctx, "service.FindAll failed", "", err)
	}
	values := make([]any, len(lanes))
	for i := range lanes {
		values[i] = laneToMap(&lanes[i])
	}
	list, err := structpb.NewList(values)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode lanes: %v", err)
	}
	return list, nil
}

func (s *Server) GetStats(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	stats, err := s.service.Stats(ctx)
	if err != nil {
		return nil, s.toStatus(ctx, "service.Stats failed", "", err)
	}
	return encodeStruct(map[string]any{
		"numberOfProducts":   stats.NumberOfProducts,
		"totalNumberOfItems": stats.TotalNumberOfItems,
	})
}

func (s *Server) GetMostPopular(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	product, err := s.service.MostPopular(ctx)
	if err != nil {
		return nil, s.toStatus(ctx, "service.MostPopular failed", "", err)
	}
	return encodeStruct(map[string]any{
		"laneCode":    product.LaneCode,
		"description": product.Description,
	})
}

func (s *Server) GetCatalog(ctx context.Context, _ *emptypb.Empty) (*structpb.ListValue, error) {
	catalog, err := s.service.Catalog(ctx)
	if err != nil {
		return nil, s.toStatus(ctx, "service.Catalog failed", "", err)
	}
	values := make([]any, len(catalog))
	for i, description := range catalog {
		values[i] = description
	}
	list, err := structpb.NewList(values)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode catalog: %v", err)
	}
	return list, nil
}

// toStatus maps domain errors to gRPC status codes.
func (s *Server) toStatus(ctx context.Context, msg, laneCode string, err error) error {
	switch {
	case errors.Is(err, perrors.ErrInvalidArgument):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, perrors.ErrLaneCodeAlreadyInUse):
		return status.Errorf(codes.AlreadyExists, "lane %s is already in use", laneCode)
	case errors.Is(err, perrors.ErrLaneCodeNotRegistered):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, perrors.ErrProductUnavailable):
		return status.Error(codes.FailedPrecondition, err.Error())
	default:
		s.logger.ErrorContext(ctx, msg, slog.String("lane_code", laneCode), slog.Any("error", err))
		return status.Errorf(codes.Internal, "internal server error")
	}
}

func laneToMap(lane *service.LaneDto) map[string]any {
	return map[string]any{
		"laneCode":        lane.LaneCode,
		"description":     lane.Description,
		"numberAvailable": lane.NumberAvailable,
		"numberOfSales":   lane.NumberOfSales,
	}
}

func laneToStruct(lane *service.LaneDto) (*structpb.Struct, error) {
	return encodeStruct(laneToMap(lane))
}

func encodeStruct(fields map[string]any) (*structpb.Struct, error) {
	st, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode response: %v", err)
	}
	return st, nil
}
