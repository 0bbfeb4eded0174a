// Package service provides the implementation of vending machine business logic.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	perrors "github.com/abgdnv/vendingmachine/internal/errors"
	"github.com/abgdnv/vendingmachine/internal/vending"
	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// LaneService defines the methods for operating a vending machine.
// It abstracts the lane registry from the transports.
type LaneService interface {
	// Register places a new product in an empty lane.
	// Returns ErrLaneCodeAlreadyInUse if the lane is occupied.
	Register(ctx context.Context, lane LaneCreateDto) (*LaneDto, error)

	// Unregister empties a lane and discards its counters.
	// Returns ErrLaneCodeNotRegistered if the lane is empty.
	Unregister(ctx context.Context, laneCode string) error

	// FindByCode returns one lane.
	// Returns ErrLaneCodeNotRegistered if the lane is empty.
	FindByCode(ctx context.Context, laneCode string) (*LaneDto, error)

	// FindAll returns all registered lanes ordered by lane code.
	// Returns an empty slice if no lanes are registered.
	FindAll(ctx context.Context) ([]LaneDto, error)

	// Restock adds quantity items to a lane.
	Restock(ctx context.Context, laneCode string, quantity int) (*LaneDto, error)

	// Purchase sells one item from a lane.
	// Returns ErrProductUnavailable if the lane has no stock.
	Purchase(ctx context.Context, laneCode string) (*LaneDto, error)

	// Stats returns machine-wide counters.
	Stats(ctx context.Context) (*StatsDto, error)

	// MostPopular returns the best selling product.
	// Returns ErrLaneCodeNotRegistered if the machine is empty.
	MostPopular(ctx context.Context) (*ProductDto, error)

	// Catalog returns every product description ever registered.
	Catalog(ctx context.Context) ([]string, error)
}

// Registry is the subset of the lane registry the service depends on.
type Registry interface {
	RegisterProduct(product vending.Product) error
	UnregisterProduct(product vending.Product) error
	AddItem(laneCode string) error
	BuyItem(laneCode string) error
	NumberOfProducts() int
	TotalNumberOfItems() int
	MostPopular() (vending.Product, error)
	Lane(laneCode string) (vending.Lane, error)
	Lanes() []vending.Lane
	CatalogHistory() []string
}

// Service implements LaneService on top of a Registry.
type Service struct {
	registry        Registry
	validate        *validator.Validate
	logger          *slog.Logger
	soldCounter     metric.Int64Counter
	restockCounter  metric.Int64Counter
	failuresCounter metric.Int64Counter
}

// NewService creates a new instance of LaneService with the provided registry.
// Counters are created on the global meter provider.
func NewService(registry Registry, logger *slog.Logger) *Service {
	meter := otel.Meter("vending-machine")
	return &Service{
		registry:        registry,
		validate:        validator.New(),
		logger:          logger.With("component", "service"),
		soldCounter:     mustCounter(meter, "vending.items.sold", "Total number of items sold"),
		restockCounter:  mustCounter(meter, "vending.items.restocked", "Total number of items added to lanes"),
		failuresCounter: mustCounter(meter, "vending.purchases.failed", "Total number of rejected purchases"),
	}
}

func mustCounter(meter metric.Meter, name, description string) metric.Int64Counter {
	counter, err := meter.Int64Counter(name, metric.WithDescription(description))
	if err != nil {
		panic(fmt.Sprintf("failed to create %s counter: %v", name, err))
	}
	return counter
}

// MaxRestockQuantity is the largest number of items a single Restock call may add.
const MaxRestockQuantity = 1000

// LaneCreateDto represents the data transfer object for registering a product.
type LaneCreateDto struct {
	LaneCode    string `json:"laneCode"    validate:"required,len=2"`
	Description string `json:"description" validate:"required,max=100"`
}

// LaneDto represents the data transfer object for a lane and its counters.
type LaneDto struct {
	LaneCode        string `json:"laneCode"`
	Description     string `json:"description"`
	NumberAvailable int    `json:"numberAvailable"`
	NumberOfSales   int    `json:"numberOfSales"`
}

// ProductDto represents the data transfer object for a product.
type ProductDto struct {
	LaneCode    string `json:"laneCode"`
	Description string `json:"description"`
}

// StatsDto carries machine-wide counters.
type StatsDto struct {
	NumberOfProducts   int `json:"numberOfProducts"`
	TotalNumberOfItems int `json:"totalNumberOfItems"`
}

// LaneSeedDto describes a lane to register and stock at startup.
type LaneSeedDto struct {
	LaneCode    string
	Description string
	Stock       int
}

// Register creates a product and registers it in its lane.
// A dto failing its validate tags yields ErrInvalidArgument wrapping validator.ValidationErrors.
func (s *Service) Register(ctx context.Context, lane LaneCreateDto) (*LaneDto, error) {
	if err := s.validate.Struct(lane); err != nil {
		return nil, fmt.Errorf("%w: %w", perrors.ErrInvalidArgument, err)
	}
	product, err := vending.NewProduct(lane.LaneCode, lane.Description)
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	if err := s.registry.RegisterProduct(product); err != nil {
		return nil, fmt.Errorf("failed to register product in lane %s: %w", lane.LaneCode, err)
	}
	s.logger.InfoContext(ctx, "Product registered", "lane_code", product.LaneCode(), "description", product.Description())
	return s.FindByCode(ctx, product.LaneCode())
}

// Unregister removes the product occupying laneCode.
func (s *Service) Unregister(ctx context.Context, laneCode string) error {
	lane, err := s.registry.Lane(laneCode)
	if err != nil {
		return fmt.Errorf("failed to unregister lane %s: %w", laneCode, err)
	}
	if err := s.registry.UnregisterProduct(lane.Product); err != nil {
		return fmt.Errorf("failed to unregister lane %s: %w", laneCode, err)
	}
	s.logger.InfoContext(ctx, "Product unregistered", "lane_code", lane.Product.LaneCode(), "sales", lane.NumberOfSales)
	return nil
}

// FindByCode returns the lane registered under laneCode.
func (s *Service) FindByCode(_ context.Context, laneCode string) (*LaneDto, error) {
	lane, err := s.registry.Lane(laneCode)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch lane %s: %w", laneCode, err)
	}
	return toDto(lane), nil
}

// FindAll returns every lane.
func (s *Service) FindAll(_ context.Context) ([]LaneDto, error) {
	lanes := s.registry.Lanes()
	laneDTOs := make([]LaneDto, len(lanes))
	for i, lane := range lanes {
		laneDTOs[i] = *toDto(lane)
	}
	return laneDTOs, nil
}

// Restock adds quantity items to the lane.
// quantity must be between 1 and MaxRestockQuantity.
func (s *Service) Restock(ctx context.Context, laneCode string, quantity int) (*LaneDto, error) {
	if quantity < 1 || quantity > MaxRestockQuantity {
		return nil, fmt.Errorf("%w: quantity must be between 1 and %d, got %d",
			perrors.ErrInvalidArgument, MaxRestockQuantity, quantity)
	}
	for range quantity {
		if err := s.registry.AddItem(laneCode); err != nil {
			return nil, fmt.Errorf("failed to restock lane %s: %w", laneCode, err)
		}
	}
	s.restockCounter.Add(ctx, int64(quantity), laneAttr(laneCode))
	s.logger.InfoContext(ctx, "Lane restocked", "lane_code", laneCode, "quantity", quantity)
	return s.FindByCode(ctx, laneCode)
}

// Purchase sells one item from the lane.
func (s *Service) Purchase(ctx context.Context, laneCode string) (*LaneDto, error) {
	if err := s.registry.BuyItem(laneCode); err != nil {
		s.failuresCounter.Add(ctx, 1, laneAttr(laneCode), failureReason(err))
		return nil, fmt.Errorf("failed to buy item from lane %s: %w", laneCode, err)
	}
	s.soldCounter.Add(ctx, 1, laneAttr(laneCode))
	s.logger.InfoContext(ctx, "Item sold", "lane_code", laneCode)
	return s.FindByCode(ctx, laneCode)
}

// Stats returns the number of registered lanes and the total stock.
func (s *Service) Stats(_ context.Context) (*StatsDto, error) {
	return &StatsDto{
		NumberOfProducts:   s.registry.NumberOfProducts(),
		TotalNumberOfItems: s.registry.TotalNumberOfItems(),
	}, nil
}

// MostPopular returns the product with the highest sales.
func (s *Service) MostPopular(_ context.Context) (*ProductDto, error) {
	product, err := s.registry.MostPopular()
	if err != nil {
		return nil, fmt.Errorf("failed to find most popular product: %w", err)
	}
	return &ProductDto{
		LaneCode:    product.LaneCode(),
		Description: product.Description(),
	}, nil
}

// Catalog returns the description history of the machine.
func (s *Service) Catalog(_ context.Context) ([]string, error) {
	return s.registry.CatalogHistory(), nil
}

// Seed registers and stocks the given lanes, stopping at the first failure.
func (s *Service) Seed(ctx context.Context, seeds []LaneSeedDto) error {
	for _, seed := range seeds {
		if _, err := s.Register(ctx, LaneCreateDto{LaneCode: seed.LaneCode, Description: seed.Description}); err != nil {
			return fmt.Errorf("failed to seed lane %s: %w", seed.LaneCode, err)
		}
		if seed.Stock > 0 {
			if _, err := s.Restock(ctx, seed.LaneCode, seed.Stock); err != nil {
				return fmt.Errorf("failed to seed lane %s: %w", seed.LaneCode, err)
			}
		}
	}
	s.logger.InfoContext(ctx, "Machine seeded", "lanes", len(seeds))
	return nil
}

// invalidLaneCode is the lane_code attribute value recorded for malformed codes.
const invalidLaneCode = "invalid"

// laneAttr tags a measurement with the lane code. Malformed codes share one
// series so client input cannot grow the attribute set.
func laneAttr(laneCode string) metric.AddOption {
	code := invalidLaneCode
	if vending.ValidateLaneCode(laneCode) == nil {
		code = strings.ToUpper(laneCode)
	}
	return metric.WithAttributes(attribute.String("lane_code", code))
}

func failureReason(err error) metric.AddOption {
	reason := "internal"
	switch {
	case errors.Is(err, perrors.ErrInvalidArgument):
		reason = "invalid_argument"
	case errors.Is(err, perrors.ErrLaneCodeNotRegistered):
		reason = "not_registered"
	case errors.Is(err, perrors.ErrProductUnavailable):
		reason = "sold_out"
	}
	return metric.WithAttributes(attribute.String("reason", reason))
}

// toDto converts a vending.Lane to a LaneDto.
func toDto(lane vending.Lane) *LaneDto {
	return &LaneDto{
		LaneCode:        lane.Product.LaneCode(),
		Description:     lane.Product.Description(),
		NumberAvailable: lane.NumberAvailable,
		NumberOfSales:   lane.NumberOfSales,
	}
}
