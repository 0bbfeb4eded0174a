package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	perrors "github.com/abgdnv/vendingmachine/internal/errors"
	"github.com/abgdnv/vendingmachine/internal/vending"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mockRegistry is a mock implementation of the Registry interface
type mockRegistry struct {
	lane    vending.Lane
	lanes   []vending.Lane
	product vending.Product
	catalog []string
	count   int
	total   int
	addErr  error
	error   error
	added   int
}

func (m *mockRegistry) RegisterProduct(_ vending.Product) error   { return m.error }
func (m *mockRegistry) UnregisterProduct(_ vending.Product) error { return m.error }
func (m *mockRegistry) BuyItem(_ string) error                    { return m.error }
func (m *mockRegistry) NumberOfProducts() int                     { return m.count }
func (m *mockRegistry) TotalNumberOfItems() int                   { return m.total }
func (m *mockRegistry) Lanes() []vending.Lane                     { return m.lanes }
func (m *mockRegistry) CatalogHistory() []string                  { return m.catalog }

func (m *mockRegistry) AddItem(_ string) error {
	if m.addErr != nil {
		return m.addErr
	}
	m.added++
	return nil
}

func (m *mockRegistry) MostPopular() (vending.Product, error) {
	return m.product, m.error
}

func (m *mockRegistry) Lane(_ string) (vending.Lane, error) {
	return m.lane, m.error
}

func mustProduct(t *testing.T, laneCode, description string) vending.Product {
	t.Helper()
	product, err := vending.NewProduct(laneCode, description)
	require.NoError(t, err)
	return product
}

func Test_LaneService_Register(t *testing.T) {
	testCases := []struct {
		name        string
		registry    Registry
		request     LaneCreateDto
		expected    *LaneDto
		expectError error
	}{
		{
			name:     "Success - product registered",
			registry: vending.NewMachine(),
			request:  LaneCreateDto{LaneCode: "a1", Description: "Cola"},
			expected: &LaneDto{LaneCode: "A1", Description: "Cola"},
		},
		{
			name:        "Error - blank description",
			registry:    vending.NewMachine(),
			request:     LaneCreateDto{LaneCode: "A1", Description: " "},
			expectError: perrors.ErrInvalidArgument,
		},
		{
			name:        "Error - malformed lane code",
			registry:    vending.NewMachine(),
			request:     LaneCreateDto{LaneCode: "AA", Description: "Cola"},
			expectError: perrors.ErrInvalidArgument,
		},
		{
			name:        "Error - description too long",
			registry:    vending.NewMachine(),
			request:     LaneCreateDto{LaneCode: "A1", Description: strings.Repeat("x", 101)},
			expectError: perrors.ErrInvalidArgument,
		},
		{
			name:        "Error - lane code too long",
			registry:    vending.NewMachine(),
			request:     LaneCreateDto{LaneCode: "A12", Description: "Cola"},
			expectError: perrors.ErrInvalidArgument,
		},
		{
			name:        "Error - lane in use",
			registry:    &mockRegistry{error: perrors.ErrLaneCodeAlreadyInUse},
			request:     LaneCreateDto{LaneCode: "A1", Description: "Cola"},
			expectError: perrors.ErrLaneCodeAlreadyInUse,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			service := NewService(tc.registry, discardLogger())
			// when
			created, err := service.Register(context.Background(), tc.request)
			// then
			if tc.expectError != nil {
				assert.ErrorIs(t, err, tc.expectError)
				assert.Nil(t, created)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, created)
		})
	}
}

func Test_LaneService_Register_ValidationErrors(t *testing.T) {
	// given
	machine := vending.NewMachine()
	service := NewService(machine, discardLogger())

	// when
	_, err := service.Register(context.Background(), LaneCreateDto{LaneCode: "A1", Description: strings.Repeat("x", 101)})

	// then
	require.ErrorIs(t, err, perrors.ErrInvalidArgument)
	var validationErrors validator.ValidationErrors
	require.True(t, errors.As(err, &validationErrors))
	require.Len(t, validationErrors, 1)
	assert.Equal(t, "Description", validationErrors[0].Field())
	assert.Equal(t, "max", validationErrors[0].Tag())
	assert.Zero(t, machine.NumberOfProducts())
}

func Test_LaneService_Restock(t *testing.T) {
	ErrRegistry := errors.New("registry error")
	testCases := []struct {
		name          string
		registry      *mockRegistry
		quantity      int
		expectedAdded int
		expectError   error
	}{
		{
			name:          "Success - three items",
			registry:      &mockRegistry{lane: vending.Lane{NumberAvailable: 3}},
			quantity:      3,
			expectedAdded: 3,
		},
		{
			name:        "Error - zero quantity",
			registry:    &mockRegistry{},
			quantity:    0,
			expectError: perrors.ErrInvalidArgument,
		},
		{
			name:          "Success - maximum quantity",
			registry:      &mockRegistry{lane: vending.Lane{NumberAvailable: 3}},
			quantity:      MaxRestockQuantity,
			expectedAdded: MaxRestockQuantity,
		},
		{
			name:        "Error - quantity above maximum",
			registry:    &mockRegistry{},
			quantity:    MaxRestockQuantity + 1,
			expectError: perrors.ErrInvalidArgument,
		},
		{
			name:        "Error - lane not registered",
			registry:    &mockRegistry{addErr: perrors.ErrLaneCodeNotRegistered},
			quantity:    2,
			expectError: perrors.ErrLaneCodeNotRegistered,
		},
		{
			name:        "Error - registry failure",
			registry:    &mockRegistry{addErr: ErrRegistry},
			quantity:    1,
			expectError: ErrRegistry,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			service := NewService(tc.registry, discardLogger())
			// when
			lane, err := service.Restock(context.Background(), "A1", tc.quantity)
			// then
			if tc.expectError != nil {
				assert.ErrorIs(t, err, tc.expectError)
				assert.Nil(t, lane)
				assert.Zero(t, tc.registry.added)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expectedAdded, tc.registry.added)
			assert.Equal(t, 3, lane.NumberAvailable)
		})
	}
}

func Test_LaneService_Purchase(t *testing.T) {
	// given
	machine := vending.NewMachine()
	service := NewService(machine, discardLogger())
	ctx := context.Background()
	_, err := service.Register(ctx, LaneCreateDto{LaneCode: "B2", Description: "Chips"})
	require.NoError(t, err)
	_, err = service.Restock(ctx, "B2", 1)
	require.NoError(t, err)

	// when
	lane, err := service.Purchase(ctx, "B2")

	// then
	require.NoError(t, err)
	assert.Equal(t, &LaneDto{LaneCode: "B2", Description: "Chips", NumberAvailable: 0, NumberOfSales: 1}, lane)

	_, err = service.Purchase(ctx, "B2")
	assert.ErrorIs(t, err, perrors.ErrProductUnavailable)
	var unavailable *perrors.ProductUnavailableError
	assert.True(t, errors.As(err, &unavailable))
}

func Test_LaneService_Unregister(t *testing.T) {
	testCases := []struct {
		name        string
		registry    Registry
		laneCode    string
		expectError error
	}{
		{
			name:     "Success - lane emptied",
			registry: &mockRegistry{lane: vending.Lane{Product: mustProduct(t, "C3", "Gum")}},
			laneCode: "C3",
		},
		{
			name:        "Error - lane not registered",
			registry:    vending.NewMachine(),
			laneCode:    "C3",
			expectError: perrors.ErrLaneCodeNotRegistered,
		},
		{
			name:        "Error - malformed lane code",
			registry:    vending.NewMachine(),
			laneCode:    "C33",
			expectError: perrors.ErrInvalidArgument,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			service := NewService(tc.registry, discardLogger())
			// when
			err := service.Unregister(context.Background(), tc.laneCode)
			// then
			if tc.expectError != nil {
				assert.ErrorIs(t, err, tc.expectError)
				return
			}
			require.NoError(t, err)
		})
	}
}

func Test_LaneService_FindAll(t *testing.T) {
	testCases := []struct {
		name     string
		registry *mockRegistry
		expected []LaneDto
	}{
		{
			name: "Success - lanes found",
			registry: &mockRegistry{lanes: []vending.Lane{
				{Product: mustProduct(t, "A1", "Cola"), NumberAvailable: 3, NumberOfSales: 2},
			}},
			expected: []LaneDto{{LaneCode: "A1", Description: "Cola", NumberAvailable: 3, NumberOfSales: 2}},
		},
		{
			name:     "Success - no lanes",
			registry: &mockRegistry{lanes: []vending.Lane{}},
			expected: []LaneDto{},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			service := NewService(tc.registry, discardLogger())
			found, err := service.FindAll(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tc.expected, found)
		})
	}
}

func Test_LaneService_StatsAndMostPopular(t *testing.T) {
	// given
	registry := &mockRegistry{count: 2, total: 6, product: mustProduct(t, "A1", "Cola"), catalog: []string{"Cola", "Chips"}}
	service := NewService(registry, discardLogger())
	ctx := context.Background()

	// when
	stats, err := service.Stats(ctx)
	require.NoError(t, err)
	popular, err := service.MostPopular(ctx)
	require.NoError(t, err)
	catalog, err := service.Catalog(ctx)
	require.NoError(t, err)

	// then
	assert.Equal(t, &StatsDto{NumberOfProducts: 2, TotalNumberOfItems: 6}, stats)
	assert.Equal(t, &ProductDto{LaneCode: "A1", Description: "Cola"}, popular)
	assert.Equal(t, []string{"Cola", "Chips"}, catalog)

	empty := NewService(vending.NewMachine(), discardLogger())
	_, err = empty.MostPopular(ctx)
	assert.ErrorIs(t, err, perrors.ErrLaneCodeNotRegistered)
}

func Test_LaneService_Seed(t *testing.T) {
	t.Run("Success - lanes seeded", func(t *testing.T) {
		machine := vending.NewMachine()
		service := NewService(machine, discardLogger())

		err := service.Seed(context.Background(), []LaneSeedDto{
			{LaneCode: "A1", Description: "Cola", Stock: 5},
			{LaneCode: "A2", Description: "Chips"},
		})

		require.NoError(t, err)
		assert.Equal(t, 2, machine.NumberOfProducts())
		assert.Equal(t, 5, machine.TotalNumberOfItems())
	})

	t.Run("Error - duplicate lane", func(t *testing.T) {
		service := NewService(vending.NewMachine(), discardLogger())

		err := service.Seed(context.Background(), []LaneSeedDto{
			{LaneCode: "A1", Description: "Cola"},
			{LaneCode: "a1", Description: "Tea"},
		})

		assert.ErrorIs(t, err, perrors.ErrLaneCodeAlreadyInUse)
	})
}

func Test_LaneService_Metrics(t *testing.T) {
	// given
	reader := sdkmetric.NewManualReader()
	previous := otel.GetMeterProvider()
	otel.SetMeterProvider(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)))
	t.Cleanup(func() { otel.SetMeterProvider(previous) })

	ctx := context.Background()
	service := NewService(vending.NewMachine(), discardLogger())
	_, err := service.Register(ctx, LaneCreateDto{LaneCode: "A1", Description: "Cola"})
	require.NoError(t, err)
	_, err = service.Restock(ctx, "A1", 2)
	require.NoError(t, err)

	// when
	for range 3 {
		_, _ = service.Purchase(ctx, "a1")
	}

	// then
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))
	sums := make(map[string]int64)
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			if sum, ok := m.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range sum.DataPoints {
					sums[m.Name] += dp.Value
				}
			}
		}
	}
	assert.Equal(t, map[string]int64{
		"vending.items.sold":       2,
		"vending.items.restocked":  2,
		"vending.purchases.failed": 1,
	}, sums)
}

func Test_LaneService_FailureMetricAttributes(t *testing.T) {
	// given
	reader := sdkmetric.NewManualReader()
	previous := otel.GetMeterProvider()
	otel.SetMeterProvider(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)))
	t.Cleanup(func() { otel.SetMeterProvider(previous) })

	ctx := context.Background()
	service := NewService(vending.NewMachine(), discardLogger())
	_, err := service.Register(ctx, LaneCreateDto{LaneCode: "A1", Description: "Cola"})
	require.NoError(t, err)

	// when
	for i := range 50 {
		_, _ = service.Purchase(ctx, fmt.Sprintf("garbage-%d", i))
	}
	_, _ = service.Purchase(ctx, "a1")
	_, _ = service.Purchase(ctx, "B2")

	// then
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))
	type series struct{ laneCode, reason string }
	failed := make(map[series]int64)
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			if m.Name != "vending.purchases.failed" {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			for _, dp := range sum.DataPoints {
				laneCode, _ := dp.Attributes.Value(attribute.Key("lane_code"))
				reason, _ := dp.Attributes.Value(attribute.Key("reason"))
				failed[series{laneCode.AsString(), reason.AsString()}] += dp.Value
			}
		}
	}
	assert.Equal(t, map[series]int64{
		{"invalid", "invalid_argument"}: 50,
		{"A1", "sold_out"}:              1,
		{"B2", "not_registered"}:        1,
	}, failed)
}
