package vending

import (
	"sync"
	"testing"

	perrors "github.com/abgdnv/vendingmachine/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStockedMachine(t *testing.T) *Machine {
	t.Helper()
	m := NewMachine()
	require.NoError(t, m.RegisterProduct(mustProduct(t, "A1", "Cola")))
	require.NoError(t, m.RegisterProduct(mustProduct(t, "A2", "Chips")))
	for range 5 {
		require.NoError(t, m.AddItem("A1"))
	}
	for range 3 {
		require.NoError(t, m.AddItem("A2"))
	}
	return m
}

func Test_Machine_Scenario(t *testing.T) {
	// given
	m := newStockedMachine(t)

	// when
	require.NoError(t, m.BuyItem("A1"))
	require.NoError(t, m.BuyItem("A1"))

	// then
	items, err := m.NumberOfItems("A1")
	require.NoError(t, err)
	assert.Equal(t, 3, items)

	sales, err := m.NumberOfSales("A1")
	require.NoError(t, err)
	assert.Equal(t, 2, sales)

	assert.Equal(t, 6, m.TotalNumberOfItems())
	assert.Equal(t, 2, m.NumberOfProducts())

	popular, err := m.MostPopular()
	require.NoError(t, err)
	assert.Equal(t, "Cola", popular.Description())
}

func Test_Machine_Empty(t *testing.T) {
	m := NewMachine()

	_, err := m.MostPopular()
	assert.ErrorIs(t, err, perrors.ErrLaneCodeNotRegistered)
	assert.Equal(t, 0, m.TotalNumberOfItems())
	assert.Equal(t, 0, m.NumberOfProducts())
	assert.Empty(t, m.Lanes())
	assert.Empty(t, m.CatalogHistory())
}

func Test_Machine_RegisterStartsEmpty(t *testing.T) {
	for _, code := range []string{"A1", "1A", "z9", "9z"} {
		t.Run(code, func(t *testing.T) {
			m := NewMachine()
			require.NoError(t, m.RegisterProduct(mustProduct(t, code, "Water")))

			items, err := m.NumberOfItems(code)
			require.NoError(t, err)
			assert.Equal(t, 0, items)
		})
	}
}

func Test_Machine_AddItemCounts(t *testing.T) {
	for _, n := range []int{0, 1, 7, 100} {
		m := NewMachine()
		require.NoError(t, m.RegisterProduct(mustProduct(t, "B2", "Gum")))
		for range n {
			require.NoError(t, m.AddItem("B2"))
		}

		items, err := m.NumberOfItems("B2")
		require.NoError(t, err)
		assert.Equal(t, n, items)
		sales, err := m.NumberOfSales("B2")
		require.NoError(t, err)
		assert.Equal(t, 0, sales)
	}
}

func Test_Machine_BuyUntilEmpty(t *testing.T) {
	// given
	m := NewMachine()
	require.NoError(t, m.RegisterProduct(mustProduct(t, "J4", "Oranje Juice")))
	require.NoError(t, m.AddItem("J4"))
	require.NoError(t, m.AddItem("J4"))

	// when
	require.NoError(t, m.BuyItem("J4"))
	require.NoError(t, m.BuyItem("J4"))
	err := m.BuyItem("J4")

	// then
	assert.ErrorIs(t, err, perrors.ErrProductUnavailable)
	assert.EqualError(t, err, "product unavailable: Oranje Juice")
	lane, err := m.Lane("J4")
	require.NoError(t, err)
	assert.Equal(t, 0, lane.NumberAvailable)
	assert.Equal(t, 2, lane.NumberOfSales)
}

func Test_Machine_DuplicateRegistration(t *testing.T) {
	// given
	m := NewMachine()
	require.NoError(t, m.RegisterProduct(mustProduct(t, "C3", "Mints")))
	require.NoError(t, m.AddItem("C3"))

	// when
	err := m.RegisterProduct(mustProduct(t, "c3", "Toffee"))

	// then
	assert.ErrorIs(t, err, perrors.ErrLaneCodeAlreadyInUse)
	lane, err := m.Lane("C3")
	require.NoError(t, err)
	assert.Equal(t, "Mints", lane.Product.Description())
	assert.Equal(t, 1, lane.NumberAvailable)
	assert.Equal(t, 1, m.NumberOfProducts())
	assert.Equal(t, []string{"Mints"}, m.CatalogHistory())
}

func Test_Machine_ReRegisterResetsCounters(t *testing.T) {
	// given
	m := NewMachine()
	cola := mustProduct(t, "D4", "Cola")
	require.NoError(t, m.RegisterProduct(cola))
	require.NoError(t, m.AddItem("D4"))
	require.NoError(t, m.AddItem("D4"))
	require.NoError(t, m.BuyItem("D4"))

	// when
	require.NoError(t, m.UnregisterProduct(cola))
	require.NoError(t, m.RegisterProduct(mustProduct(t, "D4", "Lemonade")))

	// then
	lane, err := m.Lane("D4")
	require.NoError(t, err)
	assert.Equal(t, "Lemonade", lane.Product.Description())
	assert.Equal(t, 0, lane.NumberAvailable)
	assert.Equal(t, 0, lane.NumberOfSales)
	assert.Equal(t, []string{"Cola", "Lemonade"}, m.CatalogHistory())
}

func Test_Machine_UnregisterMissing(t *testing.T) {
	m := NewMachine()
	err := m.UnregisterProduct(mustProduct(t, "E5", "Nuts"))
	assert.ErrorIs(t, err, perrors.ErrLaneCodeNotRegistered)
}

func Test_Machine_NotRegistered(t *testing.T) {
	m := newStockedMachine(t)

	testCases := []struct {
		name string
		call func() error
	}{
		{name: "AddItem", call: func() error { return m.AddItem("F6") }},
		{name: "BuyItem", call: func() error { return m.BuyItem("F6") }},
		{name: "NumberOfItems", call: func() error { _, err := m.NumberOfItems("F6"); return err }},
		{name: "NumberOfSales", call: func() error { _, err := m.NumberOfSales("F6"); return err }},
		{name: "Lane", call: func() error { _, err := m.Lane("F6"); return err }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.ErrorIs(t, tc.call(), perrors.ErrLaneCodeNotRegistered)
		})
	}
}

func Test_Machine_MalformedCodes(t *testing.T) {
	for _, code := range []string{"11", "AA", "", "A1B", "ſ1", "ı1", "1\u212a"} {
		t.Run(code, func(t *testing.T) {
			// given
			m := newStockedMachine(t)
			before := m.Lanes()
			product := Product{laneCode: code, description: "Bogus"}

			// when
			errs := []error{
				m.RegisterProduct(product),
				m.UnregisterProduct(product),
				m.AddItem(code),
				m.BuyItem(code),
			}
			_, err := m.NumberOfItems(code)
			errs = append(errs, err)
			_, err = m.NumberOfSales(code)
			errs = append(errs, err)

			// then
			for _, err := range errs {
				assert.ErrorIs(t, err, perrors.ErrInvalidArgument)
			}
			assert.Equal(t, before, m.Lanes())
		})
	}
}

func Test_Machine_RegisterRejectsNonASCIILetters(t *testing.T) {
	for _, code := range []string{"ſ1", "ı1", "1\u212a"} {
		t.Run(code, func(t *testing.T) {
			// given
			m := NewMachine()
			product, err := NewProduct(code, "Cola")
			require.NoError(t, err)

			// when
			err = m.RegisterProduct(product)

			// then
			assert.ErrorIs(t, err, perrors.ErrInvalidArgument)
			assert.Zero(t, m.NumberOfProducts())
		})
	}
}

func Test_Machine_LaneCodeCaseInsensitive(t *testing.T) {
	m := NewMachine()
	require.NoError(t, m.RegisterProduct(mustProduct(t, "g7", "Pretzels")))
	require.NoError(t, m.AddItem("G7"))
	require.NoError(t, m.AddItem("g7"))

	items, err := m.NumberOfItems("G7")
	require.NoError(t, err)
	assert.Equal(t, 2, items)
}

func Test_Machine_MostPopularTieBreak(t *testing.T) {
	// given
	m := NewMachine()
	for _, code := range []string{"B1", "A9", "C1"} {
		require.NoError(t, m.RegisterProduct(mustProduct(t, code, "Item "+code)))
		require.NoError(t, m.AddItem(code))
	}
	require.NoError(t, m.BuyItem("C1"))
	require.NoError(t, m.BuyItem("B1"))

	// when
	popular, err := m.MostPopular()

	// then
	require.NoError(t, err)
	assert.Equal(t, "B1", popular.LaneCode())

	// all zero sales: lowest code wins
	fresh := NewMachine()
	require.NoError(t, fresh.RegisterProduct(mustProduct(t, "Z1", "Last")))
	require.NoError(t, fresh.RegisterProduct(mustProduct(t, "1A", "First")))
	popular, err = fresh.MostPopular()
	require.NoError(t, err)
	assert.Equal(t, "1A", popular.LaneCode())
}

func Test_Machine_LanesSorted(t *testing.T) {
	m := newStockedMachine(t)
	require.NoError(t, m.RegisterProduct(mustProduct(t, "0B", "Bars")))

	lanes := m.Lanes()
	require.Len(t, lanes, 3)
	assert.Equal(t, "0B", lanes[0].Product.LaneCode())
	assert.Equal(t, "A1", lanes[1].Product.LaneCode())
	assert.Equal(t, 5, lanes[1].NumberAvailable)
	assert.Equal(t, "A2", lanes[2].Product.LaneCode())
}

func Test_Machine_ConcurrentPurchases(t *testing.T) {
	// given
	initialStock := 20
	totalRequests := 50
	m := NewMachine()
	require.NoError(t, m.RegisterProduct(mustProduct(t, "H8", "Flash Sale")))
	for range initialStock {
		require.NoError(t, m.AddItem("H8"))
	}

	// when
	var wg sync.WaitGroup
	var mu sync.Mutex
	successCount := 0
	for range totalRequests {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := m.BuyItem("H8"); err == nil {
				mu.Lock()
				successCount++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	// then
	assert.Equal(t, initialStock, successCount)
	lane, err := m.Lane("H8")
	require.NoError(t, err)
	assert.Equal(t, 0, lane.NumberAvailable)
	assert.Equal(t, initialStock, lane.NumberOfSales)
}
