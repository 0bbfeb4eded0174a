package vending

import (
	"fmt"
	"sort"
	"sync"

	perrors "github.com/abgdnv/vendingmachine/internal/errors"
)

// Lane is a point-in-time view of one registered lane.
type Lane struct {
	Product         Product
	NumberAvailable int
	NumberOfSales   int
}

// Machine is the lane registry. It owns one ProductRecord per registered lane code.
// A single RWMutex guards the lane map, every record and the catalog.
type Machine struct {
	mu      sync.RWMutex
	lanes   map[string]*ProductRecord
	catalog *Catalog
}

// NewMachine creates an empty machine.
func NewMachine() *Machine {
	return &Machine{
		lanes:   make(map[string]*ProductRecord),
		catalog: NewCatalog(),
	}
}

// RegisterProduct creates a fresh record for product under its lane code.
// Returns ErrLaneCodeAlreadyInUse if the lane is occupied.
func (m *Machine) RegisterProduct(product Product) error {
	if err := ValidateLaneCode(product.LaneCode()); err != nil {
		return err
	}
	key := normalizeLaneCode(product.LaneCode())

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.lanes[key]; exists {
		return fmt.Errorf("%w: %s", perrors.ErrLaneCodeAlreadyInUse, key)
	}
	record, err := NewProductRecord(product)
	if err != nil {
		return err
	}
	m.lanes[key] = record
	m.catalog.Record(product.Description())
	return nil
}

// UnregisterProduct removes the lane the product occupies, discarding its record.
// Returns ErrLaneCodeNotRegistered if the lane is empty.
func (m *Machine) UnregisterProduct(product Product) error {
	if err := ValidateLaneCode(product.LaneCode()); err != nil {
		return err
	}
	key := normalizeLaneCode(product.LaneCode())

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.lanes[key]; !exists {
		return fmt.Errorf("%w: %s", perrors.ErrLaneCodeNotRegistered, key)
	}
	delete(m.lanes, key)
	return nil
}

// AddItem puts one item into the lane.
func (m *Machine) AddItem(laneCode string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	record, err := m.lookup(laneCode)
	if err != nil {
		return err
	}
	record.AddItem()
	return nil
}

// BuyItem sells one item from the lane. ProductUnavailable errors from the record are
// returned as is.
func (m *Machine) BuyItem(laneCode string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	record, err := m.lookup(laneCode)
	if err != nil {
		return err
	}
	return record.BuyItem()
}

// NumberOfProducts returns the number of registered lanes.
func (m *Machine) NumberOfProducts() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.lanes)
}

// TotalNumberOfItems returns the stock summed over all lanes.
func (m *Machine) TotalNumberOfItems() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	total := 0
	for _, record := range m.lanes {
		total += record.NumberAvailable()
	}
	return total
}

// NumberOfItems returns the stock of one lane.
func (m *Machine) NumberOfItems(laneCode string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	record, err := m.lookup(laneCode)
	if err != nil {
		return 0, err
	}
	return record.NumberAvailable(), nil
}

// NumberOfSales returns the units sold from one lane since it was registered.
func (m *Machine) NumberOfSales(laneCode string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	record, err := m.lookup(laneCode)
	if err != nil {
		return 0, err
	}
	return record.NumberOfSales(), nil
}

// MostPopular returns the product with the most sales. Ties go to the lowest lane code.
// Returns ErrLaneCodeNotRegistered when the machine is empty.
func (m *Machine) MostPopular() (Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.lanes) == 0 {
		return Product{}, fmt.Errorf("%w: no products registered in machine", perrors.ErrLaneCodeNotRegistered)
	}

	var best *ProductRecord
	for _, key := range m.sortedKeys() {
		record := m.lanes[key]
		if best == nil || record.NumberOfSales() > best.NumberOfSales() {
			best = record
		}
	}
	return best.Product(), nil
}

// Lane returns a snapshot of one lane.
func (m *Machine) Lane(laneCode string) (Lane, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	record, err := m.lookup(laneCode)
	if err != nil {
		return Lane{}, err
	}
	return snapshot(record), nil
}

// Lanes returns snapshots of every lane ordered by lane code.
func (m *Machine) Lanes() []Lane {
	m.mu.RLock()
	defer m.mu.RUnlock()

	lanes := make([]Lane, 0, len(m.lanes))
	for _, key := range m.sortedKeys() {
		lanes = append(lanes, snapshot(m.lanes[key]))
	}
	return lanes
}

// CatalogHistory returns every description ever registered on this machine.
func (m *Machine) CatalogHistory() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.catalog.Descriptions()
}

// lookup validates laneCode and returns its record. Callers must hold m.mu.
func (m *Machine) lookup(laneCode string) (*ProductRecord, error) {
	if err := ValidateLaneCode(laneCode); err != nil {
		return nil, err
	}
	key := normalizeLaneCode(laneCode)
	record, ok := m.lanes[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", perrors.ErrLaneCodeNotRegistered, key)
	}
	return record, nil
}

func (m *Machine) sortedKeys() []string {
	keys := make([]string, 0, len(m.lanes))
	for key := range m.lanes {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func snapshot(record *ProductRecord) Lane {
	return Lane{
		Product:         record.Product(),
		NumberAvailable: record.NumberAvailable(),
		NumberOfSales:   record.NumberOfSales(),
	}
}
