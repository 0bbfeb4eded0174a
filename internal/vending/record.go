package vending

import (
	"fmt"

	perrors "github.com/abgdnv/vendingmachine/internal/errors"
)

// ProductRecord tracks stock on hand and cumulative sales for one product.
// It is not safe for concurrent use; Machine serialises access to the records it owns.
type ProductRecord struct {
	product         Product
	numberAvailable int
	numberOfSales   int
}

// NewProductRecord creates an empty record for product.
func NewProductRecord(product Product) (*ProductRecord, error) {
	if product.IsZero() {
		return nil, fmt.Errorf("%w: product cannot be empty", perrors.ErrInvalidArgument)
	}
	return &ProductRecord{product: product}, nil
}

func (r *ProductRecord) Product() Product {
	return r.product
}

func (r *ProductRecord) NumberAvailable() int {
	return r.numberAvailable
}

func (r *ProductRecord) NumberOfSales() int {
	return r.numberOfSales
}

// AddItem puts one more item in stock.
func (r *ProductRecord) AddItem() {
	r.numberAvailable++
}

// BuyItem sells one item. With nothing in stock it returns a *ProductUnavailableError
// and leaves both counters untouched.
func (r *ProductRecord) BuyItem() error {
	if r.numberAvailable <= 0 {
		return &perrors.ProductUnavailableError{Description: r.product.Description()}
	}
	r.numberAvailable--
	r.numberOfSales++
	return nil
}
