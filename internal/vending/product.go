package vending

import (
	"fmt"
	"strings"

	perrors "github.com/abgdnv/vendingmachine/internal/errors"
)

// Product is an immutable description of what is sold in a lane.
// Two products are equal when their lane codes are equal.
type Product struct {
	laneCode    string
	description string
}

// NewProduct creates a product for the given lane. Both fields must be non-blank.
// ASCII letters of the lane code are stored upper-cased; its format is checked on registration.
func NewProduct(laneCode, description string) (Product, error) {
	if strings.TrimSpace(laneCode) == "" {
		return Product{}, fmt.Errorf("%w: lane code cannot be blank", perrors.ErrInvalidArgument)
	}
	if strings.TrimSpace(description) == "" {
		return Product{}, fmt.Errorf("%w: description cannot be blank", perrors.ErrInvalidArgument)
	}
	return Product{
		laneCode:    normalizeLaneCode(laneCode),
		description: description,
	}, nil
}

func (p Product) LaneCode() string {
	return p.laneCode
}

func (p Product) Description() string {
	return p.description
}

// IsZero reports whether p was never constructed.
func (p Product) IsZero() bool {
	return p.laneCode == ""
}

// Equal compares products by lane code only.
func (p Product) Equal(other Product) bool {
	return p.laneCode == other.laneCode
}

func (p Product) String() string {
	return p.laneCode + " - " + p.description
}
