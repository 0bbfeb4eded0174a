// Package errors provides custom error types for vending machine operations.
package errors

import (
	"errors"
	"fmt"
)

var ErrInvalidArgument = errors.New("invalid argument")
var ErrLaneCodeAlreadyInUse = errors.New("lane code already in use")
var ErrLaneCodeNotRegistered = errors.New("lane code not registered")
var ErrProductUnavailable = errors.New("product unavailable")

// ProductUnavailableError is returned when a purchase hits a lane with no stock.
// It matches ErrProductUnavailable with errors.Is.
type ProductUnavailableError struct {
	Description string
}

func (e *ProductUnavailableError) Error() string {
	return fmt.Sprintf("product unavailable: %s", e.Description)
}

func (e *ProductUnavailableError) Unwrap() error {
	return ErrProductUnavailable
}
