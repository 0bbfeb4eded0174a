package vending

import (
	"fmt"

	perrors "github.com/abgdnv/vendingmachine/internal/errors"
)

// ValidateLaneCode reports whether code is one ASCII letter and one digit, in either order.
// The letter may be upper or lower case.
func ValidateLaneCode(code string) error {
	if len(code) != 2 {
		return fmt.Errorf("%w: lane code %q must be exactly two characters", perrors.ErrInvalidArgument, code)
	}
	a, b := code[0], code[1]
	if (isLetter(a) && isDigit(b)) || (isDigit(a) && isLetter(b)) {
		return nil
	}
	return fmt.Errorf("%w: lane code %q must be one letter and one digit", perrors.ErrInvalidArgument, code)
}

// normalizeLaneCode upper-cases ASCII letters only. Other bytes are kept, so a
// code that fails ValidateLaneCode still fails it after normalisation.
func normalizeLaneCode(code string) string {
	b := []byte(code)
	for i, c := range b {
		if 'a' <= c && c <= 'z' {
			b[i] = c - ('a' - 'A')
		}
	}
	return string(b)
}

func isLetter(c byte) bool {
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

func isDigit(c byte) bool {
	return '0' <= c && c <= '9'
}
