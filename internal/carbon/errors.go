package carbon

import "errors"

var (
	// ErrInvalidInput reports a negative or out-of-range quantity.
	ErrInvalidInput = errors.New("invalid input")

	// ErrDivisionByZero reports a reduction percentage whose baseline is zero.
	ErrDivisionByZero = errors.New("division by zero")

	// ErrEmptyInput reports an aggregation over nothing.
	ErrEmptyInput = errors.New("empty input")
)
