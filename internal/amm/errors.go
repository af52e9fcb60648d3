package amm

import "errors"

var (
	// ErrZeroAmount is returned when an operation is asked to move nothing.
	ErrZeroAmount = errors.New("amount must be positive")
	// ErrRatioMismatch is returned when a deposit does not match the reserve ratio.
	ErrRatioMismatch = errors.New("deposit ratio does not match reserves")
	// ErrInvalidState is returned when the pool cannot serve the request, e.g. an empty reserve.
	ErrInvalidState = errors.New("invalid pool state")
	// ErrInvalidFee is returned for a fee outside [0, 1).
	ErrInvalidFee = errors.New("invalid fee")
)
