package engine

import "errors"

var (
	// ErrInvalidConfiguration covers billing cycle and statement settings
	// outside their valid ranges.
	ErrInvalidConfiguration = errors.New("invalid cycle configuration")

	// ErrInvalidLoanParameters covers non-positive principal, negative rate
	// or a non-positive installment count.
	ErrInvalidLoanParameters = errors.New("invalid loan parameters")

	// ErrScheduleImbalance means a generated schedule failed its internal
	// consistency check. It indicates a calculation bug and should never
	// surface in normal operation.
	ErrScheduleImbalance = errors.New("amortization schedule does not balance")
)
