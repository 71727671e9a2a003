package bankparse

import "errors"

var (
	// ErrSampleMissing is returned when a target's sample PDF or expected
	// CSV/XLSX file is absent. This is the only error that aborts a run
	// before the correction loop starts; generation, execution, and
	// comparison failures become attempt feedback instead of errors.
	ErrSampleMissing = errors.New("bankparse: sample files missing")

	// ErrAttemptsExhausted is returned when the attempt budget is spent
	// without a passing verdict.
	ErrAttemptsExhausted = errors.New("bankparse: attempt budget exhausted")

	// ErrInvalidConfig is returned for invalid configuration values.
	ErrInvalidConfig = errors.New("bankparse: invalid configuration")
)
