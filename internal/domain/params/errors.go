package params

import "errors"

// Sentinel errors returned while building a Bank.
var (
	ErrInvalidBounds  = errors.New("invalid parameter bounds")
	ErrInvalidCount   = errors.New("candidate count must be positive")
	ErrInvalidKFactor = errors.New("k-factor offset must be positive")
)
