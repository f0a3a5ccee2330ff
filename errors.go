package strata

import "errors"

// Common errors shared by strata and its sub-packages.
var (
	// ErrInvalidDimensions is returned when width or height is non-positive
	// or when two surfaces of different sizes are combined.
	ErrInvalidDimensions = errors.New("strata: invalid dimensions")

	// ErrAllocation is returned when a surface cannot be allocated, for
	// example because the configured surface memory budget is exhausted.
	ErrAllocation = errors.New("strata: surface allocation failed")

	// ErrUnknownLayer is returned when a mutator receives an unknown layer id.
	ErrUnknownLayer = errors.New("strata: unknown layer")

	// ErrLocked is returned when a lock flag forbids the requested mutation.
	ErrLocked = errors.New("strata: layer is locked")

	// ErrInvalidOrder is returned when a reorder list is not a permutation
	// of a single sibling scope.
	ErrInvalidOrder = errors.New("strata: invalid layer order")

	// ErrInvalidConfig is returned when a configuration fails validation.
	ErrInvalidConfig = errors.New("strata: invalid config")
)
