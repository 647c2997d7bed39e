package dispatch

import "errors"

var (
	// ErrRegistryNil is returned when a dispatcher is created without a registry.
	ErrRegistryNil = errors.New("integration registry cannot be nil")
)
