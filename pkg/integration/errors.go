package integration

import "errors"

var (
	ErrMissingName         = errors.New("integration name is required")
	ErrUnknownChannel      = errors.New("unknown integration channel")
	ErrMissingEndpoint     = errors.New("integration endpoint is required")
	ErrInvalidEndpoint     = errors.New("invalid integration endpoint")
	ErrMissingCredentials  = errors.New("missing integration credentials")
	ErrMissingDestinations = errors.New("integration destination list is empty")
)
