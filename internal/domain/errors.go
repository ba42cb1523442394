package domain

import "errors"

var (
	// ErrUnknownChain is returned when a persisted chain name string is not in the supported set
	ErrUnknownChain = errors.New("unknown chain identifier")

	// ErrUnsupportedChain is returned when no backend is registered for a chain id
	ErrUnsupportedChain = errors.New("unsupported chain")

	// ErrInvalidAddress is returned when an address does not parse for its chain
	ErrInvalidAddress = errors.New("invalid address")
)
