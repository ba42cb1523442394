package domain

import "fmt"

// ChainID identifies a supported blockchain network
type ChainID string

const (
	ChainIDEthereum ChainID = "ethereum"
	ChainIDSolana   ChainID = "solana"
)

// String returns the string representation of the ChainID
func (c ChainID) String() string {
	return string(c)
}

// IsValidChainID checks if a chain id belongs to the supported set
func IsValidChainID(c ChainID) bool {
	return c == ChainIDEthereum || c == ChainIDSolana
}

// InferChainID maps a persisted lower-case chain name onto the ChainID
// enumeration. This is the single point where string data from the ownership
// store is validated into the typed enumeration; unknown values fail loudly
// so a lookup is never routed to the wrong chain backend.
func InferChainID(value string) (ChainID, error) {
	switch value {
	case "ethereum":
		return ChainIDEthereum, nil
	case "solana":
		return ChainIDSolana, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownChain, value)
	}
}
