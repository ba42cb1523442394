package chains

import (
	"context"
	"fmt"

	"github.com/walletgraph/walletgraph/internal/domain"
)

// Page bounds a transaction history request. Before and After carry
// chain-native opaque positions (a transaction hash or signature); nil means
// unbounded on that side. Limit of zero falls back to the backend default.
type Page struct {
	Before *string
	After  *string
	Limit  int
}

// Backend abstracts per-chain wallet data retrieval
type Backend interface {
	// ChainID reports which chain this backend serves
	ChainID() domain.ChainID

	// ValidateAddress reports whether the address is well-formed for the chain
	ValidateAddress(address string) error

	// GetBalances retrieves the native balance and token balances for an address
	GetBalances(ctx context.Context, address string) (*domain.Balances, error)

	// GetNfts retrieves the NFTs held by an address. A non-empty mints list
	// narrows the result to those token identifiers.
	GetNfts(ctx context.Context, address string, mints []string) ([]domain.Nft, error)

	// GetTransactions retrieves a page of transaction history for an address,
	// newest first
	GetTransactions(ctx context.Context, address string, page Page) ([]domain.Transaction, error)
}

// Registry maps chain ids to backends
type Registry struct {
	backends map[domain.ChainID]Backend
}

// NewRegistry creates an empty backend registry
func NewRegistry() *Registry {
	return &Registry{
		backends: make(map[domain.ChainID]Backend),
	}
}

// Register adds a backend for its chain, replacing any previous registration
func (r *Registry) Register(b Backend) {
	r.backends[b.ChainID()] = b
}

// BackendFor retrieves the backend serving a chain
func (r *Registry) BackendFor(chainID domain.ChainID) (Backend, error) {
	b, ok := r.backends[chainID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedChain, chainID)
	}
	return b, nil
}

// ChainIDs lists the registered chains
func (r *Registry) ChainIDs() []domain.ChainID {
	ids := make([]domain.ChainID, 0, len(r.backends))
	for id := range r.backends {
		ids = append(ids, id)
	}
	return ids
}
