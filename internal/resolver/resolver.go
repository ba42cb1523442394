package resolver

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/walletgraph/walletgraph/internal/chains"
	"github.com/walletgraph/walletgraph/internal/domain"
	"github.com/walletgraph/walletgraph/internal/relay"
	"github.com/walletgraph/walletgraph/internal/store"
)

// summaryConcurrency bounds the concurrent per-wallet fetches during an
// aggregated summary resolution
const summaryConcurrency = 8

// WalletFilter narrows a wallet listing. Empty members apply no constraint.
type WalletFilter struct {
	// ChainID restricts wallets to one chain when non-empty
	ChainID string
	// Addresses restricts wallets to an explicit allow-list when non-empty
	Addresses []string
}

// TransactionPage bounds a transaction history request with relay cursors
type TransactionPage struct {
	Before *string
	After  *string
	Limit  int
}

// Resolver composes wallet graph answers from the ownership store and the
// per-chain backends
type Resolver struct {
	store    store.Store
	registry *chains.Registry
}

// NewResolver creates a resolver
func NewResolver(s store.Store, registry *chains.Registry) *Resolver {
	return &Resolver{store: s, registry: registry}
}

// User resolves a user by id, returning nil when absent
func (r *Resolver) User(ctx context.Context, userID string) (*domain.User, error) {
	row, err := r.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve user: %w", err)
	}
	if row == nil {
		return nil, nil
	}
	return &domain.User{ID: row.ID, Username: row.Username}, nil
}

// Wallet composes a wallet view for a chain name and address. No storage is
// touched; an unknown chain name is the only failure.
func (r *Resolver) Wallet(chainName, address string) (*domain.Wallet, error) {
	chainID, err := domain.InferChainID(chainName)
	if err != nil {
		return nil, err
	}
	w := domain.NewWallet(chainID, address)
	return &w, nil
}

// Wallets resolves the user's linked wallets as a connection. The page flags
// are always false: the listing is not paginated, every matching wallet is
// returned. An unknown chain name in the filter is an error, not an empty
// result.
func (r *Resolver) Wallets(ctx context.Context, userID string, filter WalletFilter) (*relay.Connection[domain.Wallet], error) {
	var keyFilter store.PublicKeyFilter
	if filter.ChainID != "" {
		chainID, err := domain.InferChainID(filter.ChainID)
		if err != nil {
			return nil, err
		}
		blockchain := chainID.String()
		keyFilter.Blockchain = &blockchain
	}
	keyFilter.Addresses = filter.Addresses

	keys, err := r.store.GetPublicKeysForUser(ctx, userID, keyFilter)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve wallets: %w", err)
	}

	wallets := make([]domain.Wallet, 0, len(keys))
	for _, k := range keys {
		chainID, err := domain.InferChainID(k.Blockchain)
		if err != nil {
			return nil, err
		}
		wallets = append(wallets, domain.NewWallet(chainID, k.PublicKey))
	}

	return relay.Build(wallets, false, false), nil
}

// Balances resolves the native and token balances of a wallet
func (r *Resolver) Balances(ctx context.Context, wallet domain.Wallet) (*domain.Balances, error) {
	backend, err := r.registry.BackendFor(wallet.ChainID)
	if err != nil {
		return nil, err
	}
	return backend.GetBalances(ctx, wallet.Address)
}

// Nfts resolves the NFTs held by a wallet as a connection, optionally
// narrowed to a set of token identifiers
func (r *Resolver) Nfts(ctx context.Context, wallet domain.Wallet, mints []string) (*relay.Connection[domain.Nft], error) {
	backend, err := r.registry.BackendFor(wallet.ChainID)
	if err != nil {
		return nil, err
	}

	nfts, err := backend.GetNfts(ctx, wallet.Address, mints)
	if err != nil {
		return nil, err
	}

	return relay.Build(nfts, false, false), nil
}

// Transactions resolves a page of wallet transaction history as a connection,
// newest first. Relay cursors decode to transaction node ids; the chain-native
// position is recovered from the id before dispatch. A full page reports
// hasNextPage; hasPreviousPage reflects whether a before cursor was supplied.
func (r *Resolver) Transactions(ctx context.Context, wallet domain.Wallet, page TransactionPage) (*relay.Connection[domain.Transaction], error) {
	backend, err := r.registry.BackendFor(wallet.ChainID)
	if err != nil {
		return nil, err
	}

	backendPage := chains.Page{Limit: page.Limit}
	if page.Before != nil {
		hash, err := cursorToHash(*page.Before, wallet.ChainID)
		if err != nil {
			return nil, err
		}
		backendPage.Before = &hash
	}
	if page.After != nil {
		hash, err := cursorToHash(*page.After, wallet.ChainID)
		if err != nil {
			return nil, err
		}
		backendPage.After = &hash
	}

	txs, err := backend.GetTransactions(ctx, wallet.Address, backendPage)
	if err != nil {
		return nil, err
	}

	hasNext := page.Limit > 0 && len(txs) == page.Limit
	hasPrev := page.Before != nil

	return relay.Build(txs, hasNext, hasPrev), nil
}

// cursorToHash recovers the chain-native transaction position from a relay
// cursor. The decoded node id has the form "{chain}_tx:{hash}".
func cursorToHash(cursor string, chainID domain.ChainID) (string, error) {
	nodeID, err := relay.DecodeCursor(cursor)
	if err != nil {
		return "", err
	}

	prefix := fmt.Sprintf("%s_tx:", chainID)
	if !strings.HasPrefix(nodeID, prefix) {
		return "", fmt.Errorf("cursor does not reference a %s transaction: %s", chainID, nodeID)
	}

	return strings.TrimPrefix(nodeID, prefix), nil
}

// WalletSummary aggregates balances, NFTs, and recent transactions for one
// wallet. Fields resolved independently; a failed field is nil while its
// error is reported alongside.
type WalletSummary struct {
	Wallet       domain.Wallet                         `json:"wallet"`
	Balances     *domain.Balances                      `json:"balances,omitempty"`
	Nfts         *relay.Connection[domain.Nft]         `json:"nfts,omitempty"`
	Transactions *relay.Connection[domain.Transaction] `json:"transactions,omitempty"`
	Errors       []string                              `json:"errors,omitempty"`
}

// Summaries resolves aggregated summaries for the user's wallets. Per-wallet
// fields are fetched concurrently with bounded parallelism; one wallet's
// failure never aborts another's resolution.
func (r *Resolver) Summaries(ctx context.Context, userID string, filter WalletFilter, transactionLimit int) ([]WalletSummary, error) {
	conn, err := r.Wallets(ctx, userID, filter)
	if err != nil {
		return nil, err
	}
	if conn == nil {
		return []WalletSummary{}, nil
	}

	summaries := make([]WalletSummary, len(conn.Edges))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(summaryConcurrency)

	for i, edge := range conn.Edges {
		summaries[i].Wallet = edge.Node
		g.Go(func() error {
			r.fillSummary(gctx, &summaries[i], transactionLimit)
			return nil
		})
	}

	// Workers never return errors; Wait only observes context cancellation
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return summaries, nil
}

func (r *Resolver) fillSummary(ctx context.Context, s *WalletSummary, transactionLimit int) {
	balances, err := r.Balances(ctx, s.Wallet)
	if err != nil {
		s.Errors = append(s.Errors, fmt.Sprintf("balances: %v", err))
	} else {
		s.Balances = balances
	}

	nfts, err := r.Nfts(ctx, s.Wallet, nil)
	if err != nil {
		s.Errors = append(s.Errors, fmt.Sprintf("nfts: %v", err))
	} else {
		s.Nfts = nfts
	}

	txs, err := r.Transactions(ctx, s.Wallet, TransactionPage{Limit: transactionLimit})
	if err != nil {
		s.Errors = append(s.Errors, fmt.Sprintf("transactions: %v", err))
	} else {
		s.Transactions = txs
	}
}
