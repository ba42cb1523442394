package solana

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/walletgraph/walletgraph/internal/chains"
	"github.com/walletgraph/walletgraph/internal/domain"
)

const defaultTransactionPageSize = 50

// RPC abstracts the JSON-RPC calls the backend depends on
type RPC interface {
	GetBalance(ctx context.Context, address string) (uint64, error)
	GetTokenAccountsByOwner(ctx context.Context, owner string) ([]TokenAccount, error)
	GetSignaturesForAddress(ctx context.Context, address string, before, until string, limit int) ([]SignatureInfo, error)
}

// Backend serves Solana wallet data over JSON-RPC
type Backend struct {
	rpc RPC
}

// NewBackend creates a Solana backend
func NewBackend(rpc RPC) *Backend {
	return &Backend{rpc: rpc}
}

// ChainID reports which chain this backend serves
func (b *Backend) ChainID() domain.ChainID {
	return domain.ChainIDSolana
}

// ValidateAddress reports whether the address is a well-formed base58 public key
func (b *Backend) ValidateAddress(address string) error {
	if _, err := solana.PublicKeyFromBase58(address); err != nil {
		return fmt.Errorf("%w: %q is not a base58 public key", domain.ErrInvalidAddress, address)
	}
	return nil
}

// GetBalances retrieves the native SOL balance and SPL token positions.
// Token accounts with amount "1" and zero decimals look like NFT mints and
// are excluded here; GetNfts surfaces them.
func (b *Backend) GetBalances(ctx context.Context, address string) (*domain.Balances, error) {
	if err := b.ValidateAddress(address); err != nil {
		return nil, err
	}

	lamports, err := b.rpc.GetBalance(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("failed to get native balance: %w", err)
	}

	accounts, err := b.rpc.GetTokenAccountsByOwner(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("failed to get token accounts: %w", err)
	}

	tokens := make([]domain.TokenBalance, 0, len(accounts))
	for _, a := range accounts {
		if isNftAccount(a) {
			continue
		}
		tokens = append(tokens, domain.TokenBalance{
			Token:    a.Mint,
			Amount:   a.Amount,
			Decimals: a.Decimals,
		})
	}

	return &domain.Balances{
		ID:      domain.WalletNodeID(domain.ChainIDSolana, address),
		ChainID: domain.ChainIDSolana,
		Address: address,
		Native: domain.TokenBalance{
			Token:    "sol",
			Amount:   strconv.FormatUint(lamports, 10),
			Decimals: 9,
		},
		Tokens: tokens,
	}, nil
}

// GetNfts retrieves the NFT mints held by an address, optionally narrowed to
// a set of mint addresses
func (b *Backend) GetNfts(ctx context.Context, address string, mints []string) ([]domain.Nft, error) {
	if err := b.ValidateAddress(address); err != nil {
		return nil, err
	}

	accounts, err := b.rpc.GetTokenAccountsByOwner(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("failed to get token accounts: %w", err)
	}

	var wanted map[string]struct{}
	if len(mints) > 0 {
		wanted = make(map[string]struct{}, len(mints))
		for _, m := range mints {
			wanted[m] = struct{}{}
		}
	}

	nfts := make([]domain.Nft, 0, len(accounts))
	for _, a := range accounts {
		if !isNftAccount(a) {
			continue
		}
		if wanted != nil {
			if _, ok := wanted[a.Mint]; !ok {
				continue
			}
		}
		nfts = append(nfts, domain.Nft{
			ID:      domain.NftNodeID(domain.ChainIDSolana, a.Mint),
			ChainID: domain.ChainIDSolana,
			Address: a.Mint,
		})
	}

	return nfts, nil
}

// GetTransactions retrieves a page of signatures touching the address, newest
// first
func (b *Backend) GetTransactions(ctx context.Context, address string, page chains.Page) ([]domain.Transaction, error) {
	if err := b.ValidateAddress(address); err != nil {
		return nil, err
	}

	limit := page.Limit
	if limit <= 0 {
		limit = defaultTransactionPageSize
	}

	var before, until string
	if page.Before != nil {
		before = *page.Before
	}
	if page.After != nil {
		until = *page.After
	}

	signatures, err := b.rpc.GetSignaturesForAddress(ctx, address, before, until, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get signatures: %w", err)
	}

	txs := make([]domain.Transaction, 0, len(signatures))
	for _, s := range signatures {
		var ts time.Time
		if s.BlockTime != nil {
			ts = time.Unix(*s.BlockTime, 0).UTC()
		}
		txs = append(txs, domain.Transaction{
			ID:        domain.TransactionNodeID(domain.ChainIDSolana, s.Signature),
			ChainID:   domain.ChainIDSolana,
			Hash:      s.Signature,
			Block:     s.Slot,
			Timestamp: ts,
			Failed:    s.Err != nil,
		})
	}

	return txs, nil
}

// isNftAccount reports whether a token account looks like an NFT holding:
// exactly one unit of a zero-decimal mint
func isNftAccount(a TokenAccount) bool {
	return a.Decimals == 0 && a.Amount == "1"
}
