package ethereum

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/walletgraph/walletgraph/internal/adapter"
	"github.com/walletgraph/walletgraph/internal/chains"
	"github.com/walletgraph/walletgraph/internal/domain"
)

const defaultTransactionPageSize = 50

// Backend serves Ethereum wallet data. Native balance comes straight from an
// execution client; tokens, NFTs, and history come from the indexer.
type Backend struct {
	client  adapter.EthClient
	indexer Indexer
}

// NewBackend creates an Ethereum backend
func NewBackend(client adapter.EthClient, indexer Indexer) *Backend {
	return &Backend{
		client:  client,
		indexer: indexer,
	}
}

// ChainID reports which chain this backend serves
func (b *Backend) ChainID() domain.ChainID {
	return domain.ChainIDEthereum
}

// ValidateAddress reports whether the address is a well-formed hex address
func (b *Backend) ValidateAddress(address string) error {
	if !common.IsHexAddress(address) {
		return fmt.Errorf("%w: %q is not a hex address", domain.ErrInvalidAddress, address)
	}
	return nil
}

// GetBalances retrieves the native ETH balance and ERC-20 positions
func (b *Backend) GetBalances(ctx context.Context, address string) (*domain.Balances, error) {
	if err := b.ValidateAddress(address); err != nil {
		return nil, err
	}

	native, err := b.client.BalanceAt(ctx, common.HexToAddress(address), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get native balance: %w", err)
	}

	tokenResults, err := b.indexer.GetTokenBalances(ctx, address)
	if err != nil {
		return nil, err
	}

	tokens := make([]domain.TokenBalance, 0, len(tokenResults))
	for _, t := range tokenResults {
		tokens = append(tokens, domain.TokenBalance{
			Token:    t.ContractAddress,
			Amount:   t.Amount,
			Decimals: t.Decimals,
		})
	}

	return &domain.Balances{
		ID:      domain.WalletNodeID(domain.ChainIDEthereum, address),
		ChainID: domain.ChainIDEthereum,
		Address: address,
		Native: domain.TokenBalance{
			Token:    "eth",
			Amount:   native.String(),
			Decimals: 18,
		},
		Tokens: tokens,
	}, nil
}

// GetNfts retrieves the ERC-721 tokens held by an address, optionally
// narrowed to a set of token identifiers (contract:tokenNumber)
func (b *Backend) GetNfts(ctx context.Context, address string, mints []string) ([]domain.Nft, error) {
	if err := b.ValidateAddress(address); err != nil {
		return nil, err
	}

	results, err := b.indexer.GetNfts(ctx, address)
	if err != nil {
		return nil, err
	}

	var wanted map[string]struct{}
	if len(mints) > 0 {
		wanted = make(map[string]struct{}, len(mints))
		for _, m := range mints {
			wanted[m] = struct{}{}
		}
	}

	nfts := make([]domain.Nft, 0, len(results))
	for _, r := range results {
		tokenAddress := fmt.Sprintf("%s:%s", r.ContractAddress, r.TokenID)
		if wanted != nil {
			if _, ok := wanted[tokenAddress]; !ok {
				continue
			}
		}
		nfts = append(nfts, domain.Nft{
			ID:           domain.NftNodeID(domain.ChainIDEthereum, tokenAddress),
			ChainID:      domain.ChainIDEthereum,
			Address:      tokenAddress,
			CollectionID: r.CollectionID,
			Name:         r.Name,
			ImageURL:     r.ImageURL,
		})
	}

	return nfts, nil
}

// GetTransactions retrieves a page of transaction history, newest first
func (b *Backend) GetTransactions(ctx context.Context, address string, page chains.Page) ([]domain.Transaction, error) {
	if err := b.ValidateAddress(address); err != nil {
		return nil, err
	}

	limit := page.Limit
	if limit <= 0 {
		limit = defaultTransactionPageSize
	}

	var before, after string
	if page.Before != nil {
		before = *page.Before
	}
	if page.After != nil {
		after = *page.After
	}

	results, err := b.indexer.GetTransactions(ctx, address, before, after, limit)
	if err != nil {
		return nil, err
	}

	txs := make([]domain.Transaction, 0, len(results))
	for _, r := range results {
		txs = append(txs, domain.Transaction{
			ID:        domain.TransactionNodeID(domain.ChainIDEthereum, r.Hash),
			ChainID:   domain.ChainIDEthereum,
			Hash:      r.Hash,
			Block:     r.BlockNumber,
			Timestamp: r.Timestamp,
			Failed:    r.Failed,
		})
	}

	return txs, nil
}
