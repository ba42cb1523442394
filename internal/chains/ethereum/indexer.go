package ethereum

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/walletgraph/walletgraph/internal/adapter"
)

// Indexer abstracts the external Ethereum indexing service used for token
// balances, NFT holdings, and transaction history. The execution client alone
// cannot answer these without scanning every block.
type Indexer interface {
	GetTokenBalances(ctx context.Context, address string) ([]TokenBalanceResult, error)
	GetNfts(ctx context.Context, address string) ([]NftResult, error)
	GetTransactions(ctx context.Context, address string, beforeHash, afterHash string, limit int) ([]TransactionResult, error)
}

// TokenBalanceResult is one ERC-20 position as reported by the indexer
type TokenBalanceResult struct {
	ContractAddress string `json:"contractAddress"`
	Amount          string `json:"amount"`
	Decimals        uint8  `json:"decimals"`
}

// NftResult is one ERC-721 token as reported by the indexer
type NftResult struct {
	ContractAddress string `json:"contractAddress"`
	TokenID         string `json:"tokenId"`
	CollectionID    string `json:"collectionId"`
	Name            string `json:"name"`
	ImageURL        string `json:"imageUrl"`
}

// TransactionResult is one historical transaction as reported by the indexer
type TransactionResult struct {
	Hash        string    `json:"hash"`
	BlockNumber uint64    `json:"blockNumber"`
	Timestamp   time.Time `json:"timestamp"`
	Failed      bool      `json:"failed"`
}

// IndexerClient talks to the indexing service over its REST API
type IndexerClient struct {
	baseURL    string
	apiKey     string
	httpClient adapter.HTTPClient
}

// NewIndexerClient creates a new indexer API client
func NewIndexerClient(baseURL, apiKey string, httpClient adapter.HTTPClient) *IndexerClient {
	return &IndexerClient{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: httpClient,
	}
}

func (c *IndexerClient) headers() map[string]string {
	h := map[string]string{}
	if c.apiKey != "" {
		h["X-API-KEY"] = c.apiKey
	}
	return h
}

// GetTokenBalances retrieves the ERC-20 positions of an address
func (c *IndexerClient) GetTokenBalances(ctx context.Context, address string) ([]TokenBalanceResult, error) {
	var response struct {
		Balances []TokenBalanceResult `json:"balances"`
	}

	endpoint := fmt.Sprintf("%s/v1/addresses/%s/tokens", c.baseURL, url.PathEscape(address))
	if err := c.httpClient.Get(ctx, endpoint, c.headers(), &response); err != nil {
		return nil, fmt.Errorf("failed to get token balances: %w", err)
	}

	return response.Balances, nil
}

// GetNfts retrieves the ERC-721 tokens held by an address
func (c *IndexerClient) GetNfts(ctx context.Context, address string) ([]NftResult, error) {
	var response struct {
		Nfts []NftResult `json:"nfts"`
	}

	endpoint := fmt.Sprintf("%s/v1/addresses/%s/nfts", c.baseURL, url.PathEscape(address))
	if err := c.httpClient.Get(ctx, endpoint, c.headers(), &response); err != nil {
		return nil, fmt.Errorf("failed to get nfts: %w", err)
	}

	return response.Nfts, nil
}

// GetTransactions retrieves a page of transaction history, newest first.
// beforeHash and afterHash are exclusive bounds; empty means unbounded.
func (c *IndexerClient) GetTransactions(ctx context.Context, address string, beforeHash, afterHash string, limit int) ([]TransactionResult, error) {
	var response struct {
		Transactions []TransactionResult `json:"transactions"`
	}

	query := url.Values{}
	if beforeHash != "" {
		query.Set("before", beforeHash)
	}
	if afterHash != "" {
		query.Set("after", afterHash)
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	endpoint := fmt.Sprintf("%s/v1/addresses/%s/transactions", c.baseURL, url.PathEscape(address))
	if encoded := query.Encode(); encoded != "" {
		endpoint += "?" + encoded
	}

	if err := c.httpClient.Get(ctx, endpoint, c.headers(), &response); err != nil {
		return nil, fmt.Errorf("failed to get transactions: %w", err)
	}

	return response.Transactions, nil
}
