package ethereum

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walletgraph/walletgraph/internal/chains"
	"github.com/walletgraph/walletgraph/internal/domain"
)

const holderAddress = "0x1111111111111111111111111111111111111111"

type mockEthClient struct {
	balance    *big.Int
	balanceErr error
}

func (m *mockEthClient) BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error) {
	if m.balanceErr != nil {
		return nil, m.balanceErr
	}
	return m.balance, nil
}

func (m *mockEthClient) Close() {}

type mockIndexer struct {
	tokens       []TokenBalanceResult
	nfts         []NftResult
	transactions []TransactionResult

	lastBefore string
	lastAfter  string
	lastLimit  int
}

func (m *mockIndexer) GetTokenBalances(ctx context.Context, address string) ([]TokenBalanceResult, error) {
	return m.tokens, nil
}

func (m *mockIndexer) GetNfts(ctx context.Context, address string) ([]NftResult, error) {
	return m.nfts, nil
}

func (m *mockIndexer) GetTransactions(ctx context.Context, address string, beforeHash, afterHash string, limit int) ([]TransactionResult, error) {
	m.lastBefore = beforeHash
	m.lastAfter = afterHash
	m.lastLimit = limit
	return m.transactions, nil
}

func TestValidateAddress(t *testing.T) {
	backend := NewBackend(&mockEthClient{}, &mockIndexer{})

	assert.NoError(t, backend.ValidateAddress(holderAddress))

	err := backend.ValidateAddress("not-an-address")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidAddress)
}

func TestGetBalances(t *testing.T) {
	client := &mockEthClient{balance: big.NewInt(1_000_000_000_000_000_000)}
	indexer := &mockIndexer{
		tokens: []TokenBalanceResult{
			{ContractAddress: "0xToken", Amount: "500000", Decimals: 6},
		},
	}
	backend := NewBackend(client, indexer)

	balances, err := backend.GetBalances(context.Background(), holderAddress)
	require.NoError(t, err)

	assert.Equal(t, "ethereum_wallet:"+holderAddress, balances.ID)
	assert.Equal(t, domain.ChainIDEthereum, balances.ChainID)
	assert.Equal(t, "1000000000000000000", balances.Native.Amount)
	assert.Equal(t, uint8(18), balances.Native.Decimals)

	require.Len(t, balances.Tokens, 1)
	assert.Equal(t, "0xToken", balances.Tokens[0].Token)
}

func TestGetBalancesClientError(t *testing.T) {
	backend := NewBackend(&mockEthClient{balanceErr: errors.New("rpc down")}, &mockIndexer{})

	_, err := backend.GetBalances(context.Background(), holderAddress)
	assert.Error(t, err)
}

func TestGetNfts(t *testing.T) {
	indexer := &mockIndexer{
		nfts: []NftResult{
			{ContractAddress: "0xContract", TokenID: "1", CollectionID: "col-1", Name: "One"},
			{ContractAddress: "0xContract", TokenID: "2", CollectionID: "col-1", Name: "Two"},
		},
	}
	backend := NewBackend(&mockEthClient{}, indexer)

	t.Run("all nfts", func(t *testing.T) {
		nfts, err := backend.GetNfts(context.Background(), holderAddress, nil)
		require.NoError(t, err)
		require.Len(t, nfts, 2)
		assert.Equal(t, "ethereum_nft:0xContract:1", nfts[0].ID)
		assert.Equal(t, "0xContract:1", nfts[0].Address)
		assert.Equal(t, "col-1", nfts[0].CollectionID)
	})

	t.Run("narrowed by token ids", func(t *testing.T) {
		nfts, err := backend.GetNfts(context.Background(), holderAddress, []string{"0xContract:2"})
		require.NoError(t, err)
		require.Len(t, nfts, 1)
		assert.Equal(t, "0xContract:2", nfts[0].Address)
	})
}

func TestGetTransactions(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)
	indexer := &mockIndexer{
		transactions: []TransactionResult{
			{Hash: "0xnew", BlockNumber: 200, Timestamp: now, Failed: false},
			{Hash: "0xold", BlockNumber: 190, Timestamp: now.Add(-time.Hour), Failed: true},
		},
	}
	backend := NewBackend(&mockEthClient{}, indexer)

	before := "0xbound"
	txs, err := backend.GetTransactions(context.Background(), holderAddress, chains.Page{
		Before: &before,
		Limit:  25,
	})
	require.NoError(t, err)
	require.Len(t, txs, 2)

	assert.Equal(t, "ethereum_tx:0xnew", txs[0].ID)
	assert.Equal(t, uint64(200), txs[0].Block)
	assert.False(t, txs[0].Failed)
	assert.True(t, txs[1].Failed)

	assert.Equal(t, "0xbound", indexer.lastBefore)
	assert.Equal(t, "", indexer.lastAfter)
	assert.Equal(t, 25, indexer.lastLimit)
}

func TestGetTransactionsDefaultLimit(t *testing.T) {
	indexer := &mockIndexer{}
	backend := NewBackend(&mockEthClient{}, indexer)

	_, err := backend.GetTransactions(context.Background(), holderAddress, chains.Page{})
	require.NoError(t, err)
	assert.Equal(t, defaultTransactionPageSize, indexer.lastLimit)
}
