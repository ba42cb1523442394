package resolver

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/walletgraph/walletgraph/internal/chains"
	"github.com/walletgraph/walletgraph/internal/domain"
	"github.com/walletgraph/walletgraph/internal/relay"
	"github.com/walletgraph/walletgraph/internal/store"
	"github.com/walletgraph/walletgraph/internal/store/schema"
)

type fakeBackend struct {
	chainID      domain.ChainID
	balances     *domain.Balances
	balancesErr  error
	nfts         []domain.Nft
	transactions []domain.Transaction
	txErr        error

	lastPage chains.Page
}

func (f *fakeBackend) ChainID() domain.ChainID {
	return f.chainID
}

func (f *fakeBackend) ValidateAddress(address string) error {
	return nil
}

func (f *fakeBackend) GetBalances(ctx context.Context, address string) (*domain.Balances, error) {
	return f.balances, f.balancesErr
}

func (f *fakeBackend) GetNfts(ctx context.Context, address string, mints []string) ([]domain.Nft, error) {
	return f.nfts, nil
}

func (f *fakeBackend) GetTransactions(ctx context.Context, address string, page chains.Page) ([]domain.Transaction, error) {
	f.lastPage = page
	if f.txErr != nil {
		return nil, f.txErr
	}
	limit := page.Limit
	if limit <= 0 || limit > len(f.transactions) {
		limit = len(f.transactions)
	}
	return f.transactions[:limit], nil
}

func newTestResolver(t *testing.T, backends ...chains.Backend) (*Resolver, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(&schema.User{}, &schema.PublicKey{}, &schema.UserNft{})
	require.NoError(t, err)

	registry := chains.NewRegistry()
	for _, b := range backends {
		registry.Register(b)
	}

	return NewResolver(store.NewPGStore(db), registry), db
}

func seedWallets(t *testing.T, db *gorm.DB) {
	t.Helper()
	require.NoError(t, db.Create(&schema.User{ID: "u1", Username: "alice"}).Error)
	require.NoError(t, db.Create(&schema.PublicKey{UserID: "u1", Blockchain: "ethereum", PublicKey: "0xAAA"}).Error)
	require.NoError(t, db.Create(&schema.PublicKey{UserID: "u1", Blockchain: "solana", PublicKey: "So1AAA"}).Error)
}

func TestUser(t *testing.T) {
	r, db := newTestResolver(t)
	seedWallets(t, db)
	ctx := context.Background()

	user, err := r.User(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "alice", user.Username)

	user, err = r.User(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestWallet(t *testing.T) {
	r, _ := newTestResolver(t)

	wallet, err := r.Wallet("ethereum", "0xAAA")
	require.NoError(t, err)
	assert.Equal(t, "ethereum_wallet:0xAAA", wallet.ID)

	_, err = r.Wallet("bitcoin", "addr")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnknownChain)
}

func TestWallets(t *testing.T) {
	r, db := newTestResolver(t)
	seedWallets(t, db)
	ctx := context.Background()

	t.Run("all wallets", func(t *testing.T) {
		conn, err := r.Wallets(ctx, "u1", WalletFilter{})
		require.NoError(t, err)
		require.NotNil(t, conn)
		require.Len(t, conn.Edges, 2)
		assert.Equal(t, "ethereum_wallet:0xAAA", conn.Edges[0].Node.ID)
		assert.Equal(t, "solana_wallet:So1AAA", conn.Edges[1].Node.ID)
		assert.False(t, conn.PageInfo.HasNextPage)
		assert.False(t, conn.PageInfo.HasPreviousPage)
	})

	t.Run("chain filter", func(t *testing.T) {
		conn, err := r.Wallets(ctx, "u1", WalletFilter{ChainID: "solana"})
		require.NoError(t, err)
		require.NotNil(t, conn)
		require.Len(t, conn.Edges, 1)
		assert.Equal(t, domain.ChainIDSolana, conn.Edges[0].Node.ChainID)
	})

	t.Run("unknown chain filter fails", func(t *testing.T) {
		_, err := r.Wallets(ctx, "u1", WalletFilter{ChainID: "bitcoin"})
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrUnknownChain)
	})

	t.Run("no wallets collapses to nil", func(t *testing.T) {
		conn, err := r.Wallets(ctx, "nobody", WalletFilter{})
		require.NoError(t, err)
		assert.Nil(t, conn)
	})
}

func TestTransactionsCursorMapping(t *testing.T) {
	txs := make([]domain.Transaction, 5)
	for i := range txs {
		hash := fmt.Sprintf("0xhash%d", i)
		txs[i] = domain.Transaction{
			ID:      domain.TransactionNodeID(domain.ChainIDEthereum, hash),
			ChainID: domain.ChainIDEthereum,
			Hash:    hash,
		}
	}
	backend := &fakeBackend{chainID: domain.ChainIDEthereum, transactions: txs}
	r, _ := newTestResolver(t, backend)
	ctx := context.Background()
	wallet := domain.NewWallet(domain.ChainIDEthereum, "0xAAA")

	t.Run("before cursor maps to hash", func(t *testing.T) {
		before := relay.EncodeCursor("ethereum_tx:0xhash2")
		conn, err := r.Transactions(ctx, wallet, TransactionPage{Before: &before, Limit: 10})
		require.NoError(t, err)
		require.NotNil(t, conn)

		require.NotNil(t, backend.lastPage.Before)
		assert.Equal(t, "0xhash2", *backend.lastPage.Before)
		assert.True(t, conn.PageInfo.HasPreviousPage)
		assert.False(t, conn.PageInfo.HasNextPage)
	})

	t.Run("full page reports next page", func(t *testing.T) {
		conn, err := r.Transactions(ctx, wallet, TransactionPage{Limit: 5})
		require.NoError(t, err)
		require.NotNil(t, conn)
		assert.True(t, conn.PageInfo.HasNextPage)
		assert.False(t, conn.PageInfo.HasPreviousPage)
	})

	t.Run("cursor for another chain is rejected", func(t *testing.T) {
		before := relay.EncodeCursor("solana_tx:sig")
		_, err := r.Transactions(ctx, wallet, TransactionPage{Before: &before})
		assert.Error(t, err)
	})

	t.Run("malformed cursor is rejected", func(t *testing.T) {
		before := "garbage"
		_, err := r.Transactions(ctx, wallet, TransactionPage{Before: &before})
		assert.Error(t, err)
	})
}

func TestSummaries(t *testing.T) {
	ethBackend := &fakeBackend{
		chainID:     domain.ChainIDEthereum,
		balancesErr: errors.New("indexer down"),
		nfts: []domain.Nft{
			{ID: "ethereum_nft:0xC:1", ChainID: domain.ChainIDEthereum, Address: "0xC:1"},
		},
	}
	solBackend := &fakeBackend{
		chainID: domain.ChainIDSolana,
		balances: &domain.Balances{
			ID:      "solana_wallet:So1AAA",
			ChainID: domain.ChainIDSolana,
			Address: "So1AAA",
		},
	}
	r, db := newTestResolver(t, ethBackend, solBackend)
	seedWallets(t, db)
	ctx := context.Background()

	summaries, err := r.Summaries(ctx, "u1", WalletFilter{}, 10)
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	// One field failing leaves the others resolved
	eth := summaries[0]
	assert.Equal(t, domain.ChainIDEthereum, eth.Wallet.ChainID)
	assert.Nil(t, eth.Balances)
	require.NotNil(t, eth.Nfts)
	assert.Len(t, eth.Nfts.Edges, 1)
	require.Len(t, eth.Errors, 1)
	assert.Contains(t, eth.Errors[0], "indexer down")

	// A sibling failure never aborts another wallet
	sol := summaries[1]
	assert.Equal(t, domain.ChainIDSolana, sol.Wallet.ChainID)
	require.NotNil(t, sol.Balances)
	assert.Equal(t, "So1AAA", sol.Balances.Address)
}

func TestSummariesNoWallets(t *testing.T) {
	r, _ := newTestResolver(t)

	summaries, err := r.Summaries(context.Background(), "nobody", WalletFilter{}, 10)
	require.NoError(t, err)
	assert.Empty(t, summaries)
}
