package domain

import (
	"fmt"
	"time"
)

// User is an account holder in the ownership store. Created by external
// provisioning; read-only here.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// NodeID returns the globally stable node identifier for the user
func (u User) NodeID() string {
	return UserNodeID(u.ID)
}

// Wallet is a derived view over a linked public key. It is never persisted;
// it is composed on demand from a public key row.
type Wallet struct {
	ID      string  `json:"id"`
	ChainID ChainID `json:"chainId"`
	Address string  `json:"address"`
}

// NewWallet composes a wallet view for a chain and address
func NewWallet(chainID ChainID, address string) Wallet {
	return Wallet{
		ID:      WalletNodeID(chainID, address),
		ChainID: chainID,
		Address: address,
	}
}

// NodeID returns the globally stable node identifier for the wallet
func (w Wallet) NodeID() string {
	return w.ID
}

// TokenBalance is a single fungible token position held by a wallet
type TokenBalance struct {
	// Token is the token identifier on its chain (contract address or mint)
	Token string `json:"token"`
	// Amount is the raw integer amount as a string to support very large values
	Amount   string `json:"amount"`
	Decimals uint8  `json:"decimals"`
}

// Balances holds the native balance and token positions of a wallet
type Balances struct {
	ID      string  `json:"id"`
	ChainID ChainID `json:"chainId"`
	Address string  `json:"address"`
	// Native is the chain-native balance (wei, lamports) as a string integer
	Native TokenBalance   `json:"native"`
	Tokens []TokenBalance `json:"tokens"`
}

// Nft is a non-fungible token held by a wallet
type Nft struct {
	ID      string  `json:"id"`
	ChainID ChainID `json:"chainId"`
	// Address is the NFT identifier on its chain (mint address, or contract:tokenNumber)
	Address      string `json:"address"`
	CollectionID string `json:"collectionId,omitempty"`
	Name         string `json:"name,omitempty"`
	ImageURL     string `json:"imageUrl,omitempty"`
}

// NodeID returns the globally stable node identifier for the NFT
func (n Nft) NodeID() string {
	return n.ID
}

// Transaction is a historical transaction touching a wallet
type Transaction struct {
	ID        string    `json:"id"`
	ChainID   ChainID   `json:"chainId"`
	Hash      string    `json:"hash"`
	Block     uint64    `json:"block"`
	Timestamp time.Time `json:"timestamp"`
	// Failed marks a transaction that was included but reverted
	Failed bool `json:"failed"`
}

// NodeID returns the globally stable node identifier for the transaction
func (t Transaction) NodeID() string {
	return t.ID
}

// OwnedNft is one discovered NFT-ownership fact for a public key
type OwnedNft struct {
	NftID            string `json:"nft_id"`
	CollectionID     string `json:"collection_id"`
	CentralizedGroup string `json:"centralized_group"`
}

// NftDiscoveryEvent is published when an indexing job finds NFTs for a wallet.
// Consuming it appends ownership rows; the write path is append-only.
type NftDiscoveryEvent struct {
	ChainID   ChainID    `json:"chain_id"`
	PublicKey string     `json:"public_key"`
	Nfts      []OwnedNft `json:"nfts"`
	Timestamp time.Time  `json:"timestamp"`
}

// Node identifier formats. Persisted cursors and client caches key on these
// exact strings.

// UserNodeID returns the node identifier for a user primary key
func UserNodeID(id string) string {
	return fmt.Sprintf("user:%s", id)
}

// WalletNodeID returns the node identifier for a wallet
func WalletNodeID(chainID ChainID, address string) string {
	return fmt.Sprintf("%s_wallet:%s", chainID, address)
}

// NftNodeID returns the node identifier for an NFT
func NftNodeID(chainID ChainID, address string) string {
	return fmt.Sprintf("%s_nft:%s", chainID, address)
}

// TransactionNodeID returns the node identifier for a transaction
func TransactionNodeID(chainID ChainID, hash string) string {
	return fmt.Sprintf("%s_tx:%s", chainID, hash)
}
