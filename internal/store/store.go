package store

import (
	"context"

	"github.com/walletgraph/walletgraph/internal/store/schema"
)

// PublicKeyFilter narrows a public key listing. A filter with zero effective
// constraints behaves exactly like no filter at all: no WHERE clause is
// applied for the empty members.
type PublicKeyFilter struct {
	// Blockchain restricts rows to one lower-cased chain name when non-nil
	Blockchain *string
	// Addresses restricts rows to an explicit allow-list when non-empty
	Addresses []string
}

// Store defines the interface for ownership store operations
type Store interface {
	// GetUserByID retrieves a user by external id, returning nil when absent
	GetUserByID(ctx context.Context, id string) (*schema.User, error)

	// GetUserByUsername retrieves a user by username, returning nil when absent
	GetUserByUsername(ctx context.Context, username string) (*schema.User, error)

	// GetPublicKeysForUser retrieves the public key rows linked to a user,
	// optionally narrowed by filter
	GetPublicKeysForUser(ctx context.Context, userID string, filter PublicKeyFilter) ([]schema.PublicKey, error)

	// GetPublicKeyOwner retrieves the first row for an address. The lookup is
	// capped; the first matching row is authoritative. Returns nil when absent.
	GetPublicKeyOwner(ctx context.Context, publicKey string) (*schema.PublicKey, error)

	// GetUserNftByMint retrieves the ownership row keyed by mint and public
	// key, optionally also matching a centralized group. Returns nil when absent.
	GetUserNftByMint(ctx context.Context, mint, publicKey string, centralizedGroup *string) (*schema.UserNft, error)

	// GetFirstUserNftByGroup retrieves the first ownership row matching a
	// public key and centralized group. Returns nil when absent.
	GetFirstUserNftByGroup(ctx context.Context, publicKey, centralizedGroup string) (*schema.UserNft, error)

	// InsertUserNfts bulk-appends ownership rows, returning the number
	// actually inserted. Rows already present are skipped, so redelivered
	// batches are safe to re-apply.
	InsertUserNfts(ctx context.Context, rows []schema.UserNft) (int64, error)

	// GetNftMembers retrieves a page of distinct users whose linked keys hold
	// NFTs in the collection, prefix-matched on username from the start
	GetNftMembers(ctx context.Context, collectionID, usernamePrefix string, limit int, offset int) ([]schema.User, error)

	// CountUserNftsForCollection counts ownership rows for a collection.
	// This counts rows, not distinct holders.
	CountUserNftsForCollection(ctx context.Context, collectionID string) (int64, error)

	// GetUserNftsForUser retrieves all ownership rows across a user's linked keys
	GetUserNftsForUser(ctx context.Context, userID string) ([]schema.UserNft, error)

	// GetLastReads retrieves a user's read markers for the given collections
	GetLastReads(ctx context.Context, userID string, collectionIDs []string) ([]schema.CollectionLastRead, error)

	// GetCollectionsChatMetadata retrieves chat metadata for the given collections
	GetCollectionsChatMetadata(ctx context.Context, collectionIDs []string) ([]schema.Collection, error)
}
