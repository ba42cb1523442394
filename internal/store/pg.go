package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/walletgraph/walletgraph/internal/store/schema"
)

// ownerLookupCap bounds the rows considered when resolving the owner of an
// address. Only the first result is authoritative; duplicates beyond the cap
// are a data-integrity concern for the store, not for callers.
const ownerLookupCap = 100

type pgStore struct {
	db *gorm.DB
}

// NewPGStore creates a new PostgreSQL store instance
func NewPGStore(db *gorm.DB) Store {
	return &pgStore{db: db}
}

// ConfigureConnectionPool configures the connection pool settings for a GORM
// database connection. Zero values fall back to defaults:
//   - MaxOpenConns: 20
//   - MaxIdleConns: 5
//   - ConnMaxLifetime: 5 minutes
//   - ConnMaxIdleTime: 10 minutes
func ConfigureConnectionPool(db *gorm.DB, maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	if maxOpenConns == 0 {
		maxOpenConns = 20
	}
	if maxIdleConns == 0 {
		maxIdleConns = 5
	}
	if connMaxLifetime == 0 {
		connMaxLifetime = 5 * time.Minute
	}
	if connMaxIdleTime == 0 {
		connMaxIdleTime = 10 * time.Minute
	}
	if maxIdleConns > maxOpenConns {
		maxIdleConns = maxOpenConns
	}

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)

	return nil
}

// GetUserByID retrieves a user by external id
func (s *pgStore) GetUserByID(ctx context.Context, id string) (*schema.User, error) {
	var user schema.User
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// GetUserByUsername retrieves a user by username
func (s *pgStore) GetUserByUsername(ctx context.Context, username string) (*schema.User, error) {
	var user schema.User
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// GetPublicKeysForUser retrieves the public key rows linked to a user.
// Filter members with zero effective constraints add no WHERE clause.
func (s *pgStore) GetPublicKeysForUser(ctx context.Context, userID string, filter PublicKeyFilter) ([]schema.PublicKey, error) {
	query := s.db.WithContext(ctx).Where("user_id = ?", userID)

	if filter.Blockchain != nil {
		query = query.Where("blockchain = ?", *filter.Blockchain)
	}
	if len(filter.Addresses) > 0 {
		query = query.Where("public_key IN ?", filter.Addresses)
	}

	var keys []schema.PublicKey
	if err := query.Order("id").Find(&keys).Error; err != nil {
		return nil, fmt.Errorf("failed to get public keys: %w", err)
	}

	return keys, nil
}

// GetPublicKeyOwner retrieves the first row for an address
func (s *pgStore) GetPublicKeyOwner(ctx context.Context, publicKey string) (*schema.PublicKey, error) {
	var keys []schema.PublicKey
	err := s.db.WithContext(ctx).
		Where("public_key = ?", publicKey).
		Order("id").
		Limit(ownerLookupCap).
		Find(&keys).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get public key owner: %w", err)
	}

	if len(keys) == 0 {
		return nil, nil
	}

	return &keys[0], nil
}

// GetUserNftByMint retrieves the ownership row keyed by mint and public key
func (s *pgStore) GetUserNftByMint(ctx context.Context, mint, publicKey string, centralizedGroup *string) (*schema.UserNft, error) {
	query := s.db.WithContext(ctx).
		Where("nft_id = ? AND public_key = ?", mint, publicKey)
	if centralizedGroup != nil {
		query = query.Where("centralized_group = ?", *centralizedGroup)
	}

	var row schema.UserNft
	err := query.First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get ownership row: %w", err)
	}

	return &row, nil
}

// GetFirstUserNftByGroup retrieves the first ownership row for a public key
// and centralized group
func (s *pgStore) GetFirstUserNftByGroup(ctx context.Context, publicKey, centralizedGroup string) (*schema.UserNft, error) {
	var row schema.UserNft
	err := s.db.WithContext(ctx).
		Where("public_key = ? AND centralized_group = ?", publicKey, centralizedGroup).
		Order("id").
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get ownership row by group: %w", err)
	}

	return &row, nil
}

// InsertUserNfts bulk-appends ownership rows. Rows already present are
// skipped, so a re-applied batch succeeds and reports only the rows it
// actually inserted.
func (s *pgStore) InsertUserNfts(ctx context.Context, rows []schema.UserNft) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	result := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&rows)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to insert ownership rows: %w", result.Error)
	}

	return result.RowsAffected, nil
}

// GetNftMembers retrieves a page of distinct users holding NFTs in a
// collection, prefix-matched on username. LIKE is case-sensitive here.
func (s *pgStore) GetNftMembers(ctx context.Context, collectionID, usernamePrefix string, limit int, offset int) ([]schema.User, error) {
	var users []schema.User
	err := s.db.WithContext(ctx).
		Model(&schema.User{}).
		Distinct("users.id", "users.username", "users.created_at").
		Joins("JOIN public_keys ON public_keys.user_id = users.id").
		Joins("JOIN user_nfts ON user_nfts.public_key = public_keys.public_key").
		Where("user_nfts.collection_id = ?", collectionID).
		Where("users.username LIKE ?", usernamePrefix+"%").
		Order("users.username").
		Limit(limit).
		Offset(offset).
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get collection members: %w", err)
	}

	return users, nil
}

// CountUserNftsForCollection counts ownership rows for a collection
func (s *pgStore) CountUserNftsForCollection(ctx context.Context, collectionID string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&schema.UserNft{}).
		Where("collection_id = ?", collectionID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count ownership rows: %w", err)
	}

	return count, nil
}

// GetUserNftsForUser retrieves all ownership rows across a user's linked keys
func (s *pgStore) GetUserNftsForUser(ctx context.Context, userID string) ([]schema.UserNft, error) {
	var rows []schema.UserNft
	err := s.db.WithContext(ctx).
		Joins("JOIN public_keys ON public_keys.public_key = user_nfts.public_key").
		Where("public_keys.user_id = ?", userID).
		Order("user_nfts.id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get ownership rows for user: %w", err)
	}

	return rows, nil
}

// GetLastReads retrieves a user's read markers for the given collections
func (s *pgStore) GetLastReads(ctx context.Context, userID string, collectionIDs []string) ([]schema.CollectionLastRead, error) {
	if len(collectionIDs) == 0 {
		return []schema.CollectionLastRead{}, nil
	}

	var markers []schema.CollectionLastRead
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND collection_id IN ?", userID, collectionIDs).
		Find(&markers).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get last-read markers: %w", err)
	}

	return markers, nil
}

// GetCollectionsChatMetadata retrieves chat metadata for the given collections
func (s *pgStore) GetCollectionsChatMetadata(ctx context.Context, collectionIDs []string) ([]schema.Collection, error) {
	if len(collectionIDs) == 0 {
		return []schema.Collection{}, nil
	}

	var collections []schema.Collection
	err := s.db.WithContext(ctx).
		Where("collection_id IN ?", collectionIDs).
		Find(&collections).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get collection chat metadata: %w", err)
	}

	return collections, nil
}
