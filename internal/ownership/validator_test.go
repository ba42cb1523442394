package ownership

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/walletgraph/walletgraph/internal/domain"
	"github.com/walletgraph/walletgraph/internal/logger"
	"github.com/walletgraph/walletgraph/internal/store"
	"github.com/walletgraph/walletgraph/internal/store/schema"
)

func TestMain(m *testing.M) {
	if err := logger.Initialize(logger.Config{Debug: true}); err != nil {
		panic(err)
	}
	m.Run()
}

func newTestValidator(t *testing.T, cfg Config) (*Validator, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&schema.User{},
		&schema.PublicKey{},
		&schema.UserNft{},
		&schema.Collection{},
		&schema.CollectionLastRead{},
	)
	require.NoError(t, err)

	return NewValidator(store.NewPGStore(db), cfg), db
}

func seedOwnership(t *testing.T, db *gorm.DB) {
	t.Helper()

	require.NoError(t, db.Create(&schema.User{ID: "u1", Username: "alice"}).Error)
	require.NoError(t, db.Create(&schema.User{ID: "u2", Username: "bob"}).Error)
	require.NoError(t, db.Create(&schema.PublicKey{UserID: "u1", Blockchain: "solana", PublicKey: "keyAlice"}).Error)
	require.NoError(t, db.Create(&schema.PublicKey{UserID: "u2", Blockchain: "solana", PublicKey: "keyBob"}).Error)
	require.NoError(t, db.Create(&schema.UserNft{
		PublicKey:        "keyAlice",
		NftID:            "mint1",
		CollectionID:     "col1",
		CentralizedGroup: "groupA",
	}).Error)
}

func TestValidateCollectionOwnership(t *testing.T) {
	v, db := newTestValidator(t, Config{})
	seedOwnership(t, db)
	ctx := context.Background()

	tests := []struct {
		name         string
		userID       string
		publicKey    string
		mint         string
		collectionID string
		expected     bool
	}{
		{
			name:         "owner with nft in collection",
			userID:       "u1",
			publicKey:    "keyAlice",
			mint:         "mint1",
			collectionID: "col1",
			expected:     true,
		},
		{
			name:         "key owned by someone else",
			userID:       "u2",
			publicKey:    "keyAlice",
			mint:         "mint1",
			collectionID: "col1",
			expected:     false,
		},
		{
			name:         "unknown key",
			userID:       "u1",
			publicKey:    "keyUnknown",
			mint:         "mint1",
			collectionID: "col1",
			expected:     false,
		},
		{
			name:         "mint not held",
			userID:       "u1",
			publicKey:    "keyAlice",
			mint:         "mintMissing",
			collectionID: "col1",
			expected:     false,
		},
		{
			name:         "wrong collection",
			userID:       "u1",
			publicKey:    "keyAlice",
			mint:         "mint1",
			collectionID: "colOther",
			expected:     false,
		},
		{
			name:         "missing row fails even for empty expected collection",
			userID:       "u1",
			publicKey:    "keyAlice",
			mint:         "mintMissing",
			collectionID: "",
			expected:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			valid, err := v.ValidateCollectionOwnership(ctx, tt.userID, tt.publicKey, tt.mint, tt.collectionID)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, valid)
		})
	}
}

func TestValidateCentralizedGroupOwnership(t *testing.T) {
	v, db := newTestValidator(t, Config{})
	seedOwnership(t, db)
	ctx := context.Background()

	t.Run("member resolves collection", func(t *testing.T) {
		collectionID, err := v.ValidateCentralizedGroupOwnership(ctx, "u1", "keyAlice", "groupA")
		require.NoError(t, err)
		assert.Equal(t, "col1", collectionID)
	})

	t.Run("foreign key yields empty, not error", func(t *testing.T) {
		collectionID, err := v.ValidateCentralizedGroupOwnership(ctx, "u2", "keyAlice", "groupA")
		require.NoError(t, err)
		assert.Empty(t, collectionID)
	})

	t.Run("no holding in group", func(t *testing.T) {
		collectionID, err := v.ValidateCentralizedGroupOwnership(ctx, "u2", "keyBob", "groupA")
		require.NoError(t, err)
		assert.Empty(t, collectionID)
	})
}

func TestGetNftCollection(t *testing.T) {
	v, db := newTestValidator(t, Config{})
	seedOwnership(t, db)
	ctx := context.Background()

	collectionID, err := v.GetNftCollection(ctx, "mint1", "keyAlice", "groupA")
	require.NoError(t, err)
	assert.Equal(t, "col1", collectionID)

	collectionID, err = v.GetNftCollection(ctx, "mint1", "keyAlice", "groupOther")
	require.NoError(t, err)
	assert.Empty(t, collectionID)
}

func TestAddNfts(t *testing.T) {
	ctx := context.Background()

	t.Run("appends rows and reports count", func(t *testing.T) {
		v, db := newTestValidator(t, Config{})
		seedOwnership(t, db)

		result, err := v.AddNfts(ctx, "keyBob", []domain.OwnedNft{
			{NftID: "mintX", CollectionID: "col2", CentralizedGroup: "groupB"},
			{NftID: "mintY", CollectionID: "col2", CentralizedGroup: "groupB"},
		})
		require.NoError(t, err)
		assert.Equal(t, int64(2), result.Inserted)

		collectionID, err := v.GetNftCollectionByGroupName(ctx, "keyBob", "groupB")
		require.NoError(t, err)
		assert.Equal(t, "col2", collectionID)
	})

	t.Run("empty batch is a no-op", func(t *testing.T) {
		v, _ := newTestValidator(t, Config{})

		result, err := v.AddNfts(ctx, "keyBob", nil)
		require.NoError(t, err)
		assert.Zero(t, result.Inserted)
	})

	t.Run("re-applied batch is a no-op", func(t *testing.T) {
		v, db := newTestValidator(t, Config{RetryWholeBatch: false})
		seedOwnership(t, db)

		result, err := v.AddNfts(ctx, "keyAlice", []domain.OwnedNft{
			{NftID: "mint1", CollectionID: "col1", CentralizedGroup: "groupA"},
		})
		require.NoError(t, err)
		assert.Zero(t, result.Inserted)

		var count int64
		require.NoError(t, db.Model(&schema.UserNft{}).Where("public_key = ?", "keyAlice").Count(&count).Error)
		assert.Equal(t, int64(1), count)
	})
}

func TestGetNftMembers(t *testing.T) {
	v, db := newTestValidator(t, Config{})
	seedOwnership(t, db)
	ctx := context.Background()

	// alice holds a second NFT so the row count diverges from member count
	require.NoError(t, db.Create(&schema.UserNft{
		PublicKey:        "keyAlice",
		NftID:            "mint2",
		CollectionID:     "col1",
		CentralizedGroup: "groupA",
	}).Error)

	members, err := v.GetNftMembers(ctx, "col1", "", 10, 0)
	require.NoError(t, err)

	require.Len(t, members.Users, 1)
	assert.Equal(t, "alice", members.Users[0].Username)
	assert.Equal(t, int64(2), members.Count)
}

func TestGetAllCollectionsFor(t *testing.T) {
	v, db := newTestValidator(t, Config{})
	seedOwnership(t, db)
	ctx := context.Background()

	require.NoError(t, db.Create(&schema.Collection{
		CollectionID:    "col1",
		LastMessage:     "gm",
		LastMessageUUID: "msg-9",
	}).Error)
	require.NoError(t, db.Create(&schema.CollectionLastRead{
		UserID:            "u1",
		CollectionID:      "col1",
		LastReadMessageID: "msg-5",
	}).Error)

	t.Run("member with metadata and marker", func(t *testing.T) {
		memberships, err := v.GetAllCollectionsFor(ctx, "u1")
		require.NoError(t, err)
		require.Len(t, memberships, 1)

		m := memberships[0]
		assert.Equal(t, "col1", m.CollectionID)
		assert.Equal(t, "gm", m.LastMessage)
		assert.Equal(t, "msg-9", m.LastMessageUUID)
		assert.Equal(t, "msg-5", m.LastReadMessageID)
	})

	t.Run("user with no holdings", func(t *testing.T) {
		memberships, err := v.GetAllCollectionsFor(ctx, "u2")
		require.NoError(t, err)
		assert.Empty(t, memberships)
	})
}
