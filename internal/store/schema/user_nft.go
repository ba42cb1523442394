package schema

import (
	"time"
)

// UserNft represents the user_nfts table - one NFT-ownership fact discovered
// for a public key. Rows are appended by indexing jobs and never updated.
type UserNft struct {
	// ID is the internal database primary key
	ID int64 `gorm:"column:id;primaryKey;autoIncrement"`
	// PublicKey is the holding address
	PublicKey string `gorm:"column:public_key;not null;type:text;uniqueIndex:idx_user_nfts_key_nft_group,priority:1"`
	// NftID is the NFT identifier on its chain (mint address)
	NftID string `gorm:"column:nft_id;not null;type:text;uniqueIndex:idx_user_nfts_key_nft_group,priority:2"`
	// CollectionID is the collection the NFT belongs to
	CollectionID string `gorm:"column:collection_id;not null;index;type:text"`
	// CentralizedGroup is the membership tag used for holder gating
	CentralizedGroup string `gorm:"column:centralized_group;not null;type:text;uniqueIndex:idx_user_nfts_key_nft_group,priority:3;index"`
	// CreatedAt is the timestamp when the ownership fact was recorded
	CreatedAt time.Time `gorm:"column:created_at;not null;autoCreateTime"`
}

// TableName specifies the table name for the UserNft model
func (UserNft) TableName() string {
	return "user_nfts"
}
