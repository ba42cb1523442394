package schema

import (
	"time"
)

// PublicKey represents the public_keys table - a blockchain address linked to
// exactly one user. "User owns wallet" means a row here links them.
type PublicKey struct {
	// ID is the internal database primary key
	ID int64 `gorm:"column:id;primaryKey;autoIncrement"`
	// UserID references the owning user
	UserID string `gorm:"column:user_id;not null;index;type:text"`
	// Blockchain is the lower-cased chain name (e.g. "ethereum", "solana")
	Blockchain string `gorm:"column:blockchain;not null;type:text;uniqueIndex:idx_public_keys_chain_key,priority:1"`
	// PublicKey is the address on that chain
	PublicKey string `gorm:"column:public_key;not null;type:text;uniqueIndex:idx_public_keys_chain_key,priority:2;index"`
	// CreatedAt is the timestamp when the wallet was linked
	CreatedAt time.Time `gorm:"column:created_at;not null;autoCreateTime"`

	// Associations
	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for the PublicKey model
func (PublicKey) TableName() string {
	return "public_keys"
}
