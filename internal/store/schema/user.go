package schema

import (
	"time"
)

// User represents the users table - account holders provisioned externally
type User struct {
	// ID is the externally assigned opaque identifier (UUID)
	ID string `gorm:"column:id;primaryKey;type:text"`
	// Username is the unique, mutable display handle
	Username string `gorm:"column:username;not null;uniqueIndex;type:text"`
	// CreatedAt is the timestamp when this account was provisioned
	CreatedAt time.Time `gorm:"column:created_at;not null;autoCreateTime"`

	// Associations
	PublicKeys []PublicKey `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for the User model
func (User) TableName() string {
	return "users"
}
