package schema

import (
	"time"
)

// Collection represents the collections table - denormalized chat metadata
// for an NFT collection, maintained by the chat service
type Collection struct {
	// CollectionID is the collection identifier
	CollectionID string `gorm:"column:collection_id;primaryKey;type:text"`
	// LastMessage is the text of the most recent message in the collection chat
	LastMessage string `gorm:"column:last_message;type:text"`
	// LastMessageUUID is the id of the most recent message
	LastMessageUUID string `gorm:"column:last_message_uuid;type:text"`
	// LastMessageTimestamp is when the most recent message was sent
	LastMessageTimestamp time.Time `gorm:"column:last_message_timestamp"`
}

// TableName specifies the table name for the Collection model
func (Collection) TableName() string {
	return "collections"
}
