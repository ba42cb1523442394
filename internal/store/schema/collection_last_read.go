package schema

import (
	"time"
)

// CollectionLastRead represents the collection_last_reads table - per-user
// read marker for a collection chat
type CollectionLastRead struct {
	// ID is the internal database primary key
	ID int64 `gorm:"column:id;primaryKey;autoIncrement"`
	// UserID references the reading user
	UserID string `gorm:"column:user_id;not null;type:text;uniqueIndex:idx_last_reads_user_collection,priority:1"`
	// CollectionID is the collection whose chat was read
	CollectionID string `gorm:"column:collection_id;not null;type:text;uniqueIndex:idx_last_reads_user_collection,priority:2"`
	// LastReadMessageID is the id of the last message the user has read
	LastReadMessageID string `gorm:"column:last_read_message_id;not null;type:text"`
	// UpdatedAt is the timestamp of the last marker update
	UpdatedAt time.Time `gorm:"column:updated_at;not null;autoUpdateTime"`
}

// TableName specifies the table name for the CollectionLastRead model
func (CollectionLastRead) TableName() string {
	return "collection_last_reads"
}
