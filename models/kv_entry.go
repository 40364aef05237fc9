package models

import (
	"time"

	"gorm.io/datatypes"
)

// KVEntry is one storage key persisted in the relational backend.
type KVEntry struct {
	Key       string         `json:"key" db:"key" gorm:"column:key;type:text;primaryKey;not null"`
	Value     datatypes.JSON `json:"value" db:"value" gorm:"column:value;not null"`
	UpdatedAt time.Time      `json:"updatedAt" db:"updated_at" gorm:"column:updated_at;not null"`
}

func (KVEntry) TableName() string { return "kv_entries" }
