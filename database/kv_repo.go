package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rpupo63/portfolio-backend/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// KVRepo persists storage keys as rows of kv_entries. It satisfies storage.KV.
type KVRepo struct {
	db  *gorm.DB
	now func() time.Time
}

func NewKVRepo(db *gorm.DB) *KVRepo {
	return &KVRepo{db: db, now: time.Now}
}

func keyIs(key string) clause.Eq {
	return clause.Eq{Column: clause.Column{Name: "key"}, Value: key}
}

// Get returns the value stored under key.
func (r *KVRepo) Get(ctx context.Context, key string) (string, bool, error) {
	var entry models.KVEntry
	err := r.db.WithContext(ctx).Where(keyIs(key)).Take(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return string(entry.Value), true, nil
}

// Set upserts the value under key.
func (r *KVRepo) Set(ctx context.Context, key, value string) error {
	if !json.Valid([]byte(value)) {
		return fmt.Errorf("value for %s is not valid JSON", key)
	}

	entry := models.KVEntry{
		Key:       key,
		Value:     datatypes.JSON(value),
		UpdatedAt: r.now(),
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error
}

// Delete removes key. Deleting a missing key is not an error.
func (r *KVRepo) Delete(ctx context.Context, key string) error {
	return r.db.WithContext(ctx).Where(keyIs(key)).Delete(&models.KVEntry{}).Error
}
