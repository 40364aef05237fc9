package storage

import (
	"context"
	"encoding/json"

	"github.com/rpupo63/portfolio-backend/errs"
)

// Keys of the persisted layout. Each key holds one JSON document.
const (
	KeyPortfolio  = "portfolioData"
	KeyProjects   = "projectsData"
	KeySyncStatus = "portfolioSyncStatus"
	KeyAuth       = "auth"
)

// KV is the persistence boundary. Every Set replaces the whole value of a key.
type KV interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// GetJSON decodes the value under key into dest. found is false when the key is absent.
func GetJSON(ctx context.Context, kv KV, key string, dest any) (bool, error) {
	raw, found, err := kv.Get(ctx, key)
	if err != nil {
		return false, errs.NewStorageError("read", key, err)
	}
	if !found || raw == "" {
		return false, nil
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		return true, errs.NewCorruptedValueError(key, err)
	}
	return true, nil
}

// SetJSON encodes value and stores it under key.
func SetJSON(ctx context.Context, kv KV, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return errs.NewStorageError("encode", key, err)
	}
	if err := kv.Set(ctx, key, string(raw)); err != nil {
		return errs.NewStorageError("write", key, err)
	}
	return nil
}
