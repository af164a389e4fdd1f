package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gofiber/storage/memory/v2"
)

// MemoryStorage is the in-process backend used when no redis is configured.
// Cached data does not survive a restart, which is fine for a content cache.
type MemoryStorage struct {
	db *memory.Storage
}

func (s *MemoryStorage) Get(_ context.Context, key string, val any) error {
	raw, err := s.db.Get(key)
	if err != nil {
		return err
	}
	if len(raw) == 0 {
		return ErrNotFound
	}
	return json.Unmarshal(raw, val)
}

func (s *MemoryStorage) Set(_ context.Context, key string, val any, expiresIn time.Duration) error {
	raw, err := json.Marshal(val)
	if err != nil {
		return err
	}
	if expiresIn < 0 {
		expiresIn = 0
	}
	return s.db.Set(key, raw, expiresIn)
}

func (s *MemoryStorage) Delete(_ context.Context, key string) error {
	raw, err := s.db.Get(key)
	if err != nil {
		return err
	}
	if len(raw) == 0 {
		return ErrNotFound
	}
	return s.db.Delete(key)
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		db: memory.New(),
	}
}
