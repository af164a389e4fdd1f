package store

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound = errors.New("not found")
)

// Storage is a key-value backend holding JSON-encoded values. Implementations
// must return ErrNotFound for missing keys on Get and Delete.
type Storage interface {
	Get(ctx context.Context, key string, val any) error
	Set(ctx context.Context, key string, val any, expiresIn time.Duration) error
	Delete(ctx context.Context, key string) error
}

type Store[T any] interface {
	Storage() Storage
	Get(ctx context.Context, key string) (T, error)
	Set(ctx context.Context, key string, val T, expiresIn time.Duration) error
	Delete(ctx context.Context, key string) error
}
