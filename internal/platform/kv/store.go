// Package kv stores JSON documents under string keys, either in local files or in Redis.
package kv

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound indicates the key holds no document.
var ErrNotFound = errors.New("kv: not found")

// ErrInvalidKey indicates a key that cannot be stored.
var ErrInvalidKey = errors.New("kv: invalid key")

// Store persists JSON documents. Every Get reads the backing medium; nothing is cached.
type Store interface {
	Get(ctx context.Context, key string, dest any) error
	Put(ctx context.Context, key string, value any) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context) ([]string, error)
}

func validateKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("%w: empty", ErrInvalidKey)
	}
	if strings.ContainsAny(key, `/\`) || strings.Contains(key, "..") {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}
