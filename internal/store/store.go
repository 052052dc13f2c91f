// Package store provides the externally persisted keyed byte store the core
// treats as its only shared mutable state. Mutations that must not race use
// CompareAndSwap.
package store

import (
	"context"
	"errors"
)

var (
	// ErrKeyNotFound is returned when a key has no value.
	ErrKeyNotFound = errors.New("key not found")
	// ErrSwapConflict is returned by CompareAndSwap when the stored value
	// no longer matches the expected one.
	ErrSwapConflict = errors.New("compare-and-swap conflict")
)

// KeyedStore is the injected store interface. CompareAndSwap with a nil
// expected value means "insert only if the key is absent".
type KeyedStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	CompareAndSwap(ctx context.Context, key string, expected, value []byte) error
	Delete(ctx context.Context, key string) error
}
