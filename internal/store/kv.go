package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// KV is a namespaced byte key/value view of the database with optional
// per-key expiry. It backs session persistence when no external cache is
// configured.
type KV struct {
	db     *badger.DB
	prefix string
}

// KV returns a key/value view whose keys are stored under prefix.
func (s *Store) KV(prefix string) *KV {
	return &KV{db: s.db, prefix: prefix}
}

// Get returns the value for key. The boolean is false when the key is
// missing or expired.
func (k *KV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	var value []byte
	err := k.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(k.prefix + key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("kv get %s: %w", key, err)
	}
	return value, true, nil
}

// Set stores value under key. A positive ttl expires the key.
func (k *KV) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	entry := badger.NewEntry([]byte(k.prefix+key), value)
	if ttl > 0 {
		entry = entry.WithTTL(ttl)
	}
	if err := k.db.Update(func(txn *badger.Txn) error { return txn.SetEntry(entry) }); err != nil {
		return fmt.Errorf("kv set %s: %w", key, err)
	}
	return nil
}

// Delete removes key. Missing keys are not an error.
func (k *KV) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := k.db.Update(func(txn *badger.Txn) error { return txn.Delete([]byte(k.prefix + key)) }); err != nil {
		return fmt.Errorf("kv delete %s: %w", key, err)
	}
	return nil
}
