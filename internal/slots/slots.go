// Package slots provides durable key/value slots scoped to one browsing
// context. Values are JSON documents that survive process restarts until
// they are overwritten or explicitly deleted.
package slots

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("slot not found")

// Well-known slot keys.
const (
	KeyAuth                 = "studio-auth"
	KeyRegistrationPersonal = "registrationPersonal"
	KeyRegistrationComplete = "registrationComplete"
)

type Store interface {
	Get(ctx context.Context, client, key string) ([]byte, error)
	Put(ctx context.Context, client, key string, value []byte) error
	Delete(ctx context.Context, client string, keys ...string) error
}

// Bucket is a Store bound to a single client.
type Bucket struct {
	store  Store
	client string
}

func NewBucket(store Store, client string) *Bucket {
	return &Bucket{store: store, client: client}
}

func (b *Bucket) Client() string { return b.client }

func (b *Bucket) GetJSON(ctx context.Context, key string, v any) error {
	data, err := b.store.Get(ctx, b.client, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decoding slot %q: %w", key, err)
	}
	return nil
}

func (b *Bucket) PutJSON(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding slot %q: %w", key, err)
	}
	return b.store.Put(ctx, b.client, key, data)
}

func (b *Bucket) Delete(ctx context.Context, keys ...string) error {
	return b.store.Delete(ctx, b.client, keys...)
}
