package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/TenAI-dev/studio-hackathon-hub/internal/slots"
)

// SlotPersister keeps the persisted subset in the studio-auth slot.
type SlotPersister struct {
	bucket *slots.Bucket
}

func NewSlotPersister(b *slots.Bucket) *SlotPersister {
	return &SlotPersister{bucket: b}
}

func (p *SlotPersister) Load(ctx context.Context) (Persisted, error) {
	var saved Persisted
	err := p.bucket.GetJSON(ctx, slots.KeyAuth, &saved)
	if errors.Is(err, slots.ErrNotFound) {
		return Persisted{}, nil
	}
	if err != nil {
		return Persisted{}, fmt.Errorf("loading session state: %w", err)
	}
	return saved, nil
}

func (p *SlotPersister) Save(ctx context.Context, saved Persisted) error {
	return p.bucket.PutJSON(ctx, slots.KeyAuth, saved)
}
