package store

import (
	"context"
	"encoding/json"
	"fmt"
)

// Collection names owned by the core components.
const (
	CollectionUsers   = "users"
	CollectionBooks   = "books"
	CollectionOrders  = "orders"
	CollectionReviews = "reviews"
)

// Store persists whole named collections of JSON records. A Save replaces
// the collection in one step or fails entirely; partial writes are never
// visible to a later Load. Load reports a missing collection through the
// bool so callers can seed built-in defaults on first use.
type Store interface {
	Load(ctx context.Context, collection string) ([]byte, bool, error)
	Save(ctx context.Context, collection string, data []byte) error
}

// LoadCollection reads and unmarshals a record slice. The bool is false
// when the collection has never been saved.
func LoadCollection[T any](ctx context.Context, s Store, collection string) ([]T, bool, error) {
	data, ok, err := s.Load(ctx, collection)
	if err != nil {
		return nil, false, fmt.Errorf("load %s: %w", collection, err)
	}
	if !ok {
		return nil, false, nil
	}
	var records []T
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, false, fmt.Errorf("decode %s: %w", collection, err)
	}
	return records, true, nil
}

// SaveCollection marshals and replaces a record slice.
func SaveCollection[T any](ctx context.Context, s Store, collection string, records []T) error {
	if records == nil {
		records = []T{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode %s: %w", collection, err)
	}
	if err := s.Save(ctx, collection, data); err != nil {
		return fmt.Errorf("save %s: %w", collection, err)
	}
	return nil
}
