package storage

import (
	"context"
	"fmt"

	"lembretes/internal/reminder"
)

// Backend kinds accepted by configuration.
const (
	TypeMemory  = "memory"
	TypeLocal   = "local"
	TypeJSONBin = "jsonbin"
	TypeBlob    = "blob"
	TypeSQLite  = "sqlite"
	TypeMongo   = "mongo"
)

var Types = []string{TypeMemory, TypeLocal, TypeJSONBin, TypeBlob, TypeSQLite, TypeMongo}

// Backend persists the reminder collection as a whole. Every write replaces
// the entire collection; there is no per-item addressing.
type Backend interface {
	// Type names the backend kind, e.g. "jsonbin".
	Type() string

	// Load returns the stored collection in stored order. An absent
	// collection is an empty slice, not an error.
	Load(ctx context.Context) ([]*reminder.Reminder, error)

	// ReplaceAll overwrites the stored collection with items.
	ReplaceAll(ctx context.Context, items []*reminder.Reminder) error

	// Clear removes the stored collection.
	Clear(ctx context.Context) error
}

// IsRemote reports whether a backend kind lives outside the process host.
func IsRemote(kind string) bool {
	switch kind {
	case TypeJSONBin, TypeBlob, TypeMongo:
		return true
	}
	return false
}

func ValidType(kind string) error {
	for _, t := range Types {
		if t == kind {
			return nil
		}
	}
	return fmt.Errorf("invalid storage type %q: valid options are memory, local, jsonbin, blob, sqlite, mongo", kind)
}

// Close releases resources held by b, if any.
func Close(ctx context.Context, b Backend) error {
	switch c := b.(type) {
	case interface{ Close(context.Context) error }:
		return c.Close(ctx)
	case interface{ Close() error }:
		return c.Close()
	}
	return nil
}
