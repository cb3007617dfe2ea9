package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"lembretes/internal/reminder"
)

// DefaultLocalKey is the key the collection is stored under.
const DefaultLocalKey = "lembretes"

// LocalStorage is a key/value file on the local disk. The reminder
// collection is a single JSON-encoded value under one fixed key; other keys
// in the file are left alone.
type LocalStorage struct {
	path string
	key  string
	mu   sync.Mutex
}

func NewLocalStorage(path string) *LocalStorage {
	return &LocalStorage{path: path, key: DefaultLocalKey}
}

func (fs *LocalStorage) Type() string {
	return TypeLocal
}

func (fs *LocalStorage) Path() string {
	return fs.path
}

// Helper functions for file IO
func (fs *LocalStorage) loadValues() (map[string]json.RawMessage, error) {
	values := make(map[string]json.RawMessage)
	data, err := os.ReadFile(fs.path)
	if os.IsNotExist(err) {
		return values, nil
	}
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return values, nil
	}
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", fs.path, err)
	}
	return values, nil
}

func (fs *LocalStorage) saveValues(values map[string]json.RawMessage) error {
	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(fs.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	tmp := fs.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, fs.path)
}

func (fs *LocalStorage) Load(ctx context.Context) ([]*reminder.Reminder, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	values, err := fs.loadValues()
	if err != nil {
		return nil, err
	}
	raw, ok := values[fs.key]
	if !ok || len(raw) == 0 || string(raw) == "null" {
		return []*reminder.Reminder{}, nil
	}
	var list []*reminder.Reminder
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("failed to decode %q: %w", fs.key, err)
	}
	return list, nil
}

func (fs *LocalStorage) ReplaceAll(ctx context.Context, items []*reminder.Reminder) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	values, err := fs.loadValues()
	if err != nil {
		return err
	}
	if items == nil {
		items = []*reminder.Reminder{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return err
	}
	values[fs.key] = raw
	return fs.saveValues(values)
}

func (fs *LocalStorage) Clear(ctx context.Context) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	values, err := fs.loadValues()
	if err != nil {
		return err
	}
	if _, ok := values[fs.key]; !ok {
		return nil
	}
	delete(values, fs.key)
	return fs.saveValues(values)
}
