package storage

import (
	"context"
	"sync"

	"lembretes/internal/reminder"
)

type MemoryStorage struct {
	reminders []*reminder.Reminder
	mu        sync.Mutex
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

func (m *MemoryStorage) Type() string {
	return TypeMemory
}

func (m *MemoryStorage) Load(ctx context.Context) ([]*reminder.Reminder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return reminder.CloneAll(m.reminders), nil
}

func (m *MemoryStorage) ReplaceAll(ctx context.Context, items []*reminder.Reminder) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reminders = reminder.CloneAll(items)
	return nil
}

func (m *MemoryStorage) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reminders = nil
	return nil
}
