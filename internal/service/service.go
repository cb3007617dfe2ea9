// Package service is the single entry point to reminder persistence. It wraps
// exactly one storage backend and performs every mutation as a whole
// collection read-modify-write.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"lembretes/internal/reminder"
	"lembretes/internal/storage"
)

type Service struct {
	mu      sync.RWMutex
	backend storage.Backend

	local       storage.Backend
	migrateOnce sync.Once

	logger *zap.Logger
	now    func() time.Time
	newID  func() string
}

type Option func(*Service)

func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func WithIDGenerator(newID func() string) Option {
	return func(s *Service) {
		s.newID = newID
	}
}

// WithMigrationSource names the local backend whose data is copied into a
// newly available remote backend by Migrate.
func WithMigrationSource(local storage.Backend) Option {
	return func(s *Service) {
		s.local = local
	}
}

func New(backend storage.Backend, opts ...Option) *Service {
	s := &Service{
		backend: backend,
		logger:  zap.NewNop(),
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open constructs a Service and runs the one-shot local data migration.
func Open(ctx context.Context, backend storage.Backend, opts ...Option) *Service {
	s := New(backend, opts...)
	s.Migrate(ctx)
	return s
}

func (s *Service) active() storage.Backend {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.backend
}

// StorageType names the backend currently in use.
func (s *Service) StorageType() string {
	return s.active().Type()
}

func (s *Service) load(ctx context.Context, b storage.Backend) ([]*reminder.Reminder, error) {
	items, err := b.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load lembretes from %s: %w", b.Type(), err)
	}
	for i, r := range items {
		if r == nil {
			return nil, fmt.Errorf("%w: %s holds a null entry at position %d", ErrCorruptData, b.Type(), i)
		}
	}
	return items, nil
}

func (s *Service) persist(ctx context.Context, b storage.Backend, items []*reminder.Reminder) error {
	if err := b.ReplaceAll(ctx, items); err != nil {
		s.logger.Warn("write failed", zap.String("storage", b.Type()), zap.Error(err))
		return fmt.Errorf("%w to %s: %w", ErrPersistence, b.Type(), err)
	}
	return nil
}

// GetAll returns the stored collection. Ordering is whatever the backend
// holds; presentation order is the caller's concern.
func (s *Service) GetAll(ctx context.Context) ([]*reminder.Reminder, error) {
	return s.load(ctx, s.active())
}

// Create prepends a new reminder to the collection. text is stored as given;
// validation belongs to the caller.
func (s *Service) Create(ctx context.Context, text string) (*reminder.Reminder, error) {
	b := s.active()
	current, err := s.load(ctx, b)
	if err != nil {
		return nil, err
	}

	r := reminder.New(s.newID(), text, s.now())
	updated := make([]*reminder.Reminder, 0, len(current)+1)
	updated = append(updated, r)
	updated = append(updated, current...)

	if err := s.persist(ctx, b, updated); err != nil {
		return nil, err
	}
	s.logger.Debug("lembrete created", zap.String("id", r.ID), zap.String("storage", b.Type()))
	return r.Clone(), nil
}

// Patch carries the fields to replace; nil fields are left untouched.
type Patch struct {
	Text      *string `json:"texto,omitempty"`
	Completed *bool   `json:"concluido,omitempty"`
}

func (p Patch) Empty() bool {
	return p.Text == nil && p.Completed == nil
}

// Update merges patch into the reminder with the given id. An unknown id
// returns ErrNotFound and writes nothing.
func (s *Service) Update(ctx context.Context, id string, patch Patch) (*reminder.Reminder, error) {
	b := s.active()
	current, err := s.load(ctx, b)
	if err != nil {
		return nil, err
	}

	i := reminder.IndexOf(current, id)
	if i < 0 {
		return nil, ErrNotFound
	}

	r := current[i]
	if patch.Text != nil {
		r.SetText(*patch.Text)
	}
	if patch.Completed != nil {
		r.SetCompleted(*patch.Completed, s.now())
	}

	if err := s.persist(ctx, b, current); err != nil {
		return nil, err
	}
	return r.Clone(), nil
}

// Delete removes the reminder with the given id and reports whether
// anything was removed. Nothing is written when the id is unknown.
func (s *Service) Delete(ctx context.Context, id string) (bool, error) {
	b := s.active()
	current, err := s.load(ctx, b)
	if err != nil {
		return false, err
	}

	filtered := make([]*reminder.Reminder, 0, len(current))
	for _, r := range current {
		if r.ID != id {
			filtered = append(filtered, r)
		}
	}
	if len(filtered) == len(current) {
		return false, nil
	}

	if err := s.persist(ctx, b, filtered); err != nil {
		return false, err
	}
	return true, nil
}

// Clear empties the collection.
func (s *Service) Clear(ctx context.Context) error {
	b := s.active()
	return s.persist(ctx, b, []*reminder.Reminder{})
}

type Info struct {
	Type      string `json:"type"`
	Available bool   `json:"available"`
	ItemCount int    `json:"itemCount"`
}

// Info is diagnostic only: a failed load reports the backend unavailable
// with a zero count.
func (s *Service) Info(ctx context.Context) Info {
	b := s.active()
	info := Info{Type: b.Type(), Available: true}
	items, err := b.Load(ctx)
	if err != nil {
		info.Available = false
		return info
	}
	info.ItemCount = len(items)
	return info
}
