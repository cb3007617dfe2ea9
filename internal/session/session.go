// Package session holds the presentation state of the reminder list: an
// in-memory mirror of the stored collection, a guard against overlapping
// mutations, and the transient notices shown to the user.
//
// The mirror is seeded from the store by Load and only changes after the
// store reports that a mutation was persisted.
package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"lembretes/internal/reminder"
	"lembretes/internal/service"
)

var ErrBusy = errors.New("another operation is in progress")

const DefaultNoticeTTL = 3 * time.Second

// Store is the persistence facade the session drives.
type Store interface {
	GetAll(ctx context.Context) ([]*reminder.Reminder, error)
	Create(ctx context.Context, text string) (*reminder.Reminder, error)
	Update(ctx context.Context, id string, patch service.Patch) (*reminder.Reminder, error)
	Delete(ctx context.Context, id string) (bool, error)
	Clear(ctx context.Context) error
	ExportJSON(ctx context.Context) ([]byte, error)
	Import(ctx context.Context, data []byte) (service.ImportResult, error)
	Info(ctx context.Context) service.Info
}

type Session struct {
	store     Store
	logger    *zap.Logger
	now       func() time.Time
	noticeTTL time.Duration

	mu      sync.RWMutex
	items   []*reminder.Reminder
	loaded  bool
	loadErr error
	notice  *Notice

	inFlight atomic.Bool
}

type Option func(*Session)

func WithLogger(l *zap.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		s.now = now
	}
}

func WithNoticeTTL(d time.Duration) Option {
	return func(s *Session) {
		s.noticeTTL = d
	}
}

func New(store Store, opts ...Option) *Session {
	s := &Session{
		store:     store,
		logger:    zap.NewNop(),
		now:       time.Now,
		noticeTTL: DefaultNoticeTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load seeds the mirror from the store. A failure is remembered and
// reported by Err until a later Load succeeds.
func (s *Session) Load(ctx context.Context) error {
	items, err := s.store.GetAll(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.loadErr = err
		s.logger.Error("failed to load lembretes", zap.Error(err))
		return err
	}
	s.items = reminder.CloneAll(items)
	s.loaded = true
	s.loadErr = nil
	s.logger.Info("lembretes loaded", zap.Int("count", len(items)))
	return nil
}

// Err returns the error of the last failed Load, or nil.
func (s *Session) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadErr
}

func (s *Session) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// List returns a filtered, sorted copy of the mirror.
func (s *Session) List(opts reminder.ViewOptions) []*reminder.Reminder {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return reminder.CloneAll(reminder.Apply(s.items, opts))
}

func (s *Session) Stats() reminder.Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return reminder.ComputeStats(s.items)
}

func (s *Session) Get(id string) (*reminder.Reminder, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := reminder.IndexOf(s.items, id); i >= 0 {
		return s.items[i].Clone(), true
	}
	return nil, false
}

// begin takes the in-flight guard. A second mutation while one is
// outstanding is rejected, never queued.
func (s *Session) begin() error {
	if !s.inFlight.CompareAndSwap(false, true) {
		s.fail(ErrBusy, "")
		return ErrBusy
	}
	return nil
}

func (s *Session) end() {
	s.inFlight.Store(false)
}

// Busy reports whether a mutation is outstanding.
func (s *Session) Busy() bool {
	return s.inFlight.Load()
}

func (s *Session) validate(text, exceptID string) (string, error) {
	trimmed, err := reminder.ValidateText(text)
	if err != nil {
		return "", err
	}
	s.mu.RLock()
	dup := reminder.HasDuplicate(s.items, trimmed, exceptID)
	s.mu.RUnlock()
	if dup {
		return "", reminder.NewValidationError(reminder.ReasonDuplicate)
	}
	return trimmed, nil
}

func (s *Session) Add(ctx context.Context, text string) (*reminder.Reminder, error) {
	trimmed, err := s.validate(text, "")
	if err != nil {
		return nil, err
	}
	if err := s.begin(); err != nil {
		return nil, err
	}
	defer s.end()

	created, err := s.store.Create(ctx, trimmed)
	if err != nil {
		s.fail(err, "Erro ao adicionar lembrete")
		return nil, err
	}

	s.mu.Lock()
	s.items = append([]*reminder.Reminder{created.Clone()}, s.items...)
	s.mu.Unlock()

	s.succeed("Lembrete adicionado com sucesso!")
	return created, nil
}

func (s *Session) Edit(ctx context.Context, id, text string) (*reminder.Reminder, error) {
	return s.Update(ctx, id, service.Patch{Text: &text})
}

// Toggle flips the completion flag of the reminder as the mirror knows it.
func (s *Session) Toggle(ctx context.Context, id string) (*reminder.Reminder, error) {
	current, ok := s.Get(id)
	if !ok {
		s.fail(service.ErrNotFound, "")
		return nil, service.ErrNotFound
	}
	completed := !current.Completed
	return s.Update(ctx, id, service.Patch{Completed: &completed})
}

// Update validates a text change against the mirror, persists the patch and
// then applies the stored result to the mirror.
func (s *Session) Update(ctx context.Context, id string, patch service.Patch) (*reminder.Reminder, error) {
	if patch.Text != nil {
		trimmed, err := s.validate(*patch.Text, id)
		if err != nil {
			return nil, err
		}
		patch.Text = &trimmed
	}
	if err := s.begin(); err != nil {
		return nil, err
	}
	defer s.end()

	updated, err := s.store.Update(ctx, id, patch)
	if err != nil {
		s.fail(err, "Erro ao atualizar lembrete")
		return nil, err
	}

	s.mu.Lock()
	if i := reminder.IndexOf(s.items, id); i >= 0 {
		s.items[i] = updated.Clone()
	}
	s.mu.Unlock()

	if patch.Text != nil {
		s.succeed("Lembrete atualizado com sucesso!")
	}
	return updated, nil
}

// Remove deletes a reminder. Callers confirm with the user beforehand.
func (s *Session) Remove(ctx context.Context, id string) error {
	if err := s.begin(); err != nil {
		return err
	}
	defer s.end()

	removed, err := s.store.Delete(ctx, id)
	if err != nil {
		s.fail(err, "Erro ao deletar lembrete")
		return err
	}
	if !removed {
		s.fail(service.ErrNotFound, "")
		return service.ErrNotFound
	}

	s.mu.Lock()
	if i := reminder.IndexOf(s.items, id); i >= 0 {
		s.items = append(s.items[:i:i], s.items[i+1:]...)
	}
	s.mu.Unlock()

	s.succeed("Lembrete deletado com sucesso!")
	return nil
}

func (s *Session) Clear(ctx context.Context) error {
	if err := s.begin(); err != nil {
		return err
	}
	defer s.end()

	if err := s.store.Clear(ctx); err != nil {
		s.fail(err, "Erro ao limpar lembretes")
		return err
	}

	s.mu.Lock()
	s.items = nil
	s.mu.Unlock()

	s.succeed("Todos os lembretes foram removidos")
	return nil
}

func (s *Session) Export(ctx context.Context) ([]byte, error) {
	data, err := s.store.ExportJSON(ctx)
	if err != nil {
		s.fail(err, "Erro ao exportar dados")
		return nil, err
	}
	return data, nil
}

// Import replaces the collection and re-seeds the mirror from the store.
func (s *Session) Import(ctx context.Context, data []byte) (service.ImportResult, error) {
	if err := s.begin(); err != nil {
		return service.ImportResult{Message: noticeMessage(ErrBusy, "")}, err
	}
	defer s.end()

	res, err := s.store.Import(ctx, data)
	if err != nil {
		s.fail(err, res.Message)
		return res, err
	}
	if err := s.Load(ctx); err != nil {
		s.logger.Warn("import succeeded but reload failed", zap.Error(err))
	}
	s.succeed(res.Message)
	return res, nil
}

func (s *Session) Info(ctx context.Context) service.Info {
	return s.store.Info(ctx)
}
