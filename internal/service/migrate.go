package service

import (
	"context"

	"go.uber.org/zap"

	"lembretes/internal/storage"
)

// Migrate copies reminders left in the local backend into a newly available
// remote backend, then clears the local copy. It runs at most once per
// Service. Any failure during the copy switches the Service back to the local
// backend with the local data untouched.
func (s *Service) Migrate(ctx context.Context) {
	s.migrateOnce.Do(func() {
		s.migrate(ctx)
	})
}

func (s *Service) migrate(ctx context.Context) {
	local := s.local
	remote := s.active()
	if local == nil || local == remote || !storage.IsRemote(remote.Type()) {
		return
	}

	log := s.logger.With(zap.String("from", local.Type()), zap.String("to", remote.Type()))

	items, err := s.load(ctx, local)
	if err != nil {
		log.Warn("migration skipped: local data unreadable", zap.Error(err))
		return
	}
	if len(items) == 0 {
		return
	}

	existing, err := remote.Load(ctx)
	if err != nil {
		s.revert(log, local, err)
		return
	}
	if len(existing) > 0 {
		log.Info("migration skipped: remote already holds data",
			zap.Int("local_items", len(items)),
			zap.Int("remote_items", len(existing)),
		)
		return
	}

	if err := remote.ReplaceAll(ctx, items); err != nil {
		s.revert(log, local, err)
		return
	}

	if err := local.Clear(ctx); err != nil {
		log.Warn("migrated but failed to clear local copy", zap.Error(err))
	}
	log.Info("migrated local lembretes", zap.Int("count", len(items)))
}

func (s *Service) revert(log *zap.Logger, local storage.Backend, err error) {
	log.Warn("migration failed, falling back to local storage", zap.Error(err))
	s.mu.Lock()
	s.backend = local
	s.mu.Unlock()
}
