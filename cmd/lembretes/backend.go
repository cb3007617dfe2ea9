package main

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"lembretes/internal/config"
	"lembretes/internal/service"
	"lembretes/internal/session"
	"lembretes/internal/storage"
)

// openBackend builds the configured backend. A remote backend that cannot be
// constructed is replaced by the local file store. The local store is always
// returned as well so it can serve as the migration source.
func openBackend(ctx context.Context, c *config.Config, log *zap.Logger) (storage.Backend, *storage.LocalStorage, error) {
	local := storage.NewLocalStorage(c.Local.Path)

	var (
		b   storage.Backend
		err error
	)
	switch c.Storage {
	case storage.TypeMemory:
		return storage.NewMemoryStorage(), local, nil
	case storage.TypeLocal:
		return local, local, nil
	case storage.TypeSQLite:
		s, err := storage.NewSQLiteStorage(c.SQLite.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open sqlite storage: %w", err)
		}
		return s, local, nil
	case storage.TypeJSONBin:
		client := &http.Client{Timeout: c.JSONBin.TimeoutDuration()}
		b, err = storage.NewJSONBinStorage(c.JSONBin.BaseURL, c.JSONBin.MasterKey, c.JSONBin.BinID, client)
	case storage.TypeBlob:
		b, err = storage.NewBlobStorage(ctx, storage.BlobOptions{
			Bucket:    c.Blob.Bucket,
			Key:       c.Blob.Key,
			Region:    c.Blob.Region,
			Endpoint:  c.Blob.Endpoint,
			AccessKey: c.Blob.AccessKey,
			SecretKey: c.Blob.SecretKey,
		})
	case storage.TypeMongo:
		b, err = storage.NewMongoStorage(c.Mongo.URI, c.Mongo.Database)
	default:
		return nil, nil, storage.ValidType(c.Storage)
	}

	if err != nil {
		log.Warn("remote storage unavailable, using local storage",
			zap.String("storage", c.Storage),
			zap.String("path", local.Path()),
			zap.Error(err),
		)
		return local, local, nil
	}
	log.Info("using storage", zap.String("storage", b.Type()))
	return b, local, nil
}

type app struct {
	backend storage.Backend
	svc     *service.Service
	sess    *session.Session
}

// openApp wires backend, facade and session. Migration into a remote backend
// runs here, before anything is read.
func openApp(ctx context.Context) (*app, error) {
	backend, local, err := openBackend(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	opts := []service.Option{service.WithLogger(logger)}
	if storage.IsRemote(backend.Type()) {
		opts = append(opts, service.WithMigrationSource(local))
	}
	svc := service.Open(ctx, backend, opts...)

	return &app{
		backend: backend,
		svc:     svc,
		sess:    session.New(svc, session.WithLogger(logger)),
	}, nil
}

func (a *app) Close(ctx context.Context) {
	if err := storage.Close(ctx, a.backend); err != nil {
		logger.Warn("failed to close storage", zap.Error(err))
	}
}
