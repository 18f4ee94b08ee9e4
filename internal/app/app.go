package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"evaltool/internal/domain/evaluation"
	"evaltool/internal/platform/config"
	"evaltool/internal/platform/crypto"
	"evaltool/internal/platform/db"
	"evaltool/internal/platform/remote"
	"evaltool/internal/platform/storage"
)

// Runtime holds the wired evaluation store and the resources behind it.
type Runtime struct {
	Store   *evaluation.Store
	Service *evaluation.Service
	Handle  *storage.Handle
	Remote  *remote.Client

	db    *pgxpool.Pool
	redis *redis.Client
}

// Open selects the storage backend from cfg, layers encryption and the remote
// store on top, and returns the ready store. Close releases what Open opened.
func Open(ctx context.Context, cfg config.Config, observer evaluation.RemoteObserver) (*Runtime, error) {
	rt := &Runtime{}
	backend, err := rt.openBackend(ctx, cfg)
	if err != nil {
		rt.Close()
		return nil, err
	}

	if cfg.DataEncryptionKey != "" {
		cipher, err := crypto.New(cfg.DataEncryptionKey)
		if err != nil {
			rt.Close()
			return nil, fmt.Errorf("data encryption key: %w", err)
		}
		backend = storage.NewEncryptedBackend(backend, cipher)
	}

	rt.Handle = storage.NewHandle(backend, cfg.StorageNamespace, cfg.StorageKey)

	opts := []evaluation.Option{evaluation.WithLogger(slog.Default())}
	if observer != nil {
		opts = append(opts, evaluation.WithObserver(observer))
	}
	if cfg.RemoteURL != "" {
		rt.Remote = remote.New(cfg.RemoteURL, cfg.RemoteToken)
		opts = append(opts, evaluation.WithRemote(rt.Remote))
	}
	rt.Store = evaluation.NewStore(rt.Handle, opts...)
	rt.Service = evaluation.NewService(rt.Store)

	slog.Info("evaluation store ready",
		"driver", cfg.StorageDriver,
		"key", rt.Handle.Key(),
		"encrypted", cfg.DataEncryptionKey != "",
		"remote", rt.Remote != nil,
	)
	return rt, nil
}

func (rt *Runtime) openBackend(ctx context.Context, cfg config.Config) (storage.Backend, error) {
	switch cfg.StorageDriver {
	case config.DriverMemory:
		return storage.NewMemoryBackend(), nil
	case config.DriverFile:
		return storage.NewFileBackend(cfg.DataDir)
	case config.DriverPostgres:
		pool, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("db connect: %w", err)
		}
		rt.db = pool
		if cfg.RunMigrations {
			if err := db.Migrate(ctx, pool); err != nil {
				return nil, fmt.Errorf("migrations: %w", err)
			}
		}
		return storage.NewPostgresBackend(pool), nil
	case config.DriverRedis:
		client, err := storage.OpenRedis(ctx, cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("redis connect: %w", err)
		}
		rt.redis = client
		return storage.NewRedisBackend(client), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}

// Ping checks the backing services that can go away at runtime.
func (rt *Runtime) Ping(ctx context.Context) error {
	if rt.db != nil {
		if err := rt.db.Ping(ctx); err != nil {
			return fmt.Errorf("db: %w", err)
		}
	}
	if rt.redis != nil {
		if err := rt.redis.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
	}
	return nil
}

func (rt *Runtime) Close() {
	if rt.db != nil {
		rt.db.Close()
		rt.db = nil
	}
	if rt.redis != nil {
		if err := rt.redis.Close(); err != nil {
			slog.Warn("redis close failed", "err", err)
		}
		rt.redis = nil
	}
}
