package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/crudgen/internal/config"
	"github.com/aretw0/crudgen/pkg/adapters/file"
	"github.com/aretw0/crudgen/pkg/adapters/loam"
	"github.com/aretw0/crudgen/pkg/adapters/memory"
	"github.com/aretw0/crudgen/pkg/adapters/postgres"
	"github.com/aretw0/crudgen/pkg/adapters/redis"
	"github.com/aretw0/crudgen/pkg/adapters/sqlite"
	"github.com/aretw0/crudgen/pkg/persistence/middleware"
	"github.com/aretw0/crudgen/pkg/ports"
)

// Backend bundles the record store selected by configuration with the locker
// matching it. Close releases connections held by either.
type Backend struct {
	Store  ports.RecordStore
	Locker ports.DistributedLocker
	Close  func()
}

// OpenBackend creates the record store named by cfg.Driver. Stores shared
// between processes (redis) get a distributed locker; the others use an
// in-process one. Masking and encryption wrap the store when configured.
func OpenBackend(ctx context.Context, cfg config.StoreConfig, resolve func(string) string, logger *slog.Logger) (*Backend, error) {
	mws, err := storeMiddleware(cfg)
	if err != nil {
		return nil, err
	}
	backend, err := openStore(ctx, cfg, resolve, logger)
	if err != nil {
		return nil, err
	}
	if len(mws) > 0 {
		logger.Debug("Wrapping record store", "mask", len(cfg.Mask) > 0, "encrypted", cfg.EncryptionKey != "")
		backend.Store = middleware.Chain(backend.Store, mws...)
	}
	return backend, nil
}

// storeMiddleware masks before encrypting so masked values never reach the ciphertext.
func storeMiddleware(cfg config.StoreConfig) ([]middleware.Middleware, error) {
	var mws []middleware.Middleware
	if len(cfg.Mask) > 0 {
		mw, err := middleware.NewPIIMiddleware(cfg.Mask)
		if err != nil {
			return nil, err
		}
		mws = append(mws, mw)
	}
	active, fallback, err := cfg.Keys()
	if err != nil {
		return nil, err
	}
	if active != nil {
		mw, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
			ActiveKey:    active,
			FallbackKeys: fallback,
		})
		if err != nil {
			return nil, err
		}
		mws = append(mws, mw)
	}
	return mws, nil
}

func openStore(ctx context.Context, cfg config.StoreConfig, resolve func(string) string, logger *slog.Logger) (*Backend, error) {
	if resolve == nil {
		resolve = func(p string) string { return p }
	}
	noop := func() {}

	switch cfg.Driver {
	case "", config.DriverMemory:
		return &Backend{Store: memory.NewStore(), Locker: memory.NewLocker(), Close: noop}, nil

	case config.DriverFile:
		store := file.New(resolve(cfg.Path))
		logger.Debug("Using file store", "path", store.BasePath)
		return &Backend{Store: store, Locker: memory.NewLocker(), Close: noop}, nil

	case config.DriverLoam:
		path := cfg.Path
		if path == "" {
			path = "."
		}
		store, err := loam.Open(resolve(path))
		if err != nil {
			return nil, err
		}
		logger.Debug("Using loam store", "path", path)
		return &Backend{Store: store, Locker: memory.NewLocker(), Close: noop}, nil

	case config.DriverSQLite:
		dsn := cfg.DSN
		if dsn == "" {
			dsn = resolve(cfg.Path)
		}
		store, closeFn, err := sqlite.NewStore(ctx, sqlite.Config{DSN: dsn, Table: cfg.Table})
		if err != nil {
			return nil, err
		}
		logger.Debug("Using sqlite store", "dsn", dsn)
		return &Backend{Store: store, Locker: memory.NewLocker(), Close: closeFn}, nil

	case config.DriverPostgres:
		store, closeFn, err := postgres.NewStore(ctx, postgres.Config{DSN: cfg.DSN, Table: cfg.Table})
		if err != nil {
			return nil, err
		}
		logger.Debug("Using postgres store")
		return &Backend{Store: store, Locker: memory.NewLocker(), Close: closeFn}, nil

	case config.DriverRedis:
		var opts []redis.Option
		if cfg.Prefix != "" {
			opts = append(opts, redis.WithPrefix(cfg.Prefix))
		}
		if cfg.TTL > 0 {
			opts = append(opts, redis.WithTTL(cfg.TTL))
		}
		store := redis.New(cfg.Addr, cfg.Password, cfg.DB, opts...)
		prefix := cfg.Prefix
		if prefix == "" {
			prefix = redis.DefaultPrefix
		}
		logger.Debug("Using redis store", "addr", cfg.Addr, "prefix", prefix)
		return &Backend{
			Store:  store,
			Locker: redis.NewLocker(store.Client(), prefix),
			Close: func() {
				if err := store.Close(); err != nil {
					logger.Warn("Failed to close redis client", "err", err)
				}
			},
		}, nil

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}
