package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/crudgen"
	"github.com/aretw0/crudgen/internal/config"
	"github.com/aretw0/crudgen/internal/logging"
)

// NewLogger builds the application logger described by cfg.
func NewLogger(cfg *config.Config) (*slog.Logger, error) {
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	return logging.New(level, cfg.LogFormat), nil
}

// NewGenerator resolves the configured schema, opens the configured store and
// wires both into a Generator. The caller must call Backend.Close.
func NewGenerator(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts ...crudgen.Option) (*crudgen.Generator, *Backend, error) {
	s, err := cfg.ResolveSchema()
	if err != nil {
		return nil, nil, err
	}

	backend, err := OpenBackend(ctx, cfg.Store, cfg.Resolve, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s store: %w", cfg.Store.Driver, err)
	}

	base := []crudgen.Option{
		crudgen.WithLogger(logger),
		crudgen.WithStrict(cfg.Strict),
		crudgen.WithLocker(backend.Locker, 0),
	}
	gen, err := crudgen.New(backend.Store, s, append(base, opts...)...)
	if err != nil {
		backend.Close()
		return nil, nil, err
	}
	return gen, backend, nil
}
