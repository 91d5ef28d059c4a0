package crudgen

import (
	"log/slog"
	"time"

	"github.com/aretw0/crudgen/pkg/domain"
	"github.com/aretw0/crudgen/pkg/ports"
	"github.com/aretw0/crudgen/pkg/schema"
)

// DefaultLockTTL bounds how long a write may hold a record lock.
const DefaultLockTTL = 30 * time.Second

// Option defines a functional option for configuring the Generator.
type Option func(*Generator)

// WithLogger sets a custom structured logger for the generator.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Generator) {
		g.logger = logger
	}
}

// WithStrict rejects record fields the schema does not define.
func WithStrict(strict bool) Option {
	return func(g *Generator) {
		g.strict = strict
	}
}

// WithLifecycleHooks registers observability hooks. Repeated calls accumulate.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(g *Generator) {
		g.hooks = g.hooks.Merge(hooks)
	}
}

// WithLocker serializes Update and Remove per record id across instances.
// A ttl <= 0 selects DefaultLockTTL.
func WithLocker(locker ports.DistributedLocker, ttl time.Duration) Option {
	return func(g *Generator) {
		if ttl <= 0 {
			ttl = DefaultLockTTL
		}
		g.locker = locker
		g.lockTTL = ttl
	}
}

// WithCache shares compiled schemas between generators.
func WithCache(cache *schema.Cache) Option {
	return func(g *Generator) {
		g.cache = cache
	}
}

// WithSpecialProperty registers (or replaces) the check run for fields whose
// definition carries the given special property, e.g. "string:-1:email".
// A registered check runs for every content type, replacing a built-in one.
func WithSpecialProperty(tag string, check SpecialCheck) Option {
	return func(g *Generator) {
		g.specials[tag] = check
		delete(g.textOnly, tag)
	}
}

// WithIDGenerator replaces the default UUID generator for new records.
func WithIDGenerator(fn func() string) Option {
	return func(g *Generator) {
		g.newID = fn
	}
}
