package crudgen

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"time"

	"github.com/aretw0/crudgen/pkg/domain"
	"github.com/aretw0/crudgen/pkg/ports"
	"github.com/aretw0/crudgen/pkg/schema"
	"github.com/aretw0/crudgen/pkg/value"
	"github.com/google/uuid"
)

var (
	// ErrNoStore is returned by New when no record store is given.
	ErrNoStore = errors.New("crudgen: a record store is required")
	// ErrEmptySchema is returned by New when the schema defines no fields.
	ErrEmptySchema = errors.New("crudgen: schema must define at least one field")
)

// Generator validates records against a schema and persists the valid ones.
// It is safe for concurrent use when its store is.
type Generator struct {
	store    ports.RecordStore
	compiled *schema.Compiled

	strict   bool
	hooks    domain.LifecycleHooks
	locker   ports.DistributedLocker
	lockTTL  time.Duration
	cache    *schema.Cache
	specials map[string]SpecialCheck
	textOnly map[string]bool
	newID    func() string
	logger   *slog.Logger
}

// New creates a Generator bound to store and s. Every definition in s is
// parsed up front, so a malformed schema fails here rather than on first use.
func New(store ports.RecordStore, s schema.Schema, opts ...Option) (*Generator, error) {
	if store == nil {
		return nil, ErrNoStore
	}
	if len(s) == 0 {
		return nil, ErrEmptySchema
	}

	g := &Generator{
		store:    store,
		specials: defaultSpecials(),
		textOnly: make(map[string]bool, len(textSpecials)),
		newID:    uuid.NewString,
	}
	for tag := range textSpecials {
		g.textOnly[tag] = true
	}
	for _, opt := range opts {
		opt(g)
	}

	if g.logger == nil {
		g.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	var err error
	if g.cache != nil {
		g.compiled, err = g.cache.Compile(s)
	} else {
		g.compiled, err = schema.Compile(s)
	}
	if err != nil {
		return nil, fmt.Errorf("invalid schema: %w", err)
	}

	g.logger = g.logger.With("schema", fmt.Sprintf("%016x", g.compiled.Fingerprint()))
	return g, nil
}

// Schema returns a copy of the generator's schema.
func (g *Generator) Schema() schema.Schema {
	return g.compiled.Schema()
}

// Compiled returns the parsed schema.
func (g *Generator) Compiled() *schema.Compiled {
	return g.compiled
}

// Store returns the underlying record store.
func (g *Generator) Store() ports.RecordStore {
	return g.store
}

// Validate checks record against the schema and any registered special
// properties. It returns nil or the first violation as a *schema.ValidationError.
func (g *Generator) Validate(ctx context.Context, record any) error {
	start := time.Now()
	err := g.validate(record)
	g.emitValidate(ctx, "", start, err)
	return err
}

func (g *Generator) validate(record any) error {
	if err := g.compiled.Validate(record, schema.WithStrict(g.strict)); err != nil {
		return err
	}
	return g.checkSpecials(record)
}

func (g *Generator) checkSpecials(record any) error {
	fields, _ := value.Of(record).Map()
	for _, name := range g.compiled.Fields() {
		d, _ := g.compiled.Descriptor(name)
		if d.SpecialProperty == "" {
			continue
		}
		if g.textOnly[d.SpecialProperty] && d.ContentType != "string" {
			continue
		}
		check, ok := g.specials[d.SpecialProperty]
		if !ok {
			continue
		}
		v, present := fields[name]
		if !present {
			continue
		}
		if err := check(v); err != nil {
			return &schema.ValidationError{
				Field:      name,
				Definition: d.String(),
				Rule:       schema.RuleSpecial,
				Reason:     fmt.Sprintf("%s: %v", d.SpecialProperty, err),
				Value:      v,
				Err:        err,
			}
		}
	}
	return nil
}

// Insert validates record and stores it under a newly generated id.
func (g *Generator) Insert(ctx context.Context, record domain.Record) (string, error) {
	start := time.Now()
	if err := g.validate(map[string]any(record)); err != nil {
		g.emitValidate(ctx, "", start, err)
		return "", err
	}
	g.emitValidate(ctx, "", start, nil)

	id := g.newID()
	err := g.store.Insert(ctx, id, record)
	g.emitWrite(ctx, domain.OpInsert, id, start, err)
	if err != nil {
		return "", fmt.Errorf("failed to insert record: %w", err)
	}
	return id, nil
}

// InsertMany validates every record before storing any of them. A validation
// failure returns a *schema.AggregateError listing each failing record by
// index and stores nothing. A store failure returns the ids inserted so far.
func (g *Generator) InsertMany(ctx context.Context, records []domain.Record) ([]string, error) {
	if err := g.validateBatch(ctx, records); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(records))
	for _, record := range records {
		start := time.Now()
		id := g.newID()
		err := g.store.Insert(ctx, id, record)
		g.emitWrite(ctx, domain.OpInsert, id, start, err)
		if err != nil {
			return ids, fmt.Errorf("failed to insert record %d: %w", len(ids), err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (g *Generator) validateBatch(ctx context.Context, records []domain.Record) error {
	start := time.Now()
	items := make([]any, len(records))
	for i, r := range records {
		items[i] = map[string]any(r)
	}

	failures := make(map[int]error)
	err := g.compiled.ValidateAll(ctx, items, runtime.GOMAXPROCS(0), schema.WithStrict(g.strict))
	if err != nil {
		var aggr *schema.AggregateError
		if !errors.As(err, &aggr) {
			return err
		}
		for _, e := range aggr.Errors {
			var rerr *schema.RecordError
			if errors.As(e, &rerr) {
				failures[rerr.Index] = rerr.Err
			}
		}
	}

	var errs []error
	for i, item := range items {
		ferr, failed := failures[i]
		if !failed {
			ferr = g.checkSpecials(item)
		}
		g.emitValidate(ctx, "", start, ferr)
		if ferr != nil {
			errs = append(errs, &schema.RecordError{Index: i, Err: ferr})
		}
	}

	if len(errs) > 0 {
		return &schema.AggregateError{Errors: errs}
	}
	return nil
}

// Update validates record and replaces the stored record with the given id.
func (g *Generator) Update(ctx context.Context, id string, record domain.Record) error {
	start := time.Now()
	if err := g.validate(map[string]any(record)); err != nil {
		g.emitValidate(ctx, id, start, err)
		return err
	}
	g.emitValidate(ctx, id, start, nil)

	err := g.withLock(ctx, id, func(ctx context.Context) error {
		return g.store.Update(ctx, id, record)
	})
	g.emitWrite(ctx, domain.OpUpdate, id, start, err)
	if err != nil {
		return fmt.Errorf("failed to update record %s: %w", id, err)
	}
	return nil
}

// Remove deletes the record with the given id.
func (g *Generator) Remove(ctx context.Context, id string) error {
	start := time.Now()
	err := g.withLock(ctx, id, func(ctx context.Context) error {
		return g.store.Remove(ctx, id)
	})
	g.emitWrite(ctx, domain.OpRemove, id, start, err)
	if err != nil {
		return fmt.Errorf("failed to remove record %s: %w", id, err)
	}
	return nil
}

// Find returns the stored record with date fields restored to time.Time.
func (g *Generator) Find(ctx context.Context, id string) (domain.Record, error) {
	record, err := g.store.Find(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find record %s: %w", id, err)
	}
	return domain.Record(g.compiled.Normalize(record)), nil
}

// List returns the ids of all stored records.
func (g *Generator) List(ctx context.Context) ([]string, error) {
	ids, err := g.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	return ids, nil
}

// Coerce converts loosely typed input towards the schema's content types.
// The result still has to pass Validate.
func (g *Generator) Coerce(record map[string]any) domain.Record {
	return domain.Record(schema.CoerceRecord(record, g.compiled))
}

// withLock executes fn while holding the distributed lock for id, if a locker is configured.
func (g *Generator) withLock(ctx context.Context, id string, fn func(context.Context) error) error {
	if g.locker == nil || id == "" {
		return fn(ctx)
	}

	unlock, err := g.locker.Lock(ctx, id, g.lockTTL)
	if err != nil {
		return fmt.Errorf("failed to acquire record lock: %w", err)
	}
	defer func() {
		if err := unlock(ctx); err != nil {
			g.logger.Warn("Failed to release record lock (will expire via TTL)",
				"record_id", id,
				"err", err,
			)
		}
	}()

	return fn(ctx)
}

func (g *Generator) emitValidate(ctx context.Context, id string, start time.Time, err error) {
	evt := &domain.ValidationEvent{
		EventBase: domain.EventBase{
			Timestamp: time.Now(),
			Operation: domain.OpValidate,
			RecordID:  id,
			Duration:  time.Since(start),
			Err:       err,
		},
	}
	if verr, ok := schema.AsValidation(err); ok {
		evt.Field = verr.Field
		evt.Rule = string(verr.Rule)
	}

	if err != nil {
		g.logger.DebugContext(ctx, "record rejected", "field", evt.Field, "rule", evt.Rule, "err", err)
	}
	if g.hooks.OnValidate != nil {
		g.hooks.OnValidate(ctx, evt)
	}
}

func (g *Generator) emitWrite(ctx context.Context, op domain.Operation, id string, start time.Time, err error) {
	evt := &domain.WriteEvent{
		EventBase: domain.EventBase{
			Timestamp: time.Now(),
			Operation: op,
			RecordID:  id,
			Duration:  time.Since(start),
			Err:       err,
		},
	}

	if err != nil {
		g.logger.WarnContext(ctx, "record write failed", "op", op, "record_id", id, "err", err)
	} else {
		g.logger.InfoContext(ctx, "record written", "op", op, "record_id", id, "duration", evt.Duration)
	}
	if g.hooks.OnWrite != nil {
		g.hooks.OnWrite(ctx, evt)
	}
}
