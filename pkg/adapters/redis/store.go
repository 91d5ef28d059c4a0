package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/aretw0/crudgen/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// DefaultPrefix namespaces every key written by the store and the locker.
const DefaultPrefix = "crudgen:"

// noExpiryScore is the index score of records without a TTL (2100-01-01).
const noExpiryScore = 4102444800

// Store implements ports.RecordStore using Redis.
// Records are JSON strings under <prefix>record:<id>; a sorted set under
// <prefix>index tracks ids scored by their expiry for List.
type Store struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

type Option func(*Store)

// WithTTL sets the expiration for records.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New creates a new Redis store with options.
func New(address, password string, db int, opts ...Option) *Store {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client: client,
		prefix: DefaultPrefix,
		ttl:    0, // No expiration by default
	}

	for _, opt := range opts {
		opt(store)
	}

	return store
}

// Client exposes the underlying client, e.g. to share it with a Locker.
func (s *Store) Client() *backend.Client {
	return s.client
}

func (s *Store) key(id string) string {
	return s.prefix + "record:" + id
}

func (s *Store) indexKey() string {
	return s.prefix + "index"
}

func (s *Store) score() float64 {
	if s.ttl == 0 {
		return noExpiryScore
	}
	return float64(time.Now().Add(s.ttl).Unix())
}

// writeScript sets the record only when ARGV[4] (NX or XX) holds and indexes
// it in the same step, so a key never exists without its index entry.
// Returns 1 when written, 0 when the condition failed.
var writeScript = backend.NewScript(`
	local set
	if tonumber(ARGV[2]) > 0 then
		set = redis.call("set", KEYS[1], ARGV[1], ARGV[4], "px", ARGV[2])
	else
		set = redis.call("set", KEYS[1], ARGV[1], ARGV[4])
	end
	if not set then
		return 0
	end
	redis.call("zadd", KEYS[2], ARGV[3], ARGV[5])
	return 1
`)

// write runs writeScript with mode NX or XX and reports whether the condition held.
func (s *Store) write(ctx context.Context, id string, record domain.Record, mode string) (bool, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return false, fmt.Errorf("failed to marshal record: %w", err)
	}
	n, err := writeScript.Run(ctx, s.client,
		[]string{s.key(id), s.indexKey()},
		string(data), s.ttl.Milliseconds(), s.score(), mode, id,
	).Int()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// Insert stores a new record with SET NX and indexes it atomically.
func (s *Store) Insert(ctx context.Context, id string, record domain.Record) error {
	if id == "" {
		return domain.ErrInvalidID
	}
	ok, err := s.write(ctx, id, record, "nx")
	if err != nil {
		return fmt.Errorf("failed to insert into redis: %w", err)
	}
	if !ok {
		return domain.ErrRecordExists
	}
	return nil
}

// Update replaces an existing record with SET XX and refreshes its index score.
func (s *Store) Update(ctx context.Context, id string, record domain.Record) error {
	if id == "" {
		return domain.ErrInvalidID
	}
	ok, err := s.write(ctx, id, record, "xx")
	if err != nil {
		return fmt.Errorf("failed to update redis: %w", err)
	}
	if !ok {
		return domain.ErrRecordNotFound
	}
	return nil
}

// Find retrieves a record from Redis.
func (s *Store) Find(ctx context.Context, id string) (domain.Record, error) {
	if id == "" {
		return nil, domain.ErrInvalidID
	}

	val, err := s.client.Get(ctx, s.key(id)).Result()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, domain.ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}

	var record domain.Record
	if err := json.Unmarshal([]byte(val), &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal record: %w", err)
	}
	return record, nil
}

// Remove deletes the record and its index entry.
func (s *Store) Remove(ctx context.Context, id string) error {
	if id == "" {
		return domain.ErrInvalidID
	}

	pipe := s.client.TxPipeline()
	del := pipe.Del(ctx, s.key(id))
	pipe.ZRem(ctx, s.indexKey(), id)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete from redis: %w", err)
	}
	if del.Val() == 0 {
		return domain.ErrRecordNotFound
	}
	return nil
}

// List returns the indexed ids, pruning entries whose TTL has passed.
func (s *Store) List(ctx context.Context) ([]string, error) {
	now := float64(time.Now().Unix())

	// If everything is infinite, this removes nothing.
	err := s.client.ZRemRangeByScore(ctx, s.indexKey(), "-inf", fmt.Sprintf("%f", now)).Err()
	if err != nil {
		return nil, fmt.Errorf("failed to prune expired records: %w", err)
	}

	ids, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	sort.Strings(ids)
	return ids, nil
}

// Close closes the redis client.
func (s *Store) Close() error {
	return s.client.Close()
}
