package loam

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/aretw0/crudgen/pkg/domain"
	"github.com/aretw0/loam"
	"github.com/aretw0/loam/pkg/adapters/fs"
	"github.com/aretw0/loam/pkg/core"
)

const ext = ".json"

// Store adapts a Loam repository to the ports.RecordStore interface.
// Each record is a JSON document whose metadata holds the record fields.
type Store struct {
	Repo core.Repository

	mu sync.Mutex
}

// New wraps an existing Loam repository.
func New(repo core.Repository) *Store {
	return &Store{Repo: repo}
}

// Open initializes a Loam vault at path configured for record storage:
// no versioning and strict JSON numbers, so integers survive a round trip.
func Open(path string, opts ...loam.Option) (*Store, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}

	base := []loam.Option{
		loam.WithVersioning(false),
		loam.WithStrict(true),
		loam.WithSerializer(ext, fs.NewJSONSerializer(true)),
	}
	repo, err := loam.Init(absPath, append(base, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize loam: %w", err)
	}
	return New(repo), nil
}

// Insert saves a new document for the record.
func (s *Store) Insert(ctx context.Context, id string, record domain.Record) error {
	if id == "" {
		return domain.ErrInvalidID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	exists, err := s.exists(ctx, id)
	if err != nil {
		return err
	}
	if exists {
		return domain.ErrRecordExists
	}
	return s.save(ctx, id, record)
}

// Update overwrites the document of an existing record.
func (s *Store) Update(ctx context.Context, id string, record domain.Record) error {
	if id == "" {
		return domain.ErrInvalidID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	exists, err := s.exists(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return domain.ErrRecordNotFound
	}
	return s.save(ctx, id, record)
}

func (s *Store) save(ctx context.Context, id string, record domain.Record) error {
	doc := core.Document{
		ID:       id + ext,
		Metadata: core.Metadata(record.Clone()),
	}
	if err := s.Repo.Save(ctx, doc); err != nil {
		return fmt.Errorf("loam save failed for %s: %w", id, err)
	}
	return nil
}

// Remove deletes the record's document.
func (s *Store) Remove(ctx context.Context, id string) error {
	if id == "" {
		return domain.ErrInvalidID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	exists, err := s.exists(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return domain.ErrRecordNotFound
	}
	if err := s.Repo.Delete(ctx, id+ext); err != nil {
		return fmt.Errorf("loam delete failed for %s: %w", id, err)
	}
	return nil
}

// Find loads a record from its document metadata.
func (s *Store) Find(ctx context.Context, id string) (domain.Record, error) {
	if id == "" {
		return nil, domain.ErrInvalidID
	}

	doc, err := s.Repo.Get(ctx, id)
	if err != nil {
		// Loam reports missing documents with backend-specific errors,
		// so existence is settled against the listing.
		if exists, listErr := s.exists(ctx, id); listErr == nil && !exists {
			return nil, domain.ErrRecordNotFound
		}
		return nil, fmt.Errorf("loam get failed for %s: %w", id, err)
	}

	return domain.Record(doc.Metadata).Clone(), nil
}

// List returns the ids of all documents in the vault.
func (s *Store) List(ctx context.Context) ([]string, error) {
	docs, err := s.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	ids := make([]string, 0, len(docs))
	for _, doc := range docs {
		ids = append(ids, trimExtension(doc.ID))
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *Store) exists(ctx context.Context, id string) (bool, error) {
	ids, err := s.List(ctx)
	if err != nil {
		return false, err
	}
	i := sort.SearchStrings(ids, id)
	return i < len(ids) && ids[i] == id, nil
}

func trimExtension(id string) string {
	return filepath.ToSlash(strings.TrimSuffix(id, ext))
}
