package ports

import (
	"context"

	"github.com/aretw0/crudgen/pkg/domain"
)

// RecordStore defines the interface for persisting validated records.
// Stores are opaque: they never validate and keep whatever the generator hands them.
// Every method fails with domain.ErrInvalidID when id is empty.
type RecordStore interface {
	// Insert persists a new record.
	// Returns domain.ErrRecordExists if the id is already taken.
	Insert(ctx context.Context, id string, record domain.Record) error

	// Update replaces an existing record.
	// Returns domain.ErrRecordNotFound if the record does not exist.
	Update(ctx context.Context, id string, record domain.Record) error

	// Remove deletes a record.
	// Returns domain.ErrRecordNotFound if the record does not exist.
	Remove(ctx context.Context, id string) error

	// Find retrieves a record by id.
	// Returns domain.ErrRecordNotFound if the record does not exist.
	Find(ctx context.Context, id string) (domain.Record, error)

	// List returns the ids of all stored records in sorted order.
	List(ctx context.Context) ([]string, error)
}
