package ports

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/crudgen/pkg/domain"
	"github.com/aretw0/crudgen/pkg/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunRecordStoreContract runs a suite of tests to verify that a RecordStore implementation
// adheres to the defined interface contract. Stores that serialize records may return
// numbers as any numeric type, so numbers are compared by value.
func RunRecordStoreContract(t *testing.T, store RecordStore) {
	ctx := context.Background()
	prefix := fmt.Sprintf("contract-%d", time.Now().UnixNano())

	t.Run("Insert and Find", func(t *testing.T) {
		id := prefix + "-insert"
		record := domain.Record{"name": "bar", "count": 42, "active": true}

		require.NoError(t, store.Insert(ctx, id, record), "Insert should not return error")
		defer func() { _ = store.Remove(ctx, id) }()

		found, err := store.Find(ctx, id)
		require.NoError(t, err, "Find should not return error")
		assert.Equal(t, "bar", found["name"])
		assert.Equal(t, true, found["active"])
		assertNumber(t, 42, found["count"])
	})

	t.Run("Insert Existing", func(t *testing.T) {
		id := prefix + "-dup"
		require.NoError(t, store.Insert(ctx, id, domain.Record{"v": "first"}))
		defer func() { _ = store.Remove(ctx, id) }()

		err := store.Insert(ctx, id, domain.Record{"v": "second"})
		assert.ErrorIs(t, err, domain.ErrRecordExists)

		found, err := store.Find(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "first", found["v"], "failed insert must not overwrite")
	})

	t.Run("Find Non-Existent", func(t *testing.T) {
		_, err := store.Find(ctx, prefix+"-missing")
		assert.ErrorIs(t, err, domain.ErrRecordNotFound)
	})

	t.Run("Update", func(t *testing.T) {
		id := prefix + "-update"
		require.NoError(t, store.Insert(ctx, id, domain.Record{"name": "old", "stale": "x"}))
		defer func() { _ = store.Remove(ctx, id) }()

		require.NoError(t, store.Update(ctx, id, domain.Record{"name": "new"}))

		found, err := store.Find(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "new", found["name"])
		assert.NotContains(t, found, "stale", "Update replaces the whole record")
	})

	t.Run("Update Non-Existent", func(t *testing.T) {
		err := store.Update(ctx, prefix+"-ghost", domain.Record{"name": "x"})
		assert.ErrorIs(t, err, domain.ErrRecordNotFound)

		_, err = store.Find(ctx, prefix+"-ghost")
		assert.ErrorIs(t, err, domain.ErrRecordNotFound, "Update must not create records")
	})

	t.Run("Remove", func(t *testing.T) {
		id := prefix + "-remove"
		require.NoError(t, store.Insert(ctx, id, domain.Record{"name": "x"}))

		require.NoError(t, store.Remove(ctx, id), "Remove should not return error")

		_, err := store.Find(ctx, id)
		assert.ErrorIs(t, err, domain.ErrRecordNotFound, "Find after Remove should return ErrRecordNotFound")

		err = store.Remove(ctx, id)
		assert.ErrorIs(t, err, domain.ErrRecordNotFound, "second Remove should return ErrRecordNotFound")
	})

	t.Run("List", func(t *testing.T) {
		ids := []string{prefix + "-list-b", prefix + "-list-a", prefix + "-list-c"}
		for _, id := range ids {
			require.NoError(t, store.Insert(ctx, id, domain.Record{"id": id}))
		}
		defer func() {
			for _, id := range ids {
				_ = store.Remove(ctx, id)
			}
		}()

		listed, err := store.List(ctx)
		require.NoError(t, err)
		for _, id := range ids {
			assert.Contains(t, listed, id)
		}
		assert.True(t, sort.StringsAreSorted(listed), "List should return sorted ids, got %v", listed)
	})

	t.Run("Isolation", func(t *testing.T) {
		id := prefix + "-isolation"
		record := domain.Record{"name": "original"}
		require.NoError(t, store.Insert(ctx, id, record))
		defer func() { _ = store.Remove(ctx, id) }()

		record["name"] = "mutated after insert"

		found, err := store.Find(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "original", found["name"])

		found["name"] = "mutated after find"
		again, err := store.Find(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "original", again["name"])
	})

	t.Run("Nested Isolation", func(t *testing.T) {
		id := prefix + "-nested"
		meta := map[string]any{"a": "1"}
		tags := []any{"x"}
		require.NoError(t, store.Insert(ctx, id, domain.Record{"meta": meta, "tags": tags}))
		defer func() { _ = store.Remove(ctx, id) }()

		meta["b"] = "2"
		tags[0] = "mutated after insert"

		found, err := store.Find(ctx, id)
		require.NoError(t, err)
		foundMeta, ok := found["meta"].(map[string]any)
		require.True(t, ok, "nested object should come back as a map, got %T", found["meta"])
		assert.Equal(t, map[string]any{"a": "1"}, foundMeta)
		foundTags, ok := found["tags"].([]any)
		require.True(t, ok, "nested list should come back as a slice, got %T", found["tags"])
		assert.Equal(t, []any{"x"}, foundTags)

		foundMeta["c"] = "3"
		foundTags[0] = "mutated after find"
		again, err := store.Find(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"a": "1"}, again["meta"])
		assert.Equal(t, []any{"x"}, again["tags"])

		updated := map[string]any{"a": "u"}
		require.NoError(t, store.Update(ctx, id, domain.Record{"meta": updated}))
		updated["b"] = "2"
		again, err = store.Find(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"a": "u"}, again["meta"])
	})

	t.Run("Invalid ID", func(t *testing.T) {
		assert.ErrorIs(t, store.Insert(ctx, "", domain.Record{}), domain.ErrInvalidID)
		assert.ErrorIs(t, store.Update(ctx, "", domain.Record{}), domain.ErrInvalidID)
		assert.ErrorIs(t, store.Remove(ctx, ""), domain.ErrInvalidID)
		_, err := store.Find(ctx, "")
		assert.ErrorIs(t, err, domain.ErrInvalidID)
	})

	t.Run("Concurrent Insert", func(t *testing.T) {
		id := prefix + "-race"
		defer func() { _ = store.Remove(ctx, id) }()

		const workers = 8
		var (
			wg   sync.WaitGroup
			mu   sync.Mutex
			wins int
		)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				err := store.Insert(ctx, id, domain.Record{"worker": fmt.Sprint(i)})
				if err == nil {
					mu.Lock()
					wins++
					mu.Unlock()
					return
				}
				assert.ErrorIs(t, err, domain.ErrRecordExists)
			}(i)
		}
		wg.Wait()
		assert.Equal(t, 1, wins, "exactly one concurrent Insert should succeed")
	})
}

func assertNumber(t *testing.T, want float64, got any) {
	t.Helper()
	f, ok := value.Of(got).Float()
	if assert.True(t, ok, "expected a number, got %T", got) {
		assert.Equal(t, want, f)
	}
}
