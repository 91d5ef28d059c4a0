package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/crudgen/pkg/adapters/file"
	"github.com/aretw0/crudgen/pkg/domain"
	"github.com/aretw0/crudgen/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_Contract(t *testing.T) {
	store := file.New(t.TempDir())
	ports.RunRecordStoreContract(t, store)
}

func TestFileStore_Layout(t *testing.T) {
	dir := t.TempDir()
	store := file.New(dir)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, "user-1", domain.Record{"name": "Ada"}))

	data, err := os.ReadFile(filepath.Join(dir, "user-1.json"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Ada"}`, string(data))

	// Leftover temp files from interrupted writes are not records.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tmp-user-2-123.json"), []byte(`{}`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte(`x`), 0644))

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"user-1"}, ids)
}

func TestFileStore_ListMissingDir(t *testing.T) {
	store := file.New(filepath.Join(t.TempDir(), "not-yet"))
	ids, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestFileStore_RejectsPathIDs(t *testing.T) {
	store := file.New(t.TempDir())
	ctx := context.Background()

	for _, id := range []string{"../escape", `a\b`, "..", "."} {
		assert.ErrorIs(t, store.Insert(ctx, id, domain.Record{}), domain.ErrInvalidID, "id %q", id)
	}
}

func TestFileStore_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.json"), []byte(`{`), 0644))

	_, err := file.New(dir).Find(context.Background(), "bad")
	assert.ErrorContains(t, err, "failed to unmarshal record")
}
