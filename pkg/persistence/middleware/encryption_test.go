package middleware_test

import (
	"context"
	"crypto/rand"
	"io"
	"testing"

	"github.com/aretw0/crudgen/pkg/adapters/memory"
	"github.com/aretw0/crudgen/pkg/domain"
	"github.com/aretw0/crudgen/pkg/persistence/middleware"
	"github.com/aretw0/crudgen/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generateKey(t *testing.T) []byte {
	k := make([]byte, 32)
	_, err := io.ReadFull(rand.Reader, k)
	require.NoError(t, err)
	return k
}

func newEncrypted(t *testing.T, config middleware.EncryptionConfig) (ports.RecordStore, *memory.Store) {
	mw, err := middleware.NewEncryptionMiddleware(config)
	require.NoError(t, err)
	underlying := memory.NewStore()
	return mw(underlying), underlying
}

func TestEncryptionMiddleware_Contract(t *testing.T) {
	store, _ := newEncrypted(t, middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	ports.RunRecordStoreContract(t, store)
}

func TestEncryptionMiddleware_Roundtrip(t *testing.T) {
	ctx := context.Background()
	secure, underlying := newEncrypted(t, middleware.EncryptionConfig{ActiveKey: generateKey(t)})

	require.NoError(t, secure.Insert(ctx, "r1", domain.Record{"secret": "my-secret-sauce"}))

	stored, err := underlying.Find(ctx, "r1")
	require.NoError(t, err)
	assert.NotContains(t, stored, "secret")
	assert.Contains(t, stored, middleware.EnvelopeField)

	loaded, err := secure.Find(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "my-secret-sauce", loaded["secret"])
}

func TestEncryptionMiddleware_KeyRotation(t *testing.T) {
	ctx := context.Background()
	oldKey := generateKey(t)
	newKey := generateKey(t)
	underlying := memory.NewStore()

	oldMW, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: oldKey})
	require.NoError(t, err)
	require.NoError(t, oldMW(underlying).Insert(ctx, "r1", domain.Record{"v": "legacy"}))

	rotated, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    newKey,
		FallbackKeys: [][]byte{oldKey},
	})
	require.NoError(t, err)
	loaded, err := rotated(underlying).Find(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "legacy", loaded["v"])

	withoutFallback, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: newKey})
	require.NoError(t, err)
	_, err = withoutFallback(underlying).Find(ctx, "r1")
	assert.Error(t, err)
}

func TestEncryptionMiddleware_PlainRecord(t *testing.T) {
	ctx := context.Background()
	secure, underlying := newEncrypted(t, middleware.EncryptionConfig{ActiveKey: generateKey(t)})

	require.NoError(t, underlying.Insert(ctx, "plain", domain.Record{"name": "x"}))
	_, err := secure.Find(ctx, "plain")
	assert.ErrorIs(t, err, middleware.ErrNotEncrypted)
}

func TestEncryptionMiddleware_KeyLength(t *testing.T) {
	_, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: []byte("short")})
	assert.Error(t, err)

	_, err = middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    generateKey(t),
		FallbackKeys: [][]byte{[]byte("short")},
	})
	assert.Error(t, err)
}
