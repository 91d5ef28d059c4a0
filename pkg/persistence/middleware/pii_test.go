package middleware_test

import (
	"context"
	"testing"

	"github.com/aretw0/crudgen/pkg/adapters/memory"
	"github.com/aretw0/crudgen/pkg/domain"
	"github.com/aretw0/crudgen/pkg/persistence/middleware"
	"github.com/aretw0/crudgen/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPIIMiddleware_Contract(t *testing.T) {
	mw, err := middleware.NewPIIMiddleware([]string{"^ssn$"})
	require.NoError(t, err)
	ports.RunRecordStoreContract(t, mw(memory.NewStore()))
}

func TestPIIMiddleware_Masking(t *testing.T) {
	ctx := context.Background()
	mw, err := middleware.NewPIIMiddleware([]string{"(?i)password", "^ssn$"})
	require.NoError(t, err)
	store := mw(memory.NewStore())

	record := domain.Record{
		"name":     "ada",
		"Password": "hunter2",
		"profile": map[string]any{
			"ssn":  "123-45-6789",
			"city": "London",
		},
	}
	require.NoError(t, store.Insert(ctx, "r1", record))

	stored, err := store.Find(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "ada", stored["name"])
	assert.Equal(t, middleware.Mask, stored["Password"])
	profile := stored["profile"].(map[string]any)
	assert.Equal(t, middleware.Mask, profile["ssn"])
	assert.Equal(t, "London", profile["city"])

	assert.Equal(t, "hunter2", record["Password"], "caller's record must not be modified")
	assert.Equal(t, "123-45-6789", record["profile"].(map[string]any)["ssn"])
}

func TestPIIMiddleware_InvalidPattern(t *testing.T) {
	_, err := middleware.NewPIIMiddleware([]string{"("})
	assert.Error(t, err)
}

func TestChain(t *testing.T) {
	ctx := context.Background()
	pii, err := middleware.NewPIIMiddleware([]string{"^token$"})
	require.NoError(t, err)
	enc, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	require.NoError(t, err)

	underlying := memory.NewStore()
	store := middleware.Chain(underlying, pii, enc)

	require.NoError(t, store.Insert(ctx, "r1", domain.Record{"token": "abc", "n": 1}))

	raw, err := underlying.Find(ctx, "r1")
	require.NoError(t, err)
	assert.Contains(t, raw, middleware.EnvelopeField)

	found, err := store.Find(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, middleware.Mask, found["token"])
	assert.Equal(t, float64(1), found["n"])
}
