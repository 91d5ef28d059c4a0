package postgres

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/aretw0/crudgen/pkg/ports"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// getTestDSN returns the DSN of a disposable database, skipping the test when
// none is configured.
func getTestDSN(t *testing.T) string {
	t.Helper()
	dsn := os.Getenv("CRUDGEN_TEST_PG_DSN")
	if dsn == "" {
		t.Skip("CRUDGEN_TEST_PG_DSN not set; skipping Postgres integration tests")
	}
	return dsn
}

func TestPostgresStore_Contract(t *testing.T) {
	dsn := getTestDSN(t)
	ctx := context.Background()

	table := fmt.Sprintf("public.crudgen_contract_%d", time.Now().UnixNano())
	store, closeFn, err := NewStore(ctx, Config{DSN: dsn, Table: table})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = store.Drop(ctx)
		closeFn()
	})

	ports.RunRecordStoreContract(t, store)
}

func TestNewStore_EmptyDSN(t *testing.T) {
	_, _, err := NewStore(context.Background(), Config{})
	assert.ErrorContains(t, err, "DSN must not be empty")
}

func TestPgFQN(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"records", `"records"`},
		{"public.records", `"public"."records"`},
		{`odd"name`, `"odd""name"`},
	}
	for _, tt := range tests {
		if got := pgFQN(tt.in); got != tt.want {
			t.Errorf("pgFQN(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestDescribe(t *testing.T) {
	plain := fmt.Errorf("boom")
	assert.Equal(t, plain, describe(plain))

	pgErr := &pgconn.PgError{Code: "23505", Detail: "Key (id)=(x) already exists."}
	err := describe(pgErr)
	assert.ErrorIs(t, err, pgErr)
	assert.Contains(t, err.Error(), "Key (id)=(x) already exists. (23505)")
}
