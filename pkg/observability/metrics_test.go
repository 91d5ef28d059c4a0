package observability

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aretw0/crudgen/pkg/domain"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Hooks(t *testing.T) {
	m, err := NewMetrics()
	require.NoError(t, err)
	hooks := m.Hooks()
	ctx := context.Background()

	hooks.OnValidate(ctx, &domain.ValidationEvent{
		EventBase: domain.EventBase{Operation: domain.OpValidate, Duration: time.Millisecond},
	})
	hooks.OnValidate(ctx, &domain.ValidationEvent{
		EventBase: domain.EventBase{Operation: domain.OpValidate, Err: errors.New("bad")},
		Field:     "name",
		Rule:      "length",
	})
	hooks.OnWrite(ctx, &domain.WriteEvent{
		EventBase: domain.EventBase{Operation: domain.OpInsert, RecordID: "1"},
	})
	hooks.OnWrite(ctx, &domain.WriteEvent{
		EventBase: domain.EventBase{Operation: domain.OpRemove, RecordID: "1", Err: domain.ErrRecordNotFound},
	})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.validations.WithLabelValues(ResultOK, "")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.validations.WithLabelValues(ResultError, "length")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.writes.WithLabelValues("insert", ResultOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.writes.WithLabelValues("remove", ResultError)))
	assert.Equal(t, 3, testutil.CollectAndCount(m.duration))
}

func TestMetrics_Handler(t *testing.T) {
	m, err := NewMetrics()
	require.NoError(t, err)
	m.Hooks().OnWrite(context.Background(), &domain.WriteEvent{
		EventBase: domain.EventBase{Operation: domain.OpUpdate},
	})

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `crudgen_writes_total{op="update",result="ok"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}
