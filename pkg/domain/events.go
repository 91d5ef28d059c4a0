package domain

import (
	"context"
	"time"
)

// Operation names the generator call that produced an event.
type Operation string

const (
	OpValidate Operation = "validate"
	OpInsert   Operation = "insert"
	OpUpdate   Operation = "update"
	OpRemove   Operation = "remove"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time     `json:"timestamp"`
	Operation Operation     `json:"operation"`
	RecordID  string        `json:"record_id,omitempty"`
	Duration  time.Duration `json:"duration"`
	Err       error         `json:"-"`
}

// Failed reports whether the operation returned an error.
func (e EventBase) Failed() bool { return e.Err != nil }

// ValidationEvent is emitted after a record has been checked against the schema.
type ValidationEvent struct {
	EventBase
	// Field and Rule identify the first violation, empty on success.
	Field string `json:"field,omitempty"`
	Rule  string `json:"rule,omitempty"`
}

// WriteEvent is emitted after a store mutation.
type WriteEvent struct {
	EventBase
}

// LifecycleHooks defines callbacks for generator observability.
// Nil callbacks are skipped.
type LifecycleHooks struct {
	OnValidate func(context.Context, *ValidationEvent)
	OnWrite    func(context.Context, *WriteEvent)
}

// Merge returns hooks that call h first and then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnValidate: chain(h.OnValidate, other.OnValidate),
		OnWrite:    chain(h.OnWrite, other.OnWrite),
	}
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}
