// Package middleware decorates record stores with behavior applied to every
// record on its way in or out, such as encryption at rest or field masking.
package middleware

import "github.com/aretw0/crudgen/pkg/ports"

// Middleware allows wrapping a RecordStore to add behavior.
type Middleware func(ports.RecordStore) ports.RecordStore

// Chain wraps store with mws; the first middleware is the outermost.
func Chain(store ports.RecordStore, mws ...Middleware) ports.RecordStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}
