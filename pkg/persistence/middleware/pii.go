package middleware

import (
	"context"
	"fmt"
	"regexp"

	"github.com/aretw0/crudgen/pkg/domain"
	"github.com/aretw0/crudgen/pkg/ports"
)

// Mask replaces the value of every masked field.
const Mask = "***"

type piiMiddleware struct {
	next     ports.RecordStore
	patterns []*regexp.Regexp
}

// NewPIIMiddleware creates a middleware that masks the values of fields whose
// names match any of the patterns, including fields of nested objects. The
// caller's record is left untouched.
func NewPIIMiddleware(patternStrings []string) (Middleware, error) {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid mask pattern %q: %w", p, err)
		}
		patterns[i] = re
	}
	return func(next ports.RecordStore) ports.RecordStore {
		return &piiMiddleware{next: next, patterns: patterns}
	}, nil
}

func (m *piiMiddleware) mask(record domain.Record) domain.Record {
	cloned := record.Clone()
	maskMap(cloned, m.patterns)
	return cloned
}

func (m *piiMiddleware) Insert(ctx context.Context, id string, record domain.Record) error {
	return m.next.Insert(ctx, id, m.mask(record))
}

func (m *piiMiddleware) Update(ctx context.Context, id string, record domain.Record) error {
	return m.next.Update(ctx, id, m.mask(record))
}

func (m *piiMiddleware) Find(ctx context.Context, id string) (domain.Record, error) {
	return m.next.Find(ctx, id)
}

func (m *piiMiddleware) Remove(ctx context.Context, id string) error {
	return m.next.Remove(ctx, id)
}

func (m *piiMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

// Helpers

func maskMap(m map[string]any, patterns []*regexp.Regexp) {
	for k, v := range m {
		masked := false
		for _, p := range patterns {
			if p.MatchString(k) {
				m[k] = Mask
				masked = true
				break
			}
		}
		if subMap, ok := v.(map[string]any); ok && !masked {
			maskMap(subMap, patterns)
		}
	}
}
