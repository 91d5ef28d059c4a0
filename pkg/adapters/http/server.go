// Package http exposes a Generator as a JSON CRUD API.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/aretw0/crudgen/pkg/domain"
	"github.com/aretw0/crudgen/pkg/openapi"
	"github.com/aretw0/crudgen/pkg/schema"
	"github.com/aretw0/crudgen/pkg/value"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// MaxBodyBytes bounds request bodies.
const MaxBodyBytes = 1 << 20

// Generator defines the record operations served over HTTP.
type Generator interface {
	Validate(ctx context.Context, record any) error
	Insert(ctx context.Context, record domain.Record) (string, error)
	Update(ctx context.Context, id string, record domain.Record) error
	Remove(ctx context.Context, id string) error
	Find(ctx context.Context, id string) (domain.Record, error)
	List(ctx context.Context) ([]string, error)
	Coerce(record map[string]any) domain.Record
	Compiled() *schema.Compiled
}

// Server serves the record API for a single Generator.
type Server struct {
	Generator Generator

	logger  *slog.Logger
	origins []string
	metrics http.Handler
	strict  bool
	apiDoc  []byte
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithOrigins restricts CORS to the given origins. The default allows any.
func WithOrigins(origins ...string) Option {
	return func(s *Server) { s.origins = origins }
}

// WithMetrics mounts h at GET /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) { s.metrics = h }
}

// WithStrict marks records as closed in the published OpenAPI document.
func WithStrict(strict bool) Option {
	return func(s *Server) { s.strict = strict }
}

// NewHandler creates a new HTTP handler for the generator.
func NewHandler(gen Generator, opts ...Option) (http.Handler, error) {
	s := &Server{Generator: gen, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}

	apiDoc, err := openapi.MarshalJSON(openapi.Document(gen.Compiled(), openapi.WithStrict(s.strict)))
	if err != nil {
		return nil, err
	}
	s.apiDoc = apiDoc

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.enableCORS)

	r.Get("/schema", s.GetSchema)
	r.Get("/openapi.json", s.GetOpenAPI)
	r.Post("/validate", s.ValidateRecord)

	r.Route("/records", func(r chi.Router) {
		r.Get("/", s.ListRecords)
		r.Post("/", s.CreateRecord)
		r.Get("/{id}", s.GetRecord)
		r.Put("/{id}", s.UpdateRecord)
		r.Delete("/{id}", s.RemoveRecord)
	})

	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}
	return r, nil
}

func (s *Server) enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := s.allowOrigin(r.Header.Get("Origin")); origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			if origin != "*" {
				w.Header().Add("Vary", "Origin")
			}
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) allowOrigin(origin string) string {
	if len(s.origins) == 0 {
		return "*"
	}
	for _, o := range s.origins {
		if o == "*" || strings.EqualFold(o, origin) {
			return origin
		}
	}
	return ""
}

// FieldView describes one schema field.
type FieldView struct {
	Name       string `json:"name"`
	Definition string `json:"definition"`
	schema.Descriptor
}

// GetSchema handles GET /schema.
func (s *Server) GetSchema(w http.ResponseWriter, r *http.Request) {
	c := s.Generator.Compiled()
	fields := make([]FieldView, 0, len(c.Fields()))
	for _, name := range c.Fields() {
		d, _ := c.Descriptor(name)
		fields = append(fields, FieldView{Name: name, Definition: d.String(), Descriptor: d})
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"fingerprint": fmt.Sprintf("%016x", c.Fingerprint()),
		"fields":      fields,
	})
}

// GetOpenAPI handles GET /openapi.json.
func (s *Server) GetOpenAPI(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write(s.apiDoc); err != nil {
		s.logger.Error("OpenAPI response write failed", "err", err)
	}
}

// ValidateRecord handles POST /validate.
func (s *Server) ValidateRecord(w http.ResponseWriter, r *http.Request) {
	record, ok := s.decodeRecord(w, r)
	if !ok {
		return
	}
	if err := s.Generator.Validate(r.Context(), map[string]any(record)); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListRecords handles GET /records.
func (s *Server) ListRecords(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Generator.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	s.writeJSON(w, http.StatusOK, ids)
}

// CreateRecord handles POST /records.
func (s *Server) CreateRecord(w http.ResponseWriter, r *http.Request) {
	record, ok := s.decodeRecord(w, r)
	if !ok {
		return
	}
	id, err := s.Generator.Insert(r.Context(), record)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Location", "/records/"+id)
	s.writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

// GetRecord handles GET /records/{id}.
func (s *Server) GetRecord(w http.ResponseWriter, r *http.Request) {
	record, err := s.Generator.Find(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, record)
}

// UpdateRecord handles PUT /records/{id}.
func (s *Server) UpdateRecord(w http.ResponseWriter, r *http.Request) {
	record, ok := s.decodeRecord(w, r)
	if !ok {
		return
	}
	if err := s.Generator.Update(r.Context(), chi.URLParam(r, "id"), record); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RemoveRecord handles DELETE /records/{id}.
func (s *Server) RemoveRecord(w http.ResponseWriter, r *http.Request) {
	if err := s.Generator.Remove(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// decodeRecord reads a JSON object body. Date fields given as text are parsed;
// with ?coerce=true every field is coerced towards its content type first.
func (s *Server) decodeRecord(w http.ResponseWriter, r *http.Request) (domain.Record, bool) {
	var body map[string]any
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err := dec.Decode(&body); err != nil {
		s.logger.Warn("Invalid request body", "path", r.URL.Path, "err", err)
		s.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body: " + err.Error()})
		return nil, false
	}
	if body == nil {
		s.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body: expected a JSON object"})
		return nil, false
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		s.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body: trailing data"})
		return nil, false
	}

	if coerce, _ := strconv.ParseBool(r.URL.Query().Get("coerce")); coerce {
		record := s.Generator.Coerce(body)
		if err := s.checkFinite(record, body); err != nil {
			s.writeError(w, r, err)
			return nil, false
		}
		return record, true
	}
	return domain.Record(s.Generator.Compiled().Normalize(body)), true
}

// checkFinite rejects numbers that failed to coerce. NaN and infinities
// cannot be stored as JSON nor sent back to the client.
func (s *Server) checkFinite(record domain.Record, raw map[string]any) error {
	for _, name := range record.Keys() {
		f, ok := value.Of(record[name]).Float()
		if !ok || (!math.IsNaN(f) && !math.IsInf(f, 0)) {
			continue
		}
		var def string
		if d, ok := s.Generator.Compiled().Descriptor(name); ok {
			def = d.String()
		}
		return &schema.ValidationError{
			Field:      name,
			Definition: def,
			Rule:       schema.RuleType,
			Reason:     "value does not coerce to a finite number",
			Value:      raw[name],
		}
	}
	return nil
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
	Rule  string `json:"rule,omitempty"`
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	resp := ErrorResponse{Error: err.Error()}
	status := http.StatusInternalServerError

	if verr, ok := schema.AsValidation(err); ok {
		status = http.StatusUnprocessableEntity
		resp.Field = verr.Field
		resp.Rule = string(verr.Rule)
	} else {
		switch {
		case errors.Is(err, domain.ErrRecordNotFound):
			status = http.StatusNotFound
		case errors.Is(err, domain.ErrRecordExists):
			status = http.StatusConflict
		case errors.Is(err, domain.ErrInvalidID):
			status = http.StatusBadRequest
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			status = http.StatusServiceUnavailable
		case errors.As(err, new(*json.UnsupportedValueError)):
			status = http.StatusUnprocessableEntity
		}
	}

	if status >= http.StatusInternalServerError {
		s.logger.Error("Request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	}
	s.writeJSON(w, status, resp)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Response encode failed", "err", err)
	}
}
