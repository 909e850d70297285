package openapi

import (
	"encoding/json"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/stacgate/stacgate/core/registry"
)

// RouteSource yields the routes to document. *registry.Registry
// satisfies it.
type RouteSource interface {
	Routes() []*registry.Route
}

type document struct {
	spec *Spec
	raw  []byte
}

// Service generates the OpenAPI document on first use and caches it.
// The route table is immutable once frozen, so the cache only needs
// explicit invalidation when the service identity changes.
type Service struct {
	gen    *Generator
	routes RouteSource
	log    zerolog.Logger

	mu     sync.Mutex
	cached atomic.Pointer[document]
}

// NewService returns a Service documenting the given route source.
func NewService(gen *Generator, routes RouteSource, log zerolog.Logger) *Service {
	return &Service{
		gen:    gen,
		routes: routes,
		log:    log.With().Str("component", "openapi").Logger(),
	}
}

// Spec returns the generated document, building it if needed.
func (s *Service) Spec() *Spec {
	return s.doc().spec
}

// JSON returns the document serialized as indented JSON. The returned
// slice is shared; callers must not modify it.
func (s *Service) JSON() []byte {
	return s.doc().raw
}

// ReadDoc returns the document as a JSON string. It satisfies the
// swaggo document contract so the service can back the interactive
// documentation UI.
func (s *Service) ReadDoc() string {
	return string(s.doc().raw)
}

// Invalidate drops the cached document so the next read rebuilds it.
func (s *Service) Invalidate() {
	s.cached.Store(nil)
}

func (s *Service) doc() *document {
	if d := s.cached.Load(); d != nil {
		return d
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if d := s.cached.Load(); d != nil {
		return d
	}

	spec := s.gen.Generate(s.routes.Routes())
	raw, err := json.MarshalIndent(spec, "", "  ")
	if err != nil {
		s.log.Error().Err(err).Msg("failed to serialize openapi document")
		raw = []byte("{}")
	}
	d := &document{spec: spec, raw: raw}
	s.cached.Store(d)
	s.log.Debug().Int("paths", len(spec.Paths)).Msg("openapi document generated")
	return d
}
