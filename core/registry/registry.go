// Package registry owns the authoritative route table and its conflict
// detection. Routes are added during assembly in a fixed order, policy
// overlays append per-route dependencies after the table is complete,
// and Freeze makes the table immutable before the server starts.
package registry

import (
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/stacgate/stacgate/core/schema"
)

// Dependency wraps a route handler with policy (auth guards and the
// like). Dependencies run outermost-first in slice order.
type Dependency func(http.Handler) http.Handler

// Route describes one entry in the table.
type Route struct {
	// Name is the operation name, e.g. "GetItem". Used in generated
	// documentation and conflict messages.
	Name string

	// Path is the path template with {param} segments.
	Path string

	// Methods lists the HTTP methods the route serves.
	Methods []string

	// RequestModel declares what the route accepts. Nil means the
	// route takes no parameters.
	RequestModel *schema.Model

	// ResponseModel names the declared response schema. Empty means
	// the response shape is open (unchecked passthrough); extensions
	// that prune response attributes suppress the declared schema
	// this way.
	ResponseModel string

	// Handler serves the route.
	Handler http.Handler

	// Dependencies holds policy middlewares appended by overlays.
	Dependencies []Dependency

	// Tags group routes in generated documentation.
	Tags []string
}

// HasMethod reports whether the route serves the given method.
func (rt *Route) HasMethod(method string) bool {
	for _, m := range rt.Methods {
		if strings.EqualFold(m, method) {
			return true
		}
	}
	return false
}

// ConflictError reports a (path, method) pair claimed twice.
type ConflictError struct {
	Path     string
	Method   string
	Existing string // route already holding the claim
	Adding   string // route attempting the claim
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("route conflict: %s %s already claimed by %q (adding %q)",
		e.Method, e.Path, e.Existing, e.Adding)
}

// ErrFrozen is returned when mutating a frozen registry. Assembly
// freezes the table before the listener starts; a frozen-table
// mutation is a construction-order bug.
var ErrFrozen = fmt.Errorf("registry: route table is frozen")

// Registry manages the route table.
// Thread-safe, though all writes happen single-threaded at assembly.
type Registry struct {
	mu sync.RWMutex

	// routes in registration order
	routes []*Route

	// claims maps "METHOD path" -> claiming route
	claims map[string]*Route

	frozen bool
}

// New creates an empty route table.
func New() *Registry {
	return &Registry{
		claims: make(map[string]*Route),
	}
}

// Add registers a route. Every (path, method) pair must be unclaimed;
// otherwise Add returns a *ConflictError and the table is unchanged.
func (r *Registry) Add(route Route) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return ErrFrozen
	}
	if route.Path == "" || len(route.Methods) == 0 {
		return fmt.Errorf("route %q: path and at least one method are required", route.Name)
	}

	// Check all claims before taking any
	for _, method := range route.Methods {
		key := claimKey(method, route.Path)
		if existing, exists := r.claims[key]; exists {
			return &ConflictError{
				Path:     route.Path,
				Method:   strings.ToUpper(method),
				Existing: existing.Name,
				Adding:   route.Name,
			}
		}
	}

	stored := route
	r.routes = append(r.routes, &stored)
	for _, method := range route.Methods {
		r.claims[claimKey(method, route.Path)] = &stored
	}
	return nil
}

// Freeze makes the table immutable. Idempotent.
func (r *Registry) Freeze() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frozen = true
}

// Frozen reports whether the table is immutable.
func (r *Registry) Frozen() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.frozen
}

// Routes returns the routes in registration order. The slice is a
// copy; the routes are shared and must not be mutated after Freeze.
func (r *Registry) Routes() []*Route {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Route, len(r.routes))
	copy(out, r.routes)
	return out
}

// Len returns the number of registered routes.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.routes)
}

// Lookup finds the route claiming a method and concrete path, trying
// an exact claim first and then {param} template matching.
func (r *Registry) Lookup(method, path string) (*Route, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	key := claimKey(method, path)
	if route, ok := r.claims[key]; ok {
		return route, true
	}
	for claim, route := range r.claims {
		if matchPattern(claim, key) {
			return route, true
		}
	}
	return nil, false
}

// claimKey builds the uniqueness key for one method on one path.
func claimKey(method, path string) string {
	if path != "/" {
		path = strings.TrimRight(path, "/")
	}
	return strings.ToUpper(method) + " " + path
}

// matchPattern checks if a key matches a claim with {param} placeholders.
func matchPattern(pattern, key string) bool {
	patternParts := strings.Split(pattern, "/")
	keyParts := strings.Split(key, "/")

	if len(patternParts) != len(keyParts) {
		return false
	}

	for i, part := range patternParts {
		if strings.HasPrefix(part, "{") && strings.HasSuffix(part, "}") {
			continue // Parameter matches anything
		}
		if part != keyParts[i] {
			return false
		}
	}

	return true
}
