package registry

import "strings"

// Scope selects routes for a policy overlay. Matching is exact on the
// path template and case-insensitive on the method: "/collections"
// selects only the listing route, never "/collections/{collection_id}".
type Scope struct {
	Path   string
	Method string
}

// Overlay attaches dependencies to every route its scopes select.
// Overlays are declared per deployment and applied once, after all
// routes are registered and before the table freezes.
type Overlay struct {
	Scopes       []Scope
	Dependencies []Dependency
}

// ApplyOverlays processes overlays in declaration order. For each
// scope, every selected route gets the overlay's dependencies appended
// to its chain. Appending is cumulative and order-preserving; existing
// dependencies are never replaced. Scopes selecting no route are
// silently inert. Returns the number of (scope, route) attachments.
func (r *Registry) ApplyOverlays(overlays []Overlay) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return 0, ErrFrozen
	}

	attached := 0
	for _, overlay := range overlays {
		for _, scope := range overlay.Scopes {
			for _, route := range r.routes {
				if !scopeMatches(scope, route) {
					continue
				}
				route.Dependencies = append(route.Dependencies, overlay.Dependencies...)
				attached++
			}
		}
	}
	return attached, nil
}

func scopeMatches(scope Scope, route *Route) bool {
	if scope.Path != route.Path {
		return false
	}
	for _, m := range route.Methods {
		if strings.EqualFold(m, scope.Method) {
			return true
		}
	}
	return false
}
