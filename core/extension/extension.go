// Package extension defines the capability extension contract and the
// typed set of active extensions an API is assembled with.
//
// An extension is a self-contained capability unit: it advertises
// conformance URIs, may contribute request-parameter mixins to search
// and listing routes, and may register whole routes of its own through
// the API's registration hook. Extensions are immutable after
// construction. Identity is the Kind tag; looking up a kind returns
// the first matching instance.
package extension

import (
	"strings"

	"github.com/stacgate/stacgate/core/schema"
)

// Kind tags an extension capability. Built-in kinds are defined as
// constants; lookups key on this tag rather than on the concrete type.
type Kind string

// Built-in extension kinds.
const (
	Unknown          Kind = ""
	Query            Kind = "query"             // Property comparison operators on search
	Sort             Kind = "sort"              // Result ordering
	Fields           Kind = "fields"            // Response attribute selection
	Filter           Kind = "filter"            // CQL2 filtering
	Pagination       Kind = "pagination"        // Page-number pagination
	TokenPagination  Kind = "token-pagination"  // Opaque continuation tokens
	Context          Kind = "context"           // Result-set count metadata
	Transaction      Kind = "transaction"       // Create/update/delete routes
	CollectionSearch Kind = "collection-search" // Queryable collection listing
	DiscoverySearch  Kind = "discovery-search"  // Catalog discovery search
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	return string(k)
}

// IsValid returns true if the kind is non-empty.
func (k Kind) IsValid() bool {
	return k != Unknown
}

// ParseKind parses a string into a Kind. Unrecognized non-empty strings
// are returned as-is so deployments can wire custom extensions by name.
func ParseKind(s string) Kind {
	return Kind(strings.ToLower(strings.TrimSpace(s)))
}

// Extension is one capability unit. Implementations must be immutable
// after construction.
type Extension interface {
	// Kind returns the capability tag used for lookups.
	Kind() Kind

	// ConformanceURIs returns the conformance classes this extension
	// advertises, in a stable order. May be empty.
	ConformanceURIs() []string
}

// MixinProvider is implemented by extensions that contribute request
// parameters. Either method may return nil when the extension adds
// nothing to that request flavor.
type MixinProvider interface {
	// GetMixin returns fields merged into GET request models.
	GetMixin() *schema.Mixin

	// PostMixin returns fields merged into POST body models.
	PostMixin() *schema.Mixin
}
