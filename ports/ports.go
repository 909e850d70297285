// Package ports defines interfaces (contracts) between layers.
// These interfaces enable dependency injection and testability.
// Implementations live in adapters/.
package ports

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/stacgate/stacgate/core/extension"
	"github.com/stacgate/stacgate/core/schema"
	"github.com/stacgate/stacgate/pkg/stac"
)

// -----------------------------------------------------------------------------
// Infrastructure Ports
// -----------------------------------------------------------------------------

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

// IDGenerator generates unique identifiers.
type IDGenerator interface {
	New() string
}

// -----------------------------------------------------------------------------
// Client Errors
// -----------------------------------------------------------------------------

// ErrNotFound is wrapped by clients when a catalog, collection, or item
// does not exist. The API boundary maps it to 404.
var ErrNotFound = errors.New("not found")

// ErrConflict is wrapped by clients when a create collides with an
// existing resource. The API boundary maps it to 409.
var ErrConflict = errors.New("already exists")

// -----------------------------------------------------------------------------
// Client Binding
// -----------------------------------------------------------------------------

// Binding carries the deployment identity a client needs to build its
// documents: service metadata, the external base URL for links, and
// the active extension set for conformance aggregation. It is passed
// to client constructors and never mutated afterwards.
type Binding struct {
	// Title and Description identify the service on its landing page.
	Title       string
	Description string

	// APIVersion is the service release reported in documentation.
	APIVersion string

	// STACVersion is the catalog specification version documents declare.
	STACVersion string

	// BaseURL is the external root used for link building.
	BaseURL string

	// Extensions is the active extension set, read-only after assembly.
	Extensions *extension.Set
}

// -----------------------------------------------------------------------------
// Capability Clients
// -----------------------------------------------------------------------------

// CoreClient implements the catalog operations as suspending methods:
// context-aware calls that may block on I/O. One of CoreClient or
// DirectCoreClient must be supplied at assembly.
type CoreClient interface {
	// LandingPage returns the root catalog document.
	LandingPage(ctx context.Context, req *schema.Request) (stac.LandingPage, error)

	// Conformance returns the conformance classes the service implements.
	Conformance(ctx context.Context, req *schema.Request) (stac.Conformance, error)

	// GetItem returns one item by catalog, collection, and item id.
	GetItem(ctx context.Context, req *schema.Request) (stac.Item, error)

	// PostGlobalSearch searches items across all catalogs (body parameters).
	PostGlobalSearch(ctx context.Context, req *schema.Request) (stac.ItemCollection, error)

	// GetGlobalSearch searches items across all catalogs (query parameters).
	GetGlobalSearch(ctx context.Context, req *schema.Request) (stac.ItemCollection, error)

	// PostSearch searches items within one catalog (body parameters).
	PostSearch(ctx context.Context, req *schema.Request) (stac.ItemCollection, error)

	// GetSearch searches items within one catalog (query parameters).
	GetSearch(ctx context.Context, req *schema.Request) (stac.ItemCollection, error)

	// AllCollections lists collections across all catalogs.
	AllCollections(ctx context.Context, req *schema.Request) (stac.Collections, error)

	// AllCatalogs lists the top-level catalogs.
	AllCatalogs(ctx context.Context, req *schema.Request) (stac.Catalogs, error)

	// GetCollection returns one collection by catalog and collection id.
	GetCollection(ctx context.Context, req *schema.Request) (stac.Collection, error)

	// GetCatalog returns one catalog by id.
	GetCatalog(ctx context.Context, req *schema.Request) (stac.Catalog, error)

	// ItemCollection lists the items of one collection.
	ItemCollection(ctx context.Context, req *schema.Request) (stac.ItemCollection, error)

	// CatalogCollections lists the collections of one catalog.
	CatalogCollections(ctx context.Context, req *schema.Request) (stac.Collections, error)
}

// DirectCoreClient implements the same operations as plain functions
// that return without blocking on I/O, for in-memory or precomputed
// backends. The engine dispatches both variants identically.
type DirectCoreClient interface {
	LandingPage(req *schema.Request) (stac.LandingPage, error)
	Conformance(req *schema.Request) (stac.Conformance, error)
	GetItem(req *schema.Request) (stac.Item, error)
	PostGlobalSearch(req *schema.Request) (stac.ItemCollection, error)
	GetGlobalSearch(req *schema.Request) (stac.ItemCollection, error)
	PostSearch(req *schema.Request) (stac.ItemCollection, error)
	GetSearch(req *schema.Request) (stac.ItemCollection, error)
	AllCollections(req *schema.Request) (stac.Collections, error)
	AllCatalogs(req *schema.Request) (stac.Catalogs, error)
	GetCollection(req *schema.Request) (stac.Collection, error)
	GetCatalog(req *schema.Request) (stac.Catalog, error)
	ItemCollection(req *schema.Request) (stac.ItemCollection, error)
	CatalogCollections(req *schema.Request) (stac.Collections, error)
}

// TransactionClient adds create/update/delete operations. Clients
// supporting the transaction extension implement this alongside
// CoreClient.
type TransactionClient interface {
	// CreateItem stores a new item in a collection.
	CreateItem(ctx context.Context, req *schema.Request) (stac.Item, error)

	// UpdateItem replaces an existing item.
	UpdateItem(ctx context.Context, req *schema.Request) (stac.Item, error)

	// DeleteItem removes an item.
	DeleteItem(ctx context.Context, req *schema.Request) error

	// CreateCollection stores a new collection in a catalog.
	CreateCollection(ctx context.Context, req *schema.Request) (stac.Collection, error)

	// UpdateCollection replaces an existing collection.
	UpdateCollection(ctx context.Context, req *schema.Request) (stac.Collection, error)

	// DeleteCollection removes a collection.
	DeleteCollection(ctx context.Context, req *schema.Request) error
}

// DirectTransactionClient is the direct-variant transaction contract.
type DirectTransactionClient interface {
	CreateItem(req *schema.Request) (stac.Item, error)
	UpdateItem(req *schema.Request) (stac.Item, error)
	DeleteItem(req *schema.Request) error
	CreateCollection(req *schema.Request) (stac.Collection, error)
	UpdateCollection(req *schema.Request) (stac.Collection, error)
	DeleteCollection(req *schema.Request) error
}

// QueryablesClient serves the filter extension's queryables documents:
// JSON Schema descriptions of the properties a deployment can filter
// on. Empty ids address the whole service.
type QueryablesClient interface {
	Queryables(ctx context.Context, catalogID, collectionID string) (json.RawMessage, error)
}

// DiscoveryClient serves the discovery-search extension: free-text
// search over collections across all catalogs.
type DiscoveryClient interface {
	DiscoverySearch(ctx context.Context, req *schema.Request) (stac.Collections, error)
}

// DirectDiscoveryClient is the direct-variant discovery contract.
type DirectDiscoveryClient interface {
	DiscoverySearch(req *schema.Request) (stac.Collections, error)
}
