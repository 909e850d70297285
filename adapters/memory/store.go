// Package memory provides the in-memory reference client: the direct
// variant of the capability contracts backed by maps. Tests and the
// demo deployment use it; real deployments bring their own client.
package memory

import (
	"fmt"
	"sort"
	"sync"

	"github.com/stacgate/stacgate/core/conformance"
	"github.com/stacgate/stacgate/core/extension"
	"github.com/stacgate/stacgate/core/schema"
	"github.com/stacgate/stacgate/pkg/stac"
	"github.com/stacgate/stacgate/ports"
)

// DefaultLimit caps a result page when the request does not set one.
const DefaultLimit = 10

// landingID names the root catalog document.
const landingID = "stacgate"

// Store holds catalogs, collections, and items in nested maps guarded
// by one lock. Documents are stored by value; links are rebuilt on the
// way out so stored documents stay location-independent.
type Store struct {
	binding ports.Binding
	linker  *stac.Linker
	ids     ports.IDGenerator

	mu          sync.RWMutex
	catalogs    map[string]stac.Catalog
	collections map[string]map[string]stac.Collection
	items       map[string]map[string]map[string]stac.Item
}

var (
	_ ports.DirectCoreClient        = (*Store)(nil)
	_ ports.DirectTransactionClient = (*Store)(nil)
	_ ports.DirectDiscoveryClient   = (*Store)(nil)
	_ ports.QueryablesClient        = (*Store)(nil)
)

// NewStore creates an empty store bound to a deployment identity. The
// id generator names items created without an id of their own.
func NewStore(binding ports.Binding, ids ports.IDGenerator) *Store {
	return &Store{
		binding:     binding,
		linker:      stac.NewLinker(binding.BaseURL),
		ids:         ids,
		catalogs:    make(map[string]stac.Catalog),
		collections: make(map[string]map[string]stac.Collection),
		items:       make(map[string]map[string]map[string]stac.Item),
	}
}

// PutCatalog upserts a catalog. Seeding helper; request-driven writes
// go through the transaction methods.
func (s *Store) PutCatalog(cat stac.Catalog) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureCatalog(cat.ID)
	s.catalogs[cat.ID] = cat
}

// PutCollection upserts a collection under a catalog, creating the
// catalog entry when needed.
func (s *Store) PutCollection(catalogID string, col stac.Collection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureCatalog(catalogID)
	s.collections[catalogID][col.ID] = col
	if _, ok := s.items[catalogID][col.ID]; !ok {
		s.items[catalogID][col.ID] = make(map[string]stac.Item)
	}
}

// PutItem upserts an item. The item's Collection field names the
// collection it is stored under.
func (s *Store) PutItem(catalogID string, item stac.Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureCatalog(catalogID)
	if _, ok := s.items[catalogID][item.Collection]; !ok {
		s.items[catalogID][item.Collection] = make(map[string]stac.Item)
	}
	s.items[catalogID][item.Collection][item.ID] = item
}

// ensureCatalog makes the nested maps for a catalog id. Callers hold
// the write lock.
func (s *Store) ensureCatalog(catalogID string) {
	if _, ok := s.catalogs[catalogID]; !ok {
		s.catalogs[catalogID] = stac.Catalog{
			Type: stac.TypeCatalog, ID: catalogID, STACVersion: s.binding.STACVersion,
		}
	}
	if _, ok := s.collections[catalogID]; !ok {
		s.collections[catalogID] = make(map[string]stac.Collection)
	}
	if _, ok := s.items[catalogID]; !ok {
		s.items[catalogID] = make(map[string]map[string]stac.Item)
	}
}

// LandingPage builds the root document with child links for every
// catalog, sorted by id for stable output.
func (s *Store) LandingPage(req *schema.Request) (stac.LandingPage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	links := s.linker.Landing()
	for _, id := range sortedKeys(s.catalogs) {
		links = append(links, s.linker.Child(id, s.catalogs[id].Title))
	}
	return stac.LandingPage{
		Type:        stac.TypeCatalog,
		ID:          landingID,
		STACVersion: s.binding.STACVersion,
		Title:       s.binding.Title,
		Description: s.binding.Description,
		ConformsTo:  conformance.Classes(s.binding.Extensions),
		Links:       links,
	}, nil
}

// Conformance reports the classes derived from the extension set.
func (s *Store) Conformance(req *schema.Request) (stac.Conformance, error) {
	return stac.Conformance{ConformsTo: conformance.Classes(s.binding.Extensions)}, nil
}

// AllCatalogs lists the top-level catalogs sorted by id.
func (s *Store) AllCatalogs(req *schema.Request) (stac.Catalogs, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := stac.Catalogs{
		Catalogs: []stac.Catalog{},
		Links: []stac.Link{
			s.linker.Self("/catalogs", stac.MediaTypeJSON),
			s.linker.Root(),
		},
	}
	for _, id := range sortedKeys(s.catalogs) {
		cat := s.catalogs[id]
		cat.Links = s.linker.Catalog(id)
		out.Catalogs = append(out.Catalogs, cat)
	}
	return out, nil
}

// GetCatalog returns one catalog by id.
func (s *Store) GetCatalog(req *schema.Request) (stac.Catalog, error) {
	catalogID := req.String("catalog_id")

	s.mu.RLock()
	defer s.mu.RUnlock()

	cat, ok := s.catalogs[catalogID]
	if !ok {
		return stac.Catalog{}, fmt.Errorf("catalog %q: %w", catalogID, ports.ErrNotFound)
	}
	cat.Links = s.linker.Catalog(catalogID)
	return cat, nil
}

// GetCollection returns one collection by catalog and collection id.
func (s *Store) GetCollection(req *schema.Request) (stac.Collection, error) {
	catalogID := req.String("catalog_id")
	collectionID := req.String("collection_id")

	s.mu.RLock()
	defer s.mu.RUnlock()

	col, err := s.lookupCollection(catalogID, collectionID)
	if err != nil {
		return stac.Collection{}, err
	}
	col.Links = s.linker.Collection(catalogID, collectionID)
	return col, nil
}

// CatalogCollections lists the collections of one catalog sorted by id.
func (s *Store) CatalogCollections(req *schema.Request) (stac.Collections, error) {
	catalogID := req.String("catalog_id")

	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.catalogs[catalogID]; !ok {
		return stac.Collections{}, fmt.Errorf("catalog %q: %w", catalogID, ports.ErrNotFound)
	}

	self, err := s.linker.Expand("/catalogs/{catalogId}/collections",
		map[string]interface{}{"catalogId": catalogID})
	if err != nil {
		return stac.Collections{}, err
	}
	out := stac.Collections{
		Collections: []stac.Collection{},
		Links: []stac.Link{
			{Rel: stac.RelSelf, Href: self, Type: stac.MediaTypeJSON},
			s.linker.Root(),
		},
	}
	for _, id := range sortedKeys(s.collections[catalogID]) {
		col := s.collections[catalogID][id]
		col.Links = s.linker.Collection(catalogID, id)
		out.Collections = append(out.Collections, col)
	}
	return out, nil
}

// AllCollections lists collections across all catalogs. When the
// request carries collection-search parameters they filter the result.
func (s *Store) AllCollections(req *schema.Request) (stac.Collections, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	match, err := collectionFilter(req)
	if err != nil {
		return stac.Collections{}, err
	}

	var matched []stac.Collection
	for _, catID := range sortedKeys(s.collections) {
		for _, colID := range sortedKeys(s.collections[catID]) {
			col := s.collections[catID][colID]
			if !match(col) {
				continue
			}
			col.Links = s.linker.Collection(catID, colID)
			matched = append(matched, col)
		}
	}

	limit := req.IntOr("limit", DefaultLimit)
	page := paginate(matched, 0, limit)

	return stac.Collections{
		Collections: page,
		Links: []stac.Link{
			s.linker.Self("/collections", stac.MediaTypeJSON),
			s.linker.Root(),
		},
		Context: s.contextOf(len(page), limit, len(matched)),
	}, nil
}

// GetItem returns one item by catalog, collection, and item id.
func (s *Store) GetItem(req *schema.Request) (stac.Item, error) {
	catalogID := req.String("catalog_id")
	collectionID := req.String("collection_id")
	itemID := req.String("item_id")

	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, err := s.lookupCollection(catalogID, collectionID); err != nil {
		return stac.Item{}, err
	}
	item, ok := s.items[catalogID][collectionID][itemID]
	if !ok {
		return stac.Item{}, fmt.Errorf("item %q in %s/%s: %w", itemID, catalogID, collectionID, ports.ErrNotFound)
	}
	item.Links = s.linker.Item(catalogID, collectionID, itemID)
	return item, nil
}

// lookupCollection resolves a collection or reports which level of the
// hierarchy is missing. Callers hold at least the read lock.
func (s *Store) lookupCollection(catalogID, collectionID string) (stac.Collection, error) {
	if _, ok := s.catalogs[catalogID]; !ok {
		return stac.Collection{}, fmt.Errorf("catalog %q: %w", catalogID, ports.ErrNotFound)
	}
	col, ok := s.collections[catalogID][collectionID]
	if !ok {
		return stac.Collection{}, fmt.Errorf("collection %q in catalog %q: %w", collectionID, catalogID, ports.ErrNotFound)
	}
	return col, nil
}

// contextOf builds result-set metadata when the context capability is
// active, nil otherwise so the field marshals away.
func (s *Store) contextOf(returned, limit, matched int) *stac.Context {
	if s.binding.Extensions == nil || !s.binding.Extensions.Has(extension.Context) {
		return nil
	}
	m := matched
	return &stac.Context{Returned: returned, Limit: limit, Matched: &m}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
