package memory

import (
	"fmt"

	"github.com/stacgate/stacgate/core/schema"
	"github.com/stacgate/stacgate/pkg/stac"
	"github.com/stacgate/stacgate/ports"
)

// CreateItem stores a new item under the addressed collection. An item
// without an id gets a generated one; an existing id is a conflict.
func (s *Store) CreateItem(req *schema.Request) (stac.Item, error) {
	catalogID := req.String("catalog_id")
	collectionID := req.String("collection_id")

	var doc stac.Item
	if err := req.Unmarshal("item", &doc); err != nil {
		return stac.Item{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.lookupCollection(catalogID, collectionID); err != nil {
		return stac.Item{}, err
	}
	if doc.ID == "" {
		if s.ids == nil {
			return stac.Item{}, &schema.ValidationError{Field: "item", Reason: "an id is required"}
		}
		doc.ID = s.ids.New()
	}
	if _, exists := s.items[catalogID][collectionID][doc.ID]; exists {
		return stac.Item{}, fmt.Errorf("item %q in %s/%s: %w", doc.ID, catalogID, collectionID, ports.ErrConflict)
	}

	s.normalizeItem(&doc, collectionID)
	s.items[catalogID][collectionID][doc.ID] = doc

	doc.Links = s.linker.Item(catalogID, collectionID, doc.ID)
	return doc, nil
}

// UpdateItem replaces an existing item. The path id wins over any id
// in the document.
func (s *Store) UpdateItem(req *schema.Request) (stac.Item, error) {
	catalogID := req.String("catalog_id")
	collectionID := req.String("collection_id")
	itemID := req.String("item_id")

	var doc stac.Item
	if err := req.Unmarshal("item", &doc); err != nil {
		return stac.Item{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.lookupCollection(catalogID, collectionID); err != nil {
		return stac.Item{}, err
	}
	if _, exists := s.items[catalogID][collectionID][itemID]; !exists {
		return stac.Item{}, fmt.Errorf("item %q in %s/%s: %w", itemID, catalogID, collectionID, ports.ErrNotFound)
	}

	doc.ID = itemID
	s.normalizeItem(&doc, collectionID)
	s.items[catalogID][collectionID][itemID] = doc

	doc.Links = s.linker.Item(catalogID, collectionID, itemID)
	return doc, nil
}

// DeleteItem removes an item.
func (s *Store) DeleteItem(req *schema.Request) error {
	catalogID := req.String("catalog_id")
	collectionID := req.String("collection_id")
	itemID := req.String("item_id")

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.lookupCollection(catalogID, collectionID); err != nil {
		return err
	}
	if _, exists := s.items[catalogID][collectionID][itemID]; !exists {
		return fmt.Errorf("item %q in %s/%s: %w", itemID, catalogID, collectionID, ports.ErrNotFound)
	}
	delete(s.items[catalogID][collectionID], itemID)
	return nil
}

// CreateCollection stores a new collection under the addressed catalog.
func (s *Store) CreateCollection(req *schema.Request) (stac.Collection, error) {
	catalogID := req.String("catalog_id")

	var doc stac.Collection
	if err := req.Unmarshal("collection", &doc); err != nil {
		return stac.Collection{}, err
	}
	if doc.ID == "" {
		return stac.Collection{}, &schema.ValidationError{Field: "collection", Reason: "an id is required"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.catalogs[catalogID]; !ok {
		return stac.Collection{}, fmt.Errorf("catalog %q: %w", catalogID, ports.ErrNotFound)
	}
	if _, exists := s.collections[catalogID][doc.ID]; exists {
		return stac.Collection{}, fmt.Errorf("collection %q in catalog %q: %w", doc.ID, catalogID, ports.ErrConflict)
	}

	s.normalizeCollection(&doc)
	s.collections[catalogID][doc.ID] = doc
	s.items[catalogID][doc.ID] = make(map[string]stac.Item)

	doc.Links = s.linker.Collection(catalogID, doc.ID)
	return doc, nil
}

// UpdateCollection replaces an existing collection. The path id wins
// over any id in the document.
func (s *Store) UpdateCollection(req *schema.Request) (stac.Collection, error) {
	catalogID := req.String("catalog_id")
	collectionID := req.String("collection_id")

	var doc stac.Collection
	if err := req.Unmarshal("collection", &doc); err != nil {
		return stac.Collection{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.lookupCollection(catalogID, collectionID); err != nil {
		return stac.Collection{}, err
	}

	doc.ID = collectionID
	s.normalizeCollection(&doc)
	s.collections[catalogID][collectionID] = doc

	doc.Links = s.linker.Collection(catalogID, collectionID)
	return doc, nil
}

// DeleteCollection removes a collection and its items.
func (s *Store) DeleteCollection(req *schema.Request) error {
	catalogID := req.String("catalog_id")
	collectionID := req.String("collection_id")

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.lookupCollection(catalogID, collectionID); err != nil {
		return err
	}
	delete(s.collections[catalogID], collectionID)
	delete(s.items[catalogID], collectionID)
	return nil
}

// normalizeItem fills the envelope fields a submitted document may
// omit. The addressed collection always wins.
func (s *Store) normalizeItem(doc *stac.Item, collectionID string) {
	if doc.Type == "" {
		doc.Type = stac.TypeFeature
	}
	if doc.STACVersion == "" {
		doc.STACVersion = s.binding.STACVersion
	}
	doc.Collection = collectionID
	if doc.Properties == nil {
		doc.Properties = map[string]any{}
	}
	if doc.Assets == nil {
		doc.Assets = map[string]stac.Asset{}
	}
	doc.Links = nil
}

func (s *Store) normalizeCollection(doc *stac.Collection) {
	if doc.Type == "" {
		doc.Type = stac.TypeCollection
	}
	if doc.STACVersion == "" {
		doc.STACVersion = s.binding.STACVersion
	}
	doc.Links = nil
}
