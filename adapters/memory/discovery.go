package memory

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/stacgate/stacgate/core/schema"
	"github.com/stacgate/stacgate/pkg/stac"
)

// DiscoverySearch runs free-text collection discovery across all
// catalogs. An empty q matches everything.
func (s *Store) DiscoverySearch(req *schema.Request) (stac.Collections, error) {
	q := strings.ToLower(strings.TrimSpace(req.String("q")))

	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []stac.Collection
	for _, catID := range sortedKeys(s.collections) {
		for _, colID := range sortedKeys(s.collections[catID]) {
			col := s.collections[catID][colID]
			if q != "" && !collectionMatchesText(col, q) {
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
			s.linker.Self("/discovery-search", stac.MediaTypeJSON),
			s.linker.Root(),
		},
		Context: s.contextOf(len(page), limit, len(matched)),
	}, nil
}

// Queryables describes the properties this store can filter on. The
// document is the same for every collection; a collection-scoped
// request still validates that the collection exists.
func (s *Store) Queryables(ctx context.Context, catalogID, collectionID string) (json.RawMessage, error) {
	id := s.binding.BaseURL + "/queryables"
	if collectionID != "" {
		s.mu.RLock()
		_, err := s.lookupCollection(catalogID, collectionID)
		s.mu.RUnlock()
		if err != nil {
			return nil, err
		}
		expanded, err := s.linker.Expand("/catalogs/{catalogId}/collections/{collectionId}/queryables",
			map[string]interface{}{"catalogId": catalogID, "collectionId": collectionID})
		if err != nil {
			return nil, err
		}
		id = expanded
	}

	doc := map[string]any{
		"$schema": "https://json-schema.org/draft/2019-09/schema",
		"$id":     id,
		"type":    "object",
		"title":   "Queryables",
		"properties": map[string]any{
			"id":         map[string]any{"type": "string", "description": "Item identifier"},
			"collection": map[string]any{"type": "string", "description": "Parent collection identifier"},
			"datetime":   map[string]any{"type": "string", "format": "date-time", "description": "Acquisition timestamp"},
			"geometry":   map[string]any{"description": "Item geometry"},
		},
		"additionalProperties": true,
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	return raw, nil
}
