package memory

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/stacgate/stacgate/core/extension"
	"github.com/stacgate/stacgate/core/schema"
	"github.com/stacgate/stacgate/pkg/stac"
	"github.com/stacgate/stacgate/ports"
)

// PostGlobalSearch searches items across all catalogs.
func (s *Store) PostGlobalSearch(req *schema.Request) (stac.ItemCollection, error) {
	return s.searchItems(req, "")
}

// GetGlobalSearch searches items across all catalogs.
func (s *Store) GetGlobalSearch(req *schema.Request) (stac.ItemCollection, error) {
	return s.searchItems(req, "")
}

// PostSearch searches items within one catalog.
func (s *Store) PostSearch(req *schema.Request) (stac.ItemCollection, error) {
	return s.searchItems(req, req.String("catalog_id"))
}

// GetSearch searches items within one catalog.
func (s *Store) GetSearch(req *schema.Request) (stac.ItemCollection, error) {
	return s.searchItems(req, req.String("catalog_id"))
}

// ItemCollection lists the items of one collection, paged. With token
// pagination active a next link carries the continuation token.
func (s *Store) ItemCollection(req *schema.Request) (stac.ItemCollection, error) {
	catalogID := req.String("catalog_id")
	collectionID := req.String("collection_id")

	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, err := s.lookupCollection(catalogID, collectionID); err != nil {
		return stac.ItemCollection{}, err
	}

	stored := s.items[catalogID][collectionID]
	matched := make([]stac.Item, 0, len(stored))
	for _, id := range sortedKeys(stored) {
		item := stored[id]
		item.Links = s.linker.Item(catalogID, collectionID, id)
		matched = append(matched, item)
	}

	limit := req.IntOr("limit", DefaultLimit)
	offset, err := pageOffset(req, limit)
	if err != nil {
		return stac.ItemCollection{}, err
	}
	page := paginate(matched, offset, limit)

	vars := map[string]interface{}{"catalogId": catalogID, "collectionId": collectionID}
	self, err := s.linker.Expand("/catalogs/{catalogId}/collections/{collectionId}/items", vars)
	if err != nil {
		return stac.ItemCollection{}, err
	}
	out := stac.ItemCollection{
		Type:     stac.TypeFeatureCollection,
		Features: page,
		Links: []stac.Link{
			{Rel: stac.RelSelf, Href: self, Type: stac.MediaTypeGeoJSON},
			s.linker.Root(),
		},
		Context: s.contextOf(len(page), limit, len(matched)),
	}
	if next := offset + limit; next < len(matched) && s.binding.Extensions != nil && s.binding.Extensions.Has(extension.TokenPagination) {
		out.Links = append(out.Links, stac.Link{
			Rel:  stac.RelNext,
			Href: fmt.Sprintf("%s?token=%d&limit=%d", self, next, limit),
			Type: stac.MediaTypeGeoJSON,
		})
	}
	return out, nil
}

// searchItems runs one search. An empty catalogID searches all
// catalogs; results are ordered by catalog, collection, then item id.
func (s *Store) searchItems(req *schema.Request, catalogID string) (stac.ItemCollection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if catalogID != "" {
		if _, ok := s.catalogs[catalogID]; !ok {
			return stac.ItemCollection{}, fmt.Errorf("catalog %q: %w", catalogID, ports.ErrNotFound)
		}
	}

	match, err := itemFilter(req)
	if err != nil {
		return stac.ItemCollection{}, err
	}

	var matched []stac.Item
	for _, catID := range sortedKeys(s.items) {
		if catalogID != "" && catID != catalogID {
			continue
		}
		for _, colID := range sortedKeys(s.items[catID]) {
			for _, itemID := range sortedKeys(s.items[catID][colID]) {
				item := s.items[catID][colID][itemID]
				if !match(item) {
					continue
				}
				item.Links = s.linker.Item(catID, colID, itemID)
				matched = append(matched, item)
			}
		}
	}

	limit := req.IntOr("limit", DefaultLimit)
	offset, err := pageOffset(req, limit)
	if err != nil {
		return stac.ItemCollection{}, err
	}
	page := paginate(matched, offset, limit)

	return stac.ItemCollection{
		Type:     stac.TypeFeatureCollection,
		Features: page,
		Context:  s.contextOf(len(page), limit, len(matched)),
	}, nil
}

// itemFilter builds the match predicate from the search parameters the
// request carries. Unknown parameters are the client's to interpret;
// this reference implementation handles collections, ids, bbox, and
// datetime.
func itemFilter(req *schema.Request) (func(stac.Item) bool, error) {
	collections := toSet(req.Strings("collections"))
	ids := toSet(req.Strings("ids"))

	bbox := req.Floats("bbox")
	if n := len(bbox); n != 0 && n != 4 && n != 6 {
		return nil, &schema.ValidationError{Field: "bbox", Reason: "must have 4 or 6 coordinates"}
	}
	bbox = flatten2D(bbox)

	var window *interval
	if req.Has("datetime") {
		w, err := parseInterval(req.String("datetime"))
		if err != nil {
			return nil, err
		}
		window = w
	}

	return func(item stac.Item) bool {
		if len(collections) > 0 && !collections[item.Collection] {
			return false
		}
		if len(ids) > 0 && !ids[item.ID] {
			return false
		}
		if len(bbox) == 4 && !bboxIntersects(flatten2D(item.BBox), bbox) {
			return false
		}
		if window != nil && !window.contains(itemDatetime(item)) {
			return false
		}
		return true
	}, nil
}

// collectionFilter builds the match predicate for collection search:
// free text over title, description, and keywords, plus spatial and
// temporal extent checks.
func collectionFilter(req *schema.Request) (func(stac.Collection) bool, error) {
	q := strings.ToLower(strings.TrimSpace(req.String("q")))

	bbox := req.Floats("bbox")
	if n := len(bbox); n != 0 && n != 4 && n != 6 {
		return nil, &schema.ValidationError{Field: "bbox", Reason: "must have 4 or 6 coordinates"}
	}
	bbox = flatten2D(bbox)

	var window *interval
	if req.Has("datetime") {
		w, err := parseInterval(req.String("datetime"))
		if err != nil {
			return nil, err
		}
		window = w
	}

	return func(col stac.Collection) bool {
		if q != "" && !collectionMatchesText(col, q) {
			return false
		}
		if len(bbox) == 4 && !extentIntersects(col.Extent.Spatial, bbox) {
			return false
		}
		if window != nil && !intervalOverlaps(col.Extent.Temporal, window) {
			return false
		}
		return true
	}, nil
}

func collectionMatchesText(col stac.Collection, q string) bool {
	if strings.Contains(strings.ToLower(col.Title), q) {
		return true
	}
	if strings.Contains(strings.ToLower(col.Description), q) {
		return true
	}
	for _, kw := range col.Keywords {
		if strings.Contains(strings.ToLower(kw), q) {
			return true
		}
	}
	return false
}

// pageOffset resolves the requested page start. Continuation tokens
// are plain offsets in this reference implementation; page numbers
// start at one.
func pageOffset(req *schema.Request, limit int) (int, error) {
	if req.Has("token") {
		n, err := strconv.Atoi(req.String("token"))
		if err != nil || n < 0 {
			return 0, &schema.ValidationError{Field: "token", Reason: "malformed continuation token"}
		}
		return n, nil
	}
	if req.Has("page") {
		n, err := strconv.Atoi(req.String("page"))
		if err != nil || n < 1 {
			return 0, &schema.ValidationError{Field: "page", Reason: "must be a positive page number"}
		}
		return (n - 1) * limit, nil
	}
	return 0, nil
}

func paginate[T any](all []T, offset, limit int) []T {
	if offset >= len(all) {
		return []T{}
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end]
}

func toSet(values []string) map[string]bool {
	if len(values) == 0 {
		return nil
	}
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}

// flatten2D reduces a 3D bbox [minx miny minz maxx maxy maxz] to its
// 2D corners; 2D boxes pass through.
func flatten2D(bbox []float64) []float64 {
	if len(bbox) == 6 {
		return []float64{bbox[0], bbox[1], bbox[3], bbox[4]}
	}
	return bbox
}

func bboxIntersects(a, b []float64) bool {
	if len(a) < 4 || len(b) < 4 {
		return false
	}
	return a[0] <= b[2] && b[0] <= a[2] && a[1] <= b[3] && b[1] <= a[3]
}

func extentIntersects(spatial stac.SpatialExtent, bbox []float64) bool {
	for _, extent := range spatial.BBox {
		if bboxIntersects(flatten2D(extent), bbox) {
			return true
		}
	}
	return false
}

// interval is a closed datetime range; nil ends are open.
type interval struct {
	start *time.Time
	end   *time.Time
}

// parseInterval reads a single instant or a "start/end" range where
// either side may be ".." or empty for open.
func parseInterval(raw string) (*interval, error) {
	parse := func(s string) (*time.Time, error) {
		if s == "" || s == ".." {
			return nil, nil
		}
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return nil, &schema.ValidationError{Field: "datetime", Reason: "timestamps must be RFC 3339"}
		}
		return &t, nil
	}

	parts := strings.SplitN(raw, "/", 2)
	if len(parts) == 1 {
		t, err := parse(parts[0])
		if err != nil {
			return nil, err
		}
		if t == nil {
			return nil, &schema.ValidationError{Field: "datetime", Reason: "an instant is required"}
		}
		return &interval{start: t, end: t}, nil
	}

	start, err := parse(parts[0])
	if err != nil {
		return nil, err
	}
	end, err := parse(parts[1])
	if err != nil {
		return nil, err
	}
	if start == nil && end == nil {
		return nil, &schema.ValidationError{Field: "datetime", Reason: "at least one side of the interval must be closed"}
	}
	if start != nil && end != nil && end.Before(*start) {
		return nil, &schema.ValidationError{Field: "datetime", Reason: "interval end precedes its start"}
	}
	return &interval{start: start, end: end}, nil
}

// contains reports whether t falls inside the interval. Items without
// a parseable datetime never match a temporal filter.
func (w *interval) contains(t *time.Time) bool {
	if t == nil {
		return false
	}
	if w.start != nil && t.Before(*w.start) {
		return false
	}
	if w.end != nil && t.After(*w.end) {
		return false
	}
	return true
}

// intervalOverlaps checks a collection's temporal extent against the
// query window. Nil interval sides are open on both sides of the
// comparison.
func intervalOverlaps(temporal stac.TemporalExtent, w *interval) bool {
	parse := func(s *string) *time.Time {
		if s == nil {
			return nil
		}
		t, err := time.Parse(time.RFC3339, *s)
		if err != nil {
			return nil
		}
		return &t
	}
	for _, span := range temporal.Interval {
		if len(span) != 2 {
			continue
		}
		start, end := parse(span[0]), parse(span[1])
		startsBeforeWindowEnds := w.end == nil || start == nil || !start.After(*w.end)
		endsAfterWindowStarts := w.start == nil || end == nil || !end.Before(*w.start)
		if startsBeforeWindowEnds && endsAfterWindowStarts {
			return true
		}
	}
	return false
}

func itemDatetime(item stac.Item) *time.Time {
	raw, ok := item.Properties["datetime"].(string)
	if !ok {
		return nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil
	}
	return &t
}
