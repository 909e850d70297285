package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/stacgate/stacgate/core/extension"
	"github.com/stacgate/stacgate/core/schema"
	"github.com/stacgate/stacgate/pkg/stac"
)

// PostGlobalSearch searches items across all catalogs.
func (c *Client) PostGlobalSearch(ctx context.Context, req *schema.Request) (stac.ItemCollection, error) {
	return c.searchItems(ctx, req, "")
}

// GetGlobalSearch searches items across all catalogs.
func (c *Client) GetGlobalSearch(ctx context.Context, req *schema.Request) (stac.ItemCollection, error) {
	return c.searchItems(ctx, req, "")
}

// PostSearch searches items within one catalog.
func (c *Client) PostSearch(ctx context.Context, req *schema.Request) (stac.ItemCollection, error) {
	return c.searchItems(ctx, req, req.String("catalog_id"))
}

// GetSearch searches items within one catalog.
func (c *Client) GetSearch(ctx context.Context, req *schema.Request) (stac.ItemCollection, error) {
	return c.searchItems(ctx, req, req.String("catalog_id"))
}

// searchItems runs one search as a SQL query over the extracted filter
// columns. An empty catalogID searches all catalogs; results are
// ordered by catalog, collection, then item id.
func (c *Client) searchItems(ctx context.Context, req *schema.Request, catalogID string) (stac.ItemCollection, error) {
	if catalogID != "" {
		if err := c.catalogExists(ctx, catalogID); err != nil {
			return stac.ItemCollection{}, err
		}
	}

	where, args, err := itemPredicates(req, catalogID)
	if err != nil {
		return stac.ItemCollection{}, err
	}

	var matched int
	countQuery := "SELECT COUNT(*) FROM items" + where
	if err := c.db.QueryRowContext(ctx, countQuery, args...).Scan(&matched); err != nil {
		return stac.ItemCollection{}, fmt.Errorf("count search results: %w", err)
	}

	limit := req.IntOr("limit", DefaultLimit)
	offset, err := pageOffset(req, limit)
	if err != nil {
		return stac.ItemCollection{}, err
	}

	query := `SELECT catalog_id, collection_id, id, document FROM items` + where +
		` ORDER BY catalog_id, collection_id, id LIMIT ? OFFSET ?`
	rows, err := c.db.QueryContext(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return stac.ItemCollection{}, fmt.Errorf("search items: %w", err)
	}
	defer rows.Close()

	features := []stac.Item{}
	for rows.Next() {
		var catID, colID, id, doc string
		if err := rows.Scan(&catID, &colID, &id, &doc); err != nil {
			return stac.ItemCollection{}, fmt.Errorf("scan item: %w", err)
		}
		item, err := unmarshalItem(id, doc)
		if err != nil {
			return stac.ItemCollection{}, err
		}
		item.Links = c.linker.Item(catID, colID, id)
		features = append(features, item)
	}
	if err := rows.Err(); err != nil {
		return stac.ItemCollection{}, err
	}

	return stac.ItemCollection{
		Type:     stac.TypeFeatureCollection,
		Features: features,
		Context:  c.contextOf(len(features), limit, matched),
	}, nil
}

// ItemCollection lists the items of one collection, paged. With token
// pagination active a next link carries the continuation token.
func (c *Client) ItemCollection(ctx context.Context, req *schema.Request) (stac.ItemCollection, error) {
	catalogID := req.String("catalog_id")
	collectionID := req.String("collection_id")

	if _, err := c.lookupCollection(ctx, catalogID, collectionID); err != nil {
		return stac.ItemCollection{}, err
	}

	var matched int
	err := c.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM items WHERE catalog_id = ? AND collection_id = ?
	`, catalogID, collectionID).Scan(&matched)
	if err != nil {
		return stac.ItemCollection{}, fmt.Errorf("count items: %w", err)
	}

	limit := req.IntOr("limit", DefaultLimit)
	offset, err := pageOffset(req, limit)
	if err != nil {
		return stac.ItemCollection{}, err
	}

	rows, err := c.db.QueryContext(ctx, `
		SELECT id, document FROM items
		WHERE catalog_id = ? AND collection_id = ?
		ORDER BY id LIMIT ? OFFSET ?
	`, catalogID, collectionID, limit, offset)
	if err != nil {
		return stac.ItemCollection{}, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	features := []stac.Item{}
	for rows.Next() {
		var id, doc string
		if err := rows.Scan(&id, &doc); err != nil {
			return stac.ItemCollection{}, fmt.Errorf("scan item: %w", err)
		}
		item, err := unmarshalItem(id, doc)
		if err != nil {
			return stac.ItemCollection{}, err
		}
		item.Links = c.linker.Item(catalogID, collectionID, id)
		features = append(features, item)
	}
	if err := rows.Err(); err != nil {
		return stac.ItemCollection{}, err
	}

	vars := map[string]interface{}{"catalogId": catalogID, "collectionId": collectionID}
	self, err := c.linker.Expand("/catalogs/{catalogId}/collections/{collectionId}/items", vars)
	if err != nil {
		return stac.ItemCollection{}, err
	}
	out := stac.ItemCollection{
		Type:     stac.TypeFeatureCollection,
		Features: features,
		Links: []stac.Link{
			{Rel: stac.RelSelf, Href: self, Type: stac.MediaTypeGeoJSON},
			c.linker.Root(),
		},
		Context: c.contextOf(len(features), limit, matched),
	}
	if next := offset + limit; next < matched && c.binding.Extensions != nil && c.binding.Extensions.Has(extension.TokenPagination) {
		out.Links = append(out.Links, stac.Link{
			Rel:  stac.RelNext,
			Href: fmt.Sprintf("%s?token=%d&limit=%d", self, next, limit),
			Type: stac.MediaTypeGeoJSON,
		})
	}
	return out, nil
}

// AllCollections lists collections across all catalogs. The free-text
// parameter filters in SQL; extent checks run on the decoded documents.
func (c *Client) AllCollections(ctx context.Context, req *schema.Request) (stac.Collections, error) {
	matched, err := c.collectionSearch(ctx, req)
	if err != nil {
		return stac.Collections{}, err
	}

	limit := req.IntOr("limit", DefaultLimit)
	page := pageOf(matched, 0, limit)

	return stac.Collections{
		Collections: page,
		Links: []stac.Link{
			c.linker.Self("/collections", stac.MediaTypeJSON),
			c.linker.Root(),
		},
		Context: c.contextOf(len(page), limit, len(matched)),
	}, nil
}

// DiscoverySearch runs free-text collection discovery across all
// catalogs. An empty q matches everything.
func (c *Client) DiscoverySearch(ctx context.Context, req *schema.Request) (stac.Collections, error) {
	matched, err := c.collectionSearch(ctx, req)
	if err != nil {
		return stac.Collections{}, err
	}

	limit := req.IntOr("limit", DefaultLimit)
	page := pageOf(matched, 0, limit)

	return stac.Collections{
		Collections: page,
		Links: []stac.Link{
			c.linker.Self("/discovery-search", stac.MediaTypeJSON),
			c.linker.Root(),
		},
		Context: c.contextOf(len(page), limit, len(matched)),
	}, nil
}

// collectionSearch resolves the collections matching the request's
// free-text, bbox, and datetime parameters, ordered by catalog then
// collection id, with links attached.
func (c *Client) collectionSearch(ctx context.Context, req *schema.Request) ([]stac.Collection, error) {
	bbox, err := bboxParam(req)
	if err != nil {
		return nil, err
	}
	window, err := intervalParam(req)
	if err != nil {
		return nil, err
	}

	query := `SELECT catalog_id, id, document FROM collections`
	var args []any
	if q := strings.ToLower(strings.TrimSpace(req.String("q"))); q != "" {
		query += ` WHERE instr(lower(title), ?) > 0
			OR instr(lower(description), ?) > 0
			OR instr(lower(keywords), ?) > 0`
		args = append(args, q, q, q)
	}
	query += ` ORDER BY catalog_id, id`

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search collections: %w", err)
	}
	defer rows.Close()

	var matched []stac.Collection
	for rows.Next() {
		catID, col, err := scanCollection(rows)
		if err != nil {
			return nil, err
		}
		if len(bbox) == 4 && !extentIntersects(col.Extent.Spatial, bbox) {
			continue
		}
		if window != nil && !window.overlapsExtent(col.Extent.Temporal) {
			continue
		}
		col.Links = c.linker.Collection(catID, col.ID)
		matched = append(matched, col)
	}
	return matched, rows.Err()
}

// itemPredicates builds the WHERE clause for an item search from the
// request's parameters.
func itemPredicates(req *schema.Request, catalogID string) (string, []any, error) {
	var clauses []string
	var args []any

	if catalogID != "" {
		clauses = append(clauses, "catalog_id = ?")
		args = append(args, catalogID)
	}
	if collections := req.Strings("collections"); len(collections) > 0 {
		clauses = append(clauses, "collection_id IN ("+placeholders(len(collections))+")")
		for _, v := range collections {
			args = append(args, v)
		}
	}
	if ids := req.Strings("ids"); len(ids) > 0 {
		clauses = append(clauses, "id IN ("+placeholders(len(ids))+")")
		for _, v := range ids {
			args = append(args, v)
		}
	}

	bbox, err := bboxParam(req)
	if err != nil {
		return "", nil, err
	}
	if len(bbox) == 4 {
		// NULL extracted corners exclude the row, matching the rule
		// that items without a bbox never satisfy a spatial filter.
		clauses = append(clauses, "min_x <= ? AND max_x >= ? AND min_y <= ? AND max_y >= ?")
		args = append(args, bbox[2], bbox[0], bbox[3], bbox[1])
	}

	window, err := intervalParam(req)
	if err != nil {
		return "", nil, err
	}
	if window != nil {
		clauses = append(clauses, "datetime_unix IS NOT NULL")
		if window.start != nil {
			clauses = append(clauses, "datetime_unix >= ?")
			args = append(args, window.start.UnixMilli())
		}
		if window.end != nil {
			clauses = append(clauses, "datetime_unix <= ?")
			args = append(args, window.end.UnixMilli())
		}
	}

	if len(clauses) == 0 {
		return "", nil, nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// bboxParam reads and normalizes the bbox parameter: 4 or 6
// coordinates, 3D boxes flattened to their 2D corners.
func bboxParam(req *schema.Request) ([]float64, error) {
	bbox := req.Floats("bbox")
	switch len(bbox) {
	case 0:
		return nil, nil
	case 4:
		return bbox, nil
	case 6:
		return []float64{bbox[0], bbox[1], bbox[3], bbox[4]}, nil
	}
	return nil, &schema.ValidationError{Field: "bbox", Reason: "must have 4 or 6 coordinates"}
}

func bboxIntersects(a, b []float64) bool {
	if len(a) < 4 || len(b) < 4 {
		return false
	}
	return a[0] <= b[2] && b[0] <= a[2] && a[1] <= b[3] && b[1] <= a[3]
}

func extentIntersects(spatial stac.SpatialExtent, bbox []float64) bool {
	for _, extent := range spatial.BBox {
		if len(extent) == 6 {
			extent = []float64{extent[0], extent[1], extent[3], extent[4]}
		}
		if bboxIntersects(extent, bbox) {
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

// intervalParam reads the datetime parameter: a single instant or a
// "start/end" range where either side may be ".." or empty for open.
func intervalParam(req *schema.Request) (*interval, error) {
	if !req.Has("datetime") {
		return nil, nil
	}
	raw := req.String("datetime")

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

// overlapsExtent checks a collection's temporal extent against the
// window. Nil interval sides are open on both sides of the comparison.
func (w *interval) overlapsExtent(temporal stac.TemporalExtent) bool {
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

func pageOf[T any](all []T, offset, limit int) []T {
	if offset >= len(all) {
		return []T{}
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end]
}

func unmarshalItem(id, doc string) (stac.Item, error) {
	var item stac.Item
	if err := json.Unmarshal([]byte(doc), &item); err != nil {
		return stac.Item{}, fmt.Errorf("unmarshal item %q: %w", id, err)
	}
	return item, nil
}

// itemTiming extracts the sortable timestamp from an item's properties
// for the datetime_unix column; nil when absent or unparseable.
func itemTiming(item stac.Item) *int64 {
	raw, ok := item.Properties["datetime"].(string)
	if !ok {
		return nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil
	}
	ms := t.UnixMilli()
	return &ms
}
