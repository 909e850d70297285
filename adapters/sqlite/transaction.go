package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/stacgate/stacgate/core/schema"
	"github.com/stacgate/stacgate/pkg/stac"
	"github.com/stacgate/stacgate/ports"
)

// CreateItem stores a new item under the addressed collection. An item
// without an id gets a generated one; an existing id is a conflict.
func (c *Client) CreateItem(ctx context.Context, req *schema.Request) (stac.Item, error) {
	catalogID := req.String("catalog_id")
	collectionID := req.String("collection_id")

	var doc stac.Item
	if err := req.Unmarshal("item", &doc); err != nil {
		return stac.Item{}, err
	}

	if _, err := c.lookupCollection(ctx, catalogID, collectionID); err != nil {
		return stac.Item{}, err
	}
	if doc.ID == "" {
		if c.ids == nil {
			return stac.Item{}, &schema.ValidationError{Field: "item", Reason: "an id is required"}
		}
		doc.ID = c.ids.New()
	}
	if err := c.itemExists(ctx, catalogID, collectionID, doc.ID); err == nil {
		return stac.Item{}, fmt.Errorf("item %q in %s/%s: %w", doc.ID, catalogID, collectionID, ports.ErrConflict)
	} else if !errors.Is(err, ports.ErrNotFound) {
		return stac.Item{}, err
	}

	c.normalizeItem(&doc, collectionID)
	if err := c.writeItem(ctx, catalogID, collectionID, doc, false); err != nil {
		return stac.Item{}, err
	}

	doc.Links = c.linker.Item(catalogID, collectionID, doc.ID)
	return doc, nil
}

// UpdateItem replaces an existing item. The path id wins over any id
// in the document.
func (c *Client) UpdateItem(ctx context.Context, req *schema.Request) (stac.Item, error) {
	catalogID := req.String("catalog_id")
	collectionID := req.String("collection_id")
	itemID := req.String("item_id")

	var doc stac.Item
	if err := req.Unmarshal("item", &doc); err != nil {
		return stac.Item{}, err
	}

	if _, err := c.lookupCollection(ctx, catalogID, collectionID); err != nil {
		return stac.Item{}, err
	}
	if err := c.itemExists(ctx, catalogID, collectionID, itemID); err != nil {
		return stac.Item{}, err
	}

	doc.ID = itemID
	c.normalizeItem(&doc, collectionID)
	if err := c.writeItem(ctx, catalogID, collectionID, doc, true); err != nil {
		return stac.Item{}, err
	}

	doc.Links = c.linker.Item(catalogID, collectionID, itemID)
	return doc, nil
}

// DeleteItem removes an item.
func (c *Client) DeleteItem(ctx context.Context, req *schema.Request) error {
	catalogID := req.String("catalog_id")
	collectionID := req.String("collection_id")
	itemID := req.String("item_id")

	if _, err := c.lookupCollection(ctx, catalogID, collectionID); err != nil {
		return err
	}

	res, err := c.db.ExecContext(ctx, `
		DELETE FROM items WHERE catalog_id = ? AND collection_id = ? AND id = ?
	`, catalogID, collectionID, itemID)
	if err != nil {
		return fmt.Errorf("delete item %q: %w", itemID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("item %q in %s/%s: %w", itemID, catalogID, collectionID, ports.ErrNotFound)
	}
	return nil
}

// CreateCollection stores a new collection under the addressed catalog.
func (c *Client) CreateCollection(ctx context.Context, req *schema.Request) (stac.Collection, error) {
	catalogID := req.String("catalog_id")

	var doc stac.Collection
	if err := req.Unmarshal("collection", &doc); err != nil {
		return stac.Collection{}, err
	}
	if doc.ID == "" {
		return stac.Collection{}, &schema.ValidationError{Field: "collection", Reason: "an id is required"}
	}

	if err := c.catalogExists(ctx, catalogID); err != nil {
		return stac.Collection{}, err
	}
	if _, err := c.lookupCollection(ctx, catalogID, doc.ID); err == nil {
		return stac.Collection{}, fmt.Errorf("collection %q in catalog %q: %w", doc.ID, catalogID, ports.ErrConflict)
	} else if !errors.Is(err, ports.ErrNotFound) {
		return stac.Collection{}, err
	}

	c.normalizeCollection(&doc)
	if err := c.UpsertCollection(ctx, catalogID, doc); err != nil {
		return stac.Collection{}, err
	}

	doc.Links = c.linker.Collection(catalogID, doc.ID)
	return doc, nil
}

// UpdateCollection replaces an existing collection. The path id wins
// over any id in the document.
func (c *Client) UpdateCollection(ctx context.Context, req *schema.Request) (stac.Collection, error) {
	catalogID := req.String("catalog_id")
	collectionID := req.String("collection_id")

	var doc stac.Collection
	if err := req.Unmarshal("collection", &doc); err != nil {
		return stac.Collection{}, err
	}

	if _, err := c.lookupCollection(ctx, catalogID, collectionID); err != nil {
		return stac.Collection{}, err
	}

	doc.ID = collectionID
	c.normalizeCollection(&doc)
	if err := c.UpsertCollection(ctx, catalogID, doc); err != nil {
		return stac.Collection{}, err
	}

	doc.Links = c.linker.Collection(catalogID, collectionID)
	return doc, nil
}

// DeleteCollection removes a collection; its item rows cascade.
func (c *Client) DeleteCollection(ctx context.Context, req *schema.Request) error {
	catalogID := req.String("catalog_id")
	collectionID := req.String("collection_id")

	if _, err := c.lookupCollection(ctx, catalogID, collectionID); err != nil {
		return err
	}

	if _, err := c.db.ExecContext(ctx, `
		DELETE FROM collections WHERE catalog_id = ? AND id = ?
	`, catalogID, collectionID); err != nil {
		return fmt.Errorf("delete collection %s/%s: %w", catalogID, collectionID, err)
	}
	return nil
}

// Queryables describes the properties this client can filter on. The
// document is the same for every collection; a collection-scoped
// request still validates that the collection exists.
func (c *Client) Queryables(ctx context.Context, catalogID, collectionID string) (json.RawMessage, error) {
	id := c.binding.BaseURL + "/queryables"
	if collectionID != "" {
		if _, err := c.lookupCollection(ctx, catalogID, collectionID); err != nil {
			return nil, err
		}
		expanded, err := c.linker.Expand("/catalogs/{catalogId}/collections/{collectionId}/queryables",
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

// itemExists reports ports.ErrNotFound when the item row is absent.
func (c *Client) itemExists(ctx context.Context, catalogID, collectionID, itemID string) error {
	var one int
	err := c.db.QueryRowContext(ctx, `
		SELECT 1 FROM items WHERE catalog_id = ? AND collection_id = ? AND id = ?
	`, catalogID, collectionID, itemID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("item %q in %s/%s: %w", itemID, catalogID, collectionID, ports.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("check item %q: %w", itemID, err)
	}
	return nil
}

// writeItem marshals and upserts one item row with its extracted
// filter columns. replace selects upsert semantics; a plain insert
// surfaces constraint violations to the caller.
func (c *Client) writeItem(ctx context.Context, catalogID, collectionID string, item stac.Item, replace bool) error {
	doc, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("marshal item %q: %w", item.ID, err)
	}

	var minX, minY, maxX, maxY *float64
	if bbox := item.BBox; len(bbox) == 4 || len(bbox) == 6 {
		corners := bbox
		if len(bbox) == 6 {
			corners = []float64{bbox[0], bbox[1], bbox[3], bbox[4]}
		}
		minX, minY, maxX, maxY = &corners[0], &corners[1], &corners[2], &corners[3]
	}

	now := c.clock.Now().UTC()
	query := `
		INSERT INTO items (catalog_id, collection_id, id, datetime_unix,
			min_x, min_y, max_x, max_y, document, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if replace {
		query += `
		ON CONFLICT(catalog_id, collection_id, id) DO UPDATE SET
			datetime_unix = excluded.datetime_unix,
			min_x = excluded.min_x, min_y = excluded.min_y,
			max_x = excluded.max_x, max_y = excluded.max_y,
			document = excluded.document, updated_at = excluded.updated_at`
	}
	_, err = c.db.ExecContext(ctx, query,
		catalogID, collectionID, item.ID, itemTiming(item),
		minX, minY, maxX, maxY, string(doc), now, now)
	if err != nil {
		return fmt.Errorf("write item %s/%s/%s: %w", catalogID, collectionID, item.ID, err)
	}
	return nil
}

// normalizeItem fills the envelope fields a submitted document may
// omit. The addressed collection always wins.
func (c *Client) normalizeItem(doc *stac.Item, collectionID string) {
	if doc.Type == "" {
		doc.Type = stac.TypeFeature
	}
	if doc.STACVersion == "" {
		doc.STACVersion = c.binding.STACVersion
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

func (c *Client) normalizeCollection(doc *stac.Collection) {
	if doc.Type == "" {
		doc.Type = stac.TypeCollection
	}
	if doc.STACVersion == "" {
		doc.STACVersion = c.binding.STACVersion
	}
	doc.Links = nil
}
