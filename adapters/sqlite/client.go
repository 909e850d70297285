package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

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

// Client implements the suspending capability contracts over SQLite.
// Every operation takes a context and performs real I/O; the engine
// dispatches it identically to the in-memory direct client.
type Client struct {
	db      *DB
	binding ports.Binding
	linker  *stac.Linker
	ids     ports.IDGenerator
	clock   ports.Clock
}

var (
	_ ports.CoreClient        = (*Client)(nil)
	_ ports.TransactionClient = (*Client)(nil)
	_ ports.DiscoveryClient   = (*Client)(nil)
	_ ports.QueryablesClient  = (*Client)(nil)
)

// NewClient creates a client over an opened, migrated database. The id
// generator names items created without an id; the clock stamps rows.
func NewClient(db *DB, binding ports.Binding, ids ports.IDGenerator, clock ports.Clock) *Client {
	return &Client{
		db:      db,
		binding: binding,
		linker:  stac.NewLinker(binding.BaseURL),
		ids:     ids,
		clock:   clock,
	}
}

// UpsertCatalog writes a catalog row. Seeding helper; request-driven
// writes go through the transaction methods.
func (c *Client) UpsertCatalog(ctx context.Context, cat stac.Catalog) error {
	doc, err := json.Marshal(cat)
	if err != nil {
		return fmt.Errorf("marshal catalog %q: %w", cat.ID, err)
	}
	now := c.clock.Now().UTC()
	_, err = c.db.ExecContext(ctx, `
		INSERT INTO catalogs (id, title, document, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET title = excluded.title,
			document = excluded.document, updated_at = excluded.updated_at
	`, cat.ID, cat.Title, string(doc), now, now)
	if err != nil {
		return fmt.Errorf("upsert catalog %q: %w", cat.ID, err)
	}
	return nil
}

// UpsertCollection writes a collection row under a catalog.
func (c *Client) UpsertCollection(ctx context.Context, catalogID string, col stac.Collection) error {
	doc, err := json.Marshal(col)
	if err != nil {
		return fmt.Errorf("marshal collection %q: %w", col.ID, err)
	}
	now := c.clock.Now().UTC()
	_, err = c.db.ExecContext(ctx, `
		INSERT INTO collections (catalog_id, id, title, description, keywords, document, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(catalog_id, id) DO UPDATE SET title = excluded.title,
			description = excluded.description, keywords = excluded.keywords,
			document = excluded.document, updated_at = excluded.updated_at
	`, catalogID, col.ID, col.Title, col.Description, strings.Join(col.Keywords, " "), string(doc), now, now)
	if err != nil {
		return fmt.Errorf("upsert collection %s/%s: %w", catalogID, col.ID, err)
	}
	return nil
}

// UpsertItem writes an item row. The item's Collection field names the
// collection it is stored under.
func (c *Client) UpsertItem(ctx context.Context, catalogID string, item stac.Item) error {
	return c.writeItem(ctx, catalogID, item.Collection, item, true)
}

// LandingPage builds the root document with child links for every
// catalog, sorted by id for stable output.
func (c *Client) LandingPage(ctx context.Context, req *schema.Request) (stac.LandingPage, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT id, title FROM catalogs ORDER BY id`)
	if err != nil {
		return stac.LandingPage{}, fmt.Errorf("list catalogs: %w", err)
	}
	defer rows.Close()

	links := c.linker.Landing()
	for rows.Next() {
		var id, title string
		if err := rows.Scan(&id, &title); err != nil {
			return stac.LandingPage{}, fmt.Errorf("scan catalog: %w", err)
		}
		links = append(links, c.linker.Child(id, title))
	}
	if err := rows.Err(); err != nil {
		return stac.LandingPage{}, err
	}

	return stac.LandingPage{
		Type:        stac.TypeCatalog,
		ID:          landingID,
		STACVersion: c.binding.STACVersion,
		Title:       c.binding.Title,
		Description: c.binding.Description,
		ConformsTo:  conformance.Classes(c.binding.Extensions),
		Links:       links,
	}, nil
}

// Conformance reports the classes derived from the extension set.
func (c *Client) Conformance(ctx context.Context, req *schema.Request) (stac.Conformance, error) {
	return stac.Conformance{ConformsTo: conformance.Classes(c.binding.Extensions)}, nil
}

// AllCatalogs lists the top-level catalogs sorted by id.
func (c *Client) AllCatalogs(ctx context.Context, req *schema.Request) (stac.Catalogs, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT id, document FROM catalogs ORDER BY id`)
	if err != nil {
		return stac.Catalogs{}, fmt.Errorf("list catalogs: %w", err)
	}
	defer rows.Close()

	out := stac.Catalogs{
		Catalogs: []stac.Catalog{},
		Links: []stac.Link{
			c.linker.Self("/catalogs", stac.MediaTypeJSON),
			c.linker.Root(),
		},
	}
	for rows.Next() {
		cat, err := scanCatalog(rows)
		if err != nil {
			return stac.Catalogs{}, err
		}
		cat.Links = c.linker.Catalog(cat.ID)
		out.Catalogs = append(out.Catalogs, cat)
	}
	return out, rows.Err()
}

// GetCatalog returns one catalog by id.
func (c *Client) GetCatalog(ctx context.Context, req *schema.Request) (stac.Catalog, error) {
	catalogID := req.String("catalog_id")

	var doc string
	err := c.db.QueryRowContext(ctx,
		`SELECT document FROM catalogs WHERE id = ?`, catalogID).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return stac.Catalog{}, fmt.Errorf("catalog %q: %w", catalogID, ports.ErrNotFound)
	}
	if err != nil {
		return stac.Catalog{}, fmt.Errorf("get catalog %q: %w", catalogID, err)
	}

	var cat stac.Catalog
	if err := json.Unmarshal([]byte(doc), &cat); err != nil {
		return stac.Catalog{}, fmt.Errorf("unmarshal catalog %q: %w", catalogID, err)
	}
	cat.Links = c.linker.Catalog(catalogID)
	return cat, nil
}

// GetCollection returns one collection by catalog and collection id.
func (c *Client) GetCollection(ctx context.Context, req *schema.Request) (stac.Collection, error) {
	catalogID := req.String("catalog_id")
	collectionID := req.String("collection_id")

	col, err := c.lookupCollection(ctx, catalogID, collectionID)
	if err != nil {
		return stac.Collection{}, err
	}
	col.Links = c.linker.Collection(catalogID, collectionID)
	return col, nil
}

// CatalogCollections lists the collections of one catalog sorted by id.
func (c *Client) CatalogCollections(ctx context.Context, req *schema.Request) (stac.Collections, error) {
	catalogID := req.String("catalog_id")

	if err := c.catalogExists(ctx, catalogID); err != nil {
		return stac.Collections{}, err
	}

	rows, err := c.db.QueryContext(ctx,
		`SELECT catalog_id, id, document FROM collections WHERE catalog_id = ? ORDER BY id`, catalogID)
	if err != nil {
		return stac.Collections{}, fmt.Errorf("list collections of %q: %w", catalogID, err)
	}
	defer rows.Close()

	self, err := c.linker.Expand("/catalogs/{catalogId}/collections",
		map[string]interface{}{"catalogId": catalogID})
	if err != nil {
		return stac.Collections{}, err
	}
	out := stac.Collections{
		Collections: []stac.Collection{},
		Links: []stac.Link{
			{Rel: stac.RelSelf, Href: self, Type: stac.MediaTypeJSON},
			c.linker.Root(),
		},
	}
	for rows.Next() {
		catID, col, err := scanCollection(rows)
		if err != nil {
			return stac.Collections{}, err
		}
		col.Links = c.linker.Collection(catID, col.ID)
		out.Collections = append(out.Collections, col)
	}
	return out, rows.Err()
}

// GetItem returns one item by catalog, collection, and item id.
func (c *Client) GetItem(ctx context.Context, req *schema.Request) (stac.Item, error) {
	catalogID := req.String("catalog_id")
	collectionID := req.String("collection_id")
	itemID := req.String("item_id")

	if _, err := c.lookupCollection(ctx, catalogID, collectionID); err != nil {
		return stac.Item{}, err
	}

	var doc string
	err := c.db.QueryRowContext(ctx, `
		SELECT document FROM items
		WHERE catalog_id = ? AND collection_id = ? AND id = ?
	`, catalogID, collectionID, itemID).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return stac.Item{}, fmt.Errorf("item %q in %s/%s: %w", itemID, catalogID, collectionID, ports.ErrNotFound)
	}
	if err != nil {
		return stac.Item{}, fmt.Errorf("get item %q: %w", itemID, err)
	}

	var item stac.Item
	if err := json.Unmarshal([]byte(doc), &item); err != nil {
		return stac.Item{}, fmt.Errorf("unmarshal item %q: %w", itemID, err)
	}
	item.Links = c.linker.Item(catalogID, collectionID, itemID)
	return item, nil
}

// catalogExists resolves a catalog id or reports not-found.
func (c *Client) catalogExists(ctx context.Context, catalogID string) error {
	var one int
	err := c.db.QueryRowContext(ctx,
		`SELECT 1 FROM catalogs WHERE id = ?`, catalogID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("catalog %q: %w", catalogID, ports.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("check catalog %q: %w", catalogID, err)
	}
	return nil
}

// lookupCollection resolves a collection or reports which level of the
// hierarchy is missing.
func (c *Client) lookupCollection(ctx context.Context, catalogID, collectionID string) (stac.Collection, error) {
	if err := c.catalogExists(ctx, catalogID); err != nil {
		return stac.Collection{}, err
	}

	var doc string
	err := c.db.QueryRowContext(ctx, `
		SELECT document FROM collections WHERE catalog_id = ? AND id = ?
	`, catalogID, collectionID).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return stac.Collection{}, fmt.Errorf("collection %q in catalog %q: %w", collectionID, catalogID, ports.ErrNotFound)
	}
	if err != nil {
		return stac.Collection{}, fmt.Errorf("get collection %s/%s: %w", catalogID, collectionID, err)
	}

	var col stac.Collection
	if err := json.Unmarshal([]byte(doc), &col); err != nil {
		return stac.Collection{}, fmt.Errorf("unmarshal collection %q: %w", collectionID, err)
	}
	return col, nil
}

// contextOf builds result-set metadata when the context capability is
// active, nil otherwise so the field marshals away.
func (c *Client) contextOf(returned, limit, matched int) *stac.Context {
	if c.binding.Extensions == nil || !c.binding.Extensions.Has(extension.Context) {
		return nil
	}
	m := matched
	return &stac.Context{Returned: returned, Limit: limit, Matched: &m}
}

func scanCatalog(rows *sql.Rows) (stac.Catalog, error) {
	var id, doc string
	if err := rows.Scan(&id, &doc); err != nil {
		return stac.Catalog{}, fmt.Errorf("scan catalog: %w", err)
	}
	var cat stac.Catalog
	if err := json.Unmarshal([]byte(doc), &cat); err != nil {
		return stac.Catalog{}, fmt.Errorf("unmarshal catalog %q: %w", id, err)
	}
	return cat, nil
}

func scanCollection(rows *sql.Rows) (string, stac.Collection, error) {
	var catID, id, doc string
	if err := rows.Scan(&catID, &id, &doc); err != nil {
		return "", stac.Collection{}, fmt.Errorf("scan collection: %w", err)
	}
	var col stac.Collection
	if err := json.Unmarshal([]byte(doc), &col); err != nil {
		return "", stac.Collection{}, fmt.Errorf("unmarshal collection %q: %w", id, err)
	}
	return catID, col, nil
}
