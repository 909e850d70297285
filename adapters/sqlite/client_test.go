package sqlite_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stacgate/stacgate/adapters/clock"
	"github.com/stacgate/stacgate/adapters/idgen"
	"github.com/stacgate/stacgate/adapters/sqlite"
	"github.com/stacgate/stacgate/core/extension"
	"github.com/stacgate/stacgate/core/schema"
	"github.com/stacgate/stacgate/extensions"
	"github.com/stacgate/stacgate/pkg/stac"
	"github.com/stacgate/stacgate/ports"
)

func setupTestDB(t *testing.T) *sqlite.DB {
	t.Helper()

	f, err := os.CreateTemp("", "stacgate-test-*.db")
	if err != nil {
		t.Fatalf("create temp file: %v", err)
	}
	path := f.Name()
	f.Close()

	db, err := sqlite.Open(path)
	if err != nil {
		os.Remove(path)
		t.Fatalf("open database: %v", err)
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		os.Remove(path)
		t.Fatalf("migrate: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
		os.Remove(path)
	})
	return db
}

func str(s string) *string { return &s }

// newTestClient seeds two catalogs, three collections, and four items,
// the same fixture the in-memory client tests use, so the suspending
// variant can be checked against identical expectations.
func newTestClient(t *testing.T, exts ...extension.Extension) *sqlite.Client {
	t.Helper()

	binding := ports.Binding{
		Title:       "Test Catalog",
		Description: "sqlite client test deployment",
		APIVersion:  "0.1.0",
		STACVersion: stac.Version,
		BaseURL:     "http://cat.test",
		Extensions:  extension.NewSet(exts...),
	}
	c := sqlite.NewClient(setupTestDB(t), binding, idgen.NewSequential("generated-"),
		clock.NewFake(time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC)))

	ctx := context.Background()
	seed := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	seed(c.UpsertCatalog(ctx, stac.Catalog{Type: stac.TypeCatalog, ID: "eo", STACVersion: stac.Version,
		Title: "Earth observation", Description: "Optical and radar imagery"}))
	seed(c.UpsertCatalog(ctx, stac.Catalog{Type: stac.TypeCatalog, ID: "weather", STACVersion: stac.Version,
		Title: "Weather", Description: "Atmospheric datasets"}))

	seed(c.UpsertCollection(ctx, "eo", stac.Collection{
		Type: stac.TypeCollection, ID: "sentinel-2-l2a", STACVersion: stac.Version,
		Title: "Sentinel-2 Level 2A", Description: "Surface reflectance", License: "proprietary",
		Keywords: []string{"optical", "esa"},
		Extent: stac.Extent{
			Spatial:  stac.SpatialExtent{BBox: [][]float64{{-180, -90, 180, 90}}},
			Temporal: stac.TemporalExtent{Interval: [][]*string{{str("2015-06-23T00:00:00Z"), nil}}},
		},
	}))
	seed(c.UpsertCollection(ctx, "eo", stac.Collection{
		Type: stac.TypeCollection, ID: "landsat-8", STACVersion: stac.Version,
		Title: "Landsat 8", Description: "USGS Landsat archive", License: "PDDL-1.0",
		Keywords: []string{"optical", "usgs"},
		Extent: stac.Extent{
			Spatial:  stac.SpatialExtent{BBox: [][]float64{{-180, -90, 180, 90}}},
			Temporal: stac.TemporalExtent{Interval: [][]*string{{str("2013-02-11T00:00:00Z"), nil}}},
		},
	}))
	seed(c.UpsertCollection(ctx, "weather", stac.Collection{
		Type: stac.TypeCollection, ID: "era5", STACVersion: stac.Version,
		Title: "ERA5 Reanalysis", Description: "Hourly climate reanalysis", License: "CC-BY-4.0",
		Keywords: []string{"reanalysis", "climate"},
		Extent: stac.Extent{
			Spatial:  stac.SpatialExtent{BBox: [][]float64{{-10, 35, 30, 60}}},
			Temporal: stac.TemporalExtent{Interval: [][]*string{{str("1979-01-01T00:00:00Z"), str("2024-01-01T00:00:00Z")}}},
		},
	}))

	seedItem := func(catalogID, collectionID, itemID, datetime string, bbox []float64) {
		seed(c.UpsertItem(ctx, catalogID, stac.Item{
			Type: stac.TypeFeature, ID: itemID, STACVersion: stac.Version,
			Collection: collectionID, BBox: bbox,
			Properties: map[string]any{"datetime": datetime},
			Assets:     map[string]stac.Asset{},
		}))
	}
	seedItem("eo", "sentinel-2-l2a", "S2A_001", "2024-03-01T10:00:00Z", []float64{7, 46, 8, 47})
	seedItem("eo", "sentinel-2-l2a", "S2B_002", "2024-06-15T10:20:00Z", []float64{10, 50, 11, 51})
	seedItem("eo", "landsat-8", "L8_001", "2023-11-20T18:30:00Z", []float64{-120, 34, -119, 35})
	seedItem("weather", "era5", "E5_001", "2020-01-01T00:00:00Z", []float64{-10, 35, 30, 60})
	return c
}

var (
	testEmptyModel = schema.NewModel("TestEmpty")

	testCatalogModel = schema.NewModel("TestCatalogUri",
		schema.Field{Name: "catalog_id", Type: schema.FieldTypeString, In: schema.LocationPath, Required: true},
	)
	testItemModel = schema.NewModel("TestItemUri",
		schema.Field{Name: "catalog_id", Type: schema.FieldTypeString, In: schema.LocationPath, Required: true},
		schema.Field{Name: "collection_id", Type: schema.FieldTypeString, In: schema.LocationPath, Required: true},
		schema.Field{Name: "item_id", Type: schema.FieldTypeString, In: schema.LocationPath, Required: true},
	)
	testItemsModel = schema.NewModel("TestItemsUri",
		schema.Field{Name: "catalog_id", Type: schema.FieldTypeString, In: schema.LocationPath, Required: true},
		schema.Field{Name: "collection_id", Type: schema.FieldTypeString, In: schema.LocationPath, Required: true},
		schema.Field{Name: "limit", Type: schema.FieldTypeInt},
		schema.Field{Name: "token", Type: schema.FieldTypeString},
	)
	testSearchModel = schema.NewModel("TestSearch",
		schema.Field{Name: "catalog_id", Type: schema.FieldTypeString, In: schema.LocationPath},
		schema.Field{Name: "collections", Type: schema.FieldTypeStrings},
		schema.Field{Name: "ids", Type: schema.FieldTypeStrings},
		schema.Field{Name: "bbox", Type: schema.FieldTypeFloats},
		schema.Field{Name: "datetime", Type: schema.FieldTypeString},
		schema.Field{Name: "limit", Type: schema.FieldTypeInt},
		schema.Field{Name: "token", Type: schema.FieldTypeString},
	)
	testCollectionsModel = schema.NewModel("TestCollections",
		schema.Field{Name: "q", Type: schema.FieldTypeString},
		schema.Field{Name: "bbox", Type: schema.FieldTypeFloats},
		schema.Field{Name: "datetime", Type: schema.FieldTypeString},
		schema.Field{Name: "limit", Type: schema.FieldTypeInt},
	)
	testItemBodyModel = schema.NewModel("TestItemBody",
		schema.Field{Name: "catalog_id", Type: schema.FieldTypeString, In: schema.LocationPath, Required: true},
		schema.Field{Name: "collection_id", Type: schema.FieldTypeString, In: schema.LocationPath, Required: true},
		schema.Field{Name: "item", Type: schema.FieldTypeJSON, In: schema.LocationDocument, Required: true},
	)
)

func decodeReq(t *testing.T, model *schema.Model, target string, path map[string]string) *schema.Request {
	t.Helper()
	r := httptest.NewRequest(http.MethodGet, target, nil)
	req, err := model.Decode(r, func(name string) string { return path[name] })
	if err != nil {
		t.Fatalf("Decode(%s) error = %v", target, err)
	}
	return req
}

func documentReq(t *testing.T, model *schema.Model, path map[string]string, body string) *schema.Request {
	t.Helper()
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req, err := model.Decode(r, func(name string) string { return path[name] })
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	return req
}

func TestLandingPageChildren(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	doc, err := c.LandingPage(ctx, decodeReq(t, testEmptyModel, "/", nil))
	if err != nil {
		t.Fatalf("LandingPage() error = %v", err)
	}
	if doc.Title != "Test Catalog" || len(doc.ConformsTo) == 0 {
		t.Errorf("landing title %q conformsTo %d", doc.Title, len(doc.ConformsTo))
	}

	var children []string
	for _, link := range doc.Links {
		if link.Rel == stac.RelChild {
			children = append(children, link.Href)
		}
	}
	if len(children) != 2 || !strings.HasSuffix(children[0], "/catalogs/eo") {
		t.Errorf("child links = %v", children)
	}
}

func TestGetCatalogAndCollection(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	cat, err := c.GetCatalog(ctx, decodeReq(t, testCatalogModel, "/", map[string]string{"catalog_id": "eo"}))
	if err != nil {
		t.Fatalf("GetCatalog() error = %v", err)
	}
	if cat.ID != "eo" || cat.Title != "Earth observation" {
		t.Errorf("catalog = %s %q", cat.ID, cat.Title)
	}

	if _, err := c.GetCatalog(ctx, decodeReq(t, testCatalogModel, "/", map[string]string{"catalog_id": "nope"})); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("GetCatalog(nope) error = %v, want ErrNotFound", err)
	}

	cols, err := c.CatalogCollections(ctx, decodeReq(t, testCatalogModel, "/", map[string]string{"catalog_id": "eo"}))
	if err != nil {
		t.Fatalf("CatalogCollections() error = %v", err)
	}
	if len(cols.Collections) != 2 || cols.Collections[0].ID != "landsat-8" {
		t.Errorf("collections = %+v", cols.Collections)
	}
}

func TestGetItemLinks(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	item, err := c.GetItem(ctx, decodeReq(t, testItemModel, "/",
		map[string]string{"catalog_id": "eo", "collection_id": "sentinel-2-l2a", "item_id": "S2A_001"}))
	if err != nil {
		t.Fatalf("GetItem() error = %v", err)
	}
	var self string
	for _, link := range item.Links {
		if link.Rel == stac.RelSelf {
			self = link.Href
		}
	}
	if self != "http://cat.test/catalogs/eo/collections/sentinel-2-l2a/items/S2A_001" {
		t.Errorf("self link = %q", self)
	}

	_, err = c.GetItem(ctx, decodeReq(t, testItemModel, "/",
		map[string]string{"catalog_id": "eo", "collection_id": "sentinel-2-l2a", "item_id": "missing"}))
	if !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("GetItem(missing) error = %v, want ErrNotFound", err)
	}
}

func TestSearchFilters(t *testing.T) {
	c := newTestClient(t, extensions.Context{})
	ctx := context.Background()

	tests := []struct {
		name   string
		target string
		want   []string
	}{
		{"all", "/search", []string{"S2A_001", "S2B_002", "L8_001", "E5_001"}},
		{"by collection", "/search?collections=sentinel-2-l2a", []string{"S2A_001", "S2B_002"}},
		{"by ids", "/search?ids=L8_001,E5_001", []string{"L8_001", "E5_001"}},
		{"by bbox", "/search?bbox=5,45,9,48", []string{"S2A_001"}},
		{"by datetime window", "/search?datetime=2024-01-01T00:00:00Z/2024-04-01T00:00:00Z", []string{"S2A_001"}},
		{"open-ended window", "/search?datetime=2024-01-01T00:00:00Z/..", []string{"S2A_001", "S2B_002"}},
		{"no match", "/search?ids=nothing", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.GetGlobalSearch(ctx, decodeReq(t, testSearchModel, tt.target, nil))
			if err != nil {
				t.Fatalf("GetGlobalSearch() error = %v", err)
			}
			ids := make(map[string]bool, len(got.Features))
			for _, f := range got.Features {
				ids[f.ID] = true
			}
			if len(got.Features) != len(tt.want) {
				t.Fatalf("returned %d items, want %d (%v)", len(got.Features), len(tt.want), ids)
			}
			for _, id := range tt.want {
				if !ids[id] {
					t.Errorf("missing item %s in %v", id, ids)
				}
			}
		})
	}
}

func TestSearchScopedToCatalog(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	got, err := c.GetSearch(ctx, decodeReq(t, testSearchModel, "/search",
		map[string]string{"catalog_id": "weather"}))
	if err != nil {
		t.Fatalf("GetSearch() error = %v", err)
	}
	if len(got.Features) != 1 || got.Features[0].ID != "E5_001" {
		t.Errorf("features = %+v", got.Features)
	}

	_, err = c.GetSearch(ctx, decodeReq(t, testSearchModel, "/search",
		map[string]string{"catalog_id": "nope"}))
	if !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("GetSearch(nope) error = %v, want ErrNotFound", err)
	}
}

func TestSearchBadParameters(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	var verr *schema.ValidationError
	if _, err := c.GetGlobalSearch(ctx, decodeReq(t, testSearchModel, "/search?bbox=1,2,3", nil)); !errors.As(err, &verr) {
		t.Errorf("three-coordinate bbox error = %v, want ValidationError", err)
	}
	if _, err := c.GetGlobalSearch(ctx, decodeReq(t, testSearchModel, "/search?datetime=yesterday", nil)); !errors.As(err, &verr) {
		t.Errorf("malformed datetime error = %v, want ValidationError", err)
	}
}

func TestItemCollectionPaging(t *testing.T) {
	c := newTestClient(t, extensions.Context{}, extensions.TokenPagination{})
	ctx := context.Background()

	page, err := c.ItemCollection(ctx, decodeReq(t, testItemsModel, "/items?limit=1",
		map[string]string{"catalog_id": "eo", "collection_id": "sentinel-2-l2a"}))
	if err != nil {
		t.Fatalf("ItemCollection() error = %v", err)
	}
	if len(page.Features) != 1 || page.Features[0].ID != "S2A_001" {
		t.Fatalf("first page = %+v", page.Features)
	}
	if page.Context == nil || *page.Context.Matched != 2 {
		t.Errorf("context = %+v", page.Context)
	}

	var next string
	for _, link := range page.Links {
		if link.Rel == stac.RelNext {
			next = link.Href
		}
	}
	if !strings.Contains(next, "token=1") {
		t.Fatalf("next link = %q", next)
	}

	second, err := c.ItemCollection(ctx, decodeReq(t, testItemsModel, "/items?limit=1&token=1",
		map[string]string{"catalog_id": "eo", "collection_id": "sentinel-2-l2a"}))
	if err != nil {
		t.Fatalf("ItemCollection(token) error = %v", err)
	}
	if len(second.Features) != 1 || second.Features[0].ID != "S2B_002" {
		t.Errorf("second page = %+v", second.Features)
	}
}

func TestAllCollectionsSearch(t *testing.T) {
	c := newTestClient(t, extensions.Context{}, extensions.CollectionSearch{})
	ctx := context.Background()

	all, err := c.AllCollections(ctx, decodeReq(t, testCollectionsModel, "/collections", nil))
	if err != nil {
		t.Fatalf("AllCollections() error = %v", err)
	}
	if len(all.Collections) != 3 {
		t.Fatalf("len(collections) = %d, want 3", len(all.Collections))
	}

	optical, err := c.AllCollections(ctx, decodeReq(t, testCollectionsModel, "/collections?q=optical", nil))
	if err != nil {
		t.Fatalf("AllCollections(q) error = %v", err)
	}
	if len(optical.Collections) != 2 {
		t.Errorf("q=optical matched %d collections", len(optical.Collections))
	}

	europe, err := c.AllCollections(ctx, decodeReq(t, testCollectionsModel,
		"/collections?q=reanalysis&bbox=0,40,20,55", nil))
	if err != nil {
		t.Fatalf("AllCollections(bbox) error = %v", err)
	}
	if len(europe.Collections) != 1 || europe.Collections[0].ID != "era5" {
		t.Errorf("collections = %+v", europe.Collections)
	}
}

func TestDiscoverySearch(t *testing.T) {
	c := newTestClient(t, &extensions.DiscoverySearch{})
	ctx := context.Background()

	got, err := c.DiscoverySearch(ctx, decodeReq(t, testCollectionsModel, "/discovery-search?q=landsat", nil))
	if err != nil {
		t.Fatalf("DiscoverySearch() error = %v", err)
	}
	if len(got.Collections) != 1 || got.Collections[0].ID != "landsat-8" {
		t.Errorf("collections = %+v", got.Collections)
	}
}

func TestTransactionLifecycle(t *testing.T) {
	c := newTestClient(t, &extensions.Transaction{})
	ctx := context.Background()
	path := map[string]string{"catalog_id": "eo", "collection_id": "landsat-8"}

	created, err := c.CreateItem(ctx, documentReq(t, testItemBodyModel, path,
		`{"id": "L8_new", "properties": {"datetime": "2024-05-05T00:00:00Z"}, "bbox": [1, 2, 3, 4]}`))
	if err != nil {
		t.Fatalf("CreateItem() error = %v", err)
	}
	if created.Type != stac.TypeFeature || created.Collection != "landsat-8" {
		t.Errorf("created = %+v", created)
	}

	_, err = c.CreateItem(ctx, documentReq(t, testItemBodyModel, path, `{"id": "L8_new"}`))
	if !errors.Is(err, ports.ErrConflict) {
		t.Fatalf("duplicate CreateItem error = %v, want ErrConflict", err)
	}

	generated, err := c.CreateItem(ctx, documentReq(t, testItemBodyModel, path, `{}`))
	if err != nil {
		t.Fatalf("CreateItem(no id) error = %v", err)
	}
	if !strings.HasPrefix(generated.ID, "generated-") {
		t.Errorf("generated id = %q", generated.ID)
	}

	itemPath := map[string]string{"catalog_id": "eo", "collection_id": "landsat-8", "item_id": "L8_new"}
	updated, err := c.UpdateItem(ctx, documentReq(t,
		schema.NewModel("TestItemUpdate",
			schema.Field{Name: "catalog_id", Type: schema.FieldTypeString, In: schema.LocationPath, Required: true},
			schema.Field{Name: "collection_id", Type: schema.FieldTypeString, In: schema.LocationPath, Required: true},
			schema.Field{Name: "item_id", Type: schema.FieldTypeString, In: schema.LocationPath, Required: true},
			schema.Field{Name: "item", Type: schema.FieldTypeJSON, In: schema.LocationDocument, Required: true},
		), itemPath, `{"id": "ignored", "properties": {"datetime": "2024-06-06T00:00:00Z"}}`))
	if err != nil {
		t.Fatalf("UpdateItem() error = %v", err)
	}
	if updated.ID != "L8_new" {
		t.Errorf("updated id = %q, path must win", updated.ID)
	}

	if err := c.DeleteItem(ctx, decodeReq(t, testItemModel, "/", itemPath)); err != nil {
		t.Fatalf("DeleteItem() error = %v", err)
	}
	if err := c.DeleteItem(ctx, decodeReq(t, testItemModel, "/", itemPath)); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("second DeleteItem error = %v, want ErrNotFound", err)
	}
}

func TestCollectionTransactions(t *testing.T) {
	c := newTestClient(t, &extensions.Transaction{})
	ctx := context.Background()

	model := schema.NewModel("TestCollectionBody",
		schema.Field{Name: "catalog_id", Type: schema.FieldTypeString, In: schema.LocationPath, Required: true},
		schema.Field{Name: "collection", Type: schema.FieldTypeJSON, In: schema.LocationDocument, Required: true},
	)
	path := map[string]string{"catalog_id": "weather"}

	created, err := c.CreateCollection(ctx, documentReq(t, model, path,
		`{"id": "gfs", "description": "Global forecast system", "license": "public-domain"}`))
	if err != nil {
		t.Fatalf("CreateCollection() error = %v", err)
	}
	if created.Type != stac.TypeCollection || created.STACVersion != stac.Version {
		t.Errorf("created = %+v", created)
	}

	_, err = c.CreateCollection(ctx, documentReq(t, model, path, `{"id": "gfs"}`))
	if !errors.Is(err, ports.ErrConflict) {
		t.Fatalf("duplicate CreateCollection error = %v, want ErrConflict", err)
	}

	// Deleting the collection cascades to its items.
	itemModel := testItemBodyModel
	itemPath := map[string]string{"catalog_id": "weather", "collection_id": "gfs"}
	if _, err := c.CreateItem(ctx, documentReq(t, itemModel, itemPath, `{"id": "gfs-run-1"}`)); err != nil {
		t.Fatalf("CreateItem() error = %v", err)
	}

	delModel := schema.NewModel("TestCollectionDelete",
		schema.Field{Name: "catalog_id", Type: schema.FieldTypeString, In: schema.LocationPath, Required: true},
		schema.Field{Name: "collection_id", Type: schema.FieldTypeString, In: schema.LocationPath, Required: true},
	)
	if err := c.DeleteCollection(ctx, decodeReq(t, delModel, "/",
		map[string]string{"catalog_id": "weather", "collection_id": "gfs"})); err != nil {
		t.Fatalf("DeleteCollection() error = %v", err)
	}
	_, err = c.ItemCollection(ctx, decodeReq(t, testItemsModel, "/items",
		map[string]string{"catalog_id": "weather", "collection_id": "gfs"}))
	if !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("ItemCollection(deleted) error = %v, want ErrNotFound", err)
	}
}

func TestQueryablesScope(t *testing.T) {
	c := newTestClient(t, &extensions.Filter{})
	ctx := context.Background()

	raw, err := c.Queryables(ctx, "", "")
	if err != nil {
		t.Fatalf("Queryables() error = %v", err)
	}
	if !strings.Contains(string(raw), `"datetime"`) {
		t.Errorf("queryables = %s", raw)
	}

	if _, err := c.Queryables(ctx, "eo", "missing"); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("Queryables(missing) error = %v, want ErrNotFound", err)
	}
}
