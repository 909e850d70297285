package api

import (
	"fmt"

	"github.com/stacgate/stacgate/core/extension"
	"github.com/stacgate/stacgate/core/schema"
)

// Base request models for the core routes. Package-level so synthesis
// memoization holds across assemblies in one process.
var (
	emptyModel = schema.NewModel("EmptyRequest")

	catalogURIModel = schema.NewModel("CatalogUri",
		catalogIDField,
	)
	collectionURIModel = schema.NewModel("CollectionUri",
		catalogIDField,
		collectionIDField,
	)
	itemURIModel = schema.NewModel("ItemUri",
		catalogIDField,
		collectionIDField,
		itemIDField,
	)
	itemCollectionURIModel = schema.NewModel("ItemCollectionUri",
		catalogIDField,
		collectionIDField,
		limitField(schema.LocationQuery),
	)

	baseSearchGetModel = schema.NewModel("BaseSearchGetRequest",
		searchFields(schema.LocationQuery)...,
	)
	baseSearchPostModel = schema.NewModel("BaseSearchPostRequest",
		searchFields(schema.LocationBody)...,
	)
	baseCatalogSearchGetModel = schema.NewModel("BaseCatalogSearchGetRequest",
		append([]schema.Field{catalogIDField}, searchFields(schema.LocationQuery)...)...,
	)
	baseCatalogSearchPostModel = schema.NewModel("BaseCatalogSearchPostRequest",
		append([]schema.Field{catalogIDField}, searchFields(schema.LocationBody)...)...,
	)
)

var (
	catalogIDField = schema.Field{
		Name: "catalog_id", Type: schema.FieldTypeString, In: schema.LocationPath,
		Required: true, Doc: "Catalog identifier",
	}
	collectionIDField = schema.Field{
		Name: "collection_id", Type: schema.FieldTypeString, In: schema.LocationPath,
		Required: true, Doc: "Collection identifier",
	}
	itemIDField = schema.Field{
		Name: "item_id", Type: schema.FieldTypeString, In: schema.LocationPath,
		Required: true, Doc: "Item identifier",
	}
)

func limitField(in schema.Location) schema.Field {
	return schema.Field{
		Name: "limit", Type: schema.FieldTypeInt, In: in,
		Doc:         "Maximum number of results to return",
		Constraints: []schema.Constraint{schema.Min(1), schema.Max(10000)},
	}
}

// searchFields declares the base item-search parameters in their
// documented order, placed in the query string or the body depending
// on the request flavor.
func searchFields(in schema.Location) []schema.Field {
	return []schema.Field{
		{Name: "collections", Type: schema.FieldTypeStrings, In: in, Doc: "Collection identifiers to search"},
		{Name: "ids", Type: schema.FieldTypeStrings, In: in, Doc: "Item identifiers to return"},
		{Name: "bbox", Type: schema.FieldTypeFloats, In: in, Doc: "Bounding box filter: minx,miny,maxx,maxy"},
		{Name: "intersects", Type: schema.FieldTypeJSON, In: in, Doc: "GeoJSON geometry the results must intersect"},
		{Name: "datetime", Type: schema.FieldTypeString, In: in, Doc: "Single datetime or interval, RFC 3339"},
		limitField(in),
	}
}

// models holds the request models the core routes decode against, with
// extension mixins already merged in.
type models struct {
	empty             *schema.Model
	catalogURI        *schema.Model
	collectionURI     *schema.Model
	itemURI           *schema.Model
	itemCollection    *schema.Model
	searchGet         *schema.Model
	searchPost        *schema.Model
	catalogSearchGet  *schema.Model
	catalogSearchPost *schema.Model
	collections       *schema.Model
}

// buildModels synthesizes the per-deployment request models. A field
// conflict between extension mixins aborts assembly.
func buildModels(set *extension.Set) (models, error) {
	getMixins, postMixins := searchMixins(set)

	m := models{
		empty:         emptyModel,
		catalogURI:    catalogURIModel,
		collectionURI: collectionURIModel,
		itemURI:       itemURIModel,
		collections:   emptyModel,
	}

	var err error
	if m.searchGet, err = schema.Synthesize("SearchGetRequest", baseSearchGetModel, getMixins...); err != nil {
		return models{}, fmt.Errorf("search GET model: %w", err)
	}
	if m.searchPost, err = schema.Synthesize("SearchPostRequest", baseSearchPostModel, postMixins...); err != nil {
		return models{}, fmt.Errorf("search POST model: %w", err)
	}
	if m.catalogSearchGet, err = schema.Synthesize("CatalogSearchGetRequest", baseCatalogSearchGetModel, getMixins...); err != nil {
		return models{}, fmt.Errorf("catalog search GET model: %w", err)
	}
	if m.catalogSearchPost, err = schema.Synthesize("CatalogSearchPostRequest", baseCatalogSearchPostModel, postMixins...); err != nil {
		return models{}, fmt.Errorf("catalog search POST model: %w", err)
	}
	if m.itemCollection, err = schema.Synthesize("ItemCollectionRequest", itemCollectionURIModel, paginationMixin(set)); err != nil {
		return models{}, fmt.Errorf("item collection model: %w", err)
	}

	if mixin := collectionSearchMixin(set); mixin != nil {
		if m.collections, err = schema.Synthesize("CollectionsGetRequest", emptyModel, mixin); err != nil {
			return models{}, fmt.Errorf("collections model: %w", err)
		}
	}
	return m, nil
}

// searchMixins collects the GET and POST fragments every extension
// contributes to the item-search models. Collection search is scoped
// to the collections listing and stays out of item search.
func searchMixins(set *extension.Set) (get, post []*schema.Mixin) {
	for _, ext := range set.All() {
		if ext.Kind() == extension.CollectionSearch {
			continue
		}
		mp, ok := ext.(extension.MixinProvider)
		if !ok {
			continue
		}
		if mixin := mp.GetMixin(); mixin != nil {
			get = append(get, mixin)
		}
		if mixin := mp.PostMixin(); mixin != nil {
			post = append(post, mixin)
		}
	}
	return get, post
}

// paginationMixin returns the page-state fragment for the item listing
// route: token pagination when active, page-number pagination as the
// fallback, nil when neither is configured.
func paginationMixin(set *extension.Set) *schema.Mixin {
	for _, kind := range []extension.Kind{extension.TokenPagination, extension.Pagination} {
		if ext, ok := set.Lookup(kind); ok {
			if mp, ok := ext.(extension.MixinProvider); ok {
				if mixin := mp.GetMixin(); mixin != nil {
					return mixin
				}
			}
		}
	}
	return nil
}

func collectionSearchMixin(set *extension.Set) *schema.Mixin {
	ext, ok := set.Lookup(extension.CollectionSearch)
	if !ok {
		return nil
	}
	mp, ok := ext.(extension.MixinProvider)
	if !ok {
		return nil
	}
	return mp.GetMixin()
}
