package extensions

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/stacgate/stacgate/api"
	"github.com/stacgate/stacgate/core/dispatch"
	"github.com/stacgate/stacgate/core/extension"
	"github.com/stacgate/stacgate/core/registry"
	"github.com/stacgate/stacgate/core/schema"
	"github.com/stacgate/stacgate/ports"
)

// Filter enables CQL2 filtering on search requests and registers the
// queryables routes describing which properties a deployment can
// filter on.
type Filter struct {
	client ports.QueryablesClient
}

// NewFilter builds the extension. A nil client serves a permissive
// default queryables document.
func NewFilter(client ports.QueryablesClient) *Filter {
	if client == nil {
		client = defaultQueryables{}
	}
	return &Filter{client: client}
}

var (
	filterGetMixin = &schema.Mixin{Name: "FilterExtension", Fields: []schema.Field{
		{Name: "filter", Type: schema.FieldTypeString, Doc: "CQL2 filter expression"},
		{Name: "filter-lang", Type: schema.FieldTypeString, Doc: "Filter expression language",
			Enum: []string{"cql2-text", "cql2-json"}},
		{Name: "filter-crs", Type: schema.FieldTypeString, Doc: "Coordinate reference system of filter geometries"},
	}}
	filterPostMixin = &schema.Mixin{Name: "FilterExtension", Fields: []schema.Field{
		{Name: "filter", Type: schema.FieldTypeJSON, In: schema.LocationBody, Doc: "CQL2 filter expression"},
		{Name: "filter-lang", Type: schema.FieldTypeString, In: schema.LocationBody, Doc: "Filter expression language",
			Enum: []string{"cql2-text", "cql2-json"}},
		{Name: "filter-crs", Type: schema.FieldTypeString, In: schema.LocationBody, Doc: "Coordinate reference system of filter geometries"},
	}}

	queryablesModel = schema.NewModel("QueryablesRequest")

	collectionQueryablesModel = schema.NewModel("CollectionQueryablesRequest",
		pathField("catalog_id", "Catalog identifier"),
		pathField("collection_id", "Collection identifier"),
	)
)

func (*Filter) Kind() extension.Kind { return extension.Filter }

func (*Filter) ConformanceURIs() []string {
	return []string{
		"http://www.opengis.net/spec/ogcapi-features-3/1.0/conf/filter",
		"http://www.opengis.net/spec/cql2/1.0/conf/basic-cql2",
		"http://www.opengis.net/spec/cql2/1.0/conf/cql2-text",
		"http://www.opengis.net/spec/cql2/1.0/conf/cql2-json",
		"https://api.stacspec.org/v1.0.0/item-search#filter",
	}
}

func (*Filter) GetMixin() *schema.Mixin  { return filterGetMixin }
func (*Filter) PostMixin() *schema.Mixin { return filterPostMixin }

// Register adds the queryables routes. Queryables documents are JSON
// Schema, served under their own media type.
func (f *Filter) Register(a *api.API) error {
	const mediaTypeJSONSchema = "application/schema+json"

	serve := dispatch.Suspending(func(ctx context.Context, req *schema.Request) (json.RawMessage, error) {
		return f.client.Queryables(ctx, req.String("catalog_id"), req.String("collection_id"))
	})

	routes := []registry.Route{
		{
			Name:         "Queryables",
			Path:         "/queryables",
			Methods:      []string{http.MethodGet},
			RequestModel: queryablesModel,
			Handler:      api.Endpoint(a, serve, queryablesModel, http.StatusOK, mediaTypeJSONSchema),
		},
		{
			Name:         "CollectionQueryables",
			Path:         "/catalogs/{catalog_id}/collections/{collection_id}/queryables",
			Methods:      []string{http.MethodGet},
			RequestModel: collectionQueryablesModel,
			Handler:      api.Endpoint(a, serve, collectionQueryablesModel, http.StatusOK, mediaTypeJSONSchema),
		},
	}
	for _, rt := range routes {
		if err := a.AddRoute(rt); err != nil {
			return err
		}
	}
	return nil
}

// defaultQueryables permits filtering on any property without naming
// specific ones.
type defaultQueryables struct{}

func (defaultQueryables) Queryables(ctx context.Context, catalogID, collectionID string) (json.RawMessage, error) {
	return json.RawMessage(`{
  "$schema": "https://json-schema.org/draft/2019-09/schema",
  "type": "object",
  "title": "Queryables",
  "properties": {},
  "additionalProperties": true
}`), nil
}
