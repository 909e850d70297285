package extensions

import (
	"github.com/stacgate/stacgate/core/extension"
	"github.com/stacgate/stacgate/core/schema"
)

// CollectionSearch makes the collections listing queryable: bounding
// box, time interval, free text, and a result limit. Its mixin applies
// to GET /collections only, and because result shaping depends on the
// query, that route's declared response schema opens up.
type CollectionSearch struct{}

var (
	collectionSearchGetMixin = &schema.Mixin{Name: "CollectionSearchExtension", Fields: []schema.Field{
		{Name: "bbox", Type: schema.FieldTypeFloats, Doc: "Bounding box filter: minx,miny,maxx,maxy"},
		{Name: "datetime", Type: schema.FieldTypeString, Doc: "Single datetime or interval, RFC 3339"},
		{Name: "q", Type: schema.FieldTypeString, Doc: "Free-text search terms"},
		{Name: "limit", Type: schema.FieldTypeInt, Doc: "Maximum number of collections to return",
			Constraints: []schema.Constraint{schema.Min(1), schema.Max(10000)}},
	}}
	collectionSearchPostMixin = &schema.Mixin{Name: "CollectionSearchExtension", Fields: []schema.Field{
		{Name: "bbox", Type: schema.FieldTypeFloats, In: schema.LocationBody, Doc: "Bounding box filter: minx,miny,maxx,maxy"},
		{Name: "datetime", Type: schema.FieldTypeString, In: schema.LocationBody, Doc: "Single datetime or interval, RFC 3339"},
		{Name: "q", Type: schema.FieldTypeString, In: schema.LocationBody, Doc: "Free-text search terms"},
		{Name: "limit", Type: schema.FieldTypeInt, In: schema.LocationBody, Doc: "Maximum number of collections to return",
			Constraints: []schema.Constraint{schema.Min(1), schema.Max(10000)}},
	}}
)

func (CollectionSearch) Kind() extension.Kind { return extension.CollectionSearch }

func (CollectionSearch) ConformanceURIs() []string {
	return []string{"https://api.stacspec.org/v1.0.0-rc.1/collection-search"}
}

func (CollectionSearch) GetMixin() *schema.Mixin  { return collectionSearchGetMixin }
func (CollectionSearch) PostMixin() *schema.Mixin { return collectionSearchPostMixin }
