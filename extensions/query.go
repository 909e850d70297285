package extensions

import (
	"github.com/stacgate/stacgate/core/extension"
	"github.com/stacgate/stacgate/core/schema"
)

// Query enables property comparison operators on search requests. GET
// requests carry the expression JSON-encoded in a query parameter;
// POST requests carry it as a body property. Evaluation is the
// client's business.
type Query struct{}

var (
	queryGetMixin = &schema.Mixin{Name: "QueryExtension", Fields: []schema.Field{
		{Name: "query", Type: schema.FieldTypeString, Doc: "JSON-encoded property comparison expression"},
	}}
	queryPostMixin = &schema.Mixin{Name: "QueryExtension", Fields: []schema.Field{
		{Name: "query", Type: schema.FieldTypeJSON, In: schema.LocationBody, Doc: "Property comparison expression"},
	}}
)

func (Query) Kind() extension.Kind { return extension.Query }

func (Query) ConformanceURIs() []string {
	return []string{"https://api.stacspec.org/v1.0.0/item-search#query"}
}

func (Query) GetMixin() *schema.Mixin  { return queryGetMixin }
func (Query) PostMixin() *schema.Mixin { return queryPostMixin }
