package extensions

import (
	"github.com/stacgate/stacgate/core/extension"
	"github.com/stacgate/stacgate/core/schema"
)

// Sort enables result ordering on search requests. GET requests take a
// comma-separated list of +/- prefixed property names; POST requests
// take an array of {field, direction} objects.
type Sort struct{}

var (
	sortGetMixin = &schema.Mixin{Name: "SortExtension", Fields: []schema.Field{
		{Name: "sortby", Type: schema.FieldTypeString, Doc: "Comma-separated sort keys, +/- prefixed"},
	}}
	sortPostMixin = &schema.Mixin{Name: "SortExtension", Fields: []schema.Field{
		{Name: "sortby", Type: schema.FieldTypeJSON, In: schema.LocationBody, Doc: "Sort directives: [{field, direction}]"},
	}}
)

func (Sort) Kind() extension.Kind { return extension.Sort }

func (Sort) ConformanceURIs() []string {
	return []string{"https://api.stacspec.org/v1.0.0/item-search#sort"}
}

func (Sort) GetMixin() *schema.Mixin  { return sortGetMixin }
func (Sort) PostMixin() *schema.Mixin { return sortPostMixin }
