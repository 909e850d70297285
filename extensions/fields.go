package extensions

import (
	"github.com/stacgate/stacgate/core/extension"
	"github.com/stacgate/stacgate/core/schema"
)

// Fields enables response attribute selection on search requests.
// Because the response shape then varies per request, activating this
// extension opens up the declared response schema of the search routes.
type Fields struct{}

var (
	fieldsGetMixin = &schema.Mixin{Name: "FieldsExtension", Fields: []schema.Field{
		{Name: "fields", Type: schema.FieldTypeString, Doc: "Comma-separated attribute selectors, +/- prefixed"},
	}}
	fieldsPostMixin = &schema.Mixin{Name: "FieldsExtension", Fields: []schema.Field{
		{Name: "fields", Type: schema.FieldTypeJSON, In: schema.LocationBody, Doc: "Attribute selectors: {include, exclude}"},
	}}
)

func (Fields) Kind() extension.Kind { return extension.Fields }

func (Fields) ConformanceURIs() []string {
	return []string{"https://api.stacspec.org/v1.0.0/item-search#fields"}
}

func (Fields) GetMixin() *schema.Mixin  { return fieldsGetMixin }
func (Fields) PostMixin() *schema.Mixin { return fieldsPostMixin }
