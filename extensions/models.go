package extensions

import "github.com/stacgate/stacgate/core/schema"

func pathField(name, doc string) schema.Field {
	return schema.Field{
		Name: name, Type: schema.FieldTypeString, In: schema.LocationPath,
		Required: true, Doc: doc,
	}
}

func documentField(name, doc string) schema.Field {
	return schema.Field{
		Name: name, Type: schema.FieldTypeJSON, In: schema.LocationDocument,
		Required: true, Doc: doc,
	}
}
