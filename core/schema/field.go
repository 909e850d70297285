package schema

// Field defines one parameter in a request model.
type Field struct {
	// Name is the wire name of the field (path segment, query key, or
	// body property).
	Name string

	// Type is the field type. See FieldType constants.
	Type FieldType

	// In says where the field is read from. Defaults to LocationQuery.
	In Location

	// Required indicates the request is rejected when the field is absent.
	Required bool

	// Doc is a one-line description used in generated API documentation.
	Doc string

	// Enum lists valid values for string fields. Empty means unrestricted.
	Enum []string

	// Constraints defines validation rules applied after type decoding.
	Constraints []Constraint
}

// FieldType represents the type of a request field.
type FieldType string

const (
	FieldTypeString  FieldType = "string"
	FieldTypeInt     FieldType = "int"
	FieldTypeFloat   FieldType = "float"
	FieldTypeBool    FieldType = "bool"
	FieldTypeStrings FieldType = "strings" // Array of strings
	FieldTypeFloats  FieldType = "floats"  // Array of floats
	FieldTypeJSON    FieldType = "json"    // Arbitrary JSON value
)

// Location says which part of the request carries a field.
type Location string

const (
	LocationPath  Location = "path"
	LocationQuery Location = "query"
	LocationBody  Location = "body"

	// LocationDocument captures the entire request body as one raw JSON
	// value. Used by write operations whose payload is a whole catalog
	// document rather than named properties. A model may declare at most
	// one document field, and no LocationBody fields alongside it.
	LocationDocument Location = "document"
)

// Location returns where the field is read from, normalizing the zero
// value to LocationQuery so mixin authors can omit In for plain query
// parameters.
func (f Field) Location() Location {
	if f.In == "" {
		return LocationQuery
	}
	return f.In
}
