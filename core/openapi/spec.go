package openapi

// Wire types for an OpenAPI 3.0.3 document. Only the subset the
// generator emits is modeled; marshal order follows the upstream
// specification's conventional field order.

// Spec is the root document.
type Spec struct {
	OpenAPI    string               `json:"openapi"`
	Info       Info                 `json:"info"`
	Servers    []Server             `json:"servers,omitempty"`
	Tags       []Tag                `json:"tags,omitempty"`
	Paths      map[string]*PathItem `json:"paths"`
	Components *Components          `json:"components,omitempty"`
}

// Info describes the API itself.
type Info struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Version     string `json:"version"`
}

// Server is a base URL the API is reachable at.
type Server struct {
	URL         string `json:"url"`
	Description string `json:"description,omitempty"`
}

// Tag groups operations in generated documentation.
type Tag struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// PathItem holds the operations available on a single path template.
type PathItem struct {
	Get    *Operation `json:"get,omitempty"`
	Post   *Operation `json:"post,omitempty"`
	Put    *Operation `json:"put,omitempty"`
	Delete *Operation `json:"delete,omitempty"`
	Patch  *Operation `json:"patch,omitempty"`
}

// Operation describes a single request/response exchange.
type Operation struct {
	Tags        []string             `json:"tags,omitempty"`
	Summary     string               `json:"summary,omitempty"`
	Description string               `json:"description,omitempty"`
	OperationID string               `json:"operationId,omitempty"`
	Parameters  []Parameter          `json:"parameters,omitempty"`
	RequestBody *RequestBody         `json:"requestBody,omitempty"`
	Responses   map[string]*Response `json:"responses"`
}

// Parameter is a path or query input.
type Parameter struct {
	Name        string  `json:"name"`
	In          string  `json:"in"`
	Description string  `json:"description,omitempty"`
	Required    bool    `json:"required,omitempty"`
	Schema      *Schema `json:"schema,omitempty"`
}

// RequestBody describes a JSON request payload.
type RequestBody struct {
	Description string               `json:"description,omitempty"`
	Required    bool                 `json:"required,omitempty"`
	Content     map[string]MediaType `json:"content"`
}

// Response describes one possible response of an operation.
type Response struct {
	Description string               `json:"description"`
	Content     map[string]MediaType `json:"content,omitempty"`
}

// MediaType binds a content type to a schema.
type MediaType struct {
	Schema *Schema `json:"schema,omitempty"`
}

// Components holds reusable schema definitions.
type Components struct {
	Schemas map[string]*Schema `json:"schemas,omitempty"`
}

// Schema is a JSON Schema fragment as used by OpenAPI 3.0.
type Schema struct {
	Ref         string             `json:"$ref,omitempty"`
	Type        string             `json:"type,omitempty"`
	Description string             `json:"description,omitempty"`
	Enum        []string           `json:"enum,omitempty"`
	Minimum     *float64           `json:"minimum,omitempty"`
	Maximum     *float64           `json:"maximum,omitempty"`
	MinLength   *int               `json:"minLength,omitempty"`
	MaxLength   *int               `json:"maxLength,omitempty"`
	Pattern     string             `json:"pattern,omitempty"`
	Items       *Schema            `json:"items,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Required    []string           `json:"required,omitempty"`
}

func refSchema(name string) *Schema {
	return &Schema{Ref: "#/components/schemas/" + name}
}

func arrayOf(items *Schema) *Schema {
	return &Schema{Type: "array", Items: items}
}

// catalogSchemas returns the named response schemas served by the
// catalog endpoints. Names match the response model names the route
// table declares.
func catalogSchemas() map[string]*Schema {
	link := &Schema{
		Type: "object",
		Properties: map[string]*Schema{
			"rel":    {Type: "string"},
			"href":   {Type: "string"},
			"type":   {Type: "string"},
			"title":  {Type: "string"},
			"method": {Type: "string"},
		},
		Required: []string{"rel", "href"},
	}

	extent := &Schema{
		Type: "object",
		Properties: map[string]*Schema{
			"spatial": {
				Type: "object",
				Properties: map[string]*Schema{
					"bbox": arrayOf(arrayOf(&Schema{Type: "number"})),
				},
			},
			"temporal": {
				Type: "object",
				Properties: map[string]*Schema{
					"interval": arrayOf(arrayOf(&Schema{Type: "string"})),
				},
			},
		},
	}

	catalog := &Schema{
		Type: "object",
		Properties: map[string]*Schema{
			"type":        {Type: "string"},
			"stac_version": {Type: "string"},
			"id":          {Type: "string"},
			"title":       {Type: "string"},
			"description": {Type: "string"},
			"links":       arrayOf(refSchema("Link")),
		},
		Required: []string{"type", "id", "description", "links"},
	}

	collection := &Schema{
		Type: "object",
		Properties: map[string]*Schema{
			"type":        {Type: "string"},
			"stac_version": {Type: "string"},
			"id":          {Type: "string"},
			"title":       {Type: "string"},
			"description": {Type: "string"},
			"keywords":    arrayOf(&Schema{Type: "string"}),
			"license":     {Type: "string"},
			"extent":      extent,
			"links":       arrayOf(refSchema("Link")),
		},
		Required: []string{"type", "id", "description", "license", "extent", "links"},
	}

	item := &Schema{
		Type: "object",
		Properties: map[string]*Schema{
			"type":        {Type: "string", Enum: []string{"Feature"}},
			"stac_version": {Type: "string"},
			"id":          {Type: "string"},
			"collection":  {Type: "string"},
			"geometry":    {Type: "object"},
			"bbox":        arrayOf(&Schema{Type: "number"}),
			"properties":  {Type: "object"},
			"assets":      {Type: "object"},
			"links":       arrayOf(refSchema("Link")),
		},
		Required: []string{"type", "id", "geometry", "properties", "assets", "links"},
	}

	return map[string]*Schema{
		"Link":    link,
		"Catalog": catalog,
		"Catalogs": {
			Type: "object",
			Properties: map[string]*Schema{
				"catalogs": arrayOf(refSchema("Catalog")),
				"links":    arrayOf(refSchema("Link")),
			},
			Required: []string{"catalogs", "links"},
		},
		"Collection": collection,
		"Collections": {
			Type: "object",
			Properties: map[string]*Schema{
				"collections": arrayOf(refSchema("Collection")),
				"links":       arrayOf(refSchema("Link")),
			},
			Required: []string{"collections", "links"},
		},
		"Item": item,
		"ItemCollection": {
			Type: "object",
			Properties: map[string]*Schema{
				"type":     {Type: "string", Enum: []string{"FeatureCollection"}},
				"features": arrayOf(refSchema("Item")),
				"links":    arrayOf(refSchema("Link")),
				"context":  {Type: "object"},
			},
			Required: []string{"type", "features"},
		},
		"LandingPage": {
			Type: "object",
			Properties: map[string]*Schema{
				"type":        {Type: "string"},
				"stac_version": {Type: "string"},
				"id":          {Type: "string"},
				"title":       {Type: "string"},
				"description": {Type: "string"},
				"conformsTo":  arrayOf(&Schema{Type: "string"}),
				"links":       arrayOf(refSchema("Link")),
			},
			Required: []string{"type", "id", "description", "links"},
		},
		"Conformance": {
			Type: "object",
			Properties: map[string]*Schema{
				"conformsTo": arrayOf(&Schema{Type: "string"}),
			},
			Required: []string{"conformsTo"},
		},
		"Error": {
			Type: "object",
			Properties: map[string]*Schema{
				"code":        {Type: "string"},
				"description": {Type: "string"},
			},
			Required: []string{"code"},
		},
	}
}
