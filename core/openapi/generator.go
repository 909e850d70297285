// Package openapi derives the service's OpenAPI 3.0.3 document from
// the assembled route table. Request models become parameters and
// request bodies; response model names become schema references.
package openapi

import (
	"sort"
	"strings"

	"github.com/stacgate/stacgate/core/registry"
	"github.com/stacgate/stacgate/core/schema"
	"github.com/stacgate/stacgate/pkg/stac"
)

// Generator builds an OpenAPI document from the assembled route table.
// The document mirrors registration order: paths appear keyed by
// template and operations carry the request model each route declared.
type Generator struct {
	title       string
	description string
	version     string
	baseURL     string
}

// NewGenerator returns a Generator that stamps the given service
// identity into the document's info block.
func NewGenerator(title, description, version, baseURL string) *Generator {
	return &Generator{
		title:       title,
		description: description,
		version:     version,
		baseURL:     baseURL,
	}
}

// Generate produces a complete document for the given routes. Routes
// must already be fully configured; the generator never mutates them.
func (g *Generator) Generate(routes []*registry.Route) *Spec {
	spec := &Spec{
		OpenAPI: "3.0.3",
		Info: Info{
			Title:       g.title,
			Description: g.description,
			Version:     g.version,
		},
		Paths:      make(map[string]*PathItem),
		Components: &Components{Schemas: catalogSchemas()},
	}
	if g.baseURL != "" {
		spec.Servers = []Server{{URL: g.baseURL}}
	}

	seenTags := make(map[string]bool)
	for _, rt := range routes {
		item := spec.Paths[rt.Path]
		if item == nil {
			item = &PathItem{}
			spec.Paths[rt.Path] = item
		}
		for _, method := range rt.Methods {
			op := g.operation(rt, method)
			switch strings.ToUpper(method) {
			case "GET":
				item.Get = op
			case "POST":
				item.Post = op
			case "PUT":
				item.Put = op
			case "DELETE":
				item.Delete = op
			case "PATCH":
				item.Patch = op
			}
		}
		for _, tag := range rt.Tags {
			if !seenTags[tag] {
				seenTags[tag] = true
				spec.Tags = append(spec.Tags, Tag{Name: tag})
			}
		}
	}
	return spec
}

func (g *Generator) operation(rt *registry.Route, method string) *Operation {
	opID := lowerFirst(rt.Name)
	if len(rt.Methods) > 1 {
		opID += strings.ToUpper(method[:1]) + strings.ToLower(method[1:])
	}
	op := &Operation{
		Tags:        rt.Tags,
		Summary:     summarize(rt.Name),
		OperationID: opID,
		Responses:   g.responses(rt, method),
	}

	if rt.RequestModel != nil {
		var bodyFields []schema.Field
		for _, f := range rt.RequestModel.Fields() {
			switch f.Location() {
			case schema.LocationPath:
				op.Parameters = append(op.Parameters, Parameter{
					Name:        f.Name,
					In:          "path",
					Description: f.Doc,
					Required:    true,
					Schema:      fieldSchema(f),
				})
			case schema.LocationQuery:
				op.Parameters = append(op.Parameters, Parameter{
					Name:        f.Name,
					In:          "query",
					Description: f.Doc,
					Required:    f.Required,
					Schema:      fieldSchema(f),
				})
			case schema.LocationBody:
				bodyFields = append(bodyFields, f)
			case schema.LocationDocument:
				op.RequestBody = &RequestBody{
					Description: f.Doc,
					Required:    f.Required,
					Content: map[string]MediaType{
						stac.MediaTypeJSON: {Schema: &Schema{Type: "object"}},
					},
				}
			}
		}
		if len(bodyFields) > 0 {
			op.RequestBody = bodyRequest(bodyFields)
		}
	}
	return op
}

func (g *Generator) responses(rt *registry.Route, method string) map[string]*Response {
	resp := map[string]*Response{
		"default": {
			Description: "Error",
			Content: map[string]MediaType{
				stac.MediaTypeJSON: {Schema: refSchema("Error")},
			},
		},
	}
	if strings.EqualFold(method, "DELETE") {
		resp["204"] = &Response{Description: "No Content"}
		return resp
	}

	var body *Schema
	if rt.ResponseModel != "" {
		body = refSchema(rt.ResponseModel)
	} else {
		body = &Schema{Type: "object"}
	}
	resp["200"] = &Response{
		Description: "Successful response",
		Content: map[string]MediaType{
			stac.MediaTypeJSON: {Schema: body},
		},
	}
	return resp
}

func bodyRequest(fields []schema.Field) *RequestBody {
	body := &Schema{
		Type:       "object",
		Properties: make(map[string]*Schema, len(fields)),
	}
	for _, f := range fields {
		body.Properties[f.Name] = fieldSchema(f)
		if f.Required {
			body.Required = append(body.Required, f.Name)
		}
	}
	sort.Strings(body.Required)
	return &RequestBody{
		Content: map[string]MediaType{
			stac.MediaTypeJSON: {Schema: body},
		},
	}
}

func fieldSchema(f schema.Field) *Schema {
	s := &Schema{Description: f.Doc, Enum: f.Enum}
	switch f.Type {
	case schema.FieldTypeString:
		s.Type = "string"
	case schema.FieldTypeInt:
		s.Type = "integer"
	case schema.FieldTypeFloat:
		s.Type = "number"
	case schema.FieldTypeBool:
		s.Type = "boolean"
	case schema.FieldTypeStrings:
		s.Type = "array"
		s.Items = &Schema{Type: "string"}
	case schema.FieldTypeFloats:
		s.Type = "array"
		s.Items = &Schema{Type: "number"}
	case schema.FieldTypeJSON:
		s.Type = "object"
	default:
		s.Type = "string"
	}
	applyConstraints(s, f.Constraints)
	return s
}

func applyConstraints(s *Schema, constraints []schema.Constraint) {
	for _, c := range constraints {
		switch c.Type {
		case schema.ConstraintMin:
			if v, ok := asFloat(c.Value); ok {
				s.Minimum = &v
			}
		case schema.ConstraintMax:
			if v, ok := asFloat(c.Value); ok {
				s.Maximum = &v
			}
		case schema.ConstraintMinLength:
			if v, ok := asInt(c.Value); ok {
				s.MinLength = &v
			}
		case schema.ConstraintMaxLength:
			if v, ok := asInt(c.Value); ok {
				s.MaxLength = &v
			}
		case schema.ConstraintPattern:
			if expr, ok := c.Value.(string); ok {
				s.Pattern = expr
			}
		}
	}
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	}
	return 0, false
}

// summarize renders a route name like "GetItemCollection" as the
// space-separated phrase "Get Item Collection".
func summarize(name string) string {
	var b strings.Builder
	for i, r := range name {
		if i > 0 && r >= 'A' && r <= 'Z' {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func lowerFirst(name string) string {
	if name == "" {
		return ""
	}
	r := []rune(name)
	r[0] = []rune(strings.ToLower(string(r[0])))[0]
	return string(r)
}
