package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
)

// ValidationError reports a request that does not satisfy the route's
// model. It maps to a 400 response at the API boundary.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid parameter %q: %s", e.Field, e.Reason)
}

// Request is the decoded, typed view of one incoming request. Values
// are keyed by field name and hold the Go type matching the field's
// declared FieldType. A Request is goroutine-local and read-only after
// Decode returns.
type Request struct {
	model  *Model
	values map[string]any
}

// Decode reads an HTTP request into a Request according to the model.
// Path variables resolve through pathParam, which may be nil for models
// with no path fields. The first violation is returned as a
// *ValidationError.
func (m *Model) Decode(r *http.Request, pathParam func(string) string) (*Request, error) {
	req := &Request{model: m, values: make(map[string]any, len(m.fields))}

	var (
		body   map[string]json.RawMessage
		rawDoc json.RawMessage
	)
	switch {
	case m.HasBody():
		var err error
		body, err = readBody(r)
		if err != nil {
			return nil, err
		}
	case m.hasDocument():
		var err error
		rawDoc, err = readDocument(r)
		if err != nil {
			return nil, err
		}
	}
	query := r.URL.Query()

	for _, f := range m.fields {
		var (
			value  any
			reason string
			found  bool
		)
		switch f.Location() {
		case LocationPath:
			if pathParam != nil {
				if raw := pathParam(f.Name); raw != "" {
					value, reason = decodeText(f, raw)
					found = true
				}
			}
		case LocationQuery:
			if raw := query.Get(f.Name); raw != "" {
				value, reason = decodeText(f, raw)
				found = true
			}
		case LocationBody:
			if raw, ok := body[f.Name]; ok {
				value, reason = decodeJSON(f, raw)
				found = true
			}
		case LocationDocument:
			if len(rawDoc) > 0 {
				value = rawDoc
				found = true
			}
		}

		if !found {
			if f.Required {
				return nil, &ValidationError{Field: f.Name, Reason: "required"}
			}
			continue
		}
		if reason != "" {
			return nil, &ValidationError{Field: f.Name, Reason: reason}
		}
		if reason := checkEnum(f, value); reason != "" {
			return nil, &ValidationError{Field: f.Name, Reason: reason}
		}
		for _, c := range f.Constraints {
			if reason := checkConstraint(value, c); reason != "" {
				return nil, &ValidationError{Field: f.Name, Reason: reason}
			}
		}
		req.values[f.Name] = value
	}
	return req, nil
}

// readDocument captures the whole body as one raw JSON value. An
// absent or empty body yields nil; the field's Required flag decides
// whether that is an error.
func readDocument(r *http.Request) (json.RawMessage, error) {
	if r.Body == nil {
		return nil, nil
	}
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, &ValidationError{Field: "body", Reason: "unreadable body"}
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, nil
	}
	if !json.Valid(raw) {
		return nil, &ValidationError{Field: "body", Reason: "malformed JSON"}
	}
	return json.RawMessage(raw), nil
}

// readBody decodes the JSON body into raw fields. An absent or empty
// body decodes as an empty object.
func readBody(r *http.Request) (map[string]json.RawMessage, error) {
	if r.Body == nil {
		return nil, nil
	}
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, &ValidationError{Field: "body", Reason: "unreadable body"}
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, nil
	}
	var body map[string]json.RawMessage
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, &ValidationError{Field: "body", Reason: "malformed JSON object"}
	}
	return body, nil
}

// decodeText converts a path or query string value to the field's type.
// Array types split on commas, matching catalog API query conventions.
func decodeText(f Field, raw string) (any, string) {
	switch f.Type {
	case FieldTypeString:
		return raw, ""
	case FieldTypeInt:
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, "must be an integer"
		}
		return n, ""
	case FieldTypeFloat:
		n, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, "must be a number"
		}
		return n, ""
	case FieldTypeBool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, "must be a boolean"
		}
		return b, ""
	case FieldTypeStrings:
		parts := strings.Split(raw, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out, ""
	case FieldTypeFloats:
		parts := strings.Split(raw, ",")
		out := make([]float64, 0, len(parts))
		for _, p := range parts {
			n, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
			if err != nil {
				return nil, "must be a comma-separated list of numbers"
			}
			out = append(out, n)
		}
		return out, ""
	case FieldTypeJSON:
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			return nil, "must be valid JSON"
		}
		return v, ""
	default:
		return raw, ""
	}
}

// decodeJSON converts a raw body property to the field's type.
func decodeJSON(f Field, raw json.RawMessage) (any, string) {
	switch f.Type {
	case FieldTypeString:
		var v string
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, "must be a string"
		}
		return v, ""
	case FieldTypeInt:
		var v int
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, "must be an integer"
		}
		return v, ""
	case FieldTypeFloat:
		var v float64
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, "must be a number"
		}
		return v, ""
	case FieldTypeBool:
		var v bool
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, "must be a boolean"
		}
		return v, ""
	case FieldTypeStrings:
		var v []string
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, "must be an array of strings"
		}
		return v, ""
	case FieldTypeFloats:
		var v []float64
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, "must be an array of numbers"
		}
		return v, ""
	case FieldTypeJSON:
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, "must be valid JSON"
		}
		return v, ""
	default:
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, "must be valid JSON"
		}
		return v, ""
	}
}

func checkEnum(f Field, value any) string {
	if len(f.Enum) == 0 {
		return ""
	}
	s, ok := value.(string)
	if !ok {
		return ""
	}
	for _, allowed := range f.Enum {
		if s == allowed {
			return ""
		}
	}
	return fmt.Sprintf("must be one of: %s", strings.Join(f.Enum, ", "))
}

// Model returns the model this request was decoded against.
func (r *Request) Model() *Model { return r.model }

// Has reports whether the field was present in the request.
func (r *Request) Has(name string) bool {
	_, ok := r.values[name]
	return ok
}

// Value returns the decoded value for a field, or nil when absent.
func (r *Request) Value(name string) any { return r.values[name] }

// String returns a string field, or "" when absent.
func (r *Request) String(name string) string {
	v, _ := r.values[name].(string)
	return v
}

// Strings returns a string-array field, or nil when absent.
func (r *Request) Strings(name string) []string {
	v, _ := r.values[name].([]string)
	return v
}

// Int returns an integer field, or 0 when absent.
func (r *Request) Int(name string) int {
	v, _ := r.values[name].(int)
	return v
}

// IntOr returns an integer field, or def when absent.
func (r *Request) IntOr(name string, def int) int {
	if v, ok := r.values[name].(int); ok {
		return v
	}
	return def
}

// Float returns a float field, or 0 when absent.
func (r *Request) Float(name string) float64 {
	v, _ := r.values[name].(float64)
	return v
}

// Floats returns a float-array field, or nil when absent.
func (r *Request) Floats(name string) []float64 {
	v, _ := r.values[name].([]float64)
	return v
}

// Bool returns a boolean field, or false when absent.
func (r *Request) Bool(name string) bool {
	v, _ := r.values[name].(bool)
	return v
}

// Raw returns a document field's captured body, or nil when absent.
func (r *Request) Raw(name string) json.RawMessage {
	v, _ := r.values[name].(json.RawMessage)
	return v
}

// Unmarshal decodes a document field into v. Absent documents are a
// validation error; decoding failures report the document's field name.
func (r *Request) Unmarshal(name string, v any) error {
	raw := r.Raw(name)
	if raw == nil {
		return &ValidationError{Field: name, Reason: "required"}
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return &ValidationError{Field: name, Reason: "malformed document"}
	}
	return nil
}
