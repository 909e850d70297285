package schema

import (
	"fmt"
	"sync"
)

// Mixin is a named fragment of fields contributed to a request model,
// typically by a capability extension. Mixins are immutable after
// construction; identity is the pointer.
type Mixin struct {
	Name   string
	Fields []Field
}

// Model is an immutable ordered request schema.
type Model struct {
	name    string
	fields  []Field
	byName  map[string]int
	sources map[string]string // field name -> fragment that declared it
}

// NewModel builds a base model from fields declared in order.
// Base models seed synthesis; callers declare distinct field names.
func NewModel(name string, fields ...Field) *Model {
	m := &Model{
		name:    name,
		fields:  make([]Field, 0, len(fields)),
		byName:  make(map[string]int, len(fields)),
		sources: make(map[string]string, len(fields)),
	}
	for _, f := range fields {
		if _, exists := m.byName[f.Name]; exists {
			continue
		}
		m.byName[f.Name] = len(m.fields)
		m.fields = append(m.fields, f)
		m.sources[f.Name] = name
	}
	return m
}

// Name returns the model name used in documentation and error messages.
func (m *Model) Name() string { return m.name }

// Len returns the number of fields.
func (m *Model) Len() int { return len(m.fields) }

// Fields returns the fields in declaration order. The slice is a copy.
func (m *Model) Fields() []Field {
	out := make([]Field, len(m.fields))
	copy(out, m.fields)
	return out
}

// Lookup returns the field with the given name.
func (m *Model) Lookup(name string) (Field, bool) {
	i, ok := m.byName[name]
	if !ok {
		return Field{}, false
	}
	return m.fields[i], true
}

// HasBody reports whether any field is read from the request body.
func (m *Model) HasBody() bool {
	for _, f := range m.fields {
		if f.Location() == LocationBody {
			return true
		}
	}
	return false
}

// hasDocument reports whether a field captures the whole body.
func (m *Model) hasDocument() bool {
	for _, f := range m.fields {
		if f.Location() == LocationDocument {
			return true
		}
	}
	return false
}

// ConflictError reports a field declared by two fragments with
// different types. Synthesis fails fast at assembly; this never
// surfaces per request.
type ConflictError struct {
	Field      string
	First      string // fragment that declared the field first
	Second     string // fragment whose declaration conflicts
	FirstType  FieldType
	SecondType FieldType
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("schema conflict on field %q: %s declares %s, %s declares %s",
		e.Field, e.First, e.FirstType, e.Second, e.SecondType)
}

// Synthesize merges a base model with mixins into one request model.
//
// Fields accumulate in deterministic order: base fields first, then
// each mixin's fields in mixin order. A name already present with an
// identical type is skipped; with a differing type synthesis fails
// with a *ConflictError naming both fragments. Results are memoized on
// (name, base, mixins) pointer identity for the process lifetime, so
// repeated synthesis with the same fragments returns the same *Model.
func Synthesize(name string, base *Model, mixins ...*Mixin) (*Model, error) {
	key := cacheKey(name, base, mixins)

	synthMu.Lock()
	if m, ok := synthCache[key]; ok {
		synthMu.Unlock()
		return m, nil
	}
	synthMu.Unlock()

	m := &Model{
		name:    name,
		fields:  make([]Field, 0, len(base.fields)),
		byName:  make(map[string]int, len(base.fields)),
		sources: make(map[string]string, len(base.fields)),
	}
	for _, f := range base.fields {
		m.byName[f.Name] = len(m.fields)
		m.fields = append(m.fields, f)
		m.sources[f.Name] = base.name
	}
	for _, mixin := range mixins {
		if mixin == nil {
			continue
		}
		for _, f := range mixin.Fields {
			i, exists := m.byName[f.Name]
			if !exists {
				m.byName[f.Name] = len(m.fields)
				m.fields = append(m.fields, f)
				m.sources[f.Name] = mixin.Name
				continue
			}
			if m.fields[i].Type != f.Type {
				return nil, &ConflictError{
					Field:      f.Name,
					First:      m.sources[f.Name],
					Second:     mixin.Name,
					FirstType:  m.fields[i].Type,
					SecondType: f.Type,
				}
			}
			// Identical declaration, first occurrence wins.
		}
	}

	synthMu.Lock()
	synthCache[key] = m
	synthMu.Unlock()
	return m, nil
}

var (
	synthMu    sync.Mutex
	synthCache = make(map[string]*Model)
)

func cacheKey(name string, base *Model, mixins []*Mixin) string {
	key := fmt.Sprintf("%s|%p", name, base)
	for _, mx := range mixins {
		key += fmt.Sprintf("|%p", mx)
	}
	return key
}
