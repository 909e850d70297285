package schema

import (
	"errors"
	"testing"
)

func TestSynthesizeDisjointMixins(t *testing.T) {
	base := NewModel("SearchBase",
		Field{Name: "collections", Type: FieldTypeStrings},
		Field{Name: "ids", Type: FieldTypeStrings},
		Field{Name: "limit", Type: FieldTypeInt},
	)
	sort := &Mixin{Name: "SortMixin", Fields: []Field{
		{Name: "sortby", Type: FieldTypeString},
	}}
	fields := &Mixin{Name: "FieldsMixin", Fields: []Field{
		{Name: "fields", Type: FieldTypeStrings},
	}}

	m, err := Synthesize("SearchGetRequest", base, sort, fields)
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
	if got, want := m.Len(), base.Len()+2; got != want {
		t.Errorf("Len() = %d, want %d", got, want)
	}
	if m.Name() != "SearchGetRequest" {
		t.Errorf("Name() = %q, want SearchGetRequest", m.Name())
	}
}

func TestSynthesizeFieldOrder(t *testing.T) {
	base := NewModel("Base",
		Field{Name: "a", Type: FieldTypeString},
		Field{Name: "b", Type: FieldTypeString},
	)
	m1 := &Mixin{Name: "M1", Fields: []Field{
		{Name: "c", Type: FieldTypeString},
		{Name: "d", Type: FieldTypeString},
	}}
	m2 := &Mixin{Name: "M2", Fields: []Field{
		{Name: "e", Type: FieldTypeString},
	}}

	m, err := Synthesize("Ordered", base, m1, m2)
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
	want := []string{"a", "b", "c", "d", "e"}
	got := m.Fields()
	if len(got) != len(want) {
		t.Fatalf("got %d fields, want %d", len(got), len(want))
	}
	for i, name := range want {
		if got[i].Name != name {
			t.Errorf("field[%d] = %q, want %q", i, got[i].Name, name)
		}
	}
}

func TestSynthesizeTypeConflict(t *testing.T) {
	base := NewModel("Base", Field{Name: "limit", Type: FieldTypeInt})
	bad := &Mixin{Name: "BadMixin", Fields: []Field{
		{Name: "limit", Type: FieldTypeString},
	}}

	_, err := Synthesize("Conflicting", base, bad)
	if err == nil {
		t.Fatal("Synthesize() expected error, got nil")
	}
	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("error type = %T, want *ConflictError", err)
	}
	if conflict.Field != "limit" {
		t.Errorf("Field = %q, want limit", conflict.Field)
	}
	if conflict.First != "Base" || conflict.Second != "BadMixin" {
		t.Errorf("fragments = (%q, %q), want (Base, BadMixin)", conflict.First, conflict.Second)
	}
}

func TestSynthesizeMixinMixinConflict(t *testing.T) {
	base := NewModel("Base")
	m1 := &Mixin{Name: "First", Fields: []Field{{Name: "token", Type: FieldTypeString}}}
	m2 := &Mixin{Name: "Second", Fields: []Field{{Name: "token", Type: FieldTypeInt}}}

	_, err := Synthesize("Conflicting2", base, m1, m2)
	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("error = %v, want *ConflictError", err)
	}
	if conflict.First != "First" || conflict.Second != "Second" {
		t.Errorf("fragments = (%q, %q), want (First, Second)", conflict.First, conflict.Second)
	}
}

func TestSynthesizeIdenticalTypeDedup(t *testing.T) {
	base := NewModel("Base", Field{Name: "limit", Type: FieldTypeInt, Doc: "from base"})
	m1 := &Mixin{Name: "M1", Fields: []Field{{Name: "limit", Type: FieldTypeInt, Doc: "from mixin"}}}
	m2 := &Mixin{Name: "M2", Fields: []Field{{Name: "limit", Type: FieldTypeInt}}}

	m, err := Synthesize("Deduped", base, m1, m2)
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
	if m.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", m.Len())
	}
	f, ok := m.Lookup("limit")
	if !ok {
		t.Fatal("Lookup(limit) not found")
	}
	// First occurrence wins.
	if f.Doc != "from base" {
		t.Errorf("Doc = %q, want %q", f.Doc, "from base")
	}
}

func TestSynthesizeCachesByIdentity(t *testing.T) {
	base := NewModel("Base", Field{Name: "q", Type: FieldTypeString})
	mx := &Mixin{Name: "M", Fields: []Field{{Name: "s", Type: FieldTypeString}}}

	first, err := Synthesize("Cached", base, mx)
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
	second, err := Synthesize("Cached", base, mx)
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
	if first != second {
		t.Error("repeated synthesis with identical fragments should return the same instance")
	}

	other := &Mixin{Name: "M", Fields: []Field{{Name: "s", Type: FieldTypeString}}}
	third, err := Synthesize("Cached", base, other)
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
	if third == first {
		t.Error("distinct mixin instances should not share a cache entry")
	}
}

func TestSynthesizeSkipsNilMixins(t *testing.T) {
	base := NewModel("Base", Field{Name: "q", Type: FieldTypeString})
	m, err := Synthesize("WithNil", base, nil, &Mixin{Name: "M", Fields: []Field{{Name: "s", Type: FieldTypeString}}})
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
	if m.Len() != 2 {
		t.Errorf("Len() = %d, want 2", m.Len())
	}
}

func TestModelFieldsIsACopy(t *testing.T) {
	m := NewModel("Base", Field{Name: "q", Type: FieldTypeString})
	fields := m.Fields()
	fields[0].Name = "mutated"
	if got, _ := m.Lookup("q"); got.Name != "q" {
		t.Error("mutating Fields() result must not affect the model")
	}
}
