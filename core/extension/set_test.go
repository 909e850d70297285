package extension

import (
	"testing"

	"github.com/stacgate/stacgate/core/schema"
)

// fakeExt is a minimal extension for set tests.
type fakeExt struct {
	kind Kind
	uris []string
	get  *schema.Mixin
	post *schema.Mixin
}

func (f *fakeExt) Kind() Kind                { return f.kind }
func (f *fakeExt) ConformanceURIs() []string { return f.uris }
func (f *fakeExt) GetMixin() *schema.Mixin   { return f.get }
func (f *fakeExt) PostMixin() *schema.Mixin  { return f.post }

func TestSetLookup(t *testing.T) {
	first := &fakeExt{kind: Sort}
	second := &fakeExt{kind: Sort}
	other := &fakeExt{kind: Query}

	s := NewSet(first, second, other)

	t.Run("first match wins", func(t *testing.T) {
		got, ok := s.Lookup(Sort)
		if !ok {
			t.Fatal("Lookup(Sort) not found")
		}
		if got != Extension(first) {
			t.Error("Lookup(Sort) should return the first declared instance")
		}
	})

	t.Run("absent kind", func(t *testing.T) {
		if _, ok := s.Lookup(Transaction); ok {
			t.Error("Lookup(Transaction) should report absence")
		}
		if s.Has(Transaction) {
			t.Error("Has(Transaction) = true, want false")
		}
	})

	t.Run("all preserves declaration order and duplicates", func(t *testing.T) {
		all := s.All()
		if len(all) != 3 {
			t.Fatalf("len(All()) = %d, want 3", len(all))
		}
		if all[0] != Extension(first) || all[1] != Extension(second) || all[2] != Extension(other) {
			t.Error("All() must preserve declaration order")
		}
	})
}

func TestSetSkipsNil(t *testing.T) {
	s := NewSet(nil, &fakeExt{kind: Query}, nil)
	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1", s.Len())
	}
}

func TestSetMixins(t *testing.T) {
	sortMixin := &schema.Mixin{Name: "Sort", Fields: []schema.Field{{Name: "sortby", Type: schema.FieldTypeString}}}
	queryMixin := &schema.Mixin{Name: "Query", Fields: []schema.Field{{Name: "query", Type: schema.FieldTypeJSON}}}

	s := NewSet(
		&fakeExt{kind: Sort, get: sortMixin},
		&fakeExt{kind: Context},
		&fakeExt{kind: Query, post: queryMixin},
	)

	gets := s.GetMixins()
	if len(gets) != 1 || gets[0] != sortMixin {
		t.Errorf("GetMixins() = %v, want [sortMixin]", gets)
	}
	posts := s.PostMixins()
	if len(posts) != 1 || posts[0] != queryMixin {
		t.Errorf("PostMixins() = %v, want [queryMixin]", posts)
	}
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		in   string
		want Kind
	}{
		{"sort", Sort},
		{" Fields ", Fields},
		{"collection-search", CollectionSearch},
		{"custom-thing", Kind("custom-thing")},
		{"", Unknown},
	}
	for _, tt := range tests {
		if got := ParseKind(tt.in); got != tt.want {
			t.Errorf("ParseKind(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
