package conformance

import (
	"testing"

	"github.com/stacgate/stacgate/core/extension"
)

type uriExt struct {
	kind extension.Kind
	uris []string
}

func (e *uriExt) Kind() extension.Kind      { return e.kind }
func (e *uriExt) ConformanceURIs() []string { return e.uris }

func TestClassesCoreOnly(t *testing.T) {
	got := Classes(extension.NewSet())
	want := Core()
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("classes[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestClassesAppendsExtensionURIs(t *testing.T) {
	set := extension.NewSet(
		&uriExt{kind: extension.Sort, uris: []string{"https://api.stacspec.org/v1.0.0/item-search#sort"}},
		&uriExt{kind: extension.Query, uris: []string{"https://api.stacspec.org/v1.0.0/item-search#query"}},
	)
	got := Classes(set)

	coreLen := len(Core())
	if len(got) != coreLen+2 {
		t.Fatalf("len = %d, want %d", len(got), coreLen+2)
	}
	if got[coreLen] != "https://api.stacspec.org/v1.0.0/item-search#sort" {
		t.Errorf("extension URIs must follow the core set in declaration order, got %q", got[coreLen])
	}
}

func TestClassesDedupKeepsFirst(t *testing.T) {
	set := extension.NewSet(
		&uriExt{kind: extension.Sort, uris: []string{STACCore, "https://example.com/a"}},
		&uriExt{kind: extension.Query, uris: []string{"https://example.com/a", "https://example.com/b"}},
	)
	got := Classes(set)

	counts := map[string]int{}
	for _, uri := range got {
		counts[uri]++
	}
	for uri, n := range counts {
		if n != 1 {
			t.Errorf("URI %q appears %d times, want 1", uri, n)
		}
	}
	// STACCore stays in its core position, not re-added by the extension.
	if got[0] != STACCore {
		t.Errorf("classes[0] = %q, want %q", got[0], STACCore)
	}
}

func TestClassesNilSet(t *testing.T) {
	got := Classes(nil)
	if len(got) != len(Core()) {
		t.Errorf("len = %d, want core set only", len(got))
	}
}
