package extension

import "github.com/stacgate/stacgate/core/schema"

// Set is an immutable ordered collection of extensions. Declaration
// order is preserved; it drives mixin merge order and conformance
// aggregation. The set is built once at assembly and never mutated,
// so reads need no locking.
type Set struct {
	list   []Extension
	byKind map[Kind]Extension
}

// NewSet builds a set from extensions in declaration order. When two
// instances share a kind, lookups return the first; both still appear
// in All().
func NewSet(exts ...Extension) *Set {
	s := &Set{
		list:   make([]Extension, 0, len(exts)),
		byKind: make(map[Kind]Extension, len(exts)),
	}
	for _, ext := range exts {
		if ext == nil {
			continue
		}
		s.list = append(s.list, ext)
		if _, exists := s.byKind[ext.Kind()]; !exists {
			s.byKind[ext.Kind()] = ext
		}
	}
	return s
}

// Lookup returns the first extension with the given kind.
func (s *Set) Lookup(kind Kind) (Extension, bool) {
	ext, ok := s.byKind[kind]
	return ext, ok
}

// Has reports whether an extension of the given kind is active.
func (s *Set) Has(kind Kind) bool {
	_, ok := s.byKind[kind]
	return ok
}

// All returns the extensions in declaration order. The slice is a copy.
func (s *Set) All() []Extension {
	out := make([]Extension, len(s.list))
	copy(out, s.list)
	return out
}

// Len returns the number of active extensions.
func (s *Set) Len() int {
	return len(s.list)
}

// GetMixins collects the GET request mixins of all mixin-providing
// extensions, in declaration order. Nil mixins are skipped.
func (s *Set) GetMixins() []*schema.Mixin {
	var out []*schema.Mixin
	for _, ext := range s.list {
		if p, ok := ext.(MixinProvider); ok {
			if mx := p.GetMixin(); mx != nil {
				out = append(out, mx)
			}
		}
	}
	return out
}

// PostMixins collects the POST body mixins of all mixin-providing
// extensions, in declaration order. Nil mixins are skipped.
func (s *Set) PostMixins() []*schema.Mixin {
	var out []*schema.Mixin
	for _, ext := range s.list {
		if p, ok := ext.(MixinProvider); ok {
			if mx := p.PostMixin(); mx != nil {
				out = append(out, mx)
			}
		}
	}
	return out
}
