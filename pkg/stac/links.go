package stac

import (
	"fmt"
	"strings"

	"github.com/jtacoma/uritemplates"
)

// Linker builds absolute links for catalog documents from URI templates
// rooted at the service base URL.
type Linker struct {
	base string
}

// NewLinker creates a Linker. The base URL is used verbatim apart from
// trailing-slash trimming, so callers pass scheme://host[:port][/prefix].
func NewLinker(base string) *Linker {
	return &Linker{base: strings.TrimRight(base, "/")}
}

// Expand resolves a URI template relative to the base URL.
// Templates use RFC 6570 simple expressions, e.g. "/collections/{collectionId}".
func (l *Linker) Expand(template string, vars map[string]interface{}) (string, error) {
	tmpl, err := uritemplates.Parse(l.base + template)
	if err != nil {
		return "", fmt.Errorf("parse link template %q: %w", template, err)
	}
	expanded, err := tmpl.Expand(vars)
	if err != nil {
		return "", fmt.Errorf("expand link template %q: %w", template, err)
	}
	return expanded, nil
}

// mustExpand is for templates with no expressions or known-safe vars.
func (l *Linker) mustExpand(template string, vars map[string]interface{}) string {
	href, err := l.Expand(template, vars)
	if err != nil {
		// Templates below are all literals or single simple expressions;
		// a failure here is a programming error.
		panic(err)
	}
	return href
}

// Root links to the landing page.
func (l *Linker) Root() Link {
	return Link{Rel: RelRoot, Href: l.base + "/", Type: MediaTypeJSON}
}

// Self links to an arbitrary already-expanded path.
func (l *Linker) Self(path string, mediaType string) Link {
	return Link{Rel: RelSelf, Href: l.base + path, Type: mediaType}
}

// Landing builds the landing-page link set: self, root, conformance, data,
// children, both search variants, and the service description and docs.
func (l *Linker) Landing() []Link {
	return []Link{
		{Rel: RelSelf, Href: l.base + "/", Type: MediaTypeJSON},
		{Rel: RelRoot, Href: l.base + "/", Type: MediaTypeJSON},
		{Rel: RelConformance, Href: l.base + "/conformance", Type: MediaTypeJSON},
		{Rel: RelData, Href: l.base + "/collections", Type: MediaTypeJSON},
		{Rel: RelChildren, Href: l.base + "/catalogs", Type: MediaTypeJSON},
		{Rel: RelSearch, Href: l.base + "/search", Type: MediaTypeGeoJSON, Method: "GET"},
		{Rel: RelSearch, Href: l.base + "/search", Type: MediaTypeGeoJSON, Method: "POST"},
		{Rel: RelServiceDesc, Href: l.base + "/api", Type: MediaTypeOpenAPI},
		{Rel: RelServiceDoc, Href: l.base + "/api.html", Type: MediaTypeHTML},
	}
}

// Catalog builds the standard link set for one catalog.
func (l *Linker) Catalog(catalogID string) []Link {
	vars := map[string]interface{}{"catalogId": catalogID}
	return []Link{
		{Rel: RelSelf, Href: l.mustExpand("/catalogs/{catalogId}", vars), Type: MediaTypeJSON},
		{Rel: RelRoot, Href: l.base + "/", Type: MediaTypeJSON},
		{Rel: RelParent, Href: l.base + "/", Type: MediaTypeJSON},
		{Rel: RelData, Href: l.mustExpand("/catalogs/{catalogId}/collections", vars), Type: MediaTypeJSON},
		{Rel: RelSearch, Href: l.mustExpand("/catalogs/{catalogId}/search", vars), Type: MediaTypeGeoJSON, Method: "GET"},
	}
}

// Collection builds the standard link set for one collection in a catalog.
func (l *Linker) Collection(catalogID, collectionID string) []Link {
	vars := map[string]interface{}{"catalogId": catalogID, "collectionId": collectionID}
	return []Link{
		{Rel: RelSelf, Href: l.mustExpand("/catalogs/{catalogId}/collections/{collectionId}", vars), Type: MediaTypeJSON},
		{Rel: RelRoot, Href: l.base + "/", Type: MediaTypeJSON},
		{Rel: RelParent, Href: l.mustExpand("/catalogs/{catalogId}", vars), Type: MediaTypeJSON},
		{Rel: RelItems, Href: l.mustExpand("/catalogs/{catalogId}/collections/{collectionId}/items", vars), Type: MediaTypeGeoJSON},
	}
}

// Item builds the standard link set for one item.
func (l *Linker) Item(catalogID, collectionID, itemID string) []Link {
	vars := map[string]interface{}{
		"catalogId":    catalogID,
		"collectionId": collectionID,
		"itemId":       itemID,
	}
	return []Link{
		{Rel: RelSelf, Href: l.mustExpand("/catalogs/{catalogId}/collections/{collectionId}/items/{itemId}", vars), Type: MediaTypeGeoJSON},
		{Rel: RelRoot, Href: l.base + "/", Type: MediaTypeJSON},
		{Rel: RelParent, Href: l.mustExpand("/catalogs/{catalogId}/collections/{collectionId}", vars), Type: MediaTypeJSON},
		{Rel: RelCollection, Href: l.mustExpand("/catalogs/{catalogId}/collections/{collectionId}", vars), Type: MediaTypeJSON},
	}
}

// Child links from the landing page or a parent catalog to a catalog.
func (l *Linker) Child(catalogID, title string) Link {
	return Link{
		Rel:   RelChild,
		Href:  l.mustExpand("/catalogs/{catalogId}", map[string]interface{}{"catalogId": catalogID}),
		Type:  MediaTypeJSON,
		Title: title,
	}
}
