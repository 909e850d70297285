// Package conformance aggregates the conformance classes the assembled
// service advertises on its landing page and conformance routes.
package conformance

import "github.com/stacgate/stacgate/core/extension"

// Core conformance classes every deployment implements, independent of
// which extensions are active.
const (
	STACCore       = "https://api.stacspec.org/v1.0.0/core"
	STACFeatures   = "https://api.stacspec.org/v1.0.0/ogcapi-features"
	STACItemSearch = "https://api.stacspec.org/v1.0.0/item-search"
	OGCFeatCore    = "http://www.opengis.net/spec/ogcapi-features-1/1.0/conf/core"
	OGCFeatOAS30   = "http://www.opengis.net/spec/ogcapi-features-1/1.0/conf/oas30"
	OGCFeatGeoJSON = "http://www.opengis.net/spec/ogcapi-features-1/1.0/conf/geojson"
)

// Core returns the fixed core URI set in its documented order.
func Core() []string {
	return []string{
		STACCore,
		STACFeatures,
		STACItemSearch,
		OGCFeatCore,
		OGCFeatOAS30,
		OGCFeatGeoJSON,
	}
}

// Classes returns the core URI set concatenated with each active
// extension's URIs in extension-declaration order, duplicates removed
// keeping the first occurrence. The set is immutable after assembly,
// so this is a read-only derived view safe to compute per request.
func Classes(set *extension.Set) []string {
	core := Core()
	out := make([]string, 0, len(core))
	seen := make(map[string]struct{}, len(core))
	add := func(uri string) {
		if _, dup := seen[uri]; dup {
			return
		}
		seen[uri] = struct{}{}
		out = append(out, uri)
	}
	for _, uri := range core {
		add(uri)
	}
	if set != nil {
		for _, ext := range set.All() {
			for _, uri := range ext.ConformanceURIs() {
				add(uri)
			}
		}
	}
	return out
}
