// Package stac provides SpatioTemporal Asset Catalog (STAC) wire types
// and link builders. See https://stacspec.org for the full specification.
package stac

import "encoding/json"

// Link relates a STAC object to another resource.
type Link struct {
	Rel    string `json:"rel"`
	Href   string `json:"href"`
	Type   string `json:"type,omitempty"`
	Title  string `json:"title,omitempty"`
	Method string `json:"method,omitempty"`
}

// LandingPage is the root catalog document served at GET /.
type LandingPage struct {
	Type        string   `json:"type"`
	ID          string   `json:"id"`
	STACVersion string   `json:"stac_version"`
	Title       string   `json:"title,omitempty"`
	Description string   `json:"description"`
	ConformsTo  []string `json:"conformsTo"`
	Links       []Link   `json:"links"`
}

// Conformance lists the conformance classes the service implements.
type Conformance struct {
	ConformsTo []string `json:"conformsTo"`
}

// Catalog groups collections and other catalogs.
type Catalog struct {
	Type        string `json:"type"`
	ID          string `json:"id"`
	STACVersion string `json:"stac_version"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description"`
	Links       []Link `json:"links"`
}

// Catalogs is a paged set of catalogs.
type Catalogs struct {
	Catalogs []Catalog `json:"catalogs"`
	Links    []Link    `json:"links"`
	Context  *Context  `json:"context,omitempty"`
}

// Provider identifies an organization that captures or processes collection data.
type Provider struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Roles       []string `json:"roles,omitempty"`
	URL         string   `json:"url,omitempty"`
}

// SpatialExtent describes the bounding boxes covered by a collection.
type SpatialExtent struct {
	BBox [][]float64 `json:"bbox"`
}

// TemporalExtent describes the time intervals covered by a collection.
// Open intervals use null endpoints.
type TemporalExtent struct {
	Interval [][]*string `json:"interval"`
}

// Extent combines the spatial and temporal coverage of a collection.
type Extent struct {
	Spatial  SpatialExtent  `json:"spatial"`
	Temporal TemporalExtent `json:"temporal"`
}

// Collection describes a group of items sharing schema and extent.
type Collection struct {
	Type        string         `json:"type"`
	ID          string         `json:"id"`
	STACVersion string         `json:"stac_version"`
	Title       string         `json:"title,omitempty"`
	Description string         `json:"description"`
	Keywords    []string       `json:"keywords,omitempty"`
	License     string         `json:"license"`
	Providers   []Provider     `json:"providers,omitempty"`
	Extent      Extent         `json:"extent"`
	Summaries   map[string]any `json:"summaries,omitempty"`
	Links       []Link         `json:"links"`
}

// Collections is a paged set of collections.
type Collections struct {
	Collections []Collection `json:"collections"`
	Links       []Link       `json:"links"`
	Context     *Context     `json:"context,omitempty"`
}

// Asset points at data associated with an item.
type Asset struct {
	Href  string   `json:"href"`
	Type  string   `json:"type,omitempty"`
	Title string   `json:"title,omitempty"`
	Roles []string `json:"roles,omitempty"`
}

// Item is a GeoJSON Feature carrying STAC metadata.
// Geometry is kept raw; this engine never interprets payload encodings.
type Item struct {
	Type        string           `json:"type"`
	ID          string           `json:"id"`
	STACVersion string           `json:"stac_version"`
	Collection  string           `json:"collection,omitempty"`
	Geometry    json.RawMessage  `json:"geometry"`
	BBox        []float64        `json:"bbox,omitempty"`
	Properties  map[string]any   `json:"properties"`
	Assets      map[string]Asset `json:"assets"`
	Links       []Link           `json:"links"`
}

// ItemCollection is a GeoJSON FeatureCollection of items.
type ItemCollection struct {
	Type     string   `json:"type"`
	Features []Item   `json:"features"`
	Links    []Link   `json:"links,omitempty"`
	Context  *Context `json:"context,omitempty"`
}

// Context reports result-set counts when the context capability is active.
type Context struct {
	Returned int  `json:"returned"`
	Limit    int  `json:"limit,omitempty"`
	Matched  *int `json:"matched,omitempty"`
}

// Object type discriminators.
const (
	TypeCatalog           = "Catalog"
	TypeCollection        = "Collection"
	TypeFeature           = "Feature"
	TypeFeatureCollection = "FeatureCollection"
)

// Link relations used across documents.
const (
	RelSelf        = "self"
	RelRoot        = "root"
	RelParent      = "parent"
	RelChild       = "child"
	RelChildren    = "children"
	RelItem        = "item"
	RelItems       = "items"
	RelCollection  = "collection"
	RelConformance = "conformance"
	RelData        = "data"
	RelSearch      = "search"
	RelServiceDesc = "service-desc"
	RelServiceDoc  = "service-doc"
	RelNext        = "next"
	RelPrev        = "previous"
)

// Media types.
const (
	MediaTypeJSON    = "application/json"
	MediaTypeGeoJSON = "application/geo+json"
	MediaTypeOpenAPI = "application/vnd.oai.openapi+json;version=3.0"
	MediaTypeHTML    = "text/html"
)

// Version is the STAC specification version the documents declare.
const Version = "1.0.0"
