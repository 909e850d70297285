package extensions

import (
	"fmt"
	"net/http"

	"github.com/stacgate/stacgate/api"
	"github.com/stacgate/stacgate/core/dispatch"
	"github.com/stacgate/stacgate/core/extension"
	"github.com/stacgate/stacgate/core/registry"
	"github.com/stacgate/stacgate/core/schema"
	"github.com/stacgate/stacgate/pkg/stac"
	"github.com/stacgate/stacgate/ports"
)

// DiscoverySearch registers free-text collection discovery across all
// catalogs at /discovery-search. It carries its own client, which must
// implement ports.DiscoveryClient or ports.DirectDiscoveryClient.
type DiscoverySearch struct {
	client any
}

// NewDiscoverySearch builds the extension around a discovery-capable
// client.
func NewDiscoverySearch(client any) *DiscoverySearch {
	return &DiscoverySearch{client: client}
}

var (
	discoveryGetModel = schema.NewModel("DiscoverySearchGetRequest",
		schema.Field{Name: "q", Type: schema.FieldTypeString, Doc: "Free-text search terms"},
		schema.Field{Name: "limit", Type: schema.FieldTypeInt, Doc: "Maximum number of collections to return",
			Constraints: []schema.Constraint{schema.Min(1), schema.Max(10000)}},
	)
	discoveryPostModel = schema.NewModel("DiscoverySearchPostRequest",
		schema.Field{Name: "q", Type: schema.FieldTypeString, In: schema.LocationBody, Doc: "Free-text search terms"},
		schema.Field{Name: "limit", Type: schema.FieldTypeInt, In: schema.LocationBody, Doc: "Maximum number of collections to return",
			Constraints: []schema.Constraint{schema.Min(1), schema.Max(10000)}},
	)
)

func (*DiscoverySearch) Kind() extension.Kind { return extension.DiscoverySearch }

func (*DiscoverySearch) ConformanceURIs() []string {
	return []string{"https://api.stacspec.org/v1.0.0-rc.1/discovery-search"}
}

// Register adds GET and POST /discovery-search.
func (d *DiscoverySearch) Register(a *api.API) error {
	var search dispatch.Method[*schema.Request, stac.Collections]
	switch c := d.client.(type) {
	case ports.DiscoveryClient:
		search = dispatch.Suspending(c.DiscoverySearch)
	case ports.DirectDiscoveryClient:
		search = dispatch.Direct(c.DiscoverySearch)
	default:
		return fmt.Errorf("discovery-search extension: client %T implements neither ports.DiscoveryClient nor ports.DirectDiscoveryClient", d.client)
	}

	routes := []registry.Route{
		{
			Name:          "GetDiscoverySearch",
			Path:          "/discovery-search",
			Methods:       []string{http.MethodGet},
			RequestModel:  discoveryGetModel,
			ResponseModel: "Collections",
			Handler:       api.Endpoint(a, search, discoveryGetModel, http.StatusOK, stac.MediaTypeJSON),
		},
		{
			Name:          "PostDiscoverySearch",
			Path:          "/discovery-search",
			Methods:       []string{http.MethodPost},
			RequestModel:  discoveryPostModel,
			ResponseModel: "Collections",
			Handler:       api.Endpoint(a, search, discoveryPostModel, http.StatusOK, stac.MediaTypeJSON),
		},
	}
	for _, rt := range routes {
		if err := a.AddRoute(rt); err != nil {
			return err
		}
	}
	return nil
}
