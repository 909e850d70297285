package api

import (
	"net/http"

	"github.com/stacgate/stacgate/core/extension"
	"github.com/stacgate/stacgate/core/registry"
	"github.com/stacgate/stacgate/pkg/stac"
)

// registerCore adds the core catalog routes in their fixed order. The
// order does not affect routing but fixes generated-documentation and
// route-table ordering, so it must not be rearranged.
func (a *API) registerCore() error {
	steps := []func() error{
		a.registerLandingPage,
		a.registerConformanceClasses,
		a.registerGetItem,
		a.registerPostGlobalSearch,
		a.registerGetGlobalSearch,
		a.registerPostSearch,
		a.registerGetSearch,
		a.registerGetCollections,
		a.registerGetCatalogs,
		a.registerGetCollection,
		a.registerGetCatalog,
		a.registerGetItemCollection,
		a.registerGetCatalogCollections,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}

// registerLandingPage registers GET /.
func (a *API) registerLandingPage() error {
	return a.registry.Add(registry.Route{
		Name:          "LandingPage",
		Path:          "/",
		Methods:       []string{http.MethodGet},
		RequestModel:  a.models.empty,
		ResponseModel: "LandingPage",
		Handler:       Endpoint(a, a.client.landingPage, a.models.empty, http.StatusOK, stac.MediaTypeJSON),
	})
}

// registerConformanceClasses registers GET /conformance.
func (a *API) registerConformanceClasses() error {
	return a.registry.Add(registry.Route{
		Name:          "ConformanceClasses",
		Path:          "/conformance",
		Methods:       []string{http.MethodGet},
		RequestModel:  a.models.empty,
		ResponseModel: "Conformance",
		Handler:       Endpoint(a, a.client.conformance, a.models.empty, http.StatusOK, stac.MediaTypeJSON),
	})
}

// registerGetItem registers GET /catalogs/{catalog_id}/collections/{collection_id}/items/{item_id}.
func (a *API) registerGetItem() error {
	return a.registry.Add(registry.Route{
		Name:          "GetItem",
		Path:          "/catalogs/{catalog_id}/collections/{collection_id}/items/{item_id}",
		Methods:       []string{http.MethodGet},
		RequestModel:  a.models.itemURI,
		ResponseModel: "Item",
		Handler:       Endpoint(a, a.client.getItem, a.models.itemURI, http.StatusOK, stac.MediaTypeGeoJSON),
	})
}

// registerPostGlobalSearch registers POST /search, searching items
// across all catalogs with body parameters.
func (a *API) registerPostGlobalSearch() error {
	return a.registry.Add(registry.Route{
		Name:          "PostGlobalSearch",
		Path:          "/search",
		Methods:       []string{http.MethodPost},
		RequestModel:  a.models.searchPost,
		ResponseModel: a.searchResponseModel(),
		Handler:       Endpoint(a, a.client.postGlobalSearch, a.models.searchPost, http.StatusOK, stac.MediaTypeGeoJSON),
	})
}

// registerGetGlobalSearch registers GET /search.
func (a *API) registerGetGlobalSearch() error {
	return a.registry.Add(registry.Route{
		Name:          "GetGlobalSearch",
		Path:          "/search",
		Methods:       []string{http.MethodGet},
		RequestModel:  a.models.searchGet,
		ResponseModel: a.searchResponseModel(),
		Handler:       Endpoint(a, a.client.getGlobalSearch, a.models.searchGet, http.StatusOK, stac.MediaTypeGeoJSON),
	})
}

// registerPostSearch registers POST /catalogs/{catalog_id}/search,
// searching items within one catalog.
func (a *API) registerPostSearch() error {
	return a.registry.Add(registry.Route{
		Name:          "PostSearch",
		Path:          "/catalogs/{catalog_id}/search",
		Methods:       []string{http.MethodPost},
		RequestModel:  a.models.catalogSearchPost,
		ResponseModel: a.searchResponseModel(),
		Handler:       Endpoint(a, a.client.postSearch, a.models.catalogSearchPost, http.StatusOK, stac.MediaTypeGeoJSON),
	})
}

// registerGetSearch registers GET /catalogs/{catalog_id}/search.
func (a *API) registerGetSearch() error {
	return a.registry.Add(registry.Route{
		Name:          "GetSearch",
		Path:          "/catalogs/{catalog_id}/search",
		Methods:       []string{http.MethodGet},
		RequestModel:  a.models.catalogSearchGet,
		ResponseModel: a.searchResponseModel(),
		Handler:       Endpoint(a, a.client.getSearch, a.models.catalogSearchGet, http.StatusOK, stac.MediaTypeGeoJSON),
	})
}

// registerGetCollections registers GET /collections. With collection
// search active the route decodes that extension's request model and
// the declared response opens up.
func (a *API) registerGetCollections() error {
	responseModel := "Collections"
	if a.exts.Has(extension.CollectionSearch) {
		responseModel = ""
	}
	return a.registry.Add(registry.Route{
		Name:          "GetCollections",
		Path:          "/collections",
		Methods:       []string{http.MethodGet},
		RequestModel:  a.models.collections,
		ResponseModel: responseModel,
		Handler:       Endpoint(a, a.client.allCollections, a.models.collections, http.StatusOK, stac.MediaTypeJSON),
	})
}

// registerGetCatalogs registers GET /catalogs.
func (a *API) registerGetCatalogs() error {
	return a.registry.Add(registry.Route{
		Name:          "GetCatalogs",
		Path:          "/catalogs",
		Methods:       []string{http.MethodGet},
		RequestModel:  a.models.empty,
		ResponseModel: "Catalogs",
		Handler:       Endpoint(a, a.client.allCatalogs, a.models.empty, http.StatusOK, stac.MediaTypeJSON),
	})
}

// registerGetCollection registers GET /catalogs/{catalog_id}/collections/{collection_id}.
func (a *API) registerGetCollection() error {
	return a.registry.Add(registry.Route{
		Name:          "GetCollection",
		Path:          "/catalogs/{catalog_id}/collections/{collection_id}",
		Methods:       []string{http.MethodGet},
		RequestModel:  a.models.collectionURI,
		ResponseModel: "Collection",
		Handler:       Endpoint(a, a.client.getCollection, a.models.collectionURI, http.StatusOK, stac.MediaTypeJSON),
	})
}

// registerGetCatalog registers GET /catalogs/{catalog_id}.
func (a *API) registerGetCatalog() error {
	return a.registry.Add(registry.Route{
		Name:          "GetCatalog",
		Path:          "/catalogs/{catalog_id}",
		Methods:       []string{http.MethodGet},
		RequestModel:  a.models.catalogURI,
		ResponseModel: "Catalog",
		Handler:       Endpoint(a, a.client.getCatalog, a.models.catalogURI, http.StatusOK, stac.MediaTypeJSON),
	})
}

// registerGetItemCollection registers GET
// /catalogs/{catalog_id}/collections/{collection_id}/items. The request
// model carries the active pagination extension's fields.
func (a *API) registerGetItemCollection() error {
	return a.registry.Add(registry.Route{
		Name:          "GetItemCollection",
		Path:          "/catalogs/{catalog_id}/collections/{collection_id}/items",
		Methods:       []string{http.MethodGet},
		RequestModel:  a.models.itemCollection,
		ResponseModel: "ItemCollection",
		Handler:       Endpoint(a, a.client.itemCollection, a.models.itemCollection, http.StatusOK, stac.MediaTypeGeoJSON),
	})
}

// registerGetCatalogCollections registers GET /catalogs/{catalog_id}/collections.
func (a *API) registerGetCatalogCollections() error {
	return a.registry.Add(registry.Route{
		Name:          "GetCatalogCollections",
		Path:          "/catalogs/{catalog_id}/collections",
		Methods:       []string{http.MethodGet},
		RequestModel:  a.models.catalogURI,
		ResponseModel: "Collections",
		Handler:       Endpoint(a, a.client.catalogCollections, a.models.catalogURI, http.StatusOK, stac.MediaTypeJSON),
	})
}

// registerPing registers the GET /_mgmt/ping liveness probe. The body
// is fixed; extensions and overlays never touch this route.
func (a *API) registerPing() error {
	return a.registry.Add(registry.Route{
		Name:    "Ping",
		Path:    "/_mgmt/ping",
		Methods: []string{http.MethodGet},
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			a.writeResponse(w, http.StatusOK, stac.MediaTypeJSON, map[string]string{"message": "PONG"})
		}),
		Tags: []string{"Liveliness/Readiness"},
	})
}

// searchResponseModel resolves the declared response schema for the
// search routes. The fields extension prunes response attributes per
// request, so a static declared schema would be wrong; it opens up.
func (a *API) searchResponseModel() string {
	if a.exts.Has(extension.Fields) {
		return ""
	}
	return "ItemCollection"
}
