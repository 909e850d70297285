package api

import (
	"fmt"

	"github.com/stacgate/stacgate/core/dispatch"
	"github.com/stacgate/stacgate/core/schema"
	"github.com/stacgate/stacgate/pkg/stac"
	"github.com/stacgate/stacgate/ports"
)

// coreMethods holds the client's operations bound through the dispatch
// adapter. After binding, the rest of the engine calls them uniformly
// and cannot tell which concurrency variant the client implements.
type coreMethods struct {
	landingPage        dispatch.Method[*schema.Request, stac.LandingPage]
	conformance        dispatch.Method[*schema.Request, stac.Conformance]
	getItem            dispatch.Method[*schema.Request, stac.Item]
	postGlobalSearch   dispatch.Method[*schema.Request, stac.ItemCollection]
	getGlobalSearch    dispatch.Method[*schema.Request, stac.ItemCollection]
	postSearch         dispatch.Method[*schema.Request, stac.ItemCollection]
	getSearch          dispatch.Method[*schema.Request, stac.ItemCollection]
	allCollections     dispatch.Method[*schema.Request, stac.Collections]
	allCatalogs        dispatch.Method[*schema.Request, stac.Catalogs]
	getCollection      dispatch.Method[*schema.Request, stac.Collection]
	getCatalog         dispatch.Method[*schema.Request, stac.Catalog]
	itemCollection     dispatch.Method[*schema.Request, stac.ItemCollection]
	catalogCollections dispatch.Method[*schema.Request, stac.Collections]
}

// bindClient wraps the supplied client's methods. A client implementing
// both contracts binds as suspending.
func bindClient(client any) (coreMethods, error) {
	switch c := client.(type) {
	case ports.CoreClient:
		return coreMethods{
			landingPage:        dispatch.Suspending(c.LandingPage),
			conformance:        dispatch.Suspending(c.Conformance),
			getItem:            dispatch.Suspending(c.GetItem),
			postGlobalSearch:   dispatch.Suspending(c.PostGlobalSearch),
			getGlobalSearch:    dispatch.Suspending(c.GetGlobalSearch),
			postSearch:         dispatch.Suspending(c.PostSearch),
			getSearch:          dispatch.Suspending(c.GetSearch),
			allCollections:     dispatch.Suspending(c.AllCollections),
			allCatalogs:        dispatch.Suspending(c.AllCatalogs),
			getCollection:      dispatch.Suspending(c.GetCollection),
			getCatalog:         dispatch.Suspending(c.GetCatalog),
			itemCollection:     dispatch.Suspending(c.ItemCollection),
			catalogCollections: dispatch.Suspending(c.CatalogCollections),
		}, nil
	case ports.DirectCoreClient:
		return coreMethods{
			landingPage:        dispatch.Direct(c.LandingPage),
			conformance:        dispatch.Direct(c.Conformance),
			getItem:            dispatch.Direct(c.GetItem),
			postGlobalSearch:   dispatch.Direct(c.PostGlobalSearch),
			getGlobalSearch:    dispatch.Direct(c.GetGlobalSearch),
			postSearch:         dispatch.Direct(c.PostSearch),
			getSearch:          dispatch.Direct(c.GetSearch),
			allCollections:     dispatch.Direct(c.AllCollections),
			allCatalogs:        dispatch.Direct(c.AllCatalogs),
			getCollection:      dispatch.Direct(c.GetCollection),
			getCatalog:         dispatch.Direct(c.GetCatalog),
			itemCollection:     dispatch.Direct(c.ItemCollection),
			catalogCollections: dispatch.Direct(c.CatalogCollections),
		}, nil
	}
	return coreMethods{}, fmt.Errorf("api: client %T implements neither ports.CoreClient nor ports.DirectCoreClient", client)
}
