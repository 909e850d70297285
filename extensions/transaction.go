package extensions

import (
	"context"
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

// Transaction registers the create/update/delete routes for items and
// collections. It carries its own client, which must implement
// ports.TransactionClient or ports.DirectTransactionClient; both
// variants serve identically.
type Transaction struct {
	client any
}

// NewTransaction builds the extension around a transaction-capable
// client. The client variant is checked when the extension registers.
func NewTransaction(client any) *Transaction {
	return &Transaction{client: client}
}

var (
	createItemModel = schema.NewModel("CreateItemRequest",
		pathField("catalog_id", "Catalog identifier"),
		pathField("collection_id", "Collection identifier"),
		documentField("item", "Item document to store"),
	)
	updateItemModel = schema.NewModel("UpdateItemRequest",
		pathField("catalog_id", "Catalog identifier"),
		pathField("collection_id", "Collection identifier"),
		pathField("item_id", "Item identifier"),
		documentField("item", "Replacement item document"),
	)
	deleteItemModel = schema.NewModel("DeleteItemRequest",
		pathField("catalog_id", "Catalog identifier"),
		pathField("collection_id", "Collection identifier"),
		pathField("item_id", "Item identifier"),
	)
	createCollectionModel = schema.NewModel("CreateCollectionRequest",
		pathField("catalog_id", "Catalog identifier"),
		documentField("collection", "Collection document to store"),
	)
	updateCollectionModel = schema.NewModel("UpdateCollectionRequest",
		pathField("catalog_id", "Catalog identifier"),
		pathField("collection_id", "Collection identifier"),
		documentField("collection", "Replacement collection document"),
	)
	deleteCollectionModel = schema.NewModel("DeleteCollectionRequest",
		pathField("catalog_id", "Catalog identifier"),
		pathField("collection_id", "Collection identifier"),
	)
)

func (*Transaction) Kind() extension.Kind { return extension.Transaction }

func (*Transaction) ConformanceURIs() []string {
	return []string{
		"https://api.stacspec.org/v1.0.0/ogcapi-features/extensions/transaction",
		"https://api.stacspec.org/v1.0.0/collections/extensions/transaction",
	}
}

// txMethods mirrors the core dispatch binding for the write operations.
// Deletes bind with an empty result so they flow through the same glue.
type txMethods struct {
	createItem       dispatch.Method[*schema.Request, stac.Item]
	updateItem       dispatch.Method[*schema.Request, stac.Item]
	deleteItem       dispatch.Method[*schema.Request, struct{}]
	createCollection dispatch.Method[*schema.Request, stac.Collection]
	updateCollection dispatch.Method[*schema.Request, stac.Collection]
	deleteCollection dispatch.Method[*schema.Request, struct{}]
}

func (t *Transaction) bind() (txMethods, error) {
	switch c := t.client.(type) {
	case ports.TransactionClient:
		return txMethods{
			createItem: dispatch.Suspending(c.CreateItem),
			updateItem: dispatch.Suspending(c.UpdateItem),
			deleteItem: dispatch.Suspending(func(ctx context.Context, req *schema.Request) (struct{}, error) {
				return struct{}{}, c.DeleteItem(ctx, req)
			}),
			createCollection: dispatch.Suspending(c.CreateCollection),
			updateCollection: dispatch.Suspending(c.UpdateCollection),
			deleteCollection: dispatch.Suspending(func(ctx context.Context, req *schema.Request) (struct{}, error) {
				return struct{}{}, c.DeleteCollection(ctx, req)
			}),
		}, nil
	case ports.DirectTransactionClient:
		return txMethods{
			createItem: dispatch.Direct(c.CreateItem),
			updateItem: dispatch.Direct(c.UpdateItem),
			deleteItem: dispatch.Direct(func(req *schema.Request) (struct{}, error) {
				return struct{}{}, c.DeleteItem(req)
			}),
			createCollection: dispatch.Direct(c.CreateCollection),
			updateCollection: dispatch.Direct(c.UpdateCollection),
			deleteCollection: dispatch.Direct(func(req *schema.Request) (struct{}, error) {
				return struct{}{}, c.DeleteCollection(req)
			}),
		}, nil
	}
	return txMethods{}, fmt.Errorf("transaction extension: client %T implements neither ports.TransactionClient nor ports.DirectTransactionClient", t.client)
}

// Register adds the write routes. Creates answer 201 with the stored
// document, updates answer 200, deletes answer 204 with no body.
func (t *Transaction) Register(a *api.API) error {
	m, err := t.bind()
	if err != nil {
		return err
	}

	const (
		collectionsPath = "/catalogs/{catalog_id}/collections"
		collectionPath  = "/catalogs/{catalog_id}/collections/{collection_id}"
		itemsPath       = "/catalogs/{catalog_id}/collections/{collection_id}/items"
		itemPath        = "/catalogs/{catalog_id}/collections/{collection_id}/items/{item_id}"
	)

	routes := []registry.Route{
		{
			Name:          "CreateItem",
			Path:          itemsPath,
			Methods:       []string{http.MethodPost},
			RequestModel:  createItemModel,
			ResponseModel: "Item",
			Handler:       api.Endpoint(a, m.createItem, createItemModel, http.StatusCreated, stac.MediaTypeGeoJSON),
		},
		{
			Name:          "UpdateItem",
			Path:          itemPath,
			Methods:       []string{http.MethodPut},
			RequestModel:  updateItemModel,
			ResponseModel: "Item",
			Handler:       api.Endpoint(a, m.updateItem, updateItemModel, http.StatusOK, stac.MediaTypeGeoJSON),
		},
		{
			Name:         "DeleteItem",
			Path:         itemPath,
			Methods:      []string{http.MethodDelete},
			RequestModel: deleteItemModel,
			Handler:      api.Endpoint(a, m.deleteItem, deleteItemModel, http.StatusNoContent, ""),
		},
		{
			Name:          "CreateCollection",
			Path:          collectionsPath,
			Methods:       []string{http.MethodPost},
			RequestModel:  createCollectionModel,
			ResponseModel: "Collection",
			Handler:       api.Endpoint(a, m.createCollection, createCollectionModel, http.StatusCreated, stac.MediaTypeJSON),
		},
		{
			Name:          "UpdateCollection",
			Path:          collectionPath,
			Methods:       []string{http.MethodPut},
			RequestModel:  updateCollectionModel,
			ResponseModel: "Collection",
			Handler:       api.Endpoint(a, m.updateCollection, updateCollectionModel, http.StatusOK, stac.MediaTypeJSON),
		},
		{
			Name:         "DeleteCollection",
			Path:         collectionPath,
			Methods:      []string{http.MethodDelete},
			RequestModel: deleteCollectionModel,
			Handler:      api.Endpoint(a, m.deleteCollection, deleteCollectionModel, http.StatusNoContent, ""),
		},
	}
	for _, rt := range routes {
		if err := a.AddRoute(rt); err != nil {
			return err
		}
	}
	return nil
}
