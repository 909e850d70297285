package bootstrap

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/stacgate/stacgate/adapters/memory"
	"github.com/stacgate/stacgate/adapters/sqlite"
	"github.com/stacgate/stacgate/core/extension"
	"github.com/stacgate/stacgate/core/schema"
	"github.com/stacgate/stacgate/extensions"
	"github.com/stacgate/stacgate/pkg/stac"
	"github.com/stacgate/stacgate/ports"
)

// buildExtensionSet instantiates the configured extensions. The
// transaction, filter, and discovery-search extensions carry a client;
// they receive forward handles because the storage client is built
// after the set (the client takes the completed binding).
func buildExtensionSet(names []string, tx any, queryables ports.QueryablesClient, discovery any) (*extension.Set, error) {
	exts := make([]extension.Extension, 0, len(names))
	for _, name := range names {
		kind := extension.ParseKind(name)
		ext, err := newExtension(kind, tx, queryables, discovery)
		if err != nil {
			return nil, err
		}
		exts = append(exts, ext)
	}
	return extension.NewSet(exts...), nil
}

func newExtension(kind extension.Kind, tx any, queryables ports.QueryablesClient, discovery any) (extension.Extension, error) {
	switch kind {
	case extension.Query:
		return extensions.Query{}, nil
	case extension.Sort:
		return extensions.Sort{}, nil
	case extension.Fields:
		return extensions.Fields{}, nil
	case extension.Context:
		return extensions.Context{}, nil
	case extension.Pagination:
		return extensions.Pagination{}, nil
	case extension.TokenPagination:
		return extensions.TokenPagination{}, nil
	case extension.CollectionSearch:
		return extensions.CollectionSearch{}, nil
	case extension.Filter:
		return extensions.NewFilter(queryables), nil
	case extension.Transaction:
		return extensions.NewTransaction(tx), nil
	case extension.DiscoverySearch:
		return extensions.NewDiscoverySearch(discovery), nil
	}
	return nil, fmt.Errorf("unknown extension %q", kind)
}

// memoryHandle forwards extension operations to the memory store set
// after construction.
type memoryHandle struct {
	store *memory.Store
}

var (
	_ ports.DirectTransactionClient = (*memoryHandle)(nil)
	_ ports.DirectDiscoveryClient   = (*memoryHandle)(nil)
	_ ports.QueryablesClient        = (*memoryHandle)(nil)
)

func (h *memoryHandle) CreateItem(req *schema.Request) (stac.Item, error) {
	return h.store.CreateItem(req)
}
func (h *memoryHandle) UpdateItem(req *schema.Request) (stac.Item, error) {
	return h.store.UpdateItem(req)
}
func (h *memoryHandle) DeleteItem(req *schema.Request) error {
	return h.store.DeleteItem(req)
}
func (h *memoryHandle) CreateCollection(req *schema.Request) (stac.Collection, error) {
	return h.store.CreateCollection(req)
}
func (h *memoryHandle) UpdateCollection(req *schema.Request) (stac.Collection, error) {
	return h.store.UpdateCollection(req)
}
func (h *memoryHandle) DeleteCollection(req *schema.Request) error {
	return h.store.DeleteCollection(req)
}
func (h *memoryHandle) DiscoverySearch(req *schema.Request) (stac.Collections, error) {
	return h.store.DiscoverySearch(req)
}
func (h *memoryHandle) Queryables(ctx context.Context, catalogID, collectionID string) (json.RawMessage, error) {
	return h.store.Queryables(ctx, catalogID, collectionID)
}

// sqliteHandle forwards extension operations to the sqlite client set
// after construction.
type sqliteHandle struct {
	client *sqlite.Client
}

var (
	_ ports.TransactionClient = (*sqliteHandle)(nil)
	_ ports.DiscoveryClient   = (*sqliteHandle)(nil)
	_ ports.QueryablesClient  = (*sqliteHandle)(nil)
)

func (h *sqliteHandle) CreateItem(ctx context.Context, req *schema.Request) (stac.Item, error) {
	return h.client.CreateItem(ctx, req)
}
func (h *sqliteHandle) UpdateItem(ctx context.Context, req *schema.Request) (stac.Item, error) {
	return h.client.UpdateItem(ctx, req)
}
func (h *sqliteHandle) DeleteItem(ctx context.Context, req *schema.Request) error {
	return h.client.DeleteItem(ctx, req)
}
func (h *sqliteHandle) CreateCollection(ctx context.Context, req *schema.Request) (stac.Collection, error) {
	return h.client.CreateCollection(ctx, req)
}
func (h *sqliteHandle) UpdateCollection(ctx context.Context, req *schema.Request) (stac.Collection, error) {
	return h.client.UpdateCollection(ctx, req)
}
func (h *sqliteHandle) DeleteCollection(ctx context.Context, req *schema.Request) error {
	return h.client.DeleteCollection(ctx, req)
}
func (h *sqliteHandle) DiscoverySearch(ctx context.Context, req *schema.Request) (stac.Collections, error) {
	return h.client.DiscoverySearch(ctx, req)
}
func (h *sqliteHandle) Queryables(ctx context.Context, catalogID, collectionID string) (json.RawMessage, error) {
	return h.client.Queryables(ctx, catalogID, collectionID)
}
