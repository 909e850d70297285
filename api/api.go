// Package api assembles the catalog service's route table from a
// capability client, an extension set, and deployment policy. Assembly
// is deterministic: core routes register in a fixed order, extension
// hooks run next, the liveness probe is added, overlays attach route
// dependencies, and the table freezes. After New returns, the API is
// immutable and safe for concurrent request serving.
package api

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/stacgate/stacgate/core/extension"
	"github.com/stacgate/stacgate/core/registry"
	"github.com/stacgate/stacgate/ports"
)

// Config carries everything assembly needs. Binding identifies the
// deployment and holds the extension set; the same value must have
// been given to the client's constructor.
type Config struct {
	// Binding is the deployment identity shared with the client.
	Binding ports.Binding

	// Client implements ports.CoreClient or ports.DirectCoreClient.
	Client any

	// Exceptions overrides entries of the default status table.
	Exceptions StatusTable

	// Overlays attach dependencies to routes after registration.
	Overlays []registry.Overlay

	Logger zerolog.Logger
}

// Registrar is implemented by extensions that register whole routes.
// Hooks run after the core routes, in extension declaration order,
// and may reject assembly by returning an error.
type Registrar interface {
	Register(a *API) error
}

// API is the assembled composition engine.
type API struct {
	binding  ports.Binding
	client   coreMethods
	models   models
	exts     *extension.Set
	registry *registry.Registry
	status   StatusTable
	log      zerolog.Logger
}

// New assembles an API. Any schema conflict, route conflict, unknown
// client variant, or failing extension hook aborts assembly; a process
// must not serve from a partially assembled API.
func New(cfg Config) (*API, error) {
	binding := cfg.Binding
	if binding.Extensions == nil {
		binding.Extensions = extension.NewSet()
	}

	client, err := bindClient(cfg.Client)
	if err != nil {
		return nil, err
	}
	mdl, err := buildModels(binding.Extensions)
	if err != nil {
		return nil, fmt.Errorf("api: build request models: %w", err)
	}

	a := &API{
		binding:  binding,
		client:   client,
		models:   mdl,
		exts:     binding.Extensions,
		registry: registry.New(),
		status:   DefaultStatusCodes().merge(cfg.Exceptions),
		log:      cfg.Logger.With().Str("component", "api").Logger(),
	}

	if err := a.registerCore(); err != nil {
		return nil, fmt.Errorf("api: register core routes: %w", err)
	}
	for _, ext := range a.exts.All() {
		hook, ok := ext.(Registrar)
		if !ok {
			continue
		}
		if err := hook.Register(a); err != nil {
			return nil, fmt.Errorf("api: register extension %q: %w", ext.Kind(), err)
		}
	}
	if err := a.registerPing(); err != nil {
		return nil, fmt.Errorf("api: register liveness probe: %w", err)
	}

	attached, err := a.registry.ApplyOverlays(cfg.Overlays)
	if err != nil {
		return nil, fmt.Errorf("api: apply route dependencies: %w", err)
	}
	a.registry.Freeze()

	a.log.Info().
		Int("routes", a.registry.Len()).
		Int("extensions", a.exts.Len()).
		Int("dependency_attachments", attached).
		Msg("api assembled")
	return a, nil
}

// Binding returns the deployment identity the API was assembled with.
func (a *API) Binding() ports.Binding { return a.binding }

// Extensions returns the active extension set.
func (a *API) Extensions() *extension.Set { return a.exts }

// Routes returns the frozen route table in registration order.
func (a *API) Routes() []*registry.Route { return a.registry.Routes() }

// Lookup finds the route serving a method and concrete path.
func (a *API) Lookup(method, path string) (*registry.Route, bool) {
	return a.registry.Lookup(method, path)
}

// AddRoute registers an extension route. Only valid during assembly,
// from a Registrar hook; the table is frozen afterwards.
func (a *API) AddRoute(rt registry.Route) error {
	return a.registry.Add(rt)
}
