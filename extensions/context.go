package extensions

import (
	"github.com/stacgate/stacgate/core/extension"
)

// Context advertises result-set count metadata (returned, limit,
// matched) on search responses. It contributes no request parameters;
// clients populate the context block themselves.
type Context struct{}

func (Context) Kind() extension.Kind { return extension.Context }

func (Context) ConformanceURIs() []string {
	return []string{"https://api.stacspec.org/v1.0.0/item-search#context"}
}
