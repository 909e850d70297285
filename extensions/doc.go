// Package extensions provides the built-in capability extensions:
// query, sort, fields, filter, pagination, token pagination, context,
// transaction, collection search, and discovery search.
//
// Mixin-only extensions contribute request parameters to the search
// and listing models. Transaction, filter, and discovery search also
// register routes of their own through the API's registration hook.
// All extensions are immutable; construct them once and hand them to
// the binding.
package extensions
