/*
Package schema defines request models for catalog API routes and the
synthesizer that merges them with extension-contributed mixins.

A model is an ordered set of typed fields. Each field declares where it
is read from (path, query, or body), its type, and optional constraints.
Base models describe what a route accepts with no extensions active;
extensions contribute mixins, and Synthesize merges them:

	model, err := schema.Synthesize("SearchGetRequest", base,
	    sortMixin, fieldsMixin)

Merging is deterministic: base fields first, then mixin fields in mixin
order. A field name declared twice with the same type collapses to the
first occurrence; declared with different types it is a *ConflictError
naming both fragments. Synthesis happens once at assembly, never per
request, and identical inputs return the same cached *Model.

# Field Types

	string   text value
	int      integer value
	float    floating-point value
	bool     boolean value
	strings  array of strings (comma-separated in query strings)
	floats   array of floats (comma-separated in query strings)
	json     arbitrary JSON value (JSON-encoded when in a query string)

# Decoding

Model.Decode reads an incoming request into a typed, immutable Request
bag, reporting the first failure as a *ValidationError:

	req, err := model.Decode(r, pathParam)
	limit := req.Int("limit")
*/
package schema
