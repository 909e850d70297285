package extensions

import (
	"github.com/stacgate/stacgate/core/extension"
	"github.com/stacgate/stacgate/core/schema"
)

// Pagination enables page-number paging of search and listing results.
// Paging advertises no conformance class; it is visible only through
// the request parameter and the next/previous response links.
type Pagination struct{}

var (
	pageGetMixin = &schema.Mixin{Name: "PaginationExtension", Fields: []schema.Field{
		{Name: "page", Type: schema.FieldTypeString, Doc: "Page number to return"},
	}}
	pagePostMixin = &schema.Mixin{Name: "PaginationExtension", Fields: []schema.Field{
		{Name: "page", Type: schema.FieldTypeString, In: schema.LocationBody, Doc: "Page number to return"},
	}}
)

func (Pagination) Kind() extension.Kind      { return extension.Pagination }
func (Pagination) ConformanceURIs() []string { return nil }
func (Pagination) GetMixin() *schema.Mixin   { return pageGetMixin }
func (Pagination) PostMixin() *schema.Mixin  { return pagePostMixin }

// TokenPagination enables opaque continuation-token paging. Preferred
// over page numbers when both are active.
type TokenPagination struct{}

var (
	tokenGetMixin = &schema.Mixin{Name: "TokenPaginationExtension", Fields: []schema.Field{
		{Name: "token", Type: schema.FieldTypeString, Doc: "Continuation token from a previous response"},
	}}
	tokenPostMixin = &schema.Mixin{Name: "TokenPaginationExtension", Fields: []schema.Field{
		{Name: "token", Type: schema.FieldTypeString, In: schema.LocationBody, Doc: "Continuation token from a previous response"},
	}}
)

func (TokenPagination) Kind() extension.Kind      { return extension.TokenPagination }
func (TokenPagination) ConformanceURIs() []string { return nil }
func (TokenPagination) GetMixin() *schema.Mixin   { return tokenGetMixin }
func (TokenPagination) PostMixin() *schema.Mixin  { return tokenPostMixin }
