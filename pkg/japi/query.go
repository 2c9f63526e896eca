package japi

import (
	"strconv"
	"strings"
)

// Filter is one per-field filter. Multiple values are comma-joined into a
// single filter[<field>] query item.
type Filter struct {
	Field  string
	Values []string
}

// Sort is one sort key. Descending keys compile with a "-" prefix.
type Sort struct {
	Field      string
	Descending bool
}

// Fieldset restricts the attributes and relationships returned for one
// resource type (a sparse fieldset).
type Fieldset struct {
	Type   string
	Fields []string
}

// PageParam is one pagination query item produced by a Pagination strategy.
type PageParam struct {
	Key   string
	Value string
}

// Pagination produces the strategy-specific pagination query items, in the
// order they should appear in the URL.
type Pagination interface {
	PageParams() []PageParam
}

// PageBasedPagination compiles to page[number] and page[size].
type PageBasedPagination struct {
	Number int
	Size   int
}

// PageParams implements Pagination.
func (p PageBasedPagination) PageParams() []PageParam {
	return []PageParam{
		{Key: "page[number]", Value: strconv.Itoa(p.Number)},
		{Key: "page[size]", Value: strconv.Itoa(p.Size)},
	}
}

// OffsetBasedPagination compiles to page[offset] and page[limit].
type OffsetBasedPagination struct {
	Offset int
	Limit  int
}

// PageParams implements Pagination.
func (p OffsetBasedPagination) PageParams() []PageParam {
	return []PageParam{
		{Key: "page[offset]", Value: strconv.Itoa(p.Offset)},
		{Key: "page[limit]", Value: strconv.Itoa(p.Limit)},
	}
}

// Query describes one request against the API: either a resource type plus
// ids/filters/sorts/includes/fieldsets/pagination, or an opaque pre-built
// URL. Filters, sorts, and fieldsets compile in declaration order, so the
// same query always produces byte-identical URLs.
type Query struct {
	// ResourceType names the target type. May be empty when URL is set.
	ResourceType string

	// URL is a pre-built request URL used verbatim as the base. Filters,
	// sorts, fieldsets, and pagination are still appended to it; the id
	// segment and type path are not.
	URL string

	ResourceIDs []string
	Filters     []Filter
	Sorts       []Sort
	Includes    []string
	Fieldsets   []Fieldset
	Page        Pagination
}

// NewQuery creates a query targeting a resource type.
func NewQuery(resourceType string) *Query {
	return &Query{ResourceType: resourceType}
}

// NewURLQuery creates a query around a pre-built URL, e.g. a pagination or
// relationship link reported by the server.
func NewURLQuery(url string) *Query {
	return &Query{URL: url}
}

// WithIDs restricts the query to the given resource ids. A single id
// compiles to a path segment, multiple ids to filter[id].
func (q *Query) WithIDs(ids ...string) *Query {
	q.ResourceIDs = append(q.ResourceIDs, ids...)

	return q
}

// WithFilter appends a per-field filter. Repeated calls for the same field
// append values to the existing filter, preserving first-declaration order.
func (q *Query) WithFilter(field string, values ...string) *Query {
	for i := range q.Filters {
		if q.Filters[i].Field == field {
			q.Filters[i].Values = append(q.Filters[i].Values, values...)

			return q
		}
	}

	q.Filters = append(q.Filters, Filter{Field: field, Values: values})

	return q
}

// WithSort appends sort keys. A "-" prefix marks a key as descending, as in
// the JSON:API sort parameter.
func (q *Query) WithSort(fields ...string) *Query {
	for _, field := range fields {
		if stripped, ok := strings.CutPrefix(field, "-"); ok {
			q.Sorts = append(q.Sorts, Sort{Field: stripped, Descending: true})
		} else {
			q.Sorts = append(q.Sorts, Sort{Field: field})
		}
	}

	return q
}

// WithInclude appends relationship key paths to include, dot-separated for
// nested relationships ("author.books").
func (q *Query) WithInclude(paths ...string) *Query {
	q.Includes = append(q.Includes, paths...)

	return q
}

// WithFields sets the sparse fieldset for a resource type, replacing any
// earlier fieldset declared for the same type.
func (q *Query) WithFields(resourceType string, fields ...string) *Query {
	for i := range q.Fieldsets {
		if q.Fieldsets[i].Type == resourceType {
			q.Fieldsets[i].Fields = fields

			return q
		}
	}

	q.Fieldsets = append(q.Fieldsets, Fieldset{Type: resourceType, Fields: fields})

	return q
}

// WithPagination sets the pagination strategy.
func (q *Query) WithPagination(page Pagination) *Query {
	q.Page = page

	return q
}
