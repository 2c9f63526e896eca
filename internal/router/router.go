// Package router compiles structured queries into canonical request URLs.
package router

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/fivetwenty-io/japi/pkg/japi"
)

// Router builds request URLs from a base endpoint and the registered
// resource types. Query components compile in a fixed order — id segment,
// include, filters, fieldsets, sort, pagination — and within each component
// in declaration order, so compilation is deterministic.
type Router struct {
	baseURL  string
	registry *japi.Registry
}

// New creates a router. The base URL is used without a trailing slash.
func New(baseURL string, registry *japi.Registry) *Router {
	return &Router{
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		registry: registry,
	}
}

// queryItem is one key/value pair of the compiled query string. A slice of
// items keeps declaration order; url.Values would sort keys on encoding.
type queryItem struct {
	key   string
	value string
}

// URLForResourceType returns the collection URL for a type. Unregistered
// types use their name as the path segment.
func (r *Router) URLForResourceType(name string) string {
	segment := name
	if t, err := r.registry.Type(name); err == nil {
		segment = t.PathSegment()
	}

	return r.baseURL + "/" + segment
}

// URLForResource returns the canonical URL of a single resource, preferring
// its self link when known.
func (r *Router) URLForResource(res *japi.Resource) string {
	if res.URL != "" {
		return res.URL
	}

	return r.URLForResourceType(res.Type) + "/" + res.ID
}

// URLForRelationship returns the relationship's own URL, preferring the self
// link retained from deserialization.
func (r *Router) URLForRelationship(res *japi.Resource, name string) (string, error) {
	if rel, ok := res.Relationships[name]; ok {
		switch v := rel.(type) {
		case *japi.ToOneRelationship:
			if v.SelfURL != "" {
				return v.SelfURL, nil
			}
		case *japi.ToManyRelationship:
			if v.SelfURL != "" {
				return v.SelfURL, nil
			}
		}
	}

	if res.ID == "" {
		return "", fmt.Errorf("%w: %q on unpersisted %q", japi.ErrRelationshipURLMissing, name, res.Type)
	}

	key := name
	if res.Schema != nil {
		if field, err := res.Schema.Field(name); err == nil {
			key = res.Schema.WireKey(field)
		}
	}

	return r.URLForResource(res) + "/relationships/" + key, nil
}

// URLForQuery compiles a query into a concrete request URL.
//
// A query carrying a pre-built URL reuses it verbatim as the base; filters,
// fieldsets, sorts, and pagination are still appended, while the id segment
// and type path are only built for type-based queries.
func (r *Router) URLForQuery(query *japi.Query) (string, error) {
	var (
		base  string
		items []queryItem
	)

	switch {
	case query.URL != "":
		base = query.URL
	case query.ResourceType != "":
		base = r.URLForResourceType(query.ResourceType)

		switch len(query.ResourceIDs) {
		case 0:
		case 1:
			base += "/" + query.ResourceIDs[0]
		default:
			items = append(items, queryItem{key: "filter[id]", value: strings.Join(query.ResourceIDs, ",")})
		}
	default:
		return "", japi.ErrInvalidQuery
	}

	items = append(items, r.includeItems(query)...)
	items = append(items, r.filterItems(query)...)
	items = append(items, r.fieldsetItems(query)...)
	items = append(items, r.sortItems(query)...)

	if query.Page != nil {
		for _, param := range query.Page.PageParams() {
			items = append(items, queryItem{key: param.Key, value: param.Value})
		}
	}

	return appendQuery(base, items), nil
}

// includeItems compiles the include paths, resolving each dot segment's key
// through the declared relationship of the type reached so far. Segments
// with no matching relationship field pass through verbatim, which supports
// including through relationships of unregistered types.
func (r *Router) includeItems(query *japi.Query) []queryItem {
	if len(query.Includes) == 0 {
		return nil
	}

	paths := make([]string, 0, len(query.Includes))
	for _, path := range query.Includes {
		paths = append(paths, r.resolveIncludePath(query.ResourceType, path))
	}

	return []queryItem{{key: "include", value: strings.Join(paths, ",")}}
}

func (r *Router) resolveIncludePath(resourceType, path string) string {
	segments := strings.Split(path, ".")
	resolved := make([]string, 0, len(segments))
	currentType := resourceType

	for _, segment := range segments {
		key := segment
		nextType := ""

		if t, err := r.registry.Type(currentType); err == nil {
			if field, err := t.Field(segment); err == nil && field.IsRelationship() {
				key = t.WireKey(field)
				nextType = field.LinkedType
			}
		}

		resolved = append(resolved, key)
		currentType = nextType
	}

	return strings.Join(resolved, ".")
}

// filterItems compiles per-field filters. Field names declared on the
// query's resource type resolve to their wire keys; undeclared names are
// used literally, supporting filters on computed server-side keys.
func (r *Router) filterItems(query *japi.Query) []queryItem {
	items := make([]queryItem, 0, len(query.Filters))

	for _, filter := range query.Filters {
		key := r.resolveFieldKey(query.ResourceType, filter.Field)
		items = append(items, queryItem{
			key:   "filter[" + key + "]",
			value: strings.Join(filter.Values, ","),
		})
	}

	return items
}

// fieldsetItems compiles one fields[type] group per fieldset, resolving the
// member names through that type's declared wire keys.
func (r *Router) fieldsetItems(query *japi.Query) []queryItem {
	items := make([]queryItem, 0, len(query.Fieldsets))

	for _, fieldset := range query.Fieldsets {
		keys := make([]string, 0, len(fieldset.Fields))
		for _, name := range fieldset.Fields {
			keys = append(keys, r.resolveFieldKey(fieldset.Type, name))
		}

		items = append(items, queryItem{
			key:   "fields[" + fieldset.Type + "]",
			value: strings.Join(keys, ","),
		})
	}

	return items
}

func (r *Router) sortItems(query *japi.Query) []queryItem {
	if len(query.Sorts) == 0 {
		return nil
	}

	keys := make([]string, 0, len(query.Sorts))

	for _, sort := range query.Sorts {
		key := r.resolveFieldKey(query.ResourceType, sort.Field)
		if sort.Descending {
			key = "-" + key
		}

		keys = append(keys, key)
	}

	return []queryItem{{key: "sort", value: strings.Join(keys, ",")}}
}

func (r *Router) resolveFieldKey(resourceType, name string) string {
	if t, err := r.registry.Type(resourceType); err == nil {
		if field, err := t.Field(name); err == nil {
			return t.WireKey(field)
		}
	}

	return name
}

// appendQuery attaches the compiled items to the base URL, joining with "&"
// when the base already carries a query string.
func appendQuery(base string, items []queryItem) string {
	if len(items) == 0 {
		return base
	}

	pairs := make([]string, 0, len(items))
	for _, item := range items {
		pairs = append(pairs, escapeComponent(item.key)+"="+escapeComponent(item.value))
	}

	separator := "?"
	if strings.Contains(base, "?") {
		separator = "&"
	}

	return base + separator + strings.Join(pairs, "&")
}

var queryUnescaper = strings.NewReplacer("%5B", "[", "%5D", "]", "%2C", ",", "+", "%20")

// escapeComponent percent-escapes a query component while keeping the
// bracket and comma characters JSON:API URLs conventionally carry literally.
func escapeComponent(s string) string {
	return queryUnescaper.Replace(url.QueryEscape(s))
}
