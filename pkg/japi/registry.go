package japi

import (
	"fmt"
	"net/url"
	"sort"
	"time"
)

// ValueFormatter converts attribute values between wire and in-memory
// representations. Parse runs on deserialization, Format on serialization.
type ValueFormatter interface {
	Parse(raw interface{}) (interface{}, error)
	Format(value interface{}) (interface{}, error)
}

// Registry holds the declared resource types and value formatters shared by
// the router and serializer. Register everything up front; the registry is
// read-only during operation execution and safe for concurrent reads.
type Registry struct {
	types      map[string]*ResourceType
	formatters map[string]ValueFormatter
}

// NewRegistry creates a registry with the built-in "date" and "url"
// formatters registered.
func NewRegistry() *Registry {
	return &Registry{
		types: make(map[string]*ResourceType),
		formatters: map[string]ValueFormatter{
			"date": &DateFormatter{},
			"url":  &URLFormatter{},
		},
	}
}

// RegisterType declares a resource type. A later registration under the same
// name replaces the earlier one.
func (r *Registry) RegisterType(t *ResourceType) {
	r.types[t.Name] = t
}

// RegisterFormatter registers a value formatter under a format name usable
// from Field.Format.
func (r *Registry) RegisterFormatter(name string, f ValueFormatter) {
	r.formatters[name] = f
}

// Type resolves a registered resource type by name.
func (r *Registry) Type(name string) (*ResourceType, error) {
	t, ok := r.types[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownResourceType, name)
	}

	return t, nil
}

// Types returns all registered resource types, sorted by name.
func (r *Registry) Types() []*ResourceType {
	types := make([]*ResourceType, 0, len(r.types))
	for _, t := range r.types {
		types = append(types, t)
	}

	sort.Slice(types, func(i, j int) bool { return types[i].Name < types[j].Name })

	return types
}

// Formatter resolves a registered formatter by name.
func (r *Registry) Formatter(name string) (ValueFormatter, error) {
	f, ok := r.formatters[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownValueFormatter, name)
	}

	return f, nil
}

// NewResource creates an empty, unpersisted resource of a registered type.
func (r *Registry) NewResource(typeName string) (*Resource, error) {
	t, err := r.Type(typeName)
	if err != nil {
		return nil, err
	}

	return NewResource(t), nil
}

// Stub creates an unloaded stub resource known only by its identity. The
// schema is attached when the type is registered; unregistered types still
// produce a usable schemaless stub so foreign references survive.
func (r *Registry) Stub(typeName, id string) *Resource {
	res := &Resource{
		Type:          typeName,
		ID:            id,
		Attributes:    make(map[string]interface{}),
		Relationships: make(map[string]Relationship),
	}

	if t, ok := r.types[typeName]; ok {
		res.Schema = t
	}

	return res
}

// DateFormatter converts between RFC 3339 strings and time.Time values.
type DateFormatter struct{}

// Parse implements ValueFormatter.
func (f *DateFormatter) Parse(raw interface{}) (interface{}, error) {
	s, ok := raw.(string)
	if !ok {
		return nil, fmt.Errorf("date value is %T, expected string", raw)
	}

	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, fmt.Errorf("parsing date %q: %w", s, err)
	}

	return t, nil
}

// Format implements ValueFormatter.
func (f *DateFormatter) Format(value interface{}) (interface{}, error) {
	t, ok := value.(time.Time)
	if !ok {
		return nil, fmt.Errorf("date value is %T, expected time.Time", value)
	}

	return t.UTC().Format(time.RFC3339), nil
}

// URLFormatter converts between strings and *url.URL values.
type URLFormatter struct{}

// Parse implements ValueFormatter.
func (f *URLFormatter) Parse(raw interface{}) (interface{}, error) {
	s, ok := raw.(string)
	if !ok {
		return nil, fmt.Errorf("url value is %T, expected string", raw)
	}

	u, err := url.Parse(s)
	if err != nil {
		return nil, fmt.Errorf("parsing url %q: %w", s, err)
	}

	return u, nil
}

// Format implements ValueFormatter.
func (f *URLFormatter) Format(value interface{}) (interface{}, error) {
	switch v := value.(type) {
	case *url.URL:
		return v.String(), nil
	case string:
		return v, nil
	default:
		return nil, fmt.Errorf("url value is %T, expected *url.URL", value)
	}
}
