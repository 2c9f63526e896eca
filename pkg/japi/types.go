package japi

import (
	"fmt"
)

// FieldKind distinguishes the declared field categories of a resource type.
type FieldKind int

const (
	// FieldAttribute is a scalar or structured attribute field.
	FieldAttribute FieldKind = iota

	// FieldToOne is a to-one relationship field.
	FieldToOne

	// FieldToMany is a to-many relationship field.
	FieldToMany
)

// Field describes one declared attribute or relationship of a resource type.
type Field struct {
	// Name is the field name used on in-memory resources.
	Name string `json:"name" yaml:"name"`

	// Kind selects between attribute, to-one, and to-many fields.
	Kind FieldKind `json:"kind" yaml:"kind"`

	// WireKey overrides the key used in wire documents. Empty means Name.
	WireKey string `json:"wire_key,omitempty" yaml:"wire_key,omitempty"`

	// LinkedType is the resource type a relationship field points at.
	// Only meaningful for FieldToOne and FieldToMany.
	LinkedType string `json:"linked_type,omitempty" yaml:"linked_type,omitempty"`

	// Format names a registered value formatter applied to attribute
	// values when crossing the wire, e.g. "date" or "url".
	Format string `json:"format,omitempty" yaml:"format,omitempty"`
}

// IsRelationship reports whether the field is a to-one or to-many relationship.
func (f *Field) IsRelationship() bool {
	return f.Kind == FieldToOne || f.Kind == FieldToMany
}

// ResourceType is the declared schema for one resource kind.
type ResourceType struct {
	// Name is the JSON:API type string, e.g. "articles".
	Name string `json:"name" yaml:"name"`

	// Path overrides the collection path segment under the base URL.
	// Empty means Name is used verbatim.
	Path string `json:"path,omitempty" yaml:"path,omitempty"`

	// Fields are the declared attributes and relationships.
	Fields []*Field `json:"fields" yaml:"fields"`
}

// Field resolves a declared field by name.
func (t *ResourceType) Field(name string) (*Field, error) {
	for _, field := range t.Fields {
		if field.Name == name {
			return field, nil
		}
	}

	return nil, fmt.Errorf("%w: %q on type %q", ErrUnknownField, name, t.Name)
}

// FieldForWireKey resolves a declared field by its wire key.
func (t *ResourceType) FieldForWireKey(key string) (*Field, bool) {
	for _, field := range t.Fields {
		if t.WireKey(field) == key {
			return field, true
		}
	}

	return nil, false
}

// WireKey returns the key a field uses in wire documents.
func (t *ResourceType) WireKey(f *Field) string {
	if f.WireKey != "" {
		return f.WireKey
	}

	return f.Name
}

// PathSegment returns the collection path segment for the type.
func (t *ResourceType) PathSegment() string {
	if t.Path != "" {
		return t.Path
	}

	return t.Name
}

// ResourceIdentity is the (type, id) pair identifying a resource.
type ResourceIdentity struct {
	Type string
	ID   string
}

// Resource is a single in-memory resource instance.
//
// A resource is created either by the caller (new, unpersisted, empty ID) or
// by the deserializer (fetched or stub). Its ID is assigned once, on first
// save or first deserialization, and is immutable afterwards. The same
// instance may be shared by many relationships; never copy a Resource by
// value.
type Resource struct {
	// Type is the JSON:API type string.
	Type string

	// ID is empty for resources that have not been persisted yet.
	ID string

	// URL is the canonical self URL, when known.
	URL string

	// IsLoaded distinguishes a fully fetched resource from a stub that
	// exists only to satisfy a relationship reference.
	IsLoaded bool

	// Schema is the declared type the resource was instantiated from.
	Schema *ResourceType

	// Attributes maps declared attribute names to values.
	Attributes map[string]interface{}

	// Relationships maps declared relationship names to their values.
	Relationships map[string]Relationship

	// Meta holds resource-level meta from the wire document.
	Meta map[string]interface{}
}

// NewResource creates an empty, unpersisted resource for a schema.
func NewResource(schema *ResourceType) *Resource {
	return &Resource{
		Type:          schema.Name,
		Schema:        schema,
		Attributes:    make(map[string]interface{}),
		Relationships: make(map[string]Relationship),
	}
}

// Identity returns the (type, id) identity of the resource.
func (r *Resource) Identity() ResourceIdentity {
	return ResourceIdentity{Type: r.Type, ID: r.ID}
}

// IsPersisted reports whether the resource has a server-assigned ID.
func (r *Resource) IsPersisted() bool {
	return r.ID != ""
}

// Attribute returns a declared attribute value. Accessing an undeclared
// field fails with ErrUnknownField rather than silently returning nil.
func (r *Resource) Attribute(name string) (interface{}, error) {
	if err := r.checkField(name, FieldAttribute); err != nil {
		return nil, err
	}

	return r.Attributes[name], nil
}

// SetAttribute sets a declared attribute value.
func (r *Resource) SetAttribute(name string, value interface{}) error {
	if err := r.checkField(name, FieldAttribute); err != nil {
		return err
	}

	if r.Attributes == nil {
		r.Attributes = make(map[string]interface{})
	}

	r.Attributes[name] = value

	return nil
}

// ToOne returns a declared to-one relationship, allocating an empty one if
// the resource does not carry it yet.
func (r *Resource) ToOne(name string) (*ToOneRelationship, error) {
	field, err := r.checkRelationship(name, FieldToOne)
	if err != nil {
		return nil, err
	}

	if rel, ok := r.Relationships[name].(*ToOneRelationship); ok {
		return rel, nil
	}

	rel := &ToOneRelationship{LinkedType: field.LinkedType}
	r.setRelationship(name, rel)

	return rel, nil
}

// ToMany returns a declared to-many relationship, allocating an empty one if
// the resource does not carry it yet.
func (r *Resource) ToMany(name string) (*ToManyRelationship, error) {
	field, err := r.checkRelationship(name, FieldToMany)
	if err != nil {
		return nil, err
	}

	if rel, ok := r.Relationships[name].(*ToManyRelationship); ok {
		return rel, nil
	}

	rel := &ToManyRelationship{
		LinkedType: field.LinkedType,
		Collection: &ResourceCollection{},
	}
	r.setRelationship(name, rel)

	return rel, nil
}

func (r *Resource) setRelationship(name string, rel Relationship) {
	if r.Relationships == nil {
		r.Relationships = make(map[string]Relationship)
	}

	r.Relationships[name] = rel
}

func (r *Resource) checkField(name string, kind FieldKind) error {
	if r.Schema == nil {
		return nil
	}

	field, err := r.Schema.Field(name)
	if err != nil {
		return err
	}

	if field.Kind != kind {
		return fmt.Errorf("%w: %q on type %q has a different kind", ErrUnknownField, name, r.Type)
	}

	return nil
}

func (r *Resource) checkRelationship(name string, kind FieldKind) (*Field, error) {
	if r.Schema == nil {
		return &Field{Name: name, Kind: kind}, nil
	}

	field, err := r.Schema.Field(name)
	if err != nil {
		return nil, err
	}

	if field.Kind != kind {
		return nil, fmt.Errorf("%w: %q on type %q has a different kind", ErrUnknownField, name, r.Type)
	}

	return field, nil
}

// Relationship is implemented by ToOneRelationship and ToManyRelationship.
type Relationship interface {
	// Kind returns FieldToOne or FieldToMany.
	Kind() FieldKind
}

// ToOneRelationship holds zero or one related resource, by reference. The
// same target instance may be shared by many parents.
type ToOneRelationship struct {
	// LinkedType is the declared type of the target resource.
	LinkedType string

	// Resource is the related resource, possibly an unloaded stub, or nil.
	Resource *Resource

	// SelfURL and RelatedURL are the relationship links from the wire
	// document, kept so a not-yet-loaded relationship can be fetched later.
	SelfURL    string
	RelatedURL string
}

// Kind implements Relationship.
func (r *ToOneRelationship) Kind() FieldKind { return FieldToOne }

// ToManyRelationship holds an ordered collection of related resources plus
// the baseline snapshot used to compute a mutation diff against the server.
type ToManyRelationship struct {
	// LinkedType is the declared type of the target resources.
	LinkedType string

	// Collection is the current in-memory contents of the relationship.
	Collection *ResourceCollection

	SelfURL    string
	RelatedURL string

	baseline []*Resource
}

// Kind implements Relationship.
func (r *ToManyRelationship) Kind() FieldKind { return FieldToMany }

// MarkSynced captures the current collection contents as the baseline the
// added/removed diff is computed against. The deserializer calls this after
// loading; callers may call it after a successful relationship mutation.
func (r *ToManyRelationship) MarkSynced() {
	if r.Collection == nil {
		r.baseline = nil

		return
	}

	r.baseline = make([]*Resource, len(r.Collection.Resources))
	copy(r.baseline, r.Collection.Resources)
}

// AddedResources returns resources present in the collection but absent from
// the baseline snapshot, in collection order.
func (r *ToManyRelationship) AddedResources() []*Resource {
	if r.Collection == nil {
		return nil
	}

	return identityDifference(r.Collection.Resources, r.baseline)
}

// RemovedResources returns resources present in the baseline snapshot but
// absent from the collection, in baseline order.
func (r *ToManyRelationship) RemovedResources() []*Resource {
	var current []*Resource
	if r.Collection != nil {
		current = r.Collection.Resources
	}

	return identityDifference(r.baseline, current)
}

// identityDifference returns the members of a not identified in b.
func identityDifference(a, b []*Resource) []*Resource {
	present := make(map[ResourceIdentity]struct{}, len(b))
	for _, res := range b {
		present[res.Identity()] = struct{}{}
	}

	var diff []*Resource

	for _, res := range a {
		if _, ok := present[res.Identity()]; !ok {
			diff = append(diff, res)
		}
	}

	return diff
}

// ResourceCollection is an ordered sequence of resources, unique by
// (type, id), plus the listing and pagination links reported by the server.
type ResourceCollection struct {
	Resources []*Resource

	// ResourcesURL is the canonical listing URL for the collection.
	ResourcesURL string

	// NextURL and PreviousURL are pagination links, empty when absent.
	NextURL     string
	PreviousURL string
}

// Contains reports whether the collection holds a resource with the identity.
func (c *ResourceCollection) Contains(identity ResourceIdentity) bool {
	for _, res := range c.Resources {
		if res.Identity() == identity {
			return true
		}
	}

	return false
}

// Append adds a resource to the end of the collection. Appending an identity
// already present is a no-op, preserving collection uniqueness.
func (c *ResourceCollection) Append(res *Resource) {
	if res.ID != "" && c.Contains(res.Identity()) {
		return
	}

	c.Resources = append(c.Resources, res)
}

// Prepend adds a resource to the front of the collection, with the same
// uniqueness rule as Append.
func (c *ResourceCollection) Prepend(res *Resource) {
	if res.ID != "" && c.Contains(res.Identity()) {
		return
	}

	c.Resources = append([]*Resource{res}, c.Resources...)
}

// Remove removes the resource with the given identity, if present.
func (c *ResourceCollection) Remove(identity ResourceIdentity) {
	for i, res := range c.Resources {
		if res.Identity() == identity {
			c.Resources = append(c.Resources[:i], c.Resources[i+1:]...)

			return
		}
	}
}

// Len returns the number of resources in the collection.
func (c *ResourceCollection) Len() int {
	return len(c.Resources)
}

// DocumentLinks are the top-level links of a wire document.
type DocumentLinks struct {
	Self     string
	Next     string
	Previous string
}

// Document is the deserialized result of one response: the primary resources,
// top-level meta and jsonapi objects, API-level errors, and links.
//
// When Errors is non-empty, Data is absent.
type Document struct {
	// Data holds the primary resources. For single-resource documents it
	// holds zero or one entry and IsCollection is false.
	Data []*Resource

	// IsCollection reports whether the wire document carried an array under
	// "data" (even an empty one) rather than a single object.
	IsCollection bool

	// Included holds the full resource objects from the "included" section.
	Included []*Resource

	Meta    map[string]interface{}
	JSONAPI map[string]interface{}
	Errors  []APIError
	Links   DocumentLinks
}

// First returns the first primary resource, or nil.
func (d *Document) First() *Resource {
	if len(d.Data) == 0 {
		return nil
	}

	return d.Data[0]
}

// Collection builds a ResourceCollection from the document's primary data
// and pagination links.
func (d *Document) Collection() *ResourceCollection {
	return &ResourceCollection{
		Resources:    d.Data,
		ResourcesURL: d.Links.Self,
		NextURL:      d.Links.Next,
		PreviousURL:  d.Links.Previous,
	}
}
