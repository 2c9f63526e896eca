// Package serializer converts between JSON:API wire documents and the
// in-memory resource graph.
package serializer

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/fivetwenty-io/japi/pkg/japi"
)

// Serializer encodes and decodes JSON:API documents against a resource type
// registry. One Serializer is shared by all operations of a client; each
// deserialization pass builds its own identity map.
type Serializer struct {
	registry *japi.Registry
}

// New creates a serializer for a registry.
func New(registry *japi.Registry) *Serializer {
	return &Serializer{registry: registry}
}

// Wire document shapes. Data is kept raw so a single object, an array, and
// an explicit null can be told apart from an absent key.
type wireDocument struct {
	Data     json.RawMessage        `json:"data,omitempty"`
	Included []json.RawMessage      `json:"included,omitempty"`
	Meta     map[string]interface{} `json:"meta,omitempty"`
	JSONAPI  map[string]interface{} `json:"jsonapi,omitempty"`
	Errors   []japi.APIError        `json:"errors,omitempty"`
	Links    map[string]interface{} `json:"links,omitempty"`
}

type wireResource struct {
	Type          string                      `json:"type"`
	ID            string                      `json:"id,omitempty"`
	Attributes    map[string]interface{}      `json:"attributes,omitempty"`
	Relationships map[string]wireRelationship `json:"relationships,omitempty"`
	Links         map[string]interface{}      `json:"links,omitempty"`
	Meta          map[string]interface{}      `json:"meta,omitempty"`
}

type wireRelationship struct {
	Data  json.RawMessage        `json:"data,omitempty"`
	Links map[string]interface{} `json:"links,omitempty"`
}

type wireIdentifier struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// identityMap resolves (type, id) pairs to single shared resource instances
// for the duration of one deserialization pass. Mapping targets take
// precedence over allocation so live objects are re-hydrated in place.
type identityMap struct {
	registry *japi.Registry
	targets  []*japi.Resource
	claimed  map[int]bool
	entries  map[japi.ResourceIdentity]*japi.Resource
}

func newIdentityMap(registry *japi.Registry, targets []*japi.Resource) *identityMap {
	return &identityMap{
		registry: registry,
		targets:  targets,
		claimed:  make(map[int]bool),
		entries:  make(map[japi.ResourceIdentity]*japi.Resource),
	}
}

// resolve returns the single instance for an identity, reusing a mapping
// target when one matches. A target with an empty ID matches the first
// object of its type, which hydrates a freshly created resource from a
// create response and assigns its server-side id.
func (m *identityMap) resolve(typeName, id string) *japi.Resource {
	key := japi.ResourceIdentity{Type: typeName, ID: id}
	if res, ok := m.entries[key]; ok {
		return res
	}

	if res := m.claimTarget(typeName, id); res != nil {
		m.entries[key] = res

		return res
	}

	res := m.registry.Stub(typeName, id)
	m.entries[key] = res

	return res
}

func (m *identityMap) claimTarget(typeName, id string) *japi.Resource {
	// Exact identity matches win over empty-id matches.
	for i, target := range m.targets {
		if !m.claimed[i] && target.Type == typeName && target.ID == id {
			m.claimed[i] = true

			return target
		}
	}

	for i, target := range m.targets {
		if !m.claimed[i] && target.Type == typeName && target.ID == "" {
			m.claimed[i] = true
			target.ID = id

			return target
		}
	}

	return nil
}

// Deserialize parses a JSON:API document into a resource graph. Resources
// sharing an identity across data, included, and relationship pointers come
// out as one shared instance, including across cycles; allocation happens in
// a first pass over every resource object, population in a second, so
// forward and cyclic references never recurse.
func (s *Serializer) Deserialize(data []byte, targets []*japi.Resource) (*japi.Document, error) {
	if err := checkTopLevelObject(data); err != nil {
		return nil, err
	}

	var wireDoc wireDocument
	if err := json.Unmarshal(data, &wireDoc); err != nil {
		return nil, &japi.SerializerError{Err: fmt.Errorf("parsing document: %w", err)}
	}

	if wireDoc.Data == nil && wireDoc.Errors == nil {
		return nil, &japi.SerializerError{
			Err: fmt.Errorf("%w: neither data nor errors present", japi.ErrInvalidDocumentStructure),
		}
	}

	doc := &japi.Document{
		Meta:    wireDoc.Meta,
		JSONAPI: wireDoc.JSONAPI,
		Errors:  wireDoc.Errors,
		Links: japi.DocumentLinks{
			Self:     linkHref(wireDoc.Links["self"]),
			Next:     linkHref(wireDoc.Links["next"]),
			Previous: linkHref(wireDoc.Links["prev"]),
		},
	}

	if len(wireDoc.Errors) > 0 {
		return doc, nil
	}

	primary, isCollection, err := decodePrimaryData(wireDoc.Data)
	if err != nil {
		return nil, err
	}

	included, err := decodeResourceObjects(wireDoc.Included)
	if err != nil {
		return nil, err
	}

	doc.IsCollection = isCollection

	// First pass: allocate or reuse an instance for every resource object.
	ids := newIdentityMap(s.registry, targets)
	all := make([]*japi.Resource, 0, len(primary)+len(included))

	for i := range primary {
		all = append(all, ids.resolve(primary[i].Type, primary[i].ID))
	}

	for i := range included {
		all = append(all, ids.resolve(included[i].Type, included[i].ID))
	}

	// Second pass: populate attributes and resolve relationship pointers
	// against the identity map.
	wires := make([]*wireResource, 0, len(all))

	for i := range primary {
		wires = append(wires, &primary[i])
	}

	for i := range included {
		wires = append(wires, &included[i])
	}

	for i, res := range all {
		if err := s.populate(res, wires[i], ids); err != nil {
			return nil, err
		}
	}

	doc.Data = all[:len(primary)]
	doc.Included = all[len(primary):]

	return doc, nil
}

func checkTopLevelObject(data []byte) error {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return &japi.SerializerError{
			Err: fmt.Errorf("%w: top level is not an object", japi.ErrInvalidDocumentStructure),
		}
	}

	return nil
}

func decodePrimaryData(raw json.RawMessage) ([]wireResource, bool, error) {
	trimmed := bytes.TrimSpace(raw)

	switch {
	case len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")):
		return nil, false, nil
	case trimmed[0] == '[':
		resources, err := decodeResourceList(raw)

		return resources, true, err
	default:
		var single wireResource
		if err := json.Unmarshal(raw, &single); err != nil {
			return nil, false, &japi.SerializerError{Err: fmt.Errorf("parsing primary resource: %w", err)}
		}

		return []wireResource{single}, false, nil
	}
}

func decodeResourceList(raw json.RawMessage) ([]wireResource, error) {
	var resources []wireResource
	if err := json.Unmarshal(raw, &resources); err != nil {
		return nil, &japi.SerializerError{Err: fmt.Errorf("parsing primary resources: %w", err)}
	}

	return resources, nil
}

func decodeResourceObjects(raws []json.RawMessage) ([]wireResource, error) {
	resources := make([]wireResource, 0, len(raws))

	for _, raw := range raws {
		var res wireResource
		if err := json.Unmarshal(raw, &res); err != nil {
			return nil, &japi.SerializerError{Err: fmt.Errorf("parsing included resource: %w", err)}
		}

		resources = append(resources, res)
	}

	return resources, nil
}

// populate fills one resource from its full wire object. The instance was
// already allocated by the first pass; populating marks it loaded.
func (s *Serializer) populate(res *japi.Resource, wire *wireResource, ids *identityMap) error {
	res.IsLoaded = true

	if len(wire.Meta) > 0 {
		res.Meta = wire.Meta
	}

	if self := linkHref(wire.Links["self"]); self != "" {
		res.URL = self
	}

	if err := s.populateAttributes(res, wire); err != nil {
		return err
	}

	return s.populateRelationships(res, wire, ids)
}

func (s *Serializer) populateAttributes(res *japi.Resource, wire *wireResource) error {
	if res.Attributes == nil {
		res.Attributes = make(map[string]interface{})
	}

	for key, raw := range wire.Attributes {
		name := key
		format := ""

		if res.Schema != nil {
			field, ok := res.Schema.FieldForWireKey(key)
			if !ok || field.Kind != japi.FieldAttribute {
				continue
			}

			name = field.Name
			format = field.Format
		}

		value := raw

		if format != "" && raw != nil {
			formatter, err := s.registry.Formatter(format)
			if err != nil {
				return &japi.SerializerError{Err: err}
			}

			value, err = formatter.Parse(raw)
			if err != nil {
				return &japi.SerializerError{Err: fmt.Errorf("attribute %q: %w", name, err)}
			}
		}

		res.Attributes[name] = value
	}

	return nil
}

func (s *Serializer) populateRelationships(res *japi.Resource, wire *wireResource, ids *identityMap) error {
	if res.Relationships == nil {
		res.Relationships = make(map[string]japi.Relationship)
	}

	for key, wireRel := range wire.Relationships {
		name := key
		linkedType := ""
		declaredKind := japi.FieldKind(-1)

		if res.Schema != nil {
			field, ok := res.Schema.FieldForWireKey(key)
			if !ok || !field.IsRelationship() {
				continue
			}

			name = field.Name
			linkedType = field.LinkedType
			declaredKind = field.Kind
		}

		rel, err := s.buildRelationship(&wireRel, linkedType, declaredKind, ids)
		if err != nil {
			return err
		}

		if rel != nil {
			res.Relationships[name] = rel
		}
	}

	return nil
}

// buildRelationship materializes one relationship value. Pointer targets
// resolve through the identity map, producing unloaded stubs for identities
// the document does not carry in full. Link metadata is retained so the
// relationship can be fetched lazily later.
func (s *Serializer) buildRelationship(
	wireRel *wireRelationship,
	linkedType string,
	declaredKind japi.FieldKind,
	ids *identityMap,
) (japi.Relationship, error) {
	selfURL := linkHref(wireRel.Links["self"])
	relatedURL := linkHref(wireRel.Links["related"])
	trimmed := bytes.TrimSpace(wireRel.Data)

	switch {
	case len(trimmed) == 0:
		// Links-only relationship: shape comes from the declaration.
		switch declaredKind {
		case japi.FieldToMany:
			rel := &japi.ToManyRelationship{
				LinkedType: linkedType,
				Collection: &japi.ResourceCollection{ResourcesURL: relatedURL},
				SelfURL:    selfURL,
				RelatedURL: relatedURL,
			}
			rel.MarkSynced()

			return rel, nil
		case japi.FieldToOne:
			return &japi.ToOneRelationship{
				LinkedType: linkedType,
				SelfURL:    selfURL,
				RelatedURL: relatedURL,
			}, nil
		default:
			return nil, nil
		}
	case bytes.Equal(trimmed, []byte("null")):
		return &japi.ToOneRelationship{
			LinkedType: linkedType,
			SelfURL:    selfURL,
			RelatedURL: relatedURL,
		}, nil
	case trimmed[0] == '[':
		var identifiers []wireIdentifier
		if err := json.Unmarshal(wireRel.Data, &identifiers); err != nil {
			return nil, &japi.SerializerError{Err: fmt.Errorf("parsing relationship data: %w", err)}
		}

		collection := &japi.ResourceCollection{ResourcesURL: relatedURL}
		for _, identifier := range identifiers {
			collection.Append(ids.resolve(identifier.Type, identifier.ID))
		}

		rel := &japi.ToManyRelationship{
			LinkedType: linkedType,
			Collection: collection,
			SelfURL:    selfURL,
			RelatedURL: relatedURL,
		}
		rel.MarkSynced()

		return rel, nil
	default:
		var identifier wireIdentifier
		if err := json.Unmarshal(wireRel.Data, &identifier); err != nil {
			return nil, &japi.SerializerError{Err: fmt.Errorf("parsing relationship data: %w", err)}
		}

		return &japi.ToOneRelationship{
			LinkedType: linkedType,
			Resource:   ids.resolve(identifier.Type, identifier.ID),
			SelfURL:    selfURL,
			RelatedURL: relatedURL,
		}, nil
	}
}

// linkHref extracts the href from a JSON:API link value, which is either a
// plain string or an object carrying an href member.
func linkHref(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case map[string]interface{}:
		if href, ok := v["href"].(string); ok {
			return href
		}
	}

	return ""
}

// Options control payload serialization.
type Options struct {
	// AddedOnly serializes only the added members of to-many relationships
	// instead of the full collection, so a relationship-mutation payload
	// does not resend unrelated link contents.
	AddedOnly bool
}

type wirePayload struct {
	Type          string                 `json:"type"`
	ID            string                 `json:"id,omitempty"`
	Attributes    map[string]interface{} `json:"attributes,omitempty"`
	Relationships map[string]interface{} `json:"relationships,omitempty"`
}

// Serialize emits a create/update payload for a single resource: type, id
// when present, the resolvable present attributes, and a data pointer per
// relationship carried by the resource.
func (s *Serializer) Serialize(res *japi.Resource, opts Options) ([]byte, error) {
	payload, err := s.payload(res, opts)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(map[string]interface{}{"data": payload})
	if err != nil {
		return nil, &japi.SerializerError{Err: fmt.Errorf("encoding document: %w", err)}
	}

	return data, nil
}

// SerializeCollection emits a payload whose data member is an array of full
// resource objects, used for batch saves.
func (s *Serializer) SerializeCollection(resources []*japi.Resource, opts Options) ([]byte, error) {
	payloads := make([]*wirePayload, 0, len(resources))

	for _, res := range resources {
		payload, err := s.payload(res, opts)
		if err != nil {
			return nil, err
		}

		payloads = append(payloads, payload)
	}

	data, err := json.Marshal(map[string]interface{}{"data": payloads})
	if err != nil {
		return nil, &japi.SerializerError{Err: fmt.Errorf("encoding document: %w", err)}
	}

	return data, nil
}

// SerializeToOneLinkage emits a link-data payload for a to-one relationship:
// {"data": {type, id}} or {"data": null}.
func (s *Serializer) SerializeToOneLinkage(target *japi.Resource) ([]byte, error) {
	if target == nil {
		return json.Marshal(map[string]interface{}{"data": nil})
	}

	identifier, err := identifierFor(target)
	if err != nil {
		return nil, err
	}

	return json.Marshal(map[string]interface{}{"data": identifier})
}

// SerializeLinkage emits a link-data payload carrying only resource
// identifier pointers, used by relationship replace/add/remove operations.
func (s *Serializer) SerializeLinkage(resources []*japi.Resource) ([]byte, error) {
	identifiers := make([]wireIdentifier, 0, len(resources))

	for _, res := range resources {
		identifier, err := identifierFor(res)
		if err != nil {
			return nil, err
		}

		identifiers = append(identifiers, identifier)
	}

	return json.Marshal(map[string]interface{}{"data": identifiers})
}

func identifierFor(res *japi.Resource) (wireIdentifier, error) {
	if res.ID == "" {
		return wireIdentifier{}, &japi.SerializerError{
			Err: fmt.Errorf("%w: %q", japi.ErrUnpersistedResource, res.Type),
		}
	}

	return wireIdentifier{Type: res.Type, ID: res.ID}, nil
}

func (s *Serializer) payload(res *japi.Resource, opts Options) (*wirePayload, error) {
	payload := &wirePayload{Type: res.Type, ID: res.ID}

	attributes, err := s.payloadAttributes(res)
	if err != nil {
		return nil, err
	}

	payload.Attributes = attributes

	relationships, err := s.payloadRelationships(res, opts)
	if err != nil {
		return nil, err
	}

	payload.Relationships = relationships

	return payload, nil
}

func (s *Serializer) payloadAttributes(res *japi.Resource) (map[string]interface{}, error) {
	if len(res.Attributes) == 0 {
		return nil, nil
	}

	attributes := make(map[string]interface{})

	for name, value := range res.Attributes {
		key := name
		format := ""

		if res.Schema != nil {
			field, err := res.Schema.Field(name)
			if err != nil || field.Kind != japi.FieldAttribute {
				continue
			}

			key = res.Schema.WireKey(field)
			format = field.Format
		}

		if format != "" && value != nil {
			formatter, err := s.registry.Formatter(format)
			if err != nil {
				return nil, &japi.SerializerError{Err: err}
			}

			value, err = formatter.Format(value)
			if err != nil {
				return nil, &japi.SerializerError{Err: fmt.Errorf("attribute %q: %w", name, err)}
			}
		}

		attributes[key] = value
	}

	if len(attributes) == 0 {
		return nil, nil
	}

	return attributes, nil
}

func (s *Serializer) payloadRelationships(res *japi.Resource, opts Options) (map[string]interface{}, error) {
	if len(res.Relationships) == 0 {
		return nil, nil
	}

	relationships := make(map[string]interface{})

	for name, rel := range res.Relationships {
		key := name
		if res.Schema != nil {
			field, err := res.Schema.Field(name)
			if err != nil || !field.IsRelationship() {
				continue
			}

			key = res.Schema.WireKey(field)
		}

		switch v := rel.(type) {
		case *japi.ToOneRelationship:
			if v.Resource == nil {
				relationships[key] = map[string]interface{}{"data": nil}

				continue
			}

			identifier, err := identifierFor(v.Resource)
			if err != nil {
				return nil, err
			}

			relationships[key] = map[string]interface{}{"data": identifier}
		case *japi.ToManyRelationship:
			members := v.Collection.Resources
			if opts.AddedOnly {
				members = v.AddedResources()
			}

			identifiers := make([]wireIdentifier, 0, len(members))

			for _, member := range members {
				identifier, err := identifierFor(member)
				if err != nil {
					return nil, err
				}

				identifiers = append(identifiers, identifier)
			}

			relationships[key] = map[string]interface{}{"data": identifiers}
		}
	}

	if len(relationships) == 0 {
		return nil, nil
	}

	return relationships, nil
}

// ParseErrorDocument parses a JSON:API error body into its errors array.
// It reports false when the body does not carry a well-formed errors array.
func ParseErrorDocument(body []byte) ([]japi.APIError, bool) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, false
	}

	var wireDoc wireDocument
	if err := json.Unmarshal(body, &wireDoc); err != nil {
		return nil, false
	}

	if len(wireDoc.Errors) == 0 {
		return nil, false
	}

	return wireDoc.Errors, true
}
