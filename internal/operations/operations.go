package operations

import (
	"context"
	"fmt"
	"net/http"

	"github.com/fivetwenty-io/japi/internal/serializer"
	"github.com/fivetwenty-io/japi/pkg/japi"
)

// FetchOperation compiles its query to a URL, issues a GET, and resolves
// its future with the deserialized document or a classified error.
type FetchOperation struct {
	base

	Query   *japi.Query
	Targets []*japi.Resource
	Future  *japi.Future[*japi.Document]
}

// NewFetchOperation creates a fetch operation. Targets, when given, are
// re-hydrated in place by the deserializer instead of allocating new
// instances.
func NewFetchOperation(query *japi.Query, targets ...*japi.Resource) *FetchOperation {
	return &FetchOperation{
		base:    newBase(),
		Query:   query,
		Targets: targets,
		Future:  japi.NewFuture[*japi.Document](),
	}
}

func (o *FetchOperation) dispatch(ctx context.Context, opCtx *Context) {
	run(&o.base, o.Future, func() (*japi.Document, error) {
		return o.execute(ctx, opCtx)
	})
}

func (o *FetchOperation) execute(ctx context.Context, opCtx *Context) (*japi.Document, error) {
	requestURL, err := opCtx.Router.URLForQuery(o.Query)
	if err != nil {
		return nil, japi.ClassifyError(err)
	}

	debugLog(opCtx, "fetch", o.ID(), requestURL)

	resp, err := opCtx.Network.Request(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, &japi.NetworkError{Err: err}
	}

	return documentFromResponse(opCtx, resp, o.Targets)
}

// SaveOperation serializes its resources and persists each one: POST for
// unpersisted resources, PATCH for persisted ones. On success each resource
// is updated in place from the returned representation.
type SaveOperation struct {
	base

	Resources []*japi.Resource
	Future    *japi.Future[[]*japi.Resource]
}

// NewSaveOperation creates a save operation for one or more resources.
func NewSaveOperation(resources ...*japi.Resource) *SaveOperation {
	return &SaveOperation{
		base:      newBase(),
		Resources: resources,
		Future:    japi.NewFuture[[]*japi.Resource](),
	}
}

func (o *SaveOperation) dispatch(ctx context.Context, opCtx *Context) {
	run(&o.base, o.Future, func() ([]*japi.Resource, error) {
		for _, res := range o.Resources {
			if err := o.saveOne(ctx, opCtx, res); err != nil {
				return nil, err
			}
		}

		return o.Resources, nil
	})
}

func (o *SaveOperation) saveOne(ctx context.Context, opCtx *Context, res *japi.Resource) error {
	payload, err := opCtx.Serializer.Serialize(res, serializer.Options{})
	if err != nil {
		return err
	}

	method := http.MethodPost
	requestURL := opCtx.Router.URLForResourceType(res.Type)

	if res.IsPersisted() {
		method = http.MethodPatch
		requestURL = opCtx.Router.URLForResource(res)
	}

	debugLog(opCtx, "save", o.ID(), requestURL)

	resp, err := opCtx.Network.Request(ctx, method, requestURL, payload)
	if err != nil {
		return &japi.NetworkError{Err: err}
	}

	// The response representation, when present, carries the
	// server-assigned id and authoritative attribute values.
	_, err = documentFromResponse(opCtx, resp, []*japi.Resource{res})

	return err
}

// DeleteOperation issues DELETE against the resource's own URL.
type DeleteOperation struct {
	base

	Resource *japi.Resource
	Future   *japi.Future[struct{}]
}

// NewDeleteOperation creates a delete operation.
func NewDeleteOperation(res *japi.Resource) *DeleteOperation {
	return &DeleteOperation{
		base:     newBase(),
		Resource: res,
		Future:   japi.NewFuture[struct{}](),
	}
}

func (o *DeleteOperation) dispatch(ctx context.Context, opCtx *Context) {
	run(&o.base, o.Future, func() (struct{}, error) {
		requestURL := opCtx.Router.URLForResource(o.Resource)
		debugLog(opCtx, "delete", o.ID(), requestURL)

		resp, err := opCtx.Network.Request(ctx, http.MethodDelete, requestURL, nil)
		if err != nil {
			return struct{}{}, &japi.NetworkError{Err: err}
		}

		return struct{}{}, errorFromResponse(resp)
	})
}

// RelationshipReplaceOperation replaces the full contents of a relationship
// with the resource's current in-memory value, via PATCH with a link-data
// payload against the relationship's own URL.
type RelationshipReplaceOperation struct {
	base

	Resource *japi.Resource
	Name     string
	Future   *japi.Future[struct{}]
}

// NewRelationshipReplaceOperation creates a replace operation for the named
// relationship.
func NewRelationshipReplaceOperation(res *japi.Resource, name string) *RelationshipReplaceOperation {
	return &RelationshipReplaceOperation{
		base:     newBase(),
		Resource: res,
		Name:     name,
		Future:   japi.NewFuture[struct{}](),
	}
}

func (o *RelationshipReplaceOperation) dispatch(ctx context.Context, opCtx *Context) {
	run(&o.base, o.Future, func() (struct{}, error) {
		return struct{}{}, o.execute(ctx, opCtx)
	})
}

func (o *RelationshipReplaceOperation) execute(ctx context.Context, opCtx *Context) error {
	requestURL, err := opCtx.Router.URLForRelationship(o.Resource, o.Name)
	if err != nil {
		return japi.ClassifyError(err)
	}

	var (
		payload []byte
		toMany  *japi.ToManyRelationship
	)

	switch rel := o.Resource.Relationships[o.Name].(type) {
	case *japi.ToOneRelationship:
		payload, err = opCtx.Serializer.SerializeToOneLinkage(rel.Resource)
	case *japi.ToManyRelationship:
		toMany = rel
		payload, err = opCtx.Serializer.SerializeLinkage(rel.Collection.Resources)
	default:
		return japi.ClassifyError(fmt.Errorf("%w: %q on type %q", japi.ErrUnknownField, o.Name, o.Resource.Type))
	}

	if err != nil {
		return err
	}

	debugLog(opCtx, "relationship replace", o.ID(), requestURL)

	resp, err := opCtx.Network.Request(ctx, http.MethodPatch, requestURL, payload)
	if err != nil {
		return &japi.NetworkError{Err: err}
	}

	if err := errorFromResponse(resp); err != nil {
		return err
	}

	if toMany != nil {
		toMany.MarkSynced()
	}

	return nil
}

// RelationshipMutateOperation posts the added members and deletes the
// removed members of a to-many relationship, computed against the baseline
// snapshot. With no pending changes it short-circuits to success without a
// network call.
type RelationshipMutateOperation struct {
	base

	Resource *japi.Resource
	Name     string
	Future   *japi.Future[struct{}]
}

// NewRelationshipMutateOperation creates a mutate operation for the named
// to-many relationship.
func NewRelationshipMutateOperation(res *japi.Resource, name string) *RelationshipMutateOperation {
	return &RelationshipMutateOperation{
		base:     newBase(),
		Resource: res,
		Name:     name,
		Future:   japi.NewFuture[struct{}](),
	}
}

func (o *RelationshipMutateOperation) dispatch(ctx context.Context, opCtx *Context) {
	run(&o.base, o.Future, func() (struct{}, error) {
		return struct{}{}, o.execute(ctx, opCtx)
	})
}

func (o *RelationshipMutateOperation) execute(ctx context.Context, opCtx *Context) error {
	rel, ok := o.Resource.Relationships[o.Name].(*japi.ToManyRelationship)
	if !ok {
		return japi.ClassifyError(fmt.Errorf("%w: %q on type %q is not to-many", japi.ErrUnknownField, o.Name, o.Resource.Type))
	}

	added := rel.AddedResources()
	removed := rel.RemovedResources()

	if len(added) == 0 && len(removed) == 0 {
		return nil
	}

	requestURL, err := opCtx.Router.URLForRelationship(o.Resource, o.Name)
	if err != nil {
		return japi.ClassifyError(err)
	}

	if len(added) > 0 {
		if err := o.mutate(ctx, opCtx, http.MethodPost, requestURL, added); err != nil {
			return err
		}
	}

	if len(removed) > 0 {
		if err := o.mutate(ctx, opCtx, http.MethodDelete, requestURL, removed); err != nil {
			return err
		}
	}

	rel.MarkSynced()

	return nil
}

func (o *RelationshipMutateOperation) mutate(
	ctx context.Context,
	opCtx *Context,
	method, requestURL string,
	members []*japi.Resource,
) error {
	payload, err := opCtx.Serializer.SerializeLinkage(members)
	if err != nil {
		return err
	}

	debugLog(opCtx, "relationship mutate", o.ID(), requestURL)

	resp, err := opCtx.Network.Request(ctx, method, requestURL, payload)
	if err != nil {
		return &japi.NetworkError{Err: err}
	}

	return errorFromResponse(resp)
}

// documentFromResponse turns a transport response into a document or a
// classified error. A 2xx with a body deserializes; a 2xx without a body is
// an empty success; a non-2xx with a JSON:API error body surfaces the parsed
// errors; any other non-2xx carries only the status code.
func documentFromResponse(opCtx *Context, resp *japi.NetworkResponse, targets []*japi.Resource) (*japi.Document, error) {
	if is2xx(resp.StatusCode) {
		if len(resp.Body) == 0 {
			return &japi.Document{}, nil
		}

		doc, err := opCtx.Serializer.Deserialize(resp.Body, targets)
		if err != nil {
			return nil, err
		}

		if len(doc.Errors) > 0 {
			return nil, &japi.ServerError{StatusCode: resp.StatusCode, APIErrors: doc.Errors}
		}

		return doc, nil
	}

	return nil, serverError(resp)
}

// errorFromResponse classifies a response whose body the caller discards.
func errorFromResponse(resp *japi.NetworkResponse) error {
	if is2xx(resp.StatusCode) {
		return nil
	}

	return serverError(resp)
}

func serverError(resp *japi.NetworkResponse) error {
	if apiErrors, ok := serializer.ParseErrorDocument(resp.Body); ok {
		return &japi.ServerError{StatusCode: resp.StatusCode, APIErrors: apiErrors}
	}

	return &japi.ServerError{StatusCode: resp.StatusCode}
}

func is2xx(statusCode int) bool {
	return statusCode >= 200 && statusCode < 300
}

func debugLog(opCtx *Context, kind, id, requestURL string) {
	if opCtx.Logger == nil {
		return
	}

	opCtx.Logger.Debug("dispatching operation", map[string]interface{}{
		"kind":         kind,
		"operation_id": id,
		"url":          requestURL,
	})
}
