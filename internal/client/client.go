// Package client implements the japi.Client interface on top of the
// router, serializer, operation queue, and an injected network transport.
package client

import (
	"context"
	"fmt"

	"github.com/fivetwenty-io/japi/internal/operations"
	"github.com/fivetwenty-io/japi/internal/router"
	"github.com/fivetwenty-io/japi/internal/serializer"
	"github.com/fivetwenty-io/japi/pkg/japi"
)

// Client orchestrates queries, persistence, and relationship updates. Every
// public method runs as one operation on the bounded work queue; synchronous
// methods enqueue and await, FetchDocumentAsync returns the future directly.
type Client struct {
	registry   *japi.Registry
	router     *router.Router
	serializer *serializer.Serializer
	queue      *operations.Queue
	logger     japi.Logger
}

// New creates a client from validated configuration and a transport. The
// endpoint and registry must be set; japiclient.New handles normalization
// and default-transport construction before calling this.
func New(config *japi.Config, network japi.NetworkClient) (*Client, error) {
	if config == nil {
		return nil, japi.ErrConfigRequired
	}

	if config.APIEndpoint == "" {
		return nil, japi.ErrEndpointRequired
	}

	if config.Registry == nil {
		return nil, japi.ErrRegistryRequired
	}

	rt := router.New(config.APIEndpoint, config.Registry)
	sz := serializer.New(config.Registry)

	opCtx := &operations.Context{
		Router:     rt,
		Serializer: sz,
		Network:    network,
		Logger:     config.Logger,
	}

	return &Client{
		registry:   config.Registry,
		router:     rt,
		serializer: sz,
		queue:      operations.NewQueue(opCtx, config.Concurrency),
		logger:     config.Logger,
	}, nil
}

// Registry implements japi.Client.
func (c *Client) Registry() *japi.Registry {
	return c.registry
}

// Find implements japi.Client. A zero-result response succeeds with an
// empty collection.
func (c *Client) Find(ctx context.Context, query *japi.Query) (*japi.ResourceCollection, error) {
	doc, err := c.FetchDocument(ctx, query)
	if err != nil {
		return nil, err
	}

	return doc.Collection(), nil
}

// FindOne implements japi.Client. A zero-result response fails with
// ErrResourceNotFound.
func (c *Client) FindOne(ctx context.Context, query *japi.Query) (*japi.Resource, error) {
	doc, err := c.FetchDocument(ctx, query)
	if err != nil {
		return nil, err
	}

	res := doc.First()
	if res == nil {
		return nil, fmt.Errorf("finding %q: %w", query.ResourceType, japi.ErrResourceNotFound)
	}

	return res, nil
}

// FetchDocument implements japi.Client.
func (c *Client) FetchDocument(ctx context.Context, query *japi.Query, targets ...*japi.Resource) (*japi.Document, error) {
	op := operations.NewFetchOperation(query, targets...)
	c.queue.Enqueue(ctx, op)

	return op.Future.Await(ctx)
}

// FetchDocumentAsync implements japi.Client. The returned future resolves
// when the operation finishes; cancellation is available through the
// enqueued operation's own lifecycle, not the future.
func (c *Client) FetchDocumentAsync(query *japi.Query, targets ...*japi.Resource) *japi.Future[*japi.Document] {
	op := operations.NewFetchOperation(query, targets...)
	c.queue.Enqueue(context.Background(), op)

	return op.Future
}

// Save implements japi.Client.
func (c *Client) Save(ctx context.Context, res *japi.Resource) error {
	op := operations.NewSaveOperation(res)
	c.queue.Enqueue(ctx, op)

	_, err := op.Future.Await(ctx)

	return err
}

// SaveAll implements japi.Client. Each resource is saved as its own
// operation; the queue runs them concurrently within its worker limit.
func (c *Client) SaveAll(ctx context.Context, resources []*japi.Resource) error {
	ops := make([]*operations.SaveOperation, 0, len(resources))

	for _, res := range resources {
		op := operations.NewSaveOperation(res)
		c.queue.Enqueue(ctx, op)
		ops = append(ops, op)
	}

	var firstErr error

	for _, op := range ops {
		if _, err := op.Future.Await(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}

// Delete implements japi.Client.
func (c *Client) Delete(ctx context.Context, res *japi.Resource) error {
	op := operations.NewDeleteOperation(res)
	c.queue.Enqueue(ctx, op)

	_, err := op.Future.Await(ctx)

	return err
}

// ReplaceRelationship implements japi.Client.
func (c *Client) ReplaceRelationship(ctx context.Context, res *japi.Resource, name string) error {
	op := operations.NewRelationshipReplaceOperation(res, name)
	c.queue.Enqueue(ctx, op)

	_, err := op.Future.Await(ctx)

	return err
}

// MutateRelationship implements japi.Client.
func (c *Client) MutateRelationship(ctx context.Context, res *japi.Resource, name string) error {
	op := operations.NewRelationshipMutateOperation(res, name)
	c.queue.Enqueue(ctx, op)

	_, err := op.Future.Await(ctx)

	return err
}

// LoadNextPage implements japi.Client. The fetched page's resources are
// appended to the collection in page order and the next link advances.
func (c *Client) LoadNextPage(ctx context.Context, collection *japi.ResourceCollection) (*japi.ResourceCollection, error) {
	if collection.NextURL == "" {
		return nil, japi.ErrNextPageNotAvailable
	}

	doc, err := c.FetchDocument(ctx, japi.NewURLQuery(collection.NextURL))
	if err != nil {
		return nil, err
	}

	for _, res := range doc.Data {
		collection.Append(res)
	}

	collection.NextURL = doc.Links.Next

	return collection, nil
}

// LoadPreviousPage implements japi.Client. The fetched page's resources are
// placed before the collection's current contents, preserving the page's own
// order, and the previous link moves back.
func (c *Client) LoadPreviousPage(ctx context.Context, collection *japi.ResourceCollection) (*japi.ResourceCollection, error) {
	if collection.PreviousURL == "" {
		return nil, japi.ErrPreviousPageNotAvailable
	}

	doc, err := c.FetchDocument(ctx, japi.NewURLQuery(collection.PreviousURL))
	if err != nil {
		return nil, err
	}

	merged := &japi.ResourceCollection{}

	for _, res := range doc.Data {
		merged.Append(res)
	}

	for _, res := range collection.Resources {
		merged.Append(res)
	}

	collection.Resources = merged.Resources
	collection.PreviousURL = doc.Links.Previous

	return collection, nil
}

// Wait blocks until every enqueued operation has finished. Useful before
// shutdown when async fetches may still be in flight.
func (c *Client) Wait() {
	c.queue.Wait()
}

var _ japi.Client = (*Client)(nil)
