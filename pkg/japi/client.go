package japi

import (
	"context"
	"time"
)

// NetworkClient is the injected transport capability. It performs one HTTP
// request and reports status code and body bytes, or a transport error. A
// non-nil error means no response was interpreted. Non-2xx responses are not
// errors at this layer; the operation layer classifies them.
//
// Timeouts, TLS, and socket-level retries are the implementation's business.
// The default implementation lives in internal/http.
type NetworkClient interface {
	Request(ctx context.Context, method, url string, payload []byte) (*NetworkResponse, error)
}

// NetworkResponse is the raw outcome of one transport request.
type NetworkResponse struct {
	StatusCode int
	Body       []byte
}

// Client is the high-level API surface. All methods are synchronous and
// context-aware; each call runs as one operation on the client's concurrent
// work queue.
type Client interface {
	// Find fetches the resources matching the query. A zero-result response
	// succeeds with an empty collection.
	Find(ctx context.Context, query *Query) (*ResourceCollection, error)

	// FindOne fetches a single resource. A zero-result response fails with
	// ErrResourceNotFound.
	FindOne(ctx context.Context, query *Query) (*Resource, error)

	// FetchDocument fetches the full document for a query, including meta,
	// jsonapi info, and included resources. Optional mapping targets are
	// re-hydrated in place instead of allocating new instances.
	FetchDocument(ctx context.Context, query *Query, targets ...*Resource) (*Document, error)

	// FetchDocumentAsync enqueues the fetch and returns its future for
	// composition with other in-flight operations.
	FetchDocumentAsync(query *Query, targets ...*Resource) *Future[*Document]

	// Save persists the resource: POST for unpersisted resources, PATCH for
	// persisted ones. The resource is updated in place from any returned
	// representation, including a server-assigned id.
	Save(ctx context.Context, res *Resource) error

	// SaveAll persists each resource as its own operation, concurrently.
	// The first failure is returned after all operations finish.
	SaveAll(ctx context.Context, resources []*Resource) error

	// Delete issues DELETE against the resource's own URL.
	Delete(ctx context.Context, res *Resource) error

	// ReplaceRelationship replaces the full contents of a named relationship
	// with the resource's current in-memory value (PATCH, link-data payload).
	ReplaceRelationship(ctx context.Context, res *Resource, name string) error

	// MutateRelationship posts the added members and deletes the removed
	// members of a to-many relationship, computed against the baseline
	// snapshot. With no pending changes it succeeds without a network call.
	MutateRelationship(ctx context.Context, res *Resource, name string) error

	// LoadNextPage fetches the collection's next page and appends its
	// resources in place. Without a next link it fails with
	// ErrNextPageNotAvailable before any network call.
	LoadNextPage(ctx context.Context, collection *ResourceCollection) (*ResourceCollection, error)

	// LoadPreviousPage fetches the previous page and prepends its resources
	// in place, failing with ErrPreviousPageNotAvailable without a link.
	LoadPreviousPage(ctx context.Context, collection *ResourceCollection) (*ResourceCollection, error)

	// Registry returns the resource type registry the client was built with.
	Registry() *Registry
}

// Logger interface for logging.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// Config represents client configuration for building a japi.Client.
type Config struct {
	// APIEndpoint: base URL for the API (e.g., "https://api.example.com").
	// japiclient.New normalizes this value by trimming a trailing slash and
	// adding "https://" if no scheme is present.
	APIEndpoint string

	// Registry holds the declared resource types and value formatters.
	Registry *Registry

	// AccessToken: if set, sent as a static Bearer token by the default
	// transport.
	AccessToken string

	// NetworkClient: optional transport override. When set, the default
	// retrying transport is not constructed and HTTPTimeout/Retry* fields
	// are ignored.
	NetworkClient NetworkClient

	// Concurrency bounds the number of operations executing at once. If 0,
	// a sensible default is used.
	Concurrency int

	// HTTPTimeout: per-request timeout for the default transport.
	HTTPTimeout time.Duration

	// RetryMax: maximum transport-level retries for transient failures
	// (>=500, 429, connection errors). If 0, retries are disabled; the
	// operation layer itself never retries.
	RetryMax int

	// RetryWaitMin and RetryWaitMax bound the backoff between retries.
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration

	// Debug enables verbose HTTP request/response logging when a Logger is
	// provided.
	Debug bool

	// Logger: optional structured logger used by the transport.
	Logger Logger

	// UserAgent overrides the default User-Agent header.
	UserAgent string
}
