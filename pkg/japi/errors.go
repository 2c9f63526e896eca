package japi

import (
	"errors"
	"fmt"
)

// Static errors that can be wrapped with context.
var (
	ErrUnknownField             = errors.New("unknown field")
	ErrUnknownResourceType      = errors.New("unknown resource type")
	ErrUnknownValueFormatter    = errors.New("unknown value formatter")
	ErrInvalidDocumentStructure = errors.New("invalid document structure")
	ErrInvalidQuery             = errors.New("query needs a resource type or a URL")
	ErrResourceNotFound         = errors.New("resource not found")
	ErrNextPageNotAvailable     = errors.New("next page not available")
	ErrPreviousPageNotAvailable = errors.New("previous page not available")
	ErrRelationshipURLMissing   = errors.New("relationship has no self URL")
	ErrUnpersistedResource      = errors.New("cannot reference an unpersisted resource")
	ErrEndpointRequired         = errors.New("API endpoint is required")
	ErrRegistryRequired         = errors.New("resource type registry is required")
	ErrConfigRequired           = errors.New("config is required")
)

// APIError is one structured error entry from a JSON:API errors array.
type APIError struct {
	Status string          `json:"status,omitempty" yaml:"status,omitempty"`
	Code   string          `json:"code,omitempty"   yaml:"code,omitempty"`
	Title  string          `json:"title,omitempty"  yaml:"title,omitempty"`
	Detail string          `json:"detail,omitempty" yaml:"detail,omitempty"`
	Source *APIErrorSource `json:"source,omitempty" yaml:"source,omitempty"`
}

// APIErrorSource points at the part of the request that caused an error.
type APIErrorSource struct {
	Pointer   string `json:"pointer,omitempty"   yaml:"pointer,omitempty"`
	Parameter string `json:"parameter,omitempty" yaml:"parameter,omitempty"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	switch {
	case e.Title != "" && e.Detail != "":
		return fmt.Sprintf("%s: %s", e.Title, e.Detail)
	case e.Title != "":
		return e.Title
	case e.Detail != "":
		return e.Detail
	default:
		return "unknown API error"
	}
}

// NetworkError wraps a transport failure. No response was interpreted.
type NetworkError struct {
	Err error
}

// Error implements the error interface.
func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %v", e.Err)
}

// Unwrap returns the underlying transport error.
func (e *NetworkError) Unwrap() error {
	return e.Err
}

// ServerError is a non-2xx HTTP response, optionally carrying the structured
// API errors parsed from a JSON:API error body.
type ServerError struct {
	StatusCode int
	APIErrors  []APIError
}

// Error implements the error interface.
func (e *ServerError) Error() string {
	if len(e.APIErrors) == 0 {
		return fmt.Sprintf("server returned status %d", e.StatusCode)
	}

	if len(e.APIErrors) == 1 {
		return fmt.Sprintf("server returned status %d: %s", e.StatusCode, e.APIErrors[0].Error())
	}

	return fmt.Sprintf("server returned status %d with %d errors", e.StatusCode, len(e.APIErrors))
}

// FirstError returns the first structured API error or nil.
func (e *ServerError) FirstError() *APIError {
	if len(e.APIErrors) > 0 {
		return &e.APIErrors[0]
	}

	return nil
}

// SerializerError is a malformed or structurally invalid wire document.
type SerializerError struct {
	Err error
}

// Error implements the error interface.
func (e *SerializerError) Error() string {
	return fmt.Sprintf("serializer error: %v", e.Err)
}

// Unwrap returns the underlying cause.
func (e *SerializerError) Unwrap() error {
	return e.Err
}

// UnknownError is the fallback for failures that fit no other kind.
type UnknownError struct {
	Err error
}

// Error implements the error interface.
func (e *UnknownError) Error() string {
	return fmt.Sprintf("unknown error: %v", e.Err)
}

// Unwrap returns the underlying cause.
func (e *UnknownError) Unwrap() error {
	return e.Err
}

// ClassifyError maps an arbitrary failure into exactly one error kind of the
// taxonomy. Errors already belonging to the taxonomy pass through unchanged.
func ClassifyError(err error) error {
	if err == nil {
		return nil
	}

	var (
		networkErr    *NetworkError
		serverErr     *ServerError
		serializerErr *SerializerError
		unknownErr    *UnknownError
	)

	switch {
	case errors.As(err, &networkErr),
		errors.As(err, &serverErr),
		errors.As(err, &serializerErr),
		errors.As(err, &unknownErr):
		return err
	case errors.Is(err, ErrResourceNotFound),
		errors.Is(err, ErrNextPageNotAvailable),
		errors.Is(err, ErrPreviousPageNotAvailable):
		return err
	default:
		return &UnknownError{Err: err}
	}
}

// IsNotFound checks if the error is a missing-resource error, either the
// client-side zero-result case or a server-reported 404.
func IsNotFound(err error) bool {
	if errors.Is(err, ErrResourceNotFound) {
		return true
	}

	serverErr := &ServerError{}
	if errors.As(err, &serverErr) {
		return serverErr.StatusCode == 404
	}

	return false
}

// IsNetworkError checks if the error is a transport failure.
func IsNetworkError(err error) bool {
	networkErr := &NetworkError{}

	return errors.As(err, &networkErr)
}

// IsServerError checks if the error is a non-2xx server response.
func IsServerError(err error) bool {
	serverErr := &ServerError{}

	return errors.As(err, &serverErr)
}

// IsSerializerError checks if the error is a malformed-document error.
func IsSerializerError(err error) bool {
	serializerErr := &SerializerError{}

	return errors.As(err, &serializerErr)
}
