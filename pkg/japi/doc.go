// Package japi provides types, interfaces, and helpers for working with
// JSON:API servers through typed, identity-deduplicated resource objects.
//
// # Overview
//
// The japi package defines the resource graph model (ResourceType, Resource,
// relationships, collections, documents), the query builder, the error
// taxonomy, and the Client interface. A concrete implementation of the client
// is provided by the japiclient package, which wires configuration, transport,
// the query router, the document serializer, and the concurrent operation
// queue. Most consumers should import japiclient to construct a client and
// then interact with the interfaces exposed here.
//
// Getting a client
//
//	import (
//	  "context"
//	  "log"
//
//	  "github.com/fivetwenty-io/japi/pkg/japi"
//	  "github.com/fivetwenty-io/japi/pkg/japiclient"
//	)
//
//	func example() {
//	  registry := japi.NewRegistry()
//	  registry.RegisterType(&japi.ResourceType{
//	    Name: "articles",
//	    Fields: []*japi.Field{
//	      {Name: "title", Kind: japi.FieldAttribute},
//	      {Name: "author", Kind: japi.FieldToOne, LinkedType: "people"},
//	      {Name: "comments", Kind: japi.FieldToMany, LinkedType: "comments"},
//	    },
//	  })
//
//	  cli, err := japiclient.New(&japi.Config{
//	    APIEndpoint: "https://api.example.com",
//	    Registry:    registry,
//	  })
//	  if err != nil { log.Fatal(err) }
//
//	  ctx := context.Background()
//	  articles, err := cli.Find(ctx, japi.NewQuery("articles").WithInclude("author"))
//	  if err != nil { log.Fatal(err) }
//	  _ = articles
//	}
//
// # Queries
//
// Use Query to express filters, sort keys, includes, sparse fieldsets, and
// pagination. Compilation to a URL is deterministic: components appear in
// declaration order, so identical queries always produce identical URLs.
//
// # Documents and identity
//
// Deserialization produces a Document whose resources are deduplicated by
// (type, id): a resource referenced under data, included, and through cyclic
// relationships is represented by exactly one shared instance. Passing a live
// resource as a mapping target re-hydrates it in place.
//
// # Errors
//
// Every failed operation surfaces exactly one error from the taxonomy in
// errors.go (NetworkError, ServerError, SerializerError, ErrResourceNotFound,
// pagination errors, UnknownError). Helpers such as IsNotFound and
// IsServerError make it easy to branch on common cases. Failed operations are
// never retried by the operation layer.
package japi
