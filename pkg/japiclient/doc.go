// Package japiclient provides the primary entry point for constructing a
// JSON:API client that implements the japi.Client interface.
//
// It layers the default retrying HTTP transport, endpoint normalization, and
// configuration validation on top of the resource model and query types
// defined in the japi package. Most applications should import japiclient to
// build a client, then use the returned japi.Client to find, save, delete,
// and paginate resources.
//
// Quick start
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
//	  ctx := context.Background()
//
//	  registry := japi.NewRegistry()
//	  registry.RegisterType(&japi.ResourceType{
//	    Name: "articles",
//	    Fields: []*japi.Field{
//	      {Name: "title", Kind: japi.FieldAttribute},
//	      {Name: "author", Kind: japi.FieldToOne, LinkedType: "people"},
//	    },
//	  })
//
//	  cli, err := japiclient.New(&japi.Config{
//	    APIEndpoint: "https://api.example.com",
//	    Registry:    registry,
//	    AccessToken: "eyJhbGciOi...", // optional bearer token
//	  })
//	  if err != nil { log.Fatal(err) }
//
//	  articles, err := cli.Find(ctx, japi.NewQuery("articles").
//	    WithFilter("title", "Hello").
//	    WithInclude("author"))
//	  if err != nil { log.Fatal(err) }
//	  _ = articles
//	}
//
// # Transport
//
// The default transport retries transient failures (5xx, 429, connection
// errors) when Config.RetryMax is set, and sends a static bearer token when
// Config.AccessToken is set. Supply Config.NetworkClient to replace the
// transport entirely, for example in tests.
//
// # Helpers
//
// The package also provides convenience constructors NewWithEndpoint and
// NewWithToken that wrap New with the appropriate configuration.
package japiclient
