package router_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/japi/internal/router"
	"github.com/fivetwenty-io/japi/pkg/japi"
)

func testRegistry() *japi.Registry {
	registry := japi.NewRegistry()
	registry.RegisterType(&japi.ResourceType{
		Name: "articles",
		Fields: []*japi.Field{
			{Name: "title", Kind: japi.FieldAttribute},
			{Name: "created", Kind: japi.FieldAttribute, WireKey: "created-at"},
			{Name: "author", Kind: japi.FieldToOne, WireKey: "written-by", LinkedType: "people"},
			{Name: "comments", Kind: japi.FieldToMany, LinkedType: "comments"},
		},
	})
	registry.RegisterType(&japi.ResourceType{
		Name: "people",
		Path: "persons",
		Fields: []*japi.Field{
			{Name: "name", Kind: japi.FieldAttribute},
			{Name: "books", Kind: japi.FieldToMany, LinkedType: "articles"},
		},
	})

	return registry
}

func newRouter() *router.Router {
	return router.New("https://api.example.com/", testRegistry())
}

func TestURLForResourceType(t *testing.T) {
	t.Parallel()

	r := newRouter()

	assert.Equal(t, "https://api.example.com/articles", r.URLForResourceType("articles"))

	// Declared path overrides the type name
	assert.Equal(t, "https://api.example.com/persons", r.URLForResourceType("people"))

	// Unregistered types fall back to their name
	assert.Equal(t, "https://api.example.com/tags", r.URLForResourceType("tags"))
}

func TestURLForResource(t *testing.T) {
	t.Parallel()

	r := newRouter()

	withLink := &japi.Resource{Type: "articles", ID: "1", URL: "https://api.example.com/articles/1?canonical"}
	assert.Equal(t, "https://api.example.com/articles/1?canonical", r.URLForResource(withLink))

	withoutLink := &japi.Resource{Type: "people", ID: "9"}
	assert.Equal(t, "https://api.example.com/persons/9", r.URLForResource(withoutLink))
}

func TestURLForRelationship(t *testing.T) {
	t.Parallel()

	t.Run("prefers the relationship self link", func(t *testing.T) {
		t.Parallel()

		res := &japi.Resource{
			Type: "articles",
			ID:   "1",
			Relationships: map[string]japi.Relationship{
				"comments": &japi.ToManyRelationship{SelfURL: "https://api.example.com/articles/1/relationships/comments"},
			},
		}

		u, err := newRouter().URLForRelationship(res, "comments")
		require.NoError(t, err)
		assert.Equal(t, "https://api.example.com/articles/1/relationships/comments", u)
	})

	t.Run("builds the conventional URL with the wire key", func(t *testing.T) {
		t.Parallel()

		registry := testRegistry()
		schema, err := registry.Type("articles")
		require.NoError(t, err)

		res := &japi.Resource{Type: "articles", ID: "1", Schema: schema}

		u, err := router.New("https://api.example.com", registry).URLForRelationship(res, "author")
		require.NoError(t, err)
		assert.Equal(t, "https://api.example.com/articles/1/relationships/written-by", u)
	})

	t.Run("unpersisted resource without a link fails", func(t *testing.T) {
		t.Parallel()

		res := &japi.Resource{Type: "articles"}

		_, err := newRouter().URLForRelationship(res, "comments")
		require.ErrorIs(t, err, japi.ErrRelationshipURLMissing)
	})
}

//nolint:funlen
func TestURLForQuery(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		query    *japi.Query
		expected string
	}{
		{
			name:     "bare type",
			query:    japi.NewQuery("articles"),
			expected: "https://api.example.com/articles",
		},
		{
			name:     "single id becomes a path segment",
			query:    japi.NewQuery("articles").WithIDs("1"),
			expected: "https://api.example.com/articles/1",
		},
		{
			name:     "multiple ids become filter[id]",
			query:    japi.NewQuery("articles").WithIDs("1", "2", "3"),
			expected: "https://api.example.com/articles?filter[id]=1,2,3",
		},
		{
			name:     "filters resolve wire keys in declaration order",
			query:    japi.NewQuery("articles").WithFilter("created", "2024").WithFilter("title", "a", "b"),
			expected: "https://api.example.com/articles?filter[created-at]=2024&filter[title]=a,b",
		},
		{
			name:     "undeclared filter fields pass through",
			query:    japi.NewQuery("articles").WithFilter("computed", "x"),
			expected: "https://api.example.com/articles?filter[computed]=x",
		},
		{
			name:     "includes resolve relationship keys through linked types",
			query:    japi.NewQuery("articles").WithInclude("author", "author.books"),
			expected: "https://api.example.com/articles?include=written-by,written-by.books",
		},
		{
			name:     "include segments without declared fields pass through",
			query:    japi.NewQuery("articles").WithInclude("comments.author"),
			expected: "https://api.example.com/articles?include=comments.author",
		},
		{
			name:     "fieldsets resolve per declared type",
			query:    japi.NewQuery("articles").WithFields("articles", "title", "created").WithFields("people", "name"),
			expected: "https://api.example.com/articles?fields[articles]=title,created-at&fields[people]=name",
		},
		{
			name:     "sorts carry the descending prefix",
			query:    japi.NewQuery("articles").WithSort("title", "-created"),
			expected: "https://api.example.com/articles?sort=title,-created-at",
		},
		{
			name:     "page based pagination",
			query:    japi.NewQuery("articles").WithPagination(japi.PageBasedPagination{Number: 2, Size: 25}),
			expected: "https://api.example.com/articles?page[number]=2&page[size]=25",
		},
		{
			name:     "offset based pagination",
			query:    japi.NewQuery("articles").WithPagination(japi.OffsetBasedPagination{Offset: 50, Limit: 10}),
			expected: "https://api.example.com/articles?page[offset]=50&page[limit]=10",
		},
		{
			name: "components compile in fixed order",
			query: japi.NewQuery("articles").
				WithSort("-created").
				WithFilter("title", "a").
				WithFields("articles", "title").
				WithInclude("author").
				WithPagination(japi.PageBasedPagination{Number: 1, Size: 10}),
			expected: "https://api.example.com/articles" +
				"?include=written-by" +
				"&filter[title]=a" +
				"&fields[articles]=title" +
				"&sort=-created-at" +
				"&page[number]=1&page[size]=10",
		},
		{
			name:     "values escape but brackets and commas stay literal",
			query:    japi.NewQuery("articles").WithFilter("title", "hello world", "a&b"),
			expected: "https://api.example.com/articles?filter[title]=hello%20world,a%26b",
		},
		{
			name:     "pre-built URL is the verbatim base",
			query:    japi.NewURLQuery("https://api.example.com/articles?page[number]=2"),
			expected: "https://api.example.com/articles?page[number]=2",
		},
		{
			name: "pre-built URL still takes filters and pagination",
			query: japi.NewURLQuery("https://other.example.com/posts").
				WithFilter("title", "a").
				WithPagination(japi.PageBasedPagination{Number: 3, Size: 5}),
			expected: "https://other.example.com/posts?filter[title]=a&page[number]=3&page[size]=5",
		},
		{
			name: "pre-built URL with a query string joins with ampersand",
			query: japi.NewURLQuery("https://api.example.com/articles?page[number]=2").
				WithSort("title"),
			expected: "https://api.example.com/articles?page[number]=2&sort=title",
		},
		{
			name:     "unregistered type compiles literally",
			query:    japi.NewQuery("tags").WithFilter("name", "go"),
			expected: "https://api.example.com/tags?filter[name]=go",
		},
	}

	for _, testCase := range tests {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			u, err := newRouter().URLForQuery(testCase.query)
			require.NoError(t, err)
			assert.Equal(t, testCase.expected, u)
		})
	}
}

func TestURLForQueryIsDeterministic(t *testing.T) {
	t.Parallel()

	query := japi.NewQuery("articles").
		WithFilter("title", "a").
		WithFilter("created", "2024").
		WithFields("articles", "title").
		WithSort("title")

	r := newRouter()

	first, err := r.URLForQuery(query)
	require.NoError(t, err)

	for i := 0; i < 50; i++ {
		next, err := r.URLForQuery(query)
		require.NoError(t, err)
		assert.Equal(t, first, next)
	}
}

func TestURLForQueryRequiresTypeOrURL(t *testing.T) {
	t.Parallel()

	_, err := newRouter().URLForQuery(&japi.Query{})
	require.ErrorIs(t, err, japi.ErrInvalidQuery)
}
