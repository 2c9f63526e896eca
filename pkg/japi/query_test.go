package japi_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fivetwenty-io/japi/pkg/japi"
)

func TestNewQuery(t *testing.T) {
	t.Parallel()

	query := japi.NewQuery("articles")
	assert.Equal(t, "articles", query.ResourceType)
	assert.Empty(t, query.URL)
}

func TestNewURLQuery(t *testing.T) {
	t.Parallel()

	query := japi.NewURLQuery("https://api.example.com/articles?page[number]=2")
	assert.Empty(t, query.ResourceType)
	assert.Equal(t, "https://api.example.com/articles?page[number]=2", query.URL)
}

func TestQueryWithIDs(t *testing.T) {
	t.Parallel()

	query := japi.NewQuery("articles").WithIDs("1").WithIDs("2", "3")
	assert.Equal(t, []string{"1", "2", "3"}, query.ResourceIDs)
}

func TestQueryWithFilter(t *testing.T) {
	t.Parallel()

	t.Run("appends distinct fields in declaration order", func(t *testing.T) {
		t.Parallel()

		query := japi.NewQuery("articles").
			WithFilter("title", "a").
			WithFilter("state", "published")

		assert.Equal(t, []japi.Filter{
			{Field: "title", Values: []string{"a"}},
			{Field: "state", Values: []string{"published"}},
		}, query.Filters)
	})

	t.Run("merges values for a repeated field", func(t *testing.T) {
		t.Parallel()

		query := japi.NewQuery("articles").
			WithFilter("title", "a").
			WithFilter("state", "published").
			WithFilter("title", "b", "c")

		assert.Equal(t, []japi.Filter{
			{Field: "title", Values: []string{"a", "b", "c"}},
			{Field: "state", Values: []string{"published"}},
		}, query.Filters)
	})
}

func TestQueryWithSort(t *testing.T) {
	t.Parallel()

	query := japi.NewQuery("articles").WithSort("title", "-created")

	assert.Equal(t, []japi.Sort{
		{Field: "title"},
		{Field: "created", Descending: true},
	}, query.Sorts)
}

func TestQueryWithFields(t *testing.T) {
	t.Parallel()

	query := japi.NewQuery("articles").
		WithFields("articles", "title").
		WithFields("people", "name").
		WithFields("articles", "title", "created")

	assert.Equal(t, []japi.Fieldset{
		{Type: "articles", Fields: []string{"title", "created"}},
		{Type: "people", Fields: []string{"name"}},
	}, query.Fieldsets)
}

func TestQueryWithInclude(t *testing.T) {
	t.Parallel()

	query := japi.NewQuery("articles").WithInclude("author", "comments.author")
	assert.Equal(t, []string{"author", "comments.author"}, query.Includes)
}

func TestPageBasedPagination(t *testing.T) {
	t.Parallel()

	params := japi.PageBasedPagination{Number: 2, Size: 25}.PageParams()

	assert.Equal(t, []japi.PageParam{
		{Key: "page[number]", Value: "2"},
		{Key: "page[size]", Value: "25"},
	}, params)
}

func TestOffsetBasedPagination(t *testing.T) {
	t.Parallel()

	params := japi.OffsetBasedPagination{Offset: 50, Limit: 10}.PageParams()

	assert.Equal(t, []japi.PageParam{
		{Key: "page[offset]", Value: "50"},
		{Key: "page[limit]", Value: "10"},
	}, params)
}
