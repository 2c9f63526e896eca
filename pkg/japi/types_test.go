package japi_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/japi/pkg/japi"
)

func articleType() *japi.ResourceType {
	return &japi.ResourceType{
		Name: "articles",
		Fields: []*japi.Field{
			{Name: "title", Kind: japi.FieldAttribute},
			{Name: "author", Kind: japi.FieldToOne, LinkedType: "people"},
			{Name: "comments", Kind: japi.FieldToMany, LinkedType: "comments"},
		},
	}
}

func stub(typeName, id string) *japi.Resource {
	return &japi.Resource{Type: typeName, ID: id}
}

func TestResourceAttributes(t *testing.T) {
	t.Parallel()

	t.Run("set and get a declared attribute", func(t *testing.T) {
		t.Parallel()

		res := japi.NewResource(articleType())
		require.NoError(t, res.SetAttribute("title", "Hello"))

		value, err := res.Attribute("title")
		require.NoError(t, err)
		assert.Equal(t, "Hello", value)
	})

	t.Run("undeclared attribute fails", func(t *testing.T) {
		t.Parallel()

		res := japi.NewResource(articleType())

		err := res.SetAttribute("missing", "x")
		require.ErrorIs(t, err, japi.ErrUnknownField)

		_, err = res.Attribute("missing")
		require.ErrorIs(t, err, japi.ErrUnknownField)
	})

	t.Run("relationship name is not an attribute", func(t *testing.T) {
		t.Parallel()

		res := japi.NewResource(articleType())

		_, err := res.Attribute("author")
		require.ErrorIs(t, err, japi.ErrUnknownField)
	})
}

func TestResourceRelationships(t *testing.T) {
	t.Parallel()

	t.Run("to-one allocates once and keeps identity", func(t *testing.T) {
		t.Parallel()

		res := japi.NewResource(articleType())

		rel, err := res.ToOne("author")
		require.NoError(t, err)
		assert.Equal(t, "people", rel.LinkedType)

		again, err := res.ToOne("author")
		require.NoError(t, err)
		assert.Same(t, rel, again)
	})

	t.Run("to-many allocates an empty collection", func(t *testing.T) {
		t.Parallel()

		res := japi.NewResource(articleType())

		rel, err := res.ToMany("comments")
		require.NoError(t, err)
		assert.Equal(t, 0, rel.Collection.Len())
	})

	t.Run("kind mismatch fails", func(t *testing.T) {
		t.Parallel()

		res := japi.NewResource(articleType())

		_, err := res.ToMany("author")
		require.ErrorIs(t, err, japi.ErrUnknownField)

		_, err = res.ToOne("comments")
		require.ErrorIs(t, err, japi.ErrUnknownField)
	})
}

func TestResourceIsPersisted(t *testing.T) {
	t.Parallel()

	res := japi.NewResource(articleType())
	assert.False(t, res.IsPersisted())

	res.ID = "1"
	assert.True(t, res.IsPersisted())
}

func TestResourceCollectionUniqueness(t *testing.T) {
	t.Parallel()

	collection := &japi.ResourceCollection{}
	first := stub("articles", "1")

	collection.Append(first)
	collection.Append(stub("articles", "2"))
	collection.Append(stub("articles", "1"))

	assert.Equal(t, 2, collection.Len())
	assert.True(t, collection.Contains(first.Identity()))

	collection.Prepend(stub("articles", "3"))
	collection.Prepend(stub("articles", "2"))
	require.Equal(t, 3, collection.Len())
	assert.Equal(t, "3", collection.Resources[0].ID)

	collection.Remove(japi.ResourceIdentity{Type: "articles", ID: "1"})
	assert.Equal(t, 2, collection.Len())
	assert.False(t, collection.Contains(first.Identity()))
}

func TestResourceCollectionAllowsUnpersisted(t *testing.T) {
	t.Parallel()

	// Two distinct unsaved resources share the empty-id identity but must
	// both be kept.
	collection := &japi.ResourceCollection{}
	collection.Append(japi.NewResource(articleType()))
	collection.Append(japi.NewResource(articleType()))

	assert.Equal(t, 2, collection.Len())
}

func TestToManyRelationshipDiff(t *testing.T) {
	t.Parallel()

	t.Run("added and removed against the baseline", func(t *testing.T) {
		t.Parallel()

		one := stub("comments", "1")
		two := stub("comments", "2")
		three := stub("comments", "3")

		rel := &japi.ToManyRelationship{
			LinkedType: "comments",
			Collection: &japi.ResourceCollection{},
		}
		rel.Collection.Append(one)
		rel.Collection.Append(two)
		rel.MarkSynced()

		rel.Collection.Remove(two.Identity())
		rel.Collection.Append(three)

		added := rel.AddedResources()
		require.Len(t, added, 1)
		assert.Same(t, three, added[0])

		removed := rel.RemovedResources()
		require.Len(t, removed, 1)
		assert.Same(t, two, removed[0])
	})

	t.Run("no baseline means everything is added", func(t *testing.T) {
		t.Parallel()

		rel := &japi.ToManyRelationship{Collection: &japi.ResourceCollection{}}
		rel.Collection.Append(stub("comments", "1"))

		assert.Len(t, rel.AddedResources(), 1)
		assert.Empty(t, rel.RemovedResources())
	})

	t.Run("synced relationship has an empty diff", func(t *testing.T) {
		t.Parallel()

		rel := &japi.ToManyRelationship{Collection: &japi.ResourceCollection{}}
		rel.Collection.Append(stub("comments", "1"))
		rel.MarkSynced()

		assert.Empty(t, rel.AddedResources())
		assert.Empty(t, rel.RemovedResources())
	})
}

func TestDocumentFirst(t *testing.T) {
	t.Parallel()

	doc := &japi.Document{}
	assert.Nil(t, doc.First())

	res := stub("articles", "1")
	doc.Data = []*japi.Resource{res}
	assert.Same(t, res, doc.First())
}

func TestDocumentCollection(t *testing.T) {
	t.Parallel()

	doc := &japi.Document{
		Data: []*japi.Resource{stub("articles", "1")},
		Links: japi.DocumentLinks{
			Self: "https://api.example.com/articles",
			Next: "https://api.example.com/articles?page[number]=2",
		},
	}

	collection := doc.Collection()
	assert.Equal(t, 1, collection.Len())
	assert.Equal(t, "https://api.example.com/articles", collection.ResourcesURL)
	assert.Equal(t, "https://api.example.com/articles?page[number]=2", collection.NextURL)
	assert.Empty(t, collection.PreviousURL)
}

func TestResourceTypeLookups(t *testing.T) {
	t.Parallel()

	declared := &japi.ResourceType{
		Name: "articles",
		Path: "posts",
		Fields: []*japi.Field{
			{Name: "title", Kind: japi.FieldAttribute, WireKey: "article-title"},
		},
	}

	field, err := declared.Field("title")
	require.NoError(t, err)
	assert.Same(t, declared.Fields[0], field)
	assert.Equal(t, "article-title", declared.WireKey(field))

	byKey, ok := declared.FieldForWireKey("article-title")
	require.True(t, ok)
	assert.Same(t, declared.Fields[0], byKey)
	assert.Equal(t, "title", byKey.Name)

	_, err = declared.Field("missing")
	require.ErrorIs(t, err, japi.ErrUnknownField)

	assert.Equal(t, "posts", declared.PathSegment())
	assert.Equal(t, "articles", (&japi.ResourceType{Name: "articles"}).PathSegment())
}
