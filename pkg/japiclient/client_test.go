package japiclient_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/japi/pkg/japi"
	"github.com/fivetwenty-io/japi/pkg/japiclient"
)

func testRegistry() *japi.Registry {
	registry := japi.NewRegistry()
	registry.RegisterType(&japi.ResourceType{
		Name: "articles",
		Fields: []*japi.Field{
			{Name: "title", Kind: japi.FieldAttribute},
		},
	})

	return registry
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("nil config", func(t *testing.T) {
		t.Parallel()

		_, err := japiclient.New(nil)
		require.ErrorIs(t, err, japi.ErrConfigRequired)
	})

	t.Run("missing endpoint", func(t *testing.T) {
		t.Parallel()

		_, err := japiclient.New(&japi.Config{Registry: testRegistry()})
		require.ErrorIs(t, err, japi.ErrEndpointRequired)
	})

	t.Run("missing registry", func(t *testing.T) {
		t.Parallel()

		_, err := japiclient.New(&japi.Config{APIEndpoint: "https://api.example.com"})
		require.ErrorIs(t, err, japi.ErrRegistryRequired)
	})

	t.Run("valid config", func(t *testing.T) {
		t.Parallel()

		client, err := japiclient.New(&japi.Config{
			APIEndpoint: "https://api.example.com",
			Registry:    testRegistry(),
		})
		require.NoError(t, err)
		assert.NotNil(t, client)
	})
}

func TestNewNormalizesEndpoint(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		endpoint string
		expected string
	}{
		{
			name:     "trailing slash trimmed",
			endpoint: "https://api.example.com/",
			expected: "https://api.example.com",
		},
		{
			name:     "bare host gets https",
			endpoint: "api.example.com",
			expected: "https://api.example.com",
		},
		{
			name:     "http scheme preserved",
			endpoint: "http://localhost:8080",
			expected: "http://localhost:8080",
		},
	}

	for _, testCase := range tests {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			config := &japi.Config{
				APIEndpoint: testCase.endpoint,
				Registry:    testRegistry(),
			}

			_, err := japiclient.New(config)
			require.NoError(t, err)
			assert.Equal(t, testCase.expected, config.APIEndpoint)
		})
	}
}

func TestNewWithEndpoint(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		assert.Empty(t, request.Header.Get("Authorization"))
		_, _ = writer.Write([]byte(`{"data": [{"type": "articles", "id": "1", "attributes": {"title": "A"}}]}`))
	}))
	defer server.Close()

	client, err := japiclient.NewWithEndpoint(server.URL, testRegistry())
	require.NoError(t, err)

	collection, err := client.Find(context.Background(), japi.NewQuery("articles"))
	require.NoError(t, err)
	require.Equal(t, 1, collection.Len())

	title, err := collection.Resources[0].Attribute("title")
	require.NoError(t, err)
	assert.Equal(t, "A", title)
}

func TestNewWithToken(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		assert.Equal(t, "Bearer secret", request.Header.Get("Authorization"))
		_, _ = writer.Write([]byte(`{"data": []}`))
	}))
	defer server.Close()

	client, err := japiclient.NewWithToken(server.URL, testRegistry(), "secret")
	require.NoError(t, err)

	_, err = client.Find(context.Background(), japi.NewQuery("articles"))
	require.NoError(t, err)
}

func TestNewUsesInjectedNetworkClient(t *testing.T) {
	t.Parallel()

	network := &recordingNetwork{}

	client, err := japiclient.New(&japi.Config{
		APIEndpoint:   "https://api.example.com",
		Registry:      testRegistry(),
		NetworkClient: network,
	})
	require.NoError(t, err)

	_, err = client.Find(context.Background(), japi.NewQuery("articles"))
	require.NoError(t, err)

	require.Equal(t, []string{"https://api.example.com/articles"}, network.urls)
}

type recordingNetwork struct {
	urls []string
}

func (n *recordingNetwork) Request(_ context.Context, _, url string, _ []byte) (*japi.NetworkResponse, error) {
	n.urls = append(n.urls, url)

	return &japi.NetworkResponse{StatusCode: http.StatusOK, Body: []byte(`{"data": []}`)}, nil
}
