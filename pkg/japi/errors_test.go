package japi_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/japi/pkg/japi"
)

var errBoom = errors.New("boom")

func TestAPIErrorMessage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		apiError japi.APIError
		expected string
	}{
		{
			name:     "title and detail",
			apiError: japi.APIError{Title: "Invalid Attribute", Detail: "Title must not be blank"},
			expected: "Invalid Attribute: Title must not be blank",
		},
		{
			name:     "title only",
			apiError: japi.APIError{Title: "Invalid Attribute"},
			expected: "Invalid Attribute",
		},
		{
			name:     "detail only",
			apiError: japi.APIError{Detail: "Title must not be blank"},
			expected: "Title must not be blank",
		},
		{
			name:     "empty",
			apiError: japi.APIError{},
			expected: "unknown API error",
		},
	}

	for _, testCase := range tests {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, testCase.expected, testCase.apiError.Error())
		})
	}
}

func TestServerErrorMessage(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "server returned status 500",
		(&japi.ServerError{StatusCode: 500}).Error())

	withOne := &japi.ServerError{
		StatusCode: 422,
		APIErrors:  []japi.APIError{{Title: "Invalid Attribute"}},
	}
	assert.Equal(t, "server returned status 422: Invalid Attribute", withOne.Error())
	assert.Equal(t, "Invalid Attribute", withOne.FirstError().Title)

	withTwo := &japi.ServerError{
		StatusCode: 422,
		APIErrors:  []japi.APIError{{Title: "a"}, {Title: "b"}},
	}
	assert.Equal(t, "server returned status 422 with 2 errors", withTwo.Error())

	assert.Nil(t, (&japi.ServerError{StatusCode: 500}).FirstError())
}

func TestClassifyError(t *testing.T) {
	t.Parallel()

	t.Run("nil passes through", func(t *testing.T) {
		t.Parallel()
		require.NoError(t, japi.ClassifyError(nil))
	})

	t.Run("taxonomy errors pass through unchanged", func(t *testing.T) {
		t.Parallel()

		networkErr := &japi.NetworkError{Err: errBoom}
		assert.Same(t, error(networkErr), japi.ClassifyError(networkErr))

		serverErr := &japi.ServerError{StatusCode: 500}
		assert.Same(t, error(serverErr), japi.ClassifyError(serverErr))

		serializerErr := &japi.SerializerError{Err: errBoom}
		assert.Same(t, error(serializerErr), japi.ClassifyError(serializerErr))
	})

	t.Run("wrapped taxonomy errors pass through", func(t *testing.T) {
		t.Parallel()

		wrapped := fmt.Errorf("fetching: %w", &japi.NetworkError{Err: errBoom})
		assert.Same(t, wrapped, japi.ClassifyError(wrapped))
	})

	t.Run("sentinels pass through", func(t *testing.T) {
		t.Parallel()

		err := fmt.Errorf("finding articles: %w", japi.ErrResourceNotFound)
		assert.Same(t, err, japi.ClassifyError(err))
	})

	t.Run("everything else becomes unknown", func(t *testing.T) {
		t.Parallel()

		classified := japi.ClassifyError(errBoom)

		unknownErr := &japi.UnknownError{}
		require.ErrorAs(t, classified, &unknownErr)
		require.ErrorIs(t, classified, errBoom)
	})
}

func TestIsNotFound(t *testing.T) {
	t.Parallel()

	assert.True(t, japi.IsNotFound(japi.ErrResourceNotFound))
	assert.True(t, japi.IsNotFound(fmt.Errorf("finding: %w", japi.ErrResourceNotFound)))
	assert.True(t, japi.IsNotFound(&japi.ServerError{StatusCode: 404}))
	assert.False(t, japi.IsNotFound(&japi.ServerError{StatusCode: 500}))
	assert.False(t, japi.IsNotFound(errBoom))
	assert.False(t, japi.IsNotFound(nil))
}

func TestErrorKindPredicates(t *testing.T) {
	t.Parallel()

	networkErr := fmt.Errorf("fetching: %w", &japi.NetworkError{Err: errBoom})
	assert.True(t, japi.IsNetworkError(networkErr))
	assert.False(t, japi.IsServerError(networkErr))

	serverErr := &japi.ServerError{StatusCode: 503}
	assert.True(t, japi.IsServerError(serverErr))
	assert.False(t, japi.IsNetworkError(serverErr))

	serializerErr := &japi.SerializerError{Err: errBoom}
	assert.True(t, japi.IsSerializerError(serializerErr))
	assert.False(t, japi.IsServerError(serializerErr))
}

func TestErrorUnwrap(t *testing.T) {
	t.Parallel()

	require.ErrorIs(t, &japi.NetworkError{Err: errBoom}, errBoom)
	require.ErrorIs(t, &japi.SerializerError{Err: errBoom}, errBoom)
	require.ErrorIs(t, &japi.UnknownError{Err: errBoom}, errBoom)
}
