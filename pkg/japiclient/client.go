// Package japiclient provides the main entry point for creating JSON:API clients
package japiclient

import (
	"strings"

	internalclient "github.com/fivetwenty-io/japi/internal/client"
	internalhttp "github.com/fivetwenty-io/japi/internal/http"
	"github.com/fivetwenty-io/japi/pkg/japi"
)

// New creates a JSON:API client from the given configuration. The endpoint
// is normalized (trailing slash trimmed, https:// added when no scheme is
// present) and the default retrying transport is constructed unless
// Config.NetworkClient injects one.
func New(config *japi.Config) (japi.Client, error) {
	if config == nil {
		return nil, japi.ErrConfigRequired
	}

	if config.APIEndpoint == "" {
		return nil, japi.ErrEndpointRequired
	}

	if config.Registry == nil {
		return nil, japi.ErrRegistryRequired
	}

	// Normalize API endpoint
	apiEndpoint := strings.TrimSuffix(config.APIEndpoint, "/")
	if !strings.HasPrefix(apiEndpoint, "http://") && !strings.HasPrefix(apiEndpoint, "https://") {
		apiEndpoint = "https://" + apiEndpoint
	}

	config.APIEndpoint = apiEndpoint

	network := config.NetworkClient
	if network == nil {
		network = buildTransport(config)
	}

	return internalclient.New(config, network)
}

// buildTransport assembles the default transport from the config's
// transport-facing fields.
func buildTransport(config *japi.Config) japi.NetworkClient {
	opts := []internalhttp.Option{}

	if config.AccessToken != "" {
		opts = append(opts, internalhttp.WithAuthToken(config.AccessToken))
	}

	if config.HTTPTimeout > 0 {
		opts = append(opts, internalhttp.WithTimeout(config.HTTPTimeout))
	}

	if config.RetryMax > 0 {
		opts = append(opts, internalhttp.WithRetryConfig(config.RetryMax, config.RetryWaitMin, config.RetryWaitMax))
	}

	if config.Logger != nil {
		opts = append(opts, internalhttp.WithLogger(config.Logger))
	}

	if config.Debug {
		opts = append(opts, internalhttp.WithDebug(true))
	}

	if config.UserAgent != "" {
		opts = append(opts, internalhttp.WithUserAgent(config.UserAgent))
	}

	return internalhttp.NewClient(opts...)
}

// NewWithEndpoint creates a new client with just an endpoint and registry
// (no auth).
func NewWithEndpoint(endpoint string, registry *japi.Registry) (japi.Client, error) {
	return New(&japi.Config{
		APIEndpoint: endpoint,
		Registry:    registry,
	})
}

// NewWithToken creates a new client with an endpoint, registry, and static
// bearer token.
func NewWithToken(endpoint string, registry *japi.Registry, token string) (japi.Client, error) {
	return New(&japi.Config{
		APIEndpoint: endpoint,
		Registry:    registry,
		AccessToken: token,
	})
}
