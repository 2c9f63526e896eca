package constants

import "time"

// Version is the library version reported in the default User-Agent.
const Version = "1.0.0"

// HTTP and network timeouts.
const (
	// DefaultHTTPTimeout is the default timeout for HTTP requests.
	DefaultHTTPTimeout = 30 * time.Second
)

// Retry limits for the transport layer. The operation layer never retries.
const (
	// DefaultRetryMax is the default maximum number of transport retries
	// when retries are enabled.
	DefaultRetryMax = 3

	// DefaultRetryWaitMin is the minimum wait between transport retries.
	DefaultRetryWaitMin = 1 * time.Second

	// DefaultRetryWaitMax is the maximum wait between transport retries.
	DefaultRetryWaitMax = 10 * time.Second
)

// Concurrency limits.
const (
	// DefaultConcurrencyLimit bounds the operation queue's workers.
	DefaultConcurrencyLimit = 5
)

// Pagination defaults.
const (
	// DefaultPageSize is the default number of resources per page.
	DefaultPageSize = 25
)

// Output format constants.
const (
	// FormatTable for table output format.
	FormatTable = "table"

	// FormatJSON for JSON output format.
	FormatJSON = "json"

	// FormatYAML for YAML output format.
	FormatYAML = "yaml"
)
