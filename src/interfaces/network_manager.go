package interfaces

import "context"

// -----------------------------------------------------------------------------
// INetworkManager defines the contract for single-shot HTTP requests.
// -----------------------------------------------------------------------------

type INetworkManager interface {

	// -----------------------------------------------------------------------------

	// Get performs a GET request to the specified URL with query parameters.
	// Returns the response body or an error for transport failures and non-2xx answers.
	Get(ctx context.Context, url string, params map[string]string) ([]byte, error)

	// -----------------------------------------------------------------------------

	// Post performs a body-less POST request.
	Post(ctx context.Context, url string) ([]byte, error)
}
