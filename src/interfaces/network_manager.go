package interfaces

import "context"

// -----------------------------------------------------------------------------
// INetworkManager defines the contract for HTTP requests against the simulation API.
// -----------------------------------------------------------------------------

type INetworkManager interface {

	// -----------------------------------------------------------------------------

	// Get performs a GET request to the specified URL with parameters.
	// err is only set when no response was received; status and body are returned as is.
	Get(ctx context.Context, url string, params map[string]string) (status int, body []byte, err error)

	// -----------------------------------------------------------------------------

	// PostJSON sends payload encoded as JSON.
	PostJSON(ctx context.Context, url string, payload interface{}) (status int, body []byte, err error)
}
