// Error types distinguishing the two upstream failure classes the
// handlers care about: a failed credential exchange and a failed
// resource read. Detail-page reads propagate UpstreamError to callers;
// list and aggregate reads log it and degrade to an empty result.

package catalog

import "fmt"

// AuthError indicates the client-credentials exchange with the catalog
// auth endpoint failed. The token cache is left untouched so the next
// call retries the exchange.
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("catalog auth: %v", e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// UpstreamError indicates a catalog read failed: a non-2xx status, a
// transport error or a payload that did not match the expected schema.
// Status is zero when no HTTP response was received.
type UpstreamError struct {
	Endpoint string
	Status   int
	Err      error
}

func (e *UpstreamError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("catalog %s: status %d", e.Endpoint, e.Status)
	}
	return fmt.Sprintf("catalog %s: %v", e.Endpoint, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }
