package rest

import "fmt"

// APIError represents a non-2xx response from the exchange REST API.
// Authentication failures surface here as well: the exchange rejects a bad
// signature or key with an error status, which the client does not treat
// specially.
type APIError struct {
	StatusCode int
	Body       string
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status [%d], response [%s]", e.StatusCode, e.Body)
}
