package client

import (
	"errors"
	"fmt"
	"net/http"
)

var ErrNoRefreshToken = errors.New("no refresh token held")

// APIError carries a non-2xx response: the HTTP status, the parsed JSON body
// when the server sent one, and the raw text otherwise. Callers can branch
// on Status or on Message.
type APIError struct {
	Status  int
	Message string
	Body    map[string]any
	Raw     string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("api error %d: %s", e.Status, http.StatusText(e.Status))
}

// AsAPIError unwraps err into an *APIError when it carries one.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	ok := errors.As(err, &apiErr)
	return apiErr, ok
}
