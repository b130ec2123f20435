package registry

import (
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/tarmac-project/httpretty"
)

// DefaultBody is served when a response declares no body.
const DefaultBody = "httpretty"

// Response describes a declared response.
type Response struct {
	// Status is the HTTP status code. Zero means http.StatusOK.
	Status int

	// Header holds the declared response headers.
	Header http.Header

	// Body is a string, []byte, or io.Reader. Nil serves DefaultBody.
	Body any

	// AutoLength adds a Content-Length header computed from the body size.
	AutoLength bool

	// Params is rejected inside a sequence; each parameter variant needs its
	// own registration.
	Params url.Values
}

// StatusCode returns the declared status, defaulting to http.StatusOK.
func (r Response) StatusCode() int {
	if r.Status == 0 {
		return http.StatusOK
	}
	return r.Status
}

// Validate checks that the body is of a supported type.
func (r Response) Validate() error {
	switch r.Body.(type) {
	case nil, string, []byte, io.Reader:
		return nil
	default:
		return fmt.Errorf("%w: got %T", httpretty.ErrContentType, r.Body)
	}
}

// clone copies the header so callers cannot change a stored response.
func (r Response) clone() Response {
	if r.Header != nil {
		r.Header = r.Header.Clone()
	}
	return r
}
