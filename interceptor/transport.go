package interceptor

import (
	"io"
	"net/http"
)

// Ensure Interceptor can stand in for a real transport.
var _ http.RoundTripper = (*Interceptor)(nil)

// RoundTrip implements http.RoundTripper by resolving req as a fake request.
// The request body is drained and closed.
func (i *Interceptor) RoundTrip(req *http.Request) (*http.Response, error) {
	var data io.Reader
	if req.Body != nil && req.Body != http.NoBody {
		defer func() { _ = req.Body.Close() }()
		data = req.Body
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	resp, err := i.FakeRequest(req.Context(), Request{
		Method: method,
		URL:    req.URL.String(),
		Header: req.Header,
		Data:   data,
	})
	if err != nil {
		return nil, err
	}

	resp.Request = req
	return resp, nil
}
