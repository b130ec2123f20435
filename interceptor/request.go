package interceptor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/tarmac-project/httpretty"
	"github.com/tarmac-project/httpretty/canonical"
	"github.com/tarmac-project/httpretty/ledger"
	"github.com/tarmac-project/httpretty/registry"
)

// ErrReadData wraps failures while draining a request's Data stream.
var ErrReadData = errors.New("failed to read request data")

// Request is a fake request as issued by the code under test.
type Request struct {
	// Method is the HTTP method.
	Method string

	// URL is the request URL, optionally with a query string.
	URL string

	// Params are merged with any query embedded in URL.
	Params url.Values

	// Header holds the request headers.
	Header http.Header

	// Data is the request body. It is read to the end before the call is
	// recorded, so a reader must not be shared between requests.
	Data io.Reader

	// Options holds any other request options; they are recorded verbatim.
	Options map[string]any
}

// FakeRequest resolves req against the registered responses, records the
// call, and returns the synthesized response. Requests with no matching
// registration, or whose sequence is used up, fail and are not recorded.
func (i *Interceptor) FakeRequest(ctx context.Context, req Request) (*http.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	u, err := canonical.New(req.URL, req.Params)
	if err != nil {
		return nil, err
	}

	i.log.Debug().
		Str("method", req.Method).
		Str("url", req.URL).
		Str("canonical", u.CanonicalString()).
		Msg("fake request")

	declared, err := i.registry.Resolve(req.Method, u)
	if err != nil {
		return nil, err
	}

	body, err := drain(req.Data)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.URL, err)
	}

	call := i.ledger.Record(ledger.Call{
		Method:  req.Method,
		URL:     u,
		Header:  req.Header,
		Body:    body,
		Options: req.Options,
	})

	i.log.Debug().
		Int("seq", call.Seq).
		Str("method", call.Method).
		Str("canonical", call.URL.CanonicalString()).
		Int("body_bytes", len(call.Body)).
		Msg("recorded call")

	return respond(declared)
}

// drain reads data to the end, as a real transport would.
func drain(data io.Reader) ([]byte, error) {
	if data == nil {
		return nil, nil
	}
	b, err := io.ReadAll(data)
	if err != nil {
		return nil, errors.Join(ErrReadData, err)
	}
	return b, nil
}

// respond builds the *http.Response for a declared response. String and
// []byte bodies are served from memory; readers are passed through untouched
// unless AutoLength needs their size.
func respond(declared registry.Response) (*http.Response, error) {
	var (
		content []byte
		stream  io.Reader
	)

	switch b := declared.Body.(type) {
	case nil:
		content = []byte(registry.DefaultBody)
	case string:
		content = []byte(b)
	case []byte:
		content = append([]byte{}, b...)
	case io.Reader:
		stream = b
	default:
		return nil, fmt.Errorf("%w: got %T", httpretty.ErrContentType, declared.Body)
	}

	if stream != nil && declared.AutoLength {
		b, err := io.ReadAll(stream)
		if err != nil {
			return nil, fmt.Errorf("failed to read declared body: %w", err)
		}
		content, stream = b, nil
	}

	header := make(http.Header, len(declared.Header)+1)
	for name, values := range declared.Header {
		header[http.CanonicalHeaderKey(name)] = append([]string(nil), values...)
	}

	code := declared.StatusCode()
	resp := &http.Response{
		Status:     strconv.Itoa(code) + " " + http.StatusText(code),
		StatusCode: code,
		Proto:      "HTTP/1.1",
		ProtoMajor: 1,
		ProtoMinor: 1,
		Header:     header,
	}

	if stream != nil {
		resp.Body = asReadCloser(stream)
		resp.ContentLength = -1
		return resp, nil
	}

	resp.Body = io.NopCloser(bytes.NewReader(content))
	resp.ContentLength = int64(len(content))
	if declared.AutoLength {
		header.Set("Content-Length", strconv.Itoa(len(content)))
	}

	return resp, nil
}

func asReadCloser(r io.Reader) io.ReadCloser {
	if rc, ok := r.(io.ReadCloser); ok {
		return rc
	}
	return io.NopCloser(r)
}
