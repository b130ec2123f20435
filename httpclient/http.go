package httpclient

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"

	"github.com/tarmac-project/httpretty"
	proto "github.com/tarmac-project/protobuf-go/sdk/http"
	wapc "github.com/wapc/wapc-guest-tinygo"
)

// Client provides an interface for making HTTP requests.
type Client interface {
	// Get issues a GET request to the specified URL.
	Get(url string) (*Response, error)

	// Post issues a POST request to the specified URL with the given content type and body.
	Post(url, contentType string, body io.Reader) (*Response, error)

	// Put issues a PUT request to the specified URL with the given content type and body.
	Put(url, contentType string, body io.Reader) (*Response, error)

	// Delete issues a DELETE request to the specified URL.
	Delete(url string) (*Response, error)

	// Do issues a custom HTTP request and returns the response.
	Do(req *Request) (*Response, error)
}

// Config configures the HTTP client behavior and host integration.
//
// SDKConfig supplies the namespace used when making waPC host calls; an empty
// Namespace defaults to httpretty.DefaultNamespace. HostCall replaces the
// request entry point; when nil, the client uses wapc.HostCall.
type Config struct {
	// SDKConfig provides the runtime namespace for host calls.
	SDKConfig httpretty.RuntimeConfig
	// InsecureSkipVerify disables TLS verification when supported.
	InsecureSkipVerify bool
	// HostCall overrides the waPC host function used for requests.
	HostCall httpretty.HostCall
}

// HTTPClient implements Client using waPC host calls.
type HTTPClient struct {
	cfg Config

	mu       sync.RWMutex
	hostCall httpretty.HostCall
}

// Ensure HTTPClient always satisfies the Client interface at compile time.
var _ Client = (*HTTPClient)(nil)

// Response represents an HTTP response returned by the host.
type Response struct {
	// Status is the HTTP status text (e.g., "OK").
	Status string
	// StatusCode is the numeric HTTP status code (e.g., 200).
	StatusCode int
	// Header contains response headers. Nil is treated as empty.
	Header http.Header
	// Body is the response payload stream. It may be nil for empty bodies.
	Body io.ReadCloser
}

// Request represents an HTTP request to be sent by the client.
type Request struct {
	// Method is the HTTP method (e.g., GET, POST).
	Method string
	// URL is the full request URL; Host must be non-empty.
	URL *url.URL
	// Header holds request headers. Nil is treated as empty.
	Header http.Header
	// Body is an optional request body stream.
	Body io.ReadCloser
}

var (
	// ErrMarshalRequest wraps failures while encoding the request payload.
	ErrMarshalRequest = errors.New("failed to create request")

	// ErrReadBody wraps failures while reading a request body stream.
	ErrReadBody = errors.New("failed to read request body")

	// ErrUnmarshalResponse wraps failures while decoding the host response.
	ErrUnmarshalResponse = errors.New("failed to unmarshal response")

	// ErrInvalidMethod indicates an HTTP method not permitted by NewRequest.
	ErrInvalidMethod = errors.New("invalid HTTP method")

	// ErrNilRequest indicates Do received a nil Request pointer.
	ErrNilRequest = errors.New("request is nil")
)

const (
	hostStatusOK       = int32(200)
	hostStatusPartial  = int32(206)
	hostStatusBadInput = int32(400)
	hostStatusMissing  = int32(404)
	hostStatusError    = int32(500)
)

// New creates a new HTTP client with the provided configuration.
func New(config Config) (*HTTPClient, error) {
	config.SDKConfig = config.SDKConfig.WithDefaults()

	hc := &HTTPClient{cfg: config, hostCall: wapc.HostCall}
	if config.HostCall != nil {
		hc.hostCall = config.HostCall
	}

	return hc, nil
}

// Namespace returns the namespace used for host calls.
func (c *HTTPClient) Namespace() string { return c.cfg.SDKConfig.Namespace }

// SwapHostCall installs fn as the request entry point and returns the one it
// replaced.
func (c *HTTPClient) SwapHostCall(fn httpretty.HostCall) httpretty.HostCall {
	c.mu.Lock()
	defer c.mu.Unlock()

	prev := c.hostCall
	c.hostCall = fn
	return prev
}

func (c *HTTPClient) currentHostCall() httpretty.HostCall {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hostCall
}

// Get issues a GET to the specified URL and returns the response.
func (c *HTTPClient) Get(urlStr string) (*Response, error) {
	return c.send(http.MethodGet, urlStr, "", nil)
}

// Post issues a POST to the URL with the provided contentType and body.
func (c *HTTPClient) Post(urlStr, contentType string, body io.Reader) (*Response, error) {
	return c.send(http.MethodPost, urlStr, contentType, body)
}

// Put issues a PUT to the URL with the provided contentType and body.
func (c *HTTPClient) Put(urlStr, contentType string, body io.Reader) (*Response, error) {
	return c.send(http.MethodPut, urlStr, contentType, body)
}

// Delete issues a DELETE to the specified URL.
func (c *HTTPClient) Delete(urlStr string) (*Response, error) {
	return c.send(http.MethodDelete, urlStr, "", nil)
}

// Do issues a custom request built with NewRequest and returns the response.
func (c *HTTPClient) Do(req *Request) (*Response, error) {
	if req == nil {
		return &Response{}, ErrNilRequest
	}

	// Validate the URL before touching the body stream.
	if req.URL == nil || req.URL.Host == "" {
		return &Response{}, httpretty.ErrInvalidURL
	}

	var body io.Reader
	if req.Body != nil {
		defer func() { _ = req.Body.Close() }()
		body = req.Body
	}

	payload, err := readBody(body)
	if err != nil {
		return &Response{}, err
	}

	pbReq := &proto.HTTPClient{
		Method:   req.Method,
		Url:      req.URL.String(),
		Insecure: c.cfg.InsecureSkipVerify,
		Body:     payload,
		Headers:  make(map[string]*proto.Header, len(req.Header)),
	}
	for key, values := range req.Header {
		pbReq.Headers[key] = &proto.Header{Values: values}
	}

	return c.doHTTPCall(pbReq)
}

// send validates urlStr and dispatches a request for the shortcut verbs.
func (c *HTTPClient) send(method, urlStr, contentType string, body io.Reader) (*Response, error) {
	u, err := url.Parse(urlStr)
	if err != nil || u == nil || u.Host == "" {
		return &Response{}, httpretty.ErrInvalidURL
	}

	payload, err := readBody(body)
	if err != nil {
		return &Response{}, err
	}

	headers := make(map[string]*proto.Header)
	if contentType != "" {
		headers["Content-Type"] = &proto.Header{Values: []string{contentType}}
	}

	return c.doHTTPCall(&proto.HTTPClient{
		Method:   method,
		Url:      urlStr,
		Insecure: c.cfg.InsecureSkipVerify,
		Body:     payload,
		Headers:  headers,
	})
}

// doHTTPCall marshals the protobuf request, performs the host call, and
// unmarshals the response into a Response using proto getters.
func (c *HTTPClient) doHTTPCall(req *proto.HTTPClient) (*Response, error) {
	b, err := req.MarshalVT()
	if err != nil {
		return &Response{}, errors.Join(ErrMarshalRequest, err)
	}

	hostCall := c.currentHostCall()
	resp, err := hostCall(c.cfg.SDKConfig.Namespace, httpretty.CapabilityHTTPClient, httpretty.FunctionCall, b)
	if err != nil {
		return &Response{}, errors.Join(httpretty.ErrHostCall, err)
	}

	var r proto.HTTPClientResponse
	if unmarshalErr := r.UnmarshalVT(resp); unmarshalErr != nil {
		return &Response{}, errors.Join(ErrUnmarshalResponse, unmarshalErr)
	}

	status := r.GetStatus()
	if status == nil {
		return &Response{}, httpretty.ErrHostResponseInvalid
	}

	statusCode := status.GetCode()
	switch statusCode {
	case hostStatusOK, hostStatusPartial:
	case hostStatusBadInput, hostStatusMissing, hostStatusError:
		detail := fmt.Sprintf("host status %d", statusCode)
		if msg := status.GetStatus(); msg != "" {
			detail = fmt.Sprintf("%s: %s", detail, msg)
		}
		return &Response{}, errors.Join(httpretty.ErrHostError, errors.New(detail))
	default:
		return &Response{}, errors.Join(
			httpretty.ErrHostResponseInvalid,
			fmt.Errorf("unexpected host status code %d", statusCode),
		)
	}

	httpCode := int(r.GetCode())
	out := &Response{
		Status:     http.StatusText(httpCode),
		StatusCode: httpCode,
		Header:     make(http.Header, len(r.GetHeaders())),
	}

	for name, header := range r.GetHeaders() {
		out.Header[http.CanonicalHeaderKey(name)] = header.GetValues()
	}

	if body := r.GetBody(); len(body) > 0 {
		out.Body = io.NopCloser(bytes.NewReader(body))
	}

	return out, nil
}

func readBody(body io.Reader) ([]byte, error) {
	if body == nil {
		return nil, nil
	}
	b, err := io.ReadAll(body)
	if err != nil {
		return nil, errors.Join(ErrReadBody, err)
	}
	return b, nil
}

// NewRequest creates a new Request object to use with the Do method.
func NewRequest(method, urlString string, body io.Reader) (*Request, error) {
	if !isValidMethod(method) {
		return nil, ErrInvalidMethod
	}

	parsedURL, err := url.Parse(urlString)
	if err != nil || parsedURL == nil || parsedURL.Host == "" {
		return nil, httpretty.ErrInvalidURL
	}

	req := &Request{
		Method: method,
		URL:    parsedURL,
		Header: make(http.Header),
	}

	if body != nil {
		req.Body = io.NopCloser(body)
	}

	return req, nil
}

func isValidMethod(method string) bool {
	switch method {
	case http.MethodGet,
		http.MethodHead,
		http.MethodPost,
		http.MethodPut,
		http.MethodPatch,
		http.MethodDelete,
		http.MethodConnect,
		http.MethodOptions,
		http.MethodTrace:
		return true
	default:
		return false
	}
}
