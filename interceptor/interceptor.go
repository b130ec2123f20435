package interceptor

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"github.com/rs/zerolog"
	"github.com/tarmac-project/httpretty"
	"github.com/tarmac-project/httpretty/canonical"
	"github.com/tarmac-project/httpretty/ledger"
	"github.com/tarmac-project/httpretty/registry"
)

// Interceptor resolves fake requests against registered responses and
// records each resolved call. It is safe for concurrent use.
type Interceptor struct {
	cfg Config
	log zerolog.Logger

	registry *registry.Registry
	ledger   *ledger.Ledger

	mu      sync.Mutex
	restore []func()
}

// Options declares the response for one registration. Either set the single
// response fields (Status, Header, Body, AutoLength) or Responses, not both.
type Options struct {
	// Params are merged with any query embedded in the registered URL.
	Params url.Values

	// Status is the HTTP status code. Zero means http.StatusOK.
	Status int

	// Header holds the response headers.
	Header http.Header

	// Body is a string, []byte, or io.Reader. RegisterJSON accepts any value
	// encoding/json can marshal.
	Body any

	// AutoLength adds a Content-Length header computed from the body size.
	AutoLength bool

	// Responses registers a sequence served first to last. Entries must not
	// set Params. A non-nil empty slice registers a sequence that is already
	// used up, so the first request fails with ErrResponsesExhausted.
	Responses []registry.Response
}

func (o Options) single() registry.Response {
	return registry.Response{
		Status:     o.Status,
		Header:     o.Header,
		Body:       o.Body,
		AutoLength: o.AutoLength,
	}
}

func (o Options) hasSingle() bool {
	return o.Status != 0 || o.Header != nil || o.Body != nil || o.AutoLength
}

// CallQuery narrows HasCall to calls with matching details. Zero-valued
// fields are not compared.
type CallQuery struct {
	// Method restricts matches to one HTTP method.
	Method string

	// Params are merged with any query embedded in the queried URL.
	Params url.Values

	// IgnoreParams compares URLs without their parameters.
	IgnoreParams bool

	// Header lists headers the call must carry with the same values.
	Header http.Header

	// Body must equal the drained request body when non-nil.
	Body []byte

	// Options lists request options the call must carry with equal values.
	Options map[string]any
}

// New creates an Interceptor with an empty registry and ledger.
func New(cfg Config) *Interceptor {
	cfg.SDKConfig = cfg.SDKConfig.WithDefaults()

	log := zerolog.Nop()
	if cfg.Logger != nil {
		log = *cfg.Logger
	}

	return &Interceptor{
		cfg:      cfg,
		log:      log,
		registry: registry.New(registry.Config{Logger: &log}),
		ledger:   ledger.New(),
	}
}

// Register declares the response for method and rawURL. Registering the same
// method and canonical URL again replaces the earlier declaration.
func (i *Interceptor) Register(method, rawURL string, opts Options) error {
	u, err := canonical.New(rawURL, opts.Params)
	if err != nil {
		return err
	}

	if opts.Responses == nil {
		_, err = i.registry.Register(method, u, opts.single())
		return err
	}

	if opts.hasSingle() {
		return fmt.Errorf(
			"%w: %s %s: set either Responses or a single response, not both",
			httpretty.ErrInvalidRegistration, method, rawURL,
		)
	}

	_, err = i.registry.RegisterSequence(method, u, opts.Responses)
	return err
}

// RegisterJSON is like Register but encodes each body as JSON and defaults the
// Content-Type header to application/json. Caller headers take precedence.
func (i *Interceptor) RegisterJSON(method, rawURL string, opts Options) error {
	if opts.Responses == nil {
		resp, err := jsonResponse(opts.single())
		if err != nil {
			return fmt.Errorf("%s %s: %w", method, rawURL, err)
		}
		opts.Body, opts.Header = resp.Body, resp.Header
		return i.Register(method, rawURL, opts)
	}

	encoded := make([]registry.Response, 0, len(opts.Responses))
	for n, r := range opts.Responses {
		resp, err := jsonResponse(r)
		if err != nil {
			return fmt.Errorf("%s %s: response %d: %w", method, rawURL, n, err)
		}
		encoded = append(encoded, resp)
	}
	opts.Responses = encoded

	return i.Register(method, rawURL, opts)
}

func jsonResponse(r registry.Response) (registry.Response, error) {
	body, err := json.Marshal(r.Body)
	if err != nil {
		return registry.Response{}, fmt.Errorf("%w: %w", httpretty.ErrInvalidRegistration, err)
	}

	header := http.Header{"Content-Type": {"application/json"}}
	for name, values := range r.Header {
		header[http.CanonicalHeaderKey(name)] = append([]string(nil), values...)
	}

	r.Body = body
	r.Header = header
	return r, nil
}

// Clear removes every registration and recorded call.
func (i *Interceptor) Clear() {
	i.registry.Clear()
	i.ledger.Clear()
	i.log.Debug().Msg("cleared registrations and calls")
}

// ResetCalls removes recorded calls and keeps registrations.
func (i *Interceptor) ResetCalls() { i.ledger.Clear() }

// Calls returns every recorded call in the order it was resolved.
func (i *Interceptor) Calls() []ledger.Call { return i.ledger.Calls() }

// HasCall reports whether a call to rawURL matching q was recorded. A URL
// that cannot be parsed matches nothing.
func (i *Interceptor) HasCall(rawURL string, q CallQuery) bool {
	query, ok := i.query(rawURL, q)
	if !ok {
		return false
	}

	found := i.ledger.HasCall(query)
	i.log.Debug().
		Str("url", rawURL).
		Str("canonical", query.URL.CanonicalString()).
		Bool("ignore_params", q.IgnoreParams).
		Bool("found", found).
		Msg("has call")

	return found
}

// CallCount returns how many recorded calls to rawURL match q.
func (i *Interceptor) CallCount(rawURL string, q CallQuery) int {
	query, ok := i.query(rawURL, q)
	if !ok {
		return 0
	}
	return i.ledger.Count(query)
}

func (i *Interceptor) query(rawURL string, q CallQuery) (ledger.Query, bool) {
	u, err := canonical.New(rawURL, q.Params)
	if err != nil {
		i.log.Debug().Err(err).Str("url", rawURL).Msg("has call on invalid URL")
		return ledger.Query{}, false
	}

	return ledger.Query{
		Method:       q.Method,
		URL:          u,
		IgnoreParams: q.IgnoreParams,
		Header:       q.Header,
		Body:         q.Body,
		Options:      q.Options,
	}, true
}

// Remaining reports how many sequenced responses are left for method and
// rawURL. Single registrations report -1. The second result is false when
// nothing is registered.
func (i *Interceptor) Remaining(method, rawURL string, params url.Values) (int, bool) {
	u, err := canonical.New(rawURL, params)
	if err != nil {
		return 0, false
	}
	return i.registry.Remaining(method, u)
}

// Client returns an *http.Client whose Transport is the interceptor.
func (i *Interceptor) Client() *http.Client {
	return &http.Client{Transport: i}
}
