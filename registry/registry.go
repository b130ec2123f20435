package registry

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"github.com/tarmac-project/httpretty"
	"github.com/tarmac-project/httpretty/canonical"
)

// Key identifies a registration.
type Key struct {
	Method string
	URL    canonical.URL
}

// String returns a readable form of the key.
func (k Key) String() string { return k.Method + " " + k.URL.CanonicalString() }

func (k Key) lookup() string { return k.Method + " " + k.URL.Key() }

// entry is implemented by single and sequence.
type entry interface {
	next() (Response, error)
	remaining() int
}

// single is returned on every lookup and never consumed.
type single struct {
	resp Response
}

func (s *single) next() (Response, error) { return s.resp.clone(), nil }

func (s *single) remaining() int { return -1 }

// sequence is consumed in registration order.
type sequence struct {
	queue []Response
}

func (s *sequence) next() (Response, error) {
	if len(s.queue) == 0 {
		return Response{}, httpretty.ErrResponsesExhausted
	}
	resp := s.queue[0]
	s.queue = s.queue[1:]
	return resp, nil
}

func (s *sequence) remaining() int { return len(s.queue) }

// Config configures a Registry.
type Config struct {
	// Logger receives debug traces. A nil Logger disables logging.
	Logger *zerolog.Logger
}

// Registry maps keys to declared responses. It is safe for concurrent use.
type Registry struct {
	mu      sync.Mutex
	entries map[string]entry
	log     zerolog.Logger
}

// New creates an empty Registry.
func New(cfg Config) *Registry {
	log := zerolog.Nop()
	if cfg.Logger != nil {
		log = *cfg.Logger
	}
	return &Registry{entries: make(map[string]entry), log: log}
}

// Register stores responses under method and u. One response is stored as a
// single entry; more than one is stored as a sequence. It reports whether an
// earlier registration for the same key was replaced.
func (r *Registry) Register(method string, u canonical.URL, responses ...Response) (bool, error) {
	switch len(responses) {
	case 0:
		return false, fmt.Errorf("%w: %s %s: no responses given", httpretty.ErrInvalidRegistration, method, u.Raw())
	case 1:
		if err := responses[0].Validate(); err != nil {
			return false, err
		}
		return r.store(Key{Method: method, URL: u}, &single{resp: responses[0].clone()}), nil
	default:
		return r.RegisterSequence(method, u, responses)
	}
}

// RegisterSequence stores responses as a sequence under method and u, even
// when only one response is given. Responses must not carry Params.
func (r *Registry) RegisterSequence(method string, u canonical.URL, responses []Response) (bool, error) {
	queue := make([]Response, 0, len(responses))
	for i, resp := range responses {
		if len(resp.Params) > 0 {
			return false, fmt.Errorf(
				"%w: %s %s: response %d sets params; register each parameter variant separately",
				httpretty.ErrInvalidRegistration, method, u.Raw(), i,
			)
		}
		if err := resp.Validate(); err != nil {
			return false, fmt.Errorf("response %d: %w", i, err)
		}
		queue = append(queue, resp.clone())
	}
	return r.store(Key{Method: method, URL: u}, &sequence{queue: queue}), nil
}

func (r *Registry) store(k Key, e entry) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, replaced := r.entries[k.lookup()]
	r.entries[k.lookup()] = e

	r.log.Debug().
		Str("method", k.Method).
		Str("url", k.URL.Raw()).
		Str("canonical", k.URL.CanonicalString()).
		Int("responses", e.remaining()).
		Bool("replaced", replaced).
		Msg("registered response")

	return replaced
}

// Resolve returns the next response for method and u. Sequence entries are
// popped; single entries are returned unchanged on every call.
func (r *Registry) Resolve(method string, u canonical.URL) (Response, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := Key{Method: method, URL: u}
	e, ok := r.entries[k.lookup()]
	if !ok {
		r.log.Debug().Str("method", method).Str("canonical", u.CanonicalString()).Msg("no registration")
		return Response{}, fmt.Errorf(
			"%w: %s %s; not making request, go fix your test",
			httpretty.ErrUnregisteredRequest, method, u.Raw(),
		)
	}

	resp, err := e.next()
	if err != nil {
		return Response{}, fmt.Errorf("%w: %s %s", err, method, u.Raw())
	}

	r.log.Debug().
		Str("method", method).
		Str("canonical", u.CanonicalString()).
		Int("remaining", e.remaining()).
		Msg("resolved response")

	return resp, nil
}

// Remaining reports how many responses are left under method and u. It
// returns -1 for single entries and false when nothing is registered.
func (r *Registry) Remaining(method string, u canonical.URL) (int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[Key{Method: method, URL: u}.lookup()]
	if !ok {
		return 0, false
	}
	return e.remaining(), true
}

// Len returns the number of registered keys.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Clear removes every registration.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = make(map[string]entry)
}
