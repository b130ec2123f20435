package ledger

import (
	"bytes"
	"net/http"
	"reflect"
	"sync"

	"github.com/tarmac-project/httpretty/canonical"
)

// Call is a recorded request.
type Call struct {
	// Seq is the 1-based position of the call in the ledger.
	Seq int

	// Method is the HTTP method used.
	Method string

	// URL is the canonical request URL, parameters included.
	URL canonical.URL

	// Header holds the request headers.
	Header http.Header

	// Body is the request body after it was drained.
	Body []byte

	// Options holds any other request options, passed through verbatim.
	Options map[string]any
}

func (c Call) clone() Call {
	if c.Header != nil {
		c.Header = c.Header.Clone()
	}
	if c.Body != nil {
		c.Body = append([]byte(nil), c.Body...)
	}
	if c.Options != nil {
		opts := make(map[string]any, len(c.Options))
		for k, v := range c.Options {
			opts[k] = v
		}
		c.Options = opts
	}
	return c
}

// Query selects recorded calls. Zero-valued fields are not compared, except
// URL which must always be set.
type Query struct {
	// Method restricts matches to one HTTP method when set.
	Method string

	// URL is compared using canonical equality.
	URL canonical.URL

	// IgnoreParams compares URLs by base only.
	IgnoreParams bool

	// Header lists headers that must be present with the same values.
	Header http.Header

	// Body must equal the recorded body when non-nil.
	Body []byte

	// Options lists options that must be present with deeply equal values.
	Options map[string]any
}

// Match reports whether c satisfies q.
func (q Query) Match(c Call) bool {
	if q.Method != "" && q.Method != c.Method {
		return false
	}

	want, got := q.URL, c.URL
	if q.IgnoreParams {
		want, got = want.WithoutParams(), got.WithoutParams()
	}
	if !want.Equal(got) {
		return false
	}

	for name, values := range q.Header {
		if !reflect.DeepEqual(c.Header.Values(name), values) {
			return false
		}
	}

	if q.Body != nil && !bytes.Equal(q.Body, c.Body) {
		return false
	}

	for k, v := range q.Options {
		recorded, ok := c.Options[k]
		if !ok || !reflect.DeepEqual(recorded, v) {
			return false
		}
	}

	return true
}

// Ledger is an append-only call log. It is safe for concurrent use.
type Ledger struct {
	mu    sync.Mutex
	calls []Call
}

// New creates an empty Ledger.
func New() *Ledger {
	return &Ledger{calls: []Call{}}
}

// Record appends c and returns it with Seq assigned. Identical calls are
// recorded as separate entries.
func (l *Ledger) Record(c Call) Call {
	l.mu.Lock()
	defer l.mu.Unlock()

	c = c.clone()
	c.Seq = len(l.calls) + 1
	l.calls = append(l.calls, c)
	return c.clone()
}

// Calls returns a copy of every recorded call in order.
func (l *Ledger) Calls() []Call {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Call, len(l.calls))
	for i, c := range l.calls {
		out[i] = c.clone()
	}
	return out
}

// Len returns the number of recorded calls.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.calls)
}

// Matching returns the recorded calls that satisfy q, in order.
func (l *Ledger) Matching(q Query) []Call {
	var out []Call
	for _, c := range l.Calls() {
		if q.Match(c) {
			out = append(out, c)
		}
	}
	return out
}

// HasCall reports whether any recorded call satisfies q.
func (l *Ledger) HasCall(q Query) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, c := range l.calls {
		if q.Match(c) {
			return true
		}
	}
	return false
}

// Count returns how many recorded calls satisfy q.
func (l *Ledger) Count(q Query) int { return len(l.Matching(q)) }

// Clear removes every recorded call.
func (l *Ledger) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = []Call{}
}
