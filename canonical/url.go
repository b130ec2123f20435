package canonical

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/tarmac-project/httpretty"
)

// keySeparator splits the base from the encoded parameters in Key. It can
// never appear in a URL produced by net/url.
const keySeparator = "\x00"

// URL is a parsed URL split into a query-free base and its parameters.
type URL struct {
	raw    string
	base   string
	params url.Values
}

// New parses rawURL, strips its query into the parameter set, and adds every
// value from params on top. Values under a key that appears both in the query
// and in params accumulate rather than replace each other.
func New(rawURL string, params url.Values) (URL, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return URL{}, fmt.Errorf("%w: %q: %w", httpretty.ErrInvalidURL, rawURL, err)
	}

	embedded, err := parseQuery(u.RawQuery)
	if err != nil {
		return URL{}, fmt.Errorf("%w: %q: %w", httpretty.ErrInvalidURL, rawURL, err)
	}

	merged := make(url.Values, len(embedded)+len(params))
	for k, values := range embedded {
		merged[k] = append([]string(nil), values...)
	}
	for k, values := range params {
		merged[k] = append(merged[k], values...)
	}

	u.RawQuery = ""
	u.ForceQuery = false

	return URL{raw: rawURL, base: u.String(), params: merged}, nil
}

// MustNew is like New but panics if rawURL cannot be parsed.
func MustNew(rawURL string, params url.Values) URL {
	u, err := New(rawURL, params)
	if err != nil {
		panic(err)
	}
	return u
}

// Raw returns the URL string as it was supplied to New.
func (u URL) Raw() string { return u.raw }

// Base returns scheme, host, and path with the query removed.
func (u URL) Base() string { return u.base }

// Params returns a copy of the merged parameter set.
func (u URL) Params() url.Values {
	out := make(url.Values, len(u.params))
	for k, values := range u.params {
		out[k] = append([]string(nil), values...)
	}
	return out
}

// WithoutParams returns a URL with the same base and no parameters.
func (u URL) WithoutParams() URL {
	return URL{raw: u.base, base: u.base, params: url.Values{}}
}

// CanonicalString returns the base followed by each parameter's value in
// sorted key order. Multiple values under one key are joined with a comma.
func (u URL) CanonicalString() string {
	var b strings.Builder
	b.WriteString(u.base)
	for _, k := range sortedKeys(u.params) {
		b.WriteString(strings.Join(u.params[k], ","))
	}
	return b.String()
}

// String implements fmt.Stringer.
func (u URL) String() string { return u.CanonicalString() }

// Key returns the comparable form of u. Keys carry both parameter names and
// values so two URLs share a Key only when their bases match and every
// parameter matches. A parameter with only empty values is the same as a
// missing one. Parameter names are sorted, but the values under one name keep
// their order: tag=1&tag=2 and tag=2&tag=1 have different Keys.
func (u URL) Key() string {
	significant := make(url.Values, len(u.params))
	for k, values := range u.params {
		if hasValue(values) {
			significant[k] = values
		}
	}
	if len(significant) == 0 {
		return u.base
	}
	return u.base + keySeparator + significant.Encode()
}

// Equal reports whether u and other have the same Key. The order of values
// under a repeated parameter name is significant.
func (u URL) Equal(other URL) bool { return u.Key() == other.Key() }

// parseQuery splits a raw query on '&' only. Unlike url.ParseQuery, a ';' is
// kept as part of the name or value it appears in.
func parseQuery(raw string) (url.Values, error) {
	values := make(url.Values)
	for raw != "" {
		var pair string
		pair, raw, _ = strings.Cut(raw, "&")
		if pair == "" {
			continue
		}

		name, value, _ := strings.Cut(pair, "=")
		name, err := url.QueryUnescape(name)
		if err != nil {
			return nil, err
		}
		value, err = url.QueryUnescape(value)
		if err != nil {
			return nil, err
		}
		values[name] = append(values[name], value)
	}
	return values, nil
}

func hasValue(values []string) bool {
	for _, v := range values {
		if v != "" {
			return true
		}
	}
	return false
}

func sortedKeys(v url.Values) []string {
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
