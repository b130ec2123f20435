/*
Package canonical normalizes URLs into a comparable form that ignores the
order query parameters were supplied in and whether they arrived embedded in
the URL string or as a separate parameter set.

	a := canonical.MustNew("http://api.test/items?b=2&a=1", nil)
	b := canonical.MustNew("http://api.test/items", url.Values{"a": {"1"}, "b": {"2"}})
	a.Equal(b) // true

A URL value is immutable once constructed. Key returns the form used for map
lookups; CanonicalString is the readable form used in logs and error messages.

Query strings are split on '&' alone. A ';' is literal, so "a=1;b=2" is one
parameter named "a" with the value "1;b=2". Parameter names are compared in
sorted order, but the values under a repeated name are compared in the order
they were supplied.
*/
package canonical
