/*
Package registry stores declared responses keyed by HTTP method and canonical
URL.

A key holds either a single response, which is returned on every lookup, or a
sequence, which is consumed first-in first-out and fails with
httpretty.ErrResponsesExhausted once empty. Registering the same key again
replaces whatever was stored there.
*/
package registry
