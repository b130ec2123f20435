/*
Package httpretty provides the shared runtime configuration, host-call
signature, and error values used by the request-interception test double.

The interceptor package is the entry point for tests: it registers canned
responses keyed by method and canonical URL, takes over a client's request
entry point, and records every call it resolves. The canonical, registry, and
ledger packages implement the pieces it is built from. Errors are sentinel
values wrapped with request detail and can be checked with errors.Is.
*/
package httpretty
