/*
Package httpclient provides an HTTP client that dispatches every request
through a waPC host call.

Requests are serialized as protobuf and handed to the configured HostCall,
which defaults to wapc.HostCall. Tests take over that entry point with
SwapHostCall, typically through interceptor.HostCallSlot, so the code under
test keeps using the same client while requests are answered from canned
responses.
*/
package httpclient
