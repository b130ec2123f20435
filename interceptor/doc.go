/*
Package interceptor provides a test double that answers HTTP requests from
pre-declared responses and records every call it resolves.

The code under test keeps its own client; the interceptor is injected into
that client's request entry point with Activate and removed with Deactivate.
Two entry points are supported: the Transport of a *http.Client, and the
HostCall of a waPC client such as httpclient.HTTPClient.

Quick start

	icpt := interceptor.New(interceptor.Config{})
	client := &http.Client{}

	if err := icpt.Activate(interceptor.HTTPClient(client)); err != nil {
		t.Fatal(err)
	}
	defer icpt.Deactivate()
	defer icpt.Clear()

	_ = icpt.RegisterJSON(http.MethodGet, "http://api.test/widgets", interceptor.Options{
		Body: map[string]int{"id": 1},
	})

	resp, err := client.Get("http://api.test/widgets")
	// ...

	if !icpt.HasCall("http://api.test/widgets", interceptor.CallQuery{Method: http.MethodGet}) {
		t.Fatal("expected a GET to /widgets")
	}

Behavior

  - Requests are matched on method and canonical URL; query parameters match
    regardless of order or whether they were embedded in the URL.
  - A request with no matching registration fails with
    httpretty.ErrUnregisteredRequest. A sequence that has been used up fails
    with httpretty.ErrResponsesExhausted. Neither falls back to a default.
  - A request body stream is read to the end before the call is recorded.
    Do not reuse the same reader across requests.
  - Registrations and recorded calls live until Clear is called.
*/
package interceptor
