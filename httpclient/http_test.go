package httpclient

import (
	"errors"
	"io"
	"net/http"
	"reflect"
	"strings"
	"testing"

	"github.com/tarmac-project/httpretty"
	"github.com/tarmac-project/httpretty/interceptor"
	sdkproto "github.com/tarmac-project/protobuf-go/sdk"
	proto "github.com/tarmac-project/protobuf-go/sdk/http"
)

// newIntercepted builds a client whose host call is answered by an interceptor.
func newIntercepted(t *testing.T) (*HTTPClient, *interceptor.Interceptor) {
	t.Helper()

	icpt := interceptor.New(interceptor.Config{})
	client, err := New(Config{})
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}
	if err := icpt.Activate(interceptor.HostCallSlot(client)); err != nil {
		t.Fatalf("Failed to activate interceptor: %v", err)
	}
	t.Cleanup(func() { _ = icpt.Deactivate() })

	return client, icpt
}

// exec dispatches a request using shortcut methods or Do for custom verbs.
func exec(
	client Client,
	method, url, contentType string,
	body io.Reader,
	headers map[string]string,
) (*Response, error) {
	switch method {
	case http.MethodGet:
		return client.Get(url)
	case http.MethodPost:
		return client.Post(url, contentType, body)
	case http.MethodPut:
		return client.Put(url, contentType, body)
	case http.MethodDelete:
		return client.Delete(url)
	default:
		req, err := NewRequest(method, url, body)
		if err != nil {
			return nil, err
		}
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}
		return client.Do(req)
	}
}

func TestNew(t *testing.T) {
	custom := func(string, string, string, []byte) ([]byte, error) { return nil, nil }

	tt := []struct {
		name      string
		namespace string
		hostCall  httpretty.HostCall
		wantNs    string
	}{
		{name: "Default Namespace", wantNs: httpretty.DefaultNamespace},
		{name: "Custom Namespace", namespace: "custom", wantNs: "custom"},
		{name: "Custom HostCall", hostCall: custom, wantNs: httpretty.DefaultNamespace},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			c, err := New(Config{SDKConfig: httpretty.RuntimeConfig{Namespace: tc.namespace}, HostCall: tc.hostCall})
			if err != nil {
				t.Fatalf("New returned error: %v", err)
			}
			if c.Namespace() != tc.wantNs {
				t.Fatalf("namespace mismatch: want %q, got %q", tc.wantNs, c.Namespace())
			}
			if tc.hostCall != nil {
				want := reflect.ValueOf(tc.hostCall).Pointer()
				if got := reflect.ValueOf(c.currentHostCall()).Pointer(); got != want {
					t.Fatalf("hostcall pointer mismatch: want %v, got %v", want, got)
				}
			}
		})
	}
}

func TestHTTPClient_HappyPaths(t *testing.T) {
	tt := []struct {
		name        string
		method      string
		url         string
		contentType string
		body        string
		headers     map[string]string
		expectCode  int
		expectBody  string
	}{
		{"GET", http.MethodGet, "http://example.com/api", "", "", nil, 200, `{"message":"success"}`},
		{"GET with query", http.MethodGet, "http://example.com/api?b=2&a=1", "", "", nil, 200, `{"page":"a1b2"}`},
		{"POST with body", http.MethodPost, "http://example.com/api/resource", "application/json", `{"name":"test"}`, nil, 201, `{"id":1}`},
		{"PUT with body", http.MethodPut, "http://example.com/api/resource/1", "application/json", `{"name":"updated"}`, nil, 200, `{"updated":true}`},
		{"DELETE", http.MethodDelete, "http://example.com/api/resource/1", "", "", nil, 204, ""},
		{
			"PATCH with headers",
			http.MethodPatch,
			"http://example.com/api/resource/1",
			"application/json",
			`{"status":"active"}`,
			map[string]string{"Authorization": "Bearer token123"},
			200,
			`{"patched":true}`,
		},
	}

	client, icpt := newIntercepted(t)

	for _, tc := range tt {
		var body any = tc.expectBody
		if tc.expectBody == "" {
			body = []byte{}
		}
		if err := icpt.Register(tc.method, tc.url, interceptor.Options{Status: tc.expectCode, Body: body}); err != nil {
			t.Fatalf("Register %s returned error: %v", tc.name, err)
		}
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			var body io.Reader
			if tc.body != "" {
				body = strings.NewReader(tc.body)
			}

			resp, err := exec(client, tc.method, tc.url, tc.contentType, body, tc.headers)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}

			if resp.StatusCode != tc.expectCode {
				t.Errorf("Expected status code %d, got %d", tc.expectCode, resp.StatusCode)
			}

			if resp.Status != http.StatusText(tc.expectCode) {
				t.Errorf("Expected status %q, got %q", http.StatusText(tc.expectCode), resp.Status)
			}

			var got []byte
			if resp.Body != nil {
				got, err = io.ReadAll(resp.Body)
				if err != nil {
					t.Fatalf("Failed to read response body: %v", err)
				}
			}
			if string(got) != tc.expectBody {
				t.Errorf("Expected body %q, got %q", tc.expectBody, string(got))
			}

			q := interceptor.CallQuery{Method: tc.method}
			if tc.body != "" {
				q.Body = []byte(tc.body)
			}
			if tc.contentType != "" {
				q.Header = http.Header{"Content-Type": {tc.contentType}}
			}
			for k, v := range tc.headers {
				if q.Header == nil {
					q.Header = http.Header{}
				}
				q.Header.Set(k, v)
			}
			if !icpt.HasCall(tc.url, q) {
				t.Errorf("Expected call to be recorded, got %+v", icpt.Calls())
			}
		})
	}
}

func TestHTTPClient_Errors(t *testing.T) {
	client, icpt := newIntercepted(t)

	if err := icpt.Register(http.MethodGet, "http://example.com/once", interceptor.Options{Body: "once"}); err != nil {
		t.Fatalf("Register returned error: %v", err)
	}

	t.Run("Invalid URL", func(t *testing.T) {
		for _, fn := range []func() (*Response, error){
			func() (*Response, error) { return client.Get("not a url") },
			func() (*Response, error) { return client.Post("/relative", "", nil) },
			func() (*Response, error) { return client.Put("http://%zz/", "", nil) },
			func() (*Response, error) { return client.Delete("") },
		} {
			if _, err := fn(); !errors.Is(err, httpretty.ErrInvalidURL) {
				t.Fatalf("Expected ErrInvalidURL, got %v", err)
			}
		}
	})

	t.Run("Unregistered", func(t *testing.T) {
		_, err := client.Get("http://example.com/missing")
		if !errors.Is(err, httpretty.ErrHostCall) || !errors.Is(err, httpretty.ErrUnregisteredRequest) {
			t.Fatalf("Expected ErrHostCall wrapping ErrUnregisteredRequest, got %v", err)
		}
	})

	t.Run("Nil Request", func(t *testing.T) {
		if _, err := client.Do(nil); !errors.Is(err, ErrNilRequest) {
			t.Fatalf("Expected ErrNilRequest, got %v", err)
		}
	})

	t.Run("Request Without Host", func(t *testing.T) {
		if _, err := client.Do(&Request{Method: http.MethodGet}); !errors.Is(err, httpretty.ErrInvalidURL) {
			t.Fatalf("Expected ErrInvalidURL, got %v", err)
		}
	})

	t.Run("Invalid Method", func(t *testing.T) {
		if _, err := NewRequest("BREW", "http://example.com", nil); !errors.Is(err, ErrInvalidMethod) {
			t.Fatalf("Expected ErrInvalidMethod, got %v", err)
		}
	})

	t.Run("Failing Body", func(t *testing.T) {
		failing := &failingReader{err: errors.New("read error")}
		if _, err := client.Post("http://example.com/once", "text/plain", failing); !errors.Is(err, ErrReadBody) {
			t.Fatalf("Expected ErrReadBody, got %v", err)
		}
		if icpt.HasCall("http://example.com/once", interceptor.CallQuery{Method: http.MethodPost}) {
			t.Fatal("Expected failed request not to reach the interceptor")
		}
	})
}

func TestHTTPClient_HostStatus(t *testing.T) {
	respond := func(resp *proto.HTTPClientResponse) httpretty.HostCall {
		return func(string, string, string, []byte) ([]byte, error) {
			return resp.MarshalVT()
		}
	}

	tt := []struct {
		name     string
		hostCall httpretty.HostCall
		wantErr  error
	}{
		{
			name:     "Missing Status",
			hostCall: respond(&proto.HTTPClientResponse{Code: 200}),
			wantErr:  httpretty.ErrHostResponseInvalid,
		},
		{
			name:     "Host Error",
			hostCall: respond(&proto.HTTPClientResponse{Status: &sdkproto.Status{Code: 500, Status: "boom"}}),
			wantErr:  httpretty.ErrHostError,
		},
		{
			name:     "Host Bad Input",
			hostCall: respond(&proto.HTTPClientResponse{Status: &sdkproto.Status{Code: 400}}),
			wantErr:  httpretty.ErrHostError,
		},
		{
			name:     "Unknown Host Status",
			hostCall: respond(&proto.HTTPClientResponse{Status: &sdkproto.Status{Code: 999}}),
			wantErr:  httpretty.ErrHostResponseInvalid,
		},
		{
			name: "Garbage Response",
			hostCall: func(string, string, string, []byte) ([]byte, error) {
				return []byte{0xff, 0xff, 0xff}, nil
			},
			wantErr: ErrUnmarshalResponse,
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			client, err := New(Config{HostCall: tc.hostCall})
			if err != nil {
				t.Fatalf("New returned error: %v", err)
			}
			if _, err := client.Get("http://example.com"); !errors.Is(err, tc.wantErr) {
				t.Fatalf("Expected %v, got %v", tc.wantErr, err)
			}
		})
	}

	t.Run("Partial Content Accepted", func(t *testing.T) {
		client, err := New(Config{HostCall: respond(&proto.HTTPClientResponse{
			Status: &sdkproto.Status{Code: 206},
			Code:   206,
		})})
		if err != nil {
			t.Fatalf("New returned error: %v", err)
		}
		resp, err := client.Get("http://example.com")
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if resp.StatusCode != http.StatusPartialContent || resp.Body != nil {
			t.Fatalf("Expected empty 206 response, got %d", resp.StatusCode)
		}
	})
}

func TestSwapHostCall(t *testing.T) {
	var routed []string
	record := func(name string) httpretty.HostCall {
		return func(namespace, capability, function string, _ []byte) ([]byte, error) {
			routed = append(routed, name+" "+namespace+"/"+capability+"/"+function)
			return (&proto.HTTPClientResponse{Status: &sdkproto.Status{Code: 200}, Code: 200}).MarshalVT()
		}
	}

	client, err := New(Config{HostCall: record("first")})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	prev := client.SwapHostCall(record("second"))
	if _, err := client.Get("http://example.com"); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	client.SwapHostCall(prev)
	if _, err := client.Get("http://example.com"); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	want := []string{"second tarmac/httpclient/call", "first tarmac/httpclient/call"}
	if !reflect.DeepEqual(routed, want) {
		t.Fatalf("Expected routing %v, got %v", want, routed)
	}
}

// failingReader is an io.Reader that always returns an error.
type failingReader struct {
	err error
}

func (f *failingReader) Read(_ []byte) (int, error) {
	return 0, f.err
}
