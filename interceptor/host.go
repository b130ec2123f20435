package interceptor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/tarmac-project/httpretty"
	sdkproto "github.com/tarmac-project/protobuf-go/sdk"
	proto "github.com/tarmac-project/protobuf-go/sdk/http"
	"google.golang.org/protobuf/encoding/protojson"
)

// ErrInvalidPayload indicates a host call payload that is not an HTTPClient request.
var ErrInvalidPayload = errors.New("invalid host call payload")

// OptionInsecure is the recorded option carrying a host call's Insecure flag.
const OptionInsecure = "insecure"

// HostCall implements httpretty.HostCall as the host side of the waPC HTTP
// client. It decodes the protobuf request, resolves it with FakeRequest, and
// encodes the result as a protobuf response.
func (i *Interceptor) HostCall(namespace, capability, function string, payload []byte) ([]byte, error) {
	if namespace != i.cfg.SDKConfig.Namespace {
		return nil, fmt.Errorf(
			"%w: expected namespace %s, got %s",
			httpretty.ErrUnexpectedNamespace,
			i.cfg.SDKConfig.Namespace,
			namespace,
		)
	}

	if capability != httpretty.CapabilityHTTPClient {
		return nil, fmt.Errorf(
			"%w: expected capability %s, got %s",
			httpretty.ErrUnexpectedCapability,
			httpretty.CapabilityHTTPClient,
			capability,
		)
	}

	if function != httpretty.FunctionCall {
		return nil, fmt.Errorf(
			"%w: expected function %s, got %s",
			httpretty.ErrUnexpectedFunction,
			httpretty.FunctionCall,
			function,
		)
	}

	var req proto.HTTPClient
	if err := req.UnmarshalVT(payload); err != nil {
		return nil, errors.Join(ErrInvalidPayload, err)
	}

	if e := i.log.Debug(); e.Enabled() {
		e.Str("payload", protojson.Format(&req)).Msg("host call")
	}

	header := make(http.Header, len(req.GetHeaders()))
	for name, h := range req.GetHeaders() {
		header[http.CanonicalHeaderKey(name)] = append([]string(nil), h.GetValues()...)
	}

	var data io.Reader
	if body := req.GetBody(); len(body) > 0 {
		data = bytes.NewReader(body)
	}

	resp, err := i.FakeRequest(context.Background(), Request{
		Method:  req.GetMethod(),
		URL:     req.GetUrl(),
		Header:  header,
		Data:    data,
		Options: map[string]any{OptionInsecure: req.GetInsecure()},
	})
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read declared body: %w", err)
	}

	out := &proto.HTTPClientResponse{
		Status:  &sdkproto.Status{Status: "OK", Code: int32(http.StatusOK)},
		Code:    int32(resp.StatusCode),
		Headers: make(map[string]*proto.Header, len(resp.Header)),
		Body:    content,
	}
	for name, values := range resp.Header {
		out.Headers[name] = &proto.Header{Values: values}
	}

	return out.MarshalVT()
}
