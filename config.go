package httpretty

// DefaultNamespace is used when no explicit namespace is provided.
const DefaultNamespace = "tarmac"

// HostCall is the waPC host function signature used to dispatch requests.
type HostCall func(namespace, capability, function string, payload []byte) ([]byte, error)

// RuntimeConfig carries configuration shared by clients and the interceptor.
type RuntimeConfig struct {
	// Namespace is the function namespace used to scope host interactions.
	Namespace string
}

// WithDefaults returns a copy of the config with empty fields defaulted.
func (c RuntimeConfig) WithDefaults() RuntimeConfig {
	if c.Namespace == "" {
		c.Namespace = DefaultNamespace
	}
	return c
}

// Routing for HTTP client host calls.
const (
	// CapabilityHTTPClient is the capability name used by HTTP client host calls.
	CapabilityHTTPClient = "httpclient"

	// FunctionCall is the function name used by HTTP client host calls.
	FunctionCall = "call"
)
