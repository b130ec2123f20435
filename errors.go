package httpretty

import "errors"

var (
	// ErrUnregisteredRequest is returned when no registration matches a request's method and URL.
	ErrUnregisteredRequest = errors.New("no registration matches request")

	// ErrResponsesExhausted is returned when a response sequence has been fully consumed.
	ErrResponsesExhausted = errors.New("no responses left")

	// ErrInvalidRegistration indicates a registration that cannot be stored as given.
	ErrInvalidRegistration = errors.New("invalid registration")

	// ErrContentType indicates a declared body that is not a string, []byte, or io.Reader.
	ErrContentType = errors.New("body must be string, []byte, or io.Reader")

	// ErrInvalidURL indicates a malformed URL.
	ErrInvalidURL = errors.New("invalid URL provided")

	// ErrAlreadyActive is returned by Activate when interception is already in place.
	ErrAlreadyActive = errors.New("interceptor already active")

	// ErrNotActive is returned by Deactivate when interception was never activated.
	ErrNotActive = errors.New("interceptor not active")
)

var (
	// ErrHostCall indicates that a waPC host invocation failed.
	ErrHostCall = errors.New("host call failed")

	// ErrHostResponseInvalid signals that the host returned an invalid or unexpected payload.
	ErrHostResponseInvalid = errors.New("host response is invalid or unexpected")

	// ErrHostError means the host completed the call but reported a failure status.
	ErrHostError = errors.New("host returned an error status")

	// ErrUnexpectedNamespace is returned when a host call arrives on the wrong namespace.
	ErrUnexpectedNamespace = errors.New("unexpected namespace")

	// ErrUnexpectedCapability is returned when a host call targets an unsupported capability.
	ErrUnexpectedCapability = errors.New("unexpected capability")

	// ErrUnexpectedFunction is returned when a host call targets an unsupported function.
	ErrUnexpectedFunction = errors.New("unexpected function")
)
