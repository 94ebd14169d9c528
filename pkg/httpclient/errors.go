package httpclient

import "errors"

var (
	// ErrNilTransport is returned when a request is sent through a client without a transport.
	ErrNilTransport = errors.New("httpclient: transport is nil")

	// ErrBuildRequest is returned when a Request cannot be turned into an HTTP request.
	ErrBuildRequest = errors.New("httpclient: failed to build request")

	// ErrRoundTrip wraps transport-level failures (DNS, connection reset, timeouts).
	ErrRoundTrip = errors.New("httpclient: request failed")
)
