package linkme

import "errors"

var (
	// ErrConfig is returned by Configure when no usable base URL was supplied.
	ErrConfig = errors.New("linkme: invalid configuration")

	// ErrTransportUnavailable is returned by Configure when neither the config
	// nor the environment provides a transport.
	ErrTransportUnavailable = errors.New("linkme: http transport is not available; provide Config.Transport")

	// ErrNotConfigured is reported by tools built on the controller, such as the
	// linkme command, when no base URL is available. Resolution calls never
	// return it.
	ErrNotConfigured = errors.New("linkme: controller is not configured")
)
