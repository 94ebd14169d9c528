package host

import "github.com/dmitrymomot/linkme/pkg/httpclient"

// PlatformWeb is the platform reported in device payloads.
const PlatformWeb = "web"

// Environment is implemented by host bindings and consumed by the resolver.
// Implementations must be safe for concurrent use and must not panic.
type Environment interface {
	// IsBrowserLike reports whether the host runs on behalf of a browser session.
	IsBrowserLike() bool
	// Transport returns the host's default transport or nil if it has none.
	Transport() httpclient.Transport
	// CurrentLocation returns the current absolute URL or an empty string.
	CurrentLocation() string
	// ReplaceLocation swaps the visible location without a navigation.
	ReplaceLocation(url string)
	// SubscribeToNavigation registers onChange and returns a function that
	// removes it. The returned function is safe to call more than once.
	SubscribeToNavigation(onChange func()) (unsubscribe func())
	// DeviceInfo describes the device, or returns nil when enabled is false.
	// It always contains "platform" when not nil.
	DeviceInfo(enabled bool) map[string]any
}
