// Package host defines the capabilities a link resolver needs from the
// runtime it is embedded in, and ships two implementations.
//
// Environment answers whether the host behaves like a browser, exposes a
// default HTTP transport, reads and replaces the current location, notifies
// about navigation and builds a device description sent with API calls.
//
// Request binds an Environment to one incoming *http.Request, which is how a
// Go server sees a browser session: the current location is the absolute
// request URL and device details come from request headers (User-Agent,
// Accept-Language and client hints). Replacing the location is recorded so the
// caller can redirect. Memory is an in-process implementation with explicit
// navigation, used by tools, tests and hosts without a real location.
package host
