package linkme

import (
	"context"
	"sync/atomic"

	"github.com/dmitrymomot/linkme/pkg/cid"
	"github.com/dmitrymomot/linkme/pkg/payload"
)

var std atomic.Pointer[Controller]

func init() {
	std.Store(New())
}

// Default returns the controller used by the package-level functions.
func Default() *Controller { return std.Load() }

// SetDefault replaces the package-level controller. Nil is ignored.
func SetDefault(c *Controller) {
	if c != nil {
		std.Store(c)
	}
}

// Configure configures the default controller.
func Configure(ctx context.Context, cfg Config) error {
	return Default().Configure(ctx, cfg)
}

// Resolve resolves the default controller's current location.
func Resolve(ctx context.Context) *payload.Payload {
	return Default().Resolve(ctx)
}

// ResolveFromURL resolves rawURL with the default controller.
func ResolveFromURL(ctx context.Context, rawURL string) *payload.Payload {
	return Default().ResolveFromURL(ctx, rawURL)
}

// HandleLink handles a deep link with the default controller.
func HandleLink(ctx context.Context, rawURL string) *payload.Payload {
	return Default().HandleLink(ctx, rawURL)
}

// ClaimDeferredIfAvailable claims a deferred link with the default controller.
func ClaimDeferredIfAvailable(ctx context.Context) *payload.Payload {
	return Default().ClaimDeferredIfAvailable(ctx)
}

func SetUserID(id string) { Default().SetUserID(id) }

func Track(ctx context.Context, event string, props map[string]any) {
	Default().Track(ctx, event, props)
}

func OnLink(l Listener) (remove func()) { return Default().OnLink(l) }

func LastPayload() *payload.Payload { return Default().LastPayload() }

// ExtractCIDFromURL returns the token in rawURL without resolving it.
// Relative inputs are resolved against the default controller's current
// location, or a placeholder origin when there is none.
func ExtractCIDFromURL(rawURL string) string {
	return cid.FromURL(rawURL, cid.Origin(Default().env.CurrentLocation()))
}
