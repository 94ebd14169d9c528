package linkme

import (
	"context"

	"github.com/dmitrymomot/linkme/pkg/payload"
)

type payloadKey struct{}

// WithPayload returns a copy of ctx carrying p.
func WithPayload(ctx context.Context, p *payload.Payload) context.Context {
	return context.WithValue(ctx, payloadKey{}, p)
}

// PayloadFromContext returns the payload stored by the middleware.
func PayloadFromContext(ctx context.Context) (*payload.Payload, bool) {
	if ctx == nil {
		return nil, false
	}
	p, ok := ctx.Value(payloadKey{}).(*payload.Payload)
	return p, ok && p != nil
}
