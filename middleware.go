package linkme

import (
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/linkme/pkg/host"
	"github.com/dmitrymomot/linkme/pkg/logger"
	"github.com/dmitrymomot/linkme/pkg/payload"
)

// PayloadHook observes a payload resolved by the middleware before the
// request continues or is redirected.
type PayloadHook func(r *http.Request, p *payload.Payload)

type middlewareOptions struct {
	redirect       bool
	hook           PayloadHook
	log            *slog.Logger
	trustForwarded bool
	seenLimit      int
}

// MiddlewareOption configures NewMiddleware.
type MiddlewareOption func(*middlewareOptions)

// WithRedirect answers 302 Found with the token-free URL once a token was
// resolved, instead of calling the next handler.
func WithRedirect(enabled bool) MiddlewareOption {
	return func(o *middlewareOptions) { o.redirect = enabled }
}

// WithPayloadHook registers fn for every resolved payload.
func WithPayloadHook(fn PayloadHook) MiddlewareOption {
	return func(o *middlewareOptions) { o.hook = fn }
}

// WithMiddlewareLogger sets the logger passed to each request's controller.
func WithMiddlewareLogger(l *slog.Logger) MiddlewareOption {
	return func(o *middlewareOptions) { o.log = l }
}

// WithTrustedProxy builds request locations from X-Forwarded-* headers.
func WithTrustedProxy(trust bool) MiddlewareOption {
	return func(o *middlewareOptions) { o.trustForwarded = trust }
}

// NewMiddleware returns HTTP middleware that resolves the token or universal
// link of each incoming request and stores the payload in the request context
// (see PayloadFromContext). Each request gets its own controller, so requests
// share no state. Resolution failures never fail the request.
//
// cfg is validated once; AutoResolve is forced on and AutoListen off.
// Set ResolveUniversalLinks to false when the handler is served from the link
// service origin but should not resolve every plain request.
func NewMiddleware(cfg Config, opts ...MiddlewareOption) (func(http.Handler) http.Handler, error) {
	if _, err := NormalizeConfig(cfg, true); err != nil {
		return nil, err
	}

	o := &middlewareOptions{log: logger.Nop(), seenLimit: 1}
	for _, opt := range opts {
		opt(o)
	}
	cfg.AutoResolve = Bool(true)
	cfg.AutoListen = Bool(false)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			env := host.NewRequest(r,
				host.WithRequestTransport(cfg.Transport),
				host.WithForwardedHeaders(o.trustForwarded),
			)
			ctrl := New(
				WithEnvironment(env),
				WithLogger(o.log),
				WithSeenTokenLimit(o.seenLimit, 0),
			)
			defer ctrl.Close()

			var resolved *payload.Payload
			ctrl.OnLink(func(p *payload.Payload) { resolved = p })

			if err := ctrl.Configure(r.Context(), cfg); err != nil {
				o.log.WarnContext(r.Context(), "linkme middleware skipped", logger.Error(err))
				next.ServeHTTP(w, r)
				return
			}
			if resolved == nil {
				next.ServeHTTP(w, r)
				return
			}

			if o.hook != nil {
				o.hook(r, resolved)
			}
			if o.redirect {
				if target := env.Replaced(); target != "" {
					http.Redirect(w, r, target, http.StatusFound)
					return
				}
			}
			next.ServeHTTP(w, r.WithContext(WithPayload(r.Context(), resolved)))
		})
	}, nil
}
