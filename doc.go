// Package linkme resolves deep-link attribution for web hosts.
//
// A Controller looks for an attribution token (cid) in a URL, either in the
// query string or encoded in the fragment, exchanges it with the link service
// for a payload describing the destination and campaign, and notifies
// listeners. Same-origin URLs without a token can be resolved as universal
// links, pending installs can be claimed as deferred links, and app events can
// be tracked.
//
// Host facilities are reached through host.Environment and network calls
// through httpclient.Transport, so the controller runs the same way behind an
// HTTP server, in a CLI or in tests.
//
// Basic usage:
//
//	ctrl := linkme.New(linkme.WithLogger(log))
//	err := ctrl.Configure(ctx, linkme.Config{
//		BaseURL: "https://links.example",
//		AppID:   "app_123",
//	})
//	if err != nil {
//		return err // errors.Is(err, linkme.ErrConfig) or linkme.ErrTransportUnavailable
//	}
//
//	remove := ctrl.OnLink(func(p *payload.Payload) {
//		fmt.Println("open", p.Path)
//	})
//	defer remove()
//
//	p := ctrl.ResolveFromURL(ctx, "https://links.example/promo?cid=abc123")
//
// Resolution, claim and tracking failures are never returned; they yield a nil
// payload and a DEBUG log record.
//
// Serving HTTP:
//
//	mw, err := linkme.NewMiddleware(cfg, linkme.WithRedirect(true))
//	if err != nil {
//		return err
//	}
//	r := chi.NewRouter()
//	r.Use(requestid.Middleware, mw)
//	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
//		p, ok := linkme.PayloadFromContext(r.Context())
//		...
//	})
//
// The package-level functions (Configure, Resolve, Track, ...) operate on a
// default controller, see Default and SetDefault.
package linkme
