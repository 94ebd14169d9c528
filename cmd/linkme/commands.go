package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrymomot/linkme"
	"github.com/dmitrymomot/linkme/pkg/host"
	"github.com/dmitrymomot/linkme/pkg/httpserver"
	"github.com/dmitrymomot/linkme/pkg/logger"
	"github.com/dmitrymomot/linkme/pkg/payload"
	"github.com/dmitrymomot/linkme/pkg/requestid"
)

// requireBaseURL reports linkme.ErrNotConfigured when no base URL was set.
func requireBaseURL(s settings) error {
	if strings.TrimSpace(s.BaseURL) == "" {
		return fmt.Errorf("%w: set LINKME_BASE_URL or base_url", linkme.ErrNotConfigured)
	}
	return nil
}

func newController(ctx context.Context, s settings, log *slog.Logger, location string) (*linkme.Controller, error) {
	if err := requireBaseURL(s); err != nil {
		return nil, err
	}
	c := linkme.New(
		linkme.WithEnvironment(host.NewMemory(host.WithLocation(location))),
		linkme.WithLogger(log),
	)
	if err := c.Configure(ctx, s.linkmeConfig()); err != nil {
		return nil, err
	}
	return c, nil
}

func cmdResolve(ctx context.Context, s settings, log *slog.Logger, args []string, out io.Writer) error {
	if len(args) != 1 {
		return usageError("resolve takes exactly one url")
	}
	c, err := newController(ctx, s, log, args[0])
	if err != nil {
		return err
	}
	defer c.Close()
	return printPayload(out, c.ResolveFromURL(ctx, args[0]))
}

func cmdClaim(ctx context.Context, s settings, log *slog.Logger, out io.Writer) error {
	c, err := newController(ctx, s, log, "")
	if err != nil {
		return err
	}
	defer c.Close()
	return printPayload(out, c.ClaimDeferredIfAvailable(ctx))
}

func cmdTrack(ctx context.Context, s settings, log *slog.Logger, args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet("track", flag.ContinueOnError)
	fs.SetOutput(stderr)
	user := fs.String("user", "", "user id attached to the event")
	if err := fs.Parse(args); err != nil {
		return usageError(err.Error())
	}
	if fs.NArg() == 0 {
		return usageError("track needs an event name")
	}
	props, err := parseProps(fs.Args()[1:])
	if err != nil {
		return err
	}

	c, err := newController(ctx, s, log, "")
	if err != nil {
		return err
	}
	defer c.Close()
	if *user != "" {
		c.SetUserID(*user)
	}
	c.Track(ctx, fs.Arg(0), props)
	return nil
}

func cmdServe(ctx context.Context, s settings, log *slog.Logger, args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(stderr)
	redirect := fs.Bool("redirect", false, "redirect to the cleaned url after resolving")
	if err := fs.Parse(args); err != nil {
		return usageError(err.Error())
	}

	h, err := newRouter(s, log, *redirect)
	if err != nil {
		return err
	}
	srv := httpserver.New(
		httpserver.WithAddr(s.ListenAddr),
		httpserver.WithLogger(log),
	)
	return srv.Run(ctx, h)
}

func newRouter(s settings, log *slog.Logger, redirect bool) (http.Handler, error) {
	if err := requireBaseURL(s); err != nil {
		return nil, err
	}
	cfg := s.linkmeConfig()
	cfg.Debug = s.Debug
	mw, err := linkme.NewMiddleware(cfg,
		linkme.WithRedirect(redirect),
		linkme.WithMiddlewareLogger(log),
		linkme.WithPayloadHook(func(r *http.Request, p *payload.Payload) {
			log.InfoContext(r.Context(), "deep link resolved", logger.LinkID(p.LinkID), logger.URL(r.URL.Path))
		}),
	)
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer, requestid.Middleware)
	r.Get("/healthz", httpserver.HealthCheckHandler(log))
	r.Group(func(r chi.Router) {
		r.Use(mw)
		r.Get("/*", func(w http.ResponseWriter, r *http.Request) {
			p, _ := linkme.PayloadFromContext(r.Context())
			w.Header().Set("Content-Type", "application/json")
			_ = printPayload(w, p)
		})
	})
	return r, nil
}

func printPayload(w io.Writer, p *payload.Payload) error {
	if p == nil {
		_, err := fmt.Fprintln(w, "null")
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(p)
}

// parseProps turns key=value pairs into event properties.
func parseProps(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	props := make(map[string]any, len(pairs))
	for _, kv := range pairs {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			return nil, usageError(fmt.Sprintf("invalid property %q, want key=value", kv))
		}
		props[k] = v
	}
	return props, nil
}
