package host

import (
	"net/http"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/text/language"

	"github.com/dmitrymomot/linkme/pkg/httpclient"
)

// Client hint and forwarding headers read by Request.
const (
	headerForwardedProto = "X-Forwarded-Proto"
	headerForwardedHost  = "X-Forwarded-Host"
	headerECT            = "ECT"
	headerViewportWidth  = "Sec-CH-Viewport-Width"
	headerViewportHeight = "Sec-CH-Viewport-Height"
	headerDPR            = "Sec-CH-DPR"
	headerLegacyDPR      = "DPR"
)

// Request is an Environment bound to one incoming HTTP request.
type Request struct {
	req            *http.Request
	transport      httpclient.Transport
	trustForwarded bool

	mu       sync.Mutex
	replaced string
}

var _ Environment = (*Request)(nil)

// RequestOption configures a Request environment.
type RequestOption func(*Request)

// WithRequestTransport overrides the transport used for API calls.
// Default is http.DefaultClient.
func WithRequestTransport(t httpclient.Transport) RequestOption {
	return func(r *Request) {
		if t != nil {
			r.transport = t
		}
	}
}

// WithForwardedHeaders makes CurrentLocation honour X-Forwarded-Proto and
// X-Forwarded-Host. Enable it only behind a trusted proxy.
func WithForwardedHeaders(trust bool) RequestOption {
	return func(r *Request) { r.trustForwarded = trust }
}

// NewRequest binds an Environment to r.
func NewRequest(r *http.Request, opts ...RequestOption) *Request {
	env := &Request{req: r}
	for _, opt := range opts {
		opt(env)
	}
	if env.transport == nil {
		env.transport = httpclient.FromHTTPClient(http.DefaultClient)
	}
	return env
}

// IsBrowserLike is true whenever a request is bound.
func (e *Request) IsBrowserLike() bool { return e.req != nil }

func (e *Request) Transport() httpclient.Transport { return e.transport }

// CurrentLocation rebuilds the absolute URL the client requested. Fragments are
// never sent to servers, so only query tokens are visible here.
func (e *Request) CurrentLocation() string {
	if e.req == nil || e.req.URL == nil {
		return ""
	}

	scheme := "http"
	if e.req.TLS != nil {
		scheme = "https"
	}
	host := e.req.Host

	if e.trustForwarded {
		if proto := firstValue(e.req.Header.Get(headerForwardedProto)); proto != "" {
			scheme = strings.ToLower(proto)
		}
		if fh := firstValue(e.req.Header.Get(headerForwardedHost)); fh != "" {
			host = fh
		}
	}
	if host == "" {
		host = e.req.URL.Host
	}
	if host == "" {
		return ""
	}

	return scheme + "://" + host + e.req.URL.RequestURI()
}

// ReplaceLocation records url; see Replaced.
func (e *Request) ReplaceLocation(url string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.replaced = url
}

// Replaced returns the last location passed to ReplaceLocation.
func (e *Request) Replaced() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.replaced
}

// SubscribeToNavigation is a no-op: a request never navigates.
func (e *Request) SubscribeToNavigation(func()) func() {
	return func() {}
}

// DeviceInfo derives device details from request headers. Every probe is
// optional and silently omitted when the header is missing or malformed.
func (e *Request) DeviceInfo(enabled bool) map[string]any {
	if !enabled || e.req == nil {
		return nil
	}

	h := e.req.Header
	device := map[string]any{"platform": PlatformWeb}

	if ua := e.req.UserAgent(); ua != "" {
		device["userAgent"] = ua
	}

	if locales := preferredLocales(h.Get("Accept-Language")); len(locales) > 0 {
		device["locale"] = locales[0]
		device["preferredLocales"] = locales
	}

	if ect := strings.TrimSpace(h.Get(headerECT)); ect != "" {
		device["connection"] = ect
	}

	width, werr := strconv.Atoi(strings.TrimSpace(h.Get(headerViewportWidth)))
	height, herr := strconv.Atoi(strings.TrimSpace(h.Get(headerViewportHeight)))
	if werr == nil && herr == nil && width > 0 && height > 0 {
		device["screen"] = map[string]any{
			"width":      width,
			"height":     height,
			"pixelRatio": pixelRatio(h),
		}
	}

	return device
}

func preferredLocales(header string) []string {
	if strings.TrimSpace(header) == "" {
		return nil
	}
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(tags) == 0 {
		return nil
	}
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		if tag == language.Und {
			continue
		}
		out = append(out, tag.String())
	}
	return out
}

func pixelRatio(h http.Header) float64 {
	raw := h.Get(headerDPR)
	if raw == "" {
		raw = h.Get(headerLegacyDPR)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || v <= 0 {
		return 1
	}
	return v
}

func firstValue(v string) string {
	first, _, _ := strings.Cut(v, ",")
	return strings.TrimSpace(first)
}
