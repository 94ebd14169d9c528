package linkme

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/dmitrymomot/linkme/pkg/cache"
	"github.com/dmitrymomot/linkme/pkg/cid"
	"github.com/dmitrymomot/linkme/pkg/host"
	"github.com/dmitrymomot/linkme/pkg/httpclient"
	"github.com/dmitrymomot/linkme/pkg/logger"
	"github.com/dmitrymomot/linkme/pkg/payload"
	"github.com/dmitrymomot/linkme/pkg/requestid"
)

const (
	// DeviceHeader carries the serialized device payload on token lookups.
	DeviceHeader = "x-linkme-device"

	defaultSeenTokenLimit = 1024
)

// API paths relative to OperatingConfig.APIBaseURL.
const (
	pathDeeplink     = "/deeplink"
	pathResolveURL   = "/deeplink/resolve-url"
	pathDeferred     = "/deferred/claim"
	pathAppEvents    = "/app-events"
	componentControl = "linkme"
)

// Listener receives every emitted payload. Each call gets its own copy.
type Listener func(p *payload.Payload)

// ClientFactory wraps the transport chosen by Configure in a client.
type ClientFactory func(t httpclient.Transport) httpclient.Client

// Option configures a Controller.
type Option func(*Controller)

// WithEnvironment sets the host binding. Defaults to a non-browser
// host.Memory backed by http.DefaultClient.
func WithEnvironment(env host.Environment) Option {
	return func(c *Controller) {
		if env != nil {
			c.env = env
		}
	}
}

// WithClientFactory replaces httpclient.New as the client constructor.
func WithClientFactory(f ClientFactory) Option {
	return func(c *Controller) {
		if f != nil {
			c.newClient = f
		}
	}
}

// WithLogger sets the logger. Without it the controller is silent unless
// Config.Debug is set.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.injectedLog = l
		}
	}
}

// WithSeenTokenLimit bounds the set of resolved tokens used for
// de-duplication. A zero ttl keeps tokens until they are evicted.
func WithSeenTokenLimit(capacity int, ttl time.Duration) Option {
	return func(c *Controller) {
		if capacity > 0 {
			c.seenCap = capacity
		}
		if ttl > 0 {
			c.seenTTL = ttl
		}
	}
}

// WithClock overrides time.Now for event timestamps and token expiry.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		if now != nil {
			c.now = now
		}
	}
}

type registration struct {
	id uint64
	fn Listener
}

// Controller resolves attribution tokens and universal links against the
// link service and notifies listeners. It is safe for concurrent use;
// concurrent resolutions race on the last payload and the last write wins.
type Controller struct {
	env         host.Environment
	newClient   ClientFactory
	injectedLog *slog.Logger
	now         func() time.Time
	seenCap     int
	seenTTL     time.Duration
	seen        *cache.LRU[string, struct{}]

	mu          sync.Mutex
	cfg         *OperatingConfig
	client      httpclient.Client
	log         *slog.Logger
	last        *payload.Payload
	listeners   []registration
	nextID      uint64
	userID      string
	unsubscribe func()
	closed      bool
	navCtx      context.Context
	navCancel   context.CancelFunc
	inflight    sync.WaitGroup
}

// New creates an unconfigured Controller.
func New(opts ...Option) *Controller {
	c := &Controller{
		now:     time.Now,
		seenCap: defaultSeenTokenLimit,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.env == nil {
		c.env = host.NewMemory(host.WithTransport(httpclient.FromHTTPClient(nil)))
	}
	if c.newClient == nil {
		c.newClient = func(t httpclient.Transport) httpclient.Client { return httpclient.New(t) }
	}
	c.seen = cache.New(c.seenCap,
		cache.WithTTL[string, struct{}](c.seenTTL),
		cache.WithClock[string, struct{}](c.now),
		cache.WithEvictCallback(func(token string, _ struct{}) {
			c.logger().Debug("linkme seen token dropped", logger.CID(token))
		}),
	)
	c.log = c.pickLogger(false)
	c.navCtx, c.navCancel = context.WithCancel(context.Background())
	return c
}

// Configure validates cfg and replaces the controller's configuration,
// client and navigation subscription. On error nothing is changed.
// With AutoResolve it resolves the current location before returning.
func (c *Controller) Configure(ctx context.Context, cfg Config) error {
	oc, err := NormalizeConfig(cfg, c.env.IsBrowserLike())
	if err != nil {
		c.logger().WarnContext(ctx, "linkme configure failed", logger.Error(err))
		return err
	}

	transport := cfg.Transport
	if transport == nil {
		transport = c.env.Transport()
	}
	if transport == nil {
		c.logger().WarnContext(ctx, "linkme configure failed", logger.Error(ErrTransportUnavailable))
		return ErrTransportUnavailable
	}
	client := c.newClient(transport)
	if client == nil {
		return ErrTransportUnavailable
	}

	c.mu.Lock()
	c.cfg = &oc
	c.client = client
	c.log = c.pickLogger(oc.Debug)
	prev := c.unsubscribe
	c.unsubscribe = nil
	if c.closed {
		c.closed = false
		c.navCtx, c.navCancel = context.WithCancel(context.Background())
	}
	log := c.log
	c.mu.Unlock()

	detach(prev)

	if oc.AutoListen {
		unsub := c.env.SubscribeToNavigation(c.onNavigate)
		c.mu.Lock()
		stale := c.unsubscribe
		c.unsubscribe = unsub
		c.mu.Unlock()
		detach(stale)
	}

	log.DebugContext(ctx, "linkme configured",
		logger.URL(oc.BaseURL),
		slog.Bool("auto_resolve", oc.AutoResolve),
		slog.Bool("auto_listen", oc.AutoListen),
	)

	if oc.AutoResolve {
		c.Resolve(ctx)
	}
	return nil
}

// Config returns the current operating configuration.
func (c *Controller) Config() (OperatingConfig, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cfg == nil {
		return OperatingConfig{}, false
	}
	return *c.cfg, true
}

// Resolve resolves the environment's current location. When a token is
// resolved the location is replaced with its sanitized form.
func (c *Controller) Resolve(ctx context.Context) *payload.Payload {
	if !c.configured() {
		return nil
	}
	return c.processURL(ctx, c.env.CurrentLocation(), true)
}

// ResolveFromURL resolves rawURL without touching the current location.
// An empty rawURL yields nil.
func (c *Controller) ResolveFromURL(ctx context.Context, rawURL string) *payload.Payload {
	if !c.configured() {
		return nil
	}
	return c.processURL(ctx, rawURL, false)
}

// HandleLink resolves a deep link delivered outside the current location.
func (c *Controller) HandleLink(ctx context.Context, rawURL string) *payload.Payload {
	return c.processURL(ctx, rawURL, false)
}

// ClaimDeferredIfAvailable asks the service for a pending link for this
// device. It returns nil when there is none or the call fails.
func (c *Controller) ClaimDeferredIfAvailable(ctx context.Context) *payload.Payload {
	cfg, client, log := c.session()
	if cfg == nil || client == nil {
		return nil
	}

	body := claimRequest{
		Platform: host.PlatformWeb,
		Device:   c.env.DeviceInfo(cfg.SendDeviceInfo),
	}
	p := c.fetchPayload(ctx, cfg, client, log, http.MethodPost, pathDeferred, body, nil, "")
	if p == nil {
		return nil
	}
	return c.emit(p)
}

// SetUserID stores the id sent with later Track calls.
func (c *Controller) SetUserID(id string) {
	c.mu.Lock()
	c.userID = id
	c.mu.Unlock()
}

// Track records an app event. It is best effort and never reports failure.
// props is sent only when non-nil.
func (c *Controller) Track(ctx context.Context, event string, props map[string]any) {
	cfg, client, log := c.session()
	if cfg == nil || client == nil || event == "" {
		return
	}

	c.mu.Lock()
	userID := c.userID
	c.mu.Unlock()

	body := eventRequest{
		Event:     event,
		Platform:  host.PlatformWeb,
		Timestamp: c.now().Unix(),
		UserID:    userID,
		Props:     props,
	}
	ctx, res, err := c.send(ctx, cfg, client, http.MethodPost, pathAppEvents, body, nil)
	if err != nil {
		log.DebugContext(ctx, "linkme track failed",
			logger.Event(event),
			logger.UserID(userID),
			logger.Error(err),
		)
		return
	}
	if !res.OK {
		log.DebugContext(ctx, "linkme track rejected", logger.Event(event), logger.Status(res.Status))
	}
}

// OnLink registers l and returns a function that removes it.
// Go funcs are not comparable, so registrations are never merged: registering
// the same function twice delivers every payload to it twice, and each
// returned remove func drops only its own registration.
func (c *Controller) OnLink(l Listener) (remove func()) {
	if l == nil {
		return func() {}
	}
	c.mu.Lock()
	c.nextID++
	id := c.nextID
	c.listeners = append(c.listeners, registration{id: id, fn: l})
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			for i, r := range c.listeners {
				if r.id == id {
					c.listeners = append(c.listeners[:i:i], c.listeners[i+1:]...)
					return
				}
			}
		})
	}
}

// LastPayload returns a copy of the most recently emitted payload, or nil.
func (c *Controller) LastPayload() *payload.Payload {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last.Clone()
}

// Close detaches the navigation subscription and waits for resolutions it
// started. The controller may be configured again afterwards.
func (c *Controller) Close() error {
	c.mu.Lock()
	c.closed = true
	unsub := c.unsubscribe
	c.unsubscribe = nil
	cancel := c.navCancel
	c.mu.Unlock()

	detach(unsub)
	cancel()
	c.inflight.Wait()
	return nil
}

func (c *Controller) onNavigate() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.inflight.Add(1)
	ctx := c.navCtx
	c.mu.Unlock()

	go func() {
		defer c.inflight.Done()
		defer func() { _ = recover() }()
		c.Resolve(ctx)
	}()
}

func (c *Controller) processURL(ctx context.Context, rawURL string, strip bool) *payload.Payload {
	cfg, client, log := c.session()
	if cfg == nil || client == nil || rawURL == "" {
		return nil
	}

	u, err := cid.Parse(rawURL, cfg.Origin)
	if err != nil {
		log.DebugContext(ctx, "linkme url not parsable", logger.URL(rawURL), logger.Error(err))
		return nil
	}

	ex := cid.Extract(u)
	if ex.Found() {
		if cached := c.cachedFor(ex.CID); cached != nil {
			return cached
		}
		p := c.resolveCID(ctx, cfg, client, log, ex.CID)
		if p == nil {
			return nil
		}
		if p.CID == "" {
			p.CID = ex.CID
		}
		c.seen.Put(ex.CID, struct{}{})
		if strip && ex.SanitizedHref != "" {
			c.env.ReplaceLocation(ex.SanitizedHref)
		}
		return c.emit(p)
	}

	if cfg.ResolveUniversalLinks && cid.SameOrigin(cid.OriginOf(u), cfg.Origin) {
		if p := c.resolveUniversalLink(ctx, cfg, client, log, u.String()); p != nil {
			return c.emit(p)
		}
	}
	return nil
}

func (c *Controller) resolveCID(ctx context.Context, cfg *OperatingConfig, client httpclient.Client, log *slog.Logger, token string) *payload.Payload {
	var extra map[string]string
	if device := c.env.DeviceInfo(cfg.SendDeviceInfo); device != nil {
		if data, err := json.Marshal(device); err == nil {
			extra = map[string]string{DeviceHeader: string(data)}
		}
	}
	path := pathDeeplink + "?" + cid.Param + "=" + url.QueryEscape(token)
	return c.fetchPayload(ctx, cfg, client, log.With(logger.CID(token)), http.MethodGet, path, nil, extra, token)
}

func (c *Controller) resolveUniversalLink(ctx context.Context, cfg *OperatingConfig, client httpclient.Client, log *slog.Logger, href string) *payload.Payload {
	body := resolveURLRequest{
		URL:    href,
		Device: c.env.DeviceInfo(cfg.SendDeviceInfo),
	}
	return c.fetchPayload(ctx, cfg, client, log.With(logger.URL(href)), http.MethodPost, pathResolveURL, body, nil, "")
}

// fetchPayload performs one API call and normalizes its body. Every failure
// is logged and reported as nil.
func (c *Controller) fetchPayload(
	ctx context.Context,
	cfg *OperatingConfig,
	client httpclient.Client,
	log *slog.Logger,
	method, path string,
	body any,
	extra map[string]string,
	fallbackCID string,
) *payload.Payload {
	ctx, res, err := c.send(ctx, cfg, client, method, path, body, extra)
	endpoint := logger.Endpoint(method + " " + trimQuery(path))
	if err != nil {
		log.DebugContext(ctx, "linkme request failed", endpoint, logger.Error(err))
		return nil
	}
	if !res.OK {
		log.DebugContext(ctx, "linkme request rejected", endpoint, logger.Status(res.Status))
		return nil
	}
	p := payload.Normalize(res.Data, fallbackCID)
	if p == nil {
		log.DebugContext(ctx, "linkme response has no payload", endpoint, logger.Status(res.Status))
		return nil
	}
	log.DebugContext(ctx, "linkme payload resolved", endpoint, logger.LinkID(p.LinkID))
	return p
}

// send builds and performs a request. The returned context carries the
// request id used for the X-Request-ID header.
func (c *Controller) send(
	ctx context.Context,
	cfg *OperatingConfig,
	client httpclient.Client,
	method, path string,
	body any,
	extra map[string]string,
) (context.Context, httpclient.JSONResponse, error) {
	ctx, id := requestid.Ensure(ctx)

	req := &httpclient.Request{
		Method: method,
		URL:    cfg.APIBaseURL + path,
		Header: buildHeaders(cfg, id, body != nil),
	}
	for k, v := range extra {
		req.Header[k] = v
	}
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return ctx, httpclient.JSONResponse{}, err
		}
		req.Body = data
	}

	res, err := safeRequest(ctx, client, req)
	return ctx, res, err
}

// safeRequest converts a panicking client into an error.
func safeRequest(ctx context.Context, client httpclient.Client, req *httpclient.Request) (res httpclient.JSONResponse, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("linkme: http client panicked: %v", r)
		}
	}()
	return httpclient.RequestJSON(ctx, client, req)
}

func buildHeaders(cfg *OperatingConfig, id string, withBody bool) map[string]string {
	h := map[string]string{"Accept": "application/json"}
	if withBody {
		h["Content-Type"] = "application/json"
	}
	if cfg.AppID != "" {
		h["x-app-id"] = cfg.AppID
	}
	if cfg.AppKey != "" {
		h["x-api-key"] = cfg.AppKey
	}
	if id != "" {
		h[requestid.Header] = id
	}
	return h
}

func (c *Controller) emit(p *payload.Payload) *payload.Payload {
	c.mu.Lock()
	c.last = p
	snapshot := make([]Listener, len(c.listeners))
	for i, r := range c.listeners {
		snapshot[i] = r.fn
	}
	c.mu.Unlock()

	for _, fn := range snapshot {
		notify(fn, p.Clone())
	}
	return p.Clone()
}

func notify(fn Listener, p *payload.Payload) {
	defer func() { _ = recover() }()
	fn(p)
}

// cachedFor returns the last payload when token was already resolved and is
// still the one the last payload belongs to.
func (c *Controller) cachedFor(token string) *payload.Payload {
	if !c.seen.Contains(token) {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.last != nil && c.last.CID == token {
		return c.last.Clone()
	}
	return nil
}

func (c *Controller) session() (*OperatingConfig, httpclient.Client, *slog.Logger) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cfg, c.client, c.log
}

func (c *Controller) configured() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cfg != nil
}

func (c *Controller) logger() *slog.Logger {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.log
}

// pickLogger returns the injected logger, a stderr debug logger when debug is
// set, or a discarding logger.
func (c *Controller) pickLogger(debug bool) *slog.Logger {
	if c.injectedLog != nil {
		return c.injectedLog
	}
	if debug {
		return logger.New(
			logger.WithDebug(),
			logger.WithAttr(logger.Component(componentControl)),
			logger.WithContextExtractors(requestid.LoggerExtractor()),
		)
	}
	return logger.Nop()
}

func detach(unsubscribe func()) {
	if unsubscribe == nil {
		return
	}
	defer func() { _ = recover() }()
	unsubscribe()
}

func trimQuery(path string) string {
	p, _, _ := strings.Cut(path, "?")
	return p
}

type resolveURLRequest struct {
	URL    string         `json:"url"`
	Device map[string]any `json:"device,omitempty"`
}

type claimRequest struct {
	Platform string         `json:"platform"`
	Device   map[string]any `json:"device,omitempty"`
}

type eventRequest struct {
	Event     string         `json:"event"`
	Platform  string         `json:"platform"`
	Timestamp int64          `json:"timestamp"`
	UserID    string         `json:"userId,omitempty"`
	Props     map[string]any `json:"props,omitzero"`
}
