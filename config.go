package linkme

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/dmitrymomot/linkme/pkg/cid"
	"github.com/dmitrymomot/linkme/pkg/httpclient"
)

// Config is the caller-supplied configuration. Nil boolean pointers mean
// "not set" and take the defaults described on each field.
type Config struct {
	// BaseURL is the absolute URL of the link service, e.g. https://links.example.
	BaseURL string
	AppID   string
	AppKey  string

	// Transport overrides the environment's default transport.
	Transport httpclient.Transport

	// AutoResolve resolves the current location during Configure.
	// Defaults to true in browser-like environments.
	AutoResolve *bool
	// AutoListen re-resolves on every navigation change.
	// Defaults to true in browser-like environments.
	AutoListen *bool
	// StripCID is reserved; the token is always stripped when resolving the
	// current location. Defaults to true.
	StripCID *bool
	// SendDeviceInfo attaches device details to API calls. Defaults to true.
	SendDeviceInfo *bool
	// ResolveUniversalLinks resolves same-origin URLs without a token.
	// Defaults to true.
	ResolveUniversalLinks *bool

	// Debug logs resolver activity to stderr when no logger was injected.
	Debug bool
}

// Bool returns a pointer to v, for the optional Config fields.
func Bool(v bool) *bool { return &v }

// OperatingConfig is the validated configuration a controller runs with.
type OperatingConfig struct {
	BaseURL               string
	APIBaseURL            string
	Origin                string
	AppID                 string
	AppKey                string
	AutoResolve           bool
	AutoListen            bool
	StripCID              bool
	SendDeviceInfo        bool
	ResolveUniversalLinks bool
	Debug                 bool
}

// NormalizeConfig validates cfg and fills in defaults. browserLike is the
// environment's IsBrowserLike answer. It fails with ErrConfig when BaseURL is
// empty or not an absolute URL.
func NormalizeConfig(cfg Config, browserLike bool) (OperatingConfig, error) {
	raw := strings.TrimSpace(cfg.BaseURL)
	if raw == "" {
		return OperatingConfig{}, fmt.Errorf("%w: base url is required", ErrConfig)
	}
	u, err := url.Parse(raw)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return OperatingConfig{}, fmt.Errorf("%w: base url %q is not an absolute url", ErrConfig, raw)
	}

	base := strings.TrimSuffix(raw, "/")
	return OperatingConfig{
		BaseURL:               base,
		APIBaseURL:            base + "/api",
		Origin:                cid.OriginOf(u),
		AppID:                 cfg.AppID,
		AppKey:                cfg.AppKey,
		AutoResolve:           valueOr(cfg.AutoResolve, browserLike),
		AutoListen:            valueOr(cfg.AutoListen, browserLike),
		StripCID:              valueOr(cfg.StripCID, true),
		SendDeviceInfo:        valueOr(cfg.SendDeviceInfo, true),
		ResolveUniversalLinks: valueOr(cfg.ResolveUniversalLinks, true),
		Debug:                 cfg.Debug,
	}, nil
}

func valueOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}
