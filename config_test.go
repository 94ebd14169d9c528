package linkme_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/linkme"
)

func TestNormalizeConfig(t *testing.T) {
	t.Parallel()

	t.Run("derives urls and origin", func(t *testing.T) {
		t.Parallel()
		oc, err := linkme.NormalizeConfig(linkme.Config{
			BaseURL: "https://Links.Example:443/",
			AppID:   "app",
			AppKey:  "key",
		}, false)
		require.NoError(t, err)
		assert.Equal(t, "https://Links.Example:443", oc.BaseURL)
		assert.Equal(t, "https://Links.Example:443/api", oc.APIBaseURL)
		assert.Equal(t, "https://links.example", oc.Origin)
		assert.Equal(t, "app", oc.AppID)
		assert.Equal(t, "key", oc.AppKey)
	})

	t.Run("keeps base path", func(t *testing.T) {
		t.Parallel()
		oc, err := linkme.NormalizeConfig(linkme.Config{BaseURL: "http://localhost:8080/links"}, false)
		require.NoError(t, err)
		assert.Equal(t, "http://localhost:8080/links/api", oc.APIBaseURL)
		assert.Equal(t, "http://localhost:8080", oc.Origin)
	})

	t.Run("defaults follow environment", func(t *testing.T) {
		t.Parallel()
		for _, browser := range []bool{true, false} {
			oc, err := linkme.NormalizeConfig(linkme.Config{BaseURL: "https://x.test"}, browser)
			require.NoError(t, err)
			assert.Equal(t, browser, oc.AutoResolve)
			assert.Equal(t, browser, oc.AutoListen)
			assert.True(t, oc.StripCID)
			assert.True(t, oc.SendDeviceInfo)
			assert.True(t, oc.ResolveUniversalLinks)
			assert.False(t, oc.Debug)
		}
	})

	t.Run("explicit values win", func(t *testing.T) {
		t.Parallel()
		oc, err := linkme.NormalizeConfig(linkme.Config{
			BaseURL:               "https://x.test",
			AutoResolve:           linkme.Bool(false),
			AutoListen:            linkme.Bool(false),
			StripCID:              linkme.Bool(false),
			SendDeviceInfo:        linkme.Bool(false),
			ResolveUniversalLinks: linkme.Bool(false),
			Debug:                 true,
		}, true)
		require.NoError(t, err)
		assert.False(t, oc.AutoResolve)
		assert.False(t, oc.AutoListen)
		assert.False(t, oc.StripCID)
		assert.False(t, oc.SendDeviceInfo)
		assert.False(t, oc.ResolveUniversalLinks)
		assert.True(t, oc.Debug)
	})

	t.Run("rejects unusable base urls", func(t *testing.T) {
		t.Parallel()
		for _, base := range []string{"", "   ", "/relative/path", "links.example", "https://", "://bad"} {
			_, err := linkme.NormalizeConfig(linkme.Config{BaseURL: base}, true)
			assert.ErrorIs(t, err, linkme.ErrConfig, "base %q", base)
		}
	})
}
