package payload_test

import (
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/linkme/pkg/payload"
)

func decode(t *testing.T, s string) any {
	t.Helper()
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var v any
	require.NoError(t, dec.Decode(&v))
	return v
}

func TestNormalize_NonObject(t *testing.T) {
	t.Parallel()

	assert.Nil(t, payload.Normalize(nil, "x"))
	assert.Nil(t, payload.Normalize("string", "x"))
	assert.Nil(t, payload.Normalize([]any{1, 2}, "x"))
	assert.Nil(t, payload.Normalize(map[string]any(nil), "x"))
}

func TestNormalize_EmptyObject(t *testing.T) {
	t.Parallel()

	p := payload.Normalize(map[string]any{}, "")
	require.NotNil(t, p)
	assert.Equal(t, payload.Payload{}, *p)
}

func TestNormalize_TypedFields(t *testing.T) {
	t.Parallel()

	raw := decode(t, `{
		"linkId": "lnk_1",
		"path": "/offer",
		"url": "https://x.test/offer",
		"isLinkMe": true,
		"duplicate": false,
		"cid": "server-cid"
	}`)

	p := payload.Normalize(raw, "fallback")
	require.NotNil(t, p)
	assert.Equal(t, "lnk_1", p.LinkID)
	assert.Equal(t, "/offer", p.Path)
	assert.Equal(t, "https://x.test/offer", p.URL)
	assert.Equal(t, "server-cid", p.CID)
	require.NotNil(t, p.IsLinkMe)
	assert.True(t, *p.IsLinkMe)
	require.NotNil(t, p.Duplicate)
	assert.False(t, *p.Duplicate)
}

func TestNormalize_WrongTypesAreIgnored(t *testing.T) {
	t.Parallel()

	raw := decode(t, `{
		"linkId": 42,
		"path": ["/a"],
		"url": null,
		"isLinkMe": "yes",
		"duplicate": 1,
		"cid": 7,
		"params": "a=1",
		"utm": true
	}`)

	p := payload.Normalize(raw, "")
	require.NotNil(t, p)
	assert.Equal(t, payload.Payload{}, *p)
}

func TestNormalize_CIDFallback(t *testing.T) {
	t.Parallel()

	p := payload.Normalize(map[string]any{"path": "/a"}, "request-cid")
	require.NotNil(t, p)
	assert.Equal(t, "request-cid", p.CID)

	p = payload.Normalize(map[string]any{"path": "/a"}, "")
	require.NotNil(t, p)
	assert.Empty(t, p.CID)

	// An empty server cid is treated as missing.
	p = payload.Normalize(map[string]any{"cid": ""}, "request-cid")
	require.NotNil(t, p)
	assert.Equal(t, "request-cid", p.CID)
}

func TestNormalize_StringMaps(t *testing.T) {
	t.Parallel()

	raw := decode(t, `{
		"params": {"a": "1", "n": 2, "f": 1.5, "b": true, "obj": {"k": "v"}, "list": [1, "x"], "nil": null},
		"utm": {"source": "mail", "medium": null},
		"custom": {"gone": null}
	}`)

	p := payload.Normalize(raw, "")
	require.NotNil(t, p)

	assert.Equal(t, map[string]string{
		"a":    "1",
		"n":    "2",
		"f":    "1.5",
		"b":    "true",
		"obj":  `{"k":"v"}`,
		"list": `[1,"x"]`,
	}, p.Params)
	assert.Equal(t, map[string]string{"source": "mail"}, p.UTM)
	assert.Nil(t, p.Custom, "map with only null entries is omitted")
}

func TestNormalize_StringMapNumbersAndMarkup(t *testing.T) {
	t.Parallel()

	raw := decode(t, `{
		"params": {"whole": 1.0, "exp": 1e21, "small": 0.0000001, "nested": {"n": 2.50, "tag": "<b>&"}}
	}`)

	p := payload.Normalize(raw, "")
	require.NotNil(t, p)
	assert.Equal(t, map[string]string{
		"whole":  "1",
		"exp":    "1e+21",
		"small":  "1e-7",
		"nested": `{"n":2.5,"tag":"<b>&"}`,
	}, p.Params)
}

func TestNormalize_ArrayMapsUseIndexKeys(t *testing.T) {
	t.Parallel()

	raw := decode(t, `{
		"params": ["a", 2, null, {"k": "v"}],
		"utm": [],
		"custom": [null]
	}`)

	p := payload.Normalize(raw, "")
	require.NotNil(t, p)
	assert.Equal(t, map[string]string{"0": "a", "1": "2", "3": `{"k":"v"}`}, p.Params)
	assert.Nil(t, p.UTM)
	assert.Nil(t, p.Custom)
}

func TestNormalize_UnserializableValuesAreDropped(t *testing.T) {
	t.Parallel()

	raw := map[string]any{
		"custom": map[string]any{
			"nan": math.NaN(),
			"ok":  "yes",
		},
		"params": map[string]any{
			"ch": make(chan int),
		},
	}

	p := payload.Normalize(raw, "")
	require.NotNil(t, p)
	assert.Equal(t, map[string]string{"ok": "yes"}, p.Custom)
	assert.Nil(t, p.Params)
}

func TestNormalize_JSONShape(t *testing.T) {
	t.Parallel()

	p := payload.Normalize(map[string]any{"path": "/offer"}, "abc123")
	b, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{"path":"/offer","cid":"abc123"}`, string(b))
}

func TestPayload_Clone(t *testing.T) {
	t.Parallel()

	yes := true
	p := &payload.Payload{Path: "/a", Params: map[string]string{"k": "v"}, IsLinkMe: &yes}
	c := p.Clone()
	require.NotNil(t, c)
	assert.Equal(t, p, c)

	c.Params["k"] = "changed"
	*c.IsLinkMe = false
	assert.Equal(t, "v", p.Params["k"])
	assert.True(t, *p.IsLinkMe)

	var nilPayload *payload.Payload
	assert.Nil(t, nilPayload.Clone())
}
