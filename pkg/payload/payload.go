package payload

import (
	"bytes"
	"encoding/json"
	"maps"
	"strconv"
)

// Payload is a resolved link. Every field is optional; absent strings are
// empty, absent maps are nil and absent booleans are nil pointers.
type Payload struct {
	LinkID    string            `json:"linkId,omitempty"`
	Path      string            `json:"path,omitempty"`
	Params    map[string]string `json:"params,omitempty"`
	UTM       map[string]string `json:"utm,omitempty"`
	Custom    map[string]string `json:"custom,omitempty"`
	URL       string            `json:"url,omitempty"`
	IsLinkMe  *bool             `json:"isLinkMe,omitempty"`
	CID       string            `json:"cid,omitempty"`
	Duplicate *bool             `json:"duplicate,omitempty"`
}

// Clone returns a deep copy of p.
func (p *Payload) Clone() *Payload {
	if p == nil {
		return nil
	}
	out := *p
	out.Params = maps.Clone(p.Params)
	out.UTM = maps.Clone(p.UTM)
	out.Custom = maps.Clone(p.Custom)
	if p.IsLinkMe != nil {
		v := *p.IsLinkMe
		out.IsLinkMe = &v
	}
	if p.Duplicate != nil {
		v := *p.Duplicate
		out.Duplicate = &v
	}
	return &out
}

// Normalize builds a Payload from a decoded JSON value. It returns nil when raw
// is not a JSON object. fallbackCID fills CID when the response carries none;
// an empty cid string counts as none.
func Normalize(raw any, fallbackCID string) *Payload {
	obj, ok := raw.(map[string]any)
	if !ok || obj == nil {
		return nil
	}

	p := &Payload{
		LinkID: stringField(obj, "linkId"),
		Path:   stringField(obj, "path"),
		Params: stringMap(obj["params"]),
		UTM:    stringMap(obj["utm"]),
		Custom: stringMap(obj["custom"]),
		URL:    stringField(obj, "url"),
		CID:    stringField(obj, "cid"),
	}
	if p.CID == "" {
		p.CID = fallbackCID
	}
	if v, ok := obj["isLinkMe"].(bool); ok {
		p.IsLinkMe = &v
	}
	if v, ok := obj["duplicate"].(bool); ok {
		p.Duplicate = &v
	}
	return p
}

func stringField(obj map[string]any, key string) string {
	s, _ := obj[key].(string)
	return s
}

// stringMap coerces an object or array into map[string]string. Array elements
// are keyed by index. Values that cannot be serialized are skipped.
func stringMap(value any) map[string]string {
	var obj map[string]any
	switch v := value.(type) {
	case map[string]any:
		obj = v
	case []any:
		obj = make(map[string]any, len(v))
		for i, elem := range v {
			obj[strconv.Itoa(i)] = elem
		}
	}
	if len(obj) == 0 {
		return nil
	}

	out := make(map[string]string, len(obj))
	for k, v := range obj {
		switch val := v.(type) {
		case nil:
			continue
		case string:
			out[k] = val
		default:
			s, ok := stringify(val)
			if !ok {
				continue
			}
			out[k] = s
		}
	}

	if len(out) == 0 {
		return nil
	}
	return out
}

// stringify encodes v as compact JSON with numbers in shortest form, so 1.0
// becomes "1". HTML characters are not escaped.
func stringify(v any) (string, bool) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(plainNumbers(v)); err != nil {
		return "", false
	}
	return string(bytes.TrimSuffix(buf.Bytes(), []byte("\n"))), true
}

// plainNumbers replaces json.Number values with float64 throughout v.
func plainNumbers(v any) any {
	switch val := v.(type) {
	case json.Number:
		if f, err := val.Float64(); err == nil {
			return f
		}
		return val
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			out[k] = plainNumbers(elem)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = plainNumbers(elem)
		}
		return out
	default:
		return v
	}
}
