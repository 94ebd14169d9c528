// Package payload converts loosely shaped JSON returned by the link service
// into a typed, sanitized Payload.
//
// Normalize accepts whatever encoding/json produced (typically map[string]any)
// and keeps only well-typed fields: strings for linkId, path, url and cid,
// booleans for isLinkMe and duplicate. The params, utm and custom maps are
// coerced to map[string]string; non-string values are serialized as JSON,
// nulls are dropped and an empty result is omitted.
package payload
