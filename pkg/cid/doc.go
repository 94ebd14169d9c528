// Package cid locates link-attribution tokens ("cid") inside URLs and
// computes a copy of the URL with the token removed.
//
// A token is read from the query string first:
//
//	https://example.com/campaign?cid=abc123
//
// When the query carries no token the fragment is inspected. Single-page
// applications often keep their route after "#", so the fragment may encode a
// route followed by a query-like segment:
//
//	https://example.com/#/offers?cid=abc123&tab=new   -> "#/offers?tab=new"
//	https://example.com/#cid=abc123                    -> "" (fragment removed)
//
// Only one token is reported per URL and a query token always wins over a
// fragment token. The sanitized URL differs from the input only in the
// component that carried the token.
//
// # Usage
//
//	u, err := cid.Parse(rawURL, "https://example.com")
//	if err != nil {
//		return
//	}
//	ex := cid.Extract(u)
//	if ex.Found() {
//		history.Replace(ex.SanitizedHref)
//	}
package cid
