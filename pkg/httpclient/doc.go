// Package httpclient is a small request/response abstraction over a
// fetch-like transport.
//
// A Transport is a single function that performs one HTTP exchange. Hosts can
// plug in any implementation: FromHTTPClient adapts *http.Client, tests usually
// pass a closure. Client wraps a Transport behind an interface so callers can
// swap it for a mock.
//
//	client := httpclient.New(httpclient.FromHTTPClient(&http.Client{Timeout: 10 * time.Second}))
//	res, err := httpclient.RequestJSON(ctx, client, &httpclient.Request{
//		Method: http.MethodGet,
//		URL:    "https://example.com/api/deeplink?cid=abc",
//		Header: map[string]string{"Accept": "application/json"},
//	})
//	if err == nil && res.OK {
//		use(res.Data)
//	}
//
// Response.JSON never fails: an empty or malformed body decodes to nil.
package httpclient
