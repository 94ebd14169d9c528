package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"net/http"
)

// maxBodySize caps the number of response bytes read by FromHTTPClient.
const maxBodySize = 1 << 20

// Request describes one outbound call.
type Request struct {
	Method string
	URL    string
	Header map[string]string
	Body   []byte
}

// Response is the transport-agnostic result of a call.
type Response struct {
	OK     bool
	Status int
	Body   []byte
}

// NewResponse builds a Response with OK derived from status.
func NewResponse(status int, body []byte) *Response {
	return &Response{
		OK:     status >= 200 && status < 300,
		Status: status,
		Body:   body,
	}
}

// JSON decodes the body. It returns nil for an empty or malformed body.
// Numbers are decoded as json.Number so integer values keep their text form.
func (r *Response) JSON() any {
	if r == nil || len(bytes.TrimSpace(r.Body)) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(r.Body))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil
	}
	return v
}

// Transport performs a single exchange, mirroring a fetch function.
type Transport func(ctx context.Context, req *Request) (*Response, error)

// Client sends requests.
type Client interface {
	Request(ctx context.Context, req *Request) (*Response, error)
}

// TransportClient is the default Client backed by a Transport.
type TransportClient struct {
	transport Transport
}

var _ Client = (*TransportClient)(nil)

// New wraps transport in a Client.
func New(transport Transport) *TransportClient {
	return &TransportClient{transport: transport}
}

// Request forwards req to the transport. The header map is copied so the
// transport may mutate it freely.
func (c *TransportClient) Request(ctx context.Context, req *Request) (*Response, error) {
	if c == nil || c.transport == nil {
		return nil, ErrNilTransport
	}
	if req == nil {
		return nil, fmt.Errorf("%w: request is nil", ErrBuildRequest)
	}
	out := *req
	out.Header = maps.Clone(req.Header)
	if out.Method == "" {
		out.Method = http.MethodGet
	}
	return c.transport(ctx, &out)
}

// FromHTTPClient adapts an *http.Client into a Transport. A nil client uses
// http.DefaultClient. Response bodies are read fully, up to 1 MiB.
func FromHTTPClient(hc *http.Client) Transport {
	if hc == nil {
		hc = http.DefaultClient
	}
	return func(ctx context.Context, req *Request) (*Response, error) {
		var body io.Reader
		if len(req.Body) > 0 {
			body = bytes.NewReader(req.Body)
		}
		httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
		if err != nil {
			return nil, errors.Join(ErrBuildRequest, err)
		}
		for k, v := range req.Header {
			httpReq.Header.Set(k, v)
		}

		resp, err := hc.Do(httpReq)
		if err != nil {
			return nil, errors.Join(ErrRoundTrip, err)
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
		if err != nil {
			return nil, errors.Join(ErrRoundTrip, err)
		}
		return NewResponse(resp.StatusCode, data), nil
	}
}

// JSONResponse is a Response with its body already decoded.
type JSONResponse struct {
	OK     bool
	Status int
	Data   any
}

// RequestJSON sends req and decodes the response body. Decode failures yield
// a nil Data, never an error.
func RequestJSON(ctx context.Context, c Client, req *Request) (JSONResponse, error) {
	if c == nil {
		return JSONResponse{}, ErrNilTransport
	}
	res, err := c.Request(ctx, req)
	if err != nil {
		return JSONResponse{}, err
	}
	if res == nil {
		return JSONResponse{}, fmt.Errorf("%w: empty response", ErrRoundTrip)
	}
	return JSONResponse{OK: res.OK, Status: res.Status, Data: res.JSON()}, nil
}
