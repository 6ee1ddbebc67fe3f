// Package gateway implements the virtual-filesystem gateway core: an
// adapter registry, the storage-qualified path resolver, the operation
// dispatcher, the archive engine, and the request entry point that binds
// them together behind a transport-neutral Request/Response pair.
package gateway

import (
	"context"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/filegate/filegate/auth"
	"github.com/filegate/filegate/backends"
	"github.com/filegate/filegate/metrics"
)

// Item is one path-bearing element of a request payload.
type Item struct {
	Path string `json:"path"`
}

// Payload is the decoded JSON body of a mutating request. Which fields are
// meaningful depends on the operation.
type Payload struct {
	Name    string `json:"name"`
	Item    string `json:"item"`
	Items   []Item `json:"items"`
	Content string `json:"content"`
}

// Request is the transport-neutral form of one gateway call. The transport
// layer fills it from whatever wire format it speaks.
type Request struct {
	// Verb is the HTTP method ("GET" or "POST").
	Verb string
	// Op is the operation name (the q query parameter).
	Op string
	// Token is the caller's credential, passed to the authenticator.
	Token string
	// AdapterKey is the adapter query parameter; may be empty.
	AdapterKey string
	// Address is the storage-qualified path parameter; may be empty.
	Address string
	// Filter is the name-substring filter for index/search.
	Filter string
	// Payload is the decoded JSON body for POST operations.
	Payload Payload
	// Upload is the uploaded file stream for the upload operation.
	Upload io.Reader
	// UploadName is the target filename for the upload operation.
	UploadName string
}

// Response is the transport-neutral result of one gateway call. Exactly one
// of Body (a JSON-marshalable value) or Stream is set. The caller owns
// Stream and must close it.
type Response struct {
	Status int
	Header http.Header
	Body   any
	Stream io.ReadCloser
	// Size is the stream length in bytes, or -1 when unknown.
	Size int64
}

func jsonResponse(body any) *Response {
	return &Response{Status: http.StatusOK, Header: http.Header{}, Body: body, Size: -1}
}

// Gateway is the single request-handling surface. It owns the adapter
// registry (no package-level registry state, so multiple independent
// gateways can coexist in one process) and delegates authorization to the
// configured authenticator before any handler runs.
type Gateway struct {
	registry *Registry
	authn    auth.Authenticator
	headers  map[string]string
	handlers map[Op]handlerFunc
	logger   *zap.Logger
}

// New creates a gateway. authn may be nil to disable the authorization gate
// (tests); headers are attached to every response, success or failure
// (typically the configured CORS headers).
func New(authn auth.Authenticator, headers map[string]string, logger *zap.Logger) *Gateway {
	g := &Gateway{
		registry: NewRegistry(),
		authn:    authn,
		headers:  headers,
		logger:   logger,
	}
	g.handlers = g.newHandlerTable()
	return g
}

// Register mounts a backend under the given adapter key. The first
// registered adapter becomes the default. Registration must complete before
// the gateway starts serving requests.
func (g *Gateway) Register(key string, fs backends.FS) {
	g.registry.Register(key, fs)
}

// Unregister removes a mounted adapter.
func (g *Gateway) Unregister(key string) {
	g.registry.Unregister(key)
}

// Keys returns the mounted adapter keys in registration order.
func (g *Gateway) Keys() []string {
	return g.registry.Keys()
}

// Preflight answers a CORS preflight request: no body, no authorization gate,
// just the configured headers.
func (g *Gateway) Preflight() *Response {
	resp := &Response{Status: http.StatusNoContent, Header: http.Header{}, Size: -1}
	for k, v := range g.headers {
		resp.Header.Set(k, v)
	}
	return resp
}

// Handle executes one request and always returns a response: handler and
// backend failures are converted to structured error responses, never
// propagated. The configured headers are attached to every response.
func (g *Gateway) Handle(ctx context.Context, req *Request) *Response {
	resp := g.dispatch(ctx, req)
	if resp.Header == nil {
		resp.Header = http.Header{}
	}
	for k, v := range g.headers {
		resp.Header.Set(k, v)
	}
	return resp
}

func (g *Gateway) dispatch(ctx context.Context, req *Request) *Response {
	if g.authn != nil {
		if _, err := g.authn.Authenticate(ctx, req.Token); err != nil {
			return g.errorResponse(req.Op, auth.ErrAuthenticationFailed)
		}
	}

	op, err := ParseOp(req.Verb, req.Op)
	if err != nil {
		return g.errorResponse(req.Op, err)
	}

	start := time.Now()
	resp, err := g.handlers[op](ctx, req)
	metrics.GatewayOpDuration.WithLabelValues(op.String()).Observe(time.Since(start).Seconds())
	if err != nil {
		return g.errorResponse(op.String(), err)
	}

	metrics.GatewayOpsTotal.WithLabelValues(op.String(), "success").Inc()
	return resp
}

// errorResponse converts a taxonomy error into a structured failure result.
func (g *Gateway) errorResponse(op string, err error) *Response {
	status, code := classify(err)
	metrics.GatewayOpsTotal.WithLabelValues(op, "error").Inc()
	metrics.ErrorsTotal.WithLabelValues("gateway", code).Inc()

	g.logger.Info("Gateway operation failed",
		zap.String("operation", op),
		zap.String("error_code", code),
		zap.Int("status_code", status),
		zap.Error(err))

	return &Response{
		Status: status,
		Header: http.Header{},
		Body:   ErrorResponse{Code: code, Message: err.Error()},
		Size:   -1,
	}
}
