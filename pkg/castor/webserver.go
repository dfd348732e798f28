package castor

import (
	"context"
)

// WebServerInterface is the host dispatch layer a controller is mounted on.
// Implementations for Echo, Gin and Fiber live in the adapters package.
type WebServerInterface interface {
	// Route registration
	RegisterRoute(method string, path RoutePath, handler HandlerFunc, middlewares ...MiddlewareFunc)
	RegisterGroup(prefix string) RouteGroup

	// Global middleware
	Use(middleware MiddlewareFunc)

	// Server lifecycle
	Start(addr string) error
	Stop(ctx context.Context) error

	// Server information
	Name() string
}

// RouteGroup represents a group of routes with a common prefix
type RouteGroup interface {
	RegisterRoute(method string, path RoutePath, handler HandlerFunc, middlewares ...MiddlewareFunc)
	Use(middleware MiddlewareFunc)
	Group(prefix string) RouteGroup
}

// RequestContext provides a framework-agnostic view of one request
type RequestContext interface {
	// Request data
	Method() string
	Path() string
	RealIP() string
	Context() context.Context

	// Parameters
	Param(key string) string
	ParamNames() []string

	// Query and form values
	QueryParams() map[string][]string
	FormParams() (map[string][]string, error)

	Request() RequestInterface
	Response() ResponseInterface

	// Context data
	Get(key string) interface{}
	Set(key string, val interface{})
}

// RequestInterface provides access to the underlying request
type RequestInterface interface {
	Header(key string) string
	Body() ([]byte, error)
	ContentLength() int64
	ContentType() string
}

// ResponseInterface provides response writing capabilities
type ResponseInterface interface {
	Status() int
	SetHeader(key, value string)
	Blob(code int, contentType string, b []byte) error
	NoContent(code int) error
	Written() bool
}

// HandlerFunc defines the signature for HTTP handlers
type HandlerFunc func(RequestContext) error

// MiddlewareFunc defines the signature for middleware
type MiddlewareFunc func(HandlerFunc) HandlerFunc
