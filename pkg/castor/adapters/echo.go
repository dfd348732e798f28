package adapters

import (
	"bytes"
	"context"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/toyz/castor/pkg/castor"
)

// EchoAdapter implements castor.WebServerInterface for Echo v4
type EchoAdapter struct {
	engine *echo.Echo
}

// NewEchoAdapter creates a new Echo adapter
func NewEchoAdapter(e *echo.Echo) *EchoAdapter {
	return &EchoAdapter{engine: e}
}

// NewDefaultEchoAdapter creates a new Echo adapter with default Echo instance
func NewDefaultEchoAdapter() *EchoAdapter {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	return &EchoAdapter{engine: e}
}

// echoPath converts a castor route path to Echo's :param syntax
func echoPath(path castor.RoutePath) string {
	return path.Convert(castor.ColonParam, "*")
}

// RegisterRoute registers a route with the Echo server
func (ea *EchoAdapter) RegisterRoute(method string, path castor.RoutePath, handler castor.HandlerFunc, middlewares ...castor.MiddlewareFunc) {
	ea.engine.Add(method, echoPath(path), convertEchoHandler(handler), convertEchoMiddlewares(middlewares)...)
}

// RegisterGroup creates a new route group
func (ea *EchoAdapter) RegisterGroup(prefix string) castor.RouteGroup {
	return &EchoGroupAdapter{group: ea.engine.Group(prefix)}
}

// Use adds global middleware
func (ea *EchoAdapter) Use(middleware castor.MiddlewareFunc) {
	ea.engine.Use(convertEchoMiddleware(middleware))
}

// Start starts the server
func (ea *EchoAdapter) Start(addr string) error {
	return ea.engine.Start(addr)
}

// Stop stops the server
func (ea *EchoAdapter) Stop(ctx context.Context) error {
	return ea.engine.Shutdown(ctx)
}

// Name returns the adapter name
func (ea *EchoAdapter) Name() string {
	return "Echo"
}

// GetEngine returns the underlying Echo instance
func (ea *EchoAdapter) GetEngine() *echo.Echo {
	return ea.engine
}

// EchoGroupAdapter implements castor.RouteGroup for Echo groups
type EchoGroupAdapter struct {
	group *echo.Group
}

// RegisterRoute registers a route with the group
func (ega *EchoGroupAdapter) RegisterRoute(method string, path castor.RoutePath, handler castor.HandlerFunc, middlewares ...castor.MiddlewareFunc) {
	ega.group.Add(method, echoPath(path), convertEchoHandler(handler), convertEchoMiddlewares(middlewares)...)
}

// Use adds middleware to the group
func (ega *EchoGroupAdapter) Use(middleware castor.MiddlewareFunc) {
	ega.group.Use(convertEchoMiddleware(middleware))
}

// Group creates a sub-group
func (ega *EchoGroupAdapter) Group(prefix string) castor.RouteGroup {
	return &EchoGroupAdapter{group: ega.group.Group(prefix)}
}

func convertEchoHandler(handler castor.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		return toEchoError(handler(&EchoRequestContext{context: c}))
	}
}

// toEchoError turns castor errors into *echo.HTTPError so Echo's error
// handler replies with the mapped status instead of 500
func toEchoError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := err.(*echo.HTTPError); ok {
		return err
	}
	he := castor.ToHTTPError(err)
	return echo.NewHTTPError(he.Code, he.Message).SetInternal(err)
}

func convertEchoMiddlewares(middlewares []castor.MiddlewareFunc) []echo.MiddlewareFunc {
	echoMiddlewares := make([]echo.MiddlewareFunc, len(middlewares))
	for i, mw := range middlewares {
		echoMiddlewares[i] = convertEchoMiddleware(mw)
	}
	return echoMiddlewares
}

func convertEchoMiddleware(middleware castor.MiddlewareFunc) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			castorNext := func(castor.RequestContext) error {
				return next(c)
			}
			return toEchoError(middleware(castorNext)(&EchoRequestContext{context: c}))
		}
	}
}

// EchoRequestContext implements castor.RequestContext for Echo
type EchoRequestContext struct {
	context echo.Context
}

// Method returns the HTTP method
func (erc *EchoRequestContext) Method() string {
	return erc.context.Request().Method
}

// Path returns the request path
func (erc *EchoRequestContext) Path() string {
	return erc.context.Request().URL.Path
}

// RealIP returns the real IP address
func (erc *EchoRequestContext) RealIP() string {
	return erc.context.RealIP()
}

// Context returns the request's context
func (erc *EchoRequestContext) Context() context.Context {
	return erc.context.Request().Context()
}

// Param returns path parameter by name
func (erc *EchoRequestContext) Param(key string) string {
	return erc.context.Param(key)
}

// ParamNames returns path parameter names
func (erc *EchoRequestContext) ParamNames() []string {
	return erc.context.ParamNames()
}

// QueryParams returns all query parameters
func (erc *EchoRequestContext) QueryParams() map[string][]string {
	return erc.context.QueryParams()
}

// FormParams returns form parameters
func (erc *EchoRequestContext) FormParams() (map[string][]string, error) {
	return erc.context.FormParams()
}

// Request returns the request interface
func (erc *EchoRequestContext) Request() castor.RequestInterface {
	return &EchoRequestInterface{request: erc.context.Request()}
}

// Response returns the response interface
func (erc *EchoRequestContext) Response() castor.ResponseInterface {
	return &EchoResponseInterface{response: erc.context.Response(), context: erc.context}
}

// Get retrieves data from context
func (erc *EchoRequestContext) Get(key string) interface{} {
	return erc.context.Get(key)
}

// Set stores data in context
func (erc *EchoRequestContext) Set(key string, val interface{}) {
	erc.context.Set(key, val)
}

// EchoRequestInterface implements castor.RequestInterface for Echo requests
type EchoRequestInterface struct {
	request *http.Request
}

// Header returns request header value
func (eri *EchoRequestInterface) Header(key string) string {
	return eri.request.Header.Get(key)
}

// Body reads the request body and puts it back so later readers see it too
func (eri *EchoRequestInterface) Body() ([]byte, error) {
	return readBody(eri.request)
}

// ContentLength returns content length
func (eri *EchoRequestInterface) ContentLength() int64 {
	return eri.request.ContentLength
}

// ContentType returns content type
func (eri *EchoRequestInterface) ContentType() string {
	return eri.request.Header.Get(echo.HeaderContentType)
}

// EchoResponseInterface implements castor.ResponseInterface for Echo responses
type EchoResponseInterface struct {
	response *echo.Response
	context  echo.Context
}

// Status returns response status code
func (eri *EchoResponseInterface) Status() int {
	return eri.response.Status
}

// SetHeader sets response header
func (eri *EchoResponseInterface) SetHeader(key, value string) {
	eri.response.Header().Set(key, value)
}

// Blob writes blob response
func (eri *EchoResponseInterface) Blob(code int, contentType string, b []byte) error {
	return eri.context.Blob(code, contentType, b)
}

// NoContent writes a response without a body
func (eri *EchoResponseInterface) NoContent(code int) error {
	return eri.context.NoContent(code)
}

// Written returns whether response has been written
func (eri *EchoResponseInterface) Written() bool {
	return eri.response.Committed
}

// readBody drains r.Body and replaces it with an in-memory copy
func readBody(r *http.Request) ([]byte, error) {
	if r.Body == nil || r.Body == http.NoBody {
		return nil, nil
	}
	b, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	_ = r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(b))
	return b, nil
}
