package adapters

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/toyz/castor/pkg/castor"
)

// GinAdapter implements castor.WebServerInterface for Gin framework
type GinAdapter struct {
	engine *gin.Engine
	server *http.Server
}

// NewGinAdapter creates a new Gin adapter
func NewGinAdapter(g *gin.Engine) *GinAdapter {
	return &GinAdapter{engine: g}
}

// NewDefaultGinAdapter creates a new Gin adapter with a recovering Gin engine
func NewDefaultGinAdapter() *GinAdapter {
	g := gin.New()
	g.Use(gin.Recovery())
	return &GinAdapter{engine: g}
}

// ginPath converts a castor route path to Gin syntax; the wildcard is named path
func ginPath(path castor.RoutePath) string {
	return path.Convert(castor.ColonParam, "*path")
}

// RegisterRoute registers a route with the Gin server
func (ga *GinAdapter) RegisterRoute(method string, path castor.RoutePath, handler castor.HandlerFunc, middlewares ...castor.MiddlewareFunc) {
	ga.engine.Handle(method, ginPath(path), ginHandlers(handler, middlewares)...)
}

// RegisterGroup registers a route group with the Gin server
func (ga *GinAdapter) RegisterGroup(prefix string) castor.RouteGroup {
	return &GinRouteGroup{group: ga.engine.Group(prefix)}
}

// Use registers a global middleware with the Gin server
func (ga *GinAdapter) Use(middleware castor.MiddlewareFunc) {
	ga.engine.Use(convertGinMiddleware(middleware))
}

// Start serves the engine on addr until Stop is called
func (ga *GinAdapter) Start(addr string) error {
	ga.server = &http.Server{Addr: addr, Handler: ga.engine}
	if err := ga.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop gracefully shuts down a server started with Start
func (ga *GinAdapter) Stop(ctx context.Context) error {
	if ga.server == nil {
		return nil
	}
	return ga.server.Shutdown(ctx)
}

// Name returns the adapter name
func (ga *GinAdapter) Name() string {
	return "Gin"
}

// GetEngine returns the underlying Gin engine
func (ga *GinAdapter) GetEngine() *gin.Engine {
	return ga.engine
}

// GinRouteGroup implements castor.RouteGroup for Gin
type GinRouteGroup struct {
	group *gin.RouterGroup
}

// RegisterRoute registers a route within the group
func (grg *GinRouteGroup) RegisterRoute(method string, path castor.RoutePath, handler castor.HandlerFunc, middlewares ...castor.MiddlewareFunc) {
	grg.group.Handle(method, ginPath(path), ginHandlers(handler, middlewares)...)
}

// Use registers middleware with the group
func (grg *GinRouteGroup) Use(middleware castor.MiddlewareFunc) {
	grg.group.Use(convertGinMiddleware(middleware))
}

// Group creates a sub-group
func (grg *GinRouteGroup) Group(prefix string) castor.RouteGroup {
	return &GinRouteGroup{group: grg.group.Group(prefix)}
}

func ginHandlers(handler castor.HandlerFunc, middlewares []castor.MiddlewareFunc) []gin.HandlerFunc {
	handlers := make([]gin.HandlerFunc, 0, len(middlewares)+1)
	for _, mw := range middlewares {
		handlers = append(handlers, convertGinMiddleware(mw))
	}
	return append(handlers, convertGinHandler(handler))
}

func convertGinHandler(handler castor.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := handler(&GinRequestContext{ctx: c}); err != nil && !c.Writer.Written() {
			he := castor.ToHTTPError(err)
			c.JSON(he.Code, gin.H{"code": he.Code, "message": he.Message})
		}
	}
}

func convertGinMiddleware(middleware castor.MiddlewareFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		called := false
		next := func(castor.RequestContext) error {
			called = true
			c.Next()
			return nil
		}
		if err := middleware(next)(&GinRequestContext{ctx: c}); err != nil {
			he := castor.ToHTTPError(err)
			c.AbortWithStatusJSON(he.Code, gin.H{"code": he.Code, "message": he.Message})
			return
		}
		// a middleware that never calls next short-circuits the chain
		if !called {
			c.Abort()
		}
	}
}

// GinRequestContext implements castor.RequestContext for Gin
type GinRequestContext struct {
	ctx *gin.Context
}

// Method returns the HTTP method
func (grc *GinRequestContext) Method() string {
	return grc.ctx.Request.Method
}

// Path returns the request path
func (grc *GinRequestContext) Path() string {
	return grc.ctx.Request.URL.Path
}

// RealIP returns the real IP address
func (grc *GinRequestContext) RealIP() string {
	return grc.ctx.ClientIP()
}

// Context returns the request's context
func (grc *GinRequestContext) Context() context.Context {
	return grc.ctx.Request.Context()
}

// Param returns a path parameter
func (grc *GinRequestContext) Param(name string) string {
	if name == "*" {
		return grc.ctx.Param("path")
	}
	return grc.ctx.Param(name)
}

// ParamNames returns parameter names
func (grc *GinRequestContext) ParamNames() []string {
	names := make([]string, 0, len(grc.ctx.Params))
	for _, param := range grc.ctx.Params {
		names = append(names, param.Key)
	}
	return names
}

// QueryParams returns all query parameters
func (grc *GinRequestContext) QueryParams() map[string][]string {
	return grc.ctx.Request.URL.Query()
}

// FormParams returns all form parameters
func (grc *GinRequestContext) FormParams() (map[string][]string, error) {
	if err := grc.ctx.Request.ParseForm(); err != nil {
		return nil, err
	}
	return grc.ctx.Request.PostForm, nil
}

// Request returns the request interface
func (grc *GinRequestContext) Request() castor.RequestInterface {
	return &GinRequestInterface{ctx: grc.ctx}
}

// Response returns the response interface
func (grc *GinRequestContext) Response() castor.ResponseInterface {
	return &GinResponseInterface{ctx: grc.ctx}
}

// Get returns a value from context
func (grc *GinRequestContext) Get(key string) interface{} {
	value, _ := grc.ctx.Get(key)
	return value
}

// Set sets a value in context
func (grc *GinRequestContext) Set(key string, val interface{}) {
	grc.ctx.Set(key, val)
}

// GinRequestInterface implements castor.RequestInterface for Gin
type GinRequestInterface struct {
	ctx *gin.Context
}

// Header returns a request header
func (gri *GinRequestInterface) Header(key string) string {
	return gri.ctx.GetHeader(key)
}

// Body reads the request body and puts it back so later readers see it too
func (gri *GinRequestInterface) Body() ([]byte, error) {
	return readBody(gri.ctx.Request)
}

// ContentLength returns the content length
func (gri *GinRequestInterface) ContentLength() int64 {
	return gri.ctx.Request.ContentLength
}

// ContentType returns the content type
func (gri *GinRequestInterface) ContentType() string {
	return gri.ctx.GetHeader("Content-Type")
}

// GinResponseInterface implements castor.ResponseInterface for Gin
type GinResponseInterface struct {
	ctx *gin.Context
}

// Status returns the response status
func (gri *GinResponseInterface) Status() int {
	return gri.ctx.Writer.Status()
}

// SetHeader sets a response header
func (gri *GinResponseInterface) SetHeader(key, value string) {
	gri.ctx.Header(key, value)
}

// Blob writes binary data
func (gri *GinResponseInterface) Blob(code int, contentType string, b []byte) error {
	gri.ctx.Data(code, contentType, b)
	return nil
}

// NoContent writes a response without a body
func (gri *GinResponseInterface) NoContent(code int) error {
	gri.ctx.Status(code)
	gri.ctx.Writer.WriteHeaderNow()
	return nil
}

// Written returns whether the response has been written
func (gri *GinResponseInterface) Written() bool {
	return gri.ctx.Writer.Written()
}
