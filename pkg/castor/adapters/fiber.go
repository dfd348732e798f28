package adapters

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/toyz/castor/pkg/castor"
)

// FiberAdapter wraps a Fiber app to implement castor.WebServerInterface
type FiberAdapter struct {
	app *fiber.App
}

// NewFiberAdapter creates a new Fiber adapter instance
func NewFiberAdapter() *FiberAdapter {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if e, ok := err.(*fiber.Error); ok {
				return c.Status(e.Code).JSON(fiber.Map{"code": e.Code, "message": e.Message})
			}
			he := castor.ToHTTPError(err)
			return c.Status(he.Code).JSON(fiber.Map{"code": he.Code, "message": he.Message})
		},
	})

	return &FiberAdapter{app: app}
}

// NewDefaultFiberAdapter creates a new Fiber adapter with panic recovery
func NewDefaultFiberAdapter() *FiberAdapter {
	adapter := NewFiberAdapter()
	adapter.app.Use(recover.New())
	return adapter
}

// fiberPath converts a castor route path to Fiber syntax
func fiberPath(path castor.RoutePath) string {
	return path.Convert(castor.ColonParam, "*")
}

func fiberHandlers(handler castor.HandlerFunc, middlewares []castor.MiddlewareFunc) []fiber.Handler {
	handlers := make([]fiber.Handler, 0, len(middlewares)+1)
	for _, mw := range middlewares {
		handlers = append(handlers, convertFiberMiddleware(mw))
	}
	return append(handlers, convertFiberHandler(handler))
}

// RegisterRoute registers a route with the Fiber app
func (fa *FiberAdapter) RegisterRoute(method string, path castor.RoutePath, handler castor.HandlerFunc, middlewares ...castor.MiddlewareFunc) {
	fa.app.Add(strings.ToUpper(method), fiberPath(path), fiberHandlers(handler, middlewares)...)
}

// RegisterGroup creates a new route group with the given prefix
func (fa *FiberAdapter) RegisterGroup(prefix string) castor.RouteGroup {
	return &FiberRouteGroup{group: fa.app.Group(prefix)}
}

// Use adds middleware to the Fiber app
func (fa *FiberAdapter) Use(middleware castor.MiddlewareFunc) {
	fa.app.Use(convertFiberMiddleware(middleware))
}

// Start starts the Fiber server
func (fa *FiberAdapter) Start(addr string) error {
	return fa.app.Listen(addr)
}

// Stop stops the Fiber server
func (fa *FiberAdapter) Stop(ctx context.Context) error {
	return fa.app.ShutdownWithContext(ctx)
}

// Name returns the adapter name
func (fa *FiberAdapter) Name() string {
	return "Fiber"
}

// GetApp returns the underlying Fiber app
func (fa *FiberAdapter) GetApp() *fiber.App {
	return fa.app
}

// FiberRouteGroup wraps a Fiber route group to implement castor.RouteGroup
type FiberRouteGroup struct {
	group fiber.Router
}

// RegisterRoute registers a route with this group
func (frg *FiberRouteGroup) RegisterRoute(method string, path castor.RoutePath, handler castor.HandlerFunc, middlewares ...castor.MiddlewareFunc) {
	frg.group.Add(strings.ToUpper(method), fiberPath(path), fiberHandlers(handler, middlewares)...)
}

// Use adds middleware to this route group
func (frg *FiberRouteGroup) Use(middleware castor.MiddlewareFunc) {
	frg.group.Use(convertFiberMiddleware(middleware))
}

// Group creates a sub-group with the given prefix
func (frg *FiberRouteGroup) Group(prefix string) castor.RouteGroup {
	return &FiberRouteGroup{group: frg.group.Group(prefix)}
}

func convertFiberHandler(handler castor.HandlerFunc) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return handler(&FiberRequestContext{ctx: c})
	}
}

func convertFiberMiddleware(middleware castor.MiddlewareFunc) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return middleware(func(castor.RequestContext) error {
			return c.Next()
		})(&FiberRequestContext{ctx: c})
	}
}

// FiberRequestContext wraps fiber.Ctx to implement castor.RequestContext
type FiberRequestContext struct {
	ctx *fiber.Ctx
}

// Request data methods
func (frc *FiberRequestContext) Method() string {
	return frc.ctx.Method()
}

func (frc *FiberRequestContext) Path() string {
	return frc.ctx.Path()
}

func (frc *FiberRequestContext) RealIP() string {
	return frc.ctx.IP()
}

func (frc *FiberRequestContext) Context() context.Context {
	return frc.ctx.UserContext()
}

// Parameter methods
func (frc *FiberRequestContext) Param(name string) string {
	return frc.ctx.Params(name)
}

func (frc *FiberRequestContext) ParamNames() []string {
	return frc.ctx.Route().Params
}

func (frc *FiberRequestContext) QueryParams() map[string][]string {
	result := make(map[string][]string)
	frc.ctx.Request().URI().QueryArgs().VisitAll(func(key, value []byte) {
		k := string(key)
		result[k] = append(result[k], string(value))
	})
	return result
}

func (frc *FiberRequestContext) FormParams() (map[string][]string, error) {
	if strings.HasPrefix(string(frc.ctx.Request().Header.ContentType()), fiber.MIMEMultipartForm) {
		form, err := frc.ctx.MultipartForm()
		if err != nil {
			return nil, err
		}
		return form.Value, nil
	}

	result := make(map[string][]string)
	frc.ctx.Request().PostArgs().VisitAll(func(key, value []byte) {
		k := string(key)
		result[k] = append(result[k], string(value))
	})
	return result, nil
}

func (frc *FiberRequestContext) Request() castor.RequestInterface {
	return &FiberRequest{ctx: frc.ctx}
}

func (frc *FiberRequestContext) Response() castor.ResponseInterface {
	return &FiberResponse{ctx: frc.ctx}
}

// Context data
func (frc *FiberRequestContext) Get(key string) interface{} {
	return frc.ctx.Locals(key)
}

func (frc *FiberRequestContext) Set(key string, val interface{}) {
	frc.ctx.Locals(key, val)
}

// FiberRequest wraps fiber.Ctx to implement castor.RequestInterface
type FiberRequest struct {
	ctx *fiber.Ctx
}

func (fr *FiberRequest) Header(key string) string {
	return fr.ctx.Get(key)
}

// Body returns a copy; fasthttp reuses the request buffer after the handler returns
func (fr *FiberRequest) Body() ([]byte, error) {
	return append([]byte(nil), fr.ctx.Body()...), nil
}

func (fr *FiberRequest) ContentLength() int64 {
	return int64(len(fr.ctx.Body()))
}

func (fr *FiberRequest) ContentType() string {
	return fr.ctx.Get(fiber.HeaderContentType)
}

// FiberResponse wraps fiber.Ctx to implement castor.ResponseInterface
type FiberResponse struct {
	ctx *fiber.Ctx
}

func (fr *FiberResponse) Status() int {
	return fr.ctx.Response().StatusCode()
}

func (fr *FiberResponse) SetHeader(name, value string) {
	fr.ctx.Set(name, value)
}

func (fr *FiberResponse) Blob(code int, contentType string, data []byte) error {
	fr.ctx.Set(fiber.HeaderContentType, contentType)
	return fr.ctx.Status(code).Send(data)
}

func (fr *FiberResponse) NoContent(code int) error {
	return fr.ctx.SendStatus(code)
}

func (fr *FiberResponse) Written() bool {
	return len(fr.ctx.Response().Body()) > 0
}
