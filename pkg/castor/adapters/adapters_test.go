package adapters

import (
	"context"
	"net/http"
	"reflect"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/toyz/castor/pkg/castor"
)

// greeter is the source type every adapter test mounts
type greeter struct{}

func (g *greeter) Hello(name string) string { return "hello " + name }

func (g *greeter) Add(a, b int) int { return a + b }

func (g *greeter) Deny() error { return castor.NewHTTPError(http.StatusForbidden, "denied") }

func (g *greeter) Later(n int) *castor.Future[int] {
	return castor.Go(func() (int, error) { return n * 2, nil })
}

func (g *greeter) Tag(ctx context.Context, id uuid.UUID) string { return "tag-" + id.String() }

func init() {
	castor.RegisterManifest(castor.Manifest{
		Type: reflect.TypeFor[greeter](),
		Methods: []castor.ManifestMethod{
			{Name: "Hello", Params: []string{"name"}},
			{Name: "Add", Params: []string{"a", "b"}},
			{Name: "Deny"},
			{Name: "Later", Params: []string{"n"}},
			{Name: "Tag", Params: []string{"id"}},
		},
	})
}

// mountGreeter casts greeter and mounts it on server under /greet
func mountGreeter(t *testing.T, server castor.WebServerInterface, middlewares ...castor.MiddlewareFunc) *castor.Controller {
	t.Helper()

	opts := castor.DefaultOptions()
	opts.BasePath = "/greet"
	ct, err := castor.CastType[*greeter](opts)
	require.NoError(t, err)
	ctrl, err := ct.New()
	require.NoError(t, err)

	castor.MountWithRegistry(server, nil, ctrl, middlewares...)
	return ctrl
}

// headerMiddleware sets X-Test before calling the next handler
func headerMiddleware(next castor.HandlerFunc) castor.HandlerFunc {
	return func(ctx castor.RequestContext) error {
		ctx.Response().SetHeader("X-Test", "middleware-works")
		return next(ctx)
	}
}

// denyMiddleware rejects every request without calling next
func denyMiddleware(castor.HandlerFunc) castor.HandlerFunc {
	return func(castor.RequestContext) error {
		return castor.NewHTTPError(http.StatusUnauthorized, "no entry")
	}
}

// adapterCase is one request/response expectation shared by all adapters
type adapterCase struct {
	name        string
	method      string
	target      string
	contentType string
	body        string
	wantStatus  int
	wantBody    string
}

var adapterCases = []adapterCase{
	{"probe", http.MethodGet, "/greet/test", "", "", http.StatusOK, "OK"},
	{"body bound string", http.MethodPost, "/greet/Hello", "application/json", `"bob"`, http.StatusOK, `"hello bob"`},
	{"field bound query", http.MethodPost, "/greet/Add?a=2&b=3", "", "", http.StatusOK, `5`},
	{"field bound form", http.MethodPost, "/greet/Add", "application/x-www-form-urlencoded", "a=4&b=5", http.StatusOK, `9`},
	{"http error from method", http.MethodPost, "/greet/Deny", "", "", http.StatusForbidden, `{"code":403,"message":"denied"}`},
	{"future is awaited", http.MethodPost, "/greet/Later", "application/json", `21`, http.StatusOK, `42`},
	{"text body parsed", http.MethodPost, "/greet/Tag", "text/plain", "7d444840-9dc0-11d1-b245-5ffdce74fad2", http.StatusOK, `"tag-7d444840-9dc0-11d1-b245-5ffdce74fad2"`},
	{"bad body", http.MethodPost, "/greet/Later", "application/json", `"x"`, http.StatusBadRequest, ""},
	{"probe is GET only", http.MethodPost, "/greet/test", "", "", http.StatusMethodNotAllowed, ""},
}
