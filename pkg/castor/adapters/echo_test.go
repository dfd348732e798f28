package adapters

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/toyz/castor/pkg/castor"
)

func TestEchoAdapter_BasicFunctionality(t *testing.T) {
	e := echo.New()
	adapter := NewEchoAdapter(e)

	if adapter.Name() != "Echo" {
		t.Errorf("Expected adapter name 'Echo', got '%s'", adapter.Name())
	}

	handler := func(ctx castor.RequestContext) error {
		return ctx.Response().Blob(200, "application/json", []byte(`{"message":"hello"}`))
	}
	adapter.RegisterRoute("GET", "/test", handler)

	req := httptest.NewRequest("GET", "/test", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Errorf("Expected status 200, got %d", rec.Code)
	}
	if body := strings.TrimSpace(rec.Body.String()); body != `{"message":"hello"}` {
		t.Errorf("Expected body '%s', got '%s'", `{"message":"hello"}`, body)
	}
}

func TestEchoAdapter_Operations(t *testing.T) {
	e := echo.New()
	mountGreeter(t, NewEchoAdapter(e))

	for _, tc := range adapterCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.target, strings.NewReader(tc.body))
			if tc.contentType != "" {
				req.Header.Set("Content-Type", tc.contentType)
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			assert.Equal(t, tc.wantStatus, rec.Code)
			if tc.wantBody != "" {
				assert.Equal(t, tc.wantBody, strings.TrimSpace(rec.Body.String()))
			}
		})
	}
}

func TestEchoAdapter_Middleware(t *testing.T) {
	e := echo.New()
	mountGreeter(t, NewEchoAdapter(e), headerMiddleware)

	req := httptest.NewRequest(http.MethodGet, "/greet/test", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, "middleware-works", rec.Header().Get("X-Test"))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestEchoAdapter_MiddlewareShortCircuit(t *testing.T) {
	e := echo.New()
	mountGreeter(t, NewEchoAdapter(e), denyMiddleware)

	req := httptest.NewRequest(http.MethodGet, "/greet/test", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestEchoAdapter_RouteGroup(t *testing.T) {
	e := echo.New()
	adapter := NewEchoAdapter(e)

	apiGroup := adapter.RegisterGroup("/api")
	apiGroup.RegisterRoute("GET", "/users/{id}", func(ctx castor.RequestContext) error {
		return ctx.Response().Blob(200, "text/plain", []byte(ctx.Param("id")))
	})

	req := httptest.NewRequest("GET", "/api/users/123", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, 200, rec.Code)
	assert.Equal(t, "123", rec.Body.String())
}

func TestEchoAdapter_MsgpackNegotiation(t *testing.T) {
	e := echo.New()
	mountGreeter(t, NewEchoAdapter(e))

	req := httptest.NewRequest(http.MethodPost, "/greet/Add?a=1&b=1", nil)
	req.Header.Set("Accept", "application/msgpack")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/msgpack", rec.Header().Get("Content-Type"))
}
