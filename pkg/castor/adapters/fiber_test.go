package adapters

import (
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/toyz/castor/pkg/castor"
)

func TestFiberAdapter_BasicFunctionality(t *testing.T) {
	adapter := NewDefaultFiberAdapter()

	if adapter.Name() != "Fiber" {
		t.Errorf("Expected adapter name 'Fiber', got '%s'", adapter.Name())
	}

	adapter.RegisterRoute("GET", "/test", func(ctx castor.RequestContext) error {
		return ctx.Response().Blob(200, "application/json", []byte(`{"message":"hello"}`))
	})

	req, _ := http.NewRequest("GET", "/test", nil)
	resp, err := adapter.GetApp().Test(req, -1)
	if err != nil {
		t.Fatalf("Failed to execute request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != `{"message":"hello"}` {
		t.Errorf("Expected body '%s', got '%s'", `{"message":"hello"}`, body)
	}
}

func TestFiberAdapter_Operations(t *testing.T) {
	adapter := NewDefaultFiberAdapter()
	mountGreeter(t, adapter)

	for _, tc := range adapterCases {
		t.Run(tc.name, func(t *testing.T) {
			req, err := http.NewRequest(tc.method, tc.target, strings.NewReader(tc.body))
			require.NoError(t, err)
			if tc.contentType != "" {
				req.Header.Set("Content-Type", tc.contentType)
			}
			resp, err := adapter.GetApp().Test(req, -1)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tc.wantStatus, resp.StatusCode)
			if tc.wantBody != "" {
				body, _ := io.ReadAll(resp.Body)
				assert.Equal(t, tc.wantBody, strings.TrimSpace(string(body)))
			}
		})
	}
}

func TestFiberAdapter_Middleware(t *testing.T) {
	adapter := NewDefaultFiberAdapter()

	var middlewareCalled bool
	middleware := func(next castor.HandlerFunc) castor.HandlerFunc {
		return func(ctx castor.RequestContext) error {
			middlewareCalled = true
			ctx.Set("middleware", "executed")
			return next(ctx)
		}
	}
	adapter.RegisterRoute("GET", "/middleware-test", func(ctx castor.RequestContext) error {
		return ctx.Response().Blob(200, "text/plain", []byte(ctx.Get("middleware").(string)))
	}, middleware)

	req, _ := http.NewRequest("GET", "/middleware-test", nil)
	resp, err := adapter.GetApp().Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	assert.True(t, middlewareCalled)
	assert.Equal(t, "executed", string(body))
}

func TestFiberAdapter_MiddlewareShortCircuit(t *testing.T) {
	adapter := NewDefaultFiberAdapter()
	mountGreeter(t, adapter, denyMiddleware)

	req, _ := http.NewRequest(http.MethodGet, "/greet/test", nil)
	resp, err := adapter.GetApp().Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestFiberAdapter_PathParams(t *testing.T) {
	adapter := NewDefaultFiberAdapter()
	adapter.RegisterRoute("GET", "/users/{id}", func(ctx castor.RequestContext) error {
		return ctx.Response().Blob(200, "text/plain", []byte(strings.Join(ctx.ParamNames(), ",")+"="+ctx.Param("id")))
	})

	req, _ := http.NewRequest("GET", "/users/42", nil)
	resp, err := adapter.GetApp().Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "id=42", string(body))
}
