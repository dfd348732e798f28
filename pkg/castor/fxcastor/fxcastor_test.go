package fxcastor

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/toyz/castor/pkg/castor"
	"github.com/toyz/castor/pkg/castor/adapters"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
)

type counter struct{ n int }

func (c *counter) Inc() int {
	c.n++
	return c.n
}

type clock struct{ tz string }

func (c *clock) Zone() string { return c.tz }

func TestModule_MountsProvidedControllers(t *testing.T) {
	e := echo.New()
	var registry *castor.ServiceRegistry
	var controllers []*castor.Controller

	app := fxtest.New(t,
		Module,
		fx.Provide(func() castor.WebServerInterface { return adapters.NewEchoAdapter(e) }),
		fx.Supply(&clock{tz: "UTC"}),
		Provide[*counter](&castor.Options{BasePath: "/counter", NoProbe: true}),
		ProvideInstance[*clock](&castor.Options{BasePath: "/clock"}),
		fx.Populate(&registry),
		fx.Invoke(fx.Annotate(func(ctrls []*castor.Controller) { controllers = ctrls },
			fx.ParamTags(`group:"`+ControllersGroup+`"`))),
	)
	app.RequireStart()

	require.Len(t, controllers, 2)
	assert.Len(t, registry.Types(), 2)

	for i, want := range []string{"1", "2"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/counter/Inc", nil))
		assert.Equal(t, http.StatusOK, rec.Code, "call %d", i)
		assert.Equal(t, want, strings.TrimSpace(rec.Body.String()))
	}

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/clock/Zone", nil))
	assert.Equal(t, `"UTC"`, strings.TrimSpace(rec.Body.String()))

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/clock/test", nil))
	assert.Equal(t, "OK", rec.Body.String())

	app.RequireStop()

	for _, ctrl := range controllers {
		assert.Nil(t, ctrl.Instance(), "controllers are closed on stop")
	}
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/counter/Inc", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestProvide_DuplicateTypeFails(t *testing.T) {
	app := fx.New(
		fx.NopLogger,
		Module,
		fx.Provide(func() castor.WebServerInterface { return adapters.NewDefaultEchoAdapter() }),
		Provide[*counter](nil),
		Provide[*counter](nil),
	)
	assert.Error(t, app.Err())
}
