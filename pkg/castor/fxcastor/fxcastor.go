// Package fxcastor hosts castor controllers in an fx application.
//
// Controllers provided with Provide or ProvideInstance are registered with the
// module's ServiceRegistry, mounted on the application's
// castor.WebServerInterface when the app starts and closed when it stops.
//
//	fx.New(
//	    fxcastor.Module,
//	    fx.Provide(func() castor.WebServerInterface { return adapters.NewDefaultEchoAdapter() }),
//	    fxcastor.Provide[*services.MyService](opts),
//	)
package fxcastor

import (
	"context"
	"reflect"

	"github.com/toyz/castor/pkg/castor"
	"go.uber.org/fx"
)

// ControllersGroup is the fx value group every controller is provided into
const ControllersGroup = "castor.controllers"

// Module provides the ServiceRegistry and mounts every grouped controller
var Module = fx.Module("castor",
	fx.Provide(castor.NewServiceRegistry),
	fx.Invoke(fx.Annotate(mountControllers, fx.ParamTags(``, ``, `group:"`+ControllersGroup+`"`))),
)

// Provide casts T and contributes its controller to the group. The singleton
// is built with the options' InstanceFactory.
func Provide[T any](opts *castor.Options) fx.Option {
	return fx.Provide(fx.Annotate(
		func(reg *castor.ServiceRegistry) (*castor.Controller, error) {
			return castor.AddCastedServiceFor[T](reg, opts)
		},
		fx.ResultTags(`group:"`+ControllersGroup+`"`),
	))
}

// ProvideInstance casts T around the T supplied by the fx graph
func ProvideInstance[T any](opts *castor.Options) fx.Option {
	return fx.Provide(fx.Annotate(
		func(reg *castor.ServiceRegistry, instance T) (*castor.Controller, error) {
			return castor.AddCastedInstance(reg, reflect.TypeFor[T](), instance, opts)
		},
		fx.ResultTags(`group:"`+ControllersGroup+`"`),
	))
}

func mountControllers(lc fx.Lifecycle, server castor.WebServerInterface, controllers []*castor.Controller) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			for _, ctrl := range controllers {
				castor.Mount(server, ctrl)
			}
			return nil
		},
		OnStop: func(context.Context) error {
			for _, ctrl := range controllers {
				ctrl.Close()
			}
			return nil
		},
	})
}
