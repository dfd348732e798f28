package castor

import (
	"log/slog"
	"reflect"
)

// Host receives synthesized controllers: the source type, its singleton and
// the route table of its operations. ServiceRegistry is the in-memory Host.
type Host interface {
	Register(source reflect.Type, instance any, routes []RouteInfo) error
}

// Routes builds the route table of ctrl with one handler per operation, the
// probe first.
func Routes(ctrl *Controller) []RouteInfo {
	ct := ctrl.Type()
	ops := ct.AllOperations()
	routes := make([]RouteInfo, 0, len(ops))
	for _, op := range ops {
		info := RouteInfo{
			Method:         op.Route.Verb,
			Path:           op.Route.Path,
			ControllerName: ct.Name,
			OperationName:  op.Name,
			Binding:        op.Binding,
			ParameterTypes: make(map[string]string),
			Handler:        Handler(ctrl, op),
		}
		if op.Method != nil {
			info.SourceMethod = op.Method.Name
			for _, p := range op.Method.Params {
				info.ParameterTypes[p.Name] = p.Type.String()
			}
		}
		routes = append(routes, info)
	}
	return routes
}

// AddCastedService casts source, instantiates the controller and registers it
// with host. On a host failure the controller is closed and a
// RegistrationError is returned.
func AddCastedService(host Host, source reflect.Type, opts *Options) (*Controller, error) {
	ct, err := Cast(source, opts)
	if err != nil {
		return nil, err
	}
	ctrl, err := ct.New()
	if err != nil {
		return nil, err
	}
	return register(host, ctrl)
}

// AddCastedInstance is AddCastedService around an existing singleton, e.g. one
// built by a dependency injection container
func AddCastedInstance(host Host, source reflect.Type, instance any, opts *Options) (*Controller, error) {
	ct, err := Cast(source, opts)
	if err != nil {
		return nil, err
	}
	ctrl, err := ct.NewWithInstance(instance)
	if err != nil {
		return nil, err
	}
	return register(host, ctrl)
}

func register(host Host, ctrl *Controller) (*Controller, error) {
	ct := ctrl.Type()
	if err := host.Register(ct.Source, ctrl.Instance(), Routes(ctrl)); err != nil {
		ctrl.Close()
		if _, ok := err.(*RegistrationError); ok {
			return nil, err
		}
		return nil, NewRegistrationError(ct.Name, "host rejected the controller", err)
	}

	ct.opts.Logger.Info("castor: service registered",
		slog.String("controller", ct.Name),
		slog.String("source", ct.Source.String()),
		slog.String("base_path", ct.BasePath))
	return ctrl, nil
}

// AddCastedServiceFor is AddCastedService for a statically known source type
func AddCastedServiceFor[T any](host Host, opts *Options) (*Controller, error) {
	return AddCastedService(host, reflect.TypeFor[T](), opts)
}

// Mount registers every operation of ctrl on server and records the routes
// in DefaultRouteRegistry.
func Mount(server WebServerInterface, ctrl *Controller, middlewares ...MiddlewareFunc) []RouteInfo {
	return MountWithRegistry(server, DefaultRouteRegistry, ctrl, middlewares...)
}

// MountWithRegistry is Mount recording routes in registry; a nil registry records nothing
func MountWithRegistry(server WebServerInterface, registry RouteRegistry, ctrl *Controller, middlewares ...MiddlewareFunc) []RouteInfo {
	routes := Routes(ctrl)
	for _, route := range routes {
		server.RegisterRoute(route.Method, RoutePath(route.Path), route.Handler, middlewares...)
		if registry != nil {
			registry.RegisterRoute(route)
		}
	}

	ctrl.Type().opts.Logger.Debug("castor: controller mounted",
		slog.String("controller", ctrl.Name()),
		slog.String("server", server.Name()),
		slog.Int("routes", len(routes)))
	return routes
}
