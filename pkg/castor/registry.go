package castor

import (
	"fmt"
	"reflect"
	"sync"
)

// RouteInfo contains metadata about a mounted operation
type RouteInfo struct {
	// Method is the HTTP method (POST for operations, GET for the probe)
	Method string

	// Path is the route path, <BasePath>/<OperationName>
	Path string

	// ControllerName is the name of the synthesized controller type
	ControllerName string

	// OperationName is the resolved operation name
	OperationName string

	// SourceMethod is the wrapped source method; empty for the probe
	SourceMethod string

	// Binding tells how the operation's arguments are read
	Binding Binding

	// ParameterTypes maps declared parameter names to their Go types
	ParameterTypes map[string]string

	// Handler is the framework-agnostic handler of the operation
	Handler HandlerFunc
}

// RouteRegistry provides access to all mounted routes in the application
type RouteRegistry interface {
	// GetAllRoutes returns all registered routes
	GetAllRoutes() []RouteInfo

	// GetRoutesByController returns routes filtered by controller name
	GetRoutesByController(controllerName string) []RouteInfo

	// GetRoutesByMethod returns routes filtered by HTTP method
	GetRoutesByMethod(method string) []RouteInfo

	// RegisterRoute adds a route to the registry
	RegisterRoute(route RouteInfo)
}

// DefaultRouteRegistry is the global route registry instance
var DefaultRouteRegistry RouteRegistry = NewInMemoryRouteRegistry()

// InMemoryRouteRegistry implements RouteRegistry using an in-memory slice
type InMemoryRouteRegistry struct {
	mu     sync.RWMutex
	routes []RouteInfo
}

// NewInMemoryRouteRegistry creates a new in-memory route registry
func NewInMemoryRouteRegistry() *InMemoryRouteRegistry {
	return &InMemoryRouteRegistry{
		routes: make([]RouteInfo, 0),
	}
}

// GetAllRoutes returns all registered routes
func (r *InMemoryRouteRegistry) GetAllRoutes() []RouteInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]RouteInfo(nil), r.routes...)
}

// GetRoutesByController returns routes filtered by controller name
func (r *InMemoryRouteRegistry) GetRoutesByController(controllerName string) []RouteInfo {
	return r.filter(func(route RouteInfo) bool { return route.ControllerName == controllerName })
}

// GetRoutesByMethod returns routes filtered by HTTP method
func (r *InMemoryRouteRegistry) GetRoutesByMethod(method string) []RouteInfo {
	return r.filter(func(route RouteInfo) bool { return route.Method == method })
}

func (r *InMemoryRouteRegistry) filter(keep func(RouteInfo) bool) []RouteInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var filtered []RouteInfo
	for _, route := range r.routes {
		if keep(route) {
			filtered = append(filtered, route)
		}
	}
	return filtered
}

// RegisterRoute adds a route to the registry
func (r *InMemoryRouteRegistry) RegisterRoute(route RouteInfo) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes = append(r.routes, route)
}

// GetRoutes returns all registered routes (convenience function)
func GetRoutes() []RouteInfo {
	return DefaultRouteRegistry.GetAllRoutes()
}

// GetRoutesByController returns routes for a specific controller (convenience function)
func GetRoutesByController(controllerName string) []RouteInfo {
	return DefaultRouteRegistry.GetRoutesByController(controllerName)
}

// ServiceRegistry is an in-memory Host keeping one singleton per source type
type ServiceRegistry struct {
	mu        sync.RWMutex
	instances map[reflect.Type]any
	routes    map[reflect.Type][]RouteInfo
}

// NewServiceRegistry creates an empty service registry
func NewServiceRegistry() *ServiceRegistry {
	return &ServiceRegistry{
		instances: make(map[reflect.Type]any),
		routes:    make(map[reflect.Type][]RouteInfo),
	}
}

// Register implements Host. A type may be registered once.
func (r *ServiceRegistry) Register(source reflect.Type, instance any, routes []RouteInfo) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.instances[source]; exists {
		err := NewRegistrationError(source.String(), "type is already registered", nil)
		err.WithSuggestion("cast each source type once, or use a distinct registry")
		return err
	}
	r.instances[source] = instance
	r.routes[source] = append([]RouteInfo(nil), routes...)
	return nil
}

// Resolve returns the singleton registered for source
func (r *ServiceRegistry) Resolve(source reflect.Type) (any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.instances[source]
	return v, ok
}

// Routes returns the routes registered for source
func (r *ServiceRegistry) Routes(source reflect.Type) []RouteInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]RouteInfo(nil), r.routes[source]...)
}

// Types returns every registered source type
func (r *ServiceRegistry) Types() []reflect.Type {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]reflect.Type, 0, len(r.instances))
	for t := range r.instances {
		types = append(types, t)
	}
	return types
}

// Resolve returns the singleton of type T registered in r
func Resolve[T any](r *ServiceRegistry) (T, error) {
	var zero T
	v, ok := r.Resolve(reflect.TypeFor[T]())
	if !ok {
		return zero, fmt.Errorf("castor: %s is not registered", reflect.TypeFor[T]())
	}
	return v.(T), nil
}
