package castor

import (
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
)

const (
	// VerbInvoke is the HTTP method of every wrapped source method
	VerbInvoke = http.MethodPost

	// VerbProbe is the HTTP method of the probe operation
	VerbProbe = http.MethodGet
)

// OperationKind distinguishes wrapped methods from the probe
type OperationKind int

const (
	OperationInvoke OperationKind = iota
	OperationProbe
)

// String returns the string representation of the kind
func (k OperationKind) String() string {
	if k == OperationProbe {
		return "probe"
	}
	return "invoke"
}

// Binding tells the host how to read an operation's arguments
type Binding int

const (
	// BindFields binds each parameter from a discrete request field
	BindFields Binding = iota

	// BindBody binds the single parameter from the whole request body
	BindBody
)

// String returns the string representation of the binding
func (b Binding) String() string {
	if b == BindBody {
		return "body"
	}
	return "fields"
}

// Route is the metadata a host reads to dispatch an operation
type Route struct {
	Verb string
	Path string
}

// Operation is one member of a synthesized controller
type Operation struct {
	Name    string
	Kind    OperationKind
	Method  *Method
	Route   Route
	Binding Binding

	body bodyFunc
}

// ControllerType is the synthesized type: built once by Cast and immutable
// afterwards. Instances are created with New.
type ControllerType struct {
	Name       string
	BasePath   string
	Source     reflect.Type
	Fresh      bool
	Probe      *Operation
	Operations []*Operation

	opts   *Options
	byName map[string]*Operation
}

// CastType is Cast for a statically known source type
func CastType[T any](opts *Options) (*ControllerType, error) {
	return Cast(reflect.TypeFor[T](), opts)
}

// Cast synthesizes a controller type from the exported methods of source.
//
// Every selected method becomes an invoke operation routed at
// POST <BasePath>/<name>; unless NoProbe is set a GET <BasePath>/test operation is added.
// All naming violations are reported together.
func Cast(source reflect.Type, opts *Options) (*ControllerType, error) {
	if source == nil {
		return nil, NewConfigurationError("source", "source type is nil", nil)
	}

	var base Options
	if opts == nil {
		base = *DefaultOptions()
	} else {
		base = *opts
	}

	var manifest *Manifest
	if !base.IgnoreManifest {
		if m, ok := DefaultManifestRegistry.Lookup(source); ok {
			manifest = m
			manifest.apply(&base)
		}
	}

	n, err := base.normalize(source)
	if err != nil {
		return nil, err
	}

	ct := &ControllerType{
		Name:     n.TypeName,
		BasePath: n.BasePath,
		Source:   source,
		Fresh:    n.FreshInstancePerCall,
		opts:     n,
		byName:   make(map[string]*Operation),
	}

	var reserved []string
	if !n.NoProbe {
		ct.Probe = &Operation{
			Name:  ProbeName,
			Kind:  OperationProbe,
			Route: Route{Verb: VerbProbe, Path: routePath(n.BasePath, ProbeName)},
			body:  probeBody,
		}
		ct.byName[ProbeName] = ct.Probe
		reserved = append(reserved, ProbeName)
	}

	resolver := newNameResolver(n.NameTransform, reserved...)
	errs := &MultipleErrors{}
	for _, m := range selectMethods(source, n, manifest) {
		name, err := resolver.resolve(m.Name)
		if err != nil {
			errs.Add(err.(CastorError))
			continue
		}

		method := m
		op := &Operation{
			Name:    name,
			Kind:    OperationInvoke,
			Method:  &method,
			Route:   Route{Verb: VerbInvoke, Path: routePath(n.BasePath, name)},
			Binding: BindFields,
		}
		if len(method.Params) == 1 {
			op.Binding = BindBody
		}
		op.body = generateBody(source, op, n.FreshInstancePerCall)

		ct.Operations = append(ct.Operations, op)
		ct.byName[name] = op
	}
	if err := errs.ErrOrNil(); err != nil {
		return nil, err
	}

	n.Logger.Debug("castor: controller synthesized",
		slog.String("controller", ct.Name),
		slog.String("base_path", ct.BasePath),
		slog.Int("operations", len(ct.Operations)),
		slog.Bool("probe", ct.Probe != nil),
		slog.Bool("fresh", ct.Fresh))
	return ct, nil
}

// Operation returns the operation with the given resolved name
func (ct *ControllerType) Operation(name string) (*Operation, bool) {
	op, ok := ct.byName[name]
	return op, ok
}

// AllOperations returns the probe (if any) followed by the invoke operations
func (ct *ControllerType) AllOperations() []*Operation {
	ops := make([]*Operation, 0, len(ct.Operations)+1)
	if ct.Probe != nil {
		ops = append(ops, ct.Probe)
	}
	return append(ops, ct.Operations...)
}

// Options returns the normalized options shared by the controller's operations
func (ct *ControllerType) Options() *Options {
	return ct.opts
}

// New instantiates the controller type. The singleton source instance is built
// with the configured InstanceFactory.
func (ct *ControllerType) New() (*Controller, error) {
	instance, err := ct.opts.InstanceFactory(ct.Source)
	if err != nil {
		return nil, NewConfigurationError("InstanceFactory", fmt.Sprintf("cannot construct %s", ct.Source), err)
	}
	return ct.NewWithInstance(instance)
}

// NewWithInstance instantiates the controller type around an existing source instance
func (ct *ControllerType) NewWithInstance(instance any) (*Controller, error) {
	if err := checkInstance(ct.Source, instance); err != nil {
		return nil, err
	}

	pool := newConstPool()
	return &Controller{
		typ:  ct,
		pool: pool,
		env: env{
			opts: pool.embed(ct.opts),
			self: pool.embed(instance),
		},
	}, nil
}
