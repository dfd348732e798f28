package castor

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
)

// InstanceFactory builds a new instance of the source type. It is used for the
// singleton held by a Controller and, under FreshInstancePerCall, once per call.
type InstanceFactory func(source reflect.Type) (any, error)

// BeforeHook runs with the resolved target instance before the wrapped method.
// A non-nil error aborts the call; the wrapped method and the after-hook never run.
type BeforeHook func(ctx context.Context, instance any) error

// AfterHook runs with the resolved target instance and the captured result of
// the wrapped method. Its return value becomes the operation's return value.
type AfterHook func(ctx context.Context, instance any, res Result) (any, error)

// MethodFilter reports whether a method should be exposed. Rejected methods are
// dropped from the controller entirely.
type MethodFilter func(m Method) bool

// Options controls how a source type is cast into a controller. The zero
// value is valid: unset fields take the defaults below.
//
// Cast takes a normalized copy; that copy is shared by reference with every
// operation of the resulting controller. Hooks and the factory are called
// concurrently when the host serves concurrent requests.
type Options struct {
	// TypeName overrides the controller name (default: <SourceTypeName>Controller)
	TypeName string

	// NameTransform maps a method name to its exposed name before de-duplication
	NameTransform func(string) string

	// NoProbe drops the GET <BasePath>/test operation returning "OK"
	NoProbe bool

	// BasePath prefixes every route (default: /api/<TypeName>)
	BasePath string

	// InstanceFactory creates source instances. When nil, DefaultInstanceFactory
	// is used; interface sources must set one.
	InstanceFactory InstanceFactory

	// FreshInstancePerCall makes every call operate on a new factory-built instance
	FreshInstancePerCall bool

	BeforeHook   BeforeHook
	AfterHook    AfterHook
	MethodFilter MethodFilter

	// Logger receives synthesis and invocation diagnostics (default: slog.Default())
	Logger *slog.Logger

	// IgnoreManifest skips the generated manifest, so methods keep reflect
	// order and annotation values are not applied
	IgnoreManifest bool
}

// DefaultOptions returns options with the documented defaults
func DefaultOptions() *Options {
	return &Options{
		NameTransform: identityName,
		BeforeHook:    noopBefore,
		AfterHook:     passthroughAfter,
	}
}

func identityName(name string) string { return name }

func noopBefore(context.Context, any) error { return nil }

func passthroughAfter(_ context.Context, _ any, res Result) (any, error) {
	return res.Value, res.Err
}

// DefaultInstanceFactory allocates a zero value of the source type. Pointer
// types get a freshly allocated element; interface types cannot be constructed.
func DefaultInstanceFactory(source reflect.Type) (any, error) {
	switch source.Kind() {
	case reflect.Interface:
		return nil, fmt.Errorf("no default constructor for interface type %s", source)
	case reflect.Pointer:
		return reflect.New(source.Elem()).Interface(), nil
	default:
		return reflect.Zero(source).Interface(), nil
	}
}

// sourceName returns the bare name of a source type, dereferencing pointers
func sourceName(source reflect.Type) string {
	for source.Kind() == reflect.Pointer {
		source = source.Elem()
	}
	return source.Name()
}

// normalize fills unset fields with defaults and checks the invariants that
// can be verified before any method is inspected. The caller's Options value is
// never modified; the returned copy is what the controller shares.
func (o *Options) normalize(source reflect.Type) (*Options, error) {
	var n Options
	if o == nil {
		n = *DefaultOptions()
	} else {
		n = *o
	}

	if n.NameTransform == nil {
		n.NameTransform = identityName
	}
	if n.InstanceFactory == nil {
		if source.Kind() == reflect.Interface {
			return nil, NewConfigurationError("InstanceFactory",
				fmt.Sprintf("source %s is an interface and needs an explicit factory", source), nil)
		}
		n.InstanceFactory = DefaultInstanceFactory
	}
	if n.BeforeHook == nil {
		n.BeforeHook = noopBefore
	}
	if n.AfterHook == nil {
		n.AfterHook = passthroughAfter
	}
	if n.Logger == nil {
		n.Logger = slog.Default()
	}

	if n.TypeName == "" {
		name := sourceName(source)
		if name == "" {
			return nil, NewConfigurationError("TypeName",
				fmt.Sprintf("source %s is unnamed; set TypeName explicitly", source), nil)
		}
		n.TypeName = name + "Controller"
	}
	if strings.ContainsAny(n.TypeName, "/ ") {
		return nil, NewConfigurationError("TypeName", fmt.Sprintf("%q must not contain '/' or spaces", n.TypeName), nil)
	}

	n.BasePath = normalizeBasePath(n.BasePath, n.TypeName)
	return &n, nil
}

// normalizeBasePath applies the /api/<TypeName> default, guarantees a leading
// separator and strips trailing ones.
func normalizeBasePath(basePath, typeName string) string {
	if basePath == "" {
		basePath = "/api/" + typeName
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	return strings.TrimRight(basePath, "/")
}
