package castor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
)

// env is what a generated body reads at call time: handles to the shared
// options and to the controller's singleton.
type env struct {
	opts constRef
	self constRef
}

// bodyFunc is the generated body of an operation
type bodyFunc func(ctx context.Context, e env, args []any) (any, error)

// probeBody always reports success; it exists so operators can check that a
// controller was synthesized and mounted.
func probeBody(context.Context, env, []any) (any, error) {
	return "OK", nil
}

// generateBody builds the call sequence of an invoke operation:
// resolve target, before-hook, original call, after-hook, compatibility check.
func generateBody(source reflect.Type, op *Operation, fresh bool) bodyFunc {
	m := op.Method
	want := m.ValueType()

	return func(ctx context.Context, e env, args []any) (any, error) {
		opts, err := loadConst[*Options](e.opts)
		if err != nil {
			return nil, err
		}

		target, err := resolveTarget(source, opts, fresh, e.self)
		if err != nil {
			return nil, err
		}

		if err := opts.BeforeHook(ctx, target); err != nil {
			return nil, NewHookError(StageBefore, op.Name, err)
		}

		in, err := forwardArgs(ctx, op, args)
		if err != nil {
			return nil, err
		}

		res := callOriginal(source, op, target, in)
		if res.Err != nil {
			opts.Logger.Debug("castor: method failed",
				slog.String("operation", op.Name),
				slog.Any("error", res.Err))
		}

		final, err := opts.AfterHook(ctx, target, res)
		if err != nil {
			// the default hook hands the method's own error back; only
			// errors the hook introduced are reported as hook failures
			if res.Err != nil && errors.Is(err, res.Err) {
				return final, err
			}
			return final, NewHookError(StageAfter, op.Name, err)
		}

		if !compatible(final, want) {
			return nil, NewInvocationError(op.Name,
				fmt.Sprintf("after-hook returned %T, which is not assignable to %v", final, want), nil)
		}
		return final, nil
	}
}

// resolveTarget applies the instance-resolution policy
func resolveTarget(source reflect.Type, opts *Options, fresh bool, self constRef) (any, error) {
	if !fresh {
		return self.load()
	}
	instance, err := opts.InstanceFactory(source)
	if err != nil {
		return nil, NewConfigurationError("InstanceFactory", "factory failed", err)
	}
	if err := checkInstance(source, instance); err != nil {
		return nil, err
	}
	return instance, nil
}

// checkInstance verifies a factory result can stand in for the source type
func checkInstance(source reflect.Type, instance any) error {
	if instance == nil {
		return NewConfigurationError("InstanceFactory", "factory returned nil", nil)
	}
	if t := reflect.TypeOf(instance); !t.AssignableTo(source) {
		return NewConfigurationError("InstanceFactory",
			fmt.Sprintf("factory returned %s, which is not assignable to %s", t, source), nil)
	}
	return nil
}

// forwardArgs converts caller arguments to the declared parameter types, in
// declared order, prepending the call's context when the method takes one.
func forwardArgs(ctx context.Context, op *Operation, args []any) ([]reflect.Value, error) {
	m := op.Method
	if len(args) != len(m.Params) {
		return nil, NewBindingError(op.Name, "",
			fmt.Sprintf("expected %d arguments, got %d", len(m.Params), len(args)), nil)
	}

	in := make([]reflect.Value, 0, len(args)+1)
	if m.TakesContext() {
		if ctx == nil {
			ctx = context.Background()
		}
		in = append(in, reflect.ValueOf(&ctx).Elem())
	}
	for i, p := range m.Params {
		v, err := argValue(args[i], p.Type)
		if err != nil {
			return nil, NewBindingError(op.Name, p.Name, err.Error(), nil)
		}
		in = append(in, v)
	}
	return in, nil
}

// argValue turns one argument into a reflect.Value of type want
func argValue(arg any, want reflect.Type) (reflect.Value, error) {
	if arg == nil {
		switch want.Kind() {
		case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
			return reflect.Zero(want), nil
		}
		return reflect.Value{}, fmt.Errorf("nil is not a valid %s", want)
	}
	if v, ok := arg.(reflect.Value); ok {
		arg = v.Interface()
	}

	v := reflect.ValueOf(arg)
	switch {
	case v.Type().AssignableTo(want):
		if want.Kind() == reflect.Interface {
			// keep the static parameter type so Call sees an interface value
			iv := reflect.New(want).Elem()
			iv.Set(v)
			return iv, nil
		}
		return v, nil
	case isNumeric(v.Kind()) && isNumeric(want.Kind()) && v.Type().ConvertibleTo(want):
		return v.Convert(want), nil
	}
	return reflect.Value{}, fmt.Errorf("%s is not assignable to %s", v.Type(), want)
}

func isNumeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

// callOriginal invokes the wrapped method on target and captures its results.
// A panic inside the method is captured as the result's error.
func callOriginal(source reflect.Type, op *Operation, target any, in []reflect.Value) (res Result) {
	defer func() {
		if rec := recover(); rec != nil {
			res = Result{Err: NewInvocationError(op.Name, fmt.Sprintf("method panicked: %v", rec), nil)}
		}
	}()

	recv := reflect.ValueOf(target)
	var out []reflect.Value
	if source.Kind() == reflect.Interface {
		out = recv.MethodByName(op.Method.Name).Call(in)
	} else {
		out = op.Method.fn.Func.Call(append([]reflect.Value{recv}, in...))
	}

	for i, v := range out {
		if op.Method.Results[i] == errorType {
			if !v.IsNil() {
				res.Err = v.Interface().(error)
			}
			continue
		}
		res.Value = v.Interface()
	}
	return res
}
