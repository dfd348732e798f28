package castor

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type greeter struct {
	calls []string
}

func (g *greeter) Hi() string { return "hi" }

func (g *greeter) Join(ctx context.Context, a string, n int, tags []string) string {
	g.calls = append(g.calls, "Join")
	return fmt.Sprintf("%s|%d|%v|%v", a, n, tags, ctx.Value(ctxKey{}))
}

func (g *greeter) Fail() error { return errors.New("boom") }

func (g *greeter) Panic() string { panic("kaboom") }

func (g *greeter) Later(n int) *Future[int] {
	return Go(func() (int, error) {
		if n < 0 {
			return 0, errors.New("negative")
		}
		return n * 2, nil
	})
}

func (g *greeter) Nothing() {}

type ctxKey struct{}

// hookLog records the instances the hooks saw
type hookLog struct {
	mu     sync.Mutex
	before []any
	after  []any
}

func (h *hookLog) options(fresh bool) *Options {
	opts := DefaultOptions()
	opts.FreshInstancePerCall = fresh
	opts.BeforeHook = func(_ context.Context, instance any) error {
		h.mu.Lock()
		defer h.mu.Unlock()
		h.before = append(h.before, instance)
		return nil
	}
	opts.AfterHook = func(_ context.Context, instance any, res Result) (any, error) {
		h.mu.Lock()
		defer h.mu.Unlock()
		h.after = append(h.after, instance)
		return res.Value, res.Err
	}
	return opts
}

func newGreeter(t *testing.T, opts *Options) *Controller {
	t.Helper()
	ct, err := CastType[*greeter](opts)
	require.NoError(t, err)
	ctrl, err := ct.New()
	require.NoError(t, err)
	return ctrl
}

func TestWrapper_BeforeAfterMutation(t *testing.T) {
	var logged []string
	opts := DefaultOptions()
	opts.BeforeHook = func(context.Context, any) error {
		logged = append(logged, "before")
		return nil
	}
	opts.AfterHook = func(_ context.Context, _ any, res Result) (any, error) {
		if s, ok := res.Value.(string); ok {
			return s + "-done", res.Err
		}
		return res.Value, res.Err
	}

	got, err := newGreeter(t, opts).Invoke(context.Background(), "Hi")
	require.NoError(t, err)
	assert.Equal(t, "hi-done", got)
	assert.Equal(t, []string{"before"}, logged)
}

func TestWrapper_SharedInstance(t *testing.T) {
	h := &hookLog{}
	ctrl := newGreeter(t, h.options(false))

	for i := 0; i < 2; i++ {
		_, err := ctrl.Invoke(context.Background(), "Hi")
		require.NoError(t, err)
	}

	require.Len(t, h.before, 2)
	require.Len(t, h.after, 2)
	for i := range h.before {
		assert.Same(t, ctrl.Instance(), h.before[i])
		assert.Same(t, ctrl.Instance(), h.after[i])
	}
}

func TestWrapper_FreshInstancePerCall(t *testing.T) {
	h := &hookLog{}
	ctrl := newGreeter(t, h.options(true))

	for i := 0; i < 2; i++ {
		_, err := ctrl.Invoke(context.Background(), "Hi")
		require.NoError(t, err)
	}

	require.Len(t, h.before, 2)
	assert.NotSame(t, h.before[0], h.before[1])
	assert.NotSame(t, ctrl.Instance(), h.before[0])
	assert.Same(t, h.before[0], h.after[0])
	assert.Same(t, h.before[1], h.after[1])
}

func TestWrapper_FactoryIntentionallyShared(t *testing.T) {
	shared := &greeter{}
	h := &hookLog{}
	opts := h.options(true)
	opts.InstanceFactory = func(reflect.Type) (any, error) { return shared, nil }

	ctrl := newGreeter(t, opts)
	for i := 0; i < 2; i++ {
		_, err := ctrl.Invoke(context.Background(), "Hi")
		require.NoError(t, err)
	}
	assert.Same(t, h.before[0], h.before[1])
}

func TestWrapper_FactoryFailureAbortsCall(t *testing.T) {
	h := &hookLog{}
	opts := h.options(true)
	calls := 0
	opts.InstanceFactory = func(reflect.Type) (any, error) {
		calls++
		if calls > 1 {
			return nil, errors.New("exhausted")
		}
		return &greeter{}, nil
	}

	ctrl := newGreeter(t, opts) // first factory call builds the singleton
	_, err := ctrl.Invoke(context.Background(), "Hi")

	var cfg *ConfigurationError
	require.True(t, errors.As(err, &cfg))
	assert.Empty(t, h.before)
}

func TestWrapper_WrongFactoryType(t *testing.T) {
	opts := DefaultOptions()
	opts.FreshInstancePerCall = true
	ct, err := CastType[*greeter](opts)
	require.NoError(t, err)

	_, err = ct.NewWithInstance("not a greeter")
	var cfg *ConfigurationError
	assert.True(t, errors.As(err, &cfg))
}

func TestWrapper_RoundTripArguments(t *testing.T) {
	g := &greeter{}
	ct, err := CastType[*greeter](nil)
	require.NoError(t, err)
	ctrl, err := ct.NewWithInstance(g)
	require.NoError(t, err)

	op, ok := ct.Operation("Join")
	require.True(t, ok)
	assert.True(t, op.Method.TakesContext())
	assert.Len(t, op.Method.Params, 3)
	assert.Equal(t, BindFields, op.Binding)

	ctx := context.WithValue(context.Background(), ctxKey{}, "ctx")
	got, err := ctrl.Invoke(ctx, "Join", "a", int64(7), []string{"x", "y"})
	require.NoError(t, err)
	assert.Equal(t, "a|7|[x y]|ctx", got)
	assert.Equal(t, []string{"Join"}, g.calls)
}

func TestWrapper_ArgumentMismatch(t *testing.T) {
	ctrl := newGreeter(t, nil)

	_, err := ctrl.Invoke(context.Background(), "Join", "a")
	var bind *BindingError
	require.True(t, errors.As(err, &bind))

	_, err = ctrl.Invoke(context.Background(), "Join", "a", "not an int", nil)
	require.True(t, errors.As(err, &bind))
	assert.Equal(t, "arg1", bind.Param)
}

func TestWrapper_BeforeHookFailureSkipsMethod(t *testing.T) {
	g := &greeter{}
	afterCalled := false
	opts := DefaultOptions()
	opts.BeforeHook = func(context.Context, any) error { return errors.New("denied") }
	opts.AfterHook = func(_ context.Context, _ any, res Result) (any, error) {
		afterCalled = true
		return res.Value, res.Err
	}
	ct, err := CastType[*greeter](opts)
	require.NoError(t, err)
	ctrl, err := ct.NewWithInstance(g)
	require.NoError(t, err)

	_, err = ctrl.Invoke(context.Background(), "Join", "a", 1, nil)
	var hook *HookError
	require.True(t, errors.As(err, &hook))
	assert.Equal(t, StageBefore, hook.Stage)
	assert.Empty(t, g.calls)
	assert.False(t, afterCalled)
}

func TestWrapper_AfterHookSeesMethodError(t *testing.T) {
	var seen error
	opts := DefaultOptions()
	opts.AfterHook = func(_ context.Context, _ any, res Result) (any, error) {
		seen = res.Err
		return res.Value, res.Err
	}

	_, err := newGreeter(t, opts).Invoke(context.Background(), "Fail")
	require.EqualError(t, err, "boom")
	assert.Same(t, seen, err)
}

func TestWrapper_AfterHookError(t *testing.T) {
	opts := DefaultOptions()
	opts.AfterHook = func(context.Context, any, Result) (any, error) { return nil, errors.New("rejected") }

	_, err := newGreeter(t, opts).Invoke(context.Background(), "Hi")
	var hook *HookError
	require.True(t, errors.As(err, &hook))
	assert.Equal(t, StageAfter, hook.Stage)
}

func TestWrapper_AfterHookTypeMismatch(t *testing.T) {
	opts := DefaultOptions()
	opts.AfterHook = func(context.Context, any, Result) (any, error) { return 42, nil }

	_, err := newGreeter(t, opts).Invoke(context.Background(), "Hi")
	var inv *InvocationError
	require.True(t, errors.As(err, &inv))

	// envelopes may replace any value
	opts.AfterHook = func(_ context.Context, _ any, res Result) (any, error) { return Created(res.Value), nil }
	got, err := newGreeter(t, opts).Invoke(context.Background(), "Hi")
	require.NoError(t, err)
	assert.Equal(t, &Response{StatusCode: 201, Body: "hi"}, got)
}

func TestWrapper_PanicIsCaptured(t *testing.T) {
	var seen Result
	opts := DefaultOptions()
	opts.AfterHook = func(_ context.Context, _ any, res Result) (any, error) {
		seen = res
		return res.Value, res.Err
	}

	_, err := newGreeter(t, opts).Invoke(context.Background(), "Panic")
	var inv *InvocationError
	require.True(t, errors.As(err, &inv))
	assert.Contains(t, err.Error(), "kaboom")
	assert.Equal(t, err, seen.Err)
}

func TestWrapper_NoResult(t *testing.T) {
	got, err := newGreeter(t, nil).Invoke(context.Background(), "Nothing")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestWrapper_PendingResultFaultIsKept(t *testing.T) {
	var resolved Result
	opts := DefaultOptions()
	opts.AfterHook = func(ctx context.Context, _ any, res Result) (any, error) {
		resolved = res.Resolve(ctx)
		return resolved.Value, resolved.Err
	}
	ctrl := newGreeter(t, opts)

	got, err := ctrl.Invoke(context.Background(), "Later", 4)
	require.NoError(t, err)
	assert.Equal(t, 8, got)

	_, err = ctrl.Invoke(context.Background(), "Later", -1)
	require.Error(t, err)
	assert.EqualError(t, resolved.Err, "negative")
}

func TestWrapper_PendingResultPassedThrough(t *testing.T) {
	got, err := newGreeter(t, nil).Invoke(context.Background(), "Later", 5)
	require.NoError(t, err)

	f, ok := got.(*Future[int])
	require.True(t, ok)
	v, err := f.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 10, v)
}

func TestController_Close(t *testing.T) {
	ctrl := newGreeter(t, nil)
	ctrl.Close()

	assert.Nil(t, ctrl.Instance())
	_, err := ctrl.Invoke(context.Background(), "Hi")
	assert.ErrorIs(t, err, ErrControllerClosed)
	_, err = ctrl.Invoke(context.Background(), ProbeName)
	assert.ErrorIs(t, err, ErrControllerClosed)
}

func TestController_UnknownOperation(t *testing.T) {
	_, err := newGreeter(t, nil).Invoke(context.Background(), "Missing")
	assert.ErrorIs(t, err, ErrOperationNotFound)
}

func TestController_ConcurrentCalls(t *testing.T) {
	ctrl := newGreeter(t, DefaultOptions())

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := ctrl.Invoke(context.Background(), "Hi")
			assert.NoError(t, err)
			assert.Equal(t, "hi", got)
		}()
	}
	wg.Wait()
}
