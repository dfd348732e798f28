package castor

import (
	"context"
	"fmt"
	"reflect"
)

// Result is what the wrapped method produced: its value result (nil when the
// method has none) and its error result or recovered panic.
type Result struct {
	Value any
	Err   error
}

// Pending reports whether the value is an unresolved asynchronous result
func (r Result) Pending() bool {
	_, ok := awaitable(r.Value)
	return ok
}

// Resolve waits for a pending value and returns the settled result. The wait
// never discards a fault: a failed pending operation yields Result.Err, so an
// after-hook that resolves first always runs and can still see what happened.
// Non-pending results are returned unchanged.
func (r Result) Resolve(ctx context.Context) Result {
	if r.Err != nil {
		return r
	}
	if isNilAwaitable(r.Value) {
		return Result{}
	}
	a, ok := awaitable(r.Value)
	if !ok {
		return r
	}
	v, err := a.Await(ctx)
	return Result{Value: v, Err: err}
}

// Awaitable is implemented by values that complete asynchronously. Methods may
// return one (typically a *Future) to let the host wait for completion.
type Awaitable interface {
	Await(ctx context.Context) (any, error)
}

// awaitable returns v as an Awaitable unless it is a nil pointer, which has
// nothing to wait for
func awaitable(v any) (Awaitable, bool) {
	a, ok := v.(Awaitable)
	if !ok || isNilAwaitable(v) {
		return nil, false
	}
	return a, true
}

func isNilAwaitable(v any) bool {
	if _, ok := v.(Awaitable); !ok {
		return false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// Future is a typed Awaitable completed by a goroutine started with Go
type Future[T any] struct {
	done  chan struct{}
	value T
	err   error
}

// Go runs fn in a new goroutine and returns a Future for its result
func Go[T any](fn func() (T, error)) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}
	go func() {
		defer close(f.done)
		defer func() {
			if rec := recover(); rec != nil {
				f.err = fmt.Errorf("castor: future panicked: %v", rec)
			}
		}()
		f.value, f.err = fn()
	}()
	return f
}

// Resolved returns an already completed Future
func Resolved[T any](v T) *Future[T] {
	f := &Future[T]{done: make(chan struct{}), value: v}
	close(f.done)
	return f
}

// Failed returns an already completed Future carrying err
func Failed[T any](err error) *Future[T] {
	f := &Future[T]{done: make(chan struct{}), err: err}
	close(f.done)
	return f
}

// Wait blocks until the future completes or ctx is done. A nil future is
// complete with the zero value.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	if f == nil {
		var zero T
		return zero, nil
	}
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Await implements Awaitable
func (f *Future[T]) Await(ctx context.Context) (any, error) {
	return f.Wait(ctx)
}

// Done reports whether the future has completed
func (f *Future[T]) Done() bool {
	if f == nil {
		return true
	}
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Err returns the fault of a completed future, or nil while it is running
func (f *Future[T]) Err() error {
	if f == nil || !f.Done() {
		return nil
	}
	return f.err
}

// Response lets an operation control the HTTP status of its reply. An after-hook
// may return one in place of the method's value.
//
// Example usage:
//
//	AfterHook: func(ctx context.Context, _ any, res castor.Result) (any, error) {
//	    return castor.Created(res.Value), res.Err
//	}
type Response struct {
	// StatusCode is the HTTP status code to return
	StatusCode int `json:"-"`

	// Body is encoded with the negotiated codec
	Body interface{} `json:"body,omitempty"`
}

// NewResponse creates a new Response with the specified status code and body
func NewResponse(statusCode int, body interface{}) *Response {
	return &Response{
		StatusCode: statusCode,
		Body:       body,
	}
}

// OK creates a 200 OK response with the given body
func OK(body interface{}) *Response {
	return NewResponse(200, body)
}

// Created creates a 201 Created response with the given body
func Created(body interface{}) *Response {
	return NewResponse(201, body)
}

// NoContent creates a 204 No Content response
func NoContent() *Response {
	return NewResponse(204, nil)
}

var (
	responseType  = reflect.TypeFor[*Response]()
	awaitableType = reflect.TypeFor[Awaitable]()
)

// compatible reports whether an after-hook value may stand in for the wrapped
// method's value result of type want.
func compatible(v any, want reflect.Type) bool {
	if v == nil {
		if want == nil {
			return true
		}
		switch want.Kind() {
		case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
			return true
		}
		return false
	}
	got := reflect.TypeOf(v)
	if got == responseType || got.Implements(awaitableType) {
		return true
	}
	if want == nil {
		return false
	}
	if want.Implements(awaitableType) {
		// a hook that resolved the pending value returns what it settled to
		return true
	}
	return got.AssignableTo(want)
}
