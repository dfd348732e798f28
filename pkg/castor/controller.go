package castor

import (
	"context"
	"fmt"
)

// Controller is an instance of a synthesized controller type. It holds the
// singleton source instance targeted by shared-policy operations.
type Controller struct {
	typ  *ControllerType
	pool *constPool
	env  env
}

// Type returns the synthesized type of the controller
func (c *Controller) Type() *ControllerType {
	return c.typ
}

// Name returns the controller name
func (c *Controller) Name() string {
	return c.typ.Name
}

// Instance returns the singleton source instance, or nil once closed
func (c *Controller) Instance() any {
	v, err := c.env.self.load()
	if err != nil {
		return nil
	}
	return v
}

// Invoke runs the operation registered under name with args in declared order.
// A leading context.Context parameter of the wrapped method is filled from ctx
// and must not be passed in args.
func (c *Controller) Invoke(ctx context.Context, name string, args ...any) (any, error) {
	op, ok := c.typ.Operation(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", ErrOperationNotFound, c.typ.Name, name)
	}
	return c.Call(ctx, op, args)
}

// Call runs op, which must belong to the controller's type
func (c *Controller) Call(ctx context.Context, op *Operation, args []any) (any, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if _, err := c.env.opts.load(); err != nil {
		return nil, err
	}
	return op.body(ctx, c.env, args)
}

// Close releases the controller's options and singleton. Subsequent calls
// fail with ErrControllerClosed.
func (c *Controller) Close() {
	c.pool.release()
}
