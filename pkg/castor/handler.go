package castor

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
)

// Handler adapts one operation of ctrl to a HandlerFunc. The handler binds the
// declared arguments, invokes the operation, waits for pending results and
// writes the reply, so every adapter produces identical responses.
func Handler(ctrl *Controller, op *Operation) HandlerFunc {
	b := newBinder(op)
	logger := ctrl.Type().Options().Logger

	return func(c RequestContext) error {
		ctx := c.Context()

		args, err := b.bind(c)
		if err != nil {
			return writeError(c, logger, op, err)
		}

		v, err := ctrl.Call(ctx, op, args)
		if err != nil {
			return writeError(c, logger, op, err)
		}

		status := http.StatusOK
		v, status, err = settle(ctx, v, status)
		if err != nil {
			return writeError(c, logger, op, err)
		}
		return writeValue(c, op, status, v)
	}
}

// settle unwraps Response envelopes and awaits pending values until a plain
// value remains. A pending value's fault is returned, never dropped.
func settle(ctx context.Context, v any, status int) (any, int, error) {
	for {
		switch t := v.(type) {
		case *Response:
			if t == nil {
				return nil, status, nil
			}
			if t.StatusCode != 0 {
				status = t.StatusCode
			}
			v = t.Body
		case Awaitable:
			if isNilAwaitable(t) {
				return nil, status, nil
			}
			resolved, err := t.Await(ctx)
			if err != nil {
				return nil, status, err
			}
			v = resolved
		default:
			return v, status, nil
		}
	}
}

// writeValue encodes v with the codec the request accepts
func writeValue(c RequestContext, op *Operation, status int, v any) error {
	if status == http.StatusNoContent {
		return c.Response().NoContent(status)
	}

	if s, ok := v.(string); ok && op.Kind == OperationProbe {
		return c.Response().Blob(status, MIMETextPlain+"; charset=utf-8", []byte(s))
	}

	contentType, body, err := encode(c, v)
	if err != nil {
		return writeError(c, nil, op, NewInvocationError(op.Name, "cannot encode result", err))
	}
	return c.Response().Blob(status, contentType, body)
}

// writeError maps err to a status and writes it as {"code", "message"}
func writeError(c RequestContext, logger *slog.Logger, op *Operation, err error) error {
	he := ToHTTPError(err)
	if logger != nil {
		level := slog.LevelDebug
		if he.Code >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		logger.Log(c.Context(), level, "castor: operation failed",
			slog.String("operation", op.Name),
			slog.String("path", c.Path()),
			slog.Int("status", he.Code),
			slog.Any("error", err))
	}

	payload := map[string]any{"code": he.Code, "message": he.Message}
	if he.Code >= http.StatusInternalServerError {
		// internal details stay in the log
		payload["message"] = http.StatusText(he.Code)
		var own *HTTPError
		if errors.As(err, &own) {
			payload["message"] = he.Message
		}
	}

	contentType, body, encErr := encode(c, payload)
	if encErr != nil {
		return encErr
	}
	return c.Response().Blob(he.Code, contentType, body)
}

// encode marshals v as msgpack when the request accepts it, otherwise as JSON
func encode(c RequestContext, v any) (string, []byte, error) {
	if acceptsMsgpack(c.Request().Header("Accept")) {
		b, err := msgpack.Marshal(v)
		return MIMEApplicationMsgpack, b, err
	}
	b, err := json.Marshal(v)
	return MIMEApplicationJSON, b, err
}

func acceptsMsgpack(accept string) bool {
	for _, part := range strings.Split(accept, ",") {
		mt := mediaType(part)
		if mt == MIMEApplicationMsgpack || mt == "application/x-msgpack" {
			return true
		}
	}
	return false
}
