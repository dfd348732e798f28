package castor

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/schema"
	"github.com/vmihailenco/msgpack/v5"
)

// Content types understood by the binder and the response writer
const (
	MIMEApplicationJSON    = "application/json"
	MIMEApplicationMsgpack = "application/msgpack"
	MIMETextPlain          = "text/plain"
)

var errNoParser = errors.New("no parser registered")

// validate is shared by every binder; validator caches struct metadata and is
// safe for concurrent use.
var validate = validator.New(validator.WithRequiredStructEnabled())

// binder reads the declared arguments of one operation from a request
type binder struct {
	op      *Operation
	fields  reflect.Type // StructOf type for BindFields, nil otherwise
	decoder *schema.Decoder
}

// newBinder prepares the binding of op. For field binding it synthesizes a
// struct type with one exported field per declared parameter, tagged with the
// parameter name, and a schema decoder that knows the registered parsers.
func newBinder(op *Operation) *binder {
	b := &binder{op: op}
	if op.Method == nil || op.Binding != BindFields || len(op.Method.Params) == 0 {
		return b
	}

	sf := make([]reflect.StructField, len(op.Method.Params))
	for i, p := range op.Method.Params {
		sf[i] = reflect.StructField{
			Name: fmt.Sprintf("P%d", i),
			Type: p.Type,
			Tag:  reflect.StructTag(fmt.Sprintf(`schema:"%s" json:"%s"`, p.Name, p.Name)),
		}
	}
	b.fields = reflect.StructOf(sf)

	b.decoder = schema.NewDecoder()
	b.decoder.IgnoreUnknownKeys(true)
	b.decoder.ZeroEmpty(true)
	parsersMu.RLock()
	for t := range builtinParsers {
		typ := t
		b.decoder.RegisterConverter(reflect.Zero(typ).Interface(), func(raw string) reflect.Value {
			v, err := parseValue(typ, raw)
			if err != nil {
				return reflect.Value{}
			}
			return v
		})
	}
	parsersMu.RUnlock()
	return b
}

// bind returns the operation's arguments in declared order
func (b *binder) bind(c RequestContext) ([]any, error) {
	if b.op.Method == nil || len(b.op.Method.Params) == 0 {
		return nil, nil
	}
	if b.op.Binding == BindBody {
		v, err := b.bindBody(c)
		if err != nil {
			return nil, err
		}
		return []any{v}, nil
	}
	return b.bindFields(c)
}

// bindBody decodes the whole request body into the single parameter
func (b *binder) bindBody(c RequestContext) (any, error) {
	p := b.op.Method.Params[0]

	body, err := c.Request().Body()
	if err != nil {
		return nil, NewBindingError(b.op.Name, p.Name, "cannot read request body", err)
	}

	ct := mediaType(c.Request().ContentType())
	var v reflect.Value
	switch {
	case len(body) == 0:
		// an absent body is the zero value and is validated like any other
		v = reflect.Zero(p.Type)
	case ct == MIMEApplicationMsgpack:
		ptr := reflect.New(p.Type)
		if err := msgpack.Unmarshal(body, ptr.Interface()); err != nil {
			return nil, NewBindingError(b.op.Name, p.Name, "invalid msgpack body", err)
		}
		v = ptr.Elem()
	case ct == MIMETextPlain:
		raw := string(body)
		if p.Type.Kind() != reflect.String {
			raw = strings.TrimSpace(raw)
		}
		pv, err := parseValue(p.Type, raw)
		if err != nil {
			return nil, NewBindingError(b.op.Name, p.Name,
				fmt.Sprintf("cannot parse text body as %s", p.Type), err)
		}
		v = pv
	default:
		ptr := reflect.New(p.Type)
		if err := json.Unmarshal(body, ptr.Interface()); err != nil {
			return nil, NewBindingError(b.op.Name, p.Name, "invalid JSON body", err)
		}
		v = ptr.Elem()
	}

	if err := validateValue(v); err != nil {
		return nil, NewBindingError(b.op.Name, p.Name, "validation failed", err)
	}
	return v.Interface(), nil
}

// bindFields decodes one request field per parameter from path parameters,
// query values and form values, later sources overriding earlier ones.
func (b *binder) bindFields(c RequestContext) ([]any, error) {
	values := url.Values{}
	for k, vs := range c.QueryParams() {
		values[k] = vs
	}
	if c.Method() != "GET" && c.Method() != "HEAD" {
		form, err := c.FormParams()
		if err == nil {
			for k, vs := range form {
				values[k] = vs
			}
		}
	}
	for _, name := range c.ParamNames() {
		values.Set(name, c.Param(name))
	}

	dst := reflect.New(b.fields)
	if err := b.decoder.Decode(dst.Interface(), values); err != nil {
		return nil, NewBindingError(b.op.Name, failedField(err), "cannot decode request fields", err)
	}

	st := dst.Elem()
	args := make([]any, st.NumField())
	for i := range args {
		f := st.Field(i)
		if err := validateValue(f); err != nil {
			return nil, NewBindingError(b.op.Name, b.op.Method.Params[i].Name, "validation failed", err)
		}
		args[i] = f.Interface()
	}
	return args, nil
}

// validateValue runs struct validation on struct and non-nil pointer-to-struct values
func validateValue(v reflect.Value) error {
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct || v.Type() == timeType || v.Type() == uuidType {
		return nil
	}
	err := validate.Struct(v.Interface())
	var invalid *validator.InvalidValidationError
	if errors.As(err, &invalid) {
		return nil
	}
	return err
}

// failedField names the first field schema could not decode
func failedField(err error) string {
	var multi schema.MultiError
	if errors.As(err, &multi) {
		for key := range multi {
			return key
		}
	}
	return ""
}

// mediaType strips parameters such as charset from a Content-Type or Accept value
func mediaType(v string) string {
	if i := strings.IndexByte(v, ';'); i >= 0 {
		v = v[:i]
	}
	return strings.ToLower(strings.TrimSpace(v))
}
