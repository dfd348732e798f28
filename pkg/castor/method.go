package castor

import (
	"context"
	"fmt"
	"reflect"
	"strings"
)

var (
	contextType = reflect.TypeFor[context.Context]()
	errorType   = reflect.TypeFor[error]()
)

// Param describes one declared parameter of a source method
type Param struct {
	Index int
	Name  string
	Type  reflect.Type
}

// Method describes a public method of the source type. It is derived while a
// controller is synthesized and is not retained past Cast except through the
// operation that wraps it.
type Method struct {
	Name     string
	Index    int
	Params   []Param
	Results  []reflect.Type
	Variadic bool

	// Accessor marks getters and setters of a source struct field
	Accessor bool

	// context marks a leading context.Context parameter, which is supplied by
	// the call rather than declared by the caller
	context bool
	fn      reflect.Method
}

// TakesContext reports whether the method's first parameter is a context.Context
func (m Method) TakesContext() bool {
	return m.context
}

// ReturnsError reports whether the method's last result is an error
func (m Method) ReturnsError() bool {
	return len(m.Results) > 0 && m.Results[len(m.Results)-1] == errorType
}

// ValueType returns the type of the method's value result, or nil if the method
// returns nothing but (optionally) an error.
func (m Method) ValueType() reflect.Type {
	for _, r := range m.Results {
		if r != errorType {
			return r
		}
	}
	return nil
}

// Signature renders the method in Go syntax for diagnostics
func (m Method) Signature() string {
	params := make([]string, 0, len(m.Params)+1)
	if m.context {
		params = append(params, "context.Context")
	}
	for _, p := range m.Params {
		params = append(params, p.Type.String())
	}
	results := make([]string, len(m.Results))
	for i, r := range m.Results {
		results[i] = r.String()
	}
	sig := fmt.Sprintf("%s(%s)", m.Name, strings.Join(params, ", "))
	switch len(results) {
	case 0:
		return sig
	case 1:
		return sig + " " + results[0]
	default:
		return sig + " (" + strings.Join(results, ", ") + ")"
	}
}

// describeMethod derives the descriptor of a method from the source's method set.
// paramNames may be nil or shorter than the declared list; missing names become argN.
func describeMethod(source reflect.Type, rm reflect.Method, paramNames []string) (Method, error) {
	ft := rm.Type
	// reflect.Method.Type includes the receiver for concrete types but not for
	// interface types
	first := 1
	if source.Kind() == reflect.Interface {
		first = 0
	}

	m := Method{
		Name:     rm.Name,
		Index:    rm.Index,
		Variadic: ft.IsVariadic(),
		fn:       rm,
	}
	if m.Variadic {
		return m, fmt.Errorf("variadic method %s cannot be exposed", rm.Name)
	}

	if ft.NumIn() > first && ft.In(first) == contextType {
		m.context = true
		first++
	}
	for i := first; i < ft.NumIn(); i++ {
		idx := len(m.Params)
		name := fmt.Sprintf("arg%d", idx)
		if idx < len(paramNames) && paramNames[idx] != "" {
			name = paramNames[idx]
		}
		m.Params = append(m.Params, Param{Index: idx, Name: name, Type: ft.In(i)})
	}

	for i := 0; i < ft.NumOut(); i++ {
		m.Results = append(m.Results, ft.Out(i))
	}
	if len(m.Results) > 2 || (len(m.Results) == 2 && m.Results[1] != errorType) {
		return m, fmt.Errorf("method %s must return at most (value, error)", rm.Name)
	}

	m.Accessor = isAccessor(source, m)
	return m, nil
}

// isAccessor reports whether m reads or writes a field of the source struct:
// X() / GetX() returning the field's type, or SetX(v) taking it.
func isAccessor(source reflect.Type, m Method) bool {
	st := source
	for st.Kind() == reflect.Pointer {
		st = st.Elem()
	}
	if st.Kind() != reflect.Struct || m.context {
		return false
	}

	switch {
	case len(m.Params) == 1 && len(m.Results) == 0 && strings.HasPrefix(m.Name, "Set"):
		if f, ok := fieldFold(st, strings.TrimPrefix(m.Name, "Set")); ok {
			return f.Type == m.Params[0].Type
		}
	case len(m.Params) == 0 && len(m.Results) == 1:
		if f, ok := fieldFold(st, m.Name); ok {
			return f.Type == m.Results[0]
		}
		if strings.HasPrefix(m.Name, "Get") {
			if f, ok := fieldFold(st, strings.TrimPrefix(m.Name, "Get")); ok {
				return f.Type == m.Results[0]
			}
		}
	}
	return false
}

func fieldFold(st reflect.Type, name string) (reflect.StructField, bool) {
	if name == "" {
		return reflect.StructField{}, false
	}
	for i := 0; i < st.NumField(); i++ {
		f := st.Field(i)
		if strings.EqualFold(f.Name, name) {
			return f, true
		}
	}
	return reflect.StructField{}, false
}
