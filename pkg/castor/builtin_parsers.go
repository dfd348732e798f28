package castor

import (
	"fmt"
	"reflect"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ParserFunc converts a single raw request value into a parameter value
type ParserFunc func(raw string) (any, error)

var (
	timeType = reflect.TypeFor[time.Time]()
	uuidType = reflect.TypeFor[uuid.UUID]()

	parsersMu sync.RWMutex

	// builtinParsers holds the scalar conversions used for field binding and
	// for text/plain bodies. Kinds not listed fall back to gorilla/schema's own
	// conversions.
	builtinParsers = map[reflect.Type]ParserFunc{
		reflect.TypeFor[int]():           func(s string) (any, error) { return ParseInt(s) },
		reflect.TypeFor[int64]():         func(s string) (any, error) { return ParseInt64(s) },
		reflect.TypeFor[string]():        func(s string) (any, error) { return ParseString(s) },
		reflect.TypeFor[float64]():       func(s string) (any, error) { return ParseFloat64(s) },
		reflect.TypeFor[float32]():       func(s string) (any, error) { return ParseFloat32(s) },
		reflect.TypeFor[bool]():          func(s string) (any, error) { return ParseBool(s) },
		reflect.TypeFor[uuid.UUID]():     func(s string) (any, error) { return ParseUUID(s) },
		reflect.TypeFor[time.Duration](): func(s string) (any, error) { return ParseDuration(s) },
		reflect.TypeFor[time.Time]():     func(s string) (any, error) { return ParseTime(s) },
	}
)

// ParseInt parses a string parameter to int
func ParseInt(raw string) (int, error) {
	return strconv.Atoi(raw)
}

// ParseInt64 parses a string parameter to int64
func ParseInt64(raw string) (int64, error) {
	return strconv.ParseInt(raw, 10, 64)
}

// ParseString returns the string parameter as-is (no conversion needed)
func ParseString(raw string) (string, error) {
	return raw, nil
}

// ParseFloat64 parses a string parameter to float64
func ParseFloat64(raw string) (float64, error) {
	return strconv.ParseFloat(raw, 64)
}

// ParseFloat32 parses a string parameter to float32
func ParseFloat32(raw string) (float32, error) {
	val, err := strconv.ParseFloat(raw, 32)
	if err != nil {
		return 0, err
	}
	return float32(val), nil
}

// ParseBool parses a string parameter to bool
func ParseBool(raw string) (bool, error) {
	return strconv.ParseBool(raw)
}

// ParseUUID parses a string parameter to uuid.UUID
func ParseUUID(raw string) (uuid.UUID, error) {
	return uuid.Parse(raw)
}

// ParseDuration parses a string parameter such as "1m30s" to time.Duration
func ParseDuration(raw string) (time.Duration, error) {
	return time.ParseDuration(raw)
}

// ParseTime parses an RFC 3339 string parameter to time.Time
func ParseTime(raw string) (time.Time, error) {
	return time.Parse(time.RFC3339, raw)
}

// RegisterParser adds or replaces the parser used for parameters of type t.
// Parsers must be registered before the first request is bound.
func RegisterParser(t reflect.Type, fn ParserFunc) {
	parsersMu.Lock()
	defer parsersMu.Unlock()
	builtinParsers[t] = fn
}

// GetParser returns the parser registered for t
func GetParser(t reflect.Type) (ParserFunc, bool) {
	parsersMu.RLock()
	defer parsersMu.RUnlock()
	fn, ok := builtinParsers[t]
	return fn, ok
}

// parseValue runs the parser for t and returns a value of exactly type t
func parseValue(t reflect.Type, raw string) (reflect.Value, error) {
	fn, ok := GetParser(t)
	if !ok {
		return reflect.Value{}, errNoParser
	}
	v, err := fn(raw)
	if err != nil {
		return reflect.Value{}, err
	}
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return reflect.Value{}, fmt.Errorf("parser for %s returned no value", t)
	}
	if rv.Type() != t && rv.Type().ConvertibleTo(t) {
		rv = rv.Convert(t)
	}
	if rv.Type() != t {
		return reflect.Value{}, fmt.Errorf("parser for %s returned %s", t, rv.Type())
	}
	return rv, nil
}
