package castor

import (
	"log/slog"
	"reflect"
)

// selectMethods returns the methods of source eligible for wrapping, in the
// order used for name de-duplication: manifest declaration order first, then
// the remaining methods in reflect (lexicographic) order.
func selectMethods(source reflect.Type, opts *Options, manifest *Manifest) []Method {
	all := make([]reflect.Method, 0, source.NumMethod())
	for i := 0; i < source.NumMethod(); i++ {
		all = append(all, source.Method(i))
	}

	selected := make([]Method, 0, len(all))
	for _, rm := range orderMethods(all, manifest) {
		var params []string
		if manifest != nil {
			if mm, ok := manifest.method(rm.Name); ok {
				if mm.Ignore {
					opts.Logger.Debug("castor: method ignored by manifest", slog.String("method", rm.Name))
					continue
				}
				params = mm.Params
			}
		}

		m, err := describeMethod(source, rm, params)
		if err != nil {
			opts.Logger.Warn("castor: method skipped", slog.String("method", rm.Name), slog.Any("error", err))
			continue
		}
		if m.Accessor {
			continue
		}
		if opts.MethodFilter != nil && !opts.MethodFilter(m) {
			continue
		}
		selected = append(selected, m)
	}
	return selected
}

// orderMethods reorders the reflect method set following the manifest
func orderMethods(all []reflect.Method, manifest *Manifest) []reflect.Method {
	if manifest == nil || len(manifest.Methods) == 0 {
		return all
	}

	byName := make(map[string]reflect.Method, len(all))
	for _, rm := range all {
		byName[rm.Name] = rm
	}

	ordered := make([]reflect.Method, 0, len(all))
	seen := make(map[string]bool, len(all))
	for _, mm := range manifest.Methods {
		if rm, ok := byName[mm.Name]; ok && !seen[mm.Name] {
			ordered = append(ordered, rm)
			seen[mm.Name] = true
		}
	}
	for _, rm := range all {
		if !seen[rm.Name] {
			ordered = append(ordered, rm)
		}
	}
	return ordered
}
