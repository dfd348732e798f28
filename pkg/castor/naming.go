package castor

import (
	"strconv"
	"strings"
)

// ProbeName is the route segment of the diagnostic probe operation
const ProbeName = "test"

// nameResolver assigns exposed names to methods in selection order. The first
// occurrence of a transformed name is used as is; the k-th repeat gets the
// decimal suffix k.
type nameResolver struct {
	transform func(string) string
	counts    map[string]int
	taken     map[string]string
}

func newNameResolver(transform func(string) string, reserved ...string) *nameResolver {
	r := &nameResolver{
		transform: transform,
		counts:    make(map[string]int),
		taken:     make(map[string]string),
	}
	for _, name := range reserved {
		r.taken[name] = ""
	}
	return r
}

// resolve returns the exposed name for method, or a NamingError when the
// result is not a usable, unique route segment.
func (r *nameResolver) resolve(method string) (string, error) {
	base := r.transform(method)

	k := r.counts[base]
	r.counts[base] = k + 1
	name := base
	if k > 0 {
		name += strconv.Itoa(k)
	}

	switch {
	case base == "":
		return "", NewNamingError(method, name, "name transform produced an empty name")
	case strings.ContainsAny(name, "/?#"):
		return "", NewNamingError(method, name, "name must be a single path segment")
	}
	if owner, ok := r.taken[name]; ok {
		if owner == "" {
			return "", NewNamingError(method, name, "name is reserved")
		}
		return "", NewNamingError(method, name, "name collides with method "+owner)
	}
	r.taken[name] = method
	return name, nil
}

// routePath joins the base path and an operation name
func routePath(basePath, name string) string {
	return basePath + "/" + name
}
