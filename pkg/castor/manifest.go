package castor

import (
	"reflect"
	"sync"
)

// Manifest carries the compile-time facts reflection cannot see: the order in
// which methods are declared and the names of their parameters. Manifests are
// written by the castor generator into castor_manifest.go and registered from
// an init function.
type Manifest struct {
	Type     reflect.Type
	TypeName string
	BasePath string
	NoProbe  bool
	Fresh    bool
	Methods  []ManifestMethod
}

// ManifestMethod describes one method in declaration order
type ManifestMethod struct {
	Name   string
	Params []string
	Ignore bool
}

// method returns the manifest entry for name, if any
func (m *Manifest) method(name string) (ManifestMethod, bool) {
	for _, mm := range m.Methods {
		if mm.Name == name {
			return mm, true
		}
	}
	return ManifestMethod{}, false
}

// apply lets annotation values fill options the caller left unset
func (m *Manifest) apply(o *Options) {
	if o.TypeName == "" {
		o.TypeName = m.TypeName
	}
	if o.BasePath == "" {
		o.BasePath = m.BasePath
	}
	if m.NoProbe {
		o.NoProbe = true
	}
	if m.Fresh {
		o.FreshInstancePerCall = true
	}
}

// ManifestRegistry stores manifests by source type
type ManifestRegistry struct {
	mu        sync.RWMutex
	manifests map[reflect.Type]*Manifest
}

// NewManifestRegistry creates an empty manifest registry
func NewManifestRegistry() *ManifestRegistry {
	return &ManifestRegistry{manifests: make(map[reflect.Type]*Manifest)}
}

// Register stores a manifest, replacing any previous one for the same type
func (r *ManifestRegistry) Register(m Manifest) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.manifests[m.Type] = &m
}

// Lookup returns the manifest for t. A manifest registered for T also serves
// *T, because the generator records the annotated named type.
func (r *ManifestRegistry) Lookup(t reflect.Type) (*Manifest, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if m, ok := r.manifests[t]; ok {
		return m, true
	}
	if t.Kind() == reflect.Pointer {
		m, ok := r.manifests[t.Elem()]
		return m, ok
	}
	return nil, false
}

// DefaultManifestRegistry is consulted by Cast unless Options.IgnoreManifest is set
var DefaultManifestRegistry = NewManifestRegistry()

// RegisterManifest registers m with the default registry. Generated code calls it.
func RegisterManifest(m Manifest) {
	DefaultManifestRegistry.Register(m)
}
