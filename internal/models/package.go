// Package models holds the metadata the castor generator extracts from source.
package models

// PackageMetadata represents all castor annotations found in a package
type PackageMetadata struct {
	PackageName string            // name of the Go package
	PackagePath string            // file system path to the package
	ImportPath  string            // import path, when the enclosing module is known
	Services    []ServiceMetadata // annotated types in declaration order
}

// MethodCount returns the number of methods recorded across all services
func (p *PackageMetadata) MethodCount() int {
	n := 0
	for _, s := range p.Services {
		n += len(s.Methods)
	}
	return n
}

// ServiceMetadata describes one //castor::service type
type ServiceMetadata struct {
	TypeName  string // Go type name as declared
	Interface bool   // the annotated type is an interface
	Name      string // -Name, the synthesized type name
	BasePath  string // -Path
	NoProbe   bool
	Fresh     bool
	Methods   []MethodMetadata // exported methods in declaration order
	FileName  string
	Line      int
}

// MethodMetadata describes one exported method of a service
type MethodMetadata struct {
	Name   string
	Params []string // declared parameter names, context.Context excluded
	Ignore bool     // marked //castor::ignore
}
