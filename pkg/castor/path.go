package castor

import (
	"strings"
)

// PathPartType represents the type of a route path part
type PathPartType int

const (
	StaticPart PathPartType = iota
	ParameterPart
	WildcardPart
)

// PathPart represents a single part of a RoutePath
type PathPart struct {
	Type  PathPartType
	Value string // literal text for static parts, the name for parameters
}

// RoutePath is a route in castor syntax: static text, {name} parameters and a
// trailing {*} wildcard. Adapters convert it to their framework's syntax.
type RoutePath string

// Raw returns the path as written
func (p RoutePath) Raw() string {
	return string(p)
}

// Parts parses the path into its static, parameter and wildcard parts
func (p RoutePath) Parts() []PathPart {
	path := string(p)
	var parts []PathPart

	i := 0
	for i < len(path) {
		if path[i] != '{' {
			start := i
			for i < len(path) && path[i] != '{' {
				i++
			}
			parts = append(parts, PathPart{Type: StaticPart, Value: path[start:i]})
			continue
		}

		j := strings.IndexByte(path[i:], '}')
		if j == -1 {
			// unterminated, keep the rest literally
			parts = append(parts, PathPart{Type: StaticPart, Value: path[i:]})
			break
		}
		content := path[i+1 : i+j]
		if content == "*" {
			parts = append(parts, PathPart{Type: WildcardPart, Value: "*"})
		} else {
			parts = append(parts, PathPart{Type: ParameterPart, Value: content})
		}
		i += j + 1
	}

	return parts
}

// Convert renders the path with a framework-specific parameter and wildcard syntax
func (p RoutePath) Convert(param func(name string) string, wildcard string) string {
	var b strings.Builder
	for _, part := range p.Parts() {
		switch part.Type {
		case StaticPart:
			b.WriteString(part.Value)
		case ParameterPart:
			b.WriteString(param(part.Value))
		case WildcardPart:
			b.WriteString(wildcard)
		}
	}
	return b.String()
}

// ParamNames returns the names of the path's parameters in order
func (p RoutePath) ParamNames() []string {
	var names []string
	for _, part := range p.Parts() {
		if part.Type == ParameterPart {
			names = append(names, part.Value)
		}
	}
	return names
}

// ColonParam renders a parameter as :name, the syntax Echo, Gin and Fiber share
func ColonParam(name string) string {
	return ":" + name
}
