// Package annotations parses castor:: comment annotations.
//
//	//castor::service -Name=Users -Path=/api/users -NoProbe -Fresh
//	type UserService struct{ ... }
//
//	//castor::ignore
//	func (s *UserService) Close() error { ... }
package annotations

import (
	"fmt"
	"sort"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/toyz/castor/internal/errors"
)

// Prefix marks a comment line as a castor annotation
const Prefix = "castor::"

// Kind is the annotation type following the prefix
type Kind string

const (
	KindService Kind = "service"
	KindIgnore  Kind = "ignore"
)

// annotation is the participle grammar of a single annotation line
type annotation struct {
	Kind   string   `parser:"Comment Prefix @Ident"`
	Params []*param `parser:"@@*"`
}

type param struct {
	Key   string `parser:"Dash @Ident"`
	Value *value `parser:"( Equals @@ )?"`
}

type value struct {
	String *string `parser:"  @String"`
	Path   *string `parser:"| @Path"`
	Ident  *string `parser:"| @Ident"`
}

func (v *value) raw() string {
	switch {
	case v.String != nil:
		return *v.String
	case v.Path != nil:
		return *v.Path
	case v.Ident != nil:
		return *v.Ident
	}
	return ""
}

var annotationLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `//`},
	{Name: "Prefix", Pattern: `castor::`},
	{Name: "String", Pattern: `"(\\"|[^"])*"`},
	{Name: "Path", Pattern: `/[^\s]*`},
	{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_]*`},
	{Name: "Equals", Pattern: `=`},
	{Name: "Dash", Pattern: `-`},
	{Name: "Whitespace", Pattern: `\s+`},
})

var annotationParser = participle.MustBuild[annotation](
	participle.Lexer(annotationLexer),
	participle.Elide("Whitespace"),
	participle.Unquote("String"),
	participle.UseLookahead(2),
)

// Directive is a parsed and validated annotation
type Directive struct {
	Kind    Kind
	Name    string
	Path    string
	NoProbe bool
	Fresh   bool
	Raw     string
}

// schema lists the parameters each kind accepts; true marks a valued parameter
var schema = map[Kind]map[string]bool{
	KindService: {"Name": true, "Path": true, "NoProbe": false, "Fresh": false},
	KindIgnore:  {},
}

// IsAnnotation reports whether a comment line is a castor annotation
func IsAnnotation(comment string) bool {
	text := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(comment), "//"))
	return strings.HasPrefix(text, Prefix)
}

// Parse parses one annotation comment line, for example
// "//castor::service -Name=Users". loc is attached to every error.
func Parse(comment string, loc errors.SourceLocation) (*Directive, error) {
	comment = strings.TrimSpace(comment)
	ast, err := annotationParser.ParseString(loc.File, comment)
	if err != nil {
		serr := errors.NewSyntaxError(comment, loc, err)
		serr.WithSuggestion("annotations look like //castor::service -Name=X -Path=/p -NoProbe -Fresh")
		return nil, serr
	}

	kind := Kind(ast.Kind)
	allowed, ok := schema[kind]
	if !ok {
		verr := errors.NewValidationError("kind", fmt.Sprintf("unknown annotation castor::%s", ast.Kind), loc)
		verr.WithSuggestion(fmt.Sprintf("known annotations: %s", strings.Join(kinds(), ", ")))
		return nil, verr
	}

	d := &Directive{Kind: kind, Raw: comment}
	seen := make(map[string]bool)
	for _, p := range ast.Params {
		valued, known := allowed[p.Key]
		if !known {
			verr := errors.NewValidationError(p.Key,
				fmt.Sprintf("castor::%s does not accept -%s", kind, p.Key), loc)
			if len(allowed) > 0 {
				verr.WithSuggestion(fmt.Sprintf("accepted parameters: %s", strings.Join(keys(allowed), ", ")))
			}
			return nil, verr
		}
		if seen[p.Key] {
			return nil, errors.NewValidationError(p.Key, fmt.Sprintf("-%s given more than once", p.Key), loc)
		}
		seen[p.Key] = true

		if valued != (p.Value != nil) {
			if valued {
				return nil, errors.NewValidationError(p.Key, fmt.Sprintf("-%s needs a value, e.g. -%s=X", p.Key, p.Key), loc)
			}
			return nil, errors.NewValidationError(p.Key, fmt.Sprintf("-%s is a flag and takes no value", p.Key), loc)
		}

		switch p.Key {
		case "Name":
			d.Name = p.Value.raw()
			if d.Name == "" || strings.ContainsAny(d.Name, "/ ") {
				return nil, errors.NewValidationError(p.Key, fmt.Sprintf("invalid type name %q", d.Name), loc)
			}
		case "Path":
			d.Path = p.Value.raw()
			if !strings.HasPrefix(d.Path, "/") {
				return nil, errors.NewValidationError(p.Key, fmt.Sprintf("path %q must start with '/'", d.Path), loc)
			}
		case "NoProbe":
			d.NoProbe = true
		case "Fresh":
			d.Fresh = true
		}
	}
	return d, nil
}

func kinds() []string {
	out := make([]string, 0, len(schema))
	for k := range schema {
		out = append(out, string(k))
	}
	sort.Strings(out)
	return out
}

func keys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, "-"+k)
	}
	sort.Strings(out)
	return out
}
