// Package parser extracts castor service metadata from Go source.
package parser

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/toyz/castor/internal/annotations"
	"github.com/toyz/castor/internal/errors"
	"github.com/toyz/castor/internal/models"
)

// ManifestFileName is the file the generator writes into each package
const ManifestFileName = "castor_manifest.go"

// Parser walks package sources for castor:: annotations
type Parser struct {
	fileSet *token.FileSet
}

// NewParser creates a new annotation parser
func NewParser() *Parser {
	return &Parser{fileSet: token.NewFileSet()}
}

// ParseSource parses source code from a string for testing purposes
func (p *Parser) ParseSource(filename, source string) (*models.PackageMetadata, error) {
	file, err := parser.ParseFile(p.fileSet, filename, source, parser.ParseComments)
	if err != nil {
		return nil, errors.Wrap(errors.SyntaxErrorCode, fmt.Sprintf("failed to parse %s", filename), err)
	}
	return p.extract(file.Name.Name, "./", []*ast.File{file})
}

// ParseDirectory parses the non-test Go files of one package directory. The
// generated manifest itself is skipped so stale output never feeds back.
func (p *Parser) ParseDirectory(path string) (*models.PackageMetadata, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, errors.WrapFileSystemError("read directory", path, err)
	}

	var names []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") || name == ManifestFileName {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	if len(names) == 0 {
		return nil, errors.New(errors.ValidationErrorCode, fmt.Sprintf("no Go files found in directory %s", path))
	}

	var files []*ast.File
	packageName := ""
	for _, name := range names {
		filename := filepath.Join(path, name)
		file, err := parser.ParseFile(p.fileSet, filename, nil, parser.ParseComments)
		if err != nil {
			return nil, errors.Wrap(errors.SyntaxErrorCode, fmt.Sprintf("failed to parse %s", filename), err)
		}
		if packageName == "" {
			packageName = file.Name.Name
		} else if file.Name.Name != packageName {
			return nil, errors.New(errors.ValidationErrorCode,
				fmt.Sprintf("multiple packages found in directory %s: %s and %s", path, packageName, file.Name.Name))
		}
		files = append(files, file)
	}

	return p.extract(packageName, path, files)
}

// extract runs two passes: annotated types first, then their methods, so
// methods declared before their type or in another file are still found.
func (p *Parser) extract(packageName, path string, files []*ast.File) (*models.PackageMetadata, error) {
	metadata := &models.PackageMetadata{PackageName: packageName, PackagePath: path}
	var errs errors.MultipleErrors

	index := make(map[string]int)
	for _, file := range files {
		ctxName := contextImportName(file)
		for _, decl := range file.Decls {
			gen, ok := decl.(*ast.GenDecl)
			if !ok || gen.Tok != token.TYPE {
				continue
			}
			for _, spec := range gen.Specs {
				ts := spec.(*ast.TypeSpec)
				svc, err := p.serviceFromType(gen, ts, ctxName)
				if err != nil {
					errs.Add(err)
					continue
				}
				if svc == nil {
					continue
				}
				index[svc.TypeName] = len(metadata.Services)
				metadata.Services = append(metadata.Services, *svc)
			}
		}
	}

	for _, file := range files {
		ctxName := contextImportName(file)
		for _, decl := range file.Decls {
			fn, ok := decl.(*ast.FuncDecl)
			if !ok {
				continue
			}
			if fn.Recv == nil || len(fn.Recv.List) == 0 {
				if err := p.rejectAnnotations(fn.Doc, "function "+fn.Name.Name); err != nil {
					errs.Add(err)
				}
				continue
			}
			i, ok := index[receiverName(fn.Recv.List[0].Type)]
			if !ok || !fn.Name.IsExported() {
				continue
			}
			ignore, err := p.ignored(fn.Doc)
			if err != nil {
				errs.Add(err)
				continue
			}
			metadata.Services[i].Methods = append(metadata.Services[i].Methods, models.MethodMetadata{
				Name:   fn.Name.Name,
				Params: paramNames(fn.Type, ctxName),
				Ignore: ignore,
			})
		}
	}

	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}
	return metadata, nil
}

// serviceFromType returns the service declared by ts, or nil when ts carries
// no castor::service annotation
func (p *Parser) serviceFromType(gen *ast.GenDecl, ts *ast.TypeSpec, ctxName string) (*models.ServiceMetadata, errors.GeneratorError) {
	doc := ts.Doc
	if doc == nil && len(gen.Specs) == 1 {
		doc = gen.Doc
	}

	var directive *annotations.Directive
	for _, c := range commentLines(doc) {
		d, err := annotations.Parse(c.Text, p.location(c.Pos()))
		if err != nil {
			return nil, err.(errors.GeneratorError)
		}
		switch {
		case d.Kind != annotations.KindService:
			return nil, errors.NewValidationError("kind",
				fmt.Sprintf("castor::%s cannot annotate type %s", d.Kind, ts.Name.Name), p.location(c.Pos()))
		case directive != nil:
			return nil, errors.NewValidationError("kind",
				fmt.Sprintf("type %s is annotated castor::service more than once", ts.Name.Name), p.location(c.Pos()))
		}
		directive = d
	}
	if directive == nil {
		return nil, nil
	}

	loc := p.location(ts.Pos())
	switch {
	case ts.Assign.IsValid():
		return nil, errors.NewValidationError("type", fmt.Sprintf("%s is a type alias; annotate the aliased type", ts.Name.Name), loc)
	case ts.TypeParams != nil && len(ts.TypeParams.List) > 0:
		return nil, errors.NewValidationError("type", fmt.Sprintf("generic type %s cannot be cast; annotate an instantiation", ts.Name.Name), loc)
	}

	svc := &models.ServiceMetadata{
		TypeName: ts.Name.Name,
		Name:     directive.Name,
		BasePath: directive.Path,
		NoProbe:  directive.NoProbe,
		Fresh:    directive.Fresh,
		FileName: loc.File,
		Line:     loc.Line,
	}

	if it, ok := ts.Type.(*ast.InterfaceType); ok {
		svc.Interface = true
		for _, field := range it.Methods.List {
			ft, ok := field.Type.(*ast.FuncType)
			if !ok || len(field.Names) == 0 || !field.Names[0].IsExported() {
				continue
			}
			ignore, err := p.ignored(field.Doc)
			if err != nil {
				return nil, err
			}
			svc.Methods = append(svc.Methods, models.MethodMetadata{
				Name:   field.Names[0].Name,
				Params: paramNames(ft, ctxName),
				Ignore: ignore,
			})
		}
	}
	return svc, nil
}

// ignored reports whether a method doc carries castor::ignore
func (p *Parser) ignored(doc *ast.CommentGroup) (bool, errors.GeneratorError) {
	ignore := false
	for _, c := range commentLines(doc) {
		d, err := annotations.Parse(c.Text, p.location(c.Pos()))
		if err != nil {
			return false, err.(errors.GeneratorError)
		}
		if d.Kind != annotations.KindIgnore {
			return false, errors.NewValidationError("kind",
				fmt.Sprintf("castor::%s cannot annotate a method", d.Kind), p.location(c.Pos()))
		}
		ignore = true
	}
	return ignore, nil
}

func (p *Parser) rejectAnnotations(doc *ast.CommentGroup, what string) errors.GeneratorError {
	lines := commentLines(doc)
	if len(lines) == 0 {
		return nil
	}
	verr := errors.NewValidationError("target",
		fmt.Sprintf("castor annotations cannot be placed on %s", what), p.location(lines[0].Pos()))
	verr.WithSuggestion("annotate the type with castor::service and its methods with castor::ignore")
	return verr
}

func (p *Parser) location(pos token.Pos) errors.SourceLocation {
	position := p.fileSet.Position(pos)
	return errors.SourceLocation{File: position.Filename, Line: position.Line, Column: position.Column}
}

// commentLines returns the castor:: lines of a comment group
func commentLines(doc *ast.CommentGroup) []*ast.Comment {
	if doc == nil {
		return nil
	}
	var lines []*ast.Comment
	for _, c := range doc.List {
		if annotations.IsAnnotation(c.Text) {
			lines = append(lines, c)
		}
	}
	return lines
}

// receiverName strips pointers and type arguments from a receiver type
func receiverName(expr ast.Expr) string {
	for {
		switch t := expr.(type) {
		case *ast.StarExpr:
			expr = t.X
		case *ast.IndexExpr:
			expr = t.X
		case *ast.IndexListExpr:
			expr = t.X
		case *ast.ParenExpr:
			expr = t.X
		case *ast.Ident:
			return t.Name
		default:
			return ""
		}
	}
}

// paramNames lists declared parameter names. A leading context.Context is
// left out since it is injected rather than bound; blank and unnamed
// parameters yield "" so the runtime falls back to argN.
func paramNames(ft *ast.FuncType, ctxName string) []string {
	var names []string
	first := true
	for _, field := range ft.Params.List {
		count := len(field.Names)
		if count == 0 {
			count = 1
		}
		for i := 0; i < count; i++ {
			if first {
				first = false
				if isContext(field.Type, ctxName) {
					continue
				}
			}
			name := ""
			if i < len(field.Names) && field.Names[i].Name != "_" {
				name = field.Names[i].Name
			}
			names = append(names, name)
		}
	}
	return names
}

func isContext(expr ast.Expr, ctxName string) bool {
	sel, ok := expr.(*ast.SelectorExpr)
	if !ok || sel.Sel.Name != "Context" {
		return false
	}
	x, ok := sel.X.(*ast.Ident)
	return ok && x.Name == ctxName
}

// contextImportName returns the local name of the "context" import in file
func contextImportName(file *ast.File) string {
	for _, imp := range file.Imports {
		path, err := strconv.Unquote(imp.Path.Value)
		if err != nil || path != "context" {
			continue
		}
		if imp.Name != nil {
			return imp.Name.Name
		}
		return "context"
	}
	return "context"
}
