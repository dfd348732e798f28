// Package generator renders castor_manifest.go files from parsed metadata.
package generator

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/template"

	"golang.org/x/tools/imports"

	"github.com/toyz/castor/internal/errors"
	"github.com/toyz/castor/internal/models"
	"github.com/toyz/castor/internal/parser"
)

// CastorImportPath is the runtime package generated manifests register with
const CastorImportPath = "github.com/toyz/castor/pkg/castor"

const manifestTemplate = `// Code generated by castor. DO NOT EDIT.

package {{.PackageName}}

import (
	"reflect"

	{{if .Self}}{{else}}"{{.CastorImport}}"{{end}}
)

func init() {
{{- range .Services}}
	{{$.Prefix}}RegisterManifest({{$.Prefix}}Manifest{
		Type: reflect.TypeFor[{{.TypeName}}](),
		{{- if .Name}}
		TypeName: {{quote .Name}},
		{{- end}}
		{{- if .BasePath}}
		BasePath: {{quote .BasePath}},
		{{- end}}
		{{- if .NoProbe}}
		NoProbe: true,
		{{- end}}
		{{- if .Fresh}}
		Fresh: true,
		{{- end}}
		Methods: []{{$.Prefix}}ManifestMethod{
		{{- range .Methods}}
			{Name: {{quote .Name}}{{if .Params}}, Params: []string{ {{quoteList .Params}} }{{end}}{{if .Ignore}}, Ignore: true{{end}}},
		{{- end}}
		},
	})
{{- end}}
}
`

var funcMap = template.FuncMap{
	"quote": strconv.Quote,
	"quoteList": func(items []string) string {
		quoted := make([]string, len(items))
		for i, s := range items {
			quoted[i] = strconv.Quote(s)
		}
		return strings.Join(quoted, ", ")
	},
}

var manifest = template.Must(template.New("manifest").Funcs(funcMap).Parse(manifestTemplate))

type templateData struct {
	*models.PackageMetadata
	CastorImport string
	Self         bool   // the package is the castor runtime itself
	Prefix       string // "castor." or "" when Self
}

// Generator renders and writes manifests
type Generator struct {
	castorImport string
}

// NewGenerator creates a generator importing the castor runtime from its
// canonical path
func NewGenerator() *Generator {
	return &Generator{castorImport: CastorImportPath}
}

// Render returns the formatted manifest source for metadata
func (g *Generator) Render(metadata *models.PackageMetadata) ([]byte, error) {
	if len(metadata.Services) == 0 {
		return nil, errors.New(errors.GenerationErrorCode,
			fmt.Sprintf("package %s has no castor::service types", metadata.PackageName))
	}

	data := templateData{
		PackageMetadata: metadata,
		CastorImport:    g.castorImport,
		Self:            metadata.ImportPath == g.castorImport,
		Prefix:          "castor.",
	}
	if data.Self {
		data.Prefix = ""
	}

	var buf bytes.Buffer
	if err := manifest.Execute(&buf, data); err != nil {
		return nil, errors.WrapGenerateError(parser.ManifestFileName, err)
	}

	target := filepath.Join(metadata.PackagePath, parser.ManifestFileName)
	formatted, err := imports.Process(target, buf.Bytes(), &imports.Options{
		Comments:   true,
		TabIndent:  true,
		TabWidth:   8,
		FormatOnly: true,
	})
	if err != nil {
		return nil, errors.WrapGenerateError(target, err)
	}
	return formatted, nil
}

// Write renders the manifest into the package directory. It reports false
// when the file on disk is already up to date.
func (g *Generator) Write(metadata *models.PackageMetadata) (string, bool, error) {
	content, err := g.Render(metadata)
	if err != nil {
		return "", false, err
	}

	target := filepath.Join(metadata.PackagePath, parser.ManifestFileName)
	if existing, err := os.ReadFile(target); err == nil && bytes.Equal(existing, content) {
		return target, false, nil
	}
	if err := os.WriteFile(target, content, 0o644); err != nil {
		return "", false, errors.WrapFileSystemError("write", target, err)
	}
	return target, true, nil
}

// Remove deletes a manifest left behind by a package that no longer declares
// services. A missing file is not an error.
func Remove(packageDir string) (bool, error) {
	target := filepath.Join(packageDir, parser.ManifestFileName)
	err := os.Remove(target)
	switch {
	case err == nil:
		return true, nil
	case os.IsNotExist(err):
		return false, nil
	}
	return false, errors.WrapFileSystemError("remove", target, err)
}
