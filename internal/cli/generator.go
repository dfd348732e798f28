package cli

import (
	"fmt"
	"time"

	"github.com/toyz/castor/internal/errors"
	"github.com/toyz/castor/internal/generator"
	"github.com/toyz/castor/internal/models"
	"github.com/toyz/castor/internal/parser"
	"github.com/toyz/castor/internal/utils"
)

// castorModule is the module generated manifests import
const castorModule = "github.com/toyz/castor"

// GenerationSummary reports what one run did
type GenerationSummary struct {
	PackagesProcessed int
	ServicesFound     int
	MethodsFound      int
	GeneratedFiles    []string
	UnchangedFiles    []string
	RemovedFiles      []string
	Warnings          int
}

// Generator coordinates the CLI generation process
type Generator struct {
	scanner       *DirectoryScanner
	parser        *parser.Parser
	codeGenerator *generator.Generator
	reporter      *DiagnosticReporter
	diagnostics   *utils.DiagnosticSystem
	modules       map[string]*utils.ModuleInfo
	summary       GenerationSummary
}

// NewGenerator creates a new CLI generator reporting through diagnostics
func NewGenerator(diagnostics *utils.DiagnosticSystem) *Generator {
	return &Generator{
		scanner:       NewDirectoryScanner(),
		parser:        parser.NewParser(),
		codeGenerator: generator.NewGenerator(),
		reporter:      NewDiagnosticReporter(diagnostics),
		diagnostics:   diagnostics,
	}
}

// GetSummary returns the summary of the last run
func (g *Generator) GetSummary() GenerationSummary {
	return g.summary
}

// Reporter returns the reporter used for errors and warnings
func (g *Generator) Reporter() *DiagnosticReporter {
	return g.reporter
}

// Run scans the configured directories and writes one manifest per package
// declaring castor services. Every package is processed even when an earlier
// one fails; the collected errors are returned together.
func (g *Generator) Run(config Config) error {
	start := time.Now()
	g.summary = GenerationSummary{}
	g.modules = make(map[string]*utils.ModuleInfo)

	g.diagnostics.Debug("Scanning directories: %v", config.Directories)
	dirs, err := g.scanner.ScanDirectories(config.Directories)
	if err != nil {
		return err
	}
	if len(dirs) == 0 {
		return errors.New(errors.FileSystemErrorCode, "no Go packages found").
			WithSuggestion("pass package directories, or dir/... to scan recursively")
	}

	var errs errors.MultipleErrors
	for _, dir := range dirs {
		if err := g.processPackage(dir, config); err != nil {
			for _, ge := range flatten(err) {
				errs.Add(ge)
			}
		}
	}

	g.diagnostics.Verbose("Finished in %s", time.Since(start).Round(time.Millisecond))
	return errs.ErrorOrNil()
}

func (g *Generator) processPackage(dir string, config Config) error {
	metadata, err := g.parser.ParseDirectory(dir)
	if err != nil {
		return err
	}
	g.summary.PackagesProcessed++

	if len(metadata.Services) == 0 {
		removed, err := generator.Remove(dir)
		if err != nil {
			return err
		}
		if removed {
			g.summary.RemovedFiles = append(g.summary.RemovedFiles, dir)
			g.diagnostics.Verbose("Removed stale manifest in %s", dir)
		}
		return nil
	}

	if err := g.resolveImportPath(metadata, config); err != nil {
		return err
	}

	target, written, err := g.codeGenerator.Write(metadata)
	if err != nil {
		return err
	}

	g.summary.ServicesFound += len(metadata.Services)
	g.summary.MethodsFound += metadata.MethodCount()
	if written {
		g.summary.GeneratedFiles = append(g.summary.GeneratedFiles, target)
		g.diagnostics.Item("%s: %s", metadata.PackageName, serviceList(metadata))
	} else {
		g.summary.UnchangedFiles = append(g.summary.UnchangedFiles, target)
		g.diagnostics.Verbose("%s is up to date", target)
	}
	return nil
}

// resolveImportPath fills metadata.ImportPath and warns when the module does
// not depend on castor, since the manifest would not compile there
func (g *Generator) resolveImportPath(metadata *models.PackageMetadata, config Config) error {
	goMod, err := utils.FindGoModFile(metadata.PackagePath)
	if err != nil {
		if config.Strict {
			return errors.WrapModuleError(metadata.PackagePath, err)
		}
		g.warn(fmt.Sprintf("%s is not inside a Go module", metadata.PackagePath))
		return nil
	}

	mod, ok := g.modules[goMod]
	if !ok {
		mod, err = utils.ParseGoMod(goMod)
		if err != nil {
			return errors.WrapModuleError(metadata.PackagePath, err)
		}
		g.modules[goMod] = mod
	}

	importPath, err := mod.ImportPath(metadata.PackagePath)
	if err != nil {
		return errors.WrapModuleError(metadata.PackagePath, err)
	}
	metadata.ImportPath = importPath

	if !mod.Requires(castorModule) {
		if config.Strict {
			return errors.New(errors.ModuleErrorCode, fmt.Sprintf("module %s does not require %s", mod.Path, castorModule)).
				WithSuggestion("go get " + castorModule)
		}
		g.warn(fmt.Sprintf("module %s does not require %s", mod.Path, castorModule), "go get "+castorModule)
	}
	return nil
}

func (g *Generator) warn(message string, suggestions ...string) {
	g.summary.Warnings++
	g.reporter.ReportWarning(message, suggestions...)
}

func serviceList(metadata *models.PackageMetadata) string {
	s := ""
	for i, svc := range metadata.Services {
		if i > 0 {
			s += ", "
		}
		s += fmt.Sprintf("%s (%d methods)", svc.TypeName, len(svc.Methods))
	}
	return s
}
