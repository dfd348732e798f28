// Command castor writes castor_manifest.go files recording the declaration
// order, parameter names and annotations of castor services.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/toyz/castor/internal/cli"
	"github.com/toyz/castor/internal/utils"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("castor", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		verboseFlag = fs.Bool("verbose", false, "Enable verbose output and detailed error reporting")
		quietFlag   = fs.Bool("quiet", false, "Only show errors and final results")
		cleanFlag   = fs.Bool("clean", false, "Delete all castor_manifest.go files from the specified directories")
		strictFlag  = fs.Bool("strict", false, "Fail instead of warning when a package's module does not require castor")
	)

	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: castor [options] <directory-paths...>\n\n")
		fmt.Fprintf(stderr, "Castor Manifest Generator\n")
		fmt.Fprintf(stderr, "Scans Go packages for castor:: annotations and writes castor_manifest.go files.\n\n")
		fmt.Fprintf(stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(stderr, "\nAnnotations:\n")
		fmt.Fprintf(stderr, "  //castor::service [-Name=X] [-Path=/p] [-NoProbe] [-Fresh]   on a type\n")
		fmt.Fprintf(stderr, "  //castor::ignore                                          on a method\n")
		fmt.Fprintf(stderr, "\nExamples:\n")
		fmt.Fprintf(stderr, "  castor ./...                   # Scan everything recursively\n")
		fmt.Fprintf(stderr, "  castor ./internal/services     # Scan one package\n")
		fmt.Fprintf(stderr, "  castor -clean ./...            # Delete generated manifests\n")
	}

	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	dirs := fs.Args()
	if len(dirs) == 0 {
		fmt.Fprintf(stderr, "Error: At least one directory path is required\n\n")
		fs.Usage()
		return 1
	}

	var diagnostics *utils.DiagnosticSystem
	switch {
	case *quietFlag:
		diagnostics = utils.NewQuietDiagnostics()
	case *verboseFlag:
		diagnostics = utils.NewVerboseDiagnostics()
	default:
		diagnostics = utils.NewDiagnosticSystem(utils.DiagnosticInfo)
	}
	diagnostics.WithWriters(stdout, stderr)

	if *cleanFlag {
		diagnostics.Header("removing generated manifests")
		cleaned, err := cli.NewCleaner().CleanGeneratedFiles(dirs)
		if err != nil {
			cli.NewDiagnosticReporter(diagnostics).ReportError(err)
			return 1
		}
		for _, dir := range cleaned {
			diagnostics.Item("%s", dir)
		}
		diagnostics.Success("Removed %d castor_manifest.go files", len(cleaned))
		return 0
	}

	diagnostics.Header("generating manifests")
	if *verboseFlag {
		diagnostics.Section("Configuration")
		diagnostics.List("Target directories: %s", strings.Join(dirs, ", "))
		diagnostics.List("Strict: %t", *strictFlag)
	}

	generator := cli.NewGenerator(diagnostics)
	err := generator.Run(cli.Config{Directories: dirs, Verbose: *verboseFlag, Strict: *strictFlag})
	if err != nil {
		generator.Reporter().ReportError(err)
	}

	summary := generator.GetSummary()
	diagnostics.Summary("Generation Complete!", []utils.Stat{
		{Label: "Packages processed", Value: summary.PackagesProcessed},
		{Label: "Services found", Value: summary.ServicesFound},
		{Label: "Methods recorded", Value: summary.MethodsFound},
		{Label: "Manifests written", Value: len(summary.GeneratedFiles)},
		{Label: "Manifests unchanged", Value: len(summary.UnchangedFiles)},
		{Label: "Stale manifests removed", Value: len(summary.RemovedFiles)},
		{Label: "Warnings", Value: summary.Warnings},
	})
	if err != nil {
		return 1
	}
	return 0
}
