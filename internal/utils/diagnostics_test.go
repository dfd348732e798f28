package utils

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDiagnosticSystem_Levels(t *testing.T) {
	var out, errOut bytes.Buffer
	d := NewDiagnosticSystem(DiagnosticInfo).WithWriters(&out, &errOut)

	d.Info("scanning %d directories", 2)
	d.Verbose("hidden")
	d.Error("broken %s", "thing")
	d.Suggest("fix it")

	assert.Equal(t, "[INFO] scanning 2 directories\n", out.String())
	assert.Equal(t, "[ERROR] broken thing\n  hint: fix it\n", errOut.String())
}

func TestDiagnosticSystem_Quiet(t *testing.T) {
	var out, errOut bytes.Buffer
	d := NewQuietDiagnostics().WithWriters(&out, &errOut)

	d.Header("Generating manifests")
	d.Warn("careful")
	d.Summary("Done", []Stat{{"Packages", 1}})
	d.Error("failed")

	assert.Empty(t, out.String())
	assert.Equal(t, "[ERROR] failed\n", errOut.String())
}

func TestDiagnosticSystem_Summary(t *testing.T) {
	var out bytes.Buffer
	d := NewVerboseDiagnostics().WithWriters(&out, &out)

	d.Summary("Generation Complete!", []Stat{
		{Label: "Packages processed", Value: 3},
		{Label: "Services found", Value: 2},
	})

	assert.Equal(t, "\nGeneration Complete!\n   Packages processed: 3\n   Services found: 2\n\n", out.String())
}
