package parser

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toyz/castor/internal/errors"
	"github.com/toyz/castor/internal/models"
)

const serviceSource = `package services

import (
	stdctx "context"
)

// Zeta is declared before its type on purpose.
func (s *UserService) Zeta() string { return "z" }

// UserService manages users.
//castor::service -Name=Users -Path=/api/users -Fresh
type UserService struct {
	name string
}

func (s *UserService) GetAll(ctx stdctx.Context) []string { return nil }

func (s *UserService) GetAllByName(ctx stdctx.Context, name string, limit, _ int) []string { return nil }

//castor::ignore
func (s *UserService) Close() error { return nil }

func (s *UserService) helper() {}

func (s UserService) Alpha(string) string { return "" }

type plain struct{}

func (plain) Exposed() {}
`

func TestParseSource_Service(t *testing.T) {
	p := NewParser()
	metadata, err := p.ParseSource("user_service.go", serviceSource)
	require.NoError(t, err)

	assert.Equal(t, "services", metadata.PackageName)
	require.Len(t, metadata.Services, 1)

	svc := metadata.Services[0]
	assert.Equal(t, "UserService", svc.TypeName)
	assert.Equal(t, "Users", svc.Name)
	assert.Equal(t, "/api/users", svc.BasePath)
	assert.True(t, svc.Fresh)
	assert.False(t, svc.NoProbe)
	assert.False(t, svc.Interface)
	assert.Equal(t, "user_service.go", svc.FileName)

	assert.Equal(t, []models.MethodMetadata{
		{Name: "Zeta"},
		{Name: "GetAll"},
		{Name: "GetAllByName", Params: []string{"name", "limit", ""}},
		{Name: "Close", Ignore: true},
		{Name: "Alpha", Params: []string{""}},
	}, svc.Methods)
	assert.Equal(t, 5, metadata.MethodCount())
}

func TestParseSource_Interface(t *testing.T) {
	src := `package store

import "context"

// Store is cast through an instance factory.
//castor::service -NoProbe
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	//castor::ignore
	Reset()
	fmt.Stringer
}
`
	metadata, err := NewParser().ParseSource("store.go", src)
	require.NoError(t, err)
	require.Len(t, metadata.Services, 1)

	svc := metadata.Services[0]
	assert.True(t, svc.Interface)
	assert.True(t, svc.NoProbe)
	assert.Equal(t, []models.MethodMetadata{
		{Name: "Get", Params: []string{"key"}},
		{Name: "Reset", Ignore: true},
	}, svc.Methods)
}

func TestParseSource_GroupedTypes(t *testing.T) {
	src := `package svc

type (
	//castor::service
	A struct{}

	B struct{}
)

func (A) Run() {}
func (B) Run() {}
`
	metadata, err := NewParser().ParseSource("grouped.go", src)
	require.NoError(t, err)
	require.Len(t, metadata.Services, 1)
	assert.Equal(t, "A", metadata.Services[0].TypeName)
	assert.Len(t, metadata.Services[0].Methods, 1)
}

func TestParseSource_Errors(t *testing.T) {
	tests := []struct {
		name   string
		source string
		field  string
	}{
		{
			name:   "ignore on a type",
			source: "package x\n\n//castor::ignore\ntype T struct{}\n",
			field:  "kind",
		},
		{
			name:   "service on a method",
			source: "package x\n\n//castor::service\ntype T struct{}\n\n//castor::service\nfunc (T) M() {}\n",
			field:  "kind",
		},
		{
			name:   "annotated function",
			source: "package x\n\n//castor::ignore\nfunc F() {}\n",
			field:  "target",
		},
		{
			name:   "generic type",
			source: "package x\n\n//castor::service\ntype T[V any] struct{}\n",
			field:  "type",
		},
		{
			name:   "alias",
			source: "package x\n\ntype U struct{}\n\n//castor::service\ntype T = U\n",
			field:  "type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewParser().ParseSource("x.go", tt.source)
			var verr *errors.ValidationError
			require.True(t, stderrors.As(err, &verr), "got %v", err)
			assert.Equal(t, tt.field, verr.Field)
			assert.Equal(t, "x.go", verr.Location().File)
		})
	}
}

func TestParseSource_CollectsEveryError(t *testing.T) {
	src := "package x\n\n//castor::service -Bogus\ntype A struct{}\n\n//castor::ignore\nfunc F() {}\n"
	_, err := NewParser().ParseSource("x.go", src)

	var multi *errors.MultipleErrors
	require.True(t, stderrors.As(err, &multi))
	assert.Len(t, multi.Errors, 2)
}

func TestParseDirectory(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	write("b_methods.go", "package svc\n\nfunc (s *S) Second() {}\n")
	write("a_type.go", "package svc\n\n//castor::service\ntype S struct{}\n\nfunc (s *S) First() {}\n")
	write("s_test.go", "package svc\n\nfunc (s *S) FromTest() {}\n")
	write(ManifestFileName, "package svc\n\nfunc (s *S) Generated() {}\n")

	metadata, err := NewParser().ParseDirectory(dir)
	require.NoError(t, err)
	require.Len(t, metadata.Services, 1)
	assert.Equal(t, dir, metadata.PackagePath)
	assert.Equal(t, []models.MethodMetadata{{Name: "First"}, {Name: "Second"}}, metadata.Services[0].Methods)
}

func TestParseDirectory_MixedPackages(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.go"), []byte("package a\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.go"), []byte("package b\n"), 0o644))

	_, err := NewParser().ParseDirectory(dir)
	assert.ErrorContains(t, err, "multiple packages")
}

func TestParseDirectory_Empty(t *testing.T) {
	_, err := NewParser().ParseDirectory(t.TempDir())
	assert.ErrorContains(t, err, "no Go files")
}
