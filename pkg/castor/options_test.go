package castor

import (
	"errors"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptions_NormalizeDefaults(t *testing.T) {
	n, err := (*Options)(nil).normalize(reflect.TypeFor[*Echo]())
	require.NoError(t, err)

	assert.Equal(t, "EchoController", n.TypeName)
	assert.Equal(t, "/api/EchoController", n.BasePath)
	assert.False(t, n.NoProbe)
	assert.False(t, n.IgnoreManifest)
	assert.NotNil(t, n.Logger)
	assert.NotNil(t, n.InstanceFactory)
	assert.Equal(t, "Same", n.NameTransform("Same"))
}

func TestOptions_NormalizeDoesNotModifyCaller(t *testing.T) {
	opts := &Options{TypeName: "Custom"}
	n, err := opts.normalize(reflect.TypeFor[*Echo]())
	require.NoError(t, err)

	assert.Equal(t, "/api/Custom", n.BasePath)
	assert.Empty(t, opts.BasePath)
	assert.Nil(t, opts.Logger)
}

func TestNormalizeBasePath(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", "/api/T"},
		{"/v1/", "/v1"},
		{"v1//", "/v1"},
		{"/a/b", "/a/b"},
		{"/", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeBasePath(tt.in, "T"))
		})
	}
}

func TestOptions_InvalidTypeName(t *testing.T) {
	for _, name := range []string{"a/b", "has space"} {
		_, err := (&Options{TypeName: name}).normalize(reflect.TypeFor[*Echo]())
		var cfg *ConfigurationError
		require.True(t, errors.As(err, &cfg), name)
		assert.Equal(t, "TypeName", cfg.Field)
	}
}

func TestOptions_UnnamedSourceNeedsTypeName(t *testing.T) {
	source := reflect.TypeFor[struct{ Echo }]()

	_, err := (&Options{}).normalize(source)
	assert.Error(t, err)

	n, err := (&Options{TypeName: "Anon"}).normalize(source)
	require.NoError(t, err)
	assert.Equal(t, "/api/Anon", n.BasePath)
}

func TestDefaultInstanceFactory(t *testing.T) {
	v, err := DefaultInstanceFactory(reflect.TypeFor[*greeter]())
	require.NoError(t, err)
	assert.IsType(t, &greeter{}, v)

	v, err = DefaultInstanceFactory(reflect.TypeFor[greeter]())
	require.NoError(t, err)
	assert.IsType(t, greeter{}, v)

	_, err = DefaultInstanceFactory(reflect.TypeFor[error]())
	assert.Error(t, err)
}
