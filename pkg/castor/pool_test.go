package castor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstPool_EmbedLoadRelease(t *testing.T) {
	p := newConstPool()
	a := p.embed("a")
	b := p.embed(42)

	v, err := a.load()
	require.NoError(t, err)
	assert.Equal(t, "a", v)

	n, err := loadConst[int](b)
	require.NoError(t, err)
	assert.Equal(t, 42, n)

	_, err = loadConst[string](b)
	assert.Error(t, err)

	p.release()
	_, err = a.load()
	assert.ErrorIs(t, err, ErrControllerClosed)
	_, err = loadConst[int](b)
	assert.ErrorIs(t, err, ErrControllerClosed)
}

func TestConstPool_ControllersAreIndependent(t *testing.T) {
	ct, err := CastType[*greeter](nil)
	require.NoError(t, err)

	first, err := ct.New()
	require.NoError(t, err)
	second, err := ct.New()
	require.NoError(t, err)

	first.Close()
	assert.Nil(t, first.Instance())
	assert.NotNil(t, second.Instance())
}
