package tp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQueries(t *testing.T) {
	for _, x := range []Type{I8, I16, I32, I64} {
		assert.True(t, x.IsInt(), "%v", x)
		assert.False(t, x.IsFloat(), "%v", x)
		assert.False(t, x.IsPtr(), "%v", x)
	}

	for _, x := range []Type{F32, F64} {
		assert.True(t, x.IsFloat(), "%v", x)
		assert.False(t, x.IsInt(), "%v", x)
	}

	assert.True(t, Ptr.IsPtr())
	assert.False(t, Ptr.IsInt())
	assert.True(t, Void.IsVoid())
	assert.False(t, Void.IsInt())
}

func TestSize(t *testing.T) {
	assert.Equal(t, 1, I8.Size())
	assert.Equal(t, 2, I16.Size())
	assert.Equal(t, 4, I32.Size())
	assert.Equal(t, 8, I64.Size())
	assert.Equal(t, 4, F32.Size())
	assert.Equal(t, 8, F64.Size())
	assert.Equal(t, 8, Ptr.Size())
	assert.Equal(t, 0, Void.Size())
	assert.Equal(t, 32, I32.Bits())
}

func TestString(t *testing.T) {
	assert.Equal(t, "i64", I64.String())
	assert.Equal(t, "f32", F32.String())
	assert.Equal(t, "type?", Type(100).String())
}
