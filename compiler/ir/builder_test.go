package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slowlang/jit/compiler/tp"
)

func TestBuilderValues(t *testing.T) {
	f := NewFunc("f", []tp.Type{tp.I64, tp.F64}, tp.I64)
	b := NewBuilder(f)

	assert.Equal(t, Value{ID: 0, Type: tp.I64}, b.Arg(0))
	assert.Equal(t, Value{ID: 1, Type: tp.F64}, b.Arg(1))

	x := b.ConstI32(7)
	y := b.ConstI32(8)
	s := b.Add(x, y)
	c := b.Larger(b.Arg(1), b.ConstF64(1))

	assert.Equal(t, ValueID(2), x.ID)
	assert.Equal(t, ValueID(3), y.ID)
	assert.Equal(t, ValueID(4), s.ID)
	assert.Equal(t, tp.I32, s.Type)
	assert.Equal(t, tp.I64, c.Type, "float comparisons are integers")

	assert.Len(t, f.Values, int(c.ID)+1)
	assert.Len(t, f.Blocks, 1)
	assert.Len(t, f.Blocks[0].Code, 5)
	assert.Len(t, f.Blocks[0].PC, 5)

	assert.Equal(t, Add{L: x, R: y, Out: s}, f.Blocks[0].Code[2])
}

func TestBuilderBlocks(t *testing.T) {
	f := NewFunc("f", nil, tp.I64)
	b := NewBuilder(f)

	blk := b.CreateBlock()
	assert.Equal(t, Block(1), blk)
	assert.Equal(t, Block(0), b.CurrentBlock(), "create does not move insertion point")

	b.Br(blk)

	b.SetCurrentBlock(blk)
	b.Ret(b.ConstI64(1))

	assert.Equal(t, []Instr{B{Block: 1}}, f.Blocks[0].Code)
	assert.Len(t, f.Blocks[1].Code, 2)

	require.NoError(t, Verify(f))
}

func TestBuilderMisuse(t *testing.T) {
	f := NewFunc("f", nil, tp.I64)
	b := NewBuilder(f)

	b.SetCurrentBlock(5)
	assert.Equal(t, Block(0), b.CurrentBlock())

	v := b.Arg(0)
	assert.True(t, v.IsNil())

	assert.Len(t, f.Errs(), 2)

	b.Ret(b.ConstI64(1))

	err := Verify(f)
	assert.ErrorIs(t, err, ErrIllFormed)
}

func TestBuilderVoidCall(t *testing.T) {
	f := NewFunc("f", []tp.Type{tp.Ptr}, tp.Void)
	b := NewBuilder(f)

	r := b.CallPtr(b.Arg(0), tp.Void)
	assert.True(t, r.IsNil())

	n := len(f.Values)
	r = b.CallFunc("g", tp.I32, b.ConstI32(1))
	assert.Equal(t, tp.I32, r.Type)
	assert.Equal(t, ValueID(n+1), r.ID)

	b.RetVoid()

	require.NoError(t, Verify(f))
}
