package ir

import (
	"math"

	"tlog.app/go/loc"

	"github.com/slowlang/jit/compiler/tp"
)

type (
	// Builder appends instructions to one Func.
	// It is the only mutator of the function's blocks and values.
	Builder struct {
		f   *Func
		cur Block
	}
)

func NewBuilder(f *Func) *Builder {
	return &Builder{f: f}
}

func (b *Builder) Func() *Func { return b.f }

func (b *Builder) CreateBlock() Block {
	id := Block(len(b.f.Blocks))
	b.f.Blocks = append(b.f.Blocks, BlockBody{})

	return id
}

func (b *Builder) SetCurrentBlock(blk Block) {
	if blk < 0 || int(blk) >= len(b.f.Blocks) {
		b.f.fail(loc.Caller(1), "set current block: no block %d", blk)
		return
	}

	b.cur = blk
}

func (b *Builder) CurrentBlock() Block { return b.cur }

// Arg returns the i-th function argument.
func (b *Builder) Arg(i int) Value {
	if i < 0 || i >= len(b.f.Args) {
		b.f.fail(loc.Caller(1), "arg %d of %d", i, len(b.f.Args))
		return NilValue
	}

	return b.f.Args[i]
}

func (b *Builder) ConstI8(x int8) Value {
	return b.cnst(loc.Caller(1), tp.I8, uint64(int64(x)))
}

func (b *Builder) ConstI16(x int16) Value {
	return b.cnst(loc.Caller(1), tp.I16, uint64(int64(x)))
}

func (b *Builder) ConstI32(x int32) Value {
	return b.cnst(loc.Caller(1), tp.I32, uint64(int64(x)))
}

func (b *Builder) ConstI64(x int64) Value {
	return b.cnst(loc.Caller(1), tp.I64, uint64(x))
}

func (b *Builder) ConstPtr(x uintptr) Value {
	return b.cnst(loc.Caller(1), tp.Ptr, uint64(x))
}

func (b *Builder) ConstF32(x float32) Value {
	return b.cnst(loc.Caller(1), tp.F32, uint64(math.Float32bits(x)))
}

func (b *Builder) ConstF64(x float64) Value {
	return b.cnst(loc.Caller(1), tp.F64, math.Float64bits(x))
}

func (b *Builder) cnst(pc loc.PC, t tp.Type, bits uint64) Value {
	out := b.f.value(t)
	b.add(pc, Const{Out: out, Bits: bits})

	return out
}

func (b *Builder) Add(l, r Value) Value {
	out := b.f.value(l.Type)
	b.add(loc.Caller(1), Add{L: l, R: r, Out: out})

	return out
}

func (b *Builder) Sub(l, r Value) Value {
	out := b.f.value(l.Type)
	b.add(loc.Caller(1), Sub{L: l, R: r, Out: out})

	return out
}

func (b *Builder) Mul(l, r Value) Value {
	out := b.f.value(l.Type)
	b.add(loc.Caller(1), Mul{L: l, R: r, Out: out})

	return out
}

func (b *Builder) Div(l, r Value) Value {
	out := b.f.value(l.Type)
	b.add(loc.Caller(1), Div{L: l, R: r, Out: out})

	return out
}

func (b *Builder) Eq(l, r Value) Value        { return b.cmp(loc.Caller(1), Eq, l, r) }
func (b *Builder) Diff(l, r Value) Value      { return b.cmp(loc.Caller(1), Ne, l, r) }
func (b *Builder) Larger(l, r Value) Value    { return b.cmp(loc.Caller(1), Gt, l, r) }
func (b *Builder) LargerEq(l, r Value) Value  { return b.cmp(loc.Caller(1), Ge, l, r) }
func (b *Builder) Smaller(l, r Value) Value   { return b.cmp(loc.Caller(1), Lt, l, r) }
func (b *Builder) SmallerEq(l, r Value) Value { return b.cmp(loc.Caller(1), Le, l, r) }

func (b *Builder) cmp(pc loc.PC, c Cond, l, r Value) Value {
	t := l.Type
	if t.IsFloat() {
		t = tp.I64
	}

	out := b.f.value(t)
	b.add(pc, Cmp{Cond: c, L: l, R: r, Out: out})

	return out
}

func (b *Builder) Not(x Value) Value {
	t := x.Type
	if t.IsFloat() {
		t = tp.I64
	}

	out := b.f.value(t)
	b.add(loc.Caller(1), Not{X: x, Out: out})

	return out
}

// Load reads a value of type t from the address ptr.
func (b *Builder) Load(t tp.Type, ptr Value) Value {
	out := b.f.value(t)
	b.add(loc.Caller(1), Load{Ptr: ptr, Out: out})

	return out
}

func (b *Builder) Store(ptr, val Value) {
	b.add(loc.Caller(1), Store{Ptr: ptr, Val: val})
}

func (b *Builder) Br(blk Block) {
	b.add(loc.Caller(1), B{Block: blk})
}

func (b *Builder) CondBr(then, els Block, cond Value) {
	b.add(loc.Caller(1), BCond{Cond: cond, Then: then, Else: els})
}

// CallPtr calls native code at address ptr.
func (b *Builder) CallPtr(ptr Value, ret tp.Type, args ...Value) Value {
	out := b.result(ret)
	b.add(loc.Caller(1), CallPtr{Ptr: ptr, Args: append([]Value{}, args...), Out: out})

	return out
}

// CallFunc calls another function of the same Compiler by name.
func (b *Builder) CallFunc(name string, ret tp.Type, args ...Value) Value {
	out := b.result(ret)
	b.add(loc.Caller(1), CallFunc{Func: name, Args: append([]Value{}, args...), Out: out})

	return out
}

func (b *Builder) Ret(v Value) {
	b.add(loc.Caller(1), Ret{Val: v})
}

func (b *Builder) RetVoid() {
	b.add(loc.Caller(1), RetVoid{})
}

func (b *Builder) result(t tp.Type) Value {
	if t == tp.Void {
		return NilValue
	}

	return b.f.value(t)
}

func (b *Builder) add(pc loc.PC, x Instr) {
	bb := &b.f.Blocks[b.cur]

	bb.Code = append(bb.Code, x)
	bb.PC = append(bb.PC, pc)
}
