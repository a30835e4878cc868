package back

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"tlog.app/go/errors"

	"github.com/slowlang/jit/compiler/ir"
	"github.com/slowlang/jit/compiler/tp"
)

func compile(t *testing.T, abi *ABI, f *ir.Func) *Object {
	t.Helper()

	obj, err := New(abi).CompileFunc(context.Background(), f)
	require.NoError(t, err)

	return obj
}

func TestCompileConst(t *testing.T) {
	f := ir.NewFunc("ten", nil, tp.I64)
	b := ir.NewBuilder(f)

	b.Ret(b.ConstI64(10))

	obj := compile(t, SysV, f)

	assert.Equal(t, "ten", obj.Name)
	assert.Equal(t, []byte{
		0x48, 0x83, 0xec, 0x08,              // sub rsp, 8
		0x48, 0xb9, 10, 0, 0, 0, 0, 0, 0, 0, // movabs rcx, 10
		0x48, 0x89, 0xc8,                    // mov rax, rcx
		0x48, 0x83, 0xc4, 0x08,              // add rsp, 8
		0xc3,
	}, obj.Code)
	assert.Empty(t, obj.Calls)
}

func TestCompileBranch(t *testing.T) {
	f := ir.NewFunc("br", nil, tp.I64)
	b := ir.NewBuilder(f)

	next := b.CreateBlock()
	b.Br(next)

	b.SetCurrentBlock(next)
	b.Ret(b.ConstI64(5))

	obj := compile(t, SysV, f)

	// jmp to the very next instruction
	assert.Equal(t, []byte{0xe9, 0, 0, 0, 0}, obj.Code[4:9])
}

func TestCompileCondBranch(t *testing.T) {
	f := ir.NewFunc("sel", []tp.Type{tp.I64}, tp.I64)
	b := ir.NewBuilder(f)

	yes := b.CreateBlock()
	no := b.CreateBlock()

	b.CondBr(yes, no, b.Arg(0))

	b.SetCurrentBlock(yes)
	b.Ret(b.ConstI64(1))

	b.SetCurrentBlock(no)
	b.Ret(b.ConstI64(2))

	obj := compile(t, SysV, f)
	body := obj.Code[4:] // sub rsp, 8

	// arg stays in rdi
	assert.Equal(t, []byte{0x48, 0x85, 0xff}, body[:3]) // test rdi, rdi

	assert.Equal(t, []byte{0x0f, 0x85}, body[3:5])
	assert.Equal(t, []byte{0x00, 0x00, 0x00, 0x05}, []byte{body[8], body[7], body[6], body[5]}) // jne +5
	assert.Equal(t, byte(0xe9), body[9])

	yesOff := 14
	noOff := yesOff + 10 + 3 + 5 // movabs, mov rax, jmp exit

	assert.Equal(t, []byte{byte(noOff - 14), 0, 0, 0}, body[10:14])
	assert.Equal(t, []byte{0x48, 0xb9, 1}, body[yesOff:yesOff+3])
	assert.Equal(t, []byte{0x48, 0xb9, 2}, body[noOff:noOff+3])
}

func TestCompileSavesCalleeSaved(t *testing.T) {
	f := ir.NewFunc("wide", nil, tp.I64)
	b := ir.NewBuilder(f)

	var vs []ir.Value
	for i := 0; i < 7; i++ {
		vs = append(vs, b.ConstI64(int64(i)))
	}

	s := vs[0]
	for _, v := range vs[1:] {
		s = b.Add(s, v)
	}

	b.Ret(s)

	obj := compile(t, SysV, f)

	// rbx and r12 touched
	assert.Equal(t, []byte{0x53, 0x41, 0x54, 0x48, 0x83, 0xec, 0x08}, obj.Code[:7])
	assert.Equal(t, []byte{0x48, 0x83, 0xc4, 0x08, 0x41, 0x5c, 0x5b, 0xc3}, obj.Code[len(obj.Code)-8:])
}

func TestCompileRegisterPressure(t *testing.T) {
	f := ir.NewFunc("pressure", nil, tp.I64)
	b := ir.NewBuilder(f)

	var vs []ir.Value
	for i := 0; i < 12; i++ {
		vs = append(vs, b.ConstI64(int64(i)))
	}

	s := vs[0]
	for _, v := range vs[1:] {
		s = b.Add(s, v)
	}

	b.Ret(s)

	_, err := New(SysV).CompileFunc(context.Background(), f)
	assert.True(t, errors.Is(err, ErrRegisterPressure), "err: %v", err)
}

func TestCompileTooManyArgs(t *testing.T) {
	in := []tp.Type{tp.I64, tp.I64, tp.I64, tp.I64, tp.I64}

	f := ir.NewFunc("many", in, tp.Void)
	b := ir.NewBuilder(f)
	b.RetVoid()

	_, err := New(Win64).CompileFunc(context.Background(), f)
	assert.True(t, errors.Is(err, ErrTooManyArgs), "err: %v", err)

	compile(t, SysV, f)
}

func TestCompileIllFormed(t *testing.T) {
	f := ir.NewFunc("bad", nil, tp.I64)
	b := ir.NewBuilder(f)
	b.ConstI64(1)

	_, err := New(SysV).CompileFunc(context.Background(), f)
	assert.True(t, errors.Is(err, ir.ErrIllFormed), "err: %v", err)
}

func TestCompileWin64FloatArg(t *testing.T) {
	f := ir.NewFunc("id", []tp.Type{tp.F64}, tp.F64)
	b := ir.NewBuilder(f)

	b.Ret(b.Arg(0))

	obj := compile(t, Win64, f)

	assert.Equal(t, []byte{
		0x48, 0x83, 0xec, 0x08,
		0x0f, 0x28, 0xc8, // movaps xmm1, xmm0
		0x0f, 0x28, 0xc1, // movaps xmm0, xmm1
		0x48, 0x83, 0xc4, 0x08,
		0xc3,
	}, obj.Code)
}

func TestCompileNarrowArg(t *testing.T) {
	f := ir.NewFunc("id8", []tp.Type{tp.I8}, tp.I8)
	b := ir.NewBuilder(f)

	b.Ret(b.Arg(0))

	obj := compile(t, SysV, f)

	assert.Equal(t, []byte{
		0x48, 0x83, 0xec, 0x08,
		0x48, 0x0f, 0xbe, 0xff, // movsx rdi, dil
		0x48, 0x89, 0xf8,       // mov rax, rdi
		0x48, 0x83, 0xc4, 0x08,
		0xc3,
	}, obj.Code)
}

func TestCompileCallFunc(t *testing.T) {
	f := ir.NewFunc("caller", nil, tp.I64)
	b := ir.NewBuilder(f)

	b.Ret(b.CallFunc("callee", tp.I64))

	obj := compile(t, SysV, f)

	assert.Equal(t, []CallReloc{{Func: "callee", Off: 6}}, obj.Calls)
	assert.Equal(t, []byte{
		0x48, 0x83, 0xec, 0x08,
		0x48, 0xb8, 0, 0, 0, 0, 0, 0, 0, 0, // movabs rax, callee
		0xff, 0xd0,                         // call rax
		0x48, 0x89, 0xc1,                   // mov rcx, rax
		0x48, 0x89, 0xc8,                   // mov rax, rcx
		0x48, 0x83, 0xc4, 0x08,
		0xc3,
	}, obj.Code)
}

func TestCompileCallSavesLive(t *testing.T) {
	f := ir.NewFunc("caller", nil, tp.I64)
	b := ir.NewBuilder(f)

	x := b.ConstI64(7)
	r := b.CallFunc("callee", tp.I64, x)
	b.Ret(b.Add(r, x))

	obj := compile(t, SysV, f)
	body := obj.Code[4:]

	assert.Equal(t, []byte{0x48, 0xb9, 7}, body[:3]) // movabs rcx, 7

	exp := []byte{
		0x51,                               // push rcx
		0x48, 0xb8, 0, 0, 0, 0, 0, 0, 0, 0, // movabs rax, callee
		0x48, 0x89, 0xcf,                   // mov rdi, rcx
		0x48, 0x83, 0xec, 0x08,             // sub rsp, 8
		0xff, 0xd0,                         // call rax
		0x48, 0x83, 0xc4, 0x08,             // add rsp, 8
		0x48, 0x89, 0xc6,                   // mov rsi, rax
		0x59,                               // pop rcx
	}

	assert.Equal(t, exp, body[10:10+len(exp)])
}
