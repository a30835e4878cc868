package amd64

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEncode(t *testing.T) {
	for _, tc := range []struct {
		name string
		emit func(e *Encoder)
		exp  []byte
	}{
		{"movabs rax, 10", func(e *Encoder) { e.MovImm64(RAX, 10) }, []byte{0x48, 0xb8, 10, 0, 0, 0, 0, 0, 0, 0}},
		{"movabs r9, 1", func(e *Encoder) { e.MovImm64(R9, 1) }, []byte{0x49, 0xb9, 1, 0, 0, 0, 0, 0, 0, 0}},
		{"mov r11d, 5", func(e *Encoder) { e.MovImm32(R11, 5) }, []byte{0x41, 0xbb, 5, 0, 0, 0}},
		{"mov rcx, rax", func(e *Encoder) { e.Mov(RCX, RAX) }, []byte{0x48, 0x89, 0xc1}},
		{"mov r8, rax", func(e *Encoder) { e.Mov(R8, RAX) }, []byte{0x49, 0x89, 0xc0}},
		{"mov rcx, rcx", func(e *Encoder) { e.Mov(RCX, RCX) }, nil},
		{"add rcx, rdx", func(e *Encoder) { e.Add(RCX, RDX) }, []byte{0x48, 0x01, 0xd1}},
		{"sub rcx, rdx", func(e *Encoder) { e.Sub(RCX, RDX) }, []byte{0x48, 0x29, 0xd1}},
		{"imul rcx, rdx", func(e *Encoder) { e.Imul(RCX, RDX) }, []byte{0x48, 0x0f, 0xaf, 0xca}},
		{"cqo", func(e *Encoder) { e.Cqo() }, []byte{0x48, 0x99}},
		{"idiv rcx", func(e *Encoder) { e.Idiv(RCX) }, []byte{0x48, 0xf7, 0xf9}},
		{"neg rcx", func(e *Encoder) { e.Neg(RCX) }, []byte{0x48, 0xf7, 0xd9}},
		{"xor rcx, rcx", func(e *Encoder) { e.Xor(RCX, RCX) }, []byte{0x48, 0x31, 0xc9}},
		{"test rcx, rcx", func(e *Encoder) { e.Test(RCX, RCX) }, []byte{0x48, 0x85, 0xc9}},
		{"cmp rcx, rdx", func(e *Encoder) { e.Cmp(RCX, RDX) }, []byte{0x48, 0x39, 0xd1}},
		{"cmp rcx, -1", func(e *Encoder) { e.CmpImm8(RCX, -1) }, []byte{0x48, 0x83, 0xf9, 0xff}},
		{"sete cl", func(e *Encoder) { e.Setcc(CondE, RCX) }, []byte{0x0f, 0x94, 0xc1}},
		{"sete sil", func(e *Encoder) { e.Setcc(CondE, RSI) }, []byte{0x40, 0x0f, 0x94, 0xc6}},
		{"setl r11b", func(e *Encoder) { e.Setcc(CondL, R11) }, []byte{0x41, 0x0f, 0x9c, 0xc3}},
		{"movzx rcx, cl", func(e *Encoder) { e.Movzx8(RCX, RCX) }, []byte{0x48, 0x0f, 0xb6, 0xc9}},
		{"movsx rcx, cl", func(e *Encoder) { e.Movsx8(RCX, RCX) }, []byte{0x48, 0x0f, 0xbe, 0xc9}},
		{"movsx rcx, cx", func(e *Encoder) { e.Movsx16(RCX, RCX) }, []byte{0x48, 0x0f, 0xbf, 0xc9}},
		{"movsxd rcx, ecx", func(e *Encoder) { e.Movsxd(RCX, RCX) }, []byte{0x48, 0x63, 0xc9}},

		{"mov rax, [rcx]", func(e *Encoder) { e.Load64(RAX, RCX) }, []byte{0x48, 0x8b, 0x01}},
		{"mov rax, [r12]", func(e *Encoder) { e.Load64(RAX, R12) }, []byte{0x49, 0x8b, 0x04, 0x24}},
		{"mov rax, [r13]", func(e *Encoder) { e.Load64(RAX, R13) }, []byte{0x49, 0x8b, 0x45, 0x00}},
		{"movsxd rax, [rcx]", func(e *Encoder) { e.Load32(RAX, RCX) }, []byte{0x48, 0x63, 0x01}},
		{"mov [rcx], rdx", func(e *Encoder) { e.Store64(RCX, RDX) }, []byte{0x48, 0x89, 0x11}},
		{"mov [rcx], edx", func(e *Encoder) { e.Store32(RCX, RDX) }, []byte{0x89, 0x11}},
		{"mov [rcx], dx", func(e *Encoder) { e.Store16(RCX, RDX) }, []byte{0x66, 0x89, 0x11}},
		{"mov [rcx], sil", func(e *Encoder) { e.Store8(RCX, RSI) }, []byte{0x40, 0x88, 0x31}},

		{"addsd xmm1, xmm2", func(e *Encoder) { e.AddS(true, X1, X2) }, []byte{0xf2, 0x0f, 0x58, 0xca}},
		{"addsd xmm9, xmm1", func(e *Encoder) { e.AddS(true, X9, X1) }, []byte{0xf2, 0x44, 0x0f, 0x58, 0xc9}},
		{"subss xmm1, xmm2", func(e *Encoder) { e.SubS(false, X1, X2) }, []byte{0xf3, 0x0f, 0x5c, 0xca}},
		{"mulsd xmm1, xmm2", func(e *Encoder) { e.MulS(true, X1, X2) }, []byte{0xf2, 0x0f, 0x59, 0xca}},
		{"divsd xmm1, xmm2", func(e *Encoder) { e.DivS(true, X1, X2) }, []byte{0xf2, 0x0f, 0x5e, 0xca}},
		{"movq xmm1, r11", func(e *Encoder) { e.MovqToX(X1, R11) }, []byte{0x66, 0x49, 0x0f, 0x6e, 0xcb}},
		{"movd xmm1, r11d", func(e *Encoder) { e.MovdToX(X1, R11) }, []byte{0x66, 0x41, 0x0f, 0x6e, 0xcb}},
		{"ucomisd xmm1, xmm2", func(e *Encoder) { e.Ucomis(true, X1, X2) }, []byte{0x66, 0x0f, 0x2e, 0xca}},
		{"ucomiss xmm1, xmm2", func(e *Encoder) { e.Ucomis(false, X1, X2) }, []byte{0x0f, 0x2e, 0xca}},
		{"movaps xmm1, xmm2", func(e *Encoder) { e.Movaps(X1, X2) }, []byte{0x0f, 0x28, 0xca}},
		{"movsd xmm1, [rcx]", func(e *Encoder) { e.LoadS(true, X1, RCX) }, []byte{0xf2, 0x0f, 0x10, 0x09}},
		{"movss [rcx], xmm1", func(e *Encoder) { e.StoreS(false, RCX, X1) }, []byte{0xf3, 0x0f, 0x11, 0x09}},
		{"movdqu [rsp], xmm6", func(e *Encoder) { e.StoreX(RSP, X6) }, []byte{0xf3, 0x0f, 0x7f, 0x34, 0x24}},
		{"movdqu xmm6, [rsp]", func(e *Encoder) { e.LoadX(X6, RSP) }, []byte{0xf3, 0x0f, 0x6f, 0x34, 0x24}},

		{"push rbx", func(e *Encoder) { e.Push(RBX) }, []byte{0x53}},
		{"push r12", func(e *Encoder) { e.Push(R12) }, []byte{0x41, 0x54}},
		{"pop r12", func(e *Encoder) { e.Pop(R12) }, []byte{0x41, 0x5c}},
		{"sub rsp, 8", func(e *Encoder) { e.SubRSP(8) }, []byte{0x48, 0x83, 0xec, 0x08}},
		{"add rsp, 8", func(e *Encoder) { e.AddRSP(8) }, []byte{0x48, 0x83, 0xc4, 0x08}},
		{"sub rsp, 256", func(e *Encoder) { e.SubRSP(256) }, []byte{0x48, 0x81, 0xec, 0, 1, 0, 0}},
		{"call rax", func(e *Encoder) { e.Call(RAX) }, []byte{0xff, 0xd0}},
		{"call r11", func(e *Encoder) { e.Call(R11) }, []byte{0x41, 0xff, 0xd3}},
		{"ret", func(e *Encoder) { e.Ret() }, []byte{0xc3}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			e := New()
			tc.emit(e)

			assert.Equal(t, tc.exp, e.Data())
		})
	}
}

func TestBranchOffsets(t *testing.T) {
	e := New()

	off := e.Jmp()
	assert.Equal(t, 1, off)

	off = e.Jcc(CondNE)
	assert.Equal(t, 7, off)

	off = e.JccShort(CondE)
	assert.Equal(t, 12, off)

	off = e.JmpShort()
	assert.Equal(t, 14, off)

	assert.Equal(t, []byte{
		0xe9, 0, 0, 0, 0,
		0x0f, 0x85, 0, 0, 0, 0,
		0x74, 0,
		0xeb, 0,
	}, e.Data())
}

func TestRegs(t *testing.T) {
	assert.Equal(t, "r11", R11.String())
	assert.Equal(t, "xmm15", X15.String())
	assert.True(t, X0.IsFloat())
	assert.False(t, R15.IsFloat())
	assert.Equal(t, byte(9), X9.Enc())
	assert.Equal(t, CondNE, CondE.Inv())
	assert.Equal(t, CondLE, CondG.Inv())
}
