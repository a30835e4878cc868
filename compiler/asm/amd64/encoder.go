package amd64

import "github.com/slowlang/jit/compiler/asm"

type (
	// Encoder emits x86-64 machine code.
	Encoder struct {
		asm.Writer
	}
)

// opcode extension digits for the ModRM reg field (/0../7).
const (
	ext0 Reg = iota
	ext1
	ext2
	ext3
	ext4
	ext5
	ext6
	ext7
)

func New() *Encoder { return &Encoder{} }

func (e *Encoder) rex(w bool, reg, rm Reg, force bool) {
	x := byte(0x40)

	if w {
		x |= 8
	}

	if reg.ext() {
		x |= 4
	}

	if rm.ext() {
		x |= 1
	}

	if x != 0x40 || force {
		e.Byte(x)
	}
}

func (e *Encoder) modrr(reg, rm Reg) {
	e.Byte(0xc0 | reg.low()<<3 | rm.low())
}

// modmem encodes [base] with no displacement.
func (e *Encoder) modmem(reg, base Reg) {
	switch base.low() {
	case 4: // rsp, r12 need SIB
		e.Bytes(0x04|reg.low()<<3, 0x24)
	case 5: // rbp, r13 mean rip-relative without displacement
		e.Bytes(0x45|reg.low()<<3, 0)
	default:
		e.Byte(reg.low()<<3 | base.low())
	}
}

// rr emits [prefix] [rex] op modrm(reg, rm).
func (e *Encoder) rr(prefix byte, w bool, reg, rm Reg, op ...byte) {
	if prefix != 0 {
		e.Byte(prefix)
	}

	e.rex(w, reg, rm, false)
	e.Bytes(op...)
	e.modrr(reg, rm)
}

// rm emits [prefix] [rex] op modrm(reg, [base]).
func (e *Encoder) rm(prefix byte, w bool, reg, base Reg, force bool, op ...byte) {
	if prefix != 0 {
		e.Byte(prefix)
	}

	e.rex(w, reg, base, force)
	e.Bytes(op...)
	e.modmem(reg, base)
}

// Mov is mov dst, src for general purpose registers. No-op if equal.
func (e *Encoder) Mov(dst, src Reg) {
	if dst == src {
		return
	}

	e.rr(0, true, src, dst, 0x89)
}

// MovImm64 is movabs dst, imm. Returns the offset of the immediate.
func (e *Encoder) MovImm64(dst Reg, imm uint64) int {
	e.rex(true, 0, dst, false)
	e.Byte(0xb8 | dst.low())

	return e.Uint64(imm)
}

// MovImm32 is mov dst32, imm (zero extends).
func (e *Encoder) MovImm32(dst Reg, imm uint32) {
	e.rex(false, 0, dst, false)
	e.Byte(0xb8 | dst.low())
	e.Uint32(imm)
}

func (e *Encoder) Add(dst, src Reg) { e.rr(0, true, src, dst, 0x01) }
func (e *Encoder) Or(dst, src Reg)  { e.rr(0, true, src, dst, 0x09) }
func (e *Encoder) And(dst, src Reg) { e.rr(0, true, src, dst, 0x21) }
func (e *Encoder) Sub(dst, src Reg) { e.rr(0, true, src, dst, 0x29) }
func (e *Encoder) Xor(dst, src Reg) { e.rr(0, true, src, dst, 0x31) }

// Cmp sets flags for a - b.
func (e *Encoder) Cmp(a, b Reg) { e.rr(0, true, b, a, 0x39) }

func (e *Encoder) Test(a, b Reg) { e.rr(0, true, b, a, 0x85) }

// CmpImm8 sets flags for r - imm.
func (e *Encoder) CmpImm8(r Reg, imm int8) {
	e.rr(0, true, ext7, r, 0x83)
	e.Int8(imm)
}

func (e *Encoder) Imul(dst, src Reg) { e.rr(0, true, dst, src, 0x0f, 0xaf) }

func (e *Encoder) Neg(r Reg) { e.rr(0, true, ext3, r, 0xf7) }

// Cqo sign extends rax into rdx:rax.
func (e *Encoder) Cqo() { e.Bytes(0x48, 0x99) }

// Idiv divides rdx:rax by r. Quotient to rax, remainder to rdx.
func (e *Encoder) Idiv(r Reg) { e.rr(0, true, ext7, r, 0xf7) }

// Setcc sets the low byte of r to 1 if cc holds, 0 otherwise.
func (e *Encoder) Setcc(cc CC, r Reg) {
	e.rex(false, 0, r, r.byteNeedsREX())
	e.Bytes(0x0f, 0x90|byte(cc))
	e.modrr(ext0, r)
}

// Movzx8 is movzx dst, src8.
func (e *Encoder) Movzx8(dst, src Reg) { e.rr(0, true, dst, src, 0x0f, 0xb6) }

// Movsx8 is movsx dst, src8.
func (e *Encoder) Movsx8(dst, src Reg) { e.rr(0, true, dst, src, 0x0f, 0xbe) }

// Movsx16 is movsx dst, src16.
func (e *Encoder) Movsx16(dst, src Reg) { e.rr(0, true, dst, src, 0x0f, 0xbf) }

// Movsxd is movsxd dst, src32.
func (e *Encoder) Movsxd(dst, src Reg) { e.rr(0, true, dst, src, 0x63) }

// Load8 is movsx dst, byte [base].
func (e *Encoder) Load8(dst, base Reg) { e.rm(0, true, dst, base, false, 0x0f, 0xbe) }

// Load16 is movsx dst, word [base].
func (e *Encoder) Load16(dst, base Reg) { e.rm(0, true, dst, base, false, 0x0f, 0xbf) }

// Load32 is movsxd dst, dword [base].
func (e *Encoder) Load32(dst, base Reg) { e.rm(0, true, dst, base, false, 0x63) }

// Load64 is mov dst, qword [base].
func (e *Encoder) Load64(dst, base Reg) { e.rm(0, true, dst, base, false, 0x8b) }

func (e *Encoder) Store8(base, src Reg) { e.rm(0, false, src, base, src.byteNeedsREX(), 0x88) }

func (e *Encoder) Store16(base, src Reg) { e.rm(0x66, false, src, base, false, 0x89) }

func (e *Encoder) Store32(base, src Reg) { e.rm(0, false, src, base, false, 0x89) }

func (e *Encoder) Store64(base, src Reg) { e.rm(0, true, src, base, false, 0x89) }
