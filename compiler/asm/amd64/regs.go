package amd64

type (
	// Reg is a physical register. Vector registers follow general purpose ones.
	Reg uint8

	// CC is a condition code as encoded in Jcc and SETcc.
	CC byte
)

const (
	RAX Reg = iota
	RCX
	RDX
	RBX
	RSP
	RBP
	RSI
	RDI
	R8
	R9
	R10
	R11
	R12
	R13
	R14
	R15

	X0
	X1
	X2
	X3
	X4
	X5
	X6
	X7
	X8
	X9
	X10
	X11
	X12
	X13
	X14
	X15

	NumRegs = iota
)

const (
	CondO  CC = 0x0
	CondNO CC = 0x1
	CondB  CC = 0x2
	CondAE CC = 0x3
	CondE  CC = 0x4
	CondNE CC = 0x5
	CondBE CC = 0x6
	CondA  CC = 0x7
	CondS  CC = 0x8
	CondNS CC = 0x9
	CondP  CC = 0xa
	CondNP CC = 0xb
	CondL  CC = 0xc
	CondGE CC = 0xd
	CondLE CC = 0xe
	CondG  CC = 0xf
)

var regNames = [NumRegs]string{
	"rax", "rcx", "rdx", "rbx", "rsp", "rbp", "rsi", "rdi",
	"r8", "r9", "r10", "r11", "r12", "r13", "r14", "r15",
	"xmm0", "xmm1", "xmm2", "xmm3", "xmm4", "xmm5", "xmm6", "xmm7",
	"xmm8", "xmm9", "xmm10", "xmm11", "xmm12", "xmm13", "xmm14", "xmm15",
}

// Enc is the 4-bit register number.
func (r Reg) Enc() byte { return byte(r) & 0xf }

func (r Reg) IsFloat() bool { return r >= X0 }

// low is the three bits that go into ModRM/opcode.
func (r Reg) low() byte { return byte(r) & 7 }

// ext reports the register needs a REX extension bit.
func (r Reg) ext() bool { return byte(r)&8 != 0 }

// byteNeedsREX reports the low byte of r is only addressable with a REX prefix
// (spl, bpl, sil, dil).
func (r Reg) byteNeedsREX() bool { return !r.IsFloat() && r >= RSP && r <= RDI }

func (r Reg) String() string {
	if int(r) >= len(regNames) {
		return "reg?"
	}

	return regNames[r]
}

// Inv is the inverse condition.
func (c CC) Inv() CC { return c ^ 1 }
