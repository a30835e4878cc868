package amd64

const (
	f2  = 0xf2 // scalar double
	f3  = 0xf3 // scalar single
	p66 = 0x66
)

func scalar(double bool) byte {
	if double {
		return f2
	}

	return f3
}

// Movaps copies a whole vector register. No-op if equal.
func (e *Encoder) Movaps(dst, src Reg) {
	if dst == src {
		return
	}

	e.rr(0, false, dst, src, 0x0f, 0x28)
}

func (e *Encoder) AddS(double bool, dst, src Reg) { e.rr(scalar(double), false, dst, src, 0x0f, 0x58) }
func (e *Encoder) MulS(double bool, dst, src Reg) { e.rr(scalar(double), false, dst, src, 0x0f, 0x59) }
func (e *Encoder) SubS(double bool, dst, src Reg) { e.rr(scalar(double), false, dst, src, 0x0f, 0x5c) }
func (e *Encoder) DivS(double bool, dst, src Reg) { e.rr(scalar(double), false, dst, src, 0x0f, 0x5e) }

// Ucomis sets flags comparing a with b like an unsigned compare.
// Unordered operands set ZF, PF and CF.
func (e *Encoder) Ucomis(double bool, a, b Reg) {
	var prefix byte
	if double {
		prefix = p66
	}

	e.rr(prefix, false, a, b, 0x0f, 0x2e)
}

// MovqToX is movq x, r64.
func (e *Encoder) MovqToX(x, r Reg) { e.rr(p66, true, x, r, 0x0f, 0x6e) }

// MovdToX is movd x, r32.
func (e *Encoder) MovdToX(x, r Reg) { e.rr(p66, false, x, r, 0x0f, 0x6e) }

// LoadS is movss/movsd x, [base].
func (e *Encoder) LoadS(double bool, x, base Reg) {
	e.rm(scalar(double), false, x, base, false, 0x0f, 0x10)
}

// StoreS is movss/movsd [base], x.
func (e *Encoder) StoreS(double bool, base, x Reg) {
	e.rm(scalar(double), false, x, base, false, 0x0f, 0x11)
}

// LoadX is movdqu x, [base].
func (e *Encoder) LoadX(x, base Reg) { e.rm(f3, false, x, base, false, 0x0f, 0x6f) }

// StoreX is movdqu [base], x.
func (e *Encoder) StoreX(base, x Reg) { e.rm(f3, false, x, base, false, 0x0f, 0x7f) }
