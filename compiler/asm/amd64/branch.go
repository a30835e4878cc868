package amd64

// Jmp is jmp rel32. Returns the offset of the displacement.
func (e *Encoder) Jmp() int {
	e.Byte(0xe9)

	return e.Int32(0)
}

// Jcc is jcc rel32. Returns the offset of the displacement.
func (e *Encoder) Jcc(cc CC) int {
	e.Bytes(0x0f, 0x80|byte(cc))

	return e.Int32(0)
}

// JmpShort is jmp rel8. Returns the offset of the displacement.
func (e *Encoder) JmpShort() int {
	e.Byte(0xeb)

	return e.Int8(0)
}

// JccShort is jcc rel8. Returns the offset of the displacement.
func (e *Encoder) JccShort(cc CC) int {
	e.Byte(0x70 | byte(cc))

	return e.Int8(0)
}

func (e *Encoder) Call(r Reg) {
	e.rex(false, 0, r, false)
	e.Byte(0xff)
	e.modrr(ext2, r)
}

func (e *Encoder) Ret() { e.Byte(0xc3) }

func (e *Encoder) Push(r Reg) {
	e.rex(false, 0, r, false)
	e.Byte(0x50 | r.low())
}

func (e *Encoder) Pop(r Reg) {
	e.rex(false, 0, r, false)
	e.Byte(0x58 | r.low())
}

func (e *Encoder) SubRSP(n int32) { e.rspImm(ext5, n) }

func (e *Encoder) AddRSP(n int32) { e.rspImm(ext0, n) }

func (e *Encoder) rspImm(op Reg, n int32) {
	if n == 0 {
		return
	}

	if n >= -128 && n <= 127 {
		e.rr(0, true, op, RSP, 0x83)
		e.Int8(int8(n))

		return
	}

	e.rr(0, true, op, RSP, 0x81)
	e.Int32(n)
}

// PushX saves a vector register on the stack (16 bytes).
func (e *Encoder) PushX(x Reg) {
	e.SubRSP(16)
	e.StoreX(RSP, x)
}

// PopX restores a vector register saved with PushX.
func (e *Encoder) PopX(x Reg) {
	e.LoadX(x, RSP)
	e.AddRSP(16)
}
