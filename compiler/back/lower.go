package back

import (
	"tlog.app/go/errors"

	"github.com/slowlang/jit/compiler/asm/amd64"
	"github.com/slowlang/jit/compiler/ir"
	"github.com/slowlang/jit/compiler/tp"
)

// lower emits code for one instruction.
// last is set for the final instruction of the function.
func (g *gen) lower(x ir.Instr, last bool) error {
	e := g.e

	switch x := x.(type) {
	case ir.Const:
		return g.cnst(x)
	case ir.Add:
		return g.arith(x.L, x.R, x.Out, e.Add, e.AddS)
	case ir.Sub:
		return g.arith(x.L, x.R, x.Out, e.Sub, e.SubS)
	case ir.Mul:
		return g.arith(x.L, x.R, x.Out, e.Imul, e.MulS)
	case ir.Div:
		if x.Out.Type.IsFloat() {
			return g.arith(x.L, x.R, x.Out, nil, e.DivS)
		}

		return g.div(x)
	case ir.Cmp:
		return g.cmp(x)
	case ir.Not:
		d, s, err := g.unary(x.X, x.Out)
		if err != nil {
			return err
		}

		e.Test(s, s)
		e.Setcc(amd64.CondE, d)
		e.Movzx8(d, d)
	case ir.Load:
		d, p, err := g.unary(x.Ptr, x.Out)
		if err != nil {
			return err
		}

		switch t := x.Out.Type; t {
		case tp.I8:
			e.Load8(d, p)
		case tp.I16:
			e.Load16(d, p)
		case tp.I32:
			e.Load32(d, p)
		case tp.I64, tp.Ptr:
			e.Load64(d, p)
		case tp.F32, tp.F64:
			e.LoadS(t == tp.F64, d, p)
		default:
			panic(t)
		}
	case ir.Store:
		p, err := g.use(x.Ptr)
		if err != nil {
			return err
		}

		v, err := g.use(x.Val)
		if err != nil {
			return err
		}

		switch t := x.Val.Type; t {
		case tp.I8:
			e.Store8(p, v)
		case tp.I16:
			e.Store16(p, v)
		case tp.I32:
			e.Store32(p, v)
		case tp.I64, tp.Ptr:
			e.Store64(p, v)
		case tp.F32, tp.F64:
			e.StoreS(t == tp.F64, p, v)
		default:
			panic(t)
		}
	case ir.B:
		g.jump(x.Block)
	case ir.BCond:
		c, err := g.use(x.Cond)
		if err != nil {
			return err
		}

		e.Test(c, c)
		g.jcc(amd64.CondNE, x.Then)
		g.jump(x.Else)
	case ir.CallPtr:
		return g.call(x.Ptr, "", x.Args, x.Out)
	case ir.CallFunc:
		return g.call(ir.NilValue, x.Func, x.Args, x.Out)
	case ir.Ret:
		r, err := g.use(x.Val)
		if err != nil {
			return err
		}

		if r.IsFloat() {
			e.Movaps(amd64.X0, r)
		} else {
			e.Mov(amd64.RAX, r)
		}

		if !last {
			g.jump(exit)
		}
	case ir.RetVoid:
		if !last {
			g.jump(exit)
		}
	default:
		return errors.New("unsupported instruction: %T", x)
	}

	return nil
}

func (g *gen) cnst(x ir.Const) error {
	e := g.e

	d, err := g.obtain(x.Out)
	if err != nil {
		return err
	}

	switch x.Out.Type {
	case tp.F64:
		e.MovImm64(scratchGP, x.Bits)
		e.MovqToX(d, scratchGP)
	case tp.F32:
		e.MovImm32(scratchGP, uint32(x.Bits))
		e.MovdToX(d, scratchGP)
	default:
		e.MovImm64(d, x.Bits)
	}

	return nil
}

// unary obtains the result register for out and the operand register for x.
func (g *gen) unary(x, out ir.Value) (d, s amd64.Reg, err error) {
	s, err = g.use(x)
	if err != nil {
		return
	}

	d, err = g.obtain(out)

	return
}

func (g *gen) binary(l, r, out ir.Value) (d, rl, rr amd64.Reg, err error) {
	rl, err = g.use(l)
	if err != nil {
		return
	}

	rr, err = g.use(r)
	if err != nil {
		return
	}

	d, err = g.obtain(out)

	return
}

func (g *gen) arith(l, r, out ir.Value, iop func(dst, src amd64.Reg), fop func(double bool, dst, src amd64.Reg)) error {
	d, rl, rr, err := g.binary(l, r, out)
	if err != nil {
		return err
	}

	if t := out.Type; t.IsFloat() {
		g.e.Movaps(d, rl)
		fop(t == tp.F64, d, rr)

		return nil
	}

	g.e.Mov(d, rl)
	iop(d, rr)
	g.narrow(out.Type, d)

	return nil
}

// div never traps: x/0 is 0 and x/-1 is the wrapping negation of x.
func (g *gen) div(x ir.Div) error {
	e := g.e

	d, rl, rr, err := g.binary(x.L, x.R, x.Out)
	if err != nil {
		return err
	}

	e.Mov(amd64.RAX, rl)

	e.Test(rr, rr)
	nonzero := e.JccShort(amd64.CondNE)

	e.Xor(amd64.RAX, amd64.RAX)
	done0 := e.JmpShort()

	e.Rel8(nonzero, e.Len())

	e.CmpImm8(rr, -1)
	regular := e.JccShort(amd64.CondNE)

	e.Neg(amd64.RAX)
	done1 := e.JmpShort()

	e.Rel8(regular, e.Len())

	e.Cqo()
	e.Idiv(rr)

	e.Rel8(done0, e.Len())
	e.Rel8(done1, e.Len())

	e.Mov(d, amd64.RAX)
	g.narrow(x.Out.Type, d)

	return nil
}

func (g *gen) cmp(x ir.Cmp) error {
	e := g.e

	d, rl, rr, err := g.binary(x.L, x.R, x.Out)
	if err != nil {
		return err
	}

	t := x.L.Type

	if !t.IsFloat() {
		e.Cmp(rl, rr)
		e.Setcc(cond2cc(x.Cond, t.IsPtr()), d)
		e.Movzx8(d, d)

		return nil
	}

	double := t == tp.F64

	// Unordered sets ZF, PF and CF: above and above-or-equal are false for NaN.
	switch x.Cond {
	case ir.Gt, ir.Ge:
		e.Ucomis(double, rl, rr)
	case ir.Lt, ir.Le:
		e.Ucomis(double, rr, rl)
	case ir.Eq, ir.Ne:
		e.Ucomis(double, rl, rr)
	default:
		panic(x.Cond)
	}

	switch x.Cond {
	case ir.Gt, ir.Lt:
		e.Setcc(amd64.CondA, d)
	case ir.Ge, ir.Le:
		e.Setcc(amd64.CondAE, d)
	case ir.Eq:
		e.Setcc(amd64.CondE, d)
		e.Setcc(amd64.CondNP, scratchGP)
		e.And(d, scratchGP)
	case ir.Ne:
		e.Setcc(amd64.CondNE, d)
		e.Setcc(amd64.CondP, scratchGP)
		e.Or(d, scratchGP)
	}

	e.Movzx8(d, d)

	return nil
}

func cond2cc(c ir.Cond, unsigned bool) amd64.CC {
	switch c {
	case ir.Eq:
		return amd64.CondE
	case ir.Ne:
		return amd64.CondNE
	}

	if unsigned {
		switch c {
		case ir.Gt:
			return amd64.CondA
		case ir.Ge:
			return amd64.CondAE
		case ir.Lt:
			return amd64.CondB
		case ir.Le:
			return amd64.CondBE
		}
	} else {
		switch c {
		case ir.Gt:
			return amd64.CondG
		case ir.Ge:
			return amd64.CondGE
		case ir.Lt:
			return amd64.CondL
		case ir.Le:
			return amd64.CondLE
		}
	}

	panic(c)
}
