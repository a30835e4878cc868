package format

import (
	"math"
	"strconv"

	"github.com/nikandfor/hacked/hfmt"

	"github.com/slowlang/jit/compiler/ir"
	"github.com/slowlang/jit/compiler/tp"
)

// Func appends the textual form of f to b.
func Func(b []byte, f *ir.Func) []byte {
	b = app(b, 0, "func %s(", f.Name)

	for i, a := range f.Args {
		if i != 0 {
			b = append(b, ", "...)
		}

		b = app(b, 0, "v%d %s", int(a.ID), a.Type.String())
	}

	b = app(b, 0, ") %s {\n", f.Out.String())

	for blk, bb := range f.Blocks {
		b = app(b, 0, "b%d:\n", blk)

		for _, x := range bb.Code {
			b = Instr(b, x, 1)
		}
	}

	b = append(b, "}\n"...)

	return b
}

// Instr appends one instruction line indented by d tabs.
func Instr(b []byte, x ir.Instr, d int) []byte {
	if r := x.Result(); !r.IsNil() {
		b = app(b, d, "v%d = ", int(r.ID))
		d = 0
	}

	switch x := x.(type) {
	case ir.Const:
		b = app(b, d, "const %s ", x.Out.Type.String())
		b = constant(b, x.Out.Type, x.Bits)
	case ir.Add:
		b = binary(b, d, "add", x.Out, x.L, x.R)
	case ir.Sub:
		b = binary(b, d, "sub", x.Out, x.L, x.R)
	case ir.Mul:
		b = binary(b, d, "mul", x.Out, x.L, x.R)
	case ir.Div:
		b = binary(b, d, "div", x.Out, x.L, x.R)
	case ir.Cmp:
		b = app(b, d, "cmp %s v%d, v%d", string(x.Cond), int(x.L.ID), int(x.R.ID))
	case ir.Not:
		b = app(b, d, "not v%d", int(x.X.ID))
	case ir.Load:
		b = app(b, d, "load %s [v%d]", x.Out.Type.String(), int(x.Ptr.ID))
	case ir.Store:
		b = app(b, d, "store %s [v%d], v%d", x.Val.Type.String(), int(x.Ptr.ID), int(x.Val.ID))
	case ir.B:
		b = app(b, d, "br b%d", int(x.Block))
	case ir.BCond:
		b = app(b, d, "condbr v%d, b%d, b%d", int(x.Cond.ID), int(x.Then), int(x.Else))
	case ir.CallPtr:
		b = app(b, d, "call %s [v%d]", x.Out.Type.String(), int(x.Ptr.ID))
		b = args(b, x.Args)
	case ir.CallFunc:
		b = app(b, d, "call %s %s", x.Out.Type.String(), x.Func)
		b = args(b, x.Args)
	case ir.Ret:
		b = app(b, d, "ret v%d", int(x.Val.ID))
	case ir.RetVoid:
		b = app(b, d, "ret")
	default:
		b = app(b, d, "unsupported %T", x)
	}

	return append(b, '\n')
}

// Code appends a hex dump of machine code, 16 bytes per line.
func Code(b []byte, code []byte) []byte {
	for off := 0; off < len(code); off += 16 {
		end := off + 16
		if end > len(code) {
			end = len(code)
		}

		b = append(b, hex[off>>12&0xf], hex[off>>8&0xf], hex[off>>4&0xf], hex[off&0xf], ' ')

		for _, c := range code[off:end] {
			b = append(b, ' ', hex[c>>4], hex[c&0xf])
		}

		b = append(b, '\n')
	}

	return b
}

func binary(b []byte, d int, op string, out, l, r ir.Value) []byte {
	return app(b, d, "%s %s v%d, v%d", op, out.Type.String(), int(l.ID), int(r.ID))
}

func args(b []byte, args []ir.Value) []byte {
	b = append(b, '(')

	for i, a := range args {
		if i != 0 {
			b = append(b, ", "...)
		}

		b = app(b, 0, "v%d", int(a.ID))
	}

	return append(b, ')')
}

func constant(b []byte, t tp.Type, bits uint64) []byte {
	switch t {
	case tp.F32:
		return strconv.AppendFloat(b, float64(math.Float32frombits(uint32(bits))), 'g', -1, 32)
	case tp.F64:
		return strconv.AppendFloat(b, math.Float64frombits(bits), 'g', -1, 64)
	case tp.Ptr:
		return strconv.AppendUint(append(b, "0x"...), bits, 16)
	default:
		return strconv.AppendInt(b, int64(bits), 10)
	}
}

const hex = "0123456789abcdef"

func app(b []byte, d int, f string, args ...any) []byte {
	const tabs = "\t\t\t\t\t\t\t\t\t\t\t\t\t\t\t"
	b = append(b, tabs[:d]...)
	b = hfmt.Appendf(b, f, args...)
	return b
}
