package main

import (
	"math"
	"strconv"
	"strings"

	"github.com/slowlang/jit/compiler"
	"github.com/slowlang/jit/compiler/ir"
	"github.com/slowlang/jit/compiler/tp"
)

type (
	demo struct {
		fn   *compiler.Function
		args []uint64

		float bool
	}
)

func (d demo) show(args []uint64) string {
	var b strings.Builder

	for i, a := range args {
		if i != 0 {
			b.WriteString(", ")
		}

		if d.fn.In()[i].IsFloat() {
			b.WriteString(strconv.FormatFloat(math.Float64frombits(a), 'g', -1, 64))
		} else {
			b.WriteString(strconv.FormatInt(int64(a), 10))
		}
	}

	return b.String()
}

func (d demo) res(r uint64) string {
	if d.float {
		return strconv.FormatFloat(math.Float64frombits(r), 'g', -1, 64)
	}

	return strconv.FormatInt(int64(r), 10)
}

// build registers the demo functions.
func build(c *compiler.Compiler) (ds []demo, err error) {
	add := func(name string, in []tp.Type, out tp.Type, body func(b *ir.Builder), args ...uint64) {
		if err != nil {
			return
		}

		var fn *compiler.Function

		fn, err = c.AddFunc(name, in, out)
		if err != nil {
			return
		}

		body(fn.Builder())

		ds = append(ds, demo{fn: fn, args: args, float: out.IsFloat()})
	}

	i64 := []tp.Type{tp.I64}
	i64x2 := []tp.Type{tp.I64, tp.I64}
	f64x2 := []tp.Type{tp.F64, tp.F64}

	add("answer", nil, tp.I64, func(b *ir.Builder) {
		b.Ret(b.Add(b.ConstI64(10), b.ConstI64(420)))
	})

	add("max", i64x2, tp.I64, func(b *ir.Builder) {
		l, r := b.Arg(0), b.Arg(1)

		then := b.CreateBlock()
		els := b.CreateBlock()

		b.CondBr(then, els, b.Larger(l, r))

		b.SetCurrentBlock(then)
		b.Ret(l)

		b.SetCurrentBlock(els)
		b.Ret(r)
	}, compiler.I64(-3), 7)

	add("div", i64x2, tp.I64, func(b *ir.Builder) {
		b.Ret(b.Div(b.Arg(0), b.Arg(1)))
	}, 100, 0)

	add("hyp2", f64x2, tp.F64, func(b *ir.Builder) {
		x, y := b.Arg(0), b.Arg(1)
		b.Ret(b.Add(b.Mul(x, x), b.Mul(y, y)))
	}, compiler.F64(3), compiler.F64(4))

	add("fact", i64, tp.I64, func(b *ir.Builder) {
		n := b.Arg(0)

		base := b.CreateBlock()
		rec := b.CreateBlock()

		b.CondBr(base, rec, b.Smaller(n, b.ConstI64(2)))

		b.SetCurrentBlock(base)
		b.Ret(b.ConstI64(1))

		b.SetCurrentBlock(rec)
		b.Ret(b.Mul(n, b.CallFunc("fact", tp.I64, b.Sub(n, b.ConstI64(1)))))
	}, 20)

	add("nan_ne", f64x2, tp.I64, func(b *ir.Builder) {
		b.Ret(b.Diff(b.Arg(0), b.Arg(1)))
	}, compiler.F64(math.NaN()), compiler.F64(math.NaN()))

	return ds, err
}
