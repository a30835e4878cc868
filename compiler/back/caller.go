package back

import (
	"tlog.app/go/errors"

	"github.com/slowlang/jit/compiler/asm/amd64"
	"github.com/slowlang/jit/compiler/ir"
	"github.com/slowlang/jit/compiler/tp"
)

// call emits a native call of ptr, or of the named function if ptr is nil.
// Caller-saved registers holding values survive the call.
func (g *gen) call(ptr ir.Value, fn string, args []ir.Value, out ir.Value) error {
	e := g.e

	ts := make([]tp.Type, len(args))
	for i, a := range args {
		ts[i] = a.Type
	}

	slots, err := g.abi.Slots(ts)
	if err != nil {
		return err
	}

	moves := make([]Mov, len(args))

	for i, a := range args {
		r, err := g.use(a)
		if err != nil {
			return errors.Wrap(err, "arg %d", i)
		}

		moves[i] = Mov{Dst: slots[i], Src: r}
	}

	var rp amd64.Reg
	if !ptr.IsNil() {
		rp, err = g.use(ptr)
		if err != nil {
			return errors.Wrap(err, "callee")
		}
	}

	// a global result already owns its register, it must not be restored
	keep, _ := g.a.Reg(out)

	pushed := g.saveVolatile(keep)

	if ptr.IsNil() {
		off := e.MovImm64(amd64.RAX, 0)
		g.calls = append(g.calls, CallReloc{Func: fn, Off: off})
	} else {
		e.Mov(amd64.RAX, rp)
	}

	emitMoves(e, permutate(moves))

	frame := g.abi.Shadow + callPad(pushed)

	e.SubRSP(frame)
	e.Call(amd64.RAX)
	e.AddRSP(frame)

	if !out.IsNil() {
		d, err := g.obtain(out)
		if err != nil {
			return err
		}

		if d.IsFloat() {
			e.Movaps(d, amd64.X0)
		} else {
			e.Mov(d, amd64.RAX)
			g.narrow(out.Type, d)
		}
	}

	g.restoreVolatile(pushed)

	g.tr.V("call").Printw("call", "func", fn, "args", len(args), "pushed", len(pushed), "frame", frame)

	return nil
}

// saveVolatile pushes every allocated caller-saved register except keep.
// It returns them in push order.
func (g *gen) saveVolatile(keep amd64.Reg) (pushed []amd64.Reg) {
	for _, r := range g.a.Allocated() {
		if r == keep || g.abi.IsCalleeSaved(r) {
			continue
		}

		if r.IsFloat() {
			g.e.PushX(r)
		} else {
			g.e.Push(r)
		}

		pushed = append(pushed, r)
	}

	return pushed
}

func (g *gen) restoreVolatile(pushed []amd64.Reg) {
	for i := len(pushed) - 1; i >= 0; i-- {
		if r := pushed[i]; r.IsFloat() {
			g.e.PopX(r)
		} else {
			g.e.Pop(r)
		}
	}
}

// callPad keeps the stack 16-byte aligned at the call instruction.
// Vector saves take 16 bytes each and do not change the alignment.
func callPad(pushed []amd64.Reg) int32 {
	n := 0

	for _, r := range pushed {
		if !r.IsFloat() {
			n++
		}
	}

	if n%2 != 0 {
		return 8
	}

	return 0
}
