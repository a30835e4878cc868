package ir

import (
	"tlog.app/go/errors"

	"github.com/slowlang/jit/compiler/tp"
)

// Verify checks f is well formed. Returned errors wrap ErrIllFormed.
func Verify(f *Func) error {
	if len(f.errs) != 0 {
		return f.errs[0]
	}

	if len(f.Args) != len(f.In) {
		return errors.Wrap(ErrIllFormed, "func %v: %d args for %d params", f.Name, len(f.Args), len(f.In))
	}

	for b, bb := range f.Blocks {
		if len(bb.Code) == 0 || !Terminator(bb.Code[len(bb.Code)-1]) {
			return errors.Wrap(ErrIllFormed, "block %d: no terminator", b)
		}

		for i, x := range bb.Code[:len(bb.Code)-1] {
			if Terminator(x) {
				return errors.Wrap(ErrIllFormed, "block %d instr %d at %v: %T is not the last instruction", b, i, bb.PC[i], x)
			}
		}
	}

	defBlock := make([]Block, len(f.Values))
	defIdx := make([]int, len(f.Values))

	for id := range defBlock {
		defBlock[id] = -1
	}

	for _, a := range f.Args {
		defBlock[a.ID] = 0
		defIdx[a.ID] = -1
	}

	for b, bb := range f.Blocks {
		for i, x := range bb.Code {
			r := x.Result()
			if r.IsNil() {
				continue
			}

			if r.ID < 0 || int(r.ID) >= len(f.Values) || defBlock[r.ID] != -1 {
				return errors.Wrap(ErrIllFormed, "block %d instr %d at %v: bad result value %d", b, i, bb.PC[i], r.ID)
			}

			defBlock[r.ID] = Block(b)
			defIdx[r.ID] = i
		}
	}

	dom := Dominators(f)

	var uses []Value

	for b, bb := range f.Blocks {
		for i, x := range bb.Code {
			bad := func(format string, args ...any) error {
				err := errors.Wrap(ErrIllFormed, format, args...)
				return errors.Wrap(err, "block %d instr %d (%T) at %v", b, i, x, bb.PC[i])
			}

			uses = x.Uses(uses[:0])

			for _, v := range uses {
				if v.ID < 0 || int(v.ID) >= len(f.Values) {
					return bad("undefined value %d", v.ID)
				}

				if t := f.Values[v.ID]; t != v.Type {
					return bad("value %d type %v, defined as %v", v.ID, v.Type, t)
				}

				if v.Type == tp.Void {
					return bad("void operand %d", v.ID)
				}

				db := defBlock[v.ID]
				if db == -1 {
					return bad("value %d is never defined", v.ID)
				}

				if db == Block(b) && defIdx[v.ID] >= i || db != Block(b) && !dom[b].IsSet(db) {
					return bad("value %d used before definition", v.ID)
				}
			}

			if err := verifyInstr(f, x); err != nil {
				return bad("%v", err)
			}
		}
	}

	return nil
}

func verifyInstr(f *Func, x Instr) error {
	block := func(blk Block) error {
		if blk < 0 || int(blk) >= len(f.Blocks) {
			return errors.New("no block %d", blk)
		}

		return nil
	}

	switch x := x.(type) {
	case Const:
		if x.Out.Type == tp.Void {
			return errors.New("void const")
		}
	case Add:
		return arith(x.L, x.R, true)
	case Sub:
		return arith(x.L, x.R, true)
	case Mul:
		return arith(x.L, x.R, false)
	case Div:
		return arith(x.L, x.R, false)
	case Cmp:
		switch x.Cond {
		case Eq, Ne, Gt, Ge, Lt, Le:
		default:
			return errors.New("unsupported cond %q", x.Cond)
		}

		if x.L.Type != x.R.Type {
			return errors.New("operand types %v and %v", x.L.Type, x.R.Type)
		}
	case Not:
		if x.X.Type.IsFloat() {
			return errors.New("not of %v", x.X.Type)
		}
	case Load:
		if !x.Ptr.Type.IsPtr() {
			return errors.New("load from %v", x.Ptr.Type)
		}

		if x.Out.Type == tp.Void {
			return errors.New("void load")
		}
	case Store:
		if !x.Ptr.Type.IsPtr() {
			return errors.New("store to %v", x.Ptr.Type)
		}
	case B:
		return block(x.Block)
	case BCond:
		if x.Cond.Type.IsFloat() {
			return errors.New("%v condition", x.Cond.Type)
		}

		if err := block(x.Then); err != nil {
			return err
		}

		return block(x.Else)
	case CallPtr:
		if !x.Ptr.Type.IsPtr() {
			return errors.New("call of %v", x.Ptr.Type)
		}
	case CallFunc:
		if x.Func == "" {
			return errors.New("call of unnamed func")
		}
	case Ret:
		if x.Val.Type != f.Out {
			return errors.New("return %v from %v func", x.Val.Type, f.Out)
		}
	case RetVoid:
		if f.Out != tp.Void {
			return errors.New("return void from %v func", f.Out)
		}
	default:
		return errors.New("unsupported instruction: %T", x)
	}

	return nil
}

func arith(l, r Value, ptrOff bool) error {
	if ptrOff && l.Type.IsPtr() && r.Type == tp.I64 {
		return nil
	}

	if l.Type != r.Type {
		return errors.New("operand types %v and %v", l.Type, r.Type)
	}

	if l.Type.IsPtr() && !ptrOff {
		return errors.New("%v operands", l.Type)
	}

	return nil
}
