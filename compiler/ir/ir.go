package ir

import (
	"tlog.app/go/errors"
	"tlog.app/go/loc"
	"tlog.app/go/tlog/tlwire"

	"github.com/slowlang/jit/compiler/tp"
)

type (
	ValueID int

	// Value is a compile-time name of a result.
	// It is only meaningful within the Func that minted it.
	Value struct {
		ID   ValueID
		Type tp.Type
	}

	// Block is an index into Func.Blocks. Entry block is 0.
	Block int

	Cond string

	Instr interface {
		// Uses appends operand values to dst.
		Uses(dst []Value) []Value

		// Result is the defined value or NilValue.
		Result() Value

		instr()
	}

	BlockBody struct {
		Code []Instr
		PC   []loc.PC
	}

	Func struct {
		Name string

		In  []tp.Type
		Out tp.Type

		Args []Value

		Blocks []BlockBody

		// Values maps ValueID to its type.
		Values []tp.Type

		errs []error
	}

	Const struct {
		Out  Value
		Bits uint64
	}

	Add struct {
		L, R Value
		Out  Value
	}

	Sub struct {
		L, R Value
		Out  Value
	}

	Mul struct {
		L, R Value
		Out  Value
	}

	Div struct {
		L, R Value
		Out  Value
	}

	Cmp struct {
		Cond Cond
		L, R Value
		Out  Value
	}

	// Not is logical negation: 1 if X is zero, 0 otherwise.
	Not struct {
		X   Value
		Out Value
	}

	Load struct {
		Ptr Value
		Out Value
	}

	Store struct {
		Ptr Value
		Val Value
	}

	B struct {
		Block Block
	}

	// BCond goes to Then if Cond is non-zero and to Else otherwise.
	BCond struct {
		Cond Value
		Then Block
		Else Block
	}

	CallPtr struct {
		Ptr  Value
		Args []Value
		Out  Value
	}

	CallFunc struct {
		Func string
		Args []Value
		Out  Value
	}

	Ret struct {
		Val Value
	}

	RetVoid struct{}
)

const (
	Nil ValueID = -1
)

const (
	Eq Cond = "=="
	Ne Cond = "!="
	Gt Cond = ">"
	Ge Cond = ">="
	Lt Cond = "<"
	Le Cond = "<="
)

var NilValue = Value{ID: Nil, Type: tp.Void}

var ErrIllFormed = errors.New("ill-formed ir")

func NewFunc(name string, in []tp.Type, out tp.Type) *Func {
	f := &Func{
		Name: name,
		In:   append([]tp.Type{}, in...),
		Out:  out,
	}

	for _, t := range f.In {
		f.Args = append(f.Args, f.value(t))
	}

	f.Blocks = append(f.Blocks, BlockBody{})

	return f
}

func (f *Func) value(t tp.Type) Value {
	id := ValueID(len(f.Values))
	f.Values = append(f.Values, t)

	return Value{ID: id, Type: t}
}

func (f *Func) fail(pc loc.PC, format string, args ...any) {
	err := errors.Wrap(ErrIllFormed, format, args...)
	err = errors.Wrap(err, "at %v", pc)

	f.errs = append(f.errs, err)
}

// Errs returns builder misuse recorded so far.
func (f *Func) Errs() []error {
	return f.errs
}

func (v Value) IsNil() bool {
	return v.ID == Nil
}

func (v Value) TlogAppend(b []byte) []byte {
	var e tlwire.Encoder

	b = e.AppendMap(b, 2)
	b = e.AppendKeyInt64(b, "id", int64(v.ID))
	b = e.AppendKeyInt(b, "tp", int(v.Type))

	return b
}

// Terminator reports whether the instruction ends a block.
func Terminator(x Instr) bool {
	switch x.(type) {
	case B, BCond, Ret, RetVoid:
		return true
	default:
		return false
	}
}

// Succs appends block successors of a terminator to dst.
func Succs(dst []Block, x Instr) []Block {
	switch x := x.(type) {
	case B:
		return append(dst, x.Block)
	case BCond:
		return append(dst, x.Then, x.Else)
	default:
		return dst
	}
}

func (x Const) Uses(dst []Value) []Value { return dst }
func (x Add) Uses(dst []Value) []Value   { return append(dst, x.L, x.R) }
func (x Sub) Uses(dst []Value) []Value   { return append(dst, x.L, x.R) }
func (x Mul) Uses(dst []Value) []Value   { return append(dst, x.L, x.R) }
func (x Div) Uses(dst []Value) []Value   { return append(dst, x.L, x.R) }
func (x Cmp) Uses(dst []Value) []Value   { return append(dst, x.L, x.R) }
func (x Not) Uses(dst []Value) []Value   { return append(dst, x.X) }
func (x Load) Uses(dst []Value) []Value  { return append(dst, x.Ptr) }
func (x Store) Uses(dst []Value) []Value { return append(dst, x.Ptr, x.Val) }
func (x B) Uses(dst []Value) []Value     { return dst }
func (x BCond) Uses(dst []Value) []Value { return append(dst, x.Cond) }
func (x Ret) Uses(dst []Value) []Value   { return append(dst, x.Val) }
func (x RetVoid) Uses(dst []Value) []Value {
	return dst
}

func (x CallPtr) Uses(dst []Value) []Value {
	dst = append(dst, x.Ptr)
	return append(dst, x.Args...)
}

func (x CallFunc) Uses(dst []Value) []Value {
	return append(dst, x.Args...)
}

func (x Const) Result() Value    { return x.Out }
func (x Add) Result() Value      { return x.Out }
func (x Sub) Result() Value      { return x.Out }
func (x Mul) Result() Value      { return x.Out }
func (x Div) Result() Value      { return x.Out }
func (x Cmp) Result() Value      { return x.Out }
func (x Not) Result() Value      { return x.Out }
func (x Load) Result() Value     { return x.Out }
func (x Store) Result() Value    { return NilValue }
func (x B) Result() Value        { return NilValue }
func (x BCond) Result() Value    { return NilValue }
func (x CallPtr) Result() Value  { return x.Out }
func (x CallFunc) Result() Value { return x.Out }
func (x Ret) Result() Value      { return NilValue }
func (x RetVoid) Result() Value  { return NilValue }

func (Const) instr()    {}
func (Add) instr()      {}
func (Sub) instr()      {}
func (Mul) instr()      {}
func (Div) instr()      {}
func (Cmp) instr()      {}
func (Not) instr()      {}
func (Load) instr()     {}
func (Store) instr()    {}
func (B) instr()        {}
func (BCond) instr()    {}
func (CallPtr) instr()  {}
func (CallFunc) instr() {}
func (Ret) instr()      {}
func (RetVoid) instr()  {}
