package back

import (
	"nikand.dev/go/heap"
	"tlog.app/go/errors"

	"github.com/slowlang/jit/compiler/asm/amd64"
	"github.com/slowlang/jit/compiler/ir"
	"github.com/slowlang/jit/compiler/set"
)

type (
	// allocator maps values to physical registers.
	// RAX, RDX, RSP, RBP, R11, X0 and X15 are never handed out.
	allocator struct {
		gp, fp heap.Heap[amd64.Reg]

		reg   []amd64.Reg // by value
		owner [amd64.NumRegs]ir.ValueID

		touched set.Bits[amd64.Reg]
	}
)

const noReg amd64.Reg = 0xff

// Pools in preference order: caller-saved first.
var (
	gpPool = []amd64.Reg{
		amd64.RCX, amd64.RSI, amd64.RDI, amd64.R8, amd64.R9, amd64.R10,
		amd64.RBX, amd64.R12, amd64.R13, amd64.R14, amd64.R15,
	}

	fpPool = []amd64.Reg{
		amd64.X1, amd64.X2, amd64.X3, amd64.X4, amd64.X5, amd64.X6, amd64.X7,
		amd64.X8, amd64.X9, amd64.X10, amd64.X11, amd64.X12, amd64.X13, amd64.X14,
	}
)

var ErrRegisterPressure = errors.New("register pressure")

func newAllocator(nvals int) *allocator {
	a := &allocator{
		gp:      newPool(gpPool),
		fp:      newPool(fpPool),
		reg:     make([]amd64.Reg, nvals),
		touched: set.MakeBits[amd64.Reg](0),
	}

	for i := range a.reg {
		a.reg[i] = noReg
	}

	for i := range a.owner {
		a.owner[i] = ir.Nil
	}

	return a
}

func newPool(regs []amd64.Reg) heap.Heap[amd64.Reg] {
	var rank [amd64.NumRegs]int

	for i, r := range regs {
		rank[r] = i
	}

	h := heap.Heap[amd64.Reg]{
		Less: func(d []amd64.Reg, i, j int) bool {
			return rank[d[i]] < rank[d[j]]
		},
	}

	for _, r := range regs {
		h.Push(r)
	}

	return h
}

func (a *allocator) pool(float bool) *heap.Heap[amd64.Reg] {
	if float {
		return &a.fp
	}

	return &a.gp
}

// Reg returns the register holding v.
func (a *allocator) Reg(v ir.Value) (amd64.Reg, bool) {
	if v.ID < 0 || int(v.ID) >= len(a.reg) {
		return noReg, false
	}

	r := a.reg[v.ID]

	return r, r != noReg
}

// Obtain returns the register of v, assigning the most preferred free one
// of its class if it has none.
func (a *allocator) Obtain(v ir.Value) (amd64.Reg, error) {
	if r, ok := a.Reg(v); ok {
		return r, nil
	}

	if v.ID < 0 || int(v.ID) >= len(a.reg) {
		return noReg, errors.New("obtain: no value %d", v.ID)
	}

	p := a.pool(v.Type.IsFloat())

	if p.Len() == 0 {
		return noReg, errors.Wrap(ErrRegisterPressure, "value %d (%v)", v.ID, v.Type)
	}

	r := p.Pop()
	a.assign(v, r)

	return r, nil
}

// Bind assigns the specific free register r to v.
func (a *allocator) Bind(v ir.Value, r amd64.Reg) error {
	if v.ID < 0 || int(v.ID) >= len(a.reg) {
		return errors.New("bind: no value %d", v.ID)
	}

	if old, ok := a.Reg(v); ok {
		return errors.New("bind %v: value %d is in %v", r, v.ID, old)
	}

	p := a.pool(r.IsFloat())

	i := 0
	for i < p.Len() && p.Data[i] != r {
		i++
	}

	if i == p.Len() {
		return errors.New("bind: %v is not free", r)
	}

	last := p.Len() - 1
	p.Data[i] = p.Data[last]
	p.Data = p.Data[:last]

	if i < last {
		p.Fix(i)
	}

	a.assign(v, r)

	return nil
}

func (a *allocator) assign(v ir.Value, r amd64.Reg) {
	a.reg[v.ID] = r
	a.owner[r] = v.ID
	a.touched.Set(r)
}

// Free returns the register of v to its pool.
func (a *allocator) Free(v ir.Value) {
	r, ok := a.Reg(v)
	if !ok {
		return
	}

	a.reg[v.ID] = noReg
	a.owner[r] = ir.Nil

	a.pool(r.IsFloat()).Push(r)
}

// IsFree reports r is in a pool and not assigned.
func (a *allocator) IsFree(r amd64.Reg) bool {
	p := a.pool(r.IsFloat())

	for _, x := range p.Data {
		if x == r {
			return true
		}
	}

	return false
}

func (a *allocator) IsAllocated(r amd64.Reg) bool {
	return a.owner[r] != ir.Nil
}

func (a *allocator) Owner(r amd64.Reg) ir.ValueID {
	return a.owner[r]
}

// Allocated returns assigned registers in encoding order.
func (a *allocator) Allocated() []amd64.Reg {
	var rs []amd64.Reg

	for r := amd64.Reg(0); r < amd64.NumRegs; r++ {
		if a.owner[r] != ir.Nil {
			rs = append(rs, r)
		}
	}

	return rs
}

// Touched is every register ever assigned.
func (a *allocator) Touched() set.Bits[amd64.Reg] {
	return a.touched
}
