package back

import (
	"context"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"
	"tlog.app/go/tlog/tlwire"

	"github.com/slowlang/jit/compiler/asm/amd64"
	"github.com/slowlang/jit/compiler/format"
	"github.com/slowlang/jit/compiler/ir"
	"github.com/slowlang/jit/compiler/set"
	"github.com/slowlang/jit/compiler/tp"
)

type (
	// Compiler generates x86-64 code for one calling convention.
	Compiler struct {
		ABI *ABI
	}

	// Object is the machine code of one function.
	Object struct {
		Name string
		Code []byte

		// Calls are absolute address placeholders
		// to be patched with callee addresses.
		Calls []CallReloc
	}

	// CallReloc is an 8-byte placeholder at Off to get the address of Func.
	CallReloc struct {
		Func string
		Off  int
	}

	reloc struct {
		off int
		blk ir.Block // exit for the epilogue
	}

	gen struct {
		tr tlog.Span

		abi *ABI
		f   *ir.Func

		e *amd64.Encoder
		a *allocator

		global set.Bits[ir.ValueID]
		dies   [][][]ir.Value // block -> instr -> values dead after it

		blocks []int
		relocs []reloc
		calls  []CallReloc
	}
)

const exit ir.Block = -1

func New(abi *ABI) *Compiler {
	if abi == nil {
		abi = HostABI()
	}

	return &Compiler{ABI: abi}
}

// CompileFunc verifies f and lowers it to machine code.
func (c *Compiler) CompileFunc(ctx context.Context, f *ir.Func) (obj *Object, err error) {
	tr, _ := tlog.SpawnFromContextAndWrap(ctx, "back: compile func", "name", f.Name, "in", f.In, "out", f.Out, "abi", c.ABI.Name)
	defer tr.Finish("err", &err)

	if tr.If("dump_ir") {
		tr.Printw("ir", "name", f.Name, "ir", string(format.Func(nil, f)))
	}

	err = ir.Verify(f)
	if err != nil {
		return nil, errors.Wrap(err, "verify")
	}

	g := &gen{
		tr:     tr,
		abi:    c.ABI,
		f:      f,
		e:      amd64.New(),
		a:      newAllocator(len(f.Values)),
		blocks: make([]int, len(f.Blocks)),
	}

	g.liveness()

	err = g.args()
	if err != nil {
		return nil, errors.Wrap(err, "args")
	}

	for b := range f.Blocks {
		err = g.block(ir.Block(b))
		if err != nil {
			return nil, errors.Wrap(err, "block %d", b)
		}
	}

	exitOff := g.e.Len()
	g.epilogue()

	for _, r := range g.relocs {
		target := exitOff
		if r.blk != exit {
			target = g.blocks[r.blk]
		}

		g.e.Rel32(r.off, target)
	}

	pro := g.prologue()

	code := make([]byte, 0, pro.Len()+g.e.Len())
	code = append(code, pro.Data()...)
	code = append(code, g.e.Data()...)

	for i := range g.calls {
		g.calls[i].Off += pro.Len()
	}

	obj = &Object{
		Name:  f.Name,
		Code:  code,
		Calls: g.calls,
	}

	if tr.If("dump_code") {
		tr.Printw("code", "name", f.Name, "size", len(code), "calls", obj.Calls, "code", string(format.Code(nil, code)))
	}

	return obj, nil
}

// liveness splits values into block-local ones, freed after their last use,
// and global ones, which hold their register for the whole function.
func (g *gen) liveness() {
	f := g.f

	g.global = set.MakeBits[ir.ValueID](0)

	defBlock := make([]ir.Block, len(f.Values))
	defIdx := make([]int, len(f.Values))
	last := make([]int, len(f.Values))

	for id := range defBlock {
		defBlock[id] = -1
		last[id] = -1
	}

	for _, a := range f.Args {
		g.global.Set(a.ID)
	}

	for b, bb := range f.Blocks {
		for i, x := range bb.Code {
			if r := x.Result(); !r.IsNil() {
				defBlock[r.ID] = ir.Block(b)
				defIdx[r.ID] = i
			}
		}
	}

	var uses []ir.Value

	for b, bb := range f.Blocks {
		for i, x := range bb.Code {
			uses = x.Uses(uses[:0])

			for _, v := range uses {
				if defBlock[v.ID] != ir.Block(b) {
					g.global.Set(v.ID)
					continue
				}

				last[v.ID] = i
			}
		}
	}

	g.dies = make([][][]ir.Value, len(f.Blocks))

	for b, bb := range f.Blocks {
		g.dies[b] = make([][]ir.Value, len(bb.Code))
	}

	for id, t := range f.Values {
		v := ir.Value{ID: ir.ValueID(id), Type: t}

		if g.global.IsSet(v.ID) || defBlock[id] < 0 {
			continue
		}

		i := last[id]
		if i < 0 {
			i = defIdx[id]
		}

		b := defBlock[id]
		g.dies[b][i] = append(g.dies[b][i], v)
	}

	g.tr.V("alloc").Printw("liveness", "global", g.global)
}

// args binds incoming arguments and assigns registers to global values.
func (g *gen) args() error {
	slots, err := g.abi.Slots(g.f.In)
	if err != nil {
		return err
	}

	args := g.f.Args
	bound := make([]bool, len(args))

	for i, a := range args {
		if !g.a.IsFree(slots[i]) {
			continue
		}

		err = g.a.Bind(a, slots[i])
		if err != nil {
			return errors.Wrap(err, "arg %d", i)
		}

		bound[i] = true
	}

	var moves []Mov

	for i, a := range args {
		if bound[i] {
			continue
		}

		r, err := g.obtain(a)
		if err != nil {
			return errors.Wrap(err, "arg %d", i)
		}

		moves = append(moves, Mov{Dst: r, Src: slots[i]})
	}

	var gerr error

	g.global.Range(func(id ir.ValueID) bool {
		_, gerr = g.obtain(ir.Value{ID: id, Type: g.f.Values[id]})

		return gerr == nil
	})

	if gerr != nil {
		return errors.Wrap(gerr, "global")
	}

	emitMoves(g.e, permutate(moves))

	for _, a := range args {
		r, _ := g.a.Reg(a)

		g.narrow(a.Type, r)
	}

	return nil
}

func (g *gen) block(b ir.Block) (err error) {
	g.blocks[b] = g.e.Len()

	bb := g.f.Blocks[b]

	for i, x := range bb.Code {
		g.tr.V("lower").Printw("lower", "block", b, "i", i, "off", g.e.Len(), "typ", tlog.NextAsType, x, "x", x)

		last := int(b) == len(g.f.Blocks)-1 && i == len(bb.Code)-1

		err = g.lower(x, last)
		if err != nil {
			return errors.Wrap(err, "instr %d (%T) at %v", i, x, bb.PC[i])
		}

		for _, v := range g.dies[b][i] {
			g.free(v)
		}
	}

	return nil
}

func (g *gen) obtain(v ir.Value) (amd64.Reg, error) {
	r, err := g.a.Obtain(v)
	if err != nil {
		return r, err
	}

	g.tr.V("alloc").Printw("obtain", "val", v, "reg", r.String())

	return r, nil
}

func (g *gen) free(v ir.Value) {
	if r, ok := g.a.Reg(v); ok {
		g.tr.V("alloc").Printw("free", "val", v, "reg", r.String())
	}

	g.a.Free(v)
}

// use returns the register of an operand.
func (g *gen) use(v ir.Value) (amd64.Reg, error) {
	r, ok := g.a.Reg(v)
	if !ok {
		return r, errors.New("value %d has no register", v.ID)
	}

	return r, nil
}

// narrow restores the sign extension of a narrow integer in r.
func (g *gen) narrow(t tp.Type, r amd64.Reg) {
	switch t {
	case tp.I8:
		g.e.Movsx8(r, r)
	case tp.I16:
		g.e.Movsx16(r, r)
	case tp.I32:
		g.e.Movsxd(r, r)
	}
}

func (g *gen) jump(blk ir.Block) {
	off := g.e.Jmp()
	g.relocs = append(g.relocs, reloc{off: off, blk: blk})
}

func (g *gen) jcc(cc amd64.CC, blk ir.Block) {
	off := g.e.Jcc(cc)
	g.relocs = append(g.relocs, reloc{off: off, blk: blk})
}

// saved is the callee-saved registers the body touched.
func (g *gen) saved() (gp, fp []amd64.Reg) {
	g.a.Touched().Range(func(r amd64.Reg) bool {
		if !g.abi.IsCalleeSaved(r) {
			return true
		}

		if r.IsFloat() {
			fp = append(fp, r)
		} else {
			gp = append(gp, r)
		}

		return true
	})

	return gp, fp
}

// framePad aligns the stack to 16 bytes after the return address
// and len(gp) pushes.
func framePad(gp []amd64.Reg) int32 {
	if len(gp)%2 == 0 {
		return 8
	}

	return 0
}

func (g *gen) prologue() *amd64.Encoder {
	e := amd64.New()
	gp, fp := g.saved()

	for _, r := range gp {
		e.Push(r)
	}

	e.SubRSP(framePad(gp))

	for _, r := range fp {
		e.PushX(r)
	}

	return e
}

func (g *gen) epilogue() {
	gp, fp := g.saved()

	for i := len(fp) - 1; i >= 0; i-- {
		g.e.PopX(fp[i])
	}

	g.e.AddRSP(framePad(gp))

	for i := len(gp) - 1; i >= 0; i-- {
		g.e.Pop(gp[i])
	}

	g.e.Ret()
}

func (x CallReloc) TlogAppend(b []byte) []byte {
	var e tlwire.Encoder

	b = e.AppendMap(b, 2)
	b = e.AppendKeyValue(b, "func", x.Func)
	b = e.AppendKeyInt(b, "off", x.Off)

	return b
}
