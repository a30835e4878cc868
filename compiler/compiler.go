package compiler

import (
	"context"
	"math"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowlang/jit/compiler/back"
	"github.com/slowlang/jit/compiler/exec"
	"github.com/slowlang/jit/compiler/ir"
	"github.com/slowlang/jit/compiler/tp"
)

type (
	// Compiler is a registry of functions jitted together.
	// It is not safe for concurrent use.
	Compiler struct {
		cfg  Config
		back *back.Compiler

		funcs map[string]*Function
		order []*Function
	}

	// Function is one native function under construction or jitted.
	Function struct {
		c *Compiler

		f *ir.Func
		b *ir.Builder

		code []byte
		mem  *exec.Mem
	}
)

var (
	ErrFuncExists     = errors.New("function already exists")
	ErrUnresolvedCall = errors.New("unresolved call")
	ErrCallSignature  = errors.New("call signature mismatch")
	ErrNotJitted      = errors.New("function is not jitted")
)

// New creates a Compiler for the host calling convention
// configured from environment.
func New() *Compiler {
	cfg := ConfigFromEnv()

	c, err := NewWithConfig(cfg)
	if err != nil {
		tlog.Printw("bad config, using host abi", "abi", cfg.ABI, "err", err)

		cfg.ABI = ""
		c, _ = NewWithConfig(cfg)
	}

	return c
}

func NewWithConfig(cfg Config) (*Compiler, error) {
	abi, err := back.ABIByName(cfg.ABI)
	if err != nil {
		return nil, errors.Wrap(err, "config")
	}

	return &Compiler{
		cfg:   cfg,
		back:  back.New(abi),
		funcs: make(map[string]*Function),
	}, nil
}

func (c *Compiler) ABI() *back.ABI { return c.back.ABI }

// AddFunc registers a new function. Names are unique.
func (c *Compiler) AddFunc(name string, in []tp.Type, out tp.Type) (*Function, error) {
	if _, ok := c.funcs[name]; ok {
		return nil, errors.Wrap(ErrFuncExists, "func %v", name)
	}

	f := ir.NewFunc(name, in, out)

	fn := &Function{
		c: c,
		f: f,
		b: ir.NewBuilder(f),
	}

	c.funcs[name] = fn
	c.order = append(c.order, fn)

	return fn, nil
}

func (c *Compiler) FuncByName(name string) *Function {
	return c.funcs[name]
}

// Funcs returns functions in registration order.
func (c *Compiler) Funcs() []*Function {
	return c.order
}

// JIT compiles and publishes every function added since the last call.
// Code generation errors leave every function untouched.
// Functions published before a resource failure stay usable.
func (c *Compiler) JIT(ctx context.Context) (err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "compiler: jit", "funcs", len(c.order), "abi", c.back.ABI.Name)
	defer tr.Finish("err", &err)

	var todo []*Function

	for _, fn := range c.order {
		if fn.mem == nil {
			todo = append(todo, fn)
		}
	}

	if len(todo) == 0 {
		return nil
	}

	objs := make([]*back.Object, len(todo))

	for i, fn := range todo {
		objs[i], err = c.back.CompileFunc(ctx, fn.f)
		if err != nil {
			return errors.Wrap(err, "func %v", fn.Name())
		}
	}

	for _, fn := range todo {
		err = c.resolve(fn)
		if err != nil {
			return errors.Wrap(err, "func %v", fn.Name())
		}
	}

	mems, err := c.alloc(todo, objs)

	l := linker{
		c:    c,
		todo: todo,
		objs: objs,
		mems: mems,
	}

	l.link()

	perr := l.publish(ctx)
	if err == nil {
		err = perr
	}

	tr.Printw("jit", "funcs", len(todo), "published", l.published)

	return err
}

// resolve checks every named callee is registered with a matching signature.
func (c *Compiler) resolve(fn *Function) error {
	for b, bb := range fn.f.Blocks {
		for i, x := range bb.Code {
			call, ok := x.(ir.CallFunc)
			if !ok {
				continue
			}

			callee := c.funcs[call.Func]
			if callee == nil {
				return errors.Wrap(ErrUnresolvedCall, "block %d instr %d at %v: %v", b, i, bb.PC[i], call.Func)
			}

			if !signature(call, callee.f) {
				return errors.Wrap(ErrCallSignature, "block %d instr %d at %v: %v%v %v", b, i, bb.PC[i], call.Func, callee.f.In, callee.f.Out)
			}
		}
	}

	return nil
}

func signature(call ir.CallFunc, f *ir.Func) bool {
	if call.Out.Type != f.Out || len(call.Args) != len(f.In) {
		return false
	}

	for i, a := range call.Args {
		if a.Type != f.In[i] {
			return false
		}
	}

	return true
}

// alloc maps memory in registration order, stopping at the first failure.
func (c *Compiler) alloc(todo []*Function, objs []*back.Object) ([]*exec.Mem, error) {
	mems := make([]*exec.Mem, len(todo))

	for i, fn := range todo {
		m, err := exec.Alloc(len(objs[i].Code))
		if err != nil {
			return mems, errors.Wrap(err, "func %v", fn.Name())
		}

		mems[i] = m
	}

	return mems, nil
}

// Close releases every executable mapping.
// Functions become unjitted.
func (c *Compiler) Close() (err error) {
	for _, fn := range c.order {
		if fn.mem == nil {
			continue
		}

		if e := fn.mem.Free(); e != nil && err == nil {
			err = errors.Wrap(e, "func %v", fn.Name())
		}

		fn.mem = nil
		fn.code = nil
	}

	return err
}

func (f *Function) Builder() *ir.Builder { return f.b }

// IR is the function body.
func (f *Function) IR() *ir.Func { return f.f }

func (f *Function) Name() string  { return f.f.Name }
func (f *Function) In() []tp.Type { return f.f.In }
func (f *Function) Out() tp.Type  { return f.f.Out }
func (f *Function) Jitted() bool  { return f.mem != nil }
func (f *Function) Code() []byte  { return f.code }

// Ptr is the native entry point, 0 until jitted.
func (f *Function) Ptr() uintptr {
	if f.mem == nil {
		return 0
	}

	return f.mem.Addr()
}

// Call invokes jitted code. Float arguments are IEEE bits, see F64 and F32.
// The result is RAX or the bits of XMM0 by the declared result type.
func (f *Function) Call(args ...uint64) (uint64, error) {
	if f.mem == nil {
		return 0, errors.Wrap(ErrNotJitted, "func %v", f.Name())
	}

	abi := f.c.back.ABI
	if abi != back.HostABI() {
		return 0, errors.New("func %v: %v code on %v host", f.Name(), abi.Name, back.HostABI().Name)
	}

	if len(args) != len(f.f.In) {
		return 0, errors.New("func %v: %d args for %d params", f.Name(), len(args), len(f.f.In))
	}

	slots, err := abi.Slots(f.f.In)
	if err != nil {
		return 0, errors.Wrap(err, "func %v", f.Name())
	}

	var a exec.Args

	for i, s := range slots {
		if s.IsFloat() {
			a.Float[index(abi.Float, s)] = args[i]
		} else {
			a.Int[index(abi.Int, s)] = args[i]
		}
	}

	r, x, err := exec.Call(f.mem.Addr(), &a)
	if err != nil {
		return 0, errors.Wrap(err, "func %v", f.Name())
	}

	switch f.f.Out {
	case tp.Void:
		return 0, nil
	case tp.F32:
		return x & math.MaxUint32, nil
	case tp.F64:
		return x, nil
	default:
		return r, nil
	}
}

func index[T comparable](s []T, x T) int {
	for i, y := range s {
		if y == x {
			return i
		}
	}

	panic(x)
}

// F64 encodes a float argument for Call.
func F64(x float64) uint64 { return math.Float64bits(x) }

// F32 encodes a float argument for Call.
func F32(x float32) uint64 { return uint64(math.Float32bits(x)) }

// I64 encodes a signed argument for Call.
func I64(x int64) uint64 { return uint64(x) }
