package compiler

import (
	"context"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowlang/jit/compiler/asm"
	"github.com/slowlang/jit/compiler/back"
	"github.com/slowlang/jit/compiler/exec"
)

type (
	// linker patches call sites of one JIT batch and publishes the code.
	linker struct {
		c *Compiler

		todo []*Function
		objs []*back.Object
		mems []*exec.Mem

		index map[string]int
		ok    []bool
		code  [][]byte

		published int
	}
)

// link drops functions whose callees got no memory
// and patches call placeholders of the rest.
func (l *linker) link() {
	l.index = make(map[string]int, len(l.todo))
	l.ok = make([]bool, len(l.todo))
	l.code = make([][]byte, len(l.todo))

	for i, fn := range l.todo {
		l.index[fn.Name()] = i
		l.ok[i] = l.mems[i] != nil
	}

	l.drop()

	for i, obj := range l.objs {
		if !l.ok[i] {
			continue
		}

		code := append([]byte{}, obj.Code...)
		w := asm.Wrap(code)

		for _, call := range obj.Calls {
			w.Rewrite64(call.Off, uint64(l.addr(call.Func)))
		}

		l.code[i] = code
	}
}

// drop unmarks functions calling unmarked ones until nothing changes.
func (l *linker) drop() {
	for changed := true; changed; {
		changed = false

		for i := range l.todo {
			if !l.ok[i] {
				continue
			}

			for _, call := range l.objs[i].Calls {
				if l.addr(call.Func) != 0 {
					continue
				}

				l.ok[i] = false
				changed = true

				break
			}
		}
	}
}

// addr is the callee entry point if it is or is going to be published.
func (l *linker) addr(name string) uintptr {
	if i, ok := l.index[name]; ok {
		if !l.ok[i] {
			return 0
		}

		return l.mems[i].Addr()
	}

	return l.c.funcs[name].Ptr()
}

// publish writes and seals linked code and frees the rest.
func (l *linker) publish(ctx context.Context) (err error) {
	tr := tlog.SpanFromContext(ctx)

	for i, fn := range l.todo {
		if !l.ok[i] {
			continue
		}

		e := l.write(l.mems[i], l.code[i])
		if e != nil {
			if err == nil {
				err = errors.Wrap(e, "func %v", fn.Name())
			}

			l.ok[i] = false
		}
	}

	l.drop()

	for i, fn := range l.todo {
		m := l.mems[i]
		if m == nil {
			continue
		}

		if !l.ok[i] {
			tr.Printw("drop func", "name", fn.Name())

			if e := m.Free(); e != nil && err == nil {
				err = errors.Wrap(e, "func %v", fn.Name())
			}

			continue
		}

		fn.mem = m
		fn.code = l.code[i]
		l.published++

		if tr.If("dump_code") {
			tr.Printw("published", "name", fn.Name(), "addr", fn.Ptr(), "size", len(fn.code), "calls", l.objs[i].Calls)
		}
	}

	return err
}

func (l *linker) write(m *exec.Mem, code []byte) error {
	err := m.Write(code)
	if err != nil {
		return err
	}

	if l.c.cfg.Seal {
		return m.Seal()
	}

	return m.Exec()
}
