package main

import (
	"context"
	"os"
	"strconv"

	"github.com/pterm/pterm"
	"nikand.dev/go/cli"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowlang/jit/compiler"
	"github.com/slowlang/jit/compiler/format"
)

func main() {
	runCmd := &cli.Command{
		Name:        "run",
		Description: "jit demo functions and call them",
		Action:      runAct,
	}

	dumpCmd := &cli.Command{
		Name:        "dump",
		Description: "print demo functions ir and machine code",
		Action:      dumpAct,
		Args:        cli.Args{},
	}

	app := &cli.Command{
		Name:        "slowjit",
		Description: "slowjit is a tiny x86-64 jit playground",
		Before:      before,
		Flags: []*cli.Flag{
			cli.NewFlag("config", "", "toml config file"),
			cli.NewFlag("verbosity,v", "", "tlog verbosity topics"),
		},
		Commands: []*cli.Command{
			runCmd,
			dumpCmd,
		},
	}

	cli.RunAndExit(app, os.Args, os.Environ())
}

func before(c *cli.Command) error {
	tlog.SetVerbosity(c.String("verbosity"))

	return nil
}

func newCompiler(c *cli.Command) (*compiler.Compiler, error) {
	cfg := compiler.ConfigFromEnv()

	if path := c.String("config"); path != "" {
		var err error

		cfg, err = compiler.LoadConfig(path)
		if err != nil {
			return nil, err
		}
	}

	return compiler.NewWithConfig(cfg)
}

func runAct(c *cli.Command) (err error) {
	ctx := context.Background()
	ctx = tlog.ContextWithSpan(ctx, tlog.Root())

	jc, err := newCompiler(c)
	if err != nil {
		return errors.Wrap(err, "new compiler")
	}

	defer func() {
		e := jc.Close()
		if err == nil && e != nil {
			err = errors.Wrap(e, "close")
		}
	}()

	ds, err := build(jc)
	if err != nil {
		return errors.Wrap(err, "build")
	}

	err = jc.JIT(ctx)
	if err != nil {
		return errors.Wrap(err, "jit")
	}

	data := pterm.TableData{{"func", "args", "result", "addr", "size"}}

	for _, d := range ds {
		r, err := d.fn.Call(d.args...)
		if err != nil {
			return errors.Wrap(err, "call %v", d.fn.Name())
		}

		data = append(data, []string{
			d.fn.Name(),
			d.show(d.args),
			d.res(r),
			"0x" + strconv.FormatUint(uint64(d.fn.Ptr()), 16),
			strconv.Itoa(len(d.fn.Code())),
		})
	}

	return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}

func dumpAct(c *cli.Command) (err error) {
	ctx := context.Background()
	ctx = tlog.ContextWithSpan(ctx, tlog.Root())

	jc, err := newCompiler(c)
	if err != nil {
		return errors.Wrap(err, "new compiler")
	}

	defer func() {
		e := jc.Close()
		if err == nil && e != nil {
			err = errors.Wrap(e, "close")
		}
	}()

	_, err = build(jc)
	if err != nil {
		return errors.Wrap(err, "build")
	}

	err = jc.JIT(ctx)
	if err != nil {
		return errors.Wrap(err, "jit")
	}

	only := map[string]bool{}
	for _, a := range c.Args {
		only[a] = true
	}

	var b []byte

	for _, fn := range jc.Funcs() {
		if len(only) != 0 && !only[fn.Name()] {
			continue
		}

		b = format.Func(b, fn.IR())
		b = format.Code(b, fn.Code())
		b = append(b, '\n')
	}

	_, err = os.Stdout.Write(b)

	return err
}
