package back

import (
	"runtime"

	"tlog.app/go/errors"

	"github.com/slowlang/jit/compiler/asm/amd64"
	"github.com/slowlang/jit/compiler/set"
	"github.com/slowlang/jit/compiler/tp"
)

type (
	// ABI is a native calling convention.
	ABI struct {
		Name string

		Int   []amd64.Reg
		Float []amd64.Reg

		// Positional means the i-th argument takes the i-th slot of its class
		// and burns the slot of the other class.
		Positional bool

		// Shadow is the stack space the caller reserves for the callee.
		Shadow int32

		CalleeSaved set.Bits[amd64.Reg]
	}
)

var (
	SysV = &ABI{
		Name:        "sysv",
		Int:         []amd64.Reg{amd64.RDI, amd64.RSI, amd64.RDX, amd64.RCX, amd64.R8, amd64.R9},
		Float:       []amd64.Reg{amd64.X0, amd64.X1, amd64.X2, amd64.X3, amd64.X4, amd64.X5, amd64.X6, amd64.X7},
		CalleeSaved: regs(amd64.RBX, amd64.RBP, amd64.R12, amd64.R13, amd64.R14, amd64.R15),
	}

	Win64 = &ABI{
		Name:       "win64",
		Int:        []amd64.Reg{amd64.RCX, amd64.RDX, amd64.R8, amd64.R9},
		Float:      []amd64.Reg{amd64.X0, amd64.X1, amd64.X2, amd64.X3},
		Positional: true,
		Shadow:     32,
		CalleeSaved: regs(amd64.RBX, amd64.RBP, amd64.RDI, amd64.RSI, amd64.R12, amd64.R13, amd64.R14, amd64.R15,
			amd64.X6, amd64.X7, amd64.X8, amd64.X9, amd64.X10, amd64.X11, amd64.X12, amd64.X13, amd64.X14, amd64.X15),
	}
)

var ErrTooManyArgs = errors.New("too many arguments")

// HostABI is the convention of the running platform.
func HostABI() *ABI {
	if runtime.GOOS == "windows" {
		return Win64
	}

	return SysV
}

// ABIByName returns the convention by name. Empty name is the host one.
func ABIByName(name string) (*ABI, error) {
	switch name {
	case "":
		return HostABI(), nil
	case SysV.Name:
		return SysV, nil
	case Win64.Name:
		return Win64, nil
	default:
		return nil, errors.New("unknown abi: %q", name)
	}
}

// Slots assigns an argument register to each parameter type.
func (a *ABI) Slots(ts []tp.Type) ([]amd64.Reg, error) {
	slots := make([]amd64.Reg, len(ts))

	var ni, nf int

	for i, t := range ts {
		if a.Positional {
			ni, nf = i, i
		}

		class, n := a.Int, &ni
		if t.IsFloat() {
			class, n = a.Float, &nf
		}

		if *n >= len(class) {
			return nil, errors.Wrap(ErrTooManyArgs, "arg %d (%v) of %d", i, t, len(ts))
		}

		slots[i] = class[*n]
		*n++
	}

	return slots, nil
}

func (a *ABI) IsCalleeSaved(r amd64.Reg) bool {
	return a.CalleeSaved.IsSet(r)
}

func (a *ABI) String() string { return a.Name }

func regs(rs ...amd64.Reg) set.Bits[amd64.Reg] {
	s := set.MakeBits[amd64.Reg](0)
	s.SetAll(rs...)

	return s
}
