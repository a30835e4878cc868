package back

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/slowlang/jit/compiler/asm/amd64"
)

func TestPermutate(t *testing.T) {
	for _, tc := range []struct {
		name  string
		moves []Mov
	}{
		{"nop", []Mov{{amd64.RCX, amd64.RCX}}},
		{"chain", []Mov{{amd64.RDI, amd64.RSI}, {amd64.RSI, amd64.RCX}, {amd64.RCX, amd64.RDX}}},
		{"swap", []Mov{{amd64.RDI, amd64.RSI}, {amd64.RSI, amd64.RDI}}},
		{"cycle3", []Mov{{amd64.RDI, amd64.RSI}, {amd64.RSI, amd64.RCX}, {amd64.RCX, amd64.RDI}}},
		{"fanout", []Mov{{amd64.RDI, amd64.RCX}, {amd64.RSI, amd64.RCX}, {amd64.RCX, amd64.RDI}}},
		{"two_cycles", []Mov{
			{amd64.RDI, amd64.RSI}, {amd64.RSI, amd64.RDI},
			{amd64.X0, amd64.X1}, {amd64.X1, amd64.X0},
			{amd64.R8, amd64.R9}, {amd64.R9, amd64.R8},
		}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			var regs [amd64.NumRegs]int

			for r := range regs {
				regs[r] = 100 + r
			}

			before := regs

			for _, m := range permutate(tc.moves) {
				regs[m.Dst] = regs[m.Src]
			}

			dst := map[amd64.Reg]bool{}

			for _, m := range tc.moves {
				assert.Equal(t, before[m.Src], regs[m.Dst], "%v <- %v", m.Dst, m.Src)
				dst[m.Dst] = true
			}

			for r := range regs {
				rr := amd64.Reg(r)

				if dst[rr] || rr == scratchGP || rr == scratchFP {
					continue
				}

				assert.Equal(t, before[r], regs[r], "%v clobbered", rr)
			}
		})
	}
}

func TestPermutateCycleUsesScratch(t *testing.T) {
	seq := permutate([]Mov{{amd64.RDI, amd64.RSI}, {amd64.RSI, amd64.RDI}})

	assert.Len(t, seq, 3)
	assert.Contains(t, seq, Mov{Dst: scratchGP, Src: amd64.RDI})

	seq = permutate([]Mov{{amd64.RDI, amd64.RSI}})
	assert.Equal(t, []Mov{{amd64.RDI, amd64.RSI}}, seq)
}

func TestEmitMoves(t *testing.T) {
	e := amd64.New()

	emitMoves(e, []Mov{{amd64.RCX, amd64.RAX}, {amd64.X1, amd64.X2}, {amd64.X1, amd64.R11}})

	assert.Equal(t, []byte{
		0x48, 0x89, 0xc1,
		0x0f, 0x28, 0xca,
		0x66, 0x49, 0x0f, 0x6e, 0xcb,
	}, e.Data())
}
