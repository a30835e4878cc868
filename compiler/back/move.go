package back

import (
	"github.com/slowlang/jit/compiler/asm/amd64"
)

type (
	// Mov copies Src into Dst.
	Mov struct {
		Dst, Src amd64.Reg
	}
)

// Scratch registers, never allocated.
const (
	scratchGP = amd64.R11
	scratchFP = amd64.X15
)

// permutate orders moves so that every Dst gets the value Src had before.
// Destinations must be distinct. Cycles are broken through the scratch register.
func permutate(l []Mov) (seq []Mov) {
	p := make([]Mov, 0, len(l))

	for _, m := range l {
		if m.Dst != m.Src {
			p = append(p, m)
		}
	}

	for len(p) != 0 {
		progress := false

	next:
		for i := 0; i < len(p); i++ {
			for j := range p {
				if j != i && p[j].Src == p[i].Dst {
					continue next
				}
			}

			seq = append(seq, p[i])

			p = append(p[:i], p[i+1:]...)
			i--

			progress = true
		}

		if progress {
			continue
		}

		// every destination is still read by another move: a cycle
		d := p[0].Dst
		s := scratchGP
		if d.IsFloat() {
			s = scratchFP
		}

		seq = append(seq, Mov{Dst: s, Src: d})

		for j := range p {
			if p[j].Src == d {
				p[j].Src = s
			}
		}
	}

	return seq
}

func emitMoves(e *amd64.Encoder, seq []Mov) {
	for _, m := range seq {
		move(e, m.Dst, m.Src)
	}
}

func move(e *amd64.Encoder, dst, src amd64.Reg) {
	switch {
	case !dst.IsFloat() && !src.IsFloat():
		e.Mov(dst, src)
	case dst.IsFloat() && src.IsFloat():
		e.Movaps(dst, src)
	case dst.IsFloat():
		e.MovqToX(dst, src)
	default:
		panic(Mov{Dst: dst, Src: src})
	}
}
