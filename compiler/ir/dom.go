package ir

import "github.com/slowlang/jit/compiler/set"

// Preds returns block predecessors indexed by block.
func Preds(f *Func) [][]Block {
	preds := make([][]Block, len(f.Blocks))

	var succ []Block

	for b, bb := range f.Blocks {
		if len(bb.Code) == 0 {
			continue
		}

		succ = Succs(succ[:0], bb.Code[len(bb.Code)-1])

		for _, s := range succ {
			if s < 0 || int(s) >= len(f.Blocks) {
				continue
			}

			preds[s] = append(preds[s], Block(b))
		}
	}

	return preds
}

// Dominators returns for each block the set of blocks dominating it.
// Unreachable blocks are dominated by every block.
func Dominators(f *Func) []set.Bits[Block] {
	n := len(f.Blocks)
	preds := Preds(f)

	dom := make([]set.Bits[Block], n)

	for b := range dom {
		if b == 0 {
			dom[b] = set.MakeBits[Block](0)
			dom[b].Set(0)

			continue
		}

		dom[b] = set.Full[Block](0, n)
	}

	for changed := true; changed; {
		changed = false

		for b := 1; b < n; b++ {
			if len(preds[b]) == 0 {
				continue
			}

			d := dom[preds[b][0]].Copy()

			for _, p := range preds[b][1:] {
				d.Intersect(dom[p])
			}

			d.Set(Block(b))

			if d.Equal(dom[b]) {
				continue
			}

			dom[b] = d
			changed = true
		}
	}

	return dom
}
