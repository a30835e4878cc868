package set

import (
	"math/bits"

	"tlog.app/go/tlog/tlwire"
)

type (
	Key interface {
		~int | ~int64 | ~uint8
	}

	// Bits is a dense set of keys starting at base.
	// Keys below base are never set.
	Bits[K Key] struct {
		base K
		b    []uint64
		b0   [2]uint64
	}
)

func MakeBits[K Key](base K) Bits[K] {
	s := Bits[K]{base: base}
	s.b = s.b0[:0]

	return s
}

// Full returns a set with keys [base, base+n) set.
func Full[K Key](base K, n int) Bits[K] {
	s := MakeBits(base)

	for i := 0; i < n/64; i++ {
		s.b = append(s.b, ^uint64(0))
	}

	if r := n % 64; r != 0 {
		s.b = append(s.b, 1<<r-1)
	}

	return s
}

func (s Bits[K]) Copy() Bits[K] {
	c := MakeBits(s.base)
	c.b = append(c.b, s.b...)

	return c
}

func (s *Bits[K]) Set(k K) {
	w, bit, ok := s.pos(k)
	if !ok {
		panic(k)
	}

	for w >= len(s.b) {
		s.b = append(s.b, 0)
	}

	s.b[w] |= bit
}

func (s *Bits[K]) SetAll(ks ...K) {
	for _, k := range ks {
		s.Set(k)
	}
}

func (s Bits[K]) Clear(k K) {
	w, bit, ok := s.pos(k)
	if ok && w < len(s.b) {
		s.b[w] &^= bit
	}
}

func (s Bits[K]) IsSet(k K) bool {
	w, bit, ok := s.pos(k)

	return ok && w < len(s.b) && s.b[w]&bit != 0
}

// Intersect keeps only keys also set in x.
func (s *Bits[K]) Intersect(x Bits[K]) {
	if s.base != x.base {
		panic(s.base)
	}

	if len(s.b) > len(x.b) {
		s.b = s.b[:len(x.b)]
	}

	for i := range s.b {
		s.b[i] &= x.b[i]
	}
}

func (s Bits[K]) Equal(x Bits[K]) bool {
	if s.base != x.base {
		return false
	}

	short, long := s.b, x.b
	if len(short) > len(long) {
		short, long = long, short
	}

	for i, w := range long {
		if i < len(short) && short[i] != w || i >= len(short) && w != 0 {
			return false
		}
	}

	return true
}

func (s Bits[K]) Size() (n int) {
	for _, w := range s.b {
		n += bits.OnesCount64(w)
	}

	return n
}

// Range calls f for every key in increasing order until it returns false.
func (s Bits[K]) Range(f func(k K) bool) {
	for i, w := range s.b {
		for ; w != 0; w &= w - 1 {
			if !f(s.base + K(i*64+bits.TrailingZeros64(w))) {
				return
			}
		}
	}
}

func (s Bits[K]) TlogAppend(b []byte) []byte {
	var e tlwire.LowEncoder

	b = e.AppendTag(b, tlwire.Array, -1)

	s.Range(func(k K) bool {
		b = e.AppendInt(b, int(k))
		return true
	})

	return e.AppendBreak(b)
}

func (s *Bits[K]) pos(k K) (w int, bit uint64, ok bool) {
	p := int(k) - int(s.base)
	if p < 0 {
		return 0, 0, false
	}

	return p / 64, 1 << (p % 64), true
}
