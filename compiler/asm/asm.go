package asm

import "encoding/binary"

type (
	// Writer is an append-only little-endian byte sink.
	// Every append returns the offset it was written at
	// so fixed-width fields can be rewritten later.
	Writer struct {
		b []byte
	}
)

// Wrap makes a Writer appending to b.
func Wrap(b []byte) *Writer { return &Writer{b: b} }

func (w *Writer) Len() int { return len(w.b) }

func (w *Writer) Data() []byte { return w.b }

func (w *Writer) Byte(x byte) int {
	off := len(w.b)
	w.b = append(w.b, x)

	return off
}

func (w *Writer) Bytes(x ...byte) int {
	off := len(w.b)
	w.b = append(w.b, x...)

	return off
}

func (w *Writer) Int8(x int8) int { return w.Byte(byte(x)) }

func (w *Writer) Uint32(x uint32) int {
	off := len(w.b)
	w.b = binary.LittleEndian.AppendUint32(w.b, x)

	return off
}

func (w *Writer) Int32(x int32) int { return w.Uint32(uint32(x)) }

func (w *Writer) Uint64(x uint64) int {
	off := len(w.b)
	w.b = binary.LittleEndian.AppendUint64(w.b, x)

	return off
}

func (w *Writer) Int64(x int64) int { return w.Uint64(uint64(x)) }

func (w *Writer) Rewrite8(off int, x int8) {
	w.b[off] = byte(x)
}

func (w *Writer) Rewrite32(off int, x int32) {
	binary.LittleEndian.PutUint32(w.b[off:], uint32(x))
}

func (w *Writer) Rewrite64(off int, x uint64) {
	binary.LittleEndian.PutUint64(w.b[off:], x)
}

// Rel32 patches the rel32 field at off to point at target.
// Displacement is relative to the end of the field.
func (w *Writer) Rel32(off, target int) {
	w.Rewrite32(off, int32(target-off-4))
}

// Rel8 is Rel32 for a one byte field.
func (w *Writer) Rel8(off, target int) {
	w.Rewrite8(off, int8(target-off-1))
}
