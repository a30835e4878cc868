package tp

type (
	// Type is a primitive machine type.
	Type uint8
)

const (
	Void Type = iota
	I8
	I16
	I32
	I64
	F32
	F64
	Ptr
)

var names = [...]string{
	Void: "void",
	I8:   "i8",
	I16:  "i16",
	I32:  "i32",
	I64:  "i64",
	F32:  "f32",
	F64:  "f64",
	Ptr:  "ptr",
}

func (t Type) IsFloat() bool {
	return t == F32 || t == F64
}

// IsInt reports signed integer kinds only.
func (t Type) IsInt() bool {
	return t >= I8 && t <= I64
}

func (t Type) IsPtr() bool {
	return t == Ptr
}

func (t Type) IsVoid() bool {
	return t == Void
}

// Size is the size of the type in bytes.
func (t Type) Size() int {
	switch t {
	case I8:
		return 1
	case I16:
		return 2
	case I32, F32:
		return 4
	case I64, F64, Ptr:
		return 8
	default:
		return 0
	}
}

// Bits is the width of the type in bits.
func (t Type) Bits() int {
	return t.Size() * 8
}

func (t Type) Valid() bool {
	return int(t) < len(names)
}

func (t Type) String() string {
	if !t.Valid() {
		return "type?"
	}

	return names[t]
}
