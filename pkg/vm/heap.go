package vm

import "fmt"

// HeapObjectKind distinguishes the shapes of allocation the interpreter
// can produce.
type HeapObjectKind int

const (
	KindClassInstance HeapObjectKind = iota
	KindPrimitiveArray
	KindRefArray
	KindString
)

// classInstanceFields is the fixed field capacity of the simplified
// ClassInstance model (spec.md §4.4.4): no field layout is derived from
// the class's declared fields, just a small flat slot table addressed
// by a hash of the field name.
const classInstanceFields = 4

// HeapObject is a tagged record for one allocation: a class instance,
// a primitive or reference array, or a string literal. Data holds the
// object's fields or array elements as flat 32-bit words; for a String,
// each word holds one byte of the literal.
type HeapObject struct {
	Kind      HeapObjectKind
	ClassName string
	Size      int
	Data      []int32
}

// Heap is the simulated managed heap: a growable vector of objects,
// addressed by dense integer index. Index 0 is permanently reserved as
// the null sentinel and is never allocated to a user object.
type Heap struct {
	objects []*HeapObject
}

// NewHeap creates a heap with its null sentinel slot already reserved.
func NewHeap() *Heap {
	return &Heap{objects: []*HeapObject{nil}}
}

// Alloc appends obj and returns its heap index (always > 0).
func (h *Heap) Alloc(obj *HeapObject) int32 {
	h.objects = append(h.objects, obj)
	return int32(len(h.objects) - 1)
}

// NewClassInstance allocates a ClassInstance with the simplified fixed
// field capacity.
func (h *Heap) NewClassInstance(className string) int32 {
	return h.Alloc(&HeapObject{
		Kind:      KindClassInstance,
		ClassName: className,
		Size:      classInstanceFields,
		Data:      make([]int32, classInstanceFields),
	})
}

// NewPrimitiveArray allocates an array of the given element type code
// (spec.md §6: 4=boolean .. 11=long) and length.
func (h *Heap) NewPrimitiveArray(typeCode byte, length int) int32 {
	return h.Alloc(&HeapObject{
		Kind:      KindPrimitiveArray,
		ClassName: primitiveArrayClassName(typeCode),
		Size:      length,
		Data:      make([]int32, length),
	})
}

// NewRefArray allocates a reference array of the given element class.
func (h *Heap) NewRefArray(elementClass string, length int) int32 {
	return h.Alloc(&HeapObject{
		Kind:      KindRefArray,
		ClassName: "[L" + elementClass + ";",
		Size:      length,
		Data:      make([]int32, length),
	})
}

// NewString allocates a String object whose data words each hold one
// byte of s. No interning: every call allocates a fresh object.
func (h *Heap) NewString(s string) int32 {
	data := make([]int32, len(s))
	for i := 0; i < len(s); i++ {
		data[i] = int32(s[i])
	}
	return h.Alloc(&HeapObject{
		Kind:      KindString,
		ClassName: "java/lang/String",
		Size:      len(s),
		Data:      data,
	})
}

// Get returns the object at the given heap index, or an error if the
// index is the null sentinel or out of range.
func (h *Heap) Get(ref int32) (*HeapObject, error) {
	if ref <= 0 || int(ref) >= len(h.objects) {
		return nil, fmt.Errorf("invalid heap reference %d", ref)
	}
	return h.objects[ref], nil
}

// StringValue reconstructs the Go string held by a KindString object.
func (o *HeapObject) StringValue() string {
	b := make([]byte, len(o.Data))
	for i, w := range o.Data {
		b[i] = byte(w)
	}
	return string(b)
}

func primitiveArrayClassName(typeCode byte) string {
	switch typeCode {
	case 4:
		return "[Z"
	case 5:
		return "[C"
	case 6:
		return "[F"
	case 7:
		return "[D"
	case 8:
		return "[B"
	case 9:
		return "[S"
	case 10:
		return "[I"
	case 11:
		return "[J"
	default:
		return "[?"
	}
}

// fieldSlot maps a field name onto the fixed class-instance field table.
// This is a deliberate simplification (spec.md §4.4.4 notes the 4-word
// capacity); field layout isn't derived from the class's declared
// fields, so distinct names collide modulo classInstanceFields.
func fieldSlot(name string) int {
	var h uint32
	for i := 0; i < len(name); i++ {
		h = h*31 + uint32(name[i])
	}
	return int(h % classInstanceFields)
}
