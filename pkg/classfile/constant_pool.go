package classfile

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// parseConstantPool reads constant_pool_count-1 logical entries from r.
// The returned slice is 1-indexed: index 0 is nil. A Long or Double entry
// consumes two consecutive slots; the second is left nil.
func parseConstantPool(r io.Reader, count uint16) ([]ConstantPoolEntry, error) {
	pool := make([]ConstantPoolEntry, count)

	for i := uint16(1); i < count; i++ {
		var tag uint8
		if err := binary.Read(r, binary.BigEndian, &tag); err != nil {
			return nil, fmt.Errorf("reading constant pool tag at index %d: %w", i, err)
		}

		switch tag {
		case TagUtf8:
			var length uint16
			if err := binary.Read(r, binary.BigEndian, &length); err != nil {
				return nil, fmt.Errorf("reading Utf8 length at index %d: %w", i, err)
			}
			bytes := make([]byte, length)
			if _, err := io.ReadFull(r, bytes); err != nil {
				return nil, fmt.Errorf("reading Utf8 bytes at index %d: %w", i, err)
			}
			pool[i] = &ConstantUtf8{Value: string(bytes)}

		case TagInteger:
			var val int32
			if err := binary.Read(r, binary.BigEndian, &val); err != nil {
				return nil, fmt.Errorf("reading Integer at index %d: %w", i, err)
			}
			pool[i] = &ConstantInteger{Value: val}

		case TagFloat:
			var bits uint32
			if err := binary.Read(r, binary.BigEndian, &bits); err != nil {
				return nil, fmt.Errorf("reading Float at index %d: %w", i, err)
			}
			pool[i] = &ConstantFloat{Value: math.Float32frombits(bits)}

		case TagLong:
			var bits uint64
			if err := binary.Read(r, binary.BigEndian, &bits); err != nil {
				return nil, fmt.Errorf("reading Long at index %d: %w", i, err)
			}
			pool[i] = &ConstantLong{Value: int64(bits)}
			i++ // occupies the next slot too

		case TagDouble:
			var bits uint64
			if err := binary.Read(r, binary.BigEndian, &bits); err != nil {
				return nil, fmt.Errorf("reading Double at index %d: %w", i, err)
			}
			pool[i] = &ConstantDouble{Value: math.Float64frombits(bits)}
			i++ // occupies the next slot too

		case TagClass:
			var nameIndex uint16
			if err := binary.Read(r, binary.BigEndian, &nameIndex); err != nil {
				return nil, fmt.Errorf("reading Class at index %d: %w", i, err)
			}
			pool[i] = &ConstantClass{NameIndex: nameIndex}

		case TagString:
			var stringIndex uint16
			if err := binary.Read(r, binary.BigEndian, &stringIndex); err != nil {
				return nil, fmt.Errorf("reading String at index %d: %w", i, err)
			}
			pool[i] = &ConstantString{StringIndex: stringIndex}

		case TagFieldref:
			classIndex, natIndex, err := readRefPair(r)
			if err != nil {
				return nil, fmt.Errorf("reading Fieldref at index %d: %w", i, err)
			}
			pool[i] = &ConstantFieldref{ClassIndex: classIndex, NameAndTypeIndex: natIndex}

		case TagMethodref:
			classIndex, natIndex, err := readRefPair(r)
			if err != nil {
				return nil, fmt.Errorf("reading Methodref at index %d: %w", i, err)
			}
			pool[i] = &ConstantMethodref{ClassIndex: classIndex, NameAndTypeIndex: natIndex}

		case TagInterfaceMethodref:
			classIndex, natIndex, err := readRefPair(r)
			if err != nil {
				return nil, fmt.Errorf("reading InterfaceMethodref at index %d: %w", i, err)
			}
			pool[i] = &ConstantInterfaceMethodref{ClassIndex: classIndex, NameAndTypeIndex: natIndex}

		case TagNameAndType:
			nameIndex, descIndex, err := readRefPair(r)
			if err != nil {
				return nil, fmt.Errorf("reading NameAndType at index %d: %w", i, err)
			}
			pool[i] = &ConstantNameAndType{NameIndex: nameIndex, DescriptorIndex: descIndex}

		default:
			return nil, fmt.Errorf("%w: unknown constant pool tag %d at index %d", ErrMalformedClassFile, tag, i)
		}
	}

	return pool, nil
}

func readRefPair(r io.Reader) (uint16, uint16, error) {
	var a, b uint16
	if err := binary.Read(r, binary.BigEndian, &a); err != nil {
		return 0, 0, err
	}
	if err := binary.Read(r, binary.BigEndian, &b); err != nil {
		return 0, 0, err
	}
	return a, b, nil
}

// The resolvers below never abort: an out-of-range index, a nil slot, or a
// tag mismatch yields a sentinel string instead of an error, so disassembly
// and diagnostic messages can proceed over partially invalid pools.

const sentinelUnresolved = "<invalid>"

// Utf8 returns the Utf8 bytes at pool[i], or a sentinel if i is 0,
// out of range, or not a Utf8 entry.
func Utf8(pool []ConstantPoolEntry, i uint16) string {
	if int(i) >= len(pool) || pool[i] == nil {
		return sentinelUnresolved
	}
	u, ok := pool[i].(*ConstantUtf8)
	if !ok {
		return sentinelUnresolved
	}
	return u.Value
}

// ClassName returns the internal name referenced by the Class entry at
// pool[i], or a sentinel if the entry is missing or not a Class.
func ClassName(pool []ConstantPoolEntry, i uint16) string {
	if int(i) >= len(pool) || pool[i] == nil {
		return sentinelUnresolved
	}
	c, ok := pool[i].(*ConstantClass)
	if !ok {
		return sentinelUnresolved
	}
	return Utf8(pool, c.NameIndex)
}

// NameAndType resolves a CONSTANT_NameAndType entry to its (name,
// descriptor) pair.
func NameAndType(pool []ConstantPoolEntry, i uint16) (name, descriptor string) {
	if int(i) >= len(pool) || pool[i] == nil {
		return sentinelUnresolved, sentinelUnresolved
	}
	nat, ok := pool[i].(*ConstantNameAndType)
	if !ok {
		return sentinelUnresolved, sentinelUnresolved
	}
	return Utf8(pool, nat.NameIndex), Utf8(pool, nat.DescriptorIndex)
}

// RefInfo holds a resolved Fieldref/Methodref/InterfaceMethodref triple.
type RefInfo struct {
	ClassName  string
	MemberName string
	Descriptor string
}

// ResolveRef resolves whichever of Fieldref/Methodref/InterfaceMethodref
// sits at pool[i]. Unresolvable entries yield sentinel fields, never an
// error.
func ResolveRef(pool []ConstantPoolEntry, i uint16) RefInfo {
	if int(i) >= len(pool) || pool[i] == nil {
		return RefInfo{sentinelUnresolved, sentinelUnresolved, sentinelUnresolved}
	}

	var classIndex, natIndex uint16
	switch e := pool[i].(type) {
	case *ConstantFieldref:
		classIndex, natIndex = e.ClassIndex, e.NameAndTypeIndex
	case *ConstantMethodref:
		classIndex, natIndex = e.ClassIndex, e.NameAndTypeIndex
	case *ConstantInterfaceMethodref:
		classIndex, natIndex = e.ClassIndex, e.NameAndTypeIndex
	default:
		return RefInfo{sentinelUnresolved, sentinelUnresolved, sentinelUnresolved}
	}

	name, desc := NameAndType(pool, natIndex)
	return RefInfo{
		ClassName:  ClassName(pool, classIndex),
		MemberName: name,
		Descriptor: desc,
	}
}

// Describe renders a human-readable description of pool[i] by tag, as
// used by the disassembler's trailing comment column and by interpreter
// diagnostics.
func Describe(pool []ConstantPoolEntry, i uint16) string {
	if int(i) >= len(pool) || pool[i] == nil {
		return sentinelUnresolved
	}

	switch e := pool[i].(type) {
	case *ConstantUtf8:
		return e.Value
	case *ConstantInteger:
		return fmt.Sprintf("%d", e.Value)
	case *ConstantFloat:
		return fmt.Sprintf("%gf", e.Value)
	case *ConstantLong:
		return fmt.Sprintf("%dL", e.Value)
	case *ConstantDouble:
		return fmt.Sprintf("%g", e.Value)
	case *ConstantClass:
		return ClassName(pool, i)
	case *ConstantString:
		return fmt.Sprintf("%q", Utf8(pool, e.StringIndex))
	case *ConstantNameAndType:
		name, desc := NameAndType(pool, i)
		return name + ":" + desc
	case *ConstantFieldref, *ConstantMethodref, *ConstantInterfaceMethodref:
		ref := ResolveRef(pool, i)
		return fmt.Sprintf("%s.%q:%s", ref.ClassName, ref.MemberName, ref.Descriptor)
	default:
		return sentinelUnresolved
	}
}
