package vm

import (
	"fmt"

	"github.com/tinyjvm/classvm/pkg/classfile"
)

// Frame is an activation record: a local-variable array and an operand
// stack of 32-bit words, a program counter, and non-owning borrows of
// the method's code, exception table, and owning class's constant pool
// (spec.md §3 "Frame"). Category-2 values (long, double) occupy two
// consecutive words in both locals and the operand stack.
type Frame struct {
	Locals         []int32
	Stack          []int32
	SP             int
	Code           []byte
	PC             int
	ExceptionTable []classfile.ExceptionTableEntry
	Pool           []classfile.ConstantPoolEntry
}

// NewFrame allocates a frame with zeroed locals and a reserved-capacity
// operand stack, per spec.md §4.4.1.
func NewFrame(maxLocals, maxStack uint16, code []byte, exceptionTable []classfile.ExceptionTableEntry, pool []classfile.ConstantPoolEntry) *Frame {
	return &Frame{
		Locals:         make([]int32, maxLocals),
		Stack:          make([]int32, maxStack),
		SP:             0,
		Code:           code,
		PC:             0,
		ExceptionTable: exceptionTable,
		Pool:           pool,
	}
}

// Push pushes one word (int, float bits, or heap reference).
func (f *Frame) Push(v int32) {
	if f.SP >= len(f.Stack) {
		panic(fmt.Sprintf("operand stack overflow: SP=%d, max=%d", f.SP, len(f.Stack)))
	}
	f.Stack[f.SP] = v
	f.SP++
}

// Pop pops one word.
func (f *Frame) Pop() int32 {
	if f.SP <= 0 {
		panic("operand stack underflow: SP=0")
	}
	f.SP--
	return f.Stack[f.SP]
}

// PushLong pushes a category-2 value as (low, high), so the high word
// ends up on top — spec.md §4.4.2.
func (f *Frame) PushLong(v int64) {
	f.Push(int32(uint64(v) & 0xFFFFFFFF))
	f.Push(int32(uint64(v) >> 32))
}

// PopLong pops a category-2 value, reading (high, low) off the stack
// and reconstructing via (high<<32)|low.
func (f *Frame) PopLong() int64 {
	high := f.Pop()
	low := f.Pop()
	return int64(uint64(uint32(high))<<32 | uint64(uint32(low)))
}

// GetLocal returns the word at the given local slot.
func (f *Frame) GetLocal(index int) int32 {
	if index < 0 || index >= len(f.Locals) {
		panic(fmt.Sprintf("local variable index out of range: index=%d, max=%d", index, len(f.Locals)))
	}
	return f.Locals[index]
}

// SetLocal sets the word at the given local slot.
func (f *Frame) SetLocal(index int, v int32) {
	if index < 0 || index >= len(f.Locals) {
		panic(fmt.Sprintf("local variable index out of range: index=%d, max=%d", index, len(f.Locals)))
	}
	f.Locals[index] = v
}

// GetLocalLong reads a category-2 local occupying index and index+1.
func (f *Frame) GetLocalLong(index int) int64 {
	low := f.GetLocal(index)
	high := f.GetLocal(index + 1)
	return int64(uint64(uint32(high))<<32 | uint64(uint32(low)))
}

// SetLocalLong writes a category-2 local occupying index and index+1.
func (f *Frame) SetLocalLong(index int, v int64) {
	f.SetLocal(index, int32(uint64(v)&0xFFFFFFFF))
	f.SetLocal(index+1, int32(uint64(v)>>32))
}

// ReadU8 reads a uint8 operand and advances PC.
func (f *Frame) ReadU8() uint8 {
	val := f.Code[f.PC]
	f.PC++
	return val
}

// ReadI8 reads an int8 operand and advances PC.
func (f *Frame) ReadI8() int8 {
	val := int8(f.Code[f.PC])
	f.PC++
	return val
}

// ReadU16 reads a uint16 operand (big-endian) and advances PC by 2.
func (f *Frame) ReadU16() uint16 {
	val := uint16(f.Code[f.PC])<<8 | uint16(f.Code[f.PC+1])
	f.PC += 2
	return val
}

// ReadI16 reads an int16 operand (big-endian) and advances PC by 2.
func (f *Frame) ReadI16() int16 {
	val := int16(f.Code[f.PC])<<8 | int16(f.Code[f.PC+1])
	f.PC += 2
	return val
}

// ReadI32 reads a signed 32-bit operand (big-endian) and advances PC by 4.
func (f *Frame) ReadI32() int32 {
	val := int32(f.Code[f.PC])<<24 | int32(f.Code[f.PC+1])<<16 | int32(f.Code[f.PC+2])<<8 | int32(f.Code[f.PC+3])
	f.PC += 4
	return val
}
