package vm

import (
	"testing"

	"github.com/tinyjvm/classvm/pkg/classfile"
)

func newTestInterpreter(t *testing.T) *Interpreter {
	t.Helper()
	return &Interpreter{Heap: NewHeap(), Methods: NewMethodArea(t.TempDir())}
}

// TestIdivDivision covers the quantified behavior: for y != 0, push x;
// push y; idiv leaves x/y on the stack.
func TestIdivDivision(t *testing.T) {
	interp := newTestInterpreter(t)
	frame := NewFrame(0, 4, []byte{OpIdiv}, nil, nil)
	frame.Push(17)
	frame.Push(5)

	if _, err := interp.step(frame, 0); err != nil {
		t.Fatalf("idiv: %v", err)
	}
	if got := frame.Pop(); got != 3 {
		t.Errorf("17/5: got %d, want 3", got)
	}
}

func TestIdivByZeroRaisesArithmeticException(t *testing.T) {
	interp := newTestInterpreter(t)
	frame := NewFrame(0, 4, []byte{OpIdiv}, nil, nil)
	frame.Push(1)
	frame.Push(0)

	_, err := interp.step(frame, 0)
	fault, ok := err.(*Fault)
	if !ok {
		t.Fatalf("expected a *Fault, got %v", err)
	}
	if fault.ClassName != ArithmeticException {
		t.Errorf("fault class: got %q", fault.ClassName)
	}
}

// TestDivisionByZeroWithHandler is seed scenario 3: iconst_1; iconst_0;
// idiv guarded by a catch-all handler resumes at handler_pc (whose
// return ends the frame at pc 5) with one heap-allocated
// ArithmeticException reference on the stack.
func TestDivisionByZeroWithHandler(t *testing.T) {
	interp := newTestInterpreter(t)
	code := []byte{OpIconst1, OpIconst0, OpIdiv, OpReturn, OpReturn}
	table := []classfile.ExceptionTableEntry{{StartPC: 0, EndPC: 3, HandlerPC: 4, CatchType: 0}}
	frame := NewFrame(0, 4, code, table, nil)

	if _, err := interp.runFrame(frame); err != nil {
		t.Fatalf("runFrame: %v", err)
	}
	if frame.PC != 5 {
		t.Errorf("expected the handler's return to end the frame at pc=5, got %d", frame.PC)
	}
	if frame.SP != 1 {
		t.Fatalf("operand stack: got %d words, want 1 (the exception reference)", frame.SP)
	}
	obj, err := interp.Heap.Get(frame.Stack[0])
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if obj.ClassName != ArithmeticException {
		t.Errorf("exception class: got %q, want %q", obj.ClassName, ArithmeticException)
	}
}

// TestBranchTakenLeavesLocalUnchanged and TestBranchNotTakenStoresLocal
// are seed scenario 6: a method built from "iconst_0 (or iconst_1);
// ifeq +delta; bipush 9; istore_1; return", where delta is relative to
// the ifeq opcode's own offset. Taking the branch (top == 0) skips
// "bipush 9; istore_1" entirely, landing directly on return; not taking
// it falls through and stores 9 into local 1.
//
// Layout: 0:iconst_k 1:ifeq 2-3:delta 4:bipush 5:9 6:istore_1 7:return.
// The branch target for "skip to return" is offset 7, so delta = 7-1 = 6.
func TestBranchTakenLeavesLocalUnchanged(t *testing.T) {
	interp := newTestInterpreter(t)
	code := []byte{OpIconst0, OpIfeq, 0x00, 0x06, OpBipush, 9, OpIstore1, OpReturn}
	frame := NewFrame(2, 4, code, nil, nil)
	if _, err := interp.runFrame(frame); err != nil {
		t.Fatalf("runFrame: %v", err)
	}
	if got := frame.GetLocal(1); got != 0 {
		t.Errorf("local 1: got %d, want 0 (branch taken skips bipush/istore_1)", got)
	}
}

func TestBranchNotTakenStoresLocal(t *testing.T) {
	interp := newTestInterpreter(t)
	code := []byte{OpIconst1, OpIfeq, 0x00, 0x06, OpBipush, 9, OpIstore1, OpReturn}
	frame := NewFrame(2, 4, code, nil, nil)
	if _, err := interp.runFrame(frame); err != nil {
		t.Fatalf("runFrame: %v", err)
	}
	if got := frame.GetLocal(1); got != 9 {
		t.Errorf("local 1: got %d, want 9 (branch not taken, falls through to istore_1)", got)
	}
}

// TestArrayStoreLoad is seed scenario 5.
func TestArrayStoreLoad(t *testing.T) {
	interp := newTestInterpreter(t)
	code := []byte{
		OpIconst3,      // 0: length 3
		OpNewarray, 10, // 1: int array
		OpDup,         // 3
		OpIconst0,     // 4: index 0
		OpBipush, 7,   // 5: value 7
		OpIastore,     // 7
		OpIconst0,     // 8: index 0
		OpIaload,      // 9
		OpReturn,      // 10
	}
	frame := NewFrame(0, 6, code, nil, nil)
	if _, err := interp.runFrame(frame); err != nil {
		t.Fatalf("runFrame: %v", err)
	}
}

func TestNegativeArraySize(t *testing.T) {
	interp := newTestInterpreter(t)
	frame := NewFrame(0, 4, []byte{OpNewarray, 10}, nil, nil)
	frame.Push(-1)
	_, err := interp.step(frame, 0)
	fault, ok := err.(*Fault)
	if !ok || fault.ClassName != NegativeArraySizeException {
		t.Fatalf("expected NegativeArraySizeException, got %v", err)
	}
}

func TestArrayIndexOutOfBounds(t *testing.T) {
	interp := newTestInterpreter(t)
	ref := interp.Heap.NewPrimitiveArray(10, 2)
	frame := NewFrame(0, 4, []byte{OpIaload}, nil, nil)
	frame.Push(ref)
	frame.Push(5)
	_, err := interp.step(frame, 0)
	fault, ok := err.(*Fault)
	if !ok || fault.ClassName != ArrayIndexOutOfBoundsException {
		t.Fatalf("expected ArrayIndexOutOfBoundsException, got %v", err)
	}
}

func TestNullPointerOnArrayOp(t *testing.T) {
	interp := newTestInterpreter(t)
	frame := NewFrame(0, 4, []byte{OpArraylength}, nil, nil)
	frame.Push(0) // null
	_, err := interp.step(frame, 0)
	fault, ok := err.(*Fault)
	if !ok || fault.ClassName != NullPointerException {
		t.Fatalf("expected NullPointerException, got %v", err)
	}
}

func TestLdcStringAllocatesHeapObject(t *testing.T) {
	interp := newTestInterpreter(t)
	pool := []classfile.ConstantPoolEntry{
		nil,
		&classfile.ConstantUtf8{Value: "hi"},
		&classfile.ConstantString{StringIndex: 1},
	}
	frame := NewFrame(0, 2, []byte{OpLdc, 2}, nil, pool)
	before := len(interp.Heap.objects)
	if _, err := interp.step(frame, 0); err != nil {
		t.Fatalf("ldc: %v", err)
	}
	if len(interp.Heap.objects) != before+1 {
		t.Errorf("expected exactly one heap allocation for ldc, got %d new objects", len(interp.Heap.objects)-before)
	}
	ref := frame.Pop()
	obj, err := interp.Heap.Get(ref)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if obj.StringValue() != "hi" {
		t.Errorf("string value: got %q", obj.StringValue())
	}
}

func TestUnsupportedOpcodeFails(t *testing.T) {
	interp := newTestInterpreter(t)
	frame := NewFrame(0, 0, []byte{0xFF}, nil, nil)
	_, err := interp.step(frame, 0)
	if _, ok := err.(*UnsupportedOpcodeError); !ok {
		t.Fatalf("expected UnsupportedOpcodeError, got %v", err)
	}
}

func TestLaddRoundTrip(t *testing.T) {
	interp := newTestInterpreter(t)
	frame := NewFrame(0, 4, []byte{OpLadd}, nil, nil)
	frame.PushLong(10)
	frame.PushLong(32)
	if _, err := interp.step(frame, 0); err != nil {
		t.Fatalf("ladd: %v", err)
	}
	if got := frame.PopLong(); got != 42 {
		t.Errorf("ladd: got %d, want 42", got)
	}
}

func TestBitwiseShiftMasksAmount(t *testing.T) {
	interp := newTestInterpreter(t)
	frame := NewFrame(0, 4, []byte{OpIshl}, nil, nil)
	frame.Push(1)
	frame.Push(33) // masked to 1
	if _, err := interp.step(frame, 0); err != nil {
		t.Fatalf("ishl: %v", err)
	}
	if got := frame.Pop(); got != 2 {
		t.Errorf("1<<33 masked to 1<<1: got %d, want 2", got)
	}
}
