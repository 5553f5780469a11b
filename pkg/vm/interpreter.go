package vm

import (
	"fmt"
	"io"
	"os"

	"github.com/tinyjvm/classvm/pkg/classfile"
	"github.com/tinyjvm/classvm/pkg/native"
)

// maxCallDepth bounds recursive invokevirtual/invokestatic dispatch so a
// runaway or self-recursive test class fails loudly instead of blowing
// the Go call stack.
const maxCallDepth = 256

// Interpreter owns the heap, the method area, and the print sink shared
// across every frame it runs (spec.md §5 "Shared resources"). It is not
// safe for concurrent use: spec.md §5 specifies a single thread of
// execution with no preemption.
type Interpreter struct {
	Heap    *Heap
	Methods *MethodArea
	Out     *native.PrintStream

	depth int
}

// NewInterpreter creates an interpreter that writes print-sink output to
// out and loads sibling classes from dir.
func NewInterpreter(dir string, out io.Writer) *Interpreter {
	if out == nil {
		out = os.Stdout
	}
	return &Interpreter{
		Heap:    NewHeap(),
		Methods: NewMethodArea(dir),
		Out:     &native.PrintStream{Writer: out},
	}
}

// Run locates and executes cf's method by name and descriptor to
// completion, per spec.md §4.4.1/§4.4.8. cf is registered with the
// method area under its own name so invokevirtual/invokestatic dispatch
// can find sibling methods declared on it.
func (interp *Interpreter) Run(cf *classfile.ClassFile, methodName, descriptor string) error {
	interp.Methods.Register(cf)
	method := cf.FindMethod(methodName, descriptor)
	if method == nil || method.Code == nil {
		return fmt.Errorf("method %s%s not found or has no code in %s", methodName, descriptor, cf.ClassName())
	}
	frame := NewFrame(method.Code.MaxLocals, method.Code.MaxStack, method.Code.Code, method.Code.ExceptionTable, cf.ConstantPool)
	_, err := interp.runFrame(frame)
	return err
}

// runFrame executes frame's bytecode to completion: a return ends it, an
// unhandled fault or an unsupported opcode propagates as an error.
//
// Fault handling loop (spec.md §4.4.7/§4.4.8): each opcode's starting pc
// is captured before dispatch so a raised Fault carries the faulting
// instruction's own offset, not the next one. On a Fault, the frame's
// exception table is searched; a match clears the operand stack, pushes
// a freshly allocated exception object, and resumes at handler_pc. No
// match is fatal for this frame.
func (interp *Interpreter) runFrame(frame *Frame) (execResult, error) {
	interp.depth++
	defer func() { interp.depth-- }()
	if interp.depth > maxCallDepth {
		return execResult{}, fmt.Errorf("call depth exceeded %d: probable runaway recursion", maxCallDepth)
	}

	for frame.PC < len(frame.Code) {
		faultPC := frame.PC
		result, err := interp.step(frame, faultPC)
		if err != nil {
			fault, ok := err.(*Fault)
			if !ok {
				return execResult{}, err
			}
			handlerPC, found := FindHandler(frame.ExceptionTable, frame.Pool, faultPC, fault.ClassName)
			if !found {
				return execResult{}, fault
			}
			frame.SP = 0
			frame.Push(interp.Heap.NewClassInstance(fault.ClassName))
			frame.PC = handlerPC
			continue
		}
		if result.returned {
			return result, nil
		}
	}
	return execResult{}, nil
}

func classfileClassName(pool []classfile.ConstantPoolEntry, index uint16) string {
	return classfile.ClassName(pool, index)
}

// execLdc implements `ldc`: Integer constants push their value directly;
// String constants allocate a fresh heap String each time (spec.md
// "Quantified behaviors": no interning required).
func (interp *Interpreter) execLdc(frame *Frame, index uint16) error {
	if int(index) >= len(frame.Pool) || frame.Pool[index] == nil {
		frame.Push(0)
		return nil
	}
	switch entry := frame.Pool[index].(type) {
	case *classfile.ConstantInteger:
		frame.Push(entry.Value)
	case *classfile.ConstantString:
		s := classfile.Utf8(frame.Pool, entry.StringIndex)
		frame.Push(interp.Heap.NewString(s))
	default:
		frame.Push(0)
	}
	return nil
}

// execLdc2W implements `ldc2_w`: Long and Double constants, pushed as
// two stack words.
func (interp *Interpreter) execLdc2W(frame *Frame, index uint16) error {
	if int(index) >= len(frame.Pool) || frame.Pool[index] == nil {
		frame.PushLong(0)
		return nil
	}
	switch entry := frame.Pool[index].(type) {
	case *classfile.ConstantLong:
		frame.PushLong(entry.Value)
	case *classfile.ConstantDouble:
		frame.PushLong(float64ToBits(entry.Value))
	default:
		frame.PushLong(0)
	}
	return nil
}

// execGetfield implements `getfield`: read one word from the receiver's
// fixed-capacity field table, slotted by a hash of the field's name.
func (interp *Interpreter) execGetfield(frame *Frame, index uint16, faultPC int) error {
	ref := frame.Pop()
	obj, err := interp.Heap.Get(ref)
	if err != nil {
		return newFault(faultPC, NullPointerException, "getfield on null reference")
	}
	fieldName, _ := classfile.NameAndType(frame.Pool, fieldrefNameAndTypeIndex(frame.Pool, index))
	frame.Push(obj.Data[fieldSlot(fieldName)])
	return nil
}

// execPutfield implements `putfield`.
func (interp *Interpreter) execPutfield(frame *Frame, index uint16, faultPC int) error {
	value := frame.Pop()
	ref := frame.Pop()
	obj, err := interp.Heap.Get(ref)
	if err != nil {
		return newFault(faultPC, NullPointerException, "putfield on null reference")
	}
	fieldName, _ := classfile.NameAndType(frame.Pool, fieldrefNameAndTypeIndex(frame.Pool, index))
	obj.Data[fieldSlot(fieldName)] = value
	return nil
}

func fieldrefNameAndTypeIndex(pool []classfile.ConstantPoolEntry, index uint16) uint16 {
	if int(index) >= len(pool) {
		return 0
	}
	if fr, ok := pool[index].(*classfile.ConstantFieldref); ok {
		return fr.NameAndTypeIndex
	}
	return 0
}

// isPrintSink reports whether a resolved method reference is the
// recognized host print target (spec.md §4.4.5/§6 "Host sink").
func isPrintSink(ref classfile.RefInfo) bool {
	return ref.ClassName == "java/io/PrintStream" && ref.MemberName == "println"
}

// emit writes a println-sink argument to the host output stream: String
// references emit their bytes, anything else emits its int32 value.
func (interp *Interpreter) emit(value int32) {
	if obj, err := interp.Heap.Get(value); err == nil && obj.Kind == KindString {
		interp.Out.Println(obj.StringValue())
		return
	}
	interp.Out.Println(value)
}

// execInvokestatic implements `invokestatic` (spec.md §4.4.5). The
// recognized print sink emits its argument; every other static target
// has its descriptor's argument words popped and is run through
// invokeUserMethod, which stubs it when it cannot be resolved.
func (interp *Interpreter) execInvokestatic(frame *Frame, index uint16, faultPC int) (execResult, error) {
	ref := classfile.ResolveRef(frame.Pool, index)
	d := ParseDescriptor(ref.Descriptor)
	if isPrintSink(ref) {
		arg := frame.Pop()
		interp.emit(arg)
		return execResult{}, nil
	}
	args := make([]int32, d.ParamWords)
	for i := d.ParamWords - 1; i >= 0; i-- {
		args[i] = frame.Pop()
	}
	result, err := interp.invokeUserMethod(ref, d, args, faultPC)
	if err != nil {
		return execResult{}, err
	}
	if result.returnWords >= 1 {
		frame.Push(result.retLow)
	}
	if result.returnWords == 2 {
		frame.Push(result.retHigh)
	}
	return execResult{}, nil
}

// execInvokespecial implements `invokespecial`: constructor/super-call
// chaining in the simplified model reduces to consuming the receiver and
// its arguments (spec.md §4.4.5 "sufficient for constructor chaining").
func (interp *Interpreter) execInvokespecial(frame *Frame, index uint16) {
	ref := classfile.ResolveRef(frame.Pool, index)
	d := ParseDescriptor(ref.Descriptor)
	for i := 0; i < d.ParamWords; i++ {
		frame.Pop()
	}
	frame.Pop() // receiver
}

// execInvokevirtual implements `invokevirtual` (spec.md §4.4.5). The
// print sink is special-cased as with invokestatic. For every other
// target: count the descriptor's argument stack-slot width (not its
// logical parameter count, since J/D occupy two slots each — the
// faithful extension over the simplified source's per-parameter
// counting noted in spec.md §9), locate the receiver beneath those
// words, fail with NullPointerException if it is null, resolve its
// runtime class via the method area, and push a nested frame for the
// matching method there. The outer loop resumes with the callee's
// return value already on the stack.
func (interp *Interpreter) execInvokevirtual(frame *Frame, index uint16, faultPC int) (execResult, error) {
	ref := classfile.ResolveRef(frame.Pool, index)
	d := ParseDescriptor(ref.Descriptor)

	if isPrintSink(ref) {
		arg := frame.Pop()
		frame.Pop() // receiver (the print-sink reference itself)
		interp.emit(arg)
		return execResult{}, nil
	}

	receiverPos := frame.SP - 1 - d.ParamWords
	if receiverPos < 0 {
		return execResult{}, newFault(faultPC, VerifyError, "operand stack underflow locating invokevirtual receiver")
	}
	receiver := frame.Stack[receiverPos]

	obj, err := interp.Heap.Get(receiver)
	if err != nil {
		return execResult{}, newFault(faultPC, NullPointerException, "invokevirtual on null receiver")
	}

	args := make([]int32, d.ParamWords)
	for i := d.ParamWords - 1; i >= 0; i-- {
		args[i] = frame.Pop()
	}
	frame.Pop() // receiver

	target, err := interp.Methods.Load(obj.ClassName)
	if err != nil {
		return execResult{}, nil // unresolvable runtime class: degrade silently, as with a stubbed static
	}
	method := target.FindMethod(ref.MemberName, ref.Descriptor)
	if method == nil || method.Code == nil {
		return execResult{}, nil
	}

	callee := NewFrame(method.Code.MaxLocals, method.Code.MaxStack, method.Code.Code, method.Code.ExceptionTable, target.ConstantPool)
	callee.SetLocal(0, receiver)
	local := 1
	for _, a := range args {
		callee.SetLocal(local, a)
		local++
	}

	result, err := interp.runFrame(callee)
	if err != nil {
		return execResult{}, err
	}
	if result.returnWords >= 1 {
		frame.Push(result.retLow)
	}
	if result.returnWords == 2 {
		frame.Push(result.retHigh)
	}
	return execResult{}, nil
}

// invokeUserMethod resolves a static target against the method area and
// runs it as a nested frame with args in locals 0, 1, ...; any target
// that can't be resolved (no matching class/method on the simplified
// classpath) is stubbed, as spec.md §4.4.5 describes for non-sink statics.
func (interp *Interpreter) invokeUserMethod(ref classfile.RefInfo, d Descriptor, args []int32, faultPC int) (execResult, error) {
	target, err := interp.Methods.Load(ref.ClassName)
	if err != nil {
		return execResult{}, nil
	}
	method := target.FindMethod(ref.MemberName, ref.Descriptor)
	if method == nil || method.Code == nil {
		return execResult{}, nil
	}
	callee := NewFrame(method.Code.MaxLocals, method.Code.MaxStack, method.Code.Code, method.Code.ExceptionTable, target.ConstantPool)
	for i, a := range args {
		callee.SetLocal(i, a)
	}
	return interp.runFrame(callee)
}
