package vm

import (
	"fmt"

	"github.com/tinyjvm/classvm/pkg/classfile"
)

// Fault is a runtime exception raised by an instruction during
// execution (spec.md §4.4.7): divide by zero, a null dereference, an
// out-of-bounds array access, or a negative array length. A Fault
// carries the class name the interpreter uses to search a method's
// exception table, plus the program counter where it was raised.
type Fault struct {
	ClassName string
	Message   string
	PC        int
}

func (f *Fault) Error() string {
	return fmt.Sprintf("%s at pc=%d: %s", f.ClassName, f.PC, f.Message)
}

// Sentinel fault class names, mirroring the small fixed set of runtime
// exceptions spec.md §4.4.7 calls out.
const (
	ArithmeticException            = "java/lang/ArithmeticException"
	NullPointerException           = "java/lang/NullPointerException"
	ArrayIndexOutOfBoundsException = "java/lang/ArrayIndexOutOfBoundsException"
	NegativeArraySizeException     = "java/lang/NegativeArraySizeException"
	VerifyError                    = "java/lang/VerifyError"
)

func newFault(pc int, className, format string, args ...interface{}) *Fault {
	return &Fault{ClassName: className, Message: fmt.Sprintf(format, args...), PC: pc}
}

// FindHandler searches a method's exception table for the first entry
// whose half-open [StartPC, EndPC) range contains faultPC and whose
// catch type either matches the fault's class exactly or is the
// catch-all (CatchType == 0), per spec.md §4.4.7. Table order is search
// order: the first matching entry wins.
func FindHandler(table []classfile.ExceptionTableEntry, pool []classfile.ConstantPoolEntry, faultPC int, faultClass string) (handlerPC int, found bool) {
	for _, e := range table {
		if faultPC < int(e.StartPC) || faultPC >= int(e.EndPC) {
			continue
		}
		if e.CatchType == 0 {
			return int(e.HandlerPC), true
		}
		if classfile.ClassName(pool, e.CatchType) == faultClass {
			return int(e.HandlerPC), true
		}
	}
	return 0, false
}
