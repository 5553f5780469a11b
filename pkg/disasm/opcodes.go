package disasm

import "github.com/tinyjvm/classvm/pkg/vm"

// operandKind classifies how many bytes of in-stream operand an opcode
// consumes and how the disassembler should render them.
type operandKind int

const (
	operandNone operandKind = iota
	operandU8     // u1 local variable slot index
	operandI8     // u1 signed immediate (bipush)
	operandU8Pool // u1 constant-pool index (ldc)
	operandU16Pool  // u2 constant-pool index: resolve and print a comment
	operandU16Branch // u2 signed branch delta, relative to this opcode's offset
	operandI32Branch // u4 signed branch delta (goto_w)
	operandU8Type    // u1 primitive array type code (newarray)
	operandI16Imm    // u2 signed immediate value (sipush), not a branch or pool index
)

type opcodeInfo struct {
	mnemonic string
	operand  operandKind
}

var opcodeTable = map[byte]opcodeInfo{
	vm.OpAconstNull: {"aconst_null", operandNone},
	vm.OpIconstM1:   {"iconst_m1", operandNone},
	vm.OpIconst0:    {"iconst_0", operandNone},
	vm.OpIconst1:    {"iconst_1", operandNone},
	vm.OpIconst2:    {"iconst_2", operandNone},
	vm.OpIconst3:    {"iconst_3", operandNone},
	vm.OpIconst4:    {"iconst_4", operandNone},
	vm.OpIconst5:    {"iconst_5", operandNone},
	vm.OpLconst0:    {"lconst_0", operandNone},
	vm.OpLconst1:    {"lconst_1", operandNone},
	vm.OpBipush:     {"bipush", operandI8},
	vm.OpSipush:     {"sipush", operandI16Imm},
	vm.OpLdc:        {"ldc", operandU8Pool},
	vm.OpLdc2W:      {"ldc2_w", operandU16Pool},
	vm.OpIload:      {"iload", operandU8},
	vm.OpLload:      {"lload", operandU8},
	vm.OpAload:      {"aload", operandU8},
	vm.OpIload0:     {"iload_0", operandNone},
	vm.OpIload1:     {"iload_1", operandNone},
	vm.OpIload2:     {"iload_2", operandNone},
	vm.OpIload3:     {"iload_3", operandNone},
	vm.OpLload0:     {"lload_0", operandNone},
	vm.OpLload1:     {"lload_1", operandNone},
	vm.OpLload2:     {"lload_2", operandNone},
	vm.OpLload3:     {"lload_3", operandNone},
	vm.OpAload0:      {"aload_0", operandNone},
	vm.OpAload1:      {"aload_1", operandNone},
	vm.OpAload2:      {"aload_2", operandNone},
	vm.OpAload3:      {"aload_3", operandNone},
	vm.OpIaload:      {"iaload", operandNone},
	vm.OpIstore:      {"istore", operandU8},
	vm.OpLstore:      {"lstore", operandU8},
	vm.OpAstore:      {"astore", operandU8},
	vm.OpIstore0:     {"istore_0", operandNone},
	vm.OpIstore1:     {"istore_1", operandNone},
	vm.OpIstore2:     {"istore_2", operandNone},
	vm.OpIstore3:     {"istore_3", operandNone},
	vm.OpLstore0:     {"lstore_0", operandNone},
	vm.OpLstore1:     {"lstore_1", operandNone},
	vm.OpLstore2:     {"lstore_2", operandNone},
	vm.OpLstore3:     {"lstore_3", operandNone},
	vm.OpAstore0:     {"astore_0", operandNone},
	vm.OpAstore1:     {"astore_1", operandNone},
	vm.OpAstore2:     {"astore_2", operandNone},
	vm.OpAstore3:     {"astore_3", operandNone},
	vm.OpIastore:     {"iastore", operandNone},
	vm.OpPop:         {"pop", operandNone},
	vm.OpPop2:        {"pop2", operandNone},
	vm.OpDup:         {"dup", operandNone},
	vm.OpIadd:        {"iadd", operandNone},
	vm.OpLadd:        {"ladd", operandNone},
	vm.OpIsub:        {"isub", operandNone},
	vm.OpImul:        {"imul", operandNone},
	vm.OpIdiv:        {"idiv", operandNone},
	vm.OpIrem:        {"irem", operandNone},
	vm.OpIneg:        {"ineg", operandNone},
	vm.OpIshl:        {"ishl", operandNone},
	vm.OpIshr:        {"ishr", operandNone},
	vm.OpIand:        {"iand", operandNone},
	vm.OpIor:         {"ior", operandNone},
	vm.OpIxor:        {"ixor", operandNone},
	vm.OpIfeq:        {"ifeq", operandU16Branch},
	vm.OpIfne:        {"ifne", operandU16Branch},
	vm.OpIflt:        {"iflt", operandU16Branch},
	vm.OpIfge:        {"ifge", operandU16Branch},
	vm.OpIfgt:        {"ifgt", operandU16Branch},
	vm.OpIfle:        {"ifle", operandU16Branch},
	vm.OpIfIcmpeq:    {"if_icmpeq", operandU16Branch},
	vm.OpIfIcmpne:    {"if_icmpne", operandU16Branch},
	vm.OpIfIcmplt:    {"if_icmplt", operandU16Branch},
	vm.OpIfIcmpge:    {"if_icmpge", operandU16Branch},
	vm.OpIfIcmpgt:    {"if_icmpgt", operandU16Branch},
	vm.OpIfIcmple:    {"if_icmple", operandU16Branch},
	vm.OpGoto:        {"goto", operandU16Branch},
	vm.OpGotoW:       {"goto_w", operandI32Branch},
	vm.OpIreturn:     {"ireturn", operandNone},
	vm.OpLreturn:     {"lreturn", operandNone},
	vm.OpAreturn:     {"areturn", operandNone},
	vm.OpReturn:      {"return", operandNone},
	vm.OpGetstatic:   {"getstatic", operandU16Pool},
	vm.OpGetfield:    {"getfield", operandU16Pool},
	vm.OpPutfield:    {"putfield", operandU16Pool},
	vm.OpInvokevirtual: {"invokevirtual", operandU16Pool},
	vm.OpInvokespecial: {"invokespecial", operandU16Pool},
	vm.OpInvokestatic:  {"invokestatic", operandU16Pool},
	vm.OpNew:           {"new", operandU16Pool},
	vm.OpNewarray:      {"newarray", operandU8Type},
	vm.OpAnewarray:     {"anewarray", operandU16Pool},
	vm.OpArraylength:   {"arraylength", operandNone},
}

var primitiveArrayTypeNames = map[byte]string{
	4: "boolean", 5: "char", 6: "float", 7: "double",
	8: "byte", 9: "short", 10: "int", 11: "long",
}
