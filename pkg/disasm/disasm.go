// Package disasm renders a parsed class file as a human-readable listing:
// header, constant pool, fields, methods, and per-method bytecode.
package disasm

import (
	"fmt"
	"io"
	"strings"

	"github.com/tinyjvm/classvm/pkg/classfile"
)

// Print writes the full listing for cf to w.
func Print(w io.Writer, cf *classfile.ClassFile) {
	printHeader(w, cf)
	printConstantPool(w, cf.ConstantPool)
	printFields(w, cf)
	printMethods(w, cf)
}

func printHeader(w io.Writer, cf *classfile.ClassFile) {
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("class %s", cf.ClassName())))
	fmt.Fprintf(w, "  version: %d.%d\n", cf.MajorVersion, cf.MinorVersion)
	fmt.Fprintf(w, "  access: %s\n", accessFlagString(cf.AccessFlags, classAccessFlags))
	super := classfile.ClassName(cf.ConstantPool, cf.SuperClass)
	fmt.Fprintf(w, "  super: %s\n", super)
	if len(cf.Interfaces) > 0 {
		names := make([]string, len(cf.Interfaces))
		for i, idx := range cf.Interfaces {
			names[i] = classfile.ClassName(cf.ConstantPool, idx)
		}
		fmt.Fprintf(w, "  interfaces: %s\n", strings.Join(names, ", "))
	}
	fmt.Fprintln(w)
}

var classAccessFlags = []struct {
	mask uint16
	name string
}{
	{classfile.AccPublic, "public"},
	{classfile.AccSuper, "super"},
}

var memberAccessFlags = []struct {
	mask uint16
	name string
}{
	{classfile.AccPublic, "public"},
	{classfile.AccStatic, "static"},
	{classfile.AccNative, "native"},
}

func accessFlagString(flags uint16, table []struct {
	mask uint16
	name string
}) string {
	var names []string
	for _, f := range table {
		if flags&f.mask != 0 {
			names = append(names, f.name)
		}
	}
	if len(names) == 0 {
		return "(none)"
	}
	return strings.Join(names, " ")
}

func printConstantPool(w io.Writer, pool []classfile.ConstantPoolEntry) {
	fmt.Fprintln(w, headerStyle.Render("constant pool"))
	for i := 1; i < len(pool); i++ {
		entry := pool[i]
		if entry == nil {
			continue // the unused trailing slot of a preceding Long/Double
		}
		idx := indexStyle.Render(fmt.Sprintf("#%-3d", i))
		tag := tagMnemonic(entry.Tag())
		comment := commentStyle.Render("// " + classfile.Describe(pool, uint16(i)))
		fmt.Fprintf(w, "  %s = %-20s %s\n", idx, tag, comment)
	}
	fmt.Fprintln(w)
}

func tagMnemonic(tag uint8) string {
	switch tag {
	case classfile.TagUtf8:
		return "Utf8"
	case classfile.TagInteger:
		return "Integer"
	case classfile.TagFloat:
		return "Float"
	case classfile.TagLong:
		return "Long"
	case classfile.TagDouble:
		return "Double"
	case classfile.TagClass:
		return "Class"
	case classfile.TagString:
		return "String"
	case classfile.TagFieldref:
		return "Fieldref"
	case classfile.TagMethodref:
		return "Methodref"
	case classfile.TagInterfaceMethodref:
		return "InterfaceMethodref"
	case classfile.TagNameAndType:
		return "NameAndType"
	default:
		return fmt.Sprintf("tag(%d)", tag)
	}
}

func printFields(w io.Writer, cf *classfile.ClassFile) {
	if len(cf.Fields) == 0 {
		return
	}
	fmt.Fprintln(w, headerStyle.Render("fields"))
	for _, f := range cf.Fields {
		fmt.Fprintf(w, "  %s %s %s\n", accessFlagString(f.AccessFlags, memberAccessFlags), f.Descriptor, f.Name)
	}
	fmt.Fprintln(w)
}

func printMethods(w io.Writer, cf *classfile.ClassFile) {
	fmt.Fprintln(w, headerStyle.Render("methods"))
	for i := range cf.Methods {
		m := &cf.Methods[i]
		fmt.Fprintf(w, "  %s %s%s\n", accessFlagString(m.AccessFlags, memberAccessFlags), m.Name, m.Descriptor)
		if m.Code == nil {
			continue
		}
		printCode(w, cf.ConstantPool, m.Code)
		fmt.Fprintln(w)
	}
}

func printCode(w io.Writer, pool []classfile.ConstantPoolEntry, code *classfile.CodeAttribute) {
	fmt.Fprintf(w, "    max_stack=%d max_locals=%d\n", code.MaxStack, code.MaxLocals)
	b := code.Code
	for pc := 0; pc < len(b); {
		op := b[pc]
		info, ok := opcodeTable[op]
		if !ok {
			fmt.Fprintf(w, "    %s %s\n", indexStyle.Render(fmt.Sprintf("%4d:", pc)), mnemonicStyle.Render(hexOp(op)))
			pc++
			continue
		}

		start := pc
		pc++ // consumed opcode byte
		line := fmt.Sprintf("    %s %s", indexStyle.Render(fmt.Sprintf("%4d:", start)), mnemonicStyle.Render(info.mnemonic))

		switch info.operand {
		case operandNone:
			// no operand bytes

		case operandU8, operandU8Pool:
			operand := b[pc]
			pc++
			if info.operand == operandU8Pool {
				line += fmt.Sprintf(" #%d %s", operand, commentStyle.Render("// "+classfile.Describe(pool, uint16(operand))))
			} else {
				line += fmt.Sprintf(" %d", operand)
			}

		case operandI8:
			line += fmt.Sprintf(" %d", int8(b[pc]))
			pc++

		case operandU8Type:
			t := b[pc]
			pc++
			line += fmt.Sprintf(" %s", primitiveArrayTypeNames[t])

		case operandU16Pool:
			idx := uint16(b[pc])<<8 | uint16(b[pc+1])
			pc += 2
			line += fmt.Sprintf(" #%d %s", idx, commentStyle.Render("// "+classfile.Describe(pool, idx)))

		case operandI16Imm:
			imm := int16(uint16(b[pc])<<8 | uint16(b[pc+1]))
			pc += 2
			line += fmt.Sprintf(" %d", imm)

		case operandU16Branch:
			delta := int16(uint16(b[pc])<<8 | uint16(b[pc+1]))
			pc += 2
			target := start + int(delta)
			line += fmt.Sprintf(" %d", target)

		case operandI32Branch:
			delta := int32(uint32(b[pc])<<24 | uint32(b[pc+1])<<16 | uint32(b[pc+2])<<8 | uint32(b[pc+3]))
			pc += 4
			target := start + int(delta)
			line += fmt.Sprintf(" %d", target)
		}

		fmt.Fprintln(w, line)
	}
}

func hexOp(op byte) string {
	const hexDigits = "0123456789abcdef"
	return "0x" + string([]byte{hexDigits[op>>4], hexDigits[op&0x0F]})
}
