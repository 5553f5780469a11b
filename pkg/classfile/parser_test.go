package classfile

import (
	"bytes"
	"encoding/binary"
	"path/filepath"
	"testing"
)

// classBuilder assembles a minimal, well-formed class file byte stream
// for tests, since no compiled .class fixtures are available here.
type classBuilder struct {
	buf  bytes.Buffer
	pool [][]byte // raw tag+payload per entry, index 0 is a placeholder
}

func newClassBuilder() *classBuilder {
	return &classBuilder{pool: [][]byte{nil}}
}

func (b *classBuilder) addUtf8(s string) uint16 {
	var entry bytes.Buffer
	entry.WriteByte(TagUtf8)
	binary.Write(&entry, binary.BigEndian, uint16(len(s)))
	entry.WriteString(s)
	b.pool = append(b.pool, entry.Bytes())
	return uint16(len(b.pool) - 1)
}

func (b *classBuilder) addClass(nameIdx uint16) uint16 {
	var entry bytes.Buffer
	entry.WriteByte(TagClass)
	binary.Write(&entry, binary.BigEndian, nameIdx)
	b.pool = append(b.pool, entry.Bytes())
	return uint16(len(b.pool) - 1)
}

// methodSpec describes one method to bake into the class for a test.
type methodSpec struct {
	name, descriptor string
	maxStack  uint16
	maxLocals uint16
	code      []byte
}

// build renders the constant pool plus a class carrying the given
// methods, with super_class 0 (the root object) and no fields,
// interfaces, or class attributes.
func (b *classBuilder) build(thisName string, methods []methodSpec) []byte {
	thisNameIdx := b.addUtf8(thisName)
	thisClassIdx := b.addClass(thisNameIdx)
	codeAttrNameIdx := b.addUtf8("Code")

	type builtMethod struct {
		nameIdx, descIdx uint16
		spec             methodSpec
	}
	built := make([]builtMethod, len(methods))
	for i, m := range methods {
		built[i] = builtMethod{
			nameIdx: b.addUtf8(m.name),
			descIdx: b.addUtf8(m.descriptor),
			spec:    m,
		}
	}

	var out bytes.Buffer
	binary.Write(&out, binary.BigEndian, uint32(classMagic))
	binary.Write(&out, binary.BigEndian, uint16(0)) // minor
	binary.Write(&out, binary.BigEndian, uint16(61)) // major

	binary.Write(&out, binary.BigEndian, uint16(len(b.pool))) // cp_count
	for _, entry := range b.pool[1:] {
		out.Write(entry)
	}

	binary.Write(&out, binary.BigEndian, uint16(AccPublic|AccSuper)) // access_flags
	binary.Write(&out, binary.BigEndian, thisClassIdx)               // this_class
	binary.Write(&out, binary.BigEndian, uint16(0))                  // super_class
	binary.Write(&out, binary.BigEndian, uint16(0))                  // interfaces_count
	binary.Write(&out, binary.BigEndian, uint16(0))                  // fields_count

	binary.Write(&out, binary.BigEndian, uint16(len(built))) // methods_count
	for _, m := range built {
		binary.Write(&out, binary.BigEndian, uint16(AccPublic|AccStatic))
		binary.Write(&out, binary.BigEndian, m.nameIdx)
		binary.Write(&out, binary.BigEndian, m.descIdx)
		binary.Write(&out, binary.BigEndian, uint16(1)) // attributes_count

		var code bytes.Buffer
		binary.Write(&code, binary.BigEndian, m.spec.maxStack)
		binary.Write(&code, binary.BigEndian, m.spec.maxLocals)
		binary.Write(&code, binary.BigEndian, uint32(len(m.spec.code)))
		code.Write(m.spec.code)
		binary.Write(&code, binary.BigEndian, uint16(0)) // exception_table_length
		binary.Write(&code, binary.BigEndian, uint16(0)) // attributes_count (inner)

		binary.Write(&out, binary.BigEndian, codeAttrNameIdx)
		binary.Write(&out, binary.BigEndian, uint32(code.Len()))
		out.Write(code.Bytes())
	}

	binary.Write(&out, binary.BigEndian, uint16(0)) // class attributes_count
	return out.Bytes()
}

func TestParseClassFile(t *testing.T) {
	b := newClassBuilder()
	data := b.build("Hello", []methodSpec{
		{name: "main", descriptor: "([Ljava/lang/String;)V", maxStack: 2, maxLocals: 1, code: []byte{0xb1}}, // return
	})

	cf, err := Parse(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if cf.MajorVersion != 61 {
		t.Errorf("major version: got %d, want 61", cf.MajorVersion)
	}

	if got := cf.ClassName(); got != "Hello" {
		t.Errorf("this_class: got %q, want %q", got, "Hello")
	}

	mainMethod := cf.FindMethod("main", "([Ljava/lang/String;)V")
	if mainMethod == nil {
		t.Fatal("main method not found")
	}
	if mainMethod.Code == nil {
		t.Fatal("main method has no Code attribute")
	}
	if len(mainMethod.Code.Code) == 0 {
		t.Error("Code attribute has empty bytecode")
	}
	if mainMethod.Code.MaxStack == 0 {
		t.Error("Code attribute has MaxStack == 0")
	}
}

func TestParseAddClassFile(t *testing.T) {
	b := newClassBuilder()
	data := b.build("Add", []methodSpec{
		{name: "main", descriptor: "([Ljava/lang/String;)V", maxStack: 1, maxLocals: 1, code: []byte{0xb1}},
		{name: "add", descriptor: "(II)I", maxStack: 2, maxLocals: 2, code: []byte{0x1a, 0x1b, 0x60, 0xac}}, // iload_0; iload_1; iadd; ireturn
	})

	cf, err := Parse(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if got := cf.ClassName(); got != "Add" {
		t.Errorf("this_class: got %q, want %q", got, "Add")
	}

	if cf.FindMethod("main", "([Ljava/lang/String;)V") == nil {
		t.Error("main method not found")
	}

	addMethod := cf.FindMethod("add", "(II)I")
	if addMethod == nil {
		t.Fatal("add(II)I method not found")
	}
	if addMethod.Code == nil {
		t.Error("add method has no Code attribute")
	}
}

func TestParseInvalidMagic(t *testing.T) {
	_, err := Parse(bytes.NewReader([]byte{0xDE, 0xAD, 0xBE, 0xEF}))
	if err == nil {
		t.Fatal("expected error for invalid magic number, got nil")
	}
}

func TestParseFileMissing(t *testing.T) {
	_, err := ParseFile(filepath.Join(t.TempDir(), "does-not-exist.class"))
	if err == nil {
		t.Fatal("expected error opening a missing class file, got nil")
	}
}

func TestParseExceptionTable(t *testing.T) {
	b := newClassBuilder()

	// iconst_1; iconst_0; idiv — faulting range covered by one handler.
	code := []byte{0x04, 0x03, 0x6c, 0xb1}

	thisNameIdx := b.addUtf8("Faulty")
	thisClassIdx := b.addClass(thisNameIdx)
	codeAttrNameIdx := b.addUtf8("Code")
	nameIdx := b.addUtf8("main")
	descIdx := b.addUtf8("([Ljava/lang/String;)V")

	var out bytes.Buffer
	binary.Write(&out, binary.BigEndian, uint32(classMagic))
	binary.Write(&out, binary.BigEndian, uint16(0))
	binary.Write(&out, binary.BigEndian, uint16(61))
	binary.Write(&out, binary.BigEndian, uint16(len(b.pool)))
	for _, entry := range b.pool[1:] {
		out.Write(entry)
	}
	binary.Write(&out, binary.BigEndian, uint16(AccPublic|AccSuper))
	binary.Write(&out, binary.BigEndian, thisClassIdx)
	binary.Write(&out, binary.BigEndian, uint16(0))
	binary.Write(&out, binary.BigEndian, uint16(0))
	binary.Write(&out, binary.BigEndian, uint16(0))
	binary.Write(&out, binary.BigEndian, uint16(1)) // methods_count

	binary.Write(&out, binary.BigEndian, uint16(AccPublic|AccStatic))
	binary.Write(&out, binary.BigEndian, nameIdx)
	binary.Write(&out, binary.BigEndian, descIdx)
	binary.Write(&out, binary.BigEndian, uint16(1))

	var codeAttr bytes.Buffer
	binary.Write(&codeAttr, binary.BigEndian, uint16(1))
	binary.Write(&codeAttr, binary.BigEndian, uint16(1))
	binary.Write(&codeAttr, binary.BigEndian, uint32(len(code)))
	codeAttr.Write(code)
	binary.Write(&codeAttr, binary.BigEndian, uint16(1)) // exception_table_length
	binary.Write(&codeAttr, binary.BigEndian, uint16(0)) // start_pc
	binary.Write(&codeAttr, binary.BigEndian, uint16(3)) // end_pc
	binary.Write(&codeAttr, binary.BigEndian, uint16(3)) // handler_pc
	binary.Write(&codeAttr, binary.BigEndian, uint16(0)) // catch_type (catch-all)
	binary.Write(&codeAttr, binary.BigEndian, uint16(0)) // inner attributes_count

	binary.Write(&out, binary.BigEndian, codeAttrNameIdx)
	binary.Write(&out, binary.BigEndian, uint32(codeAttr.Len()))
	out.Write(codeAttr.Bytes())
	binary.Write(&out, binary.BigEndian, uint16(0))

	cf, err := Parse(bytes.NewReader(out.Bytes()))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	m := cf.FindMethod("main", "([Ljava/lang/String;)V")
	if m == nil || m.Code == nil {
		t.Fatal("main method with Code attribute not found")
	}
	if len(m.Code.ExceptionTable) != 1 {
		t.Fatalf("exception table: got %d entries, want 1", len(m.Code.ExceptionTable))
	}
	h := m.Code.ExceptionTable[0]
	if h.StartPC != 0 || h.EndPC != 3 || h.HandlerPC != 3 || h.CatchType != 0 {
		t.Errorf("exception table entry: got %+v", h)
	}
}
