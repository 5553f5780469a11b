package vm

import (
	"fmt"
	"path/filepath"

	"github.com/tinyjvm/classvm/pkg/classfile"
)

// MethodArea is the process-wide map from internal class name to parsed
// class (spec.md §Glossary "Method area"). Classes are loaded lazily by
// looking for "<ClassName>.class" next to the class that first referenced
// them and cached for the lifetime of the process; there is no jmod/zip
// or bootstrap classpath search, since the simplified loader model is
// sibling-directory only.
type MethodArea struct {
	dir     string
	classes map[string]*classfile.ClassFile
}

// NewMethodArea creates a method area that resolves sibling classes
// relative to dir (typically the directory holding the class the
// interpreter was launched with).
func NewMethodArea(dir string) *MethodArea {
	return &MethodArea{
		dir:     dir,
		classes: make(map[string]*classfile.ClassFile),
	}
}

// Register makes a class available under its own name without touching
// the filesystem, so the class the interpreter was launched with (and
// any hand-built test fixtures) participate in dispatch the same way a
// lazily-loaded one would.
func (m *MethodArea) Register(cf *classfile.ClassFile) {
	m.classes[cf.ClassName()] = cf
}

// Load returns the parsed class for className, loading and caching it
// from "<className's simple name>.class" in the method area's directory
// if it isn't already known.
func (m *MethodArea) Load(className string) (*classfile.ClassFile, error) {
	if cf, ok := m.classes[className]; ok {
		return cf, nil
	}

	simpleName := className
	if i := lastIndexByte(className, '/'); i >= 0 {
		simpleName = className[i+1:]
	}
	path := filepath.Join(m.dir, simpleName+".class")

	cf, err := classfile.ParseFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading class %s: %w", className, err)
	}
	m.classes[className] = cf
	return cf, nil
}

func lastIndexByte(s string, b byte) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == b {
			return i
		}
	}
	return -1
}
