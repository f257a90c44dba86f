package main

import (
	"fmt"
	"strings"
)

func newAssemblerState(inputFile string) *assembler {
	a := &assembler{
		inputFile:  inputFile,
		curSection: sectCode,
		code:       make([]byte, 0, 4096),
		data:       make([]byte, 0, 4096),
	}
	for i := range a.hash {
		a.hash[i] = -1
	}
	return a
}

/* djb2-xor, case-sensitive. Bucket count is a power of two so the mask is cheap. */
func symHash(name string) int {
	var h uint32 = 5381
	for i := 0; i < len(name); i++ {
		h = (h * 33) ^ uint32(name[i])
	}
	return int(h & (symHashBuckets - 1))
}

func (a *assembler) findSymbol(name string) *symbol {
	idx := a.hash[symHash(name)]
	for idx != -1 {
		if a.symbols[idx].name == name {
			return &a.symbols[idx]
		}
		idx = a.symbols[idx].hashNext
	}
	return nil
}

func (a *assembler) addSymbol(name string) *symbol {
	if s := a.findSymbol(name); s != nil {
		return s
	}
	b := symHash(name)
	a.symbols = append(a.symbols, symbol{name: name, hashNext: a.hash[b], externIdx: -1})
	idx := len(a.symbols) - 1
	a.hash[b] = idx
	return &a.symbols[idx]
}

/* define binds name to value/section. Rejects duplicate definitions and
   attempts to redefine an EXTERN symbol locally. */
func (a *assembler) define(name string, value uint32, section uint8) error {
	s := a.addSymbol(name)
	if s.flags == symExtern {
		return fmt.Errorf("cannot define %s: already declared extern", name)
	}
	if s.defined && a.pass == 1 {
		return fmt.Errorf("symbol %s already defined", name)
	}
	s.value = value
	s.section = section
	s.defined = true
	if a.pass == 1 {
		s.pass1Value = value
	}
	return nil
}

func (a *assembler) setExport(name string) error {
	if isLocalLabel(name) {
		return fmt.Errorf("cannot export local label %s", name)
	}
	s := a.addSymbol(name)
	if s.flags == symExtern {
		return fmt.Errorf("%s is already declared extern", name)
	}
	s.flags = symExport
	return nil
}

func (a *assembler) setExtern(name string) error {
	if isLocalLabel(name) {
		return fmt.Errorf("cannot declare local label %s extern", name)
	}
	s := a.addSymbol(name)
	if s.defined {
		return fmt.Errorf("cannot declare %s extern: already defined", name)
	}
	if s.flags != symExtern {
		s.flags = symExtern
		s.externIdx = len(a.externs)
		a.externs = append(a.externs, name)
	}
	return nil
}

func (a *assembler) isExtern(name string) bool {
	s := a.findSymbol(name)
	return s != nil && s.flags == symExtern
}

func isLocalLabel(name string) bool {
	return strings.HasPrefix(name, "@")
}

/* mangleLocal appends the scope counter in effect when the label region
   started, so that every reference within a scope agrees with every
   definition. */
func (a *assembler) mangleLocal(name string) string {
	return fmt.Sprintf("%s:%d", name, a.localGen)
}

/* bumpScope is called on every non-local label definition. */
func (a *assembler) bumpScope() {
	a.localGen++
}
