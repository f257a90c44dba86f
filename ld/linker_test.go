package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDuplicateExportIsError(t *testing.T) {
	a := &objectFile{path: "a.o", codeSize: 1, code: []byte{0x00},
		symbols: []objSymbol{{name: "main", section: sectCode, flags: symExport, value: 0}}}
	b := &objectFile{path: "b.o", codeSize: 1, code: []byte{0x00},
		symbols: []objSymbol{{name: "main", section: sectCode, flags: symExport, value: 0}}}

	ld := newLinker(0, nil)
	ld.addObject(a)
	ld.addObject(b)
	if _, _, err := ld.link(); err == nil {
		t.Fatalf("expected duplicate export of 'main' to fail linking")
	}
}

/* TestCallPatchWorkedExample reproduces the worked relocation example: a
   caller object emits CALL main (a forward extern reference, addend 0),
   and a callee object placed right after it defines 'main' at CODE-offset
   0 within its own object. After layout, main lands at 0x000004 (the
   caller's CODE is 4 bytes: CD 00 00 00 for "CALL main"), so the patched
   call operand must read CD 00 00 04. */
func TestCallPatchWorkedExample(t *testing.T) {
	caller := &objectFile{
		path:     "caller.o",
		codeSize: 4,
		code:     []byte{0xCD, 0x00, 0x00, 0x00}, /* CALL main, addend 0 */
		externs:  []objExtern{{name: "main", symIndex: 0}},
		relocs: []objReloc{
			{offset: 1, section: sectCode, rtype: relocAddr24, targetSect: sectAbs, externIdx: 0},
		},
	}
	callee := &objectFile{
		path:     "callee.o",
		codeSize: 1,
		code:     []byte{0xC9}, /* RET */
		symbols:  []objSymbol{{name: "main", section: sectCode, flags: symExport, value: 0}},
	}

	ld := newLinker(0, nil)
	ld.addObject(caller)
	ld.addObject(callee)

	code, _, err := ld.link()
	if err != nil {
		t.Fatalf("link failed: %v", err)
	}
	want := []byte{0xCD, 0x00, 0x00, 0x04, 0xC9}
	if string(code) != string(want) {
		t.Fatalf("patched code = % X, want % X", code, want)
	}
}

func TestCaseSensitiveExternalSymbols(t *testing.T) {
	caller := &objectFile{
		path:     "caller.o",
		codeSize: 4,
		code:     []byte{0xCD, 0x00, 0x00, 0x00},
		externs:  []objExtern{{name: "Foo"}},
		relocs: []objReloc{
			{offset: 1, section: sectCode, rtype: relocAddr24, targetSect: sectAbs, externIdx: 0},
		},
	}
	wrongCase := &objectFile{
		path:     "wrong.o",
		codeSize: 1,
		code:     []byte{0xC9},
		symbols:  []objSymbol{{name: "foo", section: sectCode, flags: symExport}},
	}

	ld := newLinker(0, nil)
	ld.addObject(caller)
	ld.addObject(wrongCase)

	if _, _, err := ld.link(); err == nil {
		t.Fatalf("expected 'Foo' to remain undefined when only 'foo' (different case) is exported")
	}
}

func TestSelectiveInclusionFromLibrary(t *testing.T) {
	caller := &objectFile{
		path:     "caller.o",
		codeSize: 4,
		code:     []byte{0xCD, 0x00, 0x00, 0x00},
		externs:  []objExtern{{name: "helper"}},
		relocs: []objReloc{
			{offset: 1, section: sectCode, rtype: relocAddr24, targetSect: sectAbs, externIdx: 0},
		},
	}
	wanted := &objectFile{
		path:     "helper.o",
		codeSize: 1,
		code:     []byte{0xC9},
		symbols:  []objSymbol{{name: "helper", section: sectCode, flags: symExport}},
	}
	unused := &objectFile{
		path:     "unused.o",
		codeSize: 1,
		code:     []byte{0x00},
		symbols:  []objSymbol{{name: "neverReferenced", section: sectCode, flags: symExport}},
	}

	ld := newLinker(0, nil)
	ld.addObject(caller)
	ld.addLibrary([]*archiveMember{
		{archivePath: "lib.a", obj: unused, exports: map[string]bool{"neverReferenced": true}},
		{archivePath: "lib.a", obj: wanted, exports: map[string]bool{"helper": true}},
	})

	code, _, err := ld.link()
	if err != nil {
		t.Fatalf("link failed: %v", err)
	}
	if len(ld.objects) != 2 {
		t.Fatalf("expected only the satisfying library member to be pulled in, loaded %d objects", len(ld.objects))
	}
	want := []byte{0xCD, 0x00, 0x00, 0x04, 0xC9}
	if string(code) != string(want) {
		t.Fatalf("patched code = % X, want % X", code, want)
	}
}

func TestUndefinedSymbolFromLibraryIsError(t *testing.T) {
	caller := &objectFile{
		path:     "caller.o",
		codeSize: 4,
		code:     []byte{0xCD, 0x00, 0x00, 0x00},
		externs:  []objExtern{{name: "missing"}},
		relocs: []objReloc{
			{offset: 1, section: sectCode, rtype: relocAddr24, targetSect: sectAbs, externIdx: 0},
		},
	}
	ld := newLinker(0, nil)
	ld.addObject(caller)
	if _, _, err := ld.link(); err == nil {
		t.Fatalf("expected an undefined symbol error")
	}
}

func TestSyntheticSectionSymbols(t *testing.T) {
	obj := &objectFile{
		path:     "a.o",
		codeSize: 2,
		dataSize: 3,
		bssSize:  4,
		code:     []byte{0x00, 0x00},
		data:     []byte{0x01, 0x02, 0x03},
	}
	ld := newLinker(0x1000, nil)
	ld.addObject(obj)
	_, _, err := ld.link()
	require.NoError(t, err)

	assert.EqualValues(t, 0x1000, ld.globalSyms["__low_code"].absValue)
	assert.EqualValues(t, 2, ld.globalSyms["__len_code"].absValue)
	assert.EqualValues(t, 0x1002, ld.globalSyms["__low_data"].absValue)
	assert.EqualValues(t, 0x1005, ld.globalSyms["__low_bss"].absValue)
	assert.EqualValues(t, 4, ld.globalSyms["__len_bss"].absValue)
}
