package main

import (
	"strings"
	"testing"
)

/* assembleSrc splits a source string into lines and runs both assembler
   passes, without touching the filesystem (so no INCLUDE in these tests). */
func assembleSrc(t *testing.T, src string) (*assembler, []string) {
	t.Helper()
	var lines []srcLine
	for i, raw := range strings.Split(src, "\n") {
		lines = append(lines, srcLine{text: strings.TrimRight(raw, "\r"), file: "test.asm", lineNo: i + 1})
	}
	return assembleSource("test.asm", lines)
}

func assertCode(t *testing.T, src string, want []byte) {
	t.Helper()
	asm, diags := assembleSrc(t, src)
	if len(diags) > 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	if string(asm.code) != string(want) {
		t.Fatalf("code = % X, want % X", asm.code, want)
	}
}

func TestSimpleInstructions(t *testing.T) {
	assertCode(t, "nop\nhalt\nei\nldir\n", []byte{0x00, 0x76, 0xFB, 0xED, 0xB0})
}

func TestLDRegToReg(t *testing.T) {
	assertCode(t, "ld a,b\n", []byte{0x78})
	assertCode(t, "ld b,a\n", []byte{0x47})
}

func TestLDIndexHalfImmediate(t *testing.T) {
	assertCode(t, "ld ixh,5\n", []byte{0xDD, 0x26, 0x05})
}

func TestLDMixedIndexHalfRejected(t *testing.T) {
	_, diags := assembleSrc(t, "ld h,ixh\n")
	if len(diags) == 0 {
		t.Fatalf("expected LD H,IXH to be rejected, got no diagnostics")
	}
}

func TestLD24BitImmediates(t *testing.T) {
	assertCode(t, "ld bc,0x123456\n", []byte{0x01, 0x56, 0x34, 0x12})
	assertCode(t, "ld ix,0x123456\n", []byte{0xDD, 0x21, 0x56, 0x34, 0x12})
}

func TestLDAbsoluteMemoryFromHL(t *testing.T) {
	assertCode(t, "ld (0x100000),hl\n", []byte{0x22, 0x00, 0x00, 0x10})
}

func TestJPAbsolute(t *testing.T) {
	assertCode(t, "jp 0x001234\n", []byte{0xC3, 0x34, 0x12, 0x00})
}

func TestJRAndDJNZSelfReference(t *testing.T) {
	assertCode(t, "jr $\n", []byte{0x18, 0xFE})
	assertCode(t, "djnz $\n", []byte{0x10, 0xFE})
}

func TestJROutOfRangeIsRejected(t *testing.T) {
	var b strings.Builder
	b.WriteString("jr toofar\n")
	for i := 0; i < 200; i++ {
		b.WriteString("nop\n")
	}
	b.WriteString("toofar:\n")
	_, diags := assembleSrc(t, b.String())
	if len(diags) == 0 {
		t.Fatalf("expected out-of-range JR displacement to be rejected")
	}
}

func TestLDThroughMemory(t *testing.T) {
	assertCode(t, "ld (hl),0x42\n", []byte{0x36, 0x42})
	assertCode(t, "ld (ix+4),0x12\n", []byte{0xDD, 0x36, 0x04, 0x12})
	assertCode(t, "ld b,(iy-1)\n", []byte{0xFD, 0x46, 0xFF})
	assertCode(t, "ld (hl),e\n", []byte{0x73})
}

func TestLD16BitThroughMemory(t *testing.T) {
	assertCode(t, "ld bc,(hl)\n", []byte{0xED, 0x07})
	assertCode(t, "ld (hl),de\n", []byte{0xED, 0x1F})
	assertCode(t, "ld hl,(ix+3)\n", []byte{0xDD, 0x27, 0x03})
	assertCode(t, "ld (iy-2),de\n", []byte{0xFD, 0x1F, 0xFE})
	/* the IX/IY rows are irregular */
	assertCode(t, "ld ix,(hl)\n", []byte{0xED, 0x37})
	assertCode(t, "ld iy,(hl)\n", []byte{0xED, 0x31})
	assertCode(t, "ld (ix+1),iy\n", []byte{0xDD, 0x3D, 0x01})
}

func TestLEAAndPEA(t *testing.T) {
	assertCode(t, "lea hl,ix+5\n", []byte{0xED, 0x22, 0x05})
	assertCode(t, "lea de,(iy-3)\n", []byte{0xED, 0x13, 0xFD})
	assertCode(t, "lea ix,(ix+1)\n", []byte{0xED, 0x32, 0x01})
	assertCode(t, "lea ix,(iy+1)\n", []byte{0xED, 0x54, 0x01})
	assertCode(t, "lea iy,(ix+1)\n", []byte{0xED, 0x55, 0x01})
	assertCode(t, "pea ix+2\n", []byte{0xED, 0x65, 0x02})
}

func TestALU16BitForms(t *testing.T) {
	assertCode(t, "add hl,de\n", []byte{0x19})
	assertCode(t, "adc hl,sp\n", []byte{0xED, 0x7A})
	assertCode(t, "sbc.s hl,bc\n", []byte{0x52, 0xED, 0x42})
}

func TestDLSymbolCancellationVsRelocation(t *testing.T) {
	asm, diags := assembleSrc(t, "foo:\n    nop\nbar:\n    nop\n    dl bar-foo\n    dl bar\n")
	if len(diags) > 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	/* foo at PC=0, bar at PC=1; DL emits a 24-bit (3-byte) value.
	   bar-foo: both symbols in CODE, neither extern -> cancels to the
	   plain integer distance (1), no relocation emitted. */
	gotCancel := asm.code[2:5]
	wantCancel := []byte{0x01, 0x00, 0x00}
	if string(gotCancel) != string(wantCancel) {
		t.Fatalf("dl bar-foo = % X, want % X", gotCancel, wantCancel)
	}
	/* dl bar: a bare relocatable symbol, so a relocation must be recorded
	   at the next write position (offset 5), carrying bar's raw value (1)
	   as the addend the linker will add its base to. */
	gotReloc := asm.code[5:8]
	wantReloc := []byte{0x01, 0x00, 0x00}
	if string(gotReloc) != string(wantReloc) {
		t.Fatalf("dl bar addend = % X, want % X", gotReloc, wantReloc)
	}
	foundRelocAtFive := false
	for _, r := range asm.relocs {
		if r.offset == 5 {
			foundRelocAtFive = true
		}
	}
	if !foundRelocAtFive {
		t.Fatalf("expected a relocation for 'dl bar' at offset 5, relocs: %+v", asm.relocs)
	}
}

func TestXdefXrefCaseSensitivity(t *testing.T) {
	asm, diags := assembleSrc(t, "xdef Foo\nxref foo\nFoo:\n    nop\n    ld a,(foo)\n")
	if len(diags) > 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	fooDefined := asm.findSymbol("Foo")
	fooExtern := asm.findSymbol("foo")
	if fooDefined == nil || fooExtern == nil {
		t.Fatalf("expected both Foo and foo to be distinct symbol table entries")
	}
	if fooDefined == fooExtern {
		t.Fatalf("Foo and foo must be distinct symbols (case-sensitive symbol table)")
	}
	if !fooDefined.defined {
		t.Fatalf("Foo should be defined")
	}
	if fooExtern.flags != symExtern {
		t.Fatalf("foo should be flagged extern")
	}
}

func TestLocalLabelScoping(t *testing.T) {
	asm, diags := assembleSrc(t, "top:\n@loop:\n    djnz @loop\nbottom:\n@loop:\n    djnz @loop\n")
	if len(diags) > 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	_ = asm
}

func TestEquAndExpression(t *testing.T) {
	assertCode(t, "base equ 0x100\n    ld a,base+1\n", []byte{0x3E, 0x01})
}

func TestEquAssignmentSyntax(t *testing.T) {
	assertCode(t, "five = 5\n    ld b,five\n", []byte{0x06, 0x05})
}

func TestEquForwardReference(t *testing.T) {
	assertCode(t, "val equ later\n    ld a,val\nlater equ 7\n", []byte{0x3E, 0x07})
}

func TestOrgSetsPCWithoutPadding(t *testing.T) {
	asm, diags := assembleSrc(t, "    org 0x100\nstart:\n    jp start\n")
	if len(diags) > 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	want := []byte{0xC3, 0x00, 0x01, 0x00}
	if string(asm.code) != string(want) {
		t.Fatalf("code = % X, want % X", asm.code, want)
	}
	if len(asm.relocs) != 1 || asm.relocs[0].offset != 1 {
		t.Fatalf("expected the jump operand relocation at byte offset 1, relocs: %+v", asm.relocs)
	}
}

func TestRelocOffsetIsByteCountNotPC(t *testing.T) {
	asm, diags := assembleSrc(t, "    org 0x200\nfoo:\n    dl foo\n")
	if len(diags) > 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	if string(asm.code) != string([]byte{0x00, 0x02, 0x00}) {
		t.Fatalf("code = % X", asm.code)
	}
	if len(asm.relocs) != 1 || asm.relocs[0].offset != 0 {
		t.Fatalf("relocation offset must index the byte stream, not the PC: %+v", asm.relocs)
	}
}

func TestSectionSwitchRestoresPC(t *testing.T) {
	src := "    nop\n    section data\n    db 1,2\n    section code\n    nop\n"
	asm, diags := assembleSrc(t, src)
	if len(diags) > 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	if string(asm.code) != string([]byte{0x00, 0x00}) {
		t.Fatalf("code = % X", asm.code)
	}
	if string(asm.data) != string([]byte{0x01, 0x02}) {
		t.Fatalf("data = % X", asm.data)
	}
	if asm.codePC != 2 || asm.dataPC != 2 {
		t.Fatalf("codePC = %d, dataPC = %d, want 2 and 2", asm.codePC, asm.dataPC)
	}
}

func TestPassOneErrorSuppressesPassTwo(t *testing.T) {
	_, diags := assembleSrc(t, "dup:\n    nop\ndup:\n    nop\n")
	if len(diags) != 1 {
		t.Fatalf("a duplicate label must be reported exactly once, got: %v", diags)
	}
}
