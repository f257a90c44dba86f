package main

import "testing"

/* buildObject hand-assembles one minimal EZ8O object in memory, exercising
   the same byte layout asm's writer produces: header, CODE,
   DATA, symbols, relocs, externs, string table, all little-endian. */
func buildObject() []byte {
	strtab := []byte("main\x00callee\x00")
	mainOff := uint32(0)
	calleeOff := uint32(5)

	code := []byte{0xCD, 0x00, 0x00, 0x00} /* CALL callee */
	var data []byte

	buf := make([]byte, headerSize)
	buf[0], buf[1], buf[2], buf[3] = objMagic0, objMagic1, objMagic2, objMagic3
	buf[4] = objVersion
	buf[5] = 0
	put24(buf[6:9], uint32(len(code)))
	put24(buf[9:12], uint32(len(data)))
	put24(buf[12:15], 0)
	put24(buf[15:18], 1) /* 1 symbol */
	put24(buf[18:21], 1) /* 1 reloc */
	put24(buf[21:24], 1) /* 1 extern */
	put24(buf[24:27], uint32(len(strtab)))

	buf = append(buf, code...)
	buf = append(buf, data...)

	sym := make([]byte, 10)
	put24(sym[0:3], mainOff)
	sym[3] = sectCode
	sym[4] = symExport
	put24(sym[5:8], 0)
	buf = append(buf, sym...)

	reloc := make([]byte, 8)
	put24(reloc[0:3], 1) /* offset within CODE */
	reloc[3] = sectCode
	reloc[4] = relocAddr24
	reloc[5] = sectAbs /* external */
	putU16(reloc[6:8], 0)
	buf = append(buf, reloc...)

	ext := make([]byte, 6)
	put24(ext[0:3], calleeOff)
	put24(ext[3:6], 0)
	buf = append(buf, ext...)

	buf = append(buf, strtab...)
	return buf
}

func TestParseObjectRoundTrip(t *testing.T) {
	data := buildObject()
	obj, consumed, err := parseObject(data, "test.o")
	if err != nil {
		t.Fatalf("parseObject failed: %v", err)
	}
	if consumed != len(data) {
		t.Fatalf("consumed %d bytes, want %d", consumed, len(data))
	}
	if string(obj.code) != string([]byte{0xCD, 0x00, 0x00, 0x00}) {
		t.Fatalf("code = % X", obj.code)
	}
	if len(obj.symbols) != 1 || obj.symbols[0].name != "main" {
		t.Fatalf("symbols = %+v", obj.symbols)
	}
	if len(obj.externs) != 1 || obj.externs[0].name != "callee" {
		t.Fatalf("externs = %+v", obj.externs)
	}
	if len(obj.relocs) != 1 || obj.relocs[0].offset != 1 {
		t.Fatalf("relocs = %+v", obj.relocs)
	}
}

func TestParseObjectRejectsBadMagic(t *testing.T) {
	data := buildObject()
	data[0] = 0x00
	if _, _, err := parseObject(data, "test.o"); err == nil {
		t.Fatalf("expected bad magic to be rejected")
	}
}

func TestParseObjectRejectsTruncation(t *testing.T) {
	data := buildObject()
	if _, _, err := parseObject(data[:headerSize+1], "test.o"); err == nil {
		t.Fatalf("expected truncated object to be rejected")
	}
}
