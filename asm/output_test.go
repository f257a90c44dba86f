package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWriteObjectFileHeaderAndExports(t *testing.T) {
	asm, diags := assembleSrc(t, "xdef start\nstart:\n    nop\n    ret\n")
	if len(diags) > 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}

	path := filepath.Join(t.TempDir(), "out.o")
	if err := writeObjectFile(path, asm); err != nil {
		t.Fatalf("writeObjectFile: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(data) < headerSize {
		t.Fatalf("object too short: %d bytes", len(data))
	}
	if data[0] != objMagic0 || data[1] != objMagic1 || data[2] != objMagic2 || data[3] != objMagic3 {
		t.Fatalf("bad magic: % X", data[0:4])
	}
	if data[4] != objVersion {
		t.Fatalf("version = %d, want %d", data[4], objVersion)
	}
	codeSize := get24(data[6:9])
	if codeSize != 2 {
		t.Fatalf("codeSize = %d, want 2 (NOP + RET)", codeSize)
	}
	numSyms := get24(data[15:18])
	if numSyms != 1 {
		t.Fatalf("numSyms = %d, want 1 exported symbol", numSyms)
	}
}

func TestWriteObjectFileRejectsUndefinedExport(t *testing.T) {
	asm, diags := assembleSrc(t, "xdef neverDefined\n    nop\n")
	if len(diags) > 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	path := filepath.Join(t.TempDir(), "out.o")
	if err := writeObjectFile(path, asm); err == nil {
		t.Fatalf("expected an error exporting a symbol that was never defined")
	}
}
