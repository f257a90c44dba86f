package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWriteFlatBinaryConcatenatesCodeThenData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.out")
	if err := writeFlatBinary(path, []byte{0xC3, 0x00, 0x00}, []byte{0x01, 0x02}); err != nil {
		t.Fatalf("writeFlatBinary: %v", err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	want := []byte{0xC3, 0x00, 0x00, 0x01, 0x02}
	if string(got) != string(want) {
		t.Fatalf("flat binary = % X, want % X", got, want)
	}
}

func TestWriteMapFileListsSections(t *testing.T) {
	obj := &objectFile{path: "a.o", codeSize: 2, dataSize: 1}
	ld := newLinker(0, nil)
	ld.addObject(obj)
	if _, _, err := ld.link(); err != nil {
		t.Fatalf("link: %v", err)
	}
	path := filepath.Join(t.TempDir(), "a.map")
	if err := writeMapFile(path, ld); err != nil {
		t.Fatalf("writeMapFile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(data) == 0 {
		t.Fatalf("expected a non-empty map file")
	}
}
