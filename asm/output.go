package main

import (
	"fmt"
	"os"
)

/* writeObjectFile serializes an assembler's final state into the EZ8O
   object format. The header is assembled last so it can record final
   counts and sizes; names are interned into the string table as they
   are encountered, the first at offset 0. */
func writeObjectFile(path string, a *assembler) error {
	var strtab []byte
	nameOffsets := make(map[string]uint32)
	intern := func(name string) uint32 {
		if off, ok := nameOffsets[name]; ok {
			return off
		}
		off := uint32(len(strtab))
		nameOffsets[name] = off
		strtab = append(strtab, []byte(name)...)
		strtab = append(strtab, 0)
		return off
	}

	type symEnt struct {
		nameOff uint32
		section uint8
		flags   uint8
		value   uint32
	}
	var syms []symEnt
	for i := range a.symbols {
		s := &a.symbols[i]
		if s.flags != symExport {
			continue
		}
		if !s.defined {
			return fmt.Errorf("%s: exported symbol %q was never defined", path, s.name)
		}
		syms = append(syms, symEnt{nameOff: intern(s.name), section: s.section, flags: s.flags, value: s.value})
	}

	type externEnt struct {
		nameOff    uint32
		symIndex   uint32
	}
	var externs []externEnt
	for i, name := range a.externs {
		externs = append(externs, externEnt{nameOff: intern(name), symIndex: uint32(i)})
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("cannot create %q: %v", path, err)
	}
	defer file.Close()

	header := make([]byte, headerSize)
	header[0], header[1], header[2], header[3] = objMagic0, objMagic1, objMagic2, objMagic3
	header[4] = objVersion
	header[5] = 0 /* flags, unused */
	put24(header[6:9], uint32(len(a.code)))
	put24(header[9:12], uint32(len(a.data)))
	put24(header[12:15], a.bssPC)
	put24(header[15:18], uint32(len(syms)))
	put24(header[18:21], uint32(len(a.relocs)))
	put24(header[21:24], uint32(len(externs)))
	put24(header[24:27], uint32(len(strtab)))

	if _, err := file.Write(header); err != nil {
		return err
	}
	if _, err := file.Write(a.code); err != nil {
		return err
	}
	if _, err := file.Write(a.data); err != nil {
		return err
	}

	symEntry := make([]byte, 10)
	for _, s := range syms {
		put24(symEntry[0:3], s.nameOff)
		symEntry[3] = s.section
		symEntry[4] = s.flags
		put24(symEntry[5:8], s.value)
		symEntry[8], symEntry[9] = 0, 0
		if _, err := file.Write(symEntry); err != nil {
			return err
		}
	}

	relocEntry := make([]byte, 8)
	for _, r := range a.relocs {
		put24(relocEntry[0:3], r.offset)
		relocEntry[3] = r.section
		relocEntry[4] = r.rtype
		relocEntry[5] = r.targetSect
		putU16(relocEntry[6:8], r.externIdx)
		if _, err := file.Write(relocEntry); err != nil {
			return err
		}
	}

	externEntry := make([]byte, 6)
	for _, e := range externs {
		put24(externEntry[0:3], e.nameOff)
		put24(externEntry[3:6], e.symIndex)
		if _, err := file.Write(externEntry); err != nil {
			return err
		}
	}

	if _, err := file.Write(strtab); err != nil {
		return err
	}
	return nil
}

func put24(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
}

func get24(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16
}

func putU16(b []byte, v uint16) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
}
