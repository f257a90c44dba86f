package main

import (
	"fmt"
	"os"
)

/* parseObject decodes one EZ8O object beginning at data[0].
   It returns the decoded object and the number of bytes it occupies, so the
   same routine serves both a standalone .o file and one member of a
   concatenated archive. */
func parseObject(data []byte, path string) (*objectFile, int, error) {
	if len(data) < headerSize {
		return nil, 0, fmt.Errorf("%s: truncated object header", path)
	}
	if data[0] != objMagic0 || data[1] != objMagic1 || data[2] != objMagic2 || data[3] != objMagic3 {
		return nil, 0, fmt.Errorf("%s: bad object magic", path)
	}
	version := data[4]
	if version != objVersion {
		return nil, 0, fmt.Errorf("%s: unsupported object version %d", path, version)
	}

	obj := &objectFile{path: path}
	obj.codeSize = get24(data[6:9])
	obj.dataSize = get24(data[9:12])
	obj.bssSize = get24(data[12:15])
	numSyms := get24(data[15:18])
	numRelocs := get24(data[18:21])
	numExterns := get24(data[21:24])
	strSize := get24(data[24:27])

	off := headerSize
	codeStart := off
	off += int(obj.codeSize)
	dataStart := off
	off += int(obj.dataSize)
	symStart := off
	off += int(numSyms) * 10
	relocStart := off
	off += int(numRelocs) * 8
	externStart := off
	off += int(numExterns) * 6
	strStart := off
	off += int(strSize)

	if off > len(data) {
		return nil, 0, fmt.Errorf("%s: truncated object (need %d bytes, have %d)", path, off, len(data))
	}
	strtab := data[strStart:off]
	name := func(nameOff uint32) string {
		end := int(nameOff)
		if end > len(strtab) {
			end = len(strtab)
		}
		start := end
		for end < len(strtab) && strtab[end] != 0 {
			end++
		}
		return string(strtab[start:end])
	}

	obj.code = append([]byte(nil), data[codeStart:dataStart]...)
	obj.data = append([]byte(nil), data[dataStart:symStart]...)

	obj.symbols = make([]objSymbol, numSyms)
	for i := range obj.symbols {
		b := symStart + i*10
		nameOff := get24(data[b : b+3])
		obj.symbols[i] = objSymbol{
			name:    name(nameOff),
			section: data[b+3],
			flags:   data[b+4],
			value:   get24(data[b+5 : b+8]),
		}
	}

	obj.relocs = make([]objReloc, numRelocs)
	for i := range obj.relocs {
		b := relocStart + i*8
		obj.relocs[i] = objReloc{
			offset:     get24(data[b : b+3]),
			section:    data[b+3],
			rtype:      data[b+4],
			targetSect: data[b+5],
			externIdx:  getU16(data[b+6 : b+8]),
		}
	}

	obj.externs = make([]objExtern, numExterns)
	for i := range obj.externs {
		b := externStart + i*6
		obj.externs[i] = objExtern{
			name:     name(get24(data[b : b+3])),
			symIndex: get24(data[b+3 : b+6]),
		}
	}

	return obj, off, nil
}

func loadObjectFile(path string) (*objectFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open %q: %v", path, err)
	}
	obj, consumed, err := parseObject(data, path)
	if err != nil {
		return nil, err
	}
	if consumed != len(data) {
		return nil, fmt.Errorf("%s: %d trailing bytes after object", path, len(data)-consumed)
	}
	return obj, nil
}

/* scanArchive reads a library (a bare concatenation of object files) and
   eagerly parses every member without yet linking any of them into the
   output: a member only joins the link, and only then registers its
   exports in the global table, when resolveLibraries selects it. */
func scanArchive(path string) ([]*archiveMember, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open library %q: %v", path, err)
	}
	var members []*archiveMember
	offset := 0
	for offset < len(data) {
		obj, consumed, err := parseObject(data[offset:], fmt.Sprintf("%s(member@%d)", path, offset))
		if err != nil {
			return nil, fmt.Errorf("%s: bad library member layout: %v", path, err)
		}
		exports := make(map[string]bool)
		for _, s := range obj.symbols {
			if s.flags == symExport {
				exports[s.name] = true
			}
		}
		members = append(members, &archiveMember{archivePath: path, obj: obj, exports: exports})
		offset += consumed
	}
	return members, nil
}
