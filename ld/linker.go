package main

import (
	"fmt"

	"go.uber.org/zap"
)

/* globalSym is one name in the linker's shared symbol store.
   objIndex is -1 for the six linker-synthesized section symbols, which are
   seeded before resolution so references to them never read as undefined. */
type globalSym struct {
	name      string
	objIndex  int
	section   uint8
	rawValue  uint32
	absValue  uint32
	synthetic bool
}

type linker struct {
	objects    []*objectFile
	globalSyms map[string]*globalSym
	libraries  [][]*archiveMember
	baseAddr   uint32
	trace      *zap.SugaredLogger

	totalCode, totalData, totalBSS uint32
}

func newLinker(baseAddr uint32, trace *zap.SugaredLogger) *linker {
	return &linker{
		globalSyms: make(map[string]*globalSym),
		baseAddr:   baseAddr,
		trace:      trace,
	}
}

var synthSymbolNames = []string{
	"__low_code", "__len_code", "__low_data", "__len_data", "__low_bss", "__len_bss",
}

func (ld *linker) addObject(obj *objectFile) {
	ld.objects = append(ld.objects, obj)
}

func (ld *linker) addLibrary(members []*archiveMember) {
	ld.libraries = append(ld.libraries, members)
}

/* seedSynthetics registers the six section symbols as resolvable (but not
   yet valued) before resolution, so `XREF __low_code` et al. never reports
   undefined. */
func (ld *linker) seedSynthetics() error {
	for _, name := range synthSymbolNames {
		if _, exists := ld.globalSyms[name]; exists {
			return fmt.Errorf("%s: reserved for the linker and cannot be defined", name)
		}
		ld.globalSyms[name] = &globalSym{name: name, objIndex: -1, synthetic: true}
	}
	return nil
}

/* registerExports adds every EXPORT symbol in the given object to the
   global store. Duplicate EXPORT across objects is an error. */
func (ld *linker) registerExports(objIndex int) error {
	obj := ld.objects[objIndex]
	for _, s := range obj.symbols {
		if s.flags != symExport {
			continue
		}
		if existing, ok := ld.globalSyms[s.name]; ok {
			other := "the linker"
			if !existing.synthetic {
				other = ld.objects[existing.objIndex].path
			}
			return fmt.Errorf("symbol %q defined in both %s and %s", s.name, other, obj.path)
		}
		ld.globalSyms[s.name] = &globalSym{name: s.name, objIndex: objIndex, section: s.section, rawValue: s.value}
	}
	return nil
}

/* unresolvedExterns returns every extern name referenced by a loaded object
   that the global store does not yet define. */
func (ld *linker) unresolvedExterns() []string {
	var out []string
	seen := make(map[string]bool)
	for _, obj := range ld.objects {
		for _, e := range obj.externs {
			if _, ok := ld.globalSyms[e.name]; ok {
				continue
			}
			if seen[e.name] {
				continue
			}
			seen[e.name] = true
			out = append(out, e.name)
		}
	}
	return out
}

/* resolveLibraries runs the fixed-point selective-inclusion loop:
   repeatedly scan every unloaded member of every library for one that
   defines a currently-unresolved name, load it whole, and repeat until
   a full pass over every library loads nothing. An extern still
   unresolved afterwards is only an error if a relocation actually needs
   it, which patch reports; a declared-but-unreferenced extern is not. */
func (ld *linker) resolveLibraries() error {
	for {
		unresolved := ld.unresolvedExterns()
		if len(unresolved) == 0 {
			return nil
		}
		need := make(map[string]bool, len(unresolved))
		for _, n := range unresolved {
			need[n] = true
		}

		loadedAny := false
		for _, members := range ld.libraries {
			for _, m := range members {
				if m.loaded {
					continue
				}
				satisfies := false
				for name := range m.exports {
					if need[name] {
						satisfies = true
						break
					}
				}
				if !satisfies {
					continue
				}
				m.loaded = true
				objIndex := len(ld.objects)
				ld.addObject(m.obj)
				if err := ld.registerExports(objIndex); err != nil {
					return err
				}
				if ld.trace != nil {
					ld.trace.Infow("loaded library member", "archive", m.archivePath, "path", m.obj.path)
				}
				loadedAny = true
			}
		}
		if !loadedAny {
			return nil
		}
	}
}

/* layout concatenates CODE, then DATA, then BSS across every loaded object
   in load order, starting at the base address. */
func (ld *linker) layout() (totalCode, totalData, totalBSS uint32) {
	for _, obj := range ld.objects {
		obj.codeBase = ld.baseAddr + totalCode
		totalCode += obj.codeSize
	}
	dataStart := ld.baseAddr + totalCode
	for _, obj := range ld.objects {
		obj.dataBase = dataStart + totalData
		totalData += obj.dataSize
	}
	bssStart := dataStart + totalData
	for _, obj := range ld.objects {
		obj.bssBase = bssStart + totalBSS
		totalBSS += obj.bssSize
	}
	return
}

func (ld *linker) sectionBase(obj *objectFile, section uint8) (uint32, bool) {
	switch section {
	case sectCode:
		return obj.codeBase, true
	case sectData:
		return obj.dataBase, true
	case sectBSS:
		return obj.bssBase, true
	case sectAbs:
		return 0, true
	}
	return 0, false
}

/* promoteSymbols turns every section-relative global symbol into an
   absolute address now that layout has fixed every object's section bases,
   and fills in the six synthesized section symbols. */
func (ld *linker) promoteSymbols(totalCode, totalData, totalBSS uint32) {
	for _, g := range ld.globalSyms {
		if g.synthetic {
			continue
		}
		base, _ := ld.sectionBase(ld.objects[g.objIndex], g.section)
		g.absValue = g.rawValue + base
	}
	ld.globalSyms["__low_code"].absValue = ld.baseAddr
	ld.globalSyms["__len_code"].absValue = totalCode
	ld.globalSyms["__low_data"].absValue = ld.baseAddr + totalCode
	ld.globalSyms["__len_data"].absValue = totalData
	ld.globalSyms["__low_bss"].absValue = ld.baseAddr + totalCode + totalData
	ld.globalSyms["__len_bss"].absValue = totalBSS
}

/* patch allocates the merged CODE/DATA buffers, copies every object's
   bytes into place, and rewrites every relocation slot in place: the
   addend already written by the assembler plus the resolved target base,
   mod 2^24. */
func (ld *linker) patch() (code, data []byte, err error) {
	var totalCode, totalData uint32
	for _, obj := range ld.objects {
		totalCode += obj.codeSize
		totalData += obj.dataSize
	}
	code = make([]byte, totalCode)
	data = make([]byte, totalData)

	for _, obj := range ld.objects {
		copy(code[obj.codeBase-ld.baseAddr:], obj.code)
		copy(data[obj.dataBase-ld.baseAddr-totalCode:], obj.data)
	}

	for _, obj := range ld.objects {
		for _, r := range obj.relocs {
			if r.rtype != relocAddr24 {
				return nil, nil, fmt.Errorf("%s: unsupported relocation type 0x%02X", obj.path, r.rtype)
			}

			var buf []byte
			var slot int
			switch r.section {
			case sectCode:
				buf = code
				slot = int(obj.codeBase-ld.baseAddr) + int(r.offset)
			case sectData:
				buf = data
				slot = int(obj.dataBase-ld.baseAddr-totalCode) + int(r.offset)
			default:
				return nil, nil, fmt.Errorf("%s: relocation in an unpatchable section", obj.path)
			}
			if slot+3 > len(buf) {
				return nil, nil, fmt.Errorf("%s: relocation offset 0x%06X out of bounds", obj.path, r.offset)
			}

			var target uint32
			if r.targetSect == sectAbs {
				if int(r.externIdx) >= len(obj.externs) {
					return nil, nil, fmt.Errorf("%s: relocation external index %d out of range", obj.path, r.externIdx)
				}
				name := obj.externs[r.externIdx].name
				g, ok := ld.globalSyms[name]
				if !ok {
					return nil, nil, fmt.Errorf("undefined symbol: %s", name)
				}
				target = g.absValue
			} else {
				base, ok := ld.sectionBase(obj, r.targetSect)
				if !ok {
					return nil, nil, fmt.Errorf("%s: relocation targets an invalid section tag %d", obj.path, r.targetSect)
				}
				target = base
			}

			addend := get24(buf[slot : slot+3])
			result := (addend + target) & 0xFFFFFF
			put24(buf[slot:slot+3], result)

			if ld.trace != nil {
				ld.trace.Infow("patched relocation", "object", obj.path, "offset", r.offset, "target", target)
			}
		}
	}
	return code, data, nil
}

/* link runs every phase in order and returns the final flat CODE+DATA
   byte streams ready for output. */
func (ld *linker) link() (code, data []byte, err error) {
	if err := ld.seedSynthetics(); err != nil {
		return nil, nil, err
	}
	for i := range ld.objects {
		if err := ld.registerExports(i); err != nil {
			return nil, nil, err
		}
	}
	if err := ld.resolveLibraries(); err != nil {
		return nil, nil, err
	}
	ld.totalCode, ld.totalData, ld.totalBSS = ld.layout()
	ld.promoteSymbols(ld.totalCode, ld.totalData, ld.totalBSS)
	return ld.patch()
}
