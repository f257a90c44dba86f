package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
)

/* dumpObject prints one object's header summary, section hex dumps,
   symbol table, relocation table, external references, and string table,
   with the tabular sections rendered through go-pretty. */
func dumpObject(obj *objectFile) {
	sectionColor := map[uint8]func(a ...interface{}) string{
		sectCode: color.New(color.FgCyan).SprintFunc(),
		sectData: color.New(color.FgYellow).SprintFunc(),
		sectBSS:  color.New(color.FgMagenta).SprintFunc(),
		sectAbs:  color.New(color.FgWhite).SprintFunc(),
	}
	sect := func(s uint8) string {
		return sectionColor[s](sectionName(s))
	}

	fmt.Printf("%s: version %d, flags 0x%02X\n", obj.path, obj.version, obj.flags)
	fmt.Printf("  code %d bytes, data %d bytes, bss %d bytes\n", obj.codeSize, obj.dataSize, obj.bssSize)
	fmt.Printf("  %d symbols, %d relocations, %d externs\n\n", len(obj.symbols), len(obj.relocs), len(obj.externs))

	dumpHex("CODE", obj.code)
	dumpHex("DATA", obj.data)
	if obj.bssSize > 0 {
		fmt.Printf("BSS:\n  %d bytes (uninitialized)\n\n", obj.bssSize)
	}

	if len(obj.symbols) > 0 {
		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.SetTitle("Symbols")
		t.AppendHeader(table.Row{"#", "Name", "Section", "Flags", "Value"})
		for i, s := range obj.symbols {
			t.AppendRow(table.Row{i, s.name, sect(s.section), flagName(s.flags), fmt.Sprintf("0x%06X", s.value)})
		}
		t.Render()
		fmt.Println()
	}

	if len(obj.relocs) > 0 {
		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.SetTitle("Relocations")
		t.AppendHeader(table.Row{"Offset", "Section", "Type", "Target", "ExternIdx"})
		for _, r := range obj.relocs {
			typeName := "ADDR24"
			if r.rtype != relocAddr24 {
				typeName = fmt.Sprintf("0x%02X", r.rtype)
			}
			target := sect(r.targetSect)
			if r.targetSect == sectAbs {
				target = "external"
			}
			t.AppendRow(table.Row{fmt.Sprintf("0x%06X", r.offset), sect(r.section), typeName, target, r.externIdx})
		}
		t.Render()
		fmt.Println()
	}

	if len(obj.externs) > 0 {
		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.SetTitle("Externals")
		t.AppendHeader(table.Row{"#", "Name", "SymIndex"})
		for i, e := range obj.externs {
			t.AppendRow(table.Row{i, e.name, e.symIndex})
		}
		t.Render()
		fmt.Println()
	}

	if len(obj.strtab) > 0 {
		fmt.Printf("String table:\n")
		for off := 0; off < len(obj.strtab); {
			end := off
			for end < len(obj.strtab) && obj.strtab[end] != 0 {
				end++
			}
			fmt.Printf("  %06X: %q\n", off, obj.strtab[off:end])
			off = end + 1
		}
		fmt.Println()
	}
}

func dumpHex(label string, data []byte) {
	if len(data) == 0 {
		return
	}
	fmt.Printf("%s:\n", label)
	for off := 0; off < len(data); off += 16 {
		end := off + 16
		if end > len(data) {
			end = len(data)
		}
		fmt.Printf("  %06X  ", off)
		for i := off; i < end; i++ {
			fmt.Printf("%02X ", data[i])
		}
		fmt.Println()
	}
	fmt.Println()
}
