package main

import (
	"fmt"
	"os"
	"sort"
)

/* writeFlatBinary writes the linker's final output: concatenated CODE then
   DATA bytes. BSS contributes only address range, never bytes. */
func writeFlatBinary(path string, code, data []byte) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("cannot create %q: %v", path, err)
	}
	defer file.Close()
	if _, err := file.Write(code); err != nil {
		return err
	}
	if _, err := file.Write(data); err != nil {
		return err
	}
	return nil
}

var sectionNames = map[uint8]string{sectCode: "CODE", sectData: "DATA", sectBSS: "BSS"}

/* writeMapFile lists the three output sections, every object's sub-range
   within them, and every resolved symbol. */
func writeMapFile(path string, ld *linker) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("cannot create %q: %v", path, err)
	}
	defer file.Close()

	totalCode, totalData, totalBSS := ld.totalCode, ld.totalData, ld.totalBSS
	fmt.Fprintf(file, "Sections:\n")
	fmt.Fprintf(file, "  %-4s  0x%06X  %d bytes\n", sectionNames[sectCode], ld.baseAddr, totalCode)
	fmt.Fprintf(file, "  %-4s  0x%06X  %d bytes\n", sectionNames[sectData], ld.baseAddr+totalCode, totalData)
	fmt.Fprintf(file, "  %-4s  0x%06X  %d bytes\n", sectionNames[sectBSS], ld.baseAddr+totalCode+totalData, totalBSS)

	fmt.Fprintf(file, "\nObjects:\n")
	for _, obj := range ld.objects {
		fmt.Fprintf(file, "  %s\n", obj.path)
		fmt.Fprintf(file, "    %s 0x%06X..0x%06X\n", sectionNames[sectCode], obj.codeBase, obj.codeBase+obj.codeSize)
		fmt.Fprintf(file, "    %s 0x%06X..0x%06X\n", sectionNames[sectData], obj.dataBase, obj.dataBase+obj.dataSize)
		fmt.Fprintf(file, "    %s  0x%06X..0x%06X\n", sectionNames[sectBSS], obj.bssBase, obj.bssBase+obj.bssSize)
	}

	fmt.Fprintf(file, "\nSymbols:\n")
	names := make([]string, 0, len(ld.globalSyms))
	for name := range ld.globalSyms {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		g := ld.globalSyms[name]
		fmt.Fprintf(file, "  0x%06X  %s\n", g.absValue, name)
	}
	return nil
}
