package main

import (
	"fmt"
	"os"
	"strings"
)

type srcLine struct {
	text   string
	file   string
	lineNo int
}

/* preprocessFile flattens INCLUDE directives by textual substitution,
   splicing each included file in place of its directive line, so both
   passes walk one fixed, already-expanded line list and advance
   identically. */
func preprocessFile(path string, depth int) ([]srcLine, error) {
	if depth > 32 {
		return nil, fmt.Errorf("include nesting too deep (%s)", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open %q: %v", path, err)
	}
	var out []srcLine
	for i, raw := range strings.Split(string(data), "\n") {
		stripped := strings.TrimRight(raw, "\r")
		if incFile, ok := includeTarget(stripped); ok {
			nested, err := preprocessFile(incFile, depth+1)
			if err != nil {
				return nil, err
			}
			out = append(out, nested...)
			continue
		}
		out = append(out, srcLine{text: stripped, file: path, lineNo: i + 1})
	}
	return out, nil
}

/* includeTarget recognizes a bare INCLUDE directive line (optionally with
   a label) and extracts its quoted filename, without running the full
   lexer/directive dispatch machinery during preprocessing. */
func includeTarget(line string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, ";") || strings.HasPrefix(trimmed, "#") {
		return "", false
	}
	fields := strings.Fields(trimmed)
	if len(fields) < 2 {
		return "", false
	}
	word := strings.TrimSuffix(fields[0], ":")
	canon, ok := canonicalDirective(word)
	if !ok || canon != "include" {
		return "", false
	}
	rest := strings.TrimSpace(strings.TrimPrefix(trimmed, fields[0]))
	if len(rest) < 2 || rest[0] != '"' {
		return "", false
	}
	end := strings.IndexByte(rest[1:], '"')
	if end < 0 {
		return "", false
	}
	return rest[1 : end+1], true
}

/* assembleCtx carries the per-statement parsing state: the shared
   assembler plus this line's lexer, label, and mnemonic. */
type assembleCtx struct {
	asm           *assembler
	lx            *lexer
	line          int
	label         string
	labelConsumed bool
}

func (as *assembleCtx) labelKey() string {
	if isLocalLabel(as.label) {
		return as.asm.mangleLocal(as.label)
	}
	return as.label
}

func assembleSource(inputFile string, lines []srcLine) (*assembler, []string) {
	asm := newAssemblerState(inputFile)
	var diags []string

	run := func(pass int) {
		asm.pass = pass
		asm.codePC, asm.dataPC, asm.bssPC = 0, 0, 0
		asm.curSection = sectCode
		asm.localGen = 0
		if pass == 2 {
			asm.code = asm.code[:0]
			asm.data = asm.data[:0]
			asm.relocs = nil
		}
		for _, sl := range lines {
			if strings.TrimSpace(sl.text) == "" {
				continue
			}
			asm.line = sl.lineNo
			if err := asm.processLine(sl); err != nil {
				diags = append(diags, fmt.Sprintf("%s:%d: %v", sl.file, sl.lineNo, err))
				asm.errors++
			}
		}
	}

	run(1)
	if asm.errors == 0 {
		run(2)
	}
	return asm, diags
}

func (asm *assembler) processLine(sl srcLine) error {
	lx := newLexer(sl.text, sl.lineNo)
	as := &assembleCtx{asm: asm, lx: lx, line: sl.lineNo}

	if lx.peek().typ == tokLabel {
		tk := lx.next()
		as.label = tk.text
	} else {
		as.maybeImplicitLabel()
	}

	tk := lx.peek()
	if tk.typ == tokEOL {
		return as.finishLabelOnly()
	}

	/* "label = expr" is the assignment spelling of EQU */
	if tk.typ == tokEquals {
		if as.label == "" {
			return fmt.Errorf("'=' requires a label")
		}
		lx.next()
		if err := as.execDirective("equ"); err != nil {
			return err
		}
		return as.requireEOL()
	}

	if tk.typ == tokIdent {
		name := tk.text
		if canon, ok := canonicalDirective(name); ok {
			lx.next()
			if canon != "equ" && as.label != "" {
				if err := as.defineLabelHere(); err != nil {
					return err
				}
			}
			if err := as.execDirective(canon); err != nil {
				return err
			}
			return as.requireEOL()
		}
		if _, ok := instrTable[strings.ToLower(name)]; ok {
			lx.next()
			if as.label != "" {
				if err := as.defineLabelHere(); err != nil {
					return err
				}
			}
			ops, err := as.parseOperandList()
			if err != nil {
				return err
			}
			if err := as.asm.encode(strings.ToLower(name), ops); err != nil {
				return err
			}
			return as.requireEOL()
		}
		return fmt.Errorf("unknown instruction or directive: %s", name)
	}

	return fmt.Errorf("unexpected token: %s", tk.text)
}

/* maybeImplicitLabel recognizes the colon-less label spelling: an
   identifier in column 1 that is not itself a mnemonic, followed by a
   statement (or by '=', the assignment form of EQU). A bare identifier
   on a line of its own is not a label and falls through to the unknown-
   instruction diagnostic. */
func (as *assembleCtx) maybeImplicitLabel() {
	tk := as.lx.peek()
	if tk.typ != tokIdent || tk.column != 1 {
		return
	}
	if _, isDir := canonicalDirective(tk.text); isDir {
		return
	}
	if _, isInstr := instrTable[strings.ToLower(tk.text)]; isInstr {
		return
	}
	save := *as.lx
	as.lx.next()
	nt := as.lx.peek()
	claims := nt.typ == tokEquals
	if nt.typ == tokIdent {
		_, isDir := canonicalDirective(nt.text)
		_, isInstr := instrTable[strings.ToLower(nt.text)]
		claims = isDir || isInstr
	}
	if !claims {
		*as.lx = save
		return
	}
	as.label = tk.text
}

func (as *assembleCtx) finishLabelOnly() error {
	if as.label != "" {
		return as.defineLabelHere()
	}
	return nil
}

func (as *assembleCtx) defineLabelHere() error {
	if as.labelConsumed {
		return nil
	}
	key := as.labelKey()
	if err := as.asm.define(key, as.asm.currentPC(), as.asm.curSection); err != nil {
		return err
	}
	if !isLocalLabel(as.label) {
		/* a non-local label terminates the previous local-label region */
		as.asm.bumpScope()
	}
	return nil
}

func (as *assembleCtx) requireEOL() error {
	if as.lx.peek().typ != tokEOL {
		return fmt.Errorf("unexpected content after statement: %q", as.lx.peek().text)
	}
	return nil
}

/* --- section/PC/emit machinery --- */

func (a *assembler) currentPC() uint32 {
	switch a.curSection {
	case sectData:
		return a.dataPC
	case sectBSS:
		return a.bssPC
	default:
		return a.codePC
	}
}

func (a *assembler) switchSection(sect uint8) {
	a.curSection = sect
}

func (a *assembler) setPC(target uint32) {
	switch a.curSection {
	case sectData:
		a.dataPC = target & 0xFFFFFF
	case sectBSS:
		a.bssPC = target & 0xFFFFFF
	default:
		a.codePC = target & 0xFFFFFF
	}
}

func (a *assembler) emitByte(b byte) {
	switch a.curSection {
	case sectCode:
		if a.pass == 2 {
			a.code = append(a.code, b)
		}
		a.codePC++
	case sectData:
		if a.pass == 2 {
			a.data = append(a.data, b)
		}
		a.dataPC++
	case sectBSS:
		a.bssPC++
	}
}

func (a *assembler) emitWord(w uint16) {
	a.emitByte(byte(w))
	a.emitByte(byte(w >> 8))
}

func (a *assembler) emitLong(l uint32) {
	a.emitByte(byte(l))
	a.emitByte(byte(l >> 8))
	a.emitByte(byte(l >> 16))
}

/* emitRelocLong writes the symbol's literal value (its section-relative
   address, or the bare offset when the symbol is external) as the 24-bit
   addend, and — in pass 2 only — records the relocation that tells the
   linker what base to add to it. The offset is the section's byte count,
   not the PC, so ORG cannot skew it. */
func (a *assembler) emitRelocLong(v exprVal) {
	if a.pass == 2 && a.curSection != sectBSS {
		r := relocation{
			section: a.curSection,
			rtype:   relocAddr24,
		}
		if a.curSection == sectData {
			r.offset = uint32(len(a.data))
		} else {
			r.offset = uint32(len(a.code))
		}
		if v.sym.extern {
			s := a.findSymbol(v.sym.name)
			r.targetSect = 0
			r.externIdx = uint16(s.externIdx)
		} else {
			r.targetSect = v.sym.section
		}
		a.relocs = append(a.relocs, r)
	}
	a.emitLong(uint32(v.n))
}
