package main

import (
	"fmt"
	"os"
	"strings"
)

var directiveAliases = map[string]string{
	"db": "db", "defb": "db", "byte": "db",
	"dw": "dw", "defw": "dw", "word": "dw",
	"dl": "dl", "defl": "dl", "long": "dl", "dd": "dl",
	"ds": "ds", "defs": "ds", "rmb": "ds", "blkb": "ds",
	"section": "section", "segment": "section",
	"xdef": "xdef", "public": "xdef", "global": "xdef",
	"xref": "xref", "extern": "xref", "external": "xref",
	"org": "org", "equ": "equ",
	"align": "align", "ascii": "ascii",
	"asciz": "asciz", "asciiz": "asciz",
	"assume": "assume", "include": "include", "incbin": "incbin",
	"end": "end",
}

/* canonicalDirective strips an optional leading '.' and resolves
   aliases, case-insensitively. */
func canonicalDirective(name string) (string, bool) {
	n := strings.ToLower(name)
	n = strings.TrimPrefix(n, ".")
	canon, ok := directiveAliases[n]
	return canon, ok
}

/* execDirective runs one directive against the remainder of the current line. */
func (as *assembleCtx) execDirective(name string) error {
	canon, _ := canonicalDirective(name)
	switch canon {
	case "org":
		v, err := as.constExpr()
		if err != nil {
			return err
		}
		as.asm.setPC(uint32(v))

	case "equ":
		return as.execEqu()

	case "db":
		return as.emitBytesDirective()

	case "dw":
		return as.emitWordsDirective()

	case "dl":
		return as.emitLongsDirective()

	case "ds":
		return as.execDS()

	case "section":
		return as.execSection()

	case "xdef":
		return as.execSymbolListDirective(as.asm.setExport)

	case "xref":
		return as.execSymbolListDirective(as.asm.setExtern)

	case "align":
		return as.execAlign()

	case "ascii":
		return as.execAscii(false)

	case "asciz":
		return as.execAscii(true)

	case "assume":
		return as.execAssume()

	case "include":
		/* preprocessFile already spliced the named file's lines in place
		   before either pass began; nothing left to do here. */

	case "incbin":
		return as.execIncbin()

	case "end":
		/* no-op sentinel */

	default:
		return fmt.Errorf("unknown directive: %s", name)
	}
	return nil
}

/* execEqu binds the line's label in the ABS section. A forward reference
   makes the expression symbolic in pass 1; the label is provisionally
   bound to 0 and pass 2, with every symbol defined, settles the real
   value — only a still-symbolic expression in pass 2 is an error. */
func (as *assembleCtx) execEqu() error {
	if as.label == "" {
		return fmt.Errorf("EQU requires a label")
	}
	ep := newExprParser(as.lx, as.asm)
	v, err := ep.parse()
	if err != nil {
		return err
	}
	if v.sym != nil {
		if as.asm.pass == 2 {
			return fmt.Errorf("EQU requires a constant expression")
		}
		v.n = 0
	}
	if err := as.asm.define(as.labelKey(), uint32(v.n), sectAbs); err != nil {
		return err
	}
	as.labelConsumed = true
	return nil
}

func (as *assembleCtx) constExpr() (int32, error) {
	ep := newExprParser(as.lx, as.asm)
	v, err := ep.parse()
	if err != nil {
		return 0, err
	}
	if v.sym != nil {
		return 0, fmt.Errorf("expected constant expression")
	}
	return v.n, nil
}

func (as *assembleCtx) emitBytesDirective() error {
	for {
		if as.lx.peek().typ == tokString {
			tk := as.lx.next()
			for i := 0; i < len(tk.text); i++ {
				as.asm.emitByte(tk.text[i])
			}
		} else {
			v, err := as.immExpr("DB")
			if err != nil {
				return err
			}
			as.asm.emitByte(byte(v.n))
		}
		if as.lx.peek().typ != tokComma {
			break
		}
		as.lx.next()
	}
	return nil
}

func (as *assembleCtx) emitWordsDirective() error {
	for {
		v, err := as.immExpr("DW")
		if err != nil {
			return err
		}
		as.asm.emitWord(uint16(v.n))
		if as.lx.peek().typ != tokComma {
			break
		}
		as.lx.next()
	}
	return nil
}

func (as *assembleCtx) emitLongsDirective() error {
	for {
		ep := newExprParser(as.lx, as.asm)
		v, err := ep.parse()
		if err != nil {
			return err
		}
		if v.sym != nil {
			as.asm.emitRelocLong(v)
		} else {
			as.asm.emitLong(uint32(v.n))
		}
		if as.lx.peek().typ != tokComma {
			break
		}
		as.lx.next()
	}
	return nil
}

/* immExpr evaluates an expression for DB/DW, which cannot hold a
   relocatable symbol: their slots are narrower than an ADDR24 patch. */
func (as *assembleCtx) immExpr(directive string) (exprVal, error) {
	ep := newExprParser(as.lx, as.asm)
	v, err := ep.parse()
	if err != nil {
		return exprVal{}, err
	}
	if v.sym != nil {
		return exprVal{}, fmt.Errorf("%s cannot emit a relocatable symbol; use DL", directive)
	}
	return v, nil
}

func (as *assembleCtx) execDS() error {
	count, err := as.constExpr()
	if err != nil {
		return err
	}
	fill := byte(0)
	if as.lx.peek().typ == tokComma {
		as.lx.next()
		fv, err := as.constExpr()
		if err != nil {
			return err
		}
		fill = byte(fv)
	}
	for i := int32(0); i < count; i++ {
		as.asm.emitByte(fill)
	}
	return nil
}

func (as *assembleCtx) execSection() error {
	tk := as.lx.next()
	if tk.typ != tokIdent {
		return fmt.Errorf("expected section name")
	}
	var sect uint8
	switch strings.ToLower(tk.text) {
	case "code", "text", ".text":
		sect = sectCode
	case "data", ".data":
		sect = sectData
	case "bss", ".bss":
		sect = sectBSS
	default:
		fmt.Fprintf(os.Stderr, "%s:%d: warning: unknown section %q, defaulting to CODE\n", as.asm.inputFile, as.line, tk.text)
		sect = sectCode
	}
	as.asm.switchSection(sect)
	return nil
}

func (as *assembleCtx) execSymbolListDirective(apply func(string) error) error {
	for {
		tk := as.lx.next()
		if tk.typ != tokIdent {
			return fmt.Errorf("expected symbol name")
		}
		if err := apply(tk.text); err != nil {
			return err
		}
		if as.lx.peek().typ != tokComma {
			break
		}
		as.lx.next()
	}
	return nil
}

func (as *assembleCtx) execAlign() error {
	n, err := as.constExpr()
	if err != nil {
		return err
	}
	if n <= 0 || (n&(n-1)) != 0 {
		return fmt.Errorf("ALIGN requires a power of two")
	}
	pc := as.asm.currentPC()
	rem := pc % uint32(n)
	if rem != 0 {
		pad := uint32(n) - rem
		for i := uint32(0); i < pad; i++ {
			as.asm.emitByte(0)
		}
	}
	return nil
}

func (as *assembleCtx) execAscii(terminated bool) error {
	tk := as.lx.next()
	if tk.typ != tokString {
		return fmt.Errorf("expected string literal")
	}
	for i := 0; i < len(tk.text); i++ {
		as.asm.emitByte(tk.text[i])
	}
	if terminated {
		as.asm.emitByte(0)
	}
	return nil
}

func (as *assembleCtx) execAssume() error {
	tk := as.lx.next()
	if tk.typ != tokIdent || strings.ToUpper(tk.text) != "ADL" {
		return fmt.Errorf("expected ASSUME ADL=1")
	}
	if as.lx.next().typ != tokEquals {
		return fmt.Errorf("expected '=' after ADL")
	}
	v, err := as.constExpr()
	if err != nil {
		return err
	}
	if v != 1 {
		return fmt.Errorf("ASSUME ADL=0 is rejected: this assembler targets ADL mode only")
	}
	return nil
}

func (as *assembleCtx) execIncbin() error {
	tk := as.lx.next()
	if tk.typ != tokString {
		return fmt.Errorf("expected quoted filename")
	}
	data, err := os.ReadFile(tk.text)
	if err != nil {
		return fmt.Errorf("cannot open incbin file %q: %v", tk.text, err)
	}
	for _, b := range data {
		as.asm.emitByte(b)
	}
	return nil
}
