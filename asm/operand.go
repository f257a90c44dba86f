package main

import (
	"fmt"
	"strings"
)

var registerNames = map[string]int{
	"a": regA, "b": regB, "c": regC, "d": regD, "e": regE, "h": regH, "l": regL,
	"ixh": regIXH, "ixl": regIXL, "iyh": regIYH, "iyl": regIYL,
	"i": regI, "r": regR, "mb": regMB,
	"af": regAF, "bc": regBC, "de": regDE, "hl": regHL, "sp": regSP,
	"ix": regIX, "iy": regIY, "af'": regAFPrime,
}

var conditionNames = map[string]int{
	"nz": ccNZ, "z": ccZ, "nc": ccNC, "c": ccC,
	"po": ccPO, "pe": ccPE, "p": ccP, "m": ccM,
}

func lookupRegister(name string) (int, bool) {
	r, ok := registerNames[strings.ToLower(name)]
	return r, ok
}

func lookupCondition(name string) (int, bool) {
	cc, ok := conditionNames[strings.ToLower(name)]
	return cc, ok
}

/* parseOperandList splits the remainder of the line on commas and parses
   each field as an operand. */
func (as *assembleCtx) parseOperandList() ([]operand, error) {
	var ops []operand
	if as.lx.peek().typ == tokEOL {
		return ops, nil
	}
	for {
		op, err := as.parseOperand()
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
		if as.lx.peek().typ != tokComma {
			break
		}
		as.lx.next()
	}
	return ops, nil
}

/* parseOperand dispatches by leading token: a paren opens an indirect
   form, a register or condition name stands alone, anything else is an
   immediate expression. */
func (as *assembleCtx) parseOperand() (operand, error) {
	tk := as.lx.peek()

	if tk.typ == tokLParen {
		return as.parseIndirect()
	}

	if tk.typ == tokIdent {
		lowered := strings.ToLower(tk.text)
		if lowered == "ix" || lowered == "iy" {
			/* bare IX/IY may be followed by +/- to form an index+displacement
			   operand outside parens too, e.g. LEA HL, IX+5 */
			save := *as.lx
			as.lx.next()
			nt := as.lx.peek()
			if nt.typ == tokPlus || nt.typ == tokMinus {
				kind := opIXOff
				if lowered == "iy" {
					kind = opIYOff
				}
				ep := newExprParser(as.lx, as.asm)
				v, err := ep.parse()
				if err != nil {
					return operand{}, err
				}
				return operand{kind: kind, expr: v}, nil
			}
			*as.lx = save
		}
		if reg, ok := lookupRegister(tk.text); ok {
			as.lx.next()
			op := operand{kind: opReg, reg: reg}
			if cc, ok := lookupCondition(tk.text); ok {
				op.hasCC = true
				op.cc = cc
			}
			return op, nil
		}
		if cc, ok := lookupCondition(tk.text); ok {
			as.lx.next()
			return operand{kind: opCond, cc: cc, hasCC: true}, nil
		}
	}

	ep := newExprParser(as.lx, as.asm)
	v, err := ep.parse()
	if err != nil {
		return operand{}, err
	}
	return operand{kind: opImm, expr: v}, nil
}

func (as *assembleCtx) parseIndirect() (operand, error) {
	as.lx.next() /* '(' */
	tk := as.lx.peek()

	if tk.typ == tokIdent {
		lowered := strings.ToLower(tk.text)
		switch lowered {
		case "hl":
			as.lx.next()
			return as.closeParen(operand{kind: opIndReg, reg: regIndHL})
		case "bc":
			as.lx.next()
			return as.closeParen(operand{kind: opIndReg, reg: regIndBC})
		case "de":
			as.lx.next()
			return as.closeParen(operand{kind: opIndReg, reg: regIndDE})
		case "sp":
			as.lx.next()
			return as.closeParen(operand{kind: opIndReg, reg: regIndSP})
		case "c":
			as.lx.next()
			return as.closeParen(operand{kind: opIndReg, reg: regIndC})
		case "ix", "iy":
			as.lx.next()
			kind := opIXOff
			reg := regIndIX
			if lowered == "iy" {
				kind = opIYOff
				reg = regIndIY
			}
			nt := as.lx.peek()
			if nt.typ == tokPlus || nt.typ == tokMinus {
				ep := newExprParser(as.lx, as.asm)
				v, err := ep.parse()
				if err != nil {
					return operand{}, err
				}
				return as.closeParen(operand{kind: kind, expr: v})
			}
			return as.closeParen(operand{kind: opIndReg, reg: reg})
		}
	}

	ep := newExprParser(as.lx, as.asm)
	v, err := ep.parse()
	if err != nil {
		return operand{}, err
	}
	return as.closeParen(operand{kind: opAddr, expr: v})
}

func (as *assembleCtx) closeParen(op operand) (operand, error) {
	if as.lx.peek().typ != tokRParen {
		return operand{}, fmt.Errorf("expected ')'")
	}
	as.lx.next()
	return op, nil
}

func (op operand) isIndexHalf() bool {
	return op.reg == regIXH || op.reg == regIXL || op.reg == regIYH || op.reg == regIYL
}

func (op operand) isIXHalf() bool  { return op.reg == regIXH || op.reg == regIXL }
func (op operand) isIYHalf() bool  { return op.reg == regIYH || op.reg == regIYL }
func (op operand) isPlainHL() bool { return op.reg == regH || op.reg == regL }
