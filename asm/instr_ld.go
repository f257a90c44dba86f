package main

import "fmt"

func (a *assembler) encode(mnemonic string, ops []operand) error {
	h, ok := instrTable[mnemonic]
	if !ok {
		return fmt.Errorf("unknown instruction: %s", mnemonic)
	}
	return h(a, mnemonic, ops)
}

/* emitAddrOperand writes the 24-bit address/immediate carried by an
   operand's expression, recording an ADDR24 relocation first when the
   expression is symbolic. */
func (a *assembler) emitAddrOperand(op operand) {
	if op.expr.sym != nil {
		a.emitRelocLong(op.expr)
		return
	}
	a.emitLong(uint32(op.expr.n))
}

func encodeLD(a *assembler, mnemonic string, ops []operand) error {
	if len(ops) != 2 {
		return fmt.Errorf("LD requires two operands")
	}
	dst, src := ops[0], ops[1]

	/* (1) 8-bit register-to-register */
	if dst.kind == opReg && src.kind == opReg {
		if dc, _, dok := reg8Code(dst.reg); dok {
			if sc, _, sok := reg8Code(src.reg); sok {
				prefix, err := mergePrefix(dst, src)
				if err != nil {
					return err
				}
				if prefix != 0 {
					a.emitByte(prefix)
				}
				a.emitByte(0x40 | byte(dc<<3) | byte(sc))
				return nil
			}
		}
	}

	/* (2) fixed special pairs */
	if dst.kind == opReg && src.kind == opReg {
		switch {
		case dst.reg == regSP && src.reg == regHL:
			a.emitByte(0xF9)
			return nil
		case dst.reg == regSP && src.reg == regIX:
			a.emitByte(0xDD)
			a.emitByte(0xF9)
			return nil
		case dst.reg == regSP && src.reg == regIY:
			a.emitByte(0xFD)
			a.emitByte(0xF9)
			return nil
		case dst.reg == regI && src.reg == regA:
			a.emitByte(0xED)
			a.emitByte(0x47)
			return nil
		case dst.reg == regR && src.reg == regA:
			a.emitByte(0xED)
			a.emitByte(0x4F)
			return nil
		case dst.reg == regA && src.reg == regI:
			a.emitByte(0xED)
			a.emitByte(0x57)
			return nil
		case dst.reg == regA && src.reg == regR:
			a.emitByte(0xED)
			a.emitByte(0x5F)
			return nil
		case dst.reg == regMB && src.reg == regA:
			a.emitByte(0xED)
			a.emitByte(0x6D)
			return nil
		case dst.reg == regA && src.reg == regMB:
			a.emitByte(0xED)
			a.emitByte(0x6E)
			return nil
		}
	}

	/* (3) 8-bit immediate to register */
	if dst.kind == opReg && src.kind == opImm {
		if dc, prefix, ok := reg8Code(dst.reg); ok {
			if src.expr.sym != nil {
				return fmt.Errorf("8-bit immediate cannot be a relocatable symbol")
			}
			if prefix != 0 {
				a.emitByte(prefix)
			}
			a.emitByte(0x06 | byte(dc<<3))
			a.emitByte(byte(src.expr.n))
			return nil
		}
	}

	/* (4) 16-bit immediate to BC/DE/HL/SP, promoted to 24 bits in ADL mode */
	if dst.kind == opReg && src.kind == opImm {
		if dd, ok := regPairCode(dst.reg); ok {
			a.emitByte(0x01 | byte(dd<<4))
			a.emitAddrOperand(src)
			return nil
		}
		if dst.reg == regIX || dst.reg == regIY {
			a.emitByte(prefixForIXIY(dst.reg))
			a.emitByte(0x21)
			a.emitAddrOperand(src)
			return nil
		}
	}

	/* (6)/(7) load/store through (HL), (IX+d), (IY+d) */
	if mem, reg, toMem, ok := splitMemReg(dst, src); ok {
		return encodeLDMem(a, mem, reg, toMem)
	}

	/* immediate store through (HL), (IX+d), (IY+d) */
	if isMemOperand(dst) && src.kind == opImm {
		if src.expr.sym != nil {
			return fmt.Errorf("8-bit immediate cannot be a relocatable symbol")
		}
		if dst.kind == opIndReg {
			a.emitByte(0x36)
			a.emitByte(byte(src.expr.n))
			return nil
		}
		a.emitByte(memPrefix(dst))
		a.emitByte(0x36)
		if err := emitDisplacement(a, dst); err != nil {
			return err
		}
		a.emitByte(byte(src.expr.n))
		return nil
	}

	/* (8) A<->(BC), A<->(DE) */
	if dst.reg == regA && src.kind == opIndReg && src.reg == regIndBC {
		a.emitByte(0x0A)
		return nil
	}
	if dst.kind == opIndReg && dst.reg == regIndBC && src.reg == regA {
		a.emitByte(0x02)
		return nil
	}
	if dst.reg == regA && src.kind == opIndReg && src.reg == regIndDE {
		a.emitByte(0x1A)
		return nil
	}
	if dst.kind == opIndReg && dst.reg == regIndDE && src.reg == regA {
		a.emitByte(0x12)
		return nil
	}

	/* (9) A/HL/dd/IX/IY <-> (nn) */
	if dst.reg == regA && src.kind == opAddr {
		a.emitByte(0x3A)
		a.emitAddrOperand(src)
		return nil
	}
	if dst.kind == opAddr && src.reg == regA {
		a.emitByte(0x32)
		a.emitAddrOperand(dst)
		return nil
	}
	if dst.reg == regHL && src.kind == opAddr {
		a.emitByte(0x2A)
		a.emitAddrOperand(src)
		return nil
	}
	if dst.kind == opAddr && src.reg == regHL {
		a.emitByte(0x22)
		a.emitAddrOperand(dst)
		return nil
	}
	if dst.kind == opAddr && (src.reg == regIX || src.reg == regIY) {
		a.emitByte(prefixForIXIY(src.reg))
		a.emitByte(0x22)
		a.emitAddrOperand(dst)
		return nil
	}
	if (dst.reg == regIX || dst.reg == regIY) && src.kind == opAddr {
		a.emitByte(prefixForIXIY(dst.reg))
		a.emitByte(0x2A)
		a.emitAddrOperand(src)
		return nil
	}
	if dd, ok := regPairCode(dst.reg); ok && src.kind == opAddr {
		a.emitByte(0xED)
		a.emitByte(0x4B | byte(dd<<4))
		a.emitAddrOperand(src)
		return nil
	}
	if dst.kind == opAddr {
		if dd, ok := regPairCode(src.reg); ok {
			a.emitByte(0xED)
			a.emitByte(0x43 | byte(dd<<4))
			a.emitAddrOperand(dst)
			return nil
		}
	}

	return fmt.Errorf("unsupported LD operand combination")
}

func prefixForIXIY(r int) byte {
	if r == regIY {
		return 0xFD
	}
	return 0xDD
}

/* splitMemReg recognizes the (HL)/(IX+d)/(IY+d) <-> register forms,
   covering both the classic 8-bit transfers and the eZ80 16-bit register
   extension. Returns the memory operand, the
   register operand, and whether the register is the destination. */
func splitMemReg(dst, src operand) (mem, reg operand, toMem, ok bool) {
	if isMemOperand(dst) && (src.kind == opReg) {
		return dst, src, true, true
	}
	if isMemOperand(src) && (dst.kind == opReg) {
		return src, dst, false, true
	}
	return operand{}, operand{}, false, false
}

func isMemOperand(op operand) bool {
	return op.kind == opIndReg && op.reg == regIndHL || op.kind == opIXOff || op.kind == opIYOff
}

/* ldRR16Row is one row of the eZ80 16-bit load/store matrix: the opcode
   for each of the three memory bases, load and store. The prefix depends
   on the base — ED for (HL), DD for (IX+d), FD for (IY+d). The BC/DE/HL
   rows are regular; the IX/IY rows are not, since "load IX through IX"
   and the cross-index cases each have their own slot. */
type ldRR16Row struct {
	loadHL, storeHL byte
	loadIX, storeIX byte
	loadIY, storeIY byte
}

var ldRR16Table = map[int]ldRR16Row{
	regBC: {0x07, 0x0F, 0x07, 0x0F, 0x07, 0x0F},
	regDE: {0x17, 0x1F, 0x17, 0x1F, 0x17, 0x1F},
	regHL: {0x27, 0x2F, 0x27, 0x2F, 0x27, 0x2F},
	regIX: {0x37, 0x3F, 0x37, 0x3E, 0x31, 0x3D},
	regIY: {0x31, 0x3E, 0x31, 0x3D, 0x37, 0x3E},
}

func encodeLDMem(a *assembler, mem, reg operand, toMem bool) error {
	/* 16-bit register through memory: eZ80 extension */
	if row, ok16 := ldRR16Table[reg.reg]; ok16 {
		var opcode byte
		switch {
		case mem.kind == opIndReg:
			a.emitByte(0xED)
			if toMem {
				opcode = row.storeHL
			} else {
				opcode = row.loadHL
			}
			a.emitByte(opcode)
			return nil
		case mem.kind == opIXOff:
			a.emitByte(0xDD)
			if toMem {
				opcode = row.storeIX
			} else {
				opcode = row.loadIX
			}
		default:
			a.emitByte(0xFD)
			if toMem {
				opcode = row.storeIY
			} else {
				opcode = row.loadIY
			}
		}
		a.emitByte(opcode)
		return emitDisplacement(a, mem)
	}

	/* plain 8-bit LD r,(HL)/(IX+d)/(IY+d) and the reverse */
	rc, prefix, ok := reg8Code(reg.reg)
	if !ok || prefix != 0 {
		return fmt.Errorf("invalid register for memory load/store")
	}
	if mem.kind == opIndReg {
		if toMem {
			a.emitByte(0x70 | byte(rc))
		} else {
			a.emitByte(0x46 | byte(rc<<3))
		}
		return nil
	}
	a.emitByte(memPrefix(mem))
	if toMem {
		a.emitByte(0x70 | byte(rc))
	} else {
		a.emitByte(0x46 | byte(rc<<3))
	}
	return emitDisplacement(a, mem)
}

func memPrefix(mem operand) byte {
	if mem.kind == opIYOff {
		return 0xFD
	}
	return 0xDD
}

func emitDisplacement(a *assembler, mem operand) error {
	if mem.expr.sym != nil {
		return fmt.Errorf("index displacement must be a constant expression")
	}
	if mem.expr.n < -128 || mem.expr.n > 127 {
		return fmt.Errorf("index displacement out of 8-bit signed range")
	}
	a.emitByte(byte(int8(mem.expr.n)))
	return nil
}

func encodePushPop(a *assembler, mnemonic string, ops []operand) error {
	if len(ops) != 1 || ops[0].kind != opReg {
		return fmt.Errorf("%s requires a single register operand", mnemonic)
	}
	r := ops[0].reg
	base := byte(0xC5)
	if mnemonic == "pop" {
		base = 0xC1
	}
	if qq, ok := qqCode(r); ok {
		a.emitByte(base | byte(qq<<4))
		return nil
	}
	if r == regIX || r == regIY {
		a.emitByte(prefixForIXIY(r))
		if mnemonic == "pop" {
			a.emitByte(0xE1)
		} else {
			a.emitByte(0xE5)
		}
		return nil
	}
	return fmt.Errorf("%s: invalid register", mnemonic)
}

func encodeEX(a *assembler, mnemonic string, ops []operand) error {
	if len(ops) != 2 {
		return fmt.Errorf("EX requires two operands")
	}
	x, y := ops[0], ops[1]
	switch {
	case x.reg == regDE && y.reg == regHL:
		a.emitByte(0xEB)
	case x.reg == regAF && y.reg == regAFPrime:
		a.emitByte(0x08)
	case x.kind == opIndReg && x.reg == regIndSP && y.reg == regHL:
		a.emitByte(0xE3)
	case x.kind == opIndReg && x.reg == regIndSP && (y.reg == regIX || y.reg == regIY):
		a.emitByte(prefixForIXIY(y.reg))
		a.emitByte(0xE3)
	default:
		return fmt.Errorf("unsupported EX operand combination")
	}
	return nil
}
