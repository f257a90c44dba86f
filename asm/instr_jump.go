package main

import "fmt"

/* encodeJP covers JP nn, JP cc,nn, JP (HL), JP (IX)/(IY). */
func encodeJP(a *assembler, mnemonic string, ops []operand) error {
	switch len(ops) {
	case 1:
		op := ops[0]
		switch {
		case op.kind == opIndReg && op.reg == regIndHL:
			a.emitByte(0xE9)
			return nil
		case op.kind == opIndReg && op.reg == regIndIX:
			a.emitByte(0xDD)
			a.emitByte(0xE9)
			return nil
		case op.kind == opIndReg && op.reg == regIndIY:
			a.emitByte(0xFD)
			a.emitByte(0xE9)
			return nil
		}
		if op.kind != opImm && op.kind != opAddr {
			return fmt.Errorf("JP requires an address operand")
		}
		a.emitByte(0xC3)
		a.emitAddrOperand(op)
		return nil

	case 2:
		if !ops[0].hasCC {
			return fmt.Errorf("JP: expected a condition as the first operand")
		}
		if ops[1].kind != opImm && ops[1].kind != opAddr {
			return fmt.Errorf("JP requires an address operand")
		}
		a.emitByte(0xC2 | byte(ops[0].cc<<3))
		a.emitAddrOperand(ops[1])
		return nil
	}
	return fmt.Errorf("JP: wrong number of operands")
}

/* encodeJRDJNZ emits JR/JR cc/DJNZ with an 8-bit PC-relative displacement.
   External symbols are rejected outright: the linker's object format has
   no relocation type for a PC-relative slot. */
func encodeJRDJNZ(a *assembler, mnemonic string, ops []operand) error {
	var opcode byte
	var target operand

	switch {
	case mnemonic == "djnz":
		if len(ops) != 1 {
			return fmt.Errorf("DJNZ requires one operand")
		}
		opcode = 0x10
		target = ops[0]
	case len(ops) == 1:
		opcode = 0x18
		target = ops[0]
	case len(ops) == 2:
		if !ops[0].hasCC || ops[0].cc > ccC {
			return fmt.Errorf("JR: condition must be NZ, Z, NC, or C")
		}
		opcode = 0x20 | byte(ops[0].cc<<3)
		target = ops[1]
	default:
		return fmt.Errorf("%s: wrong number of operands", mnemonic)
	}

	if target.kind != opImm {
		return fmt.Errorf("%s requires an address operand", mnemonic)
	}
	if target.expr.sym != nil && target.expr.sym.extern {
		return fmt.Errorf("%s: cannot branch to an external symbol", mnemonic)
	}

	a.emitByte(opcode)
	/* displacement is relative to the byte after itself: target - (pc+1)
	   with pc already past the opcode */
	disp := target.expr.n - int32(a.currentPC()) - 1
	a.emitByte(byte(disp))
	if a.pass == 2 && (disp < -128 || disp > 127) {
		return fmt.Errorf("%s: displacement %d out of 8-bit signed range", mnemonic, disp)
	}
	return nil
}

/* encodeCALL covers CALL nn and CALL cc,nn. */
func encodeCALL(a *assembler, mnemonic string, ops []operand) error {
	switch len(ops) {
	case 1:
		if ops[0].kind != opImm && ops[0].kind != opAddr {
			return fmt.Errorf("CALL requires an address operand")
		}
		a.emitByte(0xCD)
		a.emitAddrOperand(ops[0])
		return nil
	case 2:
		if !ops[0].hasCC {
			return fmt.Errorf("CALL: expected a condition as the first operand")
		}
		if ops[1].kind != opImm && ops[1].kind != opAddr {
			return fmt.Errorf("CALL requires an address operand")
		}
		a.emitByte(0xC4 | byte(ops[0].cc<<3))
		a.emitAddrOperand(ops[1])
		return nil
	}
	return fmt.Errorf("CALL: wrong number of operands")
}

/* encodeRET covers RET and RET cc. */
func encodeRET(a *assembler, mnemonic string, ops []operand) error {
	if len(ops) == 0 {
		a.emitByte(0xC9)
		return nil
	}
	if len(ops) == 1 && ops[0].hasCC {
		a.emitByte(0xC0 | byte(ops[0].cc<<3))
		return nil
	}
	return fmt.Errorf("RET: invalid operands")
}

var rstVectors = map[int32]bool{
	0x00: true, 0x08: true, 0x10: true, 0x18: true,
	0x20: true, 0x28: true, 0x30: true, 0x38: true,
}

/* encodeRST covers RST n, accepting both the literal vector (0x00, 0x08, ...)
   and the 0-7 shorthand, plus the RST.LIL eZ80 long-indirect variant. */
func encodeRST(a *assembler, mnemonic string, ops []operand) error {
	if len(ops) != 1 || ops[0].kind != opImm || ops[0].expr.sym != nil {
		return fmt.Errorf("RST requires a constant vector")
	}
	n := ops[0].expr.n
	var vector byte
	switch {
	case n >= 0 && n <= 7:
		vector = byte(n) << 3
	case rstVectors[n]:
		vector = byte(n)
	default:
		return fmt.Errorf("invalid RST vector: 0x%02X", n)
	}
	if mnemonic == "rst.lil" {
		a.emitByte(0x5B)
	}
	a.emitByte(0xC7 | vector)
	return nil
}
