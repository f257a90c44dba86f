package main

import "fmt"

var cbBase = map[string]byte{
	"rlc": 0x00, "rrc": 0x08, "rl": 0x10, "rr": 0x18,
	"sla": 0x20, "sra": 0x28, "srl": 0x38,
	"bit": 0x40, "res": 0x80, "set": 0xC0,
}

func cbNeedsBit(mnemonic string) bool {
	return mnemonic == "bit" || mnemonic == "res" || mnemonic == "set"
}

/* cbRegCode maps an operand to the CB-instruction's 3-bit r field: the
   usual 8 registers, or 6 for (HL)/(IX+d)/(IY+d). */
func cbRegCode(op operand) (int, bool) {
	if op.kind == opIndReg && op.reg == regIndHL {
		return 6, true
	}
	if op.kind == opIXOff || op.kind == opIYOff {
		return 6, true
	}
	if op.kind == opReg {
		if code, prefix, ok := reg8Code(op.reg); ok && prefix == 0 {
			return code, true
		}
	}
	return 0, false
}

/* encodeCB covers BIT/SET/RES and the rotate/shift family. Register and
   (HL) forms are plain CB + opcode; index forms insert the prefix byte and
   displacement before the final opcode byte. */
func encodeCB(a *assembler, mnemonic string, ops []operand) error {
	base, ok := cbBase[mnemonic]
	if !ok {
		return fmt.Errorf("unknown bit/shift mnemonic: %s", mnemonic)
	}

	var bit int
	var target operand
	if cbNeedsBit(mnemonic) {
		if len(ops) != 2 {
			return fmt.Errorf("%s requires a bit number and an operand", mnemonic)
		}
		if ops[0].expr.sym != nil {
			return fmt.Errorf("%s: bit number must be a constant", mnemonic)
		}
		bit = int(ops[0].expr.n)
		if bit < 0 || bit > 7 {
			return fmt.Errorf("%s: bit number %d out of range 0-7", mnemonic, bit)
		}
		target = ops[1]
	} else {
		if len(ops) != 1 {
			return fmt.Errorf("%s requires exactly one operand", mnemonic)
		}
		target = ops[0]
	}

	rcode, ok := cbRegCode(target)
	if !ok {
		return fmt.Errorf("%s: unsupported operand", mnemonic)
	}
	opcodeByte := base | byte(bit<<3) | byte(rcode)

	if target.kind == opIXOff || target.kind == opIYOff {
		prefix := byte(0xDD)
		if target.kind == opIYOff {
			prefix = 0xFD
		}
		a.emitByte(prefix)
		a.emitByte(0xCB)
		if err := emitDisplacement(a, target); err != nil {
			return err
		}
		a.emitByte(opcodeByte)
		return nil
	}

	a.emitByte(0xCB)
	a.emitByte(opcodeByte)
	return nil
}
