package main

import "fmt"

/* ioRegCode maps a register operand to the 3-bit field IN/OUT/IN0/OUT0 use.
   (HL) contributes code 6 for IN r,(C)/OUT (C),r (a flags-only pseudo-
   register on real silicon) but is rejected for IN0/OUT0. */
func ioRegCode(op operand, allowIndHL bool) (int, bool) {
	if op.kind == opReg {
		if code, prefix, ok := reg8Code(op.reg); ok && prefix == 0 {
			return code, true
		}
	}
	if allowIndHL && op.kind == opIndReg && op.reg == regIndHL {
		return 6, true
	}
	return 0, false
}

func emitIOPort(a *assembler, op operand) error {
	if op.kind != opAddr {
		return fmt.Errorf("expected (n) port operand")
	}
	if op.expr.sym != nil {
		return fmt.Errorf("I/O port must be a constant expression")
	}
	a.emitByte(byte(op.expr.n))
	return nil
}

/* encodeINOUT covers IN, OUT, IN0, OUT0. */
func encodeINOUT(a *assembler, mnemonic string, ops []operand) error {
	if len(ops) != 2 {
		return fmt.Errorf("%s requires two operands", mnemonic)
	}
	switch mnemonic {
	case "in":
		dst, src := ops[0], ops[1]
		if dst.kind == opReg && dst.reg == regA && src.kind == opAddr {
			a.emitByte(0xDB)
			return emitIOPort(a, src)
		}
		if src.kind == opIndReg && src.reg == regIndC {
			code, ok := ioRegCode(dst, true)
			if !ok {
				return fmt.Errorf("IN: invalid destination register")
			}
			a.emitByte(0xED)
			a.emitByte(0x40 | byte(code<<3))
			return nil
		}
		return fmt.Errorf("IN: unsupported operand combination")

	case "out":
		dst, src := ops[0], ops[1]
		if dst.kind == opAddr && src.kind == opReg && src.reg == regA {
			a.emitByte(0xD3)
			return emitIOPort(a, dst)
		}
		if dst.kind == opIndReg && dst.reg == regIndC {
			code, ok := ioRegCode(src, true)
			if !ok {
				return fmt.Errorf("OUT: invalid source register")
			}
			a.emitByte(0xED)
			a.emitByte(0x41 | byte(code<<3))
			return nil
		}
		return fmt.Errorf("OUT: unsupported operand combination")

	case "in0":
		dst, src := ops[0], ops[1]
		code, ok := ioRegCode(dst, false)
		if !ok {
			return fmt.Errorf("IN0: invalid destination register")
		}
		a.emitByte(0xED)
		a.emitByte(byte(code << 3))
		return emitIOPort(a, src)

	case "out0":
		dst, src := ops[0], ops[1]
		code, ok := ioRegCode(src, false)
		if !ok {
			return fmt.Errorf("OUT0: invalid source register")
		}
		a.emitByte(0xED)
		a.emitByte(byte(code<<3) | 1)
		return emitIOPort(a, dst)
	}
	return fmt.Errorf("unknown I/O mnemonic: %s", mnemonic)
}
