package main

import "fmt"

/* instrHandler encodes one statement's operands for a given mnemonic.
   The dispatch table keyed by lowercased mnemonic is the encoder's
   entry point: "a dispatch table from lowercased
   mnemonic to handler." */
type instrHandler func(a *assembler, mnemonic string, ops []operand) error

var instrTable map[string]instrHandler

func init() {
	instrTable = map[string]instrHandler{}
	for name := range simpleInstrs {
		instrTable[name] = encodeSimple
	}
	for _, name := range []string{"ld"} {
		instrTable[name] = encodeLD
	}
	for _, name := range []string{"push", "pop"} {
		instrTable[name] = encodePushPop
	}
	instrTable["ex"] = encodeEX
	for _, name := range []string{"add", "adc", "sub", "sbc", "and", "xor", "or", "cp",
		"add.s", "adc.s", "sbc.s"} {
		instrTable[name] = encodeALUDispatch
	}
	for _, name := range []string{"inc", "dec"} {
		instrTable[name] = encodeIncDec
	}
	instrTable["jp"] = encodeJP
	instrTable["jr"] = encodeJRDJNZ
	instrTable["djnz"] = encodeJRDJNZ
	instrTable["call"] = encodeCALL
	instrTable["ret"] = encodeRET
	for _, name := range []string{"rst", "rst.lil"} {
		instrTable[name] = encodeRST
	}
	for _, name := range []string{"in", "out", "in0", "out0"} {
		instrTable[name] = encodeINOUT
	}
	for _, name := range []string{"bit", "set", "res",
		"rlc", "rrc", "rl", "rr", "sla", "sra", "srl"} {
		instrTable[name] = encodeCB
	}
	instrTable["lea"] = encodeLEA
	instrTable["pea"] = encodePEA
	instrTable["mlt"] = encodeMLT
	instrTable["tst"] = encodeTST
	instrTable["im"] = encodeIM
}

var simpleInstrs = map[string][2]int{
	/* unprefixed */
	"nop": {-1, 0x00}, "rlca": {-1, 0x07}, "rrca": {-1, 0x0F},
	"rla": {-1, 0x17}, "rra": {-1, 0x1F}, "daa": {-1, 0x27}, "cpl": {-1, 0x2F},
	"scf": {-1, 0x37}, "ccf": {-1, 0x3F}, "halt": {-1, 0x76}, "exx": {-1, 0xD9},
	"di": {-1, 0xF3}, "ei": {-1, 0xFB},
	/* ED-prefixed block and arithmetic family */
	"neg": {0xED, 0x44}, "retn": {0xED, 0x45}, "reti": {0xED, 0x4D},
	"rrd": {0xED, 0x67}, "rld": {0xED, 0x6F},
	"ldi": {0xED, 0xA0}, "cpi": {0xED, 0xA1}, "ini": {0xED, 0xA2}, "outi": {0xED, 0xA3},
	"ldd": {0xED, 0xA8}, "cpd": {0xED, 0xA9}, "ind": {0xED, 0xAA}, "outd": {0xED, 0xAB},
	"ldir": {0xED, 0xB0}, "cpir": {0xED, 0xB1}, "inir": {0xED, 0xB2}, "otir": {0xED, 0xB3},
	"lddr": {0xED, 0xB8}, "cpdr": {0xED, 0xB9}, "indr": {0xED, 0xBA}, "otdr": {0xED, 0xBB},
	"slp": {0xED, 0x76}, "stmix": {0xED, 0x7D}, "rsmix": {0xED, 0x7E},
}

func encodeSimple(a *assembler, mnemonic string, ops []operand) error {
	if len(ops) != 0 {
		return fmt.Errorf("%s takes no operands", mnemonic)
	}
	pair := simpleInstrs[mnemonic]
	if pair[0] >= 0 {
		a.emitByte(byte(pair[0]))
	}
	a.emitByte(byte(pair[1]))
	return nil
}

/* --- register encodings shared by several handlers --- */

func reg8Code(r int) (code int, prefix byte, ok bool) {
	switch r {
	case regB:
		return 0, 0, true
	case regC:
		return 1, 0, true
	case regD:
		return 2, 0, true
	case regE:
		return 3, 0, true
	case regH:
		return 4, 0, true
	case regL:
		return 5, 0, true
	case regA:
		return 7, 0, true
	case regIXH:
		return 4, 0xDD, true
	case regIXL:
		return 5, 0xDD, true
	case regIYH:
		return 4, 0xFD, true
	case regIYL:
		return 5, 0xFD, true
	}
	return 0, 0, false
}

func regPairCode(r int) (int, bool) {
	switch r {
	case regBC:
		return 0, true
	case regDE:
		return 1, true
	case regHL:
		return 2, true
	case regSP:
		return 3, true
	}
	return 0, false
}

func qqCode(r int) (int, bool) {
	switch r {
	case regBC:
		return 0, true
	case regDE:
		return 1, true
	case regHL:
		return 2, true
	case regAF:
		return 3, true
	}
	return 0, false
}

func aluOpCode(mnemonic string) int {
	switch mnemonic {
	case "add":
		return 0
	case "adc":
		return 1
	case "sub":
		return 2
	case "sbc":
		return 3
	case "and":
		return 4
	case "xor":
		return 5
	case "or":
		return 6
	case "cp":
		return 7
	default:
		return -1
	}
}

/* mergePrefix combines two operands' index-register prefixes. IX halves
   cannot mix with IY halves, and H/L cannot appear alongside either,
   since one prefix byte renames both at once. */
func mergePrefix(a, b operand) (byte, error) {
	ap := prefixOf(a)
	bp := prefixOf(b)
	if ap != 0 && bp != 0 && ap != bp {
		return 0, fmt.Errorf("cannot mix IX and IY half registers in one instruction")
	}
	prefix := ap
	if prefix == 0 {
		prefix = bp
	}
	if prefix != 0 && (a.isPlainHL() || b.isPlainHL()) {
		return 0, fmt.Errorf("cannot mix H/L with an IX/IY half register")
	}
	return prefix, nil
}

func prefixOf(op operand) byte {
	if op.isIXHalf() {
		return 0xDD
	}
	if op.isIYHalf() {
		return 0xFD
	}
	return 0
}
