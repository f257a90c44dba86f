package main

/* Object file constants. ld and objdump carry their own copies of this
   table; the three tools share the wire format, not a package. */
const (
	objMagic0 = 0x45 /* 'E' */
	objMagic1 = 0x5A /* 'Z' */
	objMagic2 = 0x38 /* '8' */
	objMagic3 = 0x4F /* 'O' */
	objVersion = 3

	sectAbs  = 0
	sectCode = 1
	sectData = 2
	sectBSS  = 3

	symLocal  = 0
	symExport = 1
	symExtern = 2

	relocAddr24 = 1

	headerSize = 27
)

/* Token types */
const (
	tokEOF = iota
	tokEOL
	tokLabel
	tokIdent
	tokNumber
	tokString
	tokChar
	tokComma
	tokColon
	tokLParen
	tokRParen
	tokPlus
	tokMinus
	tokStar
	tokSlash
	tokDollar
	tokEquals
	tokError
)

type token struct {
	typ    int
	text   string
	value  int32
	line   int
	column int
}

/* Register identifiers */
const (
	regNone = iota
	regA
	regB
	regC
	regD
	regE
	regH
	regL
	regIXH
	regIXL
	regIYH
	regIYL
	regI
	regR
	regMB
	regAF
	regBC
	regDE
	regHL
	regSP
	regIX
	regIY
	regAFPrime
	regIndBC
	regIndDE
	regIndHL
	regIndSP
	regIndIX
	regIndIY
	regIndC
)

/* Condition codes, 0-7, matching the CB/JP/CALL/RET cc field */
const (
	ccNZ = 0
	ccZ  = 1
	ccNC = 2
	ccC  = 3
	ccPO = 4
	ccPE = 5
	ccP  = 6
	ccM  = 7
)

/* Operand kinds */
const (
	opNone = iota
	opReg
	opImm
	opAddr
	opIndReg
	opIXOff
	opIYOff
	opCond
	opBit
	opRST
	opIM
)

/* symRef is the at-most-one symbolic term an expression can carry. */
type symRef struct {
	name    string
	section uint8 /* sectAbs/sectCode/sectData/sectBSS; sectAbs when extern (resolved later) */
	extern  bool
	negate  bool /* symbol appears with a negative coefficient, e.g. -foo or n-foo */
}

/* exprVal is the result of evaluating a constant expression: a 24-bit
   integer plus at most one symbolic term. */
type exprVal struct {
	n   int32
	sym *symRef
}

/* operand is a tagged variant over the six addressing forms.
   The C register/condition ambiguity is resolved by populating both reg
   and cc on the same operand; instruction handlers read whichever they need. */
type operand struct {
	kind  int
	reg   int
	cc    int
	hasCC bool
	expr  exprVal /* immediate value / absolute address / displacement */
}

/* symbol is a symbol-table entry. */
type symbol struct {
	name       string
	value      uint32
	section    uint8
	flags      uint8 /* symLocal / symExport / symExtern */
	defined    bool
	pass1Value uint32
	externIdx  int /* index into asm.externs once flagged extern, else -1 */
	hashNext   int /* next index in hash bucket chain, -1 = end */
}

/* relocation is a pending relocation record. */
type relocation struct {
	offset     uint32
	section    uint8
	rtype      uint8
	targetSect uint8 /* 0 = external, else sectCode/sectData/sectBSS */
	externIdx  uint16
}

const symHashBuckets = 256 /* power of two so the hash mask is cheap */

/* assembler holds all per-translation-unit state threaded through both passes. */
type assembler struct {
	inputFile string

	pass   int
	line   int
	errors int

	symbols  []symbol
	hash     [symHashBuckets]int /* bucket heads, -1 = empty */
	externs  []string
	localGen int /* local-label scope counter, bumped on every non-local label */

	curSection uint8
	codePC     uint32
	dataPC     uint32
	bssPC      uint32

	code   []byte
	data   []byte
	relocs []relocation
}
