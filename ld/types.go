package main

/* Object file constants. asm and objdump carry their own copies of this
   table; the three tools share the wire format, not a package. */
const (
	objMagic0  = 0x45 /* 'E' */
	objMagic1  = 0x5A /* 'Z' */
	objMagic2  = 0x38 /* '8' */
	objMagic3  = 0x4F /* 'O' */
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

type objSymbol struct {
	name    string
	section uint8
	flags   uint8
	value   uint32
}

type objReloc struct {
	offset     uint32
	section    uint8
	rtype      uint8
	targetSect uint8
	externIdx  uint16
}

type objExtern struct {
	name     string
	symIndex uint32
}

/* objectFile is one loaded EZ80 object, whether named directly on the
   command line or pulled from a library by selective inclusion. */
type objectFile struct {
	path string

	codeSize, dataSize, bssSize uint32
	code                        []byte
	data                        []byte
	symbols                     []objSymbol
	relocs                      []objReloc
	externs                     []objExtern

	codeBase, dataBase, bssBase uint32
}

/* archiveMember records one unloaded library member: the byte range within
   its archive and the names it exports, enough to drive selective
   inclusion without linking members that satisfy nothing. */
type archiveMember struct {
	archivePath string
	obj         *objectFile /* fully parsed eagerly; archives here are small */
	exports     map[string]bool
	loaded      bool
}

func put24(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
}

func get24(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16
}

func getU16(b []byte) uint16 {
	return uint16(b[0]) | uint16(b[1])<<8
}

func putU16(b []byte, v uint16) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
}
