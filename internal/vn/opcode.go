// Package vn implements LZVN blocks (bvxn), a byte-aligned LZ77 format
// used for small inputs.
//
// Each operation starts with an opcode byte that packs some combination of
// a literal count L, a match length M and a match distance D:
//
//	SmlL 1110LLLL                    L literals, L in 1..15
//	LrgL 11100000 LLLLLLLL           L+16 literals
//	SmlM 1111MMMM                    match of M at the previous distance
//	LrgM 11110000 MMMMMMMM           match of M+16 at the previous distance
//	PreD LLMMM110                    L literals, match of M+3 at the previous distance
//	SmlD LLMMMDDD DDDDDDDD           L literals, match of M+3 at D
//	MedD 101LLMMM DDDDDDMM DDDDDDDD  L literals, match of M+3 at D
//	LrgD LLMMM111 DDDDDDDD DDDDDDDD  L literals, match of M+3 at D
//	EOS  00000110 followed by 7 zero bytes
//	Nop  00001110 or 00010110
//
// The literal bytes follow the opcode.
package vn

type opKind uint8

const (
	opUdef opKind = iota
	opSmlL
	opLrgL
	opSmlM
	opLrgM
	opPreD
	opSmlD
	opMedD
	opLrgD
	opEOS
	opNop
)

const (
	MaxL = 0x10F
	MaxM = 0x10F
	MaxD = 0xFFFF

	// MaxStep is the most output a single operation produces.
	MaxStep = MaxL

	eosByte = 0x06
)

var opTable [256]opKind

func init() {
	for i := range opTable {
		opTable[i] = classify(byte(i))
	}
}

func classify(b byte) opKind {
	switch {
	case b == 0xE0:
		return opLrgL
	case b&0xF0 == 0xE0:
		return opSmlL
	case b == 0xF0:
		return opLrgM
	case b&0xF0 == 0xF0:
		return opSmlM
	case b&0xE0 == 0xA0:
		return opMedD
	case b&0xF0 == 0x70, b&0xF0 == 0xD0:
		return opUdef
	}
	switch b & 7 {
	case 7:
		return opLrgD
	case 6:
		switch {
		case b == eosByte:
			return opEOS
		case b == 0x0E, b == 0x16:
			return opNop
		case b>>6 == 0:
			return opUdef
		}
		return opPreD
	}
	return opSmlD
}

// matchLenX returns the longest match that fits in a PreD, SmlD or LrgD
// opcode carrying l literals.
func matchLenX(l uint32) uint32 {
	return 10 - 2*l
}

func appendSmlL(dst []byte, l uint32) []byte {
	return append(dst, 0xE0|byte(l))
}

func appendLrgL(dst []byte, l uint32) []byte {
	return append(dst, 0xE0, byte(l-0x10))
}

func appendSmlM(dst []byte, m uint32) []byte {
	return append(dst, 0xF0|byte(m))
}

func appendLrgM(dst []byte, m uint32) []byte {
	return append(dst, 0xF0, byte(m-0x10))
}

func appendPreD(dst []byte, l, m uint32) []byte {
	return append(dst, byte(l<<6|(m-3)<<3|6))
}

func appendSmlD(dst []byte, l, m, d uint32) []byte {
	return append(dst, byte(l<<6|(m-3)<<3|d>>8), byte(d))
}

func appendMedD(dst []byte, l, m, d uint32) []byte {
	m -= 3
	return append(dst, byte(0xA0|l<<3|m>>2), byte(d<<2|m&3), byte(d>>6))
}

func appendLrgD(dst []byte, l, m, d uint32) []byte {
	return append(dst, byte(l<<6|(m-3)<<3|7), byte(d), byte(d>>8))
}
