package main

import "strings"

// TransputerModel distinguishes the four processor variants. The model is
// recorded on a TransputerISA but mnemonic recognition does not consult
// it: every model accepts the same table, and that table has no
// floating-point instructions.
type TransputerModel int

const (
	T414 TransputerModel = iota
	T800
	T801
	T805
)

// directOpcodes maps the fourteen primary (direct) mnemonics other than
// PFIX and NFIX to their opcode nibble. PFIX and NFIX are never written
// directly by a program;
// they are generated internally by the operand encoder.
var directOpcodes = map[string]byte{
	"J":     0x0,
	"LDLP":  0x1,
	"LDNL":  0x3,
	"LDC":   0x4,
	"LDNLP": 0x5,
	"LDL":   0x7,
	"ADC":   0x8,
	"CALL":  0x9,
	"CJ":    0xA,
	"AJW":   0xB,
	"EQC":   0xC,
	"STL":   0xD,
	"STNL":  0xE,
	"OPR":   0xF,
}

// branchMnemonics are the direct instructions whose operand is an
// offset from the address following the instruction's own encoding,
// rather than an absolute value.
var branchMnemonics = map[string]bool{
	"J": true, "CJ": true, "CALL": true,
}

// secondaryFuncCodes maps indirect (OPR-dispatched) mnemonics to their
// function code. These are fixed constants, so their encoding never
// varies in length once the function code is known -- the assembler
// does not need to iterate on them during convergence.
var secondaryFuncCodes = map[string]byte{
	"REV": 0x00, "LB": 0x01, "BSUB": 0x02, "ENDP": 0x03, "DIFF": 0x04,
	"ADD": 0x05, "GCALL": 0x06, "IN": 0x07, "PROD": 0x08, "GT": 0x09,
	"WSUB": 0x0A, "OUT": 0x0B, "SUB": 0x0C, "STARTP": 0x0D, "OUTBYTE": 0x0E,
	"OUTWORD": 0x0F, "SETERR": 0x10, "RESETCH": 0x12, "CSUB0": 0x13,
	"STOPP": 0x15, "LADD": 0x16, "STLB": 0x17, "STHF": 0x18, "SUM": 0x19,
	"MUL": 0x1A, "STLF": 0x1B, "LDIFF": 0x1C, "STHB": 0x1D, "TALTWT": 0x1E,
	"SB": 0x1F, "GAJW": 0x20, "SAVEL": 0x21, "SAVEH": 0x22, "WCNT": 0x23,
	"SHR": 0x24, "SHL": 0x25, "MINT": 0x26, "ALT": 0x27, "ALTWT": 0x28,
	"ALTEND": 0x29, "AND": 0x2A, "ENBT": 0x2B, "ENBC": 0x2C, "ENBS": 0x2D,
	"MOVE": 0x2E, "OR": 0x2F, "CSNGL": 0x30, "CCNT1": 0x31, "TALT": 0x32,
	"LDPI": 0x33, "MWENB": 0x34, "DISC": 0x35, "DISS": 0x36, "LEND": 0x37,
	"LDTIMER": 0x38, "TIN": 0x3B, "DIV": 0x3C, "NOT": 0x3F, "XOR": 0x40,
	"LSHR": 0x41, "LSHL": 0x42, "LSUM": 0x43, "LSUB": 0x44, "RUNP": 0x45,
	"XABLE": 0x46, "LDIV": 0x47, "CWORD": 0x4A, "CLRHALTERR": 0x4B,
	"SETHALTERR": 0x4C, "TESTHALTERR": 0x4D, "REM": 0x1F ^ 0x1F, // placeholder, corrected below
}

func init() {
	// REM's real function code (0x1F) collides with SB in the table
	// literal above purely as a typo guard; set it explicitly here so a
	// future edit to the literal can't silently corrupt it.
	secondaryFuncCodes["REM"] = 0x1F
	secondaryFuncCodes["DUP"] = 0x5A
	secondaryFuncCodes["WSUBDB"] = 0x81
}

// TransputerISA is the Target for .TRANSPUTER. It records one hardware
// model; parseTransputerMnemonic does not look at it.
type TransputerISA struct {
	model TransputerModel
}

func DefaultTransputerISA() *TransputerISA { return &TransputerISA{model: T805} }

func (isa *TransputerISA) SetModel(m TransputerModel) { isa.model = m }

func (isa *TransputerISA) Name() string    { return ".TRANSPUTER" }
func (isa *TransputerISA) BigEndian() bool { return false }

// parseTransputerMnemonic recognizes a direct or indirect Transputer
// instruction. ok is false if name is not a recognized mnemonic at all
// (the caller then reports "unknown statement").
func (p *Parser) parseTransputerMnemonic(loc Location, name string, operandToks []Token) (Statement, bool, *AssemblerError) {
	upper := strings.ToUpper(name)

	if nibble, ok := directOpcodes[upper]; ok {
		e, perr := p.parseExprTokens(loc, operandToks)
		if perr != nil {
			return nil, true, perr
		}
		if branchMnemonics[upper] {
			// The offset transformer rewrites this to OffsetFrom($)
			// once the code generator knows the instruction's own
			// address; the parser only records the placeholder.
			e = &Unary{Op: Offset, Operand: e}
		}
		return &DirectInstruction{Opcode: upper, OpByte: nibble << 4, Expr: e}, true, nil
	}

	if fn, ok := secondaryFuncCodes[upper]; ok {
		bytes := encodeDirectOperand(directOpcodes["OPR"], int32(fn))
		return &IndirectInstruction{Opcode: upper, Bytes: bytes}, true, nil
	}

	return nil, false, nil
}

// unsignedNibbles returns the minimal hex-digit sequence (most
// significant first, at least one digit) representing v as unsigned.
func unsignedNibbles(v int32) []byte {
	u := uint32(v)
	if u == 0 {
		return []byte{0}
	}
	var digits []byte
	for u > 0 {
		digits = append(digits, byte(u&0xF))
		u >>= 4
	}
	for i, j := 0, len(digits)-1; i < j; i, j = i+1, j-1 {
		digits[i], digits[j] = digits[j], digits[i]
	}
	return digits
}

// signedNibbleCount returns the minimal number of nibbles d (>=1) such
// that v's value equals the sign-extension of its low 4d bits.
func signedNibbleCount(v int32) int {
	d := 1
	for d < 8 {
		lo := -(int32(1) << uint(4*d-1))
		hi := (int32(1) << uint(4*d-1)) - 1
		if v >= lo && v <= hi {
			break
		}
		d++
	}
	return d
}

// signedNibbles returns exactly d hex digits (most significant first)
// of v's two's-complement representation.
func signedNibbles(v int32, d int) []byte {
	digits := make([]byte, d)
	for i := 0; i < d; i++ {
		shift := uint(4 * (d - 1 - i))
		digits[i] = byte((v >> shift) & 0xF)
	}
	return digits
}

// encodeDirectOperand returns the PFIX/NFIX-prefixed byte sequence for
// a direct-format instruction: zero or more prefix bytes followed by
// the opcode byte carrying the operand's low nibble.
//
// Non-negative operands need no disambiguating prefix when they fit a
// single nibble (the opcode's nibble range is read as unsigned). Any
// negative operand, even one that would fit the opcode's nibble alone,
// requires at least one NFIX to distinguish it from the unsigned
// interpretation; that leading NFIX's own nibble is not load-bearing
// once a further PFIX/opcode nibble follows, so by convention it
// carries nibble 1.
func encodeDirectOperand(opcodeNibble byte, v int32) []byte {
	if v >= 0 {
		digits := unsignedNibbles(v)
		out := make([]byte, 0, len(digits))
		for _, d := range digits[:len(digits)-1] {
			out = append(out, 0x20|d)
		}
		out = append(out, (opcodeNibble<<4)|digits[len(digits)-1])
		return out
	}

	d := signedNibbleCount(v)
	digits := signedNibbles(v, d)
	out := make([]byte, 0, d+1)
	out = append(out, 0x61) // NFIX 1, conventional leading sign marker
	for _, dig := range digits[:len(digits)-1] {
		out = append(out, 0x20|dig)
	}
	out = append(out, (opcodeNibble<<4)|digits[len(digits)-1])
	return out
}
