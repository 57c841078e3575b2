package cpu

import (
	"fmt"
)

// Op is a decoded operation.
type Op int

//go:generate go tool stringer -linecomment -type=Op
const (
	OP_UNKNOWN  = Op(0)  // ????
	OP_CLS      = Op(1)  // 00E0
	OP_RET      = Op(2)  // 00EE
	OP_JP       = Op(3)  // 1nnn
	OP_CALL     = Op(4)  // 2nnn
	OP_SE_IMM   = Op(5)  // 3xkk
	OP_SNE_IMM  = Op(6)  // 4xkk
	OP_SE_REG   = Op(7)  // 5xy0
	OP_LD_IMM   = Op(8)  // 6xkk
	OP_ADD_IMM  = Op(9)  // 7xkk
	OP_LD_REG   = Op(10) // 8xy0
	OP_OR       = Op(11) // 8xy1
	OP_AND      = Op(12) // 8xy2
	OP_XOR      = Op(13) // 8xy3
	OP_ADD_REG  = Op(14) // 8xy4
	OP_SUB      = Op(15) // 8xy5
	OP_SHR      = Op(16) // 8xy6
	OP_SUBN     = Op(17) // 8xy7
	OP_SHL      = Op(18) // 8xyE
	OP_SNE_REG  = Op(19) // 9xy0
	OP_LD_I     = Op(20) // Annn
	OP_JP_V0    = Op(21) // Bnnn
	OP_RND      = Op(22) // Cxkk
	OP_DRW      = Op(23) // Dxyn
	OP_SKP      = Op(24) // Ex9E
	OP_SKNP     = Op(25) // ExA1
	OP_LD_VX_DT = Op(26) // Fx07
	OP_LD_VX_K  = Op(27) // Fx0A
	OP_LD_DT_VX = Op(28) // Fx15
	OP_LD_ST_VX = Op(29) // Fx18
	OP_ADD_I    = Op(30) // Fx1E
	OP_LD_F     = Op(31) // Fx29
	OP_LD_B     = Op(32) // Fx33
	OP_LD_MEM   = Op(33) // Fx55
	OP_LD_VX_I  = Op(34) // Fx65
)

// _op_match is the fixed bit pattern of each operation, with every
// operand field zeroed.
var _op_match = [...]uint16{
	OP_CLS:      0x00E0,
	OP_RET:      0x00EE,
	OP_JP:       0x1000,
	OP_CALL:     0x2000,
	OP_SE_IMM:   0x3000,
	OP_SNE_IMM:  0x4000,
	OP_SE_REG:   0x5000,
	OP_LD_IMM:   0x6000,
	OP_ADD_IMM:  0x7000,
	OP_LD_REG:   0x8000,
	OP_OR:       0x8001,
	OP_AND:      0x8002,
	OP_XOR:      0x8003,
	OP_ADD_REG:  0x8004,
	OP_SUB:      0x8005,
	OP_SHR:      0x8006,
	OP_SUBN:     0x8007,
	OP_SHL:      0x800E,
	OP_SNE_REG:  0x9000,
	OP_LD_I:     0xA000,
	OP_JP_V0:    0xB000,
	OP_RND:      0xC000,
	OP_DRW:      0xD000,
	OP_SKP:      0xE09E,
	OP_SKNP:     0xE0A1,
	OP_LD_VX_DT: 0xF007,
	OP_LD_VX_K:  0xF00A,
	OP_LD_DT_VX: 0xF015,
	OP_LD_ST_VX: 0xF018,
	OP_ADD_I:    0xF01E,
	OP_LD_F:     0xF029,
	OP_LD_B:     0xF033,
	OP_LD_MEM:   0xF055,
	OP_LD_VX_I:  0xF065,
}

// _group_mask selects, per primary nibble, the bits that discriminate
// between the operations of that group.
var _group_mask = [16]uint16{
	0x0: 0xFFFF,
	0x1: 0xF000,
	0x2: 0xF000,
	0x3: 0xF000,
	0x4: 0xF000,
	0x5: 0xF00F,
	0x6: 0xF000,
	0x7: 0xF000,
	0x8: 0xF00F,
	0x9: 0xF00F,
	0xA: 0xF000,
	0xB: 0xF000,
	0xC: 0xF000,
	0xD: 0xF000,
	0xE: 0xF0FF,
	0xF: 0xF0FF,
}

// _op_decode maps (primary nibble, discriminator) patterns to operations.
var _op_decode = func() map[uint16]Op {
	decode := make(map[uint16]Op, len(_op_match))
	for op, match := range _op_match {
		if Op(op) == OP_UNKNOWN {
			continue
		}
		decode[match] = Op(op)
	}
	return decode
}()

// Code is a single big-endian CHIP-8 instruction word.
type Code uint16

// MakeCode creates an instruction with no operands (cls, ret).
func MakeCode(op Op) Code {
	return Code(_op_match[op])
}

// MakeCodeNnn creates an instruction with a 12-bit address operand.
func MakeCodeNnn(op Op, nnn uint16) Code {
	return Code(_op_match[op] | (nnn & 0xfff))
}

// MakeCodeX creates an instruction with a single register operand.
func MakeCodeX(op Op, x int) Code {
	return Code(_op_match[op] | (uint16(x&0xf) << 8))
}

// MakeCodeXkk creates an instruction with a register and an 8-bit immediate.
func MakeCodeXkk(op Op, x int, kk uint8) Code {
	return Code(_op_match[op] | (uint16(x&0xf) << 8) | uint16(kk))
}

// MakeCodeXy creates an instruction with two register operands.
func MakeCodeXy(op Op, x, y int) Code {
	return Code(_op_match[op] | (uint16(x&0xf) << 8) | (uint16(y&0xf) << 4))
}

// MakeCodeXyn creates a draw instruction.
func MakeCodeXyn(op Op, x, y int, n uint8) Code {
	return MakeCodeXy(op, x, y) | Code(n&0xf)
}

// Op decodes the operation of the instruction word.
func (code Code) Op() Op {
	word := uint16(code)
	op, ok := _op_decode[word&_group_mask[word>>12]]
	if !ok {
		return OP_UNKNOWN
	}
	return op
}

// X is the first register index, in bits 8-11.
func (code Code) X() int {
	return int((code >> 8) & 0xf)
}

// Y is the second register index, in bits 4-7.
func (code Code) Y() int {
	return int((code >> 4) & 0xf)
}

// N is the low nibble.
func (code Code) N() uint8 {
	return uint8(code & 0xf)
}

// KK is the low byte immediate.
func (code Code) KK() uint8 {
	return uint8(code & 0xff)
}

// NNN is the low 12-bit address.
func (code Code) NNN() uint16 {
	return uint16(code & 0xfff)
}

// Bytes returns the big-endian encoding of the instruction.
func (code Code) Bytes() []byte {
	return []byte{byte(code >> 8), byte(code)}
}

// String returns the instruction word and its operation pattern.
func (code Code) String() string {
	return fmt.Sprintf("%04X %v", uint16(code), code.Op())
}
