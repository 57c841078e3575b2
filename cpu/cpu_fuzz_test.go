package cpu

import (
	"errors"
	"fmt"
	"math/rand"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
)

func FuzzCpu(f *testing.F) {
	for op := OP_UNKNOWN; op <= OP_LD_VX_I; op++ {
		f.Add(uint16(MakeCodeXyn(op, 0x3, 0xf, 0x5)), uint16(0xffe), uint8(0x7f), uint8(0xff), uint16(0xff0), false, uint8(0))
		f.Add(uint16(MakeCodeXyn(op, 0xf, 0x0, 0xf)), uint16(0x200), uint8(0x80), uint8(0x01), uint16(0x000), true, uint8(16))
	}

	f.Fuzz(func(t *testing.T, opcode uint16, pc uint16, vx uint8, vy uint8, index uint16, quirk bool, depth uint8) {
		assert := assert.New(t)

		code := Code(opcode)

		cpu := NewCpu()
		cpu.Rand = rand.New(rand.NewSource(int64(opcode)))
		cpu.ShiftQuirk = quirk
		cpu.Pc = pc & ADDRESS_MASK
		cpu.I = index
		for n := range cpu.V {
			cpu.V[n] = byte(n) * 0x11
		}
		cpu.V[code.X()] = vx
		cpu.V[code.Y()] = vy
		for range int(depth) % (STACK_LIMIT + 1) {
			cpu.Stack.Push(0x0abc)
		}

		pre := *cpu
		pre.Stack.Data = slices.Clone(cpu.Stack.Data)

		keys := Keys{}
		keys[vx&0xf] = quirk

		code_str := fmt.Sprintf("%v\ncpu:%v", code, cpu.String())

		err := cpu.Execute(code, keys)

		assert.LessOrEqual(cpu.Pc, uint16(ADDRESS_MASK), code_str)

		if err != nil {
			assert.ErrorIs(err, ErrOpcode(code), code_str)
			switch {
			case errors.Is(err, ErrStackFull):
				assert.Equal(OP_CALL, code.Op(), code_str)
				assert.True(pre.Stack.Full(), code_str)
			case errors.Is(err, ErrStackEmpty):
				assert.Equal(OP_RET, code.Op(), code_str)
				assert.True(pre.Stack.Empty(), code_str)
			default:
				assert.NoError(err, code_str)
			}
			// A failed instruction changes nothing.
			assert.Equal(pre.Pc, cpu.Pc, code_str)
			assert.Equal(pre.V, cpu.V, code_str)
			assert.Equal(pre.Stack.Data, cpu.Stack.Data, code_str)
			return
		}

		next := (pre.Pc + 2) & ADDRESS_MASK
		switch code.Op() {
		case OP_JP:
			next = code.NNN()
		case OP_JP_V0:
			next = (code.NNN() + uint16(pre.V[0])) & ADDRESS_MASK
		case OP_CALL:
			next = code.NNN()
			top, ok := cpu.Stack.Peek()
			if assert.True(ok, code_str) {
				assert.Equal(pre.Pc+2, top, code_str)
			}
		case OP_RET:
			top, _ := pre.Stack.Peek()
			next = top & ADDRESS_MASK
		case OP_SE_IMM:
			if pre.V[code.X()] == code.KK() {
				next = (pre.Pc + 4) & ADDRESS_MASK
			}
		case OP_SNE_IMM:
			if pre.V[code.X()] != code.KK() {
				next = (pre.Pc + 4) & ADDRESS_MASK
			}
		case OP_SE_REG:
			if pre.V[code.X()] == pre.V[code.Y()] {
				next = (pre.Pc + 4) & ADDRESS_MASK
			}
		case OP_SNE_REG:
			if pre.V[code.X()] != pre.V[code.Y()] {
				next = (pre.Pc + 4) & ADDRESS_MASK
			}
		case OP_SKP:
			if keys[pre.V[code.X()]&0xf] {
				next = (pre.Pc + 4) & ADDRESS_MASK
			}
		case OP_SKNP:
			if !keys[pre.V[code.X()]&0xf] {
				next = (pre.Pc + 4) & ADDRESS_MASK
			}
		case OP_LD_VX_K:
			assert.True(cpu.Waiting, code_str)
			assert.Equal(code.X(), cpu.WaitRegister, code_str)
		case OP_ADD_REG:
			sum := int(pre.V[code.X()]) + int(pre.V[code.Y()])
			if code.X() != REG_FLAG {
				assert.Equal(byte(sum), cpu.V[code.X()], code_str)
				assert.Equal(byte(sum>>8), cpu.V[REG_FLAG], code_str)
			} else {
				assert.Equal(byte(sum), cpu.V[REG_FLAG], code_str)
			}
		case OP_LD_B, OP_LD_MEM, OP_LD_VX_I:
			assert.Equal(pre.I, cpu.I, code_str)
		case OP_ADD_I:
			assert.Equal(pre.I+uint16(pre.V[code.X()]), cpu.I, code_str)
		case OP_UNKNOWN:
			assert.Equal(pre.V, cpu.V, code_str)
			assert.Equal(pre.I, cpu.I, code_str)
			assert.Equal(pre.Memory, cpu.Memory, code_str)
		}

		assert.Equal(next, cpu.Pc, code_str)
		assert.Equal(pre.Ticks+1, cpu.Ticks, code_str)
	})
}
