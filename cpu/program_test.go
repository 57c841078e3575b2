package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProgram_Binary(t *testing.T) {
	assert := assert.New(t)

	prog := &Program{
		Opcodes: []Opcode{
			{LineNo: 1, Addr: 0x200, Data: []byte{0x60, 0x01}},
			{LineNo: 2, Addr: 0x202, Data: []byte{0x12, 0x00}},
			{LineNo: 4, Addr: 0x206, Data: []byte{0xAA}},
		},
	}

	assert.Equal([]byte{0x60, 0x01, 0x12, 0x00, 0x00, 0x00, 0xAA}, prog.Binary())

	empty := &Program{}
	assert.Equal(0, len(empty.Binary()))
}

func TestProgram_Debug(t *testing.T) {
	assert := assert.New(t)

	prog := &Program{
		Opcodes: []Opcode{
			{LineNo: 1, Addr: 0x200, Data: []byte{0x60, 0x01}},
			{LineNo: 3, Addr: 0x202, Data: []byte{0x12, 0x00}},
		},
	}

	dbg := prog.Debug(0x203)
	assert.NotNil(dbg.Opcode)
	assert.Equal(3, dbg.LineNo)
	assert.Equal(1, dbg.Index)

	dbg = prog.Debug(0x204)
	assert.Nil(dbg.Opcode)
}

func TestProgram_Bytes(t *testing.T) {
	assert := assert.New(t)

	prog := &Program{
		Opcodes: []Opcode{
			{Addr: 0x200, Data: []byte{0x01, 0x02}},
			{Addr: 0x204, Data: []byte{0x03}},
		},
	}

	var addrs []uint16
	for addr := range prog.Bytes() {
		addrs = append(addrs, addr)
		if len(addrs) == 2 {
			break
		}
	}
	assert.Equal([]uint16{0x200, 0x201}, addrs)
}
