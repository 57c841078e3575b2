package cpu

import (
	"iter"
)

// Opcode represents a line of assembled code with its source location and
// generated bytes.
type Opcode struct {
	LineNo    int
	Addr      int
	Words     []string
	Data      []byte
	LinkLabel string
}

type Program struct {
	Opcodes []Opcode
}

type Debug struct {
	*Opcode
	Index int
}

// Debug locates the opcode that generated the byte at addr.
func (prog *Program) Debug(addr uint16) (dbg Debug) {
	for n, op := range prog.Opcodes {
		if int(addr) >= op.Addr && int(addr) < op.Addr+len(op.Data) {
			dbg = Debug{
				Opcode: &prog.Opcodes[n],
				Index:  int(addr) - op.Addr,
			}
			break
		}
	}

	return
}

// Binary returns the program image to be loaded at PROGRAM_START.
func (prog *Program) Binary() (bins []byte) {
	for addr, data := range prog.Bytes() {
		offset := int(addr) - PROGRAM_START
		for len(bins) < offset {
			bins = append(bins, 0)
		}
		bins = append(bins, data)
	}

	return
}

// Bytes iterates over every assembled byte and its address.
func (prog *Program) Bytes() iter.Seq2[uint16, byte] {
	return func(yield func(addr uint16, data byte) bool) {
		for _, op := range prog.Opcodes {
			addr := uint16(op.Addr)
			for n, data := range op.Data {
				if !yield(addr+uint16(n), data) {
					return
				}
			}
		}
	}
}
