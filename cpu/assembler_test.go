package cpu

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func opEqual(assert *assert.Assertions, expected Opcode, actual Opcode, line string) {
	assert.Equal(expected.LineNo, actual.LineNo, line)
	assert.Equal(expected.Addr, actual.Addr, line)
	assert.Equal(expected.Words, actual.Words, line)
	assert.Equal(expected.Data, actual.Data, line)
	assert.Equal(expected.LinkLabel, actual.LinkLabel, line)
}

func assemble(t *testing.T, program ...string) (prog *Program) {
	asm := &Assembler{}
	prog, err := asm.Parse(strings.NewReader(strings.Join(program, "\n")))
	if err != nil {
		t.Fatal(err)
	}

	return
}

func TestAssembler(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}
	prog, err := asm.Parse(strings.NewReader("; nothing here\n\n"))
	assert.NoError(err)
	assert.Equal(0, len(prog.Opcodes))
	assert.Nil(prog.Binary())

	assert.Equal("0x200", asm.Equate["PROGRAM_START"])
	assert.Equal("0x50", asm.Equate["FONT_BASE"])
	assert.Equal("64", asm.Equate["SCREEN_WIDTH"])
	assert.Equal("2", asm.Equate["LINENO"])
}

func TestAssemblerOpcode(t *testing.T) {
	assert := assert.New(t)

	prog := assemble(t, "  cls ; clear it")
	if assert.Equal(1, len(prog.Opcodes)) {
		opEqual(assert, Opcode{
			LineNo: 1,
			Addr:   0x200,
			Words:  []string{"cls"},
			Data:   []byte{0x00, 0xe0},
		}, prog.Opcodes[0], "cls")
	}
}

func TestAssemblerMnemonic(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		line string
		code Code
	}){
		{"cls", 0x00E0},
		{"ret", 0x00EE},
		{"return", 0x00EE},
		{"jp 0x234", 0x1234},
		{"jump 0x234", 0x1234},
		{"jp v0, 0x234", 0xB234},
		{"call 0x456", 0x2456},
		{"se v1, 0x12", 0x3112},
		{"sne v1, 0x12", 0x4112},
		{"se v1, v2", 0x5120},
		{"sne v1, v2", 0x9120},
		{"ld v1, 0x12", 0x6112},
		{"ld v1, -1", 0x61FF},
		{"LD VF, 'A'", 0x6F41},
		{"add v1, 3", 0x7103},
		{"ld v1, v2", 0x8120},
		{"or v1, v2", 0x8121},
		{"and v1 v2", 0x8122},
		{"xor v1, v2", 0x8123},
		{"add v1, v2", 0x8124},
		{"sub v1, v2", 0x8125},
		{"shr v1", 0x8116},
		{"shr v1, v2", 0x8126},
		{"subn v1, v2", 0x8127},
		{"shl v1", 0x811E},
		{"shl v1, v2", 0x812E},
		{"ld i, 0x300", 0xA300},
		{"rnd vA, 0x0f", 0xCA0F},
		{"drw v1, v2, 5", 0xD125},
		{"skp v3", 0xE39E},
		{"sknp v3", 0xE3A1},
		{"ld v4, dt", 0xF407},
		{"ld v4, k", 0xF40A},
		{"key v4", 0xF40A},
		{"ld dt, v4", 0xF415},
		{"ld st, v4", 0xF418},
		{"add i, v4", 0xF41E},
		{"ld f, v4", 0xF429},
		{"ld b, v4", 0xF433},
		{"bcd v4", 0xF433},
		{"ld [i], v4", 0xF455},
		{"ld v4, [i]", 0xF465},
	}

	for _, entry := range table {
		prog := assemble(t, entry.line)
		assert.Equal(entry.code.Bytes(), prog.Binary(), entry.line)
	}
}

func TestAssemblerLabel(t *testing.T) {
	assert := assert.New(t)

	prog := assemble(t,
		"start:",
		"  ld v0, 0",
		"loop: add v0, 1",
		"  se v0, 5",
		"  jp loop",
		"  call done",
		"  jp start",
		"done: ret",
	)

	assert.Equal([]byte{
		0x60, 0x00,
		0x70, 0x01,
		0x30, 0x05,
		0x12, 0x02,
		0x22, 0x0C,
		0x12, 0x00,
		0x00, 0xEE,
	}, prog.Binary())

	opEqual(assert, Opcode{
		LineNo:    6,
		Addr:      0x208,
		Words:     []string{"call", "done"},
		Data:      []byte{0x22, 0x0C},
		LinkLabel: "done",
	}, prog.Opcodes[4], "call done")

	// The assembled loop counts to five, then returns into nothing.
	cpu, err := New(prog.Binary())
	assert.NoError(err)
	for cpu.Pc != 0x20c {
		assert.NoError(cpu.Step(Keys{}))
	}
	assert.Equal(byte(5), cpu.V[0])
	assert.Equal(1, cpu.Stack.Depth())
}

func TestAssemblerEquate(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}
	asm.Predefine("SPEED", "7")

	program := []string{
		".equ BASE 0x300",
		"ld i, BASE",
		"ld v0, $(BASE >> 4)",
		"ld v1, $(LINENO * 2)",
		"ld v2, $(SCREEN_WIDTH - 1)",
		"ld v3, $(FONT_BASE + 5 * FONT_HEIGHT)",
		"ld v4, SPEED",
	}

	prog, err := asm.Parse(strings.NewReader(strings.Join(program, "\n")))
	assert.NoError(err)

	assert.Equal([]byte{
		0xA3, 0x00,
		0x60, 0x30,
		0x61, 0x08,
		0x62, 0x3F,
		0x63, 0x69,
		0x64, 0x07,
	}, prog.Binary())

	opEqual(assert, Opcode{
		LineNo: 3,
		Addr:   0x202,
		Words:  []string{"ld", "v0", "48"},
		Data:   []byte{0x60, 0x30},
	}, prog.Opcodes[1], program[2])
}

func TestAssemblerMacro(t *testing.T) {
	assert := assert.New(t)

	prog := assemble(t,
		".macro COUNT reg limit",
		"@top: add reg, 1",
		"  sne reg, limit",
		"  jp @done",
		"  jp @top",
		"@done:",
		".endm",
		"COUNT v1 3",
		"COUNT v2 4",
	)

	assert.Equal([]byte{
		0x71, 0x01,
		0x41, 0x03,
		0x12, 0x08,
		0x12, 0x00,
		0x72, 0x01,
		0x42, 0x04,
		0x12, 0x10,
		0x12, 0x08,
	}, prog.Binary())

	cpu, err := New(prog.Binary())
	assert.NoError(err)
	for range 21 {
		assert.NoError(cpu.Step(Keys{}))
	}
	assert.Equal(uint16(0x210), cpu.Pc)
	assert.Equal(byte(3), cpu.V[1])
	assert.Equal(byte(4), cpu.V[2])
}

func TestAssemblerData(t *testing.T) {
	assert := assert.New(t)

	prog := assemble(t,
		".byte 0x01, 2, 'A', -1",
		".word 0x1234",
		".org 0x208",
		"sprite: .byte 0b11110000",
		"ld i, sprite",
	)

	assert.Equal([]byte{
		0x01, 0x02, 0x41, 0xFF,
		0x12, 0x34,
		0x00, 0x00,
		0xF0,
		0xA2, 0x08,
	}, prog.Binary())

	dbg := prog.Debug(0x209)
	if assert.NotNil(dbg.Opcode) {
		assert.Equal(5, dbg.LineNo)
		assert.Equal(0, dbg.Index)
	}
}

func TestAssemblerError(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		program string
		err     error
	}){
		{"foo v1", ErrInstructionInvalid},
		{"ld v1", ErrOpcodeValueMissing},
		{"cls v1", ErrOpcodeExtraArgs},
		{"ld vg, 1", ErrRegisterInvalid},
		{"or v1, 2", ErrRegisterInvalid},
		{"jp v1, 0x200", ErrRegisterInvalid},
		{"ld v1, 0x100", ErrValueRange},
		{"ld v1, -0x81", ErrValueRange},
		{"drw v1, v2, 16", ErrValueRange},
		{"jp 0x1000", ErrValueRange},
		{"ld v1, zz", ErrParseNumber("zz")},
		{"jp nowhere", ErrLabelMissing("nowhere")},
		{"a: cls\na: cls", ErrLabelDuplicate},
		{".equ A 1\n.equ A 2", ErrEquateDuplicate},
		{".equ A", ErrEquateSyntax},
		{".macro M\n.macro N", ErrMacroNesting},
		{".macro M\ncls", ErrMacroLonely},
		{".endm", ErrMacroLonelyEndm},
		{".macro M a\n.endm\nM", ErrMacroSyntax},
		{".macro M\n.endm\n.macro M\n.endm", ErrMacroDuplicate},
		{"cls\n.org 0x100", ErrOrgBackwards},
		{".byte", ErrOpcodeValueMissing},
	}

	for _, entry := range table {
		asm := &Assembler{}
		_, err := asm.Parse(strings.NewReader(entry.program))
		assert.ErrorIs(err, entry.err, entry.program)
	}
}

func TestAssemblerErrorLine(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}
	_, err := asm.Parse(strings.NewReader("cls\n\n  jp nowhere ; lost\nret\n"))

	var syntax *ErrSyntax
	if assert.True(errors.As(err, &syntax)) {
		assert.Equal(3, syntax.LineNo)
		assert.Equal("jp nowhere", syntax.Line)
	}

	_, err = asm.Parse(strings.NewReader(".macro M\nld vz, 1\n.endm\ncls\nM\n"))
	var macro *ErrMacro
	if assert.True(errors.As(err, &macro)) {
		assert.Equal("M", macro.Macro)
		assert.Equal(2, macro.Line)
	}
	assert.ErrorIs(err, ErrRegisterInvalid)

	_, err = asm.Parse(strings.NewReader("ld v1, $(1 +)"))
	assert.Error(err)
}

func TestAssemblerRun(t *testing.T) {
	assert := assert.New(t)

	prog := assemble(t,
		"  ld v0, 234",
		"  ld i, 0x300",
		"  bcd v0",
		"  ld v2, [i]",
		"  ld f, v2",
		"  ld v3, 1",
		"  drw v3, v3, FONT_HEIGHT",
	)

	cpu, err := New(prog.Binary())
	assert.NoError(err)
	for range 7 {
		assert.NoError(cpu.Step(Keys{}))
	}

	assert.Equal([]byte{2, 3, 4}, cpu.V[0:3])
	assert.Equal(uint16(FONT_BASE+4*FONT_HEIGHT), cpu.I)
	// Digit '4' is 0x90 0x90 0xF0 0x10 0x10.
	assert.True(cpu.Display.Pixel(1, 1))
	assert.False(cpu.Display.Pixel(2, 1))
	assert.True(cpu.Display.Pixel(4, 3))
	assert.Equal(byte(0), cpu.V[REG_FLAG])
}
