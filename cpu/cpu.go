// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

import (
	"errors"
	"fmt"
	"iter"
	"log"
	"maps"
	"math/rand"
	"time"
)

const (
	MEMORY_SIZE      = 0x1000                      // Bytes of addressable memory.
	ADDRESS_MASK     = 0x0fff                      // Mask applied to every memory address.
	PROGRAM_START    = 0x200                       // Load address and initial program counter.
	PROGRAM_LIMIT    = MEMORY_SIZE - PROGRAM_START // Largest program image.
	REGISTER_COUNT   = 16                          // V0 through VF.
	REG_FLAG         = 0xf                         // VF, the carry/borrow/collision flag.
	CYCLES_PER_FRAME = 8                           // Default instruction cycles per frame.
	FRAME_RATE       = 60                          // Frames per second.
)

var _cpu_defines = map[string]string{
	"MEMORY_SIZE":   fmt.Sprintf("0x%x", MEMORY_SIZE),
	"PROGRAM_START": fmt.Sprintf("0x%x", PROGRAM_START),
	"FONT_BASE":     fmt.Sprintf("0x%x", FONT_BASE),
	"FONT_HEIGHT":   fmt.Sprintf("%d", FONT_HEIGHT),
	"SCREEN_WIDTH":  fmt.Sprintf("%d", SCREEN_WIDTH),
	"SCREEN_HEIGHT": fmt.Sprintf("%d", SCREEN_HEIGHT),
	"STACK_LIMIT":   fmt.Sprintf("%d", STACK_LIMIT),
}

// Cpu is the simulation context for the CHIP-8 interpreter.
type Cpu struct {
	Verbose bool // Set to enable verbose logging.

	Memory  [MEMORY_SIZE]byte    // Main memory.
	V       [REGISTER_COUNT]byte // Register bank.
	I       uint16               // Index register.
	Pc      uint16               // Address of the next instruction.
	Stack   Stack                // Call stack.
	Display Display              // Framebuffer.
	Delay   byte                 // Delay timer.
	Sound   byte                 // Sound timer.

	Waiting      bool // Set while suspended on a key press.
	WaitRegister int  // Register receiving the awaited key.

	ShiftQuirk     bool       // Shift Vx in place, ignoring Vy.
	CyclesPerFrame int        // Instruction cycles per Frame().
	Rand           *rand.Rand // Source for the rnd instruction.

	Ticks  int // Instructions executed since reset.
	Frames int // Frames completed since reset.

	next uint16 // Address of the following instruction during Execute.
}

// opFunc is the effect of a single operation on the CPU state.
type opFunc func(cpu *Cpu, code Code, keys *Keys) error

var _op_exec = [...]opFunc{
	OP_UNKNOWN:  (*Cpu).opUnknown,
	OP_CLS:      (*Cpu).opCls,
	OP_RET:      (*Cpu).opRet,
	OP_JP:       (*Cpu).opJp,
	OP_CALL:     (*Cpu).opCall,
	OP_SE_IMM:   (*Cpu).opSeImm,
	OP_SNE_IMM:  (*Cpu).opSneImm,
	OP_SE_REG:   (*Cpu).opSeReg,
	OP_LD_IMM:   (*Cpu).opLdImm,
	OP_ADD_IMM:  (*Cpu).opAddImm,
	OP_LD_REG:   (*Cpu).opLdReg,
	OP_OR:       (*Cpu).opOr,
	OP_AND:      (*Cpu).opAnd,
	OP_XOR:      (*Cpu).opXor,
	OP_ADD_REG:  (*Cpu).opAddReg,
	OP_SUB:      (*Cpu).opSub,
	OP_SHR:      (*Cpu).opShr,
	OP_SUBN:     (*Cpu).opSubn,
	OP_SHL:      (*Cpu).opShl,
	OP_SNE_REG:  (*Cpu).opSneReg,
	OP_LD_I:     (*Cpu).opLdI,
	OP_JP_V0:    (*Cpu).opJpV0,
	OP_RND:      (*Cpu).opRnd,
	OP_DRW:      (*Cpu).opDrw,
	OP_SKP:      (*Cpu).opSkp,
	OP_SKNP:     (*Cpu).opSknp,
	OP_LD_VX_DT: (*Cpu).opLdVxDt,
	OP_LD_VX_K:  (*Cpu).opLdVxK,
	OP_LD_DT_VX: (*Cpu).opLdDtVx,
	OP_LD_ST_VX: (*Cpu).opLdStVx,
	OP_ADD_I:    (*Cpu).opAddI,
	OP_LD_F:     (*Cpu).opLdF,
	OP_LD_B:     (*Cpu).opLdB,
	OP_LD_MEM:   (*Cpu).opLdMem,
	OP_LD_VX_I:  (*Cpu).opLdVxI,
}

// NewCpu creates a new CPU with an empty program.
func NewCpu() (cpu *Cpu) {
	cpu = &Cpu{}

	cpu.Reset()

	return
}

// New creates a new CPU with the program loaded.
func New(program []byte) (cpu *Cpu, err error) {
	cpu = NewCpu()
	err = cpu.Load(program)
	if err != nil {
		cpu = nil
	}

	return
}

// Defines for the cpu
func (cpu *Cpu) Defines() iter.Seq2[string, string] {
	return maps.All(_cpu_defines)
}

// String returns the current CPU state as a string.
func (cpu *Cpu) String() (text string) {
	text += fmt.Sprintf("   pc: %03X\n", cpu.Pc)
	text += fmt.Sprintf("    i: %04X\n", cpu.I)
	for n, val := range cpu.V {
		text += fmt.Sprintf("   v%X: %02X\n", n, val)
	}
	if val, ok := cpu.Stack.Peek(); ok {
		text += fmt.Sprintf("stack: %03X (%d)\n", val, cpu.Stack.Depth())
	} else {
		text += "stack: ---\n"
	}
	text += fmt.Sprintf("   dt: %02X\n", cpu.Delay)
	text += fmt.Sprintf("   st: %02X\n", cpu.Sound)
	if cpu.Waiting {
		text += fmt.Sprintf(" wait: v%X\n", cpu.WaitRegister)
	}

	return
}

// Reset the CPU state.
// - Clears memory, registers, stack, display and timers.
// - Installs the font.
// - Sets the program counter to the program load address.
//
// Configuration (ShiftQuirk, CyclesPerFrame, Rand, Verbose) is kept,
// with defaults installed for an unset Rand or CyclesPerFrame.
func (cpu *Cpu) Reset() {
	if cpu.Verbose {
		log.Printf("cpu: reset")
	}

	if cpu.Rand == nil {
		cpu.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if cpu.CyclesPerFrame < 1 {
		cpu.CyclesPerFrame = CYCLES_PER_FRAME
	}

	clear(cpu.Memory[:])
	copy(cpu.Memory[FONT_BASE:], Font[:])
	clear(cpu.V[:])
	cpu.I = 0
	cpu.Pc = PROGRAM_START
	cpu.Stack.Reset()
	cpu.Display.Clear()
	cpu.Delay = 0
	cpu.Sound = 0
	cpu.Waiting = false
	cpu.WaitRegister = 0
	cpu.Ticks = 0
	cpu.Frames = 0
}

// Load resets the CPU and copies the program image to PROGRAM_START.
// An image larger than PROGRAM_LIMIT fails with ErrOutOfBounds, and
// leaves the CPU untouched.
func (cpu *Cpu) Load(program []byte) (err error) {
	if len(program) > PROGRAM_LIMIT {
		err = ErrOutOfBounds
		return
	}

	cpu.Reset()
	copy(cpu.Memory[PROGRAM_START:], program)

	if cpu.Verbose {
		log.Printf("cpu: loaded %d bytes", len(program))
	}

	return
}

// Beeping returns true while the sound timer is running.
func (cpu *Cpu) Beeping() bool {
	return cpu.Sound > 0
}

// FetchCode fetches the big-endian instruction at the program counter.
func (cpu *Cpu) FetchCode() Code {
	hi := cpu.read(cpu.Pc)
	lo := cpu.read(cpu.Pc + 1)
	return Code(uint16(hi)<<8 | uint16(lo))
}

// Step performs a single instruction cycle.
//
// While waiting for a key, the cycle only polls keys: the lowest numbered
// pressed key is stored in the wait register and execution resumes on the
// next cycle.
func (cpu *Cpu) Step(keys Keys) (err error) {
	if cpu.Waiting {
		key, ok := keys.First()
		if ok {
			if cpu.Verbose {
				log.Printf("%03x: key %X -> v%X", cpu.Pc, key, cpu.WaitRegister)
			}
			cpu.V[cpu.WaitRegister] = byte(key)
			cpu.Waiting = false
		}
		return
	}

	return cpu.Execute(cpu.FetchCode(), keys)
}

// Frame runs CyclesPerFrame cycles, then counts down the timers.
// The first failing cycle aborts the frame.
func (cpu *Cpu) Frame(keys Keys) (err error) {
	if cpu.CyclesPerFrame < 1 {
		err = ErrCyclesInvalid
		return
	}

	for range cpu.CyclesPerFrame {
		err = cpu.Step(keys)
		if err != nil {
			return
		}
	}

	if cpu.Delay > 0 {
		cpu.Delay--
	}
	if cpu.Sound > 0 {
		cpu.Sound--
	}
	cpu.Frames++

	return
}

// Execute executes a single decoded instruction.
// A failing instruction leaves the program counter on itself.
func (cpu *Cpu) Execute(code Code, keys Keys) (err error) {
	defer func() {
		if err != nil {
			err = errors.Join(ErrOpcode(code), err)
		}
	}()
	if cpu.Verbose {
		log.Printf("%03x: %v", cpu.Pc, code)
	}

	cpu.next = cpu.Pc + 2

	err = _op_exec[code.Op()](cpu, code, &keys)
	if err != nil {
		return
	}

	cpu.Pc = cpu.next & ADDRESS_MASK
	cpu.Ticks++

	return
}

func (cpu *Cpu) read(addr uint16) byte {
	return cpu.Memory[addr&ADDRESS_MASK]
}

func (cpu *Cpu) write(addr uint16, value byte) {
	cpu.Memory[addr&ADDRESS_MASK] = value
}

// skip the following instruction.
func (cpu *Cpu) skip(cond bool) {
	if cond {
		cpu.next += 2
	}
}

// setFlag stores a 0/1 flag in VF.
func (cpu *Cpu) setFlag(cond bool) {
	if cond {
		cpu.V[REG_FLAG] = 1
	} else {
		cpu.V[REG_FLAG] = 0
	}
}

// shiftOperand is Vy, or Vx in shift quirk mode.
func (cpu *Cpu) shiftOperand(code Code) byte {
	if cpu.ShiftQuirk {
		return cpu.V[code.X()]
	}
	return cpu.V[code.Y()]
}

func (cpu *Cpu) opUnknown(code Code, keys *Keys) error {
	if cpu.Verbose {
		log.Printf("%03x: ignored %04X", cpu.Pc, uint16(code))
	}
	return nil
}

func (cpu *Cpu) opCls(code Code, keys *Keys) error {
	cpu.Display.Clear()
	return nil
}

func (cpu *Cpu) opRet(code Code, keys *Keys) error {
	addr, ok := cpu.Stack.Pop()
	if !ok {
		return ErrStackEmpty
	}
	cpu.next = addr
	return nil
}

func (cpu *Cpu) opJp(code Code, keys *Keys) error {
	cpu.next = code.NNN()
	return nil
}

func (cpu *Cpu) opCall(code Code, keys *Keys) error {
	if !cpu.Stack.Push(cpu.next) {
		return ErrStackFull
	}
	cpu.next = code.NNN()
	return nil
}

func (cpu *Cpu) opSeImm(code Code, keys *Keys) error {
	cpu.skip(cpu.V[code.X()] == code.KK())
	return nil
}

func (cpu *Cpu) opSneImm(code Code, keys *Keys) error {
	cpu.skip(cpu.V[code.X()] != code.KK())
	return nil
}

func (cpu *Cpu) opSeReg(code Code, keys *Keys) error {
	cpu.skip(cpu.V[code.X()] == cpu.V[code.Y()])
	return nil
}

func (cpu *Cpu) opSneReg(code Code, keys *Keys) error {
	cpu.skip(cpu.V[code.X()] != cpu.V[code.Y()])
	return nil
}

func (cpu *Cpu) opLdImm(code Code, keys *Keys) error {
	cpu.V[code.X()] = code.KK()
	return nil
}

func (cpu *Cpu) opAddImm(code Code, keys *Keys) error {
	cpu.V[code.X()] += code.KK()
	return nil
}

func (cpu *Cpu) opLdReg(code Code, keys *Keys) error {
	cpu.V[code.X()] = cpu.V[code.Y()]
	return nil
}

func (cpu *Cpu) opOr(code Code, keys *Keys) error {
	cpu.V[code.X()] |= cpu.V[code.Y()]
	return nil
}

func (cpu *Cpu) opAnd(code Code, keys *Keys) error {
	cpu.V[code.X()] &= cpu.V[code.Y()]
	return nil
}

func (cpu *Cpu) opXor(code Code, keys *Keys) error {
	cpu.V[code.X()] ^= cpu.V[code.Y()]
	return nil
}

// The flag producing operations read both operands first, then write the
// flag, then the result. With x == F the result overwrites the flag.

func (cpu *Cpu) opAddReg(code Code, keys *Keys) error {
	sum := uint16(cpu.V[code.X()]) + uint16(cpu.V[code.Y()])
	cpu.setFlag(sum > 0xff)
	cpu.V[code.X()] = byte(sum)
	return nil
}

func (cpu *Cpu) opSub(code Code, keys *Keys) error {
	vx, vy := cpu.V[code.X()], cpu.V[code.Y()]
	cpu.setFlag(vx > vy)
	cpu.V[code.X()] = vx - vy
	return nil
}

func (cpu *Cpu) opSubn(code Code, keys *Keys) error {
	vx, vy := cpu.V[code.X()], cpu.V[code.Y()]
	cpu.setFlag(vy > vx)
	cpu.V[code.X()] = vy - vx
	return nil
}

func (cpu *Cpu) opShr(code Code, keys *Keys) error {
	operand := cpu.shiftOperand(code)
	cpu.V[REG_FLAG] = operand & 0x01
	cpu.V[code.X()] = operand >> 1
	return nil
}

// opShl leaves the shifted out bit in VF as 0x80, not 1.
func (cpu *Cpu) opShl(code Code, keys *Keys) error {
	operand := cpu.shiftOperand(code)
	cpu.V[REG_FLAG] = operand & 0x80
	cpu.V[code.X()] = operand << 1
	return nil
}

func (cpu *Cpu) opLdI(code Code, keys *Keys) error {
	cpu.I = code.NNN()
	return nil
}

func (cpu *Cpu) opJpV0(code Code, keys *Keys) error {
	cpu.next = code.NNN() + uint16(cpu.V[0])
	return nil
}

func (cpu *Cpu) opRnd(code Code, keys *Keys) error {
	cpu.V[code.X()] = byte(cpu.Rand.Intn(256)) & code.KK()
	return nil
}

func (cpu *Cpu) opDrw(code Code, keys *Keys) error {
	rows := make([]byte, code.N())
	for n := range rows {
		rows[n] = cpu.read(cpu.I + uint16(n))
	}
	x := int(cpu.V[code.X()]) % SCREEN_WIDTH
	y := int(cpu.V[code.Y()]) % SCREEN_HEIGHT
	cpu.setFlag(cpu.Display.Sprite(x, y, rows))
	return nil
}

func (cpu *Cpu) opSkp(code Code, keys *Keys) error {
	cpu.skip(keys.Pressed(cpu.V[code.X()]))
	return nil
}

func (cpu *Cpu) opSknp(code Code, keys *Keys) error {
	cpu.skip(!keys.Pressed(cpu.V[code.X()]))
	return nil
}

func (cpu *Cpu) opLdVxDt(code Code, keys *Keys) error {
	cpu.V[code.X()] = cpu.Delay
	return nil
}

func (cpu *Cpu) opLdVxK(code Code, keys *Keys) error {
	cpu.Waiting = true
	cpu.WaitRegister = code.X()
	return nil
}

func (cpu *Cpu) opLdDtVx(code Code, keys *Keys) error {
	cpu.Delay = cpu.V[code.X()]
	return nil
}

func (cpu *Cpu) opLdStVx(code Code, keys *Keys) error {
	cpu.Sound = cpu.V[code.X()]
	return nil
}

// opAddI lets I grow past 12 bits; memory accesses mask it.
func (cpu *Cpu) opAddI(code Code, keys *Keys) error {
	cpu.I += uint16(cpu.V[code.X()])
	return nil
}

func (cpu *Cpu) opLdF(code Code, keys *Keys) error {
	cpu.I = FONT_BASE + uint16(cpu.V[code.X()])*FONT_HEIGHT
	return nil
}

func (cpu *Cpu) opLdB(code Code, keys *Keys) error {
	val := cpu.V[code.X()]
	cpu.write(cpu.I+0, val/100)
	cpu.write(cpu.I+1, (val/10)%10)
	cpu.write(cpu.I+2, val%10)
	return nil
}

func (cpu *Cpu) opLdMem(code Code, keys *Keys) error {
	for reg := range code.X() + 1 {
		cpu.write(cpu.I+uint16(reg), cpu.V[reg])
	}
	return nil
}

func (cpu *Cpu) opLdVxI(code Code, keys *Keys) error {
	for reg := range code.X() + 1 {
		cpu.V[reg] = cpu.read(cpu.I + uint16(reg))
	}
	return nil
}
