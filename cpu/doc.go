// Package cpu implements the interpreter and assembler for the CHIP-8 system.
//
// The machine consists of 4KiB of memory, sixteen 8-bit registers (V0-VF)
// where VF doubles as the carry, borrow and collision flag, a 16-bit index
// register (I), a program counter, a 16 entry call stack, delay and sound
// timers, and a 64x32 monochrome display. Programs are loaded at 0x200 and
// the hexadecimal font sprites live at 0x050.
//
// The assembler provides the classic CHIP-8 mnemonics, supporting macros,
// labels, equates, and compile-time expression evaluation.
package cpu
