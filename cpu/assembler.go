// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// Macro represents a macro definition in the assembly language.
type Macro struct {
	LineNo int      // Line number of the macro definition.
	Args   []string // Arguments for the macro.
	Lines  []string // Lines of macro text to expand.
}

// Predefined system equates
var sysEquate = func() map[string]string {
	equ := maps.Clone(_cpu_defines)
	equ["LINENO"] = "0"
	return equ
}()

// Assembler is a single pass macro assembler for CHIP-8 programs.
type Assembler struct {
	Verbose bool     // If set, verbosely logs the assembler actions.
	Opcode  []Opcode // List of generated opcodes.

	predefine map[string]string   // Predefines
	Label     map[string]int      // Map of jump labels to addresses.
	Equate    map[string]string   // Map of equates.
	Macro     map[string](*Macro) // Map of macros.

	expansion int // Macro expansions so far, for '@' local labels.
}

// Predefine defines a new equate or redefines an existing equate.
func (asm *Assembler) Predefine(equ string, value string) {
	if asm.predefine == nil {
		asm.predefine = map[string]string{equ: value}
	} else {
		asm.predefine[equ] = value
	}
}

// valueOf returns the value of a simple word.
func (asm *Assembler) valueOf(word string) (value int, err error) {
	if word[0] == '\'' {
		// Character quotes should have been expanded into
		// values in parseLine()
		err = ErrParseCharacter(strings.Trim(word, "'"))
		return
	}
	v64, err := strconv.ParseInt(word, 0, 32)
	if err != nil {
		err = ErrParseNumber(word)
		return
	}

	value = int(v64)
	return
}

// regOf returns the register index of a 'vN' word.
func regOf(word string) (reg int, ok bool) {
	if len(word) != 2 || (word[0] != 'v' && word[0] != 'V') {
		return
	}
	v64, err := strconv.ParseUint(word[1:], 16, 4)
	if err != nil {
		return
	}
	return int(v64), true
}

// parenEval does compile-time $(...) evaluations
func (asm *Assembler) parenEval(expr string) (value int, err error) {
	thread := starlark.Thread{}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{}
	for key, str := range asm.Equate {
		var equ int
		equ, err = asm.valueOf(str)
		if err != nil {
			// Ignore non-integer equates. They may be registers
			// or something else.
			err = nil
			continue
		}
		pred[key] = starlark.MakeInt(equ)
	}
	prog := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
		return
	}
	st_rc, ok := dict["rc"]
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int, ok := st_rc.(starlark.Int)
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int64, ok := st_int.Int64()
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	value = int(st_int64)
	return
}

// parseLine parses a single line as an opcode.
func (asm *Assembler) parseLine(line string, lineno int) (words []string, err error) {
	// Set line number.
	asm.Equate["LINENO"] = fmt.Sprintf("%v", lineno)

	// Do 'x' evaluations
	re := regexp.MustCompile(`'\\?[^']'`)
	line = re.ReplaceAllStringFunc(line, func(word string) string {
		str := word[1 : len(word)-1]
		if str[0] == '\\' {
			str = str[1:]
			switch str {
			case "\\":
				str = "\\"
			case "n":
				str = "\n"
			case "r":
				str = "\r"
			case "e":
				str = "\033"
			default:
				return word
			}
		} else if len(str) != 1 {
			return word
		}
		return fmt.Sprintf("%v", str[0])
	})

	// Do $() evaluations
	re = regexp.MustCompile(`\$\([^\$]*\)`)
	line = re.ReplaceAllStringFunc(line, func(str string) string {
		value, _err := asm.parenEval(str[2 : len(str)-1])
		if _err != nil {
			err = _err
		}
		return fmt.Sprintf("%d", value)
	})
	if err != nil {
		return
	}

	words = strings.Fields(strings.ReplaceAll(line, ",", " "))

	if len(words) == 0 {
		return
	}

	// .equ CONST VALUE
	if words[0] == ".equ" {
		if len(words) != 3 {
			err = ErrEquateSyntax
			return
		}
		_, ok := asm.Equate[words[1]]
		if ok {
			err = ErrEquateDuplicate
			return
		}
		asm.Equate[words[1]] = words[2]
		words = words[:0]
		return
	}

	for n, word := range words {
		// Check for equate next
		equate, ok := asm.Equate[word]
		if ok {
			words[n] = equate
		}
	}

	for strings.HasSuffix(words[0], ":") {
		label := words[0][:len(words[0])-1]
		_, ok := asm.Label[label]
		if ok {
			err = ErrLabelDuplicate
			return
		}

		if asm.Label == nil {
			asm.Label = make(map[string]int, 16)
		}
		asm.Label[label] = asm.currentAddr()
		words = words[1:]
		if len(words) == 0 {
			return
		}
	}

	// .macro processing
	macro, ok := asm.Macro[words[0]]
	if ok {
		name := words[0]

		args := words[1:]
		if len(args) != len(macro.Args) {
			err = ErrMacroSyntax
			return
		}
		// Turn args into equs
		old_equate := maps.Clone(asm.Equate)
		for n, arg := range macro.Args {
			asm.Equate[arg] = words[1+n]
		}
		defer func() { asm.Equate = old_equate }()

		local := fmt.Sprintf("%v_%v_", name, asm.expansion)
		asm.expansion++

		for n, line := range macro.Lines {
			lineno := macro.LineNo + n

			line = strings.ReplaceAll(line, "@", local)
			words, err = asm.parseLine(line, lineno)
			if err != nil {
				err = &ErrMacro{Macro: name, Line: lineno, Err: err}
				err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
				return
			}

			err = asm.parseWords(words, lineno)
			if err != nil {
				err = &ErrMacro{Macro: name, Line: lineno, Err: err}
				err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
				return
			}
		}

		words = nil
		return
	}

	return
}

// currentAddr gets the address of the next assembled byte.
func (asm *Assembler) currentAddr() int {
	if len(asm.Opcode) == 0 {
		return PROGRAM_START
	}

	last := asm.Opcode[len(asm.Opcode)-1]

	return last.Addr + len(last.Data)
}

// Parse parses an input stream into a Program containing opcodes.
func (asm *Assembler) Parse(input io.Reader) (prog *Program, err error) {

	scanner := bufio.NewScanner(input)

	var line string
	var lineno int
	var macro *Macro

	defer func() {
		if err != nil {
			err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
		}
	}()

	clear(asm.Label)
	asm.expansion = 0
	asm.Opcode = asm.Opcode[:0]
	if asm.Macro == nil {
		asm.Macro = make(map[string](*Macro))
	}
	clear(asm.Macro)
	asm.Equate = maps.Clone(sysEquate)
	for attr, val := range asm.predefine {
		asm.Equate[attr] = val
	}

	for scanner.Scan() {
		text := scanner.Text()
		lineno += 1

		if asm.Verbose {
			log.Printf("%v: %v\n", lineno, text)
		}

		text_comment := strings.Split(text, ";")
		line = strings.TrimSpace(text_comment[0])
		words := strings.Fields(line)

		// .macro NAME arg...
		if len(words) > 0 && words[0] == ".macro" {
			if macro != nil {
				err = ErrMacroNesting
				return
			}
			if len(words) < 2 {
				err = ErrMacroSyntax
				return
			}
			_, ok := asm.Macro[words[1]]
			if ok {
				err = ErrMacroDuplicate
				return
			}
			macro = &Macro{
				LineNo: lineno + 1,
			}
			if len(words) > 2 {
				macro.Args = words[2:]
			}
			asm.Macro[words[1]] = macro
			continue
		}

		if len(words) > 0 && words[0] == ".endm" {
			if macro == nil {
				err = ErrMacroLonelyEndm
				return
			}
			macro = nil
			continue
		}

		if macro != nil {
			macro.Lines = append(macro.Lines, line)
			continue
		}

		words, err = asm.parseLine(line, lineno)
		if err != nil {
			return
		}

		err = asm.parseWords(words, lineno)
		if err != nil {
			return
		}
	}

	err = scanner.Err()
	if err != nil {
		return
	}

	if macro != nil {
		err = ErrMacroLonely
		return
	}

	// Final linking of jump labels.
	for n := range asm.Opcode {
		op := &asm.Opcode[n]

		if len(op.LinkLabel) == 0 {
			continue
		}
		lineno = op.LineNo
		line = strings.Join(op.Words, " ")

		label := op.LinkLabel
		addr, ok := asm.Label[label]
		if !ok {
			err = ErrLabelMissing(label)
			return
		}
		if addr > ADDRESS_MASK {
			err = ErrValueRange
			return
		}
		if len(op.Data) != 2 {
			log.Fatalf("Unable to link label '%s' to line %d: %v", label, op.LineNo, op.Words)
		}
		op.Data[0] |= byte((addr >> 8) & 0xf)
		op.Data[1] |= byte(addr & 0xff)
	}

	prog = &Program{
		Opcodes: slices.Clone(asm.Opcode),
	}

	return
}

// args checks the count of operand words.
func args(words []string, count int) (err error) {
	switch {
	case len(words) < count:
		err = ErrOpcodeValueMissing
	case len(words) > count:
		err = ErrOpcodeExtraArgs
	}
	return
}

// getReg gets the register index for a word.
func (asm *Assembler) getReg(word string) (reg int, err error) {
	reg, ok := regOf(word)
	if !ok {
		err = ErrRegisterInvalid
	}
	return
}

// getValue gets a numeric operand, bounded to [lo, hi].
func (asm *Assembler) getValue(word string, lo, hi int) (value int, err error) {
	value, err = asm.valueOf(word)
	if err != nil {
		return
	}
	if value < lo || value > hi {
		err = ErrValueRange
	}
	return
}

// getByte gets an 8-bit operand, signed or unsigned.
func (asm *Assembler) getByte(word string) (kk uint8, err error) {
	value, err := asm.getValue(word, -0x80, 0xff)
	kk = uint8(value)
	return
}

// getAddr gets a 12-bit address operand. Non-numeric words are labels,
// which are linked after the whole input is parsed.
func (asm *Assembler) getAddr(word string) (addr uint16, label string, err error) {
	c := word[0]
	if (c >= '0' && c <= '9') || c == '-' || c == '\'' {
		var value int
		value, err = asm.getValue(word, 0, ADDRESS_MASK)
		addr = uint16(value)
		return
	}

	label = word
	return
}

// parseWords evaluates the words in a line of assembly text.
func (asm *Assembler) parseWords(words []string, lineno int) (err error) {
	var data []byte
	var label string

	// no-op
	if len(words) == 0 {
		return
	}

	initial_words := words

	defer func() {
		if err != nil || len(data) == 0 {
			return
		}
		opcode := Opcode{LineNo: lineno, Addr: asm.currentAddr(), Words: initial_words, Data: data, LinkLabel: label}
		asm.Opcode = append(asm.Opcode, opcode)
	}()

	mnemonic := strings.ToLower(words[0])
	words = words[1:]

	// Alternate syntax substitutions
	switch {
	case mnemonic == "jump":
		mnemonic = "jp"
	case mnemonic == "return":
		mnemonic = "ret"
	case mnemonic == "key" && len(words) == 1:
		// key VX => ld VX k
		mnemonic = "ld"
		words = []string{words[0], "k"}
	case mnemonic == "bcd" && len(words) == 1:
		// bcd VX => ld b VX
		mnemonic = "ld"
		words = []string{"b", words[0]}
	default:
		// unchanged
	}

	code := func(c Code) {
		data = c.Bytes()
	}

	lower := make([]string, len(words))
	for n, word := range words {
		lower[n] = strings.ToLower(word)
	}

	switch mnemonic {
	case ".byte":
		if len(words) == 0 {
			err = ErrOpcodeValueMissing
			return
		}
		for _, word := range words {
			var kk uint8
			kk, err = asm.getByte(word)
			if err != nil {
				return
			}
			data = append(data, kk)
		}
	case ".word":
		if len(words) == 0 {
			err = ErrOpcodeValueMissing
			return
		}
		for _, word := range words {
			var value int
			value, err = asm.getValue(word, -0x8000, 0xffff)
			if err != nil {
				return
			}
			data = append(data, byte(value>>8), byte(value))
		}
	case ".org":
		if err = args(words, 1); err != nil {
			return
		}
		var addr int
		addr, err = asm.getValue(words[0], 0, MEMORY_SIZE)
		if err != nil {
			return
		}
		here := asm.currentAddr()
		if addr < here {
			err = ErrOrgBackwards
			return
		}
		data = make([]byte, addr-here)
	case "cls":
		if err = args(words, 0); err != nil {
			return
		}
		code(MakeCode(OP_CLS))
	case "ret":
		if err = args(words, 0); err != nil {
			return
		}
		code(MakeCode(OP_RET))
	case "jp", "call":
		op := OP_JP
		if mnemonic == "call" {
			op = OP_CALL
		}
		if len(words) == 2 && mnemonic == "jp" {
			if lower[0] != "v0" {
				err = ErrRegisterInvalid
				return
			}
			op = OP_JP_V0
			words = words[1:]
		}
		if err = args(words, 1); err != nil {
			return
		}
		var addr uint16
		addr, label, err = asm.getAddr(words[0])
		if err != nil {
			return
		}
		code(MakeCodeNnn(op, addr))
	case "se", "sne", "add", "ld":
		if err = args(words, 2); err != nil {
			return
		}
		err = asm.parseTwo(mnemonic, lower, words, code, &label)
	case "or", "and", "xor", "sub", "subn":
		if err = args(words, 2); err != nil {
			return
		}
		op := map[string]Op{
			"or":   OP_OR,
			"and":  OP_AND,
			"xor":  OP_XOR,
			"sub":  OP_SUB,
			"subn": OP_SUBN,
		}[mnemonic]
		var x, y int
		if x, err = asm.getReg(words[0]); err != nil {
			return
		}
		if y, err = asm.getReg(words[1]); err != nil {
			return
		}
		code(MakeCodeXy(op, x, y))
	case "shr", "shl":
		op := OP_SHR
		if mnemonic == "shl" {
			op = OP_SHL
		}
		if len(words) == 1 {
			words = append(words, words[0])
		}
		if err = args(words, 2); err != nil {
			return
		}
		var x, y int
		if x, err = asm.getReg(words[0]); err != nil {
			return
		}
		if y, err = asm.getReg(words[1]); err != nil {
			return
		}
		code(MakeCodeXy(op, x, y))
	case "rnd":
		if err = args(words, 2); err != nil {
			return
		}
		var x int
		var kk uint8
		if x, err = asm.getReg(words[0]); err != nil {
			return
		}
		if kk, err = asm.getByte(words[1]); err != nil {
			return
		}
		code(MakeCodeXkk(OP_RND, x, kk))
	case "drw":
		if err = args(words, 3); err != nil {
			return
		}
		var x, y, n int
		if x, err = asm.getReg(words[0]); err != nil {
			return
		}
		if y, err = asm.getReg(words[1]); err != nil {
			return
		}
		if n, err = asm.getValue(words[2], 0, 0xf); err != nil {
			return
		}
		code(MakeCodeXyn(OP_DRW, x, y, uint8(n)))
	case "skp", "sknp":
		if err = args(words, 1); err != nil {
			return
		}
		op := OP_SKP
		if mnemonic == "sknp" {
			op = OP_SKNP
		}
		var x int
		if x, err = asm.getReg(words[0]); err != nil {
			return
		}
		code(MakeCodeX(op, x))
	default:
		err = ErrInstructionInvalid
		return
	}

	return
}

// _ld_special maps the non-register 'ld' operands to the operation loading
// a register into them.
var _ld_special = map[string]Op{
	"dt":  OP_LD_DT_VX,
	"st":  OP_LD_ST_VX,
	"f":   OP_LD_F,
	"b":   OP_LD_B,
	"[i]": OP_LD_MEM,
}

// parseTwo handles the two operand forms of se, sne, add and ld.
func (asm *Assembler) parseTwo(mnemonic string, lower []string, words []string, code func(Code), label *string) (err error) {
	dst, src := lower[0], lower[1]

	// Forms with a special destination.
	switch {
	case mnemonic == "ld" && dst == "i":
		var addr uint16
		addr, *label, err = asm.getAddr(words[1])
		if err != nil {
			return
		}
		code(MakeCodeNnn(OP_LD_I, addr))
		return
	case mnemonic == "add" && dst == "i":
		var x int
		if x, err = asm.getReg(src); err != nil {
			return
		}
		code(MakeCodeX(OP_ADD_I, x))
		return
	case mnemonic == "ld":
		if op, ok := _ld_special[dst]; ok {
			var x int
			if x, err = asm.getReg(src); err != nil {
				return
			}
			code(MakeCodeX(op, x))
			return
		}
	}

	x, err := asm.getReg(dst)
	if err != nil {
		return
	}

	if y, ok := regOf(src); ok {
		op := map[string]Op{
			"se":  OP_SE_REG,
			"sne": OP_SNE_REG,
			"add": OP_ADD_REG,
			"ld":  OP_LD_REG,
		}[mnemonic]
		code(MakeCodeXy(op, x, y))
		return
	}

	if mnemonic == "ld" {
		switch src {
		case "dt":
			code(MakeCodeX(OP_LD_VX_DT, x))
			return
		case "k":
			code(MakeCodeX(OP_LD_VX_K, x))
			return
		case "[i]":
			code(MakeCodeX(OP_LD_VX_I, x))
			return
		}
	}

	kk, err := asm.getByte(words[1])
	if err != nil {
		return
	}
	op := map[string]Op{
		"se":  OP_SE_IMM,
		"sne": OP_SNE_IMM,
		"add": OP_ADD_IMM,
		"ld":  OP_LD_IMM,
	}[mnemonic]
	code(MakeCodeXkk(op, x, kk))

	return
}
